package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

const (
	testPlanFileName = "fixtures.yaml"
	testPlan         = `host_groups:
  - name: audit hosts
templates:
  - name: audit template
    groups: [audit hosts]
dashboards:
  - name: Audited
    pages:
      - widgets:
          - type: url
            name: Docs
            geometry: {x: 0, y: 0, width: 12, height: 5}
  - name: Uncovered
    pages:
      - widgets:
          - type: clock
            geometry: {x: 0, y: 0, width: 12, height: 5}
template_dashboards:
  - name: Template view
    template: audit template
    pages:
      - widgets:
          - type: clock
            geometry: {x: 0, y: 0, width: 12, height: 5}
`
	testCoveredTable = `name: audited
dashboard: Audited
widget: Docs
scenarios:
  - name: rename docs
    action: update
    fields:
      Name: Manual
    expected: success
  - name: copy manual
    action: copy-paste
    source: Manual
    expected: success
  - name: copy clock
    action: copy-paste
    source: Clock
    expected: success
  - name: paste template clock
    action: copy-paste
    source: Clock
    copy_from: {view: template-dashboard, template: audit template, dashboard: Template view}
    paste_available: false
    expected: success
  - name: paste uncovered docs
    action: copy-paste
    source: Docs
    copy_from: {dashboard: Uncovered}
    expected: success
`
	testTemplateTable = `name: template
dashboard: Template view
view: template-dashboard
template: audit template
scenarios:
  - name: delete clock
    action: delete
    widget: Clock
    expected: success
`
)

func writeAuditFiles(testingT *testing.T, tables map[string]string) (string, string) {
	testingT.Helper()
	root := testingT.TempDir()
	tablesDirectory := filepath.Join(root, "scenarios")
	require.NoError(testingT, os.MkdirAll(tablesDirectory, 0o755))
	for name, contents := range tables {
		require.NoError(testingT, os.WriteFile(filepath.Join(tablesDirectory, name), []byte(contents), 0o644))
	}
	planPath := filepath.Join(root, testPlanFileName)
	require.NoError(testingT, os.WriteFile(planPath, []byte(testPlan), 0o644))
	return tablesDirectory, planPath
}

func TestRunAuditReportsCoverageAndSources(testingT *testing.T) {
	tablesDirectory, planPath := writeAuditFiles(testingT, map[string]string{
		"audited.yaml":  testCoveredTable,
		"template.yaml": testTemplateTable,
	})

	result := runAudit(tablesDirectory, planPath)
	require.True(testingT, result.ok(), result.errors)
	require.ElementsMatch(testingT, []string{
		`table audited: scenario copy clock copies "Clock" which no earlier step provides`,
		`table audited: scenario paste uncovered docs copies "Docs" which "Uncovered" does not provide`,
		`dashboard "Uncovered" has no scenario table`,
	}, result.warnings)
}

func TestRunAuditErrors(testingT *testing.T) {
	testCases := []struct {
		name          string
		table         string
		expectedError string
	}{
		{
			name:          "dashboard missing from plan",
			table:         "dashboard: Elsewhere\nscenarios:\n  - {name: delete, action: delete, widget: Docs, expected: success}\n",
			expectedError: `table missing: dashboard "Elsewhere" is not in the fixture plan`,
		},
		{
			name:          "template dashboard under another template",
			table:         "dashboard: Template view\nview: template-dashboard\ntemplate: other template\nscenarios:\n  - {name: delete, action: delete, widget: Clock, expected: success}\n",
			expectedError: `table missing: template-dashboard "other template: Template view" is not in the fixture plan`,
		},
		{
			name:          "unknown current widget",
			table:         "dashboard: Audited\nwidget: Ghost\nscenarios:\n  - {name: delete, action: delete, expected: success}\n",
			expectedError: `table missing: widget "Ghost" is not on dashboard "Audited"`,
		},
		{
			name:          "copy source missing from plan",
			table:         "dashboard: Audited\nscenarios:\n  - {name: paste, action: copy-paste, source: Docs, copy_from: {dashboard: Elsewhere}, expected: success}\n",
			expectedError: `table missing: scenario paste copies from dashboard "Elsewhere" which is not in the fixture plan`,
		},
		{
			name:          "color ratio out of range",
			table:         "dashboard: Audited\nscenarios:\n  - name: copy\n    action: copy-paste\n    source: Docs\n    expected: success\n    screenshot:\n      color_presence:\n        - {color: {red: 1, green: 2, blue: 3}, tolerance: 1, minimum_ratio: 2}\n",
			expectedError: "table missing: scenario copy: color ratio 2 outside [0, 1]",
		},
	}

	for _, testCase := range testCases {
		testCase := testCase
		testingT.Run(testCase.name, func(testingT *testing.T) {
			tablesDirectory, planPath := writeAuditFiles(testingT, map[string]string{"missing.yaml": testCase.table})
			result := runAudit(tablesDirectory, planPath)
			require.False(testingT, result.ok())
			require.Contains(testingT, result.errors, testCase.expectedError)
		})
	}
}

func TestRunAuditRejectsUnreadableInputs(testingT *testing.T) {
	emptyDirectory := testingT.TempDir()
	result := runAudit(emptyDirectory, filepath.Join(emptyDirectory, testPlanFileName))
	require.Equal(testingT, []string{"tables directory " + emptyDirectory + ": no scenario tables"}, result.errors)

	tablesDirectory, _ := writeAuditFiles(testingT, map[string]string{"audited.yaml": testCoveredTable})
	missingPlan := filepath.Join(testingT.TempDir(), testPlanFileName)
	result = runAudit(tablesDirectory, missingPlan)
	require.Len(testingT, result.errors, 1)
	require.Contains(testingT, result.errors[0], "load plan "+missingPlan)
}
