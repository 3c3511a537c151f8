package model

import (
	"testing"

	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func TestScenarioExpectedRowDeltaDefaults(t *testing.T) {
	explicitDelta := 3
	pasteRefused := false
	testCases := []struct {
		name     string
		scenario Scenario
		expected int
	}{
		{name: "successful create adds a row", scenario: Scenario{Action: ActionCreate, Expected: OutcomeSuccess}, expected: 1},
		{name: "failed create adds nothing", scenario: Scenario{Action: ActionCreate, Expected: OutcomeFailure}, expected: 0},
		{name: "copy paste adds a row", scenario: Scenario{Action: ActionCopyPaste, Expected: OutcomeSuccess}, expected: 1},
		{name: "delete removes a row", scenario: Scenario{Action: ActionDelete, Expected: OutcomeSuccess}, expected: -1},
		{name: "replace keeps the count", scenario: Scenario{Action: ActionReplace, Expected: OutcomeSuccess}, expected: 0},
		{name: "cancel keeps the count", scenario: Scenario{Action: ActionCancelCreate, Expected: OutcomeSuccess}, expected: 0},
		{name: "explicit delta wins", scenario: Scenario{Action: ActionCreate, Expected: OutcomeSuccess, RowDelta: &explicitDelta}, expected: 3},
		{name: "refused paste adds nothing", scenario: Scenario{Action: ActionCopyPaste, Expected: OutcomeSuccess, PasteAvailable: &pasteRefused}, expected: 0},
	}

	for _, testCase := range testCases {
		testCase := testCase
		t.Run(testCase.name, func(testingT *testing.T) {
			require.Equal(testingT, testCase.expected, testCase.scenario.ExpectedRowDelta())
		})
	}
}

func TestScenarioMutatesConfiguration(t *testing.T) {
	require.False(t, Scenario{Action: ActionUpdate, Expected: OutcomeSuccess}.MutatesConfiguration())
	require.True(t, Scenario{Action: ActionUpdate, Expected: OutcomeSuccess, Fields: FieldInputs{{Label: "Name", Value: TextControl("x")}}}.MutatesConfiguration())
	require.False(t, Scenario{Action: ActionCancelUpdate, Expected: OutcomeSuccess, Fields: FieldInputs{{Label: "Name", Value: TextControl("x")}}}.MutatesConfiguration())
	require.False(t, Scenario{Action: ActionCreate, Expected: OutcomeFailure}.MutatesConfiguration())
	require.True(t, Scenario{Action: ActionDelete, Expected: OutcomeSuccess}.MutatesConfiguration())

	pasteOffered, pasteRefused := true, false
	require.True(t, Scenario{Action: ActionCopyPaste, Expected: OutcomeSuccess, PasteAvailable: &pasteOffered}.MutatesConfiguration())
	require.False(t, Scenario{Action: ActionReplace, Expected: OutcomeSuccess, PasteAvailable: &pasteRefused}.MutatesConfiguration())
}

func TestScenarioInputsAppendTags(t *testing.T) {
	scenario := Scenario{
		Fields: FieldInputs{{Label: "Name", Value: TextControl("x")}},
		Tags:   []TagFilter{{Tag: "service", Value: "db"}},
	}

	inputs := scenario.Inputs()
	require.Len(t, inputs, 2)
	tagValue, found := inputs.Lookup(TagTableLabel)
	require.True(t, found)
	require.Equal(t, TagTableControl(TagFilter{Tag: "service", Value: "db"}), tagValue)
}

func TestScenarioExpectedErrorsMergesForms(t *testing.T) {
	scenario := Scenario{Error: "first", Errors: []string{"second"}}
	require.Equal(t, []string{"first", "second"}, scenario.ExpectedErrors())
	require.Empty(t, Scenario{Error: "  "}.ExpectedErrors())
}

func TestExpectedCellDecodesMatchers(t *testing.T) {
	document := `
rows:
  - ["Zabbix server", {contains: "192.168"}, {badge: {text: "3", class: "status-red"}}, {icon: "icon-maintenance"}, ~]
headers: [Host, Interface, Problems, Status, Actions]
ordered: true
`
	var table ExpectedTable
	require.NoError(t, yaml.Unmarshal([]byte(document), &table))

	require.True(t, table.Ordered)
	require.Len(t, table.Rows, 1)
	row := table.Rows[0]
	require.Equal(t, ExpectedCell{Matcher: CellMatchExact, Text: "Zabbix server"}, row[0])
	require.Equal(t, ExpectedCell{Matcher: CellMatchContains, Text: "192.168"}, row[1])
	require.Equal(t, ExpectedCell{Matcher: CellMatchBadge, Text: "3", Class: "status-red"}, row[2])
	require.Equal(t, ExpectedCell{Matcher: CellMatchIcon, Class: "icon-maintenance"}, row[3])
	require.Equal(t, ExpectedCell{Matcher: CellMatchAny}, row[4])
}

func TestExpectedCellRejectsUnknownMatcher(t *testing.T) {
	var cell ExpectedCell
	require.Error(t, yaml.Unmarshal([]byte("{regex: \".*\"}"), &cell))
}
