package main

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/MarkoPoloResearchLab/dashcheck/internal/fixture"
	"github.com/MarkoPoloResearchLab/dashcheck/internal/model"
	"github.com/MarkoPoloResearchLab/dashcheck/internal/provider"
	"github.com/MarkoPoloResearchLab/dashcheck/internal/scenario"
)

const (
	defaultTablesDirectory = "scenarios"
	defaultPlanPath        = "fixtures.yaml"
	labelName              = "Name"
)

type auditResult struct {
	errors   []string
	warnings []string
}

func (result *auditResult) addError(message string, arguments ...any) {
	result.errors = append(result.errors, fmt.Sprintf(message, arguments...))
}

func (result *auditResult) addWarning(message string, arguments ...any) {
	result.warnings = append(result.warnings, fmt.Sprintf(message, arguments...))
}

func (result auditResult) ok() bool {
	return len(result.errors) == 0
}

func main() {
	tablesDirectory := defaultTablesDirectory
	planPath := defaultPlanPath
	if len(os.Args) > 1 {
		tablesDirectory = os.Args[1]
	}
	if len(os.Args) > 2 {
		planPath = os.Args[2]
	}

	result := runAudit(tablesDirectory, planPath)
	sort.Strings(result.errors)
	sort.Strings(result.warnings)

	for _, warning := range result.warnings {
		_, _ = fmt.Fprintf(os.Stdout, "WARN: %s\n", warning)
	}
	for _, errorMessage := range result.errors {
		_, _ = fmt.Fprintf(os.Stderr, "ERROR: %s\n", errorMessage)
	}
	if !result.ok() {
		_, _ = fmt.Fprintf(os.Stderr, "table-audit failed\n")
		os.Exit(1)
	}
	_, _ = fmt.Fprintf(os.Stdout, "table-audit OK\n")
}

// runAudit checks scenario tables against the fixture plan they run on. Each file is validated
// on its own when loaded; the audit covers what only the two together can tell.
func runAudit(tablesDirectory string, planPath string) auditResult {
	var result auditResult

	tables, tablesErr := provider.LoadTables(tablesDirectory)
	if tablesErr != nil {
		result.addError("load tables %s: %v", tablesDirectory, tablesErr)
		return result
	}
	if len(tables) == 0 {
		result.addError("tables directory %s: no scenario tables", tablesDirectory)
		return result
	}
	plan, planErr := fixture.LoadPlan(planPath)
	if planErr != nil {
		result.addError("load plan %s: %v", planPath, planErr)
		return result
	}

	dashboards := plannedDashboards(plan)
	covered := make(map[dashboardKey]bool, len(dashboards))
	for _, table := range tables {
		key := dashboardKey{kind: table.ViewKind(), template: table.Template, name: table.Dashboard}
		dashboard, planned := dashboards[key]
		if !planned {
			result.addError("table %s: %s %q is not in the fixture plan", table.Name, key.kind, describeDashboard(key))
			continue
		}
		covered[key] = true
		checkCurrentWidget(table, dashboard, &result)
		checkScenarioSources(table, dashboard, dashboards, &result)
		checkScreenshotExpectations(table, &result)
	}

	for key := range dashboards {
		if !covered[key] {
			result.addWarning("%s %q has no scenario table", key.kind, describeDashboard(key))
		}
	}
	return result
}

type dashboardKey struct {
	kind     scenario.ViewKind
	template string
	name     string
}

func describeDashboard(key dashboardKey) string {
	if key.template == "" {
		return key.name
	}
	return fixture.TemplateDashboardKey(key.template, key.name)
}

func plannedDashboards(plan fixture.Plan) map[dashboardKey]model.Dashboard {
	dashboards := make(map[dashboardKey]model.Dashboard, len(plan.Dashboards)+len(plan.TemplateDashboards))
	for _, dashboard := range plan.Dashboards {
		dashboards[dashboardKey{kind: scenario.ViewKindDashboard, name: dashboard.Name}] = dashboard
	}
	for _, dashboard := range plan.TemplateDashboards {
		key := dashboardKey{kind: scenario.ViewKindTemplateDashboard, template: dashboard.Template, name: dashboard.Name}
		dashboards[key] = dashboard
	}
	return dashboards
}

func plannedHeaders(dashboard model.Dashboard) map[string]bool {
	headers := map[string]bool{}
	for _, widget := range dashboard.Widgets() {
		headers[widget.HeaderName()] = true
	}
	return headers
}

// checkCurrentWidget requires the widget a table starts on to be provisioned, unless a row
// creates it first.
func checkCurrentWidget(table provider.Table, dashboard model.Dashboard, result *auditResult) {
	if table.Widget == "" || plannedHeaders(dashboard)[table.Widget] {
		return
	}
	for _, row := range table.Rows {
		if row.Action == model.ActionCreate && row.Header == table.Widget {
			return
		}
	}
	result.addError("table %s: widget %q is not on dashboard %q", table.Name, table.Widget, dashboard.Name)
}

// checkScenarioSources warns about copy sources that are neither provisioned nor created or
// renamed earlier in the table. Sources copied on another dashboard must be provisioned there.
func checkScenarioSources(table provider.Table, dashboard model.Dashboard, dashboards map[dashboardKey]model.Dashboard, result *auditResult) {
	known := plannedHeaders(dashboard)
	for _, row := range table.Rows {
		if row.CopyFrom != nil {
			key := dashboardKey{kind: row.CopyFrom.ViewKind(), template: row.CopyFrom.Template, name: row.CopyFrom.Dashboard}
			source, planned := dashboards[key]
			switch {
			case !planned:
				result.addError("table %s: scenario %s copies from %s %q which is not in the fixture plan", table.Name, row.Name, key.kind, describeDashboard(key))
			case !plannedHeaders(source)[row.Source]:
				result.addWarning("table %s: scenario %s copies %q which %q does not provide", table.Name, row.Name, row.Source, describeDashboard(key))
			}
		} else if row.Source != "" && !known[row.Source] {
			result.addWarning("table %s: scenario %s copies %q which no earlier step provides", table.Name, row.Name, row.Source)
		}
		if row.Expected != model.OutcomeSuccess {
			continue
		}
		name, named := row.Inputs().Lookup(labelName)
		switch row.Action {
		case model.ActionCreate:
			known[model.ResolveHeaderName(row.WidgetType, name.Text)] = true
		case model.ActionUpdate:
			if trimmedName := strings.TrimSpace(name.Text); named && trimmedName != "" {
				known[trimmedName] = true
			}
		}
	}
}

func checkScreenshotExpectations(table provider.Table, result *auditResult) {
	for _, row := range table.Rows {
		if row.Screenshot == nil {
			continue
		}
		if row.Screenshot.MinimumVariance < 0 {
			result.addError("table %s: scenario %s: negative minimum variance", table.Name, row.Name)
		}
		for _, presence := range row.Screenshot.ColorPresence {
			if presence.MinimumRatio < 0 || presence.MinimumRatio > 1 {
				result.addError("table %s: scenario %s: color ratio %g outside [0, 1]", table.Name, row.Name, presence.MinimumRatio)
			}
			if presence.Tolerance < 0 {
				result.addError("table %s: scenario %s: negative color tolerance", table.Name, row.Name)
			}
		}
		if row.Screenshot.MinimumVariance == 0 && len(row.Screenshot.ColorPresence) == 0 {
			result.addWarning("table %s: scenario %s: screenshot expectation checks nothing", table.Name, row.Name)
		}
	}
}
