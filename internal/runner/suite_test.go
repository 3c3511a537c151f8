package runner_test

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/MarkoPoloResearchLab/dashcheck/internal/fixture"
	"github.com/MarkoPoloResearchLab/dashcheck/internal/model"
	"github.com/MarkoPoloResearchLab/dashcheck/internal/provider"
	"github.com/MarkoPoloResearchLab/dashcheck/internal/runner"
	"github.com/MarkoPoloResearchLab/dashcheck/internal/scenario"
	"github.com/MarkoPoloResearchLab/dashcheck/internal/storage"
	"github.com/MarkoPoloResearchLab/dashcheck/internal/testutil"
	"github.com/MarkoPoloResearchLab/dashcheck/internal/verify"
)

const (
	testDashboardName     = "Runner dashboard"
	testTemplateDashboard = "Runner template view"
	testTemplateName      = "runner template"
	testAPIToken          = "runner-token"
)

type suiteHarness struct {
	app   *testutil.FakeDashboardApp
	store *storage.VerificationStore
}

func newSuiteHarness(testingT *testing.T) suiteHarness {
	testingT.Helper()
	database := testutil.NewSQLiteTestDatabase(testingT).OpenMigratedDatabase(testingT)
	app := testutil.NewFakeDashboardApp(testutil.NewRecordWriter(database, nil))
	require.NoError(testingT, app.AddDashboard(testDashboardName, scenario.ViewKindDashboard,
		testutil.FakeWidget{
			Type:     model.WidgetTypeURL,
			Fields:   model.FieldInputs{{Label: "Name", Value: model.TextControl("Docs")}, {Label: "URL", Value: model.TextControl("https://example.com/docs")}},
			Geometry: model.Geometry{X: 0, Y: 0, Width: 12, Height: 5},
		},
		testutil.FakeWidget{
			Type:     model.WidgetTypeClock,
			Geometry: model.Geometry{X: 12, Y: 0, Width: 12, Height: 5},
		},
	))
	store, storeErr := storage.NewVerificationStore(database, zap.NewNop())
	require.NoError(testingT, storeErr)
	return suiteHarness{app: app, store: store}
}

func (harness suiteHarness) suite(testingT *testing.T, options ...runner.Option) *runner.Suite {
	testingT.Helper()
	suite, suiteErr := runner.NewSuite(harness.app.Dashboard(), harness.store, options...)
	require.NoError(testingT, suiteErr)
	return suite
}

func text(value string) model.ControlValue {
	return model.TextControl(value)
}

func exact(value string) model.ExpectedCell {
	return model.ExpectedCell{Matcher: model.CellMatchExact, Text: value}
}

func urlColorExpectation() *verify.ScreenshotExpectation {
	fill := testutil.FakeWidgetColor(model.WidgetTypeURL)
	return &verify.ScreenshotExpectation{ColorPresence: []verify.ColorPresence{{
		Color:        verify.RGBColor{Red: float64(fill.R), Green: float64(fill.G), Blue: float64(fill.B)},
		Tolerance:    1,
		MinimumRatio: 1,
	}}}
}

func lifecycleTable() provider.Table {
	return provider.Table{
		Name:      "url lifecycle",
		Dashboard: testDashboardName,
		Rows: []provider.Row{
			{
				Scenario: model.Scenario{
					Name:            "create link",
					Action:          model.ActionCreate,
					WidgetType:      model.WidgetTypeURL,
					Fields:          model.FieldInputs{{Label: "Name", Value: text("  Link ")}, {Label: "URL", Value: text("https://example.com")}},
					Expected:        model.OutcomeSuccess,
					Header:          "Link",
					RefreshInterval: "No refresh",
					Message:         &model.ExpectedMessage{Kind: model.MessageKindGood, Title: "Dashboard updated"},
					ScreenshotRetry: true,
					Table: &model.ExpectedTable{
						Headers: []string{"Field", "Value"},
						Ordered: true,
						Rows: [][]model.ExpectedCell{
							{exact("Refresh interval"), {Matcher: model.CellMatchContains, Text: "No refresh"}},
							{exact("URL"), exact("https://example.com")},
							{exact("Enable host selection"), {Matcher: model.CellMatchBadge, Text: "No", Class: "status-grey"}},
						},
					},
				},
				Screenshot: urlColorExpectation(),
			},
			{
				Scenario: model.Scenario{
					Name:       "create with empty url",
					Action:     model.ActionCreate,
					WidgetType: model.WidgetTypeURL,
					Fields:     model.FieldInputs{{Label: "Name", Value: text("Broken")}, {Label: "URL", Value: text("")}},
					Expected:   model.OutcomeFailure,
					Error:      `Invalid parameter "URL": cannot be empty.`,
				},
			},
			{
				Scenario: model.Scenario{
					Name:     "rename current widget",
					Action:   model.ActionUpdate,
					Fields:   model.FieldInputs{{Label: "Name", Value: text("Renamed link")}},
					Expected: model.OutcomeSuccess,
				},
			},
			{
				Scenario: model.Scenario{
					Name:     "submit without changes",
					Action:   model.ActionUpdate,
					Expected: model.OutcomeSuccess,
				},
			},
			{
				Scenario: model.Scenario{
					Name:        "cancel update at dashboard",
					Action:      model.ActionCancelUpdate,
					Fields:      model.FieldInputs{{Label: "URL", Value: text("https://changed.example.com")}},
					Expected:    model.OutcomeSuccess,
					CancelPoint: model.CancelPointDashboard,
				},
			},
			{
				Scenario: model.Scenario{
					Name:        "cancel create at form",
					Action:      model.ActionCancelCreate,
					WidgetType:  model.WidgetTypeClock,
					Fields:      model.FieldInputs{{Label: "Name", Value: text("Ghost")}},
					Expected:    model.OutcomeSuccess,
					CancelPoint: model.CancelPointForm,
				},
			},
			{
				Scenario: model.Scenario{Name: "copy docs", Action: model.ActionCopyPaste, Source: "Docs", Expected: model.OutcomeSuccess},
			},
			{
				Scenario: model.Scenario{Name: "replace clock", Action: model.ActionReplace, Source: "Docs", Target: "Clock", Expected: model.OutcomeSuccess},
			},
			{
				Scenario: model.Scenario{Name: "delete renamed", Action: model.ActionDelete, Target: "Renamed link", Expected: model.OutcomeSuccess},
			},
		},
	}
}

func TestSuiteRunsLifecycleTable(t *testing.T) {
	harness := newSuiteHarness(t)
	suite := harness.suite(t, runner.WithConfig(runner.Config{ScreenshotRetryDelay: time.Millisecond}))

	report, runErr := suite.Run(context.Background(), fixture.Plan{}, []provider.Table{lifecycleTable()})
	require.NoError(t, runErr)

	for _, result := range report.Results {
		require.Equal(t, runner.StatusPassed, result.Status, "%s: %s", result.Scenario, result.Error)
	}
	passed, failed, skipped := report.Counts()
	require.Equal(t, []int{9, 0, 0}, []int{passed, failed, skipped})
	require.Equal(t, runner.SuiteStatusPassed, report.Status)

	ctx := context.Background()
	total, countErr := harness.store.CountRows(ctx, storage.DashboardWidgetCount(testDashboardName))
	require.NoError(t, countErr)
	require.Equal(t, int64(3), total)
	docs, countErr := harness.store.CountRows(ctx, storage.DashboardWidgetCountByName(testDashboardName, "Docs"))
	require.NoError(t, countErr)
	require.Equal(t, int64(3), docs)
}

func TestSuiteRecordsFailureAndContinues(t *testing.T) {
	harness := newSuiteHarness(t)
	screenshots := t.TempDir()
	suite := harness.suite(t,
		runner.WithScreenshotter(stubScreenshotter{}),
		runner.WithConfig(runner.Config{ScreenshotsDirectory: screenshots}),
	)
	table := provider.Table{
		Name:      "mixed",
		Dashboard: testDashboardName,
		Widget:    "Docs",
		Rows: []provider.Row{
			{Scenario: model.Scenario{Name: "wrong header", Action: model.ActionUpdate, Fields: model.FieldInputs{{Label: "Name", Value: text("Manual")}}, Expected: model.OutcomeSuccess, Header: "Guide"}},
			{Scenario: model.Scenario{Name: "missing widget", Action: model.ActionDelete, Target: "Nowhere", Expected: model.OutcomeSuccess}},
			{Scenario: model.Scenario{Name: "rename back", Action: model.ActionUpdate, Target: "Manual", Fields: model.FieldInputs{{Label: "Name", Value: text("Docs")}}, Expected: model.OutcomeSuccess}},
		},
	}

	report, runErr := suite.Run(context.Background(), fixture.Plan{}, []provider.Table{table})
	require.NoError(t, runErr)
	require.Equal(t, runner.SuiteStatusFailed, report.Status)

	failures := report.Failures()
	require.Len(t, failures, 2)
	require.Equal(t, "wrong header", failures[0].Scenario)
	require.Contains(t, failures[0].Error, "verify: header")
	require.Equal(t, filepath.Join(screenshots, "mixed-wrong-header.png"), failures[0].Screenshot)
	require.FileExists(t, failures[0].Screenshot)
	require.Contains(t, failures[1].Error, scenario.ErrWidgetNotFound.Error())

	require.Equal(t, runner.StatusPassed, report.Results[2].Status, report.Results[2].Error)
}

func TestSuiteChecksRejectedSave(t *testing.T) {
	harness := newSuiteHarness(t)
	harness.app.RejectNextSave("Dashboard is locked.")
	suite := harness.suite(t)
	table := provider.Table{
		Name:      "locked",
		Dashboard: testDashboardName,
		Rows: []provider.Row{{Scenario: model.Scenario{
			Name:     "rename while locked",
			Action:   model.ActionUpdate,
			Target:   "Docs",
			Fields:   model.FieldInputs{{Label: "Name", Value: text("Locked")}},
			Expected: model.OutcomeFailure,
			Error:    "Dashboard is locked.",
			Message:  &model.ExpectedMessage{Kind: model.MessageKindBad, Title: "Cannot update dashboard", Details: []string{"Dashboard is locked."}},
		}}},
	}

	report, runErr := suite.Run(context.Background(), fixture.Plan{}, []provider.Table{table})
	require.NoError(t, runErr)
	require.Equal(t, runner.StatusPassed, report.Results[0].Status, report.Results[0].Error)
}

func TestSuiteSkipsTableWithUnknownDashboard(t *testing.T) {
	harness := newSuiteHarness(t)
	table := provider.Table{
		Name:      "elsewhere",
		Dashboard: "Not provisioned",
		Rows:      []provider.Row{{Scenario: model.Scenario{Name: "delete", Action: model.ActionDelete, Expected: model.OutcomeSuccess}}},
	}

	report, runErr := harness.suite(t).Run(context.Background(), fixture.Plan{}, []provider.Table{table})
	require.NoError(t, runErr)
	require.Equal(t, runner.StatusSkipped, report.Results[0].Status)
	require.Contains(t, report.Results[0].Error, "runner: open table view")
}

func TestSuiteFixtureFailureIsFatal(t *testing.T) {
	harness := newSuiteHarness(t)
	fakeAPI := testutil.NewFakeFixtureAPI(t, testAPIToken)
	fakeAPI.FailMethod("hostgroup.create", -32602, "Invalid params.", "Host group already exists.")
	client, clientErr := fixture.NewClient(fixture.ClientConfig{APIURL: fakeAPI.URL(), Token: testAPIToken}, zap.NewNop())
	require.NoError(t, clientErr)

	suite := harness.suite(t, runner.WithProvisioner(fixture.NewProvisioner(client, zap.NewNop())))
	plan := fixture.Plan{HostGroups: []model.HostGroup{{Name: "dashcheck hosts"}}}

	report, runErr := suite.Run(context.Background(), plan, []provider.Table{lifecycleTable()})
	require.ErrorIs(t, runErr, fixture.ErrFixtureFailed)
	require.Equal(t, runner.SuiteStatusFatal, report.Status)
	require.NotEmpty(t, report.FixtureError)
	passed, failed, skipped := report.Counts()
	require.Equal(t, []int{0, 0, 9}, []int{passed, failed, skipped})
}

func TestSuiteStopsWhenCancelled(t *testing.T) {
	harness := newSuiteHarness(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	report, runErr := harness.suite(t).Run(ctx, fixture.Plan{}, []provider.Table{lifecycleTable()})
	require.ErrorIs(t, runErr, context.Canceled)
	_, _, skipped := report.Counts()
	require.Equal(t, 9, skipped)
}

func TestNewSuiteRequiresCollaborators(t *testing.T) {
	harness := newSuiteHarness(t)
	_, dashboardErr := runner.NewSuite(nil, harness.store)
	require.ErrorIs(t, dashboardErr, runner.ErrMissingDashboard)
	_, storeErr := runner.NewSuite(harness.app.Dashboard(), nil)
	require.ErrorIs(t, storeErr, runner.ErrMissingStore)
}

func TestResolveView(t *testing.T) {
	registry := fixture.NewRegistry()
	require.NoError(t, registry.Record(fixture.EntityKindDashboard, "Main", "7"))
	require.NoError(t, registry.Record(fixture.EntityKindTemplateDashboard, fixture.TemplateDashboardKey("Linux", "Overview"), "9"))

	require.Equal(t, scenario.View{Kind: scenario.ViewKindDashboard, DashboardID: "7", Name: "Main"},
		runner.ResolveView(registry, provider.Table{Dashboard: "Main"}))
	require.Equal(t, scenario.View{Kind: scenario.ViewKindTemplateDashboard, DashboardID: "9", Name: "Overview"},
		runner.ResolveView(registry, provider.Table{Dashboard: "Overview", View: scenario.ViewKindTemplateDashboard, Template: "Linux"}))
	require.Empty(t, runner.ResolveView(registry, provider.Table{Dashboard: "Missing"}).DashboardID)
}

func TestReportWriteJSON(t *testing.T) {
	harness := newSuiteHarness(t)
	report, runErr := harness.suite(t).Run(context.Background(), fixture.Plan{}, []provider.Table{lifecycleTable()})
	require.NoError(t, runErr)

	path := filepath.Join(t.TempDir(), "reports", "run.json")
	require.NoError(t, report.WriteJSON(path))

	contents, readErr := os.ReadFile(path)
	require.NoError(t, readErr)
	var decoded runner.Report
	require.NoError(t, json.Unmarshal(contents, &decoded))
	require.Equal(t, report.ID, decoded.ID)
	require.Len(t, decoded.Results, 9)
	require.Equal(t, "create link", decoded.Results[0].Scenario)
	require.Contains(t, report.Summary(), "passed: 9 passed, 0 failed, 0 skipped")
}

func TestSuiteSkipsLaterTablesWhenCancelledMidTable(t *testing.T) {
	harness := newSuiteHarness(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	suite, suiteErr := runner.NewSuite(cancellingDashboard{Dashboard: harness.app.Dashboard(), cancel: cancel}, harness.store)
	require.NoError(t, suiteErr)
	tables := []provider.Table{
		{
			Name:      "first",
			Dashboard: testDashboardName,
			Rows: []provider.Row{
				{Scenario: model.Scenario{Name: "rename docs", Action: model.ActionUpdate, Target: "Docs", Fields: model.FieldInputs{{Label: "Name", Value: text("Manual")}}, Expected: model.OutcomeSuccess}},
				{Scenario: model.Scenario{Name: "delete clock", Action: model.ActionDelete, Target: "Clock", Expected: model.OutcomeSuccess}},
			},
		},
		{
			Name:      "second",
			Dashboard: testDashboardName,
			Rows: []provider.Row{
				{Scenario: model.Scenario{Name: "copy manual", Action: model.ActionCopyPaste, Source: "Manual", Expected: model.OutcomeSuccess}},
				{Scenario: model.Scenario{Name: "delete manual", Action: model.ActionDelete, Target: "Manual", Expected: model.OutcomeSuccess}},
			},
		},
	}

	report, runErr := suite.Run(ctx, fixture.Plan{}, tables)
	require.ErrorIs(t, runErr, context.Canceled)
	require.Len(t, report.Results, 4)
	require.NotEqual(t, runner.StatusSkipped, report.Results[0].Status)
	for _, result := range report.Results[1:] {
		require.Equal(t, runner.StatusSkipped, result.Status, result.Scenario)
		require.Contains(t, result.Error, context.Canceled.Error())
	}
	require.Equal(t, []string{"delete clock", "copy manual", "delete manual"},
		[]string{report.Results[1].Scenario, report.Results[2].Scenario, report.Results[3].Scenario})
}

func TestSuiteVerifiesReplacementInPlace(t *testing.T) {
	harness := newSuiteHarness(t)
	suite, suiteErr := runner.NewSuite(relocatingDashboard{Dashboard: harness.app.Dashboard()}, harness.store)
	require.NoError(t, suiteErr)
	table := provider.Table{
		Name:      "relocated",
		Dashboard: testDashboardName,
		Rows: []provider.Row{{Scenario: model.Scenario{
			Name:     "replace clock",
			Action:   model.ActionReplace,
			Source:   "Docs",
			Target:   "Clock",
			Expected: model.OutcomeSuccess,
		}}},
	}

	report, runErr := suite.Run(context.Background(), fixture.Plan{}, []provider.Table{table})
	require.NoError(t, runErr)
	require.Equal(t, runner.StatusFailed, report.Results[0].Status)
	require.Contains(t, report.Results[0].Error, "verify: replacement position")
	require.Contains(t, report.Results[0].Error, `"Docs" at`)
}

func TestSuiteDeletesDefaultNamedWidget(t *testing.T) {
	testCases := []struct {
		name          string
		dashboard     func(scenario.Dashboard) scenario.Dashboard
		expectedError string
	}{
		{
			name:      "widget removed",
			dashboard: func(dashboard scenario.Dashboard) scenario.Dashboard { return dashboard },
		},
		{
			name:          "widget kept",
			dashboard:     func(dashboard scenario.Dashboard) scenario.Dashboard { return keepingDashboard{Dashboard: dashboard} },
			expectedError: `verify: rendered widgets after delete: expected 0 "Clock", actual 1`,
		},
	}

	for _, testCase := range testCases {
		testCase := testCase
		t.Run(testCase.name, func(testingT *testing.T) {
			harness := newSuiteHarness(testingT)
			suite, suiteErr := runner.NewSuite(testCase.dashboard(harness.app.Dashboard()), harness.store)
			require.NoError(testingT, suiteErr)
			table := provider.Table{
				Name:      "default names",
				Dashboard: testDashboardName,
				Rows:      []provider.Row{{Scenario: model.Scenario{Name: "delete clock", Action: model.ActionDelete, Target: "Clock", Expected: model.OutcomeSuccess}}},
			}

			report, runErr := suite.Run(context.Background(), fixture.Plan{}, []provider.Table{table})
			require.NoError(testingT, runErr)
			result := report.Results[0]
			unnamed, countErr := harness.store.CountRows(context.Background(), storage.DashboardWidgetCountByName(testDashboardName, ""))
			require.NoError(testingT, countErr)
			if testCase.expectedError == "" {
				require.Equal(testingT, runner.StatusPassed, result.Status, result.Error)
				require.Zero(testingT, unnamed)
				return
			}
			require.Equal(testingT, runner.StatusFailed, result.Status)
			require.Equal(testingT, testCase.expectedError, result.Error)
			require.Equal(testingT, int64(1), unnamed)
		})
	}
}

func TestSuiteObservesCrossContextPaste(t *testing.T) {
	pasteOffered, pasteRefused := true, false
	testCases := []struct {
		name           string
		action         model.Action
		offer          bool
		pasteAvailable *bool
		expectedError  string
	}{
		{name: "paste refused as expected", action: model.ActionCopyPaste, pasteAvailable: &pasteRefused},
		{name: "replace refused as expected", action: model.ActionReplace, pasteAvailable: &pasteRefused},
		{name: "paste offered against expectation", action: model.ActionCopyPaste, offer: true, pasteAvailable: &pasteRefused, expectedError: "verify: paste available: expected false, actual true"},
		{name: "paste offered without expectation", action: model.ActionCopyPaste, offer: true, expectedError: "verify: cross-context paste"},
		{name: "replace offered", action: model.ActionReplace, offer: true, pasteAvailable: &pasteOffered, expectedError: "verify: cross-context paste"},
	}

	for _, testCase := range testCases {
		testCase := testCase
		t.Run(testCase.name, func(testingT *testing.T) {
			harness := newSuiteHarness(testingT)
			require.NoError(testingT, harness.app.AddDashboard(testTemplateDashboard, scenario.ViewKindTemplateDashboard, testutil.FakeWidget{
				Type:     model.WidgetTypeURL,
				Fields:   model.FieldInputs{{Label: "Name", Value: text("Template docs")}, {Label: "URL", Value: text("https://example.com/template")}},
				Geometry: model.Geometry{Width: 12, Height: 5},
			}))
			if testCase.offer {
				harness.app.OfferCrossContextPaste()
			}
			table := provider.Table{
				Name:      "cross context",
				Dashboard: testDashboardName,
				Rows: []provider.Row{{
					Scenario: model.Scenario{
						Name:           "paste template widget",
						Action:         testCase.action,
						Source:         "Template docs",
						Target:         "Clock",
						Expected:       model.OutcomeSuccess,
						PasteAvailable: testCase.pasteAvailable,
					},
					CopyFrom: &provider.CopySource{View: scenario.ViewKindTemplateDashboard, Template: testTemplateName, Dashboard: testTemplateDashboard},
				}},
			}

			report, runErr := harness.suite(testingT).Run(context.Background(), fixture.Plan{}, []provider.Table{table})
			require.NoError(testingT, runErr)
			result := report.Results[0]
			if testCase.expectedError == "" {
				require.Equal(testingT, runner.StatusPassed, result.Status, result.Error)
			} else {
				require.Equal(testingT, runner.StatusFailed, result.Status)
				require.Contains(testingT, result.Error, testCase.expectedError)
			}
			total, countErr := harness.store.CountRows(context.Background(), storage.DashboardWidgetCount(testDashboardName))
			require.NoError(testingT, countErr)
			require.Equal(testingT, int64(2), total)
			clocks, countErr := harness.store.CountRows(context.Background(), storage.DashboardWidgetCountByName(testDashboardName, ""))
			require.NoError(testingT, countErr)
			require.Equal(testingT, int64(1), clocks)
		})
	}
}

func TestResolveCopySource(t *testing.T) {
	registry := fixture.NewRegistry()
	require.NoError(t, registry.Record(fixture.EntityKindTemplateDashboard, fixture.TemplateDashboardKey("Linux", "Overview"), "9"))

	require.Equal(t, scenario.View{Kind: scenario.ViewKindTemplateDashboard, DashboardID: "9", Name: "Overview"},
		runner.ResolveCopySource(registry, provider.CopySource{View: scenario.ViewKindTemplateDashboard, Template: "Linux", Dashboard: "Overview"}))
	require.Equal(t, scenario.View{Kind: scenario.ViewKindDashboard, Name: "Main"},
		runner.ResolveCopySource(registry, provider.CopySource{Dashboard: "Main"}))
}

// cancellingDashboard cancels the run once a save went through.
type cancellingDashboard struct {
	scenario.Dashboard
	cancel context.CancelFunc
}

func (dashboard cancellingDashboard) Save(ctx context.Context) (scenario.SubmitResult, error) {
	result, saveErr := dashboard.Dashboard.Save(ctx)
	dashboard.cancel()
	return result, saveErr
}

// relocatingDashboard replaces a widget by pasting the copy at the end of the dashboard and
// deleting the target.
type relocatingDashboard struct {
	scenario.Dashboard
}

func (dashboard relocatingDashboard) FindWidget(ctx context.Context, header string) (scenario.Widget, bool, error) {
	widget, found, findErr := dashboard.Dashboard.FindWidget(ctx, header)
	if findErr != nil || !found {
		return widget, found, findErr
	}
	return relocatingWidget{Widget: widget, dashboard: dashboard.Dashboard}, true, nil
}

type relocatingWidget struct {
	scenario.Widget
	dashboard scenario.Dashboard
}

func (widget relocatingWidget) Paste(ctx context.Context) error {
	if pasteErr := widget.dashboard.PasteWidget(ctx); pasteErr != nil {
		return pasteErr
	}
	return widget.Widget.Delete(ctx)
}

// keepingDashboard accepts widget deletes without removing anything.
type keepingDashboard struct {
	scenario.Dashboard
}

func (dashboard keepingDashboard) FindWidget(ctx context.Context, header string) (scenario.Widget, bool, error) {
	widget, found, findErr := dashboard.Dashboard.FindWidget(ctx, header)
	if findErr != nil || !found {
		return widget, found, findErr
	}
	return keptWidget{Widget: widget}, true, nil
}

type keptWidget struct {
	scenario.Widget
}

func (keptWidget) Delete(context.Context) error {
	return nil
}

type stubScreenshotter struct{}

func (stubScreenshotter) FullScreenshot(context.Context) ([]byte, error) {
	return testutil.FakeScreenshot(testutil.FakeWidgetColor(model.WidgetTypeURL)), nil
}
