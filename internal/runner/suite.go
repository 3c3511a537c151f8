package runner

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
	"unicode"

	"go.uber.org/zap"

	"github.com/MarkoPoloResearchLab/dashcheck/internal/fixture"
	"github.com/MarkoPoloResearchLab/dashcheck/internal/provider"
	"github.com/MarkoPoloResearchLab/dashcheck/internal/scenario"
	"github.com/MarkoPoloResearchLab/dashcheck/internal/storage"
)

const (
	defaultScreenshotRetryDelay = time.Second

	errorMessageMissingDashboard = "runner: missing dashboard page"
	errorMessageMissingStore     = "runner: missing verification store"
	errorMessageOpenTable        = "runner: open table view"
	errorMessageSkippedAfter     = "skipped after"

	screenshotFileExtension   = ".png"
	screenshotFilePermissions = 0o644
	screenshotDirectoryMode   = 0o755

	logEventSuiteStarted     = "suite_started"
	logEventSuiteFinished    = "suite_finished"
	logEventTableStarted     = "table_started"
	logEventScenarioResult   = "scenario_result"
	logEventScreenshotFailed = "failure_screenshot_failed"
	logEventResetFailed      = "session_reset_failed"
	logFieldTable            = "table"
	logFieldScenario         = "scenario"
	logFieldAction           = "action"
	logFieldStatus           = "status"
	logFieldDuration         = "duration"
	logFieldTables           = "tables"
	logFieldSummary          = "summary"
	logFieldView             = "view"
	logFieldReport           = "report"
)

var (
	// ErrMissingDashboard indicates a suite constructed without a dashboard page.
	ErrMissingDashboard = errors.New(errorMessageMissingDashboard)
	// ErrMissingStore indicates a suite constructed without a verification store.
	ErrMissingStore = errors.New(errorMessageMissingStore)
)

// Screenshotter captures the whole page, used to record failures.
type Screenshotter interface {
	FullScreenshot(ctx context.Context) ([]byte, error)
}

// Config tunes a suite. Zero values select defaults.
type Config struct {
	ScreenshotsDirectory string
	ScreenshotRetryDelay time.Duration
}

// Suite runs scenario tables against one dashboard page.
type Suite struct {
	dashboard     scenario.Dashboard
	store         *storage.VerificationStore
	provisioner   *fixture.Provisioner
	screenshotter Screenshotter
	config        Config
	logger        *zap.Logger
	clock         func() time.Time
}

// Option configures a Suite.
type Option func(*Suite)

// WithProvisioner provisions the fixture plan before any table runs.
func WithProvisioner(provisioner *fixture.Provisioner) Option {
	return func(suite *Suite) {
		suite.provisioner = provisioner
	}
}

// WithScreenshotter records a page screenshot for every failed scenario.
func WithScreenshotter(screenshotter Screenshotter) Option {
	return func(suite *Suite) {
		suite.screenshotter = screenshotter
	}
}

func WithConfig(config Config) Option {
	return func(suite *Suite) {
		suite.config = config
	}
}

func WithLogger(logger *zap.Logger) Option {
	return func(suite *Suite) {
		if logger != nil {
			suite.logger = logger
		}
	}
}

func WithClock(clock func() time.Time) Option {
	return func(suite *Suite) {
		if clock != nil {
			suite.clock = clock
		}
	}
}

// NewSuite builds a suite driving dashboard and verifying against store.
func NewSuite(dashboard scenario.Dashboard, store *storage.VerificationStore, options ...Option) (*Suite, error) {
	if dashboard == nil {
		return nil, ErrMissingDashboard
	}
	if store == nil {
		return nil, ErrMissingStore
	}
	suite := &Suite{dashboard: dashboard, store: store, logger: zap.NewNop(), clock: time.Now}
	for _, option := range options {
		option(suite)
	}
	if suite.config.ScreenshotRetryDelay <= 0 {
		suite.config.ScreenshotRetryDelay = defaultScreenshotRetryDelay
	}
	return suite, nil
}

// Run provisions plan, then runs every table in order. A provisioning failure is fatal: the
// report marks every scenario skipped and the returned error wraps fixture.ErrFixtureFailed.
// Scenario failures are recorded in the report and do not produce an error.
func (suite *Suite) Run(ctx context.Context, plan fixture.Plan, tables []provider.Table) (*Report, error) {
	report := newReport(suite.clock())
	suite.logger.Info(logEventSuiteStarted, zap.Stringer(logFieldReport, report.ID), zap.Int(logFieldTables, len(tables)))
	defer func() {
		report.FinishedAt = suite.clock()
		suite.logger.Info(logEventSuiteFinished, zap.String(logFieldSummary, report.Summary()))
	}()

	registry := fixture.NewRegistry()
	if suite.provisioner != nil {
		provisioned, provisionErr := suite.provisioner.Provision(ctx, plan)
		if provisionErr != nil {
			report.Status = SuiteStatusFatal
			report.FixtureError = provisionErr.Error()
			for _, table := range tables {
				skipRows(report, table, 0, provisionErr)
			}
			return report, provisionErr
		}
		registry = provisioned
	}

	for tableIndex, table := range tables {
		if ctxErr := ctx.Err(); ctxErr != nil {
			for _, remaining := range tables[tableIndex:] {
				skipRows(report, remaining, 0, ctxErr)
			}
			return report, ctxErr
		}
		if tableErr := suite.runTable(ctx, registry, table, report); tableErr != nil {
			for _, remaining := range tables[tableIndex+1:] {
				skipRows(report, remaining, 0, tableErr)
			}
			return report, tableErr
		}
	}
	return report, nil
}

func skipRows(report *Report, table provider.Table, from int, cause error) {
	for _, row := range table.Rows[from:] {
		report.add(ScenarioResult{
			Table:    table.Name,
			Scenario: row.Name,
			Action:   row.Action,
			Status:   StatusSkipped,
			Error:    fmt.Sprintf("%s: %v", errorMessageSkippedAfter, cause),
		})
	}
}

// ResolveView turns a table's dashboard into a navigable view using the provisioned identifiers.
// Dashboards missing from the registry keep an empty identifier.
func ResolveView(registry *fixture.Registry, table provider.Table) scenario.View {
	return resolveView(registry, table.ViewKind(), table.Template, table.Dashboard)
}

// ResolveCopySource turns the dashboard a row copies from into a navigable view.
func ResolveCopySource(registry *fixture.Registry, source provider.CopySource) scenario.View {
	return resolveView(registry, source.ViewKind(), source.Template, source.Dashboard)
}

func resolveView(registry *fixture.Registry, kind scenario.ViewKind, template string, dashboard string) scenario.View {
	view := scenario.View{Kind: kind, Name: dashboard}
	if kind == scenario.ViewKindTemplateDashboard {
		view.DashboardID, _ = registry.Lookup(fixture.EntityKindTemplateDashboard, fixture.TemplateDashboardKey(template, dashboard))
		return view
	}
	view.DashboardID, _ = registry.Lookup(fixture.EntityKindDashboard, dashboard)
	return view
}

func (suite *Suite) runTable(ctx context.Context, registry *fixture.Registry, table provider.Table, report *Report) error {
	view := ResolveView(registry, table)
	logger := suite.logger.With(zap.String(logFieldTable, table.Name))
	driver, driverErr := scenario.NewDriver(suite.dashboard,
		scenario.WithHashSource(suite.store.Bind(storage.DashboardWidgetsProjection(table.Dashboard))),
		scenario.WithLogger(logger),
		scenario.WithClock(suite.clock),
	)
	if driverErr != nil {
		return driverErr
	}
	driver.Session().CurrentWidgetName = table.Widget
	logger.Info(logEventTableStarted, zap.String(logFieldView, view.Name))
	if openErr := driver.OpenView(ctx, view); openErr != nil {
		skipRows(report, table, 0, fmt.Errorf("%s: %w", errorMessageOpenTable, openErr))
		return nil
	}

	run := &tableRun{suite: suite, driver: driver, registry: registry, table: table, view: view}
	eachErr := provider.Each(table, func(index int, row provider.Row) error {
		if ctxErr := ctx.Err(); ctxErr != nil {
			skipRows(report, table, index, ctxErr)
			return ctxErr
		}
		started := suite.clock()
		rowErr := run.execute(ctx, row)
		result := ScenarioResult{
			Table:    table.Name,
			Scenario: row.Name,
			Action:   row.Action,
			Status:   StatusPassed,
			Duration: suite.clock().Sub(started),
		}
		if rowErr != nil {
			result.Status = StatusFailed
			result.Error = rowErr.Error()
			result.Screenshot = suite.recordFailure(ctx, table, row)
		}
		report.add(result)
		logger.Info(logEventScenarioResult,
			zap.String(logFieldScenario, row.Name),
			zap.String(logFieldAction, string(row.Action)),
			zap.String(logFieldStatus, string(result.Status)),
			zap.Duration(logFieldDuration, result.Duration),
			zap.NamedError("error", rowErr),
		)
		if rowErr != nil {
			if resetErr := driver.Reset(ctx); resetErr != nil {
				logger.Warn(logEventResetFailed, zap.Error(resetErr))
				skipRows(report, table, index+1, resetErr)
				return errStopTable
			}
		}
		return nil
	})
	if errors.Is(eachErr, errStopTable) {
		return nil
	}
	return eachErr
}

var errStopTable = errors.New("runner: table stopped")

func (suite *Suite) recordFailure(ctx context.Context, table provider.Table, row provider.Row) string {
	if suite.screenshotter == nil || suite.config.ScreenshotsDirectory == "" {
		return ""
	}
	screenshot, screenshotErr := suite.screenshotter.FullScreenshot(ctx)
	if screenshotErr != nil {
		suite.logger.Warn(logEventScreenshotFailed, zap.Error(screenshotErr))
		return ""
	}
	if directoryErr := os.MkdirAll(suite.config.ScreenshotsDirectory, screenshotDirectoryMode); directoryErr != nil {
		suite.logger.Warn(logEventScreenshotFailed, zap.Error(directoryErr))
		return ""
	}
	path := filepath.Join(suite.config.ScreenshotsDirectory, fileSafeName(table.Name)+"-"+fileSafeName(row.Name)+screenshotFileExtension)
	if writeErr := os.WriteFile(path, screenshot, screenshotFilePermissions); writeErr != nil {
		suite.logger.Warn(logEventScreenshotFailed, zap.Error(writeErr))
		return ""
	}
	return path
}

func fileSafeName(name string) string {
	mapped := strings.Map(func(character rune) rune {
		if unicode.IsLetter(character) || unicode.IsDigit(character) {
			return unicode.ToLower(character)
		}
		return '-'
	}, strings.TrimSpace(name))
	return strings.Trim(mapped, "-")
}
