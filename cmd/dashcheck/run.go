package main

import (
	"fmt"
	"os"
	"os/signal"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/MarkoPoloResearchLab/dashcheck/internal/browser"
	"github.com/MarkoPoloResearchLab/dashcheck/internal/fixture"
	"github.com/MarkoPoloResearchLab/dashcheck/internal/pageobject"
	"github.com/MarkoPoloResearchLab/dashcheck/internal/provider"
	"github.com/MarkoPoloResearchLab/dashcheck/internal/runner"
	"github.com/MarkoPoloResearchLab/dashcheck/internal/storage"
)

const (
	errorMessageLoadTables     = "load scenario tables"
	errorMessageLoadPlan       = "load fixture plan"
	errorMessageOpenDatabase   = "open application database"
	errorMessageStartBrowser   = "start browser"
	errorMessageBuildDashboard = "build dashboard page"
	errorMessageBuildClient    = "build fixture client"
	errorMessageBuildSuite     = "build suite"

	logEventReportWritten       = "report_written"
	logEventReportFailed        = "report_write_failed"
	logEventDatabaseCloseFailed = "database_close_failed"
	logFieldPath                = "path"
)

// RunConfig captures configuration needed to run scenario tables.
type RunConfig struct {
	BaseURL              string
	APIURL               string
	APIToken             string
	Database             storage.Config
	TablesDirectory      string
	PlanPath             string
	ReportPath           string
	ScreenshotsDirectory string
	Browser              browser.Config
	WaitTimeout          time.Duration
	ScreenshotRetryDelay time.Duration
}

// BrowserStarter starts a browser page and returns a function that shuts it down.
type BrowserStarter func(configuration browser.Config, logger *zap.Logger) (browser.Page, func(), error)

func startBrowser(configuration browser.Config, logger *zap.Logger) (browser.Page, func(), error) {
	session, sessionErr := browser.NewSession(configuration, logger)
	if sessionErr != nil {
		return nil, nil, sessionErr
	}
	return session, session.Close, nil
}

func (application *Application) runConfig() RunConfig {
	loader := application.runConfigurationLoader
	return RunConfig{
		BaseURL:  strings.TrimSpace(loader.GetString(environmentKeyBaseURL)),
		APIURL:   strings.TrimSpace(loader.GetString(environmentKeyAPIURL)),
		APIToken: strings.TrimSpace(loader.GetString(environmentKeyAPIToken)),
		Database: storage.Config{
			DriverName:     loader.GetString(environmentKeyDatabaseDriver),
			DataSourceName: strings.TrimSpace(loader.GetString(environmentKeyDatabaseDSN)),
		},
		TablesDirectory:      strings.TrimSpace(loader.GetString(environmentKeyTables)),
		PlanPath:             strings.TrimSpace(loader.GetString(environmentKeyPlan)),
		ReportPath:           strings.TrimSpace(loader.GetString(environmentKeyReport)),
		ScreenshotsDirectory: strings.TrimSpace(loader.GetString(environmentKeyScreenshots)),
		Browser: browser.Config{
			ExecutablePath: strings.TrimSpace(loader.GetString(environmentKeyChromePath)),
			Headless:       loader.GetBool(environmentKeyHeadless),
			ActionTimeout:  loader.GetDuration(environmentKeyActionTimeout),
		},
		WaitTimeout:          loader.GetDuration(environmentKeyWaitTimeout),
		ScreenshotRetryDelay: loader.GetDuration(environmentKeyScreenshotRetry),
	}
}

func ensureRunConfiguration(configuration RunConfig) error {
	var missingParameters []string
	if configuration.BaseURL == "" {
		missingParameters = append(missingParameters, flagNameBaseURL)
	}
	if configuration.Database.DataSourceName == "" {
		missingParameters = append(missingParameters, flagNameDatabaseDSN)
	}
	if configuration.TablesDirectory == "" {
		missingParameters = append(missingParameters, flagNameTables)
	}
	if configuration.PlanPath != "" {
		if configuration.APIURL == "" {
			missingParameters = append(missingParameters, flagNameAPIURL)
		}
		if configuration.APIToken == "" {
			missingParameters = append(missingParameters, flagNameAPIToken)
		}
	}
	return missingConfiguration(missingParameters)
}

func (application *Application) runScenarios(command *cobra.Command, arguments []string) error {
	if argumentsErr := rejectArguments(arguments); argumentsErr != nil {
		return argumentsErr
	}
	configuration := application.runConfig()
	if validationErr := ensureRunConfiguration(configuration); validationErr != nil {
		return validationErr
	}

	logger, loggerErr := application.newLogger()
	if loggerErr != nil {
		return loggerErr
	}
	defer func() {
		_ = logger.Sync()
	}()

	tables, tablesErr := provider.LoadTables(configuration.TablesDirectory)
	if tablesErr != nil {
		return fmt.Errorf("%s: %w", errorMessageLoadTables, tablesErr)
	}
	var plan fixture.Plan
	if configuration.PlanPath != "" {
		loadedPlan, planErr := fixture.LoadPlan(configuration.PlanPath)
		if planErr != nil {
			return fmt.Errorf("%s: %w", errorMessageLoadPlan, planErr)
		}
		plan = loadedPlan
	}

	database, databaseErr := application.databaseOpener(configuration.Database)
	if databaseErr != nil {
		return fmt.Errorf("%s: %w", errorMessageOpenDatabase, databaseErr)
	}
	defer closeDatabase(database, logger)
	store, storeErr := storage.NewVerificationStore(database, logger)
	if storeErr != nil {
		return fmt.Errorf("%s: %w", errorMessageOpenDatabase, storeErr)
	}

	page, closeBrowser, browserErr := application.browserStarter(configuration.Browser, logger)
	if browserErr != nil {
		return fmt.Errorf("%s: %w", errorMessageStartBrowser, browserErr)
	}
	defer closeBrowser()

	dashboard, dashboardErr := pageobject.NewDashboard(page, pageobject.Config{BaseURL: configuration.BaseURL, WaitTimeout: configuration.WaitTimeout}, logger)
	if dashboardErr != nil {
		return fmt.Errorf("%s: %w", errorMessageBuildDashboard, dashboardErr)
	}

	options := []runner.Option{
		runner.WithLogger(logger),
		runner.WithScreenshotter(page),
		runner.WithConfig(runner.Config{
			ScreenshotsDirectory: configuration.ScreenshotsDirectory,
			ScreenshotRetryDelay: configuration.ScreenshotRetryDelay,
		}),
	}
	if configuration.PlanPath != "" {
		client, clientErr := fixture.NewClient(fixture.ClientConfig{APIURL: configuration.APIURL, Token: configuration.APIToken}, logger)
		if clientErr != nil {
			return fmt.Errorf("%s: %w", errorMessageBuildClient, clientErr)
		}
		options = append(options, runner.WithProvisioner(fixture.NewProvisioner(client, logger)))
	}
	suite, suiteErr := runner.NewSuite(dashboard, store, options...)
	if suiteErr != nil {
		return fmt.Errorf("%s: %w", errorMessageBuildSuite, suiteErr)
	}

	ctx, stop := signal.NotifyContext(command.Context(), os.Interrupt)
	defer stop()

	report, runErr := suite.Run(ctx, plan, tables)
	if report != nil {
		if configuration.ReportPath != "" {
			if writeErr := report.WriteJSON(configuration.ReportPath); writeErr != nil {
				logger.Warn(logEventReportFailed, zap.Error(writeErr))
			} else {
				logger.Info(logEventReportWritten, zap.String(logFieldPath, configuration.ReportPath))
			}
		}
		fmt.Fprintln(command.OutOrStdout(), report.Summary())
	}
	if runErr != nil {
		return runErr
	}
	if report.Status != runner.SuiteStatusPassed {
		_, failed, _ := report.Counts()
		return fmt.Errorf("%w: %d", ErrScenariosFailed, failed)
	}
	return nil
}
