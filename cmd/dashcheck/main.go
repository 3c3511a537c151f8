package main

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/MarkoPoloResearchLab/dashcheck/internal/storage"
)

const (
	commandUseName               = "dashcheck"
	commandShortDescription      = "Run dashboard widget scenarios"
	commandLongDescription       = "Provision fixtures, drive dashboard widget scenarios in a browser and verify what the application persisted"
	runCommandUseName            = "run"
	runCommandShortDescription   = "Run scenario tables against the application"
	hashCommandUseName           = "hash"
	hashCommandShortDescription  = "Print the configuration hash of persisted dashboard widgets"
	missingConfigurationMessage  = "missing required configuration"
	loggerCreationErrorMessage   = "logger"
	unexpectedArgumentsMessage   = "unexpected command arguments"
	commandInitializationFailure = "failed to configure command"
	flagNotDefinedMessage        = "flag %s not defined"
	environmentConfigurationErr  = "failed to apply environment configuration"

	flagNameBaseURL         = "base-url"
	flagNameAPIURL          = "api-url"
	flagNameAPIToken        = "api-token"
	flagNameDatabaseDriver  = "db-driver"
	flagNameDatabaseDSN     = "db-dsn"
	flagNameTables          = "tables"
	flagNamePlan            = "plan"
	flagNameReport          = "report"
	flagNameScreenshots     = "screenshots"
	flagNameChromePath      = "chrome-path"
	flagNameHeadless        = "headless"
	flagNameActionTimeout   = "action-timeout"
	flagNameWaitTimeout     = "wait-timeout"
	flagNameScreenshotRetry = "screenshot-retry-delay"
	flagNameDashboard       = "dashboard"

	flagUsageBaseURL         = "address of the dashboard application"
	flagUsageAPIURL          = "JSON-RPC endpoint used to provision fixtures"
	flagUsageAPIToken        = "API token used to provision fixtures"
	flagUsageDatabaseDriver  = "database driver of the application database (postgres or sqlite)"
	flagUsageDatabaseDSN     = "connection string of the application database"
	flagUsageTables          = "directory holding scenario tables"
	flagUsagePlan            = "fixture plan to provision before running"
	flagUsageReport          = "path the JSON run report is written to"
	flagUsageScreenshots     = "directory failure screenshots are written to"
	flagUsageChromePath      = "browser executable; located automatically when empty"
	flagUsageHeadless        = "run the browser without a window"
	flagUsageActionTimeout   = "timeout of a single browser action"
	flagUsageWaitTimeout     = "timeout of a page wait"
	flagUsageScreenshotRetry = "delay before a screenshot check is retried"
	flagUsageDashboard       = "dashboard name; all dashboards when empty"

	environmentKeyBaseURL         = "DASHCHECK_BASE_URL"
	environmentKeyAPIURL          = "DASHCHECK_API_URL"
	environmentKeyAPIToken        = "DASHCHECK_API_TOKEN"
	environmentKeyDatabaseDriver  = "DASHCHECK_DB_DRIVER"
	environmentKeyDatabaseDSN     = "DASHCHECK_DB_DSN"
	environmentKeyTables          = "DASHCHECK_TABLES"
	environmentKeyPlan            = "DASHCHECK_PLAN"
	environmentKeyReport          = "DASHCHECK_REPORT"
	environmentKeyScreenshots     = "DASHCHECK_SCREENSHOTS"
	environmentKeyChromePath      = "DASHCHECK_CHROME_PATH"
	environmentKeyHeadless        = "DASHCHECK_HEADLESS"
	environmentKeyActionTimeout   = "DASHCHECK_ACTION_TIMEOUT"
	environmentKeyWaitTimeout     = "DASHCHECK_WAIT_TIMEOUT"
	environmentKeyScreenshotRetry = "DASHCHECK_SCREENSHOT_RETRY_DELAY"
	environmentKeyDashboard       = "DASHCHECK_DASHBOARD"

	defaultDatabaseDriver  = storage.DriverNamePostgres
	defaultReportPath      = "dashcheck-report.json"
	defaultScreenshots     = "screenshots"
	defaultHeadless        = true
	defaultActionTimeout   = 30 * time.Second
	defaultWaitTimeout     = 10 * time.Second
	defaultScreenshotRetry = time.Second
)

// DatabaseOpener opens the application database.
type DatabaseOpener func(storage.Config) (*gorm.DB, error)

// LoggerFactory builds the command logger.
type LoggerFactory func() (*zap.Logger, error)

// Application constructs and executes the dashcheck commands.
// Each subcommand reads its own configuration loader so shared keys bind to that command's flags.
type Application struct {
	runConfigurationLoader  *viper.Viper
	hashConfigurationLoader *viper.Viper
	databaseOpener          DatabaseOpener
	loggerFactory           LoggerFactory
	browserStarter          BrowserStarter
}

// NewApplication creates an Application with default dependencies.
func NewApplication() *Application {
	return &Application{
		runConfigurationLoader:  viper.New(),
		hashConfigurationLoader: viper.New(),
		databaseOpener:          storage.OpenDatabase,
		loggerFactory:           func() (*zap.Logger, error) { return zap.NewProduction() },
		browserStarter:          startBrowser,
	}
}

// WithDatabaseOpener overrides the database opener dependency.
func (application *Application) WithDatabaseOpener(databaseOpener DatabaseOpener) *Application {
	application.databaseOpener = databaseOpener
	return application
}

// WithLoggerFactory overrides the logger factory dependency.
func (application *Application) WithLoggerFactory(loggerFactory LoggerFactory) *Application {
	application.loggerFactory = loggerFactory
	return application
}

// WithBrowserStarter overrides how the browser page is started.
func (application *Application) WithBrowserStarter(browserStarter BrowserStarter) *Application {
	application.browserStarter = browserStarter
	return application
}

// Command builds the Cobra command tree.
func (application *Application) Command() (*cobra.Command, error) {
	rootCommand := &cobra.Command{
		Use:   commandUseName,
		Short: commandShortDescription,
		Long:  commandLongDescription,
	}

	runCommand := &cobra.Command{
		Use:   runCommandUseName,
		Short: runCommandShortDescription,
		RunE:  application.runScenarios,
	}
	if configurationErr := application.configureRunCommand(runCommand); configurationErr != nil {
		return nil, configurationErr
	}

	hashCommand := &cobra.Command{
		Use:   hashCommandUseName,
		Short: hashCommandShortDescription,
		RunE:  application.printHash,
	}
	if configurationErr := application.configureHashCommand(hashCommand); configurationErr != nil {
		return nil, configurationErr
	}

	rootCommand.AddCommand(runCommand, hashCommand)
	return rootCommand, nil
}

type flagBinding struct {
	environmentKey string
	flagName       string
}

func (application *Application) configureRunCommand(command *cobra.Command) error {
	commandFlags := command.Flags()
	commandFlags.String(flagNameBaseURL, "", flagUsageBaseURL)
	commandFlags.String(flagNameAPIURL, "", flagUsageAPIURL)
	commandFlags.String(flagNameAPIToken, "", flagUsageAPIToken)
	commandFlags.String(flagNameDatabaseDriver, defaultDatabaseDriver, flagUsageDatabaseDriver)
	commandFlags.String(flagNameDatabaseDSN, "", flagUsageDatabaseDSN)
	commandFlags.String(flagNameTables, "", flagUsageTables)
	commandFlags.String(flagNamePlan, "", flagUsagePlan)
	commandFlags.String(flagNameReport, defaultReportPath, flagUsageReport)
	commandFlags.String(flagNameScreenshots, defaultScreenshots, flagUsageScreenshots)
	commandFlags.String(flagNameChromePath, "", flagUsageChromePath)
	commandFlags.Bool(flagNameHeadless, defaultHeadless, flagUsageHeadless)
	commandFlags.Duration(flagNameActionTimeout, defaultActionTimeout, flagUsageActionTimeout)
	commandFlags.Duration(flagNameWaitTimeout, defaultWaitTimeout, flagUsageWaitTimeout)
	commandFlags.Duration(flagNameScreenshotRetry, defaultScreenshotRetry, flagUsageScreenshotRetry)

	bindings := []flagBinding{
		{environmentKey: environmentKeyBaseURL, flagName: flagNameBaseURL},
		{environmentKey: environmentKeyAPIURL, flagName: flagNameAPIURL},
		{environmentKey: environmentKeyAPIToken, flagName: flagNameAPIToken},
		{environmentKey: environmentKeyDatabaseDriver, flagName: flagNameDatabaseDriver},
		{environmentKey: environmentKeyDatabaseDSN, flagName: flagNameDatabaseDSN},
		{environmentKey: environmentKeyTables, flagName: flagNameTables},
		{environmentKey: environmentKeyPlan, flagName: flagNamePlan},
		{environmentKey: environmentKeyReport, flagName: flagNameReport},
		{environmentKey: environmentKeyScreenshots, flagName: flagNameScreenshots},
		{environmentKey: environmentKeyChromePath, flagName: flagNameChromePath},
		{environmentKey: environmentKeyHeadless, flagName: flagNameHeadless},
		{environmentKey: environmentKeyActionTimeout, flagName: flagNameActionTimeout},
		{environmentKey: environmentKeyWaitTimeout, flagName: flagNameWaitTimeout},
		{environmentKey: environmentKeyScreenshotRetry, flagName: flagNameScreenshotRetry},
	}
	if bindErr := bindFlags(application.runConfigurationLoader, commandFlags, bindings); bindErr != nil {
		return bindErr
	}
	return nil
}

func (application *Application) configureHashCommand(command *cobra.Command) error {
	commandFlags := command.Flags()
	commandFlags.String(flagNameDatabaseDriver, defaultDatabaseDriver, flagUsageDatabaseDriver)
	commandFlags.String(flagNameDatabaseDSN, "", flagUsageDatabaseDSN)
	commandFlags.String(flagNameDashboard, "", flagUsageDashboard)

	bindings := []flagBinding{
		{environmentKey: environmentKeyDatabaseDriver, flagName: flagNameDatabaseDriver},
		{environmentKey: environmentKeyDatabaseDSN, flagName: flagNameDatabaseDSN},
		{environmentKey: environmentKeyDashboard, flagName: flagNameDashboard},
	}
	return bindFlags(application.hashConfigurationLoader, commandFlags, bindings)
}

// bindFlags binds each flag to its configuration key and lets a set environment variable
// satisfy the flag.
func bindFlags(configurationLoader *viper.Viper, flagSet *pflag.FlagSet, bindings []flagBinding) error {
	for _, binding := range bindings {
		flag := flagSet.Lookup(binding.flagName)
		if flag == nil {
			return fmt.Errorf(flagNotDefinedMessage, binding.flagName)
		}
		if bindErr := configurationLoader.BindPFlag(binding.environmentKey, flag); bindErr != nil {
			return bindErr
		}
		environmentValue, environmentFound := os.LookupEnv(binding.environmentKey)
		if !environmentFound {
			continue
		}
		if setErr := flagSet.Set(binding.flagName, environmentValue); setErr != nil {
			return fmt.Errorf("%s: %w", environmentConfigurationErr, setErr)
		}
	}
	return nil
}

func rejectArguments(arguments []string) error {
	if len(arguments) > 0 {
		return fmt.Errorf("%s: %s", unexpectedArgumentsMessage, strings.Join(arguments, " "))
	}
	return nil
}

func missingConfiguration(missingParameters []string) error {
	if len(missingParameters) == 0 {
		return nil
	}
	return fmt.Errorf("%s: %s", missingConfigurationMessage, strings.Join(missingParameters, ", "))
}

func closeDatabase(database *gorm.DB, logger *zap.Logger) {
	sqlDatabase, sqlErr := database.DB()
	if sqlErr != nil {
		logger.Warn(logEventDatabaseCloseFailed, zap.Error(sqlErr))
		return
	}
	if closeErr := sqlDatabase.Close(); closeErr != nil {
		logger.Warn(logEventDatabaseCloseFailed, zap.Error(closeErr))
	}
}

func (application *Application) newLogger() (*zap.Logger, error) {
	logger, loggerErr := application.loggerFactory()
	if loggerErr != nil {
		return nil, fmt.Errorf("%s: %w", loggerCreationErrorMessage, loggerErr)
	}
	return logger, nil
}

// ErrScenariosFailed is returned by the run command when any scenario failed.
var ErrScenariosFailed = errors.New("scenarios failed")

func main() {
	application := NewApplication()
	rootCommand, commandErr := application.Command()
	if commandErr != nil {
		fmt.Fprintf(os.Stderr, "%s: %v\n", commandInitializationFailure, commandErr)
		os.Exit(1)
	}

	if executeErr := rootCommand.Execute(); executeErr != nil {
		os.Exit(1)
	}
}
