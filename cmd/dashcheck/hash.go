package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/MarkoPoloResearchLab/dashcheck/internal/storage"
)

// HashConfig captures configuration needed to print a configuration hash.
type HashConfig struct {
	Database  storage.Config
	Dashboard string
}

func (application *Application) hashConfig() HashConfig {
	loader := application.hashConfigurationLoader
	return HashConfig{
		Database: storage.Config{
			DriverName:     loader.GetString(environmentKeyDatabaseDriver),
			DataSourceName: strings.TrimSpace(loader.GetString(environmentKeyDatabaseDSN)),
		},
		Dashboard: strings.TrimSpace(loader.GetString(environmentKeyDashboard)),
	}
}

// printHash writes the configuration hash and the number of projected rows. Comparing the
// output before and after a manual edit shows whether the edit persisted anything.
func (application *Application) printHash(command *cobra.Command, arguments []string) error {
	if argumentsErr := rejectArguments(arguments); argumentsErr != nil {
		return argumentsErr
	}
	configuration := application.hashConfig()
	if configuration.Database.DataSourceName == "" {
		return missingConfiguration([]string{flagNameDatabaseDSN})
	}

	logger, loggerErr := application.newLogger()
	if loggerErr != nil {
		return loggerErr
	}
	defer func() {
		_ = logger.Sync()
	}()

	database, databaseErr := application.databaseOpener(configuration.Database)
	if databaseErr != nil {
		return fmt.Errorf("%s: %w", errorMessageOpenDatabase, databaseErr)
	}
	defer closeDatabase(database, logger)
	store, storeErr := storage.NewVerificationStore(database, logger)
	if storeErr != nil {
		return fmt.Errorf("%s: %w", errorMessageOpenDatabase, storeErr)
	}

	projection := storage.AllWidgetsProjection()
	if configuration.Dashboard != "" {
		projection = storage.DashboardWidgetsProjection(configuration.Dashboard)
	}
	rows, rowsErr := store.ProjectionRows(command.Context(), projection)
	if rowsErr != nil {
		return rowsErr
	}
	fmt.Fprintf(command.OutOrStdout(), "%s\t%d\n", storage.HashRows(rows), len(rows))
	return nil
}
