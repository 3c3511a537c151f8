package storage

import (
	"fmt"

	"gorm.io/gorm"

	"github.com/MarkoPoloResearchLab/dashcheck/internal/model"
)

const errorMessageAutoMigrate = "storage: auto migrate dashboard tables"

// AutoMigrate creates the dashboard tables. The application owns this schema in production; the
// harness migrates it only into scratch databases used as stand-ins.
func AutoMigrate(database *gorm.DB) error {
	if migrateErr := database.AutoMigrate(model.DashboardTables()...); migrateErr != nil {
		return fmt.Errorf("%s: %w", errorMessageAutoMigrate, migrateErr)
	}
	return nil
}
