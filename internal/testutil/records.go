package testutil

import (
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/MarkoPoloResearchLab/dashcheck/internal/model"
)

const (
	errorMessageUnknownDashboard = "testutil: unknown dashboard"
	errorMessageUnknownReference = "testutil: unresolved widget field reference"
	defaultDashboardPageName     = ""
)

var (
	// ErrUnknownDashboard indicates a write to a dashboard that was never created.
	ErrUnknownDashboard = errors.New(errorMessageUnknownDashboard)
	// ErrUnknownReference indicates a reference field naming an entity without an identifier.
	ErrUnknownReference = errors.New(errorMessageUnknownReference)
)

// RecordWriter persists dashboards the way the application does, standing in for its backend.
type RecordWriter struct {
	database   *gorm.DB
	references map[string]int64
}

// NewRecordWriter creates a writer; references maps entity names to the identifiers reference
// fields are stored with.
func NewRecordWriter(database *gorm.DB, references map[string]int64) *RecordWriter {
	copied := make(map[string]int64, len(references))
	for name, identifier := range references {
		copied[name] = identifier
	}
	return &RecordWriter{database: database, references: copied}
}

// CreateDashboard inserts a dashboard with a single page and returns its identifier.
func (writer *RecordWriter) CreateDashboard(name string) (int64, error) {
	dashboard := model.DashboardRecord{Name: name, DisplayPeriod: 30, AutoStart: 1}
	if createErr := writer.database.Create(&dashboard).Error; createErr != nil {
		return 0, createErr
	}
	page := model.DashboardPageRecord{DashboardID: dashboard.DashboardID, Name: defaultDashboardPageName}
	if createErr := writer.database.Create(&page).Error; createErr != nil {
		return 0, createErr
	}
	return dashboard.DashboardID, nil
}

// ReplaceWidgets rewrites every widget of the dashboard's first page. Rows are deleted and
// re-inserted, so surrogate identifiers change on every call.
func (writer *RecordWriter) ReplaceWidgets(dashboardName string, widgets []model.Widget) error {
	return writer.database.Transaction(func(transaction *gorm.DB) error {
		var dashboard model.DashboardRecord
		if findErr := transaction.Where("name = ?", dashboardName).First(&dashboard).Error; findErr != nil {
			if errors.Is(findErr, gorm.ErrRecordNotFound) {
				return fmt.Errorf("%w: %s", ErrUnknownDashboard, dashboardName)
			}
			return findErr
		}
		var page model.DashboardPageRecord
		if findErr := transaction.Where("dashboardid = ?", dashboard.DashboardID).Order("sortorder").First(&page).Error; findErr != nil {
			return findErr
		}

		var existingWidgetIDs []int64
		if pluckErr := transaction.Model(&model.WidgetRecord{}).Where("dashboard_pageid = ?", page.DashboardPageID).Pluck("widgetid", &existingWidgetIDs).Error; pluckErr != nil {
			return pluckErr
		}
		if len(existingWidgetIDs) > 0 {
			if deleteErr := transaction.Where("widgetid IN ?", existingWidgetIDs).Delete(&model.WidgetFieldRecord{}).Error; deleteErr != nil {
				return deleteErr
			}
			if deleteErr := transaction.Where("widgetid IN ?", existingWidgetIDs).Delete(&model.WidgetRecord{}).Error; deleteErr != nil {
				return deleteErr
			}
		}

		for _, widget := range widgets {
			widgetRecord := model.WidgetRecord{
				DashboardPageID: page.DashboardPageID,
				Type:            string(widget.Type),
				Name:            widget.Name,
				X:               widget.Geometry.X,
				Y:               widget.Geometry.Y,
				Width:           widget.Geometry.Width,
				Height:          widget.Geometry.Height,
				ViewMode:        widget.ViewMode,
			}
			if createErr := transaction.Create(&widgetRecord).Error; createErr != nil {
				return createErr
			}
			for _, field := range widget.Fields {
				fieldRecord, recordErr := writer.fieldRecord(widgetRecord.WidgetID, field)
				if recordErr != nil {
					return recordErr
				}
				if createErr := transaction.Create(&fieldRecord).Error; createErr != nil {
					return createErr
				}
			}
		}
		return nil
	})
}

func (writer *RecordWriter) fieldRecord(widgetID int64, field model.WidgetField) (model.WidgetFieldRecord, error) {
	record := model.WidgetFieldRecord{
		WidgetID: widgetID,
		Type:     int(field.Value.Kind),
		Name:     field.Name,
		ValueInt: field.Value.Integer,
		ValueStr: field.Value.Text,
	}
	if !field.Value.Kind.IsReference() {
		return record, nil
	}
	identifier, known := writer.references[field.Value.Reference]
	if !known {
		return model.WidgetFieldRecord{}, fmt.Errorf("%w: %s", ErrUnknownReference, field.Value.Reference)
	}
	switch field.Value.Kind {
	case model.FieldKindHostGroup:
		record.ValueGroupID = &identifier
	case model.FieldKindHost:
		record.ValueHostID = &identifier
	default:
		record.ValueItemID = &identifier
	}
	return record, nil
}
