package model

// The records below mirror the application's dashboard tables. dashcheck only reads them in
// production; tests migrate them into SQLite to stand in for the application database.

type DashboardRecord struct {
	DashboardID   int64  `gorm:"column:dashboardid;primaryKey;autoIncrement"`
	Name          string `gorm:"column:name;not null;size:255"`
	TemplateID    *int64 `gorm:"column:templateid;index"`
	DisplayPeriod int    `gorm:"column:display_period;not null;default:30"`
	AutoStart     int    `gorm:"column:auto_start;not null;default:1"`
}

func (DashboardRecord) TableName() string {
	return "dashboard"
}

type DashboardPageRecord struct {
	DashboardPageID int64  `gorm:"column:dashboard_pageid;primaryKey;autoIncrement"`
	DashboardID     int64  `gorm:"column:dashboardid;not null;index"`
	Name            string `gorm:"column:name;not null;size:255;default:''"`
	DisplayPeriod   int    `gorm:"column:display_period;not null;default:0"`
	SortOrder       int    `gorm:"column:sortorder;not null;default:0"`
}

func (DashboardPageRecord) TableName() string {
	return "dashboard_page"
}

type WidgetRecord struct {
	WidgetID        int64  `gorm:"column:widgetid;primaryKey;autoIncrement"`
	DashboardPageID int64  `gorm:"column:dashboard_pageid;not null;index"`
	Type            string `gorm:"column:type;not null;size:255"`
	Name            string `gorm:"column:name;not null;size:255;default:''"`
	X               int    `gorm:"column:x;not null;default:0"`
	Y               int    `gorm:"column:y;not null;default:0"`
	Width           int    `gorm:"column:width;not null;default:1"`
	Height          int    `gorm:"column:height;not null;default:2"`
	ViewMode        int    `gorm:"column:view_mode;not null;default:0"`
}

func (WidgetRecord) TableName() string {
	return "widget"
}

type WidgetFieldRecord struct {
	WidgetFieldID int64  `gorm:"column:widget_fieldid;primaryKey;autoIncrement"`
	WidgetID      int64  `gorm:"column:widgetid;not null;index"`
	Type          int    `gorm:"column:type;not null;default:0"`
	Name          string `gorm:"column:name;not null;size:255;default:''"`
	ValueInt      int    `gorm:"column:value_int;not null;default:0"`
	ValueStr      string `gorm:"column:value_str;not null;size:2048;default:''"`
	ValueGroupID  *int64 `gorm:"column:value_groupid"`
	ValueHostID   *int64 `gorm:"column:value_hostid"`
	ValueItemID   *int64 `gorm:"column:value_itemid"`
}

func (WidgetFieldRecord) TableName() string {
	return "widget_field"
}

// DashboardTables lists the records the verification schema is built from.
func DashboardTables() []interface{} {
	return []interface{}{&DashboardRecord{}, &DashboardPageRecord{}, &WidgetRecord{}, &WidgetFieldRecord{}}
}
