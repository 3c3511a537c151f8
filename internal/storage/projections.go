package storage

import "fmt"

const (
	widgetConfigurationSelect = `SELECT d.name, p.sortorder, p.name, w.type, w.name, w.x, w.y, w.width, w.height, w.view_mode,
	f.type, f.name, f.value_int, f.value_str, f.value_groupid, f.value_hostid, f.value_itemid
FROM dashboard d
JOIN dashboard_page p ON p.dashboardid = d.dashboardid
JOIN widget w ON w.dashboard_pageid = p.dashboard_pageid
LEFT JOIN widget_field f ON f.widgetid = w.widgetid`
	widgetConfigurationOrder = `ORDER BY d.name, p.sortorder, w.y, w.x, w.type, w.name, f.name`

	widgetCountSelect = `SELECT COUNT(*) FROM widget w
JOIN dashboard_page p ON p.dashboard_pageid = w.dashboard_pageid
JOIN dashboard d ON d.dashboardid = p.dashboardid`

	descriptionAllWidgets      = "all widgets"
	descriptionDashboardFormat = "widgets of dashboard %q"
	descriptionNamedFormat     = "widgets named %q"
	descriptionNamedOnFormat   = "widgets named %q on dashboard %q"
)

// AllWidgetsProjection covers the widget configuration of every dashboard.
func AllWidgetsProjection() Projection {
	return Projection{
		Description: descriptionAllWidgets,
		SQL:         widgetConfigurationSelect + "\n" + widgetConfigurationOrder,
	}
}

// DashboardWidgetsProjection covers the widget configuration of one dashboard, addressed by name.
func DashboardWidgetsProjection(dashboardName string) Projection {
	return Projection{
		Description: fmt.Sprintf(descriptionDashboardFormat, dashboardName),
		SQL:         widgetConfigurationSelect + "\nWHERE d.name = ?\n" + widgetConfigurationOrder,
		Args:        []interface{}{dashboardName},
	}
}

// WidgetCountByName counts persisted widgets with the given name across all dashboards.
func WidgetCountByName(widgetName string) CountQuery {
	return CountQuery{
		Description: fmt.Sprintf(descriptionNamedFormat, widgetName),
		SQL:         "SELECT COUNT(*) FROM widget WHERE name = ?",
		Args:        []interface{}{widgetName},
	}
}

// DashboardWidgetCountByName counts persisted widgets with the given name on one dashboard.
func DashboardWidgetCountByName(dashboardName string, widgetName string) CountQuery {
	return CountQuery{
		Description: fmt.Sprintf(descriptionNamedOnFormat, widgetName, dashboardName),
		SQL:         widgetCountSelect + "\nWHERE d.name = ? AND w.name = ?",
		Args:        []interface{}{dashboardName, widgetName},
	}
}

// DashboardWidgetCount counts all persisted widgets of one dashboard.
func DashboardWidgetCount(dashboardName string) CountQuery {
	return CountQuery{
		Description: fmt.Sprintf(descriptionDashboardFormat, dashboardName),
		SQL:         widgetCountSelect + "\nWHERE d.name = ?",
		Args:        []interface{}{dashboardName},
	}
}
