package model

// HostGroup is a fixture host group.
type HostGroup struct {
	Name string `yaml:"name" json:"name" validate:"required"`
}

// Template is a fixture template; template dashboards are attached to it.
type Template struct {
	Name   string   `yaml:"name" json:"name" validate:"required"`
	Groups []string `yaml:"groups" json:"groups" validate:"required,min=1"`
}

// Host is a fixture host together with the groups and templates it belongs to.
type Host struct {
	Name      string   `yaml:"name" json:"name" validate:"required"`
	Groups    []string `yaml:"groups" json:"groups" validate:"required,min=1"`
	Templates []string `yaml:"templates" json:"templates"`
	Address   string   `yaml:"address" json:"address"`
}

// Item is a fixture item owned by a host.
type Item struct {
	Host      string `yaml:"host" json:"host" validate:"required"`
	Name      string `yaml:"name" json:"name" validate:"required"`
	Key       string `yaml:"key" json:"key" validate:"required"`
	Type      int    `yaml:"type" json:"type"`
	ValueType int    `yaml:"value_type" json:"value_type"`
	Delay     string `yaml:"delay" json:"delay"`
}

// Trigger is a fixture trigger. Dependencies name other fixture triggers by description.
type Trigger struct {
	Description  string   `yaml:"description" json:"description" validate:"required"`
	Expression   string   `yaml:"expression" json:"expression" validate:"required"`
	Priority     int      `yaml:"priority" json:"priority" validate:"gte=0,lte=5"`
	Dependencies []string `yaml:"dependencies" json:"dependencies"`
}

// Page is an ordered page of a dashboard.
type Page struct {
	Name          string   `yaml:"name" json:"name"`
	DisplayPeriod int      `yaml:"display_period" json:"display_period"`
	Widgets       []Widget `yaml:"widgets" json:"widgets" validate:"dive"`
}

// Dashboard is a regular dashboard, or a template dashboard when Template is set.
type Dashboard struct {
	Name          string `yaml:"name" json:"name" validate:"required"`
	Template      string `yaml:"template" json:"template"`
	DisplayPeriod int    `yaml:"display_period" json:"display_period"`
	AutoStart     bool   `yaml:"auto_start" json:"auto_start"`
	Pages         []Page `yaml:"pages" json:"pages" validate:"required,min=1,dive"`
}

// IsTemplateDashboard reports whether the dashboard belongs to a template.
func (dashboard Dashboard) IsTemplateDashboard() bool {
	return dashboard.Template != ""
}

// Widgets returns all widgets of all pages in page order.
func (dashboard Dashboard) Widgets() []Widget {
	var widgets []Widget
	for _, page := range dashboard.Pages {
		widgets = append(widgets, page.Widgets...)
	}
	return widgets
}
