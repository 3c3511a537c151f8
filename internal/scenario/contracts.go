package scenario

import (
	"context"

	"github.com/MarkoPoloResearchLab/dashcheck/internal/model"
)

// ViewKind distinguishes regular dashboards from template dashboards.
type ViewKind string

const (
	ViewKindDashboard         ViewKind = "dashboard"
	ViewKindTemplateDashboard ViewKind = "template-dashboard"
)

// View identifies the dashboard the driver operates on.
type View struct {
	Kind        ViewKind
	DashboardID string
	Name        string
}

// SubmitResult is what the application did with a submitted form or a dashboard save.
type SubmitResult struct {
	// Accepted is set when the form closed or the dashboard left edit mode.
	Accepted bool
	Message  *model.Message
}

// Form is an open widget configuration form.
type Form interface {
	SelectType(ctx context.Context, widgetType model.WidgetType) error
	Type(ctx context.Context) (model.WidgetType, error)
	Fill(ctx context.Context, inputs model.FieldInputs) error
	States(ctx context.Context) (model.FieldStates, error)
	Submit(ctx context.Context) (SubmitResult, error)
	Cancel(ctx context.Context) error
}

// Widget is a widget rendered on the open dashboard.
type Widget interface {
	Header() string
	Geometry(ctx context.Context) (model.Geometry, error)
	Edit(ctx context.Context) (Form, error)
	Copy(ctx context.Context) error
	// Paste replaces this widget with the copied one.
	Paste(ctx context.Context) error
	Delete(ctx context.Context) error
	Table(ctx context.Context) (model.RenderedTable, error)
	Screenshot(ctx context.Context) ([]byte, error)
}

// Dashboard is the dashboard page of the application under test.
type Dashboard interface {
	Open(ctx context.Context, view View) error
	Edit(ctx context.Context) error
	Save(ctx context.Context) (SubmitResult, error)
	Cancel(ctx context.Context) error
	Widgets(ctx context.Context) ([]Widget, error)
	FindWidget(ctx context.Context, header string) (Widget, bool, error)
	AddWidget(ctx context.Context) (Form, error)
	PasteAvailable(ctx context.Context) (bool, error)
	PasteWidget(ctx context.Context) error
	Message(ctx context.Context) (*model.Message, error)
}

// HashSource yields the configuration hash of the persisted widgets in scope.
type HashSource interface {
	ConfigurationHash(ctx context.Context) (string, error)
}
