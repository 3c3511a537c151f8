package scenario

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/MarkoPoloResearchLab/dashcheck/internal/model"
)

const (
	logEventTransition  = "edit_state"
	logEventOperation   = "widget_operation"
	logFieldSession     = "session"
	logFieldFrom        = "from"
	logFieldTo          = "to"
	logFieldAction      = "action"
	logFieldWidget      = "widget"
	logFieldOutcome     = "outcome"
	logFieldCommitted   = "committed_hash"
	errorMessageCapture = "scenario: capture snapshot"
)

// FormHandle is a form opened by the driver, remembering what it was opened for.
type FormHandle struct {
	Form
	action model.Action
	widget string
}

// Driver performs widget operations on one dashboard page and tracks the edit session.
type Driver struct {
	dashboard  Dashboard
	hashSource HashSource
	session    *Session
	logger     *zap.Logger
	clock      func() time.Time
}

// DriverOption customizes a Driver.
type DriverOption func(*Driver)

// WithHashSource records the committed configuration hash whenever an edit session begins.
func WithHashSource(hashSource HashSource) DriverOption {
	return func(driver *Driver) {
		driver.hashSource = hashSource
	}
}

// WithLogger sets the driver logger.
func WithLogger(logger *zap.Logger) DriverOption {
	return func(driver *Driver) {
		if logger != nil {
			driver.logger = logger
		}
	}
}

// WithClock sets the clock used to timestamp snapshots.
func WithClock(clock func() time.Time) DriverOption {
	return func(driver *Driver) {
		if clock != nil {
			driver.clock = clock
		}
	}
}

// NewDriver creates a driver with a fresh session.
func NewDriver(dashboard Dashboard, options ...DriverOption) (*Driver, error) {
	if dashboard == nil {
		return nil, ErrMissingDashboard
	}
	driver := &Driver{
		dashboard: dashboard,
		session:   NewSession(),
		logger:    zap.NewNop(),
		clock:     time.Now,
	}
	for _, option := range options {
		option(driver)
	}
	driver.logger = driver.logger.With(zap.Stringer(logFieldSession, driver.session.ID))
	return driver, nil
}

// Session returns the session context shared by the scenarios run through this driver.
func (driver *Driver) Session() *Session {
	return driver.session
}

func (driver *Driver) transition(to EditState) error {
	from := driver.session.state
	if transitionErr := driver.session.transition(to); transitionErr != nil {
		return transitionErr
	}
	driver.logger.Debug(logEventTransition, zap.Stringer(logFieldFrom, from), zap.Stringer(logFieldTo, to))
	return nil
}

func (driver *Driver) recordPending(action model.Action, widget string) {
	driver.session.pending = append(driver.session.pending, PendingOperation{Action: action, Widget: widget})
	driver.logger.Info(logEventOperation, zap.String(logFieldAction, string(action)), zap.String(logFieldWidget, widget))
}

// OpenView opens a dashboard. Only legal outside an edit session.
func (driver *Driver) OpenView(ctx context.Context, view View) error {
	if driver.session.state != EditStateViewing {
		return fmt.Errorf("%w: open view while %s", ErrInvalidTransition, driver.session.state)
	}
	if openErr := driver.dashboard.Open(ctx, view); openErr != nil {
		return openErr
	}
	driver.session.view = view
	return nil
}

// Reset reopens the current view in the viewing state, discarding whatever the page shows.
func (driver *Driver) Reset(ctx context.Context) error {
	driver.session.state = EditStateViewing
	driver.session.pending = nil
	return driver.dashboard.Open(ctx, driver.session.view)
}

// BeginEditing enters edit mode and records the committed configuration hash.
func (driver *Driver) BeginEditing(ctx context.Context) error {
	if transitionErr := driver.transition(EditStateEditing); transitionErr != nil {
		return transitionErr
	}
	if editErr := driver.dashboard.Edit(ctx); editErr != nil {
		driver.session.state = EditStateViewing
		return editErr
	}
	driver.session.pending = nil
	driver.session.committedHash = ""
	if driver.hashSource != nil {
		committedHash, hashErr := driver.hashSource.ConfigurationHash(ctx)
		if hashErr != nil {
			_ = driver.dashboard.Cancel(ctx)
			driver.session.state = EditStateViewing
			return hashErr
		}
		driver.session.committedHash = committedHash
		driver.logger.Debug(logEventTransition, zap.String(logFieldCommitted, committedHash))
	}
	return nil
}

func (driver *Driver) ensureEditing(ctx context.Context) error {
	switch driver.session.state {
	case EditStateEditing:
		return nil
	case EditStateViewing:
		return driver.BeginEditing(ctx)
	default:
		return fmt.Errorf("%w: widget operation while %s", ErrInvalidTransition, driver.session.state)
	}
}

// LocateWidget finds a rendered widget by header; a blank name means the session's current widget.
func (driver *Driver) LocateWidget(ctx context.Context, name string) (Widget, error) {
	header := driver.session.ResolveTarget(name)
	widget, found, findErr := driver.dashboard.FindWidget(ctx, header)
	if findErr != nil {
		return nil, findErr
	}
	if !found {
		return nil, fmt.Errorf("%w: %q", ErrWidgetNotFound, header)
	}
	return widget, nil
}

// WidgetExists reports whether a widget with the header is rendered.
func (driver *Driver) WidgetExists(ctx context.Context, name string) (bool, error) {
	_, found, findErr := driver.dashboard.FindWidget(ctx, driver.session.ResolveTarget(name))
	return found, findErr
}

// CountWidgets counts the rendered widgets with the header; a blank name means the current widget.
func (driver *Driver) CountWidgets(ctx context.Context, name string) (int, error) {
	header := driver.session.ResolveTarget(name)
	widgets, widgetsErr := driver.dashboard.Widgets(ctx)
	if widgetsErr != nil {
		return 0, widgetsErr
	}
	count := 0
	for _, widget := range widgets {
		if widget.Header() == header {
			count++
		}
	}
	return count, nil
}

// LocateWidgetAt finds the rendered widget occupying exactly the given rectangle.
func (driver *Driver) LocateWidgetAt(ctx context.Context, geometry model.Geometry) (Widget, error) {
	widgets, widgetsErr := driver.dashboard.Widgets(ctx)
	if widgetsErr != nil {
		return nil, widgetsErr
	}
	for _, widget := range widgets {
		widgetGeometry, geometryErr := widget.Geometry(ctx)
		if geometryErr != nil {
			return nil, geometryErr
		}
		if widgetGeometry == geometry {
			return widget, nil
		}
	}
	return nil, fmt.Errorf("%w: at %s", ErrWidgetNotFound, geometry)
}

// OpenWidgetForm opens the configuration form of an existing widget, entering edit mode if needed.
func (driver *Driver) OpenWidgetForm(ctx context.Context, widget Widget) (*FormHandle, error) {
	if editingErr := driver.ensureEditing(ctx); editingErr != nil {
		return nil, editingErr
	}
	form, editErr := widget.Edit(ctx)
	if editErr != nil {
		return nil, editErr
	}
	return &FormHandle{Form: form, action: model.ActionUpdate, widget: widget.Header()}, nil
}

// OpenNewWidgetForm opens the add-widget form and selects the widget type.
func (driver *Driver) OpenNewWidgetForm(ctx context.Context, widgetType model.WidgetType) (*FormHandle, error) {
	if editingErr := driver.ensureEditing(ctx); editingErr != nil {
		return nil, editingErr
	}
	form, addErr := driver.dashboard.AddWidget(ctx)
	if addErr != nil {
		return nil, addErr
	}
	if widgetType != "" {
		if selectErr := form.SelectType(ctx, widgetType); selectErr != nil {
			return nil, selectErr
		}
	}
	return &FormHandle{Form: form, action: model.ActionCreate}, nil
}

// FillForm applies inputs in order. Values are passed through untrimmed.
func (driver *Driver) FillForm(ctx context.Context, form *FormHandle, inputs model.FieldInputs) error {
	return form.Fill(ctx, inputs)
}

// SubmitForm submits the form and classifies what the application did with it.
func (driver *Driver) SubmitForm(ctx context.Context, form *FormHandle) (Outcome, error) {
	result, submitErr := form.Submit(ctx)
	if submitErr != nil {
		return Outcome{}, submitErr
	}
	outcome := outcomeFromResult(result)
	driver.logger.Debug(logEventOperation, zap.String(logFieldAction, string(form.action)), zap.String(logFieldOutcome, string(outcome.Class)))
	if outcome.Class == model.OutcomeSuccess {
		driver.recordPending(form.action, form.widget)
	}
	return outcome, nil
}

// CancelForm closes the form without applying it.
func (driver *Driver) CancelForm(ctx context.Context, form *FormHandle) error {
	return form.Cancel(ctx)
}

// CaptureSnapshot reads a widget's type, header, visible field states and geometry. When called
// outside an edit session, the edit session it opens to read the form is cancelled afterwards.
func (driver *Driver) CaptureSnapshot(ctx context.Context, name string) (model.WidgetSnapshot, error) {
	return driver.capture(ctx, func() (Widget, error) {
		return driver.LocateWidget(ctx, name)
	})
}

// CaptureSnapshotAt captures the widget occupying the given rectangle.
func (driver *Driver) CaptureSnapshotAt(ctx context.Context, geometry model.Geometry) (model.WidgetSnapshot, error) {
	return driver.capture(ctx, func() (Widget, error) {
		return driver.LocateWidgetAt(ctx, geometry)
	})
}

func (driver *Driver) capture(ctx context.Context, locate func() (Widget, error)) (model.WidgetSnapshot, error) {
	enteredEditing := driver.session.state == EditStateViewing
	if editingErr := driver.ensureEditing(ctx); editingErr != nil {
		return model.WidgetSnapshot{}, editingErr
	}

	snapshot, captureErr := driver.captureWidget(ctx, locate)
	if enteredEditing {
		if cancelErr := driver.CancelEditing(ctx); cancelErr != nil && captureErr == nil {
			captureErr = cancelErr
		}
	}
	if captureErr != nil {
		return model.WidgetSnapshot{}, fmt.Errorf("%s: %w", errorMessageCapture, captureErr)
	}
	return snapshot, nil
}

func (driver *Driver) captureWidget(ctx context.Context, locate func() (Widget, error)) (model.WidgetSnapshot, error) {
	widget, locateErr := locate()
	if locateErr != nil {
		return model.WidgetSnapshot{}, locateErr
	}
	geometry, geometryErr := widget.Geometry(ctx)
	if geometryErr != nil {
		return model.WidgetSnapshot{}, geometryErr
	}
	form, editErr := widget.Edit(ctx)
	if editErr != nil {
		return model.WidgetSnapshot{}, editErr
	}
	widgetType, typeErr := form.Type(ctx)
	if typeErr != nil {
		_ = form.Cancel(ctx)
		return model.WidgetSnapshot{}, typeErr
	}
	states, statesErr := form.States(ctx)
	if statesErr != nil {
		_ = form.Cancel(ctx)
		return model.WidgetSnapshot{}, statesErr
	}
	if cancelErr := form.Cancel(ctx); cancelErr != nil {
		return model.WidgetSnapshot{}, cancelErr
	}
	return model.WidgetSnapshot{
		Type:       widgetType,
		Header:     widget.Header(),
		Fields:     states,
		Geometry:   geometry,
		CapturedAt: driver.clock(),
	}, nil
}

// CopyWidget copies a widget and stages its snapshot in the session.
func (driver *Driver) CopyWidget(ctx context.Context, name string) (StagedWidget, error) {
	snapshot, captureErr := driver.CaptureSnapshot(ctx, name)
	if captureErr != nil {
		return StagedWidget{}, captureErr
	}
	widget, locateErr := driver.LocateWidget(ctx, name)
	if locateErr != nil {
		return StagedWidget{}, locateErr
	}
	if copyErr := widget.Copy(ctx); copyErr != nil {
		return StagedWidget{}, copyErr
	}
	return driver.session.stage(driver.session.view.Kind, snapshot), nil
}

// checkPasteOffered asks the application whether it offers to paste the staged widget here. A
// widget copied on another dashboard kind must not be offered.
func (driver *Driver) checkPasteOffered(ctx context.Context, staged StagedWidget) error {
	available, availableErr := driver.dashboard.PasteAvailable(ctx)
	if availableErr != nil {
		return availableErr
	}
	if staged.SourceView != driver.session.view.Kind {
		if available {
			return fmt.Errorf("%w: %s -> %s", ErrCrossContextPasteOffered, staged.SourceView, driver.session.view.Kind)
		}
		return fmt.Errorf("%w: %s -> %s", ErrCrossContextPaste, staged.SourceView, driver.session.view.Kind)
	}
	if !available {
		return ErrPasteUnavailable
	}
	return nil
}

// PasteAvailable reports whether the application offers to paste a copied widget.
func (driver *Driver) PasteAvailable(ctx context.Context) (bool, error) {
	return driver.dashboard.PasteAvailable(ctx)
}

// PasteWidget adds the staged widget to the dashboard.
func (driver *Driver) PasteWidget(ctx context.Context, staged StagedWidget) error {
	if stagedErr := driver.session.checkStaged(staged); stagedErr != nil {
		return stagedErr
	}
	if editingErr := driver.ensureEditing(ctx); editingErr != nil {
		return editingErr
	}
	if offeredErr := driver.checkPasteOffered(ctx, staged); offeredErr != nil {
		return offeredErr
	}
	if pasteErr := driver.dashboard.PasteWidget(ctx); pasteErr != nil {
		return pasteErr
	}
	driver.recordPending(model.ActionCopyPaste, staged.Header())
	return nil
}

// ReplaceWidget replaces the target widget with the staged one and returns the snapshot the
// replacement is expected to have: the staged configuration at the target's geometry.
func (driver *Driver) ReplaceWidget(ctx context.Context, targetName string, staged StagedWidget) (model.WidgetSnapshot, error) {
	if stagedErr := driver.session.checkStaged(staged); stagedErr != nil {
		return model.WidgetSnapshot{}, stagedErr
	}
	if editingErr := driver.ensureEditing(ctx); editingErr != nil {
		return model.WidgetSnapshot{}, editingErr
	}
	if offeredErr := driver.checkPasteOffered(ctx, staged); offeredErr != nil {
		return model.WidgetSnapshot{}, offeredErr
	}
	target, locateErr := driver.LocateWidget(ctx, targetName)
	if locateErr != nil {
		return model.WidgetSnapshot{}, locateErr
	}
	targetGeometry, geometryErr := target.Geometry(ctx)
	if geometryErr != nil {
		return model.WidgetSnapshot{}, geometryErr
	}
	targetHeader := target.Header()
	if pasteErr := target.Paste(ctx); pasteErr != nil {
		return model.WidgetSnapshot{}, pasteErr
	}
	driver.recordPending(model.ActionReplace, targetHeader)

	expected := staged.Snapshot
	expected.Geometry = targetGeometry
	return expected, nil
}

// DeleteWidget removes a widget from the dashboard being edited.
func (driver *Driver) DeleteWidget(ctx context.Context, name string) error {
	if editingErr := driver.ensureEditing(ctx); editingErr != nil {
		return editingErr
	}
	widget, locateErr := driver.LocateWidget(ctx, name)
	if locateErr != nil {
		return locateErr
	}
	if deleteErr := widget.Delete(ctx); deleteErr != nil {
		return deleteErr
	}
	driver.recordPending(model.ActionDelete, widget.Header())
	return nil
}

// SaveDashboard commits the edit session. A rejected save leaves the session editing.
func (driver *Driver) SaveDashboard(ctx context.Context) (Outcome, error) {
	if transitionErr := driver.transition(EditStateSaving); transitionErr != nil {
		return Outcome{}, transitionErr
	}
	result, saveErr := driver.dashboard.Save(ctx)
	if saveErr != nil {
		driver.session.state = EditStateEditing
		return Outcome{}, saveErr
	}
	outcome := outcomeFromResult(result)
	if outcome.Class != model.OutcomeSuccess {
		return outcome, driver.transition(EditStateEditing)
	}
	driver.session.pending = nil
	return outcome, driver.transition(EditStateViewing)
}

// CancelEditing discards the edit session.
func (driver *Driver) CancelEditing(ctx context.Context) error {
	if transitionErr := driver.transition(EditStateCancelling); transitionErr != nil {
		return transitionErr
	}
	if cancelErr := driver.dashboard.Cancel(ctx); cancelErr != nil {
		return cancelErr
	}
	driver.session.pending = nil
	return driver.transition(EditStateViewing)
}
