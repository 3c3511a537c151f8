package testutil

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"strconv"
	"strings"
	"sync"

	"github.com/MarkoPoloResearchLab/dashcheck/internal/model"
	"github.com/MarkoPoloResearchLab/dashcheck/internal/scenario"
)

const (
	errorMessageFakeUnknownView       = "testutil: fake dashboard not found"
	errorMessageFakeNotEditing        = "testutil: fake dashboard is not in edit mode"
	errorMessageFakeUnknownField      = "testutil: fake form has no visible field"
	errorMessageFakeControlMismatch   = "testutil: fake form control mismatch"
	errorMessageFakeUnsupportedType   = "testutil: fake application does not support widget type"
	errorMessageFakeFormClosed        = "testutil: fake form is closed"
	errorMessageFakeWidgetRemoved     = "testutil: fake widget is no longer on the dashboard"
	errorMessageFakeClipboardEmpty    = "testutil: fake clipboard is empty"
	errorMessageFakePasteRefused      = "testutil: fake application refuses to paste a widget from another dashboard kind"
	errorMessageFakeTypeNotSelectable = "testutil: widget type can only be selected on a new widget"

	fakeLabelType            = "Type"
	fakeLabelName            = "Name"
	fakeLabelRefreshInterval = "Refresh interval"
	fakeFieldRefreshRate     = "rf_rate"

	fakeMessageDashboardUpdated = "Dashboard updated"
	fakeMessageCannotAddWidget  = "Cannot add widget"
	fakeMessageCannotUpdate     = "Cannot update widget"
	fakeMessageCannotSave       = "Cannot update dashboard"
	fakeValidationCannotBeEmpty = "Invalid parameter \"%s\": cannot be empty."
	fakeValidationIntegerNeeded = "Invalid parameter \"%s\": an integer is expected."
	fakeValidationNoLessThan    = "Invalid parameter \"%s\": value must be no less than \"%d\"."
	fakeValidationNoGreaterThan = "Invalid parameter \"%s\": value must be no greater than \"%d\"."
	fakeValidationRowsUnique    = "Invalid parameter \"%s\": rows must be unique."

	fakeNewWidgetDefaultType      = model.WidgetTypeClock
	fakeNewWidgetDefaultWidth     = 12
	fakeNewWidgetDefaultHeight    = 5
	fakeTableHeaderField          = "Field"
	fakeTableHeaderValue          = "Value"
	fakeScreenshotSize            = 8
	fakeClockTimeTypeHost         = "Host time"
	fakeItemNavigatorLimitMinimum = 1
	fakeItemNavigatorLimitMaximum = 9999
)

var (
	// ErrFakeUnknownView indicates Open was called for a dashboard the fake application does not hold.
	ErrFakeUnknownView = errors.New(errorMessageFakeUnknownView)
	// ErrFakeNotEditing indicates an edit operation outside edit mode.
	ErrFakeNotEditing = errors.New(errorMessageFakeNotEditing)
	// ErrFakeUnknownField indicates a fill of a field the form does not show.
	ErrFakeUnknownField = errors.New(errorMessageFakeUnknownField)
	// ErrFakeControlMismatch indicates a value typed for a different control.
	ErrFakeControlMismatch = errors.New(errorMessageFakeControlMismatch)
	// ErrFakeUnsupportedType indicates a widget type without a fake form definition.
	ErrFakeUnsupportedType = errors.New(errorMessageFakeUnsupportedType)
	// ErrFakeFormClosed indicates use of a form after submit or cancel.
	ErrFakeFormClosed = errors.New(errorMessageFakeFormClosed)
	// ErrFakeWidgetRemoved indicates use of a widget handle after the widget was removed.
	ErrFakeWidgetRemoved = errors.New(errorMessageFakeWidgetRemoved)
	// ErrFakeClipboardEmpty indicates a paste before any copy.
	ErrFakeClipboardEmpty = errors.New(errorMessageFakeClipboardEmpty)
	// ErrFakePasteRefused indicates a paste between a dashboard and a template dashboard.
	ErrFakePasteRefused = errors.New(errorMessageFakePasteRefused)
	// ErrFakeTypeNotSelectable indicates a type change on an existing widget.
	ErrFakeTypeNotSelectable = errors.New(errorMessageFakeTypeNotSelectable)
)

type fakeFieldDefinition struct {
	label        string
	fieldName    string
	kind         model.ControlKind
	defaultValue model.ControlValue
	options      []string
	required     bool
	integer      bool
	minimum      int
	maximum      int
	uniqueRows   bool
	reference    model.FieldKind
	visibleWhen  func(values model.FieldInputs) bool
}

func (definition fakeFieldDefinition) visible(values model.FieldInputs) bool {
	return definition.visibleWhen == nil || definition.visibleWhen(values)
}

func fakeNameField() fakeFieldDefinition {
	return fakeFieldDefinition{label: fakeLabelName, kind: model.ControlKindText, defaultValue: model.TextControl("")}
}

func fakeRefreshField(widgetType model.WidgetType) fakeFieldDefinition {
	defaultLabel := "Default (" + widgetType.DefaultRefreshInterval() + ")"
	return fakeFieldDefinition{
		label:        fakeLabelRefreshInterval,
		fieldName:    fakeFieldRefreshRate,
		kind:         model.ControlKindDropdown,
		defaultValue: model.DropdownControl(defaultLabel),
		options:      []string{defaultLabel, "No refresh", "10 seconds", "30 seconds", "1 minute", "2 minutes", "10 minutes", "15 minutes"},
	}
}

// fakeFormDefinitions covers a handful of widget types with the control variants and
// validation rules the scenarios exercise.
var fakeFormDefinitions = map[model.WidgetType][]fakeFieldDefinition{
	model.WidgetTypeURL: {
		fakeNameField(),
		fakeRefreshField(model.WidgetTypeURL),
		{label: "URL", fieldName: "url", kind: model.ControlKindText, defaultValue: model.TextControl(""), required: true},
		{label: "Enable host selection", fieldName: "dynamic", kind: model.ControlKindCheckbox, defaultValue: model.CheckboxControl(false)},
	},
	model.WidgetTypeClock: {
		fakeNameField(),
		fakeRefreshField(model.WidgetTypeClock),
		{
			label:        "Time type",
			fieldName:    "time_type",
			kind:         model.ControlKindDropdown,
			defaultValue: model.DropdownControl("Local time"),
			options:      []string{"Local time", "Server time", fakeClockTimeTypeHost},
		},
		{
			label:        "Item",
			fieldName:    "itemid",
			kind:         model.ControlKindMultiSelect,
			defaultValue: model.MultiSelectControl(),
			required:     true,
			reference:    model.FieldKindItem,
			visibleWhen: func(values model.FieldInputs) bool {
				timeType, _ := values.Lookup("Time type")
				return timeType.Text == fakeClockTimeTypeHost
			},
		},
		{
			label:        "Clock type",
			fieldName:    "clock_type",
			kind:         model.ControlKindSegmentedRadio,
			defaultValue: model.RadioControl("Analog"),
			options:      []string{"Analog", "Digital"},
		},
	},
	model.WidgetTypeItemNavigator: {
		fakeNameField(),
		fakeRefreshField(model.WidgetTypeItemNavigator),
		{label: "Host groups", fieldName: "groupids", kind: model.ControlKindMultiSelect, defaultValue: model.MultiSelectControl(), reference: model.FieldKindHostGroup},
		{label: "Group by", fieldName: "group_by", kind: model.ControlKindMultiSelect, defaultValue: model.MultiSelectControl(), uniqueRows: true},
		{
			label:        "Item limit",
			fieldName:    "show_lines",
			kind:         model.ControlKindText,
			defaultValue: model.TextControl("100"),
			required:     true,
			integer:      true,
			minimum:      fakeItemNavigatorLimitMinimum,
			maximum:      fakeItemNavigatorLimitMaximum,
		},
	},
	model.WidgetTypeProblemHosts: {
		fakeNameField(),
		fakeRefreshField(model.WidgetTypeProblemHosts),
		{label: "Host groups", fieldName: "groupids", kind: model.ControlKindMultiSelect, defaultValue: model.MultiSelectControl(), reference: model.FieldKindHostGroup},
		{label: "Show suppressed problems", fieldName: "show_suppressed", kind: model.ControlKindCheckbox, defaultValue: model.CheckboxControl(false)},
		{label: model.TagTableLabel, fieldName: "tags", kind: model.ControlKindTagTable, defaultValue: model.TagTableControl()},
	},
}

type fakeWidgetState struct {
	widgetType model.WidgetType
	values     model.FieldInputs
	geometry   model.Geometry
}

func (state fakeWidgetState) header() string {
	name, _ := state.values.Lookup(fakeLabelName)
	return model.ResolveHeaderName(state.widgetType, name.Text)
}

func (state fakeWidgetState) clone() fakeWidgetState {
	return fakeWidgetState{widgetType: state.widgetType, values: append(model.FieldInputs(nil), state.values...), geometry: state.geometry}
}

type fakeDashboardState struct {
	kind      scenario.ViewKind
	committed []fakeWidgetState
}

// FakeDashboardApp is an in-memory stand-in for the dashboard application. Saved dashboards are
// written through a RecordWriter so verification queries see them.
type FakeDashboardApp struct {
	mutex             sync.Mutex
	writer            *RecordWriter
	dashboards        map[string]*fakeDashboardState
	clipboard         *fakeWidgetState
	clipboardKind     scenario.ViewKind
	crossContextPaste bool
	rejectSave        *model.Message
}

// NewFakeDashboardApp creates an application persisting through writer; writer may be nil.
func NewFakeDashboardApp(writer *RecordWriter) *FakeDashboardApp {
	return &FakeDashboardApp{writer: writer, dashboards: map[string]*fakeDashboardState{}}
}

// AddDashboard registers a dashboard; widget fields are given as form inputs.
func (app *FakeDashboardApp) AddDashboard(name string, kind scenario.ViewKind, widgets ...FakeWidget) error {
	app.mutex.Lock()
	defer app.mutex.Unlock()
	state := &fakeDashboardState{kind: kind}
	for _, widget := range widgets {
		definitions, known := fakeFormDefinitions[widget.Type]
		if !known {
			return fmt.Errorf("%w: %s", ErrFakeUnsupportedType, widget.Type)
		}
		values := defaultValues(definitions)
		for _, input := range widget.Fields {
			values = values.With(input.Label, input.Value)
		}
		state.committed = append(state.committed, fakeWidgetState{widgetType: widget.Type, values: values, geometry: widget.Geometry})
	}
	app.dashboards[name] = state
	if app.writer == nil {
		return nil
	}
	if _, createErr := app.writer.CreateDashboard(name); createErr != nil {
		return createErr
	}
	return app.persist(name, state.committed)
}

// RejectNextSave makes the next dashboard save fail with the given banner.
func (app *FakeDashboardApp) RejectNextSave(details ...string) {
	app.mutex.Lock()
	defer app.mutex.Unlock()
	app.rejectSave = &model.Message{Kind: model.MessageKindBad, Title: fakeMessageCannotSave, Details: details}
}

// OfferCrossContextPaste makes the application offer and accept pasting a widget copied on another
// dashboard kind.
func (app *FakeDashboardApp) OfferCrossContextPaste() {
	app.mutex.Lock()
	defer app.mutex.Unlock()
	app.crossContextPaste = true
}

// clipboardFor returns the copied widget if it may be pasted into a dashboard of the kind. The
// caller holds the mutex.
func (app *FakeDashboardApp) clipboardFor(kind scenario.ViewKind) (*fakeWidgetState, error) {
	if app.clipboard == nil {
		return nil, ErrFakeClipboardEmpty
	}
	if app.clipboardKind != kind && !app.crossContextPaste {
		return nil, ErrFakePasteRefused
	}
	return app.clipboard, nil
}

// ClearClipboard forgets the copied widget.
func (app *FakeDashboardApp) ClearClipboard() {
	app.mutex.Lock()
	defer app.mutex.Unlock()
	app.clipboard = nil
}

// Dashboard returns a new page showing no dashboard until Open is called.
func (app *FakeDashboardApp) Dashboard() *FakeDashboard {
	return &FakeDashboard{app: app}
}

func (app *FakeDashboardApp) persist(name string, widgets []fakeWidgetState) error {
	if app.writer == nil {
		return nil
	}
	modelWidgets := make([]model.Widget, 0, len(widgets))
	for _, widget := range widgets {
		modelWidgets = append(modelWidgets, widget.modelWidget())
	}
	return app.writer.ReplaceWidgets(name, modelWidgets)
}

// FakeWidget seeds a widget of a fake dashboard.
type FakeWidget struct {
	Type     model.WidgetType
	Fields   model.FieldInputs
	Geometry model.Geometry
}

func defaultValues(definitions []fakeFieldDefinition) model.FieldInputs {
	values := make(model.FieldInputs, 0, len(definitions))
	for _, definition := range definitions {
		values = append(values, model.FieldInput{Label: definition.label, Value: definition.defaultValue})
	}
	return values
}

func (state fakeWidgetState) modelWidget() model.Widget {
	name, _ := state.values.Lookup(fakeLabelName)
	widget := model.Widget{Type: state.widgetType, Name: strings.TrimSpace(name.Text), Geometry: state.geometry}
	for _, definition := range fakeFormDefinitions[state.widgetType] {
		if definition.fieldName == "" || !definition.visible(state.values) {
			continue
		}
		value, _ := state.values.Lookup(definition.label)
		widget.Fields = append(widget.Fields, definition.storedFields(value)...)
	}
	return widget
}

// storedFields returns the widget_field rows a value is stored as. Default values are not stored.
func (definition fakeFieldDefinition) storedFields(value model.ControlValue) []model.WidgetField {
	if value.Equal(definition.defaultValue) {
		return nil
	}
	switch definition.kind {
	case model.ControlKindCheckbox:
		if !value.Checked {
			return nil
		}
		return []model.WidgetField{{Name: definition.fieldName, Value: model.IntegerValue(1)}}
	case model.ControlKindDropdown, model.ControlKindSegmentedRadio:
		if definition.fieldName == fakeFieldRefreshRate {
			seconds, _ := model.RefreshIntervalSeconds(value.Text)
			return []model.WidgetField{{Name: definition.fieldName, Value: model.IntegerValue(seconds)}}
		}
		return []model.WidgetField{{Name: definition.fieldName, Value: model.IntegerValue(optionIndex(definition.options, value.Text))}}
	case model.ControlKindMultiSelect:
		fields := make([]model.WidgetField, 0, len(value.Items))
		for index, item := range value.Items {
			fieldValue := model.StringValue(item)
			if definition.reference.IsReference() {
				fieldValue = model.ReferenceValue(definition.reference, item)
			}
			fields = append(fields, model.WidgetField{Name: fmt.Sprintf("%s.%d", definition.fieldName, index), Value: fieldValue})
		}
		return fields
	case model.ControlKindTagTable:
		return model.TagFilterFields(definition.fieldName, value.Tags)
	default:
		if definition.integer {
			integer, _ := strconv.Atoi(value.Text)
			return []model.WidgetField{{Name: definition.fieldName, Value: model.IntegerValue(integer)}}
		}
		return []model.WidgetField{{Name: definition.fieldName, Value: model.StringValue(value.Text)}}
	}
}

func optionIndex(options []string, label string) int {
	for index, option := range options {
		if option == label {
			return index
		}
	}
	return -1
}

// FakeDashboard is one page of the fake application. It implements scenario.Dashboard.
type FakeDashboard struct {
	app     *FakeDashboardApp
	name    string
	state   *fakeDashboardState
	working []*fakeWidgetState
	editing bool
	message *model.Message
}

func (dashboard *FakeDashboard) Open(_ context.Context, view scenario.View) error {
	dashboard.app.mutex.Lock()
	defer dashboard.app.mutex.Unlock()
	state, known := dashboard.app.dashboards[view.Name]
	if !known || state.kind != view.Kind {
		return fmt.Errorf("%w: %s %q", ErrFakeUnknownView, view.Kind, view.Name)
	}
	dashboard.name = view.Name
	dashboard.state = state
	dashboard.editing = false
	dashboard.message = nil
	dashboard.resetWorking()
	return nil
}

func (dashboard *FakeDashboard) resetWorking() {
	dashboard.working = make([]*fakeWidgetState, 0, len(dashboard.state.committed))
	for _, widget := range dashboard.state.committed {
		cloned := widget.clone()
		dashboard.working = append(dashboard.working, &cloned)
	}
}

func (dashboard *FakeDashboard) requireEditing() error {
	if dashboard.state == nil || !dashboard.editing {
		return ErrFakeNotEditing
	}
	return nil
}

func (dashboard *FakeDashboard) Edit(_ context.Context) error {
	if dashboard.state == nil {
		return ErrFakeUnknownView
	}
	dashboard.editing = true
	dashboard.message = nil
	return nil
}

func (dashboard *FakeDashboard) Save(_ context.Context) (scenario.SubmitResult, error) {
	if editingErr := dashboard.requireEditing(); editingErr != nil {
		return scenario.SubmitResult{}, editingErr
	}
	dashboard.app.mutex.Lock()
	defer dashboard.app.mutex.Unlock()
	if dashboard.app.rejectSave != nil {
		dashboard.message = dashboard.app.rejectSave
		dashboard.app.rejectSave = nil
		return scenario.SubmitResult{Accepted: false, Message: dashboard.message}, nil
	}
	committed := make([]fakeWidgetState, 0, len(dashboard.working))
	for _, widget := range dashboard.working {
		committed = append(committed, widget.clone())
	}
	if persistErr := dashboard.app.persist(dashboard.name, committed); persistErr != nil {
		return scenario.SubmitResult{}, persistErr
	}
	dashboard.state.committed = committed
	dashboard.editing = false
	dashboard.message = &model.Message{Kind: model.MessageKindGood, Title: fakeMessageDashboardUpdated}
	return scenario.SubmitResult{Accepted: true, Message: dashboard.message}, nil
}

func (dashboard *FakeDashboard) Cancel(_ context.Context) error {
	if editingErr := dashboard.requireEditing(); editingErr != nil {
		return editingErr
	}
	dashboard.app.mutex.Lock()
	defer dashboard.app.mutex.Unlock()
	dashboard.resetWorking()
	dashboard.editing = false
	return nil
}

func (dashboard *FakeDashboard) Widgets(_ context.Context) ([]scenario.Widget, error) {
	widgets := make([]scenario.Widget, 0, len(dashboard.working))
	for _, state := range dashboard.working {
		widgets = append(widgets, &FakeDashboardWidget{dashboard: dashboard, state: state})
	}
	return widgets, nil
}

func (dashboard *FakeDashboard) FindWidget(_ context.Context, header string) (scenario.Widget, bool, error) {
	for _, state := range dashboard.working {
		if state.header() == header {
			return &FakeDashboardWidget{dashboard: dashboard, state: state}, true, nil
		}
	}
	return nil, false, nil
}

func (dashboard *FakeDashboard) AddWidget(_ context.Context) (scenario.Form, error) {
	if editingErr := dashboard.requireEditing(); editingErr != nil {
		return nil, editingErr
	}
	return newFakeForm(dashboard, nil, fakeNewWidgetDefaultType), nil
}

func (dashboard *FakeDashboard) PasteAvailable(_ context.Context) (bool, error) {
	if !dashboard.editing {
		return false, nil
	}
	dashboard.app.mutex.Lock()
	defer dashboard.app.mutex.Unlock()
	_, clipboardErr := dashboard.app.clipboardFor(dashboard.state.kind)
	return clipboardErr == nil, nil
}

func (dashboard *FakeDashboard) PasteWidget(_ context.Context) error {
	if editingErr := dashboard.requireEditing(); editingErr != nil {
		return editingErr
	}
	dashboard.app.mutex.Lock()
	defer dashboard.app.mutex.Unlock()
	clipboard, clipboardErr := dashboard.app.clipboardFor(dashboard.state.kind)
	if clipboardErr != nil {
		return clipboardErr
	}
	pasted := clipboard.clone()
	pasted.geometry = dashboard.nextFreeGeometry(pasted.geometry.Width, pasted.geometry.Height)
	dashboard.working = append(dashboard.working, &pasted)
	return nil
}

func (dashboard *FakeDashboard) Message(_ context.Context) (*model.Message, error) {
	return dashboard.message, nil
}

func (dashboard *FakeDashboard) nextFreeGeometry(width int, height int) model.Geometry {
	bottom := 0
	for _, widget := range dashboard.working {
		if widgetBottom := widget.geometry.Y + widget.geometry.Height; widgetBottom > bottom {
			bottom = widgetBottom
		}
	}
	return model.Geometry{X: 0, Y: bottom, Width: width, Height: height}
}

func (dashboard *FakeDashboard) contains(state *fakeWidgetState) bool {
	for _, candidate := range dashboard.working {
		if candidate == state {
			return true
		}
	}
	return false
}

// FakeDashboardWidget is a widget of a FakeDashboard. It implements scenario.Widget.
type FakeDashboardWidget struct {
	dashboard *FakeDashboard
	state     *fakeWidgetState
}

func (widget *FakeDashboardWidget) Header() string {
	return widget.state.header()
}

func (widget *FakeDashboardWidget) Geometry(_ context.Context) (model.Geometry, error) {
	if !widget.dashboard.contains(widget.state) {
		return model.Geometry{}, ErrFakeWidgetRemoved
	}
	return widget.state.geometry, nil
}

func (widget *FakeDashboardWidget) Edit(_ context.Context) (scenario.Form, error) {
	if editingErr := widget.dashboard.requireEditing(); editingErr != nil {
		return nil, editingErr
	}
	if !widget.dashboard.contains(widget.state) {
		return nil, ErrFakeWidgetRemoved
	}
	return newFakeForm(widget.dashboard, widget.state, widget.state.widgetType), nil
}

func (widget *FakeDashboardWidget) Copy(_ context.Context) error {
	if !widget.dashboard.contains(widget.state) {
		return ErrFakeWidgetRemoved
	}
	widget.dashboard.app.mutex.Lock()
	defer widget.dashboard.app.mutex.Unlock()
	copied := widget.state.clone()
	widget.dashboard.app.clipboard = &copied
	widget.dashboard.app.clipboardKind = widget.dashboard.state.kind
	return nil
}

func (widget *FakeDashboardWidget) Paste(_ context.Context) error {
	if editingErr := widget.dashboard.requireEditing(); editingErr != nil {
		return editingErr
	}
	if !widget.dashboard.contains(widget.state) {
		return ErrFakeWidgetRemoved
	}
	widget.dashboard.app.mutex.Lock()
	defer widget.dashboard.app.mutex.Unlock()
	clipboard, clipboardErr := widget.dashboard.app.clipboardFor(widget.dashboard.state.kind)
	if clipboardErr != nil {
		return clipboardErr
	}
	replacement := clipboard.clone()
	replacement.geometry = widget.state.geometry
	*widget.state = replacement
	return nil
}

func (widget *FakeDashboardWidget) Delete(_ context.Context) error {
	if editingErr := widget.dashboard.requireEditing(); editingErr != nil {
		return editingErr
	}
	remaining := make([]*fakeWidgetState, 0, len(widget.dashboard.working))
	for _, candidate := range widget.dashboard.working {
		if candidate != widget.state {
			remaining = append(remaining, candidate)
		}
	}
	if len(remaining) == len(widget.dashboard.working) {
		return ErrFakeWidgetRemoved
	}
	widget.dashboard.working = remaining
	return nil
}

// Table renders the widget's visible, non-default configuration as a two column table.
func (widget *FakeDashboardWidget) Table(_ context.Context) (model.RenderedTable, error) {
	if !widget.dashboard.contains(widget.state) {
		return model.RenderedTable{}, ErrFakeWidgetRemoved
	}
	table := model.RenderedTable{Headers: []string{fakeTableHeaderField, fakeTableHeaderValue}}
	for _, definition := range fakeFormDefinitions[widget.state.widgetType] {
		if definition.label == fakeLabelName || !definition.visible(widget.state.values) {
			continue
		}
		value, _ := widget.state.values.Lookup(definition.label)
		table.Rows = append(table.Rows, []model.RenderedCell{{Text: definition.label}, fakeRenderedCell(value)})
	}
	return table, nil
}

func fakeRenderedCell(value model.ControlValue) model.RenderedCell {
	switch value.Kind {
	case model.ControlKindCheckbox:
		if value.Checked {
			return model.RenderedCell{Text: "Yes", Badges: []model.Badge{{Text: "Yes", Classes: []string{"status-green"}}}}
		}
		return model.RenderedCell{Text: "No", Badges: []model.Badge{{Text: "No", Classes: []string{"status-grey"}}}}
	case model.ControlKindMultiSelect:
		return model.RenderedCell{Text: strings.Join(value.Items, ", ")}
	case model.ControlKindTagTable:
		rendered := make([]string, 0, len(value.Tags))
		for _, tag := range value.Tags {
			rendered = append(rendered, tag.String())
		}
		return model.RenderedCell{Text: strings.Join(rendered, ", "), Icons: []string{"icon-tag"}}
	default:
		return model.RenderedCell{Text: value.Text}
	}
}

// Screenshot returns a small PNG filled with a colour derived from the widget type.
func (widget *FakeDashboardWidget) Screenshot(_ context.Context) ([]byte, error) {
	if !widget.dashboard.contains(widget.state) {
		return nil, ErrFakeWidgetRemoved
	}
	return FakeScreenshot(FakeWidgetColor(widget.state.widgetType)), nil
}

// FakeWidgetColor returns the solid colour a fake widget of the type is drawn with.
func FakeWidgetColor(widgetType model.WidgetType) color.RGBA {
	var sum uint32
	for _, character := range string(widgetType) {
		sum = sum*31 + uint32(character)
	}
	return color.RGBA{R: uint8(sum), G: uint8(sum >> 8), B: uint8(sum >> 16), A: 0xff}
}

// FakeScreenshot encodes a small solid PNG.
func FakeScreenshot(fill color.RGBA) []byte {
	canvas := image.NewRGBA(image.Rect(0, 0, fakeScreenshotSize, fakeScreenshotSize))
	for y := 0; y < fakeScreenshotSize; y++ {
		for x := 0; x < fakeScreenshotSize; x++ {
			canvas.SetRGBA(x, y, fill)
		}
	}
	var buffer bytes.Buffer
	_ = png.Encode(&buffer, canvas)
	return buffer.Bytes()
}

// FakeForm is a widget configuration form. It implements scenario.Form.
type FakeForm struct {
	dashboard  *FakeDashboard
	target     *fakeWidgetState
	widgetType model.WidgetType
	values     model.FieldInputs
	closed     bool
}

func newFakeForm(dashboard *FakeDashboard, target *fakeWidgetState, widgetType model.WidgetType) *FakeForm {
	form := &FakeForm{dashboard: dashboard, target: target, widgetType: widgetType}
	if target != nil {
		form.values = append(model.FieldInputs(nil), target.values...)
	} else {
		form.values = defaultValues(fakeFormDefinitions[widgetType])
	}
	return form
}

func (form *FakeForm) definitions() []fakeFieldDefinition {
	return fakeFormDefinitions[form.widgetType]
}

func (form *FakeForm) SelectType(_ context.Context, widgetType model.WidgetType) error {
	if form.closed {
		return ErrFakeFormClosed
	}
	if form.target != nil {
		return ErrFakeTypeNotSelectable
	}
	definitions, known := fakeFormDefinitions[widgetType]
	if !known {
		return fmt.Errorf("%w: %s", ErrFakeUnsupportedType, widgetType)
	}
	name, _ := form.values.Lookup(fakeLabelName)
	form.widgetType = widgetType
	form.values = defaultValues(definitions).With(fakeLabelName, name)
	return nil
}

func (form *FakeForm) Type(_ context.Context) (model.WidgetType, error) {
	if form.closed {
		return "", ErrFakeFormClosed
	}
	return form.widgetType, nil
}

func (form *FakeForm) Fill(_ context.Context, inputs model.FieldInputs) error {
	if form.closed {
		return ErrFakeFormClosed
	}
	for _, input := range inputs {
		definition, found := form.visibleDefinition(input.Label)
		if !found {
			return fmt.Errorf("%w: %q", ErrFakeUnknownField, input.Label)
		}
		if definition.kind != input.Value.Kind {
			return fmt.Errorf("%w: %q is %s, got %s", ErrFakeControlMismatch, input.Label, definition.kind, input.Value.Kind)
		}
		if len(definition.options) > 0 && optionIndex(definition.options, input.Value.Text) < 0 {
			return fmt.Errorf("%w: %q has no option %q", ErrFakeControlMismatch, input.Label, input.Value.Text)
		}
		form.values = form.values.With(input.Label, input.Value)
	}
	return nil
}

func (form *FakeForm) visibleDefinition(label string) (fakeFieldDefinition, bool) {
	for _, definition := range form.definitions() {
		if definition.label == label && definition.visible(form.values) {
			return definition, true
		}
	}
	return fakeFieldDefinition{}, false
}

func (form *FakeForm) States(_ context.Context) (model.FieldStates, error) {
	if form.closed {
		return nil, ErrFakeFormClosed
	}
	states := model.FieldStates{{Label: fakeLabelType, Value: model.DropdownControl(form.widgetType.DisplayName()), Visible: true, Enabled: form.target == nil}}
	for _, definition := range form.definitions() {
		value, _ := form.values.Lookup(definition.label)
		states = append(states, model.FieldState{Label: definition.label, Value: value, Visible: definition.visible(form.values), Enabled: true})
	}
	return states, nil
}

func (form *FakeForm) Submit(_ context.Context) (scenario.SubmitResult, error) {
	if form.closed {
		return scenario.SubmitResult{}, ErrFakeFormClosed
	}
	if validationErrors := form.validate(); len(validationErrors) > 0 {
		title := fakeMessageCannotAddWidget
		if form.target != nil {
			title = fakeMessageCannotUpdate
		}
		message := &model.Message{Kind: model.MessageKindBad, Title: title, Details: validationErrors}
		return scenario.SubmitResult{Accepted: false, Message: message}, nil
	}

	stored := make(model.FieldInputs, 0, len(form.values))
	for _, input := range form.values {
		stored = append(stored, model.FieldInput{Label: input.Label, Value: input.Value.Trimmed()})
	}
	form.closed = true
	if form.target != nil {
		form.target.values = stored
		return scenario.SubmitResult{Accepted: true}, nil
	}
	created := &fakeWidgetState{
		widgetType: form.widgetType,
		values:     stored,
		geometry:   form.dashboard.nextFreeGeometry(fakeNewWidgetDefaultWidth, fakeNewWidgetDefaultHeight),
	}
	form.dashboard.working = append(form.dashboard.working, created)
	return scenario.SubmitResult{Accepted: true}, nil
}

func (form *FakeForm) validate() []string {
	var validationErrors []string
	for _, definition := range form.definitions() {
		if !definition.visible(form.values) {
			continue
		}
		value, _ := form.values.Lookup(definition.label)
		trimmed := value.Trimmed()
		switch definition.kind {
		case model.ControlKindText:
			if trimmed.Text == "" {
				if definition.required {
					validationErrors = append(validationErrors, fmt.Sprintf(fakeValidationCannotBeEmpty, definition.label))
				}
				continue
			}
			if !definition.integer {
				continue
			}
			integer, parseErr := strconv.Atoi(trimmed.Text)
			switch {
			case parseErr != nil:
				validationErrors = append(validationErrors, fmt.Sprintf(fakeValidationIntegerNeeded, definition.label))
			case integer < definition.minimum:
				validationErrors = append(validationErrors, fmt.Sprintf(fakeValidationNoLessThan, definition.label, definition.minimum))
			case integer > definition.maximum:
				validationErrors = append(validationErrors, fmt.Sprintf(fakeValidationNoGreaterThan, definition.label, definition.maximum))
			}
		case model.ControlKindMultiSelect:
			if definition.required && len(trimmed.Items) == 0 {
				validationErrors = append(validationErrors, fmt.Sprintf(fakeValidationCannotBeEmpty, definition.label))
			}
			if definition.uniqueRows && hasDuplicates(trimmed.Items) {
				validationErrors = append(validationErrors, fmt.Sprintf(fakeValidationRowsUnique, definition.label))
			}
		}
	}
	return validationErrors
}

func hasDuplicates(items []string) bool {
	seen := make(map[string]struct{}, len(items))
	for _, item := range items {
		if _, duplicate := seen[item]; duplicate {
			return true
		}
		seen[item] = struct{}{}
	}
	return false
}

func (form *FakeForm) Cancel(_ context.Context) error {
	form.closed = true
	return nil
}
