package model

import (
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

// Action is the widget operation a scenario drives.
type Action string

const (
	ActionCreate       Action = "create"
	ActionUpdate       Action = "update"
	ActionDelete       Action = "delete"
	ActionCopyPaste    Action = "copy-paste"
	ActionReplace      Action = "replace"
	ActionCancelCreate Action = "cancel-create"
	ActionCancelUpdate Action = "cancel-update"
)

// OutcomeClass is the expected result of submitting a widget form.
type OutcomeClass string

const (
	OutcomeSuccess OutcomeClass = "success"
	OutcomeFailure OutcomeClass = "failure"
)

// CancelPoint selects where a cancel scenario discards its edits.
type CancelPoint string

const (
	// CancelPointForm cancels the widget form itself.
	CancelPointForm CancelPoint = "form"
	// CancelPointDashboard submits the form and then cancels the dashboard edit session.
	CancelPointDashboard CancelPoint = "dashboard"
)

// Scenario is one row of a scenario table.
type Scenario struct {
	Name            string           `yaml:"name" validate:"required"`
	Action          Action           `yaml:"action" validate:"required,oneof=create update delete copy-paste replace cancel-create cancel-update"`
	WidgetType      WidgetType       `yaml:"type"`
	Target          string           `yaml:"widget"`
	Source          string           `yaml:"source"`
	Fields          FieldInputs      `yaml:"fields"`
	Tags            []TagFilter      `yaml:"tags"`
	Expected        OutcomeClass     `yaml:"expected" validate:"required,oneof=success failure"`
	Error           string           `yaml:"error"`
	Errors          []string         `yaml:"errors"`
	RowDelta        *int             `yaml:"row_delta"`
	Header          string           `yaml:"header"`
	RefreshInterval string           `yaml:"refresh_interval"`
	Table           *ExpectedTable   `yaml:"table"`
	Message         *ExpectedMessage `yaml:"message"`
	CancelPoint     CancelPoint      `yaml:"cancel_point" validate:"omitempty,oneof=form dashboard"`
	ScreenshotRetry bool             `yaml:"screenshot_retry"`
	PasteAvailable  *bool            `yaml:"paste_available"`
}

// PasteRefused reports whether the row expects the application not to offer paste, in which case
// nothing is pasted.
func (scenario Scenario) PasteRefused() bool {
	return scenario.PasteAvailable != nil && !*scenario.PasteAvailable
}

// ExpectedErrors merges the single and list forms of expected error messages.
func (scenario Scenario) ExpectedErrors() []string {
	var messages []string
	if strings.TrimSpace(scenario.Error) != "" {
		messages = append(messages, scenario.Error)
	}
	return append(messages, scenario.Errors...)
}

// ExpectedRowDelta returns the declared row count change, defaulting by action and outcome.
func (scenario Scenario) ExpectedRowDelta() int {
	if scenario.RowDelta != nil {
		return *scenario.RowDelta
	}
	if scenario.Expected != OutcomeSuccess || scenario.PasteRefused() {
		return 0
	}
	switch scenario.Action {
	case ActionCreate, ActionCopyPaste:
		return 1
	case ActionDelete:
		return -1
	default:
		return 0
	}
}

// Inputs returns the field inputs with the tag rows appended as a tag table input.
func (scenario Scenario) Inputs() FieldInputs {
	if len(scenario.Tags) == 0 {
		return scenario.Fields
	}
	return scenario.Fields.With(TagTableLabel, TagTableControl(scenario.Tags...))
}

// MutatesConfiguration reports whether a successful run is expected to change persisted rows.
func (scenario Scenario) MutatesConfiguration() bool {
	if scenario.Expected != OutcomeSuccess || scenario.PasteRefused() {
		return false
	}
	switch scenario.Action {
	case ActionCancelCreate, ActionCancelUpdate:
		return false
	case ActionUpdate:
		return len(scenario.Inputs()) > 0
	default:
		return true
	}
}

// TagTableLabel is the form label of the tag filter table.
const TagTableLabel = "Tags"

// CellMatcher describes how an expected cell matches a rendered one.
type CellMatcher string

const (
	CellMatchExact    CellMatcher = "exact"
	CellMatchContains CellMatcher = "contains"
	CellMatchBadge    CellMatcher = "badge"
	CellMatchIcon     CellMatcher = "icon"

	// CellMatchAny is the zero value; a null cell in a table matches anything.
	CellMatchAny CellMatcher = ""
)

// ExpectedCell is a partial matcher for one rendered cell.
type ExpectedCell struct {
	Matcher CellMatcher
	Text    string
	Class   string
}

func (cell ExpectedCell) String() string {
	switch cell.Matcher {
	case CellMatchContains:
		return fmt.Sprintf("contains(%q)", cell.Text)
	case CellMatchBadge:
		return fmt.Sprintf("badge(%q, %s)", cell.Text, cell.Class)
	case CellMatchIcon:
		return fmt.Sprintf("icon(%s)", cell.Class)
	case CellMatchAny:
		return "*"
	default:
		return fmt.Sprintf("%q", cell.Text)
	}
}

func (cell *ExpectedCell) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind == yaml.ScalarNode {
		if node.ShortTag() == nullTag {
			*cell = ExpectedCell{Matcher: CellMatchAny}
			return nil
		}
		*cell = ExpectedCell{Matcher: CellMatchExact, Text: node.Value}
		return nil
	}
	var decoded struct {
		Contains *string `yaml:"contains"`
		Badge    *struct {
			Text  string `yaml:"text"`
			Class string `yaml:"class"`
		} `yaml:"badge"`
		Icon *string `yaml:"icon"`
	}
	if decodeErr := node.Decode(&decoded); decodeErr != nil {
		return decodeErr
	}
	switch {
	case decoded.Contains != nil:
		*cell = ExpectedCell{Matcher: CellMatchContains, Text: *decoded.Contains}
	case decoded.Badge != nil:
		*cell = ExpectedCell{Matcher: CellMatchBadge, Text: decoded.Badge.Text, Class: decoded.Badge.Class}
	case decoded.Icon != nil:
		*cell = ExpectedCell{Matcher: CellMatchIcon, Class: *decoded.Icon}
	default:
		return fmt.Errorf("model: unsupported cell matcher at line %d", node.Line)
	}
	return nil
}

// ExpectedTable is the literal table a widget is expected to render.
type ExpectedTable struct {
	Headers []string         `yaml:"headers"`
	Rows    [][]ExpectedCell `yaml:"rows"`
	Ordered bool             `yaml:"ordered"`
}

// ExpectedMessage is the banner a scenario expects after submitting or saving.
type ExpectedMessage struct {
	Kind    MessageKind `yaml:"kind" validate:"required,oneof=good bad warning"`
	Title   string      `yaml:"title" validate:"required"`
	Details []string    `yaml:"details"`
}
