package model

import (
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// ControlKind identifies the form control variant a field is rendered with.
type ControlKind string

const (
	ControlKindText           ControlKind = "text"
	ControlKindCheckbox       ControlKind = "checkbox"
	ControlKindSegmentedRadio ControlKind = "radio"
	ControlKindDropdown       ControlKind = "select"
	ControlKindMultiSelect    ControlKind = "multiselect"
	ControlKindTagTable       ControlKind = "tags"

	controlValueSeparator = ", "
	nullTag               = "!!null"
)

var (
	ErrUnsupportedControlValue = errors.New("model: unsupported control value")
	ErrUnknownTagOperator      = errors.New("model: unknown tag operator")
)

// TagOperator mirrors the operator codes of tag filter rows.
type TagOperator int

const (
	TagOperatorContains       TagOperator = 0
	TagOperatorEquals         TagOperator = 1
	TagOperatorNotContains    TagOperator = 2
	TagOperatorNotEquals      TagOperator = 3
	TagOperatorExists         TagOperator = 4
	TagOperatorNotExists      TagOperator = 5
	tagOperatorLabelContains              = "Contains"
	tagOperatorLabelEquals                = "Equals"
	tagOperatorLabelNotContains           = "Does not contain"
	tagOperatorLabelNotEquals             = "Does not equal"
	tagOperatorLabelExists                = "Exists"
	tagOperatorLabelNotExists             = "Does not exist"
)

var tagOperatorLabels = map[TagOperator]string{
	TagOperatorContains:    tagOperatorLabelContains,
	TagOperatorEquals:      tagOperatorLabelEquals,
	TagOperatorNotContains: tagOperatorLabelNotContains,
	TagOperatorNotEquals:   tagOperatorLabelNotEquals,
	TagOperatorExists:      tagOperatorLabelExists,
	TagOperatorNotExists:   tagOperatorLabelNotExists,
}

// Label returns the text shown in the operator dropdown.
func (operator TagOperator) Label() string {
	label, known := tagOperatorLabels[operator]
	if !known {
		return strconv.Itoa(int(operator))
	}
	return label
}

// ParseTagOperator accepts a dropdown label; an empty label means Contains.
func ParseTagOperator(label string) (TagOperator, error) {
	trimmedLabel := strings.TrimSpace(label)
	if trimmedLabel == "" {
		return TagOperatorContains, nil
	}
	for operator, operatorLabel := range tagOperatorLabels {
		if strings.EqualFold(operatorLabel, trimmedLabel) {
			return operator, nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownTagOperator, label)
}

func (operator TagOperator) MarshalYAML() (interface{}, error) {
	return operator.Label(), nil
}

func (operator *TagOperator) UnmarshalYAML(node *yaml.Node) error {
	parsedOperator, parseErr := ParseTagOperator(node.Value)
	if parseErr != nil {
		return parseErr
	}
	*operator = parsedOperator
	return nil
}

// TagFilter is one row of a tag filter table.
type TagFilter struct {
	Tag      string      `yaml:"tag" json:"tag"`
	Operator TagOperator `yaml:"operator" json:"operator"`
	Value    string      `yaml:"value" json:"value"`
}

func (tag TagFilter) String() string {
	return fmt.Sprintf("%s %s %s", tag.Tag, tag.Operator.Label(), tag.Value)
}

// ControlValue is a value typed to the control variant it is applied to.
type ControlValue struct {
	Kind    ControlKind `json:"kind"`
	Text    string      `json:"text,omitempty"`
	Checked bool        `json:"checked,omitempty"`
	Items   []string    `json:"items,omitempty"`
	Tags    []TagFilter `json:"tags,omitempty"`
}

func TextControl(value string) ControlValue {
	return ControlValue{Kind: ControlKindText, Text: value}
}

func CheckboxControl(checked bool) ControlValue {
	return ControlValue{Kind: ControlKindCheckbox, Checked: checked}
}

func RadioControl(label string) ControlValue {
	return ControlValue{Kind: ControlKindSegmentedRadio, Text: label}
}

func DropdownControl(label string) ControlValue {
	return ControlValue{Kind: ControlKindDropdown, Text: label}
}

func MultiSelectControl(items ...string) ControlValue {
	return ControlValue{Kind: ControlKindMultiSelect, Items: items}
}

func TagTableControl(tags ...TagFilter) ControlValue {
	return ControlValue{Kind: ControlKindTagTable, Tags: tags}
}

// Trimmed returns the value with surrounding whitespace removed from text content, matching how
// the application stores text fields.
func (value ControlValue) Trimmed() ControlValue {
	trimmedValue := value
	trimmedValue.Text = strings.TrimSpace(value.Text)
	if len(value.Items) > 0 {
		trimmedValue.Items = make([]string, len(value.Items))
		for index, item := range value.Items {
			trimmedValue.Items[index] = strings.TrimSpace(item)
		}
	}
	if len(value.Tags) > 0 {
		trimmedValue.Tags = make([]TagFilter, len(value.Tags))
		for index, tag := range value.Tags {
			trimmedValue.Tags[index] = TagFilter{
				Tag:      strings.TrimSpace(tag.Tag),
				Operator: tag.Operator,
				Value:    strings.TrimSpace(tag.Value),
			}
		}
	}
	return trimmedValue
}

// Equal compares two values of the same kind. Multiselect items compare as sets.
func (value ControlValue) Equal(other ControlValue) bool {
	if value.Kind != other.Kind {
		return false
	}
	switch value.Kind {
	case ControlKindCheckbox:
		return value.Checked == other.Checked
	case ControlKindMultiSelect:
		return strings.Join(sortedCopy(value.Items), "\x1f") == strings.Join(sortedCopy(other.Items), "\x1f")
	case ControlKindTagTable:
		if len(value.Tags) != len(other.Tags) {
			return false
		}
		for index := range value.Tags {
			if value.Tags[index] != other.Tags[index] {
				return false
			}
		}
		return true
	default:
		return value.Text == other.Text
	}
}

func (value ControlValue) String() string {
	switch value.Kind {
	case ControlKindCheckbox:
		return strconv.FormatBool(value.Checked)
	case ControlKindMultiSelect:
		return "[" + strings.Join(value.Items, controlValueSeparator) + "]"
	case ControlKindTagTable:
		rendered := make([]string, 0, len(value.Tags))
		for _, tag := range value.Tags {
			rendered = append(rendered, tag.String())
		}
		return "[" + strings.Join(rendered, controlValueSeparator) + "]"
	default:
		return strconv.Quote(value.Text)
	}
}

func (value *ControlValue) UnmarshalYAML(node *yaml.Node) error {
	if node == nil {
		*value = TextControl("")
		return nil
	}
	switch node.Kind {
	case yaml.ScalarNode:
		if node.ShortTag() == nullTag {
			*value = TextControl("")
			return nil
		}
		*value = TextControl(node.Value)
		return nil
	case yaml.MappingNode:
		if len(node.Content) != 2 {
			return fmt.Errorf("%w: expected a single control key at line %d", ErrUnsupportedControlValue, node.Line)
		}
		return value.decodeTyped(ControlKind(strings.TrimSpace(node.Content[0].Value)), node.Content[1])
	default:
		return fmt.Errorf("%w: unsupported yaml node kind %d at line %d", ErrUnsupportedControlValue, node.Kind, node.Line)
	}
}

func (value *ControlValue) decodeTyped(kind ControlKind, payload *yaml.Node) error {
	switch kind {
	case ControlKindText, ControlKindSegmentedRadio, ControlKindDropdown:
		*value = ControlValue{Kind: kind, Text: payload.Value}
		return nil
	case ControlKindCheckbox:
		var checked bool
		if decodeErr := payload.Decode(&checked); decodeErr != nil {
			return fmt.Errorf("%w: checkbox: %v", ErrUnsupportedControlValue, decodeErr)
		}
		*value = CheckboxControl(checked)
		return nil
	case ControlKindMultiSelect:
		var items []string
		if payload.Kind == yaml.ScalarNode {
			items = []string{payload.Value}
		} else if decodeErr := payload.Decode(&items); decodeErr != nil {
			return fmt.Errorf("%w: multiselect: %v", ErrUnsupportedControlValue, decodeErr)
		}
		*value = MultiSelectControl(items...)
		return nil
	case ControlKindTagTable:
		var tags []TagFilter
		if decodeErr := payload.Decode(&tags); decodeErr != nil {
			return fmt.Errorf("%w: tags: %v", ErrUnsupportedControlValue, decodeErr)
		}
		*value = TagTableControl(tags...)
		return nil
	default:
		return fmt.Errorf("%w: unknown control kind %q", ErrUnsupportedControlValue, kind)
	}
}

// FieldInput assigns a control value to the form field with the given label.
type FieldInput struct {
	Label string       `json:"label"`
	Value ControlValue `json:"value"`
}

// FieldInputs keeps inputs in the order they are applied; some controls reshape the form.
type FieldInputs []FieldInput

func (inputs *FieldInputs) UnmarshalYAML(node *yaml.Node) error {
	if node == nil || node.Kind == 0 {
		*inputs = nil
		return nil
	}
	if node.Kind != yaml.MappingNode {
		return fmt.Errorf("%w: fields must be a mapping (line %d)", ErrUnsupportedControlValue, node.Line)
	}
	decoded := make(FieldInputs, 0, len(node.Content)/2)
	for index := 0; index+1 < len(node.Content); index += 2 {
		label := strings.TrimSpace(node.Content[index].Value)
		var controlValue ControlValue
		if decodeErr := controlValue.UnmarshalYAML(node.Content[index+1]); decodeErr != nil {
			return fmt.Errorf("field %q: %w", label, decodeErr)
		}
		decoded = append(decoded, FieldInput{Label: label, Value: controlValue})
	}
	*inputs = decoded
	return nil
}

// Lookup returns the value assigned to label.
func (inputs FieldInputs) Lookup(label string) (ControlValue, bool) {
	for _, input := range inputs {
		if input.Label == label {
			return input.Value, true
		}
	}
	return ControlValue{}, false
}

// With returns a copy where label is set to value, replacing an earlier assignment.
func (inputs FieldInputs) With(label string, value ControlValue) FieldInputs {
	updated := make(FieldInputs, 0, len(inputs)+1)
	replaced := false
	for _, input := range inputs {
		if input.Label == label {
			updated = append(updated, FieldInput{Label: label, Value: value})
			replaced = true
			continue
		}
		updated = append(updated, input)
	}
	if !replaced {
		updated = append(updated, FieldInput{Label: label, Value: value})
	}
	return updated
}

func sortedCopy(values []string) []string {
	copied := append([]string(nil), values...)
	sort.Strings(copied)
	return copied
}
