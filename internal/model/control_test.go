package model

import (
	"testing"

	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

const testFieldInputsDocument = `
Name: "  Padded  "
Refresh interval:
  select: 10 minutes
Show suppressed problems:
  checkbox: true
Host groups:
  multiselect:
    - Linux servers
    - Zabbix servers
Problem display:
  radio: Separated
Tags:
  tags:
    - tag: service
      operator: Equals
      value: mysql
    - tag: env
`

func TestFieldInputsDecodeTypedControlsInOrder(t *testing.T) {
	var inputs FieldInputs
	require.NoError(t, yaml.Unmarshal([]byte(testFieldInputsDocument), &inputs))

	require.Len(t, inputs, 6)
	require.Equal(t, []string{"Name", "Refresh interval", "Show suppressed problems", "Host groups", "Problem display", "Tags"},
		[]string{inputs[0].Label, inputs[1].Label, inputs[2].Label, inputs[3].Label, inputs[4].Label, inputs[5].Label})

	require.Equal(t, TextControl("  Padded  "), inputs[0].Value)
	require.Equal(t, DropdownControl("10 minutes"), inputs[1].Value)
	require.Equal(t, CheckboxControl(true), inputs[2].Value)
	require.Equal(t, MultiSelectControl("Linux servers", "Zabbix servers"), inputs[3].Value)
	require.Equal(t, RadioControl("Separated"), inputs[4].Value)
	require.Equal(t, TagTableControl(
		TagFilter{Tag: "service", Operator: TagOperatorEquals, Value: "mysql"},
		TagFilter{Tag: "env", Operator: TagOperatorContains},
	), inputs[5].Value)
}

func TestControlValueRejectsUnknownKind(t *testing.T) {
	var inputs FieldInputs
	decodeErr := yaml.Unmarshal([]byte("Name:\n  slider: 3\n"), &inputs)
	require.ErrorIs(t, decodeErr, ErrUnsupportedControlValue)
}

func TestControlValueRejectsUnknownOperator(t *testing.T) {
	var inputs FieldInputs
	decodeErr := yaml.Unmarshal([]byte("Tags:\n  tags:\n    - tag: a\n      operator: Resembles\n"), &inputs)
	require.ErrorIs(t, decodeErr, ErrUnknownTagOperator)
}

func TestControlValueEqual(t *testing.T) {
	testCases := []struct {
		name     string
		left     ControlValue
		right    ControlValue
		expected bool
	}{
		{name: "same text", left: TextControl("a"), right: TextControl("a"), expected: true},
		{name: "different kind", left: TextControl("a"), right: DropdownControl("a"), expected: false},
		{name: "multiselect ignores order", left: MultiSelectControl("b", "a"), right: MultiSelectControl("a", "b"), expected: true},
		{name: "multiselect differs", left: MultiSelectControl("a"), right: MultiSelectControl("a", "b"), expected: false},
		{name: "tags keep order", left: TagTableControl(TagFilter{Tag: "a"}, TagFilter{Tag: "b"}), right: TagTableControl(TagFilter{Tag: "b"}, TagFilter{Tag: "a"}), expected: false},
		{name: "checkbox", left: CheckboxControl(false), right: CheckboxControl(false), expected: true},
	}

	for _, testCase := range testCases {
		testCase := testCase
		t.Run(testCase.name, func(testingT *testing.T) {
			require.Equal(testingT, testCase.expected, testCase.left.Equal(testCase.right))
		})
	}
}

func TestControlValueTrimmed(t *testing.T) {
	trimmed := TagTableControl(TagFilter{Tag: " service ", Operator: TagOperatorEquals, Value: " db "}).Trimmed()
	require.Equal(t, TagFilter{Tag: "service", Operator: TagOperatorEquals, Value: "db"}, trimmed.Tags[0])

	require.Equal(t, TextControl("name"), TextControl("  name\t").Trimmed())
	require.Equal(t, MultiSelectControl("a", "b"), MultiSelectControl(" a", "b ").Trimmed())
}

func TestFieldInputsWithReplacesInPlace(t *testing.T) {
	inputs := FieldInputs{{Label: "Name", Value: TextControl("a")}, {Label: "URL", Value: TextControl("b")}}

	updated := inputs.With("Name", TextControl("c"))
	require.Equal(t, "Name", updated[0].Label)
	require.Equal(t, TextControl("c"), updated[0].Value)
	require.Equal(t, TextControl("a"), inputs[0].Value)

	appended := inputs.With("Tags", TagTableControl())
	require.Len(t, appended, 3)
	value, found := appended.Lookup("Tags")
	require.True(t, found)
	require.Equal(t, ControlKindTagTable, value.Kind)
}

func TestParseTagOperatorDefaultsToContains(t *testing.T) {
	operator, parseErr := ParseTagOperator("")
	require.NoError(t, parseErr)
	require.Equal(t, TagOperatorContains, operator)

	operator, parseErr = ParseTagOperator("does not exist")
	require.NoError(t, parseErr)
	require.Equal(t, TagOperatorNotExists, operator)
}
