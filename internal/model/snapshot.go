package model

import (
	"fmt"
	"time"
)

// FieldState is the observed state of one form field.
type FieldState struct {
	Label   string       `json:"label"`
	Value   ControlValue `json:"value"`
	Visible bool         `json:"visible"`
	Enabled bool         `json:"enabled"`
}

// Meaningful reports whether the field carries a value worth comparing. Hidden or disabled fields
// keep stale values the application ignores.
func (state FieldState) Meaningful() bool {
	return state.Visible && state.Enabled
}

// FieldStates is the observed state of a whole form in document order.
type FieldStates []FieldState

// Lookup returns the state of the field with the given label.
func (states FieldStates) Lookup(label string) (FieldState, bool) {
	for _, state := range states {
		if state.Label == label {
			return state, true
		}
	}
	return FieldState{}, false
}

// Projection returns the meaningful fields as inputs.
func (states FieldStates) Projection() FieldInputs {
	projection := make(FieldInputs, 0, len(states))
	for _, state := range states {
		if !state.Meaningful() {
			continue
		}
		projection = append(projection, FieldInput{Label: state.Label, Value: state.Value})
	}
	return projection
}

// WidgetSnapshot is a widget's configuration and geometry captured at one point in time.
type WidgetSnapshot struct {
	Type       WidgetType  `json:"type"`
	Header     string      `json:"header"`
	Fields     FieldStates `json:"fields"`
	Geometry   Geometry    `json:"geometry"`
	CapturedAt time.Time   `json:"captured_at"`
}

// Diff lists the differences between two snapshots; an empty result means they are equal.
// Geometry is compared only when compareGeometry is set.
func (snapshot WidgetSnapshot) Diff(other WidgetSnapshot, compareGeometry bool) []string {
	var differences []string
	if snapshot.Type != other.Type {
		differences = append(differences, fmt.Sprintf("type: %s != %s", snapshot.Type, other.Type))
	}
	if snapshot.Header != other.Header {
		differences = append(differences, fmt.Sprintf("header: %q != %q", snapshot.Header, other.Header))
	}
	if compareGeometry && snapshot.Geometry != other.Geometry {
		differences = append(differences, fmt.Sprintf("geometry: %s != %s", snapshot.Geometry, other.Geometry))
	}
	leftProjection := snapshot.Fields.Projection()
	rightProjection := other.Fields.Projection()
	for _, leftInput := range leftProjection {
		rightValue, found := rightProjection.Lookup(leftInput.Label)
		if !found {
			differences = append(differences, fmt.Sprintf("field %q: missing", leftInput.Label))
			continue
		}
		if !leftInput.Value.Equal(rightValue) {
			differences = append(differences, fmt.Sprintf("field %q: %s != %s", leftInput.Label, leftInput.Value, rightValue))
		}
	}
	for _, rightInput := range rightProjection {
		if _, found := leftProjection.Lookup(rightInput.Label); !found {
			differences = append(differences, fmt.Sprintf("field %q: unexpected", rightInput.Label))
		}
	}
	return differences
}
