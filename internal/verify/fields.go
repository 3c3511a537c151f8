package verify

import (
	"fmt"
	"strings"

	"github.com/MarkoPoloResearchLab/dashcheck/internal/model"
)

// AssertFieldValues compares expected inputs with the observed form. Expected values are trimmed
// the way the application trims text fields; hidden or disabled fields are not compared.
func AssertFieldValues(expected model.FieldInputs, actual model.FieldStates) error {
	var differences []string
	for _, input := range expected {
		state, found := actual.Lookup(input.Label)
		if !found {
			differences = append(differences, fmt.Sprintf("%q: missing", input.Label))
			continue
		}
		if !state.Meaningful() {
			continue
		}
		expectedValue := input.Value.Trimmed()
		if !expectedValue.Equal(state.Value) {
			differences = append(differences, fmt.Sprintf("%q: %s != %s", input.Label, expectedValue, state.Value))
		}
	}
	if len(differences) > 0 {
		return mismatch(checkFieldValues, expected, strings.Join(differences, "; "))
	}
	return nil
}

// AssertHeader compares a widget header with the expected name after trimming.
func AssertHeader(expected string, actual string) error {
	trimmedExpected := strings.TrimSpace(expected)
	if trimmedExpected != actual {
		return mismatch(checkHeader, fmt.Sprintf("%q", trimmedExpected), fmt.Sprintf("%q", actual))
	}
	return nil
}

// AssertSnapshotsEqual compares two widget snapshots over their meaningful fields.
func AssertSnapshotsEqual(expected model.WidgetSnapshot, actual model.WidgetSnapshot, compareGeometry bool) error {
	differences := expected.Diff(actual, compareGeometry)
	if len(differences) > 0 {
		return mismatch(checkSnapshot, expected.Header, strings.Join(differences, "; "))
	}
	return nil
}
