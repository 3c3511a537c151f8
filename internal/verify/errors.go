package verify

import (
	"errors"
	"fmt"
)

const (
	checkFieldValues          = "field values"
	checkConfigurationHash    = "configuration hash"
	checkConfigurationChanged = "configuration changed"
	checkRowCount             = "row count"
	checkTableHeaders         = "table headers"
	checkTableRowCount        = "table row count"
	checkTableRow             = "table row"
	checkMessage              = "message"
	checkHeader               = "header"
	checkSnapshot             = "snapshot"
	checkOutcome              = "outcome"
	checkErrors               = "error messages"
	checkLuminanceVariance    = "luminance variance"
	checkColorPresence        = "color presence"
	checkPasteAvailable       = "paste available"

	errorMessageAssertionFormat = "verify: %s: expected %s, actual %s"
	errorMessageDecodeImage     = "verify: decode screenshot"
	errorMessageEmptyRegion     = "verify: screenshot region is empty"
	errorMessageInvalidColor    = "verify: invalid rgb color"
)

var (
	// ErrEmptyRegion indicates a screenshot region that does not overlap the image.
	ErrEmptyRegion = errors.New(errorMessageEmptyRegion)
	// ErrInvalidColor indicates a color that is not in rgb(r, g, b) form.
	ErrInvalidColor = errors.New(errorMessageInvalidColor)
)

// AssertionError is an expectation mismatch. It fails one scenario.
type AssertionError struct {
	Check    string
	Expected string
	Actual   string
}

func (assertionError *AssertionError) Error() string {
	return fmt.Sprintf(errorMessageAssertionFormat, assertionError.Check, assertionError.Expected, assertionError.Actual)
}

func mismatch(check string, expected interface{}, actual interface{}) *AssertionError {
	return &AssertionError{Check: check, Expected: fmt.Sprint(expected), Actual: fmt.Sprint(actual)}
}

// IsAssertion reports whether err is an expectation mismatch rather than a harness failure.
func IsAssertion(err error) bool {
	var assertionError *AssertionError
	return errors.As(err, &assertionError)
}
