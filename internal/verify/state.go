package verify

import (
	"context"
	"fmt"
	"strings"

	"github.com/MarkoPoloResearchLab/dashcheck/internal/model"
	"github.com/MarkoPoloResearchLab/dashcheck/internal/scenario"
	"github.com/MarkoPoloResearchLab/dashcheck/internal/storage"
)

// RowCounter runs count queries against the application database.
type RowCounter interface {
	CountRows(ctx context.Context, query storage.CountQuery) (int64, error)
}

// AssertConfigurationUnchanged fails when the configuration hash moved.
func AssertConfigurationUnchanged(hashBefore string, hashAfter string) error {
	if hashBefore != hashAfter {
		return mismatch(checkConfigurationHash, hashBefore, hashAfter)
	}
	return nil
}

// AssertConfigurationChanged fails when the configuration hash did not move.
func AssertConfigurationChanged(hashBefore string, hashAfter string) error {
	if hashBefore == hashAfter {
		return mismatch(checkConfigurationChanged, "a different hash than "+hashBefore, hashAfter)
	}
	return nil
}

// AssertRowCount runs the query and compares its count. Query failures are returned as they are.
func AssertRowCount(ctx context.Context, counter RowCounter, query storage.CountQuery, expected int64) error {
	count, countErr := counter.CountRows(ctx, query)
	if countErr != nil {
		return countErr
	}
	if count != expected {
		return mismatch(checkRowCount+" of "+query.Description, expected, count)
	}
	return nil
}

// AssertPasteAvailable compares whether the application offered to paste a copied widget.
func AssertPasteAvailable(expected bool, actual bool) error {
	if expected != actual {
		return mismatch(checkPasteAvailable, expected, actual)
	}
	return nil
}

// AssertOutcome compares a submit outcome with the expected class and error messages. Every
// expected message must be reported; the application may report more.
func AssertOutcome(expectedClass model.OutcomeClass, expectedErrors []string, actual scenario.Outcome) error {
	if actual.Class != expectedClass {
		return mismatch(checkOutcome, expectedClass, fmt.Sprintf("%s %q %q", actual.Class, actual.Title, actual.Messages))
	}
	var missing []string
	for _, expectedError := range expectedErrors {
		if !containsString(actual.Messages, expectedError) {
			missing = append(missing, expectedError)
		}
	}
	if len(missing) > 0 {
		return mismatch(checkErrors, fmt.Sprintf("%q", missing), fmt.Sprintf("%q", actual.Messages))
	}
	return nil
}

// AssertMessage compares a notification banner. Details are compared in order when given.
func AssertMessage(expected model.ExpectedMessage, actual *model.Message) error {
	if actual == nil {
		return mismatch(checkMessage, describeExpectedMessage(expected), "no message")
	}
	if actual.Kind != expected.Kind || strings.TrimSpace(actual.Title) != strings.TrimSpace(expected.Title) {
		return mismatch(checkMessage, describeExpectedMessage(expected), describeMessage(*actual))
	}
	if len(expected.Details) == 0 {
		return nil
	}
	if len(expected.Details) != len(actual.Details) {
		return mismatch(checkMessage, describeExpectedMessage(expected), describeMessage(*actual))
	}
	for index, detail := range expected.Details {
		if strings.TrimSpace(actual.Details[index]) != strings.TrimSpace(detail) {
			return mismatch(checkMessage, describeExpectedMessage(expected), describeMessage(*actual))
		}
	}
	return nil
}

func describeExpectedMessage(message model.ExpectedMessage) string {
	return describeMessage(model.Message{Kind: message.Kind, Title: message.Title, Details: message.Details})
}

func describeMessage(message model.Message) string {
	return fmt.Sprintf("%s %q %q", message.Kind, message.Title, message.Details)
}

func containsString(values []string, target string) bool {
	for _, value := range values {
		if value == target {
			return true
		}
	}
	return false
}
