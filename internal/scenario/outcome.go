package scenario

import (
	"strings"

	"github.com/MarkoPoloResearchLab/dashcheck/internal/model"
)

// Outcome is the observed result of submitting a form or saving a dashboard.
type Outcome struct {
	Class    model.OutcomeClass
	Title    string
	Messages []string
	// Message is the banner as rendered, when there was one.
	Message *model.Message
}

func outcomeFromResult(result SubmitResult) Outcome {
	outcome := Outcome{Class: model.OutcomeSuccess}
	if !result.Accepted {
		outcome.Class = model.OutcomeFailure
	}
	if result.Message != nil {
		outcome.Message = result.Message
		outcome.Title = strings.TrimSpace(result.Message.Title)
		outcome.Messages = append(outcome.Messages, result.Message.Details...)
		if result.Message.Kind == model.MessageKindBad {
			outcome.Class = model.OutcomeFailure
		}
	}
	return outcome
}
