package pageobject

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/MarkoPoloResearchLab/dashcheck/internal/browser"
	"github.com/MarkoPoloResearchLab/dashcheck/internal/model"
	"github.com/MarkoPoloResearchLab/dashcheck/internal/scenario"
)

const logFieldLabel = "label"

// ErrTypeNotSelectable indicates a type change on the form of an existing widget.
var ErrTypeNotSelectable = errors.New("pageobject: widget type can only be selected on a new widget")

type formTagState struct {
	Tag      string `json:"tag"`
	Operator string `json:"operator"`
	Value    string `json:"value"`
}

type formFieldState struct {
	Label   string         `json:"label"`
	Kind    string         `json:"kind"`
	Text    string         `json:"text"`
	Checked bool           `json:"checked"`
	Items   []string       `json:"items"`
	Tags    []formTagState `json:"tags"`
	Visible bool           `json:"visible"`
	Enabled bool           `json:"enabled"`
}

func (state formFieldState) fieldState() (model.FieldState, error) {
	fieldState := model.FieldState{Label: state.Label, Visible: state.Visible, Enabled: state.Enabled}
	switch model.ControlKind(state.Kind) {
	case model.ControlKindCheckbox:
		fieldState.Value = model.CheckboxControl(state.Checked)
	case model.ControlKindSegmentedRadio:
		fieldState.Value = model.RadioControl(state.Text)
	case model.ControlKindDropdown:
		fieldState.Value = model.DropdownControl(state.Text)
	case model.ControlKindMultiSelect:
		fieldState.Value = model.MultiSelectControl(state.Items...)
	case model.ControlKindTagTable:
		tags := make([]model.TagFilter, 0, len(state.Tags))
		for _, tag := range state.Tags {
			operator, operatorErr := model.ParseTagOperator(tag.Operator)
			if operatorErr != nil {
				return model.FieldState{}, fmt.Errorf("field %q: %w", state.Label, operatorErr)
			}
			tags = append(tags, model.TagFilter{Tag: tag.Tag, Operator: operator, Value: tag.Value})
		}
		fieldState.Value = model.TagTableControl(tags...)
	case model.ControlKindText:
		fieldState.Value = model.TextControl(state.Text)
	default:
		return model.FieldState{}, fmt.Errorf("%w: field %q renders %q", ErrUnsupportedControl, state.Label, state.Kind)
	}
	return fieldState, nil
}

// Form is the open widget configuration dialogue. It implements scenario.Form.
type Form struct {
	dashboard *Dashboard
	isNew     bool
}

func (form *Form) SelectType(ctx context.Context, widgetType model.WidgetType) error {
	if !form.isNew {
		return ErrTypeNotSelectable
	}
	return form.Fill(ctx, model.FieldInputs{{Label: labelWidgetType, Value: model.DropdownControl(widgetType.DisplayName())}})
}

func (form *Form) Type(ctx context.Context) (model.WidgetType, error) {
	states, statesErr := form.States(ctx)
	if statesErr != nil {
		return "", statesErr
	}
	typeState, found := states.Lookup(labelWidgetType)
	if !found {
		return "", fmt.Errorf("%w: %q", ErrFieldNotFound, labelWidgetType)
	}
	return model.ParseWidgetType(typeState.Value.Text)
}

// Fill applies inputs in order, waiting for the form to settle after each one.
func (form *Form) Fill(ctx context.Context, inputs model.FieldInputs) error {
	page := form.dashboard.page
	for _, input := range inputs {
		control, known := form.dashboard.config.Controls[input.Value.Kind]
		if !known {
			return fmt.Errorf("%w: %q", ErrUnsupportedControl, input.Value.Kind)
		}
		field := formField(input.Label)
		fieldCount, countErr := page.Count(ctx, field)
		if countErr != nil {
			return countErr
		}
		if fieldCount == 0 {
			return fmt.Errorf("%w: %q", ErrFieldNotFound, input.Label)
		}
		signatureCount, countErr := page.Count(ctx, browser.XPath(field.Expression+control.Signature()))
		if countErr != nil {
			return countErr
		}
		if signatureCount == 0 {
			return fmt.Errorf("%w: %q is not a %s", ErrControlMismatch, input.Label, control.Kind())
		}
		form.dashboard.logger.Debug(logEventPageAction, zap.String(logFieldAction, "fill"), zap.String(logFieldLabel, input.Label))
		if applyErr := control.Apply(ctx, page, field, input.Value); applyErr != nil {
			return fmt.Errorf("field %q: %w", input.Label, applyErr)
		}
		if settleErr := form.dashboard.barrier.formSettled(ctx); settleErr != nil {
			return settleErr
		}
	}
	return nil
}

func (form *Form) States(ctx context.Context) (model.FieldStates, error) {
	var rawStates []formFieldState
	if evaluateErr := form.dashboard.page.Evaluate(ctx, formStateScript, &rawStates); evaluateErr != nil {
		return nil, evaluateErr
	}
	states := make(model.FieldStates, 0, len(rawStates))
	for _, rawState := range rawStates {
		state, stateErr := rawState.fieldState()
		if stateErr != nil {
			return nil, stateErr
		}
		states = append(states, state)
	}
	return states, nil
}

// Submit presses the dialogue's primary button. The form is accepted when the dialogue closes
// and rejected when it shows an error banner.
func (form *Form) Submit(ctx context.Context) (scenario.SubmitResult, error) {
	page := form.dashboard.page
	form.dashboard.logAction("submit_widget")
	if clickErr := page.Click(ctx, browser.CSS(selectorDialogueSubmit)); clickErr != nil {
		return scenario.SubmitResult{}, clickErr
	}
	accepted := false
	waitErr := form.dashboard.barrier.until(ctx, "widget form submit", func(ctx context.Context) (bool, error) {
		dialogues, countErr := page.Count(ctx, browser.CSS(selectorWidgetDialogue))
		if countErr != nil {
			return false, countErr
		}
		if dialogues == 0 {
			accepted = true
			return true, nil
		}
		messages, countErr := page.Count(ctx, browser.CSS(selectorDialogueMessage))
		return messages > 0, countErr
	})
	if waitErr != nil {
		return scenario.SubmitResult{}, waitErr
	}
	if accepted {
		return scenario.SubmitResult{Accepted: true}, nil
	}
	html, htmlErr := page.OuterHTML(ctx, browser.CSS(selectorDialogueMessage))
	if htmlErr != nil {
		return scenario.SubmitResult{}, htmlErr
	}
	message, parseErr := ParseMessage(html)
	if parseErr != nil {
		return scenario.SubmitResult{}, parseErr
	}
	return scenario.SubmitResult{Accepted: false, Message: message}, nil
}

func (form *Form) Cancel(ctx context.Context) error {
	form.dashboard.logAction("cancel_widget")
	if clickErr := form.dashboard.page.Click(ctx, browser.CSS(selectorDialogueCancel)); clickErr != nil {
		return clickErr
	}
	return form.dashboard.page.WaitNotPresent(ctx, browser.CSS(selectorWidgetDialogue))
}
