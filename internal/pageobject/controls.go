package pageobject

import (
	"context"
	"errors"
	"fmt"

	"github.com/MarkoPoloResearchLab/dashcheck/internal/browser"
	"github.com/MarkoPoloResearchLab/dashcheck/internal/model"
)

var (
	// ErrFieldNotFound indicates the form shows no field with the label.
	ErrFieldNotFound = errors.New("pageobject: form field not found")
	// ErrControlMismatch indicates a value typed for a control the field does not render.
	ErrControlMismatch = errors.New("pageobject: field does not render the control")
	// ErrUnsupportedControl indicates a value kind without a registered control.
	ErrUnsupportedControl = errors.New("pageobject: unsupported control kind")
)

const (
	textSignature        = "//*[self::input[not(@type) or @type='text' or @type='number'] or self::textarea]"
	checkboxSignature    = "//input[@type='checkbox']"
	radioSignature       = "//ul[contains(@class, 'radio-list-control')]"
	dropdownSignature    = "//z-select"
	multiSelectSignature = "//div[contains(@class, 'multiselect')]"
	tagTableSignature    = "//table[starts-with(@id, 'tags_table')]"

	multiSelectRemoveRelative = "//ul[contains(@class, 'multiselect-list')]//button[contains(@class, 'btn-icon')]"
	multiSelectInputRelative  = "//div[contains(@class, 'multiselect')]//input[@type='text']"
	multiSelectSuggestFormat  = "//div[contains(@class, 'multiselect-suggest')]//li[@data-label=%s]"
	tagRowsRelative           = "//table[starts-with(@id, 'tags_table')]//tr[contains(@class, 'form_row')]"
	tagRemoveRelative         = "//table[starts-with(@id, 'tags_table')]//button[contains(@class, 'element-table-remove')]"
	tagAddRelative            = "//table[starts-with(@id, 'tags_table')]//button[contains(@class, 'element-table-add')]"
	tagNameRelative           = "//input[contains(@id, '_tag')]"
	tagOperatorRelative       = "//z-select[contains(@id, '_operator')]"
	tagValueRelative          = "//input[contains(@id, '_value')]"
)

// Control applies typed values to one control variant of the widget form. Signature is the XPath,
// relative to the field container, of the element the variant renders.
type Control interface {
	Kind() model.ControlKind
	Signature() string
	Apply(ctx context.Context, page browser.Page, field browser.Locator, value model.ControlValue) error
}

// DefaultControls returns the control variants of the widget configuration form.
func DefaultControls() map[model.ControlKind]Control {
	controls := []Control{
		textControl{},
		checkboxControl{},
		segmentedRadioControl{},
		dropdownControl{},
		multiSelectControl{},
		tagTableControl{},
	}
	registry := make(map[model.ControlKind]Control, len(controls))
	for _, control := range controls {
		registry[control.Kind()] = control
	}
	return registry
}

func first(field browser.Locator, relativeXPath string) browser.Locator {
	return browser.XPath(fmt.Sprintf("(%s%s)[1]", field.Expression, relativeXPath))
}

type textControl struct{}

func (textControl) Kind() model.ControlKind { return model.ControlKindText }

func (textControl) Signature() string { return textSignature }

func (textControl) Apply(ctx context.Context, page browser.Page, field browser.Locator, value model.ControlValue) error {
	return page.SetValue(ctx, first(field, textSignature), value.Text)
}

type checkboxControl struct{}

func (checkboxControl) Kind() model.ControlKind { return model.ControlKindCheckbox }

func (checkboxControl) Signature() string { return checkboxSignature }

func (checkboxControl) Apply(ctx context.Context, page browser.Page, field browser.Locator, value model.ControlValue) error {
	input := first(field, checkboxSignature)
	var checked bool
	if evaluateErr := page.Evaluate(ctx, checkedScript(input.Expression), &checked); evaluateErr != nil {
		return evaluateErr
	}
	if checked == value.Checked {
		return nil
	}
	return page.Click(ctx, first(field, checkboxSignature+"/following-sibling::label"))
}

type segmentedRadioControl struct{}

func (segmentedRadioControl) Kind() model.ControlKind { return model.ControlKindSegmentedRadio }

func (segmentedRadioControl) Signature() string { return radioSignature }

func (segmentedRadioControl) Apply(ctx context.Context, page browser.Page, field browser.Locator, value model.ControlValue) error {
	return page.Click(ctx, first(field, fmt.Sprintf("%s//label[normalize-space(.)=%s]", radioSignature, xpathLiteral(value.Text))))
}

type dropdownControl struct{}

func (dropdownControl) Kind() model.ControlKind { return model.ControlKindDropdown }

func (dropdownControl) Signature() string { return dropdownSignature }

func (dropdownControl) Apply(ctx context.Context, page browser.Page, field browser.Locator, value model.ControlValue) error {
	return selectOption(ctx, page, first(field, dropdownSignature), value.Text)
}

// selectOption opens a z-select and picks the option with the label.
func selectOption(ctx context.Context, page browser.Page, selectLocator browser.Locator, label string) error {
	if clickErr := page.Click(ctx, browser.XPath(selectLocator.Expression+"/button")); clickErr != nil {
		return clickErr
	}
	option := browser.XPath(fmt.Sprintf("%s//li[normalize-space(.)=%s]", selectLocator.Expression, xpathLiteral(label)))
	if waitErr := page.WaitVisible(ctx, option); waitErr != nil {
		return waitErr
	}
	return page.Click(ctx, option)
}

type multiSelectControl struct{}

func (multiSelectControl) Kind() model.ControlKind { return model.ControlKindMultiSelect }

func (multiSelectControl) Signature() string { return multiSelectSignature }

// Apply replaces the selection: existing items are removed, then each item is typed and picked
// from the suggestion list.
func (multiSelectControl) Apply(ctx context.Context, page browser.Page, field browser.Locator, value model.ControlValue) error {
	if clearErr := clickAll(ctx, page, field, multiSelectRemoveRelative); clearErr != nil {
		return clearErr
	}
	input := first(field, multiSelectInputRelative)
	for _, item := range value.Items {
		if setErr := page.SetValue(ctx, input, item); setErr != nil {
			return setErr
		}
		suggestion := browser.XPath(fmt.Sprintf(multiSelectSuggestFormat, xpathLiteral(item)))
		if waitErr := page.WaitVisible(ctx, suggestion); waitErr != nil {
			return waitErr
		}
		if clickErr := page.Click(ctx, suggestion); clickErr != nil {
			return clickErr
		}
	}
	return nil
}

// clickAll clicks the first match of relativeXPath once per match present when called.
func clickAll(ctx context.Context, page browser.Page, field browser.Locator, relativeXPath string) error {
	buttons := browser.XPath(field.Expression + relativeXPath)
	count, countErr := page.Count(ctx, buttons)
	if countErr != nil {
		return countErr
	}
	for index := 0; index < count; index++ {
		if clickErr := page.Click(ctx, first(field, relativeXPath)); clickErr != nil {
			return clickErr
		}
	}
	return nil
}

type tagTableControl struct{}

func (tagTableControl) Kind() model.ControlKind { return model.ControlKindTagTable }

func (tagTableControl) Signature() string { return tagTableSignature }

// Apply rewrites the tag table row by row. Value inputs of Exists and Does not exist rows are
// disabled by the application and left untouched.
func (tagTableControl) Apply(ctx context.Context, page browser.Page, field browser.Locator, value model.ControlValue) error {
	if clearErr := clickAll(ctx, page, field, tagRemoveRelative); clearErr != nil {
		return clearErr
	}
	for index, tag := range value.Tags {
		if addErr := page.Click(ctx, first(field, tagAddRelative)); addErr != nil {
			return addErr
		}
		row := fmt.Sprintf("(%s%s)[%d]", field.Expression, tagRowsRelative, index+1)
		if setErr := page.SetValue(ctx, browser.XPath(row+tagNameRelative), tag.Tag); setErr != nil {
			return setErr
		}
		if selectErr := selectOption(ctx, page, browser.XPath(row+tagOperatorRelative), tag.Operator.Label()); selectErr != nil {
			return selectErr
		}
		if tag.Operator == model.TagOperatorExists || tag.Operator == model.TagOperatorNotExists {
			continue
		}
		if setErr := page.SetValue(ctx, browser.XPath(row+tagValueRelative), tag.Value); setErr != nil {
			return setErr
		}
	}
	return nil
}
