package pageobject

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/MarkoPoloResearchLab/dashcheck/internal/browser"
)

// fakePage answers browser queries from canned maps and records every action. Locators without
// a canned count match one element.
type fakePage struct {
	counts     map[string]int
	texts      map[string]string
	outerHTML  map[string]string
	attributes map[string]string
	formStates []formFieldState
	bounds     Bounds
	checked    bool
	actions    []string
}

func newFakePage() *fakePage {
	return &fakePage{
		counts:     map[string]int{},
		texts:      map[string]string{},
		outerHTML:  map[string]string{},
		attributes: map[string]string{},
	}
}

func (page *fakePage) record(action string, locator browser.Locator, extra ...string) {
	page.actions = append(page.actions, strings.Join(append([]string{action, locator.String()}, extra...), " "))
}

func (page *fakePage) Navigate(_ context.Context, url string) error {
	page.actions = append(page.actions, "navigate "+url)
	return nil
}

func (page *fakePage) WaitVisible(_ context.Context, locator browser.Locator) error {
	page.record("wait-visible", locator)
	return nil
}

func (page *fakePage) WaitNotPresent(_ context.Context, locator browser.Locator) error {
	page.record("wait-not-present", locator)
	return nil
}

func (page *fakePage) Click(_ context.Context, locator browser.Locator) error {
	page.record("click", locator)
	return nil
}

func (page *fakePage) SetValue(_ context.Context, locator browser.Locator, value string) error {
	page.record("set", locator, value)
	return nil
}

func (page *fakePage) Text(_ context.Context, locator browser.Locator) (string, error) {
	return page.texts[locator.String()], nil
}

func (page *fakePage) Value(_ context.Context, locator browser.Locator) (string, error) {
	return page.texts[locator.String()], nil
}

func (page *fakePage) Attribute(_ context.Context, locator browser.Locator, name string) (string, bool, error) {
	value, present := page.attributes[locator.String()+"@"+name]
	return value, present, nil
}

func (page *fakePage) OuterHTML(_ context.Context, locator browser.Locator) (string, error) {
	return page.outerHTML[locator.String()], nil
}

func (page *fakePage) Count(_ context.Context, locator browser.Locator) (int, error) {
	count, known := page.counts[locator.String()]
	if !known {
		return 1, nil
	}
	return count, nil
}

func (page *fakePage) Evaluate(_ context.Context, script string, result interface{}) error {
	var value interface{}
	switch {
	case script == formLoadingScript:
		value = false
	case script == formStateScript:
		value = page.formStates
	case strings.Contains(script, "node.checked"):
		value = page.checked
	case strings.Contains(script, "node.click()"):
		value = true
		page.actions = append(page.actions, "script-click")
	case strings.Contains(script, "getBoundingClientRect"):
		value = page.bounds
	}
	encoded, marshalErr := json.Marshal(value)
	if marshalErr != nil {
		return marshalErr
	}
	return json.Unmarshal(encoded, result)
}

func (page *fakePage) Screenshot(_ context.Context, locator browser.Locator) ([]byte, error) {
	page.record("screenshot", locator)
	return []byte("png"), nil
}

func (page *fakePage) FullScreenshot(_ context.Context) ([]byte, error) {
	return []byte("png"), nil
}
