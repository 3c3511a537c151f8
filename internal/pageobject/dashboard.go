package pageobject

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/MarkoPoloResearchLab/dashcheck/internal/browser"
	"github.com/MarkoPoloResearchLab/dashcheck/internal/model"
	"github.com/MarkoPoloResearchLab/dashcheck/internal/scenario"
)

const (
	defaultPollInterval = 100 * time.Millisecond
	defaultWaitTimeout  = 10 * time.Second
	defaultRowHeight    = 70

	logEventPageAction = "page_action"
	logFieldAction     = "action"
	logFieldView       = "view"
	logFieldWidget     = "widget"
	logFieldURL        = "url"
)

var (
	ErrMissingPage        = errors.New("pageobject: missing browser page")
	ErrMissingBaseURL     = errors.New("pageobject: missing application base url")
	ErrMissingDashboardID = errors.New("pageobject: view has no dashboard id")
	ErrUnknownViewKind    = errors.New("pageobject: unknown view kind")
	ErrElementNotFound    = errors.New("pageobject: element not found")
)

// Config holds the application address and the wait barrier timing.
type Config struct {
	BaseURL      string
	PollInterval time.Duration
	WaitTimeout  time.Duration
	// RowHeight is the pixel height of one dashboard grid row.
	RowHeight float64
	Controls  map[model.ControlKind]Control
}

// Dashboard drives the dashboard page of the application. It implements scenario.Dashboard.
type Dashboard struct {
	page     browser.Page
	config   Config
	barrier  waiter
	logger   *zap.Logger
	view     scenario.View
	viewPath string
}

// NewDashboard creates the dashboard page object; zero timings take defaults.
func NewDashboard(page browser.Page, config Config, logger *zap.Logger) (*Dashboard, error) {
	if page == nil {
		return nil, ErrMissingPage
	}
	config.BaseURL = strings.TrimRight(strings.TrimSpace(config.BaseURL), "/")
	if config.BaseURL == "" {
		return nil, ErrMissingBaseURL
	}
	if config.PollInterval <= 0 {
		config.PollInterval = defaultPollInterval
	}
	if config.WaitTimeout <= 0 {
		config.WaitTimeout = defaultWaitTimeout
	}
	if config.RowHeight <= 0 {
		config.RowHeight = defaultRowHeight
	}
	if config.Controls == nil {
		config.Controls = DefaultControls()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Dashboard{
		page:    page,
		config:  config,
		barrier: waiter{page: page, interval: config.PollInterval, timeout: config.WaitTimeout},
		logger:  logger,
	}, nil
}

// ViewURL returns the address a view is opened at.
func (dashboard *Dashboard) ViewURL(view scenario.View) (string, error) {
	if strings.TrimSpace(view.DashboardID) == "" {
		return "", fmt.Errorf("%w: %q", ErrMissingDashboardID, view.Name)
	}
	var pathFormat string
	switch view.Kind {
	case scenario.ViewKindDashboard:
		pathFormat = dashboardViewPathFormat
	case scenario.ViewKindTemplateDashboard:
		pathFormat = templateDashboardEditPathFormat
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownViewKind, view.Kind)
	}
	return dashboard.config.BaseURL + "/" + fmt.Sprintf(pathFormat, url.QueryEscape(view.DashboardID)), nil
}

func (dashboard *Dashboard) logAction(action string, fields ...zap.Field) {
	fields = append([]zap.Field{zap.String(logFieldAction, action), zap.String(logFieldView, dashboard.view.Name)}, fields...)
	dashboard.logger.Debug(logEventPageAction, fields...)
}

func (dashboard *Dashboard) isTemplateView() bool {
	return dashboard.view.Kind == scenario.ViewKindTemplateDashboard
}

func (dashboard *Dashboard) Open(ctx context.Context, view scenario.View) error {
	viewURL, urlErr := dashboard.ViewURL(view)
	if urlErr != nil {
		return urlErr
	}
	if navigateErr := dashboard.page.Navigate(ctx, viewURL); navigateErr != nil {
		return navigateErr
	}
	if waitErr := dashboard.page.WaitVisible(ctx, browser.CSS(selectorDashboardGrid)); waitErr != nil {
		return waitErr
	}
	dashboard.view = view
	dashboard.logAction("open", zap.String(logFieldURL, viewURL))
	return nil
}

// Edit enters edit mode. Template dashboards open in edit mode already.
func (dashboard *Dashboard) Edit(ctx context.Context) error {
	dashboard.logAction("edit")
	if dashboard.isTemplateView() {
		return nil
	}
	if clickErr := dashboard.page.Click(ctx, browser.CSS(selectorEditButton)); clickErr != nil {
		return clickErr
	}
	return dashboard.page.WaitVisible(ctx, browser.CSS(selectorSaveButton))
}

// Save submits the edit session. The result is accepted once the page leaves edit mode and
// rejected when an error banner appears instead.
func (dashboard *Dashboard) Save(ctx context.Context) (scenario.SubmitResult, error) {
	dashboard.logAction("save")
	if clickErr := dashboard.page.Click(ctx, browser.CSS(selectorSaveButton)); clickErr != nil {
		return scenario.SubmitResult{}, clickErr
	}
	accepted := false
	waitErr := dashboard.barrier.until(ctx, "dashboard save", func(ctx context.Context) (bool, error) {
		saveButtons, countErr := dashboard.page.Count(ctx, browser.CSS(selectorSaveButton))
		if countErr != nil {
			return false, countErr
		}
		if saveButtons == 0 {
			accepted = true
			return true, nil
		}
		badMessages, countErr := dashboard.page.Count(ctx, browser.CSS("main output.msg-bad"))
		return badMessages > 0, countErr
	})
	if waitErr != nil {
		return scenario.SubmitResult{}, waitErr
	}
	message, messageErr := dashboard.Message(ctx)
	if messageErr != nil {
		return scenario.SubmitResult{}, messageErr
	}
	if accepted && dashboard.isTemplateView() {
		if reopenErr := dashboard.Open(ctx, dashboard.view); reopenErr != nil {
			return scenario.SubmitResult{}, reopenErr
		}
	}
	return scenario.SubmitResult{Accepted: accepted, Message: message}, nil
}

// Cancel discards the edit session. Cancelling a template dashboard leaves the page, so the
// view is opened again.
func (dashboard *Dashboard) Cancel(ctx context.Context) error {
	dashboard.logAction("cancel")
	if clickErr := dashboard.page.Click(ctx, browser.CSS(selectorCancelButton)); clickErr != nil {
		return clickErr
	}
	if dashboard.isTemplateView() {
		return dashboard.Open(ctx, dashboard.view)
	}
	return dashboard.page.WaitNotPresent(ctx, browser.CSS(selectorSaveButton))
}

func (dashboard *Dashboard) Widgets(ctx context.Context) ([]scenario.Widget, error) {
	count, countErr := dashboard.page.Count(ctx, browser.XPath(widgetXPath))
	if countErr != nil {
		return nil, countErr
	}
	widgets := make([]scenario.Widget, 0, count)
	for index := 0; index < count; index++ {
		header, headerErr := dashboard.page.Text(ctx, widgetHeaderByIndex(index))
		if headerErr != nil {
			return nil, headerErr
		}
		widgets = append(widgets, &Widget{dashboard: dashboard, locator: widgetByIndex(index), header: strings.TrimSpace(header)})
	}
	return widgets, nil
}

func (dashboard *Dashboard) FindWidget(ctx context.Context, header string) (scenario.Widget, bool, error) {
	locator := widgetByHeader(header)
	count, countErr := dashboard.page.Count(ctx, locator)
	if countErr != nil || count == 0 {
		return nil, false, countErr
	}
	return &Widget{dashboard: dashboard, locator: browser.XPath("(" + locator.Expression + ")[1]"), header: header}, true, nil
}

func (dashboard *Dashboard) AddWidget(ctx context.Context) (scenario.Form, error) {
	dashboard.logAction("add_widget")
	if clickErr := dashboard.page.Click(ctx, browser.CSS(selectorAddWidgetButton)); clickErr != nil {
		return nil, clickErr
	}
	return dashboard.openedForm(ctx, true)
}

func (dashboard *Dashboard) openedForm(ctx context.Context, isNew bool) (*Form, error) {
	if waitErr := dashboard.page.WaitVisible(ctx, browser.CSS(selectorWidgetForm)); waitErr != nil {
		return nil, waitErr
	}
	if settleErr := dashboard.barrier.formSettled(ctx); settleErr != nil {
		return nil, settleErr
	}
	return &Form{dashboard: dashboard, isNew: isNew}, nil
}

// PasteAvailable opens the add menu, reads whether "Paste widget" is enabled and closes the menu.
func (dashboard *Dashboard) PasteAvailable(ctx context.Context) (bool, error) {
	if openErr := dashboard.openAddMenu(ctx); openErr != nil {
		return false, openErr
	}
	class, present, attributeErr := dashboard.page.Attribute(ctx, menuItem(menuItemPasteWidget), "class")
	if attributeErr != nil {
		return false, attributeErr
	}
	if closeErr := dashboard.closeAddMenu(ctx); closeErr != nil {
		return false, closeErr
	}
	return present && !containsClass(class, menuItemDisabled), nil
}

func (dashboard *Dashboard) openAddMenu(ctx context.Context) error {
	if clickErr := dashboard.page.Click(ctx, browser.CSS(selectorAddMenuButton)); clickErr != nil {
		return clickErr
	}
	return dashboard.page.WaitVisible(ctx, browser.CSS(selectorMenuPopup))
}

func (dashboard *Dashboard) closeAddMenu(ctx context.Context) error {
	if clickErr := dashboard.page.Click(ctx, browser.CSS(selectorAddMenuButton)); clickErr != nil {
		return clickErr
	}
	return dashboard.page.WaitNotPresent(ctx, browser.CSS(selectorMenuPopup))
}

func (dashboard *Dashboard) PasteWidget(ctx context.Context) error {
	dashboard.logAction("paste_widget")
	widgets := browser.XPath(widgetXPath)
	before, countErr := dashboard.page.Count(ctx, widgets)
	if countErr != nil {
		return countErr
	}
	if openErr := dashboard.openAddMenu(ctx); openErr != nil {
		return openErr
	}
	if clickErr := dashboard.page.Click(ctx, menuItem(menuItemPasteWidget)); clickErr != nil {
		return clickErr
	}
	return dashboard.barrier.forCount(ctx, widgets, before+1)
}

func (dashboard *Dashboard) Message(ctx context.Context) (*model.Message, error) {
	locator := browser.CSS(selectorGlobalMessage)
	count, countErr := dashboard.page.Count(ctx, locator)
	if countErr != nil || count == 0 {
		return nil, countErr
	}
	html, htmlErr := dashboard.page.OuterHTML(ctx, locator)
	if htmlErr != nil {
		return nil, htmlErr
	}
	return ParseMessage(html)
}

// clickHidden clicks an element shown only on hover.
func (dashboard *Dashboard) clickHidden(ctx context.Context, locator browser.Locator) error {
	var clicked bool
	if evaluateErr := dashboard.page.Evaluate(ctx, clickScript(locator.Expression), &clicked); evaluateErr != nil {
		return evaluateErr
	}
	if !clicked {
		return fmt.Errorf("%w: %s", ErrElementNotFound, locator)
	}
	return nil
}

func containsClass(classList string, class string) bool {
	for _, candidate := range strings.Fields(classList) {
		if candidate == class {
			return true
		}
	}
	return false
}
