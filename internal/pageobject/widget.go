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

// ErrWidgetNotRendered indicates a widget without a layout box.
var ErrWidgetNotRendered = errors.New("pageobject: widget is not rendered")

// Widget is a widget on the open dashboard. It implements scenario.Widget.
type Widget struct {
	dashboard *Dashboard
	locator   browser.Locator
	header    string
}

func (widget *Widget) Header() string {
	return widget.header
}

func (widget *Widget) Geometry(ctx context.Context) (model.Geometry, error) {
	var bounds Bounds
	if evaluateErr := widget.dashboard.page.Evaluate(ctx, boundsScript(widget.locator.Expression), &bounds); evaluateErr != nil {
		return model.Geometry{}, evaluateErr
	}
	if bounds.GridWidth <= 0 || bounds.Width <= 0 {
		return model.Geometry{}, fmt.Errorf("%w: %q", ErrWidgetNotRendered, widget.header)
	}
	return GeometryFromBounds(bounds, widget.dashboard.config.RowHeight), nil
}

func (widget *Widget) Edit(ctx context.Context) (scenario.Form, error) {
	widget.dashboard.logAction("edit_widget", zap.String(logFieldWidget, widget.header))
	if clickErr := widget.dashboard.clickHidden(ctx, within(widget.locator, widgetEditRelativeXPath)); clickErr != nil {
		return nil, clickErr
	}
	return widget.dashboard.openedForm(ctx, false)
}

func (widget *Widget) chooseAction(ctx context.Context, item string) error {
	widget.dashboard.logAction(item, zap.String(logFieldWidget, widget.header))
	if clickErr := widget.dashboard.clickHidden(ctx, within(widget.locator, widgetActionRelativeXPath)); clickErr != nil {
		return clickErr
	}
	itemLocator := menuItem(item)
	if waitErr := widget.dashboard.page.WaitVisible(ctx, itemLocator); waitErr != nil {
		return waitErr
	}
	if clickErr := widget.dashboard.page.Click(ctx, itemLocator); clickErr != nil {
		return clickErr
	}
	return widget.dashboard.page.WaitNotPresent(ctx, browser.CSS(selectorMenuPopup))
}

func (widget *Widget) Copy(ctx context.Context) error {
	return widget.chooseAction(ctx, menuItemCopy)
}

func (widget *Widget) Paste(ctx context.Context) error {
	return widget.chooseAction(ctx, menuItemPaste)
}

func (widget *Widget) Delete(ctx context.Context) error {
	widgets := browser.XPath(widgetXPath)
	before, countErr := widget.dashboard.page.Count(ctx, widgets)
	if countErr != nil {
		return countErr
	}
	if actionErr := widget.chooseAction(ctx, menuItemDelete); actionErr != nil {
		return actionErr
	}
	return widget.dashboard.barrier.forCount(ctx, widgets, before-1)
}

func (widget *Widget) Table(ctx context.Context) (model.RenderedTable, error) {
	html, htmlErr := widget.dashboard.page.OuterHTML(ctx, within(widget.locator, widgetContentsRelativeXPath))
	if htmlErr != nil {
		return model.RenderedTable{}, htmlErr
	}
	return ParseTable(html)
}

func (widget *Widget) Screenshot(ctx context.Context) ([]byte, error) {
	return widget.dashboard.page.Screenshot(ctx, widget.locator)
}
