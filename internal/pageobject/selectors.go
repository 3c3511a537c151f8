package pageobject

import (
	"fmt"
	"strings"

	"github.com/MarkoPoloResearchLab/dashcheck/internal/browser"
)

const (
	dashboardViewPathFormat         = "zabbix.php?action=dashboard.view&dashboardid=%s"
	templateDashboardEditPathFormat = "zabbix.php?action=template.dashboard.edit&dashboardid=%s"

	selectorDashboardGrid       = "div.dashboard-grid"
	selectorEditButton          = "button#dashboard-edit"
	selectorSaveButton          = "button#dashboard-save"
	selectorCancelButton        = "#dashboard-cancel"
	selectorAddWidgetButton     = "button#dashboard-add-widget"
	selectorAddMenuButton       = "button#dashboard-add"
	selectorMenuPopup           = "ul.menu-popup"
	selectorGlobalMessage       = "main output.msg-good, main output.msg-bad, main output.msg-warning"
	selectorWidgetDialogue      = "div.overlay-dialogue.modal[data-dialogueid=\"widget_form\"]"
	selectorWidgetForm          = "form#widget-dialogue-form"
	selectorDialogueSubmit      = "div.overlay-dialogue-footer button.dialogue-widget-save"
	selectorDialogueCancel      = "div.overlay-dialogue-footer button.js-cancel"
	selectorDialogueMessage     = "div.overlay-dialogue output.msg-bad"
	widgetXPath                 = "//div[contains(concat(' ', normalize-space(@class), ' '), ' dashboard-grid-widget ')]"
	widgetHeaderRelativeXPath   = ".//div[contains(@class, 'dashboard-grid-widget-header')]//h4"
	widgetContentsRelativeXPath = "//div[contains(@class, 'dashboard-grid-widget-contents')]"
	widgetActionRelativeXPath   = "//button[contains(@class, 'js-widget-action')]"
	widgetEditRelativeXPath     = "//button[contains(@class, 'js-widget-edit')]"
	formXPath                   = "//form[@id='widget-dialogue-form']"

	menuItemEdit        = "Edit"
	menuItemCopy        = "Copy"
	menuItemPaste       = "Paste"
	menuItemDelete      = "Delete"
	menuItemPasteWidget = "Paste widget"
	menuItemDisabled    = "menu-popup-item-disabled"
	labelWidgetType     = "Type"
)

// xpathLiteral quotes a string for use inside an XPath expression.
func xpathLiteral(value string) string {
	if !strings.Contains(value, "'") {
		return "'" + value + "'"
	}
	if !strings.Contains(value, "\"") {
		return "\"" + value + "\""
	}
	parts := strings.Split(value, "'")
	quoted := make([]string, 0, len(parts)*2)
	for index, part := range parts {
		if index > 0 {
			quoted = append(quoted, "\"'\"")
		}
		quoted = append(quoted, "'"+part+"'")
	}
	return "concat(" + strings.Join(quoted, ", ") + ")"
}

func widgetByHeader(header string) browser.Locator {
	return browser.XPath(fmt.Sprintf("%s[%s[normalize-space(.)=%s]]", widgetXPath, widgetHeaderRelativeXPath, xpathLiteral(header)))
}

func widgetByIndex(index int) browser.Locator {
	return browser.XPath(fmt.Sprintf("(%s)[%d]", widgetXPath, index+1))
}

func widgetHeaderByIndex(index int) browser.Locator {
	return browser.XPath(fmt.Sprintf("(%s)[%d]/%s", widgetXPath, index+1, strings.TrimPrefix(widgetHeaderRelativeXPath, "./")))
}

func within(parent browser.Locator, relativeXPath string) browser.Locator {
	return browser.XPath(parent.Expression + relativeXPath)
}

func menuItem(label string) browser.Locator {
	return browser.XPath(fmt.Sprintf("//ul[contains(@class, 'menu-popup')]//a[normalize-space(.)=%s]", xpathLiteral(label)))
}

// formField addresses the field container that follows the label in the widget form grid.
func formField(label string) browser.Locator {
	return browser.XPath(fmt.Sprintf("%s//label[normalize-space(.)=%s]/following-sibling::div[contains(@class, 'form-field')][1]", formXPath, xpathLiteral(label)))
}
