package browser

import "github.com/chromedp/chromedp"

// Locator addresses elements by CSS selector or XPath expression.
type Locator struct {
	Expression string
	XPath      bool
}

// CSS builds a CSS selector locator.
func CSS(selector string) Locator {
	return Locator{Expression: selector}
}

// XPath builds an XPath locator.
func XPath(expression string) Locator {
	return Locator{Expression: expression, XPath: true}
}

func (locator Locator) String() string {
	if locator.XPath {
		return "xpath=" + locator.Expression
	}
	return "css=" + locator.Expression
}

func (locator Locator) queryOption() chromedp.QueryOption {
	if locator.XPath {
		return chromedp.BySearch
	}
	return chromedp.ByQuery
}

func (locator Locator) queryAllOption() chromedp.QueryOption {
	if locator.XPath {
		return chromedp.BySearch
	}
	return chromedp.ByQueryAll
}
