package browser

import "context"

// Page is the set of browser primitives page objects are built on. Every method blocks until the
// browser reports completion or the context ends.
type Page interface {
	Navigate(ctx context.Context, url string) error
	WaitVisible(ctx context.Context, locator Locator) error
	WaitNotPresent(ctx context.Context, locator Locator) error
	Click(ctx context.Context, locator Locator) error
	SetValue(ctx context.Context, locator Locator, value string) error
	Text(ctx context.Context, locator Locator) (string, error)
	Value(ctx context.Context, locator Locator) (string, error)
	Attribute(ctx context.Context, locator Locator, name string) (string, bool, error)
	OuterHTML(ctx context.Context, locator Locator) (string, error)
	Count(ctx context.Context, locator Locator) (int, error)
	Evaluate(ctx context.Context, script string, result interface{}) error
	Screenshot(ctx context.Context, locator Locator) ([]byte, error)
	FullScreenshot(ctx context.Context) ([]byte, error)
}
