package browser

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"time"

	"github.com/chromedp/cdproto/cdp"
	"github.com/chromedp/chromedp"
	"go.uber.org/zap"
)

const (
	// EnvironmentChromedpBrowser names an explicit browser executable.
	EnvironmentChromedpBrowser = "CHROMEDP_BROWSER"
	// EnvironmentChromePath is the conventional fallback variable for the browser executable.
	EnvironmentChromePath = "CHROME_PATH"

	defaultActionTimeout    = 15 * time.Second
	defaultWindowWidth      = 1600
	defaultWindowHeight     = 1000
	fullScreenshotQuality   = 100
	errorMessageNotFound    = "browser: executable not found"
	errorMessageStart       = "browser: start"
	errorMessageAction      = "browser: action"
	logEventBrowserStarted  = "browser_started"
	logEventBrowserAction   = "browser_action"
	logFieldExecutable      = "executable"
	logFieldHeadless        = "headless"
	logFieldBrowserAction   = "action"
	logFieldBrowserLocator  = "locator"
	logFieldBrowserDuration = "dur"
)

// ErrBrowserNotFound indicates no browser executable could be located.
var ErrBrowserNotFound = errors.New(errorMessageNotFound)

var browserExecutableNames = []string{
	"chromium",
	"chromium-browser",
	"google-chrome",
	"google-chrome-stable",
	"chrome",
	"headless-shell",
}

// Config configures a browser session.
type Config struct {
	ExecutablePath string
	Headless       bool
	ActionTimeout  time.Duration
	WindowWidth    int
	WindowHeight   int
}

// LocateExecutable finds a browser executable from the environment or the PATH.
func LocateExecutable() (string, error) {
	for _, environmentVariableName := range []string{EnvironmentChromedpBrowser, EnvironmentChromePath} {
		environmentValue := strings.TrimSpace(os.Getenv(environmentVariableName))
		if environmentValue != "" {
			return environmentValue, nil
		}
	}
	for _, executableName := range browserExecutableNames {
		executablePath, lookupErr := exec.LookPath(executableName)
		if lookupErr == nil {
			return executablePath, nil
		}
	}
	return "", ErrBrowserNotFound
}

// Session is a single browser tab driven through the DevTools protocol.
type Session struct {
	browserContext context.Context
	cancelFuncs    []context.CancelFunc
	actionTimeout  time.Duration
	logger         *zap.Logger
}

// NewSession starts a browser and opens a blank tab.
func NewSession(configuration Config, logger *zap.Logger) (*Session, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	executablePath := strings.TrimSpace(configuration.ExecutablePath)
	if executablePath == "" {
		locatedPath, locateErr := LocateExecutable()
		if locateErr != nil {
			return nil, locateErr
		}
		executablePath = locatedPath
	}
	windowWidth := configuration.WindowWidth
	if windowWidth <= 0 {
		windowWidth = defaultWindowWidth
	}
	windowHeight := configuration.WindowHeight
	if windowHeight <= 0 {
		windowHeight = defaultWindowHeight
	}
	actionTimeout := configuration.ActionTimeout
	if actionTimeout <= 0 {
		actionTimeout = defaultActionTimeout
	}

	allocatorOptions := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.ExecPath(executablePath),
		chromedp.Flag("headless", configuration.Headless),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("no-sandbox", true),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.Flag("ignore-certificate-errors", true),
		chromedp.WindowSize(windowWidth, windowHeight),
	)
	allocatorContext, allocatorCancel := chromedp.NewExecAllocator(context.Background(), allocatorOptions...)
	browserContext, browserCancel := chromedp.NewContext(allocatorContext)
	session := &Session{
		browserContext: browserContext,
		cancelFuncs:    []context.CancelFunc{browserCancel, allocatorCancel},
		actionTimeout:  actionTimeout,
		logger:         logger,
	}

	if startErr := chromedp.Run(browserContext); startErr != nil {
		session.Close()
		return nil, fmt.Errorf("%s: %w", errorMessageStart, startErr)
	}
	logger.Info(logEventBrowserStarted, zap.String(logFieldExecutable, executablePath), zap.Bool(logFieldHeadless, configuration.Headless))
	return session, nil
}

// Close shuts the browser down.
func (session *Session) Close() {
	for _, cancel := range session.cancelFuncs {
		cancel()
	}
}

func (session *Session) run(ctx context.Context, action string, target string, actions ...chromedp.Action) error {
	actionContext, actionCancel := context.WithTimeout(session.browserContext, session.actionTimeout)
	defer actionCancel()
	stopPropagation := context.AfterFunc(ctx, actionCancel)
	defer stopPropagation()

	start := time.Now()
	runErr := chromedp.Run(actionContext, actions...)
	session.logger.Debug(logEventBrowserAction,
		zap.String(logFieldBrowserAction, action),
		zap.String(logFieldBrowserLocator, target),
		zap.Duration(logFieldBrowserDuration, time.Since(start)),
		zap.Error(runErr),
	)
	if runErr != nil {
		return fmt.Errorf("%s %s %s: %w", errorMessageAction, action, target, runErr)
	}
	return nil
}

func (session *Session) Navigate(ctx context.Context, url string) error {
	return session.run(ctx, "navigate", url, chromedp.Navigate(url))
}

func (session *Session) WaitVisible(ctx context.Context, locator Locator) error {
	return session.run(ctx, "wait_visible", locator.String(), chromedp.WaitVisible(locator.Expression, locator.queryOption()))
}

func (session *Session) WaitNotPresent(ctx context.Context, locator Locator) error {
	return session.run(ctx, "wait_not_present", locator.String(), chromedp.WaitNotPresent(locator.Expression, locator.queryOption()))
}

func (session *Session) Click(ctx context.Context, locator Locator) error {
	return session.run(ctx, "click", locator.String(),
		chromedp.WaitVisible(locator.Expression, locator.queryOption()),
		chromedp.Click(locator.Expression, locator.queryOption()),
	)
}

// SetValue replaces the content of an input by clearing it and typing value, so the page sees
// the same input events a user produces.
func (session *Session) SetValue(ctx context.Context, locator Locator, value string) error {
	actions := []chromedp.Action{
		chromedp.WaitVisible(locator.Expression, locator.queryOption()),
		chromedp.Clear(locator.Expression, locator.queryOption()),
	}
	if value != "" {
		actions = append(actions, chromedp.SendKeys(locator.Expression, value, locator.queryOption()))
	}
	return session.run(ctx, "set_value", locator.String(), actions...)
}

func (session *Session) Text(ctx context.Context, locator Locator) (string, error) {
	var text string
	runErr := session.run(ctx, "text", locator.String(), chromedp.Text(locator.Expression, &text, locator.queryOption()))
	return text, runErr
}

func (session *Session) Value(ctx context.Context, locator Locator) (string, error) {
	var value string
	runErr := session.run(ctx, "value", locator.String(), chromedp.Value(locator.Expression, &value, locator.queryOption()))
	return value, runErr
}

func (session *Session) Attribute(ctx context.Context, locator Locator, name string) (string, bool, error) {
	var value string
	var present bool
	runErr := session.run(ctx, "attribute", locator.String(), chromedp.AttributeValue(locator.Expression, name, &value, &present, locator.queryOption()))
	return value, present, runErr
}

func (session *Session) OuterHTML(ctx context.Context, locator Locator) (string, error) {
	var html string
	runErr := session.run(ctx, "outer_html", locator.String(), chromedp.OuterHTML(locator.Expression, &html, locator.queryOption()))
	return html, runErr
}

// Count returns the number of matching elements without waiting for any to appear.
func (session *Session) Count(ctx context.Context, locator Locator) (int, error) {
	var nodes []*cdp.Node
	runErr := session.run(ctx, "count", locator.String(), chromedp.Nodes(locator.Expression, &nodes, locator.queryAllOption(), chromedp.AtLeast(0)))
	return len(nodes), runErr
}

func (session *Session) Evaluate(ctx context.Context, script string, result interface{}) error {
	return session.run(ctx, "evaluate", "", chromedp.Evaluate(script, result))
}

func (session *Session) Screenshot(ctx context.Context, locator Locator) ([]byte, error) {
	var image []byte
	runErr := session.run(ctx, "screenshot", locator.String(), chromedp.Screenshot(locator.Expression, &image, locator.queryOption()))
	return image, runErr
}

func (session *Session) FullScreenshot(ctx context.Context) ([]byte, error) {
	var image []byte
	runErr := session.run(ctx, "full_screenshot", "", chromedp.FullScreenshot(&image, fullScreenshotQuality))
	return image, runErr
}
