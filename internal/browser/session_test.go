package browser_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/MarkoPoloResearchLab/dashcheck/internal/browser"
)

const (
	headlessBrowserSkipReason = "headless browser not available"
	sessionTestPage           = `<!doctype html>
<html><body>
<h4 class="title">Widgets</h4>
<ul><li class="entry">one</li><li class="entry">two</li></ul>
<input id="name" value="initial">
<button id="hide" onclick="document.getElementById('banner').remove()">hide</button>
<div id="banner" data-kind="good">saved</div>
</body></html>`
)

func newTestSession(testingT *testing.T) *browser.Session {
	testingT.Helper()
	executablePath, locateErr := browser.LocateExecutable()
	if locateErr != nil {
		testingT.Skipf("%s: %v", headlessBrowserSkipReason, locateErr)
	}
	session, sessionErr := browser.NewSession(browser.Config{
		ExecutablePath: executablePath,
		Headless:       true,
		ActionTimeout:  10 * time.Second,
	}, zap.NewNop())
	if sessionErr != nil {
		testingT.Skipf("%s: %v", headlessBrowserSkipReason, sessionErr)
	}
	testingT.Cleanup(session.Close)
	return session
}

func serveTestPage(testingT *testing.T) string {
	testingT.Helper()
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.GET("/", func(context *gin.Context) {
		context.Data(http.StatusOK, "text/html; charset=utf-8", []byte(sessionTestPage))
	})
	server := httptest.NewServer(router)
	testingT.Cleanup(server.Close)
	return server.URL + "/"
}

func TestLocateExecutablePrefersEnvironment(t *testing.T) {
	t.Setenv(browser.EnvironmentChromedpBrowser, "/opt/custom/chrome")
	executablePath, locateErr := browser.LocateExecutable()
	require.NoError(t, locateErr)
	require.Equal(t, "/opt/custom/chrome", executablePath)
}

func TestLocateExecutableFallsBackToChromePath(t *testing.T) {
	t.Setenv(browser.EnvironmentChromedpBrowser, "  ")
	t.Setenv(browser.EnvironmentChromePath, "/usr/local/bin/chrome")
	executablePath, locateErr := browser.LocateExecutable()
	require.NoError(t, locateErr)
	require.Equal(t, "/usr/local/bin/chrome", executablePath)
}

func TestSessionDrivesPage(t *testing.T) {
	session := newTestSession(t)
	pageURL := serveTestPage(t)
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	require.NoError(t, session.Navigate(ctx, pageURL))
	require.NoError(t, session.WaitVisible(ctx, browser.CSS("h4.title")))

	title, textErr := session.Text(ctx, browser.XPath("//h4[normalize-space(.)='Widgets']"))
	require.NoError(t, textErr)
	require.Equal(t, "Widgets", title)

	count, countErr := session.Count(ctx, browser.CSS("li.entry"))
	require.NoError(t, countErr)
	require.Equal(t, 2, count)

	missing, countErr := session.Count(ctx, browser.CSS("li.absent"))
	require.NoError(t, countErr)
	require.Zero(t, missing)

	require.NoError(t, session.SetValue(ctx, browser.CSS("#name"), "replaced"))
	value, valueErr := session.Value(ctx, browser.CSS("#name"))
	require.NoError(t, valueErr)
	require.Equal(t, "replaced", value)

	kind, present, attributeErr := session.Attribute(ctx, browser.CSS("#banner"), "data-kind")
	require.NoError(t, attributeErr)
	require.True(t, present)
	require.Equal(t, "good", kind)

	var entries int
	require.NoError(t, session.Evaluate(ctx, `document.querySelectorAll("li").length`, &entries))
	require.Equal(t, 2, entries)

	require.NoError(t, session.Click(ctx, browser.CSS("#hide")))
	require.NoError(t, session.WaitNotPresent(ctx, browser.CSS("#banner")))

	screenshot, screenshotErr := session.Screenshot(ctx, browser.CSS("ul"))
	require.NoError(t, screenshotErr)
	require.NotEmpty(t, screenshot)
}
