package pageobject_test

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
	"github.com/MarkoPoloResearchLab/dashcheck/internal/model"
	"github.com/MarkoPoloResearchLab/dashcheck/internal/pageobject"
	"github.com/MarkoPoloResearchLab/dashcheck/internal/scenario"
)

const (
	headlessBrowserSkipReason = "headless browser not available"
	widgetFormPagePath        = "/zabbix.php"
	widgetFormPage            = `<!doctype html>
<html><body><main>
<div class="dashboard-grid"></div>
<button id="dashboard-add-widget">Add</button>
<div class="overlay-dialogue modal" data-dialogueid="widget_form">
<form id="widget-dialogue-form"><div class="form-grid">
	<label for="type">Type</label>
	<div class="form-field"><z-select id="type"><button type="button">URL</button></z-select></div>
	<label for="name">Name</label>
	<div class="form-field"><input type="text" id="name" value=""></div>
	<label for="url">URL</label>
	<div class="form-field"><input type="text" id="url" value="https://example.com"></div>
	<label for="dynamic">Enable host selection</label>
	<div class="form-field"><input type="checkbox" id="dynamic" class="checkbox-radio"><label for="dynamic">on</label></div>
	<label>Clock type</label>
	<div class="form-field"><ul class="radio-list-control">
		<li><input type="radio" name="clock_type" id="clock_type_0" checked><label for="clock_type_0">Analog</label></li>
		<li><input type="radio" name="clock_type" id="clock_type_1"><label for="clock_type_1">Digital</label></li>
	</ul></div>
	<label for="hidden">Item</label>
	<div class="form-field" style="display:none"><input type="text" id="hidden" value="stale"></div>
</div></form>
</div>
</main></body></html>`
)

func TestFormStatesInBrowser(t *testing.T) {
	executablePath, locateErr := browser.LocateExecutable()
	if locateErr != nil {
		t.Skipf("%s: %v", headlessBrowserSkipReason, locateErr)
	}
	session, sessionErr := browser.NewSession(browser.Config{ExecutablePath: executablePath, Headless: true, ActionTimeout: 10 * time.Second}, zap.NewNop())
	if sessionErr != nil {
		t.Skipf("%s: %v", headlessBrowserSkipReason, sessionErr)
	}
	t.Cleanup(session.Close)

	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.GET(widgetFormPagePath, func(ginContext *gin.Context) {
		ginContext.Data(http.StatusOK, "text/html; charset=utf-8", []byte(widgetFormPage))
	})
	server := httptest.NewServer(router)
	t.Cleanup(server.Close)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	dashboard, dashboardErr := pageobject.NewDashboard(session, pageobject.Config{BaseURL: server.URL}, zap.NewNop())
	require.NoError(t, dashboardErr)
	require.NoError(t, dashboard.Open(ctx, scenario.View{Kind: scenario.ViewKindDashboard, DashboardID: "1"}))

	form, addErr := dashboard.AddWidget(ctx)
	require.NoError(t, addErr)
	require.NoError(t, form.Fill(ctx, model.FieldInputs{
		{Label: "Name", Value: model.TextControl("Docs")},
		{Label: "Enable host selection", Value: model.CheckboxControl(true)},
	}))

	states, statesErr := form.States(ctx)
	require.NoError(t, statesErr)

	widgetType, typeErr := form.Type(ctx)
	require.NoError(t, typeErr)
	require.Equal(t, model.WidgetTypeURL, widgetType)

	require.Equal(t, model.FieldInputs{
		{Label: "Type", Value: model.DropdownControl("URL")},
		{Label: "Name", Value: model.TextControl("Docs")},
		{Label: "URL", Value: model.TextControl("https://example.com")},
		{Label: "Enable host selection", Value: model.CheckboxControl(true)},
		{Label: "Clock type", Value: model.RadioControl("Analog")},
	}, states.Projection())

	hidden, found := states.Lookup("Item")
	require.True(t, found)
	require.False(t, hidden.Visible)
}
