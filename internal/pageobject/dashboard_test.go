package pageobject

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/MarkoPoloResearchLab/dashcheck/internal/browser"
	"github.com/MarkoPoloResearchLab/dashcheck/internal/model"
	"github.com/MarkoPoloResearchLab/dashcheck/internal/scenario"
)

const testBaseURL = "https://monitoring.example.com/"

func newTestDashboard(testingT *testing.T, page *fakePage) *Dashboard {
	testingT.Helper()
	dashboard, dashboardErr := NewDashboard(page, Config{BaseURL: testBaseURL, PollInterval: time.Millisecond, WaitTimeout: time.Second}, nil)
	require.NoError(testingT, dashboardErr)
	return dashboard
}

func TestNewDashboardValidatesInput(t *testing.T) {
	_, missingPageErr := NewDashboard(nil, Config{BaseURL: testBaseURL}, nil)
	require.ErrorIs(t, missingPageErr, ErrMissingPage)

	_, missingURLErr := NewDashboard(newFakePage(), Config{BaseURL: "  "}, nil)
	require.ErrorIs(t, missingURLErr, ErrMissingBaseURL)
}

func TestViewURL(t *testing.T) {
	dashboard := newTestDashboard(t, newFakePage())

	testCases := []struct {
		name        string
		view        scenario.View
		expectedURL string
		expectedErr error
	}{
		{
			name:        "dashboard",
			view:        scenario.View{Kind: scenario.ViewKindDashboard, DashboardID: "12"},
			expectedURL: "https://monitoring.example.com/zabbix.php?action=dashboard.view&dashboardid=12",
		},
		{
			name:        "template dashboard",
			view:        scenario.View{Kind: scenario.ViewKindTemplateDashboard, DashboardID: "40"},
			expectedURL: "https://monitoring.example.com/zabbix.php?action=template.dashboard.edit&dashboardid=40",
		},
		{
			name:        "missing identifier",
			view:        scenario.View{Kind: scenario.ViewKindDashboard, Name: "Global view"},
			expectedErr: ErrMissingDashboardID,
		},
		{
			name:        "unknown kind",
			view:        scenario.View{Kind: "report", DashboardID: "1"},
			expectedErr: ErrUnknownViewKind,
		},
	}

	for _, testCase := range testCases {
		testCase := testCase
		t.Run(testCase.name, func(testingT *testing.T) {
			viewURL, urlErr := dashboard.ViewURL(testCase.view)
			if testCase.expectedErr != nil {
				require.ErrorIs(testingT, urlErr, testCase.expectedErr)
				return
			}
			require.NoError(testingT, urlErr)
			require.Equal(testingT, testCase.expectedURL, viewURL)
		})
	}
}

func TestOpenNavigatesAndWaitsForGrid(t *testing.T) {
	page := newFakePage()
	dashboard := newTestDashboard(t, page)

	require.NoError(t, dashboard.Open(context.Background(), scenario.View{Kind: scenario.ViewKindDashboard, DashboardID: "7"}))
	require.Equal(t, []string{
		"navigate https://monitoring.example.com/zabbix.php?action=dashboard.view&dashboardid=7",
		"wait-visible css=div.dashboard-grid",
	}, page.actions)
}

func TestTemplateDashboardIsAlwaysEditable(t *testing.T) {
	page := newFakePage()
	dashboard := newTestDashboard(t, page)
	require.NoError(t, dashboard.Open(context.Background(), scenario.View{Kind: scenario.ViewKindTemplateDashboard, DashboardID: "9"}))
	page.actions = nil

	require.NoError(t, dashboard.Edit(context.Background()))
	require.Empty(t, page.actions)
}

func TestFindWidget(t *testing.T) {
	page := newFakePage()
	dashboard := newTestDashboard(t, page)
	page.counts[widgetByHeader("Missing").String()] = 0

	_, found, findErr := dashboard.FindWidget(context.Background(), "Missing")
	require.NoError(t, findErr)
	require.False(t, found)

	widget, found, findErr := dashboard.FindWidget(context.Background(), "Problem hosts")
	require.NoError(t, findErr)
	require.True(t, found)
	require.Equal(t, "Problem hosts", widget.Header())
}

func TestWidgetsReadsHeaders(t *testing.T) {
	page := newFakePage()
	dashboard := newTestDashboard(t, page)
	page.counts[browser.XPath(widgetXPath).String()] = 2
	page.texts[widgetHeaderByIndex(0).String()] = " Docs "
	page.texts[widgetHeaderByIndex(1).String()] = "Clock"

	widgets, widgetsErr := dashboard.Widgets(context.Background())
	require.NoError(t, widgetsErr)
	require.Len(t, widgets, 2)
	require.Equal(t, "Docs", widgets[0].Header())
	require.Equal(t, "Clock", widgets[1].Header())
}

func TestWidgetGeometry(t *testing.T) {
	page := newFakePage()
	dashboard := newTestDashboard(t, page)
	page.bounds = Bounds{Left: 0, Top: 0, Width: 720, Height: 280, GridWidth: 1440}

	widget, _, findErr := dashboard.FindWidget(context.Background(), "Docs")
	require.NoError(t, findErr)
	geometry, geometryErr := widget.Geometry(context.Background())
	require.NoError(t, geometryErr)
	require.Equal(t, model.Geometry{X: 0, Y: 0, Width: 36, Height: 4}, geometry)

	page.bounds = Bounds{}
	_, geometryErr = widget.Geometry(context.Background())
	require.ErrorIs(t, geometryErr, ErrWidgetNotRendered)
}

func TestPasteAvailableReadsMenuItemState(t *testing.T) {
	testCases := []struct {
		name      string
		class     *string
		available bool
	}{
		{name: "enabled", class: stringPointer(""), available: true},
		{name: "disabled", class: stringPointer("menu-popup-item-disabled"), available: false},
		{name: "absent", class: nil, available: false},
	}

	for _, testCase := range testCases {
		testCase := testCase
		t.Run(testCase.name, func(testingT *testing.T) {
			page := newFakePage()
			dashboard := newTestDashboard(testingT, page)
			if testCase.class != nil {
				page.attributes[menuItem(menuItemPasteWidget).String()+"@class"] = *testCase.class
			}
			available, availableErr := dashboard.PasteAvailable(context.Background())
			require.NoError(testingT, availableErr)
			require.Equal(testingT, testCase.available, available)
			require.Contains(testingT, page.actions, "wait-not-present css=ul.menu-popup")
		})
	}
}

func TestSaveRejectedReturnsBanner(t *testing.T) {
	page := newFakePage()
	dashboard := newTestDashboard(t, page)
	page.outerHTML[browser.CSS(selectorGlobalMessage).String()] = `<output class="msg-bad"><span>Cannot update dashboard</span></output>`

	result, saveErr := dashboard.Save(context.Background())
	require.NoError(t, saveErr)
	require.False(t, result.Accepted)
	require.Equal(t, &model.Message{Kind: model.MessageKindBad, Title: "Cannot update dashboard"}, result.Message)
}

func TestSaveAcceptedWhenEditModeEnds(t *testing.T) {
	page := newFakePage()
	dashboard := newTestDashboard(t, page)
	page.counts[browser.CSS(selectorSaveButton).String()] = 0
	page.counts[browser.CSS(selectorGlobalMessage).String()] = 0

	result, saveErr := dashboard.Save(context.Background())
	require.NoError(t, saveErr)
	require.True(t, result.Accepted)
	require.Nil(t, result.Message)
}

func TestDeleteWaitsForWidgetToDisappear(t *testing.T) {
	page := newFakePage()
	dashboard := newTestDashboard(t, page)
	page.counts[browser.XPath(widgetXPath).String()] = 1

	widget, _, findErr := dashboard.FindWidget(context.Background(), "Docs")
	require.NoError(t, findErr)
	deleteErr := widget.Delete(context.Background())
	require.ErrorIs(t, deleteErr, ErrWaitTimeout)
	require.Contains(t, page.actions, "click "+menuItem(menuItemDelete).String())
}

func stringPointer(value string) *string {
	return &value
}
