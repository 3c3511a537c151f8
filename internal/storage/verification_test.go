package storage_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/MarkoPoloResearchLab/dashcheck/internal/model"
	"github.com/MarkoPoloResearchLab/dashcheck/internal/storage"
	"github.com/MarkoPoloResearchLab/dashcheck/internal/testutil"
)

const (
	testOtherDashboardName = "Other dashboard"
	testHostGroupName      = "Zabbix servers"
	testHostGroupID        = 4
	testWidgetName         = "Discovery status widget"
	projectionColumnCount  = 17
)

func seededVerificationStore(testingT *testing.T) (*storage.VerificationStore, *gorm.DB, *testutil.RecordWriter) {
	testingT.Helper()
	database := testutil.NewSQLiteTestDatabase(testingT).OpenMigratedDatabase(testingT)
	writer := testutil.NewRecordWriter(database, map[string]int64{testHostGroupName: testHostGroupID})

	_, createErr := writer.CreateDashboard(testDashboardNameValue)
	require.NoError(testingT, createErr)
	_, createErr = writer.CreateDashboard(testOtherDashboardName)
	require.NoError(testingT, createErr)
	require.NoError(testingT, writer.ReplaceWidgets(testDashboardNameValue, seededWidgets()))

	store, storeErr := storage.NewVerificationStore(database, zap.NewNop())
	require.NoError(testingT, storeErr)
	return store, database, writer
}

func seededWidgets() []model.Widget {
	return []model.Widget{
		{
			Type:     model.WidgetTypeDiscoveryStatus,
			Name:     testWidgetName,
			Geometry: model.Geometry{X: 0, Y: 0, Width: 12, Height: 5},
			Fields: []model.WidgetField{
				{Name: "rf_rate", Value: model.IntegerValue(60)},
			},
		},
		{
			Type:     model.WidgetTypeProblemHosts,
			Name:     "",
			Geometry: model.Geometry{X: 12, Y: 0, Width: 24, Height: 5},
			Fields: []model.WidgetField{
				{Name: "groupids", Value: model.ReferenceValue(model.FieldKindHostGroup, testHostGroupName)},
				{Name: "show_suppressed", Value: model.IntegerValue(1)},
			},
		},
	}
}

func TestConfigurationHashIgnoresSurrogateIdentifiers(t *testing.T) {
	store, _, writer := seededVerificationStore(t)
	projection := storage.DashboardWidgetsProjection(testDashboardNameValue)

	hashBefore, hashErr := store.ConfigurationHash(context.Background(), projection)
	require.NoError(t, hashErr)

	require.NoError(t, writer.ReplaceWidgets(testDashboardNameValue, seededWidgets()))

	hashAfter, hashErr := store.ConfigurationHash(context.Background(), projection)
	require.NoError(t, hashErr)
	require.Equal(t, hashBefore, hashAfter)
}

func TestConfigurationHashDetectsChanges(t *testing.T) {
	testCases := []struct {
		name   string
		mutate func([]model.Widget) []model.Widget
	}{
		{
			name: "field value",
			mutate: func(widgets []model.Widget) []model.Widget {
				widgets[0].Fields[0].Value = model.IntegerValue(120)
				return widgets
			},
		},
		{
			name: "geometry",
			mutate: func(widgets []model.Widget) []model.Widget {
				widgets[1].Geometry.Height = 6
				return widgets
			},
		},
		{
			name: "widget name",
			mutate: func(widgets []model.Widget) []model.Widget {
				widgets[1].Name = "Problem hosts"
				return widgets
			},
		},
		{
			name: "removed field",
			mutate: func(widgets []model.Widget) []model.Widget {
				widgets[1].Fields = widgets[1].Fields[:1]
				return widgets
			},
		},
		{
			name: "added widget",
			mutate: func(widgets []model.Widget) []model.Widget {
				return append(widgets, model.Widget{Type: model.WidgetTypeURL, Geometry: model.Geometry{Y: 5, Width: 12, Height: 5}})
			},
		},
	}

	for _, testCase := range testCases {
		testCase := testCase
		t.Run(testCase.name, func(testingT *testing.T) {
			store, _, writer := seededVerificationStore(testingT)
			projection := storage.DashboardWidgetsProjection(testDashboardNameValue)

			hashBefore, hashErr := store.ConfigurationHash(context.Background(), projection)
			require.NoError(testingT, hashErr)

			require.NoError(testingT, writer.ReplaceWidgets(testDashboardNameValue, testCase.mutate(seededWidgets())))

			hashAfter, hashErr := store.ConfigurationHash(context.Background(), projection)
			require.NoError(testingT, hashErr)
			require.NotEqual(testingT, hashBefore, hashAfter)
		})
	}
}

func TestConfigurationHashScopesToDashboard(t *testing.T) {
	store, _, writer := seededVerificationStore(t)
	projection := storage.DashboardWidgetsProjection(testDashboardNameValue)

	hashBefore, hashErr := store.ConfigurationHash(context.Background(), projection)
	require.NoError(t, hashErr)

	require.NoError(t, writer.ReplaceWidgets(testOtherDashboardName, seededWidgets()))

	hashAfter, hashErr := store.ConfigurationHash(context.Background(), projection)
	require.NoError(t, hashErr)
	require.Equal(t, hashBefore, hashAfter)

	allBefore, hashErr := store.ConfigurationHash(context.Background(), storage.AllWidgetsProjection())
	require.NoError(t, hashErr)
	require.NoError(t, writer.ReplaceWidgets(testOtherDashboardName, nil))
	allAfter, hashErr := store.ConfigurationHash(context.Background(), storage.AllWidgetsProjection())
	require.NoError(t, hashErr)
	require.NotEqual(t, allBefore, allAfter)
}

func TestProjectionRowsAreCanonical(t *testing.T) {
	store, _, _ := seededVerificationStore(t)

	rows, rowsErr := store.ProjectionRows(context.Background(), storage.DashboardWidgetsProjection(testDashboardNameValue))
	require.NoError(t, rowsErr)
	require.Len(t, rows, 3)
	for _, row := range rows {
		require.Len(t, row, projectionColumnCount)
		require.Equal(t, testDashboardNameValue, row[0])
	}
}

func TestCountRows(t *testing.T) {
	store, _, writer := seededVerificationStore(t)
	ctx := context.Background()

	count, countErr := store.CountRows(ctx, storage.WidgetCountByName(testWidgetName))
	require.NoError(t, countErr)
	require.EqualValues(t, 1, count)

	count, countErr = store.CountRows(ctx, storage.DashboardWidgetCount(testDashboardNameValue))
	require.NoError(t, countErr)
	require.EqualValues(t, 2, count)

	require.NoError(t, writer.ReplaceWidgets(testDashboardNameValue, seededWidgets()[1:]))

	count, countErr = store.CountRows(ctx, storage.DashboardWidgetCountByName(testDashboardNameValue, testWidgetName))
	require.NoError(t, countErr)
	require.EqualValues(t, 0, count)
}

func TestVerificationStoreRejectsMutatingQueries(t *testing.T) {
	store, _, _ := seededVerificationStore(t)

	_, countErr := store.CountRows(context.Background(), storage.CountQuery{Description: "delete", SQL: "DELETE FROM widget"})
	require.ErrorIs(t, countErr, storage.ErrMutatingQuery)

	_, hashErr := store.ConfigurationHash(context.Background(), storage.Projection{Description: "update", SQL: "UPDATE widget SET name = 'x'"})
	require.ErrorIs(t, hashErr, storage.ErrMutatingQuery)
}

func TestNewVerificationStoreRequiresDatabase(t *testing.T) {
	_, storeErr := storage.NewVerificationStore(nil, nil)
	require.ErrorIs(t, storeErr, storage.ErrMissingDatabase)
}

func TestHashRowsIsOrderIndependent(t *testing.T) {
	firstRows := [][]string{{"a", "1"}, {"b", "2"}}
	secondRows := [][]string{{"b", "2"}, {"a", "1"}}
	require.Equal(t, storage.HashRows(firstRows), storage.HashRows(secondRows))
	require.NotEqual(t, storage.HashRows(firstRows), storage.HashRows([][]string{{"a1"}, {"b", "2"}}))
	require.NotEqual(t, storage.HashRows([][]string{{"a", ""}}), storage.HashRows([][]string{{"a", storage.CanonicalValue(nil)}}))
}

func TestCanonicalValue(t *testing.T) {
	testCases := []struct {
		name     string
		value    interface{}
		expected string
	}{
		{name: "bytes", value: []byte("abc"), expected: "abc"},
		{name: "integer", value: int64(42), expected: "42"},
		{name: "whole float", value: float64(7), expected: "7"},
		{name: "fraction", value: 0.5, expected: "0.5"},
		{name: "true", value: true, expected: "1"},
	}

	for _, testCase := range testCases {
		testCase := testCase
		t.Run(testCase.name, func(testingT *testing.T) {
			require.Equal(testingT, testCase.expected, storage.CanonicalValue(testCase.value))
		})
	}
}

func TestBoundProjectionMatchesStoreHash(t *testing.T) {
	store, _, _ := seededVerificationStore(t)
	projection := storage.DashboardWidgetsProjection(testDashboardNameValue)

	expectedHash, hashErr := store.ConfigurationHash(context.Background(), projection)
	require.NoError(t, hashErr)

	boundHash, hashErr := store.Bind(projection).ConfigurationHash(context.Background())
	require.NoError(t, hashErr)
	require.Equal(t, expectedHash, boundHash)
}
