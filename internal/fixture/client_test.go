package fixture_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/MarkoPoloResearchLab/dashcheck/internal/fixture"
	"github.com/MarkoPoloResearchLab/dashcheck/internal/testutil"
)

const (
	testAPIToken        = "fixture-token"
	testHostGroupMethod = "hostgroup.create"
)

func TestClientCallDecodesResult(t *testing.T) {
	fakeAPI := testutil.NewFakeFixtureAPI(t, testAPIToken)
	client, clientErr := fixture.NewClient(fixture.ClientConfig{APIURL: fakeAPI.URL(), Token: testAPIToken}, zap.NewNop())
	require.NoError(t, clientErr)

	var result map[string][]string
	require.NoError(t, client.Call(context.Background(), testHostGroupMethod, map[string]string{"name": "group"}, &result))
	require.Equal(t, []string{"101"}, result["groupids"])

	calls := fakeAPI.Calls()
	require.Len(t, calls, 1)
	require.Equal(t, testHostGroupMethod, calls[0].Method)
	require.Equal(t, "group", calls[0].Params["name"])
}

func TestClientCallReturnsAPIError(t *testing.T) {
	fakeAPI := testutil.NewFakeFixtureAPI(t, testAPIToken)
	fakeAPI.FailMethod(testHostGroupMethod, -32602, "Invalid params.", `Host group "group" already exists.`)
	client, clientErr := fixture.NewClient(fixture.ClientConfig{APIURL: fakeAPI.URL(), Token: testAPIToken}, zap.NewNop())
	require.NoError(t, clientErr)

	callErr := client.Call(context.Background(), testHostGroupMethod, map[string]string{"name": "group"}, nil)
	require.Error(t, callErr)

	var apiError *fixture.APIError
	require.True(t, errors.As(callErr, &apiError))
	require.Equal(t, -32602, apiError.Code)
	require.Contains(t, apiError.Error(), "already exists")
}

func TestClientCallRejectsWrongToken(t *testing.T) {
	fakeAPI := testutil.NewFakeFixtureAPI(t, testAPIToken)
	client, clientErr := fixture.NewClient(fixture.ClientConfig{APIURL: fakeAPI.URL(), Token: "wrong"}, zap.NewNop())
	require.NoError(t, clientErr)

	callErr := client.Call(context.Background(), testHostGroupMethod, map[string]string{"name": "group"}, nil)
	require.ErrorIs(t, callErr, fixture.ErrUnexpectedStatus)
	require.Empty(t, fakeAPI.Calls())
}

func TestClientCallLogsEveryCall(t *testing.T) {
	fakeAPI := testutil.NewFakeFixtureAPI(t, "")
	observedCore, observedLogs := observer.New(zap.InfoLevel)
	client, clientErr := fixture.NewClient(fixture.ClientConfig{APIURL: fakeAPI.URL() + "/"}, zap.New(observedCore))
	require.NoError(t, clientErr)

	require.NoError(t, client.Call(context.Background(), testHostGroupMethod, map[string]string{"name": "group"}, nil))

	entries := observedLogs.FilterMessage("fixture_api").All()
	require.Len(t, entries, 1)
	require.Equal(t, testHostGroupMethod, entries[0].ContextMap()["method"])
}

func TestNewClientRequiresAPIURL(t *testing.T) {
	_, clientErr := fixture.NewClient(fixture.ClientConfig{APIURL: "  "}, nil)
	require.ErrorIs(t, clientErr, fixture.ErrMissingAPIURL)
}
