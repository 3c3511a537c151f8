package testutil

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const (
	fakeAPIEndpointPath      = "/api_jsonrpc.php"
	fakeAPIBearerPrefix      = "Bearer "
	fakeAPIAuthorization     = "Authorization"
	fakeAPIFirstIdentifier   = 100
	fakeAPIInvalidParamsCode = -32602
	fakeAPIParseErrorCode    = -32700
)

var fakeAPIResultKeys = map[string]string{
	"hostgroup.create":         "groupids",
	"template.create":          "templateids",
	"host.create":              "hostids",
	"item.create":              "itemids",
	"trigger.create":           "triggerids",
	"trigger.update":           "triggerids",
	"dashboard.create":         "dashboardids",
	"templatedashboard.create": "dashboardids",
}

// RecordedCall is one JSON-RPC call received by FakeFixtureAPI.
type RecordedCall struct {
	Method string
	Params map[string]interface{}
}

type fakeAPIFailure struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Data    string `json:"data"`
}

type fakeAPIRequest struct {
	JSONRPC string                 `json:"jsonrpc"`
	Method  string                 `json:"method"`
	Params  map[string]interface{} `json:"params"`
	ID      int64                  `json:"id"`
}

// FakeFixtureAPI is an in-process JSON-RPC endpoint that assigns sequential identifiers to
// created entities and records every call.
type FakeFixtureAPI struct {
	mutex          sync.Mutex
	server         *httptest.Server
	token          string
	nextIdentifier int
	calls          []RecordedCall
	failures       map[string]fakeAPIFailure
}

// NewFakeFixtureAPI starts a fake API accepting the given bearer token; it is closed on cleanup.
func NewFakeFixtureAPI(testingT *testing.T, token string) *FakeFixtureAPI {
	testingT.Helper()
	gin.SetMode(gin.TestMode)

	fakeAPI := &FakeFixtureAPI{
		token:          token,
		nextIdentifier: fakeAPIFirstIdentifier,
		failures:       map[string]fakeAPIFailure{},
	}

	router := gin.New()
	router.Use(fakeAPIRequestLogger(zap.NewNop()))
	router.POST(fakeAPIEndpointPath, fakeAPIBearerMiddleware(token), fakeAPI.handleCall)

	fakeAPI.server = httptest.NewServer(router)
	testingT.Cleanup(fakeAPI.server.Close)
	return fakeAPI
}

// URL returns the base URL of the fake API.
func (fakeAPI *FakeFixtureAPI) URL() string {
	return fakeAPI.server.URL
}

// FailMethod makes every subsequent call of method return an API error.
func (fakeAPI *FakeFixtureAPI) FailMethod(method string, code int, message string, data string) {
	fakeAPI.mutex.Lock()
	defer fakeAPI.mutex.Unlock()
	fakeAPI.failures[method] = fakeAPIFailure{Code: code, Message: message, Data: data}
}

// Calls returns the calls received so far.
func (fakeAPI *FakeFixtureAPI) Calls() []RecordedCall {
	fakeAPI.mutex.Lock()
	defer fakeAPI.mutex.Unlock()
	return append([]RecordedCall(nil), fakeAPI.calls...)
}

// Methods returns the method names of the calls received so far, in order.
func (fakeAPI *FakeFixtureAPI) Methods() []string {
	calls := fakeAPI.Calls()
	methods := make([]string, 0, len(calls))
	for _, call := range calls {
		methods = append(methods, call.Method)
	}
	return methods
}

func (fakeAPI *FakeFixtureAPI) handleCall(context *gin.Context) {
	var request fakeAPIRequest
	if decodeErr := json.NewDecoder(context.Request.Body).Decode(&request); decodeErr != nil {
		context.JSON(http.StatusOK, gin.H{
			"jsonrpc": "2.0",
			"error":   fakeAPIFailure{Code: fakeAPIParseErrorCode, Message: "Parse error.", Data: decodeErr.Error()},
			"id":      nil,
		})
		return
	}

	fakeAPI.mutex.Lock()
	defer fakeAPI.mutex.Unlock()
	fakeAPI.calls = append(fakeAPI.calls, RecordedCall{Method: request.Method, Params: request.Params})

	if failure, failing := fakeAPI.failures[request.Method]; failing {
		context.JSON(http.StatusOK, gin.H{"jsonrpc": "2.0", "error": failure, "id": request.ID})
		return
	}

	resultKey, supported := fakeAPIResultKeys[request.Method]
	if !supported {
		context.JSON(http.StatusOK, gin.H{
			"jsonrpc": "2.0",
			"error":   fakeAPIFailure{Code: fakeAPIInvalidParamsCode, Message: "Invalid params.", Data: fmt.Sprintf("Incorrect method %q.", request.Method)},
			"id":      request.ID,
		})
		return
	}

	var identifier string
	if strings.HasSuffix(request.Method, ".update") {
		identifier = fmt.Sprint(request.Params["triggerid"])
	} else {
		fakeAPI.nextIdentifier++
		identifier = fmt.Sprint(fakeAPI.nextIdentifier)
	}
	context.JSON(http.StatusOK, gin.H{
		"jsonrpc": "2.0",
		"result":  gin.H{resultKey: []string{identifier}},
		"id":      request.ID,
	})
}

func fakeAPIRequestLogger(logger *zap.Logger) gin.HandlerFunc {
	return func(context *gin.Context) {
		start := time.Now()
		context.Next()
		logger.Info("http",
			zap.String("method", context.Request.Method),
			zap.String("path", context.Request.URL.Path),
			zap.Int("status", context.Writer.Status()),
			zap.Duration("dur", time.Since(start)),
		)
	}
}

func fakeAPIBearerMiddleware(token string) gin.HandlerFunc {
	return func(context *gin.Context) {
		if token == "" {
			context.Next()
			return
		}
		authorizationHeader := strings.TrimSpace(context.GetHeader(fakeAPIAuthorization))
		if !strings.HasPrefix(authorizationHeader, fakeAPIBearerPrefix) {
			context.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing bearer"})
			return
		}
		if strings.TrimPrefix(authorizationHeader, fakeAPIBearerPrefix) != token {
			context.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "forbidden"})
			return
		}
		context.Next()
	}
}
