package fixture

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync/atomic"
	"time"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"
)

const (
	jsonRPCVersion        = "2.0"
	jsonRPCEndpointPath   = "/api_jsonrpc.php"
	authorizationHeader   = "Authorization"
	bearerTokenPrefix     = "Bearer "
	contentTypeHeader     = "Content-Type"
	contentTypeJSONRPC    = "application/json-rpc"
	defaultRequestTimeout = 30 * time.Second

	errorMessageMissingAPIURL     = "fixture: missing api url"
	errorMessageUnexpectedStatus  = "fixture: unexpected api status"
	errorMessageTransport         = "fixture: api transport"
	errorMessageDecodeResult      = "fixture: decode api result"
	errorMessageMismatchedRequest = "fixture: mismatched response id"

	logEventAPICall    = "fixture_api"
	logFieldMethod     = "method"
	logFieldStatus     = "status"
	logFieldDuration   = "dur"
	logFieldAPIError   = "api_error"
	logFieldRequestID  = "request_id"
	logFieldAPIURLBase = "api_url"
)

var (
	// ErrMissingAPIURL indicates the client was configured without an API URL.
	ErrMissingAPIURL = errors.New(errorMessageMissingAPIURL)
	// ErrUnexpectedStatus indicates a non-2xx HTTP status from the API endpoint.
	ErrUnexpectedStatus = errors.New(errorMessageUnexpectedStatus)
	// ErrMismatchedResponse indicates a response whose id does not match the request.
	ErrMismatchedResponse = errors.New(errorMessageMismatchedRequest)
)

// APIError is an error object returned by the JSON-RPC API.
type APIError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Data    string `json:"data"`
}

func (apiError *APIError) Error() string {
	if apiError.Data == "" {
		return apiError.Message
	}
	return apiError.Message + ": " + apiError.Data
}

type rpcRequest struct {
	JSONRPC string      `json:"jsonrpc"`
	Method  string      `json:"method"`
	Params  interface{} `json:"params"`
	ID      int64       `json:"id"`
}

type rpcResponse struct {
	JSONRPC string          `json:"jsonrpc"`
	Result  json.RawMessage `json:"result"`
	Error   *APIError       `json:"error,omitempty"`
	ID      int64           `json:"id"`
}

// ClientConfig configures the fixture API client.
type ClientConfig struct {
	APIURL  string
	Token   string
	Timeout time.Duration
}

// Client calls the application's JSON-RPC API. Calls are never retried.
type Client struct {
	httpClient    *resty.Client
	logger        *zap.Logger
	lastRequestID atomic.Int64
}

// NewClient builds a client for the API rooted at configuration.APIURL.
func NewClient(configuration ClientConfig, logger *zap.Logger) (*Client, error) {
	apiURL := strings.TrimRight(strings.TrimSpace(configuration.APIURL), "/")
	if apiURL == "" {
		return nil, ErrMissingAPIURL
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	timeout := configuration.Timeout
	if timeout <= 0 {
		timeout = defaultRequestTimeout
	}

	httpClient := resty.New().
		SetBaseURL(apiURL).
		SetTimeout(timeout).
		SetRetryCount(0).
		SetHeader(contentTypeHeader, contentTypeJSONRPC)
	if token := strings.TrimSpace(configuration.Token); token != "" {
		httpClient.SetHeader(authorizationHeader, bearerTokenPrefix+token)
	}

	return &Client{
		httpClient: httpClient,
		logger:     logger.With(zap.String(logFieldAPIURLBase, apiURL)),
	}, nil
}

// Call invokes method with params and decodes the result into result when it is non-nil.
func (client *Client) Call(ctx context.Context, method string, params interface{}, result interface{}) error {
	requestID := client.lastRequestID.Add(1)
	request := rpcRequest{JSONRPC: jsonRPCVersion, Method: method, Params: params, ID: requestID}

	var response rpcResponse
	start := time.Now()
	httpResponse, transportErr := client.httpClient.R().
		SetContext(ctx).
		SetBody(request).
		SetResult(&response).
		Post(jsonRPCEndpointPath)
	duration := time.Since(start)
	if transportErr != nil {
		client.logger.Warn(logEventAPICall, zap.String(logFieldMethod, method), zap.Duration(logFieldDuration, duration), zap.Error(transportErr))
		return fmt.Errorf("%s: %s: %w", errorMessageTransport, method, transportErr)
	}

	fields := []zap.Field{
		zap.String(logFieldMethod, method),
		zap.Int64(logFieldRequestID, requestID),
		zap.Int(logFieldStatus, httpResponse.StatusCode()),
		zap.Duration(logFieldDuration, duration),
	}
	if httpResponse.IsError() {
		client.logger.Warn(logEventAPICall, fields...)
		return fmt.Errorf("%w: %s: %d", ErrUnexpectedStatus, method, httpResponse.StatusCode())
	}
	if response.Error != nil {
		client.logger.Warn(logEventAPICall, append(fields, zap.String(logFieldAPIError, response.Error.Error()))...)
		return fmt.Errorf("%s: %w", method, response.Error)
	}
	client.logger.Info(logEventAPICall, fields...)

	if response.ID != requestID {
		return fmt.Errorf("%w: %s: sent %d, received %d", ErrMismatchedResponse, method, requestID, response.ID)
	}
	if result == nil {
		return nil
	}
	if decodeErr := json.Unmarshal(response.Result, result); decodeErr != nil {
		return fmt.Errorf("%s: %s: %w", errorMessageDecodeResult, method, decodeErr)
	}
	return nil
}
