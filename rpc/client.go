// Package rpc is a minimal HTTP JSON-RPC 2.0 client addressed by chain ID.
package rpc

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync/atomic"
	"time"

	goerrors "github.com/goliatone/go-errors"
	glog "github.com/goliatone/go-logger/glog"

	"github.com/goliatone/go-custody/core"
)

const (
	defaultResponseBodyLimit int64 = 10 << 20 // 10 MiB
	jsonRPCVersion                 = "2.0"
)

type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

type Client struct {
	httpClient           HTTPDoer
	endpoints            map[string]string
	headers              map[string]string
	maxResponseBodyBytes int64
	logger               core.Logger
	nextID               atomic.Uint64
}

type Option func(*Client)

func WithHTTPClient(client HTTPDoer) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

func WithHeader(key string, value string) Option {
	return func(c *Client) {
		if key = strings.TrimSpace(key); key != "" {
			c.headers[key] = strings.TrimSpace(value)
		}
	}
}

func WithMaxResponseBodyBytes(limit int64) Option {
	return func(c *Client) {
		if limit > 0 {
			c.maxResponseBodyBytes = limit
		}
	}
}

func WithLogger(logger core.Logger) Option {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// NewClient builds a client for endpoints keyed by chain ID. Keys are used
// exactly as given. The default HTTP client has no timeout of its own, so
// request deadlines come from the caller's context.
func NewClient(endpoints map[string]string, opts ...Option) *Client {
	client := &Client{
		httpClient:           &http.Client{},
		endpoints:            make(map[string]string, len(endpoints)),
		headers:              map[string]string{},
		maxResponseBodyBytes: defaultResponseBodyLimit,
		logger:               glog.Nop(),
	}
	for chainID, endpoint := range endpoints {
		if endpoint = strings.TrimSpace(endpoint); endpoint != "" {
			client.endpoints[chainID] = endpoint
		}
	}
	for _, opt := range opts {
		if opt != nil {
			opt(client)
		}
	}
	return client
}

type request struct {
	JSONRPC string `json:"jsonrpc"`
	ID      uint64 `json:"id"`
	Method  string `json:"method"`
	Params  []any  `json:"params"`
}

type responseError struct {
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data,omitempty"`
}

type response struct {
	Result json.RawMessage `json:"result"`
	Error  *responseError  `json:"error"`
}

// Call posts a JSON-RPC request to the endpoint registered for chainID.
// Remote failures are returned as *core.RPCError; a missing endpoint wraps
// core.ErrRPCEndpointNotConfigured.
func (c *Client) Call(ctx context.Context, chainID string, method string, params ...any) (json.RawMessage, error) {
	if c == nil || c.httpClient == nil {
		return nil, rpcError(
			"rpc: client requires an http client",
			goerrors.CategoryInternal,
			http.StatusInternalServerError,
			nil,
		)
	}
	if ctx == nil {
		ctx = context.Background()
	}
	endpoint, ok := c.endpoints[chainID]
	if !ok {
		return nil, fmt.Errorf("%w: chain %q", core.ErrRPCEndpointNotConfigured, chainID)
	}
	if params == nil {
		params = []any{}
	}

	body, err := json.Marshal(request{
		JSONRPC: jsonRPCVersion,
		ID:      c.nextID.Add(1),
		Method:  method,
		Params:  params,
	})
	if err != nil {
		return nil, rpcWrapError(err, goerrors.CategoryBadInput, "rpc: encode request", http.StatusBadRequest,
			map[string]any{"method": method, "chain_id": chainID})
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, rpcWrapError(err, goerrors.CategoryBadInput, "rpc: create http request", http.StatusBadRequest,
			map[string]any{"method": method, "chain_id": chainID})
	}
	httpReq.Header.Set("Content-Type", "application/json")
	for key, value := range c.headers {
		httpReq.Header.Set(key, value)
	}

	startedAt := time.Now().UTC()
	httpRes, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, rpcWrapError(err, goerrors.CategoryExternal, "rpc: execute http request", http.StatusBadGateway,
			map[string]any{"method": method, "chain_id": chainID})
	}
	defer httpRes.Body.Close()

	payload, err := io.ReadAll(io.LimitReader(httpRes.Body, c.maxResponseBodyBytes+1))
	if err != nil {
		return nil, rpcWrapError(err, goerrors.CategoryExternal, "rpc: read response body", http.StatusBadGateway,
			map[string]any{"method": method, "chain_id": chainID, "status_code": httpRes.StatusCode})
	}
	if int64(len(payload)) > c.maxResponseBodyBytes {
		return nil, rpcError(
			fmt.Sprintf("rpc: response body exceeds limit of %d bytes", c.maxResponseBodyBytes),
			goerrors.CategoryExternal,
			http.StatusBadGateway,
			map[string]any{"method": method, "chain_id": chainID, "response_limit_b": c.maxResponseBodyBytes},
		)
	}
	c.logger.Debug("rpc call completed",
		"chain_id", chainID,
		"method", method,
		"status_code", httpRes.StatusCode,
		"duration_ms", time.Since(startedAt).Milliseconds(),
	)

	if httpRes.StatusCode < 200 || httpRes.StatusCode > 299 {
		return nil, &core.RPCError{
			ChainID:    chainID,
			Method:     method,
			HTTPStatus: httpRes.StatusCode,
			Message:    http.StatusText(httpRes.StatusCode),
		}
	}

	var decoded response
	if err := json.Unmarshal(payload, &decoded); err != nil {
		return nil, rpcWrapError(err, goerrors.CategoryExternal, "rpc: decode response", http.StatusBadGateway,
			map[string]any{"method": method, "chain_id": chainID})
	}
	if decoded.Error != nil {
		rpcErr := &core.RPCError{
			ChainID: chainID,
			Method:  method,
			Code:    decoded.Error.Code,
			Message: decoded.Error.Message,
		}
		if len(decoded.Error.Data) > 0 {
			rpcErr.Data = decoded.Error.Data
		}
		return nil, rpcErr
	}
	return decoded.Result, nil
}

// Endpoint reports the endpoint configured for chainID.
func (c *Client) Endpoint(chainID string) (string, bool) {
	if c == nil {
		return "", false
	}
	endpoint, ok := c.endpoints[chainID]
	return endpoint, ok
}

func rpcError(message string, category goerrors.Category, code int, metadata map[string]any) error {
	err := goerrors.New(message, category).
		WithCode(code).
		WithTextCode(textCode(category))
	if len(metadata) > 0 {
		err.WithMetadata(metadata)
	}
	return err
}

func rpcWrapError(source error, category goerrors.Category, message string, code int, metadata map[string]any) error {
	if source == nil {
		return rpcError(message, category, code, metadata)
	}
	err := goerrors.Wrap(source, category, message).
		WithCode(code).
		WithTextCode(textCode(category))
	if len(metadata) > 0 {
		err.WithMetadata(metadata)
	}
	return err
}

func textCode(category goerrors.Category) string {
	switch category {
	case goerrors.CategoryBadInput, goerrors.CategoryValidation:
		return core.ServiceErrorBadInput
	case goerrors.CategoryExternal:
		return core.ServiceErrorExternal
	default:
		return core.ServiceErrorInternal
	}
}

var _ core.ChainRPC = (*Client)(nil)
