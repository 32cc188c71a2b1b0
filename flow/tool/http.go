package tool

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
)

// defaultMaxBodyBytes caps how much of an HTTP response AgentNode feeds
// back into the model as a tool result; a multi-megabyte page would blow
// past most models' context budgets in a single turn.
const defaultMaxBodyBytes = 1 << 20

// HTTPTool calls out to an HTTP API on the model's behalf: input carries
// method/url/headers/body, output carries status_code/headers/body.
//
// Input:
//   - url: target URL (required)
//   - method: "GET" or "POST" (defaults to GET)
//   - headers: optional map of request headers
//   - body: optional request body (sent with either method)
type HTTPTool struct {
	client       *http.Client
	maxBodyBytes int64
}

// NewHTTPTool returns an HTTPTool with a bare http.Client and the default
// response-body cap.
func NewHTTPTool() *HTTPTool {
	return &HTTPTool{client: &http.Client{}, maxBodyBytes: defaultMaxBodyBytes}
}

// WithMaxBodyBytes overrides how much of a response body is read before
// truncation. Returns the receiver for chaining at construction time.
func (h *HTTPTool) WithMaxBodyBytes(n int64) *HTTPTool {
	h.maxBodyBytes = n
	return h
}

// Name implements Tool.
func (h *HTTPTool) Name() string {
	return "http_request"
}

// Call implements Tool.
func (h *HTTPTool) Call(ctx context.Context, input map[string]interface{}) (map[string]interface{}, error) {
	urlStr, ok := input["url"].(string)
	if !ok || urlStr == "" {
		return nil, fmt.Errorf("url parameter required (string)")
	}

	method := "GET"
	if m, ok := input["method"].(string); ok && m != "" {
		method = strings.ToUpper(m)
	}
	if method != "GET" && method != "POST" {
		return nil, fmt.Errorf("unsupported HTTP method: %s (supported: GET, POST)", method)
	}

	var body io.Reader
	if bodyStr, ok := input["body"].(string); ok && bodyStr != "" {
		body = bytes.NewBufferString(bodyStr)
	}

	req, err := http.NewRequestWithContext(ctx, method, urlStr, body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	if headers, ok := input["headers"].(map[string]interface{}); ok {
		for key, value := range headers {
			if valueStr, ok := value.(string); ok {
				req.Header.Set(key, valueStr)
			}
		}
	}

	resp, err := h.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to execute request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	limit := h.maxBodyBytes
	if limit <= 0 {
		limit = defaultMaxBodyBytes
	}
	respBody, err := io.ReadAll(io.LimitReader(resp.Body, limit))
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	respHeaders := make(map[string]interface{})
	for key, values := range resp.Header {
		if len(values) == 1 {
			respHeaders[key] = values[0]
		} else {
			respHeaders[key] = values
		}
	}

	return map[string]interface{}{
		"status_code": resp.StatusCode,
		"headers":     respHeaders,
		"body":        string(respBody),
	}, nil
}
