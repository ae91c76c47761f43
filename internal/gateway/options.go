package gateway

import (
	"encoding/json"
	"fmt"
	"net/http"
	"slices"
)

// CallOptions tune a single gateway call.
type CallOptions struct {
	// Expected lists statuses that are a valid answer for this call
	// rather than an error (e.g. 404 for an existence probe).
	Expected []int
	// KeepSession calls still carry the bearer token, but a 401 on them
	// does not end the current session. Used by the login endpoints, where
	// a 401 means "wrong credentials" rather than "stale token".
	KeepSession bool
	// Operation labels metrics and spans; defaults to "METHOD path".
	Operation string
}

// CallOption configures CallOptions.
type CallOption func(*CallOptions)

// Expect declares statuses that are not errors for this call.
func Expect(statuses ...int) CallOption {
	return func(o *CallOptions) { o.Expected = append(o.Expected, statuses...) }
}

// KeepSession leaves the current session alone when the call gets a 401.
func KeepSession() CallOption {
	return func(o *CallOptions) { o.KeepSession = true }
}

// Operation names the call for metrics and tracing.
func Operation(name string) CallOption {
	return func(o *CallOptions) { o.Operation = name }
}

// ResolveOptions applies opts in order.
func ResolveOptions(opts []CallOption) CallOptions {
	var o CallOptions
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// Expects reports whether status was declared non-erroneous.
func (o CallOptions) Expects(status int) bool {
	return slices.Contains(o.Expected, status)
}

// Response is a successful (or expected) answer from the API.
type Response struct {
	StatusCode int
	Header     http.Header
	Body       []byte
}

// OK reports a 2xx status.
func (r *Response) OK() bool {
	return r.StatusCode >= 200 && r.StatusCode < 300
}

// Decode unmarshals the JSON body into v.
func (r *Response) Decode(v any) error {
	if len(r.Body) == 0 {
		return fmt.Errorf("decode response: empty body")
	}
	if err := json.Unmarshal(r.Body, v); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
