// Package transport sends SOAP payloads to the remote endpoint and spaces
// consecutive calls.
package transport

import (
	"context"
	"net/http"
	"time"
)

// Response is the raw outcome of one transport call
type Response struct {
	// Body raw response bytes
	Body []byte
	// Headers response headers
	Headers http.Header
	// Latency wall-clock duration of the call, filled by the pacing layer
	Latency time.Duration
}

// Transport sends one request payload and returns the raw response.
// Implementations never retry; failures go back to the caller.
type Transport interface {
	Call(ctx context.Context, payload []byte) (*Response, error)
}

// CookieCarrier is implemented by transports that attach a session cookie
// to subsequent calls
type CookieCarrier interface {
	SetSessionCookie(cookie string)
}

// Stats is a snapshot of accumulated call statistics
type Stats struct {
	// Calls number of calls issued
	Calls int64
	// Total accumulated wall-clock time across all calls
	Total time.Duration
	// Average rolling average latency, zero before the first call
	Average time.Duration
}
