package transport

import (
	"bytes"
	"context"
	"crypto/tls"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/vtelemetry/vsphere_sdk/common"
)

// Fixed request headers every call advertises
const (
	soapAction  = "urn:vim25/6.7"
	contentType = "text/xml; charset=utf-8"
	userAgent   = "vsphere_sdk-go/0.1.0"
)

// SOAP posts SOAP envelopes to a fixed endpoint URL over HTTP. After login
// the session cookie set through SetSessionCookie rides along on every
// subsequent call.
type SOAP struct {
	endpoint string
	client   *http.Client
	timeout  time.Duration
	logger   *zap.Logger

	mu     sync.Mutex // protects cookie
	cookie string
}

var _ Transport = (*SOAP)(nil)
var _ CookieCarrier = (*SOAP)(nil)

// NewSOAP creates an HTTP SOAP transport. insecureSkipVerify disables TLS
// certificate verification; timeout bounds each call, zero means no bound
// beyond the caller's context.
func NewSOAP(endpoint string, insecureSkipVerify bool, timeout time.Duration, logger *zap.Logger) *SOAP {
	if logger == nil {
		logger = zap.NewNop()
	}

	httpTransport := &http.Transport{}
	if insecureSkipVerify {
		httpTransport.TLSClientConfig = &tls.Config{InsecureSkipVerify: true}
	}

	return &SOAP{
		endpoint: endpoint,
		client:   &http.Client{Transport: httpTransport},
		timeout:  timeout,
		logger:   logger,
	}
}

// SetSessionCookie sets the opaque session token attached to subsequent
// calls. The value is replayed verbatim in the Cookie header, never parsed.
func (s *SOAP) SetSessionCookie(cookie string) {
	s.mu.Lock()
	s.cookie = cookie
	s.mu.Unlock()
}

// Call posts one envelope and returns the raw response. Network and TLS
// failures, timeouts, and non-2xx statuses wrap common.ErrTransport.
func (s *SOAP) Call(ctx context.Context, payload []byte) (*Response, error) {
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.endpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("%w: building request: %v", common.ErrTransport, err)
	}
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("SOAPAction", soapAction)
	req.Header.Set("User-Agent", userAgent)

	s.mu.Lock()
	cookie := s.cookie
	s.mu.Unlock()
	if cookie != "" {
		req.Header.Set("Cookie", cookie)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrTransport, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: reading response body: %v", common.ErrTransport, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		s.logger.Warn("Endpoint returned error status",
			zap.Int("status", resp.StatusCode),
			zap.Int("body_bytes", len(body)),
		)
		return nil, fmt.Errorf("%w: endpoint returned status %d", common.ErrTransport, resp.StatusCode)
	}

	return &Response{Body: body, Headers: resp.Header}, nil
}
