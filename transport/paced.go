package transport

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/vtelemetry/vsphere_sdk/common"
)

// Paced wraps another transport with a process-wide minimum spacing between
// the start times of successive calls, and accumulates latency statistics.
// The gate holds for every caller sharing the instance, regardless of which
// logical operation issues the call.
type Paced struct {
	next    Transport
	limiter *rate.Limiter // nil when no interval is configured
	logger  *zap.Logger

	mu    sync.Mutex // protects calls and total
	calls int64
	total time.Duration
}

var _ Transport = (*Paced)(nil)
var _ CookieCarrier = (*Paced)(nil)

// NewPaced creates a pacing wrapper around next. A minInterval of zero
// disables the gate; statistics are kept either way.
func NewPaced(next Transport, minInterval time.Duration, logger *zap.Logger) *Paced {
	if logger == nil {
		logger = zap.NewNop()
	}
	var limiter *rate.Limiter
	if minInterval > 0 {
		limiter = rate.NewLimiter(rate.Every(minInterval), 1)
	}
	return &Paced{
		next:    next,
		limiter: limiter,
		logger:  logger,
	}
}

// Call blocks until the pacing interval from the previous call start has
// elapsed, then delegates to the wrapped transport. The measured wall-clock
// latency is recorded and returned on the response.
func (p *Paced) Call(ctx context.Context, payload []byte) (*Response, error) {
	if p.limiter != nil {
		if err := p.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("%w: waiting for pacing interval: %v", common.ErrTransport, err)
		}
	}

	start := time.Now()
	resp, err := p.next.Call(ctx, payload)
	latency := time.Since(start)

	p.mu.Lock()
	p.calls++
	p.total += latency
	p.mu.Unlock()

	if err != nil {
		return nil, err
	}
	resp.Latency = latency

	p.logger.Debug("Transport call completed",
		zap.Duration("latency", latency),
		zap.Int("request_bytes", len(payload)),
		zap.Int("response_bytes", len(resp.Body)),
	)
	return resp, nil
}

// SetSessionCookie forwards the session cookie to the wrapped transport
// when it carries cookies
func (p *Paced) SetSessionCookie(cookie string) {
	if carrier, ok := p.next.(CookieCarrier); ok {
		carrier.SetSessionCookie(cookie)
	}
}

// Stats returns a snapshot of the accumulated call statistics
func (p *Paced) Stats() Stats {
	p.mu.Lock()
	defer p.mu.Unlock()

	stats := Stats{Calls: p.calls, Total: p.total}
	if p.calls > 0 {
		stats.Average = p.total / time.Duration(p.calls)
	}
	return stats
}
