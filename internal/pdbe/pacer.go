package pdbe

import (
	"context"
	"time"

	"golang.org/x/time/rate"
)

// DefaultDelay is the courtesy pause taken before every upstream request.
const DefaultDelay = time.Second

// Paced wraps a Fetcher so that every call waits one interval before it is
// forwarded. Consecutive calls are spaced at least one interval apart.
//
// Paced is safe for concurrent use.
type Paced struct {
	next    Fetcher
	limiter *rate.Limiter
}

// NewPaced returns next wrapped with a delay-sized token bucket of depth one.
// A non-positive delay disables pacing.
func NewPaced(next Fetcher, delay time.Duration) *Paced {
	p := &Paced{next: next}
	if delay > 0 {
		p.limiter = rate.NewLimiter(rate.Every(delay), 1)
	}
	return p
}

// Fetch waits for the pacing interval, then delegates to the wrapped Fetcher.
// If ctx ends first, its error is returned and no request is made.
func (p *Paced) Fetch(ctx context.Context, code string) ([]byte, error) {
	if p.limiter != nil {
		// Spend an idle token so even the first call waits a full interval.
		p.limiter.Allow()
		if err := p.limiter.Wait(ctx); err != nil {
			return nil, err
		}
	}
	return p.next.Fetch(ctx, code)
}
