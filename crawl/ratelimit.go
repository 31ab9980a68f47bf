package crawl

import (
	"context"
	"sync"

	"github.com/fwojciec/dockb"
	"golang.org/x/time/rate"
)

// DefaultRequestsPerSecond is the politeness limit applied to each host.
const DefaultRequestsPerSecond = 2.0

var _ dockb.DomainLimiter = (*DomainLimiter)(nil)

// DomainLimiter keeps one token bucket per host, so requests to different
// hosts proceed concurrently while each host sees at most rps requests per
// second. Buckets have a burst of 1.
type DomainLimiter struct {
	mu       sync.Mutex
	limiters map[string]*rate.Limiter
	limit    rate.Limit
}

// NewDomainLimiter creates a new DomainLimiter. A non-positive rps disables
// limiting.
func NewDomainLimiter(rps float64) *DomainLimiter {
	limit := rate.Limit(rps)
	if rps <= 0 {
		limit = rate.Inf
	}
	return &DomainLimiter{
		limiters: make(map[string]*rate.Limiter),
		limit:    limit,
	}
}

// Wait blocks until the bucket of domain has a token.
// Returns an error if the context is canceled before the wait completes.
func (d *DomainLimiter) Wait(ctx context.Context, domain string) error {
	return d.limiter(domain).Wait(ctx)
}

func (d *DomainLimiter) limiter(domain string) *rate.Limiter {
	d.mu.Lock()
	defer d.mu.Unlock()

	l, ok := d.limiters[domain]
	if !ok {
		l = rate.NewLimiter(d.limit, 1)
		d.limiters[domain] = l
	}
	return l
}
