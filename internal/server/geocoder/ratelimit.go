package geocoder

import (
	"context"
	"time"

	"github.com/dmitrijs2005/tenantgov/internal/server/models"
	"golang.org/x/time/rate"
)

// RateLimited spaces calls to a provider by at least a minimum interval.
type RateLimited struct {
	next    Resolver
	limiter *rate.Limiter
}

var _ Resolver = (*RateLimited)(nil)

// NewRateLimited wraps next. minInterval <= 0 returns next unchanged.
func NewRateLimited(next Resolver, minInterval time.Duration) Resolver {
	if minInterval <= 0 {
		return next
	}
	return &RateLimited{next: next, limiter: rate.NewLimiter(rate.Every(minInterval), 1)}
}

func (r *RateLimited) Name() string {
	return r.next.Name()
}

func (r *RateLimited) IsFastOperation() bool {
	return r.next.IsFastOperation()
}

func (r *RateLimited) ReverseGeocode(ctx context.Context, gp models.GeoPoint, fastOnly bool) (*Address, error) {
	if fastOnly && !r.next.IsFastOperation() {
		return nil, ErrSlowOperation
	}
	if err := r.limiter.Wait(ctx); err != nil {
		return nil, err
	}
	return r.next.ReverseGeocode(ctx, gp, fastOnly)
}
