package geocoder

import (
	"context"
	"math"
	"time"

	"github.com/dmitrijs2005/tenantgov/internal/server/models"
	"github.com/hashicorp/golang-lru/v2/expirable"
)

const (
	DefaultCacheSize   = 3000
	DefaultCacheMaxAge = 7 * 24 * time.Hour
)

// cacheKey is the position rounded to four decimals (about 11 m).
type cacheKey struct {
	lat, lon int64
}

func keyOf(gp models.GeoPoint) cacheKey {
	return cacheKey{
		lat: int64(math.Round(gp.Latitude * 1e4)),
		lon: int64(math.Round(gp.Longitude * 1e4)),
	}
}

// Cached remembers full addresses returned by next in a size-bounded LRU.
// Entries expire maxAge after they were stored. Misses and errors are not
// cached.
type Cached struct {
	next Resolver
	lru  *expirable.LRU[cacheKey, *Address]
}

var _ Resolver = (*Cached)(nil)

func NewCached(next Resolver, size int, maxAge time.Duration) *Cached {
	if size <= 0 {
		size = DefaultCacheSize
	}
	if maxAge <= 0 {
		maxAge = DefaultCacheMaxAge
	}
	return &Cached{
		next: next,
		lru:  expirable.NewLRU[cacheKey, *Address](size, nil, maxAge),
	}
}

func (c *Cached) Name() string {
	return c.next.Name()
}

func (c *Cached) IsFastOperation() bool {
	return c.next.IsFastOperation()
}

func (c *Cached) Len() int {
	return c.lru.Len()
}

func (c *Cached) ReverseGeocode(ctx context.Context, gp models.GeoPoint, fastOnly bool) (*Address, error) {
	k := keyOf(gp)
	if addr, ok := c.lru.Get(k); ok {
		return addr, nil
	}

	addr, err := c.next.ReverseGeocode(ctx, gp, fastOnly)
	if err != nil || !addr.HasFullAddress() {
		return addr, err
	}
	c.lru.Add(k, addr)
	return addr, nil
}
