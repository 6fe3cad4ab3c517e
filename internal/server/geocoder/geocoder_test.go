package geocoder

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/dmitrijs2005/tenantgov/internal/server/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeResolver struct {
	fast  bool
	addr  *Address
	err   error
	calls atomic.Int32
}

func (f *fakeResolver) Name() string          { return "fake" }
func (f *fakeResolver) IsFastOperation() bool { return f.fast }
func (f *fakeResolver) ReverseGeocode(ctx context.Context, gp models.GeoPoint, fastOnly bool) (*Address, error) {
	f.calls.Add(1)
	return f.addr, f.err
}

var riga = models.GeoPoint{Latitude: 56.9496, Longitude: 24.1052}

func TestHTTPResolver_ReverseGeocode(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/reverse", r.URL.Path)
		assert.Equal(t, "jsonv2", r.URL.Query().Get("format"))
		assert.Equal(t, "56.949600", r.URL.Query().Get("lat"))
		assert.Equal(t, "24.105200", r.URL.Query().Get("lon"))
		assert.Equal(t, "tenantgov-test", r.Header.Get("User-Agent"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"display_name": "1 Brivibas iela, Riga, LV-1050, Latvia",
			"address": {"house_number": "1", "road": "Brivibas iela", "town": "Riga",
				"state": "Riga", "postcode": "LV-1050", "country_code": "lv"}
		}`))
	}))
	defer srv.Close()

	r := NewHTTPResolver(srv.URL+"/", "tenantgov-test", time.Second)
	addr, err := r.ReverseGeocode(context.Background(), riga, false)
	require.NoError(t, err)
	require.NotNil(t, addr)

	assert.Equal(t, "1 Brivibas iela, Riga, LV-1050, Latvia", addr.FullAddress)
	assert.Equal(t, "1 Brivibas iela", addr.StreetAddress)
	assert.Equal(t, "Riga", addr.City)
	assert.Equal(t, "LV-1050", addr.PostalCode)
	assert.Equal(t, "LV", addr.CountryCode)
	assert.Equal(t, "nominatim", addr.Provider)
	assert.True(t, addr.HasFullAddress())
}

func TestHTTPResolver_NoAddress(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"error": "Unable to geocode"}`))
	}))
	defer srv.Close()

	addr, err := NewHTTPResolver(srv.URL, "", time.Second).ReverseGeocode(context.Background(), riga, false)
	require.NoError(t, err)
	assert.Nil(t, addr)
	assert.False(t, addr.HasFullAddress())
}

func TestHTTPResolver_Errors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("lat") == "1.000000" {
			_, _ = w.Write([]byte(`not json`))
			return
		}
		http.Error(w, "slow down", http.StatusTooManyRequests)
	}))
	defer srv.Close()

	r := NewHTTPResolver(srv.URL, "", time.Second)

	_, err := r.ReverseGeocode(context.Background(), riga, false)
	assert.ErrorContains(t, err, "429")

	_, err = r.ReverseGeocode(context.Background(), models.GeoPoint{Latitude: 1, Longitude: 1}, false)
	assert.ErrorContains(t, err, "decode")

	_, err = r.ReverseGeocode(context.Background(), riga, true)
	assert.ErrorIs(t, err, ErrSlowOperation)
	assert.False(t, r.IsFastOperation())
}

func TestRateLimited(t *testing.T) {
	next := &fakeResolver{addr: &Address{FullAddress: "x"}}

	assert.Same(t, Resolver(next), NewRateLimited(next, 0))

	r := NewRateLimited(next, 50*time.Millisecond)
	assert.Equal(t, "fake", r.Name())

	start := time.Now()
	for i := 0; i < 3; i++ {
		_, err := r.ReverseGeocode(context.Background(), riga, false)
		require.NoError(t, err)
	}
	assert.GreaterOrEqual(t, time.Since(start), 90*time.Millisecond)
	assert.Equal(t, int32(3), next.calls.Load())

	_, err := r.ReverseGeocode(context.Background(), riga, true)
	assert.ErrorIs(t, err, ErrSlowOperation)
	assert.Equal(t, int32(3), next.calls.Load())
}

func TestRateLimited_ContextCancelled(t *testing.T) {
	next := &fakeResolver{addr: &Address{FullAddress: "x"}}
	r := NewRateLimited(next, time.Hour)

	_, err := r.ReverseGeocode(context.Background(), riga, false)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = r.ReverseGeocode(ctx, riga, false)
	assert.Error(t, err)
	assert.Equal(t, int32(1), next.calls.Load())
}

func TestCached(t *testing.T) {
	next := &fakeResolver{addr: &Address{FullAddress: "Riga"}}
	c := NewCached(next, 2, time.Minute)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		addr, err := c.ReverseGeocode(ctx, riga, false)
		require.NoError(t, err)
		assert.Equal(t, "Riga", addr.FullAddress)
	}
	assert.Equal(t, int32(1), next.calls.Load())

	nearby := models.GeoPoint{Latitude: riga.Latitude + 0.00001, Longitude: riga.Longitude}
	_, err := c.ReverseGeocode(ctx, nearby, true)
	require.NoError(t, err)
	assert.Equal(t, int32(1), next.calls.Load(), "same rounded cell, served from cache")

	_, _ = c.ReverseGeocode(ctx, models.GeoPoint{Latitude: 1, Longitude: 1}, false)
	_, _ = c.ReverseGeocode(ctx, models.GeoPoint{Latitude: 2, Longitude: 2}, false)
	assert.Equal(t, 2, c.Len(), "bounded by size")
}

func TestCached_EvictsLeastRecentlyUsed(t *testing.T) {
	next := &fakeResolver{addr: &Address{FullAddress: "somewhere"}}
	c := NewCached(next, 2, time.Minute)
	ctx := context.Background()

	a := models.GeoPoint{Latitude: 1, Longitude: 1}
	b := models.GeoPoint{Latitude: 2, Longitude: 2}
	d := models.GeoPoint{Latitude: 3, Longitude: 3}

	_, _ = c.ReverseGeocode(ctx, a, false)
	_, _ = c.ReverseGeocode(ctx, b, false)
	_, _ = c.ReverseGeocode(ctx, a, false) // hit, a becomes most recent
	require.Equal(t, int32(2), next.calls.Load())

	_, _ = c.ReverseGeocode(ctx, d, false) // evicts b
	require.Equal(t, int32(3), next.calls.Load())

	_, _ = c.ReverseGeocode(ctx, a, false)
	assert.Equal(t, int32(3), next.calls.Load(), "recently used entry kept")

	_, _ = c.ReverseGeocode(ctx, b, false)
	assert.Equal(t, int32(4), next.calls.Load(), "least recently used entry evicted")
}

func TestCached_EntriesExpire(t *testing.T) {
	next := &fakeResolver{addr: &Address{FullAddress: "Riga"}}
	c := NewCached(next, 10, 20*time.Millisecond)
	ctx := context.Background()

	_, err := c.ReverseGeocode(ctx, riga, false)
	require.NoError(t, err)

	assert.Eventually(t, func() bool {
		_, _ = c.ReverseGeocode(ctx, riga, false)
		return next.calls.Load() >= 2
	}, 2*time.Second, 10*time.Millisecond, "expired entry refetched")
}

func TestCached_DoesNotStoreMisses(t *testing.T) {
	next := &fakeResolver{}
	c := NewCached(next, 0, 0)

	addr, err := c.ReverseGeocode(context.Background(), riga, false)
	require.NoError(t, err)
	assert.Nil(t, addr)

	next.err = errors.New("down")
	_, err = c.ReverseGeocode(context.Background(), riga, false)
	assert.Error(t, err)
	assert.Equal(t, 0, c.Len())
	assert.Equal(t, int32(2), next.calls.Load())
}
