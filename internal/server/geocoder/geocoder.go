// Package geocoder turns positions into postal addresses.
package geocoder

import (
	"context"
	"errors"
	"strings"

	"github.com/dmitrijs2005/tenantgov/internal/server/models"
)

// ErrSlowOperation is returned when fastOnly is requested from a resolver
// that can only answer slowly (a remote call).
var ErrSlowOperation = errors.New("geocoder: slow operation not allowed")

type Address struct {
	FullAddress   string
	StreetAddress string
	City          string
	StateProvince string
	PostalCode    string
	CountryCode   string
	Provider      string
}

func (a *Address) HasFullAddress() bool {
	return a != nil && strings.TrimSpace(a.FullAddress) != ""
}

// Resolver reverse geocodes positions. A nil address with a nil error
// means the provider has no address for the point.
type Resolver interface {
	Name() string
	IsFastOperation() bool
	ReverseGeocode(ctx context.Context, gp models.GeoPoint, fastOnly bool) (*Address, error)
}
