package geocoder

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/dmitrijs2005/tenantgov/internal/server/models"
)

const nominatimName = "nominatim"

// HTTPResolver queries a Nominatim compatible /reverse endpoint.
type HTTPResolver struct {
	baseURL   string
	userAgent string
	client    *http.Client
}

var _ Resolver = (*HTTPResolver)(nil)

func NewHTTPResolver(baseURL, userAgent string, timeout time.Duration) *HTTPResolver {
	return &HTTPResolver{
		baseURL:   strings.TrimRight(baseURL, "/"),
		userAgent: userAgent,
		client:    &http.Client{Timeout: timeout},
	}
}

func (r *HTTPResolver) Name() string {
	return nominatimName
}

func (r *HTTPResolver) IsFastOperation() bool {
	return false
}

type nominatimAddress struct {
	HouseNumber string `json:"house_number"`
	Road        string `json:"road"`
	City        string `json:"city"`
	Town        string `json:"town"`
	Village     string `json:"village"`
	State       string `json:"state"`
	Postcode    string `json:"postcode"`
	CountryCode string `json:"country_code"`
}

type nominatimResponse struct {
	DisplayName string           `json:"display_name"`
	Address     nominatimAddress `json:"address"`
	Error       string           `json:"error"`
}

func (r *HTTPResolver) ReverseGeocode(ctx context.Context, gp models.GeoPoint, fastOnly bool) (*Address, error) {
	if fastOnly {
		return nil, ErrSlowOperation
	}

	q := url.Values{}
	q.Set("format", "jsonv2")
	q.Set("addressdetails", "1")
	q.Set("lat", strconv.FormatFloat(gp.Latitude, 'f', 6, 64))
	q.Set("lon", strconv.FormatFloat(gp.Longitude, 'f', 6, 64))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, r.baseURL+"/reverse?"+q.Encode(), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	if r.userAgent != "" {
		req.Header.Set("User-Agent", r.userAgent)
	}

	resp, err := r.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("reverse geocode: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil, fmt.Errorf("reverse geocode: unexpected status %d", resp.StatusCode)
	}

	var body nominatimResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("reverse geocode: decode: %w", err)
	}
	if body.Error != "" || strings.TrimSpace(body.DisplayName) == "" {
		return nil, nil
	}

	a := body.Address
	city := a.City
	if city == "" {
		city = a.Town
	}
	if city == "" {
		city = a.Village
	}

	return &Address{
		FullAddress:   body.DisplayName,
		StreetAddress: strings.TrimSpace(a.HouseNumber + " " + a.Road),
		City:          city,
		StateProvince: a.State,
		PostalCode:    a.Postcode,
		CountryCode:   strings.ToUpper(a.CountryCode),
		Provider:      nominatimName,
	}, nil
}
