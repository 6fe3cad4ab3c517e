package models

import (
	"fmt"
	"math"
	"strings"
)

// GeoPoint is a WGS84 position in decimal degrees.
type GeoPoint struct {
	Latitude  float64
	Longitude float64
}

// IsValid rejects out-of-range coordinates and the (0,0) placeholder that
// devices report when they have no fix.
func (p GeoPoint) IsValid() bool {
	if math.IsNaN(p.Latitude) || math.IsNaN(p.Longitude) {
		return false
	}
	if math.Abs(p.Latitude) > 90 || math.Abs(p.Longitude) > 180 {
		return false
	}
	return math.Abs(p.Latitude) >= 0.0001 || math.Abs(p.Longitude) >= 0.0001
}

func (p GeoPoint) String() string {
	return fmt.Sprintf("%.5f,%.5f", p.Latitude, p.Longitude)
}

// EventRecord is one historical position report of a device.
type EventRecord struct {
	AccountID  string
	DeviceID   string
	Timestamp  int64
	StatusCode int
	GeoPoint   GeoPoint
	Address    string
}

// HasAddress reports whether the record already carries an address.
func (e *EventRecord) HasAddress() bool {
	return strings.TrimSpace(e.Address) != ""
}
