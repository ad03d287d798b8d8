package domain

import (
	"context"
	"strings"
	"time"
)

// LatLng is an immutable WGS-84 point with an optional display name.
type LatLng struct {
	Lat  float64 `json:"lat"`
	Lng  float64 `json:"lng"`
	Name string  `json:"name,omitempty"`
}

// ParcelStatus is the lifecycle stage of a parcel.
type ParcelStatus string

const (
	StatusCollected      ParcelStatus = "Collected"
	StatusInTransit      ParcelStatus = "In Transit"
	StatusOutForDelivery ParcelStatus = "Out for Delivery"
	StatusDelivered      ParcelStatus = "Delivered"
)

// Statuses lists every status in delivery order.
var Statuses = []ParcelStatus{
	StatusCollected,
	StatusInTransit,
	StatusOutForDelivery,
	StatusDelivered,
}

// Rank returns the position of s in delivery order, or -1 if s is unknown.
func (s ParcelStatus) Rank() int {
	for i, known := range Statuses {
		if s == known {
			return i
		}
	}
	return -1
}

// Valid reports whether s is one of the known statuses.
func (s ParcelStatus) Valid() bool { return s.Rank() >= 0 }

var stepKeys = map[ParcelStatus]string{
	StatusCollected:      "Collected",
	StatusInTransit:      "InTransit",
	StatusOutForDelivery: "OutForDelivery",
	StatusDelivered:      "Delivered",
}

// StepKey is the localization key suffix for the status, e.g. "InTransit".
// Unknown statuses map to their raw value.
func (s ParcelStatus) StepKey() string {
	if k, ok := stepKeys[s]; ok {
		return k
	}
	return string(s)
}

// ActivityLog is one scan event in a parcel's history.
type ActivityLog struct {
	ID        string    `json:"id"`
	Status    string    `json:"status"`
	Location  string    `json:"location"`
	Timestamp time.Time `json:"timestamp"`
	Details   string    `json:"details"`
}

// ParcelData is everything known about a tracked parcel.
type ParcelData struct {
	TrackingID       string        `json:"tracking_id"`
	Status           ParcelStatus  `json:"status"`
	Origin           LatLng        `json:"origin"`
	Destination      LatLng        `json:"destination"`
	Current          LatLng        `json:"current"`
	ExpectedDelivery time.Time     `json:"expected_delivery"`
	Activities       []ActivityLog `json:"activities"`
	IsTrafficDelayed bool          `json:"is_traffic_delayed,omitempty"`
}

// LatestActivity returns the most recent activity, if any.
func (p ParcelData) LatestActivity() (ActivityLog, bool) {
	if len(p.Activities) == 0 {
		return ActivityLog{}, false
	}
	return p.Activities[0], true
}

// Progress reports the current step index and the completed fraction of the
// delivery lifecycle (0 for Collected, 1 for Delivered).
func (p ParcelData) Progress() (step int, ratio float64) {
	step = p.Status.Rank()
	if step < 0 {
		return -1, 0
	}
	return step, float64(step) / float64(len(Statuses)-1)
}

// NormalizeTrackingID trims surrounding whitespace and upper-cases id.
func NormalizeTrackingID(id string) string {
	return strings.ToUpper(strings.TrimSpace(id))
}

// ParcelStore resolves tracking IDs to parcels. Implementations return
// ErrNotFound for unknown IDs.
type ParcelStore interface {
	Lookup(ctx context.Context, trackingID string) (ParcelData, error)
}
