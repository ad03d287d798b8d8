package domain

import "time"

// NotificationType controls how an alert is rendered.
type NotificationType string

const (
	NotificationInfo    NotificationType = "info"
	NotificationWarning NotificationType = "warning"
	NotificationSuccess NotificationType = "success"
)

// EventKind names the condition an alert reports on.
type EventKind string

// EventDelay is a predicted delivery delay.
const EventDelay EventKind = "delay"

// AlertKey identifies the subject of an alert. At most one alert exists per
// key within a session.
type AlertKey struct {
	TrackingID string    `json:"tracking_id"`
	Kind       EventKind `json:"kind"`
}

// IsZero reports whether k is unset. Unkeyed notifications are never
// deduplicated.
func (k AlertKey) IsZero() bool { return k.TrackingID == "" && k.Kind == "" }

// NotificationItem is one entry in the notification feed. Only Read changes
// after insertion.
type NotificationItem struct {
	ID        string           `json:"id"`
	Title     string           `json:"title"`
	Message   string           `json:"message"`
	Type      NotificationType `json:"type"`
	Timestamp time.Time        `json:"timestamp"`
	Read      bool             `json:"read"`
	Key       AlertKey         `json:"key"`
}

// DelayAlert is the feed event emitted when a new delay alert is inserted.
type DelayAlert struct {
	NotificationID string    `json:"notification_id"`
	TrackingID     string    `json:"tracking_id"`
	Kind           EventKind `json:"kind"`
	Title          string    `json:"title"`
	Message        string    `json:"message"`
	DelayHours     int       `json:"delay_hours"`
	Confidence     int       `json:"confidence"`
	Condition      string    `json:"condition"`
	Traffic        bool      `json:"traffic"`
	CreatedAt      time.Time `json:"created_at"`
}
