// Package notify holds the session's notification feed.
package notify

import (
	"sync"

	"github.com/couchcryptid/parcel-delay-service/internal/domain"
	"github.com/couchcryptid/parcel-delay-service/internal/observability"
	"github.com/google/uuid"
)

// Center is an ordered, deduplicated notification feed, newest first.
// Items are never removed; only their read flag changes.
type Center struct {
	mu      sync.Mutex
	items   []domain.NotificationItem
	keys    map[domain.AlertKey]struct{}
	metrics *observability.Metrics
}

// NewCenter returns an empty feed.
func NewCenter(metrics *observability.Metrics) *Center {
	return &Center{
		keys:    make(map[domain.AlertKey]struct{}),
		metrics: metrics,
	}
}

// InsertIfAbsent prepends item unless an item with the same non-zero key is
// already in the feed, read or not. A missing ID or timestamp is filled in.
// It returns the stored item and whether it was inserted.
func (c *Center) InsertIfAbsent(item domain.NotificationItem) (domain.NotificationItem, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !item.Key.IsZero() {
		if _, ok := c.keys[item.Key]; ok {
			c.metrics.Notifications.WithLabelValues("deduplicated").Inc()
			return domain.NotificationItem{}, false
		}
		c.keys[item.Key] = struct{}{}
	}

	if item.ID == "" {
		item.ID = uuid.NewString()
	}
	if item.Timestamp.IsZero() {
		item.Timestamp = domain.Now()
	}

	c.items = append([]domain.NotificationItem{item}, c.items...)
	c.metrics.Notifications.WithLabelValues("inserted").Inc()
	c.updateUnread()
	return item, true
}

// MarkRead sets the read flag on the item with the given id. Unknown ids
// are ignored. It reports whether the flag changed.
func (c *Center) MarkRead(id string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	for i := range c.items {
		if c.items[i].ID != id {
			continue
		}
		if c.items[i].Read {
			return false
		}
		c.items[i].Read = true
		c.updateUnread()
		return true
	}
	return false
}

// Has reports whether an alert for key is already in the feed.
func (c *Center) Has(key domain.AlertKey) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.keys[key]
	return ok
}

// UnreadCount returns the number of unread items.
func (c *Center) UnreadCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.unreadLocked()
}

// Items returns a snapshot of the feed, newest first.
func (c *Center) Items() []domain.NotificationItem {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]domain.NotificationItem, len(c.items))
	copy(out, c.items)
	return out
}

func (c *Center) unreadLocked() int {
	n := 0
	for _, it := range c.items {
		if !it.Read {
			n++
		}
	}
	return n
}

func (c *Center) updateUnread() {
	c.metrics.NotificationsUnread.Set(float64(c.unreadLocked()))
}
