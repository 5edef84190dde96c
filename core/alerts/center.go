// Package alerts holds the geofence alert snapshot and its read-state. Read
// state is monotonic for the session: once the dispatcher marks an alert
// read it stays out of the unread view even if the backend write fails or a
// later refresh still reports it unread.
package alerts

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/fieldline/dispatch/core/events"
	"github.com/fieldline/dispatch/core/logger"
	"github.com/fieldline/dispatch/core/model"
	"github.com/fieldline/dispatch/internal/eventbus"
)

// Backend is the subset of the field-service API the center consumes.
type Backend interface {
	ListGeofenceAlerts(ctx context.Context) ([]model.GeofenceAlert, error)
	MarkAlertRead(ctx context.Context, alertID string) error
}

// Center owns the alert snapshot for one dispatcher session.
type Center struct {
	backend Backend
	bus     eventbus.EventBus
	log     logger.Logger

	mu     sync.RWMutex
	alerts []model.GeofenceAlert
	read   map[string]bool // session-sticky read overlay
}

// New creates a Center. The bus may be nil.
func New(backend Backend, bus eventbus.EventBus, log logger.Logger) *Center {
	return &Center{backend: backend, bus: bus, log: log, read: make(map[string]bool)}
}

// Refresh replaces the alert snapshot from the backend. Like the entity
// store refreshes it never returns an error: failures degrade to an empty
// snapshot plus a log entry because the refresh also runs from a timer.
func (c *Center) Refresh(ctx context.Context) {
	start := time.Now()
	alerts, err := c.backend.ListGeofenceAlerts(ctx)
	if err != nil {
		c.log.Warnf("alerts refresh degraded: %v", err)
		alerts = nil
	}
	c.Ingest(alerts)
	if c.bus != nil {
		c.bus.Publish(events.AlertsReplaced{
			Count:    len(alerts),
			Unread:   c.UnreadCount(),
			Degraded: err != nil,
			Took:     time.Since(start),
		})
	}
}

// Ingest replaces the snapshot wholesale, re-applying the session's read
// overlay on top of the server-reported flags.
func (c *Center) Ingest(alerts []model.GeofenceAlert) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.alerts = make([]model.GeofenceAlert, len(alerts))
	copy(c.alerts, alerts)
	for i := range c.alerts {
		if c.read[c.alerts[i].ID] {
			c.alerts[i].Read = true
		}
	}
}

// Alerts returns a copy of the full snapshot.
func (c *Center) Alerts() []model.GeofenceAlert {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return append([]model.GeofenceAlert(nil), c.alerts...)
}

// Unread returns the alerts still unread; this is the only list the alerts
// panel renders. Derived on read, never cached.
func (c *Center) Unread() []model.GeofenceAlert {
	c.mu.RLock()
	defer c.mu.RUnlock()
	var out []model.GeofenceAlert
	for _, a := range c.alerts {
		if !a.Read {
			out = append(out, a)
		}
	}
	return out
}

// UnreadCount returns the number of unread alerts.
func (c *Center) UnreadCount() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	n := 0
	for _, a := range c.alerts {
		if !a.Read {
			n++
		}
	}
	return n
}

// MarkRead optimistically flips the alert to read and persists the flag in
// the background. A persistence failure is logged but never rolled back.
// Marking an already-read alert is a no-op.
func (c *Center) MarkRead(alertID string) {
	c.mu.Lock()
	if c.read[alertID] {
		c.mu.Unlock()
		return
	}
	c.read[alertID] = true
	already := false
	for i := range c.alerts {
		if c.alerts[i].ID == alertID {
			already = c.alerts[i].Read
			c.alerts[i].Read = true
			break
		}
	}
	c.mu.Unlock()
	if already {
		return
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := c.backend.MarkAlertRead(ctx, alertID); err != nil {
			c.log.Warnf("mark alert %s read failed: %v", alertID, err)
		}
	}()
}

// RelativeAge renders an alert's age for display. It is a function of now
// and must be recomputed at render time, never cached.
func RelativeAge(now, createdAt time.Time) string {
	d := now.Sub(createdAt)
	switch {
	case d < time.Minute:
		return "Just now"
	case d < time.Hour:
		return fmt.Sprintf("%dm ago", int(d.Minutes()))
	case d < 24*time.Hour:
		return fmt.Sprintf("%dh ago", int(d.Hours()))
	default:
		return createdAt.Format("Jan 2, 2006")
	}
}
