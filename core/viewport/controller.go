// Package viewport keeps the visible map region synchronized with the
// currently eligible markers. Recomputes are debounced against bursts of
// snapshot and filter changes; a manual fit bypasses the debounce.
package viewport

import (
	"sync"
	"time"

	"github.com/fieldline/dispatch/core/events"
	"github.com/fieldline/dispatch/core/geo"
	"github.com/fieldline/dispatch/core/logger"
	"github.com/fieldline/dispatch/core/model"
	"github.com/fieldline/dispatch/internal/eventbus"
)

// Source exposes the marker-eligible entities. Implemented by store.Store.
type Source interface {
	MapEligibleJobs(filter model.JobStatus) []model.Job
	LocatedMembers() []model.TeamMember
}

// Config tunes the controller.
type Config struct {
	DebounceMS   int         `json:"debounce_ms"`
	PadCollapsed geo.Padding `json:"padding_collapsed"`
	PadExpanded  geo.Padding `json:"padding_expanded"`
}

// SetDefaults applies sane defaults.
func (c *Config) SetDefaults() {
	if c.DebounceMS <= 0 {
		c.DebounceMS = 300
	}
}

// Controller recomputes the fitted region whenever the eligible marker set
// may have changed. The apply callback delivers regions to the host map UI;
// it is never invoked when no marker is eligible.
type Controller struct {
	src   Source
	bus   eventbus.EventBus
	apply func(geo.Region)
	log   logger.Logger
	cfg   Config

	mu        sync.Mutex
	filter    model.JobStatus
	tracking  bool
	collapsed bool
	timer     *time.Timer
	closed    bool

	sub  <-chan eventbus.Event
	done chan struct{}
}

// New creates a Controller and starts consuming bus events. Close must be
// called on teardown.
func New(src Source, bus eventbus.EventBus, apply func(geo.Region), cfg Config, log logger.Logger) *Controller {
	cfg.SetDefaults()
	c := &Controller{
		src:   src,
		bus:   bus,
		apply: apply,
		log:   log,
		cfg:   cfg,
		done:  make(chan struct{}),
	}
	if bus != nil {
		c.sub = bus.Subscribe()
		go c.run()
	}
	return c
}

func (c *Controller) run() {
	defer close(c.done)
	for ev := range c.sub {
		switch ev.(type) {
		case events.JobsReplaced, events.TeamReplaced, events.MemberLocated,
			events.FilterChanged, events.TrackingToggled:
			c.schedule()
		}
	}
}

// SetFilter updates the job status filter and schedules a refit.
func (c *Controller) SetFilter(filter model.JobStatus) {
	c.mu.Lock()
	c.filter = filter
	c.mu.Unlock()
	c.schedule()
}

// SetTracking toggles whether worker markers participate in the fit.
func (c *Controller) SetTracking(enabled bool) {
	c.mu.Lock()
	c.tracking = enabled
	c.mu.Unlock()
	c.schedule()
}

// SetHeaderCollapsed switches the padding profile.
func (c *Controller) SetHeaderCollapsed(collapsed bool) {
	c.mu.Lock()
	c.collapsed = collapsed
	c.mu.Unlock()
	c.schedule()
}

// FitNow recomputes and applies the region immediately, bypassing the
// debounce. Used for the explicit "fit to markers" action.
func (c *Controller) FitNow() {
	c.mu.Lock()
	if c.timer != nil {
		c.timer.Stop()
		c.timer = nil
	}
	c.mu.Unlock()
	c.fit()
}

// schedule arms the debounce timer, restarting it on every call.
func (c *Controller) schedule() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	if c.timer != nil {
		c.timer.Stop()
	}
	c.timer = time.AfterFunc(time.Duration(c.cfg.DebounceMS)*time.Millisecond, c.fit)
}

func (c *Controller) fit() {
	c.mu.Lock()
	filter, tracking, collapsed := c.filter, c.tracking, c.collapsed
	closed := c.closed
	c.mu.Unlock()
	if closed {
		return
	}

	var coords []model.Coordinate
	for _, j := range c.src.MapEligibleJobs(filter) {
		coords = append(coords, *j.Location)
	}
	if tracking {
		for _, m := range c.src.LocatedMembers() {
			coords = append(coords, m.LastLocation.Coordinate)
		}
	}

	pad := c.cfg.PadExpanded
	if collapsed {
		pad = c.cfg.PadCollapsed
	}
	region, ok := geo.FitRegion(coords, pad)
	if !ok {
		// No eligible markers: leave the viewport untouched.
		return
	}
	c.apply(region)
}

// Close stops the debounce timer and the event loop.
func (c *Controller) Close() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	if c.timer != nil {
		c.timer.Stop()
		c.timer = nil
	}
	c.mu.Unlock()
	if c.bus != nil {
		c.bus.Unsubscribe(c.sub)
		<-c.done
	}
}
