// Package routeplan implements the dispatcher's multi-stop route: an ordered,
// duplicate-free job list with remote optimization and a turn-by-turn
// navigation handoff.
package routeplan

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/fieldline/dispatch/core/events"
	"github.com/fieldline/dispatch/core/logger"
	"github.com/fieldline/dispatch/core/model"
	"github.com/fieldline/dispatch/internal/eventbus"
)

var (
	// ErrDuplicateStop is returned when a job is already part of the route.
	ErrDuplicateStop = errors.New("job already in route")
	// ErrTooFewStops is returned by Optimize with fewer than two stops; no
	// network call is made.
	ErrTooFewStops = errors.New("route needs at least two stops to optimize")
	// ErrOptimizeInFlight is returned while an optimization is outstanding.
	ErrOptimizeInFlight = errors.New("route optimization already in flight")
)

// Optimizer reorders a list of job ids for efficient travel. Treated as an
// opaque black box; its output is not trusted to echo only valid ids.
type Optimizer interface {
	OptimizeRoute(ctx context.Context, jobIDs []string, origin *model.Coordinate) ([]string, error)
}

// JobResolver resolves job ids to full jobs for display and navigation.
// Implemented by store.Store.
type JobResolver interface {
	Job(id string) (model.Job, bool)
}

// Stop is a route entry resolved for display. Seq is the display number;
// stops are renumbered on read, never stored.
type Stop struct {
	Seq   int
	JobID string
	Job   model.Job
	OK    bool // false when the id no longer resolves to a job
}

// Builder holds the ordered route. All methods are safe for concurrent use;
// optimization runs outside the lock and is an exclusion region of its own,
// disjoint from assignment commits.
type Builder struct {
	opt      Optimizer
	resolver JobResolver
	fallback bool
	bus      eventbus.EventBus
	log      logger.Logger

	mu         sync.Mutex
	ids        []string
	optimizing bool
}

// NewBuilder creates a Builder. enableFallback switches on the local
// nearest-neighbor pass used when the remote optimizer is unreachable.
func NewBuilder(opt Optimizer, resolver JobResolver, enableFallback bool, bus eventbus.EventBus, log logger.Logger) (*Builder, error) {
	if opt == nil || resolver == nil {
		return nil, fmt.Errorf("routeplan: nil parameter provided to NewBuilder")
	}
	return &Builder{opt: opt, resolver: resolver, fallback: enableFallback, bus: bus, log: log}, nil
}

// Add appends the job to the end of the route. Duplicates are rejected with
// ErrDuplicateStop so the host can surface an "already in route" notice.
func (b *Builder) Add(jobID string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, id := range b.ids {
		if id == jobID {
			return ErrDuplicateStop
		}
	}
	b.ids = append(b.ids, jobID)
	return nil
}

// Remove deletes the job from the route. Unknown ids are ignored.
func (b *Builder) Remove(jobID string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for i, id := range b.ids {
		if id == jobID {
			b.ids = append(b.ids[:i], b.ids[i+1:]...)
			return
		}
	}
}

// Clear empties the route. Destructive; callers gate it behind a
// confirmation step.
func (b *Builder) Clear() {
	b.mu.Lock()
	b.ids = nil
	b.mu.Unlock()
}

// Len returns the number of stops.
func (b *Builder) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.ids)
}

// IDs returns the route order.
func (b *Builder) IDs() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]string(nil), b.ids...)
}

// Stops resolves the route for display, numbering entries from 1.
func (b *Builder) Stops() []Stop {
	ids := b.IDs()
	stops := make([]Stop, 0, len(ids))
	for i, id := range ids {
		j, ok := b.resolver.Job(id)
		stops = append(stops, Stop{Seq: i + 1, JobID: id, Job: j, OK: ok})
	}
	return stops
}

// Optimizing reports whether an optimization is outstanding.
func (b *Builder) Optimizing() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.optimizing
}

// Optimize sends the route to the remote optimizer and replaces the local
// order with the response. Ids the optimizer invents and ids that no longer
// resolve are dropped; stops absent from the response are dropped as well.
// On failure the order is left unchanged. With fewer than two stops the call
// fails fast without touching the network.
func (b *Builder) Optimize(ctx context.Context, origin *model.Coordinate) error {
	b.mu.Lock()
	if b.optimizing {
		b.mu.Unlock()
		return ErrOptimizeInFlight
	}
	if len(b.ids) < 2 {
		b.mu.Unlock()
		return ErrTooFewStops
	}
	ids := append([]string(nil), b.ids...)
	b.optimizing = true
	b.mu.Unlock()

	start := time.Now()
	order, err := b.opt.OptimizeRoute(ctx, ids, origin)
	usedFallback := false
	if err != nil && b.fallback && origin != nil {
		b.log.Warnf("remote optimizer failed, using nearest-neighbor fallback: %v", err)
		order = b.nearestNeighborOrder(*origin, ids)
		err = nil
		usedFallback = true
	}
	latency := time.Since(start)

	b.mu.Lock()
	b.optimizing = false
	if err != nil {
		b.mu.Unlock()
		b.publish(events.RouteOptimized{Requested: len(ids), Err: err, Latency: latency})
		return fmt.Errorf("optimize route: %w", err)
	}
	known := make(map[string]bool, len(b.ids))
	for _, id := range b.ids {
		known[id] = true
	}
	next := make([]string, 0, len(order))
	for _, id := range order {
		if !known[id] {
			continue
		}
		known[id] = false // a response echoing an id twice keeps it once
		if _, ok := b.resolver.Job(id); !ok {
			continue
		}
		next = append(next, id)
	}
	b.ids = next
	b.mu.Unlock()

	b.publish(events.RouteOptimized{Requested: len(ids), Kept: len(next), Fallback: usedFallback, Latency: latency})
	b.log.Infof("route optimized: %d of %d stops kept", len(next), len(ids))
	return nil
}

func (b *Builder) publish(e eventbus.Event) {
	if b.bus != nil {
		b.bus.Publish(e)
	}
}
