package viewport

import (
	"sync"
	"testing"
	"time"

	"github.com/fieldline/dispatch/core/events"
	"github.com/fieldline/dispatch/core/geo"
	"github.com/fieldline/dispatch/core/model"
	"github.com/fieldline/dispatch/infra/logger"
	"github.com/fieldline/dispatch/internal/eventbus"
)

type fakeSource struct {
	mu   sync.Mutex
	jobs []model.Job
	team []model.TeamMember
}

func (f *fakeSource) MapEligibleJobs(model.JobStatus) []model.Job {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.jobs
}

func (f *fakeSource) LocatedMembers() []model.TeamMember {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.team
}

type regionRecorder struct {
	mu      sync.Mutex
	regions []geo.Region
}

func (r *regionRecorder) apply(reg geo.Region) {
	r.mu.Lock()
	r.regions = append(r.regions, reg)
	r.mu.Unlock()
}

func (r *regionRecorder) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.regions)
}

func job(id string, lat, lng float64) model.Job {
	return model.Job{ID: id, Location: &model.Coordinate{Lat: lat, Lng: lng}}
}

func TestDebounceCoalescesBursts(t *testing.T) {
	src := &fakeSource{jobs: []model.Job{job("j1", 1, 2)}}
	bus := eventbus.New()
	rec := &regionRecorder{}
	c := New(src, bus, rec.apply, Config{DebounceMS: 30}, logger.NopLogger{})
	defer c.Close()

	for i := 0; i < 5; i++ {
		bus.Publish(events.JobsReplaced{Count: 1})
	}
	time.Sleep(10 * time.Millisecond)
	if rec.count() != 0 {
		t.Fatal("fit must not run before the debounce window closes")
	}
	time.Sleep(80 * time.Millisecond)
	if got := rec.count(); got != 1 {
		t.Fatalf("burst must coalesce to one fit, got %d", got)
	}
}

func TestFitNowBypassesDebounce(t *testing.T) {
	src := &fakeSource{jobs: []model.Job{job("j1", 1, 2)}}
	rec := &regionRecorder{}
	c := New(src, nil, rec.apply, Config{DebounceMS: 10000}, logger.NopLogger{})
	defer c.Close()

	c.SetFilter(model.JobPending) // arms the long debounce
	c.FitNow()
	if got := rec.count(); got != 1 {
		t.Fatalf("FitNow must apply immediately, got %d fits", got)
	}
}

func TestNoEligibleMarkersLeavesViewportUntouched(t *testing.T) {
	src := &fakeSource{}
	rec := &regionRecorder{}
	c := New(src, nil, rec.apply, Config{}, logger.NopLogger{})
	defer c.Close()

	c.FitNow()
	if rec.count() != 0 {
		t.Fatal("empty marker set must never move the viewport")
	}
}

func TestTrackingIncludesWorkerMarkers(t *testing.T) {
	src := &fakeSource{
		jobs: []model.Job{job("j1", 0, 0)},
		team: []model.TeamMember{{
			ID:           "w1",
			LastLocation: &model.LastLocation{Coordinate: model.Coordinate{Lat: 10, Lng: 10}},
		}},
	}
	rec := &regionRecorder{}
	c := New(src, nil, rec.apply, Config{}, logger.NopLogger{})
	defer c.Close()

	c.FitNow()
	c.SetTracking(true)
	c.FitNow()
	rec.mu.Lock()
	defer rec.mu.Unlock()
	if len(rec.regions) != 2 {
		t.Fatalf("expected 2 fits, got %d", len(rec.regions))
	}
	if rec.regions[1].LatDelta <= rec.regions[0].LatDelta {
		t.Fatal("tracking must widen the region to include worker markers")
	}
}

func TestCloseStopsPendingFit(t *testing.T) {
	src := &fakeSource{jobs: []model.Job{job("j1", 1, 2)}}
	bus := eventbus.New()
	rec := &regionRecorder{}
	c := New(src, bus, rec.apply, Config{DebounceMS: 20}, logger.NopLogger{})

	bus.Publish(events.JobsReplaced{Count: 1})
	time.Sleep(5 * time.Millisecond)
	c.Close()
	time.Sleep(50 * time.Millisecond)
	if rec.count() != 0 {
		t.Fatal("a fit fired after Close")
	}
}
