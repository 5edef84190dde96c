package store

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/fieldline/dispatch/core/events"
	"github.com/fieldline/dispatch/core/model"
	"github.com/fieldline/dispatch/infra/logger"
	"github.com/fieldline/dispatch/internal/eventbus"
)

type fakeBackend struct {
	jobs    []model.Job
	rows    []TeamLocationRow
	jobsErr error
	rowsErr error
}

func (f *fakeBackend) ListJobs(context.Context) ([]model.Job, error) {
	return f.jobs, f.jobsErr
}

func (f *fakeBackend) ListTeamLocations(context.Context) ([]TeamLocationRow, error) {
	return f.rows, f.rowsErr
}

func fptr(v float64) *float64 { return &v }

func TestRefreshJobsReplacesWholesale(t *testing.T) {
	b := &fakeBackend{jobs: []model.Job{{ID: "j1"}, {ID: "j2"}}}
	s := New(b, nil, logger.NopLogger{})
	s.RefreshJobs(context.Background())
	if len(s.Jobs()) != 2 {
		t.Fatalf("expected 2 jobs got %d", len(s.Jobs()))
	}
	b.jobs = []model.Job{{ID: "j3"}}
	s.RefreshJobs(context.Background())
	jobs := s.Jobs()
	if len(jobs) != 1 || jobs[0].ID != "j3" {
		t.Fatalf("expected wholesale replace, got %+v", jobs)
	}
}

func TestRefreshJobsDegradesOnError(t *testing.T) {
	b := &fakeBackend{jobs: []model.Job{{ID: "j1"}}}
	bus := eventbus.New()
	ch := bus.Subscribe()
	s := New(b, bus, logger.NopLogger{})
	s.RefreshJobs(context.Background())
	<-ch

	b.jobsErr = errors.New("boom")
	s.RefreshJobs(context.Background())
	if len(s.Jobs()) != 0 {
		t.Fatal("failed refresh must degrade to an empty snapshot")
	}
	ev := (<-ch).(events.JobsReplaced)
	if !ev.Degraded || ev.Count != 0 {
		t.Fatalf("expected degraded event, got %+v", ev)
	}
}

func TestTeamRowTransformation(t *testing.T) {
	rows := []TeamLocationRow{
		{UserID: "w1", FirstName: "Ana", Latitude: fptr(0), Longitude: fptr(0)},
		{UserID: "w2", FirstName: "Ben", Latitude: fptr(1.5)}, // longitude null
		{UserID: "w3", FirstName: "Cy", CurrentJobID: "j9"},
		{UserID: "w4", FirstName: "Di", Status: "driving"},
	}
	b := &fakeBackend{rows: rows}
	s := New(b, nil, logger.NopLogger{})
	s.RefreshTeam(context.Background())

	w1, _ := s.Member("w1")
	if !w1.HasLocation() {
		t.Fatal("zero coordinates are a valid location")
	}
	if w1.ActivityStatus != model.StatusOnline {
		t.Fatalf("w1 status = %s want online", w1.ActivityStatus)
	}
	w2, _ := s.Member("w2")
	if w2.HasLocation() {
		t.Fatal("a null longitude means no location")
	}
	w3, _ := s.Member("w3")
	if w3.ActivityStatus != model.StatusWorking {
		t.Fatalf("member with current job must default to working, got %s", w3.ActivityStatus)
	}
	w4, _ := s.Member("w4")
	if w4.ActivityStatus != model.StatusDriving {
		t.Fatalf("explicit status must win, got %s", w4.ActivityStatus)
	}

	if got := len(s.LocatedMembers()); got != 1 {
		t.Fatalf("expected 1 located member, got %d", got)
	}
	if got := s.ActiveWorkerCount(); got != 4 {
		t.Fatalf("expected 4 active workers, got %d", got)
	}
}

func TestVisibleJobsFilter(t *testing.T) {
	// Scenario: one pending job with coordinates, empty team.
	b := &fakeBackend{jobs: []model.Job{{
		ID:       "j1",
		Status:   model.JobPending,
		Location: &model.Coordinate{Lat: -16.9, Lng: 145.7},
	}}}
	s := New(b, nil, logger.NopLogger{})
	s.RefreshJobs(context.Background())

	eligible := s.MapEligibleJobs("")
	if len(eligible) != 1 || eligible[0].ID != "j1" {
		t.Fatalf("expected [j1], got %+v", eligible)
	}
	if got := s.MapEligibleJobs(model.JobDone); len(got) != 0 {
		t.Fatalf("status filter done must hide j1, got %+v", got)
	}
}

func TestMapEligibleExcludesJobsWithoutCoordinates(t *testing.T) {
	b := &fakeBackend{jobs: []model.Job{
		{ID: "geo", Status: model.JobPending, Location: &model.Coordinate{Lat: 1, Lng: 2}},
		{ID: "nogeo", Status: model.JobPending},
	}}
	s := New(b, nil, logger.NopLogger{})
	s.RefreshJobs(context.Background())
	for _, filter := range []model.JobStatus{"", model.JobPending} {
		got := s.MapEligibleJobs(filter)
		if len(got) != 1 || got[0].ID != "geo" {
			t.Fatalf("filter %q: expected only geocoded job, got %+v", filter, got)
		}
	}
}

func TestApplyLocation(t *testing.T) {
	b := &fakeBackend{rows: []TeamLocationRow{{UserID: "w1", FirstName: "Ana"}}}
	bus := eventbus.New()
	ch := bus.Subscribe()
	s := New(b, bus, logger.NopLogger{})
	s.RefreshTeam(context.Background())
	<-ch

	s.ApplyLocation(TeamLocationRow{
		UserID:     "w1",
		Latitude:   fptr(10),
		Longitude:  fptr(20),
		RecordedAt: time.Now(),
	})
	w1, _ := s.Member("w1")
	if !w1.HasLocation() || w1.LastLocation.Lat != 10 {
		t.Fatalf("live location not applied: %+v", w1)
	}
	if _, ok := (<-ch).(events.MemberLocated); !ok {
		t.Fatal("expected MemberLocated event")
	}

	// Unknown members are ignored until the next full refresh.
	s.ApplyLocation(TeamLocationRow{UserID: "ghost", Latitude: fptr(1), Longitude: fptr(2)})
	if _, ok := s.Member("ghost"); ok {
		t.Fatal("unknown member must not be inserted")
	}
}
