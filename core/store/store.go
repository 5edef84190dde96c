// Package store owns the in-memory job and team snapshots. Refreshes replace
// collections wholesale and never return errors to their callers: they run
// from unattended timers as well as explicit user action, so a failed or
// malformed response degrades to an empty snapshot plus a log entry.
package store

import (
	"context"
	"sync"
	"time"

	"github.com/fieldline/dispatch/core/events"
	"github.com/fieldline/dispatch/core/logger"
	"github.com/fieldline/dispatch/core/model"
	"github.com/fieldline/dispatch/internal/eventbus"
)

// Store holds the job and team snapshots for one dispatcher session. It is
// constructed at session start and discarded on teardown; there is no ambient
// global state.
type Store struct {
	backend Backend
	bus     eventbus.EventBus
	log     logger.Logger

	mu   sync.RWMutex
	jobs []model.Job
	team []model.TeamMember
}

// New creates a Store. The bus may be nil when no component observes
// snapshot changes.
func New(backend Backend, bus eventbus.EventBus, log logger.Logger) *Store {
	return &Store{backend: backend, bus: bus, log: log}
}

// RefreshJobs replaces the jobs snapshot from the backend. A transport or
// parse failure degrades to an empty snapshot.
func (s *Store) RefreshJobs(ctx context.Context) {
	start := time.Now()
	jobs, err := s.backend.ListJobs(ctx)
	if err != nil {
		s.log.Warnf("jobs refresh degraded: %v", err)
		jobs = nil
	}
	s.mu.Lock()
	s.jobs = jobs
	s.mu.Unlock()
	s.publish(events.JobsReplaced{Count: len(jobs), Degraded: err != nil, Took: time.Since(start)})
}

// RefreshTeam replaces the team snapshot from the backend. Rows are
// transformed per TeamLocationRow.Member; there is no partial merge.
func (s *Store) RefreshTeam(ctx context.Context) {
	start := time.Now()
	rows, err := s.backend.ListTeamLocations(ctx)
	if err != nil {
		s.log.Warnf("team refresh degraded: %v", err)
		rows = nil
	}
	team := make([]model.TeamMember, 0, len(rows))
	located := 0
	for _, r := range rows {
		m := r.Member()
		if m.HasLocation() {
			located++
		}
		team = append(team, m)
	}
	s.mu.Lock()
	s.team = team
	s.mu.Unlock()
	s.publish(events.TeamReplaced{Count: len(team), Located: located, Degraded: err != nil, Took: time.Since(start)})
}

// ApplyLocation merges a single live location row, replacing the member's
// last known location wholesale. Rows for unknown members are ignored; the
// next full refresh will pick them up.
func (s *Store) ApplyLocation(row TeamLocationRow) {
	m := row.Member()
	s.mu.Lock()
	found := false
	for i := range s.team {
		if s.team[i].ID == m.ID {
			s.team[i].LastLocation = m.LastLocation
			s.team[i].ActivityStatus = m.ActivityStatus
			found = true
			break
		}
	}
	s.mu.Unlock()
	if found {
		s.publish(events.MemberLocated{MemberID: m.ID})
	}
}

// Jobs returns a copy of the current jobs snapshot.
func (s *Store) Jobs() []model.Job {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]model.Job(nil), s.jobs...)
}

// Job resolves a job by id.
func (s *Store) Job(id string) (model.Job, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, j := range s.jobs {
		if j.ID == id {
			return j, true
		}
	}
	return model.Job{}, false
}

// Team returns a copy of the current team snapshot.
func (s *Store) Team() []model.TeamMember {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]model.TeamMember(nil), s.team...)
}

// Member resolves a team member by id.
func (s *Store) Member(id string) (model.TeamMember, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, m := range s.team {
		if m.ID == id {
			return m, true
		}
	}
	return model.TeamMember{}, false
}

// VisibleJobs returns the jobs matching the status filter. An empty filter
// matches every job. Derived on read, never cached.
func (s *Store) VisibleJobs(filter model.JobStatus) []model.Job {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]model.Job, 0, len(s.jobs))
	for _, j := range s.jobs {
		if filter != "" && j.Status != filter {
			continue
		}
		out = append(out, j)
	}
	return out
}

// MapEligibleJobs returns the visible jobs that can be rendered as markers.
func (s *Store) MapEligibleJobs(filter model.JobStatus) []model.Job {
	jobs := s.VisibleJobs(filter)
	out := jobs[:0]
	for _, j := range jobs {
		if j.MapEligible() {
			out = append(out, j)
		}
	}
	return out
}

// LocatedMembers returns the team members eligible for map rendering.
func (s *Store) LocatedMembers() []model.TeamMember {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []model.TeamMember
	for _, m := range s.team {
		if m.HasLocation() {
			out = append(out, m)
		}
	}
	return out
}

// ActiveWorkerCount counts team members that are not offline.
func (s *Store) ActiveWorkerCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	n := 0
	for _, m := range s.team {
		if m.ActivityStatus != model.StatusOffline {
			n++
		}
	}
	return n
}

func (s *Store) publish(e eventbus.Event) {
	if s.bus != nil {
		s.bus.Publish(e)
	}
}
