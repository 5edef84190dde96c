package scenarios

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/fieldline/dispatch/core/assignment"
	"github.com/fieldline/dispatch/core/model"
	"github.com/fieldline/dispatch/core/store"
	"github.com/fieldline/dispatch/infra/logger"
	"github.com/fieldline/dispatch/internal/eventbus"
)

// scriptedBackend serves the scenario board and commits assignments in place.
type scriptedBackend struct {
	mu      sync.Mutex
	jobs    []model.Job
	rows    []store.TeamLocationRow
	fail    map[string]bool
	commits int
}

func (b *scriptedBackend) ListJobs(context.Context) ([]model.Job, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]model.Job(nil), b.jobs...), nil
}

func (b *scriptedBackend) ListTeamLocations(context.Context) ([]store.TeamLocationRow, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]store.TeamLocationRow(nil), b.rows...), nil
}

func (b *scriptedBackend) AssignJob(_ context.Context, jobID, assigneeID, commandID string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.commits++
	if commandID == "" {
		return fmt.Errorf("missing command id")
	}
	if b.fail[jobID] {
		return fmt.Errorf("assignment rejected for %s", jobID)
	}
	for i := range b.jobs {
		if b.jobs[i].ID == jobID {
			b.jobs[i].AssigneeID = assigneeID
			return nil
		}
	}
	return fmt.Errorf("unknown job %s", jobID)
}

// RunScenario replays the tap sequence and checks the resulting board.
func RunScenario(t *testing.T, sc *Scenario) {
	backend := &scriptedBackend{fail: make(map[string]bool)}
	for _, id := range sc.FailJobs {
		backend.fail[id] = true
	}
	for _, j := range sc.Jobs {
		backend.jobs = append(backend.jobs, j.ToModel())
	}
	for _, w := range sc.Workers {
		backend.rows = append(backend.rows, store.TeamLocationRow{
			UserID:    w.ID,
			FirstName: w.FirstName,
			LastName:  w.LastName,
			Status:    w.Status,
		})
	}

	bus := eventbus.New()
	defer bus.Close()
	st := store.New(backend, bus, logger.NopLogger{})
	ctx := context.Background()
	st.RefreshJobs(ctx)
	st.RefreshTeam(ctx)

	canAssign := sc.CanAssign == nil || *sc.CanAssign
	machine, err := assignment.NewMachine(backend, st, canAssign, bus, logger.NopLogger{})
	if err != nil {
		t.Fatalf("machine: %v", err)
	}

	for i, tap := range sc.Taps {
		switch {
		case tap.Worker != "":
			machine.TapWorker(tap.Worker)
		case tap.Job != "":
			machine.TapJob(tap.Job)
		case tap.Confirm:
			if err := machine.Confirm(ctx); err != nil {
				t.Logf("step %d: confirm: %v", i, err)
			}
		case tap.Cancel:
			machine.Cancel()
		case tap.Clear:
			machine.ClearSelection()
		default:
			t.Fatalf("step %d: empty tap definition", i)
		}
	}

	for jobID, want := range sc.Expected.Assigned {
		job, ok := st.Job(jobID)
		if !ok {
			t.Errorf("scenario %s: job %s missing after flow", sc.Name, jobID)
			continue
		}
		if job.AssigneeID != want {
			t.Errorf("scenario %s: job %s assigned to %q, want %q", sc.Name, jobID, job.AssigneeID, want)
		}
	}
	if got := machine.State().Phase.String(); got != sc.Expected.Phase {
		t.Errorf("scenario %s: final phase %s, want %s", sc.Name, got, sc.Expected.Phase)
	}
	backend.mu.Lock()
	commits := backend.commits
	backend.mu.Unlock()
	if commits != sc.Expected.Commits {
		t.Errorf("scenario %s: %d commits, want %d", sc.Name, commits, sc.Expected.Commits)
	}
}
