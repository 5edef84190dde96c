// Package assignment implements the worker-select → job-tap → confirm →
// commit state machine. Selection and pending confirmation are one tagged
// state rather than independent flags, so a confirmation dialog can never
// reference a worker that is no longer armed.
package assignment

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/fieldline/dispatch/core/events"
	"github.com/fieldline/dispatch/core/logger"
	"github.com/fieldline/dispatch/internal/eventbus"
)

// Phase identifies the machine state.
type Phase int

const (
	PhaseIdle Phase = iota
	PhaseWorkerSelected
	PhaseConfirmPending
	PhaseCommitting
)

// String returns a human-readable phase name.
func (p Phase) String() string {
	switch p {
	case PhaseIdle:
		return "idle"
	case PhaseWorkerSelected:
		return "worker_selected"
	case PhaseConfirmPending:
		return "confirm_pending"
	case PhaseCommitting:
		return "committing"
	default:
		return "unknown"
	}
}

// State is a snapshot of the machine. WorkerID is set outside PhaseIdle;
// JobID is set in PhaseConfirmPending and PhaseCommitting.
type State struct {
	Phase    Phase
	WorkerID string
	JobID    string
}

// TapResult tells the host UI how to react to a tap.
type TapResult int

const (
	// TapIgnored means the tap had no effect (no capability, or a commit
	// is in flight and the controls are disabled).
	TapIgnored TapResult = iota
	// TapSelected means the worker is now armed for assignment.
	TapSelected
	// TapDeselected means tapping the already-armed worker cleared it.
	TapDeselected
	// TapConfirmRequested means a worker/job pairing awaits confirmation.
	TapConfirmRequested
	// TapJobMenu means the job tap should open the job's action menu; the
	// assignment path was never entered.
	TapJobMenu
)

// Assigner commits an assignment to the backend.
type Assigner interface {
	AssignJob(ctx context.Context, jobID, assigneeID, commandID string) error
}

// JobsRefresher triggers a jobs snapshot refresh after a successful commit.
type JobsRefresher interface {
	RefreshJobs(ctx context.Context)
}

var (
	// ErrNoPendingAssignment is returned by Confirm outside PhaseConfirmPending.
	ErrNoPendingAssignment = errors.New("no assignment awaiting confirmation")
	// ErrCommitInFlight is returned when a second commit is attempted.
	ErrCommitInFlight = errors.New("assignment commit already in flight")
)

// Machine is the selection/assignment state machine. All methods are safe for
// concurrent use; the commit itself runs outside the lock.
type Machine struct {
	assigner  Assigner
	jobs      JobsRefresher
	canAssign bool
	bus       eventbus.EventBus
	log       logger.Logger

	mu sync.Mutex
	st State
}

// NewMachine creates a Machine. canAssign gates worker selection: actors
// without the assignment capability can never arm a worker.
func NewMachine(assigner Assigner, jobs JobsRefresher, canAssign bool, bus eventbus.EventBus, log logger.Logger) (*Machine, error) {
	if assigner == nil || jobs == nil {
		return nil, fmt.Errorf("assignment: nil parameter provided to NewMachine")
	}
	return &Machine{assigner: assigner, jobs: jobs, canAssign: canAssign, bus: bus, log: log}, nil
}

// State returns the current machine snapshot.
func (m *Machine) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.st
}

// TapWorker arms, re-arms or toggles off a worker. Tapping the armed worker
// again returns to idle; tapping another worker reselects.
func (m *Machine) TapWorker(workerID string) TapResult {
	if !m.canAssign {
		return TapIgnored
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	switch m.st.Phase {
	case PhaseCommitting:
		return TapIgnored
	case PhaseIdle:
		m.st = State{Phase: PhaseWorkerSelected, WorkerID: workerID}
		return TapSelected
	default:
		if m.st.WorkerID == workerID && m.st.Phase == PhaseWorkerSelected {
			m.st = State{}
			return TapDeselected
		}
		// Reselection also discards any pending job pairing.
		m.st = State{Phase: PhaseWorkerSelected, WorkerID: workerID}
		return TapSelected
	}
}

// TapJob pairs the armed worker with a job. Without an armed worker the tap
// never enters the assignment path and the caller routes to the job menu.
func (m *Machine) TapJob(jobID string) TapResult {
	m.mu.Lock()
	defer m.mu.Unlock()
	switch m.st.Phase {
	case PhaseWorkerSelected:
		m.st.Phase = PhaseConfirmPending
		m.st.JobID = jobID
		return TapConfirmRequested
	case PhaseCommitting:
		return TapIgnored
	default:
		return TapJobMenu
	}
}

// Cancel abandons the pending job pairing but keeps the worker armed.
func (m *Machine) Cancel() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.st.Phase != PhaseConfirmPending {
		return
	}
	m.st = State{Phase: PhaseWorkerSelected, WorkerID: m.st.WorkerID}
}

// ClearSelection forces the machine back to idle from any state except an
// in-flight commit.
func (m *Machine) ClearSelection() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.st.Phase == PhaseCommitting {
		return
	}
	m.st = State{}
}

// Confirm commits the pending assignment. At most one commit may be in
// flight; on success the jobs snapshot is refreshed and the machine returns
// to idle, on failure it returns to idle with no mutation.
func (m *Machine) Confirm(ctx context.Context) error {
	m.mu.Lock()
	switch m.st.Phase {
	case PhaseCommitting:
		m.mu.Unlock()
		return ErrCommitInFlight
	case PhaseConfirmPending:
	default:
		m.mu.Unlock()
		return ErrNoPendingAssignment
	}
	workerID, jobID := m.st.WorkerID, m.st.JobID
	m.st.Phase = PhaseCommitting
	m.mu.Unlock()

	commandID := uuid.NewString()
	start := time.Now()
	err := m.assigner.AssignJob(ctx, jobID, workerID, commandID)
	latency := time.Since(start)

	m.mu.Lock()
	m.st = State{}
	m.mu.Unlock()

	if m.bus != nil {
		m.bus.Publish(events.AssignmentCommitted{
			JobID:      jobID,
			AssigneeID: workerID,
			CommandID:  commandID,
			Err:        err,
			Latency:    latency,
		})
	}
	if err != nil {
		commitsFailed.Inc()
		m.log.Warnf("assignment of %s to %s failed: %v", jobID, workerID, err)
		return fmt.Errorf("assign job %s: %w", jobID, err)
	}
	commitsTotal.Inc()
	commitLatency.Observe(latency.Seconds())
	m.log.Infof("job %s assigned to %s", jobID, workerID)
	m.jobs.RefreshJobs(ctx)
	return nil
}
