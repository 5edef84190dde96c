package metrics

import "time"

// RefreshEvent captures one collection refresh cycle.
type RefreshEvent struct {
	Collection string // "jobs", "team" or "alerts"
	Count      int
	Degraded   bool // an error-shaped response was replaced by an empty snapshot
	Took       time.Duration
	Time       time.Time
}

// Sink records dispatch-engine events for observability purposes.
type Sink interface {
	RecordRefresh(ev RefreshEvent) error
}

// AssignmentEvent captures an assignment commit attempt.
type AssignmentEvent struct {
	JobID      string
	AssigneeID string
	CommandID  string
	Committed  bool
	Latency    time.Duration
	Error      string
	Time       time.Time
}

// AssignmentRecorder is implemented by sinks able to record commits.
type AssignmentRecorder interface {
	RecordAssignment(ev AssignmentEvent) error
}

// OptimizeEvent captures a route optimization round trip.
type OptimizeEvent struct {
	Requested int
	Kept      int
	Fallback  bool
	Succeeded bool
	Latency   time.Duration
	Time      time.Time
}

// OptimizeRecorder is implemented by sinks able to record optimizations.
type OptimizeRecorder interface {
	RecordOptimize(ev OptimizeEvent) error
}

// TeamSizeRecorder records the number of located workers after a refresh.
type TeamSizeRecorder interface {
	RecordTeamSize(located int) error
}

// NopSink implements every recorder with no-op methods.
type NopSink struct{}

func (NopSink) RecordRefresh(RefreshEvent) error       { return nil }
func (NopSink) RecordAssignment(AssignmentEvent) error { return nil }
func (NopSink) RecordOptimize(OptimizeEvent) error     { return nil }
func (NopSink) RecordTeamSize(int) error               { return nil }
