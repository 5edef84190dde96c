// Package events defines the notifications published on the internal event
// bus. The entity store emits snapshot events, the assignment machine and
// route builder emit commit outcomes, and the viewport controller and metrics
// collector consume them.
package events

import "time"

// JobsReplaced signals that the jobs snapshot was replaced wholesale.
type JobsReplaced struct {
	Count    int
	Degraded bool // true when a failed refresh was replaced by an empty snapshot
	Took     time.Duration
}

// TeamReplaced signals that the team snapshot was replaced wholesale.
type TeamReplaced struct {
	Count    int
	Located  int // members carrying a last known location
	Degraded bool
	Took     time.Duration
}

// AlertsReplaced signals that the geofence alert snapshot was replaced.
type AlertsReplaced struct {
	Count    int
	Unread   int
	Degraded bool
	Took     time.Duration
}

// MemberLocated signals a single live location update from the feed.
type MemberLocated struct {
	MemberID string
}

// AssignmentCommitted records the outcome of an assignment commit.
type AssignmentCommitted struct {
	JobID      string
	AssigneeID string
	CommandID  string
	Err        error
	Latency    time.Duration
}

// RouteOptimized records the outcome of a route optimization round trip.
type RouteOptimized struct {
	Requested int
	Kept      int
	Fallback  bool // true when the local nearest-neighbor pass produced the order
	Err       error
	Latency   time.Duration
}

// FilterChanged signals that the dispatcher changed the job status filter.
type FilterChanged struct{}

// TrackingToggled signals that live tracking was switched on or off.
type TrackingToggled struct {
	Enabled bool
}
