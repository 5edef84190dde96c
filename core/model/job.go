package model

// JobStatus describes where a job sits in its lifecycle.
type JobStatus string

const (
	JobPending    JobStatus = "pending"
	JobScheduled  JobStatus = "scheduled"
	JobInProgress JobStatus = "in_progress"
	JobDone       JobStatus = "done"
	JobInvoiced   JobStatus = "invoiced"
)

// Valid reports whether s is a known job status.
func (s JobStatus) Valid() bool {
	switch s {
	case JobPending, JobScheduled, JobInProgress, JobDone, JobInvoiced:
		return true
	}
	return false
}

// Job is a unit of field work fetched from the jobs API. Jobs are created and
// updated server-side; the engine only mutates status/assignee optimistically
// while a commit is pending server confirmation.
type Job struct {
	ID         string
	Title      string
	Status     JobStatus
	Location   *Coordinate // nil when the job has no geocoordinate
	Address    string
	ClientID   string
	AssigneeID string
}

// MapEligible reports whether the job may be rendered as a map marker.
// A job qualifies only when its coordinate is present; zero is a valid
// coordinate, absence is modeled by a nil Location.
func (j Job) MapEligible() bool {
	return j.Location != nil
}
