package store

import (
	"context"
	"time"

	"github.com/fieldline/dispatch/core/model"
)

// Backend is the subset of the field-service API the store consumes.
// Implemented by infra/api.Client.
type Backend interface {
	ListJobs(ctx context.Context) ([]model.Job, error)
	ListTeamLocations(ctx context.Context) ([]TeamLocationRow, error)
}

// TeamLocationRow is the raw team-locations payload. Latitude and longitude
// are pointers because the backend sends explicit nulls for workers without a
// fix and zero is a valid coordinate.
type TeamLocationRow struct {
	UserID       string    `json:"userId"`
	FirstName    string    `json:"firstName"`
	LastName     string    `json:"lastName"`
	Color        string    `json:"color,omitempty"`
	Latitude     *float64  `json:"latitude"`
	Longitude    *float64  `json:"longitude"`
	SpeedKPH     *float64  `json:"speed,omitempty"`
	Battery      *float64  `json:"battery,omitempty"`
	RecordedAt   time.Time `json:"recordedAt"`
	CurrentJobID string    `json:"currentJobId,omitempty"`
	Status       string    `json:"status,omitempty"`
}

// Member converts the raw row into a TeamMember. The location is present only
// when both coordinates are non-null. The activity status defaults to working
// when the row carries a current job id, else online, unless the backend
// supplies an explicit status.
func (r TeamLocationRow) Member() model.TeamMember {
	m := model.TeamMember{
		ID:        r.UserID,
		FirstName: r.FirstName,
		LastName:  r.LastName,
		Color:     r.Color,
	}
	if r.Latitude != nil && r.Longitude != nil {
		m.LastLocation = &model.LastLocation{
			Coordinate: model.Coordinate{Lat: *r.Latitude, Lng: *r.Longitude},
			Timestamp:  r.RecordedAt,
			SpeedKPH:   r.SpeedKPH,
			Battery:    r.Battery,
		}
	}
	switch {
	case model.ActivityStatus(r.Status).Valid():
		m.ActivityStatus = model.ActivityStatus(r.Status)
	case r.CurrentJobID != "":
		m.ActivityStatus = model.StatusWorking
	default:
		m.ActivityStatus = model.StatusOnline
	}
	return m
}
