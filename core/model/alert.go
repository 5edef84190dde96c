package model

import "time"

// AlertKind classifies a geofence alert.
type AlertKind string

const (
	AlertArrival      AlertKind = "arrival"
	AlertDeparture    AlertKind = "departure"
	AlertLate         AlertKind = "late"
	AlertSpeedWarning AlertKind = "speed_warning"
)

// Valid reports whether k is a known alert kind.
func (k AlertKind) Valid() bool {
	switch k {
	case AlertArrival, AlertDeparture, AlertLate, AlertSpeedWarning:
		return true
	}
	return false
}

// GeofenceAlert is a proximity or lateness notification about a supervised
// worker. Alerts are never created or deleted by the engine; only the read
// flag is mutated locally.
type GeofenceAlert struct {
	ID         string
	WorkerID   string
	WorkerName string
	JobID      string
	JobTitle   string
	Kind       AlertKind
	Address    string
	CreatedAt  time.Time
	Read       bool
}
