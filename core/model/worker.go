package model

import (
	"strings"
	"time"
)

// ActivityStatus describes what a team member is currently doing.
type ActivityStatus string

const (
	StatusOnline  ActivityStatus = "online"
	StatusDriving ActivityStatus = "driving"
	StatusWorking ActivityStatus = "working"
	StatusOffline ActivityStatus = "offline"
)

// Valid reports whether s is a known activity status.
func (s ActivityStatus) Valid() bool {
	switch s {
	case StatusOnline, StatusDriving, StatusWorking, StatusOffline:
		return true
	}
	return false
}

// LastLocation is the latest position report for a team member.
type LastLocation struct {
	Coordinate
	Timestamp time.Time
	SpeedKPH  *float64
	Battery   *float64
}

// TeamMember is a mobile worker visible to the dispatcher. Members are
// replaced wholesale on every refresh; there is no partial merge.
type TeamMember struct {
	ID             string
	FirstName      string
	LastName       string
	Color          string
	LastLocation   *LastLocation // nil when the member has never reported a fix
	ActivityStatus ActivityStatus
}

// DisplayName joins first and last name, tolerating either being empty.
func (m TeamMember) DisplayName() string {
	return strings.TrimSpace(m.FirstName + " " + m.LastName)
}

// HasLocation reports whether the member can be rendered as a map marker.
// Members without a location may still appear in list and chip UI.
func (m TeamMember) HasLocation() bool {
	return m.LastLocation != nil
}
