package config

import "fmt"

// PollConfig defines the refresh cadence of the polling scheduler.
type PollConfig struct {
	// TeamIntervalSeconds is the period of the team location poll.
	TeamIntervalSeconds int `json:"team_interval_seconds"`
	// AlertsIntervalSeconds is the period of the geofence alert poll.
	AlertsIntervalSeconds int `json:"alerts_interval_seconds"`
}

// SetDefaults applies the standard cadence: 30s team, 60s alerts.
func (c *PollConfig) SetDefaults() {
	if c.TeamIntervalSeconds == 0 {
		c.TeamIntervalSeconds = 30
	}
	if c.AlertsIntervalSeconds == 0 {
		c.AlertsIntervalSeconds = 60
	}
}

// Validate checks the intervals are positive.
func (c PollConfig) Validate() error {
	if c.TeamIntervalSeconds < 1 {
		return fmt.Errorf("team_interval_seconds must be positive")
	}
	if c.AlertsIntervalSeconds < 1 {
		return fmt.Errorf("alerts_interval_seconds must be positive")
	}
	return nil
}
