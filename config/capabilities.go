package config

// CapabilitiesConfig mirrors the signed-in dispatcher's permissions. The
// assignment machine refuses worker selection without the assign permission.
type CapabilitiesConfig struct {
	CanAssignJobs *bool `json:"can_assign_jobs"`
	// CanViewAlerts marks supervisory viewers; the geofence alert poll only
	// runs for them.
	CanViewAlerts *bool `json:"can_view_alerts"`
}

// SetDefaults grants both capabilities when the fields are absent.
func (c *CapabilitiesConfig) SetDefaults() {
	if c.CanAssignJobs == nil {
		v := true
		c.CanAssignJobs = &v
	}
	if c.CanViewAlerts == nil {
		v := true
		c.CanViewAlerts = &v
	}
}

// AssignAllowed reports whether the dispatcher may assign jobs.
func (c CapabilitiesConfig) AssignAllowed() bool {
	return c.CanAssignJobs != nil && *c.CanAssignJobs
}

// AlertsAllowed reports whether the viewer sees geofence alerts.
func (c CapabilitiesConfig) AlertsAllowed() bool {
	return c.CanViewAlerts != nil && *c.CanViewAlerts
}
