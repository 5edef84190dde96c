package model

import "testing"

func TestJobMapEligible(t *testing.T) {
	j := Job{ID: "j1", Status: JobPending}
	if j.MapEligible() {
		t.Fatal("job without coordinate must not be map-eligible")
	}
	j.Location = &Coordinate{Lat: 0, Lng: 0}
	if !j.MapEligible() {
		t.Fatal("zero is a valid coordinate")
	}
}

func TestTeamMemberDisplayName(t *testing.T) {
	cases := []struct {
		first, last, want string
	}{
		{"Ana", "Reyes", "Ana Reyes"},
		{"Ana", "", "Ana"},
		{"", "Reyes", "Reyes"},
		{"", "", ""},
	}
	for _, c := range cases {
		m := TeamMember{FirstName: c.first, LastName: c.last}
		if got := m.DisplayName(); got != c.want {
			t.Errorf("DisplayName(%q,%q) = %q want %q", c.first, c.last, got, c.want)
		}
	}
}

func TestEnumValidity(t *testing.T) {
	if !JobInProgress.Valid() || JobStatus("archived").Valid() {
		t.Fatal("job status validity")
	}
	if !StatusDriving.Valid() || ActivityStatus("napping").Valid() {
		t.Fatal("activity status validity")
	}
	if !AlertSpeedWarning.Valid() || AlertKind("noise").Valid() {
		t.Fatal("alert kind validity")
	}
}
