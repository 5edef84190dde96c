// Package scenarios runs scripted dispatch-map flows defined in YAML files.
// Each file describes a board of jobs and workers, a tap sequence, and the
// expected assignments afterwards.
package scenarios

import (
	"os"

	"gopkg.in/yaml.v3"

	"github.com/fieldline/dispatch/core/model"
)

type JobDef struct {
	ID       string   `yaml:"id"`
	Title    string   `yaml:"title"`
	Status   string   `yaml:"status"`
	Lat      *float64 `yaml:"lat"`
	Lng      *float64 `yaml:"lng"`
	Assignee string   `yaml:"assignee,omitempty"`
}

func (j JobDef) ToModel() model.Job {
	job := model.Job{
		ID:         j.ID,
		Title:      j.Title,
		Status:     model.JobStatus(j.Status),
		AssigneeID: j.Assignee,
	}
	if j.Lat != nil && j.Lng != nil {
		job.Location = &model.Coordinate{Lat: *j.Lat, Lng: *j.Lng}
	}
	return job
}

type WorkerDef struct {
	ID        string `yaml:"id"`
	FirstName string `yaml:"first_name"`
	LastName  string `yaml:"last_name"`
	Status    string `yaml:"status"`
}

func (w WorkerDef) ToModel() model.TeamMember {
	return model.TeamMember{
		ID:             w.ID,
		FirstName:      w.FirstName,
		LastName:       w.LastName,
		ActivityStatus: model.ActivityStatus(w.Status),
	}
}

// TapDef is one dispatcher gesture. Exactly one field is set per step.
type TapDef struct {
	Worker  string `yaml:"worker,omitempty"`
	Job     string `yaml:"job,omitempty"`
	Confirm bool   `yaml:"confirm,omitempty"`
	Cancel  bool   `yaml:"cancel,omitempty"`
	Clear   bool   `yaml:"clear,omitempty"`
}

type Expected struct {
	// Assigned maps job id to the expected assignee after the flow.
	Assigned map[string]string `yaml:"assigned,omitempty"`
	// Phase is the expected final machine phase: idle, worker_selected,
	// confirm_pending.
	Phase string `yaml:"phase"`
	// Commits is the expected number of backend commit calls.
	Commits int `yaml:"commits"`
}

type Scenario struct {
	Name        string      `yaml:"name"`
	Description string      `yaml:"description,omitempty"`
	CanAssign   *bool       `yaml:"can_assign,omitempty"`
	Jobs        []JobDef    `yaml:"jobs"`
	Workers     []WorkerDef `yaml:"workers"`
	Taps        []TapDef    `yaml:"taps"`
	// FailJobs lists job ids whose commit the backend rejects.
	FailJobs []string `yaml:"fail_jobs,omitempty"`
	Expected Expected  `yaml:"expected"`
}

// Load reads a scenario definition from a YAML file.
func Load(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var sc Scenario
	if err := yaml.Unmarshal(data, &sc); err != nil {
		return nil, err
	}
	return &sc, nil
}
