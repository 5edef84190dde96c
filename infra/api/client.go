// Package api implements the HTTP backend client used by the entity store,
// alert center, assignment machine and route builder.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/fieldline/dispatch/core/model"
	"github.com/fieldline/dispatch/core/store"
	"github.com/fieldline/dispatch/infra/logger"
)

// Config holds the backend endpoint settings.
type Config struct {
	BaseURL string `json:"base_url"`
	Token   string `json:"token"`
	// TimeoutSeconds bounds each request. Zero means 10 seconds.
	TimeoutSeconds int `json:"timeout_seconds"`
}

// Validate checks mandatory fields.
func (c Config) Validate() error {
	if c.BaseURL == "" {
		return fmt.Errorf("api: base_url is required")
	}
	if c.TimeoutSeconds < 0 {
		return fmt.Errorf("api: timeout_seconds cannot be negative")
	}
	return nil
}

// Client talks to the dispatch backend over HTTP. It satisfies the backend
// interfaces of store.Store, alerts.Center, assignment.Machine and
// routeplan.Builder.
type Client struct {
	base  string
	token string
	httpc *http.Client
	log   logger.Logger
}

// NewClient creates a backend client from the given configuration.
func NewClient(cfg Config) (*Client, error) {
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("api: base url required")
	}
	timeout := time.Duration(cfg.TimeoutSeconds) * time.Second
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		base:  cfg.BaseURL,
		token: cfg.Token,
		httpc: &http.Client{Timeout: timeout},
		log:   logger.New("api-client"),
	}, nil
}

type jobRow struct {
	ID         string   `json:"id"`
	Title      string   `json:"title"`
	Status     string   `json:"status"`
	Address    string   `json:"address"`
	ClientID   string   `json:"clientId"`
	AssigneeID string   `json:"assigneeId"`
	Latitude   *float64 `json:"latitude"`
	Longitude  *float64 `json:"longitude"`
}

func (r jobRow) job() model.Job {
	j := model.Job{
		ID:         r.ID,
		Title:      r.Title,
		Status:     model.JobStatus(r.Status),
		Address:    r.Address,
		ClientID:   r.ClientID,
		AssigneeID: r.AssigneeID,
	}
	if r.Latitude != nil && r.Longitude != nil {
		j.Location = &model.Coordinate{Lat: *r.Latitude, Lng: *r.Longitude}
	}
	return j
}

// ListJobs fetches the full job list.
func (c *Client) ListJobs(ctx context.Context) ([]model.Job, error) {
	var rows []jobRow
	if err := c.getJSON(ctx, "/jobs", &rows); err != nil {
		return nil, err
	}
	jobs := make([]model.Job, len(rows))
	for i, r := range rows {
		jobs[i] = r.job()
	}
	return jobs, nil
}

// ListTeamLocations fetches the latest location row per team member.
func (c *Client) ListTeamLocations(ctx context.Context) ([]store.TeamLocationRow, error) {
	var rows []store.TeamLocationRow
	if err := c.getJSON(ctx, "/team/locations", &rows); err != nil {
		return nil, err
	}
	return rows, nil
}

type alertRow struct {
	ID         string    `json:"id"`
	WorkerID   string    `json:"workerId"`
	WorkerName string    `json:"workerName"`
	JobID      string    `json:"jobId"`
	JobTitle   string    `json:"jobTitle"`
	Kind       string    `json:"kind"`
	Address    string    `json:"address"`
	CreatedAt  time.Time `json:"createdAt"`
	Read       bool      `json:"read"`
}

// ListGeofenceAlerts fetches the geofence alert feed, newest first.
func (c *Client) ListGeofenceAlerts(ctx context.Context) ([]model.GeofenceAlert, error) {
	var rows []alertRow
	if err := c.getJSON(ctx, "/alerts/geofence", &rows); err != nil {
		return nil, err
	}
	alerts := make([]model.GeofenceAlert, len(rows))
	for i, r := range rows {
		alerts[i] = model.GeofenceAlert{
			ID:         r.ID,
			WorkerID:   r.WorkerID,
			WorkerName: r.WorkerName,
			JobID:      r.JobID,
			JobTitle:   r.JobTitle,
			Kind:       model.AlertKind(r.Kind),
			Address:    r.Address,
			CreatedAt:  r.CreatedAt,
			Read:       r.Read,
		}
	}
	return alerts, nil
}

// MarkAlertRead flags a single alert as read on the backend.
func (c *Client) MarkAlertRead(ctx context.Context, alertID string) error {
	body := map[string]string{"alertId": alertID}
	return c.postJSON(ctx, "/alerts/geofence/read", body, nil)
}

// AssignJob commits an assignment. commandID deduplicates retries server side.
func (c *Client) AssignJob(ctx context.Context, jobID, assigneeID, commandID string) error {
	body := map[string]string{
		"jobId":      jobID,
		"assigneeId": assigneeID,
		"commandId":  commandID,
	}
	return c.postJSON(ctx, "/jobs/assign", body, nil)
}

// OptimizeRoute submits an ordered id list and returns the optimized order.
// The response is not trusted; callers filter it against known stops.
func (c *Client) OptimizeRoute(ctx context.Context, jobIDs []string, origin *model.Coordinate) ([]string, error) {
	body := map[string]any{"jobIds": jobIDs}
	if origin != nil {
		body["origin"] = origin
	}
	var out struct {
		Order []string `json:"order"`
	}
	if err := c.postJSON(ctx, "/routes/optimize", body, &out); err != nil {
		return nil, err
	}
	return out.Order, nil
}

func (c *Client) getJSON(ctx context.Context, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.base+path, nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	return c.do(req, out)
}

func (c *Client) postJSON(ctx context.Context, path string, body, out any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("encode request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.base+path, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	return c.do(req, out)
}

func (c *Client) do(req *http.Request, out any) error {
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	resp, err := c.httpc.Do(req)
	if err != nil {
		return fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status code: %d, body: %s", resp.StatusCode, data)
	}

	// Some deployments answer 200 with an error envelope instead of a list.
	var envelope struct {
		Error string `json:"error"`
	}
	if err := json.Unmarshal(data, &envelope); err == nil && envelope.Error != "" {
		return fmt.Errorf("backend error: %s", envelope.Error)
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
