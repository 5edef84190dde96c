package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	c, err := NewClient(Config{BaseURL: srv.URL, Token: "tok"})
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	return c
}

func TestListJobsDecodesRows(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/jobs" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer tok" {
			t.Errorf("missing bearer token, got %q", got)
		}
		w.Write([]byte(`[
			{"id":"J1","title":"Fix pump","status":"pending","latitude":-16.9,"longitude":145.7},
			{"id":"J2","title":"Quote","status":"scheduled","latitude":null,"longitude":null}
		]`))
	})
	jobs, err := c.ListJobs(context.Background())
	if err != nil {
		t.Fatalf("ListJobs: %v", err)
	}
	if len(jobs) != 2 {
		t.Fatalf("expected 2 jobs, got %d", len(jobs))
	}
	if jobs[0].Location == nil || jobs[0].Location.Lat != -16.9 {
		t.Fatalf("expected located job, got %+v", jobs[0])
	}
	if jobs[1].Location != nil {
		t.Fatal("null coordinates must yield nil Location")
	}
}

func TestErrorEnvelopeIsAnError(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"error":"tenant suspended"}`))
	})
	if _, err := c.ListJobs(context.Background()); err == nil || !strings.Contains(err.Error(), "tenant suspended") {
		t.Fatalf("expected envelope error, got %v", err)
	}
}

func TestNonOKStatusIsAnError(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusBadGateway)
	})
	if _, err := c.ListTeamLocations(context.Background()); err == nil {
		t.Fatal("expected error for 502")
	}
}

func TestAssignJobPostsCommand(t *testing.T) {
	var got map[string]string
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/jobs/assign" {
			t.Errorf("unexpected %s %s", r.Method, r.URL.Path)
		}
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("decode body: %v", err)
		}
		w.Write([]byte(`{}`))
	})
	if err := c.AssignJob(context.Background(), "J1", "W2", "cmd-9"); err != nil {
		t.Fatalf("AssignJob: %v", err)
	}
	if got["jobId"] != "J1" || got["assigneeId"] != "W2" || got["commandId"] != "cmd-9" {
		t.Fatalf("unexpected payload %v", got)
	}
}

func TestOptimizeRouteReturnsOrder(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			JobIDs []string `json:"jobIds"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Errorf("decode body: %v", err)
		}
		if len(body.JobIDs) != 3 {
			t.Errorf("expected 3 ids, got %v", body.JobIDs)
		}
		w.Write([]byte(`{"order":["J3","J1","J2"]}`))
	})
	order, err := c.OptimizeRoute(context.Background(), []string{"J1", "J2", "J3"}, nil)
	if err != nil {
		t.Fatalf("OptimizeRoute: %v", err)
	}
	if len(order) != 3 || order[0] != "J3" {
		t.Fatalf("unexpected order %v", order)
	}
}

func TestMarkAlertRead(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/alerts/geofence/read" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		w.Write([]byte(`{}`))
	})
	if err := c.MarkAlertRead(context.Background(), "A1"); err != nil {
		t.Fatalf("MarkAlertRead: %v", err)
	}
}
