package metrics

import (
	"context"
	"time"

	"github.com/fieldline/dispatch/core/events"
	coremetrics "github.com/fieldline/dispatch/core/metrics"
	"github.com/fieldline/dispatch/internal/eventbus"
)

// StartEventCollector subscribes to the event bus and records metrics for
// snapshot, commit and optimization events. It stops when the context is
// canceled.
func StartEventCollector(ctx context.Context, bus eventbus.EventBus, sink coremetrics.Sink) {
	if bus == nil || sink == nil {
		return
	}
	sub := bus.Subscribe()
	go func() {
		defer bus.Unsubscribe(sub)
		for {
			select {
			case <-ctx.Done():
				return
			case ev, ok := <-sub:
				if !ok {
					return
				}
				record(sink, ev)
			}
		}
	}()
}

func record(sink coremetrics.Sink, ev eventbus.Event) {
	switch e := ev.(type) {
	case events.JobsReplaced:
		_ = sink.RecordRefresh(coremetrics.RefreshEvent{
			Collection: "jobs",
			Count:      e.Count,
			Degraded:   e.Degraded,
			Took:       e.Took,
			Time:       time.Now(),
		})
	case events.TeamReplaced:
		_ = sink.RecordRefresh(coremetrics.RefreshEvent{
			Collection: "team",
			Count:      e.Count,
			Degraded:   e.Degraded,
			Took:       e.Took,
			Time:       time.Now(),
		})
		if r, ok := sink.(coremetrics.TeamSizeRecorder); ok {
			_ = r.RecordTeamSize(e.Located)
		}
	case events.AlertsReplaced:
		_ = sink.RecordRefresh(coremetrics.RefreshEvent{
			Collection: "alerts",
			Count:      e.Count,
			Degraded:   e.Degraded,
			Took:       e.Took,
			Time:       time.Now(),
		})
	case events.AssignmentCommitted:
		if r, ok := sink.(coremetrics.AssignmentRecorder); ok {
			errStr := ""
			if e.Err != nil {
				errStr = e.Err.Error()
			}
			_ = r.RecordAssignment(coremetrics.AssignmentEvent{
				JobID:      e.JobID,
				AssigneeID: e.AssigneeID,
				CommandID:  e.CommandID,
				Committed:  e.Err == nil,
				Latency:    e.Latency,
				Error:      errStr,
				Time:       time.Now(),
			})
		}
	case events.RouteOptimized:
		if r, ok := sink.(coremetrics.OptimizeRecorder); ok {
			_ = r.RecordOptimize(coremetrics.OptimizeEvent{
				Requested: e.Requested,
				Kept:      e.Kept,
				Fallback:  e.Fallback,
				Succeeded: e.Err == nil,
				Latency:   e.Latency,
				Time:      time.Now(),
			})
		}
	}
}
