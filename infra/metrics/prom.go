package metrics

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"

	coremetrics "github.com/fieldline/dispatch/core/metrics"
)

// PromSink records dispatch-map events in Prometheus metrics.
type PromSink struct {
	refreshes *prometheus.CounterVec
	refreshMS *prometheus.HistogramVec
	commits   *prometheus.CounterVec
	optimizes *prometheus.CounterVec
	located   prometheus.Gauge
}

// NewPromSink registers the dispatch metrics on the default Prometheus
// registerer. The /metrics HTTP server is started separately.
func NewPromSink() (coremetrics.Sink, error) {
	return NewPromSinkWithRegistry(prometheus.DefaultRegisterer)
}

// NewPromSinkWithRegistry registers metrics on the provided registerer.
// A nil registerer defaults to the global Prometheus registerer.
func NewPromSinkWithRegistry(reg prometheus.Registerer) (coremetrics.Sink, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	refreshes := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "dispatch_refreshes_total",
		Help: "Total number of collection refresh cycles",
	}, []string{"collection", "degraded"})
	refreshMS := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "dispatch_refresh_seconds",
		Help:    "Duration of collection refresh cycles",
		Buckets: prometheus.DefBuckets,
	}, []string{"collection"})
	commits := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "dispatch_assignment_commits_total",
		Help: "Total number of assignment commit attempts",
	}, []string{"committed"})
	optimizes := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "dispatch_route_optimizations_total",
		Help: "Total number of route optimization attempts",
	}, []string{"succeeded", "fallback"})
	located := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "dispatch_team_located_workers",
		Help: "Number of team members with a known last location",
	})

	if err := reg.Register(refreshes); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			refreshes = are.ExistingCollector.(*prometheus.CounterVec)
		} else {
			return nil, err
		}
	}
	if err := reg.Register(refreshMS); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			refreshMS = are.ExistingCollector.(*prometheus.HistogramVec)
		} else {
			return nil, err
		}
	}
	if err := reg.Register(commits); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			commits = are.ExistingCollector.(*prometheus.CounterVec)
		} else {
			return nil, err
		}
	}
	if err := reg.Register(optimizes); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			optimizes = are.ExistingCollector.(*prometheus.CounterVec)
		} else {
			return nil, err
		}
	}
	if err := reg.Register(located); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			located = are.ExistingCollector.(prometheus.Gauge)
		} else {
			return nil, err
		}
	}

	return &PromSink{
		refreshes: refreshes,
		refreshMS: refreshMS,
		commits:   commits,
		optimizes: optimizes,
		located:   located,
	}, nil
}

// RecordRefresh increments the refresh counter and observes its duration.
func (s *PromSink) RecordRefresh(ev coremetrics.RefreshEvent) error {
	s.refreshes.WithLabelValues(ev.Collection, strconv.FormatBool(ev.Degraded)).Inc()
	s.refreshMS.WithLabelValues(ev.Collection).Observe(ev.Took.Seconds())
	return nil
}

// RecordAssignment counts a commit attempt by outcome.
func (s *PromSink) RecordAssignment(ev coremetrics.AssignmentEvent) error {
	s.commits.WithLabelValues(strconv.FormatBool(ev.Committed)).Inc()
	return nil
}

// RecordOptimize counts a route optimization attempt by outcome.
func (s *PromSink) RecordOptimize(ev coremetrics.OptimizeEvent) error {
	s.optimizes.WithLabelValues(strconv.FormatBool(ev.Succeeded), strconv.FormatBool(ev.Fallback)).Inc()
	return nil
}

// RecordTeamSize sets the located-worker gauge.
func (s *PromSink) RecordTeamSize(located int) error {
	if s.located != nil {
		s.located.Set(float64(located))
	}
	return nil
}
