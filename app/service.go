// Package app wires the dispatch map engine together: backend client, entity
// store, pollers, assignment machine, route builder, alert center and
// viewport controller.
package app

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/fieldline/dispatch/config"
	"github.com/fieldline/dispatch/core/alerts"
	"github.com/fieldline/dispatch/core/assignment"
	"github.com/fieldline/dispatch/core/geo"
	coremetrics "github.com/fieldline/dispatch/core/metrics"
	"github.com/fieldline/dispatch/core/model"
	coremon "github.com/fieldline/dispatch/core/monitoring"
	"github.com/fieldline/dispatch/core/poller"
	"github.com/fieldline/dispatch/core/routeplan"
	"github.com/fieldline/dispatch/core/store"
	"github.com/fieldline/dispatch/core/viewport"
	"github.com/fieldline/dispatch/infra/api"
	"github.com/fieldline/dispatch/infra/feed"
	"github.com/fieldline/dispatch/infra/logger"
	"github.com/fieldline/dispatch/infra/metrics"
	"github.com/fieldline/dispatch/infra/monitoring"
	"github.com/fieldline/dispatch/internal/eventbus"
)

// LocationProvider yields the dispatcher's own position. A denied permission
// surfaces as an error; everything else keeps working without it.
type LocationProvider interface {
	CurrentLocation(ctx context.Context) (model.Coordinate, error)
}

// Service owns every engine component and their lifecycles.
type Service struct {
	Store      *store.Store
	Alerts     *alerts.Center
	Assignment *assignment.Machine
	Route      *routeplan.Builder
	Viewport   *viewport.Controller

	bus         eventbus.EventBus
	log         logger.Logger
	sink        coremetrics.Sink
	teamPoller  *poller.Poller
	alertPoller *poller.Poller
	feed        *feed.Feed
	feedCfg     feed.Config
	promAddr    string
	locations   LocationProvider
	applyHook   func(geo.Region)

	canViewAlerts bool

	mu       sync.Mutex
	region   geo.Region
	hasFit   bool
	tracking bool
	visible  bool
}

// Option customizes a Service before wiring completes.
type Option func(*Service)

// WithApplyRegion forwards fitted regions to the host map UI in addition to
// recording them on the service.
func WithApplyRegion(apply func(geo.Region)) Option {
	return func(s *Service) {
		if apply != nil {
			s.applyHook = apply
		}
	}
}

// WithLocationProvider supplies the dispatcher's own position for the
// center-on-me action and the optimizer origin.
func WithLocationProvider(p LocationProvider) Option {
	return func(s *Service) { s.locations = p }
}

// New creates a Service from the configuration.
func New(cfg *config.Config, opts ...Option) (*Service, error) {
	logg := logger.New("service")

	sink, err := coremetrics.NewSink(cfg.Metrics.Sinks)
	if err != nil {
		return nil, fmt.Errorf("metrics sink: %w", err)
	}

	monitor, err := monitoring.NewSentryMonitor(cfg.Sentry)
	if err != nil {
		return nil, fmt.Errorf("sentry: %w", err)
	}
	coremon.Init(monitor)

	client, err := api.NewClient(cfg.API)
	if err != nil {
		return nil, fmt.Errorf("api client: %w", err)
	}

	bus := eventbus.New()
	st := store.New(client, bus, logger.New("store"))
	center := alerts.New(client, bus, logger.New("alerts"))

	machine, err := assignment.NewMachine(client, st, cfg.Capabilities.AssignAllowed(), bus, logger.New("assignment"))
	if err != nil {
		return nil, fmt.Errorf("assignment machine: %w", err)
	}
	builder, err := routeplan.NewBuilder(client, st, true, bus, logger.New("routeplan"))
	if err != nil {
		return nil, fmt.Errorf("route builder: %w", err)
	}

	svc := &Service{
		Store:      st,
		Alerts:     center,
		Assignment: machine,
		Route:      builder,
		bus:        bus,
		log:        logg,
		sink:       sink,
		feedCfg:    cfg.Feed,
		promAddr:   cfg.Metrics.PrometheusAddr,

		canViewAlerts: cfg.Capabilities.AlertsAllowed(),
		tracking:      true,
		visible:       true,
	}
	for _, opt := range opts {
		opt(svc)
	}

	vpCfg := viewport.Config{
		DebounceMS:   cfg.Map.DebounceMS,
		PadCollapsed: padding(cfg.Map.PadCollapsed),
		PadExpanded:  padding(cfg.Map.PadExpanded),
	}
	svc.Viewport = viewport.New(st, bus, svc.applyRegion, vpCfg, logger.New("viewport"))

	svc.teamPoller = poller.New("team",
		time.Duration(cfg.Poll.TeamIntervalSeconds)*time.Second, st.RefreshTeam, logg)
	svc.alertPoller = poller.New("alerts",
		time.Duration(cfg.Poll.AlertsIntervalSeconds)*time.Second, center.Refresh, logg)

	return svc, nil
}

func padding(p config.PaddingConfig) geo.Padding {
	return geo.Padding{Top: p.Top, Right: p.Right, Bottom: p.Bottom, Left: p.Left}
}

func (s *Service) applyRegion(r geo.Region) {
	s.mu.Lock()
	s.region = r
	s.hasFit = true
	hook := s.applyHook
	s.mu.Unlock()
	if hook != nil {
		hook(r)
	}
}

// Region returns the last fitted map region.
func (s *Service) Region() (geo.Region, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.region, s.hasFit
}

// Run loads the initial snapshots, starts the pollers and the optional live
// feed, then blocks until the context is cancelled.
func (s *Service) Run(ctx context.Context) error {
	defer coremon.Recover()

	metrics.StartEventCollector(ctx, s.bus, s.sink)
	if s.promAddr != "" {
		go func() {
			if err := metrics.StartPromServer(ctx, s.promAddr); err != nil {
				s.log.Errorf("prom server: %v", err)
			}
		}()
	}

	s.RefreshAll(ctx)
	s.Viewport.FitNow()

	s.applyGates(ctx)

	if s.feedCfg.Enabled {
		f, err := feed.New(s.feedCfg, s.Store)
		if err != nil {
			// The feed supplements polling; losing it is not fatal.
			s.log.Errorf("location feed unavailable: %v", err)
			coremon.CaptureException(err, map[string]string{"component": "feed"})
		} else {
			s.feed = f
		}
	}

	<-ctx.Done()
	return nil
}

// RefreshAll reloads jobs, team and alerts concurrently. Used on startup and
// for pull-to-refresh; failures degrade each collection independently and the
// call returns only once every refresh settled.
func (s *Service) RefreshAll(ctx context.Context) {
	var wg sync.WaitGroup
	wg.Add(2)
	go func() { defer wg.Done(); s.Store.RefreshJobs(ctx) }()
	go func() { defer wg.Done(); s.Store.RefreshTeam(ctx) }()
	if s.canViewAlerts {
		wg.Add(1)
		go func() { defer wg.Done(); s.Alerts.Refresh(ctx) }()
	}
	wg.Wait()
}

// applyGates reconciles both pollers with the current gating conditions:
// team polling needs a visible map and live tracking, alert polling needs a
// visible map and the supervisory capability.
func (s *Service) applyGates(ctx context.Context) {
	s.mu.Lock()
	team := s.visible && s.tracking
	alert := s.visible && s.canViewAlerts
	s.mu.Unlock()
	s.teamPoller.Apply(ctx, team)
	s.alertPoller.Apply(ctx, alert)
}

// SetMapVisible gates the pollers: polling runs only while the map screen is
// on screen.
func (s *Service) SetMapVisible(ctx context.Context, visible bool) {
	s.mu.Lock()
	s.visible = visible
	s.mu.Unlock()
	s.applyGates(ctx)
}

// SetLiveTracking toggles live tracking mode. The viewport widens to include
// worker markers while enabled and the team poll stops while disabled.
func (s *Service) SetLiveTracking(ctx context.Context, enabled bool) {
	s.mu.Lock()
	s.tracking = enabled
	s.mu.Unlock()
	s.Viewport.SetTracking(enabled)
	s.applyGates(ctx)
}

// CenterOnMe fits the map on the dispatcher's own position. Returns an error
// when no location provider is configured or the position is unavailable;
// nothing else is affected.
func (s *Service) CenterOnMe(ctx context.Context) (geo.Region, error) {
	if s.locations == nil {
		return geo.Region{}, fmt.Errorf("no location provider configured")
	}
	loc, err := s.locations.CurrentLocation(ctx)
	if err != nil {
		return geo.Region{}, fmt.Errorf("current location: %w", err)
	}
	r, _ := geo.FitRegion([]model.Coordinate{loc}, geo.Padding{})
	s.applyRegion(r)
	return r, nil
}

// OptimizeRoute runs the route optimization, feeding the dispatcher's own
// position as origin when available.
func (s *Service) OptimizeRoute(ctx context.Context) error {
	var origin *model.Coordinate
	if s.locations != nil {
		if loc, err := s.locations.CurrentLocation(ctx); err == nil {
			origin = &loc
		} else {
			s.log.Warnf("optimizer origin unavailable: %v", err)
		}
	}
	return s.Route.Optimize(ctx, origin)
}

// Close releases resources held by the service.
func (s *Service) Close() error {
	s.teamPoller.Stop()
	s.alertPoller.Stop()
	if s.feed != nil {
		s.feed.Close()
	}
	s.Viewport.Close()
	s.bus.Close()
	coremon.Flush(2 * time.Second)
	return nil
}
