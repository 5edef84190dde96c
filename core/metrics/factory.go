package metrics

import "github.com/fieldline/dispatch/core/factory"

var sinkRegistry = factory.NewRegistry[Sink]()

// RegisterSink adds a metrics sink factory identified by name.
func RegisterSink(name string, f factory.Factory[Sink]) error {
	return sinkRegistry.Register(name, f)
}

// NewSink creates a Sink from the provided configuration.
func NewSink(cfgs []factory.ModuleConfig) (Sink, error) {
	if len(cfgs) == 0 {
		return NopSink{}, nil
	}
	if len(cfgs) == 1 {
		return sinkRegistry.Create(cfgs[0])
	}
	sinks := make([]Sink, len(cfgs))
	for i, c := range cfgs {
		s, err := sinkRegistry.Create(c)
		if err != nil {
			return nil, err
		}
		sinks[i] = s
	}
	return NewMultiSink(sinks...), nil
}

// MultiSink fans events out to multiple sinks.
type MultiSink struct {
	Sinks []Sink
}

// NewMultiSink creates a MultiSink with the provided sinks.
func NewMultiSink(sinks ...Sink) *MultiSink {
	return &MultiSink{Sinks: sinks}
}

// RecordRefresh forwards the event to all sinks, returning the first error.
func (m *MultiSink) RecordRefresh(ev RefreshEvent) error {
	for _, s := range m.Sinks {
		if err := s.RecordRefresh(ev); err != nil {
			return err
		}
	}
	return nil
}

// RecordAssignment forwards the event to capable sinks.
func (m *MultiSink) RecordAssignment(ev AssignmentEvent) error {
	for _, s := range m.Sinks {
		if rec, ok := s.(AssignmentRecorder); ok {
			if err := rec.RecordAssignment(ev); err != nil {
				return err
			}
		}
	}
	return nil
}

// RecordOptimize forwards the event to capable sinks.
func (m *MultiSink) RecordOptimize(ev OptimizeEvent) error {
	for _, s := range m.Sinks {
		if rec, ok := s.(OptimizeRecorder); ok {
			if err := rec.RecordOptimize(ev); err != nil {
				return err
			}
		}
	}
	return nil
}

// RecordTeamSize forwards the located-worker count to capable sinks.
func (m *MultiSink) RecordTeamSize(located int) error {
	for _, s := range m.Sinks {
		if rec, ok := s.(TeamSizeRecorder); ok {
			if err := rec.RecordTeamSize(located); err != nil {
				return err
			}
		}
	}
	return nil
}
