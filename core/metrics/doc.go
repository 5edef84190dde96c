package metrics

// Package metrics defines interfaces and implementations for collecting
// dispatch-engine observability events. Sinks like PromSink and InfluxSink
// record refreshes, assignment commits and route optimizations and can be
// combined with NewMultiSink. The factory helpers return a MultiSink
// automatically when multiple sinks are configured.
