package metrics

import "github.com/fieldline/dispatch/core/factory"

// Config defines settings for metrics sinks.
type Config struct {
	Sinks []factory.ModuleConfig `json:"sinks"`
	// PrometheusAddr, when set, starts the /metrics HTTP server.
	PrometheusAddr string `json:"prometheus_addr"`
}
