package factory

// Package factory provides a small generic registry used to build pluggable
// modules (metrics sinks) from configuration.
