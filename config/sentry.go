package config

// SentryConfig wires crash reporting for the charging service. With an
// empty DSN the service runs without external error reporting.
type SentryConfig struct {
	DSN              string  `json:"dsn"`
	Environment      string  `json:"environment"`
	TracesSampleRate float64 `json:"traces_sample_rate"`
	Release          string  `json:"release"`
}
