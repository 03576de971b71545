// Package metrics defines the observability contract for the charging
// service. Sinks record planning outcomes, state transitions, finished
// sessions, and actuation attempts; implementations live under infra.
package metrics

import (
	"time"

	"github.com/nightwatt/nightwatt/core/model"
)

// PlanRecord captures one planning cycle.
type PlanRecord struct {
	Scheduled   bool
	RequiredKWh float64
	AvgPrice    float64
	TargetSoC   float64
	DeficitKWh  float64
	WindowHours int
	Time        time.Time
}

// StateRecord captures one controller state transition.
type StateRecord struct {
	From model.ChargingState
	To   model.ChargingState
	SoC  float64
	Time time.Time
}

// SessionRecord captures one finished charging session.
type SessionRecord struct {
	Result     string
	KWhCharged float64
	Cost       float64
	StartSoC   float64
	EndSoC     float64
	Time       time.Time
}

// ActuationRecord captures one gateway command attempt.
type ActuationRecord struct {
	Command string
	OK      bool
	Time    time.Time
}

// MetricsSink records charging service events for observability purposes.
type MetricsSink interface {
	RecordPlan(rec PlanRecord) error
	RecordStateTransition(rec StateRecord) error
	RecordSession(rec SessionRecord) error
	RecordActuation(rec ActuationRecord) error
	RecordSoC(socPercent float64) error
}

// NopSink implements MetricsSink with no-op methods.
type NopSink struct{}

func (NopSink) RecordPlan(PlanRecord) error             { return nil }
func (NopSink) RecordStateTransition(StateRecord) error { return nil }
func (NopSink) RecordSession(SessionRecord) error       { return nil }
func (NopSink) RecordActuation(ActuationRecord) error   { return nil }
func (NopSink) RecordSoC(float64) error                 { return nil }

// Config defines settings for metrics sinks.
type Config struct {
	PrometheusEnabled bool   `json:"prometheus_enabled"`
	PrometheusPort    string `json:"prometheus_port"`
	InfluxEnabled     bool   `json:"influx_enabled"`
	InfluxURL         string `json:"influx_url"`
	InfluxToken       string `json:"influx_token"`
	InfluxOrg         string `json:"influx_org"`
	InfluxBucket      string `json:"influx_bucket"`
}

// SetDefaults applies the stock Prometheus listen address.
func (c *Config) SetDefaults() {
	if c.PrometheusPort == "" {
		c.PrometheusPort = ":2112"
	}
}
