// Package metrics provides the concrete observability sinks: Prometheus,
// InfluxDB, and a fan-out multi sink, plus the event bus collector that
// feeds them.
package metrics

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"

	coremetrics "github.com/nightwatt/nightwatt/core/metrics"
)

// PromSink records charging service events in Prometheus metrics.
type PromSink struct {
	plans       *prometheus.CounterVec
	transitions *prometheus.CounterVec
	sessions    *prometheus.CounterVec
	sessionKWh  prometheus.Counter
	sessionCost prometheus.Counter
	actuations  *prometheus.CounterVec
	soc         prometheus.Gauge
}

// NewPromSink registers charging metrics on the default Prometheus
// registerer. The Prometheus server should be started separately using
// cfg.PrometheusPort.
func NewPromSink(cfg coremetrics.Config) (coremetrics.MetricsSink, error) {
	return NewPromSinkWithRegistry(cfg, prometheus.DefaultRegisterer)
}

// NewPromSinkWithRegistry registers metrics on the provided registerer.
// A nil registerer defaults to the global Prometheus registerer.
func NewPromSinkWithRegistry(cfg coremetrics.Config, reg prometheus.Registerer) (coremetrics.MetricsSink, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	plans := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "charging_plans_total",
		Help: "Total number of planning cycles",
	}, []string{"scheduled"})
	transitions := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "charging_state_transitions_total",
		Help: "Total number of controller state transitions",
	}, []string{"from", "to"})
	sessions := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "charging_sessions_total",
		Help: "Total number of finished charging sessions",
	}, []string{"result"})
	sessionKWh := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "charging_energy_kwh_total",
		Help: "Total energy charged from the grid",
	})
	sessionCost := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "charging_cost_total",
		Help: "Total cost of grid charging",
	})
	actuations := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "inverter_commands_total",
		Help: "Total number of inverter commands issued",
	}, []string{"command", "ok"})
	soc := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "battery_soc_percent",
		Help: "Current battery state of charge",
	})

	if err := reg.Register(plans); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			plans = are.ExistingCollector.(*prometheus.CounterVec)
		} else {
			return nil, err
		}
	}
	if err := reg.Register(transitions); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			transitions = are.ExistingCollector.(*prometheus.CounterVec)
		} else {
			return nil, err
		}
	}
	if err := reg.Register(sessions); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			sessions = are.ExistingCollector.(*prometheus.CounterVec)
		} else {
			return nil, err
		}
	}
	if err := reg.Register(sessionKWh); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			sessionKWh = are.ExistingCollector.(prometheus.Counter)
		} else {
			return nil, err
		}
	}
	if err := reg.Register(sessionCost); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			sessionCost = are.ExistingCollector.(prometheus.Counter)
		} else {
			return nil, err
		}
	}
	if err := reg.Register(actuations); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			actuations = are.ExistingCollector.(*prometheus.CounterVec)
		} else {
			return nil, err
		}
	}
	if err := reg.Register(soc); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			soc = are.ExistingCollector.(prometheus.Gauge)
		} else {
			return nil, err
		}
	}

	return &PromSink{
		plans:       plans,
		transitions: transitions,
		sessions:    sessions,
		sessionKWh:  sessionKWh,
		sessionCost: sessionCost,
		actuations:  actuations,
		soc:         soc,
	}, nil
}

// RecordPlan increments the plan counter for the cycle outcome.
func (s *PromSink) RecordPlan(rec coremetrics.PlanRecord) error {
	s.plans.WithLabelValues(strconv.FormatBool(rec.Scheduled)).Inc()
	return nil
}

// RecordStateTransition increments the transition counter.
func (s *PromSink) RecordStateTransition(rec coremetrics.StateRecord) error {
	s.transitions.WithLabelValues(rec.From.String(), rec.To.String()).Inc()
	return nil
}

// RecordSession counts the session and accumulates energy and cost.
func (s *PromSink) RecordSession(rec coremetrics.SessionRecord) error {
	s.sessions.WithLabelValues(rec.Result).Inc()
	if rec.KWhCharged > 0 {
		s.sessionKWh.Add(rec.KWhCharged)
	}
	if rec.Cost > 0 {
		s.sessionCost.Add(rec.Cost)
	}
	return nil
}

// RecordActuation increments the inverter command counter.
func (s *PromSink) RecordActuation(rec coremetrics.ActuationRecord) error {
	s.actuations.WithLabelValues(rec.Command, strconv.FormatBool(rec.OK)).Inc()
	return nil
}

// RecordSoC sets the SOC gauge.
func (s *PromSink) RecordSoC(socPercent float64) error {
	s.soc.Set(socPercent)
	return nil
}
