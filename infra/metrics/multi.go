package metrics

import coremetrics "github.com/nightwatt/nightwatt/core/metrics"

// MultiSink fans records out to multiple sinks.
type MultiSink struct {
	Sinks []coremetrics.MetricsSink
}

// NewMultiSink creates a MultiSink with the provided sinks.
func NewMultiSink(sinks ...coremetrics.MetricsSink) *MultiSink {
	return &MultiSink{Sinks: sinks}
}

// RecordPlan forwards the record to all sinks, returning the first error
// encountered.
func (m *MultiSink) RecordPlan(rec coremetrics.PlanRecord) error {
	for _, s := range m.Sinks {
		if err := s.RecordPlan(rec); err != nil {
			return err
		}
	}
	return nil
}

// RecordStateTransition forwards the record to all sinks.
func (m *MultiSink) RecordStateTransition(rec coremetrics.StateRecord) error {
	for _, s := range m.Sinks {
		if err := s.RecordStateTransition(rec); err != nil {
			return err
		}
	}
	return nil
}

// RecordSession forwards the record to all sinks.
func (m *MultiSink) RecordSession(rec coremetrics.SessionRecord) error {
	for _, s := range m.Sinks {
		if err := s.RecordSession(rec); err != nil {
			return err
		}
	}
	return nil
}

// RecordActuation forwards the record to all sinks.
func (m *MultiSink) RecordActuation(rec coremetrics.ActuationRecord) error {
	for _, s := range m.Sinks {
		if err := s.RecordActuation(rec); err != nil {
			return err
		}
	}
	return nil
}

// RecordSoC forwards the sample to all sinks.
func (m *MultiSink) RecordSoC(socPercent float64) error {
	for _, s := range m.Sinks {
		if err := s.RecordSoC(socPercent); err != nil {
			return err
		}
	}
	return nil
}
