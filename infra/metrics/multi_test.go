package metrics

import (
	"testing"

	coremetrics "github.com/nightwatt/nightwatt/core/metrics"
)

type recordSink struct {
	count int
}

func (r *recordSink) RecordPlan(coremetrics.PlanRecord) error {
	r.count++
	return nil
}

func (r *recordSink) RecordStateTransition(coremetrics.StateRecord) error {
	r.count++
	return nil
}

func (r *recordSink) RecordSession(coremetrics.SessionRecord) error {
	r.count++
	return nil
}

func (r *recordSink) RecordActuation(coremetrics.ActuationRecord) error {
	r.count++
	return nil
}

func (r *recordSink) RecordSoC(float64) error {
	r.count++
	return nil
}

func TestMultiSink(t *testing.T) {
	s1 := &recordSink{}
	s2 := &recordSink{}
	m := NewMultiSink(s1, s2)
	if err := m.RecordPlan(coremetrics.PlanRecord{}); err != nil {
		t.Fatalf("record plan: %v", err)
	}
	if err := m.RecordStateTransition(coremetrics.StateRecord{}); err != nil {
		t.Fatalf("record transition: %v", err)
	}
	if err := m.RecordSoC(50); err != nil {
		t.Fatalf("record soc: %v", err)
	}
	if s1.count != 3 || s2.count != 3 {
		t.Fatalf("records not forwarded")
	}
}
