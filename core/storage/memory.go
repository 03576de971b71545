package storage

import (
	"context"
	"sync"

	"github.com/nightwatt/nightwatt/core/model"
)

// MemoryStore is an in-memory Store used in tests and as the loaded cache
// behind the file-backed implementations.
type MemoryStore struct {
	mu             sync.RWMutex
	consumption    []float64
	forecastErrors []float64
	charges        []float64
	costs          []CostEntry
	lastSession    *model.ChargingSession
	state          string
	schedule       *model.ChargingSchedule
	enabled        bool
}

// NewMemoryStore creates an empty MemoryStore with charging enabled.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{state: model.StateIdle.String(), enabled: true}
}

func cloneFloats(in []float64) []float64 {
	if in == nil {
		return nil
	}
	out := make([]float64, len(in))
	copy(out, in)
	return out
}

func (s *MemoryStore) ConsumptionHistory() []float64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return cloneFloats(s.consumption)
}

func (s *MemoryStore) SetConsumptionHistory(history []float64) error {
	s.mu.Lock()
	s.consumption = cloneFloats(history)
	s.mu.Unlock()
	return nil
}

func (s *MemoryStore) ForecastErrorHistory() []float64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return cloneFloats(s.forecastErrors)
}

func (s *MemoryStore) SetForecastErrorHistory(history []float64) error {
	s.mu.Lock()
	s.forecastErrors = cloneFloats(history)
	s.mu.Unlock()
	return nil
}

func (s *MemoryStore) ChargeHistory() []float64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return cloneFloats(s.charges)
}

func (s *MemoryStore) SetChargeHistory(history []float64) error {
	s.mu.Lock()
	s.charges = cloneFloats(history)
	s.mu.Unlock()
	return nil
}

func (s *MemoryStore) SessionCostHistory() []CostEntry {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]CostEntry, len(s.costs))
	copy(out, s.costs)
	return out
}

func (s *MemoryStore) SetSessionCostHistory(history []CostEntry) error {
	s.mu.Lock()
	s.costs = make([]CostEntry, len(history))
	copy(s.costs, history)
	s.mu.Unlock()
	return nil
}

func (s *MemoryStore) LastSession() (model.ChargingSession, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.lastSession == nil {
		return model.ChargingSession{}, false
	}
	return *s.lastSession, true
}

func (s *MemoryStore) SetLastSession(session model.ChargingSession) error {
	s.mu.Lock()
	cp := session
	s.lastSession = &cp
	s.mu.Unlock()
	return nil
}

func (s *MemoryStore) ChargingState() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

func (s *MemoryStore) SetChargingState(state string) error {
	s.mu.Lock()
	s.state = state
	s.mu.Unlock()
	return nil
}

func (s *MemoryStore) CurrentSchedule() (model.ChargingSchedule, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.schedule == nil {
		return model.ChargingSchedule{}, false
	}
	return *s.schedule, true
}

func (s *MemoryStore) SetCurrentSchedule(schedule *model.ChargingSchedule) error {
	s.mu.Lock()
	if schedule == nil {
		s.schedule = nil
	} else {
		cp := *schedule
		s.schedule = &cp
	}
	s.mu.Unlock()
	return nil
}

func (s *MemoryStore) Enabled() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.enabled
}

func (s *MemoryStore) SetEnabled(enabled bool) error {
	s.mu.Lock()
	s.enabled = enabled
	s.mu.Unlock()
	return nil
}

// MemorySessionLog is an in-memory SessionLog for tests.
type MemorySessionLog struct {
	mu       sync.Mutex
	sessions []model.ChargingSession
}

func NewMemorySessionLog() *MemorySessionLog { return &MemorySessionLog{} }

func (l *MemorySessionLog) Append(_ context.Context, session model.ChargingSession) error {
	l.mu.Lock()
	l.sessions = append(l.sessions, session)
	l.mu.Unlock()
	return nil
}

func (l *MemorySessionLog) Query(_ context.Context, q SessionQuery) ([]model.ChargingSession, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	var out []model.ChargingSession
	for _, s := range l.sessions {
		if !q.Start.IsZero() && s.StartTime.Before(q.Start) {
			continue
		}
		if !q.End.IsZero() && s.StartTime.After(q.End) {
			continue
		}
		if q.Result != "" && s.Result != q.Result {
			continue
		}
		out = append(out, s)
	}
	return out, nil
}

func (l *MemorySessionLog) Close() error { return nil }
