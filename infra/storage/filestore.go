// Package storage provides the persistence backends: a JSON snapshot file
// for the live controller state and SQLite/JSONL archives for finished
// sessions.
package storage

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/nightwatt/nightwatt/core/model"
	corestorage "github.com/nightwatt/nightwatt/core/storage"
)

// snapshot is the on-disk layout of the live state file.
type snapshot struct {
	ConsumptionHistory   []float64               `json:"consumption_history"`
	ForecastErrorHistory []float64               `json:"forecast_error_history"`
	ChargeHistory        []float64               `json:"charge_history"`
	SessionCostHistory   []corestorage.CostEntry `json:"session_cost_history"`
	LastSession          *model.ChargingSession  `json:"last_session,omitempty"`
	ChargingState        string                  `json:"charging_state"`
	CurrentSchedule      *model.ChargingSchedule `json:"current_schedule,omitempty"`
	Enabled              bool                    `json:"enabled"`
}

// FileStore is a corestorage.Store backed by a single JSON snapshot file.
// Reads serve from memory; every write rewrites the snapshot atomically via
// a temp file rename.
type FileStore struct {
	mu   sync.Mutex
	path string
	snap snapshot
}

// NewFileStore loads the snapshot at path, creating an empty enabled one
// when the file does not exist.
func NewFileStore(path string) (*FileStore, error) {
	s := &FileStore{
		path: path,
		snap: snapshot{ChargingState: model.StateIdle.String(), Enabled: true},
	}
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return s, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read state file: %w", err)
	}
	if err := json.Unmarshal(data, &s.snap); err != nil {
		return nil, fmt.Errorf("parse state file %s: %w", path, err)
	}
	return s, nil
}

// persist must be called with the mutex held.
func (s *FileStore) persist() error {
	data, err := json.MarshalIndent(s.snap, "", "  ")
	if err != nil {
		return err
	}
	tmp := s.path + ".tmp"
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return err
	}
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return err
	}
	return os.Rename(tmp, s.path)
}

func (s *FileStore) ConsumptionHistory() []float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]float64(nil), s.snap.ConsumptionHistory...)
}

func (s *FileStore) SetConsumptionHistory(history []float64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.snap.ConsumptionHistory = append([]float64(nil), history...)
	return s.persist()
}

func (s *FileStore) ForecastErrorHistory() []float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]float64(nil), s.snap.ForecastErrorHistory...)
}

func (s *FileStore) SetForecastErrorHistory(history []float64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.snap.ForecastErrorHistory = append([]float64(nil), history...)
	return s.persist()
}

func (s *FileStore) ChargeHistory() []float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]float64(nil), s.snap.ChargeHistory...)
}

func (s *FileStore) SetChargeHistory(history []float64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.snap.ChargeHistory = append([]float64(nil), history...)
	return s.persist()
}

func (s *FileStore) SessionCostHistory() []corestorage.CostEntry {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]corestorage.CostEntry(nil), s.snap.SessionCostHistory...)
}

func (s *FileStore) SetSessionCostHistory(history []corestorage.CostEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.snap.SessionCostHistory = append([]corestorage.CostEntry(nil), history...)
	return s.persist()
}

func (s *FileStore) LastSession() (model.ChargingSession, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.snap.LastSession == nil {
		return model.ChargingSession{}, false
	}
	return *s.snap.LastSession, true
}

func (s *FileStore) SetLastSession(session model.ChargingSession) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := session
	s.snap.LastSession = &cp
	return s.persist()
}

func (s *FileStore) ChargingState() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snap.ChargingState
}

func (s *FileStore) SetChargingState(state string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.snap.ChargingState = state
	return s.persist()
}

func (s *FileStore) CurrentSchedule() (model.ChargingSchedule, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.snap.CurrentSchedule == nil {
		return model.ChargingSchedule{}, false
	}
	return *s.snap.CurrentSchedule, true
}

func (s *FileStore) SetCurrentSchedule(schedule *model.ChargingSchedule) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if schedule == nil {
		s.snap.CurrentSchedule = nil
	} else {
		cp := *schedule
		s.snap.CurrentSchedule = &cp
	}
	return s.persist()
}

func (s *FileStore) Enabled() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snap.Enabled
}

func (s *FileStore) SetEnabled(enabled bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.snap.Enabled = enabled
	return s.persist()
}
