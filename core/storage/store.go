// Package storage defines the persistence contract: simple keyed blobs,
// last-write-wins, no transactional coupling across keys. The controller
// writes keys in a fixed order and tolerates a crash between writes by
// re-deriving its state on restart.
package storage

import (
	"context"
	"time"

	"github.com/nightwatt/nightwatt/core/model"
)

// CostEntry is one completed session's contribution to the rolling cost
// history, used for weekly/monthly aggregation.
type CostEntry struct {
	Date string  `json:"date"`
	KWh  float64 `json:"kwh"`
	Cost float64 `json:"cost"`
}

// Store persists the controller's durable state. Reads serve from the
// loaded snapshot; writes persist immediately.
type Store interface {
	ConsumptionHistory() []float64
	SetConsumptionHistory(history []float64) error

	ForecastErrorHistory() []float64
	SetForecastErrorHistory(history []float64) error

	ChargeHistory() []float64
	SetChargeHistory(history []float64) error

	SessionCostHistory() []CostEntry
	SetSessionCostHistory(history []CostEntry) error

	LastSession() (model.ChargingSession, bool)
	SetLastSession(session model.ChargingSession) error

	ChargingState() string
	SetChargingState(state string) error

	CurrentSchedule() (model.ChargingSchedule, bool)
	// SetCurrentSchedule persists the schedule; nil clears it.
	SetCurrentSchedule(schedule *model.ChargingSchedule) error

	Enabled() bool
	SetEnabled(enabled bool) error
}

// SessionQuery filters archived sessions.
type SessionQuery struct {
	Start  time.Time
	End    time.Time
	Result string
}

// SessionLog is an append-only archive of finished sessions, kept apart
// from the live Store so history can grow without bloating the snapshot.
type SessionLog interface {
	Append(ctx context.Context, session model.ChargingSession) error
	Query(ctx context.Context, q SessionQuery) ([]model.ChargingSession, error)
	Close() error
}
