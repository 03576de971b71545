// Package events holds the event types published on the internal bus.
package events

import (
	"time"

	"github.com/nightwatt/nightwatt/core/model"
)

// PlanEvent is published after every planning cycle.
type PlanEvent struct {
	Schedule *model.ChargingSchedule
	Deficit  model.EnergyDeficit
	Time     time.Time
}

// StateEvent is published on every controller state transition.
type StateEvent struct {
	From model.ChargingState
	To   model.ChargingState
	SoC  float64
	Time time.Time
}

// SessionEvent is published when a session reaches a terminal outcome.
type SessionEvent struct {
	Session     model.ChargingSession
	CapacityKWh float64
	Time        time.Time
}

// ActuationEvent is published for every gateway command attempt.
type ActuationEvent struct {
	Command string // "start" or "stop"
	OK      bool
	Time    time.Time
}
