package model

// ChargingState enumerates the lifecycle states of the charging controller.
type ChargingState int

const (
	StateIdle ChargingState = iota
	StateScheduled
	StateCharging
	StateComplete
	StateDisabled
)

// String returns the persisted representation of the state.
func (s ChargingState) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateScheduled:
		return "scheduled"
	case StateCharging:
		return "charging"
	case StateComplete:
		return "complete"
	case StateDisabled:
		return "disabled"
	default:
		return "unknown"
	}
}

// ParseChargingState converts a persisted state string back to a
// ChargingState. Unknown values map to StateIdle so a corrupted store can
// never wedge the controller in an unreachable state.
func ParseChargingState(s string) ChargingState {
	switch s {
	case "scheduled":
		return StateScheduled
	case "charging":
		return StateCharging
	case "complete":
		return StateComplete
	case "disabled":
		return StateDisabled
	default:
		return StateIdle
	}
}

// RecoverChargingState applies the restart recovery rule: a state persisted
// as charging is downgraded to scheduled so the next tick re-evaluates the
// window and the battery before any command is issued.
func RecoverChargingState(persisted string) ChargingState {
	st := ParseChargingState(persisted)
	if st == StateCharging {
		return StateScheduled
	}
	return st
}
