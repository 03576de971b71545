// Package actuator defines the inverter command interface. The boolean
// results are confirmed-by-readback success signals, not merely "command
// sent"; transport-level timeouts surface as false.
package actuator

// Gateway issues mode and command writes to the inverter.
type Gateway interface {
	// StartCharging puts the inverter into forced charge up to targetSoC.
	StartCharging(targetSoC float64) bool
	// StopCharging restores self-use mode with the given discharge floor.
	StopCharging(minSoC float64) bool
	// CurrentMode returns the inverter's reported mode, ok=false when the
	// mode sensor is unreadable.
	CurrentMode() (string, bool)
	// IsManualMode reports whether the mode string is a manual/override
	// mode that the morning safety check must clear.
	IsManualMode(mode string) bool
}
