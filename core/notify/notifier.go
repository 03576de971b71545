// Package notify defines the fire-and-forget notification gateway.
// Failures inside a notifier must never propagate into control flow.
package notify

import "github.com/nightwatt/nightwatt/core/model"

// Notifier delivers user-facing events about planning and the charging
// lifecycle.
type Notifier interface {
	// NotifyPlan reports the planning outcome: scheduled, needed but not
	// scheduled (nil schedule with positive deficit), or not needed.
	NotifyPlan(schedule *model.ChargingSchedule, deficit model.EnergyDeficit, currentSoC float64)
	NotifyChargingStarted(currentSoC, targetSoC, requiredKWh float64)
	NotifyChargingComplete(session model.ChargingSession, targetSoC float64)
	NotifyChargingStalled(session model.ChargingSession)
	NotifyMorningSafety(currentSoC float64)
	NotifySensorUnavailable(sensor string)
}

// NopNotifier discards all notifications.
type NopNotifier struct{}

func (NopNotifier) NotifyPlan(*model.ChargingSchedule, model.EnergyDeficit, float64) {}
func (NopNotifier) NotifyChargingStarted(float64, float64, float64)                  {}
func (NopNotifier) NotifyChargingComplete(model.ChargingSession, float64)            {}
func (NopNotifier) NotifyChargingStalled(model.ChargingSession)                      {}
func (NopNotifier) NotifyMorningSafety(float64)                                      {}
func (NopNotifier) NotifySensorUnavailable(string)                                   {}
