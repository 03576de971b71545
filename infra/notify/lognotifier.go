package notify

import (
	"github.com/nightwatt/nightwatt/core/model"
	corenotify "github.com/nightwatt/nightwatt/core/notify"
	"github.com/nightwatt/nightwatt/infra/logger"
)

// LogNotifier writes notifications to the service log. Used when no notify
// topic is configured.
type LogNotifier struct {
	log logger.Logger
}

// NewLogNotifier creates a LogNotifier.
func NewLogNotifier() *LogNotifier {
	return &LogNotifier{log: logger.New("notifier")}
}

var _ corenotify.Notifier = (*LogNotifier)(nil)

func (n *LogNotifier) NotifyPlan(schedule *model.ChargingSchedule, deficit model.EnergyDeficit, currentSoC float64) {
	if schedule == nil {
		n.log.Infof("plan: none (charge needed %.1f kWh, soc %.0f%%)", deficit.ChargeNeeded, currentSoC)
		return
	}
	n.log.Infof("plan: %02d:00-%02d:00, %.1f kWh to %.0f%%, avg price %.2f",
		schedule.StartHour, schedule.EndHour, schedule.RequiredKWh, schedule.TargetSoC, schedule.AvgPrice)
}

func (n *LogNotifier) NotifyChargingStarted(currentSoC, targetSoC, requiredKWh float64) {
	n.log.Infof("charging started: %.0f%% -> %.0f%%, about %.1f kWh", currentSoC, targetSoC, requiredKWh)
}

func (n *LogNotifier) NotifyChargingComplete(session model.ChargingSession, targetSoC float64) {
	n.log.Infof("charging finished: %s at %.0f%% (target %.0f%%)", session.Result, session.EndSoC, targetSoC)
}

func (n *LogNotifier) NotifyChargingStalled(session model.ChargingSession) {
	n.log.Warnf("charging problem: %s at %.0f%%", session.Result, session.EndSoC)
}

func (n *LogNotifier) NotifyMorningSafety(currentSoC float64) {
	n.log.Warnf("morning safety stop at %.0f%%", currentSoC)
}

func (n *LogNotifier) NotifySensorUnavailable(sensor string) {
	n.log.Warnf("sensor %s unavailable", sensor)
}
