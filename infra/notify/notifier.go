// Package notify delivers user-facing notifications over an MQTT topic.
// Delivery is best effort: a failed publish is logged and dropped, never
// surfaced to the control flow.
package notify

import (
	"encoding/json"
	"fmt"
	"sync"

	"github.com/nightwatt/nightwatt/core/model"
	corenotify "github.com/nightwatt/nightwatt/core/notify"
	"github.com/nightwatt/nightwatt/infra/logger"
)

// Publisher is the transport slice the notifier needs.
type Publisher interface {
	Publish(topic string, payload []byte) error
}

// Notifier publishes notification messages as JSON payloads. Plan
// notifications are deduplicated per day and schedule so the periodic
// planning cycle does not repeat itself every run.
type Notifier struct {
	pub   Publisher
	topic string
	log   logger.Logger

	mu          sync.Mutex
	lastPlanKey string
}

// New creates a Notifier publishing to the given topic.
func New(pub Publisher, topic string) *Notifier {
	return &Notifier{pub: pub, topic: topic, log: logger.New("notifier")}
}

var _ corenotify.Notifier = (*Notifier)(nil)

type message struct {
	Title   string `json:"title"`
	Message string `json:"message"`
}

func (n *Notifier) send(title, body string) {
	payload, err := json.Marshal(message{Title: title, Message: body})
	if err != nil {
		n.log.Errorf("encode notification: %v", err)
		return
	}
	if err := n.pub.Publish(n.topic, payload); err != nil {
		n.log.Errorf("publish notification: %v", err)
	}
}

func (n *Notifier) NotifyPlan(schedule *model.ChargingSchedule, deficit model.EnergyDeficit, currentSoC float64) {
	var key, title, body string
	if schedule == nil {
		if deficit.ChargeNeeded > 0 {
			key = "needed-unscheduled"
			title = "Charging needed but not scheduled"
			body = fmt.Sprintf("%.1f kWh needed, no suitable window found. Battery at %.0f%%.",
				deficit.ChargeNeeded, currentSoC)
		} else {
			key = "not-needed"
			title = "No grid charging needed"
			body = fmt.Sprintf("Solar and battery cover tomorrow. Battery at %.0f%%.", currentSoC)
		}
	} else {
		key = fmt.Sprintf("%s-%02d-%02d", schedule.CreatedAt.Format("2006-01-02"), schedule.StartHour, schedule.EndHour)
		title = "Grid charging scheduled"
		body = fmt.Sprintf("%02d:00-%02d:00, %.1f kWh to %.0f%%, avg price %.2f.",
			schedule.StartHour, schedule.EndHour, schedule.RequiredKWh, schedule.TargetSoC, schedule.AvgPrice)
	}

	n.mu.Lock()
	if key == n.lastPlanKey {
		n.mu.Unlock()
		return
	}
	n.lastPlanKey = key
	n.mu.Unlock()

	n.send(title, body)
}

func (n *Notifier) NotifyChargingStarted(currentSoC, targetSoC, requiredKWh float64) {
	n.send("Charging started",
		fmt.Sprintf("From %.0f%% to %.0f%%, about %.1f kWh.", currentSoC, targetSoC, requiredKWh))
}

func (n *Notifier) NotifyChargingComplete(session model.ChargingSession, targetSoC float64) {
	n.send("Charging finished",
		fmt.Sprintf("%s at %.0f%% (target %.0f%%).", session.Result, session.EndSoC, targetSoC))
}

func (n *Notifier) NotifyChargingStalled(session model.ChargingSession) {
	n.send("Charging problem",
		fmt.Sprintf("%s. Battery at %.0f%%.", session.Result, session.EndSoC))
}

func (n *Notifier) NotifyMorningSafety(currentSoC float64) {
	n.send("Morning safety stop",
		fmt.Sprintf("Inverter restored to self-use at %.0f%%.", currentSoC))
}

func (n *Notifier) NotifySensorUnavailable(sensor string) {
	n.send("Sensor unavailable", fmt.Sprintf("No reading from %s, holding off.", sensor))
}
