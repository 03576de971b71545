package controller

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/nightwatt/nightwatt/core/actuator"
	"github.com/nightwatt/nightwatt/core/events"
	"github.com/nightwatt/nightwatt/core/logger"
	"github.com/nightwatt/nightwatt/core/model"
	"github.com/nightwatt/nightwatt/core/monitoring"
	"github.com/nightwatt/nightwatt/core/notify"
	"github.com/nightwatt/nightwatt/core/storage"
	"github.com/nightwatt/nightwatt/core/telemetry"
	"github.com/nightwatt/nightwatt/internal/eventbus"
)

// StateMachine drives the charging lifecycle tick by tick and supervises
// the actuator. All handlers assume the host serializes calls; the machine
// performs no internal locking.
type StateMachine struct {
	cfg      Config
	store    storage.Store
	src      telemetry.Source
	gateway  actuator.Gateway
	notifier notify.Notifier
	archive  storage.SessionLog
	bus      eventbus.EventBus
	log      logger.Logger

	now func() time.Time

	session        *model.ChargingSession
	startFailCount int
	stallStartSoC  float64
	stallTickCount int
}

// New creates a StateMachine. archive and bus may be nil.
func New(cfg Config, store storage.Store, src telemetry.Source, gateway actuator.Gateway, notifier notify.Notifier, archive storage.SessionLog, bus eventbus.EventBus, log logger.Logger) *StateMachine {
	if notifier == nil {
		notifier = notify.NopNotifier{}
	}
	return &StateMachine{
		cfg:      cfg,
		store:    store,
		src:      src,
		gateway:  gateway,
		notifier: notifier,
		archive:  archive,
		bus:      bus,
		log:      log,
		now:      time.Now,
	}
}

// State returns the current lifecycle state.
func (m *StateMachine) State() model.ChargingState {
	return model.ParseChargingState(m.store.ChargingState())
}

func (m *StateMachine) setState(to model.ChargingState) {
	from := m.State()
	if from == to {
		return
	}
	m.log.Infof("state transition: %s -> %s", from, to)
	if err := m.store.SetChargingState(to.String()); err != nil {
		m.log.Errorf("persist state: %v", err)
	}
	if m.bus != nil {
		soc, _ := m.src.CurrentSoC()
		m.bus.Publish(events.StateEvent{From: from, To: to, SoC: soc, Time: m.now()})
	}
}

// Schedule returns the active schedule, ok=false when none is set.
func (m *StateMachine) Schedule() (model.ChargingSchedule, bool) {
	return m.store.CurrentSchedule()
}

func (m *StateMachine) setSchedule(s *model.ChargingSchedule) {
	if err := m.store.SetCurrentSchedule(s); err != nil {
		m.log.Errorf("persist schedule: %v", err)
	}
}

// OnPlan consumes the planner's decision. An active charge or a disabled
// switch is never pre-empted by a new plan.
func (m *StateMachine) OnPlan(schedule *model.ChargingSchedule) {
	state := m.State()

	if schedule == nil {
		if state == model.StateIdle || state == model.StateComplete {
			m.session = &model.ChargingSession{ID: uuid.NewString(), Result: ResultNoChargingNeeded}
			m.saveSession()
			m.setState(model.StateIdle)
		}
		m.log.Infof("no charging scheduled")
		return
	}

	switch state {
	case model.StateIdle, model.StateComplete, model.StateScheduled:
		m.setSchedule(schedule)
		m.session = &model.ChargingSession{ID: uuid.NewString(), AvgPrice: schedule.AvgPrice}
		m.startFailCount = 0
		m.setState(model.StateScheduled)
		m.log.Infof("charging scheduled: %02d:00-%02d:00, target %.0f%%",
			schedule.StartHour, schedule.EndHour, schedule.TargetSoC)
	default:
		m.log.Debugf("ignoring plan in state %s", state)
	}
}

// OnTick runs the periodic supervision step.
func (m *StateMachine) OnTick() {
	switch m.State() {
	case model.StateScheduled:
		m.scheduledTick()
	case model.StateCharging:
		m.chargingTick()
	}
}

func (m *StateMachine) scheduledTick() {
	schedule, ok := m.Schedule()
	if !ok {
		m.setState(model.StateIdle)
		return
	}
	if !schedule.Contains(m.now().Hour()) {
		return
	}

	soc, ok := m.src.CurrentSoC()
	if !ok {
		m.log.Warnf("soc sensor unavailable, skipping tick")
		m.notifier.NotifySensorUnavailable("soc")
		return
	}

	if soc >= schedule.TargetSoC {
		m.log.Infof("soc %.0f%% already at target %.0f%%, skipping charge", soc, schedule.TargetSoC)
		now := m.now()
		if m.session != nil {
			m.session.StartSoC = soc
			m.session.EndSoC = soc
			m.session.StartTime = now
			m.session.EndTime = now
			m.session.Result = ResultAlreadyAtTarget
		}
		m.saveSession()
		m.setState(model.StateComplete)
		return
	}

	m.log.Infof("starting charge: soc %.0f%%, target %.0f%%", soc, schedule.TargetSoC)
	if !m.startCharging(schedule.TargetSoC) {
		m.startFailCount++
		if m.startFailCount >= m.cfg.StartFailureMaxRetries {
			m.log.Errorf("start command failed %d times, abandoning plan", m.startFailCount)
			monitoring.CaptureException(fmt.Errorf("inverter start failed %d times", m.startFailCount),
				map[string]string{"component": "controller"})
			m.closeSession(soc, ResultCommandFailed)
			m.setState(model.StateIdle)
			if m.session != nil {
				m.notifier.NotifyChargingStalled(*m.session)
			}
		}
		return
	}

	if m.session != nil {
		m.session.StartSoC = soc
		m.session.StartTime = m.now()
	}
	m.startFailCount = 0
	m.stallStartSoC = soc
	m.stallTickCount = 0
	m.setState(model.StateCharging)
	m.notifier.NotifyChargingStarted(soc, schedule.TargetSoC, schedule.RequiredKWh)
}

func (m *StateMachine) chargingTick() {
	schedule, ok := m.Schedule()
	if !ok {
		// Schedule lost mid-charge; stop the inverter and recover.
		m.stopCharging()
		m.setState(model.StateIdle)
		return
	}

	soc, ok := m.src.CurrentSoC()
	if !ok {
		m.log.Warnf("soc sensor unavailable, skipping tick")
		m.notifier.NotifySensorUnavailable("soc")
		return
	}

	if soc >= schedule.TargetSoC {
		m.log.Infof("target soc %.0f%% reached (current %.0f%%)", schedule.TargetSoC, soc)
		m.stopCharging()
		m.closeSession(soc, ResultTargetReached)
		m.setState(model.StateComplete)
		if m.session != nil {
			m.notifier.NotifyChargingComplete(*m.session, schedule.TargetSoC)
		}
		return
	}

	if !schedule.Contains(m.now().Hour()) {
		m.log.Infof("charging window ended, soc at %.0f%%", soc)
		m.stopCharging()
		m.closeSession(soc, ResultWindowEnded)
		m.setState(model.StateComplete)
		if m.session != nil {
			m.notifier.NotifyChargingComplete(*m.session, schedule.TargetSoC)
		}
		return
	}

	if soc != m.stallStartSoC {
		m.stallStartSoC = soc
		m.stallTickCount = 0
		m.log.Debugf("charging in progress: soc %.0f%%, target %.0f%%", soc, schedule.TargetSoC)
		return
	}

	m.stallTickCount++
	if m.stallTickCount >= m.cfg.StallAbortTicks {
		m.log.Errorf("soc stuck at %.0f%% for %d ticks, aborting charge", soc, m.stallTickCount)
		monitoring.CaptureException(fmt.Errorf("charging stalled at %.0f%%", soc),
			map[string]string{"component": "controller"})
		m.stopCharging()
		m.closeSession(soc, ResultStalled)
		m.setState(model.StateComplete)
		if m.session != nil {
			m.notifier.NotifyChargingStalled(*m.session)
		}
		return
	}
	if m.stallTickCount == m.cfg.StallRetryTicks {
		m.log.Warnf("soc stuck at %.0f%% for %d ticks, re-issuing start command", soc, m.stallTickCount)
		m.startCharging(schedule.TargetSoC)
	}
}

// OnMorningSafety forces the inverter back to self-use before the solar
// day begins, whatever state the controller believes it is in. An
// unreadable mode sensor is treated as unsafe and force-stopped.
func (m *StateMachine) OnMorningSafety() {
	mode, modeOK := m.gateway.CurrentMode()

	switch {
	case m.State() == model.StateCharging:
		m.log.Warnf("morning safety: stopping active charge")
		soc, _ := m.src.CurrentSoC()
		m.stopCharging()
		m.closeSession(soc, ResultMorningSafety)
		m.setState(model.StateIdle)
		m.notifier.NotifyMorningSafety(soc)
	case m.State() == model.StateScheduled:
		// Stale post-restart schedule; clear it before the day starts.
		m.stopCharging()
		m.setState(model.StateIdle)
	case !modeOK:
		m.log.Warnf("morning safety: mode sensor unavailable, forcing self-use")
		m.notifier.NotifySensorUnavailable("inverter_mode")
		m.stopCharging()
		m.setState(model.StateIdle)
	case m.gateway.IsManualMode(mode):
		m.log.Warnf("morning safety: inverter in %s, restoring self-use", mode)
		m.stopCharging()
		m.setState(model.StateIdle)
	default:
		m.log.Debugf("morning safety: all clear, inverter in %s", mode)
	}

	m.setSchedule(nil)
}

// OnDisable handles the master switch turning off.
func (m *StateMachine) OnDisable() {
	if m.State() == model.StateCharging {
		m.log.Infof("disabled while charging, stopping inverter")
		soc, _ := m.src.CurrentSoC()
		m.stopCharging()
		m.closeSession(soc, ResultDisabled)
	}
	m.setSchedule(nil)
	m.setState(model.StateDisabled)
}

// OnEnable handles the master switch turning on.
func (m *StateMachine) OnEnable() {
	if m.State() == model.StateDisabled {
		m.setState(model.StateIdle)
		m.log.Infof("charging re-enabled")
	}
}

func (m *StateMachine) startCharging(targetSoC float64) bool {
	ok := m.gateway.StartCharging(targetSoC)
	if m.bus != nil {
		m.bus.Publish(events.ActuationEvent{Command: "start", OK: ok, Time: m.now()})
	}
	return ok
}

func (m *StateMachine) stopCharging() {
	ok := m.gateway.StopCharging(m.cfg.MinSoC)
	if !ok {
		m.log.Errorf("stop command failed")
		monitoring.CaptureException(fmt.Errorf("inverter stop failed"),
			map[string]string{"component": "controller"})
	}
	if m.bus != nil {
		m.bus.Publish(events.ActuationEvent{Command: "stop", OK: ok, Time: m.now()})
	}
}

// closeSession finalizes the open session with the given outcome, persists
// it, archives it, and folds positive charge into the rolling histories.
func (m *StateMachine) closeSession(endSoC float64, result string) {
	if m.session == nil {
		return
	}
	m.session.EndSoC = endSoC
	m.session.EndTime = m.now()
	m.session.Result = result
	m.saveSession()
	m.recordSessionTotals(*m.session)
}

func (m *StateMachine) saveSession() {
	if m.session == nil {
		return
	}
	if err := m.store.SetLastSession(*m.session); err != nil {
		m.log.Errorf("persist session: %v", err)
	}
}

// recordSessionTotals appends the session's kWh and cost to the rolling
// history buffers. Pure bookkeeping, independent of the control logic.
func (m *StateMachine) recordSessionTotals(session model.ChargingSession) {
	capacity := m.src.BatteryCapacityKWh()
	kwh := session.KWhCharged(capacity)
	if kwh <= 0 {
		return
	}

	charges := append([]float64{kwh}, m.store.ChargeHistory()...)
	if len(charges) > m.cfg.ChargeHistoryDays {
		charges = charges[:m.cfg.ChargeHistoryDays]
	}
	if err := m.store.SetChargeHistory(charges); err != nil {
		m.log.Errorf("persist charge history: %v", err)
	}

	costs := append([]storage.CostEntry{{
		Date: session.EndTime.Format("2006-01-02"),
		KWh:  kwh,
		Cost: session.TotalCost(capacity),
	}}, m.store.SessionCostHistory()...)
	if len(costs) > m.cfg.CostHistoryEntries {
		costs = costs[:m.cfg.CostHistoryEntries]
	}
	if err := m.store.SetSessionCostHistory(costs); err != nil {
		m.log.Errorf("persist cost history: %v", err)
	}

	if m.archive != nil {
		if err := m.archive.Append(context.Background(), session); err != nil {
			m.log.Errorf("archive session: %v", err)
		}
	}
	if m.bus != nil {
		m.bus.Publish(events.SessionEvent{Session: session, CapacityKWh: capacity, Time: m.now()})
	}
}
