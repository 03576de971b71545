// Package app wires configuration, transport, planning and control into a
// runnable service.
package app

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/nightwatt/nightwatt/config"
	"github.com/nightwatt/nightwatt/core/controller"
	"github.com/nightwatt/nightwatt/core/events"
	"github.com/nightwatt/nightwatt/core/model"
	"github.com/nightwatt/nightwatt/core/monitoring"
	corenotify "github.com/nightwatt/nightwatt/core/notify"
	"github.com/nightwatt/nightwatt/core/planner"
	"github.com/nightwatt/nightwatt/core/storage"
	"github.com/nightwatt/nightwatt/core/telemetry"
	"github.com/nightwatt/nightwatt/infra/logger"
	"github.com/nightwatt/nightwatt/infra/metrics"
	inframonitoring "github.com/nightwatt/nightwatt/infra/monitoring"
	"github.com/nightwatt/nightwatt/infra/mqtt"
	infranotify "github.com/nightwatt/nightwatt/infra/notify"
	infrastorage "github.com/nightwatt/nightwatt/infra/storage"
	"github.com/nightwatt/nightwatt/internal/eventbus"
)

// Service orchestrates the planner and the charging state machine on a
// single goroutine. All state transitions happen inside the tick loop, so
// the controller needs no internal locking.
type Service struct {
	cfg      *config.Config
	store    storage.Store
	archive  storage.SessionLog
	client   *mqtt.Client
	source   telemetry.Source
	planner  *planner.Planner
	machine  *controller.StateMachine
	notifier corenotify.Notifier
	bus      eventbus.EventBus
	log      logger.Logger

	now func() time.Time

	lastPlanHour   time.Time
	lastSafetyDate string
	lastRecordDate string
	wasEnabled     bool
}

// New creates a Service from the configuration.
func New(cfg *config.Config) (*Service, error) {
	logg := logger.New("service")

	monitor, err := inframonitoring.NewSentryMonitor(cfg.Sentry)
	if err != nil {
		return nil, fmt.Errorf("sentry: %w", err)
	}
	monitoring.Init(monitor)

	store, err := infrastorage.NewFileStore(cfg.Storage.StatePath)
	if err != nil {
		return nil, fmt.Errorf("state store: %w", err)
	}
	archive, err := infrastorage.NewSessionLog(cfg.Storage.SessionBackend, cfg.Storage.SessionPath)
	if err != nil {
		return nil, fmt.Errorf("session archive: %w", err)
	}

	client, err := mqtt.NewClient(cfg.MQTT)
	if err != nil {
		return nil, fmt.Errorf("mqtt client: %w", err)
	}
	source := mqtt.NewTelemetrySource(client)
	gateway := mqtt.NewInverterGateway(client)
	var notifier corenotify.Notifier
	if cfg.MQTT.Topics.Notify != "" {
		notifier = infranotify.New(client, cfg.MQTT.Topics.Notify)
	} else {
		notifier = infranotify.NewLogNotifier()
	}

	bus := eventbus.New()
	pl := planner.New(cfg.Planner, source, store, logger.New("planner"))
	machine := controller.New(cfg.Controller, store, source, gateway, notifier, archive, bus, logger.New("controller"))

	return &Service{
		cfg:        cfg,
		store:      store,
		archive:    archive,
		client:     client,
		source:     source,
		planner:    pl,
		machine:    machine,
		notifier:   notifier,
		bus:        bus,
		log:        logg,
		now:        time.Now,
		wasEnabled: store.Enabled(),
	}, nil
}

// Run starts the control loop and blocks until the context is cancelled.
func (s *Service) Run(ctx context.Context) error {
	s.recoverState()

	sink, err := metrics.NewSink(s.cfg.Metrics)
	if err != nil {
		return fmt.Errorf("metrics sink: %w", err)
	}
	metrics.StartEventCollector(ctx, s.bus, sink)
	if s.cfg.Metrics.PrometheusEnabled {
		go func() {
			defer monitoring.Recover()
			if err := metrics.StartPromServer(ctx, s.cfg.Metrics.PrometheusPort); err != nil {
				s.log.Errorf("prom server: %v", err)
			}
		}()
	}

	interval := time.Duration(s.cfg.Service.TickSeconds) * time.Second
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	s.log.Infof("control loop started, tick every %s", interval)
	s.cycle()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			s.cycle()
		}
	}
}

// recoverState resolves the persisted lifecycle state after a restart. A
// charge that was active when the process died falls back to SCHEDULED so
// the next tick re-issues the start command inside the window.
func (s *Service) recoverState() {
	persisted := model.ParseChargingState(s.store.ChargingState())
	recovered := model.RecoverChargingState(s.store.ChargingState())
	if recovered != persisted {
		s.log.Warnf("recovered state %s from interrupted %s", recovered, persisted)
		if err := s.store.SetChargingState(recovered.String()); err != nil {
			s.log.Errorf("persist recovered state: %v", err)
		}
	}
}

// cycle is the single-goroutine heart of the service.
func (s *Service) cycle() {
	defer monitoring.Recover()
	now := s.now()

	s.syncEnabled()
	s.morningSafety(now)
	s.recordDailyFigures(now)
	s.plan(now)
	s.machine.OnTick()
}

// syncEnabled propagates master switch flips into the state machine. The
// retained MQTT switch topic wins over the persisted flag when present.
func (s *Service) syncEnabled() {
	enabled := s.store.Enabled()
	if s.client != nil {
		if txt, ok := s.client.LastText(s.cfg.MQTT.Topics.Enable); ok {
			if v, valid := parseSwitch(txt); valid && v != enabled {
				enabled = v
				if err := s.store.SetEnabled(v); err != nil {
					s.log.Errorf("persist enabled flag: %v", err)
				}
			}
		}
	}
	if enabled == s.wasEnabled {
		return
	}
	s.wasEnabled = enabled
	if enabled {
		s.machine.OnEnable()
	} else {
		s.machine.OnDisable()
	}
}

func parseSwitch(payload string) (bool, bool) {
	switch strings.ToLower(payload) {
	case "on", "true", "1":
		return true, true
	case "off", "false", "0":
		return false, true
	}
	return false, false
}

// morningSafety fires once per day when the charging window closes.
func (s *Service) morningSafety(now time.Time) {
	if now.Hour() != s.cfg.Planner.WindowEndHour {
		return
	}
	date := now.Format("2006-01-02")
	if date == s.lastSafetyDate {
		return
	}
	s.lastSafetyDate = date
	s.machine.OnMorningSafety()
}

// recordDailyFigures folds the day's consumption and solar forecast error
// into the rolling histories during the last hour of the day.
func (s *Service) recordDailyFigures(now time.Time) {
	if now.Hour() != 23 {
		return
	}
	date := now.Format("2006-01-02")
	if date == s.lastRecordDate {
		return
	}
	s.lastRecordDate = date

	if consumed, ok := s.source.DailyConsumptionSoFar(); ok {
		history := s.planner.Tracker().AddEntry(s.store.ConsumptionHistory(), consumed)
		if err := s.store.SetConsumptionHistory(history); err != nil {
			s.log.Errorf("persist consumption history: %v", err)
		}
		s.log.Infof("recorded daily consumption %.1f kWh (%d days tracked)",
			consumed, s.planner.Tracker().DaysTracked(history))
	} else {
		s.log.Warnf("daily consumption unavailable, skipping record")
	}

	forecast := s.source.SolarForecastToday()
	actual := s.source.ActualSolarToday()
	if errPct, ok := s.planner.Corrector().ComputeError(forecast, actual); ok {
		history := s.planner.Corrector().AddEntry(s.store.ForecastErrorHistory(), errPct)
		if err := s.store.SetForecastErrorHistory(history); err != nil {
			s.log.Errorf("persist forecast error history: %v", err)
		}
		s.log.Infof("recorded forecast error %.1f%% (forecast %.1f, actual %.1f)",
			errPct*100, forecast, actual)
	}
}

// plan runs the planner at most once per hour while the controller can
// accept a plan. The notifier deduplicates repeated outcomes.
func (s *Service) plan(now time.Time) {
	switch s.machine.State() {
	case model.StateCharging, model.StateDisabled:
		return
	}
	if s.lastPlanHour.Truncate(time.Hour).Equal(now.Truncate(time.Hour)) {
		return
	}
	if !s.planner.HasTomorrowPrices(now) {
		s.log.Debugf("tomorrow's prices not published yet")
		return
	}
	s.lastPlanHour = now

	schedule := s.planner.PlanCharging(now)
	s.machine.OnPlan(schedule)

	traj, ok := s.planner.LastTrajectory()
	if !ok {
		return
	}
	deficit := traj.Deficit()
	s.bus.Publish(events.PlanEvent{Schedule: schedule, Deficit: deficit, Time: now})
	if soc, ok := s.source.CurrentSoC(); ok {
		s.notifier.NotifyPlan(schedule, deficit, soc)
	}
}

// Close releases resources held by the service.
func (s *Service) Close() error {
	s.bus.Close()
	if s.client != nil {
		s.client.Disconnect()
	}
	err := s.archive.Close()
	monitoring.Flush(2 * time.Second)
	return err
}
