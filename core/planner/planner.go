package planner

import (
	"math"
	"sync"
	"time"

	"github.com/nightwatt/nightwatt/core/consumption"
	"github.com/nightwatt/nightwatt/core/forecast"
	"github.com/nightwatt/nightwatt/core/logger"
	"github.com/nightwatt/nightwatt/core/model"
	"github.com/nightwatt/nightwatt/core/price"
	"github.com/nightwatt/nightwatt/core/telemetry"
)

// DataSource is the narrow read-only slice of persisted state the planner
// needs: the history windows and the master enable flag.
type DataSource interface {
	ConsumptionHistory() []float64
	ForecastErrorHistory() []float64
	Enabled() bool
}

// Planner turns telemetry, history, and the price curve into a
// ChargingSchedule, or nil when no charge should be planned. It holds no
// state beyond the last trajectory, which is cached for display and safe
// to discard at any time.
type Planner struct {
	cfg       Config
	src       telemetry.Source
	data      DataSource
	tracker   *consumption.Tracker
	corrector *forecast.Corrector
	analyzer  *price.Analyzer
	sim       *Simulator
	log       logger.Logger

	mu             sync.Mutex
	lastTrajectory *model.TrajectoryResult
}

// New creates a Planner. The config must already be validated.
func New(cfg Config, src telemetry.Source, data DataSource, log logger.Logger) *Planner {
	tracker := consumption.NewTracker(cfg.ConsumptionWindowDays, cfg.FallbackConsumptionKWh)
	corrector := forecast.NewCorrector(cfg.ForecastWindowDays, cfg.MinForecastKWh)
	return &Planner{
		cfg:       cfg,
		src:       src,
		data:      data,
		tracker:   tracker,
		corrector: corrector,
		analyzer:  price.NewAnalyzer(cfg.WindowStartHour, cfg.WindowEndHour),
		sim:       NewSimulator(cfg, tracker, corrector),
		log:       log,
	}
}

// Tracker exposes the consumption tracker for bookkeeping jobs.
func (p *Planner) Tracker() *consumption.Tracker { return p.tracker }

// Corrector exposes the forecast corrector for bookkeeping jobs.
func (p *Planner) Corrector() *forecast.Corrector { return p.corrector }

// Analyzer exposes the price analyzer for display helpers.
func (p *Planner) Analyzer() *price.Analyzer { return p.analyzer }

// LastTrajectory returns the most recent simulation result, ok=false
// before the first planning cycle.
func (p *Planner) LastTrajectory() (model.TrajectoryResult, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.lastTrajectory == nil {
		return model.TrajectoryResult{}, false
	}
	return *p.lastTrajectory, true
}

func (p *Planner) snapshot(now time.Time) (SimInput, bool) {
	soc, ok := p.src.CurrentSoC()
	if !ok {
		return SimInput{}, false
	}
	sunrise, sunOK := p.src.SunriseHourTomorrow()
	return SimInput{
		Now:                   now,
		SoCPercent:            soc,
		CapacityKWh:           p.src.BatteryCapacityKWh(),
		ConsumptionHistory:    p.data.ConsumptionHistory(),
		ForecastErrorHistory:  p.data.ForecastErrorHistory(),
		SolarForecastToday:    p.src.SolarForecastToday(),
		SolarForecastTomorrow: p.src.SolarForecastTomorrow(),
		TodayHourly:           p.src.SolarForecastTodayHourly(),
		TomorrowHourly:        p.src.SolarForecastTomorrowHourly(),
		ActualSolarToday:      p.src.ActualSolarToday(),
		SunriseHourTomorrow:   sunrise,
		SunriseAvailable:      sunOK,
	}, true
}

// Simulate runs the trajectory simulation and caches the result for
// display. ok=false when the SOC sensor is unreadable.
func (p *Planner) Simulate(now time.Time) (model.TrajectoryResult, bool) {
	in, ok := p.snapshot(now)
	if !ok {
		return model.TrajectoryResult{}, false
	}
	res := p.sim.Run(in)
	p.mu.Lock()
	p.lastTrajectory = &res
	p.mu.Unlock()
	return res, true
}

// HasTomorrowPrices reports whether tomorrow's curve has arrived. Price
// data typically lands once per day; planning waits for it.
func (p *Planner) HasTomorrowPrices(now time.Time) bool {
	tomorrow := now.AddDate(0, 0, 1).Format("2006-01-02")
	return price.HasPricesFor(p.src.PriceCurve(), tomorrow)
}

// TargetSoC computes the SOC to charge to: the projected SOC at window
// start plus the planned charge, clamped to the configured ceiling.
func (p *Planner) TargetSoC(traj model.TrajectoryResult, chargeKWh float64) float64 {
	capacity := p.src.BatteryCapacityKWh()
	if capacity <= 0 {
		capacity = p.cfg.BatteryCapacityKWh
	}
	if chargeKWh <= 0 {
		return p.cfg.MinSoC
	}
	windowStartPct := p.cfg.MinSoC + traj.BatteryAtWindowStartKWh/capacity*100
	target := windowStartPct + chargeKWh/capacity*100
	target = math.Round(target*10) / 10
	return math.Min(target, p.cfg.MaxChargeLevel)
}

// PlanCharging runs the full planning pipeline. It returns nil when
// charging is disabled, tomorrow's prices are missing, the trajectory
// never breaches the floor, no valid contiguous window exists, or the
// price gate rejects the window.
func (p *Planner) PlanCharging(now time.Time) *model.ChargingSchedule {
	if !p.data.Enabled() {
		p.log.Debugf("charging disabled, skipping planning")
		return nil
	}
	if !p.HasTomorrowPrices(now) {
		p.log.Debugf("tomorrow's prices not available yet")
		return nil
	}

	traj, ok := p.Simulate(now)
	if !ok {
		p.log.Warnf("soc sensor unavailable, cannot plan")
		return nil
	}
	p.log.Infof("trajectory: min_soc=%.1f kWh at %02d:00, charge_needed=%.1f kWh, dark_hours=%.1f (%s)",
		traj.MinSoCKWh, traj.MinSoCHour, traj.ChargeNeededKWh, traj.DarkHours, traj.SolarSource)

	chargeNeeded := traj.ChargeNeededKWh
	if chargeNeeded <= 0 {
		p.log.Infof("no charging needed, trajectory stays above %.0f%%", p.cfg.MinSoC)
		return nil
	}

	today := now.Format("2006-01-02")
	tomorrow := now.AddDate(0, 0, 1).Format("2006-01-02")
	slots := p.analyzer.ExtractNightPrices(p.src.PriceCurve(), today, tomorrow)
	if len(slots) == 0 {
		p.log.Warnf("no night price slots available")
		return nil
	}

	// Free or negative prices: charge to full usable capacity instead of
	// the bare minimum.
	usable := traj.UsableCapacityKWh
	cheapest := slots[0].Price
	for _, s := range slots[1:] {
		if s.Price < cheapest {
			cheapest = s.Price
		}
	}
	if cheapest <= 0 && chargeNeeded < usable {
		p.log.Infof("negative prices detected (%.2f), raising target to full usable capacity %.1f kWh", cheapest, usable)
		chargeNeeded = usable
	}

	hours := p.analyzer.CalculateHoursNeeded(chargeNeeded, p.cfg.MaxChargePowerKW)
	if hours == 0 {
		return nil
	}
	window := p.analyzer.FindCheapestWindow(slots, hours)
	if window == nil {
		p.log.Warnf("no contiguous %d-hour window in night prices", hours)
		return nil
	}

	if window.AvgPrice > 0 && window.AvgPrice > p.cfg.MaxChargePrice {
		soc, _ := p.src.CurrentSoC()
		if soc < p.cfg.EmergencySoC {
			p.log.Warnf("battery at %.0f%% below emergency threshold %.0f%%, overriding price gate (%.2f > %.2f)",
				soc, p.cfg.EmergencySoC, window.AvgPrice, p.cfg.MaxChargePrice)
		} else {
			p.log.Infof("cheapest window avg %.2f exceeds threshold %.2f, skipping", window.AvgPrice, p.cfg.MaxChargePrice)
			return nil
		}
	}

	schedule := &model.ChargingSchedule{
		StartHour:   window.StartHour,
		EndHour:     window.EndHour,
		WindowHours: window.WindowHours,
		AvgPrice:    window.AvgPrice,
		RequiredKWh: round2(chargeNeeded),
		TargetSoC:   p.TargetSoC(traj, chargeNeeded),
		CreatedAt:   now,
	}
	p.log.Infof("charging scheduled: %02d:00-%02d:00, %.1f kWh, target %.0f%%, avg price %.2f",
		schedule.StartHour, schedule.EndHour, schedule.RequiredKWh, schedule.TargetSoC, schedule.AvgPrice)
	return schedule
}
