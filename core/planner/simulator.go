package planner

import (
	"math"
	"time"

	"github.com/nightwatt/nightwatt/core/consumption"
	"github.com/nightwatt/nightwatt/core/forecast"
	"github.com/nightwatt/nightwatt/core/model"
)

// Daylight span used when no hourly forecast is available: the daily total
// is spread evenly across these hours.
const (
	solarDayStartHour = 6
	solarDayEndHour   = 18
)

// SimInput is a snapshot of everything the simulation needs, captured once
// per run so the result is reproducible and testable without telemetry.
type SimInput struct {
	Now         time.Time
	SoCPercent  float64
	CapacityKWh float64

	ConsumptionHistory   []float64
	ForecastErrorHistory []float64

	SolarForecastToday    float64
	SolarForecastTomorrow float64
	TodayHourly           map[int]float64
	TomorrowHourly        map[int]float64
	ActualSolarToday      float64

	SunriseHourTomorrow float64
	SunriseAvailable    bool
}

// Simulator projects the battery SOC hour by hour from now through the end
// of tomorrow. One simulation backs every derived figure: the planning
// decision, the displayed deficit, and the overnight survival numbers.
// Computing them separately lets them drift apart; a single pass cannot.
type Simulator struct {
	cfg       Config
	tracker   *consumption.Tracker
	corrector *forecast.Corrector
}

// NewSimulator creates a Simulator sharing the planner's tracker and
// corrector so history handling stays consistent.
func NewSimulator(cfg Config, tracker *consumption.Tracker, corrector *forecast.Corrector) *Simulator {
	return &Simulator{cfg: cfg, tracker: tracker, corrector: corrector}
}

// hourlyConsumption returns kWh drawn in the given clock hour using the
// 3-period multiplier model, normalized so the 24-hour sum equals daily.
func (s *Simulator) hourlyConsumption(hour int, daily float64) float64 {
	e := s.cfg.EveningMultiplier
	n := s.cfg.NightMultiplier
	base := daily / (12*1.0 + 5*e + 7*n)
	switch {
	case hour >= 6 && hour < 18:
		return base
	case hour >= 18 && hour < 23:
		return base * e
	default: // 23-06
		return base * n
	}
}

// solarProfile returns a per-(day-offset, clock-hour) solar lookup. Hourly
// forecast data is used directly for today's remainder; tomorrow's hourly
// values are shrunk by the forecast-error correction. Without hourly data
// the (error-adjusted) daily total is spread evenly across daylight.
func (s *Simulator) solarProfile(in SimInput) func(dayOffset, hour int) float64 {
	correction := math.Max(0, s.corrector.AverageError(in.ForecastErrorHistory))
	spread := func(dailyKWh float64) float64 {
		return dailyKWh / float64(solarDayEndHour-solarDayStartHour)
	}
	todayFlat := spread(s.corrector.AdjustForecast(in.SolarForecastToday, in.ForecastErrorHistory))
	tomorrowFlat := spread(s.corrector.AdjustForecast(in.SolarForecastTomorrow, in.ForecastErrorHistory))

	return func(dayOffset, hour int) float64 {
		if dayOffset == 0 {
			if in.TodayHourly != nil {
				return in.TodayHourly[hour]
			}
			if hour >= solarDayStartHour && hour < solarDayEndHour {
				return todayFlat
			}
			return 0
		}
		if in.TomorrowHourly != nil {
			return in.TomorrowHourly[hour] * (1 - correction)
		}
		if hour >= solarDayStartHour && hour < solarDayEndHour {
			return tomorrowFlat
		}
		return 0
	}
}

// solarStartHour estimates when tomorrow's solar production first covers
// consumption. Used as a display landmark and as the end of the dark
// period; the charge decision itself comes from the SOC trajectory.
func (s *Simulator) solarStartHour(in SimInput, flatHourly float64) (float64, string) {
	if in.TomorrowHourly != nil {
		for hour := 0; hour < 24; hour++ {
			if in.TomorrowHourly[hour] >= flatHourly {
				return float64(hour), model.SolarSourceForecast
			}
		}
		return float64(s.cfg.WindowEndHour) + s.cfg.PVFallbackBufferHours, model.SolarSourceForecast
	}
	if in.SunriseAvailable {
		return in.SunriseHourTomorrow + s.cfg.PVRampBufferHours, model.SolarSourceSun
	}
	return float64(s.cfg.WindowEndHour) + s.cfg.PVFallbackBufferHours, model.SolarSourceFallback
}

// Run executes the hour-by-hour projection. The horizon is the remainder
// of today plus all 24 hours of tomorrow, never a fixed 48: hour
// arithmetic at day boundaries is where off-by-one bugs breed.
func (s *Simulator) Run(in SimInput) model.TrajectoryResult {
	capacity := in.CapacityKWh
	if capacity <= 0 {
		capacity = s.cfg.BatteryCapacityKWh
	}
	usable := capacity * (s.cfg.MaxChargeLevel - s.cfg.MinSoC) / 100
	floorKWh := capacity * s.cfg.MinSoC / 100
	maxKWh := capacity * s.cfg.MaxChargeLevel / 100

	daily := s.tracker.Average(in.ConsumptionHistory)
	tomorrow := in.Now.AddDate(0, 0, 1)
	if wd := tomorrow.Weekday(); wd == time.Saturday || wd == time.Sunday {
		daily *= s.cfg.WeekendMultiplier
	}
	flatHourly := daily / 24

	solarAt := s.solarProfile(in)
	solarStart, solarSource := s.solarStartHour(in, flatHourly)

	socKWh := capacity * in.SoCPercent / 100
	if socKWh > maxKWh {
		socKWh = maxKWh
	}
	minReached := socKWh
	minHour := in.Now.Hour()

	windowSeen := false
	batteryAtWindowStart := 0.0
	darkHours := 0.0
	overnightDrain := 0.0
	solarCovered := false

	startHour := in.Now.Hour()
	steps := (24 - startHour) + 24
	for i := 0; i < steps; i++ {
		dayOffset := (startHour + i) / 24
		hour := (startHour + i) % 24

		if !windowSeen && hour == s.cfg.WindowStartHour {
			windowSeen = true
			batteryAtWindowStart = math.Max(0, socKWh-floorKWh)
		}

		cons := s.hourlyConsumption(hour, daily)
		solar := solarAt(dayOffset, hour)

		if windowSeen && !solarCovered {
			if solar >= cons {
				solarCovered = true
			} else if darkHours < s.cfg.MaxOvernightHours {
				darkHours++
				overnightDrain += math.Max(0, cons-solar)
			}
		}

		socKWh += solar - cons
		if socKWh < 0 {
			socKWh = 0
		}
		if socKWh > maxKWh {
			socKWh = maxKWh
		}
		if socKWh < minReached {
			minReached = socKWh
			minHour = hour
		}
	}

	// Efficiency loss applies to the shortfall only: charging beyond what
	// is needed is never inflated by the efficiency factor.
	chargeNeeded := math.Max(0, floorKWh-minReached)
	if chargeNeeded > 0 {
		chargeNeeded /= s.cfg.ChargingEfficiency
	}
	if chargeNeeded > usable {
		chargeNeeded = usable
	}

	solarRaw := in.SolarForecastTomorrow
	solarAdjusted := s.corrector.AdjustForecast(solarRaw, in.ForecastErrorHistory)

	return model.TrajectoryResult{
		ChargeNeededKWh: round2(chargeNeeded),
		MinSoCKWh:       round2(minReached),
		MinSoCHour:      minHour,

		BatteryAtWindowStartKWh: round2(batteryAtWindowStart),
		DarkHours:               math.Round(darkHours*10) / 10,
		OvernightConsumptionKWh: round2(overnightDrain),
		SolarStartHour:          round2(solarStart),
		SolarSource:             solarSource,

		TomorrowConsumption:   round2(daily),
		TomorrowSolarRaw:      round2(solarRaw),
		TomorrowSolarAdjusted: round2(solarAdjusted),
		ForecastErrorPct:      s.corrector.AverageErrorPct(in.ForecastErrorHistory),
		UsableCapacityKWh:     round2(usable),
	}
}

func round2(v float64) float64 { return math.Round(v*100) / 100 }
