package model

// SolarSource identifies where the simulated solar profile came from.
const (
	SolarSourceForecast = "forecast_solar"
	SolarSourceSun      = "sun_entity"
	SolarSourceFallback = "fallback"
)

// TrajectoryResult is the output of the hour-by-hour SOC simulation. It is
// the single authoritative computation behind the planner's decision and
// the displayed deficit figures; EnergyDeficit and OvernightNeed are
// projections of it.
type TrajectoryResult struct {
	ChargeNeededKWh float64 `json:"charge_needed_kwh"`
	MinSoCKWh       float64 `json:"min_soc_kwh"`
	MinSoCHour      int     `json:"min_soc_hour"`

	BatteryAtWindowStartKWh float64 `json:"battery_at_window_start_kwh"`
	DarkHours               float64 `json:"dark_hours"`
	OvernightConsumptionKWh float64 `json:"overnight_consumption_kwh"`
	SolarStartHour          float64 `json:"solar_start_hour"`
	SolarSource             string  `json:"solar_source"`

	TomorrowConsumption   float64 `json:"tomorrow_consumption"`
	TomorrowSolarRaw      float64 `json:"tomorrow_solar_raw"`
	TomorrowSolarAdjusted float64 `json:"tomorrow_solar_adjusted"`
	ForecastErrorPct      float64 `json:"forecast_error_pct"`
	UsableCapacityKWh     float64 `json:"usable_capacity_kwh"`
}

// EnergyDeficit is the daily energy balance view of a trajectory,
// recomputed every cycle and never persisted.
type EnergyDeficit struct {
	Consumption      float64 `json:"consumption"`
	SolarRaw         float64 `json:"solar_raw"`
	SolarAdjusted    float64 `json:"solar_adjusted"`
	ForecastErrorPct float64 `json:"forecast_error_pct"`
	Deficit          float64 `json:"deficit"`
	ChargeNeeded     float64 `json:"charge_needed"`
	UsableCapacity   float64 `json:"usable_capacity"`
}

// OvernightNeed is the overnight survival view of a trajectory.
type OvernightNeed struct {
	DarkHours            float64 `json:"dark_hours"`
	OvernightConsumption float64 `json:"overnight_consumption"`
	BatteryAtWindowStart float64 `json:"battery_at_window_start"`
	ChargeNeeded         float64 `json:"charge_needed"`
	SolarStartHour       float64 `json:"solar_start_hour"`
	Source               string  `json:"source"`
}

// Deficit projects the daily energy balance from the trajectory.
func (t TrajectoryResult) Deficit() EnergyDeficit {
	deficit := t.TomorrowConsumption - t.TomorrowSolarAdjusted
	if deficit < 0 {
		deficit = 0
	}
	return EnergyDeficit{
		Consumption:      t.TomorrowConsumption,
		SolarRaw:         t.TomorrowSolarRaw,
		SolarAdjusted:    t.TomorrowSolarAdjusted,
		ForecastErrorPct: t.ForecastErrorPct,
		Deficit:          deficit,
		ChargeNeeded:     t.ChargeNeededKWh,
		UsableCapacity:   t.UsableCapacityKWh,
	}
}

// Overnight projects the overnight survival figures from the trajectory.
func (t TrajectoryResult) Overnight() OvernightNeed {
	return OvernightNeed{
		DarkHours:            t.DarkHours,
		OvernightConsumption: t.OvernightConsumptionKWh,
		BatteryAtWindowStart: t.BatteryAtWindowStartKWh,
		ChargeNeeded:         t.ChargeNeededKWh,
		SolarStartHour:       t.SolarStartHour,
		Source:               t.SolarSource,
	}
}
