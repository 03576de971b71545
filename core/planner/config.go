package planner

import "fmt"

// Config carries the battery physics and planning parameters. Validation
// happens here, at the configuration boundary; the planner and controller
// assume a validated config and do not re-check it every cycle.
type Config struct {
	BatteryCapacityKWh float64 `json:"battery_capacity_kwh"`
	MaxChargeLevel     float64 `json:"max_charge_level"` // percent
	MinSoC             float64 `json:"min_soc"`          // percent
	MaxChargePowerKW   float64 `json:"max_charge_power_kw"`
	MaxChargePrice     float64 `json:"max_charge_price"`
	ChargingEfficiency float64 `json:"charging_efficiency"`

	WindowStartHour int `json:"window_start_hour"`
	WindowEndHour   int `json:"window_end_hour"`

	EveningMultiplier float64 `json:"evening_multiplier"`
	NightMultiplier   float64 `json:"night_multiplier"`
	WeekendMultiplier float64 `json:"weekend_multiplier"`

	FallbackConsumptionKWh float64 `json:"fallback_consumption_kwh"`
	ConsumptionWindowDays  int     `json:"consumption_window_days"`
	ForecastWindowDays     int     `json:"forecast_window_days"`
	MinForecastKWh         float64 `json:"min_forecast_kwh"`

	EmergencySoC          float64 `json:"emergency_soc"` // percent
	MaxOvernightHours     float64 `json:"max_overnight_hours"`
	PVFallbackBufferHours float64 `json:"pv_fallback_buffer_hours"`
	PVRampBufferHours     float64 `json:"pv_ramp_buffer_hours"`
}

// SetDefaults applies the stock battery and window parameters.
func (c *Config) SetDefaults() {
	if c.BatteryCapacityKWh == 0 {
		c.BatteryCapacityKWh = 15
	}
	if c.MaxChargeLevel == 0 {
		c.MaxChargeLevel = 90
	}
	if c.MinSoC == 0 {
		c.MinSoC = 20
	}
	if c.MaxChargePowerKW == 0 {
		c.MaxChargePowerKW = 10
	}
	if c.MaxChargePrice == 0 {
		c.MaxChargePrice = 4
	}
	if c.ChargingEfficiency == 0 {
		c.ChargingEfficiency = 0.95
	}
	if c.WindowStartHour == 0 {
		c.WindowStartHour = 22
	}
	if c.WindowEndHour == 0 {
		c.WindowEndHour = 6
	}
	if c.EveningMultiplier == 0 {
		c.EveningMultiplier = 1.3
	}
	if c.NightMultiplier == 0 {
		c.NightMultiplier = 0.6
	}
	if c.WeekendMultiplier == 0 {
		c.WeekendMultiplier = 1.1
	}
	if c.FallbackConsumptionKWh == 0 {
		c.FallbackConsumptionKWh = 20
	}
	if c.ConsumptionWindowDays == 0 {
		c.ConsumptionWindowDays = 7
	}
	if c.ForecastWindowDays == 0 {
		c.ForecastWindowDays = 7
	}
	if c.MinForecastKWh == 0 {
		c.MinForecastKWh = 0.5
	}
	if c.EmergencySoC == 0 {
		c.EmergencySoC = 15
	}
	if c.MaxOvernightHours == 0 {
		c.MaxOvernightHours = 18
	}
	if c.PVFallbackBufferHours == 0 {
		c.PVFallbackBufferHours = 2
	}
	if c.PVRampBufferHours == 0 {
		c.PVRampBufferHours = 1.5
	}
}

// Validate rejects inconsistent battery parameters.
func (c Config) Validate() error {
	if c.BatteryCapacityKWh <= 0 {
		return fmt.Errorf("battery_capacity_kwh must be positive")
	}
	if c.MinSoC < 0 || c.MaxChargeLevel > 100 {
		return fmt.Errorf("soc bounds must lie within 0-100")
	}
	if c.MinSoC >= c.MaxChargeLevel {
		return fmt.Errorf("min_soc %.0f must be below max_charge_level %.0f", c.MinSoC, c.MaxChargeLevel)
	}
	if c.EmergencySoC > c.MaxChargeLevel {
		return fmt.Errorf("emergency_soc %.0f must not exceed max_charge_level %.0f", c.EmergencySoC, c.MaxChargeLevel)
	}
	if c.MaxChargePowerKW <= 0 {
		return fmt.Errorf("max_charge_power_kw must be positive")
	}
	if c.ChargingEfficiency <= 0 || c.ChargingEfficiency > 1 {
		return fmt.Errorf("charging_efficiency must lie in (0,1]")
	}
	if c.WindowStartHour < 0 || c.WindowStartHour > 23 || c.WindowEndHour < 0 || c.WindowEndHour > 23 {
		return fmt.Errorf("window hours must lie within 0-23")
	}
	return nil
}

// UsableCapacityKWh returns the kWh range between the configured min SOC
// and max charge level, the only portion the planner may fill.
func (c Config) UsableCapacityKWh() float64 {
	return c.BatteryCapacityKWh * (c.MaxChargeLevel - c.MinSoC) / 100
}
