// Package telemetry defines the read-only sensor interface the planner and
// controller consume. Concrete transports live under infra.
package telemetry

// Source supplies raw readings from the sensor host. Readings paired with
// an ok flag come from sensors that can be temporarily unreadable; a false
// flag means the dependent handler skips its tick rather than acting on
// stale data.
type Source interface {
	// CurrentSoC returns the battery state of charge in percent.
	CurrentSoC() (float64, bool)
	// BatteryCapacityKWh returns the configured or BMS-reported capacity.
	BatteryCapacityKWh() float64
	// SolarForecastToday returns today's forecast total in kWh.
	SolarForecastToday() float64
	// SolarForecastTodayHourly returns today's per-hour forecast, or nil
	// when the forecast source only provides daily totals.
	SolarForecastTodayHourly() map[int]float64
	// SolarForecastTomorrow returns tomorrow's forecast total in kWh.
	SolarForecastTomorrow() float64
	// SolarForecastTomorrowHourly returns tomorrow's per-hour forecast, or
	// nil when the forecast source only provides daily totals.
	SolarForecastTomorrowHourly() map[int]float64
	// ActualSolarToday returns the measured production so far today.
	ActualSolarToday() float64
	// CurrentPrice returns the spot price for the current hour.
	CurrentPrice() (float64, bool)
	// PriceCurve returns the full known curve keyed by ISO timestamps
	// ("2026-02-08T22:00:00+01:00" style, matching the price feed).
	PriceCurve() map[string]float64
	// DailyConsumptionSoFar returns today's metered consumption in kWh.
	DailyConsumptionSoFar() (float64, bool)
	// SunriseHourTomorrow returns tomorrow's sunrise as a fractional hour,
	// ok=false when no sun data is available.
	SunriseHourTomorrow() (float64, bool)
}
