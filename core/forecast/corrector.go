// Package forecast tracks solar forecast error and corrects future
// forecasts. The error ratio is (forecast - actual) / forecast: positive
// when the forecast overestimated, negative when it underestimated.
package forecast

import (
	"math"

	"gonum.org/v1/gonum/stat"
)

// Corrector maintains a sliding window of forecast error ratios.
type Corrector struct {
	windowDays     int
	minForecastKWh float64
}

// NewCorrector creates a Corrector. Forecasts below minForecastKWh are too
// small to produce a meaningful error ratio and are ignored.
func NewCorrector(windowDays int, minForecastKWh float64) *Corrector {
	if windowDays <= 0 {
		windowDays = 7
	}
	return &Corrector{windowDays: windowDays, minForecastKWh: minForecastKWh}
}

// ComputeError returns the error ratio for one day, or ok=false when the
// forecast is below the noise floor. Dividing by a near-zero forecast would
// produce wild ratios that poison the window.
func (c *Corrector) ComputeError(forecastKWh, actualKWh float64) (float64, bool) {
	if forecastKWh < c.minForecastKWh {
		return 0, false
	}
	return math.Round((forecastKWh-actualKWh)/forecastKWh*10000) / 10000, true
}

// AverageError returns the mean error ratio over the window, 0 when the
// history is empty.
func (c *Corrector) AverageError(history []float64) float64 {
	window := history
	if len(window) > c.windowDays {
		window = window[:c.windowDays]
	}
	if len(window) == 0 {
		return 0
	}
	return math.Round(stat.Mean(window, nil)*10000) / 10000
}

// AverageErrorPct returns the mean error as a percentage for display.
func (c *Corrector) AverageErrorPct(history []float64) float64 {
	return math.Round(c.AverageError(history)*1000) / 10
}

// AddEntry prepends a new error ratio and trims to the window size. The
// input slice is not mutated.
func (c *Corrector) AddEntry(history []float64, err float64) []float64 {
	out := make([]float64, 0, c.windowDays)
	out = append(out, err)
	rest := history
	if len(rest) > c.windowDays-1 {
		rest = rest[:c.windowDays-1]
	}
	return append(out, rest...)
}

// AdjustForecast shrinks a forecast by the historical overestimate. A
// negative average (the forecast has been underestimating) is clamped to
// zero correction: an underestimate only means more solar than planned,
// which is the safe direction.
func (c *Corrector) AdjustForecast(forecastKWh float64, history []float64) float64 {
	correction := math.Max(0, c.AverageError(history))
	return math.Round(forecastKWh*(1-correction)*100) / 100
}
