// Package consumption tracks daily household consumption with a sliding
// window average. Non-positive entries are treated as sensor faults and
// skipped; an empty window falls back to a configured default.
package consumption

import (
	"math"

	"gonum.org/v1/gonum/stat"
)

// SourceWindow and SourceFallback report where the current average comes from.
const (
	SourceWindow   = "sliding_window"
	SourceFallback = "fallback"
)

// Tracker computes a sliding-window average over daily consumption values.
type Tracker struct {
	windowDays  int
	fallbackKWh float64
}

// NewTracker creates a Tracker. windowDays must be positive.
func NewTracker(windowDays int, fallbackKWh float64) *Tracker {
	if windowDays <= 0 {
		windowDays = 7
	}
	return &Tracker{windowDays: windowDays, fallbackKWh: fallbackKWh}
}

// WindowDays returns the configured window size.
func (t *Tracker) WindowDays() int { return t.windowDays }

// FallbackKWh returns the configured fallback consumption.
func (t *Tracker) FallbackKWh() float64 { return t.fallbackKWh }

// SetFallbackKWh updates the fallback consumption.
func (t *Tracker) SetFallbackKWh(v float64) { t.fallbackKWh = v }

func (t *Tracker) valid(history []float64) []float64 {
	window := history
	if len(window) > t.windowDays {
		window = window[:t.windowDays]
	}
	var values []float64
	for _, v := range window {
		if v > 0 {
			values = append(values, v)
		}
	}
	return values
}

// Average returns the mean daily consumption over the window, ignoring
// non-positive entries. History is ordered most-recent-first. Returns the
// fallback when no valid entries remain.
func (t *Tracker) Average(history []float64) float64 {
	values := t.valid(history)
	if len(values) == 0 {
		return t.fallbackKWh
	}
	return math.Round(stat.Mean(values, nil)*100) / 100
}

// AddEntry prepends a new daily value and trims to the window size. The
// input slice is not mutated; non-positive values are dropped.
func (t *Tracker) AddEntry(history []float64, value float64) []float64 {
	if value <= 0 {
		out := make([]float64, len(history))
		copy(out, history)
		return out
	}
	out := make([]float64, 0, t.windowDays)
	out = append(out, math.Round(value*100)/100)
	rest := history
	if len(rest) > t.windowDays-1 {
		rest = rest[:t.windowDays-1]
	}
	return append(out, rest...)
}

// DaysTracked returns the number of valid samples backing the average.
func (t *Tracker) DaysTracked(history []float64) int {
	return len(t.valid(history))
}

// Source reports whether the average comes from the sliding window or the
// fallback value.
func (t *Tracker) Source(history []float64) string {
	if len(t.valid(history)) == 0 {
		return SourceFallback
	}
	return SourceWindow
}
