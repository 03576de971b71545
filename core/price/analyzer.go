// Package price analyzes hourly electricity prices and locates the
// cheapest contiguous charging window inside the configured night period.
package price

import (
	"math"
	"sort"
	"strconv"
	"strings"

	"gonum.org/v1/gonum/stat"

	"github.com/nightwatt/nightwatt/core/model"
)

// Price classification bands, relative to the configured charge threshold.
const (
	BandVeryCheap = "Very Cheap"
	BandCheap     = "Cheap"
	BandNormal    = "Normal"
	BandExpensive = "Expensive"
)

// Analyzer extracts night price curves and finds cheap charging windows.
// The night window runs from startHour on one day to endHour on the next,
// wrapping midnight (e.g. 22 -> 6).
type Analyzer struct {
	startHour int
	endHour   int
}

// NewAnalyzer creates an Analyzer for the given night window.
func NewAnalyzer(windowStartHour, windowEndHour int) *Analyzer {
	return &Analyzer{startHour: windowStartHour, endHour: windowEndHour}
}

// WindowStartHour returns the first hour of the night window.
func (a *Analyzer) WindowStartHour() int { return a.startHour }

// WindowEndHour returns the hour the night window ends.
func (a *Analyzer) WindowEndHour() int { return a.endHour }

// WindowSize returns the total number of hours in the night window.
func (a *Analyzer) WindowSize() int {
	if a.endHour <= a.startHour {
		return (24 - a.startHour) + a.endHour
	}
	return a.endHour - a.startHour
}

// parseKey splits a price curve key like "2026-02-08T22:00:00+01:00" into
// its date part and clock hour. Malformed keys are skipped by the callers.
func parseKey(key string) (date string, hour int, ok bool) {
	if len(key) < 13 {
		return "", 0, false
	}
	if key[4] != '-' || key[7] != '-' {
		return "", 0, false
	}
	h, err := strconv.Atoi(key[11:13])
	if err != nil || h < 0 || h > 23 {
		return "", 0, false
	}
	return key[:10], h, true
}

// normalize shifts hours before the window start past midnight so slots
// sort in charging order (22, 23, 0, 1, ...).
func (a *Analyzer) normalize(hour int) int {
	if hour < a.startHour {
		return hour + 24
	}
	return hour
}

// ExtractNightPrices pulls the night window hours out of a full price
// curve: hours >= startHour from today and hours < endHour from tomorrow.
// When a non-wrapping window makes an hour appear on both dates, today's
// slot wins. The result is deduplicated and ordered across midnight.
func (a *Analyzer) ExtractNightPrices(allPrices map[string]float64, todayDate, tomorrowDate string) []model.PriceSlot {
	type candidate struct {
		price float64
		today bool
	}
	byHour := make(map[int]candidate)

	for key, value := range allPrices {
		date, hour, ok := parseKey(key)
		if !ok {
			continue
		}
		var today bool
		switch {
		case date == todayDate && hour >= a.startHour:
			today = true
		case date == tomorrowDate && hour < a.endHour:
		default:
			continue
		}
		if prev, ok := byHour[hour]; ok && (prev.today || !today) {
			continue
		}
		byHour[hour] = candidate{price: value, today: today}
	}

	slots := make([]model.PriceSlot, 0, len(byHour))
	for hour, c := range byHour {
		slots = append(slots, model.PriceSlot{Hour: hour, Price: c.price})
	}
	sort.Slice(slots, func(i, j int) bool {
		return a.normalize(slots[i].Hour) < a.normalize(slots[j].Hour)
	})
	return slots
}

// HasPricesFor reports whether the curve carries any slot for the given
// "YYYY-MM-DD" date. Planning waits until tomorrow's curve has arrived.
func HasPricesFor(allPrices map[string]float64, date string) bool {
	for key := range allPrices {
		if strings.HasPrefix(key, date) {
			return true
		}
	}
	return false
}

// CalculateHoursNeeded returns the whole charging hours needed for the
// given energy at the given power: ceil(kwh/power), at least 1 when any
// energy is needed, capped at the night window length. Demand beyond the
// window is simply not charged that night.
func (a *Analyzer) CalculateHoursNeeded(requiredKWh, chargePowerKW float64) int {
	if requiredKWh <= 0 || chargePowerKW <= 0 {
		return 0
	}
	hours := int(math.Ceil(requiredKWh / chargePowerKW))
	if hours < 1 {
		hours = 1
	}
	if max := a.WindowSize(); hours > max {
		hours = max
	}
	return hours
}

// FindCheapestWindow slides a window of windowHours across the sorted
// slots and returns the one with the lowest average price, earliest first
// on ties. Candidates whose hours are not strictly contiguous are
// rejected: a missing price tick invalidates the window rather than being
// silently stitched across.
func (a *Analyzer) FindCheapestWindow(slots []model.PriceSlot, windowHours int) *model.PriceWindow {
	if windowHours <= 0 || len(slots) < windowHours {
		return nil
	}

	ordered := make([]int, len(slots))
	for i, s := range slots {
		ordered[i] = a.normalize(s.Hour)
	}

	var best *model.PriceWindow
	for i := 0; i+windowHours <= len(slots); i++ {
		contiguous := true
		for j := 1; j < windowHours; j++ {
			if ordered[i+j] != ordered[i+j-1]+1 {
				contiguous = false
				break
			}
		}
		if !contiguous {
			continue
		}

		window := slots[i : i+windowHours]
		prices := make([]float64, windowHours)
		for j, s := range window {
			prices[j] = s.Price
		}
		avg := stat.Mean(prices, nil)
		if best == nil || avg < best.AvgPrice {
			best = &model.PriceWindow{
				StartHour:   window[0].Hour,
				EndHour:     (window[windowHours-1].Hour + 1) % 24,
				WindowHours: windowHours,
				AvgPrice:    math.Round(avg*10000) / 10000,
				Slots:       append([]model.PriceSlot(nil), window...),
			}
		}
	}
	return best
}

// FindCheapestHours returns the n cheapest hours of a given date,
// cheapest first. Display helper, not part of the charge decision.
func (a *Analyzer) FindCheapestHours(allPrices map[string]float64, targetDate string, n int) []model.PriceSlot {
	var slots []model.PriceSlot
	for key, value := range allPrices {
		date, hour, ok := parseKey(key)
		if !ok || date != targetDate {
			continue
		}
		slots = append(slots, model.PriceSlot{Hour: hour, Price: value})
	}
	sort.Slice(slots, func(i, j int) bool {
		if slots[i].Price == slots[j].Price {
			return slots[i].Hour < slots[j].Hour
		}
		return slots[i].Price < slots[j].Price
	})
	if len(slots) > n {
		slots = slots[:n]
	}
	return slots
}

// ClassifyPrice buckets a spot price against the charge threshold.
// Advisory only; the planner applies its own gate.
func ClassifyPrice(currentPrice, chargeThreshold float64) string {
	if chargeThreshold <= 0 {
		return BandNormal
	}
	switch {
	case currentPrice < chargeThreshold*0.7:
		return BandVeryCheap
	case currentPrice < chargeThreshold:
		return BandCheap
	case currentPrice < chargeThreshold*1.5:
		return BandNormal
	default:
		return BandExpensive
	}
}
