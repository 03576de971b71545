package price

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nightwatt/nightwatt/core/model"
)

const (
	today    = "2026-02-09"
	tomorrow = "2026-02-10"
)

// curve builds a price map with today's evening hours and tomorrow's early
// hours, the shape a day-ahead feed delivers after the afternoon update.
func curve(prices map[int]float64) map[string]float64 {
	out := make(map[string]float64)
	for hour, p := range prices {
		date := today
		if hour < 12 {
			date = tomorrow
		}
		out[fmt.Sprintf("%sT%02d:00:00+01:00", date, hour)] = p
	}
	return out
}

func TestWindowSize(t *testing.T) {
	assert.Equal(t, 8, NewAnalyzer(22, 6).WindowSize())
	assert.Equal(t, 9, NewAnalyzer(21, 6).WindowSize())
	assert.Equal(t, 4, NewAnalyzer(1, 5).WindowSize())
}

func TestExtractNightPricesOrdersAcrossMidnight(t *testing.T) {
	a := NewAnalyzer(22, 6)
	slots := a.ExtractNightPrices(curve(map[int]float64{
		22: 1.2, 23: 1.0, 0: 0.9, 1: 0.8, 2: 0.85, 3: 0.9, 4: 1.0, 5: 1.1,
	}), today, tomorrow)

	require.Len(t, slots, 8)
	assert.Equal(t, 22, slots[0].Hour)
	assert.Equal(t, 23, slots[1].Hour)
	assert.Equal(t, 0, slots[2].Hour)
	assert.Equal(t, 5, slots[7].Hour)
}

func TestExtractNightPricesIgnoresDayHours(t *testing.T) {
	a := NewAnalyzer(22, 6)
	prices := curve(map[int]float64{22: 1.2, 23: 1.0, 0: 0.9})
	prices[today+"T14:00:00+01:00"] = 2.0
	prices[tomorrow+"T08:00:00+01:00"] = 1.8

	slots := a.ExtractNightPrices(prices, today, tomorrow)
	require.Len(t, slots, 3)
	for _, s := range slots {
		assert.NotEqual(t, 14, s.Hour)
		assert.NotEqual(t, 8, s.Hour)
	}
}

func TestExtractNightPricesSkipsMalformedKeys(t *testing.T) {
	a := NewAnalyzer(22, 6)
	prices := map[string]float64{
		today + "T23:00:00+01:00": 1.0,
		"garbage":                 9.9,
		"2026-02":                 9.9,
	}

	slots := a.ExtractNightPrices(prices, today, tomorrow)
	require.Len(t, slots, 1)
	assert.Equal(t, 23, slots[0].Hour)
}

func TestExtractNightPricesPrefersTodayOnCollision(t *testing.T) {
	// A non-wrapping window puts the same hours on both dates. Today's
	// slot must win regardless of map iteration order.
	a := NewAnalyzer(2, 6)
	prices := map[string]float64{
		today + "T03:00:00+01:00":    1.0,
		tomorrow + "T03:00:00+01:00": 9.9,
		tomorrow + "T04:00:00+01:00": 0.5,
	}

	for i := 0; i < 20; i++ {
		slots := a.ExtractNightPrices(prices, today, tomorrow)
		require.Len(t, slots, 2)
		assert.Equal(t, 3, slots[0].Hour)
		assert.Equal(t, 1.0, slots[0].Price)
		assert.Equal(t, 4, slots[1].Hour)
	}
}

func TestHasPricesFor(t *testing.T) {
	prices := curve(map[int]float64{22: 1.2, 3: 0.9})
	assert.True(t, HasPricesFor(prices, today))
	assert.True(t, HasPricesFor(prices, tomorrow))
	assert.False(t, HasPricesFor(prices, "2026-02-11"))
}

func TestCalculateHoursNeeded(t *testing.T) {
	a := NewAnalyzer(22, 6)

	tests := []struct {
		name  string
		kwh   float64
		power float64
		want  int
	}{
		{"exact fit", 20, 10, 2},
		{"rounds up", 25, 10, 3},
		{"nothing needed", 0, 10, 0},
		{"tiny demand still gets an hour", 0.5, 10, 1},
		{"capped at window size", 200, 10, 8},
		{"invalid power", 10, 0, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, a.CalculateHoursNeeded(tt.kwh, tt.power))
		})
	}
}

func TestFindCheapestWindow(t *testing.T) {
	a := NewAnalyzer(22, 6)
	slots := a.ExtractNightPrices(curve(map[int]float64{
		22: 1.2, 23: 1.0, 0: 0.9, 1: 0.7, 2: 0.75, 3: 0.8, 4: 1.0, 5: 1.1,
	}), today, tomorrow)

	window := a.FindCheapestWindow(slots, 3)
	require.NotNil(t, window)
	assert.Equal(t, 1, window.StartHour)
	assert.Equal(t, 4, window.EndHour)
	assert.Equal(t, 3, window.WindowHours)
	assert.InDelta(t, 0.75, window.AvgPrice, 1e-9)
}

func TestFindCheapestWindowWrapsMidnight(t *testing.T) {
	a := NewAnalyzer(22, 6)
	slots := a.ExtractNightPrices(curve(map[int]float64{
		22: 0.5, 23: 0.5, 0: 0.6, 1: 1.5, 2: 1.5, 3: 1.5, 4: 1.5, 5: 1.5,
	}), today, tomorrow)

	window := a.FindCheapestWindow(slots, 3)
	require.NotNil(t, window)
	assert.Equal(t, 22, window.StartHour)
	assert.Equal(t, 1, window.EndHour)
}

func TestFindCheapestWindowRejectsGaps(t *testing.T) {
	a := NewAnalyzer(22, 6)
	// Hour 0 is missing from the feed; no 3-hour run spans the gap.
	slots := []model.PriceSlot{
		{Hour: 22, Price: 0.5},
		{Hour: 23, Price: 0.5},
		{Hour: 1, Price: 0.5},
		{Hour: 2, Price: 0.5},
	}

	assert.Nil(t, a.FindCheapestWindow(slots, 3))
	require.NotNil(t, a.FindCheapestWindow(slots, 2))
}

func TestFindCheapestWindowPrefersEarliestOnTie(t *testing.T) {
	a := NewAnalyzer(22, 6)
	slots := a.ExtractNightPrices(curve(map[int]float64{
		22: 1.0, 23: 1.0, 0: 1.0, 1: 1.0, 2: 1.0, 3: 1.0, 4: 1.0, 5: 1.0,
	}), today, tomorrow)

	window := a.FindCheapestWindow(slots, 2)
	require.NotNil(t, window)
	assert.Equal(t, 22, window.StartHour)
}

func TestFindCheapestWindowTooFewSlots(t *testing.T) {
	a := NewAnalyzer(22, 6)
	slots := []model.PriceSlot{{Hour: 23, Price: 1.0}}

	assert.Nil(t, a.FindCheapestWindow(slots, 2))
	assert.Nil(t, a.FindCheapestWindow(slots, 0))
}

func TestFindCheapestHours(t *testing.T) {
	a := NewAnalyzer(22, 6)
	prices := map[string]float64{
		tomorrow + "T01:00:00+01:00": 0.7,
		tomorrow + "T02:00:00+01:00": 0.9,
		tomorrow + "T03:00:00+01:00": 0.6,
		today + "T23:00:00+01:00":    0.1,
	}

	cheapest := a.FindCheapestHours(prices, tomorrow, 2)
	require.Len(t, cheapest, 2)
	assert.Equal(t, 3, cheapest[0].Hour)
	assert.Equal(t, 1, cheapest[1].Hour)
}

func TestClassifyPrice(t *testing.T) {
	tests := []struct {
		price float64
		want  string
	}{
		{1.0, BandVeryCheap},
		{3.0, BandCheap},
		{4.5, BandNormal},
		{7.0, BandExpensive},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ClassifyPrice(tt.price, 4.0))
	}
	assert.Equal(t, BandNormal, ClassifyPrice(1.0, 0))
}
