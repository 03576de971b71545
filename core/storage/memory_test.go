package storage

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nightwatt/nightwatt/core/model"
)

func TestMemoryStoreDefaults(t *testing.T) {
	s := NewMemoryStore()

	assert.True(t, s.Enabled())
	assert.Equal(t, model.StateIdle.String(), s.ChargingState())
	assert.Empty(t, s.ConsumptionHistory())
	_, ok := s.CurrentSchedule()
	assert.False(t, ok)
	_, ok = s.LastSession()
	assert.False(t, ok)
}

func TestMemoryStoreHistories(t *testing.T) {
	s := NewMemoryStore()

	require.NoError(t, s.SetConsumptionHistory([]float64{16, 17}))
	require.NoError(t, s.SetForecastErrorHistory([]float64{0.1}))
	require.NoError(t, s.SetChargeHistory([]float64{4.2}))
	require.NoError(t, s.SetSessionCostHistory([]CostEntry{{Date: "2026-02-09", KWh: 4.2, Cost: 3.8}}))

	assert.Equal(t, []float64{16, 17}, s.ConsumptionHistory())
	assert.Equal(t, []float64{0.1}, s.ForecastErrorHistory())
	assert.Equal(t, []float64{4.2}, s.ChargeHistory())
	costs := s.SessionCostHistory()
	require.Len(t, costs, 1)
	assert.Equal(t, "2026-02-09", costs[0].Date)
}

func TestMemoryStoreReturnsCopies(t *testing.T) {
	s := NewMemoryStore()
	require.NoError(t, s.SetConsumptionHistory([]float64{16}))

	got := s.ConsumptionHistory()
	got[0] = 99
	assert.Equal(t, []float64{16}, s.ConsumptionHistory())
}

func TestMemoryStoreScheduleClear(t *testing.T) {
	s := NewMemoryStore()

	require.NoError(t, s.SetCurrentSchedule(&model.ChargingSchedule{StartHour: 2, EndHour: 5}))
	sched, ok := s.CurrentSchedule()
	require.True(t, ok)
	assert.Equal(t, 2, sched.StartHour)

	require.NoError(t, s.SetCurrentSchedule(nil))
	_, ok = s.CurrentSchedule()
	assert.False(t, ok)
}

func TestMemorySessionLogQuery(t *testing.T) {
	l := NewMemorySessionLog()
	ctx := context.Background()

	base := time.Date(2026, 2, 1, 2, 0, 0, 0, time.UTC)
	for i := 0; i < 3; i++ {
		require.NoError(t, l.Append(ctx, model.ChargingSession{
			ID:        string(rune('a' + i)),
			StartTime: base.AddDate(0, 0, i),
			Result:    "Target reached",
		}))
	}
	require.NoError(t, l.Append(ctx, model.ChargingSession{
		ID:        "stalled",
		StartTime: base.AddDate(0, 0, 1),
		Result:    "Charging stalled",
	}))

	all, err := l.Query(ctx, SessionQuery{})
	require.NoError(t, err)
	assert.Len(t, all, 4)

	since, err := l.Query(ctx, SessionQuery{Start: base.AddDate(0, 0, 1)})
	require.NoError(t, err)
	assert.Len(t, since, 3)

	stalled, err := l.Query(ctx, SessionQuery{Result: "Charging stalled"})
	require.NoError(t, err)
	require.Len(t, stalled, 1)
	assert.Equal(t, "stalled", stalled[0].ID)
}
