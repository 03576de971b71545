package model

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScheduleContains(t *testing.T) {
	wrap := ChargingSchedule{StartHour: 23, EndHour: 5}
	assert.True(t, wrap.Contains(23))
	assert.True(t, wrap.Contains(0))
	assert.True(t, wrap.Contains(4))
	assert.False(t, wrap.Contains(5))
	assert.False(t, wrap.Contains(12))

	sameDay := ChargingSchedule{StartHour: 2, EndHour: 5}
	assert.True(t, sameDay.Contains(2))
	assert.True(t, sameDay.Contains(4))
	assert.False(t, sameDay.Contains(5))
	assert.False(t, sameDay.Contains(1))
}

func TestScheduleRoundTrip(t *testing.T) {
	in := ChargingSchedule{
		StartHour:   23,
		EndHour:     5,
		WindowHours: 6,
		AvgPrice:    0.85,
		RequiredKWh: 4.2,
		TargetSoC:   75,
		CreatedAt:   time.Date(2026, 2, 9, 15, 0, 0, 0, time.UTC),
	}

	data, err := in.Encode()
	require.NoError(t, err)
	out, err := DecodeSchedule(data)
	require.NoError(t, err)
	assert.Equal(t, in, out)
}

func TestSessionKWhCharged(t *testing.T) {
	s := ChargingSession{StartSoC: 40, EndSoC: 80}
	assert.InDelta(t, 6.0, s.KWhCharged(15), 1e-9)

	noGain := ChargingSession{StartSoC: 80, EndSoC: 80}
	assert.Zero(t, noGain.KWhCharged(15))

	drained := ChargingSession{StartSoC: 80, EndSoC: 60}
	assert.Zero(t, drained.KWhCharged(15))
}

func TestSessionTotalCost(t *testing.T) {
	s := ChargingSession{StartSoC: 40, EndSoC: 80, AvgPrice: 0.9}
	assert.InDelta(t, 5.4, s.TotalCost(15), 1e-9)
}

func TestSessionOpen(t *testing.T) {
	open := ChargingSession{StartTime: time.Now()}
	assert.True(t, open.Open())

	closed := ChargingSession{StartTime: time.Now(), EndTime: time.Now()}
	assert.False(t, closed.Open())
}

func TestChargingStateRoundTrip(t *testing.T) {
	states := []ChargingState{StateIdle, StateScheduled, StateCharging, StateComplete, StateDisabled}
	for _, st := range states {
		assert.Equal(t, st, ParseChargingState(st.String()))
	}
}

func TestParseChargingStateUnknown(t *testing.T) {
	assert.Equal(t, StateIdle, ParseChargingState(""))
	assert.Equal(t, StateIdle, ParseChargingState("garbage"))
}

func TestRecoverChargingState(t *testing.T) {
	// A crash mid-charge must not resume blind; the next tick re-checks
	// the window and the battery from scheduled.
	assert.Equal(t, StateScheduled, RecoverChargingState("charging"))
	assert.Equal(t, StateScheduled, RecoverChargingState("scheduled"))
	assert.Equal(t, StateDisabled, RecoverChargingState("disabled"))
	assert.Equal(t, StateIdle, RecoverChargingState("idle"))
}

func TestTrajectoryProjections(t *testing.T) {
	traj := TrajectoryResult{
		ChargeNeededKWh:         3.5,
		BatteryAtWindowStartKWh: 2.0,
		DarkHours:               9,
		OvernightConsumptionKWh: 6.1,
		SolarStartHour:          8.5,
		SolarSource:             SolarSourceForecast,
		TomorrowConsumption:     16.5,
		TomorrowSolarRaw:        5.0,
		TomorrowSolarAdjusted:   4.0,
		UsableCapacityKWh:       10.5,
	}

	d := traj.Deficit()
	assert.InDelta(t, 12.5, d.Deficit, 1e-9)
	assert.Equal(t, 3.5, d.ChargeNeeded)

	surplus := TrajectoryResult{TomorrowConsumption: 10, TomorrowSolarAdjusted: 14}
	assert.Zero(t, surplus.Deficit().Deficit)

	o := traj.Overnight()
	assert.Equal(t, 9.0, o.DarkHours)
	assert.Equal(t, SolarSourceForecast, o.Source)
}
