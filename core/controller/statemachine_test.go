package controller

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nightwatt/nightwatt/core/logger"
	"github.com/nightwatt/nightwatt/core/model"
	"github.com/nightwatt/nightwatt/core/storage"
)

type fakeSource struct {
	soc      float64
	socOK    bool
	capacity float64
}

func (f *fakeSource) CurrentSoC() (float64, bool)                  { return f.soc, f.socOK }
func (f *fakeSource) BatteryCapacityKWh() float64                  { return f.capacity }
func (f *fakeSource) SolarForecastToday() float64                  { return 0 }
func (f *fakeSource) SolarForecastTodayHourly() map[int]float64    { return nil }
func (f *fakeSource) SolarForecastTomorrow() float64               { return 0 }
func (f *fakeSource) SolarForecastTomorrowHourly() map[int]float64 { return nil }
func (f *fakeSource) ActualSolarToday() float64                    { return 0 }
func (f *fakeSource) CurrentPrice() (float64, bool)                { return 0, false }
func (f *fakeSource) PriceCurve() map[string]float64               { return nil }
func (f *fakeSource) DailyConsumptionSoFar() (float64, bool)       { return 0, false }
func (f *fakeSource) SunriseHourTomorrow() (float64, bool)         { return 0, false }

type fakeGateway struct {
	startOK    bool
	stopOK     bool
	mode       string
	modeOK     bool
	startCalls int
	stopCalls  int
}

func (f *fakeGateway) StartCharging(float64) bool {
	f.startCalls++
	return f.startOK
}

func (f *fakeGateway) StopCharging(float64) bool {
	f.stopCalls++
	return f.stopOK
}

func (f *fakeGateway) CurrentMode() (string, bool) { return f.mode, f.modeOK }
func (f *fakeGateway) IsManualMode(mode string) bool {
	return mode == "Manual"
}

func newTestMachine(t *testing.T) (*StateMachine, *storage.MemoryStore, *fakeSource, *fakeGateway) {
	t.Helper()
	cfg := Config{}
	cfg.SetDefaults()
	store := storage.NewMemoryStore()
	src := &fakeSource{soc: 40, socOK: true, capacity: 15}
	gw := &fakeGateway{startOK: true, stopOK: true, mode: "Self Use", modeOK: true}
	m := New(cfg, store, src, gw, nil, nil, nil, logger.NopLogger{})
	m.now = func() time.Time {
		return time.Date(2026, 2, 9, 23, 30, 0, 0, time.UTC)
	}
	return m, store, src, gw
}

func testSchedule() *model.ChargingSchedule {
	return &model.ChargingSchedule{
		StartHour:   23,
		EndHour:     5,
		WindowHours: 8,
		AvgPrice:    0.9,
		RequiredKWh: 6.0,
		TargetSoC:   80,
	}
}

func TestOnPlanSchedules(t *testing.T) {
	m, store, _, _ := newTestMachine(t)

	m.OnPlan(testSchedule())

	assert.Equal(t, model.StateScheduled, m.State())
	sched, ok := store.CurrentSchedule()
	require.True(t, ok)
	assert.Equal(t, 80.0, sched.TargetSoC)
}

func TestOnPlanNilClosesNoChargingNeeded(t *testing.T) {
	m, store, _, _ := newTestMachine(t)

	m.OnPlan(nil)

	assert.Equal(t, model.StateIdle, m.State())
	session, ok := store.LastSession()
	require.True(t, ok)
	assert.Equal(t, ResultNoChargingNeeded, session.Result)
}

func TestOnPlanIgnoredWhileCharging(t *testing.T) {
	m, store, _, _ := newTestMachine(t)
	m.OnPlan(testSchedule())
	m.OnTick()
	require.Equal(t, model.StateCharging, m.State())

	replacement := testSchedule()
	replacement.TargetSoC = 95
	m.OnPlan(replacement)

	assert.Equal(t, model.StateCharging, m.State())
	sched, ok := store.CurrentSchedule()
	require.True(t, ok)
	assert.Equal(t, 80.0, sched.TargetSoC)
}

func TestScheduledTickStartsInWindow(t *testing.T) {
	m, _, src, gw := newTestMachine(t)
	src.soc = 40
	m.OnPlan(testSchedule())

	m.OnTick()

	assert.Equal(t, model.StateCharging, m.State())
	assert.Equal(t, 1, gw.startCalls)
	require.NotNil(t, m.session)
	assert.Equal(t, 40.0, m.session.StartSoC)
}

func TestScheduledTickWaitsOutsideWindow(t *testing.T) {
	m, _, _, gw := newTestMachine(t)
	m.OnPlan(testSchedule())
	m.now = func() time.Time {
		return time.Date(2026, 2, 9, 20, 0, 0, 0, time.UTC)
	}

	m.OnTick()

	assert.Equal(t, model.StateScheduled, m.State())
	assert.Zero(t, gw.startCalls)
}

func TestScheduledTickAlreadyAtTarget(t *testing.T) {
	m, store, src, gw := newTestMachine(t)
	src.soc = 85
	m.OnPlan(testSchedule())

	m.OnTick()

	assert.Equal(t, model.StateComplete, m.State())
	assert.Zero(t, gw.startCalls)
	session, ok := store.LastSession()
	require.True(t, ok)
	assert.Equal(t, ResultAlreadyAtTarget, session.Result)
	assert.Equal(t, session.StartSoC, session.EndSoC)
}

func TestScheduledTickSkipsOnUnavailableSoC(t *testing.T) {
	m, _, src, gw := newTestMachine(t)
	m.OnPlan(testSchedule())
	src.socOK = false

	m.OnTick()

	assert.Equal(t, model.StateScheduled, m.State())
	assert.Zero(t, gw.startCalls)
}

func TestStartFailureAbandonsAfterRetries(t *testing.T) {
	m, store, _, gw := newTestMachine(t)
	gw.startOK = false
	m.OnPlan(testSchedule())

	m.OnTick()
	m.OnTick()
	assert.Equal(t, model.StateScheduled, m.State())

	m.OnTick()

	assert.Equal(t, model.StateIdle, m.State())
	assert.Equal(t, 3, gw.startCalls)
	session, ok := store.LastSession()
	require.True(t, ok)
	assert.Equal(t, ResultCommandFailed, session.Result)
}

func TestChargingTickReachesTarget(t *testing.T) {
	m, store, src, gw := newTestMachine(t)
	m.OnPlan(testSchedule())
	m.OnTick()
	require.Equal(t, model.StateCharging, m.State())

	src.soc = 80
	m.OnTick()

	assert.Equal(t, model.StateComplete, m.State())
	assert.Equal(t, 1, gw.stopCalls)
	session, ok := store.LastSession()
	require.True(t, ok)
	assert.Equal(t, ResultTargetReached, session.Result)
	assert.Equal(t, 40.0, session.StartSoC)
	assert.Equal(t, 80.0, session.EndSoC)
}

func TestChargingTickWindowEnded(t *testing.T) {
	m, store, src, _ := newTestMachine(t)
	m.OnPlan(testSchedule())
	m.OnTick()
	require.Equal(t, model.StateCharging, m.State())

	src.soc = 62
	m.now = func() time.Time {
		return time.Date(2026, 2, 10, 5, 1, 0, 0, time.UTC)
	}
	m.OnTick()

	assert.Equal(t, model.StateComplete, m.State())
	session, ok := store.LastSession()
	require.True(t, ok)
	assert.Equal(t, ResultWindowEnded, session.Result)
}

func TestChargeHistoryAccumulatesOnCompletion(t *testing.T) {
	m, store, src, _ := newTestMachine(t)
	m.OnPlan(testSchedule())
	m.OnTick()

	src.soc = 80
	m.OnTick()

	charges := store.ChargeHistory()
	require.Len(t, charges, 1)
	// 40 percentage points of a 15 kWh battery.
	assert.InDelta(t, 6.0, charges[0], 1e-9)

	costs := store.SessionCostHistory()
	require.Len(t, costs, 1)
	assert.InDelta(t, 5.4, costs[0].Cost, 1e-9)
	assert.Equal(t, "2026-02-09", costs[0].Date)
}

func TestStallRetryThenAbort(t *testing.T) {
	m, store, src, gw := newTestMachine(t)
	m.cfg.StallRetryTicks = 2
	m.cfg.StallAbortTicks = 4
	m.OnPlan(testSchedule())
	m.OnTick()
	require.Equal(t, model.StateCharging, m.State())
	require.Equal(t, 1, gw.startCalls)

	src.soc = 41
	m.OnTick() // progress, counters reset

	m.OnTick() // stuck tick 1
	assert.Equal(t, 1, gw.startCalls)
	m.OnTick() // stuck tick 2: retry fires
	assert.Equal(t, 2, gw.startCalls)
	assert.Equal(t, model.StateCharging, m.State())

	m.OnTick() // stuck tick 3
	m.OnTick() // stuck tick 4: abort

	assert.Equal(t, model.StateComplete, m.State())
	session, ok := store.LastSession()
	require.True(t, ok)
	assert.Equal(t, ResultStalled, session.Result)
}

func TestStallCounterResetsOnProgress(t *testing.T) {
	m, _, src, gw := newTestMachine(t)
	m.cfg.StallRetryTicks = 2
	m.cfg.StallAbortTicks = 4
	m.OnPlan(testSchedule())
	m.OnTick()

	m.OnTick() // stuck tick 1
	src.soc = 45
	m.OnTick() // progress
	m.OnTick() // stuck tick 1 again

	assert.Equal(t, 1, gw.startCalls)
	assert.Equal(t, model.StateCharging, m.State())
}

func TestMorningSafetyStopsActiveCharge(t *testing.T) {
	m, store, _, gw := newTestMachine(t)
	m.OnPlan(testSchedule())
	m.OnTick()
	require.Equal(t, model.StateCharging, m.State())

	m.OnMorningSafety()

	assert.Equal(t, model.StateIdle, m.State())
	assert.Equal(t, 1, gw.stopCalls)
	_, ok := store.CurrentSchedule()
	assert.False(t, ok)
	session, sok := store.LastSession()
	require.True(t, sok)
	assert.Equal(t, ResultMorningSafety, session.Result)
}

func TestMorningSafetyClearsStaleSchedule(t *testing.T) {
	m, store, _, gw := newTestMachine(t)
	m.OnPlan(testSchedule())
	require.Equal(t, model.StateScheduled, m.State())

	m.OnMorningSafety()

	assert.Equal(t, model.StateIdle, m.State())
	assert.Equal(t, 1, gw.stopCalls)
	_, ok := store.CurrentSchedule()
	assert.False(t, ok)
}

func TestMorningSafetyForcesStopOnManualMode(t *testing.T) {
	m, _, _, gw := newTestMachine(t)
	gw.mode = "Manual"

	m.OnMorningSafety()

	assert.Equal(t, 1, gw.stopCalls)
}

func TestMorningSafetyForcesStopOnUnreadableMode(t *testing.T) {
	m, _, _, gw := newTestMachine(t)
	gw.modeOK = false

	m.OnMorningSafety()

	assert.Equal(t, 1, gw.stopCalls)
}

func TestMorningSafetyNoopWhenIdleAndSelfUse(t *testing.T) {
	m, _, _, gw := newTestMachine(t)

	m.OnMorningSafety()

	assert.Zero(t, gw.stopCalls)
	assert.Equal(t, model.StateIdle, m.State())
}

func TestDisableStopsChargeAndBlocksPlans(t *testing.T) {
	m, store, _, gw := newTestMachine(t)
	m.OnPlan(testSchedule())
	m.OnTick()
	require.Equal(t, model.StateCharging, m.State())

	m.OnDisable()

	assert.Equal(t, model.StateDisabled, m.State())
	assert.Equal(t, 1, gw.stopCalls)
	session, ok := store.LastSession()
	require.True(t, ok)
	assert.Equal(t, ResultDisabled, session.Result)

	m.OnPlan(testSchedule())
	assert.Equal(t, model.StateDisabled, m.State())

	m.OnEnable()
	assert.Equal(t, model.StateIdle, m.State())
}

func TestSessionArchivedOnCompletion(t *testing.T) {
	cfg := Config{}
	cfg.SetDefaults()
	store := storage.NewMemoryStore()
	src := &fakeSource{soc: 40, socOK: true, capacity: 15}
	gw := &fakeGateway{startOK: true, stopOK: true, mode: "Self Use", modeOK: true}
	archive := storage.NewMemorySessionLog()
	m := New(cfg, store, src, gw, nil, archive, nil, logger.NopLogger{})
	m.now = func() time.Time {
		return time.Date(2026, 2, 9, 23, 30, 0, 0, time.UTC)
	}

	m.OnPlan(testSchedule())
	m.OnTick()
	src.soc = 80
	m.OnTick()

	sessions, err := archive.Query(context.Background(), storage.SessionQuery{})
	require.NoError(t, err)
	require.Len(t, sessions, 1)
	assert.Equal(t, ResultTargetReached, sessions[0].Result)
}
