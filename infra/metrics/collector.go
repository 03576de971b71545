package metrics

import (
	"context"

	"github.com/nightwatt/nightwatt/core/events"
	coremetrics "github.com/nightwatt/nightwatt/core/metrics"
	"github.com/nightwatt/nightwatt/internal/eventbus"
)

// StartEventCollector subscribes to the event bus and records metrics for
// planning, state, session, and actuation events. It stops when the context
// is canceled.
func StartEventCollector(ctx context.Context, bus eventbus.EventBus, sink coremetrics.MetricsSink) {
	if bus == nil || sink == nil {
		return
	}
	sub := bus.Subscribe()
	go func() {
		defer bus.Unsubscribe(sub)
		for {
			select {
			case <-ctx.Done():
				return
			case ev, ok := <-sub:
				if !ok {
					return
				}
				record(sink, ev)
			}
		}
	}()
}

func record(sink coremetrics.MetricsSink, ev eventbus.Event) {
	switch e := ev.(type) {
	case events.PlanEvent:
		rec := coremetrics.PlanRecord{
			Scheduled:  e.Schedule != nil,
			DeficitKWh: e.Deficit.Deficit,
			Time:       e.Time,
		}
		if e.Schedule != nil {
			rec.RequiredKWh = e.Schedule.RequiredKWh
			rec.AvgPrice = e.Schedule.AvgPrice
			rec.TargetSoC = e.Schedule.TargetSoC
			rec.WindowHours = e.Schedule.WindowHours
		}
		_ = sink.RecordPlan(rec)
	case events.StateEvent:
		_ = sink.RecordStateTransition(coremetrics.StateRecord{
			From: e.From,
			To:   e.To,
			SoC:  e.SoC,
			Time: e.Time,
		})
		_ = sink.RecordSoC(e.SoC)
	case events.SessionEvent:
		_ = sink.RecordSession(coremetrics.SessionRecord{
			Result:     e.Session.Result,
			KWhCharged: e.Session.KWhCharged(e.CapacityKWh),
			Cost:       e.Session.TotalCost(e.CapacityKWh),
			StartSoC:   e.Session.StartSoC,
			EndSoC:     e.Session.EndSoC,
			Time:       e.Time,
		})
	case events.ActuationEvent:
		_ = sink.RecordActuation(coremetrics.ActuationRecord{
			Command: e.Command,
			OK:      e.OK,
			Time:    e.Time,
		})
	}
}
