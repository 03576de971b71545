package metrics

import (
	"context"
	"math"
	"net/http"
	"strconv"
	"strings"
	"time"

	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	"github.com/influxdata/influxdb-client-go/v2/api"
	"github.com/influxdata/influxdb-client-go/v2/api/write"

	coremetrics "github.com/nightwatt/nightwatt/core/metrics"
	"github.com/nightwatt/nightwatt/infra/logger"
)

// InfluxSink writes charging events to an InfluxDB instance using the
// official client.
type InfluxSink struct {
	client   influxdb2.Client
	writeAPI api.WriteAPIBlocking
	log      logger.Logger
}

// NewInfluxSink creates a new sink configured for the given InfluxDB endpoint.
func NewInfluxSink(url, token, org, bucket string) *InfluxSink {
	base := strings.TrimSuffix(url, "/api/v2/write")
	client := influxdb2.NewClientWithOptions(base, token,
		influxdb2.DefaultOptions().SetHTTPClient(&http.Client{Timeout: 5 * time.Second}))
	return &InfluxSink{
		client:   client,
		writeAPI: client.WriteAPIBlocking(org, bucket),
		log:      logger.New("influx-sink"),
	}
}

// NewInfluxSinkWithFallback tries to ping the InfluxDB instance and
// returns a NopSink if the health check fails.
func NewInfluxSinkWithFallback(url, token, org, bucket string) coremetrics.MetricsSink {
	sink := NewInfluxSink(url, token, org, bucket)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	health, err := sink.client.Health(ctx)
	if err != nil || health.Status != "pass" {
		if err != nil {
			sink.log.Errorf("influx health check error: %v", err)
		} else {
			sink.log.Errorf("influx health status: %s", health.Status)
		}
		sink.client.Close()
		return coremetrics.NopSink{}
	}
	return sink
}

// RecordPlan writes the planning outcome.
func (s *InfluxSink) RecordPlan(rec coremetrics.PlanRecord) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	p := write.NewPointWithMeasurement("charging_plan").
		AddTag("scheduled", strconv.FormatBool(rec.Scheduled)).
		AddTag("component", "planner").
		AddField("required_kwh", round3(rec.RequiredKWh)).
		AddField("avg_price", round3(rec.AvgPrice)).
		AddField("target_soc", round3(rec.TargetSoC)).
		AddField("deficit_kwh", round3(rec.DeficitKWh)).
		AddField("window_hours", rec.WindowHours).
		SetTime(rec.Time)
	return s.writeAPI.WritePoint(ctx, p)
}

// RecordStateTransition writes a controller transition.
func (s *InfluxSink) RecordStateTransition(rec coremetrics.StateRecord) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	p := write.NewPointWithMeasurement("charging_state").
		AddTag("from", rec.From.String()).
		AddTag("to", rec.To.String()).
		AddTag("component", "controller").
		AddField("soc", round3(rec.SoC)).
		SetTime(rec.Time)
	return s.writeAPI.WritePoint(ctx, p)
}

// RecordSession writes a finished session.
func (s *InfluxSink) RecordSession(rec coremetrics.SessionRecord) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	p := write.NewPointWithMeasurement("charging_session").
		AddTag("result", rec.Result).
		AddTag("component", "controller").
		AddField("kwh_charged", round3(rec.KWhCharged)).
		AddField("cost", round3(rec.Cost)).
		AddField("start_soc", round3(rec.StartSoC)).
		AddField("end_soc", round3(rec.EndSoC)).
		SetTime(rec.Time)
	return s.writeAPI.WritePoint(ctx, p)
}

// RecordActuation writes an inverter command attempt.
func (s *InfluxSink) RecordActuation(rec coremetrics.ActuationRecord) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	p := write.NewPointWithMeasurement("inverter_command").
		AddTag("command", rec.Command).
		AddTag("ok", strconv.FormatBool(rec.OK)).
		AddTag("component", "actuator").
		AddField("count", 1).
		SetTime(rec.Time)
	return s.writeAPI.WritePoint(ctx, p)
}

// RecordSoC writes a SOC sample.
func (s *InfluxSink) RecordSoC(socPercent float64) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	p := write.NewPointWithMeasurement("battery_soc").
		AddTag("component", "telemetry").
		AddField("soc", round3(socPercent)).
		SetTime(time.Now())
	return s.writeAPI.WritePoint(ctx, p)
}

func round3(f float64) float64 {
	return math.Round(f*1000) / 1000
}
