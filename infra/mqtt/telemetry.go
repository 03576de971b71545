package mqtt

import (
	"encoding/json"
	"strconv"

	"github.com/nightwatt/nightwatt/core/telemetry"
)

// TelemetrySource implements telemetry.Source over the MQTT reading cache.
type TelemetrySource struct {
	client *Client
}

// NewTelemetrySource wraps the client as a telemetry source.
func NewTelemetrySource(client *Client) *TelemetrySource {
	return &TelemetrySource{client: client}
}

var _ telemetry.Source = (*TelemetrySource)(nil)

func (s *TelemetrySource) CurrentSoC() (float64, bool) {
	return s.client.Float(s.client.cfg.Topics.SoC)
}

func (s *TelemetrySource) BatteryCapacityKWh() float64 {
	v, _ := s.client.Float(s.client.cfg.Topics.BatteryCapacity)
	return v
}

func (s *TelemetrySource) SolarForecastToday() float64 {
	v, _ := s.client.Float(s.client.cfg.Topics.SolarToday)
	return v
}

func (s *TelemetrySource) SolarForecastTodayHourly() map[int]float64 {
	return s.hourly(s.client.cfg.Topics.SolarTodayHourly)
}

func (s *TelemetrySource) SolarForecastTomorrow() float64 {
	v, _ := s.client.Float(s.client.cfg.Topics.SolarTomorrow)
	return v
}

func (s *TelemetrySource) SolarForecastTomorrowHourly() map[int]float64 {
	return s.hourly(s.client.cfg.Topics.SolarTomorrowHourly)
}

func (s *TelemetrySource) ActualSolarToday() float64 {
	v, _ := s.client.Float(s.client.cfg.Topics.ActualSolar)
	return v
}

func (s *TelemetrySource) CurrentPrice() (float64, bool) {
	return s.client.Float(s.client.cfg.Topics.CurrentPrice)
}

func (s *TelemetrySource) PriceCurve() map[string]float64 {
	payload, ok := s.client.Reading(s.client.cfg.Topics.PriceCurve)
	if !ok {
		return nil
	}
	var curve map[string]float64
	if err := json.Unmarshal(payload, &curve); err != nil {
		return nil
	}
	return curve
}

func (s *TelemetrySource) DailyConsumptionSoFar() (float64, bool) {
	return s.client.Float(s.client.cfg.Topics.DailyConsumption)
}

func (s *TelemetrySource) SunriseHourTomorrow() (float64, bool) {
	return s.client.Float(s.client.cfg.Topics.Sunrise)
}

// hourly decodes a JSON object keyed by clock hour ("8": 1.2) into a map.
// Returns nil when the topic is absent so callers fall back to the daily
// total.
func (s *TelemetrySource) hourly(topic string) map[int]float64 {
	payload, ok := s.client.Reading(topic)
	if !ok {
		return nil
	}
	var raw map[string]float64
	if err := json.Unmarshal(payload, &raw); err != nil {
		return nil
	}
	out := make(map[int]float64, len(raw))
	for key, v := range raw {
		hour, err := strconv.Atoi(key)
		if err != nil || hour < 0 || hour > 23 {
			continue
		}
		out[hour] = v
	}
	return out
}
