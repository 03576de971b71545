package model

import (
	"encoding/json"
	"time"
)

// ChargingSchedule is a planned charging window. It is produced once per
// planning cycle and never mutated; the controller replaces it wholesale.
type ChargingSchedule struct {
	StartHour   int       `json:"start_hour"`
	EndHour     int       `json:"end_hour"`
	WindowHours int       `json:"window_hours"`
	AvgPrice    float64   `json:"avg_price"`
	RequiredKWh float64   `json:"required_kwh"`
	TargetSoC   float64   `json:"target_soc"`
	CreatedAt   time.Time `json:"created_at"`
}

// Contains reports whether the clock hour falls inside the window,
// handling midnight wraparound (start > end means the window spans it).
func (s ChargingSchedule) Contains(hour int) bool {
	if s.StartHour > s.EndHour {
		return hour >= s.StartHour || hour < s.EndHour
	}
	return s.StartHour <= hour && hour < s.EndHour
}

// Encode serializes the schedule for persistence.
func (s ChargingSchedule) Encode() ([]byte, error) {
	return json.Marshal(s)
}

// DecodeSchedule restores a schedule from its persisted form.
func DecodeSchedule(data []byte) (ChargingSchedule, error) {
	var s ChargingSchedule
	err := json.Unmarshal(data, &s)
	return s, err
}
