package model

import (
	"encoding/json"
	"math"
	"time"
)

// ChargingSession records one charge attempt from plan to terminal outcome.
// A session is open while EndTime is zero; the controller keeps at most one
// session open at a time.
type ChargingSession struct {
	ID        string    `json:"id"`
	StartSoC  float64   `json:"start_soc"`
	EndSoC    float64   `json:"end_soc"`
	StartTime time.Time `json:"start_time"`
	EndTime   time.Time `json:"end_time"`
	AvgPrice  float64   `json:"avg_price"`
	Result    string    `json:"result"`
}

// KWhCharged derives the energy stored during the session from the SOC
// delta. Returns zero when the battery did not gain charge.
func (s ChargingSession) KWhCharged(capacityKWh float64) float64 {
	if s.EndSoC <= s.StartSoC {
		return 0
	}
	return math.Round((s.EndSoC-s.StartSoC)/100*capacityKWh*100) / 100
}

// TotalCost derives the session cost from the charged energy and the
// average window price.
func (s ChargingSession) TotalCost(capacityKWh float64) float64 {
	return math.Round(s.KWhCharged(capacityKWh)*s.AvgPrice*10) / 10
}

// Open reports whether the session has started but not finished.
func (s ChargingSession) Open() bool {
	return s.EndTime.IsZero()
}

// Encode serializes the session for persistence.
func (s ChargingSession) Encode() ([]byte, error) {
	return json.Marshal(s)
}

// DecodeSession restores a session from its persisted form.
func DecodeSession(data []byte) (ChargingSession, error) {
	var s ChargingSession
	err := json.Unmarshal(data, &s)
	return s, err
}
