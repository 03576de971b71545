package config

import "fmt"

// ServiceConfig defines the cadence of the control loop.
type ServiceConfig struct {
	// TickSeconds is the interval of the supervision tick while a schedule
	// is active.
	TickSeconds int `json:"tick_seconds"`
}

// SetDefaults applies the stock cadence.
func (c *ServiceConfig) SetDefaults() {
	if c.TickSeconds == 0 {
		c.TickSeconds = 120
	}
}

// Validate checks the cadence bounds.
func (c ServiceConfig) Validate() error {
	if c.TickSeconds < 1 {
		return fmt.Errorf("tick_seconds must be positive")
	}
	return nil
}
