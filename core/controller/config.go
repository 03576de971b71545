package controller

import "fmt"

// Session result tags. Free text for display, but stable values so
// analytics can distinguish outcomes.
const (
	ResultNoChargingNeeded = "No charging needed"
	ResultAlreadyAtTarget  = "Already at target"
	ResultTargetReached    = "Target reached"
	ResultWindowEnded      = "Window ended"
	ResultStalled          = "Charging stalled"
	ResultCommandFailed    = "Inverter command failed"
	ResultMorningSafety    = "Morning safety stop"
	ResultDisabled         = "Disabled"
)

// Config carries the supervision parameters of the state machine.
type Config struct {
	MinSoC float64 `json:"min_soc"` // discharge floor handed to stop commands

	// StallRetryTicks is the number of ticks without SOC movement before
	// the start command is re-issued once. StallAbortTicks aborts the
	// session; it must exceed StallRetryTicks.
	StallRetryTicks int `json:"stall_retry_ticks"`
	StallAbortTicks int `json:"stall_abort_ticks"`

	// StartFailureMaxRetries bounds consecutive failed start commands
	// while SCHEDULED before the plan is abandoned.
	StartFailureMaxRetries int `json:"start_failure_max_retries"`

	ChargeHistoryDays  int `json:"charge_history_days"`
	CostHistoryEntries int `json:"cost_history_entries"`
}

// SetDefaults applies the stock supervision parameters.
func (c *Config) SetDefaults() {
	if c.MinSoC == 0 {
		c.MinSoC = 20
	}
	if c.StallRetryTicks == 0 {
		c.StallRetryTicks = 5
	}
	if c.StallAbortTicks == 0 {
		c.StallAbortTicks = 10
	}
	if c.StartFailureMaxRetries == 0 {
		c.StartFailureMaxRetries = 3
	}
	if c.ChargeHistoryDays == 0 {
		c.ChargeHistoryDays = 7
	}
	if c.CostHistoryEntries == 0 {
		c.CostHistoryEntries = 31
	}
}

// Validate rejects inconsistent supervision parameters. The state machine
// assumes a validated config and does not re-check it per tick.
func (c Config) Validate() error {
	if c.MinSoC < 0 || c.MinSoC > 100 {
		return fmt.Errorf("min_soc must lie within 0-100")
	}
	if c.StallRetryTicks <= 0 {
		return fmt.Errorf("stall_retry_ticks must be positive")
	}
	if c.StallAbortTicks <= c.StallRetryTicks {
		return fmt.Errorf("stall_abort_ticks %d must exceed stall_retry_ticks %d",
			c.StallAbortTicks, c.StallRetryTicks)
	}
	if c.StartFailureMaxRetries <= 0 {
		return fmt.Errorf("start_failure_max_retries must be positive")
	}
	if c.ChargeHistoryDays <= 0 || c.CostHistoryEntries <= 0 {
		return fmt.Errorf("history lengths must be positive")
	}
	return nil
}
