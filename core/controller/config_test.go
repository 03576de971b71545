package controller

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestConfigValidate(t *testing.T) {
	valid := Config{}
	valid.SetDefaults()

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"defaults pass", func(*Config) {}, false},
		{"negative floor", func(c *Config) { c.MinSoC = -1 }, true},
		{"floor above full", func(c *Config) { c.MinSoC = 101 }, true},
		{"zero retry ticks", func(c *Config) { c.StallRetryTicks = 0 }, true},
		{"abort below retry", func(c *Config) { c.StallRetryTicks = 10; c.StallAbortTicks = 5 }, true},
		{"abort equals retry", func(c *Config) { c.StallRetryTicks = 5; c.StallAbortTicks = 5 }, true},
		{"zero start retries", func(c *Config) { c.StartFailureMaxRetries = 0 }, true},
		{"zero history days", func(c *Config) { c.ChargeHistoryDays = 0 }, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
