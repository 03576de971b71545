package config

import "fmt"

// StorageConfig defines where controller state and the session archive are
// persisted.
type StorageConfig struct {
	// StatePath is the JSON snapshot holding schedules, histories and the
	// charging state across restarts.
	StatePath string `json:"state_path"`
	// SessionBackend selects the session archive type: "jsonl" or "sqlite".
	SessionBackend string `json:"session_backend"`
	// SessionPath is the file location of the session archive.
	SessionPath string `json:"session_path"`
}

// SetDefaults applies sane defaults.
func (c *StorageConfig) SetDefaults() {
	if c.StatePath == "" {
		c.StatePath = "nightwatt_state.json"
	}
	if c.SessionBackend == "" {
		c.SessionBackend = "jsonl"
	}
	if c.SessionPath == "" {
		c.SessionPath = "sessions.log"
	}
}

// Validate checks mandatory fields.
func (c StorageConfig) Validate() error {
	if c.SessionBackend != "jsonl" && c.SessionBackend != "sqlite" {
		return fmt.Errorf("unknown session backend %s", c.SessionBackend)
	}
	if c.StatePath == "" {
		return fmt.Errorf("state_path is required")
	}
	return nil
}
