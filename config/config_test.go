package config

import (
	"os"
	"path/filepath"
	"testing"
)

//nolint:gocyclo
func TestLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	data := `mqtt:
  broker: "tcp://localhost:1883"
  client_id: "cli"
  username: "user"
  password: "pass"
  use_tls: false
  topics:
    soc: "home/battery/soc"
planner:
  battery_capacity_kwh: 10
  max_charge_level: 85
  max_charge_price: 3.5
controller:
  stall_abort_ticks: 12
service:
  tick_seconds: 60
metrics:
  prometheus_enabled: true
  prometheus_port: ":9091"
storage:
  state_path: "state.json"
  session_backend: "sqlite"
  session_path: "sessions.db"
`
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load error: %v", err)
	}
	checks := []struct {
		name string
		got  any
		want any
	}{
		{"broker", cfg.MQTT.Broker, "tcp://localhost:1883"},
		{"client_id", cfg.MQTT.ClientID, "cli"},
		{"username", cfg.MQTT.Username, "user"},
		{"use_tls", cfg.MQTT.UseTLS, false},
		{"soc_topic", cfg.MQTT.Topics.SoC, "home/battery/soc"},
		{"capacity_topic_default", cfg.MQTT.Topics.BatteryCapacity, "nightwatt/battery/capacity"},
		{"battery_capacity_kwh", cfg.Planner.BatteryCapacityKWh, 10.0},
		{"max_charge_level", cfg.Planner.MaxChargeLevel, 85.0},
		{"max_charge_price", cfg.Planner.MaxChargePrice, 3.5},
		{"window_start_default", cfg.Planner.WindowStartHour, 22},
		{"stall_abort_ticks", cfg.Controller.StallAbortTicks, 12},
		{"stall_retry_default", cfg.Controller.StallRetryTicks, 5},
		{"tick_seconds", cfg.Service.TickSeconds, 60},
		{"prometheus_enabled", cfg.Metrics.PrometheusEnabled, true},
		{"prometheus_port", cfg.Metrics.PrometheusPort, ":9091"},
		{"session_backend", cfg.Storage.SessionBackend, "sqlite"},
		{"session_path", cfg.Storage.SessionPath, "sessions.db"},
	}
	for _, c := range checks {
		if c.got != c.want {
			t.Errorf("%s mismatch: %v", c.name, c.got)
		}
	}
}

func TestLoadRejectsMissingBroker(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte("planner:\n  min_soc: 20\n"), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	if _, err := Load(path); err == nil {
		t.Fatal("expected validation error for missing broker")
	}
}

func TestLoadRejectsUnknownExtension(t *testing.T) {
	if _, err := Load("config.toml"); err == nil {
		t.Fatal("expected unsupported format error")
	}
}

func TestLoadRejectsInvertedStallTicks(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	data := "mqtt:\n  broker: \"tcp://localhost:1883\"\ncontroller:\n  stall_retry_ticks: 10\n  stall_abort_ticks: 5\n"
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	if _, err := Load(path); err == nil {
		t.Fatal("expected validation error for abort threshold below retry threshold")
	}
}

func TestLoadAlignsControllerFloorWithPlanner(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	data := "mqtt:\n  broker: \"tcp://localhost:1883\"\nplanner:\n  min_soc: 25\n"
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load error: %v", err)
	}
	if cfg.Controller.MinSoC != 25 {
		t.Errorf("controller floor not inherited: %v", cfg.Controller.MinSoC)
	}
}

func TestLoadRejectsDriftingDischargeFloors(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	data := "mqtt:\n  broker: \"tcp://localhost:1883\"\nplanner:\n  min_soc: 25\ncontroller:\n  min_soc: 30\n"
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	if _, err := Load(path); err == nil {
		t.Fatal("expected validation error for mismatched discharge floors")
	}
}

func TestLoadDefaultsPrometheusPort(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	data := "mqtt:\n  broker: \"tcp://localhost:1883\"\nmetrics:\n  prometheus_enabled: true\n"
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load error: %v", err)
	}
	if cfg.Metrics.PrometheusPort != ":2112" {
		t.Errorf("prometheus port default missing: %q", cfg.Metrics.PrometheusPort)
	}
}

func TestLoadRejectsBadSessionBackend(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	data := "mqtt:\n  broker: \"tcp://localhost:1883\"\nstorage:\n  session_backend: \"csv\"\n"
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	if _, err := Load(path); err == nil {
		t.Fatal("expected validation error for unknown backend")
	}
}
