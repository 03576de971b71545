package mqtt

import (
	"crypto/tls"
	"crypto/x509"
	"fmt"
	"os"
)

// Topics maps the sensor and command topics the service listens on and
// publishes to. All telemetry topics are expected to carry retained
// payloads so a restart repopulates the cache immediately.
type Topics struct {
	SoC                 string `json:"soc"`
	BatteryCapacity     string `json:"battery_capacity"`
	SolarToday          string `json:"solar_today"`
	SolarTodayHourly    string `json:"solar_today_hourly"`
	SolarTomorrow       string `json:"solar_tomorrow"`
	SolarTomorrowHourly string `json:"solar_tomorrow_hourly"`
	ActualSolar         string `json:"actual_solar"`
	CurrentPrice        string `json:"current_price"`
	PriceCurve          string `json:"price_curve"`
	DailyConsumption    string `json:"daily_consumption"`
	Sunrise             string `json:"sunrise"`
	InverterMode        string `json:"inverter_mode"`
	Command             string `json:"command"`
	Enable              string `json:"enable"`
	// Notify is where user notifications are published. Empty routes them
	// to the service log instead.
	Notify string `json:"notify"`
}

// Config defines the connection parameters for the Paho MQTT client and
// the inverter command semantics.
type Config struct {
	Broker     string          `json:"broker"`
	ClientID   string          `json:"client_id"`
	Username   string          `json:"username"`
	Password   string          `json:"password"`
	UseTLS     bool            `json:"use_tls"`
	ClientCert string          `json:"client_cert"`
	ClientKey  string          `json:"client_key"`
	CABundle   string          `json:"ca_bundle"`
	QoS        map[string]byte `json:"qos"`
	Topics     Topics          `json:"topics"`

	// StalenessSec bounds the age of a cached sensor reading before it is
	// reported as unavailable.
	StalenessSec int `json:"staleness_sec"`
	// CommandTimeoutSec bounds the wait for the inverter mode readback
	// after a command.
	CommandTimeoutSec int `json:"command_timeout_sec"`

	SelfUseMode     string   `json:"self_use_mode"`
	ForceChargeMode string   `json:"force_charge_mode"`
	ManualModes     []string `json:"manual_modes"`

	MaxRetries int         `json:"max_retries"`
	BackoffMS  int         `json:"backoff_ms"`
	TLSConfig  *tls.Config `json:"-"`
}

// SetDefaults applies the stock topic layout and inverter mode names.
func (c *Config) SetDefaults() {
	if c.ClientID == "" {
		c.ClientID = "nightwatt"
	}
	if c.StalenessSec == 0 {
		c.StalenessSec = 600
	}
	if c.CommandTimeoutSec == 0 {
		c.CommandTimeoutSec = 10
	}
	if c.SelfUseMode == "" {
		c.SelfUseMode = "Self Use"
	}
	if c.ForceChargeMode == "" {
		c.ForceChargeMode = "Force Charge"
	}
	if len(c.ManualModes) == 0 {
		c.ManualModes = []string{"Manual"}
	}
	if c.MaxRetries == 0 {
		c.MaxRetries = 3
	}
	if c.BackoffMS == 0 {
		c.BackoffMS = 100
	}
	t := &c.Topics
	if t.SoC == "" {
		t.SoC = "nightwatt/battery/soc"
	}
	if t.BatteryCapacity == "" {
		t.BatteryCapacity = "nightwatt/battery/capacity"
	}
	if t.SolarToday == "" {
		t.SolarToday = "nightwatt/solar/forecast/today"
	}
	if t.SolarTodayHourly == "" {
		t.SolarTodayHourly = "nightwatt/solar/forecast/today_hourly"
	}
	if t.SolarTomorrow == "" {
		t.SolarTomorrow = "nightwatt/solar/forecast/tomorrow"
	}
	if t.SolarTomorrowHourly == "" {
		t.SolarTomorrowHourly = "nightwatt/solar/forecast/tomorrow_hourly"
	}
	if t.ActualSolar == "" {
		t.ActualSolar = "nightwatt/solar/actual_today"
	}
	if t.CurrentPrice == "" {
		t.CurrentPrice = "nightwatt/price/current"
	}
	if t.PriceCurve == "" {
		t.PriceCurve = "nightwatt/price/curve"
	}
	if t.DailyConsumption == "" {
		t.DailyConsumption = "nightwatt/consumption/today"
	}
	if t.Sunrise == "" {
		t.Sunrise = "nightwatt/sun/sunrise_tomorrow"
	}
	if t.InverterMode == "" {
		t.InverterMode = "nightwatt/inverter/mode"
	}
	if t.Command == "" {
		t.Command = "nightwatt/inverter/command"
	}
	if t.Enable == "" {
		t.Enable = "nightwatt/enable"
	}
}

// Validate checks mandatory connection fields.
func (c Config) Validate() error {
	if c.Broker == "" {
		return fmt.Errorf("mqtt broker is required")
	}
	return nil
}

// LoadTLSConfig loads the TLS configuration from the file paths in the config.
func (c Config) LoadTLSConfig() (*tls.Config, error) {
	if c.TLSConfig != nil {
		return c.TLSConfig, nil
	}
	if c.ClientCert == "" || c.ClientKey == "" || c.CABundle == "" {
		return nil, fmt.Errorf("tls config requires client_cert, client_key and ca_bundle")
	}
	cert, err := tls.LoadX509KeyPair(c.ClientCert, c.ClientKey)
	if err != nil {
		return nil, fmt.Errorf("load cert: %w", err)
	}
	caBytes, err := os.ReadFile(c.CABundle)
	if err != nil {
		return nil, fmt.Errorf("read ca: %w", err)
	}
	pool := x509.NewCertPool()
	pool.AppendCertsFromPEM(caBytes)
	return &tls.Config{Certificates: []tls.Certificate{cert}, RootCAs: pool, MinVersion: tls.VersionTLS12}, nil
}
