// Package mqtt connects the service to the sensor host: telemetry arrives
// on retained topics, inverter commands go out on a command topic with the
// mode topic serving as readback confirmation.
package mqtt

import (
	"strconv"
	"strings"
	"sync"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"

	"github.com/nightwatt/nightwatt/infra/logger"
)

type pahoClient interface {
	IsConnected() bool
	Connect() paho.Token
	Disconnect(quiesce uint)
	Publish(topic string, qos byte, retained bool, payload interface{}) paho.Token
	Subscribe(topic string, qos byte, callback paho.MessageHandler) paho.Token
}

var newMQTTClient = func(opts *paho.ClientOptions) pahoClient {
	return paho.NewClient(opts)
}

type reading struct {
	payload []byte
	at      time.Time
}

// Client wraps the Paho client with a freshness-tracked cache of the last
// payload per subscribed topic.
type Client struct {
	raw pahoClient
	cfg Config
	log logger.Logger

	mu          sync.Mutex
	readings    map[string]reading
	modeWaiters []chan string

	now func() time.Time
}

// NewClient connects to the broker and subscribes to all telemetry topics.
func NewClient(cfg Config) (*Client, error) {
	opts, err := NewClientOptions(cfg)
	if err != nil {
		return nil, err
	}

	log := logger.New("mqtt_client")
	c := &Client{
		cfg:      cfg,
		log:      log,
		readings: make(map[string]reading),
		now:      time.Now,
	}

	opts.OnConnect = func(cli paho.Client) {
		log.Infof("MQTT connected")
		c.subscribeAll(cli)
	}
	opts.OnConnectionLost = func(_ paho.Client, err error) {
		log.Errorf("connection lost: %v", err)
	}
	opts.OnReconnecting = func(_ paho.Client, _ *paho.ClientOptions) {
		log.Warnf("reconnecting to MQTT broker")
	}

	raw := newMQTTClient(opts)
	if token := raw.Connect(); token.Wait() && token.Error() != nil {
		return nil, token.Error()
	}
	c.raw = raw
	return c, nil
}

// NewClientOptions builds mqtt client options from Config.
func NewClientOptions(cfg Config) (*paho.ClientOptions, error) {
	opts := paho.NewClientOptions().AddBroker(cfg.Broker).SetClientID(cfg.ClientID)
	opts.AutoReconnect = true
	if cfg.Username != "" {
		opts.SetUsername(cfg.Username)
	}
	if cfg.Password != "" {
		opts.SetPassword(cfg.Password)
	}
	if cfg.UseTLS {
		tlsCfg, err := cfg.LoadTLSConfig()
		if err != nil {
			return nil, err
		}
		opts.SetTLSConfig(tlsCfg)
	}
	return opts, nil
}

func (c *Client) telemetryTopics() []string {
	t := c.cfg.Topics
	return []string{
		t.SoC, t.BatteryCapacity,
		t.SolarToday, t.SolarTodayHourly, t.SolarTomorrow, t.SolarTomorrowHourly,
		t.ActualSolar, t.CurrentPrice, t.PriceCurve, t.DailyConsumption,
		t.Sunrise, t.InverterMode, t.Enable,
	}
}

type subscriber interface {
	Subscribe(topic string, qos byte, callback paho.MessageHandler) paho.Token
}

func (c *Client) subscribeAll(cli subscriber) {
	qos := byte(0)
	if q, ok := c.cfg.QoS["telemetry"]; ok {
		qos = q
	}
	for _, topic := range c.telemetryTopics() {
		if topic == "" {
			continue
		}
		if token := cli.Subscribe(topic, qos, c.onMessage); token.Wait() && token.Error() != nil {
			c.log.Errorf("subscribe %s: %v", topic, token.Error())
		}
	}
}

func (c *Client) onMessage(_ paho.Client, msg paho.Message) {
	payload := append([]byte(nil), msg.Payload()...)
	c.mu.Lock()
	c.readings[msg.Topic()] = reading{payload: payload, at: c.now()}
	var waiters []chan string
	if msg.Topic() == c.cfg.Topics.InverterMode {
		waiters = append(waiters, c.modeWaiters...)
	}
	c.mu.Unlock()
	for _, ch := range waiters {
		select {
		case ch <- strings.TrimSpace(string(payload)):
		default:
		}
	}
}

// Reading returns the raw payload for a topic, ok=false when the cache has
// no entry or the entry is older than the staleness bound.
func (c *Client) Reading(topic string) ([]byte, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	r, ok := c.readings[topic]
	if !ok {
		return nil, false
	}
	if c.cfg.StalenessSec > 0 && c.now().Sub(r.at) > time.Duration(c.cfg.StalenessSec)*time.Second {
		return nil, false
	}
	return r.payload, true
}

// Float parses a topic's payload as a number.
func (c *Client) Float(topic string) (float64, bool) {
	payload, ok := c.Reading(topic)
	if !ok {
		return 0, false
	}
	v, err := strconv.ParseFloat(strings.TrimSpace(string(payload)), 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

// Text returns a topic's payload as a trimmed string.
func (c *Client) Text(topic string) (string, bool) {
	payload, ok := c.Reading(topic)
	if !ok {
		return "", false
	}
	return strings.TrimSpace(string(payload)), true
}

// LastText returns the most recent payload for a topic regardless of age.
// Switch-like retained topics update rarely and must not expire.
func (c *Client) LastText(topic string) (string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	r, ok := c.readings[topic]
	if !ok {
		return "", false
	}
	return strings.TrimSpace(string(r.payload)), true
}

// Publish sends a payload with bounded retry and exponential backoff.
func (c *Client) Publish(topic string, payload []byte) error {
	qos := byte(0)
	if q, ok := c.cfg.QoS["command"]; ok {
		qos = q
	}
	backoff := time.Duration(c.cfg.BackoffMS) * time.Millisecond
	if backoff <= 0 {
		backoff = 100 * time.Millisecond
	}
	retries := c.cfg.MaxRetries
	if retries <= 0 {
		retries = 3
	}
	var publishErr error
	for attempt := 0; attempt <= retries; attempt++ {
		token := c.raw.Publish(topic, qos, false, payload)
		token.Wait()
		publishErr = token.Error()
		if publishErr == nil {
			return nil
		}
		c.log.Errorf("publish attempt %d failed: %v", attempt+1, publishErr)
		time.Sleep(backoff * time.Duration(1<<attempt))
	}
	return publishErr
}

// WaitForMode blocks until the inverter mode topic reports the expected
// mode or the timeout expires.
func (c *Client) WaitForMode(expected string, timeout time.Duration) bool {
	if mode, ok := c.Text(c.cfg.Topics.InverterMode); ok && mode == expected {
		return true
	}

	ch := make(chan string, 1)
	c.mu.Lock()
	c.modeWaiters = append(c.modeWaiters, ch)
	c.mu.Unlock()
	defer func() {
		c.mu.Lock()
		for i, w := range c.modeWaiters {
			if w == ch {
				c.modeWaiters = append(c.modeWaiters[:i], c.modeWaiters[i+1:]...)
				break
			}
		}
		c.mu.Unlock()
	}()

	timer := time.NewTimer(timeout)
	defer timer.Stop()
	for {
		select {
		case mode := <-ch:
			if mode == expected {
				return true
			}
		case <-timer.C:
			return false
		}
	}
}

// Disconnect gracefully closes the MQTT connection.
func (c *Client) Disconnect() {
	if c.raw != nil && c.raw.IsConnected() {
		c.raw.Disconnect(250)
	}
}
