package config

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/knadh/koanf/parsers/json"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"github.com/nightwatt/nightwatt/core/controller"
	"github.com/nightwatt/nightwatt/core/metrics"
	"github.com/nightwatt/nightwatt/core/planner"
	"github.com/nightwatt/nightwatt/infra/mqtt"
)

type Config struct {
	MQTT       mqtt.Config       `json:"mqtt"`
	Planner    planner.Config    `json:"planner"`
	Controller controller.Config `json:"controller"`
	Service    ServiceConfig     `json:"service"`
	Metrics    metrics.Config    `json:"metrics"`
	Storage    StorageConfig     `json:"storage"`
	Sentry     SentryConfig      `json:"sentry"`
}

func Load(path string) (*Config, error) {
	k := koanf.New(".")
	ext := strings.ToLower(filepath.Ext(path))
	var parser koanf.Parser
	switch ext {
	case ".yaml", ".yml":
		parser = yaml.Parser()
	case ".json":
		parser = json.Parser()
	default:
		return nil, fmt.Errorf("unsupported config format: %s", ext)
	}
	if err := k.Load(file.Provider(path), parser); err != nil {
		return nil, err
	}
	// Optional environment overrides
	if err := k.Load(env.Provider("NW_", "__", func(s string) string {
		s = strings.TrimPrefix(strings.ToLower(s), "nw_")
		return strings.ReplaceAll(s, "__", ".")
	}), nil); err != nil {
		return nil, err
	}
	var cfg Config
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "json"}); err != nil {
		return nil, err
	}
	cfg.MQTT.SetDefaults()
	cfg.Planner.SetDefaults()
	// The controller hands the planner's discharge floor to stop commands,
	// so an unset controller floor inherits the planner's.
	if cfg.Controller.MinSoC == 0 {
		cfg.Controller.MinSoC = cfg.Planner.MinSoC
	}
	cfg.Controller.SetDefaults()
	cfg.Service.SetDefaults()
	cfg.Metrics.SetDefaults()
	cfg.Storage.SetDefaults()
	if err := cfg.MQTT.Validate(); err != nil {
		return nil, err
	}
	if err := cfg.Planner.Validate(); err != nil {
		return nil, err
	}
	if err := cfg.Controller.Validate(); err != nil {
		return nil, err
	}
	if cfg.Controller.MinSoC != cfg.Planner.MinSoC {
		return nil, fmt.Errorf("controller min_soc %.1f must match planner min_soc %.1f",
			cfg.Controller.MinSoC, cfg.Planner.MinSoC)
	}
	if err := cfg.Service.Validate(); err != nil {
		return nil, err
	}
	if err := cfg.Storage.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}
