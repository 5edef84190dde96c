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

	"github.com/fieldline/dispatch/core/metrics"
	"github.com/fieldline/dispatch/infra/api"
	"github.com/fieldline/dispatch/infra/feed"
)

type Config struct {
	API          api.Config         `json:"api"`
	Poll         PollConfig         `json:"poll"`
	Map          MapConfig          `json:"map"`
	Feed         feed.Config        `json:"feed"`
	Metrics      metrics.Config     `json:"metrics"`
	Capabilities CapabilitiesConfig `json:"capabilities"`
	Sentry       SentryConfig       `json:"sentry"`
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
	if err := k.Load(env.Provider("FL_", "__", func(s string) string {
		s = strings.TrimPrefix(strings.ToLower(s), "fl_")
		return strings.ReplaceAll(s, "__", ".")
	}), nil); err != nil {
		return nil, err
	}
	var cfg Config
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "json"}); err != nil {
		return nil, err
	}
	cfg.Poll.SetDefaults()
	cfg.Map.SetDefaults()
	cfg.Feed.SetDefaults()
	cfg.Capabilities.SetDefaults()
	if err := cfg.API.Validate(); err != nil {
		return nil, err
	}
	if err := cfg.Poll.Validate(); err != nil {
		return nil, err
	}
	if err := cfg.Map.Validate(); err != nil {
		return nil, err
	}
	if err := cfg.Feed.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}
