package coresched

import (
	"os"
	"runtime"

	yaml "github.com/goccy/go-yaml"
	"github.com/rs/zerolog"
)

// Config mirrors config.yml.
type Config struct {
	CPUs        int    `yaml:"cpus"`         // logical CPU count (default: GOMAXPROCS)
	TickMS      int    `yaml:"tick_ms"`      // timer interrupt period (default: 1)
	LogLevel    string `yaml:"log_level"`    // zerolog level (default: "info")
	EventBuffer int    `yaml:"event_buffer"` // scheduler event stream capacity (default: 256)
}

// If the config file is not found, we use default values.
func defaultConfig() Config {
	return Config{
		CPUs:        runtime.GOMAXPROCS(0),
		TickMS:      1,
		LogLevel:    "info",
		EventBuffer: 256,
	}
}

// Load reads YAML and overrides defaults; empty path = defaults only.
func Load(path string) Config {
	cfg := defaultConfig()

	if path == "" {
		return cfg
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg
	}

	_ = yaml.Unmarshal(data, &cfg)

	// sanity clamps
	if cfg.CPUs <= 0 {
		cfg.CPUs = runtime.GOMAXPROCS(0)
	}
	if cfg.TickMS <= 0 {
		cfg.TickMS = 1
	}
	if cfg.EventBuffer <= 0 {
		cfg.EventBuffer = 256
	}
	if _, err := zerolog.ParseLevel(cfg.LogLevel); err != nil {
		cfg.LogLevel = "info"
	}

	return cfg
}
