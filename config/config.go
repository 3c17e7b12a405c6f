package config

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/BurntSushi/toml"
	log "github.com/sirupsen/logrus"
)

const (
	ModeSmux = "smux"
	ModeLog  = "log"
)

// Config holds the overall configuration structure mapping to controller_config.toml
type Config struct {
	Log        LogConfig        `toml:"log"`
	Controller ControllerConfig `toml:"controller"`
	Southbound SouthboundConfig `toml:"southbound"`
	Discovery  DiscoveryConfig  `toml:"discovery"`
	Metrics    MetricsConfig    `toml:"metrics"`
}

type LogConfig struct {
	Dir   string `toml:"dir"`
	Level string `toml:"level"`
}

type ControllerConfig struct {
	Policy    string `toml:"policy"`
	Algorithm string `toml:"algorithm"`
}

type SouthboundConfig struct {
	ListenAddr string `toml:"listen_addr"`
	Workers    int    `toml:"workers"`
	Mode       string `toml:"mode"`
}

type DiscoveryConfig struct {
	Enabled     bool     `toml:"enabled"`
	Endpoints   []string `toml:"endpoints"`
	DialTimeout Duration `toml:"dial_timeout"`
	Prefix      string   `toml:"prefix"`
}

type MetricsConfig struct {
	ListenAddr string `toml:"listen_addr"`
}

// Duration decodes TOML strings like "5s".
type Duration struct {
	time.Duration
}

func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", text, err)
	}
	d.Duration = v
	return nil
}

func Default() *Config {
	return &Config{
		Log: LogConfig{
			Dir:   "./logs",
			Level: "info",
		},
		Controller: ControllerConfig{
			Policy:    "parity",
			Algorithm: "shortest_hop",
		},
		Southbound: SouthboundConfig{
			ListenAddr: ":6653",
			Workers:    64,
			Mode:       ModeSmux,
		},
		Discovery: DiscoveryConfig{
			Endpoints:   []string{"localhost:2379"},
			DialTimeout: Duration{5 * time.Second},
			Prefix:      "/topology/",
		},
		Metrics: MetricsConfig{
			ListenAddr: ":9100",
		},
	}
}

// Load reads the TOML file at path. Keys the file leaves out keep their
// defaults.
func Load(path string) (*Config, error) {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("error getting absolute path for %s: %w", path, err)
	}
	log.Infof("Attempting to load configuration from: %s", absPath)

	cfg := Default()
	md, err := toml.DecodeFile(path, cfg)
	if err != nil {
		return nil, fmt.Errorf("error decoding TOML file %s: %w", path, err)
	}
	for _, key := range md.Undecoded() {
		log.Warnf("unknown configuration key %s", key)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	if _, err := log.ParseLevel(c.Log.Level); err != nil {
		return fmt.Errorf("log.level: %w", err)
	}
	switch c.Southbound.Mode {
	case ModeSmux, ModeLog:
	default:
		return fmt.Errorf("southbound.mode: unknown mode %q", c.Southbound.Mode)
	}
	if c.Southbound.Workers <= 0 {
		log.Warningf("southbound.workers %d not positive, using 64", c.Southbound.Workers)
		c.Southbound.Workers = 64
	}
	if c.Discovery.Enabled && len(c.Discovery.Endpoints) == 0 {
		return fmt.Errorf("discovery.endpoints: required when discovery is enabled")
	}
	return nil
}
