// Package config loads the CLI configuration from a YAML file in the
// data directory, with environment-variable overrides on top.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

const configFile = "config.yaml"

// Duration accepts "3s" style values in YAML, which time.Duration
// itself does not.
type Duration time.Duration

func (d *Duration) UnmarshalYAML(node *yaml.Node) error {
	parsed, err := time.ParseDuration(node.Value)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", node.Value, err)
	}
	*d = Duration(parsed)
	return nil
}

func (d Duration) Std() time.Duration { return time.Duration(d) }

// Config drives the CLI and the notification watcher. The backend
// address saved through `casalink server set` lives in the preferences
// database, not here; Server is only an override for scripted runs.
type Config struct {
	Server  string       `yaml:"server,omitempty"`
	DataDir string       `yaml:"data_dir,omitempty"`
	Timeout Duration     `yaml:"timeout,omitempty"`
	Notify  NotifyConfig `yaml:"notify,omitempty"`
}

type NotifyConfig struct {
	// URLs are Shoutrrr service URLs, e.g. telegram://token@telegram?chats=id
	URLs []string `yaml:"urls,omitempty"`
	// MinSeverity is info, warning or critical.
	MinSeverity  string   `yaml:"min_severity,omitempty"`
	PollInterval Duration `yaml:"poll_interval,omitempty"`
}

func defaultDataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".casalink"
	}
	return filepath.Join(home, ".casalink")
}

// Load reads <data dir>/config.yaml if present and applies env
// overrides. A missing file is not an error; defaults apply.
func Load() (Config, error) {
	cfg := Config{
		DataDir: getEnv("CASALINK_DATA_DIR", defaultDataDir()),
		Timeout: Duration(10 * time.Second),
		Notify: NotifyConfig{
			MinSeverity:  "warning",
			PollInterval: Duration(15 * time.Second),
		},
	}

	data, err := os.ReadFile(filepath.Join(cfg.DataDir, configFile))
	if err == nil {
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse %s: %w", configFile, err)
		}
	} else if !errors.Is(err, os.ErrNotExist) {
		return Config{}, fmt.Errorf("read %s: %w", configFile, err)
	}

	cfg.Server = getEnv("CASALINK_SERVER", cfg.Server)
	cfg.DataDir = getEnv("CASALINK_DATA_DIR", cfg.DataDir)
	if raw, ok := os.LookupEnv("CASALINK_TIMEOUT"); ok {
		d, err := time.ParseDuration(raw)
		if err != nil {
			return Config{}, fmt.Errorf("CASALINK_TIMEOUT: %w", err)
		}
		cfg.Timeout = Duration(d)
	}

	if cfg.Timeout <= 0 {
		cfg.Timeout = Duration(10 * time.Second)
	}
	if cfg.Notify.PollInterval <= 0 {
		cfg.Notify.PollInterval = Duration(15 * time.Second)
	}
	return cfg, nil
}

// DBPath is the preferences database inside the data directory.
func (c Config) DBPath() string {
	return filepath.Join(c.DataDir, "casalink.db")
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}
