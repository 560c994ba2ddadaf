package config

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	toml "github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

// Option is one engine option applied to every new instance.
type Option struct {
	Name  string `json:"name" yaml:"name" toml:"name"`
	Value any    `json:"value" yaml:"value" toml:"value"`
}

// Config holds runtime parameters for the service.
// Zero values mean "unspecified" and will be replaced by defaults in main.
type Config struct {
	Addr              string   `json:"addr" yaml:"addr" toml:"addr"`
	LibmpvPath        string   `json:"libmpv_path" yaml:"libmpv_path" toml:"libmpv_path"`
	MediaDir          string   `json:"media_dir" yaml:"media_dir" toml:"media_dir"`
	PollTimeoutMS     int      `json:"poll_timeout_ms" yaml:"poll_timeout_ms" toml:"poll_timeout_ms"`
	TeardownTimeoutMS int      `json:"teardown_timeout_ms" yaml:"teardown_timeout_ms" toml:"teardown_timeout_ms"`
	EngineLogLevel    string   `json:"engine_log_level" yaml:"engine_log_level" toml:"engine_log_level"`
	LogLevel          string   `json:"log_level" yaml:"log_level" toml:"log_level"`
	LogFormat         string   `json:"log_format" yaml:"log_format" toml:"log_format"`
	CORSOrigins       []string `json:"cors_origins" yaml:"cors_origins" toml:"cors_origins"`
	MaxBodyBytes      int64    `json:"max_body_bytes" yaml:"max_body_bytes" toml:"max_body_bytes"`
	DefaultOptions    []Option `json:"default_options" yaml:"default_options" toml:"default_options"`
}

// PollTimeout returns the bridge wait bound, or 0 when unset.
func (c Config) PollTimeout() time.Duration {
	return time.Duration(c.PollTimeoutMS) * time.Millisecond
}

// TeardownTimeout returns the teardown bound, or 0 when unset.
func (c Config) TeardownTimeout() time.Duration {
	return time.Duration(c.TeardownTimeoutMS) * time.Millisecond
}

// Load reads a configuration file based on its extension.
// Supports: .yaml/.yml, .json, .toml
func Load(path string) (Config, error) {
	var cfg Config
	if path == "" {
		return cfg, fmt.Errorf("empty config path")
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(b, &cfg); err != nil {
			return cfg, err
		}
	case ".json":
		// Numbers stay json.Number so integer options keep their type.
		dec := json.NewDecoder(bytes.NewReader(b))
		dec.UseNumber()
		if err := dec.Decode(&cfg); err != nil {
			return cfg, err
		}
	case ".toml":
		if err := toml.Unmarshal(b, &cfg); err != nil {
			return cfg, err
		}
	default:
		return cfg, fmt.Errorf("unsupported config extension: %s", ext)
	}
	if err := cfg.validate(); err != nil {
		return cfg, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

func (c Config) validate() error {
	if c.PollTimeoutMS < 0 || c.TeardownTimeoutMS < 0 {
		return fmt.Errorf("timeouts must not be negative")
	}
	if c.MaxBodyBytes < 0 {
		return fmt.Errorf("max_body_bytes must not be negative")
	}
	for i, o := range c.DefaultOptions {
		if o.Name == "" {
			return fmt.Errorf("default_options[%d]: missing name", i)
		}
	}
	switch c.LogFormat {
	case "", "json", "console":
	default:
		return fmt.Errorf("unknown log_format %q", c.LogFormat)
	}
	return nil
}
