// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"regexp"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// EnvConfig names the environment variable [Load] reads.
const EnvConfig = "CHECKER_CONFIG"

// Config is the master configuration of a checker binary.
type Config struct {
	// Control configures the inherited control channel.
	Control ControlConfig `yaml:"control"`

	// Network configures the checker's outbound connections to the
	// service under test.
	Network NetworkConfig `yaml:"network"`

	// Local configures runs without a checker runner.
	Local LocalConfig `yaml:"local"`

	// Log configures the checker's logger.
	Log LogConfig `yaml:"log"`
}

// ControlConfig locates the inherited control streams.
type ControlConfig struct {
	// InboundFD is the descriptor replies are read from.
	// Default: 3
	InboundFD int `yaml:"inbound_fd"`

	// OutboundFD is the descriptor requests are written to.
	// Default: 4
	OutboundFD int `yaml:"outbound_fd"`
}

// NetworkConfig configures connections to the service under test.
type NetworkConfig struct {
	// Timeout bounds dialing and whole HTTP exchanges, as a Go
	// duration string.
	// Default: 10s
	Timeout string `yaml:"timeout"`
}

// LocalConfig configures local mode, used when no runner started the
// checker.
type LocalConfig struct {
	// StateFile is where STORE data persists between local runs.
	// Default: _state.cbor
	StateFile string `yaml:"state_file"`

	// Secret authenticates locally generated flags.
	// Default: TOPSECRET
	Secret string `yaml:"secret"`

	// Service is the service ID bound into locally generated flags.
	// Default: 42
	Service uint8 `yaml:"service"`
}

// LogConfig configures logging.
type LogConfig struct {
	// Level is the minimum level: trace, debug, info, warn, or error.
	// Default: info
	Level string `yaml:"level"`
}

// Default returns the configuration a checker runs with when no file
// is given.
func Default() *Config {
	return &Config{
		Control: ControlConfig{
			InboundFD:  3,
			OutboundFD: 4,
		},
		Network: NetworkConfig{
			Timeout: "10s",
		},
		Local: LocalConfig{
			StateFile: "_state.cbor",
			Secret:    "TOPSECRET",
			Service:   42,
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

// Load loads configuration from the file named by CHECKER_CONFIG, or
// returns [Default] when the variable is unset.
func Load() (*Config, error) {
	configPath := os.Getenv(EnvConfig)
	if configPath == "" {
		return Default(), nil
	}
	return LoadFile(configPath)
}

// LoadFile loads configuration from path. Fields absent from the file
// keep their [Default] values.
func LoadFile(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config %s: %w", path, err)
	}

	cfg.Local.StateFile = expandVars(cfg.Local.StateFile, map[string]string{
		"HOME": os.Getenv("HOME"),
	})

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

var varPattern = regexp.MustCompile(`\$\{([^}:]+)(?::-([^}]*))?\}`)

// expandVars expands ${VAR} and ${VAR:-default} patterns, consulting
// vars first and then the environment.
func expandVars(s string, vars map[string]string) string {
	return varPattern.ReplaceAllStringFunc(s, func(match string) string {
		parts := varPattern.FindStringSubmatch(match)
		if len(parts) < 2 {
			return match
		}

		name := parts[1]
		defaultValue := ""
		if len(parts) >= 3 {
			defaultValue = parts[2]
		}

		if value, ok := vars[name]; ok && value != "" {
			return value
		}
		if value := os.Getenv(name); value != "" {
			return value
		}
		return defaultValue
	})
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	var errs []error

	// 0-2 are stdio; the control channel is always above them.
	if c.Control.InboundFD < 3 {
		errs = append(errs, fmt.Errorf("control.inbound_fd must be >= 3, got %d", c.Control.InboundFD))
	}
	if c.Control.OutboundFD < 3 {
		errs = append(errs, fmt.Errorf("control.outbound_fd must be >= 3, got %d", c.Control.OutboundFD))
	}
	if c.Control.InboundFD == c.Control.OutboundFD {
		errs = append(errs, fmt.Errorf("control.inbound_fd and control.outbound_fd must differ"))
	}

	if _, err := c.NetworkTimeout(); err != nil {
		errs = append(errs, err)
	}

	if c.Local.StateFile == "" {
		errs = append(errs, fmt.Errorf("local.state_file is required"))
	}

	if _, err := c.LogLevel(); err != nil {
		errs = append(errs, err)
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}
	return nil
}

// NetworkTimeout parses network.timeout.
func (c *Config) NetworkTimeout() (time.Duration, error) {
	timeout, err := time.ParseDuration(c.Network.Timeout)
	if err != nil {
		return 0, fmt.Errorf("network.timeout: %w", err)
	}
	if timeout <= 0 {
		return 0, fmt.Errorf("network.timeout must be positive, got %s", c.Network.Timeout)
	}
	return timeout, nil
}

// LevelTrace is the slog level used for log.level "trace". It equals
// control.SlogLevelTrace.
const LevelTrace = slog.Level(-8)

// LogLevel parses log.level.
func (c *Config) LogLevel() (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(c.Log.Level)) {
	case "trace":
		return LevelTrace, nil
	case "debug":
		return slog.LevelDebug, nil
	case "info", "":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("log.level must be one of trace, debug, info, warn, error; got %q", c.Log.Level)
	}
}
