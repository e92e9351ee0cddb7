// Package config holds the settings for a vigil test run: target site,
// browser behavior, feature toggles and file locations. Settings load from
// an optional YAML file with environment-variable overrides.
package config

import (
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
)

// Config is the full runtime configuration.
type Config struct {
	// Target and browser behavior
	BaseURL  string  `yaml:"base_url"`
	Headless bool    `yaml:"headless"`
	SlowMo   float64 `yaml:"slow_mo"` // milliseconds between engine operations

	// Feature toggles
	SelfHealing      bool `yaml:"self_healing"`
	AnomalyDetection bool `yaml:"anomaly_detection"`
	AISuggestions    bool `yaml:"ai_suggestions"`

	// AI suggestions
	AIModel string `yaml:"ai_model"`

	// File locations
	SelectorDBPath string `yaml:"selector_db_path"`
	RulesPath      string `yaml:"rules_path"` // empty means built-in defaults
	ReportDir      string `yaml:"report_dir"`

	// Resolution timeouts, milliseconds
	AttemptTimeoutMS int `yaml:"attempt_timeout_ms"`
	SuggestTimeoutMS int `yaml:"suggest_timeout_ms"`
}

// Default returns the configuration used when no file or overrides exist.
func Default() Config {
	return Config{
		BaseURL:          "https://www.toyota.com",
		Headless:         true,
		SelfHealing:      true,
		AnomalyDetection: true,
		AISuggestions:    true,
		AIModel:          "gpt-4o",
		SelectorDBPath:   "test_data/selectors.json",
		ReportDir:        "reports",
		AttemptTimeoutMS: 2000,
		SuggestTimeoutMS: 8000,
	}
}

// Load reads configuration from the given YAML file, then applies
// environment overrides. A missing file is not an error; defaults are used.
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			if !os.IsNotExist(err) {
				return cfg, fmt.Errorf("failed to read config file: %w", err)
			}
		} else if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("failed to parse config file %s: %w", path, err)
		}
	}

	cfg.applyEnv()
	return cfg, nil
}

// applyEnv overrides settings from VIGIL_* environment variables.
func (c *Config) applyEnv() {
	if v := os.Getenv("VIGIL_BASE_URL"); v != "" {
		c.BaseURL = v
	}
	if v := os.Getenv("VIGIL_HEADLESS"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			c.Headless = b
		}
	}
	if v := os.Getenv("VIGIL_SELF_HEALING"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			c.SelfHealing = b
		}
	}
	if v := os.Getenv("VIGIL_AI_SUGGESTIONS"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			c.AISuggestions = b
		}
	}
	if v := os.Getenv("VIGIL_AI_MODEL"); v != "" {
		c.AIModel = v
	}
	if v := os.Getenv("VIGIL_SELECTOR_DB"); v != "" {
		c.SelectorDBPath = v
	}
	if v := os.Getenv("VIGIL_RULES"); v != "" {
		c.RulesPath = v
	}
	if v := os.Getenv("VIGIL_REPORT_DIR"); v != "" {
		c.ReportDir = v
	}
}
