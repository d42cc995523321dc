package config

// #region imports
import (
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
)

// #endregion

// #region types

// AIMode selects how an accepted classifier verdict is merged with the rule
// category.
type AIMode string

const (
	AIModePrimary AIMode = "primary"
	AIModeAssist  AIMode = "assist"
)

// AIConfig is the per-user AI pilot configuration.
type AIConfig struct {
	Enabled       bool    `yaml:"enabled"`
	Mode          AIMode  `yaml:"mode"`
	Endpoint      string  `yaml:"endpoint"`
	MinConfidence float64 `yaml:"min_confidence"`
	TimeoutMs     int     `yaml:"timeout_ms"`
	DailyBudget   int     `yaml:"daily_budget"`
	CacheTTLMs    int     `yaml:"cache_ttl_ms"`
	ShadowEnabled bool    `yaml:"shadow_enabled"`
}

// Config is the full process configuration.
type Config struct {
	Sensitivity string   `yaml:"sensitivity"`
	SafeHosts   []string `yaml:"safe_hosts"`
	AI          AIConfig `yaml:"ai"`
}

// #endregion types

// #region defaults

// Default returns the configuration used when no file is present.
func Default() Config {
	return Config{
		Sensitivity: "balanced",
		SafeHosts:   nil,
		AI: AIConfig{
			Enabled:       false,
			Mode:          AIModeAssist,
			MinConfidence: 0.6,
			TimeoutMs:     500,
			DailyBudget:   50,
			CacheTTLMs:    60000,
			ShadowEnabled: true,
		},
	}
}

// #endregion defaults

// #region load

// Load reads a YAML config file, overlays environment overrides, and
// validates. A missing file is not an error: defaults plus env apply.
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err == nil {
			if err := yaml.Unmarshal(data, &cfg); err != nil {
				return Config{}, fmt.Errorf("parse config %s: %w", path, err)
			}
		} else if !os.IsNotExist(err) {
			return Config{}, fmt.Errorf("read config %s: %w", path, err)
		}
	}

	cfg.applyEnv()

	if cfg.AI.Mode != AIModePrimary && cfg.AI.Mode != AIModeAssist {
		cfg.AI.Mode = AIModeAssist
	}
	if cfg.AI.MinConfidence < 0 || cfg.AI.MinConfidence > 1 {
		cfg.AI.MinConfidence = Default().AI.MinConfidence
	}
	return cfg, nil
}

// #endregion load

// #region env

// applyEnv overlays SENTINEL_* environment variables on the config.
func (c *Config) applyEnv() {
	if v := os.Getenv("SENTINEL_SENSITIVITY"); v != "" {
		c.Sensitivity = v
	}
	if v := os.Getenv("SENTINEL_AI_ENABLED"); v != "" {
		c.AI.Enabled = v == "true" || v == "1"
	}
	if v := os.Getenv("SENTINEL_AI_MODE"); v != "" {
		c.AI.Mode = AIMode(v)
	}
	if v := os.Getenv("SENTINEL_CLASSIFIER_URL"); v != "" {
		c.AI.Endpoint = v
	}
	if v := os.Getenv("SENTINEL_AI_MIN_CONFIDENCE"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			c.AI.MinConfidence = f
		}
	}
	if v := os.Getenv("SENTINEL_AI_DAILY_BUDGET"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.AI.DailyBudget = n
		}
	}
}

// #endregion env
