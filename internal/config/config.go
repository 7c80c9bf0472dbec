package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Tiers         []TierConfig        `yaml:"tiers"`
	Policy        PolicyConfig        `yaml:"policy"`
	Observability ObservabilityConfig `yaml:"observability"`
}

// TierConfig describes one storage pool. Order in the list is speed
// order: the first entry is the fastest tier.
type TierConfig struct {
	ID           string `yaml:"id"`
	Dir          string `yaml:"dir"`
	WatermarkPct int    `yaml:"watermark_pct"`
}

type PolicyConfig struct {
	// Interval is the cadence of periodic passes. Zero means one-shot.
	Interval Duration `yaml:"interval"`
}

type ObservabilityConfig struct {
	Metrics MetricsConfig `yaml:"metrics"`
	Health  HealthConfig  `yaml:"health"`
	Logging LoggingConfig `yaml:"logging"`
}

type MetricsConfig struct {
	Enabled bool   `yaml:"enabled"`
	Listen  string `yaml:"listen"`
	Path    string `yaml:"path"`
}

type HealthConfig struct {
	Enabled       bool   `yaml:"enabled"`
	Listen        string `yaml:"listen"`
	LivenessPath  string `yaml:"liveness_path"`
	ReadinessPath string `yaml:"readiness_path"`
}

type LoggingConfig struct {
	// Level is one of silent, normal, debug.
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return cfg, nil
}

func (c *Config) Validate() error {
	if len(c.Tiers) < 2 {
		return fmt.Errorf("at least two tiers must be configured, got %d", len(c.Tiers))
	}

	dirs := make(map[string]int)
	for i, tc := range c.Tiers {
		if tc.ID == "" {
			return fmt.Errorf("tiers[%d].id is required", i)
		}
		if tc.Dir == "" {
			return fmt.Errorf("tiers[%d] (%s): dir is required", i, tc.ID)
		}
		info, err := os.Stat(tc.Dir)
		if err != nil {
			return fmt.Errorf("tiers[%d] (%s): dir %s: %w", i, tc.ID, tc.Dir, err)
		}
		if !info.IsDir() {
			return fmt.Errorf("tiers[%d] (%s): %s is not a directory", i, tc.ID, tc.Dir)
		}
		if prev, ok := dirs[tc.Dir]; ok {
			return fmt.Errorf("tiers[%d] (%s): dir %s already used by tiers[%d]", i, tc.ID, tc.Dir, prev)
		}
		dirs[tc.Dir] = i
		if tc.WatermarkPct < 0 || tc.WatermarkPct > 100 {
			return fmt.Errorf("tiers[%d] (%s): watermark_pct must be in [0,100], got %d", i, tc.ID, tc.WatermarkPct)
		}
	}

	switch c.Observability.Logging.Level {
	case "silent", "normal", "debug":
	default:
		return fmt.Errorf("observability.logging.level must be silent, normal, or debug, got %q", c.Observability.Logging.Level)
	}

	return nil
}

// Duration wraps time.Duration for YAML unmarshaling of strings like "5m", "24h".
type Duration time.Duration

func (d Duration) Duration() time.Duration {
	return time.Duration(d)
}

func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", s, err)
	}
	*d = Duration(parsed)
	return nil
}

func (d Duration) MarshalYAML() (interface{}, error) {
	return time.Duration(d).String(), nil
}
