package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	DefaultDt                 = 1.0 / 60.0
	DefaultDuration           = 5.0
	DefaultVelocityIterations = 8
	DefaultPositionIterations = 3
	DefaultAttempts           = 20
	DefaultInitialDelay       = 10 * time.Millisecond
	DefaultMaxDelay           = 500 * time.Millisecond
	DefaultSpawnBatch         = 4
)

const (
	BackendBox2D  = "box2d"
	BackendMemory = "memory"
)

var ErrInvalidConfig = errors.New("config: invalid configuration")

type Config struct {
	LogLevel    string          `yaml:"log_level"`
	LogFormat   string          `yaml:"log_format"`
	DataDir     string          `yaml:"data_dir"`
	Backend     string          `yaml:"backend"`
	MetricsAddr string          `yaml:"metrics_addr"`
	World       WorldConfig     `yaml:"world"`
	Readiness   ReadinessConfig `yaml:"readiness"`
}

type WorldConfig struct {
	Gravity            [2]float64 `yaml:"gravity"`
	Dt                 float64    `yaml:"dt"`
	Duration           float64    `yaml:"duration"`
	VelocityIterations int        `yaml:"velocity_iterations"`
	PositionIterations int        `yaml:"position_iterations"`
}

// ReadinessConfig controls how long hosts wait for scene bodies before
// initializing joints.
type ReadinessConfig struct {
	Attempts     int           `yaml:"attempts"`
	InitialDelay time.Duration `yaml:"initial_delay"`
	MaxDelay     time.Duration `yaml:"max_delay"`
	SpawnBatch   int           `yaml:"spawn_batch"`
}

func DefaultConfig() *Config {
	return &Config{
		LogLevel:  "info",
		LogFormat: "text",
		DataDir:   "./runs",
		Backend:   BackendBox2D,
		World: WorldConfig{
			Gravity:            [2]float64{0, -9.81},
			Dt:                 DefaultDt,
			Duration:           DefaultDuration,
			VelocityIterations: DefaultVelocityIterations,
			PositionIterations: DefaultPositionIterations,
		},
		Readiness: ReadinessConfig{
			Attempts:     DefaultAttempts,
			InitialDelay: DefaultInitialDelay,
			MaxDelay:     DefaultMaxDelay,
			SpawnBatch:   DefaultSpawnBatch,
		},
	}
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

func (c *Config) Validate() error {
	switch c.Backend {
	case BackendBox2D, BackendMemory:
	default:
		return fmt.Errorf("%w: unknown backend %q", ErrInvalidConfig, c.Backend)
	}
	if c.World.Dt <= 0 {
		return fmt.Errorf("%w: dt must be positive, got %v", ErrInvalidConfig, c.World.Dt)
	}
	if c.World.Duration < 0 {
		return fmt.Errorf("%w: duration must not be negative, got %v", ErrInvalidConfig, c.World.Duration)
	}
	if c.Readiness.Attempts < 1 {
		return fmt.Errorf("%w: readiness attempts must be at least 1", ErrInvalidConfig)
	}
	if c.Readiness.MaxDelay < c.Readiness.InitialDelay {
		return fmt.Errorf("%w: readiness max_delay is below initial_delay", ErrInvalidConfig)
	}
	return nil
}

// ApplyPreset overwrites the world section with the named preset.
func (c *Config) ApplyPreset(name string) error {
	p := GetPreset(name)
	if p == nil {
		return fmt.Errorf("%w: unknown preset %q", ErrInvalidConfig, name)
	}
	c.World = *p
	return nil
}
