// Package config loads the seqnet YAML configuration file.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/FlavioCFOliveira/seqnet/internal/layer"
)

// Config represents the seqnet configuration file (~/.config/seqnet/config.yaml).
// Keys missing from the file keep their Default values.
type Config struct {
	Model    ModelConfig    `yaml:"model"`
	Forecast ForecastConfig `yaml:"forecast"`
	Train    TrainConfig    `yaml:"train"`
	Baseline BaselineConfig `yaml:"baseline"`
	Store    StoreConfig    `yaml:"store"`
	Server   ServerConfig   `yaml:"server"`
	Log      LogConfig      `yaml:"log"`
}

type ModelConfig struct {
	Name       string `yaml:"name"`
	Kind       string `yaml:"kind"`
	InSize     int    `yaml:"in_size"`
	HiddenSize int    `yaml:"hidden_size"`
	OutSize    int    `yaml:"out_size"`
	Activation string `yaml:"activation"`
	Peephole   bool   `yaml:"peephole"`
	Seed       uint64 `yaml:"seed"`
}

type ForecastConfig struct {
	Future  int `yaml:"future"`
	Workers int `yaml:"workers"`
}

type TrainConfig struct {
	Epochs       int     `yaml:"epochs"`
	LearningRate float64 `yaml:"learning_rate"`
	Optimizer    string  `yaml:"optimizer"`
	Loss         string  `yaml:"loss"`
	Lookback     int     `yaml:"lookback"`
	Patience     int     `yaml:"patience"`
	MinDelta     float64 `yaml:"min_delta"`
	Scheduler    string  `yaml:"scheduler"`
	StepSize     int     `yaml:"step_size"`
	Gamma        float64 `yaml:"gamma"`
	LogCSV       string  `yaml:"log_csv"`
}

type BaselineConfig struct {
	Method string  `yaml:"method"`
	Window int     `yaml:"window"`
	Alpha  float64 `yaml:"alpha"`
	Split  float64 `yaml:"split"`
}

type StoreConfig struct {
	Kind string `yaml:"kind"`
	Path string `yaml:"path"`
}

type ServerConfig struct {
	Address     string        `yaml:"address"`
	ReadTimeout time.Duration `yaml:"read_timeout"`
}

type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Model: ModelConfig{
			Name:       "default",
			Kind:       "lstm",
			InSize:     1,
			HiddenSize: 16,
			OutSize:    1,
			Activation: "linear",
			Seed:       1,
		},
		Forecast: ForecastConfig{Future: 0},
		Train: TrainConfig{
			Epochs:       50,
			LearningRate: 0.01,
			Optimizer:    "adam",
			Loss:         "mse",
			Lookback:     16,
			Patience:     10,
			MinDelta:     1e-6,
			StepSize:     10,
			Gamma:        0.5,
		},
		Baseline: BaselineConfig{Method: "naive", Window: 3, Alpha: 0.5, Split: 0.8},
		Store:    StoreConfig{Kind: "sqlite", Path: "seqnet.db"},
		Server:   ServerConfig{Address: "127.0.0.1:8080", ReadTimeout: 30 * time.Second},
		Log:      LogConfig{Level: "info", Format: "text"},
	}
}

// DefaultPath returns the per-user config file location, or "" if the
// config directory cannot be determined.
func DefaultPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return ""
	}
	return filepath.Join(dir, "seqnet", "config.yaml")
}

// Load reads the config file at path over the defaults. A missing file is
// not an error.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return cfg, nil
		}
		return cfg, err
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse %s: %w", path, err)
	}
	return cfg, nil
}

// Validate reports the first setting that cannot be used.
func (c Config) Validate() error {
	if _, err := layer.ParseKind(c.Model.Kind); err != nil {
		return fmt.Errorf("model.kind: %w", err)
	}
	if c.Model.InSize <= 0 || c.Model.HiddenSize <= 0 || c.Model.OutSize <= 0 {
		return fmt.Errorf("model sizes must be positive (in=%d hidden=%d out=%d)", c.Model.InSize, c.Model.HiddenSize, c.Model.OutSize)
	}
	if c.Model.Name == "" {
		return errors.New("model.name is required")
	}
	if c.Forecast.Future < 0 {
		return fmt.Errorf("forecast.future must be >= 0, got %d", c.Forecast.Future)
	}
	if c.Train.Epochs < 0 || c.Train.Lookback <= 0 {
		return fmt.Errorf("train.epochs must be >= 0 and train.lookback > 0")
	}
	if c.Train.LearningRate <= 0 {
		return fmt.Errorf("train.learning_rate must be positive, got %v", c.Train.LearningRate)
	}
	if c.Baseline.Split <= 0 || c.Baseline.Split >= 1 {
		return fmt.Errorf("baseline.split must be in (0, 1), got %v", c.Baseline.Split)
	}
	switch c.Store.Kind {
	case "memory":
	case "sqlite", "file":
		if c.Store.Path == "" {
			return fmt.Errorf("store.path is required for %s", c.Store.Kind)
		}
	default:
		return fmt.Errorf("store.kind %q not supported", c.Store.Kind)
	}
	switch c.Log.Format {
	case "", "text", "json":
	default:
		return fmt.Errorf("log.format %q not supported", c.Log.Format)
	}
	return nil
}
