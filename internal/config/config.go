package config

import (
	"fmt"
	"path/filepath"
	"time"
)

// Config is the main application configuration struct.
type Config struct {
	Server  ServerConfig  `mapstructure:"server"`
	Models  ModelsConfig  `mapstructure:"models"`
	Logging LoggingConfig `mapstructure:"logging"`
	Metrics MetricsConfig `mapstructure:"metrics"`
}

type ServerConfig struct {
	Port           string        `mapstructure:"port"`
	ReadTimeout    time.Duration `mapstructure:"read_timeout"`
	WriteTimeout   time.Duration `mapstructure:"write_timeout"`
	MaxUploadBytes int64         `mapstructure:"max_upload_bytes"`
	CORSOrigin     string        `mapstructure:"cors_origin"`
}

// ModelsConfig points at the artifacts loaded once at startup.
// Relative paths are resolved against Dir.
type ModelsConfig struct {
	Dir            string           `mapstructure:"dir"`
	ONNXLibrary    string           `mapstructure:"onnx_library"`
	Regression     ScorerConfig     `mapstructure:"regression"`
	Classifier     ClassifierConfig `mapstructure:"classifier"`
	ScalerX        string           `mapstructure:"scaler_x"`
	ScalerY        string           `mapstructure:"scaler_y"`
	Watch          bool             `mapstructure:"watch"`
	ReloadDebounce time.Duration    `mapstructure:"reload_debounce"`
}

type ScorerConfig struct {
	Path       string `mapstructure:"path"`
	InputName  string `mapstructure:"input_name"`
	OutputName string `mapstructure:"output_name"`
}

type ClassifierConfig struct {
	ScorerConfig `mapstructure:",squash"`
	Metadata     string `mapstructure:"metadata"`
}

type LoggingConfig struct {
	Level      string `mapstructure:"level"`
	Format     string `mapstructure:"format"`
	File       string `mapstructure:"file"`
	MaxSizeMB  int    `mapstructure:"max_size_mb"`
	MaxBackups int    `mapstructure:"max_backups"`
	MaxAgeDays int    `mapstructure:"max_age_days"`
}

type MetricsConfig struct {
	Enabled bool `mapstructure:"enabled"`
}

// Resolve returns p joined to the models directory unless p is absolute or empty.
func (m ModelsConfig) Resolve(p string) string {
	if p == "" || filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(m.Dir, p)
}

func validateConfig(cfg *Config) error {
	if cfg.Server.Port == "" {
		return fmt.Errorf("server.port is required")
	}
	if cfg.Server.MaxUploadBytes <= 0 {
		return fmt.Errorf("server.max_upload_bytes must be positive, got %d", cfg.Server.MaxUploadBytes)
	}
	required := map[string]string{
		"models.regression.path": cfg.Models.Regression.Path,
		"models.classifier.path": cfg.Models.Classifier.Path,
		"models.scaler_x":        cfg.Models.ScalerX,
		"models.scaler_y":        cfg.Models.ScalerY,
	}
	for key, val := range required {
		if val == "" {
			return fmt.Errorf("%s is required", key)
		}
	}
	switch cfg.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level %q is not one of debug, info, warn, error", cfg.Logging.Level)
	}
	return nil
}
