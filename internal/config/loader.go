package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// EnvPrefix namespaces environment overrides, e.g. STEPCOUNT_MODELS_DIR.
const EnvPrefix = "STEPCOUNT"

// Load reads .env, configs/config.yaml and environment overrides, in that order of precedence
// (lowest first), and returns a validated Config.
func Load(paths ...string) (*Config, error) {
	loadEnvFile()

	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	if len(paths) == 0 {
		paths = []string{"./configs", "../../configs", "."}
	}
	for _, p := range paths {
		v.AddConfigPath(p)
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()
	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	// PORT is honoured for platforms that inject it.
	if port := os.Getenv("PORT"); port != "" && os.Getenv(EnvPrefix+"_SERVER_PORT") == "" {
		cfg.Server.Port = port
	}

	if err := validateConfig(&cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", "8080")
	v.SetDefault("server.read_timeout", 15*time.Second)
	v.SetDefault("server.write_timeout", 30*time.Second)
	v.SetDefault("server.max_upload_bytes", int64(10<<20))
	v.SetDefault("server.cors_origin", "*")

	v.SetDefault("models.dir", "models")
	v.SetDefault("models.onnx_library", "")
	v.SetDefault("models.regression.path", "regression.onnx")
	v.SetDefault("models.regression.input_name", "input")
	v.SetDefault("models.regression.output_name", "output")
	v.SetDefault("models.classifier.path", "classifier.onnx")
	v.SetDefault("models.classifier.input_name", "input")
	v.SetDefault("models.classifier.output_name", "output")
	v.SetDefault("models.classifier.metadata", "classifier_metadata.json")
	v.SetDefault("models.scaler_x", "scaler_x.json")
	v.SetDefault("models.scaler_y", "scaler_y.json")
	v.SetDefault("models.watch", false)
	v.SetDefault("models.reload_debounce", 500*time.Millisecond)

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")
	v.SetDefault("logging.file", "")
	v.SetDefault("logging.max_size_mb", 100)
	v.SetDefault("logging.max_backups", 3)
	v.SetDefault("logging.max_age_days", 28)

	v.SetDefault("metrics.enabled", true)
}

func loadEnvFile() {
	for _, path := range []string{".env", "../.env", "../../.env"} {
		if _, err := os.Stat(path); err == nil {
			if err := godotenv.Load(path); err == nil {
				return
			}
		}
	}
}
