package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

// envPrefix namespaces the environment variables read by Load, e.g.
// GEOEXPORT_SERVER_PORT maps to server.port.
const envPrefix = "GEOEXPORT"

// Load reads configuration from environment variables and an optional
// config.yaml in the working directory. Environment variables take
// precedence. Returns a populated Config or an error when loading or
// validation fails.
func Load() (*Config, error) {
	v := viper.New()

	setDefaults(v)

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		// A missing config file is fine; the environment carries the rest.
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := validator.New().Struct(cfg); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.log_level", "info")
	v.SetDefault("server.public_base_url", "http://localhost:8080")

	v.SetDefault("database.url", "")

	// Empty default so AutomaticEnv picks the key up during Unmarshal;
	// validation still requires a real value.
	v.SetDefault("auth.task_token_secret", "")
	v.SetDefault("auth.task_token_lifetime_minutes", 60)

	v.SetDefault("queue.project", "")
	v.SetDefault("queue.location", "")
	v.SetDefault("queue.queue_id", "")

	v.SetDefault("export.dir", "./exports")
	v.SetDefault("export.engine_command", "geoexport-engine")
	v.SetDefault("export.cache_ttl_minutes", 24*60)
	v.SetDefault("export.artifact_ttl_minutes", 24*60)
	v.SetDefault("export.job_retention_minutes", 2*60)
	v.SetDefault("export.sweep_interval_seconds", 600)
	v.SetDefault("export.memory_cache_size", 4096)
	v.SetDefault("export.api_rate_limit", 50)
	v.SetDefault("export.webhook_rate_limit", 10)
}
