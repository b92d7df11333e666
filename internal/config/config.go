// Package config loads and validates application configuration from
// environment variables and optional config files.
package config

// Config holds all application configuration, organized into logical groups.
type Config struct {
	Server   ServerConfig   `mapstructure:"server" validate:"required"`
	Database DatabaseConfig `mapstructure:"database"`
	Auth     AuthConfig     `mapstructure:"auth" validate:"required"`
	Queue    QueueConfig    `mapstructure:"queue"`
	Export   ExportConfig   `mapstructure:"export" validate:"required"`
}

// ServerConfig contains server-related settings.
type ServerConfig struct {
	Port     int    `mapstructure:"port" validate:"required,gt=0,lt=65536"`
	LogLevel string `mapstructure:"log_level" validate:"required,oneof=debug info warn error"`

	// PublicBaseURL is the externally reachable base URL of this service,
	// used to build webhook callback and download URLs.
	PublicBaseURL string `mapstructure:"public_base_url" validate:"required,url"`
}

// DatabaseConfig contains database settings. An empty URL runs the service
// with the in-memory cache only.
type DatabaseConfig struct {
	URL string `mapstructure:"url" validate:"omitempty,url"`
}

// AuthConfig contains the webhook credential settings.
type AuthConfig struct {
	TaskTokenSecret          string `mapstructure:"task_token_secret" validate:"required,min=32"`
	TaskTokenLifetimeMinutes int    `mapstructure:"task_token_lifetime_minutes" validate:"required,gt=0"`
}

// QueueConfig identifies the external task queue. All three coordinates
// empty means no queue is configured and every export runs synchronously.
type QueueConfig struct {
	Project  string `mapstructure:"project"`
	Location string `mapstructure:"location"`
	QueueID  string `mapstructure:"queue_id"`
}

// Configured reports whether queue coordinates are present.
func (q QueueConfig) Configured() bool {
	return q.Project != "" && q.Location != "" && q.QueueID != ""
}

// ExportConfig contains generation and retention settings.
type ExportConfig struct {
	// Dir is the flat directory artifacts are written to and served from.
	Dir string `mapstructure:"dir" validate:"required"`

	// EngineCommand is the executable invoked to generate artifacts.
	EngineCommand string `mapstructure:"engine_command" validate:"required"`

	CacheTTLMinutes      int `mapstructure:"cache_ttl_minutes" validate:"required,gt=0"`
	ArtifactTTLMinutes   int `mapstructure:"artifact_ttl_minutes" validate:"required,gt=0"`
	JobRetentionMinutes  int `mapstructure:"job_retention_minutes" validate:"required,gt=0"`
	SweepIntervalSeconds int `mapstructure:"sweep_interval_seconds" validate:"required,gt=0"`

	// MemoryCacheSize bounds the in-memory fallback cache entry count.
	MemoryCacheSize int `mapstructure:"memory_cache_size" validate:"required,gt=0"`

	// Rate limits, requests per second with equal burst.
	APIRateLimit     float64 `mapstructure:"api_rate_limit" validate:"required,gt=0"`
	WebhookRateLimit float64 `mapstructure:"webhook_rate_limit" validate:"required,gt=0"`
}
