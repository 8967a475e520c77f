package config

import "time"

// Config holds all application configuration.
// It organizes settings into logical groups for better maintainability.
type Config struct {
	Server     ServerConfig     `mapstructure:"server" validate:"required"`
	Database   DatabaseConfig   `mapstructure:"database" validate:"required"`
	Auth       AuthConfig       `mapstructure:"auth" validate:"required"`
	LLM        LLMConfig        `mapstructure:"llm" validate:"required"`
	Generation GenerationConfig `mapstructure:"generation" validate:"required"`
	Render     RenderConfig     `mapstructure:"render" validate:"required"`
}

// ServerConfig contains all server-related configuration settings.
type ServerConfig struct {
	Port     int    `mapstructure:"port" validate:"required,gt=0,lt=65536"`
	LogLevel string `mapstructure:"log_level" validate:"required,oneof=debug info warn error"`
}

// DatabaseConfig contains all database-related configuration settings.
type DatabaseConfig struct {
	URL string `mapstructure:"url" validate:"required,url"`
}

// AuthConfig contains all authentication and authorization settings.
type AuthConfig struct {
	JWTSecret            string `mapstructure:"jwt_secret" validate:"required,min=32"`
	TokenLifetimeMinutes int    `mapstructure:"token_lifetime_minutes" validate:"required,gt=0"`
}

// TokenLifetime returns the access token lifetime as a duration.
func (a AuthConfig) TokenLifetime() time.Duration {
	return time.Duration(a.TokenLifetimeMinutes) * time.Minute
}

// LLMConfig contains all LLM integration related settings.
type LLMConfig struct {
	GeminiAPIKey      string `mapstructure:"gemini_api_key" validate:"required"`
	ModelName         string `mapstructure:"model_name" validate:"required"`
	ImageModelName    string `mapstructure:"image_model_name" validate:"required"`
	MaxRetries        int    `mapstructure:"max_retries" validate:"gte=0,lte=10"`
	RetryDelaySeconds int    `mapstructure:"retry_delay_seconds" validate:"gte=0,lte=60"`
}

// GenerationConfig bounds a single pipeline run. It is passed by value so
// concurrent runs never share mutable limits.
type GenerationConfig struct {
	MinCards      int `mapstructure:"min_cards" validate:"gte=3"`
	MaxCards      int `mapstructure:"max_cards" validate:"gtefield=MinCards"`
	MaxImages     int `mapstructure:"max_images" validate:"gte=1"`
	MaxInputChars int `mapstructure:"max_input_chars" validate:"gt=0"`
}

// DefaultGeneration returns the generation limits used when nothing is
// configured.
func DefaultGeneration() GenerationConfig {
	return GenerationConfig{
		MinCards:      8,
		MaxCards:      15,
		MaxImages:     3,
		MaxInputChars: 12000,
	}
}

// RenderConfig contains the image render worker and blob storage settings.
type RenderConfig struct {
	Bucket string `mapstructure:"bucket" validate:"required"`
	// StorageEndpoint overrides the storage API endpoint, e.g. for an emulator.
	StorageEndpoint     string `mapstructure:"storage_endpoint" validate:"omitempty,url"`
	WorkerCount         int    `mapstructure:"worker_count" validate:"gt=0"`
	QueueSize           int    `mapstructure:"queue_size" validate:"gt=0"`
	StuckTaskAgeMinutes int    `mapstructure:"stuck_task_age_minutes" validate:"gt=0"`
}
