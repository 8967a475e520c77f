package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

// EnvPrefix is prepended to every environment variable the loader reads.
const EnvPrefix = "LOOPMIND"

var keys = []string{
	"server.port",
	"server.log_level",
	"database.url",
	"auth.jwt_secret",
	"auth.token_lifetime_minutes",
	"llm.gemini_api_key",
	"llm.model_name",
	"llm.image_model_name",
	"llm.max_retries",
	"llm.retry_delay_seconds",
	"generation.min_cards",
	"generation.max_cards",
	"generation.max_images",
	"generation.max_input_chars",
	"render.bucket",
	"render.storage_endpoint",
	"render.worker_count",
	"render.queue_size",
	"render.stuck_task_age_minutes",
}

func setDefaults(v *viper.Viper) {
	gen := DefaultGeneration()

	v.SetDefault("server.port", 8080)
	v.SetDefault("server.log_level", "info")
	v.SetDefault("auth.token_lifetime_minutes", 60)
	v.SetDefault("llm.model_name", "gemini-2.5-flash")
	v.SetDefault("llm.image_model_name", "gemini-2.5-flash-image")
	v.SetDefault("llm.max_retries", 3)
	v.SetDefault("llm.retry_delay_seconds", 2)
	v.SetDefault("generation.min_cards", gen.MinCards)
	v.SetDefault("generation.max_cards", gen.MaxCards)
	v.SetDefault("generation.max_images", gen.MaxImages)
	v.SetDefault("generation.max_input_chars", gen.MaxInputChars)
	v.SetDefault("render.worker_count", 2)
	v.SetDefault("render.queue_size", 100)
	v.SetDefault("render.stuck_task_age_minutes", 30)
}

// Load configuration from environment variables and optionally config files.
// Environment variables take precedence over values from config files.
// Returns a populated Config struct or an error if loading/validation fails.
func Load() (*Config, error) {
	return load(".")
}

// LoadGroups loads the full configuration but validates only the named
// groups ("server", "database", "auth", "llm", "generation", "render").
// Tools that need a subset of the settings use it so unrelated secrets do
// not have to be present.
func LoadGroups(groups ...string) (*Config, error) {
	cfg, err := read(".")
	if err != nil {
		return nil, err
	}
	if err := validateGroups(cfg, groups...); err != nil {
		return nil, err
	}
	return cfg, nil
}

func validateGroups(cfg *Config, groups ...string) error {
	validate := validator.New()
	for _, name := range groups {
		var group any
		switch name {
		case "server":
			group = cfg.Server
		case "database":
			group = cfg.Database
		case "auth":
			group = cfg.Auth
		case "llm":
			group = cfg.LLM
		case "generation":
			group = cfg.Generation
		case "render":
			group = cfg.Render
		default:
			return fmt.Errorf("unknown config group %q", name)
		}
		if err := validate.Struct(group); err != nil {
			return fmt.Errorf("config validation failed for %s: %w", name, err)
		}
	}
	return nil
}

func load(configDir string) (*Config, error) {
	cfg, err := read(configDir)
	if err != nil {
		return nil, err
	}
	if err := validator.New().Struct(cfg); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return cfg, nil
}

// read loads configuration without validating it.
func read(configDir string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(configDir)
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	for _, key := range keys {
		if err := v.BindEnv(key); err != nil {
			return nil, fmt.Errorf("failed to bind env for %s: %w", key, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	return &cfg, nil
}
