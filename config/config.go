package config

import (
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds all configuration for the application
type Config struct {
	Server  ServerConfig
	Agent   AgentConfig
	Cache   CacheConfig
	Session SessionConfig
}

// ServerConfig holds server-related configuration
type ServerConfig struct {
	Port           string   `mapstructure:"port"`
	Environment    string   `mapstructure:"environment"`
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

// AgentConfig holds agent backend configuration
type AgentConfig struct {
	BaseURL           string        `mapstructure:"base_url"`
	SearchTimeout     time.Duration `mapstructure:"search_timeout"`
	RequestsPerMinute int           `mapstructure:"requests_per_minute"`
	Burst             int           `mapstructure:"burst"`
}

// CacheConfig holds forecast cache configuration
type CacheConfig struct {
	ForecastTTL time.Duration `mapstructure:"forecast_ttl"`
}

// SessionConfig holds shopping-session configuration
type SessionConfig struct {
	MaxCompare int           `mapstructure:"max_compare"`
	IdleTTL    time.Duration `mapstructure:"idle_ttl"`
}

// Load loads configuration from environment variables and config files
func Load() (*Config, error) {
	// Optional .env file for local development; real env vars win
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("error loading .env file: %w", err)
	}

	v := viper.New()

	// Set config name and paths
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AddConfigPath("/etc/smartshop/")

	// Environment variable settings
	v.SetEnvPrefix("SMARTSHOP")
	v.AutomaticEnv()

	// Set default values
	setDefaults(v)

	// Read config file (optional - will use env vars if file doesn't exist)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
		// Config file not found; using environment variables and defaults
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}

	// Validate configuration
	if err := validate(&config); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}

// setDefaults sets default configuration values
func setDefaults(v *viper.Viper) {
	// Server defaults
	v.SetDefault("server.port", "8080")
	v.SetDefault("server.environment", "development")
	v.SetDefault("server.allowed_origins", []string{"http://localhost:5173", "http://localhost:3000"})

	// Agent backend defaults
	v.SetDefault("agent.base_url", "http://127.0.0.1:8000")
	v.SetDefault("agent.search_timeout", "120s")
	v.SetDefault("agent.requests_per_minute", 60)
	v.SetDefault("agent.burst", 10)

	// Cache defaults
	v.SetDefault("cache.forecast_ttl", "15m")

	// Session defaults
	v.SetDefault("session.max_compare", 4)
	v.SetDefault("session.idle_ttl", "1h")
}

// validate validates the configuration
func validate(config *Config) error {
	if config.Agent.BaseURL == "" {
		return fmt.Errorf("agent base URL is required (set SMARTSHOP_AGENT_BASE_URL)")
	}

	if config.Agent.SearchTimeout <= 0 {
		return fmt.Errorf("agent search timeout must be positive, got: %s", config.Agent.SearchTimeout)
	}

	if config.Agent.RequestsPerMinute <= 0 {
		return fmt.Errorf("agent requests per minute must be positive, got: %d", config.Agent.RequestsPerMinute)
	}

	if config.Session.MaxCompare < 2 {
		return fmt.Errorf("session max compare must be at least 2, got: %d", config.Session.MaxCompare)
	}

	return nil
}
