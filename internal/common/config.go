package common

import (
	"time"

	"github.com/spf13/viper"
)

// Config holds all application configuration
type Config struct {
	Database DatabaseConfig
	Server   ServerConfig
	Provider ProviderConfig
}

// DatabaseConfig holds database-related configuration
type DatabaseConfig struct {
	DSN              string
	MaxConns         int32
	MinConns         int32
	MaxConnLifetime  time.Duration
	MaxConnIdleTime  time.Duration
	DialTimeout      time.Duration
	StatementTimeout time.Duration
}

// ServerConfig holds server-related configuration
type ServerConfig struct {
	HTTPAddr  string
	UploadDir string
}

// ProviderConfig selects the default extraction provider and holds per-provider
// credentials. Read at startup; clients are constructed lazily on first use.
type ProviderConfig struct {
	Default       string // "gemini" | "openai"
	OpenAIKey     string
	OpenAIModel   string
	OpenAIBaseURL string
	GeminiKey     string
	GeminiModel   string
	GeminiBaseURL string
	Temperature   float32
	Timeout       time.Duration
}

// LoadConfig loads configuration from environment variables via viper.
func LoadConfig() *Config {
	v := viper.New()
	v.AutomaticEnv()

	v.SetDefault("DB_MAX_CONNS", 20)
	v.SetDefault("DB_MIN_CONNS", 5)
	v.SetDefault("DB_MAX_CONN_LIFETIME", "30m")
	v.SetDefault("DB_MAX_CONN_IDLE_TIME", "5m")
	v.SetDefault("DB_DIAL_TIMEOUT", "3s")
	v.SetDefault("DB_STATEMENT_TIMEOUT", "0s")
	v.SetDefault("HTTP_ADDR", ":8080")
	v.SetDefault("UPLOAD_DIR", "uploads")
	v.SetDefault("AI_DEFAULT_PROVIDER", "gemini")
	v.SetDefault("OPENAI_MODEL", "gpt-4o-mini")
	v.SetDefault("OPENAI_BASE_URL", "https://api.openai.com/v1")
	v.SetDefault("GEMINI_MODEL", "gemini-2.0-flash")
	v.SetDefault("GEMINI_BASE_URL", "https://generativelanguage.googleapis.com/v1beta")
	v.SetDefault("AI_TEMPERATURE", 0.0)
	v.SetDefault("AI_TIMEOUT", "45s")

	return &Config{
		Database: DatabaseConfig{
			DSN:              v.GetString("DB_URL"),
			MaxConns:         v.GetInt32("DB_MAX_CONNS"),
			MinConns:         v.GetInt32("DB_MIN_CONNS"),
			MaxConnLifetime:  v.GetDuration("DB_MAX_CONN_LIFETIME"),
			MaxConnIdleTime:  v.GetDuration("DB_MAX_CONN_IDLE_TIME"),
			DialTimeout:      v.GetDuration("DB_DIAL_TIMEOUT"),
			StatementTimeout: v.GetDuration("DB_STATEMENT_TIMEOUT"),
		},
		Server: ServerConfig{
			HTTPAddr:  v.GetString("HTTP_ADDR"),
			UploadDir: v.GetString("UPLOAD_DIR"),
		},
		Provider: ProviderConfig{
			Default:       v.GetString("AI_DEFAULT_PROVIDER"),
			OpenAIKey:     v.GetString("OPENAI_API_KEY"),
			OpenAIModel:   v.GetString("OPENAI_MODEL"),
			OpenAIBaseURL: v.GetString("OPENAI_BASE_URL"),
			GeminiKey:     v.GetString("GEMINI_API_KEY"),
			GeminiModel:   v.GetString("GEMINI_MODEL"),
			GeminiBaseURL: v.GetString("GEMINI_BASE_URL"),
			Temperature:   float32(v.GetFloat64("AI_TEMPERATURE")),
			Timeout:       v.GetDuration("AI_TIMEOUT"),
		},
	}
}

// Validate validates the loaded configuration
func (c *Config) Validate() error {
	if c.Database.DSN == "" {
		return NewAppError("CONFIG_ERROR", "DB_URL is required", ErrInvalidInput)
	}
	if c.Server.HTTPAddr == "" {
		return NewAppError("CONFIG_ERROR", "HTTP_ADDR is required", ErrInvalidInput)
	}
	if c.Provider.GeminiKey == "" && c.Provider.OpenAIKey == "" {
		return NewAppError("CONFIG_ERROR", "at least one of GEMINI_API_KEY or OPENAI_API_KEY is required", ErrInvalidInput)
	}
	return nil
}
