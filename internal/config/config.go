// Package config provides application configuration loading and management.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"showcase/internal/middleware"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Image storage backends.
const (
	StorageLocal    = "local"
	StorageSupabase = "supabase"
)

// Config holds application configuration values loaded from file or environment variables.
type Config struct {
	JWTSecret            string  `mapstructure:"JWT_SECRET"`
	Port                 string  `mapstructure:"PORT"`
	DBHost               string  `mapstructure:"DB_HOST"`
	DBPort               string  `mapstructure:"DB_PORT"`
	DBUser               string  `mapstructure:"DB_USER"`
	DBPassword           string  `mapstructure:"DB_PASSWORD"`
	DBName               string  `mapstructure:"DB_NAME"`
	DBSSLMode            string  `mapstructure:"DB_SSLMODE"`
	RedisURL             string  `mapstructure:"REDIS_URL"`
	AllowedOrigins       string  `mapstructure:"ALLOWED_ORIGINS"`
	Env                  string  `mapstructure:"APP_ENV"`
	ImageStorage         string  `mapstructure:"IMAGE_STORAGE"`
	ImageUploadDir       string  `mapstructure:"IMAGE_UPLOAD_DIR"`
	ImageMaxUploadSizeMB int     `mapstructure:"IMAGE_MAX_UPLOAD_SIZE_MB"`
	SupabaseURL          string  `mapstructure:"SUPABASE_URL"`
	SupabaseServiceKey   string  `mapstructure:"SUPABASE_SERVICE_KEY"`
	SupabaseBucket       string  `mapstructure:"SUPABASE_BUCKET"`
	TracingEnabled       bool    `mapstructure:"TRACING_ENABLED"`
	TracingExporter      string  `mapstructure:"TRACING_EXPORTER"`
	OTLPEndpoint         string  `mapstructure:"OTLP_ENDPOINT"`
	TracingSampleRatio   float64 `mapstructure:"TRACING_SAMPLE_RATIO"`
	LogLevel             string  `mapstructure:"LOG_LEVEL"`
}

// LoadConfig loads application configuration from file and environment variables.
func LoadConfig() (*Config, error) {
	// A missing .env is normal outside local development.
	_ = godotenv.Load()

	viper.AddConfigPath(".")
	viper.AddConfigPath("..")
	viper.AddConfigPath("../..")
	viper.SetConfigName("config")
	viper.SetConfigType("yml")
	viper.AutomaticEnv()

	// Initial read to get APP_ENV if set in base config
	_ = viper.ReadInConfig()

	env := viper.GetString("APP_ENV")
	if env == "" {
		env = "development"
	}

	if env != "development" && env != "test" {
		viper.SetConfigName("config." + env)
		if err := viper.MergeInConfig(); err != nil {
			return nil, fmt.Errorf("required profile-specific config 'config.%s.yml' not found: %w", env, err)
		}
		middleware.Logger.Info("loaded profile configuration", slog.String("file", "config."+env+".yml"))
	}

	viper.SetDefault("PORT", "8080")
	viper.SetDefault("DB_HOST", "localhost")
	viper.SetDefault("DB_PORT", "5432")
	viper.SetDefault("DB_USER", "user")
	viper.SetDefault("DB_PASSWORD", "password")
	viper.SetDefault("DB_NAME", "showcase")
	viper.SetDefault("DB_SSLMODE", "disable")
	viper.SetDefault("REDIS_URL", "localhost:6379")
	viper.SetDefault("JWT_SECRET", "your-secret-key-change-in-production")
	viper.SetDefault("ALLOWED_ORIGINS", "http://localhost:5173,http://localhost:3000,http://127.0.0.1:5173")
	viper.SetDefault("APP_ENV", "development")
	viper.SetDefault("IMAGE_STORAGE", StorageLocal)
	viper.SetDefault("IMAGE_UPLOAD_DIR", "/tmp/showcase/images")
	viper.SetDefault("IMAGE_MAX_UPLOAD_SIZE_MB", 5)
	viper.SetDefault("SUPABASE_BUCKET", "project-images")
	viper.SetDefault("TRACING_ENABLED", false)
	viper.SetDefault("TRACING_EXPORTER", "stdout")
	viper.SetDefault("TRACING_SAMPLE_RATIO", 1.0)
	viper.SetDefault("LOG_LEVEL", "info")

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("unable to decode config into struct: %w", err)
	}

	config.DBSSLMode = strings.ToLower(strings.TrimSpace(config.DBSSLMode))
	config.ImageStorage = strings.ToLower(strings.TrimSpace(config.ImageStorage))
	config.TracingExporter = strings.ToLower(strings.TrimSpace(config.TracingExporter))

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}

// IsProduction reports whether the config targets a production deployment.
func (c *Config) IsProduction() bool {
	return c.Env == "production" || c.Env == "prod"
}

// Validate ensures that required configuration values are present and meet security standards.
func (c *Config) Validate() error {
	if c.Port == "" {
		return errors.New("PORT is required")
	}
	if c.JWTSecret == "" {
		return errors.New("JWT_SECRET is required")
	}
	if c.ImageMaxUploadSizeMB <= 0 {
		return errors.New("IMAGE_MAX_UPLOAD_SIZE_MB must be positive")
	}

	switch c.ImageStorage {
	case "", StorageLocal:
		if c.ImageUploadDir == "" {
			return errors.New("IMAGE_UPLOAD_DIR is required for local image storage")
		}
	case StorageSupabase:
		if c.SupabaseURL == "" || c.SupabaseServiceKey == "" || c.SupabaseBucket == "" {
			return errors.New("SUPABASE_URL, SUPABASE_SERVICE_KEY and SUPABASE_BUCKET are required for supabase image storage")
		}
	default:
		return fmt.Errorf("unknown IMAGE_STORAGE %q", c.ImageStorage)
	}

	if c.TracingEnabled {
		switch c.TracingExporter {
		case "", "stdout":
		case "otlp":
			if c.OTLPEndpoint == "" {
				return errors.New("OTLP_ENDPOINT is required for the otlp tracing exporter")
			}
		default:
			return fmt.Errorf("unknown TRACING_EXPORTER %q", c.TracingExporter)
		}
		if c.TracingSampleRatio < 0 || c.TracingSampleRatio > 1 {
			return errors.New("TRACING_SAMPLE_RATIO must be between 0 and 1")
		}
	}

	if c.IsProduction() {
		if c.JWTSecret == "your-secret-key-change-in-production" {
			return errors.New("JWT_SECRET must be changed from the default value in production")
		}
		if len(c.JWTSecret) < 32 {
			return errors.New("JWT_SECRET must be at least 32 characters in production")
		}
		if c.DBPassword == "password" || c.DBPassword == "" {
			return errors.New("a strong DB_PASSWORD is required in production")
		}
		if c.DBSSLMode == "disable" || c.DBSSLMode == "" {
			return errors.New("DB_SSLMODE must enable SSL in production")
		}
		if c.AllowedOrigins == "*" {
			middleware.Logger.Warn("ALLOWED_ORIGINS is '*' in production; any site can call the API")
		}
	} else if len(c.JWTSecret) < 32 {
		middleware.Logger.Warn("JWT_SECRET is shorter than 32 characters; production will refuse it")
	}

	return nil
}
