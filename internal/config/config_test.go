package config

import (
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validConfig() *Config {
	return &Config{
		Env:                  "development",
		JWTSecret:            "secure-secret-at-least-32-chars-long",
		DBPassword:           "secure-password",
		DBSSLMode:            "require",
		Port:                 "8080",
		ImageStorage:         StorageLocal,
		ImageUploadDir:       "/tmp/images",
		ImageMaxUploadSizeMB: 5,
	}
}

func TestConfig_ValidateSSLMode(t *testing.T) {
	tests := []struct {
		name        string
		env         string
		sslMode     string
		expectError bool
	}{
		{"Production with empty SSL mode", "production", "", true},
		{"Production with disable SSL mode", "production", "disable", true},
		{"Production with require SSL mode", "production", "require", false},
		{"Prod with verify-full SSL mode", "prod", "verify-full", false},
		{"Development with disable SSL mode", "development", "disable", false},
		{"Test with empty SSL mode", "test", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := validConfig()
			c.Env = tt.env
			c.DBSSLMode = tt.sslMode

			err := c.Validate()
			if tt.expectError {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestConfig_ValidateImageStorage(t *testing.T) {
	c := validConfig()
	c.ImageStorage = StorageSupabase
	assert.Error(t, c.Validate(), "supabase storage without credentials must be rejected")

	c.SupabaseURL = "https://example.supabase.co"
	c.SupabaseServiceKey = "service-key"
	c.SupabaseBucket = "images"
	assert.NoError(t, c.Validate())

	c.ImageStorage = "ftp"
	assert.Error(t, c.Validate())

	c = validConfig()
	c.ImageUploadDir = ""
	assert.Error(t, c.Validate())
}

func TestConfig_ValidateProductionSecret(t *testing.T) {
	c := validConfig()
	c.Env = "production"
	c.JWTSecret = "your-secret-key-change-in-production"
	assert.Error(t, c.Validate())

	c.JWTSecret = "short"
	assert.Error(t, c.Validate())
}

func TestLoadConfig_Normalization(t *testing.T) {
	t.Cleanup(viper.Reset)
	t.Setenv("APP_ENV", "development")
	t.Setenv("DB_SSLMODE", "  DISABLE  ")
	t.Setenv("IMAGE_STORAGE", " Local ")
	t.Setenv("TRACING_EXPORTER", " STDOUT")

	c, err := LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, "disable", c.DBSSLMode)
	assert.Equal(t, StorageLocal, c.ImageStorage)
	assert.Equal(t, "stdout", c.TracingExporter)
	assert.Equal(t, 5, c.ImageMaxUploadSizeMB)
	assert.Equal(t, "8080", c.Port)
	assert.Equal(t, "info", c.LogLevel)
}

func TestLoadConfig_MissingProfile(t *testing.T) {
	t.Cleanup(viper.Reset)
	t.Setenv("APP_ENV", "staging")

	_, err := LoadConfig()
	assert.ErrorContains(t, err, "config.staging.yml")
}

func TestConfig_ValidateTracing(t *testing.T) {
	c := validConfig()
	c.TracingEnabled = true
	c.TracingSampleRatio = 0.5
	assert.NoError(t, c.Validate(), "stdout is the default exporter")

	c.TracingExporter = "otlp"
	assert.Error(t, c.Validate(), "otlp needs an endpoint")

	c.OTLPEndpoint = "collector:4318"
	assert.NoError(t, c.Validate())

	c.TracingSampleRatio = 2
	assert.Error(t, c.Validate())

	c.TracingSampleRatio = 1
	c.TracingExporter = "jaeger"
	assert.Error(t, c.Validate())

	c.TracingEnabled = false
	assert.NoError(t, c.Validate(), "exporter settings are ignored when tracing is off")
}
