package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "0123456789abcdef0123456789abcdef"

func setRequiredEnv(t *testing.T) {
	t.Setenv("BIZDIR_AUTH_JWT_SECRET", testSecret)
	t.Setenv("BIZDIR_PAYMENTS_WEBHOOK_SECRET", "whsec_test")
}

func TestConfigLoad_Defaults(t *testing.T) {
	setRequiredEnv(t)

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, 30*time.Second, cfg.Server.ReadTimeout)
	assert.Equal(t, 10*time.Second, cfg.Server.RequestTimeout)
	assert.Equal(t, 30*time.Minute, cfg.Analytics.DedupWindow)
	assert.Equal(t, "@every 15m", cfg.Promotions.RefreshSchedule)
	assert.Equal(t, 30, cfg.Promotions.DefaultDays)
	assert.Equal(t, 5*time.Minute, cfg.Payments.SignatureTolerance)
	assert.Equal(t, int64(65536), cfg.Payments.MaxBodyBytes)
	assert.Equal(t, "log", cfg.Notifications.Driver)
	assert.Equal(t, "token", cfg.Auth.CookieName)
	assert.Equal(t, []string{"*"}, cfg.CORS.AllowedOrigins)
	assert.True(t, cfg.RateLimiter.Enabled)
	assert.Equal(t, 9090, cfg.Metrics.Port)
}

func TestConfigLoad_FromEnvironment(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("BIZDIR_SERVER_PORT", "9000")
	t.Setenv("BIZDIR_ANALYTICS_DEDUP_WINDOW", "10m")
	t.Setenv("BIZDIR_NOTIFICATIONS_DRIVER", "rabbitmq")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, 9000, cfg.Server.Port)
	assert.Equal(t, 10*time.Minute, cfg.Analytics.DedupWindow)
	assert.Equal(t, "rabbitmq", cfg.Notifications.Driver)
}

func TestConfigLoad_FromFile(t *testing.T) {
	setRequiredEnv(t)
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `
server:
  port: 8181
promotions:
  refresh_schedule: "0 */5 * * * *"
  default_days: 7
cors:
  allowed_origins:
    - https://directory.example.com
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 8181, cfg.Server.Port)
	assert.Equal(t, "0 */5 * * * *", cfg.Promotions.RefreshSchedule)
	assert.Equal(t, 7, cfg.Promotions.DefaultDays)
	assert.Equal(t, []string{"https://directory.example.com"}, cfg.CORS.AllowedOrigins)
}

func TestConfigLoad_MissingSecrets(t *testing.T) {
	t.Setenv("BIZDIR_AUTH_JWT_SECRET", "")
	t.Setenv("BIZDIR_PAYMENTS_WEBHOOK_SECRET", "whsec_test")

	_, err := Load("")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "jwt_secret")
}

func validConfig() *Config {
	return &Config{
		Server:        ServerConfig{Port: 8080, RequestTimeout: time.Second},
		Database:      DatabaseConfig{Host: "localhost", Database: "bizdir", User: "bizdir"},
		Redis:         RedisConfig{Host: "localhost"},
		Auth:          AuthConfig{JWTSecret: testSecret, TokenTTL: time.Hour},
		Analytics:     AnalyticsConfig{DedupWindow: time.Minute},
		Promotions:    PromotionsConfig{RefreshEnabled: true, RefreshSchedule: "@every 1m", DefaultDays: 30},
		Payments:      PaymentsConfig{WebhookSecret: "whsec", MaxBodyBytes: 1024},
		Notifications: NotificationsConfig{Driver: "log"},
		RateLimiter:   RateLimiterConfig{Enabled: true, RequestsPerSecond: 10, BurstSize: 5},
		Metrics:       MetricsConfig{Enabled: true, Port: 9090},
	}
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"valid", func(c *Config) {}, ""},
		{"bad port", func(c *Config) { c.Server.Port = 70000 }, "invalid server port"},
		{"short secret", func(c *Config) { c.Auth.JWTSecret = "short" }, "jwt_secret"},
		{"negative window", func(c *Config) { c.Analytics.DedupWindow = -time.Second }, "dedup_window"},
		{"missing schedule", func(c *Config) { c.Promotions.RefreshSchedule = "" }, "refresh_schedule"},
		{"unknown driver", func(c *Config) { c.Notifications.Driver = "smtp" }, "notifications.driver"},
		{"rabbitmq without url", func(c *Config) {
			c.Notifications.Driver = "rabbitmq"
			c.Notifications.AMQPURL = ""
		}, "amqp_url"},
		{"missing webhook secret", func(c *Config) { c.Payments.WebhookSecret = "" }, "webhook_secret"},
		{"bad rate limit", func(c *Config) { c.RateLimiter.RequestsPerSecond = 0 }, "requests per second"},
		{"bad metrics port", func(c *Config) { c.Metrics.Port = 0 }, "invalid metrics port"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				assert.Equal(t, "info", cfg.Logging.Level)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}
