package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validConfig() *Config {
	return &Config{
		Database: DatabaseConfig{Host: "localhost", Port: 5432, Name: "linkhub", User: "postgres", SSLMode: "disable"},
		Server:   ServerConfig{Port: 8080, ReadTimeout: time.Second, WriteTimeout: time.Second, IdleTimeout: time.Second},
		Security: SecurityConfig{BcryptCost: 12, GlobalRateLimit: 10, AuthRateLimit: 10, ClickRateLimit: 10},
		JWT: JWTConfig{
			SecretKey:       "0123456789abcdef0123456789abcdef",
			AccessTokenTTL:  time.Hour,
			RefreshTokenTTL: 24 * time.Hour,
		},
		Analytics:  AnalyticsConfig{Timezone: "UTC"},
		Deployment: DeploymentConfig{PublicBaseURL: "http://localhost:8080"},
	}
}

func TestValidateConfig(t *testing.T) {
	t.Run("valid", func(t *testing.T) {
		assert.NoError(t, ValidateConfig(validConfig()))
	})

	t.Run("local timezone", func(t *testing.T) {
		cfg := validConfig()
		cfg.Analytics.Timezone = "local"
		assert.NoError(t, ValidateConfig(cfg))
	})

	t.Run("collects every problem", func(t *testing.T) {
		cfg := validConfig()
		cfg.JWT.SecretKey = "short"
		cfg.Security.BcryptCost = 4
		cfg.Analytics.Timezone = "Mars/Olympus"

		err := ValidateConfig(cfg)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "JWT_SECRET_KEY")
		assert.Contains(t, err.Error(), "BCRYPT_COST")
		assert.Contains(t, err.Error(), "ANALYTICS_TIMEZONE")
	})

	t.Run("rsa keys required", func(t *testing.T) {
		cfg := validConfig()
		cfg.JWT.UseRSAKeys = true
		err := ValidateConfig(cfg)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "JWT_PRIVATE_KEY")
	})

	t.Run("redis url required when cache enabled", func(t *testing.T) {
		cfg := validConfig()
		cfg.Cache.Enabled = true
		cfg.Cache.RedisURL = ""
		err := ValidateConfig(cfg)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "REDIS_URL")
	})

	t.Run("proxy header required when proxies are trusted", func(t *testing.T) {
		cfg := validConfig()
		cfg.Server.TrustProxy = true
		err := ValidateConfig(cfg)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "SERVER_PROXY_HEADER")
	})
}

func TestLoadConfig(t *testing.T) {
	t.Setenv("ENV_FILE", t.TempDir()+"/missing.env")
	t.Setenv("JWT_SECRET_KEY", "0123456789abcdef0123456789abcdef")
	t.Setenv("SERVER_PORT", "9090")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://a.example, https://b.example,")
	t.Setenv("RATE_LIMIT_WINDOW", "30s")
	t.Setenv("PUBLIC_BASE_URL", "https://linkhub.example/")
	t.Setenv("ANALYTICS_TIMEZONE", "UTC")
	t.Setenv("SERVER_TRUSTED_PROXIES", "10.1.2.3, 192.0.2.0/24")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.Security.AllowedOrigins)
	assert.Equal(t, 30*time.Second, cfg.Security.RateLimitWindow)
	assert.Equal(t, "https://linkhub.example", cfg.Deployment.PublicBaseURL)
	assert.Equal(t, 12, cfg.Security.BcryptCost)
	assert.Equal(t, "X-Forwarded-For", cfg.Server.ProxyHeader)
	assert.True(t, cfg.Server.TrustProxy)
	assert.Equal(t, []string{"10.1.2.3", "192.0.2.0/24"}, cfg.Server.TrustedProxies)
}

func TestDatabaseDSN(t *testing.T) {
	db := DatabaseConfig{Host: "db", Port: 5433, Name: "lh", User: "u", Password: "p", SSLMode: "require"}
	assert.Equal(t, "host=db port=5433 user=u password=p dbname=lh sslmode=require", db.DSN())
	assert.Equal(t, "postgres://u:p@db:5433/lh?sslmode=require", db.URL())
}

func TestGetEnvHelpersFallback(t *testing.T) {
	t.Setenv("LH_TEST_INT", "abc")
	t.Setenv("LH_TEST_BOOL", "maybe")
	t.Setenv("LH_TEST_DUR", "soon")

	assert.Equal(t, 7, getEnvInt("LH_TEST_INT", 7))
	assert.True(t, getEnvBool("LH_TEST_BOOL", true))
	assert.Equal(t, time.Minute, getEnvDuration("LH_TEST_DUR", time.Minute))
}
