// Package config loads LinkHub configuration from the environment
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Database   DatabaseConfig   `json:"database"`
	Server     ServerConfig     `json:"server"`
	Security   SecurityConfig   `json:"security"`
	JWT        JWTConfig        `json:"jwt"`
	OAuth      OAuthConfig      `json:"oauth"`
	Logging    LoggingConfig    `json:"logging"`
	Metrics    MetricsConfig    `json:"metrics"`
	Cache      CacheConfig      `json:"cache"`
	Geo        GeoConfig        `json:"geo"`
	Storage    StorageConfig    `json:"storage"`
	Analytics  AnalyticsConfig  `json:"analytics"`
	Deployment DeploymentConfig `json:"deployment"`
}

type DatabaseConfig struct {
	Host            string        `json:"host"`
	Port            int           `json:"port"`
	Name            string        `json:"name"`
	User            string        `json:"user"`
	Password        string        `json:"-"`
	SSLMode         string        `json:"ssl_mode"`
	MaxOpenConns    int           `json:"max_open_conns"`
	MaxIdleConns    int           `json:"max_idle_conns"`
	ConnMaxLifetime time.Duration `json:"conn_max_lifetime"`
	ConnMaxIdleTime time.Duration `json:"conn_max_idle_time"`
	SlowQueryTime   time.Duration `json:"slow_query_time"`
	RunMigrations   bool          `json:"run_migrations"`
}

// DSN returns the key/value connection string used by the gorm postgres driver
func (c DatabaseConfig) DSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Name, c.SSLMode)
}

// URL returns the postgres:// form used by the migrator
func (c DatabaseConfig) URL() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
		c.User, c.Password, c.Host, c.Port, c.Name, c.SSLMode)
}

type ServerConfig struct {
	Host            string        `json:"host"`
	Port            int           `json:"port"`
	ReadTimeout     time.Duration `json:"read_timeout"`
	WriteTimeout    time.Duration `json:"write_timeout"`
	IdleTimeout     time.Duration `json:"idle_timeout"`
	ShutdownTimeout time.Duration `json:"shutdown_timeout"`
	RequestTimeout  time.Duration `json:"request_timeout"`
	BodyLimit       int           `json:"body_limit"`
	ProxyHeader     string        `json:"proxy_header"`
	TrustProxy      bool          `json:"trust_proxy"`
	TrustedProxies  []string      `json:"trusted_proxies"`
}

type SecurityConfig struct {
	AllowedOrigins   []string      `json:"allowed_origins"`
	AllowCredentials bool          `json:"allow_credentials"`
	GlobalRateLimit  int           `json:"global_rate_limit"`
	AuthRateLimit    int           `json:"auth_rate_limit"`
	ClickRateLimit   int           `json:"click_rate_limit"`
	RateLimitWindow  time.Duration `json:"rate_limit_window"`
	BcryptCost       int           `json:"bcrypt_cost"`
	CookieSecure     bool          `json:"cookie_secure"`
}

type JWTConfig struct {
	SecretKey       string        `json:"-"`
	PrivateKey      string        `json:"-"`
	PublicKey       string        `json:"-"`
	UseRSAKeys      bool          `json:"use_rsa_keys"`
	AccessTokenTTL  time.Duration `json:"access_token_ttl"`
	RefreshTokenTTL time.Duration `json:"refresh_token_ttl"`
	Issuer          string        `json:"issuer"`
	Audience        string        `json:"audience"`
}

type OAuthConfig struct {
	GoogleClientID     string `json:"google_client_id"`
	GoogleClientSecret string `json:"-"`
	GoogleRedirectURL  string `json:"google_redirect_url"`
	// FrontendRedirectURL receives the browser after a successful Google login
	FrontendRedirectURL string `json:"frontend_redirect_url"`
}

// GoogleEnabled reports whether Google login is configured
func (c OAuthConfig) GoogleEnabled() bool {
	return c.GoogleClientID != "" && c.GoogleClientSecret != "" && c.GoogleRedirectURL != ""
}

type LoggingConfig struct {
	Level      string `json:"level"`  // debug, info, warn, error
	Format     string `json:"format"` // json, console
	Output     string `json:"output"` // stdout, file, both
	FilePath   string `json:"file_path"`
	MaxSize    int    `json:"max_size"` // MB
	MaxBackups int    `json:"max_backups"`
	MaxAge     int    `json:"max_age"` // days
	Compress   bool   `json:"compress"`
	Caller     bool   `json:"caller"`
}

type MetricsConfig struct {
	Enabled bool   `json:"enabled"`
	Path    string `json:"path"`
}

type CacheConfig struct {
	Enabled        bool          `json:"enabled"`
	RedisURL       string        `json:"redis_url"`
	RedisDB        int           `json:"redis_db"`
	RedisPrefix    string        `json:"redis_prefix"`
	HealthInterval time.Duration `json:"health_interval"`
}

type GeoConfig struct {
	// DatabasePath points at a MaxMind GeoLite2-City database; empty disables lookups
	DatabasePath string `json:"database_path"`
}

type StorageConfig struct {
	AvatarDir string `json:"avatar_dir"`
}

type AnalyticsConfig struct {
	// Timezone defines the calendar day used for "today" and daily buckets
	Timezone string `json:"timezone"`
}

type DeploymentConfig struct {
	Environment   string `json:"environment"`
	Version       string `json:"version"`
	PublicBaseURL string `json:"public_base_url"`
}

// IsDevelopment reports whether the process runs in a local or development environment
func (c DeploymentConfig) IsDevelopment() bool {
	return c.Environment == "development" || c.Environment == "local"
}

// LoadConfig loads and validates configuration from environment variables
func LoadConfig() (*Config, error) {
	if err := loadEnvFile(); err != nil {
		return nil, err
	}

	cfg := &Config{
		Database: DatabaseConfig{
			Host:            getEnvString("DB_HOST", "localhost"),
			Port:            getEnvInt("DB_PORT", 5432),
			Name:            getEnvString("DB_NAME", "linkhub"),
			User:            getEnvString("DB_USER", "postgres"),
			Password:        getEnvString("DB_PASSWORD", ""),
			SSLMode:         getEnvString("DB_SSL_MODE", "disable"),
			MaxOpenConns:    getEnvInt("DB_MAX_OPEN_CONNS", 50),
			MaxIdleConns:    getEnvInt("DB_MAX_IDLE_CONNS", 10),
			ConnMaxLifetime: getEnvDuration("DB_CONN_MAX_LIFETIME", 30*time.Minute),
			ConnMaxIdleTime: getEnvDuration("DB_CONN_MAX_IDLE_TIME", 15*time.Minute),
			SlowQueryTime:   getEnvDuration("DB_SLOW_QUERY_TIME", 500*time.Millisecond),
			RunMigrations:   getEnvBool("DB_RUN_MIGRATIONS", true),
		},
		Server: ServerConfig{
			Host:            getEnvString("SERVER_HOST", "0.0.0.0"),
			Port:            getEnvInt("SERVER_PORT", 8080),
			ReadTimeout:     getEnvDuration("SERVER_READ_TIMEOUT", 10*time.Second),
			WriteTimeout:    getEnvDuration("SERVER_WRITE_TIMEOUT", 10*time.Second),
			IdleTimeout:     getEnvDuration("SERVER_IDLE_TIMEOUT", 60*time.Second),
			ShutdownTimeout: getEnvDuration("SERVER_SHUTDOWN_TIMEOUT", 30*time.Second),
			RequestTimeout:  getEnvDuration("SERVER_REQUEST_TIMEOUT", 10*time.Second),
			BodyLimit:       getEnvInt("SERVER_BODY_LIMIT", 6*1024*1024),
			ProxyHeader:     getEnvString("SERVER_PROXY_HEADER", "X-Forwarded-For"),
			TrustProxy:      getEnvBool("SERVER_TRUST_PROXY", true),
			TrustedProxies:  getEnvStringSlice("SERVER_TRUSTED_PROXIES", nil),
		},
		Security: SecurityConfig{
			AllowedOrigins:   getEnvStringSlice("CORS_ALLOWED_ORIGINS", []string{"http://localhost:3000"}),
			AllowCredentials: getEnvBool("CORS_ALLOW_CREDENTIALS", true),
			GlobalRateLimit:  getEnvInt("GLOBAL_RATE_LIMIT", 1000),
			AuthRateLimit:    getEnvInt("AUTH_RATE_LIMIT", 20),
			ClickRateLimit:   getEnvInt("CLICK_RATE_LIMIT", 120),
			RateLimitWindow:  getEnvDuration("RATE_LIMIT_WINDOW", time.Minute),
			BcryptCost:       getEnvInt("BCRYPT_COST", 12),
			CookieSecure:     getEnvBool("COOKIE_SECURE", true),
		},
		JWT: JWTConfig{
			SecretKey:       getEnvString("JWT_SECRET_KEY", ""),
			PrivateKey:      getEnvString("JWT_PRIVATE_KEY", ""),
			PublicKey:       getEnvString("JWT_PUBLIC_KEY", ""),
			UseRSAKeys:      getEnvBool("JWT_USE_RSA_KEYS", false),
			AccessTokenTTL:  getEnvDuration("JWT_ACCESS_TOKEN_TTL", 24*time.Hour),
			RefreshTokenTTL: getEnvDuration("JWT_REFRESH_TOKEN_TTL", 7*24*time.Hour),
			Issuer:          getEnvString("JWT_ISSUER", "linkhub"),
			Audience:        getEnvString("JWT_AUDIENCE", "linkhub-web"),
		},
		OAuth: OAuthConfig{
			GoogleClientID:      getEnvString("GOOGLE_CLIENT_ID", ""),
			GoogleClientSecret:  getEnvString("GOOGLE_CLIENT_SECRET", ""),
			GoogleRedirectURL:   getEnvString("GOOGLE_REDIRECT_URL", ""),
			FrontendRedirectURL: getEnvString("FRONTEND_REDIRECT_URL", "http://localhost:3000/dashboard"),
		},
		Logging: LoggingConfig{
			Level:      getEnvString("LOG_LEVEL", "info"),
			Format:     getEnvString("LOG_FORMAT", "json"),
			Output:     getEnvString("LOG_OUTPUT", "stdout"),
			FilePath:   getEnvString("LOG_FILE_PATH", "logs/linkhub.log"),
			MaxSize:    getEnvInt("LOG_MAX_SIZE", 100),
			MaxBackups: getEnvInt("LOG_MAX_BACKUPS", 5),
			MaxAge:     getEnvInt("LOG_MAX_AGE", 30),
			Compress:   getEnvBool("LOG_COMPRESS", true),
			Caller:     getEnvBool("LOG_CALLER", false),
		},
		Metrics: MetricsConfig{
			Enabled: getEnvBool("METRICS_ENABLED", true),
			Path:    getEnvString("METRICS_PATH", "/metrics"),
		},
		Cache: CacheConfig{
			Enabled:        getEnvBool("CACHE_ENABLED", false),
			RedisURL:       getEnvString("REDIS_URL", "redis://localhost:6379/0"),
			RedisDB:        getEnvInt("REDIS_DB", 0),
			RedisPrefix:    getEnvString("REDIS_PREFIX", "linkhub"),
			HealthInterval: getEnvDuration("REDIS_HEALTH_INTERVAL", 30*time.Second),
		},
		Geo: GeoConfig{
			DatabasePath: getEnvString("GEOIP_DB_PATH", ""),
		},
		Storage: StorageConfig{
			AvatarDir: getEnvString("AVATAR_DIR", "uploads/avatars"),
		},
		Analytics: AnalyticsConfig{
			Timezone: getEnvString("ANALYTICS_TIMEZONE", "Local"),
		},
		Deployment: DeploymentConfig{
			Environment:   getEnvString("APP_ENV", "production"),
			Version:       getEnvString("APP_VERSION", "dev"),
			PublicBaseURL: strings.TrimRight(getEnvString("PUBLIC_BASE_URL", "http://localhost:8080"), "/"),
		},
	}

	if err := ValidateConfig(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// loadEnvFile loads .env when present; variables already set win
func loadEnvFile() error {
	envFile := getEnvString("ENV_FILE", ".env")
	if _, err := os.Stat(envFile); errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err := godotenv.Load(envFile); err != nil {
		return fmt.Errorf("failed to load %s: %w", envFile, err)
	}
	return nil
}

// Helper functions for environment variable parsing
func getEnvString(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.ParseBool(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if parsed, err := time.ParseDuration(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getEnvStringSlice(key string, defaultValue []string) []string {
	if value := os.Getenv(key); value != "" {
		var result []string
		for _, item := range strings.Split(value, ",") {
			if trimmed := strings.TrimSpace(item); trimmed != "" {
				result = append(result, trimmed)
			}
		}
		if len(result) > 0 {
			return result
		}
	}
	return defaultValue
}

// ValidateConfig reports every configuration problem at once
func ValidateConfig(cfg *Config) error {
	var problems []string

	if cfg.Database.Host == "" {
		problems = append(problems, "DB_HOST is required")
	}
	if cfg.Database.Port <= 0 || cfg.Database.Port > 65535 {
		problems = append(problems, "DB_PORT must be between 1 and 65535")
	}
	if cfg.Database.Name == "" {
		problems = append(problems, "DB_NAME is required")
	}
	if cfg.Database.User == "" {
		problems = append(problems, "DB_USER is required")
	}

	if cfg.JWT.UseRSAKeys {
		if cfg.JWT.PrivateKey == "" || cfg.JWT.PublicKey == "" {
			problems = append(problems, "JWT_PRIVATE_KEY and JWT_PUBLIC_KEY are required when JWT_USE_RSA_KEYS is set")
		}
	} else if len(cfg.JWT.SecretKey) < 32 {
		problems = append(problems, "JWT_SECRET_KEY must be at least 32 characters long")
	}
	if cfg.JWT.AccessTokenTTL <= 0 {
		problems = append(problems, "JWT_ACCESS_TOKEN_TTL must be positive")
	}
	if cfg.JWT.RefreshTokenTTL <= 0 {
		problems = append(problems, "JWT_REFRESH_TOKEN_TTL must be positive")
	}

	if cfg.Server.Port <= 0 || cfg.Server.Port > 65535 {
		problems = append(problems, "SERVER_PORT must be between 1 and 65535")
	}
	if cfg.Server.ReadTimeout <= 0 || cfg.Server.WriteTimeout <= 0 || cfg.Server.IdleTimeout <= 0 {
		problems = append(problems, "SERVER_*_TIMEOUT values must be positive")
	}
	if cfg.Server.TrustProxy && cfg.Server.ProxyHeader == "" {
		problems = append(problems, "SERVER_PROXY_HEADER is required when SERVER_TRUST_PROXY is enabled")
	}

	if cfg.Security.BcryptCost < 10 || cfg.Security.BcryptCost > 14 {
		problems = append(problems, "BCRYPT_COST must be between 10 and 14")
	}
	if cfg.Security.GlobalRateLimit <= 0 || cfg.Security.AuthRateLimit <= 0 || cfg.Security.ClickRateLimit <= 0 {
		problems = append(problems, "rate limits must be positive")
	}

	if cfg.Cache.Enabled && cfg.Cache.RedisURL == "" {
		problems = append(problems, "REDIS_URL is required when CACHE_ENABLED is set")
	}

	if _, err := time.LoadLocation(normalizeZone(cfg.Analytics.Timezone)); err != nil {
		problems = append(problems, fmt.Sprintf("ANALYTICS_TIMEZONE is invalid: %v", err))
	}

	if cfg.Deployment.PublicBaseURL == "" {
		problems = append(problems, "PUBLIC_BASE_URL is required")
	}

	if len(problems) > 0 {
		return fmt.Errorf("configuration validation failed: %s", strings.Join(problems, "; "))
	}
	return nil
}

func normalizeZone(name string) string {
	if name == "" || strings.EqualFold(name, "local") {
		return "Local"
	}
	return name
}
