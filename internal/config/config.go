package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strconv"
	"time"

	"github.com/franciscosanchezn/gin-oauth-server/internal/auth"
	"github.com/franciscosanchezn/gin-oauth-server/internal/database"
	"github.com/sirupsen/logrus"
)

var log = logrus.New()

func init() {
	log.SetFormatter(&logrus.JSONFormatter{})
	log.SetLevel(LevelForEnvironment(GetEnvWithDefault("APP_ENV", "development")))
}

// LevelForEnvironment maps APP_ENV to the log level every package uses
func LevelForEnvironment(environment string) logrus.Level {
	switch environment {
	case "development":
		return logrus.DebugLevel
	case "production":
		return logrus.ErrorLevel
	default:
		return logrus.InfoLevel
	}
}

// Session store kinds
const (
	SessionStoreDatabase = "database"
	SessionStoreRedis    = "redis"
	SessionStoreMemory   = "memory"
)

const defaultJWTSecret = "secret"

// Config used for the application configuration, loading the input from environment variables
type Config struct {
	// Server Configuration
	Port        int    `json:"port"`
	Host        string `json:"host"`
	Environment string `json:"environment"`

	// Database configuration
	DBDriver   string `json:"db_driver"`
	DBHost     string `json:"db_host"`
	DBPort     string `json:"db_port"`
	DBName     string `json:"db_name"`
	DBUser     string `json:"db_user"`
	DBPassword string `json:"db_password"`
	DBSSLMode  string `json:"db_sslmode"`
	DBPath     string `json:"db_path"`

	// Logging configuration
	LogLevel string `json:"log_level"`

	// Security Configuration
	JWTSecret    string `json:"jwt_secret"`
	CookieSecure bool   `json:"cookie_secure"`

	// OAuth server
	CodeTimeout   time.Duration `json:"code_timeout"`
	TokenLife     int           `json:"token_life"`
	TokenLength   int           `json:"token_length"`
	AllowHeader   bool          `json:"allow_header"`
	AllowFormBody bool          `json:"allow_form_body"`
	AllowURLParam bool          `json:"allow_url_param"`
	LoginPath     string        `json:"login_path"`
	SignupPath    string        `json:"signup_path"`

	// Authorization sessions
	SessionStore   string        `json:"session_store"`
	SessionTTL     time.Duration `json:"session_ttl"`
	RedisURL       string        `json:"redis_url"`
	RedisKeyPrefix string        `json:"redis_key_prefix"`

	// Token endpoint throttling, per client IP
	TokenRateLimit float64 `json:"token_rate_limit"`
	TokenRateBurst int     `json:"token_rate_burst"`
}

// String returns a string representation of Config with sensitive data masked
func (c *Config) String() string {
	return fmt.Sprintf("Config{Port: %d, Host: %s, Environment: %s, DBDriver: %s, DBHost: %s, DBName: %s, DBUser: %s, DBPassword: [REDACTED], "+
		"LogLevel: %s, JWTSecret: [REDACTED], CodeTimeout: %s, TokenLife: %d, SessionStore: %s, SessionTTL: %s, RedisURL: %s, "+
		"TokenRateLimit: %g, TokenRateBurst: %d}",
		c.Port, c.Host, c.Environment, c.DBDriver, c.DBHost, c.DBName, c.DBUser,
		c.LogLevel, c.CodeTimeout, c.TokenLife, c.SessionStore, c.SessionTTL, maskURL(c.RedisURL),
		c.TokenRateLimit, c.TokenRateBurst)
}

// LoadConfig read the proper configuration from environment variables and returns a Config struct
// Returns an error if any variable is malformed or the combination is unusable
func LoadConfig() (*Config, error) {
	log.Info("Loading configuration from environment variables")
	port, err := strconv.Atoi(GetEnvWithDefault("APP_PORT", "8080"))
	if err != nil {
		return nil, fmt.Errorf("invalid APP_PORT: %w", err)
	}

	tokenLife, err := strconv.Atoi(GetEnvWithDefault("OAUTH_TOKEN_LIFE", "3600"))
	if err != nil {
		return nil, fmt.Errorf("invalid OAUTH_TOKEN_LIFE: %w", err)
	}

	config := &Config{
		Port:        port,
		Host:        GetEnvWithDefault("APP_HOST", "localhost"),
		Environment: GetEnvWithDefault("APP_ENV", "development"),

		DBDriver:   GetEnvWithDefault("DB_DRIVER", "sqlite"),
		DBHost:     GetEnvWithDefault("DB_HOST", "localhost"),
		DBPort:     GetEnvWithDefault("DB_PORT", "5432"),
		DBName:     GetEnvWithDefault("DB_NAME", "oauth"),
		DBUser:     GetEnvWithDefault("DB_USER", "user"),
		DBPassword: GetEnvWithDefault("DB_PASSWORD", "password"),
		DBSSLMode:  GetEnvWithDefault("DB_SSLMODE", "disable"),
		DBPath:     GetEnvWithDefault("DB_PATH", "oauth.sqlite"),

		LogLevel: GetEnvWithDefault("LOG_LEVEL", "info"),

		JWTSecret:    GetEnvWithDefault("JWT_SECRET", defaultJWTSecret),
		CookieSecure: GetEnvAsType("COOKIE_SECURE", false),

		CodeTimeout:   GetEnvAsType("OAUTH_CODE_TIMEOUT", 10*time.Minute),
		TokenLife:     tokenLife,
		TokenLength:   GetEnvAsType("OAUTH_TOKEN_LENGTH", 40),
		AllowHeader:   GetEnvAsType("OAUTH_ALLOW_HEADER", true),
		AllowFormBody: GetEnvAsType("OAUTH_ALLOW_FORM_BODY", false),
		AllowURLParam: GetEnvAsType("OAUTH_ALLOW_URL_PARAM", false),
		LoginPath:     GetEnvWithDefault("LOGIN_PATH", "/login"),
		SignupPath:    GetEnvWithDefault("SIGNUP_PATH", "/register"),

		SessionStore:   GetEnvWithDefault("SESSION_STORE", SessionStoreDatabase),
		SessionTTL:     GetEnvAsType("SESSION_TTL", time.Hour),
		RedisURL:       GetEnvWithDefault("REDIS_URL", ""),
		RedisKeyPrefix: GetEnvWithDefault("REDIS_KEY_PREFIX", "oauth:session:"),

		TokenRateLimit: GetEnvAsType("TOKEN_RATE_LIMIT", 5.0),
		TokenRateBurst: GetEnvAsType("TOKEN_RATE_BURST", 10),
	}

	if err := config.validate(); err != nil {
		return nil, err
	}
	log.Infof("Configuration loaded: %s", config.String())
	return config, nil
}

func (c *Config) validate() error {
	switch c.SessionStore {
	case SessionStoreDatabase, SessionStoreMemory:
	case SessionStoreRedis:
		if c.RedisURL == "" {
			return errors.New("REDIS_URL environment variable is required when SESSION_STORE=redis")
		}
	default:
		return fmt.Errorf("invalid SESSION_STORE %q: must be database, redis or memory", c.SessionStore)
	}
	if c.TokenLength < 20 {
		return fmt.Errorf("OAUTH_TOKEN_LENGTH must be at least 20, got %d", c.TokenLength)
	}
	if c.CodeTimeout <= 0 {
		return errors.New("OAUTH_CODE_TIMEOUT must be positive")
	}
	if c.SessionTTL <= 0 {
		return errors.New("SESSION_TTL must be positive")
	}
	if c.Environment == "production" && c.JWTSecret == defaultJWTSecret {
		return errors.New("JWT_SECRET environment variable is required in production")
	}
	return nil
}

// OAuth builds the authorization server settings
func (c *Config) OAuth() auth.Config {
	cfg := auth.DefaultConfig()
	cfg.CodeTimeout = c.CodeTimeout
	cfg.TokenLife = time.Duration(c.TokenLife) * time.Second
	cfg.TokenLength = c.TokenLength
	cfg.AllowHeader = c.AllowHeader
	cfg.AllowFormBody = c.AllowFormBody
	cfg.AllowURLParam = c.AllowURLParam
	cfg.LoginPath = c.LoginPath
	cfg.SignupPath = c.SignupPath
	return cfg
}

// Database builds the connection settings
func (c *Config) Database() database.DatabaseConfig {
	return database.DatabaseConfig{
		Driver:   c.DBDriver,
		Host:     c.DBHost,
		Port:     c.DBPort,
		User:     c.DBUser,
		Password: c.DBPassword,
		Name:     c.DBName,
		SSLMode:  c.DBSSLMode,
		Path:     c.DBPath,
	}
}

// maskURL masks the password in a connection URL
func maskURL(raw string) string {
	if raw == "" {
		return ""
	}
	parsed, err := url.Parse(raw)
	if err != nil {
		return "[REDACTED_INVALID_URL]"
	}
	if _, ok := parsed.User.Password(); ok {
		parsed.User = url.UserPassword(parsed.User.Username(), "REDACTED")
	}
	return parsed.String()
}

// Helper to get environment with default values
func GetEnvWithDefault(key, defaultValue string) string {
	log.Tracef("Getting environment variable: %s", key)
	value := os.Getenv(key)
	if value == "" {
		log.Debugf("Environment variable %s not set, using default value", key)
		return defaultValue
	}
	return value
}

// GetEnvAsType retrieves an environment variable and converts it to the specified type
// using generic type handling. Unparseable values fall back to defaultValue.
func GetEnvAsType[T any](key string, defaultValue T) T {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	var result T
	switch any(result).(type) {
	case int:
		intValue, err := strconv.Atoi(value)
		if err != nil {
			log.Warnf("Environment variable %s is not an integer, using default", key)
			return defaultValue
		}
		return any(intValue).(T)
	case float64:
		floatValue, err := strconv.ParseFloat(value, 64)
		if err != nil {
			log.Warnf("Environment variable %s is not a number, using default", key)
			return defaultValue
		}
		return any(floatValue).(T)
	case string:
		return any(value).(T)
	case bool:
		boolValue, err := strconv.ParseBool(value)
		if err != nil {
			log.Warnf("Environment variable %s is not a boolean, using default", key)
			return defaultValue
		}
		return any(boolValue).(T)
	case time.Duration:
		duration, err := time.ParseDuration(value)
		if err != nil {
			log.Warnf("Environment variable %s is not a duration, using default", key)
			return defaultValue
		}
		return any(duration).(T)
	default:
		return defaultValue
	}
}
