package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
)

// Config holds all configuration for the blog service.
type Config struct {
	// Server
	Host         string
	Port         string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration
	Production   bool

	// Storage
	DBPath         string
	ImageDir       string
	MaxUploadBytes int64
	SummaryLength  int

	// Auth
	JWTSecret         string
	TokenTTL          time.Duration
	TokenRotateAfter  time.Duration
	LoginAttemptLimit int
	LoginWindow       time.Duration
	RateLimitCapacity int
	AdminUsername     string
	AdminPassword     string

	LogLevel string
}

// Load reads configuration from the environment and validates it.
func Load() (*Config, error) {
	cfg := FromEnv()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// FromEnv reads configuration from the environment, after loading an
// optional .env file from the working directory. It does not validate, so
// command-line flags can be applied first.
func FromEnv() *Config {
	_ = godotenv.Load()

	return &Config{
		Host:              getEnv("HOST", "0.0.0.0"),
		Port:              getEnv("PORT", "3000"),
		ReadTimeout:       getEnvDuration("HTTP_READ_TIMEOUT", 15*time.Second),
		WriteTimeout:      getEnvDuration("HTTP_WRITE_TIMEOUT", 30*time.Second),
		IdleTimeout:       getEnvDuration("HTTP_IDLE_TIMEOUT", 120*time.Second),
		Production:        strings.EqualFold(getEnv("APP_ENV", "development"), "production"),
		DBPath:            getEnv("DB_PATH", "data/blog.db"),
		ImageDir:          getEnv("IMAGE_DIR", "data/images"),
		MaxUploadBytes:    int64(getEnvInt("MAX_UPLOAD_BYTES", 10<<20)),
		SummaryLength:     getEnvInt("SUMMARY_LENGTH", 200),
		JWTSecret:         getEnv("JWT_SECRET", ""),
		TokenTTL:          getEnvDuration("TOKEN_TTL", 15*time.Minute),
		TokenRotateAfter:  getEnvDuration("TOKEN_ROTATE_AFTER", time.Minute),
		LoginAttemptLimit: getEnvInt("LOGIN_ATTEMPT_LIMIT", 5),
		LoginWindow:       getEnvDuration("LOGIN_WINDOW", 5*time.Minute),
		RateLimitCapacity: getEnvInt("RATE_LIMIT_CAPACITY", 500),
		AdminUsername:     getEnv("ADMIN_USERNAME", ""),
		AdminPassword:     getEnv("ADMIN_PASSWORD", ""),
		LogLevel:          getEnv("LOG_LEVEL", "info"),
	}
}

// BindFlags registers the command-line overrides on fs, defaulting to the
// values already loaded.
func (c *Config) BindFlags(fs *pflag.FlagSet) {
	fs.StringVar(&c.Host, "host", c.Host, "address to listen on")
	fs.StringVarP(&c.Port, "port", "p", c.Port, "port to listen on")
}

// Addr is the listen address.
func (c *Config) Addr() string {
	return c.Host + ":" + c.Port
}

// Validate checks the loaded values.
func (c *Config) Validate() error {
	if c.Port == "" {
		return fmt.Errorf("PORT is required")
	}
	if len(c.JWTSecret) < 32 {
		return fmt.Errorf("JWT_SECRET must be at least 32 characters")
	}
	if c.TokenTTL <= 0 {
		return fmt.Errorf("TOKEN_TTL must be positive")
	}
	if c.TokenRotateAfter <= 0 || c.TokenRotateAfter >= c.TokenTTL {
		return fmt.Errorf("TOKEN_ROTATE_AFTER must be positive and shorter than TOKEN_TTL")
	}
	if c.LoginAttemptLimit < 1 {
		return fmt.Errorf("LOGIN_ATTEMPT_LIMIT must be at least 1")
	}
	if c.LoginWindow <= 0 {
		return fmt.Errorf("LOGIN_WINDOW must be positive")
	}
	if c.RateLimitCapacity < 1 {
		return fmt.Errorf("RATE_LIMIT_CAPACITY must be at least 1")
	}
	if c.MaxUploadBytes < 1 {
		return fmt.Errorf("MAX_UPLOAD_BYTES must be at least 1")
	}
	if c.SummaryLength < 1 {
		return fmt.Errorf("SUMMARY_LENGTH must be at least 1")
	}
	if (c.AdminUsername == "") != (c.AdminPassword == "") {
		return fmt.Errorf("ADMIN_USERNAME and ADMIN_PASSWORD must be set together")
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}
