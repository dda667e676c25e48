// Package config loads service configuration from defaults, an optional
// config.yaml and the environment, in increasing order of precedence.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

const (
	StoreMongo  = "mongo"
	StoreMemory = "memory"
)

// Config holds all configuration values.
type Config struct {
	AppPort           string        `mapstructure:"APP_PORT"`
	Env               string        `mapstructure:"ENV"`
	LogLevel          string        `mapstructure:"LOG_LEVEL"`
	StoreDriver       string        `mapstructure:"STORE_DRIVER"`
	ShutdownTimeout   time.Duration `mapstructure:"SHUTDOWN_TIMEOUT"`
	MaxRequestsPerMin int           `mapstructure:"MAX_REQUESTS_PER_MIN"`
	MaxUploadMB       int           `mapstructure:"MAX_UPLOAD_MB"`

	// TrustProxy keys rate limits on X-Forwarded-For; enable only behind a proxy that sets it.
	TrustProxy bool `mapstructure:"TRUST_PROXY"`
	// DevTokens exposes POST /v1/auth/token. Refused in production.
	DevTokens  bool `mapstructure:"DEV_TOKENS"`

	CORSAllowedOrigins string `mapstructure:"CORS_ALLOWED_ORIGINS"`

	MongoURI      string `mapstructure:"MONGO_URI"`
	MongoDatabase string `mapstructure:"MONGO_DATABASE"`

	// Redis is optional; an empty address disables caching.
	RedisAddr     string        `mapstructure:"REDIS_ADDR"`
	RedisPassword string        `mapstructure:"REDIS_PASSWORD"`
	RedisDB       int           `mapstructure:"REDIS_DB"`
	CacheTTL      time.Duration `mapstructure:"CACHE_TTL"`

	JWTSecret string        `mapstructure:"JWT_SECRET"`
	TokenTTL  time.Duration `mapstructure:"TOKEN_TTL"`

	// Cloudinary is optional; without credentials recording upload is disabled.
	CloudinaryCloudName string `mapstructure:"CLOUDINARY_CLOUD_NAME"`
	CloudinaryAPIKey    string `mapstructure:"CLOUDINARY_API_KEY"`
	CloudinaryAPISecret string `mapstructure:"CLOUDINARY_API_SECRET"`
	RecordingFolder     string `mapstructure:"RECORDING_FOLDER"`
}

var defaults = map[string]any{
	"APP_PORT":              "8080",
	"ENV":                   "development",
	"LOG_LEVEL":             "",
	"STORE_DRIVER":          StoreMongo,
	"SHUTDOWN_TIMEOUT":      "30s",
	"MAX_REQUESTS_PER_MIN":  200,
	"MAX_UPLOAD_MB":         512,
	"TRUST_PROXY":           false,
	"DEV_TOKENS":            false,
	"CORS_ALLOWED_ORIGINS":  "*",
	"MONGO_URI":             "mongodb://localhost:27017",
	"MONGO_DATABASE":        "intervue",
	"REDIS_ADDR":            "",
	"REDIS_PASSWORD":        "",
	"REDIS_DB":              0,
	"CACHE_TTL":             "10m",
	"JWT_SECRET":            "",
	"TOKEN_TTL":             "24h",
	"CLOUDINARY_CLOUD_NAME": "",
	"CLOUDINARY_API_KEY":    "",
	"CLOUDINARY_API_SECRET": "",
	"RECORDING_FOLDER":      "interview-recordings",
}

// Load reads configuration. Paths are searched for config.yaml; with none
// given it looks in "." and "./config".
func Load(paths ...string) (*Config, error) {
	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	if len(paths) == 0 {
		paths = []string{".", "./config"}
	}
	for _, p := range paths {
		v.AddConfigPath(p)
	}
	v.AutomaticEnv()

	for k, val := range defaults {
		v.SetDefault(k, val)
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate rejects configurations the server cannot start with
func (c *Config) Validate() error {
	c.StoreDriver = strings.ToLower(c.StoreDriver)
	if c.StoreDriver != StoreMongo && c.StoreDriver != StoreMemory {
		return fmt.Errorf("STORE_DRIVER must be %q or %q, got %q", StoreMongo, StoreMemory, c.StoreDriver)
	}
	if c.JWTSecret == "" {
		if c.IsProduction() {
			return errors.New("JWT_SECRET is required in production")
		}
		c.JWTSecret = "dev-secret-change-me"
	}
	if c.DevTokens && c.IsProduction() {
		return errors.New("DEV_TOKENS must be off in production")
	}
	if c.MaxRequestsPerMin < 0 {
		return errors.New("MAX_REQUESTS_PER_MIN must not be negative")
	}
	if c.MaxUploadMB < 0 {
		return errors.New("MAX_UPLOAD_MB must not be negative")
	}
	return nil
}

func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

// RecordingEnabled reports whether Cloudinary credentials are present
func (c *Config) RecordingEnabled() bool {
	return c.CloudinaryCloudName != "" && c.CloudinaryAPIKey != "" && c.CloudinaryAPISecret != ""
}
