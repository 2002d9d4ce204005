package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

const (
	defaultDBPath          = "./dev.db"
	defaultPort            = "8080"
	defaultAppEnv          = "dev"
	defaultRequestTimeout  = 15 * time.Second
	defaultShutdownTimeout = 10 * time.Second
)

// Config holds application configuration sourced from environment variables.
type Config struct {
	AppEnv            string
	Port              string
	DBPath            string
	SessionSecret     string
	PricingConfigPath string
	CatalogSeedPath   string
	LogMode           string
	MigrateOnStart    bool
	RequestTimeout    time.Duration
	ShutdownTimeout   time.Duration
}

// Load reads environment variables and returns a populated Config along with
// non-fatal warnings for the caller to log.
func Load() (Config, []string) {
	var warnings []string

	// Best-effort: local development reads .env, production injects real env.
	if _, err := loadDotEnv(".env"); err != nil {
		warnings = append(warnings, "ignoring .env: "+err.Error())
	}

	cfg := Config{
		AppEnv:            getEnv("APP_ENV", defaultAppEnv),
		Port:              getEnv("PORT", defaultPort),
		DBPath:            getEnv("DB_PATH", defaultDBPath),
		SessionSecret:     os.Getenv("SESSION_SECRET"),
		PricingConfigPath: os.Getenv("PRICING_CONFIG_PATH"),
		CatalogSeedPath:   os.Getenv("CATALOG_SEED_PATH"),
		LogMode:           os.Getenv("LOG_MODE"),
	}

	var err error
	if cfg.MigrateOnStart, err = getEnvBool("MIGRATE_ON_START", true); err != nil {
		warnings = append(warnings, "MIGRATE_ON_START is not a boolean, using true")
	}
	if cfg.RequestTimeout, err = getEnvDuration("REQUEST_TIMEOUT", defaultRequestTimeout); err != nil {
		warnings = append(warnings, "REQUEST_TIMEOUT is not a duration, using "+defaultRequestTimeout.String())
	}
	if cfg.ShutdownTimeout, err = getEnvDuration("SHUTDOWN_TIMEOUT", defaultShutdownTimeout); err != nil {
		warnings = append(warnings, "SHUTDOWN_TIMEOUT is not a duration, using "+defaultShutdownTimeout.String())
	}

	if cfg.LogMode == "" {
		cfg.LogMode = "dev"
		if !cfg.IsDev() {
			cfg.LogMode = "prod"
		}
	}
	if cfg.SessionSecret == "" {
		warnings = append(warnings, "SESSION_SECRET is not set")
	}

	return cfg, warnings
}

// IsDev reports whether the app runs in a local development environment.
func (c Config) IsDev() bool {
	switch strings.ToLower(c.AppEnv) {
	case "", "dev", "development", "local":
		return true
	default:
		return false
	}
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getEnvBool(key string, def bool) (bool, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return def, err
	}
	return b, nil
}

func getEnvDuration(key string, def time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil || d <= 0 {
		return def, err
	}
	return d, nil
}
