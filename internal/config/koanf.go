package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

const ConfigPathEnvVar = "CONFIG_PATH"

var DefaultConfigPaths = []string{
	"config.yaml",
	"config.yml",
}

func defaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Port:            "8080",
			GinMode:         "release",
			ReadTimeout:     10 * time.Second,
			WriteTimeout:    10 * time.Second,
			ShutdownTimeout: 5 * time.Second,
		},
		Log: LogConfig{
			Mode:  "production",
			Level: "info",
		},
		Database: DatabaseConfig{
			Driver:          DriverPostgres,
			Host:            "localhost",
			Port:            "5432",
			User:            "kanso_user",
			Name:            "kanso_db",
			SSLMode:         "disable",
			MaxOpenConns:    25,
			MaxIdleConns:    25,
			ConnMaxLifetime: 5 * time.Minute,
		},
		Redis: RedisConfig{
			Enabled:  false,
			Host:     "localhost",
			Port:     "6379",
			PoolSize: 10,
			CacheTTL: 10 * time.Minute,
		},
		Auth: AuthConfig{
			JWTIssuer: "kanso-sync-engine",
			TokenTTL:  24 * time.Hour,
		},
		RateLimit: RateLimitConfig{
			Requests: 100,
			Window:   time.Minute,
		},
		Analytics: AnalyticsConfig{
			Timezone:         "UTC",
			WeekStart:        "monday",
			MaxWriteAttempts: 3,
			ResetConcurrency: 4,
			QueueSize:        100,
		},
		Scheduler: SchedulerConfig{
			Enabled:    true,
			RunTimeout: 10 * time.Minute,
		},
	}
}

// Load reads a local .env if present, then layers defaults, the optional
// YAML file and the environment, highest priority last.
func Load() (*Config, error) {
	_ = godotenv.Load()

	k := koanf.New(".")

	if err := k.Load(structs.Provider(defaultConfig(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	if path := findConfigFile(); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", path, err)
		}
	}

	if err := k.Load(env.Provider("", ".", envTransformFunc), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return cfg, nil
}

func findConfigFile() string {
	if envPath := os.Getenv(ConfigPathEnvVar); envPath != "" {
		if _, err := os.Stat(envPath); err == nil {
			return envPath
		}
	}
	for _, path := range DefaultConfigPaths {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}

var envMappings = map[string]string{
	"port":             "server.port",
	"gin_mode":         "server.gin_mode",
	"read_timeout":     "server.read_timeout",
	"write_timeout":    "server.write_timeout",
	"shutdown_timeout": "server.shutdown_timeout",

	"log_mode":  "log.mode",
	"log_level": "log.level",

	"db_driver":            "database.driver",
	"db_host":              "database.host",
	"db_port":              "database.port",
	"db_user":              "database.user",
	"db_password":          "database.password",
	"db_name":              "database.name",
	"db_sslmode":           "database.sslmode",
	"db_max_open_conns":    "database.max_open_conns",
	"db_max_idle_conns":    "database.max_idle_conns",
	"db_conn_max_lifetime": "database.conn_max_lifetime",

	"redis_enabled":       "redis.enabled",
	"redis_host":          "redis.host",
	"redis_port":          "redis.port",
	"redis_password":      "redis.password",
	"redis_db":            "redis.db",
	"redis_pool_size":     "redis.pool_size",
	"analytics_cache_ttl": "redis.cache_ttl",

	"jwt_secret":    "auth.jwt_secret",
	"jwt_issuer":    "auth.jwt_issuer",
	"jwt_ttl":       "auth.token_ttl",
	"admin_api_key": "auth.admin_key",

	"rate_limit_requests": "rate_limit.requests",
	"rate_limit_window":   "rate_limit.window",

	"analytics_timezone":               "analytics.timezone",
	"analytics_week_start":             "analytics.week_start",
	"analytics_history_retention_days": "analytics.history_retention_days",
	"analytics_max_write_attempts":     "analytics.max_write_attempts",
	"analytics_reset_concurrency":      "analytics.reset_concurrency",
	"analytics_queue_size":             "analytics.queue_size",

	"reset_scheduler_enabled": "scheduler.enabled",
	"reset_cron_daily":        "scheduler.daily",
	"reset_cron_weekly":       "scheduler.weekly",
	"reset_cron_monthly":      "scheduler.monthly",
	"reset_run_timeout":       "scheduler.run_timeout",
}

// envTransformFunc maps the flat environment names onto config paths.
// Unknown variables map to "" and are skipped.
func envTransformFunc(key string) string {
	return envMappings[strings.ToLower(key)]
}
