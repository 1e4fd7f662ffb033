package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/robfig/cron"
)

type Config struct {
	Server    ServerConfig    `koanf:"server"`
	Log       LogConfig       `koanf:"log"`
	Database  DatabaseConfig  `koanf:"database"`
	Redis     RedisConfig     `koanf:"redis"`
	Auth      AuthConfig      `koanf:"auth"`
	RateLimit RateLimitConfig `koanf:"rate_limit"`
	Analytics AnalyticsConfig `koanf:"analytics"`
	Scheduler SchedulerConfig `koanf:"scheduler"`
}

type ServerConfig struct {
	Port            string        `koanf:"port"`
	GinMode         string        `koanf:"gin_mode"`
	ReadTimeout     time.Duration `koanf:"read_timeout"`
	WriteTimeout    time.Duration `koanf:"write_timeout"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout"`
}

type LogConfig struct {
	Mode  string `koanf:"mode"`
	Level string `koanf:"level"`
}

const (
	DriverPostgres = "postgres"
	DriverMemory   = "memory"
)

type DatabaseConfig struct {
	Driver          string        `koanf:"driver"`
	Host            string        `koanf:"host"`
	Port            string        `koanf:"port"`
	User            string        `koanf:"user"`
	Password        string        `koanf:"password"`
	Name            string        `koanf:"name"`
	SSLMode         string        `koanf:"sslmode"`
	MaxOpenConns    int           `koanf:"max_open_conns"`
	MaxIdleConns    int           `koanf:"max_idle_conns"`
	ConnMaxLifetime time.Duration `koanf:"conn_max_lifetime"`
}

func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=%s",
		d.User, d.Password, d.Host, d.Port, d.Name, d.SSLMode)
}

type RedisConfig struct {
	Enabled  bool          `koanf:"enabled"`
	Host     string        `koanf:"host"`
	Port     string        `koanf:"port"`
	Password string        `koanf:"password"`
	DB       int           `koanf:"db"`
	PoolSize int           `koanf:"pool_size"`
	CacheTTL time.Duration `koanf:"cache_ttl"`
}

type AuthConfig struct {
	JWTSecret string        `koanf:"jwt_secret"`
	JWTIssuer string        `koanf:"jwt_issuer"`
	TokenTTL  time.Duration `koanf:"token_ttl"`
	AdminKey  string        `koanf:"admin_key"`
}

type RateLimitConfig struct {
	Requests int           `koanf:"requests"`
	Window   time.Duration `koanf:"window"`
}

type AnalyticsConfig struct {
	Timezone             string `koanf:"timezone"`
	WeekStart            string `koanf:"week_start"`
	HistoryRetentionDays int    `koanf:"history_retention_days"`
	MaxWriteAttempts     int    `koanf:"max_write_attempts"`
	ResetConcurrency     int    `koanf:"reset_concurrency"`
	QueueSize            int    `koanf:"queue_size"`
}

// Location resolves Timezone. Validate has already rejected unknown zones.
func (a AnalyticsConfig) Location() *time.Location {
	loc, err := time.LoadLocation(a.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

func (a AnalyticsConfig) WeekStartDay() time.Weekday {
	day, _ := parseWeekday(a.WeekStart)
	return day
}

type SchedulerConfig struct {
	Enabled    bool          `koanf:"enabled"`
	Daily      string        `koanf:"daily"`
	Weekly     string        `koanf:"weekly"`
	Monthly    string        `koanf:"monthly"`
	RunTimeout time.Duration `koanf:"run_timeout"`
}

var weekdays = map[string]time.Weekday{
	"sunday":    time.Sunday,
	"monday":    time.Monday,
	"tuesday":   time.Tuesday,
	"wednesday": time.Wednesday,
	"thursday":  time.Thursday,
	"friday":    time.Friday,
	"saturday":  time.Saturday,
}

func parseWeekday(s string) (time.Weekday, error) {
	day, ok := weekdays[strings.ToLower(strings.TrimSpace(s))]
	if !ok {
		return time.Monday, fmt.Errorf("unknown weekday %q", s)
	}
	return day, nil
}

// Validate reports every problem at once.
func (c *Config) Validate() error {
	var errs []error

	if c.Server.Port == "" {
		errs = append(errs, errors.New("server.port is required"))
	}

	switch c.Database.Driver {
	case DriverMemory:
	case DriverPostgres:
		if c.Database.Host == "" || c.Database.Name == "" || c.Database.User == "" {
			errs = append(errs, errors.New("database host, name and user are required for the postgres driver"))
		}
	default:
		errs = append(errs, fmt.Errorf("database.driver must be %q or %q, got %q", DriverPostgres, DriverMemory, c.Database.Driver))
	}

	if c.Redis.Enabled && c.Redis.Host == "" {
		errs = append(errs, errors.New("redis.host is required when redis is enabled"))
	}

	if c.Auth.JWTSecret == "" {
		errs = append(errs, errors.New("auth.jwt_secret is required"))
	}
	if c.Auth.TokenTTL <= 0 {
		errs = append(errs, errors.New("auth.token_ttl must be positive"))
	}

	if c.RateLimit.Requests < 0 {
		errs = append(errs, errors.New("rate_limit.requests cannot be negative"))
	}

	if _, err := time.LoadLocation(c.Analytics.Timezone); err != nil {
		errs = append(errs, fmt.Errorf("analytics.timezone: %w", err))
	}
	if _, err := parseWeekday(c.Analytics.WeekStart); err != nil {
		errs = append(errs, fmt.Errorf("analytics.week_start: %w", err))
	}
	if c.Analytics.HistoryRetentionDays < 0 {
		errs = append(errs, errors.New("analytics.history_retention_days cannot be negative"))
	}
	if c.Analytics.MaxWriteAttempts < 1 {
		errs = append(errs, errors.New("analytics.max_write_attempts must be at least 1"))
	}
	if c.Analytics.ResetConcurrency < 1 {
		errs = append(errs, errors.New("analytics.reset_concurrency must be at least 1"))
	}
	if c.Analytics.QueueSize < 1 {
		errs = append(errs, errors.New("analytics.queue_size must be at least 1"))
	}

	for name, spec := range map[string]string{
		"daily":   c.Scheduler.Daily,
		"weekly":  c.Scheduler.Weekly,
		"monthly": c.Scheduler.Monthly,
	} {
		if spec == "" {
			continue
		}
		if _, err := cron.Parse(spec); err != nil {
			errs = append(errs, fmt.Errorf("scheduler.%s: %w", name, err))
		}
	}

	return errors.Join(errs...)
}
