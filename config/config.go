// Package config reads service settings from the environment and an optional
// YAML policy file.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

type Config struct {
	Mode string // APP_MODE: development | production
	Port string

	DatabaseDSN string // 为空时由 DB_HOST/DB_USER/... 拼出
	RedisAddr   string
	RedisPwd    string

	WebOrigin      string
	ExtraOrigins   []string
	SessionTTL     time.Duration
	SeenThrottle   time.Duration
	BootstrapEmail string
	BootstrapName  string

	Lending Lending

	// NotifyBackend: log | redis | mail
	NotifyBackend string
	PolicyFile    string
}

// Lending 是业务规则，可被 POLICY_FILE 覆盖
type Lending struct {
	ReservationDays   int
	FallbackRecipient string
	StrictNotify      bool
}

func Load() (*Config, error) {
	c := &Config{}
	loadEnvString(&c.Mode, "APP_MODE", "development")
	loadEnvString(&c.Port, "PORT", "3001")
	loadEnvString(&c.DatabaseDSN, "DATABASE_URL", "")
	loadEnvString(&c.RedisAddr, "REDIS_ADDR", "127.0.0.1:6379")
	loadEnvString(&c.RedisPwd, "REDIS_PASSWORD", "")
	loadEnvString(&c.WebOrigin, "WEB_ORIGIN", "http://localhost:5173")
	loadEnvStringSlice(&c.ExtraOrigins, "CORS_ORIGINS", nil)
	loadEnvString(&c.BootstrapEmail, "BOOTSTRAP_PROFESSOR_EMAIL", "")
	loadEnvString(&c.BootstrapName, "BOOTSTRAP_PROFESSOR_NAME", "Professor")
	loadEnvString(&c.Lending.FallbackRecipient, "NOTIFY_FALLBACK_EMAIL", "")
	loadEnvString(&c.NotifyBackend, "NOTIFY_BACKEND", "log")
	loadEnvString(&c.PolicyFile, "POLICY_FILE", "")

	var errs []error
	errs = append(errs,
		loadEnvSeconds(&c.SessionTTL, "SESSION_TTL_SECONDS", 24*time.Hour),
		loadEnvSeconds(&c.SeenThrottle, "SEEN_THROTTLE_SECONDS", 5*time.Minute),
		loadEnvInt(&c.Lending.ReservationDays, "RESERVATION_DAYS", 3),
		loadEnvBool(&c.Lending.StrictNotify, "NOTIFY_STRICT", false),
	)
	if err := errors.Join(errs...); err != nil {
		return nil, err
	}

	if c.PolicyFile != "" {
		f, err := LoadFile(c.PolicyFile)
		if err != nil {
			return nil, err
		}
		f.Policy.apply(&c.Lending)
	}
	c.NotifyBackend = strings.ToLower(c.NotifyBackend)
	return c, c.Validate()
}

func (c *Config) Validate() error {
	var problems []string
	if c.Lending.ReservationDays < 1 {
		problems = append(problems, "RESERVATION_DAYS must be at least 1")
	}
	if c.SessionTTL <= 0 {
		problems = append(problems, "SESSION_TTL_SECONDS must be positive")
	}
	switch c.NotifyBackend {
	case "log", "redis", "mail":
	default:
		problems = append(problems, fmt.Sprintf("NOTIFY_BACKEND %q is not one of log, redis, mail", c.NotifyBackend))
	}
	if len(problems) > 0 {
		return fmt.Errorf("invalid configuration: %s", strings.Join(problems, "; "))
	}
	return nil
}

func (c *Config) Production() bool { return c.Mode == "production" }

func (c *Config) SecureCookies() bool { return strings.HasPrefix(c.WebOrigin, "https://") }

func (l Lending) ReservationPeriod() time.Duration {
	return time.Duration(l.ReservationDays) * 24 * time.Hour
}
