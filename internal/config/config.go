package config

import (
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config holds all application configuration
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Session  SessionConfig  `yaml:"session"`
	Backend  BackendConfig  `yaml:"backend"`
	Mail     MailConfig     `yaml:"mail"`
	Database DatabaseConfig `yaml:"database"`
	Snapshot SnapshotConfig `yaml:"snapshot"`
}

// ServerConfig holds HTTP server settings
type ServerConfig struct {
	Port           string        `yaml:"port"`
	Env            string        `yaml:"env"`
	ReadTimeout    time.Duration `yaml:"read_timeout"`
	WriteTimeout   time.Duration `yaml:"write_timeout"`
	AllowedOrigins []string      `yaml:"allowed_origins"`
	// PublicURL is where the frontend lives; email links point here
	PublicURL string `yaml:"public_url"`
	SiteName  string `yaml:"site_name"`
	RateLimit int    `yaml:"rate_limit"` // requests per minute per IP
	LogLevel  string `yaml:"log_level"`
}

// SessionConfig holds the session cookie settings
type SessionConfig struct {
	CookieName string `yaml:"cookie_name"`
	// Secret seeds the cookie signing and encryption keys
	Secret string `yaml:"secret"`
}

// BackendConfig holds processing loop settings
type BackendConfig struct {
	TickInterval   time.Duration `yaml:"tick_interval"`
	AdminEmails    []string      `yaml:"admin_emails"`
	LoginTokenTTL  time.Duration `yaml:"login_token_ttl"`
	DeleteTokenTTL time.Duration `yaml:"delete_token_ttl"`
	InboxSize      int           `yaml:"inbox_size"`
}

// MailConfig holds outbound SMTP settings. An empty host logs emails
// instead of sending them.
type MailConfig struct {
	Host     string        `yaml:"host"`
	Port     int           `yaml:"port"`
	Username string        `yaml:"username"`
	Password string        `yaml:"password"`
	From     string        `yaml:"from"`
	Timeout  time.Duration `yaml:"timeout"`
}

// DatabaseConfig holds SurrealDB connection settings
type DatabaseConfig struct {
	Host      string `yaml:"host"`
	Port      string `yaml:"port"`
	Namespace string `yaml:"namespace"`
	Database  string `yaml:"database"`
	User      string `yaml:"user"`
	Password  string `yaml:"password"`
	TLS       bool   `yaml:"tls"`
}

// SnapshotConfig controls state snapshots
type SnapshotConfig struct {
	Enabled   bool          `yaml:"enabled"`
	Schedule  string        `yaml:"schedule"`
	Retention time.Duration `yaml:"retention"`
	// Restore loads the latest snapshot at boot
	Restore bool `yaml:"restore"`
}

// minSecretLength matches the cookie key derivation requirement
const minSecretLength = 32

// Default returns the built-in defaults
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Port:           "8080",
			Env:            "development",
			ReadTimeout:    15 * time.Second,
			WriteTimeout:   15 * time.Second,
			AllowedOrigins: []string{"http://localhost:3000"},
			PublicURL:      "http://localhost:3000",
			SiteName:       "Gather",
			RateLimit:      60,
			LogLevel:       "info",
		},
		Session: SessionConfig{
			CookieName: "gather_session",
		},
		Backend: BackendConfig{
			TickInterval:   time.Minute,
			LoginTokenTTL:  time.Hour,
			DeleteTokenTTL: time.Hour,
			InboxSize:      256,
		},
		Mail: MailConfig{
			Port:    587,
			From:    "Gather <noreply@localhost>",
			Timeout: 30 * time.Second,
		},
		Database: DatabaseConfig{
			Host:      "localhost",
			Port:      "8000",
			Namespace: "gather",
			Database:  "main",
			User:      "root",
			Password:  "root",
		},
		Snapshot: SnapshotConfig{
			Schedule:  "@every 5m",
			Retention: 24 * time.Hour,
			Restore:   true,
		},
	}
}

// Load builds the configuration. Precedence, lowest first: defaults, the
// YAML file named by CONFIG_FILE, then environment variables (a .env file
// in the working directory is loaded into the environment first).
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	cfg := Default()
	if path := os.Getenv("CONFIG_FILE"); path != "" {
		if err := cfg.overlayFile(path); err != nil {
			return nil, err
		}
	}
	cfg.applyEnv()
	return cfg, nil
}

func (c *Config) overlayFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("parse config file %s: %w", path, err)
	}
	return nil
}

func (c *Config) applyEnv() {
	s := &c.Server
	s.Port = getEnv("SERVER_PORT", s.Port)
	s.Env = getEnv("SERVER_ENV", s.Env)
	s.ReadTimeout = getDurationEnv("SERVER_READ_TIMEOUT", s.ReadTimeout)
	s.WriteTimeout = getDurationEnv("SERVER_WRITE_TIMEOUT", s.WriteTimeout)
	s.AllowedOrigins = getSliceEnv("CORS_ALLOWED_ORIGINS", s.AllowedOrigins)
	s.PublicURL = getEnv("PUBLIC_URL", s.PublicURL)
	s.SiteName = getEnv("SITE_NAME", s.SiteName)
	s.RateLimit = getIntEnv("RATE_LIMIT_PER_MINUTE", s.RateLimit)
	s.LogLevel = getEnv("LOG_LEVEL", s.LogLevel)

	c.Session.CookieName = getEnv("SESSION_COOKIE_NAME", c.Session.CookieName)
	c.Session.Secret = getEnv("SESSION_SECRET", c.Session.Secret)

	b := &c.Backend
	b.TickInterval = getDurationEnv("TICK_INTERVAL", b.TickInterval)
	b.AdminEmails = getSliceEnv("ADMIN_EMAILS", b.AdminEmails)
	b.LoginTokenTTL = getDurationEnv("LOGIN_TOKEN_TTL", b.LoginTokenTTL)
	b.DeleteTokenTTL = getDurationEnv("DELETE_TOKEN_TTL", b.DeleteTokenTTL)
	b.InboxSize = getIntEnv("INBOX_SIZE", b.InboxSize)

	m := &c.Mail
	m.Host = getEnv("SMTP_HOST", m.Host)
	m.Port = getIntEnv("SMTP_PORT", m.Port)
	m.Username = getEnv("SMTP_USERNAME", m.Username)
	m.Password = getEnv("SMTP_PASSWORD", m.Password)
	m.From = getEnv("SMTP_FROM", m.From)
	m.Timeout = getDurationEnv("SMTP_TIMEOUT", m.Timeout)

	d := &c.Database
	d.Host = getEnv("DB_HOST", d.Host)
	d.Port = getEnv("DB_PORT", d.Port)
	d.Namespace = getEnv("DB_NAMESPACE", d.Namespace)
	d.Database = getEnv("DB_DATABASE", d.Database)
	d.User = getEnv("DB_USER", d.User)
	d.Password = getEnv("DB_PASSWORD", d.Password)
	d.TLS = getBoolEnv("DB_TLS", d.TLS)

	sn := &c.Snapshot
	sn.Enabled = getBoolEnv("SNAPSHOT_ENABLED", sn.Enabled)
	sn.Schedule = getEnv("SNAPSHOT_SCHEDULE", sn.Schedule)
	sn.Retention = getDurationEnv("SNAPSHOT_RETENTION", sn.Retention)
	sn.Restore = getBoolEnv("SNAPSHOT_RESTORE", sn.Restore)
}

// IsDevelopment returns true if running in development mode
func (c *Config) IsDevelopment() bool {
	return c.Server.Env == "development"
}

// IsProduction returns true if running in production mode
func (c *Config) IsProduction() bool {
	return c.Server.Env == "production"
}

// MailEnabled reports whether emails go out over SMTP
func (c *Config) MailEnabled() bool {
	return c.Mail.Host != ""
}

// Validate checks every section and reports all problems at once
func (c *Config) Validate() error {
	var errs []error

	if c.Server.Port == "" {
		errs = append(errs, errors.New("SERVER_PORT is required"))
	}
	if c.Server.Env != "development" && c.Server.Env != "production" && c.Server.Env != "test" {
		errs = append(errs, fmt.Errorf("SERVER_ENV must be 'development', 'production', or 'test', got '%s'", c.Server.Env))
	}
	if len(c.Server.AllowedOrigins) == 0 {
		errs = append(errs, errors.New("CORS_ALLOWED_ORIGINS must have at least one origin"))
	}
	if u, err := url.Parse(c.Server.PublicURL); err != nil || u.Scheme == "" || u.Host == "" {
		errs = append(errs, fmt.Errorf("PUBLIC_URL must be an absolute URL, got '%s'", c.Server.PublicURL))
	}
	if c.Server.RateLimit <= 0 {
		errs = append(errs, errors.New("RATE_LIMIT_PER_MINUTE must be positive"))
	}
	switch strings.ToLower(c.Server.LogLevel) {
	case "debug", "info", "warn", "error":
	default:
		errs = append(errs, fmt.Errorf("LOG_LEVEL must be debug, info, warn or error, got '%s'", c.Server.LogLevel))
	}

	if c.Session.CookieName == "" {
		errs = append(errs, errors.New("SESSION_COOKIE_NAME is required"))
	}
	if len(c.Session.Secret) < minSecretLength {
		errs = append(errs, fmt.Errorf("SESSION_SECRET must be at least %d bytes", minSecretLength))
	}

	if c.Backend.TickInterval <= 0 {
		errs = append(errs, errors.New("TICK_INTERVAL must be positive"))
	}
	if c.Backend.LoginTokenTTL <= 0 || c.Backend.DeleteTokenTTL <= 0 {
		errs = append(errs, errors.New("LOGIN_TOKEN_TTL and DELETE_TOKEN_TTL must be positive"))
	}

	if c.MailEnabled() {
		if c.Mail.Port <= 0 || c.Mail.Port > 65535 {
			errs = append(errs, fmt.Errorf("SMTP_PORT out of range: %d", c.Mail.Port))
		}
		if c.Mail.From == "" {
			errs = append(errs, errors.New("SMTP_FROM is required when SMTP_HOST is set"))
		}
	} else if c.IsProduction() {
		errs = append(errs, errors.New("SMTP_HOST is required in production"))
	}

	if c.Snapshot.Enabled {
		if c.Database.Host == "" {
			errs = append(errs, errors.New("DB_HOST is required when snapshots are enabled"))
		}
		if c.Database.Port == "" {
			errs = append(errs, errors.New("DB_PORT is required when snapshots are enabled"))
		}
		if c.Database.Namespace == "" || c.Database.Database == "" {
			errs = append(errs, errors.New("DB_NAMESPACE and DB_DATABASE are required when snapshots are enabled"))
		}
		if c.Snapshot.Schedule == "" {
			errs = append(errs, errors.New("SNAPSHOT_SCHEDULE is required when snapshots are enabled"))
		}
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}
	return nil
}

// Helper functions for reading environment variables

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getIntEnv(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return defaultValue
}

func getDurationEnv(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}

func getSliceEnv(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	parts := strings.Split(value, ",")
	out := parts[:0]
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func getBoolEnv(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}
