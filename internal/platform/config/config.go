// Package config loads server configuration: struct defaults, then an optional
// YAML file, then environment variables.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// ConfigPathEnvVar points at an optional YAML config file.
const ConfigPathEnvVar = "MEDBEE_CONFIG"

// DefaultJWTSecret is only acceptable outside production.
const DefaultJWTSecret = "medbee-default-jwt-secret-development-only"

// DefaultConfigPaths are searched when MEDBEE_CONFIG is unset.
var DefaultConfigPaths = []string{"config.yaml", "/etc/medbee/config.yaml"}

const (
	EnvDevelopment = "development"
	EnvProduction  = "production"
	EnvTest        = "test"
)

// Config is the root configuration.
type Config struct {
	Server    Server    `koanf:"server"`
	Auth      Auth      `koanf:"auth"`
	Database  Database  `koanf:"database"`
	Redis     Redis     `koanf:"redis"`
	Email     Email     `koanf:"email"`
	Chat      Chat      `koanf:"chat"`
	Audit     Audit     `koanf:"audit"`
	RateLimit RateLimit `koanf:"ratelimit"`
	Log       Log       `koanf:"log"`
	PDF       PDF       `koanf:"pdf"`
}

// Server captures HTTP server level configuration. Forwarding headers are
// ignored unless TrustProxy is set or the peer is in TrustedProxies.
type Server struct {
	Port            int           `koanf:"port"`
	Env             string        `koanf:"env"`
	FrontendURL     string        `koanf:"frontend_url"`
	CORSOrigins     []string      `koanf:"cors_origins"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout"`
	TrustProxy      bool          `koanf:"trust_proxy"`
	TrustedProxies  []string      `koanf:"trusted_proxies"`
}

// Addr returns the listen address.
func (s Server) Addr() string { return fmt.Sprintf(":%d", s.Port) }

// IsProduction reports whether the server runs in production mode.
func (s Server) IsProduction() bool { return s.Env == EnvProduction }

// IsDevelopment reports whether stack traces may be exposed.
func (s Server) IsDevelopment() bool { return s.Env == EnvDevelopment }

type Auth struct {
	JWTSecret      string        `koanf:"jwt_secret"`
	TokenTTL       time.Duration `koanf:"token_ttl"`
	AdminCookieTTL time.Duration `koanf:"admin_cookie_ttl"`
	ResetTokenTTL  time.Duration `koanf:"reset_token_ttl"`
	BcryptCost     int           `koanf:"bcrypt_cost"`
}

type Database struct {
	URL             string        `koanf:"url"`
	MaxOpenConns    int           `koanf:"max_open_conns"`
	MaxIdleConns    int           `koanf:"max_idle_conns"`
	ConnectRetries  int           `koanf:"connect_retries"`
	RetryBackoff    time.Duration `koanf:"retry_backoff"`
	MonitorInterval time.Duration `koanf:"monitor_interval"`
}

// Redis is consumed by the platform redis client.
type Redis struct {
	URL          string        `koanf:"url"`
	PoolSize     int           `koanf:"pool_size"`
	MinIdleConns int           `koanf:"min_idle_conns"`
	DialTimeout  time.Duration `koanf:"dial_timeout"`
	ReadTimeout  time.Duration `koanf:"read_timeout"`
	WriteTimeout time.Duration `koanf:"write_timeout"`
}

type Email struct {
	Host     string        `koanf:"host"`
	Port     int           `koanf:"port"`
	Secure   bool          `koanf:"secure"`
	User     string        `koanf:"user"`
	Password string        `koanf:"pass"`
	FromName string        `koanf:"from_name"`
	From     string        `koanf:"from"`
	Timeout  time.Duration `koanf:"timeout"`
}

type Chat struct {
	AIServiceURL string        `koanf:"ai_service_url"`
	Timeout      time.Duration `koanf:"timeout"`
}

type Audit struct {
	QueueSize    int      `koanf:"queue_size"`
	KafkaBrokers []string `koanf:"kafka_brokers"`
	Topic        string   `koanf:"topic"`
}

type RateLimit struct {
	Disabled      bool          `koanf:"disabled"`
	AuthRequests  int           `koanf:"auth_requests"`
	AuthWindow    time.Duration `koanf:"auth_window"`
	ResetRequests int           `koanf:"reset_requests"`
	ResetWindow   time.Duration `koanf:"reset_window"`
}

type Log struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
}

type PDF struct {
	Port        int   `koanf:"port"`
	MaxUploadMB int64 `koanf:"max_upload_mb"`
}

func (p PDF) Addr() string { return fmt.Sprintf(":%d", p.Port) }

// MaxUploadBytes is the upload limit in bytes.
func (p PDF) MaxUploadBytes() int64 { return p.MaxUploadMB << 20 }

// Default returns the built-in defaults.
func Default() Config {
	return Config{
		Server: Server{
			Port:            5000,
			Env:             EnvDevelopment,
			FrontendURL:     "http://localhost:3000",
			CORSOrigins:     []string{"*"},
			ShutdownTimeout: 10 * time.Second,
		},
		Auth: Auth{
			JWTSecret:      DefaultJWTSecret,
			TokenTTL:       30 * 24 * time.Hour,
			AdminCookieTTL: 24 * time.Hour,
			ResetTokenTTL:  time.Hour,
			BcryptCost:     10,
		},
		Database: Database{
			MaxOpenConns:    10,
			MaxIdleConns:    5,
			ConnectRetries:  5,
			RetryBackoff:    2 * time.Second,
			MonitorInterval: 15 * time.Second,
		},
		Redis: Redis{
			PoolSize:     10,
			MinIdleConns: 2,
			DialTimeout:  5 * time.Second,
			ReadTimeout:  3 * time.Second,
			WriteTimeout: 3 * time.Second,
		},
		Email: Email{
			Port:     587,
			FromName: "MedBee",
			From:     "no-reply@medbee.com",
			Timeout:  10 * time.Second,
		},
		Chat: Chat{Timeout: 30 * time.Second},
		Audit: Audit{
			QueueSize: 1024,
			Topic:     "medbee.audit",
		},
		RateLimit: RateLimit{
			AuthRequests:  10,
			AuthWindow:    15 * time.Minute,
			ResetRequests: 3,
			ResetWindow:   time.Hour,
		},
		Log: Log{Level: "info", Format: "json"},
		PDF: PDF{Port: 4000, MaxUploadMB: 20},
	}
}

// Load builds a Config from defaults, the optional YAML file and the environment.
func Load() (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(structs.Provider(Default(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("load defaults: %w", err)
	}

	if path := findConfigFile(); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("load config file %s: %w", path, err)
		}
	}

	if err := k.Load(env.Provider("", ".", envTransform), nil); err != nil {
		return nil, fmt.Errorf("load environment: %w", err)
	}

	if err := splitListFields(k); err != nil {
		return nil, err
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("unmarshal configuration: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return cfg, nil
}

// Validate rejects configurations the server cannot run with.
func (c *Config) Validate() error {
	var errs []error
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Errorf("server.port %d out of range", c.Server.Port))
	}
	switch c.Server.Env {
	case EnvDevelopment, EnvProduction, EnvTest:
	default:
		errs = append(errs, fmt.Errorf("server.env %q must be development, production or test", c.Server.Env))
	}
	switch strings.ToLower(c.Log.Format) {
	case "json", "console":
	default:
		errs = append(errs, fmt.Errorf("log.format %q must be json or console", c.Log.Format))
	}
	if c.Auth.JWTSecret == "" {
		errs = append(errs, errors.New("auth.jwt_secret must not be empty"))
	}
	if c.Auth.TokenTTL <= 0 || c.Auth.AdminCookieTTL <= 0 {
		errs = append(errs, errors.New("token lifetimes must be positive"))
	}
	if c.Audit.QueueSize <= 0 {
		errs = append(errs, errors.New("audit.queue_size must be positive"))
	}
	return errors.Join(errs...)
}

// UsesDefaultSecret reports whether the development signing secret is in use.
func (c *Config) UsesDefaultSecret() bool {
	return c.Auth.JWTSecret == DefaultJWTSecret
}

func findConfigFile() string {
	if p := os.Getenv(ConfigPathEnvVar); p != "" {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	for _, p := range DefaultConfigPaths {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	return ""
}

// envMappings maps the deployment's environment variable names to config paths.
var envMappings = map[string]string{
	"port":            "server.port",
	"node_env":        "server.env",
	"medbee_env":      "server.env",
	"frontend_url":    "server.frontend_url",
	"cors_origins":    "server.cors_origins",
	"trust_proxy":     "server.trust_proxy",
	"trusted_proxies": "server.trusted_proxies",
	"jwt_secret":      "auth.jwt_secret",
	"jwt_expire":      "auth.token_ttl",
	"database_url":    "database.url",
	"redis_url":       "redis.url",
	"email_host":      "email.host",
	"email_port":      "email.port",
	"email_secure":    "email.secure",
	"email_user":      "email.user",
	"email_pass":      "email.pass",
	"email_from_name": "email.from_name",
	"email_from":      "email.from",
	"ai_service_url":  "chat.ai_service_url",
	"kafka_brokers":   "audit.kafka_brokers",
	"audit_topic":     "audit.topic",
	"audit_queue":     "audit.queue_size",
	"rate_limit_off":  "ratelimit.disabled",
	"log_level":       "log.level",
	"log_format":      "log.format",
	"pdf_port":        "pdf.port",
	"pdf_max_upload":  "pdf.max_upload_mb",
}

// envTransform returns "" for unknown variables so they are ignored.
func envTransform(key string) string {
	return envMappings[strings.ToLower(key)]
}

var listPaths = []string{"server.cors_origins", "server.trusted_proxies", "audit.kafka_brokers"}

// splitListFields turns comma separated env values into slices.
func splitListFields(k *koanf.Koanf) error {
	for _, path := range listPaths {
		raw, ok := k.Get(path).(string)
		if !ok {
			continue
		}
		var parts []string
		for _, p := range strings.Split(raw, ",") {
			if p = strings.TrimSpace(p); p != "" {
				parts = append(parts, p)
			}
		}
		if err := k.Set(path, parts); err != nil {
			return fmt.Errorf("set %s: %w", path, err)
		}
	}
	return nil
}
