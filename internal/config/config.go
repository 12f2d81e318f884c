// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package config

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/gorilla/securecookie"
	altsrc "github.com/urfave/cli-altsrc/v3"
	"github.com/urfave/cli-altsrc/v3/toml"
	"github.com/urfave/cli/v3"
)

var configFile = altsrc.StringSourcer("config.toml")

// Storage drivers for the durable backend.
const (
	DriverSQLite = "sqlite"
	DriverRedis  = "redis"
	DriverMemory = "memory"
)

type Config struct { //nolint:govet // fieldalignment not critical for config structs
	Server   ServerConfig
	Log      LogConfig
	Database DatabaseConfig
	SMTP     SMTPConfig
	Auth     AuthConfig
	Generate GenerateConfig
}

type ServerConfig struct { //nolint:govet // fieldalignment not critical for config structs
	Host        string
	Port        int
	BaseURL     string
	MaxBodySize int // in MB
}

type LogConfig struct {
	Level  string // debug, info, warn, error
	Format string // text, json
}

type DatabaseConfig struct { //nolint:govet // fieldalignment not critical for config structs
	Driver        string // sqlite, redis, memory
	DSN           string
	RedisAddr     string
	RedisPassword string
	RedisDB       int
	RedisPrefix   string
	PurgeInterval time.Duration
}

type SMTPConfig struct { //nolint:govet // fieldalignment not critical for config structs
	Host       string
	Port       int
	Username   string
	Password   string
	From       string
	FromName   string
	TLS        bool
	PreviewURL string // optional, "{id}" is replaced with the message ID
}

// Enabled reports whether a real delivery channel is configured.
func (c SMTPConfig) Enabled() bool {
	return c.Host != ""
}

type AuthConfig struct { //nolint:govet // fieldalignment not critical for config structs
	PendingSecret   string
	ExposeOTP       bool
	EnableTestEmail bool
}

type GenerateConfig struct { //nolint:govet // fieldalignment not critical for config structs
	APIKey         string
	BaseURL        string
	PrimaryModel   string
	FallbackModel  string
	RatePerMinute  int
	RequestTimeout time.Duration
}

func NewFromCLI(cmd *cli.Command) *Config {
	cfg := &Config{
		Server: ServerConfig{
			Host:        cmd.String("host"),
			Port:        int(cmd.Int("port")),
			BaseURL:     cmd.String("base-url"),
			MaxBodySize: int(cmd.Int("max-body-size")),
		},
		Log: LogConfig{
			Level:  cmd.String("log-level"),
			Format: cmd.String("log-format"),
		},
		Database: DatabaseConfig{
			Driver:        strings.ToLower(cmd.String("database-driver")),
			DSN:           cmd.String("database-dsn"),
			RedisAddr:     cmd.String("redis-addr"),
			RedisPassword: cmd.String("redis-password"),
			RedisDB:       int(cmd.Int("redis-db")),
			RedisPrefix:   cmd.String("redis-prefix"),
			PurgeInterval: cmd.Duration("purge-interval"),
		},
		SMTP: SMTPConfig{
			Host:       cmd.String("smtp-host"),
			Port:       int(cmd.Int("smtp-port")),
			Username:   cmd.String("smtp-username"),
			Password:   cmd.String("smtp-password"),
			From:       cmd.String("smtp-from"),
			FromName:   cmd.String("smtp-from-name"),
			TLS:        cmd.Bool("smtp-tls"),
			PreviewURL: cmd.String("smtp-preview-url"),
		},
		Auth: AuthConfig{
			PendingSecret:   cmd.String("pending-secret"),
			ExposeOTP:       cmd.Bool("expose-otp"),
			EnableTestEmail: cmd.Bool("enable-test-email"),
		},
		Generate: GenerateConfig{
			APIKey:         cmd.String("gemini-api-key"),
			BaseURL:        cmd.String("gemini-base-url"),
			PrimaryModel:   cmd.String("gemini-primary-model"),
			FallbackModel:  cmd.String("gemini-fallback-model"),
			RatePerMinute:  int(cmd.Int("gemini-rate-per-minute")),
			RequestTimeout: cmd.Duration("gemini-timeout"),
		},
	}

	if cfg.Server.BaseURL == "" {
		cfg.Server.BaseURL = buildBaseURL(cfg)
	}

	applySMTPDefaults(cfg)

	return cfg
}

// applySMTPDefaults falls back to the SMTP username as sender address.
func applySMTPDefaults(cfg *Config) {
	if cfg.SMTP.From == "" {
		cfg.SMTP.From = cfg.SMTP.Username
	}
	if cfg.SMTP.From == "" {
		cfg.SMTP.From = "no-reply@ui2code.test"
	}
}

// PendingSecretBytes returns the key used to sign pending tokens.
// The configured value is used verbatim as the HMAC key. An empty secret
// yields a random key, so tokens issued before a restart stop verifying.
func (c AuthConfig) PendingSecretBytes() ([]byte, error) {
	if c.PendingSecret == "" {
		key := securecookie.GenerateRandomKey(32)
		if key == nil {
			return nil, fmt.Errorf("failed to generate pending secret")
		}
		slog.Warn("pending secret not configured, using a random key")
		return key, nil
	}
	return []byte(c.PendingSecret), nil
}

func buildBaseURL(cfg *Config) string {
	host := cfg.Server.Host
	if host == "" {
		host = "localhost"
	}
	if cfg.Server.Port == 80 {
		return fmt.Sprintf("http://%s", host)
	}
	return fmt.Sprintf("http://%s:%d", host, cfg.Server.Port)
}

func sources(envKeys []string, tomlKey string) cli.ValueSourceChain {
	chain := cli.EnvVars(envKeys...)
	chain.Chain = append(chain.Chain, toml.TOML(tomlKey, configFile))
	return chain
}

func Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "host",
			Value:   "localhost",
			Usage:   "Host to bind to",
			Sources: sources([]string{"HOST"}, "server.host"),
		},
		&cli.IntFlag{
			Name:    "port",
			Value:   8080,
			Usage:   "Port to listen on",
			Sources: sources([]string{"PORT"}, "server.port"),
		},
		&cli.StringFlag{
			Name:    "base-url",
			Usage:   "Base URL for the application",
			Sources: sources([]string{"BASE_URL"}, "server.base_url"),
		},
		&cli.IntFlag{
			Name:    "max-body-size",
			Value:   10,
			Usage:   "Maximum request body size in MB (screenshots are sent inline)",
			Sources: sources([]string{"MAX_BODY_SIZE"}, "server.max_body_size"),
		},
		&cli.StringFlag{
			Name:    "log-level",
			Value:   "info",
			Usage:   "Log level (debug, info, warn, error)",
			Sources: sources([]string{"LOG_LEVEL"}, "log.level"),
		},
		&cli.StringFlag{
			Name:    "log-format",
			Value:   "text",
			Usage:   "Log format (text, json)",
			Sources: sources([]string{"LOG_FORMAT"}, "log.format"),
		},
		// Storage
		&cli.StringFlag{
			Name:    "database-driver",
			Value:   DriverSQLite,
			Usage:   "Durable backend (sqlite, redis, memory)",
			Sources: sources([]string{"DATABASE_DRIVER"}, "database.driver"),
		},
		&cli.StringFlag{
			Name:    "database-dsn",
			Value:   "./data/ui2code.db",
			Usage:   "SQLite database DSN",
			Sources: sources([]string{"DATABASE_DSN"}, "database.dsn"),
		},
		&cli.StringFlag{
			Name:    "redis-addr",
			Value:   "localhost:6379",
			Usage:   "Redis address (redis driver)",
			Sources: sources([]string{"REDIS_ADDR"}, "database.redis_addr"),
		},
		&cli.StringFlag{
			Name:    "redis-password",
			Usage:   "Redis password (redis driver)",
			Sources: sources([]string{"REDIS_PASSWORD"}, "database.redis_password"),
		},
		&cli.IntFlag{
			Name:    "redis-db",
			Usage:   "Redis database number (redis driver)",
			Sources: sources([]string{"REDIS_DB"}, "database.redis_db"),
		},
		&cli.StringFlag{
			Name:    "redis-prefix",
			Value:   "ui2code",
			Usage:   "Key prefix for Redis collections",
			Sources: sources([]string{"REDIS_PREFIX"}, "database.redis_prefix"),
		},
		&cli.DurationFlag{
			Name:    "purge-interval",
			Value:   time.Minute,
			Usage:   "How often expired pending records are removed (sqlite driver)",
			Sources: sources([]string{"PURGE_INTERVAL"}, "database.purge_interval"),
		},
		// SMTP
		&cli.StringFlag{
			Name:    "smtp-host",
			Usage:   "SMTP host (codes are only logged when empty)",
			Sources: sources([]string{"SMTP_HOST"}, "smtp.host"),
		},
		&cli.IntFlag{
			Name:    "smtp-port",
			Value:   587,
			Usage:   "SMTP port",
			Sources: sources([]string{"SMTP_PORT"}, "smtp.port"),
		},
		&cli.StringFlag{
			Name:    "smtp-username",
			Usage:   "SMTP username",
			Sources: sources([]string{"SMTP_USERNAME", "SMTP_USER"}, "smtp.username"),
		},
		&cli.StringFlag{
			Name:    "smtp-password",
			Usage:   "SMTP password",
			Sources: sources([]string{"SMTP_PASSWORD", "SMTP_PASS"}, "smtp.password"),
		},
		&cli.StringFlag{
			Name:    "smtp-from",
			Usage:   "Sender address (defaults to the SMTP username)",
			Sources: sources([]string{"SMTP_FROM", "MAIL_FROM"}, "smtp.from"),
		},
		&cli.StringFlag{
			Name:    "smtp-from-name",
			Value:   "UI2Code",
			Usage:   "Sender display name",
			Sources: sources([]string{"SMTP_FROM_NAME"}, "smtp.from_name"),
		},
		&cli.BoolFlag{
			Name:    "smtp-tls",
			Value:   true,
			Usage:   "Require TLS for SMTP (implicit TLS on port 465)",
			Sources: sources([]string{"SMTP_TLS"}, "smtp.tls"),
		},
		&cli.StringFlag{
			Name:    "smtp-preview-url",
			Usage:   "Preview URL template for dev mail catchers, {id} is the message ID",
			Sources: sources([]string{"SMTP_PREVIEW_URL"}, "smtp.preview_url"),
		},
		// Auth
		&cli.StringFlag{
			Name:    "pending-secret",
			Usage:   "Secret for signing pending signup tokens (random if empty)",
			Sources: sources([]string{"PENDING_SECRET"}, "auth.pending_secret"),
		},
		&cli.BoolFlag{
			Name:    "expose-otp",
			Usage:   "Echo one-time codes in API responses (development only)",
			Sources: sources([]string{"EXPOSE_OTP", "SHOW_DEV_OTP"}, "auth.expose_otp"),
		},
		&cli.BoolFlag{
			Name:    "enable-test-email",
			Usage:   "Expose the /api/auth/test-email endpoint",
			Sources: sources([]string{"ENABLE_TEST_EMAIL"}, "auth.enable_test_email"),
		},
		// Generation
		&cli.StringFlag{
			Name:    "gemini-api-key",
			Usage:   "API key for the generative language API",
			Sources: sources([]string{"GEMINI_API_KEY"}, "generate.api_key"),
		},
		&cli.StringFlag{
			Name:    "gemini-base-url",
			Value:   "https://generativelanguage.googleapis.com",
			Usage:   "Base URL of the generative language API",
			Sources: sources([]string{"GEMINI_BASE_URL"}, "generate.base_url"),
		},
		&cli.StringFlag{
			Name:    "gemini-primary-model",
			Value:   "gemini-2.5-flash",
			Usage:   "Model used for code generation",
			Sources: sources([]string{"GEMINI_PRIMARY_MODEL"}, "generate.primary_model"),
		},
		&cli.StringFlag{
			Name:    "gemini-fallback-model",
			Value:   "gemini-1.5-flash",
			Usage:   "Model tried when the primary model is overloaded",
			Sources: sources([]string{"GEMINI_FALLBACK_MODEL"}, "generate.fallback_model"),
		},
		&cli.IntFlag{
			Name:    "gemini-rate-per-minute",
			Value:   30,
			Usage:   "Maximum outbound generation requests per minute",
			Sources: sources([]string{"GEMINI_RATE_PER_MINUTE"}, "generate.rate_per_minute"),
		},
		&cli.DurationFlag{
			Name:    "gemini-timeout",
			Value:   60 * time.Second,
			Usage:   "Timeout for a single generation request",
			Sources: sources([]string{"GEMINI_TIMEOUT"}, "generate.timeout"),
		},
	}
}
