// Package config provides application configuration loaded from environment
// variables (and an optional .env file) with defaults and validation. It
// centralizes settings for the compound store, the PDBe client, logging,
// serve mode, backups and observability.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// CORSConfig defines Cross-Origin Resource Sharing settings.
type CORSConfig struct {
	AllowedOrigins []string `envconfig:"ALLOWED_ORIGINS"` // CORS_ALLOWED_ORIGINS
}

// OTELConfig defines OpenTelemetry observability settings.
type OTELConfig struct {
	Enabled     bool    `envconfig:"ENABLED" default:"false"`                    // OTEL_ENABLED
	Endpoint    string  `envconfig:"EXPORTER_OTLP_ENDPOINT" default:"localhost:4317"` // OTEL_EXPORTER_OTLP_ENDPOINT
	Insecure    bool    `envconfig:"EXPORTER_OTLP_INSECURE" default:"true"`      // OTEL_EXPORTER_OTLP_INSECURE
	ServiceName string  `envconfig:"SERVICE_NAME" default:"cdt"`                 // OTEL_SERVICE_NAME
	SampleRatio float64 `envconfig:"TRACES_SAMPLER_ARG" default:"1.0"`           // OTEL_TRACES_SAMPLER_ARG in [0..1]
}

// BackupConfig defines the S3 compatible target of `cdt backup`.
type BackupConfig struct {
	Bucket    string `envconfig:"BUCKET"`                       // BACKUP_S3_BUCKET
	Endpoint  string `envconfig:"ENDPOINT"`                     // BACKUP_S3_ENDPOINT, empty for AWS
	Region    string `envconfig:"REGION" default:"us-east-1"`   // BACKUP_S3_REGION
	AccessKey string `envconfig:"ACCESS_KEY"`                   // BACKUP_S3_ACCESS_KEY
	SecretKey string `envconfig:"SECRET_KEY"`                   // BACKUP_S3_SECRET_KEY
	Prefix    string `envconfig:"PREFIX" default:"cdt/"`        // BACKUP_S3_PREFIX
	Keep      int    `envconfig:"KEEP" default:"0"`             // BACKUP_S3_KEEP, 0 keeps every archive
}

// Config holds all configuration values for the application.
type Config struct {
	// Store
	DatabaseURL        string `envconfig:"DATABASE_URL"`
	RequireDatabaseURL bool   `envconfig:"CDT_REQUIRE_DATABASE_URL" default:"false"`
	DBPath             string `envconfig:"CDT_DB_PATH" default:"cdt.db"` // fallback SQLite file

	// PDBe
	PDBEBaseURL   string        `envconfig:"PDBE_BASE_URL" default:"https://www.ebi.ac.uk/pdbe/graph-api"`
	DownloadDelay time.Duration `envconfig:"PDBE_DOWNLOAD_DELAY" default:"1s"`
	HTTPTimeout   time.Duration `envconfig:"PDBE_HTTP_TIMEOUT" default:"0s"` // 0 keeps transport defaults

	// Logging / metrics
	LogLevel    string `envconfig:"LOG_LEVEL" default:"error"` // console level
	LogFile     string `envconfig:"LOG_FILE" default:"console.log"`
	LogPretty   bool   `envconfig:"LOG_PRETTY" default:"false"`
	MetricsFile string `envconfig:"METRICS_FILE"` // textfile collector output for CLI runs

	// Serve mode
	Addr              string        `envconfig:"HTTP_ADDR" default:":8080"`
	ReadTimeout       time.Duration `envconfig:"READ_TIMEOUT" default:"15s"`
	ReadHeaderTimeout time.Duration `envconfig:"READ_HEADER_TIMEOUT" default:"10s"`
	WriteTimeout      time.Duration `envconfig:"WRITE_TIMEOUT" default:"20s"`
	IdleTimeout       time.Duration `envconfig:"IDLE_TIMEOUT" default:"60s"`
	GinMode           string        `envconfig:"GIN_MODE" default:"release"`
	RateRPS           float64       `envconfig:"RATE_RPS" default:"5"`
	RateBurst         int           `envconfig:"RATE_BURST" default:"10"`
	RefreshSchedule   string        `envconfig:"REFRESH_SCHEDULE"` // cron spec, empty disables

	CORS   CORSConfig   `envconfig:"CORS"`
	Backup BackupConfig `envconfig:"BACKUP_S3"`
	OTEL   OTELConfig   `envconfig:"OTEL"`
}

// DSN returns the store connection string: DATABASE_URL when set, otherwise
// the local SQLite file.
func (c Config) DSN() string {
	if s := strings.TrimSpace(c.DatabaseURL); s != "" {
		return s
	}
	return c.DBPath
}

// MustLoad loads the configuration and panics if validation fails.
func MustLoad() Config {
	cfg, err := Load()
	if err != nil {
		panic(err)
	}
	return cfg
}

// Load reads .env (if present) and the environment, applies defaults,
// normalizes values, and validates the result.
func Load() (Config, error) {
	_ = godotenv.Load()

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return cfg, fmt.Errorf("config: %w", err)
	}

	// --- normalization ---
	cfg.LogLevel = strings.ToLower(strings.TrimSpace(cfg.LogLevel))
	if cfg.LogLevel == "warning" {
		cfg.LogLevel = "warn"
	}
	cfg.GinMode = strings.ToLower(cfg.GinMode)
	switch cfg.GinMode {
	case "debug", "release", "test":
	default:
		cfg.GinMode = "release"
	}
	cfg.CORS.AllowedOrigins = compact(cfg.CORS.AllowedOrigins)
	cfg.PDBEBaseURL = strings.TrimRight(strings.TrimSpace(cfg.PDBEBaseURL), "/")

	return cfg, cfg.Validate()
}

// Validate reports the first invalid setting.
func (c Config) Validate() error {
	switch c.LogLevel {
	case "debug", "info", "warn", "error", "fatal", "panic":
	default:
		return errors.New("LOG_LEVEL must be one of: debug, info, warn, error, fatal, panic")
	}
	if c.RequireDatabaseURL && strings.TrimSpace(c.DatabaseURL) == "" {
		return errors.New("DATABASE_URL must be set when CDT_REQUIRE_DATABASE_URL is true")
	}
	if strings.TrimSpace(c.DatabaseURL) == "" && strings.TrimSpace(c.DBPath) == "" {
		return errors.New("CDT_DB_PATH must not be empty when DATABASE_URL is unset")
	}
	if c.PDBEBaseURL == "" {
		return errors.New("PDBE_BASE_URL must not be empty")
	}
	if c.DownloadDelay < 0 {
		return errors.New("PDBE_DOWNLOAD_DELAY must be >= 0")
	}
	if c.HTTPTimeout < 0 {
		return errors.New("PDBE_HTTP_TIMEOUT must be >= 0")
	}
	if strings.TrimSpace(c.Addr) == "" {
		return errors.New("HTTP_ADDR must not be empty")
	}
	if c.ReadTimeout <= 0 || c.ReadHeaderTimeout <= 0 || c.WriteTimeout <= 0 || c.IdleTimeout <= 0 {
		return errors.New("timeouts must be positive durations")
	}
	if c.RateRPS < 0 {
		return errors.New("RATE_RPS must be >= 0")
	}
	if c.RateBurst < 1 {
		return errors.New("RATE_BURST must be >= 1")
	}
	if c.Backup.Keep < 0 {
		return errors.New("BACKUP_S3_KEEP must be >= 0")
	}
	if c.OTEL.SampleRatio < 0 || c.OTEL.SampleRatio > 1 {
		return errors.New("OTEL_TRACES_SAMPLER_ARG must be in [0,1]")
	}
	return nil
}

func compact(in []string) []string {
	out := make([]string, 0, len(in))
	for _, p := range in {
		if t := strings.TrimSpace(p); t != "" {
			out = append(out, t)
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}
