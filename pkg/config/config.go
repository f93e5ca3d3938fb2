package config

import (
	"io"
	"log/slog"
	"os"
	"strings"
)

// Config holds CLI and library-host configuration.
type Config struct {
	LogLevel      string
	LogFormat     string
	ArchiveDriver string
	ArchiveDSN    string
	MappersFile   string
	OTelEnabled   bool
	OTLPEndpoint  string
	OTLPInsecure  bool
}

// Load loads configuration from environment variables.
func Load() *Config {
	logLevel := os.Getenv("OTP_LOG_LEVEL")
	if logLevel == "" {
		logLevel = "INFO"
	}

	logFormat := strings.ToLower(os.Getenv("OTP_LOG_FORMAT"))
	if logFormat == "" {
		logFormat = "text"
	}

	driver := os.Getenv("OTP_ARCHIVE_DRIVER")
	if driver == "" {
		driver = "sqlite"
	}

	endpoint := os.Getenv("OTP_OTLP_ENDPOINT")
	if endpoint == "" {
		endpoint = "localhost:4317"
	}

	return &Config{
		LogLevel:      logLevel,
		LogFormat:     logFormat,
		ArchiveDriver: driver,
		ArchiveDSN:    os.Getenv("OTP_ARCHIVE_DSN"),
		MappersFile:   os.Getenv("OTP_MAPPERS_FILE"),
		OTelEnabled:   os.Getenv("OTP_OTEL_ENABLED") == "true",
		OTLPEndpoint:  endpoint,
		OTLPInsecure:  os.Getenv("OTP_OTEL_INSECURE") == "true",
	}
}

// ArchiveEnabled reports whether a judgment archive is configured. Archiving
// is off unless a DSN is given.
func (c *Config) ArchiveEnabled() bool {
	return c.ArchiveDSN != ""
}

// SlogLevel maps LogLevel onto slog. Unknown values fall back to Info.
func (c *Config) SlogLevel() slog.Level {
	switch strings.ToUpper(c.LogLevel) {
	case "DEBUG":
		return slog.LevelDebug
	case "WARN", "WARNING":
		return slog.LevelWarn
	case "ERROR":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// NewLogger builds a text or JSON logger writing to w.
func (c *Config) NewLogger(w io.Writer) *slog.Logger {
	opts := &slog.HandlerOptions{Level: c.SlogLevel()}
	if c.LogFormat == "json" {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}
