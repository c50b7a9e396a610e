// Package logging sets up the process-wide zerolog logger
package logging

import (
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

const (
	EnvLogLevel   = "AALINK_LOG_LEVEL"
	EnvLogFormat  = "AALINK_LOG_FORMAT"
	EnvLogNoColor = "AALINK_LOG_NOCOLOR"
)

// Config selects level and output format
type Config struct {
	Level   string `mapstructure:"level"`
	Format  string `mapstructure:"format"` // "console" or "json"
	NoColor bool   `mapstructure:"no_color"`
}

// DefaultConfig is info-level console output
func DefaultConfig() Config {
	return Config{Level: "info", Format: "console"}
}

// Init builds the logger for app, installs it as log.Logger and returns it.
// Environment variables override cfg.
func Init(app string, cfg Config) zerolog.Logger {
	return initTo(os.Stdout, app, cfg)
}

func initTo(out io.Writer, app string, cfg Config) zerolog.Logger {
	applyEnvOverrides(&cfg)

	var w io.Writer = out
	if !strings.EqualFold(cfg.Format, "json") {
		w = zerolog.ConsoleWriter{
			Out:        out,
			TimeFormat: time.RFC3339,
			NoColor:    cfg.NoColor,
		}
	}

	level, ok := ParseLevel(cfg.Level)
	if !ok {
		level = zerolog.InfoLevel
	}

	logger := zerolog.New(w).Level(level).With().Timestamp().Str("app", app).Logger()
	log.Logger = logger
	return logger
}

// Nop returns a disabled logger for tests
func Nop() zerolog.Logger {
	return zerolog.Nop()
}

func applyEnvOverrides(cfg *Config) {
	if v := strings.TrimSpace(os.Getenv(EnvLogLevel)); v != "" {
		cfg.Level = v
	}
	if v := strings.TrimSpace(os.Getenv(EnvLogFormat)); v != "" {
		cfg.Format = v
	}
	if v, err := strconv.ParseBool(strings.TrimSpace(os.Getenv(EnvLogNoColor))); err == nil {
		cfg.NoColor = v
	}
}

// ParseLevel maps a level name to a zerolog level.
// "diagnostics" is accepted as an alias for trace.
func ParseLevel(raw string) (zerolog.Level, bool) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "trace", "diagnostics":
		return zerolog.TraceLevel, true
	case "debug":
		return zerolog.DebugLevel, true
	case "info":
		return zerolog.InfoLevel, true
	case "warn", "warning":
		return zerolog.WarnLevel, true
	case "error":
		return zerolog.ErrorLevel, true
	case "disabled", "off":
		return zerolog.Disabled, true
	default:
		return zerolog.InfoLevel, false
	}
}
