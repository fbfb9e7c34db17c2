package internal

import (
	"fmt"
	"log/slog"
	"strings"
	"time"
)

// Config is loaded from the environment by the binaries. The initial
// admin and expiration only matter on first start, when the store gets
// seeded.
type Config struct {
	BadgerFilepath string `env:"BADGER_FILEPATH,required=true"`
	LogLevel       string `env:"LOG_LEVEL,default=INFO"`

	AdminUsername string `env:"ADMIN_USERNAME"`
	AdminLabel    string `env:"ADMIN_LABEL"`

	AliasByteLimit  int           `env:"ALIAS_BYTE_LIMIT,default=64"`
	DatetimePattern string        `env:"DATETIME_PATTERN,default=02.01.2006 15:04:05"`
	EOLDatetime     string        `env:"EOL_DATETIME"`
	SessionTTL      time.Duration `env:"SESSION_TTL"`
}

// SlogLevel maps the textual LOG_LEVEL to a slog level, defaulting to
// Info on anything unrecognized.
func (c Config) SlogLevel() slog.Level {
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

// InitialExpiration parses the optional EOL_DATETIME against the
// configured pattern. Unset means no expiration is seeded.
func (c Config) InitialExpiration() (*time.Time, error) {
	if c.EOLDatetime == "" {
		return nil, nil
	}
	at, err := time.ParseInLocation(c.DatetimePattern, c.EOLDatetime, time.Local)
	if err != nil {
		return nil, fmt.Errorf("EOL_DATETIME %q does not match pattern %q: %w", c.EOLDatetime, c.DatetimePattern, err)
	}
	return &at, nil
}
