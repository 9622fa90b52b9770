package logging

import (
	"fmt"
	"io"
	"log"
	"log/slog"
	"os"
	"strings"

	"gorm.io/gorm/logger"
)

type LogCode string

const (
	// SYSTEM EVENTS (SYSTEM*)
	SYSTEM LogCode = "SYSTEM"

	// CATALOG OPERATIONS
	CATALOG_SEED   LogCode = "CATALOG_SEED"
	CATALOG_IMPORT LogCode = "CATALOG_IMPORT"

	// ENTITY OPERATIONS
	ENTITY_CREATE LogCode = "ENTITY_CREATE"
	ENTITY_STATUS LogCode = "ENTITY_STATUS"
	ACL_CHANGE    LogCode = "ACL_CHANGE"
)

func ParseLevel(level string) (slog.Level, error) {
	var l slog.Level
	if err := l.UnmarshalText([]byte(strings.TrimSpace(level))); err != nil {
		return slog.LevelInfo, fmt.Errorf("invalid log level '%v': %w", level, err)
	}
	return l, nil
}

// GormLevel maps the process log level to the gorm logger so that sql
// tracing follows the same setting.
func GormLevel(level slog.Level) logger.LogLevel {
	switch {
	case level <= slog.LevelDebug:
		return logger.Info
	case level <= slog.LevelWarn:
		return logger.Warn
	default:
		return logger.Error
	}
}

func GetHandlerOptions(level slog.Level, addSource bool) *slog.HandlerOptions {
	return &slog.HandlerOptions{
		Level:     level,
		AddSource: addSource,
		ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
			if a.Key == slog.TimeKey && len(groups) == 0 {
				return slog.Attr{Key: slog.TimeKey, Value: slog.StringValue(a.Value.Time().UTC().Format("2006-01-02 15:04:05"))}
			}
			return a
		},
	}
}

// Init installs the default slog logger. Output goes to stderr, and to
// logFile as well when one is given.
func Init(level slog.Level, json bool, logFile *os.File) {
	var out io.Writer = os.Stderr
	if logFile != nil {
		out = io.MultiWriter(logFile, os.Stderr)
	}

	log.SetFlags(log.Lshortfile | log.Ltime | log.Ldate)
	log.SetOutput(out)

	opts := GetHandlerOptions(level, false)
	var handler slog.Handler
	if json {
		handler = slog.NewJSONHandler(out, opts)
	} else {
		handler = slog.NewTextHandler(out, opts)
	}
	slog.SetDefault(slog.New(handler))

	if logFile != nil {
		slog.Info("logging initialized", "code", SYSTEM, "log_file", logFile.Name())
	}
}
