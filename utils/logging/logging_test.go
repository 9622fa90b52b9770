package logging_test

import (
	"log/slog"
	"pkgdb/utils/logging"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm/logger"
)

func TestParseLevel(t *testing.T) {
	cases := map[string]slog.Level{
		"debug":  slog.LevelDebug,
		"INFO":   slog.LevelInfo,
		" warn ": slog.LevelWarn,
		"error":  slog.LevelError,
	}
	for input, expected := range cases {
		level, err := logging.ParseLevel(input)
		require.NoError(t, err, input)
		assert.Equal(t, expected, level, input)
	}

	_, err := logging.ParseLevel("loud")
	assert.Error(t, err)
}

func TestGormLevel(t *testing.T) {
	assert.Equal(t, logger.Info, logging.GormLevel(slog.LevelDebug))
	assert.Equal(t, logger.Warn, logging.GormLevel(slog.LevelInfo))
	assert.Equal(t, logger.Warn, logging.GormLevel(slog.LevelWarn))
	assert.Equal(t, logger.Error, logging.GormLevel(slog.LevelError))
}

func TestHandlerTimeFormat(t *testing.T) {
	opts := logging.GetHandlerOptions(slog.LevelInfo, false)

	at := time.Date(2024, 3, 1, 14, 30, 5, 0, time.FixedZone("CET", 3600))
	attr := opts.ReplaceAttr(nil, slog.Time(slog.TimeKey, at))
	assert.Equal(t, "2024-03-01 13:30:05", attr.Value.String())

	attr = opts.ReplaceAttr(nil, slog.String("name", "bash"))
	assert.Equal(t, "name", attr.Key)
	assert.Equal(t, "bash", attr.Value.String())
}
