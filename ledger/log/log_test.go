//go:build unit

package log

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordedEntry struct {
	level  Level
	msg    string
	fields []Field
}

type recordingLogger struct {
	level   Level
	entries []recordedEntry
}

func (r *recordingLogger) Log(_ context.Context, level Level, msg string, fields ...Field) {
	r.entries = append(r.entries, recordedEntry{level: level, msg: msg, fields: fields})
}

func (r *recordingLogger) With(_ ...Field) Logger       { return r }
func (r *recordingLogger) WithGroup(_ string) Logger    { return r }
func (r *recordingLogger) Enabled(level Level) bool     { return r.level >= level }
func (r *recordingLogger) Sync(_ context.Context) error { return nil }

func TestParseLevel(t *testing.T) {
	tests := []struct {
		name        string
		input       string
		expected    Level
		expectError bool
	}{
		{name: "parse error level", input: "error", expected: LevelError},
		{name: "parse warn level", input: "warn", expected: LevelWarn},
		{name: "parse warning level", input: "warning", expected: LevelWarn},
		{name: "parse info level", input: "info", expected: LevelInfo},
		{name: "parse debug level", input: "debug", expected: LevelDebug},
		{name: "parse uppercase level", input: "INFO", expected: LevelInfo},
		{name: "parse padded level", input: "  debug ", expected: LevelDebug},
		{name: "parse invalid level", input: "verbose", expectError: true},
		{name: "parse empty string", input: "", expectError: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			level, err := ParseLevel(tt.input)
			if tt.expectError {
				require.Error(t, err)
				return
			}

			require.NoError(t, err)
			assert.Equal(t, tt.expected, level)
		})
	}
}

func TestLevelString(t *testing.T) {
	assert.Equal(t, "error", LevelError.String())
	assert.Equal(t, "warn", LevelWarn.String())
	assert.Equal(t, "info", LevelInfo.String())
	assert.Equal(t, "debug", LevelDebug.String())
	assert.Equal(t, "unknown", Level(42).String())
}

func TestFieldConstructors(t *testing.T) {
	assert.Equal(t, Field{Key: "client", Value: uint64(7)}, Uint64("client", 7))
	assert.Equal(t, Field{Key: "verb", Value: "deposit"}, String("verb", "deposit"))
	assert.Equal(t, Field{Key: "locked", Value: true}, Bool("locked", true))
	assert.Equal(t, Field{Key: "amount", Value: "1.5"}, Stringer("amount", decimal.RequireFromString("1.5")))
	assert.Equal(t, Field{Key: "amount", Value: "<nil>"}, Stringer("amount", nil))

	err := errors.New("boom")
	assert.Equal(t, Field{Key: "error", Value: err}, Err(err))
}

func TestFormatValue(t *testing.T) {
	assert.Equal(t, "<nil>", FormatValue(nil))
	assert.Equal(t, "18446744073709551615", FormatValue(uint64(18446744073709551615)))
	assert.Equal(t, "false", FormatValue(false))
	assert.Equal(t, "boom", FormatValue(errors.New("boom")))
	assert.Equal(t, "1.5", FormatValue(decimal.RequireFromString("1.5")))
}

func TestNopLogger(t *testing.T) {
	logger := NewNop()

	assert.NotPanics(t, func() {
		logger.Log(context.Background(), LevelError, "dropped")
	})
	assert.False(t, logger.Enabled(LevelError))
	assert.Same(t, logger, logger.With(String("k", "v")))
	assert.Same(t, logger, logger.WithGroup("g"))
	assert.Same(t, logger, NewNop())
	assert.NoError(t, logger.Sync(context.Background()))
}

func TestSanitizeString(t *testing.T) {
	assert.Equal(t, `deposit\nwithdrawal,1,2,3`, SanitizeString("deposit\nwithdrawal,1,2,3"))
	assert.Equal(t, `a\tb\rc`, SanitizeString("a\tb\rc"))
	assert.Equal(t, "plain", SanitizeString("plain"))
}

func TestSafeError(t *testing.T) {
	ctx := context.Background()
	err := errors.New("open input.csv: permission denied")

	t.Run("development logs the error", func(t *testing.T) {
		logger := &recordingLogger{level: LevelDebug}

		SafeError(ctx, logger, "replay failed", err, false)

		require.Len(t, logger.entries, 1)
		assert.Equal(t, LevelError, logger.entries[0].level)
		assert.Equal(t, []Field{Err(err)}, logger.entries[0].fields)
	})

	t.Run("production logs only the type", func(t *testing.T) {
		logger := &recordingLogger{level: LevelDebug}

		SafeError(ctx, logger, "replay failed", err, true)

		require.Len(t, logger.entries, 1)
		assert.Equal(t, []Field{String("error_type", "*errors.errorString")}, logger.entries[0].fields)
	})

	t.Run("nil inputs are ignored", func(t *testing.T) {
		logger := &recordingLogger{level: LevelDebug}

		SafeError(ctx, nil, "replay failed", err, false)
		SafeError(ctx, logger, "replay failed", nil, false)

		assert.Empty(t, logger.entries)
	})
}
