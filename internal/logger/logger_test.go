package logger

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap/zapcore"
)

func TestSanitizeRedactsSecrets(t *testing.T) {
	got := sanitize([]any{"user_id", "u1", "email", "a@b.com", "reset_token", "abc", "dangling"})
	assert.Equal(t, []any{"user_id", "u1", "email", "[REDACTED]", "reset_token", "[REDACTED]", "dangling"}, got)
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, zapcore.DebugLevel, parseLevel("DEBUG"))
	assert.Equal(t, zapcore.WarnLevel, parseLevel(LogLevelWarn))
	assert.Equal(t, zapcore.ErrorLevel, parseLevel(LogLevelError))
	assert.Equal(t, zapcore.InfoLevel, parseLevel("bogus"))
}

func TestWithErrorAppendsField(t *testing.T) {
	l := New().WithError(errors.New("db down"))
	assert.Equal(t, []any{"track", "7days", "error", "db down"}, l.fields([]any{"track", "7days"}))
}

func TestInitDevelopment(t *testing.T) {
	assert.NoError(t, Init("development", LogLevelDebug))
	New().With("component", "test").Info("logger initialised")
	Sync()
}
