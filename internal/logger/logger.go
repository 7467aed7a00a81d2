package logger

import (
	"strings"
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

type LogLevel string

const (
	LogLevelDebug LogLevel = "debug"
	LogLevelInfo  LogLevel = "info"
	LogLevelWarn  LogLevel = "warn"
	LogLevelError LogLevel = "error"
)

var (
	mu   sync.RWMutex
	base = zap.NewNop().Sugar()
)

// Init builds the process-wide zap logger. mode is "prod"/"production" for
// JSON output, anything else for the console encoder.
func Init(mode string, level LogLevel) error {
	var cfg zap.Config
	switch strings.ToLower(mode) {
	case "prod", "production":
		cfg = zap.NewProductionConfig()
	default:
		cfg = zap.NewDevelopmentConfig()
		cfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	}
	cfg.Level = zap.NewAtomicLevelAt(parseLevel(level))

	zl, err := cfg.Build(zap.AddCallerSkip(1))
	if err != nil {
		return err
	}

	mu.Lock()
	base = zl.Sugar()
	mu.Unlock()
	return nil
}

// Sync flushes buffered entries; call it before exit.
func Sync() {
	mu.RLock()
	defer mu.RUnlock()
	_ = base.Sync()
}

func parseLevel(level LogLevel) zapcore.Level {
	switch LogLevel(strings.ToLower(string(level))) {
	case LogLevelDebug:
		return zapcore.DebugLevel
	case LogLevelWarn:
		return zapcore.WarnLevel
	case LogLevelError:
		return zapcore.ErrorLevel
	default:
		return zapcore.InfoLevel
	}
}

type Log struct {
	sugar *zap.SugaredLogger
	err   error
}

func New() *Log {
	mu.RLock()
	defer mu.RUnlock()
	return &Log{sugar: base}
}

func (l *Log) WithError(err error) *Log {
	return &Log{sugar: l.sugar, err: err}
}

// With returns a child logger carrying the given key/value pairs.
func (l *Log) With(keysAndValues ...any) *Log {
	return &Log{sugar: l.sugar.With(sanitize(keysAndValues)...), err: l.err}
}

func (l *Log) fields(kv []any) []any {
	kv = sanitize(kv)
	if l.err != nil {
		kv = append(kv, "error", l.err.Error())
	}
	return kv
}

func (l *Log) Debug(msg string, keysAndValues ...any) {
	l.sugar.Debugw(msg, l.fields(keysAndValues)...)
}

func (l *Log) Info(msg string, keysAndValues ...any) {
	l.sugar.Infow(msg, l.fields(keysAndValues)...)
}

func (l *Log) Warn(msg string, keysAndValues ...any) {
	l.sugar.Warnw(msg, l.fields(keysAndValues)...)
}

func (l *Log) Error(msg string, keysAndValues ...any) {
	l.sugar.Errorw(msg, l.fields(keysAndValues)...)
}

func sanitize(kv []any) []any {
	if len(kv) == 0 {
		return kv
	}
	out := make([]any, 0, len(kv))
	for i := 0; i < len(kv); i += 2 {
		if i == len(kv)-1 {
			out = append(out, kv[i])
			break
		}
		key, _ := kv[i].(string)
		if isRedactKey(strings.ToLower(key)) {
			out = append(out, kv[i], "[REDACTED]")
			continue
		}
		out = append(out, kv[i], kv[i+1])
	}
	return out
}

func isRedactKey(key string) bool {
	for _, s := range []string{"password", "token", "secret", "cookie", "authorization", "email"} {
		if strings.Contains(key, s) {
			return true
		}
	}
	return false
}
