package commands

import (
	"fmt"
	"os"
	"sort"

	"github.com/fivetwenty-io/powerschool/pkg/psapi"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// zapLogger adapts a zap logger to psapi.Logger.
type zapLogger struct {
	logger *zap.Logger
}

// newLogger returns a development logger at debug level when verbose is set,
// otherwise a console logger that only reports warnings and errors.
func newLogger(verbose bool) psapi.Logger {
	var (
		logger *zap.Logger
		err    error
	)

	if verbose {
		logger, err = zap.NewDevelopment()
	} else {
		config := zap.NewProductionConfig()
		config.Level = zap.NewAtomicLevelAt(zapcore.WarnLevel)
		config.Encoding = "console"
		config.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
		config.DisableStacktrace = true
		logger, err = config.Build()
	}

	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: failed to create logger: %v\n", err)

		logger = zap.NewNop()
	}

	l := &zapLogger{logger: logger}
	onShutdown(l.Sync)

	return l
}

func zapFields(fields map[string]interface{}) []zap.Field {
	keys := make([]string, 0, len(fields))
	for key := range fields {
		keys = append(keys, key)
	}

	sort.Strings(keys)

	out := make([]zap.Field, 0, len(fields))
	for _, key := range keys {
		out = append(out, zap.Any(key, fields[key]))
	}

	return out
}

func (l *zapLogger) Debug(msg string, fields map[string]interface{}) {
	l.logger.Debug(msg, zapFields(fields)...)
}

func (l *zapLogger) Info(msg string, fields map[string]interface{}) {
	l.logger.Info(msg, zapFields(fields)...)
}

func (l *zapLogger) Warn(msg string, fields map[string]interface{}) {
	l.logger.Warn(msg, zapFields(fields)...)
}

func (l *zapLogger) Error(msg string, fields map[string]interface{}) {
	l.logger.Error(msg, zapFields(fields)...)
}

// Sync flushes buffered log entries.
func (l *zapLogger) Sync() {
	_ = l.logger.Sync()
}
