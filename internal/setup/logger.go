package setup

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/striketeam/warden/internal/setup/config"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// NewLoggers builds the main and database loggers. Both write to the console
// and to a log file under logDir; the database logger stays at warn level
// unless debug logging is enabled so query noise does not drown the rest.
func NewLoggers(cfg *config.Debug, logDir string) (*zap.Logger, *zap.Logger, error) {
	level, err := zapcore.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = zapcore.InfoLevel
	}

	if err := os.MkdirAll(logDir, 0o755); err != nil {
		return nil, nil, fmt.Errorf("failed to create log directory: %w", err)
	}

	logFile, err := os.OpenFile(
		filepath.Join(logDir, "main.log"), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644,
	)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open log file: %w", err)
	}

	consoleEncoder := zapcore.NewConsoleEncoder(zap.NewDevelopmentEncoderConfig())
	fileEncoder := zapcore.NewJSONEncoder(zap.NewProductionEncoderConfig())

	core := zapcore.NewTee(
		zapcore.NewCore(consoleEncoder, zapcore.Lock(os.Stdout), level),
		zapcore.NewCore(fileEncoder, zapcore.Lock(logFile), level),
	)

	logger := zap.New(core, zap.AddCaller())

	dbLevel := zapcore.WarnLevel
	if level == zapcore.DebugLevel {
		dbLevel = zapcore.DebugLevel
	}

	dbLogger := zap.New(
		zapcore.NewTee(
			zapcore.NewCore(consoleEncoder, zapcore.Lock(os.Stdout), dbLevel),
			zapcore.NewCore(fileEncoder, zapcore.Lock(logFile), dbLevel),
		),
	)

	return logger, dbLogger, nil
}
