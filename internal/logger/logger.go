package logger

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/brizzai/space/internal/config"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var globalLogger = zap.NewNop()

func consoleEncoderConfig(cfg *config.LoggingConfig) zapcore.EncoderConfig {
	encoderConfig := zap.NewDevelopmentEncoderConfig()
	encoderConfig.EncodeTime = zapcore.TimeEncoderOfLayout("2006-01-02 15:04:05.000")
	encoderConfig.EncodeLevel = zapcore.CapitalLevelEncoder
	if cfg.Color {
		encoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	}
	encoderConfig.EncodeCaller = zapcore.ShortCallerEncoder
	encoderConfig.EncodeDuration = zapcore.StringDurationEncoder
	return encoderConfig
}

func jsonEncoderConfig() zapcore.EncoderConfig {
	encoderConfig := zap.NewProductionEncoderConfig()
	encoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	encoderConfig.EncodeLevel = zapcore.CapitalLevelEncoder
	return encoderConfig
}

// InitLogger builds a logger from cfg and installs it as the global logger
func InitLogger(cfg *config.LoggingConfig) error {
	logger, err := NewLogger(cfg)
	if err != nil {
		return err
	}

	globalLogger = logger
	return nil
}

// NewLogger creates a new zap logger with the given configuration
func NewLogger(cfg *config.LoggingConfig) (*zap.Logger, error) {
	// Set log level
	levelName := cfg.Level
	if levelName == "" {
		levelName = "info"
	}
	level, err := zapcore.ParseLevel(levelName)
	if err != nil {
		return nil, fmt.Errorf("invalid log level: %v", err)
	}

	// Configure encoder based on format
	var encoderConfig zapcore.EncoderConfig
	encoding := cfg.Format
	switch encoding {
	case "json":
		encoderConfig = jsonEncoderConfig()
	case "console", "":
		encoding = "console"
		encoderConfig = consoleEncoderConfig(cfg)
	default:
		return nil, fmt.Errorf("invalid log format %q", cfg.Format)
	}

	// Configure output paths, console first unless disabled
	var outputPaths, errorOutputPaths []string
	if !cfg.DisableConsole {
		outputPaths = append(outputPaths, "stdout")
		errorOutputPaths = append(errorOutputPaths, "stderr")
	}

	// Handle file output if path is specified
	if cfg.OutputPath != "" {
		// Ensure the directory exists
		dir := filepath.Dir(cfg.OutputPath)
		if dir != "." && dir != "" {
			if err = os.MkdirAll(dir, 0o755); err != nil {
				return nil, fmt.Errorf("failed to create log directory %s: %v", dir, err)
			}
		}
		// Start a fresh file unless appending
		if !cfg.AppendToFile {
			_ = os.Remove(cfg.OutputPath)
		}
		outputPaths = append(outputPaths, cfg.OutputPath)
		errorOutputPaths = append(errorOutputPaths, cfg.OutputPath)
	}

	// Ensure we have at least one output path
	if len(outputPaths) == 0 {
		outputPaths = []string{"stdout"}
	}
	if len(errorOutputPaths) == 0 {
		errorOutputPaths = []string{"stderr"}
	}

	zapConfig := zap.Config{
		Level:            zap.NewAtomicLevelAt(level),
		Development:      encoding == "console",
		Encoding:         encoding,
		OutputPaths:      outputPaths,
		ErrorOutputPaths: errorOutputPaths,
		EncoderConfig:    encoderConfig,
	}

	// Build with or without stacktrace based on configuration
	opts := []zap.Option{}
	if !cfg.DisableStacktrace {
		opts = append(opts, zap.AddStacktrace(zapcore.ErrorLevel))
	}

	logger, err := zapConfig.Build(opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to build logger: %v", err)
	}

	return logger, nil
}

// GetLogger returns the global logger instance
func GetLogger() *zap.Logger {
	return globalLogger
}

// ReplaceGlobal installs l as the global logger and returns a func restoring the previous one
func ReplaceGlobal(l *zap.Logger) func() {
	prev := globalLogger
	globalLogger = l
	return func() { globalLogger = prev }
}

// Debug logs a debug message
func Debug(msg string, fields ...zap.Field) {
	globalLogger.WithOptions(zap.AddCallerSkip(1)).Debug(msg, fields...)
}

// Info logs an info message
func Info(msg string, fields ...zap.Field) {
	globalLogger.WithOptions(zap.AddCallerSkip(1)).Info(msg, fields...)
}

// Warn logs a warning message
func Warn(msg string, fields ...zap.Field) {
	globalLogger.WithOptions(zap.AddCallerSkip(1)).Warn(msg, fields...)
}

// Error logs an error message
func Error(msg string, fields ...zap.Field) {
	globalLogger.WithOptions(zap.AddCallerSkip(1)).Error(msg, fields...)
}

// Fatal logs a fatal message and exits
func Fatal(msg string, fields ...zap.Field) {
	globalLogger.WithOptions(zap.AddCallerSkip(1)).Fatal(msg, fields...)
}

// With creates a child logger with additional fields
func With(fields ...zap.Field) *zap.Logger {
	return globalLogger.With(fields...)
}

// Sync flushes any buffered log entries
func Sync() error {
	return globalLogger.Sync()
}

func provideLogger(lc fx.Lifecycle, cfg *config.Config) (*zap.Logger, error) {
	if err := InitLogger(&cfg.Logging); err != nil {
		return nil, err
	}
	if cfg.GeneratedSessionPassword {
		globalLogger.Warn("No session password set, using a random password. Set " +
			config.SessionPasswordEnv + " with at least 32 chars to keep sessions across restarts")
	}
	lc.Append(fx.Hook{
		OnStop: func(context.Context) error {
			// stdout/stderr sync fails on some platforms, nothing to do about it
			_ = Sync()
			return nil
		},
	})
	return globalLogger, nil
}

// Module provides the application *zap.Logger
var Module = fx.Module("logger",
	fx.Provide(provideLogger),
)
