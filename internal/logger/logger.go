package logger

import (
	"os"

	"induction-portal/internal/config"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

var log = zap.NewNop()

// Initialize sets up the logger with the given configuration
func Initialize(loggerCfg config.LoggerConfig) error {
	encoderConfig := zapcore.EncoderConfig{
		TimeKey:        "timestamp",
		LevelKey:       "level",
		NameKey:        "logger",
		CallerKey:      "caller",
		MessageKey:     "msg",
		StacktraceKey:  "stacktrace",
		LineEnding:     zapcore.DefaultLineEnding,
		EncodeLevel:    zapcore.LowercaseLevelEncoder,
		EncodeTime:     zapcore.ISO8601TimeEncoder,
		EncodeDuration: zapcore.SecondsDurationEncoder,
		EncodeCaller:   zapcore.ShortCallerEncoder,
	}

	logLevel := zapcore.InfoLevel
	if loggerCfg.Level != "" {
		if err := logLevel.UnmarshalText([]byte(loggerCfg.Level)); err != nil {
			return err
		}
	}

	var stdoutEncoder zapcore.Encoder
	if loggerCfg.Env == "production" {
		stdoutEncoder = zapcore.NewJSONEncoder(encoderConfig)
	} else {
		stdoutEncoder = zapcore.NewConsoleEncoder(encoderConfig)
	}
	core := zapcore.NewCore(stdoutEncoder, zapcore.AddSync(os.Stdout), logLevel)

	if loggerCfg.File != "" {
		fileWriter := zapcore.AddSync(&lumberjack.Logger{
			Filename:   loggerCfg.File,
			MaxSize:    loggerCfg.MaxSizeMB,
			MaxBackups: loggerCfg.MaxBackups,
			MaxAge:     loggerCfg.MaxAgeDays,
			Compress:   true,
		})
		core = zapcore.NewTee(
			core,
			zapcore.NewCore(zapcore.NewJSONEncoder(encoderConfig), fileWriter, logLevel),
		)
	}

	log = zap.New(core, zap.AddCaller(), zap.AddStacktrace(zapcore.ErrorLevel))
	return nil
}

// Get returns the global logger instance
func Get() *zap.Logger {
	return log
}

// Sync flushes any buffered log entries
func Sync() error {
	return log.Sync()
}
