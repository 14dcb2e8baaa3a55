package logger

import (
	"log"
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Level is the minimum severity a logger emits.
type Level string

const (
	Debug   Level = "debug"
	Info    Level = "info"
	Warning Level = "warning"
	Error   Level = "error"
)

// Config controls logger construction.
type Config struct {
	// Level is the minimum severity to emit. Defaults to Info.
	Level Level `yaml:"level" env:"LOG_LEVEL"`

	// ServiceName is attached to every entry as the "service" field.
	ServiceName string `yaml:"service_name" env:"LOG_SERVICE_NAME"`

	// Development switches to the human-readable console encoder.
	Development bool `yaml:"development" env:"LOG_DEVELOPMENT"`
}

// NewLogger builds a production zap logger: JSON encoding, ISO8601
// timestamps, capitalised levels, caller info, service and pid fields,
// output on stderr. Construction failures are fatal: a process without
// logging is not worth starting.
func NewLogger(cfg Config) *zap.Logger {
	encoderCfg := zap.NewProductionEncoderConfig()
	encoderCfg.TimeKey = "timestamp"
	encoderCfg.EncodeTime = zapcore.ISO8601TimeEncoder
	encoderCfg.EncodeLevel = zapcore.CapitalLevelEncoder
	encoderCfg.EncodeDuration = zapcore.MillisDurationEncoder

	level := zap.InfoLevel
	switch cfg.Level {
	case Debug:
		level = zap.DebugLevel
	case Info:
		level = zap.InfoLevel
	case Warning:
		level = zap.WarnLevel
	case Error:
		level = zap.ErrorLevel
	}

	encoding := "json"
	if cfg.Development {
		encoding = "console"
	}

	zcfg := zap.Config{
		Level:            zap.NewAtomicLevelAt(level),
		Development:      cfg.Development,
		Encoding:         encoding,
		EncoderConfig:    encoderCfg,
		OutputPaths:      []string{"stderr"},
		ErrorOutputPaths: []string{"stderr"},
		InitialFields: map[string]interface{}{
			"pid":     os.Getpid(),
			"service": cfg.ServiceName,
		},
	}

	zl, err := zcfg.Build(zap.AddCaller())
	if err != nil {
		log.Fatal(err)
	}
	return zl
}
