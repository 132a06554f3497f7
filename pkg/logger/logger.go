package logger

import (
	"log"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"tadbeer.com/hrms/config"
)

var Logger *zap.Logger = zap.NewNop()

func Init() {
	level := zapcore.InfoLevel
	switch strings.ToUpper(config.Cfg.LoggerLevel) {
	case "DEBUG":
		level = zapcore.DebugLevel
	case "WARN":
		level = zapcore.WarnLevel
	case "ERROR":
		level = zapcore.ErrorLevel
	}

	var cfg zap.Config
	if config.Cfg.LoggerFormat == "json" {
		cfg = zap.NewProductionConfig()
	} else {
		cfg = zap.NewDevelopmentConfig()
	}
	cfg.Level = zap.NewAtomicLevelAt(level)

	l, err := cfg.Build()
	if err != nil {
		log.Fatalf("failed to build logger: %v", err)
	}
	Logger = l
}

func Sync() {
	_ = Logger.Sync()
}
