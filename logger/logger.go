package logger

import (
	"fmt"
	"io"
	"os"

	"github.com/leapzhao/json-docstore/config"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"gopkg.in/natefinch/lumberjack.v2"
)

var (
	globalLogger zerolog.Logger
	initialized  bool
)

// Init 初始化日志系统
func Init(cfg config.Config) error {
	// 设置日志级别
	level, err := zerolog.ParseLevel(cfg.Logging.Level)
	if err != nil || cfg.Logging.Level == "" {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)

	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix

	globalLogger = zerolog.New(newOutput(cfg)).
		With().
		Timestamp().
		Str("app", "json-docstore").
		Str("env", string(cfg.Environment)).
		Logger()

	log.Logger = globalLogger
	initialized = true

	log.Info().
		Str("level", level.String()).
		Str("format", cfg.Logging.Format).
		Str("output", cfg.Logging.OutputPath).
		Msg("Logger initialized")

	return nil
}

func newOutput(cfg config.Config) io.Writer {
	if cfg.Logging.OutputPath != "" && cfg.Logging.OutputPath != "stdout" {
		return createLogFile(cfg.Logging.OutputPath, cfg.Environment)
	}
	if cfg.Logging.Format == "json" {
		return os.Stdout
	}
	return zerolog.ConsoleWriter{
		Out:        os.Stdout,
		TimeFormat: "2006-01-02 15:04:05",
	}
}

// GetLogger 获取全局logger
func GetLogger() zerolog.Logger {
	if !initialized {
		return zerolog.New(os.Stdout).With().Timestamp().Logger()
	}
	return globalLogger
}

// createLogFile 创建滚动日志文件
func createLogFile(path string, env config.Environment) io.Writer {
	filename := path
	if env == config.EnvProduct {
		filename = fmt.Sprintf("%s.%s.log", path, env)
	}

	return &lumberjack.Logger{
		Filename:   filename,
		MaxSize:    100, // MB
		MaxBackups: 10,
		MaxAge:     30, // days
		Compress:   true,
	}
}

// WithContext 创建带有请求ID的logger
func WithContext(requestID string) zerolog.Logger {
	return GetLogger().With().Str("request_id", requestID).Logger()
}
