package logger

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"parley/internal/config"
	"parley/internal/pkg/ctxutil"
)

// Init 初始化全局日志
func Init(cfg *config.LogConfig) error {
	level, err := zerolog.ParseLevel(cfg.Level)
	if err != nil || cfg.Level == "" {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)

	switch cfg.TimeFormat {
	case "Unix":
		zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	case "UnixMs":
		zerolog.TimeFieldFormat = zerolog.TimeFormatUnixMs
	default:
		zerolog.TimeFieldFormat = time.RFC3339
	}

	var output io.Writer = os.Stdout
	if cfg.Output == "file" && cfg.FilePath != "" {
		if err := os.MkdirAll(filepath.Dir(cfg.FilePath), 0o755); err != nil {
			return err
		}
		file, err := os.OpenFile(cfg.FilePath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return err
		}
		output = file
	}

	// Console 格式 (开发环境友好)
	if cfg.Format == "console" {
		output = zerolog.ConsoleWriter{
			Out:        output,
			TimeFormat: time.RFC3339,
		}
	}

	log.Logger = zerolog.New(output).With().Timestamp().Caller().Logger()

	return nil
}

// FromContext 返回携带 request_id / user_id 字段的子 logger
func FromContext(ctx context.Context) *zerolog.Logger {
	lc := log.With()
	if rid, ok := ctxutil.GetRequestID(ctx); ok {
		lc = lc.Str("request_id", rid)
	}
	if uid, ok := ctxutil.GetUserID(ctx); ok {
		lc = lc.Str("user_id", uid)
	}
	l := lc.Logger()
	return &l
}
