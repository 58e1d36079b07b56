package pkg

import (
	"context"
	"io"
	"log/slog"
	"os"

	"github.com/lmittmann/tint"
	"github.com/mattn/go-colorable"
	"github.com/mattn/go-isatty"
)

type LogLevel int

const (
	LogLevelNone LogLevel = iota
	LogLevelErrOnly
	LogLevelDebug
)

// ParseLogLevel maps the textual level used in config files and flags.
func ParseLogLevel(s string) LogLevel {
	switch s {
	case "none", "off":
		return LogLevelNone
	case "debug":
		return LogLevelDebug
	default:
		return LogLevelErrOnly
	}
}

var (
	log_level = &slog.LevelVar{}
	logger    = newLogger(os.Stderr)
)

func init() { log_level.Set(slog.LevelError) }

func newLogger(w *os.File) *slog.Logger {
	return slog.New(tint.NewHandler(colorable.NewColorable(w), &tint.Options{
		Level:      log_level,
		TimeFormat: "15:04:05.000",
		NoColor:    !isatty.IsTerminal(w.Fd()),
	}))
}

func SetLogLevel(level LogLevel) {
	switch level {
	case LogLevelNone:
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
		return
	case LogLevelErrOnly:
		log_level.Set(slog.LevelError)
	case LogLevelDebug:
		log_level.Set(slog.LevelDebug)
	}
	logger = newLogger(os.Stderr)
	logger.Debug("log level set", "level", level)
}

// Logger exposes the configured logger for packages that take a *slog.Logger.
func Logger() *slog.Logger { return logger }

func InfoLog(msg string, args ...any)  { logger.Info(msg, args...) }
func ErrorLog(msg string, args ...any) { logger.Error(msg, args...) }
func WarnLog(msg string, args ...any)  { logger.Warn(msg, args...) }
func DebugLog(msg string, args ...any) { logger.Debug(msg, args...) }

func FatalLog(msg string, args ...any) {
	logger.Log(context.Background(), slog.LevelError+4, msg, args...)
	os.Exit(1)
}
