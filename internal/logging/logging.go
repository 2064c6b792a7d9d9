package logging

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	rotatelogs "github.com/lestrrat-go/file-rotatelogs"
)

// New creates a console slog.Logger with provided level string.
func New(level string) *slog.Logger {
	return newLogger(os.Stdout, level)
}

// NewWithFile mirrors console output into a daily rotated file. The returned
// closer releases the file handle.
func NewWithFile(level, path string) (*slog.Logger, io.Closer, error) {
	if strings.TrimSpace(path) == "" {
		return New(level), io.NopCloser(nil), nil
	}

	rotator, err := rotatelogs.New(
		path+".%Y%m%d",
		rotatelogs.WithLinkName(path),
		rotatelogs.WithRotationTime(24*time.Hour),
		rotatelogs.WithMaxAge(7*24*time.Hour),
	)
	if err != nil {
		return nil, nil, fmt.Errorf("open log file %s: %w", path, err)
	}

	return newLogger(io.MultiWriter(os.Stdout, rotator), level), rotator, nil
}

func newLogger(w io.Writer, level string) *slog.Logger {
	handler := slog.NewTextHandler(w, &slog.HandlerOptions{
		Level: levelFromString(level),
	})
	return slog.New(handler)
}

func levelFromString(value string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "error":
		return slog.LevelError
	case "warn", "warning":
		return slog.LevelWarn
	case "info":
		return slog.LevelInfo
	default:
		return slog.LevelDebug
	}
}
