package logging

import (
	"log/slog"
	"testing"
)

func TestLevelFromString(t *testing.T) {
	t.Parallel()

	cases := map[string]slog.Level{
		"error":   slog.LevelError,
		" WARN ":  slog.LevelWarn,
		"warning": slog.LevelWarn,
		"info":    slog.LevelInfo,
		"debug":   slog.LevelDebug,
		"":        slog.LevelDebug,
	}
	for input, want := range cases {
		if got := levelFromString(input); got != want {
			t.Fatalf("levelFromString(%q) = %v, want %v", input, got, want)
		}
	}
}
