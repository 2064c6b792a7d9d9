package notify

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"testing"
)

type namedNotifier struct{ name string }

func (n namedNotifier) Name() string                                { return n.name }
func (n namedNotifier) PublishDigest(context.Context, string) error { return nil }

func TestRegistrySelect(t *testing.T) {
	t.Parallel()

	r := NewRegistry()
	r.Register(namedNotifier{name: "telegram"})
	r.Register(NewLogNotifier(nil))

	got, err := r.Select([]string{"log", " Telegram ", "log"})
	if err != nil {
		t.Fatalf("select: %v", err)
	}
	if len(got) != 2 || got[0].Name() != "log" || got[1].Name() != "telegram" {
		t.Fatalf("unexpected selection %v", got)
	}

	if _, err := r.Select([]string{"pager"}); err == nil {
		t.Fatalf("expected error for unknown channel")
	}
	if names := r.Names(); strings.Join(names, ",") != "log,telegram" {
		t.Fatalf("names = %v", names)
	}
}

func TestLogNotifierWritesDigest(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	n := NewLogNotifier(slog.New(slog.NewTextHandler(&buf, nil)))
	if err := n.PublishDigest(context.Background(), "AAPL beats"); err != nil {
		t.Fatalf("publish: %v", err)
	}
	if !strings.Contains(buf.String(), "AAPL beats") {
		t.Fatalf("digest missing from log: %s", buf.String())
	}
}
