package main

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http/httptest"
	"path/filepath"
	"strconv"
	"strings"
	"testing"
	"time"

	"YourStockNews/internal/api"
	"YourStockNews/internal/config"
	"YourStockNews/internal/domain"
	"YourStockNews/internal/fakeapi"
)

type harness struct {
	fake *fakeapi.Server
	cfg  config.Config
	t    *testing.T
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	fake := fakeapi.New()
	server := httptest.NewServer(fake)
	t.Cleanup(server.Close)

	dir := t.TempDir()
	cfg := config.Config{
		API:     config.APIConfig{BaseURL: server.URL + "/api", RequestTimeout: 5 * time.Second},
		Session: config.SessionConfig{Store: config.StoreFile, File: filepath.Join(dir, "session.yaml")},
		Archive: config.ArchiveConfig{Path: filepath.Join(dir, "alerts.db")},
		Watch: config.WatchConfig{
			Interval:     time.Hour,
			PollInterval: time.Millisecond,
			Severities:   []string{"HIGH"},
		},
		Notifications: config.NotificationConfig{Channels: []string{"log"}},
	}
	return &harness{fake: fake, cfg: cfg, t: t}
}

func (h *harness) run(stdin string, args ...string) (string, error) {
	h.t.Helper()
	var out bytes.Buffer
	cli := &CLI{
		cfg:    h.cfg,
		logger: slog.New(slog.DiscardHandler),
		stdin:  strings.NewReader(stdin),
		stdout: &out,
	}
	err := cli.Run(context.Background(), args)
	return out.String(), err
}

func (h *harness) mustRun(args ...string) string {
	h.t.Helper()
	out, err := h.run("", args...)
	if err != nil {
		h.t.Fatalf("%v: %v", args, err)
	}
	return out
}

func (h *harness) createWatchlist(name string, tickers ...string) string {
	h.t.Helper()
	out := h.mustRun(append([]string{"watchlists", "create", name}, tickers...)...)
	var id int64
	if _, err := fmt.Sscanf(out, "Created watchlist %d.", &id); err != nil {
		h.t.Fatalf("unexpected create output %q", out)
	}
	return strconv.FormatInt(id, 10)
}

func TestCLISessionLifecycle(t *testing.T) {
	t.Parallel()

	h := newHarness(t)
	out, err := h.run("longpassword\n", "register", "-email", "trader@example.com")
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	if !strings.Contains(out, "Signed in as trader@example.com") {
		t.Fatalf("unexpected register output %q", out)
	}

	out = h.mustRun("whoami")
	if !strings.Contains(out, "email: trader@example.com") || !strings.Contains(out, "token expires:") {
		t.Fatalf("unexpected whoami output %q", out)
	}

	h.mustRun("logout")
	if _, err := h.run("", "whoami"); !errors.Is(err, api.ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized after logout, got %v", err)
	}

	if _, err := h.run("", "login", "-email", "trader@example.com", "-password", "wrongpassword"); err == nil ||
		!strings.Contains(err.Error(), "incorrect email or password") {
		t.Fatalf("expected credential error, got %v", err)
	}
	h.mustRun("login", "-email", "trader@example.com", "-password", "longpassword")
}

func TestCLIWatchlistsArticlesAndScans(t *testing.T) {
	t.Parallel()

	h := newHarness(t)
	h.mustRun("register", "-email", "trader@example.com", "-password", "longpassword")

	id := h.createWatchlist("Tech", "aapl", "msft")
	out := h.mustRun("watchlists")
	if !strings.Contains(out, "Tech") || !strings.Contains(out, "AAPL, MSFT") {
		t.Fatalf("unexpected list output %q", out)
	}

	h.fake.AddArticle("trader@example.com", domain.Article{Title: "Apple beats", Severity: domain.SeverityHigh, Tickers: []string{"AAPL"}})
	h.fake.AddArticle("trader@example.com", domain.Article{Title: "Quiet day", Severity: domain.SeverityLow, Tickers: []string{"MSFT"}})

	out = h.mustRun("articles", "list", "-severity", "high", "-unread")
	if !strings.Contains(out, "Apple beats") || strings.Contains(out, "Quiet day") {
		t.Fatalf("unexpected articles output %q", out)
	}
	out = h.mustRun("articles", "stats")
	if !strings.Contains(out, "total: 2") {
		t.Fatalf("unexpected stats output %q", out)
	}

	out = h.mustRun("scans", "trigger", id)
	if !strings.Contains(out, "pending") {
		t.Fatalf("unexpected trigger output %q", out)
	}
	out = h.mustRun("dashboard")
	if !strings.Contains(out, "articles: 2 total") {
		t.Fatalf("unexpected dashboard output %q", out)
	}
}

func TestCLIAlertsAndHistory(t *testing.T) {
	t.Parallel()

	h := newHarness(t)
	h.mustRun("register", "-email", "trader@example.com", "-password", "longpassword")
	id := h.createWatchlist("Tech", "AAPL")
	wlID, _ := strconv.ParseInt(id, 10, 64)
	h.fake.QueueScanArticles(wlID, domain.Article{Title: "Apple beats", Severity: domain.SeverityHigh, Tickers: []string{"AAPL"}})

	out := h.mustRun("alerts", "-watchlists", id)
	if !strings.Contains(out, "1 delivered") {
		t.Fatalf("unexpected alerts output %q", out)
	}
	out = h.mustRun("history")
	if !strings.Contains(out, "Apple beats") {
		t.Fatalf("unexpected history output %q", out)
	}
}

func TestCLIUsageAndErrors(t *testing.T) {
	t.Parallel()

	h := newHarness(t)
	out := h.mustRun()
	if !strings.Contains(out, "usage: stocknews") {
		t.Fatalf("expected usage, got %q", out)
	}
	if _, err := h.run("", "frobnicate"); err == nil {
		t.Fatalf("expected unknown command error")
	}
	if _, err := h.run("", "watchlists", "show", "x"); err == nil {
		t.Fatalf("expected invalid id error")
	}
}
