package telegram

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestPublishDigestPostsForm(t *testing.T) {
	t.Parallel()

	type call struct {
		path string
		form map[string]string
	}
	calls := make(chan call, 1)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseForm(); err != nil {
			t.Errorf("parse form: %v", err)
		}
		calls <- call{path: r.URL.Path, form: map[string]string{
			"chat_id":    r.PostForm.Get("chat_id"),
			"text":       r.PostForm.Get("text"),
			"parse_mode": r.PostForm.Get("parse_mode"),
		}}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"ok":true}`))
	}))
	defer server.Close()

	n := NewNotifier("123:abc", "42", WithAPIBase(server.URL))
	if err := n.PublishDigest(context.Background(), "*AAPL* beats estimates"); err != nil {
		t.Fatalf("publish: %v", err)
	}

	got := <-calls
	path, form := got.path, got.form
	if path != "/bot123:abc/sendMessage" {
		t.Fatalf("path = %q", path)
	}
	if form["chat_id"] != "42" || form["text"] != "*AAPL* beats estimates" || form["parse_mode"] != "Markdown" {
		t.Fatalf("unexpected form %v", form)
	}
}

func TestPublishDigestErrors(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer server.Close()

	if err := NewNotifier("t", "c", WithAPIBase(server.URL)).PublishDigest(context.Background(), "x"); err == nil {
		t.Fatalf("expected error on 403")
	}
	if err := NewNotifier("", "c").PublishDigest(context.Background(), "x"); err == nil {
		t.Fatalf("expected misconfiguration error")
	}
}

func TestTruncate(t *testing.T) {
	t.Parallel()

	long := strings.Repeat("a", maxMessageLen+10)
	if got := []rune(truncate(long, maxMessageLen)); len(got) != maxMessageLen {
		t.Fatalf("truncated length = %d", len(got))
	}
	if truncate("short", maxMessageLen) != "short" {
		t.Fatalf("short text changed")
	}
}
