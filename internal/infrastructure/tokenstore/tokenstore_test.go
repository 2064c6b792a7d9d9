package tokenstore

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"testing"

	"YourStockNews/internal/domain"
	"YourStockNews/internal/ports"
	"YourStockNews/internal/session"
)

func TestFileStoreRoundTrip(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "nested", "session.yaml")

	sess := session.New(NewFileStore(path))
	if err := sess.Store(ctx, domain.TokenPair{AccessToken: "T1", RefreshToken: "T2", TokenType: "bearer"}); err != nil {
		t.Fatalf("store: %v", err)
	}

	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("stat: %v", err)
	}
	if perm := info.Mode().Perm(); perm != 0o600 {
		t.Fatalf("permissions = %o, want 600", perm)
	}

	// A second store instance reads what the first one wrote.
	reopened := session.New(NewFileStore(path))
	pair, err := reopened.Tokens(ctx)
	if err != nil {
		t.Fatalf("tokens: %v", err)
	}
	if pair.AccessToken != "T1" || pair.RefreshToken != "T2" || pair.TokenType != "bearer" {
		t.Fatalf("unexpected pair %+v", pair)
	}

	if err := reopened.Clear(ctx); err != nil {
		t.Fatalf("clear: %v", err)
	}
	if _, err := os.Stat(path); !errors.Is(err, fs.ErrNotExist) {
		t.Fatalf("token file should be removed, stat err = %v", err)
	}
	token, err := sess.AccessToken(ctx)
	if err != nil || token != "" {
		t.Fatalf("access token after clear = %q, %v", token, err)
	}
}

func TestFileStoreRejectsCorruptFile(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "session.yaml")
	if err := os.WriteFile(path, []byte("access_token: [unterminated"), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	if _, err := NewFileStore(path).Get(context.Background(), session.AccessTokenKey); err == nil {
		t.Fatalf("expected parse error")
	}
}

func TestRedisStore(t *testing.T) {
	addr := os.Getenv("REDIS_ADDR")
	if addr == "" {
		t.Skip("REDIS_ADDR not set")
	}

	ctx := context.Background()
	store, err := NewRedisStore(ctx, RedisOptions{Addr: addr, Prefix: "stocknews:test:" + t.Name() + ":"})
	if err != nil {
		t.Fatalf("connect: %v", err)
	}
	defer store.Close()

	var _ ports.TokenStore = store
	if err := store.Set(ctx, "access_token", "T1"); err != nil {
		t.Fatalf("set: %v", err)
	}
	if got, err := store.Get(ctx, "access_token"); err != nil || got != "T1" {
		t.Fatalf("get = %q, %v", got, err)
	}
	if err := store.Delete(ctx, "access_token", "refresh_token"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if got, err := store.Get(ctx, "access_token"); err != nil || got != "" {
		t.Fatalf("get after delete = %q, %v", got, err)
	}
}
