package session

import (
	"context"
	"fmt"
	"sync"

	"YourStockNews/internal/domain"
	"YourStockNews/internal/ports"
)

// Keys under which credentials are persisted in the token store.
const (
	AccessTokenKey  = "access_token"
	RefreshTokenKey = "refresh_token"
	TokenTypeKey    = "token_type"
)

var allKeys = []string{AccessTokenKey, RefreshTokenKey, TokenTypeKey}

// Session holds the caller's credentials on top of a TokenStore.
// All reads and writes go through the store so that several processes
// sharing a file or Redis store observe the same session.
type Session struct {
	mu    sync.Mutex
	store ports.TokenStore
}

// New binds a session to the given store; nil means an in-memory store.
func New(store ports.TokenStore) *Session {
	if store == nil {
		store = NewMemoryStore()
	}
	return &Session{store: store}
}

// AccessToken returns the stored access token or "" when logged out.
func (s *Session) AccessToken(ctx context.Context) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	token, err := s.store.Get(ctx, AccessTokenKey)
	if err != nil {
		return "", fmt.Errorf("read access token: %w", err)
	}
	return token, nil
}

// Tokens returns the full stored pair.
func (s *Session) Tokens(ctx context.Context) (domain.TokenPair, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var (
		pair domain.TokenPair
		err  error
	)
	if pair.AccessToken, err = s.store.Get(ctx, AccessTokenKey); err != nil {
		return domain.TokenPair{}, fmt.Errorf("read access token: %w", err)
	}
	if pair.RefreshToken, err = s.store.Get(ctx, RefreshTokenKey); err != nil {
		return domain.TokenPair{}, fmt.Errorf("read refresh token: %w", err)
	}
	if pair.TokenType, err = s.store.Get(ctx, TokenTypeKey); err != nil {
		return domain.TokenPair{}, fmt.Errorf("read token type: %w", err)
	}
	return pair, nil
}

// Store persists both tokens of a freshly issued pair.
func (s *Session) Store(ctx context.Context, pair domain.TokenPair) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.store.Set(ctx, AccessTokenKey, pair.AccessToken); err != nil {
		return fmt.Errorf("store access token: %w", err)
	}
	if err := s.store.Set(ctx, RefreshTokenKey, pair.RefreshToken); err != nil {
		return fmt.Errorf("store refresh token: %w", err)
	}
	if pair.TokenType == "" {
		if err := s.store.Delete(ctx, TokenTypeKey); err != nil {
			return fmt.Errorf("drop token type: %w", err)
		}
		return nil
	}
	if err := s.store.Set(ctx, TokenTypeKey, pair.TokenType); err != nil {
		return fmt.Errorf("store token type: %w", err)
	}
	return nil
}

// Clear removes every stored credential.
func (s *Session) Clear(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.clearLocked(ctx)
}

// ClearIf removes the credentials only while sent is still the stored access
// token. It reports whether the store was cleared. A newer login that landed
// while a request carrying an older token was in flight survives that
// request's 401.
func (s *Session) ClearIf(ctx context.Context, sent string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	current, err := s.store.Get(ctx, AccessTokenKey)
	if err != nil {
		return false, fmt.Errorf("read access token: %w", err)
	}
	if current != sent {
		return false, nil
	}
	if err := s.clearLocked(ctx); err != nil {
		return false, err
	}
	return true, nil
}

func (s *Session) clearLocked(ctx context.Context) error {
	if err := s.store.Delete(ctx, allKeys...); err != nil {
		return fmt.Errorf("clear session: %w", err)
	}
	return nil
}
