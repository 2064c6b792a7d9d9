package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/segmentio/ksuid"

	"YourStockNews/internal/session"
)

// DefaultBaseURL is used when no override is configured.
const DefaultBaseURL = "http://localhost:8000/api"

// Client is the single access point to the YourStockNews backend. It is safe
// for concurrent use; every method performs exactly one round trip and never
// retries or caches.
type Client struct {
	baseURL   string
	http      *http.Client
	session   *session.Session
	logger    *slog.Logger
	onExpired []func(context.Context)
}

// Option customizes a Client.
type Option func(*Client)

// WithHTTPClient replaces the transport. The client sets no timeout of its
// own; deadlines come from the caller's context.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.http = hc
		}
	}
}

// WithLogger attaches a logger for per-request debug lines.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithSessionExpiredHook registers fn to run after a 401 cleared the session.
// Hosts use it to send the user back to the login flow.
func WithSessionExpiredHook(fn func(context.Context)) Option {
	return func(c *Client) {
		if fn != nil {
			c.onExpired = append(c.onExpired, fn)
		}
	}
}

// New builds a client for baseURL. A nil session gets an in-memory store.
func New(baseURL string, sess *session.Session, opts ...Option) *Client {
	if strings.TrimSpace(baseURL) == "" {
		baseURL = DefaultBaseURL
	}
	if sess == nil {
		sess = session.New(nil)
	}
	c := &Client{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		http:    &http.Client{},
		session: sess,
		logger:  slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// BaseURL returns the resolved backend address.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// Session exposes the credentials the client reads on every request.
func (c *Client) Session() *session.Session {
	return c.session
}

// Do issues an authenticated request against endpoint and decodes a 2xx body
// into out (skipped when out is nil).
func (c *Client) Do(ctx context.Context, method, endpoint string, query Query, body, out any) error {
	var payload io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal %s payload: %w", endpoint, err)
		}
		payload = bytes.NewReader(raw)
	}

	target := c.baseURL + endpoint
	if encoded := query.Encode(); encoded != "" {
		target += "?" + encoded
	}

	req, err := http.NewRequestWithContext(ctx, method, target, payload)
	if err != nil {
		return fmt.Errorf("new request: %w", err)
	}

	token, err := c.session.AccessToken(ctx)
	if err != nil {
		return err
	}
	requestID := ksuid.New().String()
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Request-ID", requestID)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	started := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		return &TransportError{Method: method, Endpoint: endpoint, Err: err}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return &TransportError{Method: method, Endpoint: endpoint, Err: fmt.Errorf("read body: %w", err)}
	}

	c.logger.Debug("api request",
		"method", method,
		"endpoint", endpoint,
		"status", resp.StatusCode,
		"duration", time.Since(started),
		"request_id", requestID,
	)

	if resp.StatusCode == http.StatusUnauthorized {
		c.expire(ctx, token)
		return ErrUnauthorized
	}
	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return newRequestError(resp.StatusCode, raw)
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return &DecodeError{Endpoint: endpoint, Status: resp.StatusCode, Err: err}
	}
	return nil
}

// expire tears the session down after a 401 and notifies the host.
func (c *Client) expire(ctx context.Context, sent string) {
	// Clearing must happen even when the caller's context is already done.
	ctx = context.WithoutCancel(ctx)

	cleared, err := c.session.ClearIf(ctx, sent)
	if err != nil {
		c.logger.Error("clear session after 401", "error", err)
		return
	}
	if !cleared {
		c.logger.Info("stale 401 ignored, session was replaced by a newer login")
		return
	}

	c.logger.Warn("session expired")
	for _, fn := range c.onExpired {
		fn(ctx)
	}
}

func (c *Client) get(ctx context.Context, endpoint string, out any) error {
	return c.Do(ctx, http.MethodGet, endpoint, nil, nil, out)
}

func (c *Client) send(ctx context.Context, method, endpoint string, body, out any) error {
	return c.Do(ctx, method, endpoint, nil, body, out)
}
