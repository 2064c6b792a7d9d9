package telegram

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"YourStockNews/internal/ports"
)

const defaultAPIBase = "https://api.telegram.org"

// maxMessageLen is the Bot API limit for a single text message.
const maxMessageLen = 4096

// Notifier sends alert digests to a Telegram chat via bot API.
type Notifier struct {
	botToken string
	chatID   string
	apiBase  string
	client   *http.Client
}

var _ ports.Notifier = (*Notifier)(nil)

// Option customizes a Notifier.
type Option func(*Notifier)

// WithAPIBase points the notifier at another Bot API host.
func WithAPIBase(base string) Option {
	return func(n *Notifier) {
		if base != "" {
			n.apiBase = strings.TrimSuffix(base, "/")
		}
	}
}

// NewNotifier registers bot token and chat identifier.
func NewNotifier(botToken, chatID string, opts ...Option) *Notifier {
	n := &Notifier{
		botToken: botToken,
		chatID:   chatID,
		apiBase:  defaultAPIBase,
		client:   &http.Client{Timeout: 5 * time.Second},
	}
	for _, opt := range opts {
		opt(n)
	}
	return n
}

func (n *Notifier) Name() string { return "telegram" }

// PublishDigest posts a Markdown message to Telegram.
func (n *Notifier) PublishDigest(ctx context.Context, digest string) error {
	if n.botToken == "" || n.chatID == "" || n.client == nil {
		return fmt.Errorf("telegram notifier misconfigured")
	}

	endpoint := fmt.Sprintf("%s/bot%s/sendMessage", n.apiBase, n.botToken)
	form := url.Values{}
	form.Set("chat_id", n.chatID)
	form.Set("text", truncate(digest, maxMessageLen))
	form.Set("parse_mode", "Markdown")
	form.Set("disable_web_page_preview", "true")

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return fmt.Errorf("new request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("telegram error: %s", resp.Status)
	}

	return nil
}

func truncate(text string, limit int) string {
	runes := []rune(text)
	if len(runes) <= limit {
		return text
	}
	return string(runes[:limit-1]) + "…"
}
