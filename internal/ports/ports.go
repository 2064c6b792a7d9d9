package ports

import (
	"context"

	"YourStockNews/internal/domain"
)

// TokenStore is the client-side key/value store holding session credentials.
type TokenStore interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string) error
	Delete(ctx context.Context, keys ...string) error
}

// AlertArchive remembers which articles were already delivered.
type AlertArchive interface {
	AlreadyDelivered(ctx context.Context, ids []int64) (map[int64]bool, error)
	SaveDelivered(ctx context.Context, alert domain.DeliveredAlert) error
}

// Notifier streams alert digests to Telegram or other channels.
type Notifier interface {
	Name() string
	PublishDigest(ctx context.Context, digest string) error
}

// EventPublisher announces finished scans to downstream consumers.
type EventPublisher interface {
	PublishScanCompleted(ctx context.Context, event domain.ScanCompleted) error
}

// Summarizer condenses a digest before it is delivered (e.g. ChatGPT).
type Summarizer interface {
	SummarizeDigest(ctx context.Context, payload []byte) (string, error)
}

// Scheduler controls when the alert pipeline executes.
type Scheduler interface {
	Start(ctx context.Context, job func(context.Context)) error
	Stop(ctx context.Context) error
}
