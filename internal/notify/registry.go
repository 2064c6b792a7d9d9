package notify

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"YourStockNews/internal/ports"
)

// Registry keeps a mapping from channel names to their notifiers.
type Registry struct {
	notifiers map[string]ports.Notifier
}

// NewRegistry builds an empty registry.
func NewRegistry() *Registry {
	return &Registry{notifiers: map[string]ports.Notifier{}}
}

// Register adds or replaces a notifier implementation.
func (r *Registry) Register(n ports.Notifier) {
	if r.notifiers == nil {
		r.notifiers = map[string]ports.Notifier{}
	}
	r.notifiers[n.Name()] = n
}

// Resolve returns a notifier by name or an error if it is absent.
func (r *Registry) Resolve(name string) (ports.Notifier, error) {
	if n, ok := r.notifiers[strings.ToLower(strings.TrimSpace(name))]; ok {
		return n, nil
	}
	return nil, fmt.Errorf("notification channel %s is not registered", name)
}

// Select resolves every name in order, skipping duplicates.
func (r *Registry) Select(names []string) ([]ports.Notifier, error) {
	seen := map[string]bool{}
	out := make([]ports.Notifier, 0, len(names))
	for _, name := range names {
		n, err := r.Resolve(name)
		if err != nil {
			return nil, err
		}
		if seen[n.Name()] {
			continue
		}
		seen[n.Name()] = true
		out = append(out, n)
	}
	return out, nil
}

// Names lists registered channels alphabetically.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.notifiers))
	for name := range r.notifiers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// LogNotifier writes digests to the application log.
type LogNotifier struct {
	logger *slog.Logger
}

var _ ports.Notifier = (*LogNotifier)(nil)

// NewLogNotifier wraps logger.
func NewLogNotifier(logger *slog.Logger) *LogNotifier {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &LogNotifier{logger: logger}
}

func (l *LogNotifier) Name() string { return "log" }

func (l *LogNotifier) PublishDigest(ctx context.Context, digest string) error {
	l.logger.InfoContext(ctx, "alert digest", "digest", digest)
	return nil
}
