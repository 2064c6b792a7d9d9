package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"YourStockNews/internal/api"
	"YourStockNews/internal/domain"
	"YourStockNews/internal/infrastructure/parser"
	"YourStockNews/internal/ports"
)

// ErrScanFailed reports a scan that ended in the failed state.
var ErrScanFailed = errors.New("scan failed")

const (
	defaultPageSize = 50
	excerptLen      = 280
)

// PipelineDeps wires all driven adapters into the alert pipeline.
type PipelineDeps struct {
	API        NewsAPI
	Watcher    *ScanWatcher
	Archive    ports.AlertArchive
	Notifiers  []ports.Notifier
	Events     ports.EventPublisher
	Summarizer ports.Summarizer
	Logger     *slog.Logger

	Severities []domain.Severity
	PageSize   int
	MarkRead   bool
	Now        func() time.Time
}

// RunReport summarizes one pipeline execution for a watchlist.
type RunReport struct {
	WatchlistID int64
	Job         domain.ScanJob
	Unread      int
	Skipped     int
	Delivered   []domain.Article
	Summary     string
}

// AlertPipeline scans a watchlist and forwards fresh alerts to every channel.
type AlertPipeline struct {
	api        NewsAPI
	watcher    *ScanWatcher
	archive    ports.AlertArchive
	notifiers  []ports.Notifier
	events     ports.EventPublisher
	summarizer ports.Summarizer
	logger     *slog.Logger
	severities []domain.Severity
	pageSize   int
	markRead   bool
	now        func() time.Time
}

// NewAlertPipeline constructs the orchestration component.
func NewAlertPipeline(deps PipelineDeps) *AlertPipeline {
	p := &AlertPipeline{
		api:        deps.API,
		watcher:    deps.Watcher,
		archive:    deps.Archive,
		notifiers:  deps.Notifiers,
		events:     deps.Events,
		summarizer: deps.Summarizer,
		logger:     deps.Logger,
		severities: deps.Severities,
		pageSize:   deps.PageSize,
		markRead:   deps.MarkRead,
		now:        deps.Now,
	}
	if p.logger == nil {
		p.logger = slog.New(slog.DiscardHandler)
	}
	if p.watcher == nil {
		p.watcher = NewScanWatcher(deps.API, 0, p.logger)
	}
	if p.pageSize <= 0 || p.pageSize > 100 {
		p.pageSize = defaultPageSize
	}
	if p.now == nil {
		p.now = time.Now
	}
	return p
}

// Run triggers a scan of watchlistID, waits for it, and delivers every unread
// article of the configured severities that was not delivered before.
func (p *AlertPipeline) Run(ctx context.Context, watchlistID int64) (RunReport, error) {
	report := RunReport{WatchlistID: watchlistID}

	watchlist, err := p.api.GetWatchlist(ctx, watchlistID)
	if err != nil {
		return report, fmt.Errorf("load watchlist %d: %w", watchlistID, err)
	}

	if len(watchlist.Tickers) == 0 {
		p.logger.Info("watchlist has no tickers, skipping", "watchlist_id", watchlistID)
		return report, nil
	}

	job, err := p.api.TriggerScan(ctx, watchlistID)
	if err != nil {
		return report, fmt.Errorf("trigger scan for %d: %w", watchlistID, err)
	}
	p.logger.Info("scan triggered", "watchlist_id", watchlistID, "scan_id", job.ID)

	job, err = p.watcher.Wait(ctx, job.ID)
	if err != nil {
		return report, err
	}
	report.Job = job

	if job.Status == domain.ScanFailed {
		p.publishEvent(ctx, job, 0)
		reason := "unknown error"
		if job.ErrorMessage != nil {
			reason = *job.ErrorMessage
		}
		return report, fmt.Errorf("%w: scan %d: %s", ErrScanFailed, job.ID, reason)
	}

	unread, err := p.listUnread(ctx, watchlist.Tickers)
	if err != nil {
		return report, err
	}
	report.Unread = len(unread)

	fresh, err := p.skipDelivered(ctx, unread)
	if err != nil {
		return report, err
	}
	report.Skipped = len(unread) - len(fresh)

	if len(fresh) > 0 {
		for i := range fresh {
			fresh[i] = parser.CleanArticle(fresh[i])
		}

		report.Summary = p.summarize(ctx, fresh)
		digest := buildDigestMessage(watchlist, fresh, report.Summary)
		if err := p.notify(ctx, digest); err != nil {
			return report, err
		}
	}

	p.publishEvent(ctx, job, len(fresh))

	deliveredAt := domain.NewTimestamp(p.now())
	for _, article := range fresh {
		if p.archive != nil {
			err := p.archive.SaveDelivered(ctx, domain.DeliveredAlert{
				ArticleID:   article.ID,
				WatchlistID: watchlistID,
				Title:       article.Title,
				URL:         article.URL,
				Severity:    article.Severity,
				Score:       article.Score,
				DeliveredAt: deliveredAt,
			})
			if err != nil {
				return report, fmt.Errorf("persist alert %d: %w", article.ID, err)
			}
		}

		if p.markRead {
			if _, err := p.api.MarkArticleRead(ctx, article.ID); err != nil {
				return report, fmt.Errorf("mark article %d read: %w", article.ID, err)
			}
		}
		report.Delivered = append(report.Delivered, article)
	}

	p.logger.Info("pipeline finished",
		"watchlist_id", watchlistID,
		"scan_id", job.ID,
		"articles_found", job.ArticlesFound,
		"delivered", len(report.Delivered),
		"skipped", report.Skipped,
	)
	return report, nil
}

// RunAll runs the pipeline for each id sequentially. With no ids every
// watchlist of the caller is processed. A failing watchlist does not stop
// the others unless the session expired.
func (p *AlertPipeline) RunAll(ctx context.Context, ids []int64) ([]RunReport, error) {
	if len(ids) == 0 {
		list, err := p.api.GetWatchlists(ctx)
		if err != nil {
			return nil, fmt.Errorf("list watchlists: %w", err)
		}
		for _, wl := range list.Watchlists {
			ids = append(ids, wl.ID)
		}
	}

	var (
		reports []RunReport
		errs    []error
	)
	for _, id := range ids {
		report, err := p.Run(ctx, id)
		reports = append(reports, report)
		if err == nil {
			continue
		}
		errs = append(errs, err)
		if errors.Is(err, api.ErrUnauthorized) || ctx.Err() != nil {
			break
		}
	}
	return reports, errors.Join(errs...)
}

func (p *AlertPipeline) listUnread(ctx context.Context, tickers []string) ([]domain.Article, error) {
	unread := 0
	filter := api.ArticleFilter{
		Page:       1,
		PageSize:   p.pageSize,
		Severities: p.severities,
		Tickers:    tickers,
		Posted:     &unread,
	}

	var articles []domain.Article
	for {
		page, err := p.api.GetArticles(ctx, filter.Query())
		if err != nil {
			return nil, fmt.Errorf("list unread articles: %w", err)
		}
		articles = append(articles, page.Articles...)
		if len(page.Articles) == 0 || filter.Page >= page.TotalPages {
			return articles, nil
		}
		filter.Page++
	}
}

func (p *AlertPipeline) skipDelivered(ctx context.Context, articles []domain.Article) ([]domain.Article, error) {
	if p.archive == nil || len(articles) == 0 {
		return articles, nil
	}

	ids := make([]int64, len(articles))
	for i, article := range articles {
		ids[i] = article.ID
	}
	seen, err := p.archive.AlreadyDelivered(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("load delivered: %w", err)
	}

	fresh := make([]domain.Article, 0, len(articles))
	for _, article := range articles {
		if !seen[article.ID] {
			fresh = append(fresh, article)
		}
	}
	return fresh, nil
}

// summarize is best effort: a failing model leaves the digest without a summary.
func (p *AlertPipeline) summarize(ctx context.Context, articles []domain.Article) string {
	if p.summarizer == nil {
		return ""
	}
	payload, err := buildDigestJSON(articles)
	if err != nil {
		p.logger.Warn("build summary payload", "error", err)
		return ""
	}
	summary, err := p.summarizer.SummarizeDigest(ctx, payload)
	if err != nil {
		p.logger.Warn("summarize digest", "error", err)
		return ""
	}
	return summary
}

// notify fails when any channel fails so the alerts are retried next run.
func (p *AlertPipeline) notify(ctx context.Context, digest string) error {
	var errs []error
	for _, n := range p.notifiers {
		if err := n.PublishDigest(ctx, digest); err != nil {
			errs = append(errs, fmt.Errorf("notify %s: %w", n.Name(), err))
		}
	}
	return errors.Join(errs...)
}

func (p *AlertPipeline) publishEvent(ctx context.Context, job domain.ScanJob, delivered int) {
	if p.events == nil {
		return
	}
	event := domain.ScanCompleted{
		ScanID:        job.ID,
		WatchlistID:   job.WatchlistID,
		Status:        job.Status,
		ArticlesFound: job.ArticlesFound,
		Delivered:     delivered,
		FinishedAt:    job.FinishedAt,
	}
	if job.ErrorMessage != nil {
		event.ErrorMessage = *job.ErrorMessage
	}
	if err := p.events.PublishScanCompleted(ctx, event); err != nil {
		p.logger.Warn("publish scan event", "scan_id", job.ID, "error", err)
	}
}

func buildDigestMessage(watchlist domain.Watchlist, articles []domain.Article, summary string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s: %d new alert(s)\n\n", watchlist.Name, len(articles))
	if summary != "" {
		b.WriteString(summary)
		b.WriteString("\n\n")
	}
	for _, article := range articles {
		fmt.Fprintf(&b, "- [%s] %s\nScore: %.2f Tickers: %s\n",
			article.Severity,
			article.Title,
			article.Score,
			strings.Join(article.Tickers, ", "))
		if text := article.DescriptionText(); text != "" {
			b.WriteString(parser.Excerpt(text, excerptLen))
			b.WriteByte('\n')
		}
		b.WriteString(article.URL)
		b.WriteString("\n\n")
	}
	return strings.TrimRight(b.String(), "\n")
}

func buildDigestJSON(articles []domain.Article) ([]byte, error) {
	type item struct {
		ID          int64    `json:"id"`
		Title       string   `json:"title"`
		Severity    string   `json:"severity"`
		Score       float64  `json:"score"`
		Tickers     []string `json:"tickers"`
		Description string   `json:"description,omitempty"`
		URL         string   `json:"url"`
	}

	payload := make([]item, 0, len(articles))
	for _, article := range articles {
		payload = append(payload, item{
			ID:          article.ID,
			Title:       article.Title,
			Severity:    string(article.Severity),
			Score:       article.Score,
			Tickers:     article.Tickers,
			Description: article.DescriptionText(),
			URL:         article.URL,
		})
	}

	return json.Marshal(payload)
}
