package usecase

import (
	"context"

	"YourStockNews/internal/api"
	"YourStockNews/internal/domain"
)

// NewsAPI is the slice of the backend the use cases depend on.
type NewsAPI interface {
	GetCurrentUser(ctx context.Context) (domain.User, error)
	GetWatchlists(ctx context.Context) (domain.WatchlistList, error)
	GetWatchlist(ctx context.Context, id int64) (domain.Watchlist, error)
	GetArticles(ctx context.Context, query api.Query) (domain.ArticlePage, error)
	GetArticleStats(ctx context.Context) (domain.ArticleStats, error)
	MarkArticleRead(ctx context.Context, id int64) (domain.Message, error)
	TriggerScan(ctx context.Context, watchlistID int64) (domain.ScanJob, error)
	GetScanStatus(ctx context.Context, id int64) (domain.ScanJob, error)
}

var _ NewsAPI = (*api.Client)(nil)
