package usecase

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"YourStockNews/internal/domain"
)

// DashboardView is everything the landing screen shows at once.
type DashboardView struct {
	User       domain.User
	Watchlists domain.WatchlistList
	Stats      domain.ArticleStats
}

// Dashboard loads the landing screen.
type Dashboard struct {
	api NewsAPI
}

// NewDashboard wraps the backend client.
func NewDashboard(client NewsAPI) *Dashboard {
	return &Dashboard{api: client}
}

// Load fetches profile, watchlists and stats concurrently. Every request
// runs to completion; if any of them failed the whole view is discarded and
// the first error is returned.
func (d *Dashboard) Load(ctx context.Context) (DashboardView, error) {
	var view DashboardView
	var g errgroup.Group

	g.Go(func() error {
		user, err := d.api.GetCurrentUser(ctx)
		if err != nil {
			return fmt.Errorf("load profile: %w", err)
		}
		view.User = user
		return nil
	})
	g.Go(func() error {
		list, err := d.api.GetWatchlists(ctx)
		if err != nil {
			return fmt.Errorf("load watchlists: %w", err)
		}
		view.Watchlists = list
		return nil
	})
	g.Go(func() error {
		stats, err := d.api.GetArticleStats(ctx)
		if err != nil {
			return fmt.Errorf("load stats: %w", err)
		}
		view.Stats = stats
		return nil
	})

	if err := g.Wait(); err != nil {
		return DashboardView{}, err
	}
	return view, nil
}
