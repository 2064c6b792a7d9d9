package api

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"YourStockNews/internal/domain"
)

// GetWatchlists returns every watchlist of the caller.
func (c *Client) GetWatchlists(ctx context.Context) (domain.WatchlistList, error) {
	var list domain.WatchlistList
	if err := c.get(ctx, "/watchlists", &list); err != nil {
		return domain.WatchlistList{}, err
	}
	return list, nil
}

// GetWatchlist returns a single watchlist.
func (c *Client) GetWatchlist(ctx context.Context, id int64) (domain.Watchlist, error) {
	var wl domain.Watchlist
	if err := c.get(ctx, watchlistPath(id), &wl); err != nil {
		return domain.Watchlist{}, err
	}
	return wl, nil
}

// CreateWatchlist creates a watchlist. Tickers are sent exactly as given.
func (c *Client) CreateWatchlist(ctx context.Context, name string, tickers []string) (domain.Watchlist, error) {
	if tickers == nil {
		tickers = []string{}
	}
	body := struct {
		Name    string   `json:"name"`
		Tickers []string `json:"tickers"`
	}{Name: name, Tickers: tickers}

	var wl domain.Watchlist
	if err := c.send(ctx, http.MethodPost, "/watchlists", body, &wl); err != nil {
		return domain.Watchlist{}, err
	}
	return wl, nil
}

// DeleteWatchlist removes a watchlist.
func (c *Client) DeleteWatchlist(ctx context.Context, id int64) (domain.Message, error) {
	var msg domain.Message
	if err := c.send(ctx, http.MethodDelete, watchlistPath(id), nil, &msg); err != nil {
		return domain.Message{}, err
	}
	return msg, nil
}

// AddTicker adds one ticker and returns the updated watchlist.
func (c *Client) AddTicker(ctx context.Context, watchlistID int64, ticker string) (domain.Watchlist, error) {
	body := struct {
		Ticker string `json:"ticker"`
	}{Ticker: ticker}

	var wl domain.Watchlist
	if err := c.send(ctx, http.MethodPost, watchlistPath(watchlistID)+"/tickers", body, &wl); err != nil {
		return domain.Watchlist{}, err
	}
	return wl, nil
}

// RemoveTicker removes one ticker from a watchlist.
func (c *Client) RemoveTicker(ctx context.Context, watchlistID int64, ticker string) (domain.Message, error) {
	endpoint := watchlistPath(watchlistID) + "/tickers/" + url.PathEscape(ticker)

	var msg domain.Message
	if err := c.send(ctx, http.MethodDelete, endpoint, nil, &msg); err != nil {
		return domain.Message{}, err
	}
	return msg, nil
}

func watchlistPath(id int64) string {
	return fmt.Sprintf("/watchlists/%d", id)
}
