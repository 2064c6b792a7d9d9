package api

import (
	"context"
	"fmt"
	"net/http"

	"YourStockNews/internal/domain"
)

// TriggerScan starts a scan of a watchlist and returns the new job.
func (c *Client) TriggerScan(ctx context.Context, watchlistID int64) (domain.ScanJob, error) {
	body := struct {
		WatchlistID int64 `json:"watchlist_id"`
	}{WatchlistID: watchlistID}

	var job domain.ScanJob
	if err := c.send(ctx, http.MethodPost, "/scans", body, &job); err != nil {
		return domain.ScanJob{}, err
	}
	return job, nil
}

// GetScanHistory returns every scan job of the caller.
func (c *Client) GetScanHistory(ctx context.Context) (domain.ScanJobList, error) {
	var list domain.ScanJobList
	if err := c.get(ctx, "/scans", &list); err != nil {
		return domain.ScanJobList{}, err
	}
	return list, nil
}

// GetScanStatus returns the current state of one job.
func (c *Client) GetScanStatus(ctx context.Context, id int64) (domain.ScanJob, error) {
	var job domain.ScanJob
	if err := c.get(ctx, fmt.Sprintf("/scans/%d", id), &job); err != nil {
		return domain.ScanJob{}, err
	}
	return job, nil
}
