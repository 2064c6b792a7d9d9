package api

import (
	"context"
	"fmt"
	"net/http"

	"YourStockNews/internal/domain"
)

// GetArticles returns one page of articles. The query is passed through
// verbatim; see ArticleFilter for the parameters the backend understands.
func (c *Client) GetArticles(ctx context.Context, query Query) (domain.ArticlePage, error) {
	var page domain.ArticlePage
	if err := c.Do(ctx, http.MethodGet, "/articles", query, nil, &page); err != nil {
		return domain.ArticlePage{}, err
	}
	return page, nil
}

// GetArticleStats returns aggregate article counts.
func (c *Client) GetArticleStats(ctx context.Context) (domain.ArticleStats, error) {
	var stats domain.ArticleStats
	if err := c.get(ctx, "/articles/stats", &stats); err != nil {
		return domain.ArticleStats{}, err
	}
	return stats, nil
}

// MarkArticleRead flips the article's read flag.
func (c *Client) MarkArticleRead(ctx context.Context, id int64) (domain.Message, error) {
	var msg domain.Message
	if err := c.send(ctx, http.MethodPatch, fmt.Sprintf("/articles/%d/read", id), nil, &msg); err != nil {
		return domain.Message{}, err
	}
	return msg, nil
}
