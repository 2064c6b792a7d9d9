package domain

// Watchlist is a named set of ticker symbols owned by a user.
type Watchlist struct {
	ID        int64     `json:"id"`
	UserID    int64     `json:"user_id"`
	Name      string    `json:"name"`
	Tickers   []string  `json:"tickers"`
	CreatedAt Timestamp `json:"created_at"`
	UpdatedAt Timestamp `json:"updated_at"`
}

// WatchlistList is the envelope returned when listing watchlists.
type WatchlistList struct {
	Watchlists []Watchlist `json:"watchlists"`
	Total      int         `json:"total"`
}
