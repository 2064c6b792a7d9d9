package domain

// Severity classifies how urgent an article is for the tickers it mentions.
type Severity string

const (
	SeverityHigh Severity = "HIGH"
	SeverityMed  Severity = "MED"
	SeverityLow  Severity = "LOW"
)

// Valid reports whether s is one of the three known levels.
func (s Severity) Valid() bool {
	switch s {
	case SeverityHigh, SeverityMed, SeverityLow:
		return true
	default:
		return false
	}
}

// Article is a scored news item detected by a scan.
type Article struct {
	ID          int64     `json:"id"`
	Title       string    `json:"title"`
	Description *string   `json:"description"`
	URL         string    `json:"url"`
	Severity    Severity  `json:"severity"`
	Score       float64   `json:"score"`
	Tickers     []string  `json:"tickers"`
	PublishedAt Timestamp `json:"published_at"`
	DetectedAt  Timestamp `json:"detected_at"`
	Posted      int       `json:"posted"`
}

// Read reports whether the article was already marked read.
func (a Article) Read() bool {
	return a.Posted != 0
}

// DescriptionText returns the description or an empty string when it is null.
func (a Article) DescriptionText() string {
	if a.Description == nil {
		return ""
	}
	return *a.Description
}

// ArticlePage is one page of articles plus pagination metadata.
type ArticlePage struct {
	Articles   []Article `json:"articles"`
	Total      int       `json:"total"`
	Page       int       `json:"page"`
	PageSize   int       `json:"page_size"`
	TotalPages int       `json:"total_pages"`
}

// ArticleStats aggregates article counts for the caller.
type ArticleStats struct {
	Total  int `json:"total"`
	High   int `json:"high"`
	Med    int `json:"med"`
	Low    int `json:"low"`
	Unread int `json:"unread"`
}

// DeliveredAlert is an article that was already forwarded to notification channels.
type DeliveredAlert struct {
	ArticleID   int64
	WatchlistID int64
	Title       string
	URL         string
	Severity    Severity
	Score       float64
	DeliveredAt Timestamp
}
