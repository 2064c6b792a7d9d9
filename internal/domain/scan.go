package domain

// ScanStatus enumerates the server-side lifecycle of a scan job.
type ScanStatus string

const (
	ScanPending ScanStatus = "pending"
	ScanRunning ScanStatus = "running"
	ScanSuccess ScanStatus = "success"
	ScanFailed  ScanStatus = "failed"
)

// Terminal reports whether the job will not change state anymore.
func (s ScanStatus) Terminal() bool {
	return s == ScanSuccess || s == ScanFailed
}

// ScanJob is an asynchronous server-side search for news about a watchlist.
type ScanJob struct {
	ID            int64      `json:"id"`
	UserID        int64      `json:"user_id"`
	WatchlistID   int64      `json:"watchlist_id"`
	Status        ScanStatus `json:"status"`
	StartedAt     Timestamp  `json:"started_at"`
	FinishedAt    Timestamp  `json:"finished_at"`
	ArticlesFound int        `json:"articles_found"`
	LastTimestamp *string    `json:"last_timestamp,omitempty"`
	ErrorMessage  *string    `json:"error_message"`
}

// ScanJobList is the envelope returned by the scan history endpoint.
type ScanJobList struct {
	ScanJobs []ScanJob `json:"scan_jobs"`
	Total    int       `json:"total"`
}

// ScanCompleted is emitted once a watched scan reaches a terminal state.
type ScanCompleted struct {
	ScanID        int64      `json:"scan_id"`
	WatchlistID   int64      `json:"watchlist_id"`
	Status        ScanStatus `json:"status"`
	ArticlesFound int        `json:"articles_found"`
	Delivered     int        `json:"delivered"`
	ErrorMessage  string     `json:"error_message,omitempty"`
	FinishedAt    Timestamp  `json:"finished_at"`
}
