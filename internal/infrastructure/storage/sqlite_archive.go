package storage

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"

	"YourStockNews/internal/domain"
	"YourStockNews/internal/ports"
)

const alertsTable = "delivered_alerts"

// SQLiteArchive records delivered alerts in a local SQLite file so the same
// article is never announced twice.
type SQLiteArchive struct {
	db *sqlx.DB
}

var _ ports.AlertArchive = (*SQLiteArchive)(nil)

type alertRow struct {
	ArticleID   int64   `db:"article_id"`
	WatchlistID int64   `db:"watchlist_id"`
	Title       string  `db:"title"`
	URL         string  `db:"url"`
	Severity    string  `db:"severity"`
	Score       float64 `db:"score"`
	DeliveredAt string  `db:"delivered_at"`
}

// Open creates or upgrades the archive at path.
func Open(path string) (*SQLiteArchive, error) {
	dsn := fmt.Sprintf("file:%s?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)", path)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("open archive %s: %w", path, err)
	}
	if err := migrate(db); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &SQLiteArchive{db: sqlx.NewDb(db, "sqlite")}, nil
}

func migrate(db *sql.DB) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS delivered_alerts (
			article_id INTEGER PRIMARY KEY,
			watchlist_id INTEGER NOT NULL,
			title TEXT NOT NULL,
			url TEXT NOT NULL DEFAULT '',
			severity TEXT NOT NULL,
			score REAL NOT NULL DEFAULT 0,
			delivered_at TEXT NOT NULL
		);`,
		`CREATE INDEX IF NOT EXISTS idx_delivered_alerts_delivered ON delivered_alerts(delivered_at);`,
	}
	for _, stmt := range stmts {
		if _, err := db.Exec(stmt); err != nil {
			return fmt.Errorf("migrate archive: %w", err)
		}
	}
	return nil
}

// Close releases the database handle.
func (a *SQLiteArchive) Close() error {
	return a.db.Close()
}

// AlreadyDelivered returns a map with IDs that already exist in the archive.
func (a *SQLiteArchive) AlreadyDelivered(ctx context.Context, ids []int64) (map[int64]bool, error) {
	result := make(map[int64]bool)
	if len(ids) == 0 {
		return result, nil
	}

	query, args, err := sq.Select("article_id").
		From(alertsTable).
		Where(sq.Eq{"article_id": ids}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build delivered query: %w", err)
	}

	var found []int64
	if err := a.db.SelectContext(ctx, &found, query, args...); err != nil {
		return nil, fmt.Errorf("query delivered: %w", err)
	}
	for _, id := range found {
		result[id] = true
	}
	return result, nil
}

// SaveDelivered upserts the alert snapshot.
func (a *SQLiteArchive) SaveDelivered(ctx context.Context, alert domain.DeliveredAlert) error {
	deliveredAt := alert.DeliveredAt.Time
	if deliveredAt.IsZero() {
		deliveredAt = time.Now()
	}

	query, args, err := sq.Insert(alertsTable).
		Columns("article_id", "watchlist_id", "title", "url", "severity", "score", "delivered_at").
		Values(alert.ArticleID, alert.WatchlistID, alert.Title, alert.URL, string(alert.Severity), alert.Score,
			deliveredAt.UTC().Format(time.RFC3339Nano)).
		Suffix(`ON CONFLICT(article_id) DO UPDATE SET
			watchlist_id = excluded.watchlist_id,
			title = excluded.title,
			url = excluded.url,
			severity = excluded.severity,
			score = excluded.score,
			delivered_at = excluded.delivered_at`).
		ToSql()
	if err != nil {
		return fmt.Errorf("build save query: %w", err)
	}

	if _, err := a.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("upsert delivered %d: %w", alert.ArticleID, err)
	}
	return nil
}

// Recent lists the latest delivered alerts, newest first.
func (a *SQLiteArchive) Recent(ctx context.Context, limit int) ([]domain.DeliveredAlert, error) {
	if limit <= 0 {
		limit = 20
	}

	query, args, err := sq.Select("article_id", "watchlist_id", "title", "url", "severity", "score", "delivered_at").
		From(alertsTable).
		OrderBy("delivered_at DESC", "article_id DESC").
		Limit(uint64(limit)).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build recent query: %w", err)
	}

	var rows []alertRow
	if err := a.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("query recent: %w", err)
	}

	alerts := make([]domain.DeliveredAlert, 0, len(rows))
	for _, row := range rows {
		deliveredAt, err := domain.ParseTimestamp(row.DeliveredAt)
		if err != nil {
			return nil, fmt.Errorf("alert %d: %w", row.ArticleID, err)
		}
		alerts = append(alerts, domain.DeliveredAlert{
			ArticleID:   row.ArticleID,
			WatchlistID: row.WatchlistID,
			Title:       row.Title,
			URL:         row.URL,
			Severity:    domain.Severity(row.Severity),
			Score:       row.Score,
			DeliveredAt: deliveredAt,
		})
	}
	return alerts, nil
}
