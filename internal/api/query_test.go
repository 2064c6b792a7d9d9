package api

import (
	"testing"

	"YourStockNews/internal/domain"
)

func TestQueryEncodeKeepsInsertionOrder(t *testing.T) {
	t.Parallel()

	q := Query{}.
		Add("page_size", Int(50)).
		Add("page", Int(1)).
		Add("search", String("rate cut & merger")).
		Add("min_score", Float(2.75)).
		Add("unread", Bool(true))

	want := "page_size=50&page=1&search=rate+cut+%26+merger&min_score=2.75&unread=true"
	if got := q.Encode(); got != want {
		t.Fatalf("encode: got %q, want %q", got, want)
	}
}

func TestQueryEncodeEmpty(t *testing.T) {
	t.Parallel()

	if got := (Query{}).Encode(); got != "" {
		t.Fatalf("expected empty string, got %q", got)
	}
	var q Query
	if got := q.Encode(); got != "" {
		t.Fatalf("expected empty string for nil query, got %q", got)
	}
}

func TestArticleFilterQuery(t *testing.T) {
	t.Parallel()

	unread := 0
	f := ArticleFilter{
		Page:       2,
		PageSize:   25,
		Severities: []domain.Severity{domain.SeverityHigh, domain.SeverityMed},
		Tickers:    []string{"aapl"},
		Search:     "recall",
		Posted:     &unread,
	}

	want := "page=2&page_size=25&severity=HIGH&severity=MED&tickers=aapl&search=recall&posted=0"
	if got := f.Query().Encode(); got != want {
		t.Fatalf("filter query: got %q, want %q", got, want)
	}

	if got := (ArticleFilter{}).Query().Encode(); got != "" {
		t.Fatalf("zero filter must be empty, got %q", got)
	}
}

func TestQueryAddBranchesFromSharedBase(t *testing.T) {
	t.Parallel()

	base := make(Query, 0, 4)
	base = append(base, Param{"page", Int(1)}, Param{"page_size", Int(50)}, Param{"posted", Int(0)})

	high := base.Add("severity", String("HIGH"))
	low := base.Add("severity", String("LOW"))

	if got, want := high.Encode(), "page=1&page_size=50&posted=0&severity=HIGH"; got != want {
		t.Fatalf("high: got %q, want %q", got, want)
	}
	if got, want := low.Encode(), "page=1&page_size=50&posted=0&severity=LOW"; got != want {
		t.Fatalf("low: got %q, want %q", got, want)
	}
	if got, want := base.Encode(), "page=1&page_size=50&posted=0"; got != want {
		t.Fatalf("base changed: got %q, want %q", got, want)
	}
}
