package api

import (
	"net/url"
	"strconv"
	"strings"

	"YourStockNews/internal/domain"
)

// Value is a query-string value: a string, an integer, a float or a boolean.
type Value struct {
	raw string
}

func String(s string) Value { return Value{raw: s} }
func Int(n int) Value { return Value{raw: strconv.Itoa(n)} }
func Int64(n int64) Value { return Value{raw: strconv.FormatInt(n, 10)} }
func Float(f float64) Value { return Value{raw: strconv.FormatFloat(f, 'f', -1, 64)} }
func Bool(b bool) Value { return Value{raw: strconv.FormatBool(b)} }
func (v Value) String() string { return v.raw }

// Param is a single key/value pair of a Query.
type Param struct {
	Key   string
	Value Value
}

// Query is an ordered list of query parameters. Keys may repeat and are
// encoded in insertion order, so {page:1, page_size:50} always becomes
// "page=1&page_size=50".
type Query []Param

// Add returns a copy of q with one more parameter appended. q itself is
// left untouched, so several queries may branch from a shared base.
func (q Query) Add(key string, value Value) Query {
	out := make(Query, len(q), len(q)+1)
	copy(out, q)
	return append(out, Param{Key: key, Value: value})
}

// Encode renders the query string without the leading '?'.
func (q Query) Encode() string {
	if len(q) == 0 {
		return ""
	}
	var b strings.Builder
	for i, p := range q {
		if i > 0 {
			b.WriteByte('&')
		}
		b.WriteString(url.QueryEscape(p.Key))
		b.WriteByte('=')
		b.WriteString(url.QueryEscape(p.Value.raw))
	}
	return b.String()
}

// ArticleFilter covers the filters understood by the article listing.
// Zero fields are left out of the query.
type ArticleFilter struct {
	Page       int
	PageSize   int
	Severities []domain.Severity
	Tickers    []string
	Search     string
	Posted     *int
}

// Query converts the filter into query parameters.
func (f ArticleFilter) Query() Query {
	var q Query
	if f.Page > 0 {
		q = q.Add("page", Int(f.Page))
	}
	if f.PageSize > 0 {
		q = q.Add("page_size", Int(f.PageSize))
	}
	for _, s := range f.Severities {
		q = q.Add("severity", String(string(s)))
	}
	for _, t := range f.Tickers {
		q = q.Add("tickers", String(t))
	}
	if f.Search != "" {
		q = q.Add("search", String(f.Search))
	}
	if f.Posted != nil {
		q = q.Add("posted", Int(*f.Posted))
	}
	return q
}
