package api

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"YourStockNews/internal/domain"
	"YourStockNews/internal/fakeapi"
	"YourStockNews/internal/session"
)

func newFakeBackend(t *testing.T) (*fakeapi.Server, *Client) {
	t.Helper()

	fake := fakeapi.New()
	server := httptest.NewServer(fake)
	t.Cleanup(server.Close)
	return fake, New(server.URL+"/api", session.New(nil))
}

func TestRegisterAndProfile(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	_, client := newFakeBackend(t)

	pair, err := client.Register(ctx, "trader@example.com", "longpassword")
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	if pair.TokenType != "bearer" || pair.RefreshToken == "" {
		t.Fatalf("unexpected pair %+v", pair)
	}

	user, err := client.GetCurrentUser(ctx)
	if err != nil {
		t.Fatalf("GetCurrentUser: %v", err)
	}
	if user.Email != "trader@example.com" || user.Plan != "free" || !user.IsActive {
		t.Fatalf("unexpected user %+v", user)
	}

	sub, err := client.GetSubscription(ctx)
	if err != nil {
		t.Fatalf("GetSubscription: %v", err)
	}
	if sub.Plan != "free" || sub.Status != "active" || sub.CurrentPeriodEnd.Valid() {
		t.Fatalf("unexpected subscription %+v", sub)
	}

	claims, err := client.Session().Claims(ctx)
	if err != nil {
		t.Fatalf("Claims: %v", err)
	}
	if claims.UserID != user.ID || claims.Email != user.Email {
		t.Fatalf("claims %+v do not match user %+v", claims, user)
	}

	if _, err := client.Register(ctx, "trader@example.com", "longpassword"); err == nil || err.Error() != "Email already registered" {
		t.Fatalf("expected duplicate registration error, got %v", err)
	}
	if _, err := client.Register(ctx, "other@example.com", "short"); err == nil || err.Error() != "String should have at least 8 characters" {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestWrongPasswordIsUnauthorized(t *testing.T) {
	t.Parallel()

	fake, client := newFakeBackend(t)
	fake.AddUser("a@b.com", "correct-horse")

	_, err := client.Login(context.Background(), "a@b.com", "wrong")
	if !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized, got %v", err)
	}
}

func TestWatchlistLifecycle(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	_, client := newFakeBackend(t)
	if _, err := client.Register(ctx, "a@b.com", "password1"); err != nil {
		t.Fatalf("Register: %v", err)
	}

	wl, err := client.CreateWatchlist(ctx, "Tech", []string{"AAPL", "GOOGL"})
	if err != nil {
		t.Fatalf("CreateWatchlist: %v", err)
	}

	wl, err = client.AddTicker(ctx, wl.ID, "MSFT")
	if err != nil {
		t.Fatalf("AddTicker: %v", err)
	}
	if len(wl.Tickers) != 3 || wl.Tickers[2] != "MSFT" {
		t.Fatalf("unexpected tickers %v", wl.Tickers)
	}

	if _, err := client.AddTicker(ctx, wl.ID, "MSFT"); err == nil || err.Error() != "Ticker already exists in watchlist" {
		t.Fatalf("expected duplicate ticker error, got %v", err)
	}

	msg, err := client.RemoveTicker(ctx, wl.ID, "GOOGL")
	if err != nil {
		t.Fatalf("RemoveTicker: %v", err)
	}
	if msg.Message != "Ticker removed successfully" {
		t.Fatalf("unexpected message %q", msg.Message)
	}

	list, err := client.GetWatchlists(ctx)
	if err != nil {
		t.Fatalf("GetWatchlists: %v", err)
	}
	if list.Total != 1 || len(list.Watchlists[0].Tickers) != 2 {
		t.Fatalf("unexpected list %+v", list)
	}

	if _, err := client.DeleteWatchlist(ctx, wl.ID); err != nil {
		t.Fatalf("DeleteWatchlist: %v", err)
	}
	_, err = client.GetWatchlist(ctx, wl.ID)
	var reqErr *RequestError
	if !errors.As(err, &reqErr) || reqErr.Status != http.StatusNotFound || reqErr.Message != "Watchlist not found" {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestArticlesAndStats(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	fake, client := newFakeBackend(t)
	if _, err := client.Register(ctx, "a@b.com", "password1"); err != nil {
		t.Fatalf("Register: %v", err)
	}
	fake.AddArticle("a@b.com", domain.Article{Title: "Acme recall", Severity: domain.SeverityHigh, Score: 3.5, Tickers: []string{"ACME"}})
	lowID := fake.AddArticle("a@b.com", domain.Article{Title: "Acme CEO interview", Severity: domain.SeverityLow, Score: 1.0, Tickers: []string{"ACME"}})

	stats, err := client.GetArticleStats(ctx)
	if err != nil {
		t.Fatalf("GetArticleStats: %v", err)
	}
	if stats != (domain.ArticleStats{Total: 2, High: 1, Low: 1, Unread: 2}) {
		t.Fatalf("unexpected stats %+v", stats)
	}

	page, err := client.GetArticles(ctx, ArticleFilter{Page: 1, PageSize: 50, Severities: []domain.Severity{domain.SeverityHigh}}.Query())
	if err != nil {
		t.Fatalf("GetArticles: %v", err)
	}
	if page.Total != 1 || page.Articles[0].Title != "Acme recall" || page.TotalPages != 1 {
		t.Fatalf("unexpected page %+v", page)
	}

	if _, err := client.MarkArticleRead(ctx, lowID); err != nil {
		t.Fatalf("MarkArticleRead: %v", err)
	}
	if a, _ := fake.Article(lowID); !a.Read() {
		t.Fatalf("expected article %d to be read", lowID)
	}

	if _, err := client.MarkArticleRead(ctx, 9999); err == nil || err.Error() != "Article not found" {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestScanPolling(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	_, client := newFakeBackend(t)
	if _, err := client.Register(ctx, "a@b.com", "password1"); err != nil {
		t.Fatalf("Register: %v", err)
	}
	wl, err := client.CreateWatchlist(ctx, "Tech", []string{"AAPL"})
	if err != nil {
		t.Fatalf("CreateWatchlist: %v", err)
	}

	job, err := client.TriggerScan(ctx, wl.ID)
	if err != nil {
		t.Fatalf("TriggerScan: %v", err)
	}
	if job.Status != domain.ScanPending {
		t.Fatalf("expected pending job, got %s", job.Status)
	}

	var statuses []domain.ScanStatus
	for i := 0; i < 3; i++ {
		current, err := client.GetScanStatus(ctx, job.ID)
		if err != nil {
			t.Fatalf("GetScanStatus: %v", err)
		}
		statuses = append(statuses, current.Status)
	}
	if statuses[0] != domain.ScanRunning || statuses[1] != domain.ScanSuccess || statuses[2] != domain.ScanSuccess {
		t.Fatalf("unexpected status sequence %v", statuses)
	}

	history, err := client.GetScanHistory(ctx)
	if err != nil {
		t.Fatalf("GetScanHistory: %v", err)
	}
	if history.Total != 1 || history.ScanJobs[0].ID != job.ID {
		t.Fatalf("unexpected history %+v", history)
	}
}

func TestRevokedSessionIsTornDown(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	fake, client := newFakeBackend(t)
	if _, err := client.Register(ctx, "a@b.com", "password1"); err != nil {
		t.Fatalf("Register: %v", err)
	}
	fake.RevokeTokens()

	if _, err := client.GetWatchlists(ctx); !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized, got %v", err)
	}
	pair, err := client.Session().Tokens(ctx)
	if err != nil {
		t.Fatalf("Tokens: %v", err)
	}
	if !pair.Empty() || pair.RefreshToken != "" {
		t.Fatalf("expected cleared session, got %+v", pair)
	}

	requests := fake.Requests()
	if last := requests[len(requests)-1]; last.Authorization == "" {
		t.Fatalf("revoked request must still carry the old bearer token")
	}

	if _, err := client.GetWatchlists(ctx); !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized without token, got %v", err)
	}
	requests = fake.Requests()
	if last := requests[len(requests)-1]; last.Authorization != "" {
		t.Fatalf("request after teardown must not carry a token, got %q", last.Authorization)
	}
}
