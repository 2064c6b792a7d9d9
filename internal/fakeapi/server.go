// Package fakeapi is an in-memory implementation of the YourStockNews HTTP
// contract. Tests mount it behind httptest to exercise the client, the
// pipeline and the CLI without a real backend.
package fakeapi

import (
	"bytes"
	"io"
	"net/http"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"

	"YourStockNews/internal/domain"
)

const signingSecret = "fakeapi-secret"

// Request is a recorded incoming call.
type Request struct {
	Method        string
	Path          string
	RawQuery      string
	Authorization string
	ContentType   string
	Body          string
}

type account struct {
	user     domain.User
	password string
}

// Server holds users, watchlists, articles and scan jobs in memory.
type Server struct {
	mu sync.Mutex

	echo     *echo.Echo
	now      func() time.Time
	seq      int64
	accounts map[string]*account
	tokens   map[string]int64

	watchlists map[int64]*domain.Watchlist
	articles   map[int64]*articleRecord
	scans      map[int64]*domain.ScanJob
	pending    map[int64][]domain.Article
	failScans  map[int64]string

	requests []Request
}

type articleRecord struct {
	userID  int64
	article domain.Article
}

// New builds an empty backend.
func New() *Server {
	s := &Server{
		echo:       echo.New(),
		now:        func() time.Time { return time.Now().UTC() },
		accounts:   map[string]*account{},
		tokens:     map[string]int64{},
		watchlists: map[int64]*domain.Watchlist{},
		articles:   map[int64]*articleRecord{},
		scans:      map[int64]*domain.ScanJob{},
		pending:    map[int64][]domain.Article{},
		failScans:  map[int64]string{},
	}
	s.echo.HideBanner = true
	s.echo.HidePort = true
	s.routes()
	return s
}

// ServeHTTP makes the fake usable with httptest.NewServer.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.echo.ServeHTTP(w, r)
}

func (s *Server) routes() {
	s.echo.Use(s.record)

	root := s.echo.Group("/api")
	root.GET("/health", s.health)
	root.POST("/auth/register", s.register)
	root.POST("/auth/login", s.login)

	auth := s.authenticate
	root.GET("/users/me", s.currentUser, auth)
	root.GET("/subscriptions/me", s.subscription, auth)

	root.GET("/watchlists", s.listWatchlists, auth)
	root.POST("/watchlists", s.createWatchlist, auth)
	root.GET("/watchlists/:id", s.getWatchlist, auth)
	root.DELETE("/watchlists/:id", s.deleteWatchlist, auth)
	root.POST("/watchlists/:id/tickers", s.addTicker, auth)
	root.DELETE("/watchlists/:id/tickers/:ticker", s.removeTicker, auth)

	root.GET("/articles", s.listArticles, auth)
	root.GET("/articles/stats", s.articleStats, auth)
	root.PATCH("/articles/:id/read", s.markRead, auth)

	root.POST("/scans", s.triggerScan, auth)
	root.GET("/scans", s.scanHistory, auth)
	root.GET("/scans/:id", s.scanStatus, auth)
}

// Requests returns a copy of every call received so far.
func (s *Server) Requests() []Request {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Request, len(s.requests))
	copy(out, s.requests)
	return out
}

// RevokeTokens invalidates every issued token, as if all sessions expired.
func (s *Server) RevokeTokens() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tokens = map[string]int64{}
}

// AddUser registers an account directly and returns its id.
func (s *Server) AddUser(email, password string) int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.addUserLocked(email, password).user.ID
}

// AddArticle stores an article for the user owning email and returns its id.
func (s *Server) AddArticle(email string, article domain.Article) int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	acc, ok := s.accounts[email]
	if !ok {
		return 0
	}
	return s.addArticleLocked(acc.user.ID, article)
}

// QueueScanArticles makes the next successful scan of watchlistID produce articles.
func (s *Server) QueueScanArticles(watchlistID int64, articles ...domain.Article) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pending[watchlistID] = append(s.pending[watchlistID], articles...)
}

// FailScans makes every scan of watchlistID end in the failed state.
func (s *Server) FailScans(watchlistID int64, message string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failScans[watchlistID] = message
}

// Article returns the stored copy of an article.
func (s *Server) Article(id int64) (domain.Article, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.articles[id]
	if !ok {
		return domain.Article{}, false
	}
	return rec.article, true
}

func (s *Server) record(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		req := c.Request()
		var body []byte
		if req.Body != nil {
			raw, err := io.ReadAll(req.Body)
			if err != nil {
				return detail(c, http.StatusBadRequest, "unreadable body")
			}
			body = raw
			req.Body = io.NopCloser(bytes.NewReader(raw))
		}
		s.mu.Lock()
		s.requests = append(s.requests, Request{
			Method:        req.Method,
			Path:          req.URL.EscapedPath(),
			RawQuery:      req.URL.RawQuery,
			Authorization: req.Header.Get("Authorization"),
			ContentType:   req.Header.Get("Content-Type"),
			Body:          string(body),
		})
		s.mu.Unlock()
		return next(c)
	}
}

func (s *Server) authenticate(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		auth := c.Request().Header.Get("Authorization")
		if !strings.HasPrefix(auth, "Bearer ") {
			return detail(c, http.StatusUnauthorized, "Not authenticated")
		}
		token := strings.TrimPrefix(auth, "Bearer ")

		s.mu.Lock()
		userID, ok := s.tokens[token]
		s.mu.Unlock()
		if !ok {
			return detail(c, http.StatusUnauthorized, "Could not validate credentials")
		}
		c.Set("user_id", userID)
		return next(c)
	}
}

func (s *Server) nextID() int64 {
	s.seq++
	return s.seq
}

func (s *Server) addUserLocked(email, password string) *account {
	id := s.nextID()
	acc := &account{
		password: password,
		user: domain.User{
			ID:                 id,
			Email:              email,
			Plan:               "free",
			SubscriptionStatus: "active",
			IsActive:           true,
			CreatedAt:          domain.NewTimestamp(s.now()),
		},
	}
	s.accounts[email] = acc
	return acc
}

func (s *Server) addArticleLocked(userID int64, article domain.Article) int64 {
	article.ID = s.nextID()
	if !article.DetectedAt.Valid() {
		article.DetectedAt = domain.NewTimestamp(s.now().Add(time.Duration(article.ID) * time.Millisecond))
	}
	if article.Tickers == nil {
		article.Tickers = []string{}
	}
	s.articles[article.ID] = &articleRecord{userID: userID, article: article}
	return article.ID
}

func (s *Server) issueTokens(acc *account) (domain.TokenPair, error) {
	now := s.now()
	access, err := sign(acc, now.Add(30*time.Minute), "access", s.nextID())
	if err != nil {
		return domain.TokenPair{}, err
	}
	refresh, err := sign(acc, now.Add(7*24*time.Hour), "refresh", s.nextID())
	if err != nil {
		return domain.TokenPair{}, err
	}
	s.tokens[access] = acc.user.ID
	return domain.TokenPair{AccessToken: access, RefreshToken: refresh, TokenType: "bearer"}, nil
}

func sign(acc *account, exp time.Time, kind string, nonce int64) (string, error) {
	claims := jwt.MapClaims{
		"user_id": acc.user.ID,
		"email":   acc.user.Email,
		"type":    kind,
		"jti":     strconv.FormatInt(nonce, 10),
		"exp":     exp.Unix(),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(signingSecret))
}

func sortedWatchlists(in map[int64]*domain.Watchlist, userID int64) []domain.Watchlist {
	out := make([]domain.Watchlist, 0)
	for _, wl := range in {
		if wl.UserID == userID {
			out = append(out, cloneWatchlist(wl))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func cloneWatchlist(wl *domain.Watchlist) domain.Watchlist {
	out := *wl
	out.Tickers = append([]string{}, wl.Tickers...)
	return out
}
