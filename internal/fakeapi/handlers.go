package fakeapi

import (
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"

	"YourStockNews/internal/domain"
)

type validationIssue struct {
	Loc  []string `json:"loc"`
	Msg  string   `json:"msg"`
	Type string   `json:"type"`
}

func detail(c echo.Context, status int, message string) error {
	return c.JSON(status, echo.Map{"detail": message})
}

func invalid(c echo.Context, field, message string) error {
	return c.JSON(http.StatusUnprocessableEntity, echo.Map{
		"detail": []validationIssue{{Loc: []string{"body", field}, Msg: message, Type: "value_error"}},
	})
}

func message(c echo.Context, text string) error {
	return c.JSON(http.StatusOK, domain.Message{Message: text})
}

func userID(c echo.Context) int64 {
	id, _ := c.Get("user_id").(int64)
	return id
}

func pathID(c echo.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	return id, err == nil
}

func (s *Server) health(c echo.Context) error {
	return c.JSON(http.StatusOK, domain.Health{
		Status:      "healthy",
		App:         "YourStockNews",
		Version:     "1.0.0",
		Environment: "test",
	})
}

type credentialsBody struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (s *Server) register(c echo.Context) error {
	var body credentialsBody
	if err := c.Bind(&body); err != nil {
		return detail(c, http.StatusBadRequest, "Malformed body")
	}
	if !strings.Contains(body.Email, "@") {
		return invalid(c, "email", "value is not a valid email address")
	}
	if len(body.Password) < 8 {
		return invalid(c, "password", "String should have at least 8 characters")
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.accounts[body.Email]; exists {
		return detail(c, http.StatusBadRequest, "Email already registered")
	}
	acc := s.addUserLocked(body.Email, body.Password)
	pair, err := s.issueTokens(acc)
	if err != nil {
		return detail(c, http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusCreated, pair)
}

func (s *Server) login(c echo.Context) error {
	var body credentialsBody
	if err := c.Bind(&body); err != nil {
		return detail(c, http.StatusBadRequest, "Malformed body")
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	acc, ok := s.accounts[body.Email]
	if !ok || acc.password != body.Password {
		return detail(c, http.StatusUnauthorized, "Incorrect email or password")
	}
	if !acc.user.IsActive {
		return detail(c, http.StatusForbidden, "Account is inactive")
	}
	pair, err := s.issueTokens(acc)
	if err != nil {
		return detail(c, http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, pair)
}

func (s *Server) accountByID(id int64) *account {
	for _, acc := range s.accounts {
		if acc.user.ID == id {
			return acc
		}
	}
	return nil
}

func (s *Server) currentUser(c echo.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	acc := s.accountByID(userID(c))
	if acc == nil {
		return detail(c, http.StatusNotFound, "User not found")
	}
	return c.JSON(http.StatusOK, acc.user)
}

func (s *Server) subscription(c echo.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	acc := s.accountByID(userID(c))
	if acc == nil {
		return detail(c, http.StatusNotFound, "User not found")
	}
	return c.JSON(http.StatusOK, domain.Subscription{Plan: acc.user.Plan, Status: acc.user.SubscriptionStatus})
}

func (s *Server) listWatchlists(c echo.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	lists := sortedWatchlists(s.watchlists, userID(c))
	return c.JSON(http.StatusOK, domain.WatchlistList{Watchlists: lists, Total: len(lists)})
}

func (s *Server) createWatchlist(c echo.Context) error {
	var body struct {
		Name    string   `json:"name"`
		Tickers []string `json:"tickers"`
	}
	if err := c.Bind(&body); err != nil {
		return detail(c, http.StatusBadRequest, "Malformed body")
	}
	if strings.TrimSpace(body.Name) == "" {
		return invalid(c, "name", "String should have at least 1 character")
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	now := domain.NewTimestamp(s.now())
	wl := &domain.Watchlist{
		ID:        s.nextID(),
		UserID:    userID(c),
		Name:      body.Name,
		Tickers:   []string{},
		CreatedAt: now,
		UpdatedAt: now,
	}
	for _, t := range body.Tickers {
		wl.Tickers = append(wl.Tickers, strings.ToUpper(t))
	}
	s.watchlists[wl.ID] = wl
	return c.JSON(http.StatusCreated, cloneWatchlist(wl))
}

func (s *Server) ownedWatchlist(c echo.Context) (*domain.Watchlist, error) {
	id, ok := pathID(c)
	if !ok {
		return nil, detail(c, http.StatusUnprocessableEntity, "Invalid watchlist id")
	}
	wl, ok := s.watchlists[id]
	if !ok || wl.UserID != userID(c) {
		return nil, detail(c, http.StatusNotFound, "Watchlist not found")
	}
	return wl, nil
}

func (s *Server) getWatchlist(c echo.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	wl, err := s.ownedWatchlist(c)
	if wl == nil {
		return err
	}
	return c.JSON(http.StatusOK, cloneWatchlist(wl))
}

func (s *Server) deleteWatchlist(c echo.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	wl, err := s.ownedWatchlist(c)
	if wl == nil {
		return err
	}
	delete(s.watchlists, wl.ID)
	return message(c, "Watchlist deleted successfully")
}

func (s *Server) addTicker(c echo.Context) error {
	var body struct {
		Ticker string `json:"ticker"`
	}
	if err := c.Bind(&body); err != nil {
		return detail(c, http.StatusBadRequest, "Malformed body")
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	wl, err := s.ownedWatchlist(c)
	if wl == nil {
		return err
	}
	ticker := strings.ToUpper(body.Ticker)
	for _, t := range wl.Tickers {
		if t == ticker {
			return detail(c, http.StatusBadRequest, "Ticker already exists in watchlist")
		}
	}
	wl.Tickers = append(wl.Tickers, ticker)
	wl.UpdatedAt = domain.NewTimestamp(s.now())
	return c.JSON(http.StatusOK, cloneWatchlist(wl))
}

func (s *Server) removeTicker(c echo.Context) error {
	raw, err := url.PathUnescape(c.Param("ticker"))
	if err != nil {
		return detail(c, http.StatusBadRequest, "Invalid ticker")
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	wl, werr := s.ownedWatchlist(c)
	if wl == nil {
		return werr
	}
	ticker := strings.ToUpper(raw)
	for i, t := range wl.Tickers {
		if t == ticker {
			wl.Tickers = append(wl.Tickers[:i], wl.Tickers[i+1:]...)
			wl.UpdatedAt = domain.NewTimestamp(s.now())
			return message(c, "Ticker removed successfully")
		}
	}
	return detail(c, http.StatusNotFound, "Ticker not found")
}

func (s *Server) listArticles(c echo.Context) error {
	params := c.QueryParams()
	page, pageSize := 1, 20
	if v := params.Get("page"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			return invalid(c, "page", "Input should be greater than or equal to 1")
		}
		page = n
	}
	if v := params.Get("page_size"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 || n > 100 {
			return invalid(c, "page_size", "Input should be less than or equal to 100")
		}
		pageSize = n
	}

	severities := map[string]bool{}
	for _, sev := range params["severity"] {
		severities[sev] = true
	}
	tickers := map[string]bool{}
	for _, t := range params["tickers"] {
		tickers[strings.ToUpper(t)] = true
	}
	search := params.Get("search")
	posted, hasPosted := -1, params.Has("posted")
	if hasPosted {
		n, err := strconv.Atoi(params.Get("posted"))
		if err != nil {
			return invalid(c, "posted", "Input should be a valid integer")
		}
		posted = n
	}

	s.mu.Lock()
	uid := userID(c)
	var matched []domain.Article
	for _, rec := range s.articles {
		a := rec.article
		if rec.userID != uid {
			continue
		}
		if len(severities) > 0 && !severities[string(a.Severity)] {
			continue
		}
		if len(tickers) > 0 && !anyTicker(a.Tickers, tickers) {
			continue
		}
		if search != "" && !strings.Contains(a.Title, search) && !strings.Contains(a.DescriptionText(), search) {
			continue
		}
		if hasPosted && a.Posted != posted {
			continue
		}
		matched = append(matched, a)
	}
	s.mu.Unlock()

	sort.Slice(matched, func(i, j int) bool {
		return matched[i].DetectedAt.After(matched[j].DetectedAt.Time)
	})

	total := len(matched)
	start := (page - 1) * pageSize
	end := start + pageSize
	if start > total {
		start = total
	}
	if end > total {
		end = total
	}
	articles := matched[start:end]
	if articles == nil {
		articles = []domain.Article{}
	}

	return c.JSON(http.StatusOK, domain.ArticlePage{
		Articles:   articles,
		Total:      total,
		Page:       page,
		PageSize:   pageSize,
		TotalPages: (total + pageSize - 1) / pageSize,
	})
}

func anyTicker(have []string, want map[string]bool) bool {
	for _, t := range have {
		if want[t] {
			return true
		}
	}
	return false
}

func (s *Server) articleStats(c echo.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	var stats domain.ArticleStats
	uid := userID(c)
	for _, rec := range s.articles {
		if rec.userID != uid {
			continue
		}
		stats.Total++
		switch rec.article.Severity {
		case domain.SeverityHigh:
			stats.High++
		case domain.SeverityMed:
			stats.Med++
		case domain.SeverityLow:
			stats.Low++
		}
		if rec.article.Posted == 0 {
			stats.Unread++
		}
	}
	return c.JSON(http.StatusOK, stats)
}

func (s *Server) markRead(c echo.Context) error {
	id, ok := pathID(c)
	if !ok {
		return detail(c, http.StatusUnprocessableEntity, "Invalid article id")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.articles[id]
	if !ok || rec.userID != userID(c) {
		return detail(c, http.StatusNotFound, "Article not found")
	}
	rec.article.Posted = 1
	return message(c, "Article marked as read")
}

func (s *Server) triggerScan(c echo.Context) error {
	var body struct {
		WatchlistID int64 `json:"watchlist_id"`
	}
	if err := c.Bind(&body); err != nil {
		return detail(c, http.StatusBadRequest, "Malformed body")
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	wl, ok := s.watchlists[body.WatchlistID]
	if !ok || wl.UserID != userID(c) {
		return detail(c, http.StatusNotFound, "Watchlist not found")
	}
	if len(wl.Tickers) == 0 {
		return detail(c, http.StatusBadRequest, "Watchlist has no tickers")
	}
	job := &domain.ScanJob{
		ID:          s.nextID(),
		UserID:      wl.UserID,
		WatchlistID: wl.ID,
		Status:      domain.ScanPending,
	}
	s.scans[job.ID] = job
	return c.JSON(http.StatusCreated, *job)
}

func (s *Server) scanHistory(c echo.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	uid := userID(c)
	jobs := make([]domain.ScanJob, 0)
	for _, job := range s.scans {
		if job.UserID == uid {
			jobs = append(jobs, *job)
		}
	}
	sort.Slice(jobs, func(i, j int) bool { return jobs[i].ID > jobs[j].ID })
	return c.JSON(http.StatusOK, domain.ScanJobList{ScanJobs: jobs, Total: len(jobs)})
}

// scanStatus advances the job one step per poll: pending, running, then a
// terminal state.
func (s *Server) scanStatus(c echo.Context) error {
	id, ok := pathID(c)
	if !ok {
		return detail(c, http.StatusUnprocessableEntity, "Invalid scan id")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	job, ok := s.scans[id]
	if !ok || job.UserID != userID(c) {
		return detail(c, http.StatusNotFound, "Scan job not found")
	}

	now := domain.NewTimestamp(s.now())
	switch job.Status {
	case domain.ScanPending:
		job.Status = domain.ScanRunning
		job.StartedAt = now
	case domain.ScanRunning:
		job.FinishedAt = now
		if reason, failed := s.failScans[job.WatchlistID]; failed {
			job.Status = domain.ScanFailed
			job.ErrorMessage = &reason
			break
		}
		job.Status = domain.ScanSuccess
		produced := s.pending[job.WatchlistID]
		delete(s.pending, job.WatchlistID)
		for _, a := range produced {
			s.addArticleLocked(job.UserID, a)
		}
		job.ArticlesFound = len(produced)
	}
	return c.JSON(http.StatusOK, *job)
}
