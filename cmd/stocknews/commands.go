package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	"YourStockNews/internal/api"
	"YourStockNews/internal/app"
	"YourStockNews/internal/config"
	"YourStockNews/internal/domain"
	"YourStockNews/internal/session"
)

const usage = `usage: stocknews <command> [flags]

commands:
  login | register          sign in and store the session
  logout                    forget the stored session
  whoami                    show the profile and token expiry
  subscription              show the billing plan
  health                    check the backend
  dashboard                 profile, watchlists and article stats
  watchlists <sub>          list | show ID | create NAME [TICKER...] | delete ID
                            add ID TICKER | remove ID TICKER
  articles <sub>            list [filters] | stats | read ID
  scans <sub>               trigger ID... | history | status ID | wait ID
  alerts                    scan once and deliver alerts (-watchlists 1,2)
  watch                     deliver alerts on the configured interval
  history                   recently delivered alerts`

// CLI dispatches subcommands against one Application.
type CLI struct {
	cfg    config.Config
	logger *slog.Logger
	stdin  io.Reader
	stdout io.Writer

	opts []api.Option
}

// Run executes args[0] with the remaining arguments.
func (c *CLI) Run(ctx context.Context, args []string) error {
	if len(args) == 0 || args[0] == "help" || args[0] == "-h" || args[0] == "--help" {
		fmt.Fprintln(c.stdout, usage)
		return nil
	}

	application, err := app.New(ctx, c.cfg, c.logger, c.opts...)
	if err != nil {
		return err
	}
	defer application.Close()

	cmd, rest := args[0], args[1:]
	if cmd == "watch" {
		return application.Watch(ctx)
	}

	ctx, cancel := application.WithTimeout(ctx)
	defer cancel()

	switch cmd {
	case "login", "register":
		return c.authenticate(ctx, application, cmd, rest)
	case "logout":
		if err := application.Client().Logout(ctx); err != nil {
			return err
		}
		fmt.Fprintln(c.stdout, "Logged out.")
		return nil
	case "whoami":
		return c.whoami(ctx, application)
	case "subscription":
		sub, err := application.Client().GetSubscription(ctx)
		if err != nil {
			return err
		}
		fmt.Fprintf(c.stdout, "plan: %s\nstatus: %s\nrenews: %s\n", sub.Plan, sub.Status, formatTime(sub.CurrentPeriodEnd))
		return nil
	case "health":
		h, err := application.Client().Health(ctx)
		if err != nil {
			return err
		}
		fmt.Fprintf(c.stdout, "%s %s %s (%s)\n", h.App, h.Version, h.Status, h.Environment)
		return nil
	case "dashboard":
		return c.dashboard(ctx, application)
	case "watchlists":
		return c.watchlists(ctx, application, rest)
	case "articles":
		return c.articles(ctx, application, rest)
	case "scans":
		return c.scans(ctx, application, rest)
	case "alerts":
		return c.alerts(ctx, application, rest)
	case "history":
		return c.history(ctx, application, rest)
	default:
		return fmt.Errorf("unknown command %q\n\n%s", cmd, usage)
	}
}

func (c *CLI) authenticate(ctx context.Context, a *app.Application, cmd string, args []string) error {
	fs := flag.NewFlagSet(cmd, flag.ContinueOnError)
	fs.SetOutput(c.stdout)
	email := fs.String("email", "", "account email")
	password := fs.String("password", "", "account password (read from stdin when empty)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *email == "" {
		return errors.New("-email is required")
	}
	if *password == "" {
		line, err := bufio.NewReader(c.stdin).ReadString('\n')
		if err != nil && !errors.Is(err, io.EOF) {
			return fmt.Errorf("read password: %w", err)
		}
		*password = strings.TrimRight(line, "\r\n")
	}

	authFn := a.Client().Login
	if cmd == "register" {
		authFn = a.Client().Register
	}
	if _, err := authFn(ctx, *email, *password); err != nil {
		if errors.Is(err, api.ErrUnauthorized) {
			return errors.New("incorrect email or password")
		}
		return err
	}
	fmt.Fprintf(c.stdout, "Signed in as %s.\n", *email)
	return nil
}

func (c *CLI) whoami(ctx context.Context, a *app.Application) error {
	user, err := a.Client().GetCurrentUser(ctx)
	if err != nil {
		return err
	}
	fmt.Fprintf(c.stdout, "id: %d\nemail: %s\nplan: %s (%s)\nsince: %s\n",
		user.ID, user.Email, user.Plan, user.SubscriptionStatus, formatTime(user.CreatedAt))

	claims, err := a.Client().Session().Claims(ctx)
	if errors.Is(err, session.ErrNoToken) {
		return nil
	}
	if err != nil {
		c.logger.Warn("cannot read token claims", "error", err)
		return nil
	}
	if !claims.ExpiresAt.IsZero() {
		fmt.Fprintf(c.stdout, "token expires: %s\n", claims.ExpiresAt.Local().Format(time.RFC1123))
	}
	return nil
}

func (c *CLI) dashboard(ctx context.Context, a *app.Application) error {
	view, err := a.Dashboard().Load(ctx)
	if err != nil {
		return err
	}
	fmt.Fprintf(c.stdout, "%s (%s plan)\n\n", view.User.Email, view.User.Plan)
	fmt.Fprintf(c.stdout, "articles: %d total, %d unread (HIGH %d / MED %d / LOW %d)\n\n",
		view.Stats.Total, view.Stats.Unread, view.Stats.High, view.Stats.Med, view.Stats.Low)
	return c.printWatchlists(view.Watchlists.Watchlists)
}

func (c *CLI) watchlists(ctx context.Context, a *app.Application, args []string) error {
	client := a.Client()
	sub, rest := subcommand(args, "list")

	switch sub {
	case "list":
		list, err := client.GetWatchlists(ctx)
		if err != nil {
			return err
		}
		return c.printWatchlists(list.Watchlists)
	case "show":
		id, err := argID(rest, 0)
		if err != nil {
			return err
		}
		wl, err := client.GetWatchlist(ctx, id)
		if err != nil {
			return err
		}
		return c.printWatchlists([]domain.Watchlist{wl})
	case "create":
		if len(rest) == 0 {
			return errors.New("usage: watchlists create NAME [TICKER...]")
		}
		wl, err := client.CreateWatchlist(ctx, rest[0], rest[1:])
		if err != nil {
			return err
		}
		fmt.Fprintf(c.stdout, "Created watchlist %d.\n", wl.ID)
		return nil
	case "delete":
		id, err := argID(rest, 0)
		if err != nil {
			return err
		}
		msg, err := client.DeleteWatchlist(ctx, id)
		if err != nil {
			return err
		}
		fmt.Fprintln(c.stdout, msg.Message)
		return nil
	case "add":
		id, err := argID(rest, 0)
		if err != nil || len(rest) < 2 {
			return errors.New("usage: watchlists add ID TICKER")
		}
		wl, err := client.AddTicker(ctx, id, rest[1])
		if err != nil {
			return err
		}
		return c.printWatchlists([]domain.Watchlist{wl})
	case "remove":
		id, err := argID(rest, 0)
		if err != nil || len(rest) < 2 {
			return errors.New("usage: watchlists remove ID TICKER")
		}
		msg, err := client.RemoveTicker(ctx, id, rest[1])
		if err != nil {
			return err
		}
		fmt.Fprintln(c.stdout, msg.Message)
		return nil
	default:
		return fmt.Errorf("unknown watchlists command %q", sub)
	}
}

func (c *CLI) articles(ctx context.Context, a *app.Application, args []string) error {
	client := a.Client()
	sub, rest := subcommand(args, "list")

	switch sub {
	case "list":
		fs := flag.NewFlagSet("articles list", flag.ContinueOnError)
		fs.SetOutput(c.stdout)
		page := fs.Int("page", 1, "page number")
		pageSize := fs.Int("page-size", 20, "articles per page")
		severity := fs.String("severity", "", "comma separated severities (HIGH,MED,LOW)")
		tickers := fs.String("tickers", "", "comma separated tickers")
		search := fs.String("search", "", "full text search")
		unread := fs.Bool("unread", false, "only unread articles")
		if err := fs.Parse(rest); err != nil {
			return err
		}

		filter := api.ArticleFilter{Page: *page, PageSize: *pageSize, Search: *search, Tickers: splitList(*tickers)}
		for _, s := range splitList(*severity) {
			filter.Severities = append(filter.Severities, domain.Severity(strings.ToUpper(s)))
		}
		if *unread {
			zero := 0
			filter.Posted = &zero
		}

		result, err := client.GetArticles(ctx, filter.Query())
		if err != nil {
			return err
		}
		tw := tabwriter.NewWriter(c.stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "ID\tSEVERITY\tSCORE\tTICKERS\tREAD\tTITLE")
		for _, art := range result.Articles {
			fmt.Fprintf(tw, "%d\t%s\t%.1f\t%s\t%t\t%s\n",
				art.ID, art.Severity, art.Score, strings.Join(art.Tickers, ","), art.Read(), art.Title)
		}
		if err := tw.Flush(); err != nil {
			return err
		}
		fmt.Fprintf(c.stdout, "page %d of %d (%d articles)\n", result.Page, result.TotalPages, result.Total)
		return nil
	case "stats":
		stats, err := client.GetArticleStats(ctx)
		if err != nil {
			return err
		}
		fmt.Fprintf(c.stdout, "total: %d\nunread: %d\nhigh: %d\nmed: %d\nlow: %d\n",
			stats.Total, stats.Unread, stats.High, stats.Med, stats.Low)
		return nil
	case "read":
		id, err := argID(rest, 0)
		if err != nil {
			return err
		}
		msg, err := client.MarkArticleRead(ctx, id)
		if err != nil {
			return err
		}
		fmt.Fprintln(c.stdout, msg.Message)
		return nil
	default:
		return fmt.Errorf("unknown articles command %q", sub)
	}
}

func (c *CLI) scans(ctx context.Context, a *app.Application, args []string) error {
	client := a.Client()
	sub, rest := subcommand(args, "history")

	switch sub {
	case "trigger":
		ids, err := argIDs(rest)
		if err != nil {
			return err
		}
		var failed []error
		for _, r := range a.Watcher().TriggerAll(ctx, ids) {
			if r.Err != nil {
				failed = append(failed, fmt.Errorf("watchlist %d: %w", r.WatchlistID, r.Err))
				continue
			}
			fmt.Fprintf(c.stdout, "watchlist %d: scan %d %s\n", r.WatchlistID, r.Job.ID, r.Job.Status)
		}
		return errors.Join(failed...)
	case "history":
		history, err := client.GetScanHistory(ctx)
		if err != nil {
			return err
		}
		return c.printScans(history.ScanJobs)
	case "status":
		id, err := argID(rest, 0)
		if err != nil {
			return err
		}
		job, err := client.GetScanStatus(ctx, id)
		if err != nil {
			return err
		}
		return c.printScans([]domain.ScanJob{job})
	case "wait":
		id, err := argID(rest, 0)
		if err != nil {
			return err
		}
		job, err := a.Watcher().Wait(ctx, id)
		if err != nil {
			return err
		}
		return c.printScans([]domain.ScanJob{job})
	default:
		return fmt.Errorf("unknown scans command %q", sub)
	}
}

func (c *CLI) alerts(ctx context.Context, a *app.Application, args []string) error {
	fs := flag.NewFlagSet("alerts", flag.ContinueOnError)
	fs.SetOutput(c.stdout)
	watchlists := fs.String("watchlists", "", "comma separated watchlist ids (default from config, else all)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	ids, err := config.ParseWatchlistIDs(*watchlists)
	if err != nil {
		return fmt.Errorf("-watchlists: %w", err)
	}

	reports, runErr := a.RunOnce(ctx, ids)
	for _, r := range reports {
		fmt.Fprintf(c.stdout, "watchlist %d: scan %d %s, %d delivered, %d already sent\n",
			r.WatchlistID, r.Job.ID, r.Job.Status, len(r.Delivered), r.Skipped)
	}
	return runErr
}

func (c *CLI) history(ctx context.Context, a *app.Application, args []string) error {
	fs := flag.NewFlagSet("history", flag.ContinueOnError)
	fs.SetOutput(c.stdout)
	limit := fs.Int("limit", 20, "number of alerts")
	if err := fs.Parse(args); err != nil {
		return err
	}

	alerts, err := a.RecentAlerts(ctx, *limit)
	if err != nil {
		return err
	}
	tw := tabwriter.NewWriter(c.stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "DELIVERED\tWATCHLIST\tSEVERITY\tTITLE")
	for _, alert := range alerts {
		fmt.Fprintf(tw, "%s\t%d\t%s\t%s\n", formatTime(alert.DeliveredAt), alert.WatchlistID, alert.Severity, alert.Title)
	}
	return tw.Flush()
}

func (c *CLI) printWatchlists(list []domain.Watchlist) error {
	tw := tabwriter.NewWriter(c.stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME\tTICKERS")
	for _, wl := range list {
		fmt.Fprintf(tw, "%d\t%s\t%s\n", wl.ID, wl.Name, strings.Join(wl.Tickers, ", "))
	}
	return tw.Flush()
}

func (c *CLI) printScans(jobs []domain.ScanJob) error {
	tw := tabwriter.NewWriter(c.stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tWATCHLIST\tSTATUS\tFOUND\tFINISHED\tERROR")
	for _, job := range jobs {
		reason := ""
		if job.ErrorMessage != nil {
			reason = *job.ErrorMessage
		}
		fmt.Fprintf(tw, "%d\t%d\t%s\t%d\t%s\t%s\n",
			job.ID, job.WatchlistID, job.Status, job.ArticlesFound, formatTime(job.FinishedAt), reason)
	}
	return tw.Flush()
}

func subcommand(args []string, fallback string) (string, []string) {
	if len(args) == 0 {
		return fallback, nil
	}
	return args[0], args[1:]
}

func argID(args []string, i int) (int64, error) {
	if len(args) <= i {
		return 0, errors.New("missing numeric id")
	}
	id, err := strconv.ParseInt(args[i], 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid id %q", args[i])
	}
	return id, nil
}

func argIDs(args []string) ([]int64, error) {
	if len(args) == 0 {
		return nil, errors.New("missing numeric id")
	}
	ids := make([]int64, 0, len(args))
	for i := range args {
		id, err := argID(args, i)
		if err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, nil
}

func splitList(value string) []string {
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func formatTime(ts domain.Timestamp) string {
	if !ts.Valid() {
		return "-"
	}
	return ts.Local().Format("2006-01-02 15:04")
}
