package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/Faffo96/news-exercise-front/internal/catalog"
	"github.com/Faffo96/news-exercise-front/internal/debuglog"
	"github.com/Faffo96/news-exercise-front/internal/filter"
	"github.com/Faffo96/news-exercise-front/internal/importer"
	"github.com/Faffo96/news-exercise-front/internal/mockbackend"
	"github.com/Faffo96/news-exercise-front/internal/newsapi"
	"github.com/Faffo96/news-exercise-front/internal/storage"
)

const searchResultLimit = 50

var listOpts struct {
	status     string
	main       string
	sub        string
	activeOnly bool
	query      string
}

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "Fetch news and print the ones matching the filters",
	Args:  cobra.NoArgs,
	RunE:  runList,
}

var loginOpts struct {
	token string
}

var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Store the bearer token sent with every request",
	Args:  cobra.NoArgs,
	RunE:  runLogin,
}

var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Forget the stored bearer token",
	Args:  cobra.NoArgs,
	RunE:  runLogout,
}

var importOpts struct {
	main         string
	others       []string
	author       string
	archiveAfter time.Duration
}

var importCmd = &cobra.Command{
	Use:   "import <location>",
	Short: "Create news from an RSS/Atom feed URL or a TOML file",
	Args:  cobra.ExactArgs(1),
	RunE:  runImport,
}

var mockOpts struct {
	addr  string
	token string
	seed  string
	delay time.Duration
}

var mockServerCmd = &cobra.Command{
	Use:   "mock-server",
	Short: "Serve an in-memory news backend for local development",
	Args:  cobra.NoArgs,
	RunE:  runMockServer,
}

func init() {
	lf := listCmd.Flags()
	lf.StringVar(&listOpts.status, "status", filter.All, "Status filter: all, active or archived")
	lf.StringVar(&listOpts.main, "main", filter.All, "Main category filter")
	lf.StringVar(&listOpts.sub, "sub", filter.All, "Subcategory filter")
	lf.BoolVar(&listOpts.activeOnly, "active", false, "Ask the backend for active news only")
	lf.StringVarP(&listOpts.query, "search", "s", "", "Only show news matching the search terms")

	loginCmd.Flags().StringVar(&loginOpts.token, "token", "", "Bearer token (read from stdin when empty)")

	imf := importCmd.Flags()
	imf.StringVar(&importOpts.main, "main", "", "Main category for every imported item")
	imf.StringSliceVar(&importOpts.others, "other", nil, "Other categories for every imported item")
	imf.StringVar(&importOpts.author, "author", "", "Author for items that name none")
	imf.DurationVar(&importOpts.archiveAfter, "archive-after", importer.DefaultArchiveAfter, "Archive items this long after release when the source has no archive date")

	mf := mockServerCmd.Flags()
	mf.StringVar(&mockOpts.addr, "addr", "localhost:8080", "Listen address")
	mf.StringVar(&mockOpts.token, "token", "", "Require this bearer token on mutations")
	mf.StringVar(&mockOpts.seed, "seed", "", "TOML seed file replacing the built-in data")
	mf.DurationVar(&mockOpts.delay, "delay", 0, "Hold every request this long before answering")

	rootCmd.AddCommand(listCmd, loginCmd, logoutCmd, importCmd, mockServerCmd)
}

func runList(cmd *cobra.Command, _ []string) error {
	s, err := openSession(cmd.Context())
	if err != nil {
		return err
	}
	defer s.Close()

	if listOpts.activeOnly {
		s.engine.SetActiveOnly(true)
	}
	if err := s.bootstrap(); err != nil {
		if len(s.catalog.News()) == 0 {
			return fmt.Errorf("fetching news: %s", newsapi.UserMessage(err))
		}
		fmt.Fprintf(cmd.ErrOrStderr(), "Warning: %s, showing news cached %s\n",
			newsapi.UserMessage(err), humanize.Time(s.cachedAt))
	}

	news := filter.Apply(s.catalog.News(), filter.Criteria{
		Status:       listOpts.status,
		MainCategory: listOpts.main,
		Subcategory:  listOpts.sub,
	})
	if q := strings.TrimSpace(listOpts.query); q != "" {
		news, err = searchWithin(s, q, news)
		if err != nil {
			return err
		}
	}

	printNews(cmd.OutOrStdout(), news, time.Now())
	return nil
}

// searchWithin keeps the items of news that match q, ranked by score.
func searchWithin(s *session, q string, news []catalog.News) ([]catalog.News, error) {
	results, err := s.searcher().Search(q, searchResultLimit)
	if err != nil {
		return nil, fmt.Errorf("search: %w", err)
	}
	keep := make(map[catalog.ID]bool, len(news))
	for _, n := range news {
		keep[n.ID] = true
	}
	out := make([]catalog.News, 0, len(results))
	for _, r := range results {
		if keep[r.News.ID] {
			out = append(out, r.News)
		}
	}
	return out, nil
}

func printNews(w io.Writer, news []catalog.News, now time.Time) {
	if len(news) == 0 {
		fmt.Fprintln(w, "No news found.")
		return
	}
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tSTATUS\tTITLE\tMAIN\tRELEASED\tARCHIVES")
	for _, n := range news {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\n",
			n.ID, statusLabel(n), n.Title, n.MainCategory,
			n.ReleaseDate, dateWithAge(n.ArchiveDate, now))
	}
	tw.Flush()
	fmt.Fprintf(w, "\n%s news\n", humanize.Comma(int64(len(news))))
}

func statusLabel(n catalog.News) string {
	if label := filter.Label(n); label != "" {
		return label
	}
	return "-"
}

func dateWithAge(date string, now time.Time) string {
	t, err := time.Parse("2006-01-02", date)
	if err != nil {
		return date
	}
	return fmt.Sprintf("%s (%s)", date, humanize.RelTime(t, now, "ago", "from now"))
}

func runLogin(cmd *cobra.Command, _ []string) error {
	token := strings.TrimSpace(loginOpts.token)
	if token == "" {
		data, err := io.ReadAll(io.LimitReader(cmd.InOrStdin(), 64<<10))
		if err != nil {
			return fmt.Errorf("reading token: %w", err)
		}
		token = strings.TrimSpace(string(data))
	}
	if token == "" {
		return errors.New("no token given")
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	cache, err := openCache(cfg)
	if err != nil {
		return err
	}
	defer cache.Close()

	if err := cache.SetToken(token); err != nil {
		return fmt.Errorf("storing token: %w", err)
	}

	out := cmd.OutOrStdout()
	claims, err := storage.ParseClaims(token)
	if err != nil {
		fmt.Fprintln(out, "Token stored.")
		return nil
	}
	who := claims.Subject
	if who == "" {
		who = "unknown subject"
	}
	switch {
	case claims.ExpiresAt.IsZero():
		fmt.Fprintf(out, "Logged in as %s.\n", who)
	case claims.Expired(time.Now()):
		fmt.Fprintf(out, "Logged in as %s, but the token expired %s. Requests will go out unauthenticated.\n",
			who, humanize.Time(claims.ExpiresAt))
	default:
		fmt.Fprintf(out, "Logged in as %s, token expires %s.\n", who, humanize.Time(claims.ExpiresAt))
	}
	return nil
}

func runLogout(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	cache, err := openCache(cfg)
	if err != nil {
		return err
	}
	defer cache.Close()

	if err := cache.ClearToken(); err != nil {
		return fmt.Errorf("clearing token: %w", err)
	}
	fmt.Fprintln(cmd.OutOrStdout(), "Logged out.")
	return nil
}

func runImport(cmd *cobra.Command, args []string) error {
	s, err := openSession(cmd.Context())
	if err != nil {
		return err
	}
	defer s.Close()

	// Subcategory names resolve against the backend's taxonomy.
	if err := s.bootstrap(); err != nil {
		return fmt.Errorf("fetching taxonomy: %s", newsapi.UserMessage(err))
	}

	im := importer.New(importer.DefaultRegistry(nil, nil), s.engine, s.cfg.Sync.ImportConcurrency)
	report, err := im.Import(s.ctx, args[0], importer.Options{
		MainCategory:    importOpts.main,
		OtherCategories: importOpts.others,
		Author:          importOpts.author,
		ArchiveAfter:    importOpts.archiveAfter,
	})
	if err != nil {
		return fmt.Errorf("import %s: %w", args[0], err)
	}

	printReport(cmd.OutOrStdout(), report)
	if len(report.Failed) > 0 {
		return fmt.Errorf("%d of %d items were rejected by the backend",
			len(report.Failed), len(report.Created)+len(report.Failed))
	}
	return nil
}

func printReport(w io.Writer, r importer.Report) {
	fmt.Fprintf(w, "Created %s news.\n", humanize.Comma(int64(len(r.Created))))
	for _, n := range r.Created {
		fmt.Fprintf(w, "  + %s  %s\n", n.ID, n.Title)
	}
	if len(r.Invalid) > 0 {
		fmt.Fprintf(w, "Skipped %d invalid items:\n", len(r.Invalid))
		for _, rej := range r.Invalid {
			fmt.Fprintf(w, "  - %s: %s\n", rej.News.Title, rej.Reason())
		}
	}
	if len(r.Failed) > 0 {
		fmt.Fprintf(w, "Backend rejected %d items:\n", len(r.Failed))
		for _, rej := range r.Failed {
			fmt.Fprintf(w, "  ! %s: %s\n", rej.News.Title, rej.Reason())
		}
	}
	if len(r.Unresolved) > 0 {
		fmt.Fprintf(w, "Unknown subcategories dropped: %s\n", strings.Join(r.Unresolved, ", "))
	}
}

func runMockServer(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	level := debuglog.ParseLogLevel(cfg.Log.Level)
	if level == debuglog.LevelOff {
		level = debuglog.LevelInfo
	}
	if err := debuglog.SetupWith(debuglog.Options{Level: level, Stderr: true}); err != nil {
		return err
	}

	opts := mockbackend.Options{Token: mockOpts.token}
	if mockOpts.seed != "" {
		data, err := os.ReadFile(mockOpts.seed)
		if err != nil {
			return fmt.Errorf("reading seed: %w", err)
		}
		seed, err := mockbackend.ParseSeed(data)
		if err != nil {
			return err
		}
		opts.Seed = &seed
	}
	if d := mockOpts.delay; d > 0 {
		opts.Delay = func(*http.Request) time.Duration { return d }
	}

	backend, err := mockbackend.New(opts)
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	fmt.Fprintf(cmd.OutOrStdout(), "Serving mock backend on http://%s (Ctrl+C to stop)\n", mockOpts.addr)
	return backend.Serve(ctx, mockOpts.addr)
}
