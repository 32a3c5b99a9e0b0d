package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"sort"
	"strings"
	"syscall"
	"time"

	"glassbox/internal/analytics"
	"glassbox/internal/audit"
	"glassbox/internal/catalog"
	"glassbox/internal/cmdlog"
	"glassbox/internal/config"
	"glassbox/internal/detail"
	"glassbox/internal/feed"
	"glassbox/internal/logging"
	"glassbox/internal/metrics"
	"glassbox/internal/server"
	"glassbox/internal/store/library"
	"glassbox/internal/theme"
)

const defaultConfigPath = "glassbox.yaml"

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}
	var err error
	switch os.Args[1] {
	case "init":
		err = cmdlog.Run("init", func() error { return runInit(os.Args[2:]) })
	case "serve":
		err = cmdlog.Run("serve", func() error { return runServe(os.Args[2:]) })
	case "feed":
		err = cmdlog.Run("feed", func() error { return runFeed(os.Args[2:]) })
	case "search":
		err = cmdlog.Run("search", func() error { return runSearch(os.Args[2:]) })
	case "detail":
		err = cmdlog.Run("detail", func() error { return runDetail(os.Args[2:]) })
	case "stats":
		err = cmdlog.Run("stats", func() error { return runStats(os.Args[2:]) })
	case "help", "-h", "--help":
		usage()
	default:
		fmt.Fprintf(os.Stderr, "unknown command %q\n\n", os.Args[1])
		usage()
		os.Exit(2)
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func usage() {
	fmt.Print(`glassbox - a local-first movie feed

usage: glassbox <command> [flags]

commands:
  init     write a default config file
  serve    run the HTTP API with a background feed engine
  feed     run one feed refresh and print the result
  search   query the catalog, optionally save a result
  detail   fetch one video's detail from the mirror list
  stats    print library and interaction statistics
  help     show this help
`)
}

func runInit(args []string) error {
	fs := flag.NewFlagSet("init", flag.ExitOnError)
	path := fs.String("config", defaultConfigPath, "config file path")
	force := fs.Bool("force", false, "overwrite an existing config file")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if _, err := os.Stat(*path); err == nil && !*force {
		return fmt.Errorf("%s already exists, use -force to overwrite", *path)
	}
	if err := config.Save(*path, config.Default()); err != nil {
		return err
	}
	fmt.Println("wrote", *path)
	return nil
}

// loadConfig reads the config file when it exists and falls back to
// defaults otherwise; environment overrides apply in both cases.
func loadConfig(path string) (config.Config, error) {
	cfg, err := config.Load(path)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			return config.Config{}, err
		}
		cfg = config.Default()
		cfg.ResolveEnv()
	}
	return cfg, nil
}

type app struct {
	cfg      config.Config
	db       *library.DB
	provider catalog.Provider
	details  *detail.Fetcher
	sink     *audit.Sink
	engine   *feed.Engine
}

func buildApp(configPath string) (*app, error) {
	cfg, err := loadConfig(configPath)
	if err != nil {
		return nil, err
	}
	db, err := library.Open(cfg.Storage.DBPath)
	if err != nil {
		return nil, fmt.Errorf("open store %s: %w", cfg.Storage.DBPath, err)
	}
	provider := catalog.NewHTTPClient(cfg.Catalog.BaseURL)
	engine := feed.New(db, provider)
	engine.ConfigureReadiness(cfg.Feed.ReadyAttempts, time.Duration(cfg.Feed.ReadyDelayMS)*time.Millisecond)
	return &app{
		cfg:      cfg,
		db:       db,
		provider: provider,
		details:  detail.NewFetcher(cfg.Detail.Mirrors),
		sink:     audit.NewSink(db, cfg.Account.Name),
		engine:   engine,
	}, nil
}

func (a *app) Close() { _ = a.db.Close() }

func runServe(args []string) error {
	fs := flag.NewFlagSet("serve", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	addr := fs.String("addr", "", "listen address, overrides config")
	if err := fs.Parse(args); err != nil {
		return err
	}
	theme.PrintBanner()

	a, err := buildApp(*configPath)
	if err != nil {
		return err
	}
	defer a.Close()
	if *addr == "" {
		*addr = a.cfg.Server.Addr
	}
	metrics.StartServer(a.cfg.Server.MetricsAddr)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if a.cfg.Feed.RefreshMinutes > 0 {
		go a.engine.RunLoop(ctx, time.Duration(a.cfg.Feed.RefreshMinutes)*time.Minute)
	} else {
		go a.engine.Refresh(ctx)
	}

	srv := &http.Server{
		Addr:    *addr,
		Handler: server.New(a.engine, a.db, a.provider, a.details, a.sink).Routes(),
	}
	go func() {
		<-ctx.Done()
		shutCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutCtx)
	}()
	logging.Info("serve_start", map[string]any{"addr": *addr})
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func runFeed(args []string) error {
	fs := flag.NewFlagSet("feed", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	if err := fs.Parse(args); err != nil {
		return err
	}
	a, err := buildApp(*configPath)
	if err != nil {
		return err
	}
	defer a.Close()

	st := a.engine.Refresh(context.Background())
	snap := a.engine.Snapshot()
	switch st {
	case feed.StateEmpty:
		fmt.Println("library is empty, save something first")
		return nil
	case feed.StateFailed:
		return fmt.Errorf("feed failed: %s", snap.Reason)
	}
	fmt.Println(snap.Label)
	for i, v := range snap.Videos {
		fmt.Printf("%3d. %s  [%s]  %.1f\n", i+1, v.Title, strings.Join(v.Genres, ", "), v.Rating)
	}
	return nil
}

func runSearch(args []string) error {
	fs := flag.NewFlagSet("search", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	save := fs.Int("save", 0, "save the Nth result (1-based) to the library")
	if err := fs.Parse(args); err != nil {
		return err
	}
	query := strings.TrimSpace(strings.Join(fs.Args(), " "))
	if query == "" {
		return errors.New("usage: glassbox search [flags] <query>")
	}
	a, err := buildApp(*configPath)
	if err != nil {
		return err
	}
	defer a.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	results, err := a.provider.Search(ctx, query)
	if err != nil {
		return err
	}
	a.sink.Search(query)
	if len(results) == 0 {
		fmt.Println("no results")
		return nil
	}
	for i, v := range results {
		fmt.Printf("%3d. %s  [%s]  %s\n", i+1, v.Title, strings.Join(v.Genres, ", "), v.ChannelName)
	}
	if *save > 0 {
		if *save > len(results) {
			return fmt.Errorf("-save %d out of range, got %d results", *save, len(results))
		}
		stored, err := a.db.UpsertVideo(ctx, results[*save-1])
		if err != nil {
			return err
		}
		a.sink.Interaction(stored, "save")
		fmt.Printf("saved %q to library\n", stored.Title)
	}
	return nil
}

func runDetail(args []string) error {
	fs := flag.NewFlagSet("detail", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		return errors.New("usage: glassbox detail <video-id>")
	}
	a, err := buildApp(*configPath)
	if err != nil {
		return err
	}
	defer a.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()
	v, err := a.details.Fetch(ctx, fs.Arg(0))
	if err != nil {
		return err
	}
	a.sink.Interaction(v, "view")
	b, _ := json.MarshalIndent(v, "", "  ")
	fmt.Println(string(b))
	return nil
}

func runStats(args []string) error {
	fs := flag.NewFlagSet("stats", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	days := fs.Int("days", 30, "interaction window in days")
	if err := fs.Parse(args); err != nil {
		return err
	}
	a, err := buildApp(*configPath)
	if err != nil {
		return err
	}
	defer a.Close()

	ctx := context.Background()
	videos, err := a.db.ListVideos(ctx)
	if err != nil {
		return err
	}
	total, err := a.db.CountInteractions(ctx)
	if err != nil {
		return err
	}
	fmt.Printf("library: %d videos, %d interactions\n", len(videos), total)

	genres := analytics.GenreBreakdown(videos)
	if len(genres) > 0 {
		fmt.Println("genres:")
		for g, n := range genres {
			fmt.Printf("  %-16s %d\n", g, n)
		}
	}

	now := time.Now().UTC()
	events, err := a.db.ListInteractions(ctx, now.AddDate(0, 0, -*days), now.Add(time.Minute))
	if err != nil {
		return err
	}
	buckets := analytics.DailyInteractions(events)
	if len(buckets) > 0 {
		fmt.Printf("last %d days:\n", *days)
		for _, day := range analytics.SortedBucketKeys(buckets) {
			parts := make([]string, 0, len(buckets[day]))
			for kind, n := range buckets[day] {
				parts = append(parts, fmt.Sprintf("%s=%d", kind, n))
			}
			sort.Strings(parts)
			fmt.Printf("  %s  %s\n", day.Format("2006-01-02"), strings.Join(parts, " "))
		}
	}
	return nil
}
