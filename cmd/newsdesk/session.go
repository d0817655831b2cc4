package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/Faffo96/news-exercise-front/internal/config"
	"github.com/Faffo96/news-exercise-front/internal/debuglog"
	"github.com/Faffo96/news-exercise-front/internal/newsapi"
	"github.com/Faffo96/news-exercise-front/internal/search"
	"github.com/Faffo96/news-exercise-front/internal/storage"
	"github.com/Faffo96/news-exercise-front/internal/store"
	"github.com/Faffo96/news-exercise-front/internal/syncer"
)

// session is everything a command needs to talk to the backend: the loaded
// config, the on-disk cache and a sync engine over a catalog restored from it.
type session struct {
	ctx      context.Context
	cfg      *config.Config
	cache    *storage.Store
	client   *newsapi.Client
	catalog  *store.Catalog
	engine   *syncer.Engine
	cachedAt time.Time
	closers  []func()
}

func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	if dbPath != "" {
		cfg.Database.Path = dbPath
	}
	if logLevel != "" {
		cfg.Log.Level = logLevel
	}
	return cfg, nil
}

func openCache(cfg *config.Config) (*storage.Store, error) {
	if err := os.MkdirAll(filepath.Dir(cfg.Database.Path), 0o755); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}
	return storage.OpenStore(cfg.Database.Path, cfg.Database.Timeout)
}

func openSession(ctx context.Context) (*session, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}

	if err := debuglog.SetupWith(debuglog.Options{
		Level: debuglog.ParseLogLevel(cfg.Log.Level),
		File:  cfg.Log.File,
	}); err != nil {
		return nil, err
	}

	cache, err := openCache(cfg)
	if err != nil {
		return nil, err
	}
	s := &session{ctx: ctx, cfg: cfg, cache: cache, catalog: store.New()}
	s.closers = append(s.closers, func() { _ = cache.Close() })

	var tokens newsapi.TokenSource = cache
	if cfg.API.Token != "" {
		tokens = newsapi.StaticToken(cfg.API.Token)
	}
	s.client, err = newsapi.NewClient(newsapi.Options{
		BaseURL:           cfg.API.BaseURL,
		Timeout:           cfg.API.HTTPTimeout,
		UserAgent:         cfg.API.UserAgent,
		RequestsPerSecond: cfg.API.RequestsPerSecond,
		Tokens:            tokens,
	})
	if err != nil {
		s.Close()
		return nil, err
	}

	snap, savedAt, err := cache.LoadSnapshot()
	switch {
	case err == nil:
		s.catalog.Restore(snap)
		s.cachedAt = savedAt
	case errors.Is(err, storage.ErrNotFound):
	default:
		debuglog.Warnf("ignoring unreadable cache: %v", err)
	}
	s.closers = append(s.closers, cache.Mirror(s.catalog))

	s.engine = syncer.New(s.client, s.catalog, syncer.Options{
		ActiveOnly:           cfg.Sync.ActiveOnly,
		SubcategorySort:      cfg.Sync.SubcategorySort,
		RefetchAfterMutation: cfg.Sync.RefetchAfterMutation,
	})

	debuglog.WithFields(map[string]any{
		"backend": s.client.BaseURL(),
		"cache":   cfg.Database.Path,
		"cached":  len(snap.News),
	}).Infof("session opened")
	return s, nil
}

// searcher returns the persistent index when it can be opened, otherwise the
// in-memory scorer. Either way it follows the catalog.
func (s *session) searcher() search.Searcher {
	var searcher search.Searcher = search.NewEngine(s.catalog)
	if path := s.cfg.Database.SearchIndex; path != "" {
		idx, err := search.NewBleveEngine(s.catalog, path)
		if err != nil {
			debuglog.Warnf("search index unavailable, using in-memory search: %v", err)
		} else {
			searcher = idx
			s.closers = append(s.closers, func() { _ = idx.Close() })
		}
	}
	s.closers = append(s.closers, search.Attach(s.catalog, searcher))
	return searcher
}

// account names the stored token's subject for display.
func (s *session) account() string {
	if s.cfg.API.Token != "" {
		if claims, err := storage.ParseClaims(s.cfg.API.Token); err == nil {
			return claims.Subject
		}
		return ""
	}
	claims, err := s.cache.Claims()
	if err != nil {
		return ""
	}
	return claims.Subject
}

// bootstrap fetches news and taxonomy. It reports the first failure but
// keeps whatever was cached for the failed resources.
func (s *session) bootstrap() error {
	return syncer.FirstFailure(s.engine.RunAll(s.engine.Bootstrap(s.ctx)...)...)
}

// Close releases resources in reverse order of acquisition.
func (s *session) Close() {
	for i := len(s.closers) - 1; i >= 0; i-- {
		s.closers[i]()
	}
	s.closers = nil
}
