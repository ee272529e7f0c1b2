package cmd

import (
	"context"
	"io"

	"github.com/rohmanhakim/spotcrime/internal/cache"
	"github.com/rohmanhakim/spotcrime/internal/config"
	"github.com/rohmanhakim/spotcrime/internal/fetcher"
	"github.com/rohmanhakim/spotcrime/internal/metadata"
	"github.com/rohmanhakim/spotcrime/internal/scheduler"
	"github.com/rohmanhakim/spotcrime/internal/storage"
	"github.com/rohmanhakim/spotcrime/pkg/limiter"
)

// app wires the pipeline for one CLI invocation.
type app struct {
	cfg       config.Config
	recorder  *metadata.Recorder
	cache     *cache.FileCache
	db        *storage.SQLiteSink
	pages     *fetcher.CachingFetcher
	scheduler *scheduler.Scheduler
}

func newApp(ctx context.Context, cfg config.Config, logOut io.Writer) (*app, error) {
	recorder := metadata.NewRecorder(logOut, cfg.LogLevel())

	pageCache := cache.Load(cfg.CacheFile(), &recorder)

	db, err := storage.Open(ctx, cfg.DBFile(), &recorder)
	if err != nil {
		return nil, err
	}

	rateLimiter := limiter.NewConcurrentRateLimiter()
	rateLimiter.SetBaseDelay(cfg.MinInterval())
	rateLimiter.SetJitter(cfg.Jitter())
	rateLimiter.SetRandomSeed(cfg.RandomSeed())
	rateLimiter.SetBackoffParam(cfg.BackoffParam())

	htmlFetcher := fetcher.NewHtmlFetcher(&recorder, cfg.Timeout())
	pages := fetcher.NewCachingFetcher(
		&htmlFetcher,
		pageCache,
		rateLimiter,
		&recorder,
		cfg.UserAgent(),
		cfg.RetryParam(),
	)

	return &app{
		cfg:       cfg,
		recorder:  &recorder,
		cache:     pageCache,
		db:        db,
		pages:     pages,
		scheduler: scheduler.NewScheduler(cfg.BaseURL(), &recorder, &recorder, pages, db),
	}, nil
}

func (a *app) Close() error {
	return a.db.Close()
}
