// Package main wires together the news ingest service binary.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/coinpulse/btcnews/internal/api"
	"github.com/coinpulse/btcnews/internal/archive"
	"github.com/coinpulse/btcnews/internal/clock/system"
	"github.com/coinpulse/btcnews/internal/config"
	"github.com/coinpulse/btcnews/internal/engine"
	"github.com/coinpulse/btcnews/internal/extract"
	collyfetcher "github.com/coinpulse/btcnews/internal/fetcher/colly"
	"github.com/coinpulse/btcnews/internal/frontier"
	memorykv "github.com/coinpulse/btcnews/internal/kv/memory"
	postgreskv "github.com/coinpulse/btcnews/internal/kv/postgres"
	rediskv "github.com/coinpulse/btcnews/internal/kv/redis"
	"github.com/coinpulse/btcnews/internal/logging"
	"github.com/coinpulse/btcnews/internal/metrics"
	"github.com/coinpulse/btcnews/internal/news"
	memorypublisher "github.com/coinpulse/btcnews/internal/publisher/memory"
	gcppublisher "github.com/coinpulse/btcnews/internal/publisher/pubsub"
	"github.com/coinpulse/btcnews/internal/scheduler"
	"github.com/coinpulse/btcnews/internal/store"
)

func main() {
	cfgPath := flag.String("config", "", "Path to config file")
	flag.Parse()

	cfg, err := config.Load(*cfgPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config failed: %v\n", err)
		os.Exit(1)
	}
	logger, err := logging.New(cfg.Logging.Development)
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger init failed: %v\n", err)
		os.Exit(1)
	}
	defer func() {
		if syncErr := logger.Sync(); syncErr != nil {
			fmt.Fprintf(os.Stderr, "logger sync failed: %v\n", syncErr)
		}
	}()
	zap.ReplaceGlobals(logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	metrics.Init()

	kvStore, closeKV, err := newKV(ctx, cfg)
	if err != nil {
		logger.Error("store init failed", zap.String("backend", cfg.Store.Backend), zap.Error(err))
		os.Exit(1)
	}
	defer closeKV()

	st := store.New(kvStore, cfg.Crawl.DefaultCursor, cfg.Archive.MaxItems, logger.Named("store"))
	clock := system.New()

	crawlFetcher := collyfetcher.New(collyfetcher.Config{
		UserAgent: cfg.Source.UserAgent,
		Headers: map[string]string{
			"Accept":          "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8",
			"Accept-Language": "zh-CN,zh;q=0.9,en;q=0.8",
			"Cache-Control":   "no-cache",
		},
		Timeout: cfg.FetchTimeout(),
	})
	probeFetcher := collyfetcher.New(collyfetcher.Config{
		UserAgent: cfg.Source.ProbeUserAgent,
		Timeout:   cfg.FetchTimeout(),
	})

	prober := frontier.NewProber(probeFetcher, frontier.Config{
		BaseURL: cfg.Source.BaseURL,
		Offsets: cfg.Crawl.ProbeOffsets,
		Delay:   cfg.ProbeDelay(),
	}, logger.Named("frontier"))

	extractor := extract.New(extract.Config{
		BaseURL:  cfg.Source.BaseURL,
		Source:   cfg.Source.Name,
		Keywords: cfg.Source.Keywords,
	}, clock)

	var publisher news.Publisher
	if cfg.PubSub.TopicName != "" {
		if cfg.PubSub.ProjectID != "" {
			gcp, err := gcppublisher.New(ctx, cfg.PubSub.ProjectID)
			if err != nil {
				logger.Warn("pubsub init failed, run summaries will not be published", zap.Error(err))
			} else {
				defer func() {
					if closeErr := gcp.Close(); closeErr != nil {
						logger.Warn("pubsub close failed", zap.Error(closeErr))
					}
				}()
				publisher = gcp
			}
		} else {
			logger.Info("no pubsub project configured, using in-process publisher")
			publisher = memorypublisher.New()
		}
	}

	eng := engine.New(
		st,
		crawlFetcher,
		prober,
		extractor,
		archive.Merger{MaxItems: cfg.Archive.MaxItems, DedupeByID: cfg.Archive.DedupeByID},
		publisher,
		clock,
		engine.Config{
			BatchSize:  cfg.Crawl.BatchSize,
			WindowSize: cfg.Crawl.WindowSize,
			Delay:      cfg.CrawlDelay(),
			Topic:      cfg.PubSub.TopicName,
		},
		logger.Named("engine"),
	)

	if cfg.Scheduler.Enabled {
		sched := scheduler.New(eng, st, clock, cfg.SchedulerInterval(), logger.Named("scheduler"))
		go sched.Run(ctx)
	}

	apiServer := api.NewServer(st, eng, clock, cfg, logger.Named("api"))

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:           apiServer.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		logger.Info("http server started", zap.Int("port", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", zap.Error(err))
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutdown initiated")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown error", zap.Error(err))
	}
	logger.Info("shutdown complete")
}

func newKV(ctx context.Context, cfg config.Config) (news.KV, func(), error) {
	switch cfg.Store.Backend {
	case "redis":
		kv, err := rediskv.New(ctx, cfg.Store.RedisAddr)
		if err != nil {
			return nil, nil, err
		}
		return kv, func() { _ = kv.Close() }, nil
	case "postgres":
		kv, err := postgreskv.New(ctx, postgreskv.Config{
			DSN:   cfg.Store.PostgresDSN,
			Table: cfg.Store.PostgresTable,
		})
		if err != nil {
			return nil, nil, err
		}
		return kv, func() { kv.Close() }, nil
	case "memory":
		return memorykv.New(), func() {}, nil
	default:
		return nil, nil, fmt.Errorf("unknown store backend %q", cfg.Store.Backend)
	}
}
