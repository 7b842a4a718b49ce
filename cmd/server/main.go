package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/go-chi/chi/v5"
	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"

	"github.com/playperu/attractionmap/internal/config"
	"github.com/playperu/attractionmap/internal/database"
	"github.com/playperu/attractionmap/internal/handler/health"
	"github.com/playperu/attractionmap/internal/migrations"
	"github.com/playperu/attractionmap/internal/render"
	"github.com/playperu/attractionmap/internal/server"
	"github.com/playperu/attractionmap/internal/store"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx, os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, stdout io.Writer) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	logger := slog.New(slog.NewJSONHandler(stdout, &slog.HandlerOptions{
		Level: cfg.LogLevel,
	}))

	// --- SQLite ---
	db, err := database.Open(ctx, cfg.DBPath)
	if err != nil {
		return fmt.Errorf("connecting to sqlite: %w", err)
	}
	defer db.Close()

	if err := migrations.Run(db); err != nil {
		return fmt.Errorf("running migrations: %w", err)
	}
	logger.Info("connected to sqlite", "path", cfg.DBPath)

	st := store.New(db)
	if cfg.SeedDemo {
		if err := server.SeedDemo(ctx, logger, st); err != nil {
			return fmt.Errorf("seeding attractions: %w", err)
		}
	}
	dataset, err := st.List(ctx)
	if err != nil {
		return fmt.Errorf("loading attractions: %w", err)
	}
	logger.Info("attractions loaded", "count", len(dataset))

	checks := map[string]health.Checker{
		"sqlite": database.Checker{DB: db},
	}

	// --- Redis (optional asset cache) ---
	var rdb *redis.Client
	if cfg.RedisURL != "" {
		rdb, err = openRedis(ctx, cfg.RedisURL)
		if err != nil {
			return fmt.Errorf("connecting to redis: %w", err)
		}
		defer rdb.Close()
		checks["redis"] = health.Redis{Client: rdb}
		logger.Info("connected to redis")
	}

	// --- Map engine ---
	assets, err := render.ParseAssets(cfg.MapAssets)
	if err != nil {
		return fmt.Errorf("parsing map assets: %w", err)
	}
	loader := render.NewAssetLoader(assets, render.LoaderOptions{
		Cache:    rdb,
		CacheTTL: cfg.MapAssetCacheTTL,
		Timeout:  cfg.MapAssetTimeout,
		Logger:   logger,
	})
	engine := render.NewEngine(loader, render.Options{TileURL: cfg.MapTileURL, Logger: logger})

	broker := server.NewBroker()
	sessions := server.NewSessions(dataset, engine, broker, logger)
	defer sessions.Close()

	// --- HTTP Server ---
	srv := server.New(cfg.HTTPAddr, logger, server.Deps{
		Store:    st,
		Sessions: sessions,
		Broker:   broker,
		SPADir:   cfg.SPADir,
	}, func(r chi.Router) {
		r.Mount("/healthz", health.NewHandler(logger, checks).Routes())
	})

	// --- Run ---
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info("starting http server", "addr", cfg.HTTPAddr)
		return srv.Run(gctx)
	})

	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down http server")
		// Ends open event and live streams before draining.
		sessions.Close()
		return srv.Shutdown(context.Background())
	})

	return g.Wait()
}

func openRedis(ctx context.Context, rawURL string) (*redis.Client, error) {
	opt, err := redis.ParseURL(rawURL)
	if err != nil {
		return nil, fmt.Errorf("parsing redis url: %w", err)
	}
	rdb := redis.NewClient(opt)
	if err := rdb.Ping(ctx).Err(); err != nil {
		rdb.Close()
		return nil, fmt.Errorf("pinging redis: %w", err)
	}
	return rdb, nil
}
