package main

import (
	"context"
	"net/http"
	"path/filepath"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	catalogpg "github.com/hyeonjw1106/really-big-bang/internal/catalog/postgres"
	"github.com/hyeonjw1106/really-big-bang/internal/config"
	"github.com/hyeonjw1106/really-big-bang/internal/httpapi"
	"github.com/hyeonjw1106/really-big-bang/internal/pkg/logger"
	"github.com/hyeonjw1106/really-big-bang/internal/pkg/shutdown"
	"github.com/hyeonjw1106/really-big-bang/internal/queue"
	"github.com/hyeonjw1106/really-big-bang/internal/render"
	"github.com/hyeonjw1106/really-big-bang/internal/render/backend"
	renderpg "github.com/hyeonjw1106/really-big-bang/internal/render/postgres"
	"github.com/hyeonjw1106/really-big-bang/internal/storage"
)

func main() {
	log := logger.New(logger.Config{
		Level:       "info",
		Format:      "json",
		ServiceName: "cosmos-api",
	})

	cfg, err := config.Load()
	if err != nil {
		log.LogFatal("invalid configuration", err)
	}
	if cfg.DatabaseURL == "" {
		log.LogFatal("missing required environment variable", nil, "key", "DATABASE_URL")
	}

	log.Info("starting Cosmos API", "version", "0.1.0", "dispatch_mode", cfg.DispatchMode)

	ctx := context.Background()
	shutdownMgr := shutdown.NewManager(log, 30*time.Second)

	log.Info("connecting to PostgreSQL")
	pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
	if err != nil {
		log.LogFatal("failed to connect to PostgreSQL", err)
	}
	shutdownMgr.Register("postgres", func(ctx context.Context) error {
		pool.Close()
		return nil
	})
	if err := pool.Ping(ctx); err != nil {
		log.LogFatal("failed to ping PostgreSQL", err)
	}
	if err := catalogpg.Migrate(ctx, pool); err != nil {
		log.LogFatal("failed to run migrations", err)
	}
	log.Info("PostgreSQL connected")

	var rdb *redis.Client
	if cfg.DispatchMode == "redis" {
		if cfg.RedisAddr == "" {
			log.LogFatal("missing required environment variable", nil, "key", "REDIS_ADDR")
		}
		log.Info("connecting to Redis")
		rdb = redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		shutdownMgr.Register("redis", func(ctx context.Context) error {
			return rdb.Close()
		})
		if err := rdb.Ping(ctx).Err(); err != nil {
			log.LogFatal("failed to ping Redis", err)
		}
		log.Info("Redis connected")
	}

	sp, err := storage.NewProvider(cfg.DataDir)
	if err != nil {
		log.LogFatal("failed to initialize storage provider", err)
	}
	log.Info("storage provider initialized", "provider", sp.Provider())

	catalogStore := catalogpg.New(pool)
	jobStore := renderpg.New(pool)
	resolver := render.NewResolver(catalogStore, sp, cfg.Resolver)

	engine := render.NewEngine(render.Deps{
		Jobs:     jobStore,
		Catalog:  catalogStore,
		Backend:  newBackend(cfg),
		Objects:  sp,
		Resolver: resolver,
		Cfg:      cfg.Render,
		WorkDir:  filepath.Join(cfg.DataDir, "work"),
		Log:      log,
	})

	switch cfg.DispatchMode {
	case "redis":
		engine.SetDispatcher(queue.NewRedisQueue(rdb, cfg.QueueName))
	case "local":
		localPool := render.NewLocalPool(engine.Drive, cfg.Render.Concurrency, 64, log)
		engine.SetDispatcher(localPool)
		shutdownMgr.Register("render-pool", func(ctx context.Context) error {
			localPool.Close()
			return nil
		})
	}

	router := httpapi.NewRouter(httpapi.Deps{
		Catalog:  catalogStore,
		Engine:   engine,
		Resolver: resolver,
		Objects:  sp,
		Log:      log,
		Pool:     pool,
		RDB:      rdb,
	})

	server := &http.Server{
		Addr:         "0.0.0.0:" + cfg.HTTPPort,
		Handler:      router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  120 * time.Second,
	}
	shutdownMgr.Register("http-server", func(ctx context.Context) error {
		log.Info("shutting down HTTP server")
		return server.Shutdown(ctx)
	})

	go func() {
		log.Info("HTTP server listening", "addr", server.Addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.LogFatal("HTTP server failed", err)
		}
	}()

	shutdownMgr.Wait()
}

func newBackend(cfg *config.Config) backend.Backend {
	if cfg.Render.Mode == config.ModeExport {
		return backend.NewExport(cfg.Render.BlenderBin, cfg.Render.ExportScript)
	}
	return backend.NewRaster()
}
