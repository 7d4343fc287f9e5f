package main

import (
	"context"
	"path/filepath"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	catalogpg "github.com/hyeonjw1106/really-big-bang/internal/catalog/postgres"
	"github.com/hyeonjw1106/really-big-bang/internal/config"
	"github.com/hyeonjw1106/really-big-bang/internal/pkg/logger"
	"github.com/hyeonjw1106/really-big-bang/internal/pkg/shutdown"
	"github.com/hyeonjw1106/really-big-bang/internal/queue"
	"github.com/hyeonjw1106/really-big-bang/internal/render"
	"github.com/hyeonjw1106/really-big-bang/internal/render/backend"
	renderpg "github.com/hyeonjw1106/really-big-bang/internal/render/postgres"
	"github.com/hyeonjw1106/really-big-bang/internal/storage"
	"github.com/hyeonjw1106/really-big-bang/internal/worker"
)

func main() {
	log := logger.New(logger.Config{
		Level:       "info",
		Format:      "json",
		ServiceName: "cosmos-worker",
	})

	cfg, err := config.Load()
	if err != nil {
		log.LogFatal("invalid configuration", err)
	}
	if cfg.DatabaseURL == "" {
		log.LogFatal("missing required environment variable", nil, "key", "DATABASE_URL")
	}
	if cfg.RedisAddr == "" {
		log.LogFatal("missing required environment variable", nil, "key", "REDIS_ADDR")
	}

	log.Info("starting Cosmos worker", "queue", cfg.QueueName, "render_mode", string(cfg.Render.Mode))

	ctx, cancel := context.WithCancel(context.Background())
	shutdownMgr := shutdown.NewManager(log, 30*time.Second)
	shutdownMgr.Register("worker-loop", func(context.Context) error {
		cancel()
		return nil
	})

	pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
	if err != nil {
		log.LogFatal("failed to connect to PostgreSQL", err)
	}
	defer pool.Close()
	if err := pool.Ping(ctx); err != nil {
		log.LogFatal("failed to ping PostgreSQL", err)
	}

	rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
	defer rdb.Close()
	if err := rdb.Ping(ctx).Err(); err != nil {
		log.LogFatal("failed to ping Redis", err)
	}

	sp, err := storage.NewProvider(cfg.DataDir)
	if err != nil {
		log.LogFatal("failed to initialize storage provider", err)
	}

	catalogStore := catalogpg.New(pool)
	resolver := render.NewResolver(catalogStore, sp, cfg.Resolver)

	var b backend.Backend
	if cfg.Render.Mode == config.ModeExport {
		b = backend.NewExport(cfg.Render.BlenderBin, cfg.Render.ExportScript)
	} else {
		b = backend.NewRaster()
	}

	engine := render.NewEngine(render.Deps{
		Jobs:       renderpg.New(pool),
		Catalog:    catalogStore,
		Backend:    b,
		Objects:    sp,
		Dispatcher: queue.NewRedisQueue(rdb, cfg.QueueName),
		Resolver:   resolver,
		Cfg:        cfg.Render,
		WorkDir:    filepath.Join(cfg.DataDir, "work"),
		Log:        log,
	})

	go shutdownMgr.Wait()

	err = worker.Run(ctx, worker.Deps{
		RDB:         rdb,
		QueueName:   cfg.QueueName,
		Engine:      engine,
		Concurrency: cfg.Render.Concurrency,
		Log:         log,
	})
	if err != nil && err != context.Canceled {
		log.LogFatal("worker loop failed", err)
	}
	log.Info("worker exited")
}
