package main

import (
	"context"
	"net/http"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"seiza/internal/config"
	"seiza/internal/metrics"
	"seiza/internal/pkg/logger"
	"seiza/internal/pkg/shutdown"
	"seiza/internal/queue"
	"seiza/internal/render"
	"seiza/internal/repositories"
	"seiza/internal/storage"
	"seiza/internal/sweep"
	"seiza/internal/worker"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logger.NewDefault().LogFatal("invalid configuration", err)
	}

	log := logger.New(logger.Config{
		Level:       cfg.LogLevel,
		Format:      cfg.LogFormat,
		ServiceName: "seiza-worker",
	})

	// A standalone worker only makes sense against a queue other
	// processes can reach. The embedded topology runs its pool inside
	// the api binary instead.
	if cfg.Embedded() {
		log.LogFatal("worker requires QUEUE_BACKEND=redis", nil)
	}

	log.Info("starting seiza worker",
		"version", "0.1.0",
		"workers", cfg.WorkerCount,
	)

	ctx := context.Background()
	shutdownMgr := shutdown.NewManager(log, 30*time.Second)

	log.Info("connecting to postgres")
	pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
	if err != nil {
		log.LogFatal("failed to create postgres pool", err)
	}
	shutdownMgr.RegisterSimple("postgres", pool.Close)
	if err := pool.Ping(ctx); err != nil {
		log.LogFatal("failed to ping postgres", err)
	}
	repo := repositories.NewJobRepository(pool)
	if err := repo.EnsureSchema(ctx); err != nil {
		log.LogFatal("failed to ensure jobs schema", err)
	}
	log.Info("postgres connected")

	log.Info("connecting to redis", "addr", cfg.RedisAddr)
	rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
	shutdownMgr.Register("redis", func(ctx context.Context) error {
		return rdb.Close()
	})
	if err := rdb.Ping(ctx).Err(); err != nil {
		log.LogFatal("failed to ping redis", err)
	}
	log.Info("redis connected")

	q := queue.NewRedisQueue(rdb, cfg.RedisQueueKey, cfg.QueueCapacity)

	provider, err := storage.NewProvider(ctx, cfg)
	if err != nil {
		log.LogFatal("failed to initialize storage provider", err)
	}
	log.Info("storage provider ready", "provider", provider.Provider())

	proc := worker.NewProcessor(worker.Deps{
		Store:         repo,
		Renderer:      newRenderer(cfg),
		Storage:       provider,
		RenderTimeout: cfg.RenderTimeout,
		Log:           log,
	})
	wpool := worker.NewPool(q, proc, cfg.WorkerCount, log)
	sweeper := sweep.New(repo, provider, cfg.RetentionMaxAge, cfg.SweepInterval, log)

	bgCtx := shutdownMgr.Context()

	poolDone := make(chan struct{})
	go func() {
		wpool.Run(bgCtx)
		close(poolDone)
	}()
	shutdownMgr.Register("worker-pool", func(ctx context.Context) error {
		select {
		case <-poolDone:
			return nil
		case <-ctx.Done():
			return ctx.Err()
		}
	})

	go sweeper.Run(bgCtx)

	if cfg.MetricsAddr != "" {
		mux := http.NewServeMux()
		mux.Handle("/metrics", metrics.Handler())
		msrv := &http.Server{
			Addr:         cfg.MetricsAddr,
			Handler:      mux,
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 10 * time.Second,
		}
		shutdownMgr.Register("metrics-server", func(ctx context.Context) error {
			return msrv.Shutdown(ctx)
		})
		go func() {
			log.Info("metrics listening", "addr", msrv.Addr)
			if err := msrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				log.Error("metrics server failed", "error", err.Error())
			}
		}()
	}

	shutdownMgr.Wait()
}

func newRenderer(cfg *config.Config) render.Renderer {
	if cfg.RendererMode == "http" {
		return render.NewHTTP(cfg.RendererURL)
	}
	return render.NewFFmpeg(cfg.FFmpegBin, cfg.TemplateVideo, cfg.FontFile)
}
