package main

import (
	"context"
	"net/http"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"seiza/internal/admission"
	"seiza/internal/config"
	"seiza/internal/dispatch"
	"seiza/internal/httpapi"
	"seiza/internal/httpapi/handlers"
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
		ServiceName: "seiza-api",
	})

	log.Info("starting seiza api",
		"version", "0.1.0",
		"embedded", cfg.Embedded(),
	)

	ctx := context.Background()
	shutdownMgr := shutdown.NewManager(log, 30*time.Second)

	var (
		store repositories.JobStore
		pool  *pgxpool.Pool
	)
	switch cfg.StoreBackend {
	case "postgres":
		log.Info("connecting to postgres")
		pool, err = pgxpool.New(ctx, cfg.DatabaseURL)
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
		store = repo
		log.Info("postgres connected")
	default:
		store = repositories.NewMemoryJobStore()
	}

	var rdb *redis.Client
	if cfg.QueueBackend == "redis" || cfg.QuotaBackend == "redis" {
		log.Info("connecting to redis", "addr", cfg.RedisAddr)
		rdb = redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		shutdownMgr.Register("redis", func(ctx context.Context) error {
			return rdb.Close()
		})
		if err := rdb.Ping(ctx).Err(); err != nil {
			log.LogFatal("failed to ping redis", err)
		}
		log.Info("redis connected")
	}

	var q queue.Queue
	if cfg.QueueBackend == "redis" {
		q = queue.NewRedisQueue(rdb, cfg.RedisQueueKey, cfg.QueueCapacity)
	} else {
		q = queue.NewMemoryQueue(cfg.QueueCapacity)
	}

	var limiter admission.Limiter
	if cfg.QuotaBackend == "redis" {
		limiter = admission.NewRedisLimiter(rdb)
	} else {
		limiter = admission.NewMemoryLimiter()
	}

	provider, err := storage.NewProvider(ctx, cfg)
	if err != nil {
		log.LogFatal("failed to initialize storage provider", err)
	}
	log.Info("storage provider ready", "provider", provider.Provider())

	dispatcher := dispatch.New(store, q, log)
	adm := admission.NewController(limiter, admission.LimitsFromConfig(cfg))
	sweeper := sweep.New(store, provider, cfg.RetentionMaxAge, cfg.SweepInterval, log)

	bgCtx := shutdownMgr.Context()

	// With the memory queue nothing else can see the jobs, so the render
	// pool and the sweeper live inside this process.
	if cfg.Embedded() {
		proc := worker.NewProcessor(worker.Deps{
			Store:         store,
			Renderer:      newRenderer(cfg),
			Storage:       provider,
			RenderTimeout: cfg.RenderTimeout,
			Log:           log,
		})
		wpool := worker.NewPool(q, proc, cfg.WorkerCount, log)

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
	}

	router := httpapi.NewRouter(httpapi.Deps{
		Cfg: cfg,
		Log: log,
		Handlers: handlers.Deps{
			Dispatcher: dispatcher,
			Admission:  adm,
			Sweeper:    sweeper,
			Store:      store,
			Storage:    provider,
			Log:        log,
			Pool:       pool,
			RDB:        rdb,
		},
	})

	server := &http.Server{
		Addr:         cfg.HTTPAddr,
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

func newRenderer(cfg *config.Config) render.Renderer {
	if cfg.RendererMode == "http" {
		return render.NewHTTP(cfg.RendererURL)
	}
	return render.NewFFmpeg(cfg.FFmpegBin, cfg.TemplateVideo, cfg.FontFile)
}
