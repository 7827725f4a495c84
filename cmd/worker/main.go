package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiken/asynq"

	"github.com/babelboard/babelboard/internal/app"
	"github.com/babelboard/babelboard/internal/auth"
	"github.com/babelboard/babelboard/internal/authz"
	jobmetrics "github.com/babelboard/babelboard/internal/jobs"
	"github.com/babelboard/babelboard/internal/platform/cache"
	"github.com/babelboard/babelboard/internal/platform/db"
	"github.com/babelboard/babelboard/internal/roles"
	"github.com/babelboard/babelboard/internal/shared"
	"github.com/babelboard/babelboard/internal/translate"
	"github.com/babelboard/babelboard/internal/users"
	"github.com/babelboard/babelboard/jobs"
)

func main() {
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping worker startup")
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := app.LoadConfig()
	if err != nil {
		slog.Default().Error("load config", slog.Any("error", err))
		os.Exit(1)
	}

	logger := app.NewLogger(cfg)

	pool, err := db.New(ctx, cfg.PGDSN)
	if err != nil {
		logger.Error("connect database", slog.Any("error", err))
		os.Exit(1)
	}
	defer pool.Close()

	redisClient, err := cache.New(ctx, cfg.RedisAddr)
	if err != nil {
		logger.Error("connect redis", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logger.Warn("redis close", slog.Any("error", err))
		}
	}()

	sessionManager := shared.NewSessionManager(redisClient, "babelboard_session", cfg.SessionSecret, cfg.SessionTTL, cfg.IsProduction())

	registry, err := authz.NewRegistry(
		auth.Resources(),
		users.Resources(),
		roles.Resources(),
		translate.Resources(),
	)
	if err != nil {
		logger.Error("build resource registry", slog.Any("error", err))
		os.Exit(1)
	}

	rolesRepo := roles.NewRepository(pool)
	rolesService := roles.NewService(rolesRepo)
	graph, err := rolesService.LoadGraph(ctx)
	if err != nil {
		logger.Error("build role graph", slog.Any("error", err))
		os.Exit(1)
	}

	grants, err := authz.NewGrantTable(authz.DefaultGrantRules(), graph, registry)
	if err != nil {
		logger.Error("build grant table", slog.Any("error", err))
		os.Exit(1)
	}

	usersRepo := users.NewRepository(pool)
	resolver := authz.NewResolver(sessionManager, logger)

	engine, err := authz.NewEngine(authz.EngineConfig{
		Registry: registry,
		Grants:   grants,
		Resolver: resolver,
		Users:    usersRepo,
		Graph:    graph,
		Logger:   logger,
	})
	if err != nil {
		logger.Error("build access engine", slog.Any("error", err))
		os.Exit(1)
	}

	metrics := jobmetrics.NewMetrics(nil)
	reloadJob := jobs.NewRolesReloadJob(rolesService, engine, logger, metrics)
	purgeJob := jobs.NewSessionsPurgeJob(pool, logger, metrics)

	reloadTask, err := jobs.NewRolesReloadTask(time.Now().UTC())
	if err != nil {
		logger.Error("build reload task", slog.Any("error", err))
		os.Exit(1)
	}
	purgeTask, err := jobs.NewSessionsPurgeTask(cfg.SessionRetentionDays)
	if err != nil {
		logger.Error("build purge task", slog.Any("error", err))
		os.Exit(1)
	}

	worker, err := jobs.NewWorker(jobs.WorkerConfig{
		RedisOpts: asynq.RedisClientOpt{Addr: cfg.RedisAddr},
		Logger:    logger,
		Handlers: []jobs.TaskHandler{
			{Type: jobs.TaskRolesReload, Handler: reloadJob.Handle},
			{Type: jobs.TaskSessionsPurge, Handler: purgeJob.Handle},
		},
		Cron: []jobs.CronRegistration{
			{Spec: cfg.RoleReloadCron, Task: reloadTask, Options: []asynq.Option{asynq.MaxRetry(3)}},
			{Spec: cfg.SessionPurgeCron, Task: purgeTask, Options: []asynq.Option{asynq.MaxRetry(3)}},
		},
	})
	if err != nil {
		logger.Error("init worker", slog.Any("error", err))
		os.Exit(1)
	}

	if err := worker.Run(ctx); err != nil && err != context.Canceled {
		logger.Error("worker run", slog.Any("error", err))
		os.Exit(1)
	}
}
