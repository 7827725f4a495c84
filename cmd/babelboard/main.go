package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiken/asynq"
	"golang.org/x/sync/errgroup"

	"github.com/babelboard/babelboard/internal/app"
	"github.com/babelboard/babelboard/internal/auth"
	"github.com/babelboard/babelboard/internal/authz"
	"github.com/babelboard/babelboard/internal/observability"
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
		slog.Default().Info("test mode detected, skipping runtime startup")
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

	dbpool, err := db.New(ctx, cfg.PGDSN)
	if err != nil {
		logger.Error("connect postgres", slog.Any("error", err))
		os.Exit(1)
	}
	defer dbpool.Close()

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
	csrfManager := shared.NewCSRFManager(cfg.CSRFSecret)

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

	auditLogger := shared.NewAuditLogger(dbpool)

	jobsClient, err := jobs.NewClient(asynq.RedisClientOpt{Addr: cfg.RedisAddr})
	if err != nil {
		logger.Error("connect job queue", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := jobsClient.Close(); err != nil {
			logger.Warn("job queue close", slog.Any("error", err))
		}
	}()

	rolesRepo := roles.NewRepository(dbpool)
	rolesService := roles.NewService(rolesRepo).WithAudit(auditLogger).WithReloadQueue(jobsClient)
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

	metrics := observability.NewMetrics()
	authzMetrics := authz.NewMetrics(metrics.Registerer())

	usersRepo := users.NewRepository(dbpool)
	resolver := authz.NewResolver(sessionManager, logger)

	engine, err := authz.NewEngine(authz.EngineConfig{
		Registry: registry,
		Grants:   grants,
		Resolver: resolver,
		Users:    usersRepo,
		Graph:    graph,
		Logger:   logger,
		Metrics:  authzMetrics,
	})
	if err != nil {
		logger.Error("build access engine", slog.Any("error", err))
		os.Exit(1)
	}
	gate := authz.NewGate(engine, logger, "/")

	authRepo := auth.NewRepository(dbpool)
	authService := auth.NewService(authRepo)
	authHandler := auth.NewHandler(logger, authService, sessionManager, gate)

	usersService := users.NewService(usersRepo).WithAudit(auditLogger)
	usersHandler := users.NewHandler(logger, usersService, engine, gate)

	rolesHandler := roles.NewHandler(logger, rolesService, gate)

	translateRepo := translate.NewRepository(dbpool)
	translateService := translate.NewService(translateRepo)
	translateHandler := translate.NewHandler(logger, translateService, engine, gate)

	inspector := asynq.NewInspector(asynq.RedisClientOpt{Addr: cfg.RedisAddr})
	defer func() {
		if err := inspector.Close(); err != nil {
			logger.Warn("inspector close", slog.Any("error", err))
		}
	}()
	jobHandler := jobs.NewHandler(inspector, logger)

	router := app.NewRouter(app.RouterParams{
		Logger:           logger,
		Config:           cfg,
		SessionManager:   sessionManager,
		CSRFManager:      csrfManager,
		AuthHandler:      authHandler,
		UsersHandler:     usersHandler,
		RolesHandler:     rolesHandler,
		TranslateHandler: translateHandler,
		JobHandler:       jobHandler,
		Metrics:          metrics,
	})

	server := &http.Server{
		Addr:         cfg.AppAddr,
		Handler:      router,
		ReadTimeout:  cfg.AppReadTimeout,
		WriteTimeout: cfg.AppWriteTimeout,
	}

	group, groupCtx := errgroup.WithContext(ctx)
	group.Go(func() error {
		ticker := time.NewTicker(cfg.RoleReloadInterval)
		defer ticker.Stop()
		for {
			select {
			case <-groupCtx.Done():
				return nil
			case <-ticker.C:
				fresh, err := rolesService.LoadGraph(groupCtx)
				if err != nil {
					logger.Error("role graph reload failed, keeping previous graph", slog.Any("error", err))
					continue
				}
				engine.SwapGraph(fresh)
				logger.Info("role graph reloaded", slog.Int("roles", fresh.Len()))
			}
		}
	})
	group.Go(func() error {
		logger.Info("starting http server", slog.String("addr", cfg.AppAddr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return err
		}
		return nil
	})
	group.Go(func() error {
		<-groupCtx.Done()
		logger.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})

	if err := group.Wait(); err != nil {
		logger.Error("http server", slog.Any("error", err))
		os.Exit(1)
	}
}
