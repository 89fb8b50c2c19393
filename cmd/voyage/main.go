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

	"github.com/voyage-res/voyage-res/internal/app"
	"github.com/voyage-res/voyage-res/internal/observability"
	"github.com/voyage-res/voyage-res/internal/permissions"
	"github.com/voyage-res/voyage-res/internal/platform/cache"
	"github.com/voyage-res/voyage-res/internal/platform/db"
	"github.com/voyage-res/voyage-res/internal/rbac"
	"github.com/voyage-res/voyage-res/internal/reservations"
	"github.com/voyage-res/voyage-res/internal/roles"
	"github.com/voyage-res/voyage-res/internal/shared"
	"github.com/voyage-res/voyage-res/internal/users"
	"github.com/voyage-res/voyage-res/jobs"
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

	pool, err := db.New(ctx, cfg.PGDSN)
	if err != nil {
		logger.Error("connect postgres", slog.Any("error", err))
		os.Exit(1)
	}
	defer pool.Close()

	redisClient, err := cache.New(ctx, cfg.RedisAddr, cfg.RedisCacheDB)
	if err != nil {
		logger.Error("connect redis", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logger.Warn("redis close", slog.Any("error", err))
		}
	}()

	auditLogger := shared.NewAuditLogger(pool)
	bindingCache := rbac.NewBindingCache(redisClient, cfg.BindingCacheTTL)

	usersRepo := users.NewRepository(pool)
	usersService := users.NewService(usersRepo)

	rbacRepo := rbac.NewRepository(pool)
	bindingService := rbac.NewBindingService(rbacRepo, bindingCache, auditLogger, logger)
	assignmentService := rbac.NewAssignmentService(rbacRepo, usersService, auditLogger, logger)
	resolver := rbac.NewResolver(rbacRepo, bindingCache)
	rbacMiddleware := rbac.Middleware{Resolver: resolver, Logger: logger}

	rolesRepo := roles.NewRepository(pool)
	rolesService := roles.NewService(rolesRepo, bindingCache, logger)

	permissionsRepo := permissions.NewRepository(pool)
	permissionsService := permissions.NewService(permissionsRepo)

	reservationsRepo := reservations.NewRepository(pool)
	reservationsService := reservations.NewService(reservationsRepo)

	rbacHandler := rbac.NewHandler(logger, bindingService, assignmentService, resolver, rbacMiddleware)
	rolesHandler := roles.NewHandler(logger, rolesService, rbacMiddleware)
	permissionsHandler := permissions.NewHandler(logger, permissionsService, rbacMiddleware)
	usersHandler := users.NewHandler(logger, usersService, rbacMiddleware)
	reservationsHandler := reservations.NewHandler(logger, reservationsService, rbacMiddleware)

	redisOpts := asynq.RedisClientOpt{Addr: cfg.RedisAddr}
	jobsClient, err := jobs.NewClient(redisOpts)
	if err != nil {
		logger.Error("init jobs client", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := jobsClient.Close(); err != nil {
			logger.Warn("jobs client close", slog.Any("error", err))
		}
	}()

	inspector := asynq.NewInspector(redisOpts)
	defer func() {
		if err := inspector.Close(); err != nil {
			logger.Warn("inspector close", slog.Any("error", err))
		}
	}()
	jobsHandler := jobs.NewHandler(inspector, jobsClient, rbacMiddleware, logger)

	metrics := observability.NewMetrics()

	router := app.NewRouter(app.RouterParams{
		Logger:              logger,
		Config:              cfg,
		RolesHandler:        rolesHandler,
		PermissionsHandler:  permissionsHandler,
		UsersHandler:        usersHandler,
		RBACHandler:         rbacHandler,
		ReservationsHandler: reservationsHandler,
		JobsHandler:         jobsHandler,
		Metrics:             metrics,
	})

	server := &http.Server{
		Addr:         cfg.AppAddr,
		Handler:      router,
		ReadTimeout:  cfg.AppReadTimeout,
		WriteTimeout: cfg.AppWriteTimeout,
	}

	go func() {
		logger.Info("starting http server", slog.String("addr", cfg.AppAddr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("http server", slog.Any("error", err))
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown", slog.Any("error", err))
	}
}
