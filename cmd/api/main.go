package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	httptransport "github.com/spec-kit/crm-service/internal/api/http"
	"github.com/spec-kit/crm-service/internal/api/http/handlers"
	"github.com/spec-kit/crm-service/internal/auth"
	"github.com/spec-kit/crm-service/internal/config"
	"github.com/spec-kit/crm-service/internal/events"
	"github.com/spec-kit/crm-service/internal/observability"
	"github.com/spec-kit/crm-service/internal/persistence"
	"github.com/spec-kit/crm-service/internal/repository"
	"github.com/spec-kit/crm-service/internal/service"
	"github.com/spec-kit/crm-service/internal/worker"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger, err := observability.NewLogger(cfg.Logger)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logger.Sync() //nolint:errcheck

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pg, err := persistence.NewPostgres(ctx, cfg.Postgres, logger)
	if err != nil {
		logger.Fatal("failed to connect postgres", zap.Error(err))
	}
	defer pg.Close()

	if cfg.Postgres.RunMigrations {
		if err := persistence.RunMigrations(ctx, pg.PoolHandle(), logger); err != nil {
			logger.Fatal("failed to run migrations", zap.Error(err))
		}
	}

	redis := persistence.NewRedis(cfg.Redis, logger)
	defer redis.Close()

	pool := pg.PoolHandle()
	userRepo := repository.NewUserRepository(pool)
	teamRepo := repository.NewTeamRepository(pool)
	leadRepo := repository.NewLeadRepository(pool)
	activityRepo := repository.NewActivityLogRepository(pool)
	ruleRepo := repository.NewCachedRuleRepository(
		repository.NewRoutingRuleRepository(pool),
		redis.Client,
		cfg.Redis.RuleCacheTTL(),
		logger,
	)

	dispatcher := events.NewInMemoryDispatcher()

	authService := service.NewAuthService(*cfg, userRepo)
	teamService := service.NewTeamService(teamRepo)
	userService := service.NewUserService(*cfg, userRepo, teamRepo)
	ruleService := service.NewRuleService(service.RuleDependencies{
		RuleRepo:   ruleRepo,
		TeamRepo:   teamRepo,
		Dispatcher: dispatcher,
	})
	routingService := service.NewRoutingService(service.RoutingDependencies{
		LeadRepo:     leadRepo,
		RuleRepo:     ruleRepo,
		UserRepo:     userRepo,
		ActivityRepo: activityRepo,
		Dispatcher:   dispatcher,
		Logger:       logger,
	})

	routingWorker, err := worker.NewRoutingWorker(cfg.Routing, routingService, logger)
	if err != nil {
		logger.Fatal("failed to start routing worker", zap.Error(err))
	}
	defer routingWorker.Stop()

	leadService := service.NewLeadService(service.LeadDependencies{
		LeadRepo:     leadRepo,
		UserRepo:     userRepo,
		ActivityRepo: activityRepo,
		Dispatcher:   dispatcher,
		Trigger:      routingWorker,
		Logger:       logger,
	})

	notifications := service.NewNotificationService(dispatcher, logger, cfg.Notification)
	notifications.RegisterHandlers()

	var metricsServer *observability.MetricsServer
	if cfg.Metrics.Enabled {
		metricsServer = observability.NewMetricsServer(cfg.Metrics.Port, logger)
		metricsServer.Start()
	}

	authMiddleware := auth.NewAuthMiddleware(authService.TokenManager(), userRepo)

	app := fiber.New(fiber.Config{AppName: cfg.App.Name})
	httptransport.RegisterMiddlewares(app, logger, cfg.App.RequestTimeout())

	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health:         handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, pg, redis),
		Auth:           handlers.NewAuthHandler(authService),
		Leads:          handlers.NewLeadsHandler(leadService),
		Rules:          handlers.NewRulesHandler(ruleService),
		Routing:        handlers.NewRoutingHandler(routingService),
		Teams:          handlers.NewTeamsHandler(teamService),
		Users:          handlers.NewUsersHandler(userService),
		AuthMiddleware: authMiddleware,
	})

	go func() {
		if err := app.Listen(cfg.App.Addr()); err != nil {
			logger.Fatal("fiber listen", zap.Error(err))
		}
	}()

	waitForShutdown(logger)

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if metricsServer != nil {
		_ = metricsServer.Stop(shutdownCtx)
	}
	_ = app.ShutdownWithContext(shutdownCtx)
}

func waitForShutdown(logger *zap.Logger) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigCh
	logger.Info("shutting down", zap.String("signal", sig.String()))
}
