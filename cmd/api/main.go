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

	httptransport "github.com/spec-kit/civic-reports/internal/api/http"
	"github.com/spec-kit/civic-reports/internal/api/http/handlers"
	"github.com/spec-kit/civic-reports/internal/auth"
	"github.com/spec-kit/civic-reports/internal/config"
	"github.com/spec-kit/civic-reports/internal/events"
	"github.com/spec-kit/civic-reports/internal/observability"
	"github.com/spec-kit/civic-reports/internal/persistence"
	"github.com/spec-kit/civic-reports/internal/repository"
	"github.com/spec-kit/civic-reports/internal/service"
	"github.com/spec-kit/civic-reports/internal/worker"
)

type stores struct {
	users   repository.UserRepository
	reports repository.ReportRepository
	history repository.ReportHistoryRepository
	checks  []handlers.HealthCheck
	close   func()
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger, err := observability.NewLogger(cfg.Logger, cfg.App)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logger.Sync() //nolint:errcheck

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	st := openStores(ctx, cfg, logger)
	defer st.close()

	redis := persistence.NewRedis(ctx, cfg.Redis, logger)
	defer redis.Close()

	limiter := auth.NewRedisAttemptLimiter(redis.Client, cfg.Auth.SigninMaxAttempts, cfg.Auth.SigninWindow(), logger)
	authService := service.NewAuthService(*cfg, service.AuthDependencies{
		UserRepo: st.users,
		Limiter:  limiter,
		Logger:   logger,
	})
	if cfg.Seed.CouncilEmail != "" {
		if _, _, err := authService.EnsureCouncilAccount(ctx, cfg.Seed.CouncilEmail, cfg.Seed.CouncilPassword); err != nil {
			logger.Fatal("failed to seed council account", zap.Error(err))
		}
	}

	queue := worker.NewNotificationQueue(events.NewInMemoryDispatcher(), cfg.Notification.QueueSize, logger)
	notificationService := service.NewNotificationService(queue, st.users, logger, cfg.Notification)
	worker.StartNotificationWorker(notificationService, queue)

	reportService := service.NewReportService(cfg.Reports, service.ReportDependencies{
		ReportRepo:  st.reports,
		HistoryRepo: st.history,
		Dispatcher:  queue,
		Logger:      logger,
	})
	authMiddleware := auth.NewAuthMiddleware(authService.TokenManager(), st.users)

	metrics := observability.NewMetrics()
	app := fiber.New(fiber.Config{
		AppName:      cfg.App.Name,
		ErrorHandler: httptransport.ErrorHandler,
	})
	httptransport.RegisterMiddlewares(app, logger, metrics, cfg.App.RequestTimeout())

	checks := append(st.checks, handlers.HealthCheck{Name: "redis", Dep: redis, Optional: true})
	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health:         handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, metrics, checks...),
		Users:          handlers.NewUsersHandler(authService),
		Reports:        handlers.NewReportsHandler(reportService),
		AuthMiddleware: authMiddleware,
	})

	go func() {
		logger.Info("http server listening", zap.String("addr", cfg.App.Addr()))
		if err := app.Listen(cfg.App.Addr()); err != nil {
			logger.Fatal("fiber listen", zap.Error(err))
		}
	}()

	waitForShutdown(logger)

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		logger.Warn("http shutdown", zap.Error(err))
	}
	if err := queue.Stop(shutdownCtx); err != nil {
		logger.Warn("notification queue shutdown", zap.Error(err))
	}
}

// openStores connects the configured backend. Any connection failure exits the process.
func openStores(ctx context.Context, cfg *config.Config, logger *zap.Logger) stores {
	switch cfg.Store.Driver {
	case config.StoreDriverMongo:
		mg, err := persistence.NewMongo(ctx, cfg.Mongo, logger)
		if err != nil {
			logger.Fatal("failed to connect mongo", zap.Error(err))
		}
		return stores{
			users:   repository.NewMongoUserRepository(mg.Collection(persistence.UsersCollection)),
			reports: repository.NewMongoReportRepository(mg.Collection(persistence.ReportsCollection)),
			history: repository.NewMongoReportHistoryRepository(mg.Collection(persistence.ReportHistoryCollection)),
			checks:  []handlers.HealthCheck{{Name: "mongo", Dep: mg}},
			close: func() {
				closeCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				mg.Close(closeCtx)
			},
		}
	default:
		pg, err := persistence.NewPostgres(ctx, cfg.Postgres, logger)
		if err != nil {
			logger.Fatal("failed to connect postgres", zap.Error(err))
		}
		if cfg.Postgres.RunMigrations {
			if err := persistence.RunMigrations(pg.PoolHandle(), logger); err != nil {
				logger.Fatal("failed to run migrations", zap.Error(err))
			}
		}
		pool := pg.PoolHandle()
		return stores{
			users:   repository.NewUserRepository(pool),
			reports: repository.NewReportRepository(pool),
			history: repository.NewReportHistoryRepository(pool),
			checks:  []handlers.HealthCheck{{Name: "postgres", Dep: pg}},
			close:   pg.Close,
		}
	}
}

func waitForShutdown(logger *zap.Logger) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigCh
	logger.Info("shutting down", zap.String("signal", sig.String()))
}
