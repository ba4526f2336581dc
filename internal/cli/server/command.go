package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/gip-inclusion/dora-api/internal/handler"
	"github.com/gip-inclusion/dora-api/internal/repository"
	"github.com/gip-inclusion/dora-api/internal/router"
	"github.com/gip-inclusion/dora-api/internal/service"
	"github.com/gip-inclusion/dora-api/pkg/cache"
	"github.com/gip-inclusion/dora-api/pkg/config"
	"github.com/gip-inclusion/dora-api/pkg/database"
	"github.com/gip-inclusion/dora-api/pkg/jobs"
	"github.com/gip-inclusion/dora-api/pkg/logger"
	"github.com/gip-inclusion/dora-api/pkg/mailer"
)

var autoMigrate bool

// NewCommand returns the "server" command.
func NewCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "server",
		Short: "Start the HTTP server",
		Long:  `Start the DORA orientation API: lifecycle, contact relay and notifications.`,
		RunE:  run,
	}

	cmd.Flags().BoolVar(&autoMigrate, "auto-migrate", false, "Apply pending database migrations before serving (overrides DB_AUTO_MIGRATE)")

	return cmd
}

func run(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	logr, err := logger.New(cfg)
	if err != nil {
		return fmt.Errorf("failed to init logger: %w", err)
	}
	defer logr.Sync() //nolint:errcheck

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := database.NewPostgres(ctx, cfg.Database)
	if err != nil {
		return fmt.Errorf("failed to connect database: %w", err)
	}
	defer db.Close()

	if autoMigrate || cfg.Database.AutoMigrate {
		if err := migrateUp(cfg.Database, logr); err != nil {
			return err
		}
	}

	redisClient, err := cache.NewRedis(ctx, cfg.Redis)
	if err != nil {
		logr.Warn("redis unavailable, catalogue cache disabled", zap.Error(err))
		redisClient = nil
	}
	if redisClient != nil {
		defer redisClient.Close()
	}

	orientationRepo := repository.NewOrientationRepository(db)
	referenceRepo := repository.NewReferenceRepository(db)
	reasonRepo := repository.NewRejectionReasonRepository(db)
	contactEmailRepo := repository.NewContactEmailRepository(db)

	metrics := service.NewMetricsService()

	var cacheRepo service.CacheRepository
	if redisClient != nil {
		cacheRepo = repository.NewCacheRepository(redisClient)
	}
	cacheSvc := service.NewCacheService(cacheRepo, metrics, cfg.Catalog.CacheTTL, logr)
	reasonSvc := service.NewRejectionReasonService(reasonRepo, cacheSvc, cfg.Catalog.CacheTTL, logr)

	notifications := service.NewNotificationService(mailer.New(cfg.Mail, logr), mailer.NewRenderer(), cfg.FrontendURL, metrics, logr)
	var queue *jobs.Queue
	if cfg.Notifications.Async {
		queue = jobs.NewQueue("notifications", notifications.HandleJob, jobs.QueueConfig{
			Workers:    cfg.Notifications.Workers,
			MaxRetries: cfg.Notifications.MaxRetries,
			RetryDelay: cfg.Notifications.RetryDelay,
			Logger:     logr,
			OnGiveUp: func(job jobs.Job, err error) {
				logr.Error("notification dropped", zap.String("job_id", job.ID), zap.String("kind", job.Type), zap.Error(err))
			},
		})
		// Detached from the signal context so buffered mails drain after shutdown starts.
		queue.Start(context.Background())
		notifications.UseQueue(queue)
	}

	validate := validator.New()
	orientationSvc := service.NewOrientationService(orientationRepo, referenceRepo, reasonSvc, notifications, metrics, validate, logr)
	contactSvc := service.NewContactService(orientationRepo, referenceRepo, contactEmailRepo, notifications, metrics, logr)

	audience := ""
	if len(cfg.JWT.Audience) > 0 {
		audience = cfg.JWT.Audience[0]
	}
	authSvc := service.NewAuthService(logr, service.AuthConfig{
		AccessTokenSecret: cfg.JWT.Secret,
		Issuer:            cfg.JWT.Issuer,
		Audience:          audience,
	})

	pingers := map[string]handler.Pinger{"database": db}
	if redisClient != nil {
		pingers["redis"] = handler.PingerFunc(func(ctx context.Context) error {
			return redisClient.Ping(ctx).Err()
		})
	}

	engine := router.New(router.Dependencies{
		Config:           cfg,
		Logger:           logr,
		Metrics:          metrics,
		Tokens:           authSvc,
		Orientations:     handler.NewOrientationHandler(orientationSvc, contactSvc),
		RejectionReasons: handler.NewRejectionReasonHandler(reasonSvc),
		Health:           handler.NewMetricsHandler(metrics, pingers),
	})

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           engine,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logr.Info("server starting", zap.String("addr", srv.Addr), zap.String("env", cfg.Env))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server failed: %w", err)
		}
	case <-ctx.Done():
		logr.Info("shutting down server")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logr.Error("server forced to shutdown", zap.Error(err))
	}
	if queue != nil {
		queue.Stop()
	}
	logr.Info("server exited")
	return nil
}

func migrateUp(cfg config.DatabaseConfig, logr *zap.Logger) error {
	m, err := database.OpenMigrator(cfg, logr)
	if err != nil {
		return err
	}
	defer m.Close()
	return m.Up()
}
