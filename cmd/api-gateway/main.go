package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	_ "github.com/noah-isme/reservation-api/api/swagger"
	"github.com/noah-isme/reservation-api/internal/handler"
	internalmiddleware "github.com/noah-isme/reservation-api/internal/middleware"
	"github.com/noah-isme/reservation-api/internal/repository"
	"github.com/noah-isme/reservation-api/internal/service"
	"github.com/noah-isme/reservation-api/pkg/cache"
	"github.com/noah-isme/reservation-api/pkg/config"
	"github.com/noah-isme/reservation-api/pkg/database"
	"github.com/noah-isme/reservation-api/pkg/export"
	"github.com/noah-isme/reservation-api/pkg/jobs"
	"github.com/noah-isme/reservation-api/pkg/logger"
	corsmiddleware "github.com/noah-isme/reservation-api/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/reservation-api/pkg/middleware/requestid"
)

// @title Reservation API
// @version 1.0.0
// @description Consultation and level-test reservations for a math academy, with an admin triage console.
// @BasePath /
// @schemes http https
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logr, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logr.Sync() //nolint:errcheck

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logr); err != nil {
		logr.Error("server stopped", zap.Error(err))
		stop()
		_ = logr.Sync()
		os.Exit(1)
	}
}

const notificationDrainTimeout = 30 * time.Second

func run(ctx context.Context, cfg *config.Config, logr *zap.Logger) error {
	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	db, err := database.NewPostgres(ctx, cfg.Database)
	if err != nil {
		return fmt.Errorf("connect postgres: %w", err)
	}
	defer db.Close()

	redisClient, err := cache.NewRedis(ctx, cfg.Redis)
	if err != nil {
		return fmt.Errorf("connect redis: %w", err)
	}
	if redisClient != nil {
		defer redisClient.Close()
	} else {
		logr.Warn("redis not configured: list cache disabled, admin sessions are stateless")
	}

	passwordHash, err := service.ResolvePasswordHash(cfg.Admin.PasswordHash, cfg.Admin.Password)
	if err != nil {
		return err
	}
	if passwordHash == "" {
		logr.Warn("no admin password configured: admin login is disabled")
	}

	metricsSvc := service.NewMetricsService()
	validate := service.NewValidator()

	reservationRepo := repository.NewReservationRepository(db)
	cacheRepo := repository.NewCacheRepository(redisClient, logr)
	cacheSvc := service.NewCacheService(cacheRepo, metricsSvc, cfg.Cache.TTL, logr, cfg.Cache.Enabled && redisClient != nil)

	var sender service.EmailSender
	if cfg.Notification.Enabled() {
		sender = service.NewMailersendSender(cfg.Notification.APIKey, logr)
	} else {
		logr.Debug("staff notification disabled: MAILERSEND_API_KEY or NOTIFY_STAFF_EMAIL missing")
	}
	notifier := service.NewNotificationService(sender, service.NotificationConfig{
		FromName:   cfg.Notification.FromName,
		FromEmail:  cfg.Notification.FromEmail,
		StaffEmail: cfg.Notification.StaffEmail,
	}, metricsSvc, logr)
	dispatcher := service.NewNotificationDispatcher(notifier, jobs.QueueConfig{
		Workers:    cfg.Notification.Workers,
		BufferSize: cfg.Notification.BufferSize,
		JobTimeout: 30 * time.Second,
	}, metricsSvc, logr)
	// The dispatcher outlives the signal context and is drained after srv.Shutdown returns.
	dispatcher.Start(context.Background())
	defer func() {
		drainCtx, cancel := context.WithTimeout(context.Background(), notificationDrainTimeout)
		defer cancel()
		if err := dispatcher.Shutdown(drainCtx); err != nil {
			logr.Warn("notification queue not drained", zap.Error(err))
		}
	}()

	reservationSvc := service.NewReservationService(service.ReservationServiceParams{
		Repo:      reservationRepo,
		Validator: validate,
		Cache:     cacheSvc,
		Metrics:   metricsSvc,
		Notifier:  dispatcher,
		Logger:    logr,
		CacheTTL:  cfg.Cache.TTL,
	})
	exportSvc := service.NewExportService(reservationSvc, export.NewCSVExporter(), export.NewPDFExporter(cfg.Export.FontPath), logr)

	var sessions service.SessionStore
	if redisClient != nil {
		sessions = repository.NewSessionRepository(redisClient)
	}
	authSvc := service.NewAuthService(sessions, validate, metricsSvc, logr, service.AuthConfig{
		AccessTokenSecret: cfg.JWT.Secret,
		AccessTokenExpiry: cfg.JWT.Expiration,
		Issuer:            cfg.JWT.Issuer,
		PasswordHash:      passwordHash,
	})

	checks := map[string]handler.Pinger{"postgres": db}
	if redisClient != nil {
		checks["redis"] = redisPinger(redisClient)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr, "/health", "/metrics"))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(internalmiddleware.Metrics(metricsSvc))
	r.Use(internalmiddleware.WithResponseMeta())

	metricsHandler := handler.NewMetricsHandler(metricsSvc, checks)
	r.GET("/health", metricsHandler.Health)
	r.GET("/ready", metricsHandler.Ready)
	r.GET("/metrics", metricsHandler.Prometheus)

	reservationHandler := handler.NewReservationHandler(reservationSvc, logr)
	r.POST("/api/reserve", reservationHandler.Reserve)

	authHandler := handler.NewAuthHandler(authSvc)
	adminHandler := handler.NewAdminHandler(reservationSvc, exportSvc)

	api := r.Group(cfg.APIPrefix)
	api.POST("/admin/login", authHandler.Login)

	admin := api.Group("/admin", internalmiddleware.JWT(authSvc))
	admin.POST("/logout", authHandler.Logout)
	admin.GET("/me", authHandler.Me)
	admin.GET("/reservations", adminHandler.List)
	admin.GET("/reservations/export", adminHandler.Export)
	admin.GET("/reservations/:id", adminHandler.Get)
	admin.PATCH("/reservations/:id/status", adminHandler.UpdateStatus)
	admin.PATCH("/reservations/:id/memo", adminHandler.UpdateMemo)

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		logr.Info("server starting", zap.String("addr", srv.Addr), zap.String("env", cfg.Env))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case err := <-serveErr:
		return err
	case <-ctx.Done():
	}

	logr.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}

func redisPinger(client *redis.Client) handler.PingerFunc {
	return func(ctx context.Context) error {
		return client.Ping(ctx).Err()
	}
}
