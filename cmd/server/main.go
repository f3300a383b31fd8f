package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	appsync "github.com/fulfillhub/backend/internal/application/sync"
	syncdomain "github.com/fulfillhub/backend/internal/domain/sync"
	"github.com/fulfillhub/backend/internal/infrastructure/cache"
	"github.com/fulfillhub/backend/internal/infrastructure/config"
	"github.com/fulfillhub/backend/internal/infrastructure/logger"
	"github.com/fulfillhub/backend/internal/infrastructure/persistence"
	"github.com/fulfillhub/backend/internal/infrastructure/wms"
	"github.com/fulfillhub/backend/internal/interfaces/http/handler"
	"github.com/fulfillhub/backend/internal/interfaces/http/middleware"
	"github.com/fulfillhub/backend/internal/interfaces/http/router"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	// Initialize logger
	log, err := logger.New(&logger.Config{
		Level:      cfg.Log.Level,
		Format:     cfg.Log.Format,
		Output:     cfg.Log.Output,
		TimeFormat: "2006-01-02T15:04:05.000Z07:00",
	})
	if err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}
	defer func() {
		_ = logger.Sync(log)
	}()

	log.Info("Starting FulfillHub Backend",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.App.Port),
	)

	// Create GORM logger backed by zap
	gormLogLevel := logger.MapGormLogLevel(cfg.Log.Level)
	gormLog := logger.NewGormLogger(log, gormLogLevel)

	// Initialize database connection with custom logger
	db, err := persistence.NewDatabaseWithCustomLogger(&cfg.Database, gormLog)
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Error("Error closing database", zap.Error(err))
		}
	}()
	log.Info("Database connected successfully")

	// Initialize repositories
	tenantRepo := persistence.NewGormTenantRepository(db.DB)
	orderRepo := persistence.NewGormOrderRepository(db.DB)
	productRepo := persistence.NewGormProductRepository(db.DB)
	inventoryRepo := persistence.NewGormInventoryRepository(db.DB)
	statusRepo := persistence.NewGormSyncStatusRepository(db.DB)
	credentialStore := persistence.NewGormCredentialStore(db.DB)

	// External system adapters
	shipheroCfg := wms.DefaultShipHeroConfig()
	shipheroCfg.BaseURL = cfg.ShipHero.BaseURL
	shipheroCfg.TimeoutSeconds = cfg.ShipHero.TimeoutSeconds
	shipheroCfg.PageSize = cfg.ShipHero.PageSize
	shiphero, err := wms.NewShipHeroAdapter(shipheroCfg)
	if err != nil {
		log.Fatal("Failed to build ShipHero adapter", zap.Error(err))
	}

	trackstarCfg := wms.DefaultTrackstarConfig()
	trackstarCfg.BaseURL = cfg.Trackstar.BaseURL
	trackstarCfg.TimeoutSeconds = cfg.Trackstar.TimeoutSeconds
	trackstarCfg.PageSize = cfg.Trackstar.PageSize
	trackstar, err := wms.NewTrackstarAdapter(trackstarCfg)
	if err != nil {
		log.Fatal("Failed to build Trackstar adapter", zap.Error(err))
	}

	clients := wms.NewRegistry(shiphero, trackstar)

	// Application services
	reconciler := appsync.NewReconciler(orderRepo, productRepo, inventoryRepo, log)
	tracker := appsync.NewStatusTracker(statusRepo, log)

	scheduler, err := appsync.NewSessionScheduler(
		appsync.SchedulerConfig{
			DefaultBudget: cfg.Sync.DefaultBudget,
			SyncInterval:  cfg.Sync.SyncInterval,
			CheckInterval: cfg.Sync.CheckInterval,
		},
		syncdomain.DefaultCatalog(),
		credentialStore,
		clients,
		reconciler,
		tracker,
		tenantRepo,
		log,
	)
	if err != nil {
		log.Fatal("Failed to build session scheduler", zap.Error(err))
	}

	// Webhook idempotency store: Redis with in-memory fallback
	idempotencyFactory := cache.NewIdempotencyStoreFactory(cfg.Redis, cache.WithLogger(log))
	idempotencyStore, err := idempotencyFactory.CreateStore()
	if err != nil {
		log.Fatal("Failed to create idempotency store", zap.Error(err))
	}

	webhookProcessor := appsync.NewWebhookProcessor(
		appsync.WebhookConfig{
			Secret:         cfg.Webhook.Secret,
			IdempotencyTTL: cfg.Webhook.IdempotencyTTL,
		},
		tenantRepo,
		reconciler,
		tracker,
		idempotencyStore,
		log,
	)

	// Background scheduler loop (manual triggers work either way)
	if cfg.Sync.SchedulerEnabled {
		if err := scheduler.Start(context.Background()); err != nil {
			log.Fatal("Failed to start session scheduler", zap.Error(err))
		}
		defer func() {
			if err := scheduler.Stop(context.Background()); err != nil {
				log.Error("Error stopping session scheduler", zap.Error(err))
			}
		}()
		log.Info("Session scheduler started",
			zap.Int("default_budget", cfg.Sync.DefaultBudget),
			zap.Duration("sync_interval", cfg.Sync.SyncInterval),
		)
	}

	// Set Gin mode based on environment
	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	middleware.SetupValidator()

	engine := gin.New()

	// Configure trusted proxies
	if len(cfg.HTTP.TrustedProxies) > 0 {
		if err := engine.SetTrustedProxies(cfg.HTTP.TrustedProxies); err != nil {
			log.Warn("Failed to set trusted proxies", zap.Error(err))
		}
	}

	engine.Use(middleware.RequestID())
	engine.Use(logger.Recovery(log))
	engine.Use(logger.GinMiddleware(log))
	engine.Use(middleware.Secure())

	// Configure CORS from config
	corsConfig := middleware.CORSConfig{
		AllowOrigins:     cfg.HTTP.CORSAllowOrigins,
		AllowMethods:     cfg.HTTP.CORSAllowMethods,
		AllowHeaders:     cfg.HTTP.CORSAllowHeaders,
		ExposeHeaders:    []string{"X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	engine.Use(middleware.CORSWithConfig(corsConfig))

	// Body size limit
	engine.Use(middleware.BodyLimit(cfg.HTTP.MaxBodySize))

	// API routes
	r := router.NewRouter(engine, router.WithAPIVersion("v1"))
	r.Register(handler.NewSyncHandler(scheduler, statusRepo, log)).
		Register(handler.NewIntegrationHandler(credentialStore, tenantRepo, log)).
		Register(handler.NewWebhookHandler(webhookProcessor, log)).
		Register(handler.NewSystemHandler(db))
	r.Setup()

	// Create HTTP server with config
	srv := &http.Server{
		Addr:           ":" + cfg.App.Port,
		Handler:        engine,
		ReadTimeout:    cfg.HTTP.ReadTimeout,
		WriteTimeout:   cfg.HTTP.WriteTimeout,
		IdleTimeout:    cfg.HTTP.IdleTimeout,
		MaxHeaderBytes: cfg.HTTP.MaxHeaderBytes,
	}

	// Start server in goroutine
	go func() {
		log.Info("Server starting", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal("Server forced to shutdown", zap.Error(err))
	}

	log.Info("Server exited gracefully")
}
