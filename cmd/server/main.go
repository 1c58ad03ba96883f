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

	collabapp "github.com/shiptrack/backend/internal/application/collab"
	"github.com/shiptrack/backend/internal/application/reconcile"
	trackingapp "github.com/shiptrack/backend/internal/application/tracking"
	"github.com/shiptrack/backend/internal/domain/collab"
	"github.com/shiptrack/backend/internal/infrastructure/config"
	"github.com/shiptrack/backend/internal/infrastructure/event"
	"github.com/shiptrack/backend/internal/infrastructure/logger"
	"github.com/shiptrack/backend/internal/infrastructure/persistence"
	"github.com/shiptrack/backend/internal/infrastructure/platform"
	"github.com/shiptrack/backend/internal/infrastructure/transport"
	"github.com/shiptrack/backend/internal/interfaces/http/handler"
	"github.com/shiptrack/backend/internal/interfaces/http/middleware"
	"github.com/shiptrack/backend/internal/interfaces/http/router"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	// Initialize logger
	log := logger.New(cfg.Log)
	defer func() {
		_ = log.Sync()
	}()

	log.Info("Starting ShipTrack Backend",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.App.Port),
	)

	// Initialize database connection with zap-backed SQL logging
	gormLogLevel := logger.MapGormLogLevel(cfg.Log.Level)
	db, err := persistence.NewDatabaseWithLogger(&cfg.Database, log, gormLogLevel)
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Error("Error closing database", zap.Error(err))
		}
	}()
	log.Info("Database connected successfully",
		zap.String("driver", cfg.Database.Driver))

	// Grid transport: redis fans events out across instances; a single
	// process without redis falls back to the in-process loopback.
	var gridTransport collab.Transport
	if redisTransport, err := transport.NewRedisTransport(cfg.Redis, log); err != nil {
		log.Warn("Redis unreachable, grid events stay process-local",
			zap.String("addr", cfg.Redis.Addr()),
			zap.Error(err))
		gridTransport = transport.NewLoopbackTransport()
	} else {
		log.Info("Redis transport connected", zap.String("addr", cfg.Redis.Addr()))
		gridTransport = redisTransport
	}
	defer func() {
		if err := gridTransport.Close(); err != nil {
			log.Error("Error closing grid transport", zap.Error(err))
		}
	}()

	// Initialize repositories
	recordRepo := persistence.NewGormRecordRepository(db.DB)
	partRepo := persistence.NewGormPartRepository(db.DB)
	aliasRepo := persistence.NewGormAliasRepository(db.DB)
	ledgerRepo := persistence.NewGormLedgerRepository(db.DB)
	// Grid sessions hear about every authoritative row write through the
	// notifying decorator, so reconcile runs and commits show up live.
	lineRepo := persistence.NewNotifyingLineRepository(
		persistence.NewGormLineRepository(db.DB), gridTransport, log)

	// Initialize event bus
	eventBus := event.NewInMemoryEventBus(log)
	if err := eventBus.Start(context.Background()); err != nil {
		log.Fatal("Failed to start event bus", zap.Error(err))
	}
	defer func() {
		if err := eventBus.Stop(context.Background()); err != nil {
			log.Error("Error stopping event bus", zap.Error(err))
		}
	}()

	// Initialize application services
	trackingService := trackingapp.NewTrackingService(recordRepo, trackingapp.NewUndoRegistry())
	trackingService.SetEventPublisher(eventBus)

	reconcileService := reconcile.NewService(lineRepo, recordRepo, partRepo, aliasRepo, ledgerRepo, log)
	reconcileService.SetEventPublisher(eventBus)

	gridService := collabapp.NewGridService(lineRepo, gridTransport,
		cfg.Sync.WriteDebounce, cfg.Sync.PresenceTTL, log)

	rootCtx, rootCancel := context.WithCancel(context.Background())
	defer rootCancel()
	gridSupervisor := collabapp.NewSupervisor(rootCtx, gridService, log)
	defer gridSupervisor.Stop()

	// Initialize handlers
	trackingHandler := handler.NewTrackingHandler(trackingService)
	reconcileHandler := handler.NewReconcileHandler(reconcileService,
		platform.NewCSVParser(log), cfg.Import.DefaultChannel)
	gridHandler := handler.NewGridHandler(gridService, gridSupervisor,
		cfg.Sync.HeartbeatInterval, log)
	systemHandler := handler.NewSystemHandler(db)

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

	// Middleware stack: request ID first so recovery and logging carry it.
	engine.Use(middleware.RequestID())
	engine.Use(logger.Recovery(log))
	engine.Use(logger.GinMiddleware(log))
	engine.Use(middleware.Secure())

	corsConfig := middleware.CORSConfig{
		AllowOrigins:     cfg.HTTP.CORSAllowOrigins,
		AllowMethods:     cfg.HTTP.CORSAllowMethods,
		AllowHeaders:     cfg.HTTP.CORSAllowHeaders,
		ExposeHeaders:    []string{"X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	engine.Use(middleware.CORSWithConfig(corsConfig))
	engine.Use(middleware.BodyLimit(cfg.HTTP.MaxBodySize))

	// Health check endpoint (outside API versioning)
	engine.GET("/health", func(c *gin.Context) {
		systemHandler.Health(c)
	})

	// Setup API routes
	r := router.NewRouter(engine, router.WithAPIVersion("v1"))

	// Shipment record lifecycle: scan, verify, edit, delete, undo.
	recordRoutes := router.NewDomainGroup("records", "/records")
	recordRoutes.Use(middleware.StoreID())
	recordRoutes.POST("/scan", trackingHandler.Scan)
	recordRoutes.POST("/scan/bulk", trackingHandler.BulkScan)
	recordRoutes.POST("/verify", trackingHandler.Verify)
	recordRoutes.POST("/verify/bulk", trackingHandler.BulkVerify)
	recordRoutes.POST("/undo", trackingHandler.Undo)
	recordRoutes.GET("", trackingHandler.List)
	recordRoutes.GET("/:id", trackingHandler.Get)
	recordRoutes.PATCH("/:id", trackingHandler.Edit)
	recordRoutes.DELETE("/:id", trackingHandler.Delete)

	// Reconciliation: import, readiness refresh, outbound commit. The
	// import endpoint gets its own, larger body ceiling.
	reconcileRoutes := router.NewDomainGroup("reconcile", "/reconcile")
	reconcileRoutes.Use(middleware.StoreID())
	reconcileRoutes.POST("/import", middleware.BodyLimit(cfg.Import.MaxUploadBytes), reconcileHandler.Import)
	reconcileRoutes.POST("/refresh", reconcileHandler.Refresh)
	reconcileRoutes.POST("/commit", reconcileHandler.Commit)

	// Collaborative grid: session join, live edits, presence, stream.
	gridRoutes := router.NewDomainGroup("grid", "/grid")
	gridRoutes.POST("/session", gridHandler.Join)
	storeScoped := gridRoutes.Group("store", "")
	storeScoped.Use(middleware.StoreID())
	storeScoped.POST("/cells", gridHandler.EditCell)
	storeScoped.POST("/rows", gridHandler.InsertRow)
	storeScoped.DELETE("/rows/:id", gridHandler.DeleteRow)
	storeScoped.POST("/flush", gridHandler.Flush)
	storeScoped.POST("/presence", gridHandler.Announce)
	storeScoped.GET("/presence", gridHandler.Presence)
	storeScoped.GET("/stream", gridHandler.Stream)

	systemRoutes := router.NewDomainGroup("system", "/system")
	systemRoutes.GET("/info", systemHandler.GetSystemInfo)
	systemRoutes.GET("/health", systemHandler.Health)
	systemRoutes.GET("/ping", systemHandler.Ping)

	r.Register(recordRoutes).
		Register(reconcileRoutes).
		Register(gridRoutes).
		Register(systemRoutes)
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

	// Push any edits still sitting in the debounce window to storage.
	if err := gridService.Flush(ctx); err != nil {
		log.Error("Failed to flush pending grid writes", zap.Error(err))
	}

	log.Info("Server exited gracefully")
}
