package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	appreceivable "github.com/finvera/receivables/internal/application/receivable"
	"github.com/finvera/receivables/internal/infrastructure/cache"
	"github.com/finvera/receivables/internal/infrastructure/config"
	"github.com/finvera/receivables/internal/infrastructure/directory"
	"github.com/finvera/receivables/internal/infrastructure/logger"
	"github.com/finvera/receivables/internal/infrastructure/notify"
	"github.com/finvera/receivables/internal/infrastructure/persistence"
	"github.com/finvera/receivables/internal/infrastructure/scheduler"
	"github.com/finvera/receivables/internal/interfaces/http/handler"
	"github.com/finvera/receivables/internal/interfaces/http/middleware"
	"github.com/finvera/receivables/internal/interfaces/http/router"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	// Initialize logger
	log, err := logger.New(cfg.Log)
	if err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}
	defer func() {
		_ = log.Sync()
	}()

	log.Info("Starting receivables service",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.App.Port),
	)

	// Initialize database connection with a zap-backed GORM logger
	gormLog := logger.NewGormLogger(log, logger.MapGormLogLevel(cfg.Log.Level))
	db, err := persistence.NewDatabase(&cfg.Database, gormLog)
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Error("Error closing database", zap.Error(err))
		}
	}()
	log.Info("Database connected successfully")

	// Aggregate cache. Redis is preferred; an in-process store keeps the
	// service usable when Redis is unreachable at startup.
	var aggregateCache appreceivable.AggregateCache
	redisStore, err := cache.NewRedisAggregateStore(cfg.Redis)
	if err != nil {
		log.Warn("Redis unavailable, using in-memory aggregate cache", zap.Error(err))
		aggregateCache = cache.NewInMemoryAggregateStore(cfg.Redis.CacheTTL)
	} else {
		aggregateCache = redisStore
		defer func() {
			if err := redisStore.Close(); err != nil {
				log.Error("Error closing Redis client", zap.Error(err))
			}
		}()
		log.Info("Redis connected successfully")
	}

	// Settlement notifications ride the Redis stream when available
	var notifier appreceivable.SettlementNotifier = notify.NoopNotifier{}
	if cfg.Notify.Enabled && redisStore != nil {
		notifier = notify.NewRedisStreamNotifier(redisStore.Client(), cfg.Notify.Stream, log)
		log.Info("Settlement notifications enabled", zap.String("stream", cfg.Notify.Stream))
	}

	// Repositories and application services
	receivableRepo := persistence.NewGormReceivableRepository(db.DB)
	userDirectory := directory.NewHTTPUserDirectory(cfg.Directory, log)

	receivableService := appreceivable.NewReceivableService(receivableRepo, log)
	settlementService := appreceivable.NewSettlementService(receivableRepo, userDirectory, notifier, log)
	totalsService := appreceivable.NewTotalsService(receivableRepo, aggregateCache, log)

	// Periodic totals refresh
	refresher := scheduler.NewTotalsRefresher(totalsService, cfg.Refresher.Interval, log)
	if cfg.Refresher.Enabled {
		refresher.Start(context.Background())
		defer refresher.Stop()
		log.Info("Totals refresher started", zap.Duration("interval", cfg.Refresher.Interval))
	}

	// HTTP handlers
	receivableHandler := handler.NewReceivableHandler(receivableService, settlementService, totalsService, refresher)
	healthHandler := handler.NewHealthHandler(db)

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	engine := gin.New()
	engine.Use(middleware.RequestID())
	engine.Use(logger.Recovery(log))
	engine.Use(logger.GinMiddleware(log))
	engine.Use(middleware.CORS(cfg.HTTP.CORSAllowOrigins))
	engine.Use(middleware.Metrics())

	// Operational endpoints live outside API versioning
	healthHandler.RegisterRoutes(&engine.RouterGroup)
	engine.GET("/metrics", middleware.MetricsHandler())

	r := router.NewRouter(engine, router.WithAPIVersion("v1"))
	r.Register(receivableHandler)
	r.Setup()

	srv := &http.Server{
		Addr:           ":" + cfg.App.Port,
		Handler:        engine,
		ReadTimeout:    cfg.HTTP.ReadTimeout,
		WriteTimeout:   cfg.HTTP.WriteTimeout,
		IdleTimeout:    cfg.HTTP.IdleTimeout,
		MaxHeaderBytes: cfg.HTTP.MaxHeaderBytes,
	}

	go func() {
		log.Info("HTTP server listening", zap.String("addr", srv.Addr))
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
