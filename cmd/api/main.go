package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gocomet/bike-sharing/internal/api/handlers"
	"github.com/gocomet/bike-sharing/internal/api/routes"
	"github.com/gocomet/bike-sharing/internal/config"
	"github.com/gocomet/bike-sharing/internal/domain/bike"
	"github.com/gocomet/bike-sharing/internal/domain/member"
	"github.com/gocomet/bike-sharing/internal/domain/ride"
	"github.com/gocomet/bike-sharing/internal/notify"
	"github.com/gocomet/bike-sharing/internal/service/fleet"
	"github.com/gocomet/bike-sharing/internal/service/ledger"
	"github.com/gocomet/bike-sharing/internal/service/lock"
	"github.com/gocomet/bike-sharing/internal/service/membership"
	"github.com/gocomet/bike-sharing/internal/service/pricing"
	"github.com/gocomet/bike-sharing/internal/service/rental"
	"github.com/gocomet/bike-sharing/internal/storage/memory"
	"github.com/gocomet/bike-sharing/internal/storage/postgres"
	"github.com/gocomet/bike-sharing/pkg/cache"
	"github.com/gocomet/bike-sharing/pkg/clock"
	"github.com/gocomet/bike-sharing/pkg/database"
	"github.com/gocomet/bike-sharing/pkg/logger"
	"github.com/gocomet/bike-sharing/pkg/monitoring"
	"github.com/gocomet/bike-sharing/pkg/websocket"
	"github.com/jmoiron/sqlx"
	"github.com/redis/go-redis/v9"
)

const poolStatsInterval = time.Minute

type repositories struct {
	members member.Repository
	bikes   bike.Repository
	rides   ride.Repository
}

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// Initialize logger
	appLogger, err := logger.New(logger.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		Output: cfg.Log.Output,
	})
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}
	defer appLogger.Sync()

	appLogger.Info("Starting bike-sharing service",
		logger.String("env", cfg.Server.Env),
		logger.String("port", cfg.Server.Port),
		logger.String("storage", cfg.Storage.Driver),
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Initialize New Relic
	nrApp, err := monitoring.New(monitoring.Config{
		LicenseKey: cfg.NewRelic.LicenseKey,
		AppName:    cfg.NewRelic.AppName,
		Enabled:    cfg.NewRelic.Enabled,
		LogLevel:   cfg.NewRelic.LogLevel,
	})
	if err != nil {
		appLogger.Warn("Failed to initialize New Relic", logger.Err(err))
		nrApp = monitoring.Disabled()
	} else if nrApp.IsEnabled() {
		appLogger.Info("New Relic APM initialized successfully",
			logger.String("app_name", cfg.NewRelic.AppName))
	} else {
		appLogger.Info("New Relic APM disabled")
	}
	defer nrApp.Shutdown(10 * time.Second)

	// Storage
	var (
		repos repositories
		db    *sqlx.DB
	)
	switch cfg.Storage.Driver {
	case config.StorageMemory:
		repos = repositories{
			members: memory.NewMemberRepo(),
			bikes:   memory.NewBikeRepo(),
			rides:   memory.NewRideRepo(),
		}
		appLogger.Warn("Using in-memory storage, data is lost on restart")
	default:
		db, err = database.NewPostgresDB(ctx, database.Config{
			Host:        cfg.Database.Host,
			Port:        cfg.Database.Port,
			User:        cfg.Database.User,
			Password:    cfg.Database.Password,
			DBName:      cfg.Database.Name,
			SSLMode:     cfg.Database.SSLMode,
			MaxConns:    cfg.Database.MaxConnections,
			MaxIdle:     cfg.Database.MaxIdleConns,
			MaxLifetime: cfg.Database.MaxLifetime,
		})
		if err != nil {
			appLogger.Fatal("Failed to connect to PostgreSQL", logger.Err(err))
		}
		defer db.Close()
		appLogger.Info("Connected to PostgreSQL successfully")

		if cfg.Storage.Migrate {
			if err := database.Migrate(ctx, db); err != nil {
				appLogger.Fatal("Failed to apply schema", logger.Err(err))
			}
			appLogger.Info("Database schema is up to date")
		}
		repos = repositories{
			members: postgres.NewMemberRepo(db),
			bikes:   postgres.NewBikeRepo(db),
			rides:   postgres.NewRideRepo(db),
		}
	}

	// Initialize Redis
	var redisClient *redis.Client
	if cfg.Redis.Enabled {
		redisClient, err = cache.NewRedisClient(ctx, cache.Config{
			Host:        cfg.Redis.Host,
			Port:        cfg.Redis.Port,
			Password:    cfg.Redis.Password,
			DB:          cfg.Redis.DB,
			MaxRetries:  cfg.Redis.MaxRetries,
			PoolSize:    cfg.Redis.PoolSize,
			MinIdleConn: cfg.Redis.MinIdleConn,
			DialTimeout: cfg.Redis.DialTimeout,
			ReadTimeout: cfg.Redis.ReadTimeout,
		})
		if err != nil {
			appLogger.Fatal("Failed to connect to Redis", logger.Err(err))
		}
		defer cache.Close(redisClient)
		appLogger.Info("Connected to Redis successfully")
	}

	// Initialize WebSocket hub
	wsHub := websocket.NewHub(appLogger)
	go wsHub.Run(ctx)

	// Services
	clk := clock.NewSystem()
	locks := lock.NewKeyed()
	pricer := pricing.NewService(pricing.Config{
		UnitPrice: cfg.Pricing.UnitPrice,
		Period:    cfg.Pricing.Period,
	})
	rides := ledger.NewService(repos.rides, pricer, appLogger)
	members := membership.NewService(repos.members, rides, locks, clk, appLogger)
	bikes := fleet.NewService(repos.bikes, rides, locks, appLogger)

	observers := []rental.Observer{notify.NewMetrics(nrApp)}
	if cfg.Features.EnableRealTimeUpdates {
		observers = append(observers, notify.NewLiveUpdates(wsHub, appLogger))
	}
	engine := rental.NewEngine(members, bikes, rides, locks, clk, appLogger, observers...)

	h := &handlers.Handlers{
		Members: members,
		Fleet:   bikes,
		Ledger:  rides,
		Rentals: engine,
		Hub:     wsHub,
		Metrics: nrApp,
		Logger:  appLogger,
		WebSocket: handlers.WebSocketConfig{
			ReadBufferSize:  cfg.WebSocket.ReadBufferSize,
			WriteBufferSize: cfg.WebSocket.WriteBufferSize,
		},
	}
	if cfg.Features.EnableIdempotency && redisClient != nil {
		h.Idempotency = cache.NewIdempotencyStore(redisClient, "rides", cfg.Cache.TTLIdempotency)
	}

	go reportPoolStats(ctx, nrApp, db, redisClient)

	// Initialize Gin router
	if cfg.Server.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(gin.Recovery())

	// Setup all routes
	routes.SetupRoutes(router, h, nrApp.Application)
	appLogger.Info("Routes configured successfully")

	// Create HTTP server
	srv := &http.Server{
		Addr:           fmt.Sprintf("%s:%s", cfg.Server.Host, cfg.Server.Port),
		Handler:        router,
		ReadTimeout:    15 * time.Second,
		WriteTimeout:   15 * time.Second,
		MaxHeaderBytes: 1 << 20,
	}

	// Start server in a goroutine
	go func() {
		appLogger.Info("Server starting", logger.String("address", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			appLogger.Fatal("Failed to start server", logger.Err(err))
		}
	}()

	<-ctx.Done()
	appLogger.Info("Shutting down server...")

	// Graceful shutdown
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		appLogger.Error("Server forced to shutdown", logger.Err(err))
	}

	appLogger.Info("Server stopped gracefully")
}

// reportPoolStats sends connection pool statistics to New Relic until ctx ends
func reportPoolStats(ctx context.Context, nrApp *monitoring.NewRelicApp, db *sqlx.DB, redisClient *redis.Client) {
	if !nrApp.IsEnabled() {
		return
	}
	ticker := time.NewTicker(poolStatsInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if db != nil {
				nrApp.RecordDatabasePoolStats(database.PoolStats(db))
			}
			if redisClient != nil {
				nrApp.RecordRedisPoolStats(cache.GetClientStats(redisClient))
			}
		}
	}
}
