package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/mroshb/jeju_points/internal/app"
	"github.com/mroshb/jeju_points/internal/config"
	"github.com/mroshb/jeju_points/internal/database"
	"github.com/mroshb/jeju_points/internal/handlers"
	"github.com/mroshb/jeju_points/internal/middleware"
	"github.com/mroshb/jeju_points/internal/scheduler"
	"github.com/mroshb/jeju_points/pkg/logger"
)

func main() {
	// Load environment variables
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using system environment")
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger.Init(cfg.LogLevel, cfg.AppEnv)
	defer logger.Sync()

	logger.Info("Starting Jeju points service...", "port", cfg.AppPort, "db_driver", cfg.DBDriver)

	if cfg.AppEnv == "production" {
		if err := cfg.ValidateProductionSecurity(); err != nil {
			logger.Fatal("Production security validation failed", err)
		}
		logger.Info("Production security validation passed")
	}

	db, err := database.Connect(cfg)
	if err != nil {
		logger.Fatal("Failed to connect to database", err)
	}

	if err := database.AutoMigrate(db); err != nil {
		logger.Fatal("Failed to run migrations", err)
	}

	a, err := app.New(cfg, db)
	if err != nil {
		logger.Fatal("Failed to initialize services", err)
	}
	defer a.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Sweep lock: Redis when replicas share the database, otherwise local
	var locker scheduler.Locker = scheduler.NoopLocker{}
	if cfg.RedisAddr != "" {
		rdb, err := scheduler.NewRedisClient(ctx, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
		if err != nil {
			logger.Fatal("Failed to connect to Redis", err)
		}
		defer rdb.Close()
		locker = scheduler.NewRedisLocker(rdb)
		logger.Info("Sweep lock uses Redis", "addr", cfg.RedisAddr)
	}

	sweeper, err := scheduler.New(cfg.SweepCron, a.Boxes, locker, cfg.GetSweepLockTTL(), a.Metrics)
	if err != nil {
		logger.Fatal("Failed to schedule sweep", err)
	}
	sweeper.Start()

	limiter := middleware.NewRateLimiter(cfg.RateLimitPerUser, cfg.GetRateLimitWindow())
	defer limiter.Stop()

	h := handlers.NewHandlerManager(a.Points, a.Boxes, a.Metrics, a.Registry)
	server := &http.Server{
		Addr:              ":" + cfg.AppPort,
		Handler:           h.NewRouter(cfg.JWTSecret, limiter),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		logger.Info("HTTP server listening", "addr", server.Addr, "env", cfg.AppEnv)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("HTTP server failed", err)
		}
	}()

	<-ctx.Done()

	logger.Info("Shutting down gracefully...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("HTTP server shutdown failed", "error", err)
	}
	sweeper.Stop()
	logger.Info("Service stopped")
}
