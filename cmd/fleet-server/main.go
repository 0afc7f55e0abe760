package main

import (
	"context"
	"database/sql"
	"fmt"
	"net"
	"net/http"
	"os"
	"time"

	"github.com/go-redis/redis/v8"
	_ "github.com/lib/pq"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/robfig/cron/v3"

	"github.com/truckwise/fleet-server/pkg/api"
	"github.com/truckwise/fleet-server/pkg/auth"
	"github.com/truckwise/fleet-server/pkg/config"
	"github.com/truckwise/fleet-server/pkg/fleet"
	"github.com/truckwise/fleet-server/pkg/identitycache"
	"github.com/truckwise/fleet-server/pkg/middleware"
	"github.com/truckwise/fleet-server/pkg/observability"
	"github.com/truckwise/fleet-server/pkg/settings"
	"github.com/truckwise/fleet-server/pkg/users"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg.LogLevel, os.Stdout)
	logger.Infof("Starting fleet server on %s:%s", cfg.Server.Host, cfg.Server.Port)

	db, err := openDatabase(cfg.Database)
	if err != nil {
		logger.WithError(err).Error("failed to connect to database")
		os.Exit(1)
	}
	defer db.Close()
	logger.Info("Database connection established")

	var redisClient *redis.Client
	if cfg.Redis.Addr != "" {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err := redisClient.Ping(context.Background()).Err(); err != nil {
			// The limiter fails open and health reports degraded, so a Redis
			// outage at boot is not fatal
			logger.WithError(err).Warn("Redis unreachable, login rate limiting degraded")
		} else {
			logger.Infof("Redis connection established at %s", cfg.Redis.Addr)
		}
	} else {
		logger.Warn("FLEET_REDIS_ADDR not set, login rate limiting disabled")
	}

	registry := prometheus.NewRegistry()
	metrics := observability.NewMetrics(registry)

	tokens := auth.NewTokenService([]byte(cfg.Auth.JWTSecret), cfg.Auth.TokenLifetime)
	cache := identitycache.New(cfg.Auth.CacheTTL)

	var limiter *middleware.LoginLimiter
	if redisClient != nil {
		limiter = middleware.NewLoginLimiter(redisClient, cfg.Auth.LoginRateLimit, cfg.Auth.LoginRateWindow, metrics)
	}

	server := api.NewServer(api.Deps{
		Logger:   logger,
		Metrics:  metrics,
		Health:   observability.NewHealthChecker(db, redisClient),
		Registry: registry,
		Tokens:   tokens,
		Cache:    cache,
		Users:    users.NewPostgresStore(db),
		Fleet:    fleet.NewPostgresStore(db),
		Settings: settings.NewService(settings.NewPostgresStore(db), cfg.Auth.CacheTTL),
		Limiter:  limiter,
	})

	scheduler := startScheduler(cfg, logger, metrics, cache, db)

	httpServer := &http.Server{
		Addr:         net.JoinHostPort(cfg.Server.Host, cfg.Server.Port),
		Handler:      server,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	shutdown := observability.NewShutdownManager(logger, httpServer, cfg.Server.ShutdownTimeout)
	shutdown.RegisterShutdownFunc(func(ctx context.Context) error {
		stopped := scheduler.Stop()
		select {
		case <-stopped.Done():
		case <-ctx.Done():
			return ctx.Err()
		}
		return nil
	})
	if redisClient != nil {
		shutdown.RegisterShutdownFunc(func(ctx context.Context) error {
			return redisClient.Close()
		})
	}

	go func() {
		logger.Infof("Listening on %s", httpServer.Addr)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.WithError(err).Error("HTTP server failed")
			os.Exit(1)
		}
	}()

	if err := shutdown.WaitForShutdown(); err != nil {
		logger.WithError(err).Error("Shutdown did not complete cleanly")
		os.Exit(1)
	}
	logger.Info("Shutdown complete")
}

func openDatabase(cfg config.DatabaseConfig) (*sql.DB, error) {
	db, err := sql.Open("postgres", cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.ConnMaxLifetime)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	return db, nil
}

// startScheduler runs the identity cache sweep and database stats sampling
// off the request path
func startScheduler(cfg *config.Config, logger *observability.Logger, metrics *observability.Metrics, cache *identitycache.Cache, db *sql.DB) *cron.Cron {
	scheduler := cron.New()

	sweepSpec := fmt.Sprintf("@every %s", cfg.Auth.CacheSweepInterval)
	if _, err := scheduler.AddFunc(sweepSpec, func() {
		evicted := cache.Sweep()
		metrics.CacheSweepEvictions.Add(float64(evicted))
		metrics.CacheSize.Set(float64(cache.Len()))
		if evicted > 0 {
			logger.WithField("evicted", evicted).Debug("Identity cache sweep complete")
		}
	}); err != nil {
		logger.WithError(err).Error("failed to schedule identity cache sweep")
	}

	if _, err := scheduler.AddFunc("@every 15s", func() {
		metrics.ObserveDBStats(db)
	}); err != nil {
		logger.WithError(err).Error("failed to schedule database stats sampling")
	}

	scheduler.Start()
	return scheduler
}
