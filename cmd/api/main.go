package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/agrifleet/agrifleet-backend/internal/api"
	"github.com/agrifleet/agrifleet-backend/internal/api/handlers"
	"github.com/agrifleet/agrifleet-backend/internal/auth"
	"github.com/agrifleet/agrifleet-backend/internal/blob"
	"github.com/agrifleet/agrifleet-backend/internal/cache"
	"github.com/agrifleet/agrifleet-backend/internal/config"
	"github.com/agrifleet/agrifleet-backend/internal/db"
	"github.com/agrifleet/agrifleet-backend/internal/logger"
	"github.com/agrifleet/agrifleet-backend/internal/metrics"
	"github.com/agrifleet/agrifleet-backend/internal/middleware"
	"github.com/agrifleet/agrifleet-backend/internal/repository/postgres"
	"github.com/agrifleet/agrifleet-backend/internal/services"
	"github.com/agrifleet/agrifleet-backend/internal/worker"
)

func main() {
	cfg := config.Load()
	log := logger.New(cfg.Env)
	slog.SetDefault(log)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pool, err := db.NewPool(ctx, cfg.DatabaseURL, cfg.DBMaxConns)
	if err != nil {
		log.Error("db connect", "err", err)
		os.Exit(1)
	}
	defer pool.Close()

	if os.Getenv("APP_MIGRATE") == "true" {
		if err := db.RunMigrations(ctx, pool); err != nil {
			log.Error("migrations", "err", err)
			os.Exit(1)
		}
	}

	localCache, err := cache.NewStore(cfg.CachePath)
	if err != nil {
		log.Error("cache open", "err", err)
		os.Exit(1)
	}
	defer localCache.Close()

	blobs, err := blob.NewFSStore(cfg.UploadDir, cfg.PublicBaseURL)
	if err != nil {
		log.Error("blob store", "err", err)
		os.Exit(1)
	}

	repos := postgres.NewRepositories(pool)
	wp := worker.NewPool(4)
	defer wp.Stop()

	tm := auth.NewTokenManager(cfg.JWTSecret, cfg.JWTIssuer, 15*time.Minute, 7*24*time.Hour)
	userSvc := services.NewUserService(repos.Users, tm)
	listingSvc := services.NewListingService(repos.Listings, localCache, wp)
	financeSvc := services.NewFinanceService(repos.FinanceRecords)
	marketSvc := services.NewMarketService(repos.MarketPrices)

	metrics.Init()
	r := api.NewRouter(api.RouterDeps{
		Cfg:      cfg,
		Auth:     handlers.NewAuthHandler(userSvc),
		AuthMW:   middleware.NewAuthMiddleware(tm),
		Listings: listingSvc,
		Finance:  financeSvc,
		Market:   marketSvc,
		Blobs:    blobs,
	})

	// periodic cache expiry sweep
	go func() {
		t := time.NewTicker(30 * time.Minute)
		defer t.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-t.C:
				if _, err := listingSvc.SweepExpired(); err != nil {
					log.Warn("cache sweep", "err", err)
				}
			}
		}
	}()

	srv := &http.Server{
		Addr:              ":" + cfg.HTTPPort,
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		log.Info("server starting", "port", cfg.HTTPPort)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("server", "err", err)
		}
	}()

	<-ctx.Done()
	log.Info("shutting down...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = srv.Shutdown(shutdownCtx)
}
