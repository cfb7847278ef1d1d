package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/thetz25/LendingManagement/pkg/assist"
	"github.com/thetz25/LendingManagement/pkg/auth"
	"github.com/thetz25/LendingManagement/pkg/config"
	"github.com/thetz25/LendingManagement/pkg/logging"
	"github.com/thetz25/LendingManagement/pkg/store"
)

func main() {
	logging.Setup()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}

	sqliteStore, err := store.NewSQLiteStore(cfg.DatabasePath)
	if err != nil {
		slog.Error("Failed to initialize SQLite store", "error", err)
		os.Exit(1)
	}
	defer sqliteStore.Close()

	var cache assist.Cache
	if cfg.RedisAddr != "" {
		cache = assist.NewRedisCache(cfg.RedisAddr)
		slog.Info("Assistant cache backed by Redis", "addr", cfg.RedisAddr)
	} else {
		cache = assist.NewMemoryCache()
		slog.Info("Assistant cache in memory")
	}
	assistant := assist.NewClient(cfg.OpenAIKey, cache)

	authMgr, err := auth.NewManager(cfg.AdminUser, cfg.AdminPassword, cfg.JWTSecret, cfg.TokenExpiry)
	if err != nil {
		slog.Error("Failed to initialize auth", "error", err)
		os.Exit(1)
	}

	server := NewServer(sqliteStore, assistant, authMgr)

	rateLimiter := NewRateLimiter(60, time.Minute)
	defer rateLimiter.Stop()

	handler := loggingMiddleware(rateLimitMiddleware(rateLimiter, server.router()))

	// Every morning, build the day's worklist so the overnight state shows
	// up in the logs before collectors head out.
	scheduler := cron.New()
	if _, err := scheduler.AddFunc("0 6 * * *", func() {
		items, err := server.ledger.CollectionWorklist(time.Now())
		if err != nil {
			slog.Error("Daily worklist refresh failed", "error", err)
			return
		}
		unpaid := 0
		for _, item := range items {
			if !item.FullyPaid {
				unpaid++
			}
		}
		slog.Info("Daily collection worklist", "due", len(items), "unpaid", unpaid)
	}); err != nil {
		slog.Error("Failed to schedule daily worklist job", "error", err)
		os.Exit(1)
	}
	scheduler.Start()
	defer scheduler.Stop()

	httpServer := &http.Server{
		Addr:         cfg.Addr,
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	serverErr := make(chan error, 1)
	go func() {
		slog.Info("Server starting", "addr", cfg.Addr)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErr <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-serverErr:
		slog.Error("Server failed", "error", err)
		return
	case <-quit:
		slog.Info("Shutting down server...")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := httpServer.Shutdown(ctx); err != nil {
		slog.Error("Error during server shutdown", "error", err)
	}

	slog.Info("Server exited")
}
