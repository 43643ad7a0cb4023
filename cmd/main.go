package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"trackmonitor/internal/cache"
	"trackmonitor/internal/config"
	"trackmonitor/internal/handlers"
	"trackmonitor/internal/hub"
	"trackmonitor/internal/logger"
	"trackmonitor/internal/repository"
	"trackmonitor/internal/server"
	"trackmonitor/internal/service"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logger.Get(logger.InfoLevel).Fatalw("error reading config", "err", err)
	}
	log := logger.Get(cfg.LogLevel)

	// open DB
	db, err := repository.InitDB(cfg.DBPath)
	if err != nil {
		log.Fatalw("failed to init sqlite", "err", err)
	}
	defer func() {
		if cerr := db.Close(); cerr != nil {
			log.Errorw("failed to close sqlite", "err", cerr)
		}
	}()

	// context for background goroutines
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// broadcast hub + heartbeat loop
	broadcastHub := hub.New(log.Named("hub"), cfg.HeartbeatInterval)
	go broadcastHub.Run(ctx)

	// wire dependencies
	repos := repository.NewRepository(db)
	services := service.NewService(service.Deps{
		Repos:       repos,
		Hub:         broadcastHub,
		Cache:       openCache(cfg, log),
		Log:         log,
		Evaluator:   service.NewEvaluator(cfg.Thresholds),
		Health:      service.NewHealthAggregator(cfg.HealthWindow),
		TrackLength: cfg.TrackLengthM,
	})
	apiHandler := handlers.NewHandler(services, broadcastHub, log)

	// periodic system_status broadcasts
	go services.Status.Run(ctx, cfg.StatusInterval)

	// synthetic sensor feed (demo aid)
	if cfg.Simulator.Enabled {
		go services.Simulator.Run(ctx, cfg.Simulator.Tick)
	}

	// start HTTP server
	srv := &server.Server{}
	go func() {
		if err := srv.Run(cfg.Port, apiHandler.InitRoutes()); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalw("error starting server", "err", err)
		}
	}()
	log.Infow("track monitor started", "port", cfg.Port, "simulator", cfg.Simulator.Enabled)

	waitForShutdown(cancel, srv, log)
}

// openCache connects the latest-reading cache when configured. A cache
// failure is not fatal: the service degrades to repository reads.
func openCache(cfg config.Config, log *logger.Logger) service.ReadingCache {
	if cfg.RedisAddr == "" {
		return nil
	}
	c, err := cache.NewReadingCache(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB, cfg.RedisTTL)
	if err != nil {
		log.Warnw("redis unavailable; running without reading cache", "addr", cfg.RedisAddr, "err", err)
		return nil
	}
	log.Infow("connected to redis", "addr", cfg.RedisAddr)
	return c
}

// waitForShutdown listens for termination signals and performs graceful shutdown.
func waitForShutdown(cancel context.CancelFunc, srv *server.Server, log *logger.Logger) {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Infow("shutting down server...")

	// stop background goroutines; observers receive a close frame
	cancel()

	// allow in-flight requests to complete
	ctx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatalw("server forced to shutdown", "err", err)
	}
}
