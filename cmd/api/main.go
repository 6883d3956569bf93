package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"

	"zyboard/internal/config"
	"zyboard/internal/domain/notification"
	"zyboard/internal/logger"
	"zyboard/internal/metrics"
	"zyboard/internal/objectstore"
	"zyboard/internal/repository/backend"
	"zyboard/internal/server"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("invalid configuration", slog.String("error", err.Error()))
		os.Exit(1)
	}
	log := logger.Init(!cfg.IsProdLike(), cfg.SentryDSN)
	if cfg.IsProdLike() {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	store, err := backend.Open(ctx, cfg, log)
	if err != nil {
		log.Error("open database", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer store.Close()

	objects, err := objectstore.Open(ctx, cfg, log)
	if err != nil {
		log.Error("open object store", slog.String("error", err.Error()))
		os.Exit(1)
	}
	if !objects.CheckConnection(ctx) {
		log.Warn("object store not reachable at startup", slog.String("kind", objects.Kind()))
	}

	hub := notification.NewHub(log)
	defer hub.Close()

	var cleanerDone <-chan struct{}
	if cfg.Cleanup.Enabled {
		cleaner := notification.NewCleaner(store, notification.CleanerConfig{
			Interval:              cfg.Cleanup.Interval,
			NotificationRetention: cfg.Cleanup.NotificationRetention,
			ActivityRetention:     cfg.Cleanup.ActivityRetention,
		}, log)
		cleanerDone = cleaner.Start(ctx)
	}

	engine := server.New(cfg, server.Deps{
		Store:   store,
		Objects: objects,
		Metrics: metrics.New(),
		Hub:     hub,
	}, log)

	log.Info("starting zyboard api",
		slog.String("env", cfg.AppEnv),
		slog.String("database", store.Kind()),
		slog.String("object_store", objects.Kind()),
	)
	if err := server.Run(ctx, cfg.Addr(), engine, log); err != nil {
		log.Error("server stopped with error", slog.String("error", err.Error()))
		stop()
		os.Exit(1)
	}

	stop()
	if cleanerDone != nil {
		<-cleanerDone
	}
}
