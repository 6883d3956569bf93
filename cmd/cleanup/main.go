// Command cleanup deletes read notifications and activities past their
// retention once and exits.
package main

import (
	"context"
	"log/slog"
	"os"

	"zyboard/internal/config"
	"zyboard/internal/domain/notification"
	"zyboard/internal/logger"
	"zyboard/internal/repository/backend"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("invalid configuration", slog.String("error", err.Error()))
		os.Exit(1)
	}
	log := logger.Init(!cfg.IsProdLike(), cfg.SentryDSN)
	ctx := context.Background()

	store, err := backend.Open(ctx, cfg, log)
	if err != nil {
		log.Error("open database", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer store.Close()

	cleaner := notification.NewCleaner(store, notification.CleanerConfig{
		NotificationRetention: cfg.Cleanup.NotificationRetention,
		ActivityRetention:     cfg.Cleanup.ActivityRetention,
	}, log)
	res, err := cleaner.RunOnce(ctx)
	if err != nil {
		log.Error("cleanup failed", slog.String("error", err.Error()))
		store.Close()
		os.Exit(1)
	}
	log.Info("cleanup finished",
		slog.Int64("notifications", res.Notifications),
		slog.Int64("activities", res.Activities),
	)
}
