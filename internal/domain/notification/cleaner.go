package notification

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"zyboard/internal/repository"
)

type CleanerConfig struct {
	Interval              time.Duration
	NotificationRetention time.Duration
	ActivityRetention     time.Duration
}

type CleanupResult struct {
	Notifications int64
	Activities    int64
}

// Cleaner deletes read notifications and activities that are past their
// retention.
type Cleaner struct {
	store  repository.Store
	cfg    CleanerConfig
	logger *slog.Logger
	now    func() time.Time
}

func NewCleaner(store repository.Store, cfg CleanerConfig, log *slog.Logger) *Cleaner {
	return &Cleaner{
		store:  store,
		cfg:    cfg,
		logger: log.With(slog.String("component", "cleaner")),
		now:    time.Now,
	}
}

// RunOnce runs both cleanups. A failure of one does not skip the other.
// A zero retention disables that cleanup.
func (c *Cleaner) RunOnce(ctx context.Context) (CleanupResult, error) {
	start := c.now()
	var res CleanupResult
	var errs []error

	if c.cfg.NotificationRetention > 0 {
		n, err := c.store.CleanupOldNotifications(ctx, start.Add(-c.cfg.NotificationRetention))
		if err != nil {
			errs = append(errs, err)
			c.logger.ErrorContext(ctx, "notification cleanup failed", slog.String("error", err.Error()))
		}
		res.Notifications = n
	}
	if c.cfg.ActivityRetention > 0 {
		n, err := c.store.CleanupOldActivities(ctx, start.Add(-c.cfg.ActivityRetention))
		if err != nil {
			errs = append(errs, err)
			c.logger.ErrorContext(ctx, "activity cleanup failed", slog.String("error", err.Error()))
		}
		res.Activities = n
	}

	c.logger.InfoContext(ctx, "cleanup completed",
		slog.Int64("notifications_deleted", res.Notifications),
		slog.Int64("activities_deleted", res.Activities),
		slog.Duration("duration", time.Since(start)),
	)
	return res, errors.Join(errs...)
}

// Start runs the cleanup immediately and then every Interval until ctx is
// done. The returned channel is closed when the loop has exited.
func (c *Cleaner) Start(ctx context.Context) <-chan struct{} {
	done := make(chan struct{})
	go func() {
		defer close(done)
		ticker := time.NewTicker(c.cfg.Interval)
		defer ticker.Stop()

		c.logger.Info("scheduled cleanup started", slog.Duration("interval", c.cfg.Interval))
		_, _ = c.RunOnce(ctx)
		for {
			select {
			case <-ticker.C:
				_, _ = c.RunOnce(ctx)
			case <-ctx.Done():
				c.logger.Info("scheduled cleanup stopped")
				return
			}
		}
	}()
	return done
}
