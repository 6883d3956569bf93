package files

import (
	"context"

	"zyboard/internal/domain"
)

// ActivityRecorder is implemented by activity.Service.
type ActivityRecorder interface {
	Record(ctx context.Context, userID int64, action string, metadata map[string]any) error
}

// Notifier is implemented by notification.Service.
type Notifier interface {
	Notify(ctx context.Context, userID int64, message string, typ domain.NotificationType, category string) error
}
