package team

import (
	"context"

	"zyboard/internal/domain"
)

type ActivityRecorder interface {
	Record(ctx context.Context, userID int64, action string, metadata map[string]any) error
}

type Notifier interface {
	Notify(ctx context.Context, userID int64, message string, typ domain.NotificationType, category string) error
}
