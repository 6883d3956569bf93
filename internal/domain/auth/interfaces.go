package auth

import (
	"context"

	"zyboard/internal/domain"
)

// TokenIssuer is implemented by jwt.Service.
type TokenIssuer interface {
	GenerateToken(userID int64, username string) (string, error)
}

type ActivityRecorder interface {
	Record(ctx context.Context, userID int64, action string, metadata map[string]any) error
}

type Notifier interface {
	Notify(ctx context.Context, userID int64, message string, typ domain.NotificationType, category string) error
}
