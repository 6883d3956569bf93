package activity

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"gorm.io/datatypes"

	"zyboard/internal/domain"
	"zyboard/internal/repository"
)

const (
	DefaultLimit = repository.DefaultActivityLimit
	MaxLimit     = 100
	DefaultDays  = repository.DefaultRecentActivityDays
	MaxDays      = 365
)

type Service struct {
	store  repository.Store
	logger *slog.Logger
}

func NewService(store repository.Store, log *slog.Logger) *Service {
	return &Service{store: store, logger: log.With(slog.String("component", "activity"))}
}

// Record appends an activity entry. metadata may be nil.
func (s *Service) Record(ctx context.Context, userID int64, action string, metadata map[string]any) error {
	a := &domain.Activity{UserID: userID, Action: action}
	if len(metadata) > 0 {
		raw, err := json.Marshal(metadata)
		if err != nil {
			return fmt.Errorf("encode activity metadata: %w", err)
		}
		a.Metadata = datatypes.JSON(raw)
	}
	if _, err := s.store.InsertActivity(ctx, a); err != nil {
		return err
	}
	s.logger.DebugContext(ctx, "activity recorded", slog.Int64("user_id", userID), slog.String("action", action))
	return nil
}

// List returns the newest activities first. limit is clamped to [1, MaxLimit].
func (s *Service) List(ctx context.Context, userID int64, limit int) ([]domain.Activity, error) {
	return s.store.FindActivitiesByUserID(ctx, userID, clamp(limit, DefaultLimit, MaxLimit))
}

// Recent counts activities per day over the last days days.
func (s *Service) Recent(ctx context.Context, userID int64, days int) ([]domain.ActivityDay, error) {
	return s.store.GetRecentActivity(ctx, userID, clamp(days, DefaultDays, MaxDays))
}

func clamp(v, def, max int) int {
	if v <= 0 {
		return def
	}
	if v > max {
		return max
	}
	return v
}
