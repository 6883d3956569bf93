package gormstore

import (
	"context"

	"gorm.io/datatypes"

	"zyboard/internal/domain"
	"zyboard/internal/repository"
)

// jsonNull is stored instead of SQL NULL so the column always scans.
var jsonNull = datatypes.JSON("null")

func (s *Store) InsertActivity(ctx context.Context, a *domain.Activity) (int64, error) {
	row := *a
	if len(row.Metadata) == 0 {
		row.Metadata = jsonNull
	}
	if err := s.conn(ctx).Create(&row).Error; err != nil {
		return 0, wrap("insert activity", err)
	}
	a.ID, a.CreatedAt = row.ID, row.CreatedAt
	return a.ID, nil
}

func (s *Store) FindActivitiesByUserID(ctx context.Context, userID int64, limit int) ([]domain.Activity, error) {
	if limit <= 0 {
		limit = repository.DefaultActivityLimit
	}
	activities := make([]domain.Activity, 0)
	err := s.conn(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC, id DESC").
		Limit(limit).
		Find(&activities).Error
	if err != nil {
		return nil, wrap("find activities", err)
	}
	for i := range activities {
		if string(activities[i].Metadata) == "null" {
			activities[i].Metadata = nil
		}
	}
	return activities, nil
}
