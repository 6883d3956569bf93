package gormstore

import (
	"context"
	"errors"
	"time"

	"zyboard/internal/domain"
	"zyboard/internal/repository"
)

func (s *Store) GetUserStats(ctx context.Context, userID int64) (*domain.UserStats, error) {
	user, err := s.FindUserByID(ctx, userID)
	if err != nil {
		return nil, wrap("user stats", err)
	}

	stats := &domain.UserStats{UserID: user.ID, Username: user.Username}

	st, err := s.FindStorageByUserID(ctx, userID)
	switch {
	case err == nil:
		stats.TotalSpace = st.TotalSpace
		stats.UsedSpace = st.UsedSpace
		stats.AvailableSpace = st.Available()
		stats.UsagePercentage = st.UsagePercent()
	case !errors.Is(err, repository.ErrNotFound):
		return nil, wrap("user stats", err)
	}

	var agg struct {
		FileCount int64
		TotalSize int64
	}
	err = s.conn(ctx).Raw(
		`SELECT COUNT(*) AS file_count, COALESCE(SUM(size), 0) AS total_size FROM files WHERE user_id = ?`,
		userID,
	).Scan(&agg).Error
	if err != nil {
		return nil, wrap("user stats", err)
	}
	stats.FileCount = agg.FileCount
	stats.TotalFileSize = agg.TotalSize
	if agg.FileCount > 0 {
		stats.AvgFileSize = float64(agg.TotalSize) / float64(agg.FileCount)
	}

	var last []domain.File
	err = s.conn(ctx).Where("user_id = ?", userID).Order("created_at DESC").Limit(1).Find(&last).Error
	if err != nil {
		return nil, wrap("user stats", err)
	}
	if len(last) == 1 {
		t := last[0].CreatedAt
		stats.LastUpload = &t
	}
	return stats, nil
}

func (s *Store) GetFileTypeStats(ctx context.Context, userID int64) ([]domain.FileTypeStat, error) {
	var rows []struct {
		Type      string
		Count     int64
		TotalSize int64
	}
	err := s.conn(ctx).Raw(`
		SELECT type, COUNT(*) AS count, COALESCE(SUM(size), 0) AS total_size
		FROM files
		WHERE user_id = ?
		GROUP BY type`, userID).
		Scan(&rows).Error
	if err != nil {
		return nil, wrap("file type stats", err)
	}

	out := make([]domain.FileTypeStat, 0, len(rows))
	for _, r := range rows {
		stat := domain.FileTypeStat{Type: r.Type, Count: r.Count, TotalSize: r.TotalSize}
		if r.Count > 0 {
			stat.AvgSize = float64(r.TotalSize) / float64(r.Count)
		}
		out = append(out, stat)
	}
	repository.SortFileTypeStats(out)
	return out, nil
}

// GetRecentActivity buckets in Go; date truncation differs per dialect.
func (s *Store) GetRecentActivity(ctx context.Context, userID int64, days int) ([]domain.ActivityDay, error) {
	if days <= 0 {
		days = repository.DefaultRecentActivityDays
	}
	since := time.Now().AddDate(0, 0, -days)

	var stamps []time.Time
	err := s.conn(ctx).Model(&domain.Activity{}).
		Where("user_id = ? AND created_at >= ?", userID, since).
		Pluck("created_at", &stamps).Error
	if err != nil {
		return nil, wrap("recent activity", err)
	}
	return repository.BucketByDay(stamps), nil
}

func (s *Store) CleanupOldNotifications(ctx context.Context, olderThan time.Time) (int64, error) {
	res := s.conn(ctx).Where("is_read = ? AND created_at < ?", true, olderThan).Delete(&domain.Notification{})
	if res.Error != nil {
		return 0, wrap("cleanup notifications", res.Error)
	}
	return res.RowsAffected, nil
}

func (s *Store) CleanupOldActivities(ctx context.Context, olderThan time.Time) (int64, error) {
	res := s.conn(ctx).Where("created_at < ?", olderThan).Delete(&domain.Activity{})
	if res.Error != nil {
		return 0, wrap("cleanup activities", res.Error)
	}
	return res.RowsAffected, nil
}
