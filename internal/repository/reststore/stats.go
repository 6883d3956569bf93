package reststore

import (
	"context"
	"net/url"
	"time"

	"zyboard/internal/domain"
	"zyboard/internal/repository"
)

// Aggregates are computed client-side; PostgREST aggregate functions are
// disabled by default on Supabase.

func (s *Store) GetUserStats(ctx context.Context, userID int64) (*domain.UserStats, error) {
	const op = "user stats"
	user, err := s.FindUserByID(ctx, userID)
	if err != nil {
		return nil, wrap(op, err)
	}
	stats := &domain.UserStats{UserID: user.ID, Username: user.Username}

	st, err := s.FindStorageByUserID(ctx, userID)
	switch {
	case err == nil:
		stats.TotalSpace = st.TotalSpace
		stats.UsedSpace = st.UsedSpace
		stats.AvailableSpace = st.Available()
		stats.UsagePercentage = st.UsagePercent()
	case !repository.IsNotFound(err):
		return nil, wrap(op, err)
	}

	files, err := s.fileFacts(ctx, userID)
	if err != nil {
		return nil, wrap(op, err)
	}
	for _, f := range files {
		stats.FileCount++
		stats.TotalFileSize += f.Size
		if stats.LastUpload == nil || f.CreatedAt.After(*stats.LastUpload) {
			t := f.CreatedAt
			stats.LastUpload = &t
		}
	}
	if stats.FileCount > 0 {
		stats.AvgFileSize = float64(stats.TotalFileSize) / float64(stats.FileCount)
	}
	return stats, nil
}

func (s *Store) GetFileTypeStats(ctx context.Context, userID int64) ([]domain.FileTypeStat, error) {
	files, err := s.fileFacts(ctx, userID)
	if err != nil {
		return nil, wrap("file type stats", err)
	}
	byType := make(map[string]*domain.FileTypeStat)
	for _, f := range files {
		stat, ok := byType[f.Type]
		if !ok {
			stat = &domain.FileTypeStat{Type: f.Type}
			byType[f.Type] = stat
		}
		stat.Count++
		stat.TotalSize += f.Size
	}
	out := make([]domain.FileTypeStat, 0, len(byType))
	for _, stat := range byType {
		stat.AvgSize = float64(stat.TotalSize) / float64(stat.Count)
		out = append(out, *stat)
	}
	repository.SortFileTypeStats(out)
	return out, nil
}

func (s *Store) GetRecentActivity(ctx context.Context, userID int64, days int) ([]domain.ActivityDay, error) {
	if days <= 0 {
		days = repository.DefaultRecentActivityDays
	}
	q := url.Values{
		"user_id":    {eq(userID)},
		"created_at": {gte(time.Now().AddDate(0, 0, -days))},
		"select":     {"created_at"},
	}
	var rows []activityRow
	if err := s.c.selectRows(ctx, tableActivities, q, &rows); err != nil {
		return nil, wrap("recent activity", err)
	}
	stamps := make([]time.Time, 0, len(rows))
	for _, r := range rows {
		stamps = append(stamps, r.CreatedAt)
	}
	return repository.BucketByDay(stamps), nil
}

func (s *Store) CleanupOldNotifications(ctx context.Context, olderThan time.Time) (int64, error) {
	q := url.Values{"is_read": {eq(true)}, "created_at": {lt(olderThan)}}
	n, err := s.c.deleteRows(ctx, tableNotifications, q)
	if err != nil {
		return 0, wrap("cleanup notifications", err)
	}
	return n, nil
}

func (s *Store) CleanupOldActivities(ctx context.Context, olderThan time.Time) (int64, error) {
	n, err := s.c.deleteRows(ctx, tableActivities, url.Values{"created_at": {lt(olderThan)}})
	if err != nil {
		return 0, wrap("cleanup activities", err)
	}
	return n, nil
}

func (s *Store) fileFacts(ctx context.Context, userID int64) ([]fileRow, error) {
	q := byUser(userID)
	q.Set("select", "size,type,created_at")
	var rows []fileRow
	if err := s.c.selectRows(ctx, tableFiles, q, &rows); err != nil {
		return nil, err
	}
	return rows, nil
}
