package reststore

import (
	"context"
	"strconv"

	"zyboard/internal/domain"
	"zyboard/internal/repository"
)

func (s *Store) InsertActivity(ctx context.Context, a *domain.Activity) (int64, error) {
	row := activityRow{
		UserID:    a.UserID,
		Action:    a.Action,
		Metadata:  a.Metadata,
		CreatedAt: stamp(a.CreatedAt),
	}
	var out []activityRow
	if err := s.c.insertRow(ctx, tableActivities, row, &out); err != nil {
		return 0, wrap("insert activity", err)
	}
	created, err := one("insert activity", out)
	if err != nil {
		return 0, err
	}
	a.ID = created.ID
	a.CreatedAt = created.CreatedAt
	return a.ID, nil
}

func (s *Store) FindActivitiesByUserID(ctx context.Context, userID int64, limit int) ([]domain.Activity, error) {
	if limit <= 0 {
		limit = repository.DefaultActivityLimit
	}
	q := byUser(userID)
	q.Set("order", "created_at.desc,id.desc")
	q.Set("limit", strconv.Itoa(limit))

	var rows []activityRow
	if err := s.c.selectRows(ctx, tableActivities, q, &rows); err != nil {
		return nil, wrap("find activities", err)
	}
	out := make([]domain.Activity, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.toDomain())
	}
	return out, nil
}
