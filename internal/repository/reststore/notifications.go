package reststore

import (
	"context"
	"net/url"
	"strconv"

	"zyboard/internal/domain"
	"zyboard/internal/repository"
)

func (s *Store) InsertNotification(ctx context.Context, n *domain.Notification) (int64, error) {
	if n.Type == "" {
		n.Type = domain.NotificationInfo
	}
	if n.Category == "" {
		n.Category = domain.CategoryGeneral
	}
	row := notificationRow{
		UserID:    n.UserID,
		Message:   n.Message,
		Type:      n.Type,
		Category:  n.Category,
		IsRead:    n.IsRead,
		CreatedAt: stamp(n.CreatedAt),
	}
	var out []notificationRow
	if err := s.c.insertRow(ctx, tableNotifications, row, &out); err != nil {
		return 0, wrap("insert notification", err)
	}
	created, err := one("insert notification", out)
	if err != nil {
		return 0, err
	}
	n.ID = created.ID
	n.CreatedAt = created.CreatedAt
	return n.ID, nil
}

func (s *Store) FindNotificationsByUserID(ctx context.Context, userID int64, query repository.NotificationQuery) ([]domain.Notification, error) {
	limit := query.Limit
	if limit <= 0 {
		limit = repository.DefaultNotificationLimit
	}
	q := byUser(userID)
	if query.UnreadOnly {
		q.Set("is_read", eq(false))
	}
	q.Set("order", "created_at.desc,id.desc")
	q.Set("limit", strconv.Itoa(limit))
	if query.Offset > 0 {
		q.Set("offset", strconv.Itoa(query.Offset))
	}

	var rows []notificationRow
	if err := s.c.selectRows(ctx, tableNotifications, q, &rows); err != nil {
		return nil, wrap("find notifications", err)
	}
	out := make([]domain.Notification, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.toDomain())
	}
	return out, nil
}

func (s *Store) MarkNotificationAsRead(ctx context.Context, id, userID int64) (int64, error) {
	q := byID(id)
	q.Set("user_id", eq(userID))
	n, err := s.c.updateRows(ctx, tableNotifications, q, map[string]any{"is_read": true})
	if err != nil {
		return 0, wrap("mark notification read", err)
	}
	return n, nil
}

func (s *Store) MarkAllNotificationsAsRead(ctx context.Context, userID int64) (int64, error) {
	q := byUser(userID)
	q.Set("is_read", eq(false))
	n, err := s.c.updateRows(ctx, tableNotifications, q, map[string]any{"is_read": true})
	if err != nil {
		return 0, wrap("mark all notifications read", err)
	}
	return n, nil
}

func (s *Store) DeleteNotification(ctx context.Context, id, userID int64) (int64, error) {
	q := byID(id)
	q.Set("user_id", eq(userID))
	n, err := s.c.deleteRows(ctx, tableNotifications, q)
	if err != nil {
		return 0, wrap("delete notification", err)
	}
	return n, nil
}

func (s *Store) DeleteNotifications(ctx context.Context, ids []int64, userID int64) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	q := url.Values{"id": {in(ids)}, "user_id": {eq(userID)}}
	n, err := s.c.deleteRows(ctx, tableNotifications, q)
	if err != nil {
		return 0, wrap("delete notifications", err)
	}
	return n, nil
}

func (s *Store) DeleteAllNotifications(ctx context.Context, userID int64) (int64, error) {
	n, err := s.c.deleteRows(ctx, tableNotifications, byUser(userID))
	if err != nil {
		return 0, wrap("delete all notifications", err)
	}
	return n, nil
}

func (s *Store) CountUnreadNotifications(ctx context.Context, userID int64) (int64, error) {
	q := byUser(userID)
	q.Set("is_read", eq(false))
	n, err := s.c.count(ctx, tableNotifications, q)
	if err != nil {
		return 0, wrap("count unread notifications", err)
	}
	return n, nil
}
