package gormstore

import (
	"context"

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
	if err := s.conn(ctx).Create(n).Error; err != nil {
		return 0, wrap("insert notification", err)
	}
	return n.ID, nil
}

func (s *Store) FindNotificationsByUserID(ctx context.Context, userID int64, q repository.NotificationQuery) ([]domain.Notification, error) {
	limit := q.Limit
	if limit <= 0 {
		limit = repository.DefaultNotificationLimit
	}
	offset := q.Offset
	if offset < 0 {
		offset = 0
	}

	query := s.conn(ctx).Where("user_id = ?", userID)
	if q.UnreadOnly {
		query = query.Where("is_read = ?", false)
	}

	list := make([]domain.Notification, 0)
	err := query.
		Order("created_at DESC, id DESC").
		Limit(limit).
		Offset(offset).
		Find(&list).Error
	if err != nil {
		return nil, wrap("find notifications", err)
	}
	return list, nil
}

func (s *Store) MarkNotificationAsRead(ctx context.Context, id, userID int64) (int64, error) {
	res := s.conn(ctx).Model(&domain.Notification{}).
		Where("id = ? AND user_id = ?", id, userID).
		Update("is_read", true)
	if res.Error != nil {
		return 0, wrap("mark notification read", res.Error)
	}
	return res.RowsAffected, nil
}

func (s *Store) MarkAllNotificationsAsRead(ctx context.Context, userID int64) (int64, error) {
	res := s.conn(ctx).Model(&domain.Notification{}).
		Where("user_id = ? AND is_read = ?", userID, false).
		Update("is_read", true)
	if res.Error != nil {
		return 0, wrap("mark all notifications read", res.Error)
	}
	return res.RowsAffected, nil
}

func (s *Store) DeleteNotification(ctx context.Context, id, userID int64) (int64, error) {
	res := s.conn(ctx).Where("id = ? AND user_id = ?", id, userID).Delete(&domain.Notification{})
	if res.Error != nil {
		return 0, wrap("delete notification", res.Error)
	}
	return res.RowsAffected, nil
}

func (s *Store) DeleteNotifications(ctx context.Context, ids []int64, userID int64) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	res := s.conn(ctx).Where("user_id = ? AND id IN ?", userID, ids).Delete(&domain.Notification{})
	if res.Error != nil {
		return 0, wrap("delete notifications", res.Error)
	}
	return res.RowsAffected, nil
}

func (s *Store) DeleteAllNotifications(ctx context.Context, userID int64) (int64, error) {
	res := s.conn(ctx).Where("user_id = ?", userID).Delete(&domain.Notification{})
	if res.Error != nil {
		return 0, wrap("delete all notifications", res.Error)
	}
	return res.RowsAffected, nil
}

func (s *Store) CountUnreadNotifications(ctx context.Context, userID int64) (int64, error) {
	var n int64
	err := s.conn(ctx).Model(&domain.Notification{}).
		Where("user_id = ? AND is_read = ?", userID, false).
		Count(&n).Error
	if err != nil {
		return 0, wrap("count unread notifications", err)
	}
	return n, nil
}
