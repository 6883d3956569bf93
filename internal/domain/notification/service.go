package notification

import (
	"context"
	"log/slog"
	"strings"

	"zyboard/internal/domain"
	"zyboard/internal/repository"
)

const (
	DefaultLimit = repository.DefaultNotificationLimit
	MaxLimit     = 100
)

type Service struct {
	store  repository.Store
	hub    *Hub
	logger *slog.Logger
}

// NewService returns the notification service. hub may be nil, in which case
// nothing is pushed live.
func NewService(store repository.Store, hub *Hub, log *slog.Logger) *Service {
	return &Service{
		store:  store,
		hub:    hub,
		logger: log.With(slog.String("component", "notification")),
	}
}

type ListResult struct {
	Items       []domain.Notification `json:"notifications"`
	UnreadCount int64                 `json:"unreadCount"`
	Limit       int                   `json:"limit"`
	Offset      int                   `json:"offset"`
}

// Notify stores a notification and pushes it to the user's live connections.
// An unknown type falls back to info and an empty category to general.
func (s *Service) Notify(ctx context.Context, userID int64, message string, typ domain.NotificationType, category string) error {
	message = strings.TrimSpace(message)
	if message == "" {
		return ErrEmptyMessage
	}
	if !typ.Valid() {
		typ = domain.NotificationInfo
	}
	if category == "" {
		category = domain.CategoryGeneral
	}

	n := &domain.Notification{
		UserID:   userID,
		Message:  message,
		Type:     typ,
		Category: category,
	}
	if _, err := s.store.InsertNotification(ctx, n); err != nil {
		return err
	}

	if s.hub != nil {
		s.hub.Publish(userID, &Event{Type: EventNotification, Payload: n})
	}
	return nil
}

func (s *Service) List(ctx context.Context, userID int64, unreadOnly bool, limit, offset int) (*ListResult, error) {
	if offset < 0 {
		return nil, ErrInvalidOffset
	}
	if limit <= 0 {
		limit = DefaultLimit
	}
	if limit > MaxLimit {
		limit = MaxLimit
	}

	items, err := s.store.FindNotificationsByUserID(ctx, userID, repository.NotificationQuery{
		UnreadOnly: unreadOnly,
		Limit:      limit,
		Offset:     offset,
	})
	if err != nil {
		return nil, err
	}
	unread, err := s.store.CountUnreadNotifications(ctx, userID)
	if err != nil {
		return nil, err
	}

	return &ListResult{Items: items, UnreadCount: unread, Limit: limit, Offset: offset}, nil
}

func (s *Service) UnreadCount(ctx context.Context, userID int64) (int64, error) {
	return s.store.CountUnreadNotifications(ctx, userID)
}

func (s *Service) MarkAsRead(ctx context.Context, userID, id int64) error {
	n, err := s.store.MarkNotificationAsRead(ctx, id, userID)
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotificationNotFound
	}
	s.pushUnread(ctx, userID)
	return nil
}

// MarkAllAsRead is idempotent and returns how many notifications changed.
func (s *Service) MarkAllAsRead(ctx context.Context, userID int64) (int64, error) {
	n, err := s.store.MarkAllNotificationsAsRead(ctx, userID)
	if err != nil {
		return 0, err
	}
	s.pushUnread(ctx, userID)
	return n, nil
}

func (s *Service) Delete(ctx context.Context, userID, id int64) error {
	n, err := s.store.DeleteNotification(ctx, id, userID)
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotificationNotFound
	}
	s.pushUnread(ctx, userID)
	return nil
}

// DeleteMany deletes the user's notifications among ids. Ids of other users
// are ignored.
func (s *Service) DeleteMany(ctx context.Context, userID int64, ids []int64) (int64, error) {
	clean := make([]int64, 0, len(ids))
	seen := make(map[int64]bool, len(ids))
	for _, id := range ids {
		if id > 0 && !seen[id] {
			seen[id] = true
			clean = append(clean, id)
		}
	}
	if len(clean) == 0 {
		return 0, ErrNoIDs
	}

	n, err := s.store.DeleteNotifications(ctx, clean, userID)
	if err != nil {
		return 0, err
	}
	s.pushUnread(ctx, userID)
	return n, nil
}

func (s *Service) DeleteAll(ctx context.Context, userID int64) (int64, error) {
	n, err := s.store.DeleteAllNotifications(ctx, userID)
	if err != nil {
		return 0, err
	}
	s.pushUnread(ctx, userID)
	return n, nil
}

// pushUnread sends the new unread count to connected clients.
func (s *Service) pushUnread(ctx context.Context, userID int64) {
	if s.hub == nil || s.hub.Connected(userID) == 0 {
		return
	}
	count, err := s.store.CountUnreadNotifications(ctx, userID)
	if err != nil {
		s.logger.WarnContext(ctx, "count unread for push failed", slog.Int64("user_id", userID), slog.String("error", err.Error()))
		return
	}
	s.hub.Publish(userID, &Event{Type: EventUnreadCount, Payload: map[string]int64{"count": count}})
}
