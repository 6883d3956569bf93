// Package repository defines the persistence boundary of the API. Business
// code depends on Store only; the relational and REST document-store backends
// live in the gormstore and reststore subpackages.
//
// Conventions shared by every implementation:
//   - inserts set the new ID on the passed entity and return it;
//   - updates and deletes return the affected-row count, 0 meaning the target
//     does not exist (or, for guarded updates, that the guard rejected it);
//   - single-row finders return an error wrapping ErrNotFound;
//   - every failure is an *Error; Ping never fails.
package repository

import (
	"context"
	"time"

	"zyboard/internal/domain"
)

const (
	DefaultNotificationLimit = 50
	DefaultActivityLimit     = 20
)

type NotificationQuery struct {
	UnreadOnly bool
	Limit      int
	Offset     int
}

type UserStore interface {
	FindUserByEmail(ctx context.Context, email string) (*domain.User, error)
	FindUserByUsername(ctx context.Context, username string) (*domain.User, error)
	FindUserByID(ctx context.Context, id int64) (*domain.User, error)
	InsertUser(ctx context.Context, u *domain.User) (int64, error)
}

type FileStore interface {
	InsertFile(ctx context.Context, f *domain.File) (int64, error)
	FindFilesByUserID(ctx context.Context, userID int64) ([]domain.File, error)
	FindFileByID(ctx context.Context, id, userID int64) (*domain.File, error)
	FindFileByFilename(ctx context.Context, filename string, userID int64) (*domain.File, error)
	DeleteFile(ctx context.Context, id, userID int64) (int64, error)
}

type QuotaStore interface {
	FindStorageByUserID(ctx context.Context, userID int64) (*domain.StorageAllocation, error)
	InsertStorage(ctx context.Context, userID, total, used int64) (int64, error)
	// UpdateStorageUsed sets used space; rejected (0) when used > total.
	UpdateStorageUsed(ctx context.Context, userID, used int64) (int64, error)
	// IncrementStorageUsed applies only when used+by <= total.
	IncrementStorageUsed(ctx context.Context, userID, by int64) (int64, error)
	// DecrementStorageUsed floors used space at zero.
	DecrementStorageUsed(ctx context.Context, userID, by int64) (int64, error)
}

type ActivityStore interface {
	InsertActivity(ctx context.Context, a *domain.Activity) (int64, error)
	FindActivitiesByUserID(ctx context.Context, userID int64, limit int) ([]domain.Activity, error)
}

type NotificationStore interface {
	InsertNotification(ctx context.Context, n *domain.Notification) (int64, error)
	FindNotificationsByUserID(ctx context.Context, userID int64, q NotificationQuery) ([]domain.Notification, error)
	MarkNotificationAsRead(ctx context.Context, id, userID int64) (int64, error)
	MarkAllNotificationsAsRead(ctx context.Context, userID int64) (int64, error)
	DeleteNotification(ctx context.Context, id, userID int64) (int64, error)
	DeleteNotifications(ctx context.Context, ids []int64, userID int64) (int64, error)
	DeleteAllNotifications(ctx context.Context, userID int64) (int64, error)
	CountUnreadNotifications(ctx context.Context, userID int64) (int64, error)
}

type TeamStore interface {
	InsertTeam(ctx context.Context, t *domain.Team) (int64, error)
	FindTeamByID(ctx context.Context, id int64) (*domain.Team, error)
	FindTeamsByUserID(ctx context.Context, userID int64) ([]domain.TeamSummary, error)
	FindTeamsCreatedBy(ctx context.Context, userID int64) ([]domain.Team, error)
	InsertTeamMember(ctx context.Context, m *domain.TeamMember) (int64, error)
	FindTeamMember(ctx context.Context, teamID, userID int64) (*domain.TeamMember, error)
	FindTeamMembersByUserID(ctx context.Context, userID int64) ([]domain.TeamMemberView, error)
	CheckTeamAdmin(ctx context.Context, teamID, userID int64) (bool, error)
	CheckTeamOwner(ctx context.Context, teamID, userID int64) (bool, error)
	// DeleteTeam removes the memberships first, then the team.
	DeleteTeam(ctx context.Context, teamID int64) (int64, error)
	RemoveTeamMember(ctx context.Context, teamID, userID int64) (int64, error)
}

type StatsStore interface {
	GetUserStats(ctx context.Context, userID int64) (*domain.UserStats, error)
	GetFileTypeStats(ctx context.Context, userID int64) ([]domain.FileTypeStat, error)
	GetRecentActivity(ctx context.Context, userID int64, days int) ([]domain.ActivityDay, error)
}

type MaintenanceStore interface {
	// CleanupOldNotifications deletes read notifications created before olderThan.
	CleanupOldNotifications(ctx context.Context, olderThan time.Time) (int64, error)
	CleanupOldActivities(ctx context.Context, olderThan time.Time) (int64, error)
}

type Store interface {
	UserStore
	FileStore
	QuotaStore
	ActivityStore
	NotificationStore
	TeamStore
	StatsStore
	MaintenanceStore

	// Kind names the backend, e.g. "sqlite" or "rest".
	Kind() string
	Ping(ctx context.Context) bool
	// WithTx runs fn against a transactional view of the store. Backends
	// without transactions run fn sequentially and wrap its error with
	// ErrNoRollback.
	WithTx(ctx context.Context, fn func(tx Store) error) error
	Close() error
}
