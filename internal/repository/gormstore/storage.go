package gormstore

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"

	"zyboard/internal/domain"
	"zyboard/internal/repository"
)

func (s *Store) FindStorageByUserID(ctx context.Context, userID int64) (*domain.StorageAllocation, error) {
	var st domain.StorageAllocation
	if err := s.conn(ctx).Where("user_id = ?", userID).First(&st).Error; err != nil {
		return nil, wrap("find storage", err)
	}
	return &st, nil
}

func (s *Store) InsertStorage(ctx context.Context, userID, total, used int64) (int64, error) {
	if used < 0 || used > total {
		return 0, repository.Wrap("insert storage", fmt.Errorf("used %d out of range [0, %d]", used, total))
	}
	st := &domain.StorageAllocation{UserID: userID, TotalSpace: total, UsedSpace: used}
	if err := s.conn(ctx).Create(st).Error; err != nil {
		return 0, wrap("insert storage", err)
	}
	return st.ID, nil
}

func (s *Store) UpdateStorageUsed(ctx context.Context, userID, used int64) (int64, error) {
	if used < 0 {
		return 0, repository.Wrap("update storage", fmt.Errorf("negative used space %d", used))
	}
	res := s.conn(ctx).Model(&domain.StorageAllocation{}).
		Where("user_id = ? AND total_space >= ?", userID, used).
		Updates(map[string]any{"used_space": used, "updated_at": time.Now()})
	if res.Error != nil {
		return 0, wrap("update storage", res.Error)
	}
	return res.RowsAffected, nil
}

// IncrementStorageUsed is a single guarded UPDATE, so concurrent reservations
// for the same user cannot both pass a stale capacity check.
func (s *Store) IncrementStorageUsed(ctx context.Context, userID, by int64) (int64, error) {
	if by < 0 {
		return 0, repository.Wrap("increment storage", fmt.Errorf("negative increment %d", by))
	}
	res := s.conn(ctx).Model(&domain.StorageAllocation{}).
		Where("user_id = ? AND used_space + ? <= total_space", userID, by).
		Updates(map[string]any{
			"used_space": gorm.Expr("used_space + ?", by),
			"updated_at": time.Now(),
		})
	if res.Error != nil {
		return 0, wrap("increment storage", res.Error)
	}
	return res.RowsAffected, nil
}

func (s *Store) DecrementStorageUsed(ctx context.Context, userID, by int64) (int64, error) {
	if by < 0 {
		return 0, repository.Wrap("decrement storage", fmt.Errorf("negative decrement %d", by))
	}
	res := s.conn(ctx).Model(&domain.StorageAllocation{}).
		Where("user_id = ?", userID).
		Updates(map[string]any{
			"used_space": gorm.Expr("CASE WHEN used_space > ? THEN used_space - ? ELSE 0 END", by, by),
			"updated_at": time.Now(),
		})
	if res.Error != nil {
		return 0, wrap("decrement storage", res.Error)
	}
	return res.RowsAffected, nil
}
