package reststore

import (
	"context"
	"fmt"
	"net/url"
	"time"

	"zyboard/internal/domain"
	"zyboard/internal/repository"
)

func (s *Store) FindStorageByUserID(ctx context.Context, userID int64) (*domain.StorageAllocation, error) {
	q := byUser(userID)
	q.Set("limit", "1")
	var rows []storageRow
	if err := s.c.selectRows(ctx, tableStorage, q, &rows); err != nil {
		return nil, wrap("find storage", err)
	}
	row, err := one("find storage", rows)
	if err != nil {
		return nil, err
	}
	st := row.toDomain()
	return &st, nil
}

func (s *Store) InsertStorage(ctx context.Context, userID, total, used int64) (int64, error) {
	if used < 0 || used > total {
		return 0, repository.Wrap("insert storage", fmt.Errorf("used %d out of range [0, %d]", used, total))
	}
	now := time.Now()
	row := storageRow{UserID: userID, TotalSpace: total, UsedSpace: used, CreatedAt: now, UpdatedAt: now}
	var out []storageRow
	if err := s.c.insertRow(ctx, tableStorage, row, &out); err != nil {
		return 0, wrap("insert storage", err)
	}
	created, err := one("insert storage", out)
	if err != nil {
		return 0, err
	}
	return created.ID, nil
}

func (s *Store) UpdateStorageUsed(ctx context.Context, userID, used int64) (int64, error) {
	if used < 0 {
		return 0, repository.Wrap("update storage", fmt.Errorf("negative used space %d", used))
	}
	q := byUser(userID)
	q.Set("total_space", gte(used))
	n, err := s.c.updateRows(ctx, tableStorage, q, map[string]any{
		"used_space": used,
		"updated_at": time.Now(),
	})
	if err != nil {
		return 0, wrap("update storage", err)
	}
	return n, nil
}

func (s *Store) IncrementStorageUsed(ctx context.Context, userID, by int64) (int64, error) {
	if by < 0 {
		return 0, repository.Wrap("increment storage", fmt.Errorf("negative increment %d", by))
	}
	return s.swapUsed(ctx, "increment storage", userID, func(st *domain.StorageAllocation) (int64, bool) {
		next := st.UsedSpace + by
		return next, next <= st.TotalSpace
	})
}

func (s *Store) DecrementStorageUsed(ctx context.Context, userID, by int64) (int64, error) {
	if by < 0 {
		return 0, repository.Wrap("decrement storage", fmt.Errorf("negative decrement %d", by))
	}
	return s.swapUsed(ctx, "decrement storage", userID, func(st *domain.StorageAllocation) (int64, bool) {
		return max(st.UsedSpace-by, 0), true
	})
}

// swapUsed reads the allocation, computes the next used value and writes it
// only if used_space is unchanged since the read. A lost race is retried.
func (s *Store) swapUsed(ctx context.Context, op string, userID int64, next func(*domain.StorageAllocation) (int64, bool)) (int64, error) {
	mu := s.userLock(userID)
	mu.Lock()
	defer mu.Unlock()

	for attempt := 0; attempt < casRetries; attempt++ {
		st, err := s.FindStorageByUserID(ctx, userID)
		if repository.IsNotFound(err) {
			return 0, nil
		}
		if err != nil {
			return 0, repository.Wrap(op, err)
		}

		used, ok := next(st)
		if !ok {
			return 0, nil
		}

		q := url.Values{
			"user_id":    {eq(userID)},
			"used_space": {eq(st.UsedSpace)},
		}
		n, err := s.c.updateRows(ctx, tableStorage, q, map[string]any{
			"used_space": used,
			"updated_at": time.Now(),
		})
		if err != nil {
			return 0, wrap(op, err)
		}
		if n > 0 {
			return n, nil
		}
		s.logger.DebugContext(ctx, "quota swap lost a race, retrying", "user_id", userID, "attempt", attempt+1)
	}
	return 0, repository.Wrap(op, repository.ErrConflict)
}
