// Package reststore is the Store backend for a hosted Postgres exposed over
// PostgREST (Supabase). It has no transactions: multi-step operations run
// sequentially and quota updates use compare-and-swap PATCHes.
package reststore

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"sync"
	"time"

	"zyboard/internal/repository"
)

const (
	// Kind is reported by Store.Kind.
	Kind = "rest"

	casRetries = 5
	lockShards = 64
)

type Options struct {
	URL            string
	ServiceRoleKey string
	Timeout        time.Duration
}

type Store struct {
	c      *client
	logger *slog.Logger

	locks *[lockShards]sync.Mutex
}

var _ repository.Store = (*Store)(nil)

func New(opts Options, logger *slog.Logger) *Store {
	return &Store{
		c:      newClient(opts.URL, opts.ServiceRoleKey, opts.Timeout, logger),
		logger: logger.With(slog.String("component", "rest_store")),
		locks:  new([lockShards]sync.Mutex),
	}
}

func (s *Store) Kind() string { return Kind }

func (s *Store) Ping(ctx context.Context) bool {
	var rows []struct {
		ID int64 `json:"id"`
	}
	q := url.Values{"select": {"id"}, "limit": {"1"}}
	return s.c.selectRows(ctx, tableUsers, q, &rows) == nil
}

// WithTx runs fn against the same store. Writes made before a failure stay
// applied and the error matches repository.ErrNoRollback, so callers
// compensate explicitly.
func (s *Store) WithTx(ctx context.Context, fn func(tx repository.Store) error) error {
	if err := fn(s); err != nil {
		s.logger.WarnContext(ctx, "multi-step operation failed without rollback", slog.String("error", err.Error()))
		return fmt.Errorf("%w: %w", repository.ErrNoRollback, err)
	}
	return nil
}

func (s *Store) Close() error {
	s.c.close()
	return nil
}

// userLock serialises this process's quota updates per user. Other
// processes are handled by the compare-and-swap filter.
func (s *Store) userLock(userID int64) *sync.Mutex {
	return &s.locks[uint64(userID)%lockShards]
}

func wrap(op string, err error) error {
	if err == nil {
		return nil
	}
	if isUniqueViolation(err) {
		return repository.Duplicate(op, err)
	}
	var ae *apiError
	if errors.As(err, &ae) && ae.Code == codeNoRows {
		return repository.NotFound(op)
	}
	return repository.Wrap(op, err)
}

func byID(id int64) url.Values {
	return url.Values{"id": {eq(id)}}
}

func byUser(userID int64) url.Values {
	return url.Values{"user_id": {eq(userID)}}
}

// one returns the first row or a not-found error.
func one[T any](op string, rows []T) (T, error) {
	var zero T
	if len(rows) == 0 {
		return zero, repository.NotFound(op)
	}
	return rows[0], nil
}
