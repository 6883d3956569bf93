package reststore

import (
	"context"
	"net/url"
	"time"

	"zyboard/internal/domain"
)

func (s *Store) findUser(ctx context.Context, op string, q url.Values) (*domain.User, error) {
	q.Set("limit", "1")
	var rows []userRow
	if err := s.c.selectRows(ctx, tableUsers, q, &rows); err != nil {
		return nil, wrap(op, err)
	}
	row, err := one(op, rows)
	if err != nil {
		return nil, err
	}
	u := row.toDomain()
	return &u, nil
}

func (s *Store) FindUserByEmail(ctx context.Context, email string) (*domain.User, error) {
	return s.findUser(ctx, "find user by email", url.Values{"email": {eq(email)}})
}

func (s *Store) FindUserByUsername(ctx context.Context, username string) (*domain.User, error) {
	return s.findUser(ctx, "find user by username", url.Values{"username": {eq(username)}})
}

func (s *Store) FindUserByID(ctx context.Context, id int64) (*domain.User, error) {
	return s.findUser(ctx, "find user by id", byID(id))
}

func (s *Store) InsertUser(ctx context.Context, u *domain.User) (int64, error) {
	now := time.Now()
	row := userRow{
		Username:  u.Username,
		Email:     u.Email,
		Password:  u.PasswordHash,
		CreatedAt: stamp(u.CreatedAt),
		UpdatedAt: now,
	}
	var out []userRow
	if err := s.c.insertRow(ctx, tableUsers, row, &out); err != nil {
		return 0, wrap("insert user", err)
	}
	created, err := one("insert user", out)
	if err != nil {
		return 0, err
	}
	u.ID = created.ID
	u.CreatedAt = created.CreatedAt
	u.UpdatedAt = created.UpdatedAt
	return u.ID, nil
}
