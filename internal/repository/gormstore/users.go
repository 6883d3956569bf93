package gormstore

import (
	"context"

	"zyboard/internal/domain"
)

func (s *Store) FindUserByEmail(ctx context.Context, email string) (*domain.User, error) {
	var u domain.User
	if err := s.conn(ctx).Where("email = ?", email).First(&u).Error; err != nil {
		return nil, wrap("find user by email", err)
	}
	return &u, nil
}

func (s *Store) FindUserByUsername(ctx context.Context, username string) (*domain.User, error) {
	var u domain.User
	if err := s.conn(ctx).Where("username = ?", username).First(&u).Error; err != nil {
		return nil, wrap("find user by username", err)
	}
	return &u, nil
}

func (s *Store) FindUserByID(ctx context.Context, id int64) (*domain.User, error) {
	var u domain.User
	if err := s.conn(ctx).First(&u, id).Error; err != nil {
		return nil, wrap("find user by id", err)
	}
	return &u, nil
}

func (s *Store) InsertUser(ctx context.Context, u *domain.User) (int64, error) {
	if err := s.conn(ctx).Create(u).Error; err != nil {
		return 0, wrap("insert user", err)
	}
	return u.ID, nil
}
