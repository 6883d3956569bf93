// Package profile serves the signed-in user's own account and usage data.
package profile

import (
	"context"
	"errors"

	"zyboard/internal/domain"
	"zyboard/internal/domain/auth"
	"zyboard/internal/repository"
)

var ErrUserNotFound = errors.New("user not found")

// UserSource is implemented by auth.Service.
type UserSource interface {
	Profile(ctx context.Context, userID int64) (*domain.User, error)
}

type Service struct {
	users UserSource
	stats repository.StatsStore
}

func NewService(users UserSource, stats repository.StatsStore) *Service {
	return &Service{users: users, stats: stats}
}

func (s *Service) Profile(ctx context.Context, userID int64) (domain.PublicUser, error) {
	u, err := s.users.Profile(ctx, userID)
	if err != nil {
		if errors.Is(err, auth.ErrUserNotFound) {
			return domain.PublicUser{}, ErrUserNotFound
		}
		return domain.PublicUser{}, err
	}
	return u.Public(), nil
}

func (s *Service) Stats(ctx context.Context, userID int64) (*domain.UserStats, error) {
	st, err := s.stats.GetUserStats(ctx, userID)
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return st, nil
}
