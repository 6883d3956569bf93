package auth

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"unicode/utf8"

	"golang.org/x/crypto/bcrypt"

	"zyboard/internal/domain"
	"zyboard/internal/pkg/sideeffect"
	"zyboard/internal/repository"
)

const (
	bcryptCost     = 10
	minPasswordLen = 6
	// bcrypt ignores everything past 72 bytes.
	maxPasswordBytes = 72
)

// dummyHash is compared against for unknown emails so that login takes the
// same time whether or not the account exists.
var dummyHash = sync.OnceValue(func() []byte {
	h, _ := bcrypt.GenerateFromPassword([]byte("zyboard-timing-equaliser"), bcryptCost)
	return h
})

type Service struct {
	store        repository.Store
	tokens       TokenIssuer
	activities   ActivityRecorder
	notifier     Notifier
	defaultQuota int64
	logger       *slog.Logger
}

func NewService(store repository.Store, tokens TokenIssuer, activities ActivityRecorder, notifier Notifier, defaultQuota int64, log *slog.Logger) *Service {
	return &Service{
		store:        store,
		tokens:       tokens,
		activities:   activities,
		notifier:     notifier,
		defaultQuota: defaultQuota,
		logger:       log.With(slog.String("component", "auth")),
	}
}

// Register creates the user together with the default storage allocation.
func (s *Service) Register(ctx context.Context, req RegisterRequest) (*AuthResult, error) {
	username := strings.TrimSpace(req.Username)
	email := strings.TrimSpace(req.Email)
	if username == "" || email == "" || req.Password == "" {
		return nil, ErrMissingFields
	}
	if utf8.RuneCountInString(req.Password) < minPasswordLen {
		return nil, ErrWeakPassword
	}
	if len(req.Password) > maxPasswordBytes {
		return nil, ErrPasswordTooLong
	}

	if exists, err := s.exists(ctx, username, email); err != nil {
		return nil, err
	} else if exists {
		return nil, ErrUserExists
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcryptCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	user := &domain.User{
		Username:     username,
		Email:        email,
		PasswordHash: string(hash),
	}
	err = s.store.WithTx(ctx, func(tx repository.Store) error {
		if _, err := tx.InsertUser(ctx, user); err != nil {
			return err
		}
		_, err := tx.InsertStorage(ctx, user.ID, s.defaultQuota, 0)
		return err
	})
	if err != nil {
		// Lost a race against a concurrent registration.
		if repository.IsDuplicate(err) {
			return nil, ErrUserExists
		}
		return nil, err
	}

	token, err := s.tokens.GenerateToken(user.ID, user.Username)
	if err != nil {
		return nil, fmt.Errorf("generate token: %w", err)
	}

	s.logger.InfoContext(ctx, "user registered", slog.Int64("user_id", user.ID))
	sideeffect.Run(ctx, s.logger, "register_activity", func(ctx context.Context) error {
		return s.activities.Record(ctx, user.ID, "Account created", nil)
	})
	sideeffect.Run(ctx, s.logger, "welcome_notification", func(ctx context.Context) error {
		return s.notifier.Notify(ctx, user.ID,
			fmt.Sprintf("Welcome to ZYBoard, %s!", user.Username),
			domain.NotificationSuccess, domain.CategoryAccount)
	})

	return &AuthResult{Token: token, User: user.Public()}, nil
}

// Login never tells an unknown email apart from a wrong password.
func (s *Service) Login(ctx context.Context, req LoginRequest) (*AuthResult, error) {
	email := strings.TrimSpace(req.Email)
	if email == "" || req.Password == "" {
		return nil, ErrMissingFields
	}

	user, err := s.store.FindUserByEmail(ctx, email)
	if err != nil {
		if !repository.IsNotFound(err) {
			return nil, err
		}
		_ = bcrypt.CompareHashAndPassword(dummyHash(), []byte(req.Password))
		return nil, ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	token, err := s.tokens.GenerateToken(user.ID, user.Username)
	if err != nil {
		return nil, fmt.Errorf("generate token: %w", err)
	}

	sideeffect.Run(ctx, s.logger, "login_activity", func(ctx context.Context) error {
		return s.activities.Record(ctx, user.ID, "Logged in", nil)
	})
	return &AuthResult{Token: token, User: user.Public()}, nil
}

func (s *Service) Profile(ctx context.Context, userID int64) (*domain.User, error) {
	user, err := s.store.FindUserByID(ctx, userID)
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return user, nil
}

func (s *Service) exists(ctx context.Context, username, email string) (bool, error) {
	if _, err := s.store.FindUserByUsername(ctx, username); err == nil {
		return true, nil
	} else if !repository.IsNotFound(err) {
		return false, err
	}
	if _, err := s.store.FindUserByEmail(ctx, email); err == nil {
		return true, nil
	} else if !repository.IsNotFound(err) {
		return false, err
	}
	return false, nil
}
