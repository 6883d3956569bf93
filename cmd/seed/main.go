// Command seed creates the schema and a demo account with a team.
package main

import (
	"context"
	"errors"
	"log/slog"
	"os"

	"zyboard/internal/config"
	"zyboard/internal/domain"
	"zyboard/internal/domain/activity"
	"zyboard/internal/domain/auth"
	"zyboard/internal/domain/notification"
	"zyboard/internal/domain/team"
	"zyboard/internal/logger"
	"zyboard/internal/pkg/jwt"
	"zyboard/internal/repository/backend"
)

const (
	demoUsername = "demo"
	demoEmail    = "demo@zyboard.local"
	demoTeam     = "Demo team"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("invalid configuration", slog.String("error", err.Error()))
		os.Exit(1)
	}
	log := logger.Init(true, "")

	if err := run(context.Background(), cfg, log); err != nil {
		log.Error("seed failed", slog.String("error", err.Error()))
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, log *slog.Logger) error {
	// backend.Open migrates relational backends.
	store, err := backend.Open(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer store.Close()

	password := os.Getenv("SEED_DEMO_PASSWORD")
	if password == "" {
		password = "demo123"
	}

	activities := activity.NewService(store, log)
	notifications := notification.NewService(store, nil, log)
	authService := auth.NewService(store, jwt.New(cfg.JWTSecret, cfg.JWTTTL), activities, notifications, cfg.DefaultQuota, log)
	teams := team.NewService(store, activities, notifications, log)

	res, err := authService.Register(ctx, auth.RegisterRequest{
		Username: demoUsername,
		Email:    demoEmail,
		Password: password,
	})
	switch {
	case errors.Is(err, auth.ErrUserExists):
		log.Info("demo account already present", slog.String("email", demoEmail))
		return nil
	case err != nil:
		return err
	}
	log.Info("demo account created", slog.String("email", demoEmail), slog.Int64("user_id", res.User.ID))

	t, err := teams.Create(ctx, res.User.ID, demoTeam, "Created by the seed command")
	if err != nil {
		return err
	}
	log.Info("demo team created", slog.Int64("team_id", t.ID))

	return notifications.Notify(ctx, res.User.ID, "Your storage is ready. Upload a file to get started.",
		domain.NotificationInfo, domain.CategoryGeneral)
}

