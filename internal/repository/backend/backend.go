// Package backend opens the repository.Store selected by configuration.
package backend

import (
	"context"
	"fmt"
	"log/slog"

	"zyboard/internal/config"
	"zyboard/internal/database"
	"zyboard/internal/repository"
	"zyboard/internal/repository/gormstore"
	"zyboard/internal/repository/reststore"
)

// Open connects the configured backend. Relational backends are migrated
// before being returned.
func Open(ctx context.Context, cfg *config.Config, log *slog.Logger) (repository.Store, error) {
	switch cfg.DB.Type {
	case config.DBRest:
		s := reststore.New(reststore.Options{
			URL:            cfg.Supabase.URL,
			ServiceRoleKey: cfg.Supabase.ServiceRoleKey,
			Timeout:        cfg.Supabase.Timeout,
		}, log)
		if !s.Ping(ctx) {
			log.Warn("rest backend not reachable at startup", slog.String("url", cfg.Supabase.URL))
		}
		return s, nil

	case config.DBSQLite, config.DBPostgres, config.DBMySQL:
		db, err := database.Connect(database.Options{
			Dialect:         cfg.DB.Type,
			DSN:             cfg.DB.URL,
			MaxOpenConns:    cfg.DB.MaxOpenConns,
			MaxIdleConns:    cfg.DB.MaxIdleConns,
			ConnMaxLifetime: cfg.DB.ConnMaxLifetime,
			Silent:          cfg.IsProdLike(),
		}, log)
		if err != nil {
			return nil, fmt.Errorf("connect %s: %w", cfg.DB.Type, err)
		}
		if err := database.Migrate(db); err != nil {
			return nil, fmt.Errorf("migrate %s: %w", cfg.DB.Type, err)
		}
		return gormstore.New(db, cfg.DB.Type), nil
	}
	return nil, fmt.Errorf("unsupported database type %q", cfg.DB.Type)
}
