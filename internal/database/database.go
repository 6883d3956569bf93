package database

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	mysqldriver "github.com/go-sql-driver/mysql"
	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	gormsqlite "gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
	_ "modernc.org/sqlite"
)

const (
	DialectSQLite   = "sqlite"
	DialectPostgres = "postgres"
	DialectMySQL    = "mysql"
)

type Options struct {
	// Dialect is one of the Dialect* constants. Empty means: infer from DSN.
	Dialect         string
	DSN             string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	// Silent disables gorm's SQL logging.
	Silent bool
}

// Connect opens a gorm connection with a bounded pool. Requests beyond
// MaxOpenConns wait in database/sql's queue.
func Connect(opts Options, log *slog.Logger) (*gorm.DB, error) {
	dialect := opts.Dialect
	if dialect == "" {
		dialect = inferDialect(opts.DSN)
	}

	gormCfg := &gorm.Config{TranslateError: true}
	if opts.Silent {
		gormCfg.Logger = logger.Default.LogMode(logger.Silent)
	} else {
		gormCfg.Logger = logger.Default.LogMode(logger.Warn)
	}

	var dialector gorm.Dialector
	switch dialect {
	case DialectPostgres:
		log.Info("connecting to PostgreSQL")
		dialector = postgres.Open(opts.DSN)
	case DialectMySQL:
		dsn, err := mysqlDSN(opts.DSN)
		if err != nil {
			return nil, err
		}
		log.Info("connecting to MySQL")
		dialector = mysql.Open(dsn)
	case DialectSQLite:
		log.Info("using SQLite", slog.String("dsn", opts.DSN))
		dialector = gormsqlite.New(gormsqlite.Config{
			DriverName: "sqlite",
			DSN:        opts.DSN,
		})
	default:
		return nil, fmt.Errorf("unsupported database dialect %q", dialect)
	}

	db, err := gorm.Open(dialector, gormCfg)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", dialect, err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("get sql.DB: %w", err)
	}
	if opts.MaxOpenConns > 0 {
		sqlDB.SetMaxOpenConns(opts.MaxOpenConns)
	}
	if opts.MaxIdleConns > 0 {
		sqlDB.SetMaxIdleConns(opts.MaxIdleConns)
	}
	if opts.ConnMaxLifetime > 0 {
		sqlDB.SetConnMaxLifetime(opts.ConnMaxLifetime)
	}

	return db, nil
}

func inferDialect(dsn string) string {
	switch {
	case strings.HasPrefix(dsn, "postgres://"), strings.HasPrefix(dsn, "postgresql://"):
		return DialectPostgres
	case strings.HasPrefix(dsn, "mysql://"):
		return DialectMySQL
	default:
		return DialectSQLite
	}
}

// mysqlDSN normalizes the DSN for the go-sql-driver. parseTime is needed for
// time.Time columns; clientFoundRows makes UPDATE report matched rows so a
// no-op update is not mistaken for a missing row.
func mysqlDSN(dsn string) (string, error) {
	dsn = strings.TrimPrefix(dsn, "mysql://")
	cfg, err := mysqldriver.ParseDSN(dsn)
	if err != nil {
		return "", fmt.Errorf("parse mysql dsn: %w", err)
	}
	cfg.ParseTime = true
	cfg.ClientFoundRows = true
	return cfg.FormatDSN(), nil
}
