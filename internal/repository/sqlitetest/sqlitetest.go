// Package sqlitetest opens a migrated in-memory SQLite store for tests of
// packages above the repository layer.
package sqlitetest

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"zyboard/internal/database"
	"zyboard/internal/logger"
	"zyboard/internal/repository"
	"zyboard/internal/repository/gormstore"
)

// New returns a store private to t. The database is dropped when the last
// connection closes at cleanup.
func New(t *testing.T) repository.Store {
	t.Helper()
	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	db, err := database.Connect(database.Options{
		Dialect:      database.DialectSQLite,
		DSN:          fmt.Sprintf("file:%s?mode=memory&cache=shared", name),
		MaxOpenConns: 1,
		Silent:       true,
	}, logger.Discard())
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db))

	s := gormstore.New(db, database.DialectSQLite)
	t.Cleanup(func() { _ = s.Close() })
	return s
}
