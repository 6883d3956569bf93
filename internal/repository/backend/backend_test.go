package backend

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"zyboard/internal/config"
	"zyboard/internal/logger"
)

func TestOpen_SQLite(t *testing.T) {
	cfg := &config.Config{DB: config.DatabaseConfig{
		Type:         config.DBSQLite,
		URL:          "file:backend_open?mode=memory&cache=shared",
		MaxOpenConns: 1,
	}}

	s, err := Open(context.Background(), cfg, logger.Discard())
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })

	assert.Equal(t, config.DBSQLite, s.Kind())
	assert.True(t, s.Ping(context.Background()))
}

func TestOpen_RestDoesNotFailWhenUnreachable(t *testing.T) {
	cfg := &config.Config{
		DB:       config.DatabaseConfig{Type: config.DBRest},
		Supabase: config.SupabaseConfig{URL: "http://127.0.0.1:1", ServiceRoleKey: "k", Timeout: 100 * time.Millisecond},
	}

	s, err := Open(context.Background(), cfg, logger.Discard())
	require.NoError(t, err)
	assert.Equal(t, "rest", s.Kind())
	assert.False(t, s.Ping(context.Background()))
}

func TestOpen_Unsupported(t *testing.T) {
	_, err := Open(context.Background(), &config.Config{DB: config.DatabaseConfig{Type: "oracle"}}, logger.Discard())
	assert.Error(t, err)
}
