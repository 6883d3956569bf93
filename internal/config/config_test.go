package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setBaseEnv(t *testing.T) {
	t.Helper()
	t.Setenv("APP_ENV", "dev")
	t.Setenv("JWT_SECRET", "test-secret")
	t.Setenv("DB_TYPE", "sqlite")
	t.Setenv("DATABASE_URL", "file:config_test?mode=memory")
	t.Setenv("OBJECT_STORE", "webdav")
	t.Setenv("WEBDAV_URL", "http://localhost:8081")
}

func TestLoad_Defaults(t *testing.T) {
	setBaseEnv(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "3030", cfg.Port)
	assert.Equal(t, DBSQLite, cfg.DB.Type)
	assert.Equal(t, 10, cfg.DB.MaxOpenConns)
	assert.Equal(t, int64(10*1024*1024), cfg.MaxUploadSize)
	assert.Equal(t, int64(1<<30), cfg.DefaultQuota)
	assert.Equal(t, 24*time.Hour, cfg.JWTTTL)
	assert.Equal(t, "/cloud", cfg.WebDAV.BaseDir)
	assert.True(t, cfg.Cleanup.Enabled)
	assert.Equal(t, 30*24*time.Hour, cfg.Cleanup.NotificationRetention)
	assert.Equal(t, 90*24*time.Hour, cfg.Cleanup.ActivityRetention)
	assert.False(t, cfg.IsProdLike())
}

func TestLoad_RequiresJWTSecret(t *testing.T) {
	setBaseEnv(t)
	t.Setenv("JWT_SECRET", "")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "JWT_SECRET")
}

func TestLoad_ProdRequiresLongSecret(t *testing.T) {
	setBaseEnv(t)
	t.Setenv("APP_ENV", "production")
	t.Setenv("JWT_SECRET", "short")

	_, err := Load()
	require.Error(t, err)

	t.Setenv("JWT_SECRET", "0123456789abcdef0123456789abcdef")
	cfg, err := Load()
	require.NoError(t, err)
	assert.True(t, cfg.IsProdLike())
}

func TestLoad_DBTypeAliases(t *testing.T) {
	cases := map[string]string{
		"postgresql": DBPostgres,
		"MariaDB":    DBMySQL,
		"supabase":   DBRest,
		"sqlite3":    DBSQLite,
	}
	for in, want := range cases {
		t.Run(in, func(t *testing.T) {
			setBaseEnv(t)
			t.Setenv("DB_TYPE", in)
			t.Setenv("SUPABASE_URL", "http://localhost:54321/")
			t.Setenv("SUPABASE_SERVICE_ROLE_KEY", "service-key")

			cfg, err := Load()
			require.NoError(t, err)
			assert.Equal(t, want, cfg.DB.Type)
		})
	}
}

func TestLoad_RestBackendNeedsCredentials(t *testing.T) {
	setBaseEnv(t)
	t.Setenv("DB_TYPE", "rest")
	t.Setenv("SUPABASE_URL", "")
	t.Setenv("SUPABASE_SERVICE_ROLE_KEY", "")

	_, err := Load()
	require.Error(t, err)
}

func TestLoad_S3NeedsBucket(t *testing.T) {
	setBaseEnv(t)
	t.Setenv("OBJECT_STORE", "s3")
	t.Setenv("S3_BUCKET", "")

	_, err := Load()
	require.Error(t, err)

	t.Setenv("S3_BUCKET", "zyboard")
	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, ObjectStoreS3, cfg.ObjectStore)
}

func TestLoad_SizesAndLists(t *testing.T) {
	setBaseEnv(t)
	t.Setenv("MAX_UPLOAD_SIZE", "2048")
	t.Setenv("DEFAULT_QUOTA", "5GB")
	t.Setenv("CORS_ALLOWED_ORIGINS", " https://a.example , ,https://b.example")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, int64(2048), cfg.MaxUploadSize)
	assert.Equal(t, int64(5_000_000_000), cfg.DefaultQuota)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.CORSAllowedOrigins)
}

func TestLoad_InvalidDuration(t *testing.T) {
	setBaseEnv(t)
	t.Setenv("JWT_TTL", "tomorrow")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "JWT_TTL")
}
