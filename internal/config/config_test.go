package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// withWorkdir は設定ファイル探索がリポジトリ内のファイルを拾わないよう作業ディレクトリを切り替えます
func withWorkdir(t *testing.T, dir string) {
	t.Helper()
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(wd) })
}

func TestLoadDefaults(t *testing.T) {
	withWorkdir(t, t.TempDir())

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.Server.Addr)
	assert.Equal(t, "localhost:6379", cfg.Redis.Addr)
	assert.Equal(t, "forum.db", cfg.Database.Path)
	assert.Equal(t, 14*24*time.Hour, cfg.Session.TTL)
	assert.Equal(t, "sessionid", cfg.Session.CookieName)
	assert.Equal(t, []string{"http://localhost:3000", "http://localhost:8080"}, cfg.Server.AllowedOrigins)
	assert.Equal(t, int64(2<<20), cfg.Avatar.MaxBytes)
	assert.True(t, cfg.Avatar.Allows("image/png"))
	assert.False(t, cfg.Avatar.Allows("text/html"))
}

func TestLoadEnvOverrides(t *testing.T) {
	withWorkdir(t, t.TempDir())
	t.Setenv("API_ADDR", ":9090")
	t.Setenv("REDIS_ADDR", "redis:6380")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://a.example, https://b.example ,")
	t.Setenv("SESSION_TTL", "2h")
	t.Setenv("EMAIL_HOST", "smtp.example.com")
	t.Setenv("EMAIL_USE_TLS", "false")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, ":9090", cfg.Server.Addr)
	assert.Equal(t, "redis:6380", cfg.Redis.Addr)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.Server.AllowedOrigins)
	assert.Equal(t, 2*time.Hour, cfg.Session.TTL)
	assert.Equal(t, "smtp.example.com", cfg.Email.Host)
	assert.False(t, cfg.Email.UseTLS)
}

func TestLoadConfigFile(t *testing.T) {
	dir := t.TempDir()
	withWorkdir(t, dir)

	body := []byte("server:\n  addr: \":7000\"\ndatabase:\n  path: /tmp/forum-test.db\n")
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), body, 0o600))

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, ":7000", cfg.Server.Addr)
	assert.Equal(t, "/tmp/forum-test.db", cfg.Database.Path)

	// 環境変数はファイルより優先
	t.Setenv("DB_PATH", "/tmp/override.db")
	cfg, err = Load()
	require.NoError(t, err)
	assert.Equal(t, "/tmp/override.db", cfg.Database.Path)
}

func TestValidate(t *testing.T) {
	cfg := defaultConfig()
	require.NoError(t, cfg.Validate())

	cfg.Server.Addr = " "
	cfg.Session.TTL = 0
	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "server.addr is required")
	assert.Contains(t, err.Error(), "session.ttl must be positive")
}
