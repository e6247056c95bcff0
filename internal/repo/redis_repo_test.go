package repo

import (
	"context"
	"testing"
	"time"

	"github.com/PyWorldGeo/chatroomproject2/internal/models"
	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return mr, rdb
}

func TestRedisSessionRepo(t *testing.T) {
	mr, rdb := setupRedis(t)
	sessions := NewRedisSessionRepo(rdb)
	ctx := context.Background()

	s := models.Session{
		ID:        "abc",
		UserID:    7,
		CreatedAt: time.Now().Unix(),
		ExpiresAt: time.Now().Add(time.Hour),
	}
	require.NoError(t, sessions.CreateSession(ctx, s))
	assert.Error(t, sessions.CreateSession(ctx, s), "NX prevents overwriting")

	got, ok, err := sessions.GetSession(ctx, "abc")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, uint(7), got.UserID)
	assert.True(t, mr.TTL(sessionKey("abc")) > 0)

	require.NoError(t, sessions.TouchSession(ctx, "abc", 7200))
	assert.Equal(t, 2*time.Hour, mr.TTL(sessionKey("abc")))

	mr.FastForward(3 * time.Hour)
	_, ok, err = sessions.GetSession(ctx, "abc")
	require.NoError(t, err)
	assert.False(t, ok, "expired session is gone")

	require.NoError(t, sessions.CreateSession(ctx, models.Session{ID: "def", UserID: 1, ExpiresAt: time.Now().Add(time.Minute)}))
	require.NoError(t, sessions.DeleteSession(ctx, "def"))
	_, ok, err = sessions.GetSession(ctx, "def")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestRedisSessionRepo_RejectsExpired(t *testing.T) {
	_, rdb := setupRedis(t)
	sessions := NewRedisSessionRepo(rdb)

	err := sessions.CreateSession(context.Background(), models.Session{ID: "old", ExpiresAt: time.Now().Add(-time.Second)})
	assert.Error(t, err)
}

func TestRedisAvatarRepo(t *testing.T) {
	mr, rdb := setupRedis(t)
	avatars := NewRedisAvatarRepo(rdb)
	ctx := context.Background()

	_, ok, err := avatars.GetAvatar(ctx, 1)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, avatars.SaveAvatar(ctx, 1, models.Avatar{Data: []byte{0x89, 'P', 'N', 'G'}, ContentType: "image/png"}))
	got, ok, err := avatars.GetAvatar(ctx, 1)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "image/png", got.ContentType)
	assert.Equal(t, []byte{0x89, 'P', 'N', 'G'}, got.Data)

	// Content-Typeが欠けていてもデータは返す
	mr.Del(avatarTypeKey(1))
	got, ok, err = avatars.GetAvatar(ctx, 1)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "application/octet-stream", got.ContentType)
}
