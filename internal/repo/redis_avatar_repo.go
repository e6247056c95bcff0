package repo

import (
	"context"
	"fmt"

	"github.com/PyWorldGeo/chatroomproject2/internal/models"
	"github.com/redis/go-redis/v9"
)

// RedisAvatarRepo はアバター画像をRedisに保存します
type RedisAvatarRepo struct {
	rdb *redis.Client
}

func NewRedisAvatarRepo(rdb *redis.Client) *RedisAvatarRepo {
	return &RedisAvatarRepo{rdb: rdb}
}

func avatarKey(userID uint) string {
	return fmt.Sprintf("avatars:%d", userID)
}

func avatarTypeKey(userID uint) string {
	return fmt.Sprintf("avatars:%d:type", userID)
}

// SaveAvatar は画像データとContent-Typeをまとめて保存します
func (r *RedisAvatarRepo) SaveAvatar(ctx context.Context, userID uint, avatar models.Avatar) error {
	pipe := r.rdb.TxPipeline()
	pipe.Set(ctx, avatarKey(userID), avatar.Data, 0)
	pipe.Set(ctx, avatarTypeKey(userID), avatar.ContentType, 0)
	_, err := pipe.Exec(ctx)
	return err
}

// GetAvatar は保存した画像を取得します
func (r *RedisAvatarRepo) GetAvatar(ctx context.Context, userID uint) (models.Avatar, bool, error) {
	data, err := r.rdb.Get(ctx, avatarKey(userID)).Bytes()
	if err == redis.Nil {
		return models.Avatar{}, false, nil
	}
	if err != nil {
		return models.Avatar{}, false, err
	}
	contentType, err := r.rdb.Get(ctx, avatarTypeKey(userID)).Result()
	if err != nil && err != redis.Nil {
		return models.Avatar{}, false, err
	}
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	return models.Avatar{Data: data, ContentType: contentType}, true, nil
}
