package repo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/PyWorldGeo/chatroomproject2/internal/models"
	"github.com/goccy/go-json"
	"github.com/redis/go-redis/v9"
)

// RedisSessionRepo はセッションをTTL付きでRedisに保存します
type RedisSessionRepo struct{ rdb *redis.Client }

func NewRedisSessionRepo(rdb *redis.Client) *RedisSessionRepo {
	return &RedisSessionRepo{rdb: rdb}
}

func sessionKey(id string) string {
	return fmt.Sprintf("sessions:%s", id)
}

func sec(v int) time.Duration {
	return time.Duration(v) * time.Second
}

func (rr *RedisSessionRepo) CreateSession(ctx context.Context, s models.Session) error {
	b, err := json.Marshal(s)
	if err != nil {
		return err
	}
	ttl := time.Until(s.ExpiresAt)
	if ttl <= 0 {
		return errors.New("session already expired")
	}
	ok, err := rr.rdb.SetArgs(ctx, sessionKey(s.ID), b, redis.SetArgs{Mode: "NX", TTL: ttl}).Result()
	if err != nil {
		return err
	}
	if ok != "OK" {
		return errors.New("session already exists")
	}
	return nil
}

func (rr *RedisSessionRepo) GetSession(ctx context.Context, id string) (models.Session, bool, error) {
	val, err := rr.rdb.Get(ctx, sessionKey(id)).Bytes()
	if err == redis.Nil { // 期限切れまたは未作成
		return models.Session{}, false, nil
	}
	if err != nil {
		return models.Session{}, false, err
	}
	var s models.Session
	if err := json.Unmarshal(val, &s); err != nil {
		return models.Session{}, false, err
	}
	return s, true, nil
}

func (rr *RedisSessionRepo) DeleteSession(ctx context.Context, id string) error {
	return rr.rdb.Del(ctx, sessionKey(id)).Err()
}

// TouchSession はセッションの有効期限を延長します（スライディングセッション）
func (rr *RedisSessionRepo) TouchSession(ctx context.Context, id string, ttlSec int) error {
	return rr.rdb.Expire(ctx, sessionKey(id), sec(ttlSec)).Err()
}
