package session

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

const keyPrefix = "todo:session:revoked:"

type RedisRevoker struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewRedisRevoker(rdb *redis.Client, refreshTTL time.Duration) *RedisRevoker {
	return &RedisRevoker{rdb: rdb, ttl: refreshTTL}
}

func (r *RedisRevoker) RevokeUser(ctx context.Context, userID string, now time.Time) error {
	v := strconv.FormatInt(now.UTC().UnixMicro(), 10)
	return r.rdb.Set(ctx, keyPrefix+userID, v, r.ttl).Err()
}

func (r *RedisRevoker) RevokedAt(ctx context.Context, userID string) (time.Time, bool, error) {
	v, err := r.rdb.Get(ctx, keyPrefix+userID).Result()
	if errors.Is(err, redis.Nil) {
		return time.Time{}, false, nil
	}
	if err != nil {
		return time.Time{}, false, err
	}

	us, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return time.Time{}, false, err
	}
	return time.UnixMicro(us).UTC(), true, nil
}
