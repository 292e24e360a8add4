package userservice

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/sushihentaime/inkpost/internal/common"
)

// Denylist remembers revoked token IDs until the token would have expired anyway.
type Denylist interface {
	Revoke(ctx context.Context, jti string, ttl time.Duration) error
	IsRevoked(ctx context.Context, jti string) (bool, error)
}

type cacheDenylist struct {
	c *common.Cache
}

// NewCacheDenylist keeps revocations in process memory.
func NewCacheDenylist(c *common.Cache) Denylist {
	return &cacheDenylist{c: c}
}

func (d *cacheDenylist) Revoke(_ context.Context, jti string, ttl time.Duration) error {
	if ttl <= 0 {
		return nil
	}
	d.c.Set(common.CacheKeyRevokedToken(jti), true, ttl)
	return nil
}

func (d *cacheDenylist) IsRevoked(_ context.Context, jti string) (bool, error) {
	_, ok := d.c.Get(common.CacheKeyRevokedToken(jti))
	return ok, nil
}

type redisDenylist struct {
	rdb *redis.Client
}

// NewRedisDenylist shares revocations between every instance using the same Redis.
func NewRedisDenylist(rdb *redis.Client) Denylist {
	return &redisDenylist{rdb: rdb}
}

func (d *redisDenylist) Revoke(ctx context.Context, jti string, ttl time.Duration) error {
	if ttl <= 0 {
		return nil
	}
	return d.rdb.Set(ctx, common.CacheKeyRevokedToken(jti), 1, ttl).Err()
}

func (d *redisDenylist) IsRevoked(ctx context.Context, jti string) (bool, error) {
	n, err := d.rdb.Exists(ctx, common.CacheKeyRevokedToken(jti)).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}
