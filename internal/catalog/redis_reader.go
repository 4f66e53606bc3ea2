package catalog

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// RedisReader reads the product seed from a Redis hash of product_id -> product_name.
type RedisReader struct {
	rdb    *redis.Client
	key    string
	logger *zap.Logger
}

// NewRedisReader creates a reader over the hash stored at key.
func NewRedisReader(rdb *redis.Client, key string, logger *zap.Logger) *RedisReader {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RedisReader{rdb: rdb, key: key, logger: logger}
}

// ReadProducts implements Reader.
func (r *RedisReader) ReadProducts(ctx context.Context) (map[string]string, error) {
	if r.rdb == nil {
		return nil, fmt.Errorf("redis not initialized")
	}
	raw, err := r.rdb.HGetAll(ctx, r.key).Result()
	if err != nil {
		return nil, fmt.Errorf("redis hgetall %s: %w", r.key, err)
	}

	products := make(map[string]string, len(raw))
	for id, name := range raw {
		addSeed(products, id, name, r.logger)
	}

	r.logger.Info("catalog.redis_read", zap.String("key", r.key), zap.Int("count", len(products)))
	return products, nil
}
