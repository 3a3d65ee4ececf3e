package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"product-catalog/internal/domain"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const (
	defaultKeyPrefix = "catalog:product"
	defaultTTL       = 5 * time.Minute
)

// ProductCache is a read-through cache of product snapshots.
//
// Invalidate leaves a fence holding the newest persisted version. Set refuses
// snapshots older than the fence, so a reader that loaded a product before a
// concurrent write cannot put the old state back.
type ProductCache interface {
	Get(ctx context.Context, id domain.ProductID) (*domain.Product, bool)
	Set(ctx context.Context, product *domain.Product)
	Invalidate(ctx context.Context, id domain.ProductID, version int)
}

// KEYS[1] entry, KEYS[2] fence. ARGV[1] snapshot, ARGV[2] version, ARGV[3] ttl in ms.
var fencedSet = redis.NewScript(`
local fence = redis.call('GET', KEYS[2])
if fence and tonumber(fence) > tonumber(ARGV[2]) then
	return 0
end
redis.call('SET', KEYS[1], ARGV[1], 'PX', ARGV[3])
return 1
`)

// KEYS[1] entry, KEYS[2] fence. ARGV[1] version, ARGV[2] ttl in ms. The fence
// never moves backwards.
var raiseFence = redis.NewScript(`
local fence = redis.call('GET', KEYS[2])
if (not fence) or tonumber(fence) < tonumber(ARGV[1]) then
	redis.call('SET', KEYS[2], ARGV[1], 'PX', ARGV[2])
end
redis.call('DEL', KEYS[1])
return 1
`)

type redisProductCache struct {
	client    *redis.Client
	ttl       time.Duration
	keyPrefix string
	logger    *zap.Logger
}

// NewProductCache stores snapshots under "<prefix>:<id>" and fences under
// "<prefix>:<id>:fence", both for ttl. Redis failures are logged and treated as
// misses; the database stays the source of truth.
func NewProductCache(client *redis.Client, ttl time.Duration, logger *zap.Logger) ProductCache {
	if ttl <= 0 {
		ttl = defaultTTL
	}
	return &redisProductCache{
		client:    client,
		ttl:       ttl,
		keyPrefix: defaultKeyPrefix,
		logger:    logger,
	}
}

func (c *redisProductCache) key(id domain.ProductID) string {
	return fmt.Sprintf("%s:%d", c.keyPrefix, id)
}

func (c *redisProductCache) fenceKey(id domain.ProductID) string {
	return c.key(id) + ":fence"
}

func (c *redisProductCache) Get(ctx context.Context, id domain.ProductID) (*domain.Product, bool) {
	key := c.key(id)

	data, err := c.client.Get(ctx, key).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			c.logger.Warn("Product cache read failed", zap.String("key", key), zap.Error(err))
		}
		return nil, false
	}

	var snapshot domain.ProductSnapshot
	if err := json.Unmarshal(data, &snapshot); err != nil {
		c.logger.Warn("Discarding undecodable cache entry", zap.String("key", key), zap.Error(err))
		c.evict(ctx, key)
		return nil, false
	}

	product, err := domain.ProductFromSnapshot(snapshot)
	if err != nil {
		c.logger.Warn("Discarding invalid cache entry", zap.String("key", key), zap.Error(err))
		c.evict(ctx, key)
		return nil, false
	}

	return product, true
}

func (c *redisProductCache) Set(ctx context.Context, product *domain.Product) {
	key := c.key(product.ID())

	data, err := json.Marshal(product.Snapshot())
	if err != nil {
		c.logger.Error("Failed to encode product for cache", zap.String("key", key), zap.Error(err))
		return
	}

	keys := []string{key, c.fenceKey(product.ID())}
	stored, err := fencedSet.Run(ctx, c.client, keys, data, product.Version(), c.ttl.Milliseconds()).Int()
	if err != nil {
		c.logger.Warn("Product cache write failed", zap.String("key", key), zap.Error(err))
		return
	}
	if stored == 0 {
		c.logger.Debug("Skipped caching superseded product",
			zap.String("key", key),
			zap.Int("version", product.Version()),
		)
	}
}

func (c *redisProductCache) Invalidate(ctx context.Context, id domain.ProductID, version int) {
	key := c.key(id)
	keys := []string{key, c.fenceKey(id)}
	if err := raiseFence.Run(ctx, c.client, keys, version, c.ttl.Milliseconds()).Err(); err != nil {
		c.logger.Warn("Product cache invalidation failed", zap.String("key", key), zap.Error(err))
	}
}

func (c *redisProductCache) evict(ctx context.Context, key string) {
	if err := c.client.Del(ctx, key).Err(); err != nil {
		c.logger.Warn("Product cache eviction failed", zap.String("key", key), zap.Error(err))
	}
}

// NoopProductCache never stores anything. Used when Redis is not configured.
type NoopProductCache struct{}

func (NoopProductCache) Get(context.Context, domain.ProductID) (*domain.Product, bool) {
	return nil, false
}

func (NoopProductCache) Set(context.Context, *domain.Product) {}

func (NoopProductCache) Invalidate(context.Context, domain.ProductID, int) {}
