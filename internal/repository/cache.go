package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/tm-acme-shop/acme-shop-marketplace-service/internal/config"
	"github.com/tm-acme-shop/acme-shop-marketplace-service/internal/logging"
	"github.com/tm-acme-shop/acme-shop-marketplace-service/internal/models"
)

const (
	orderKeyPrefix       = "marketplace:order:"
	userOrdersPrefix     = "marketplace:user_orders:"
	idempotencyKeyPrefix = "marketplace:idempotency:"
	defaultCacheTTL      = 5 * time.Minute
	defaultIdempotentTTL = 24 * time.Hour
)

// NewRedisClient opens a client for cfg. The caller owns Close.
func NewRedisClient(cfg config.RedisConfig) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Password: cfg.Password,
		DB:       cfg.DB,
	})
}

// RedisOrderCache implements OrderCache using Redis.
type RedisOrderCache struct {
	client redis.Cmdable
	ttl    time.Duration
	logger *logging.LoggerV2
}

// NewRedisOrderCache creates a new Redis-based order cache.
func NewRedisOrderCache(client redis.Cmdable, ttl time.Duration) *RedisOrderCache {
	if ttl <= 0 {
		ttl = defaultCacheTTL
	}

	return &RedisOrderCache{
		client: client,
		ttl:    ttl,
		logger: logging.NewLoggerV2("order-cache"),
	}
}

// Get retrieves an order from cache. A miss returns nil, nil.
func (c *RedisOrderCache) Get(ctx context.Context, id string) (*models.Order, error) {
	key := orderKeyPrefix + id

	data, err := c.client.Get(ctx, key).Bytes()
	if err == redis.Nil {
		c.logger.Debug("Cache miss", logging.Fields{"order_id": id})
		return nil, nil
	}
	if err != nil {
		c.logger.Error("Cache get error", logging.Fields{
			"order_id": id,
			"error":    err.Error(),
		})
		return nil, err
	}

	var order models.Order
	if err := json.Unmarshal(data, &order); err != nil {
		return nil, err
	}

	c.logger.Debug("Cache hit", logging.Fields{"order_id": id})
	return &order, nil
}

// Set stores an order in cache.
func (c *RedisOrderCache) Set(ctx context.Context, order *models.Order) error {
	key := orderKeyPrefix + order.ID

	data, err := json.Marshal(order)
	if err != nil {
		return err
	}

	if err := c.client.Set(ctx, key, data, c.ttl).Err(); err != nil {
		c.logger.Error("Cache set error", logging.Fields{
			"order_id": order.ID,
			"error":    err.Error(),
		})
		return err
	}

	c.logger.Debug("Order cached", logging.Fields{
		"order_id": order.ID,
		"ttl":      c.ttl.String(),
	})
	return nil
}

// Delete removes an order from cache.
func (c *RedisOrderCache) Delete(ctx context.Context, id string) error {
	if err := c.client.Del(ctx, orderKeyPrefix+id).Err(); err != nil {
		c.logger.Error("Cache delete error", logging.Fields{
			"order_id": id,
			"error":    err.Error(),
		})
		return err
	}
	return nil
}

// GetByUserID retrieves the cached order list of a user. A miss returns nil, nil.
func (c *RedisOrderCache) GetByUserID(ctx context.Context, userID int64) ([]*models.Order, error) {
	data, err := c.client.Get(ctx, userOrdersKey(userID)).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var orders []*models.Order
	if err := json.Unmarshal(data, &orders); err != nil {
		return nil, err
	}

	return orders, nil
}

// SetByUserID caches the order list of a user.
func (c *RedisOrderCache) SetByUserID(ctx context.Context, userID int64, orders []*models.Order) error {
	data, err := json.Marshal(orders)
	if err != nil {
		return err
	}

	return c.client.Set(ctx, userOrdersKey(userID), data, c.ttl).Err()
}

// InvalidateByUserID removes the cached order list of a user.
func (c *RedisOrderCache) InvalidateByUserID(ctx context.Context, userID int64) error {
	return c.client.Del(ctx, userOrdersKey(userID)).Err()
}

func userOrdersKey(userID int64) string {
	return userOrdersPrefix + strconv.FormatInt(userID, 10)
}

// RedisIdempotencyStore implements IdempotencyStore with SETNX.
type RedisIdempotencyStore struct {
	client redis.Cmdable
	ttl    time.Duration
	logger *logging.LoggerV2
}

func NewRedisIdempotencyStore(client redis.Cmdable, ttl time.Duration) *RedisIdempotencyStore {
	if ttl <= 0 {
		ttl = defaultIdempotentTTL
	}

	return &RedisIdempotencyStore{
		client: client,
		ttl:    ttl,
		logger: logging.NewLoggerV2("idempotency"),
	}
}

func (s *RedisIdempotencyStore) Acquire(ctx context.Context, key string) (bool, error) {
	ok, err := s.client.SetNX(ctx, idempotencyKeyPrefix+key, time.Now().UTC().Format(time.RFC3339), s.ttl).Result()
	if err != nil {
		s.logger.Error("Idempotency acquire failed", logging.Fields{
			"key":   key,
			"error": err.Error(),
		})
		return false, err
	}

	if !ok {
		s.logger.Warn("Duplicate request rejected", logging.Fields{"key": key})
	}
	return ok, nil
}

func (s *RedisIdempotencyStore) Release(ctx context.Context, key string) error {
	return s.client.Del(ctx, idempotencyKeyPrefix+key).Err()
}
