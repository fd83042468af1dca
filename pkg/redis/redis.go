package redis

import (
	"context"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/GazzaBombata/tablebooks/config"
)

// Client Redis 客户端封装
// 当前用于可用性查询缓存与速率限制；后续可扩展分布式锁等场景
type Client struct {
	rdb    *goredis.Client
	logger *zap.Logger
}

// NewClient 创建 Redis 连接并执行 Ping 健康检查
func NewClient(cfg *config.RedisConfig, logger *zap.Logger) (*Client, error) {
	rdb := goredis.NewClient(&goredis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("Redis 连接失败: %w", err)
	}

	logger.Info("Redis 连接成功", zap.String("addr", cfg.Addr))

	return &Client{rdb: rdb, logger: logger}, nil
}

// ── 可用性查询缓存 ──
//
// 缓存键包含按餐厅维护的代数计数器（generation），任何预订变更只需 INCR 该计数器，
// 旧代数的缓存条目等待 TTL 自然过期，无需按模式扫描删除。

const availabilityGenPrefix = "avail:gen:"

// AvailabilityGeneration 读取餐厅当前的可用性代数，键不存在时返回 0
func (c *Client) AvailabilityGeneration(ctx context.Context, restaurantID string) (int64, error) {
	n, err := c.rdb.Get(ctx, availabilityGenPrefix+restaurantID).Int64()
	if err == goredis.Nil {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	return n, nil
}

// BumpAvailabilityGeneration 预订变更后递增餐厅的可用性代数，使旧缓存立即失效
func (c *Client) BumpAvailabilityGeneration(ctx context.Context, restaurantID string) error {
	return c.rdb.Incr(ctx, availabilityGenPrefix+restaurantID).Err()
}

// GetCachedAvailability 读取可用性查询缓存，未命中时返回 (nil, false, nil)
func (c *Client) GetCachedAvailability(ctx context.Context, key string) ([]byte, bool, error) {
	payload, err := c.rdb.Get(ctx, key).Bytes()
	if err == goredis.Nil {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return payload, true, nil
}

// CacheAvailability 写入可用性查询缓存
func (c *Client) CacheAvailability(ctx context.Context, key string, payload []byte, ttl time.Duration) error {
	return c.rdb.Set(ctx, key, payload, ttl).Err()
}

// ── 速率限制 ──

// CheckRateLimit 固定窗口计数器限流
// 返回 true 表示放行，false 表示超出限制
func (c *Client) CheckRateLimit(ctx context.Context, key string, limit int, window time.Duration) (bool, error) {
	n, err := c.rdb.Incr(ctx, key).Result()
	if err != nil {
		return false, err
	}
	if n == 1 {
		if err := c.rdb.Expire(ctx, key, window).Err(); err != nil {
			return false, err
		}
	}
	return n <= int64(limit), nil
}

// Close 关闭 Redis 连接
func (c *Client) Close() error {
	return c.rdb.Close()
}
