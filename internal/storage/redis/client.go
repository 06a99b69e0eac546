package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	cfgpkg "github.com/taoyao-code/anemometer/internal/config"
)

// Client Redis客户端封装，绑定采样发布的目标 Stream
type Client struct {
	*redis.Client
	stream string
}

// StreamStats 采样流状态
type StreamStats struct {
	Stream string `json:"stream"`
	Length int64  `json:"length"`
	LastID string `json:"last_id,omitempty"`
}

// NewClient 创建Redis客户端并验证连通性
func NewClient(cfg cfgpkg.RedisConfig) (*Client, error) {
	if !cfg.Enabled {
		return nil, fmt.Errorf("redis is not enabled")
	}

	rdb := redis.NewClient(&redis.Options{
		Addr:         cfg.Addr,
		Password:     cfg.Password,
		DB:           cfg.DB,
		DialTimeout:  cfg.DialTimeout,
		WriteTimeout: cfg.WriteTimeout,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}

	return &Client{Client: rdb, stream: cfg.Stream}, nil
}

// Stream 采样流名称
func (c *Client) Stream() string { return c.stream }

// Close 关闭Redis连接
func (c *Client) Close() error {
	if c.Client != nil {
		return c.Client.Close()
	}
	return nil
}

// HealthCheck 连通性检查并返回采样流状态
// Stream 尚未创建（未发布过样本）时长度为0。
func (c *Client) HealthCheck(ctx context.Context) (StreamStats, error) {
	stats := StreamStats{Stream: c.stream}
	if err := c.Ping(ctx).Err(); err != nil {
		return stats, err
	}
	if c.stream == "" {
		return stats, nil
	}

	n, err := c.XLen(ctx, c.stream).Result()
	if err != nil {
		return stats, fmt.Errorf("xlen %s: %w", c.stream, err)
	}
	stats.Length = n
	if n == 0 {
		return stats, nil
	}

	last, err := c.XRevRangeN(ctx, c.stream, "+", "-", 1).Result()
	if err != nil && !errors.Is(err, redis.Nil) {
		return stats, fmt.Errorf("xrevrange %s: %w", c.stream, err)
	}
	if len(last) > 0 {
		stats.LastID = last[0].ID
	}
	return stats, nil
}
