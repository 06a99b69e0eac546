package health

import (
	"context"
	"fmt"
	"time"

	redisstorage "github.com/taoyao-code/anemometer/internal/storage/redis"
)

// RedisChecker 采样流健康检查器
// 采样发布是可选输出，Redis 不可用时仅降级。
type RedisChecker struct {
	client *redisstorage.Client
}

// NewRedisChecker 创建Redis健康检查器
func NewRedisChecker(client *redisstorage.Client) *RedisChecker {
	return &RedisChecker{client: client}
}

// Name 返回检查器名称
func (c *RedisChecker) Name() string {
	return "redis"
}

// Check 执行健康检查
func (c *RedisChecker) Check(ctx context.Context) CheckResult {
	start := time.Now()
	stream, err := c.client.HealthCheck(ctx)
	if err != nil {
		return CheckResult{
			Status:  StatusDegraded,
			Message: fmt.Sprintf("sample stream unavailable: %v", err),
			Details: map[string]interface{}{"stream": stream.Stream},
			Latency: time.Since(start),
		}
	}

	pool := c.client.PoolStats()
	return CheckResult{
		Status:  StatusHealthy,
		Message: "ok",
		Details: map[string]interface{}{
			"stream":        stream.Stream,
			"stream_length": stream.Length,
			"last_id":       stream.LastID,
			"total_conns":   pool.TotalConns,
			"idle_conns":    pool.IdleConns,
		},
		Latency: time.Since(start),
	}
}
