package health

import (
	"context"
	"time"
)

// Status 健康状态
type Status string

const (
	StatusHealthy   Status = "healthy"   // 健康
	StatusDegraded  Status = "degraded"  // 降级：采样滞后或可选组件不可用
	StatusUnhealthy Status = "unhealthy" // 不健康：设备读取失败
)

// CheckResult 健康检查结果
type CheckResult struct {
	Status  Status                 `json:"status"`
	Message string                 `json:"message,omitempty"`
	Details map[string]interface{} `json:"details,omitempty"`
	Latency time.Duration          `json:"latency"`
}

// Checker 健康检查器接口
type Checker interface {
	Name() string
	Check(ctx context.Context) CheckResult
}

// CheckFunc 函数适配 Checker，用于不便依赖的组件（如 USB 设备熔断器）
type CheckFunc struct {
	name string
	fn   func(ctx context.Context) CheckResult
}

// NewCheckFunc 创建函数检查器
func NewCheckFunc(name string, fn func(ctx context.Context) CheckResult) *CheckFunc {
	return &CheckFunc{name: name, fn: fn}
}

// Name 返回检查器名称
func (c *CheckFunc) Name() string { return c.name }

// Check 执行检查并补充耗时
func (c *CheckFunc) Check(ctx context.Context) CheckResult {
	start := time.Now()
	res := c.fn(ctx)
	if res.Latency == 0 {
		res.Latency = time.Since(start)
	}
	return res
}
