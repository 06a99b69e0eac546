package health

import (
	"context"
	"fmt"
	"time"

	"github.com/taoyao-code/anemometer/internal/sampler"
)

// SamplerChecker 后台采样健康检查
type SamplerChecker struct {
	s *sampler.Sampler
}

// NewSamplerChecker 创建采样检查器
func NewSamplerChecker(s *sampler.Sampler) *SamplerChecker {
	return &SamplerChecker{s: s}
}

// Name 返回检查器名称
func (c *SamplerChecker) Name() string { return "sampler" }

// Check 最近采样失败为 Unhealthy，尚无样本或已滞后为 Degraded
func (c *SamplerChecker) Check(_ context.Context) CheckResult {
	start := time.Now()
	if err := c.s.LastError(); err != nil {
		return CheckResult{
			Status:  StatusUnhealthy,
			Message: fmt.Sprintf("sample failed: %v", err),
			Latency: time.Since(start),
		}
	}
	latest, ok := c.s.Latest()
	if !ok {
		return CheckResult{Status: StatusDegraded, Message: "no sample yet", Latency: time.Since(start)}
	}

	res := CheckResult{
		Status:  StatusHealthy,
		Message: "ok",
		Details: map[string]interface{}{
			"seq":       latest.Seq,
			"last_time": latest.Time,
		},
	}
	if !c.s.Healthy() {
		res.Status = StatusDegraded
		res.Message = "sample stale"
	}
	res.Latency = time.Since(start)
	return res
}
