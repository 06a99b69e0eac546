package sampler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	cfgpkg "github.com/taoyao-code/anemometer/internal/config"
	"github.com/taoyao-code/anemometer/internal/metrics"
	"github.com/taoyao-code/anemometer/internal/protocol/anemo"
)

// Reader 实时读数来源
type Reader interface {
	GetCurrent(ctx context.Context) (*anemo.Reading, error)
}

// Sample 一次采样
type Sample struct {
	Seq     int            `json:"seq"`
	Time    time.Time      `json:"time"`
	Reading *anemo.Reading `json:"reading"`
}

// Sink 采样输出
type Sink interface {
	Publish(ctx context.Context, s Sample) error
}

// SinkFunc 函数适配 Sink
type SinkFunc func(ctx context.Context, s Sample) error

// Publish 实现 Sink
func (f SinkFunc) Publish(ctx context.Context, s Sample) error { return f(ctx, s) }

// Options 采样器可选项
type Options struct {
	// ContinueOnError 读数或输出失败时记录日志并继续（服务模式）
	ContinueOnError bool
	Metrics         *metrics.AppMetrics
	Logger          *zap.Logger
	Now             func() time.Time
}

// Sampler 按固定节拍采样
// 节拍由令牌桶控制（桶容量1），首个样本立即采集，之后每 interval 一次，不随单次耗时漂移。
type Sampler struct {
	reader   Reader
	limiter  *rate.Limiter
	number   int
	interval time.Duration
	sinks    []Sink
	opts     Options

	mu      sync.RWMutex
	latest  *Sample
	lastErr error
}

// New 创建采样器；cfg.Number 为 0 表示持续采样直到 ctx 取消
func New(reader Reader, cfg cfgpkg.SamplerConfig, opts Options, sinks ...Sink) *Sampler {
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	interval := cfg.Interval
	if interval <= 0 {
		interval = time.Second
	}
	return &Sampler{
		reader:   reader,
		limiter:  rate.NewLimiter(rate.Every(interval), 1),
		number:   cfg.Number,
		interval: interval,
		sinks:    sinks,
		opts:     opts,
	}
}

// Run 执行采样，返回已完成的样本数
// ctx 取消视为正常结束。
func (s *Sampler) Run(ctx context.Context) (int, error) {
	n := 0
	for s.number == 0 || n < s.number {
		if err := s.limiter.Wait(ctx); err != nil {
			if ctx.Err() != nil {
				return n, nil
			}
			return n, err
		}

		r, err := s.reader.GetCurrent(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return n, nil
			}
			s.setErr(err)
			if s.opts.ContinueOnError {
				s.opts.Logger.Warn("sample failed", zap.Int("seq", n+1), zap.Error(err))
				continue
			}
			return n, fmt.Errorf("sample %d: %w", n+1, err)
		}

		n++
		sample := Sample{Seq: n, Time: s.opts.Now(), Reading: r}
		s.store(sample)
		s.opts.Metrics.ObserveSample(r.Primary, r.PrimaryUnit(), r.Secondary, r.SecondaryUnit())

		for _, sink := range s.sinks {
			if err := sink.Publish(ctx, sample); err != nil {
				if s.opts.ContinueOnError {
					s.opts.Logger.Warn("publish sample failed", zap.Int("seq", n), zap.Error(err))
					continue
				}
				return n, fmt.Errorf("publish sample %d: %w", n, err)
			}
		}
	}
	return n, nil
}

func (s *Sampler) store(sample Sample) {
	s.mu.Lock()
	s.latest = &sample
	s.lastErr = nil
	s.mu.Unlock()
}

func (s *Sampler) setErr(err error) {
	s.mu.Lock()
	s.lastErr = err
	s.mu.Unlock()
}

// Latest 最近一次成功采样
func (s *Sampler) Latest() (Sample, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.latest == nil {
		return Sample{}, false
	}
	return *s.latest, true
}

// LastError 最近一次采样错误（成功采样后清空）
func (s *Sampler) LastError() error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastErr
}

// Healthy 最近一次采样成功且未超过3个采样周期
func (s *Sampler) Healthy() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.latest == nil || s.lastErr != nil {
		return false
	}
	return s.opts.Now().Sub(s.latest.Time) <= 3*s.interval
}
