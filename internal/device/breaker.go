package device

import (
	"errors"
	"sync"
	"time"
)

// BreakerState 熔断器状态
type BreakerState int

const (
	BreakerClosed   BreakerState = iota // 正常访问设备
	BreakerOpen                         // 冷却中，直接拒绝
	BreakerHalfOpen                     // 冷却结束，放行一次试探
)

func (s BreakerState) String() string {
	switch s {
	case BreakerClosed:
		return "closed"
	case BreakerOpen:
		return "open"
	case BreakerHalfOpen:
		return "half_open"
	default:
		return "unknown"
	}
}

// ErrCircuitOpen 设备连续失败，处于冷却期
var ErrCircuitOpen = errors.New("device circuit open")

// Breaker 设备访问熔断器
// 连续失败 threshold 次后进入冷却，冷却结束放行一次试探：成功则恢复，失败则重新冷却。
type Breaker struct {
	mu        sync.Mutex
	state     BreakerState
	failures  int
	openedAt  time.Time
	threshold int
	cooldown  time.Duration
	now       func() time.Time

	// OnStateChange 状态变化回调（在锁外同步调用）
	OnStateChange func(from, to BreakerState)
}

// NewBreaker 创建熔断器，threshold<=0 时取5，cooldown<=0 时取30s
func NewBreaker(threshold int, cooldown time.Duration) *Breaker {
	if threshold <= 0 {
		threshold = 5
	}
	if cooldown <= 0 {
		cooldown = 30 * time.Second
	}
	return &Breaker{threshold: threshold, cooldown: cooldown, now: time.Now}
}

// State 当前状态
func (b *Breaker) State() BreakerState {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state
}

// Call 受熔断保护地执行 fn
func (b *Breaker) Call(fn func() error) error {
	if from, to, err := b.before(); err != nil {
		return err
	} else if from != to {
		b.notify(from, to)
	}

	err := fn()

	if from, to := b.after(err); from != to {
		b.notify(from, to)
	}
	return err
}

func (b *Breaker) before() (BreakerState, BreakerState, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	from := b.state
	switch b.state {
	case BreakerOpen:
		if b.now().Sub(b.openedAt) < b.cooldown {
			return from, from, ErrCircuitOpen
		}
		b.state = BreakerHalfOpen
	case BreakerHalfOpen:
		// 试探进行中
		return from, from, ErrCircuitOpen
	}
	return from, b.state, nil
}

func (b *Breaker) after(err error) (BreakerState, BreakerState) {
	b.mu.Lock()
	defer b.mu.Unlock()

	from := b.state
	if err == nil {
		b.failures = 0
		b.state = BreakerClosed
		return from, b.state
	}

	b.failures++
	if b.state == BreakerHalfOpen || b.failures >= b.threshold {
		b.state = BreakerOpen
		b.openedAt = b.now()
	}
	return from, b.state
}

func (b *Breaker) notify(from, to BreakerState) {
	if b.OnStateChange != nil {
		b.OnStateChange(from, to)
	}
}
