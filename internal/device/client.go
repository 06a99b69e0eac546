package device

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/taoyao-code/anemometer/internal/metrics"
	"github.com/taoyao-code/anemometer/internal/protocol/anemo"
)

// Client 风速计客户端
// 单设备、串行访问：所有收发在互斥锁内完成。
type Client struct {
	mu      sync.Mutex
	open    Opener
	t       Transport
	timeout time.Duration
	breaker *Breaker
	// keep 由 Open 显式打开：故障后重新打开的句柄同样保持
	keep    bool
	metrics *metrics.AppMetrics
	log     *zap.Logger
}

// NewClient 创建客户端，timeout 为单次读超时
func NewClient(open Opener, timeout time.Duration, m *metrics.AppMetrics, log *zap.Logger) *Client {
	if log == nil {
		log = zap.NewNop()
	}
	if timeout <= 0 {
		timeout = 100 * time.Millisecond
	}
	return &Client{open: open, timeout: timeout, metrics: m, log: log}
}

// SetBreaker 为实时读取加熔断保护，nil 表示不保护
func (c *Client) SetBreaker(b *Breaker) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.breaker = b
}

// Breaker 当前熔断器，未设置时为 nil
func (c *Client) Breaker() *Breaker {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.breaker
}

// Open 打开设备并保持打开直到 Close（已打开时直接返回）
func (c *Client) Open(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	// 打开失败也保持：后续读取时重试打开并保持
	c.keep = true
	return c.openLocked(ctx)
}

func (c *Client) openLocked(ctx context.Context) error {
	if c.t != nil {
		return nil
	}
	t, err := c.open(ctx)
	if err != nil {
		c.metrics.ObserveOpen(metrics.ResultError)
		return err
	}
	c.metrics.ObserveOpen(metrics.ResultOK)
	c.t = t
	return nil
}

// Close 复位并关闭设备（未打开时直接返回）
func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.keep = false
	return c.closeLocked()
}

func (c *Client) closeLocked() error {
	if c.t == nil {
		return nil
	}
	err := c.t.Close()
	c.t = nil
	return err
}

// IsOpen 设备是否已打开
func (c *Client) IsOpen() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t != nil
}

// GetCurrent 读取一次实时测量值
// 设备未打开时临时打开，读完即关闭；经 Open 打开的设备在传输故障后重新打开并保持。
func (c *Client) GetCurrent(ctx context.Context) (*anemo.Reading, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.breaker == nil {
		return c.currentLocked(ctx)
	}
	var r *anemo.Reading
	err := c.breaker.Call(func() error {
		var err error
		r, err = c.currentLocked(ctx)
		return err
	})
	return r, err
}

func (c *Client) currentLocked(ctx context.Context) (*anemo.Reading, error) {
	if c.t == nil {
		if err := c.openLocked(ctx); err != nil {
			return nil, err
		}
		if !c.keep {
			defer func() {
				if err := c.closeLocked(); err != nil {
					c.log.Warn("close device failed", zap.Error(err))
				}
			}()
		}
	}

	if err := c.sendLocked(ctx, anemo.ReadCurrent); err != nil {
		c.dropLocked(ctx, err)
		return nil, err
	}
	frame, err := c.receiveLocked(ctx)
	if err != nil {
		c.dropLocked(ctx, err)
		return nil, fmt.Errorf("read current: %w", err)
	}
	return c.decode(frame)
}

// dropLocked 传输故障（设备拔出等）后关闭句柄，下次读取重新打开设备
// 读超时与 ctx 取消不视为故障。
func (c *Client) dropLocked(ctx context.Context, err error) {
	if errors.Is(err, ErrTimeout) || ctx.Err() != nil {
		return
	}
	c.log.Warn("device transfer failed, closing handle", zap.Error(err))
	if cerr := c.closeLocked(); cerr != nil {
		c.log.Warn("close device failed", zap.Error(cerr))
	}
}

// OpenRecords 进入记录回传模式，设备保持打开直到 Close
func (c *Client) OpenRecords(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.openLocked(ctx); err != nil {
		return err
	}
	return c.sendLocked(ctx, anemo.ReadRecordsStart)
}

// NextRecord 读取下一条存储记录
// 读超时表示记录已读完，返回 (nil, false, nil)。
func (c *Client) NextRecord(ctx context.Context) (*anemo.Reading, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.t == nil {
		return nil, false, ErrClosed
	}
	frame, err := c.receiveLocked(ctx)
	if errors.Is(err, ErrTimeout) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	r, err := c.decode(frame)
	if err != nil {
		return nil, false, err
	}
	c.metrics.ObserveRecord()
	return r, true, nil
}

// DownloadRecords 回传全部存储记录，fn 收到从1开始的序号
// 返回成功回传的记录数。
func (c *Client) DownloadRecords(ctx context.Context, fn func(n int, r *anemo.Reading) error) (int, error) {
	if err := c.OpenRecords(ctx); err != nil {
		return 0, err
	}
	n := 0
	for {
		r, ok, err := c.NextRecord(ctx)
		if err != nil {
			return n, err
		}
		if !ok {
			c.log.Debug("record stream finished", zap.Int("records", n))
			return n, nil
		}
		n++
		if err := fn(n, r); err != nil {
			return n, err
		}
	}
}

func (c *Client) sendLocked(ctx context.Context, cmd anemo.Command) error {
	if err := c.t.Send(ctx, cmd); err != nil {
		c.metrics.ObserveTransfer("send", metrics.ResultError)
		return err
	}
	c.metrics.ObserveTransfer("send", metrics.ResultOK)
	return nil
}

func (c *Client) receiveLocked(ctx context.Context) ([]byte, error) {
	frame, err := c.t.Receive(ctx, c.timeout)
	switch {
	case errors.Is(err, ErrTimeout):
		c.metrics.ObserveTransfer("receive", metrics.ResultTimeout)
	case err != nil:
		c.metrics.ObserveTransfer("receive", metrics.ResultError)
	default:
		c.metrics.ObserveTransfer("receive", metrics.ResultOK)
	}
	return frame, err
}

func (c *Client) decode(frame []byte) (*anemo.Reading, error) {
	r, err := anemo.DecodeFrame(frame)
	if err != nil {
		c.metrics.ObserveDecode("bad_length")
		c.log.Warn("decode frame failed", zap.Binary("raw", frame), zap.Error(err))
		return nil, err
	}
	c.metrics.ObserveDecode(metrics.ResultOK)
	c.log.Debug("frame decoded",
		zap.String("raw", r.RawHex()),
		zap.Float64("primary", r.Primary),
		zap.Float64("secondary", r.Secondary),
		zap.String("settings", anemo.Render(r.Settings, 1)))
	return r, nil
}
