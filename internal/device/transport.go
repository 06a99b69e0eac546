package device

import (
	"context"
	"errors"
	"time"

	"github.com/taoyao-code/anemometer/internal/protocol/anemo"
)

var (
	// ErrDeviceNotFound 未找到指定 VID/PID 的设备
	ErrDeviceNotFound = errors.New("device not found")
	// ErrEndpoint 无法打开输入/输出端点
	ErrEndpoint = errors.New("could not open end-points")
	// ErrTimeout 读超时；记录回传模式下表示记录已读完
	ErrTimeout = errors.New("read timeout")
	// ErrClosed 设备未打开
	ErrClosed = errors.New("device closed")
)

// Transport 设备收发通道（同步请求/应答）
type Transport interface {
	// Send 发送一帧命令
	Send(ctx context.Context, cmd anemo.Command) error
	// Receive 读取一帧响应，超时返回 ErrTimeout
	Receive(ctx context.Context, timeout time.Duration) ([]byte, error)
	// Close 复位并释放设备
	Close() error
}

// Opener 打开设备并返回传输通道
type Opener func(ctx context.Context) (Transport, error)
