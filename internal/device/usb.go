package device

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"sort"
	"time"

	"github.com/google/gousb"
	"go.uber.org/zap"

	cfgpkg "github.com/taoyao-code/anemometer/internal/config"
	"github.com/taoyao-code/anemometer/internal/protocol/anemo"
)

// USBTransport 基于 libusb 的设备通道
type USBTransport struct {
	ctx  *gousb.Context
	dev  *gousb.Device
	cfg  *gousb.Config
	intf *gousb.Interface
	out  *gousb.OutEndpoint
	in   *gousb.InEndpoint
	log  *zap.Logger
}

// NewUSBOpener 返回按配置打开 USB 设备的 Opener
func NewUSBOpener(cfg cfgpkg.DeviceConfig, log *zap.Logger) Opener {
	return func(ctx context.Context) (Transport, error) {
		return OpenUSB(cfg, log)
	}
}

// OpenUSB 查找设备、卸载内核驱动、选择首个配置的接口0，并定位首个 OUT/IN 端点
func OpenUSB(cfg cfgpkg.DeviceConfig, log *zap.Logger) (*USBTransport, error) {
	if log == nil {
		log = zap.NewNop()
	}
	uctx := gousb.NewContext()
	t := &USBTransport{ctx: uctx, log: log}

	dev, err := uctx.OpenDeviceWithVIDPID(gousb.ID(cfg.VendorID), gousb.ID(cfg.ProductID))
	if err != nil {
		t.release()
		return nil, fmt.Errorf("open %04x:%04x: %w", cfg.VendorID, cfg.ProductID, err)
	}
	if dev == nil {
		t.release()
		return nil, fmt.Errorf("%w: %04x:%04x", ErrDeviceNotFound, cfg.VendorID, cfg.ProductID)
	}
	t.dev = dev

	// Windows 下无 usbhid 可卸载
	if cfg.DetachKernel && runtime.GOOS != "windows" {
		if err := dev.SetAutoDetach(true); err != nil {
			log.Warn("auto detach kernel driver failed", zap.Error(err))
		}
	}

	cfgNum, err := firstConfig(dev.Desc)
	if err != nil {
		t.release()
		return nil, err
	}
	c, err := dev.Config(cfgNum)
	if err != nil {
		t.release()
		return nil, fmt.Errorf("set configuration %d: %w", cfgNum, err)
	}
	t.cfg = c

	intf, err := c.Interface(0, 0)
	if err != nil {
		t.release()
		return nil, fmt.Errorf("%w: claim interface: %v", ErrEndpoint, err)
	}
	t.intf = intf

	outNum, inNum, ok := findEndpoints(intf.Setting.Endpoints)
	if !ok {
		t.release()
		return nil, ErrEndpoint
	}
	if t.out, err = intf.OutEndpoint(outNum); err != nil {
		t.release()
		return nil, fmt.Errorf("%w: out %d: %v", ErrEndpoint, outNum, err)
	}
	if t.in, err = intf.InEndpoint(inNum); err != nil {
		t.release()
		return nil, fmt.Errorf("%w: in %d: %v", ErrEndpoint, inNum, err)
	}

	log.Debug("usb device opened",
		zap.Int("config", cfgNum),
		zap.Int("ep_out", outNum),
		zap.Int("ep_in", inNum))
	return t, nil
}

// firstConfig 取编号最小的配置
func firstConfig(desc *gousb.DeviceDesc) (int, error) {
	if desc == nil || len(desc.Configs) == 0 {
		return 0, fmt.Errorf("%w: no configuration", ErrEndpoint)
	}
	nums := make([]int, 0, len(desc.Configs))
	for n := range desc.Configs {
		nums = append(nums, n)
	}
	sort.Ints(nums)
	return nums[0], nil
}

// findEndpoints 按地址顺序取首个 OUT 与首个 IN 端点
func findEndpoints(eps map[gousb.EndpointAddress]gousb.EndpointDesc) (out, in int, ok bool) {
	addrs := make([]int, 0, len(eps))
	for a := range eps {
		addrs = append(addrs, int(a))
	}
	sort.Ints(addrs)

	out, in = -1, -1
	for _, a := range addrs {
		d := eps[gousb.EndpointAddress(a)]
		if d.Direction == gousb.EndpointDirectionOut && out < 0 {
			out = d.Number
		}
		if d.Direction == gousb.EndpointDirectionIn && in < 0 {
			in = d.Number
		}
	}
	return out, in, out >= 0 && in >= 0
}

// Send 写 OUT 端点
func (t *USBTransport) Send(ctx context.Context, cmd anemo.Command) error {
	if t.out == nil {
		return ErrClosed
	}
	if _, err := t.out.WriteContext(ctx, cmd.Bytes()); err != nil {
		return fmt.Errorf("write %s: %w", cmd, err)
	}
	return nil
}

// Receive 读 IN 端点，超时映射为 ErrTimeout
func (t *USBTransport) Receive(ctx context.Context, timeout time.Duration) ([]byte, error) {
	if t.in == nil {
		return nil, ErrClosed
	}
	size := t.in.Desc.MaxPacketSize
	if size < anemo.FrameLen {
		size = anemo.FrameLen
	}
	buf := make([]byte, size)

	rctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	n, err := t.in.ReadContext(rctx, buf)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		if rctx.Err() != nil || isTimeout(err) {
			return nil, ErrTimeout
		}
		return nil, fmt.Errorf("read: %w", err)
	}
	return buf[:n], nil
}

func isTimeout(err error) bool {
	return errors.Is(err, gousb.ErrorTimeout)
}

// Close 复位设备并释放资源；设备已拔出时忽略复位错误
func (t *USBTransport) Close() error {
	var err error
	if t.dev != nil {
		if rerr := t.dev.Reset(); rerr != nil && !errors.Is(rerr, gousb.ErrorNoDevice) {
			err = fmt.Errorf("reset: %w", rerr)
		}
	}
	t.release()
	return err
}

func (t *USBTransport) release() {
	if t.intf != nil {
		t.intf.Close()
		t.intf = nil
	}
	if t.cfg != nil {
		if err := t.cfg.Close(); err != nil {
			t.log.Debug("close usb config", zap.Error(err))
		}
		t.cfg = nil
	}
	if t.dev != nil {
		if err := t.dev.Close(); err != nil {
			t.log.Debug("close usb device", zap.Error(err))
		}
		t.dev = nil
	}
	if t.ctx != nil {
		_ = t.ctx.Close()
		t.ctx = nil
	}
	t.out, t.in = nil, nil
}
