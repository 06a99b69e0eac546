package app

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/pflag"
	"go.uber.org/zap"

	cfgpkg "github.com/taoyao-code/anemometer/internal/config"
	"github.com/taoyao-code/anemometer/internal/device"
	"github.com/taoyao-code/anemometer/internal/logging"
	"github.com/taoyao-code/anemometer/internal/metrics"
)

// Env 可执行程序公共运行环境
type Env struct {
	Name     string
	Config   *cfgpkg.Config
	Log      *zap.Logger
	RunID    string
	Registry *prometheus.Registry
	Metrics  *metrics.AppMetrics
}

// AddCommonFlags 注册各程序通用参数
func AddCommonFlags(fs *pflag.FlagSet) {
	fs.StringP("config", "c", "", "config file (default ./configs/anemometer.yaml, env ANEMO_CONFIG)")
	fs.String("log-level", "", "log level: debug|info|warn|error")
}

// Setup 加载配置、初始化日志与指标
// binds 为 配置键 -> 参数名，通用参数自动绑定。
func Setup(name string, fs *pflag.FlagSet, binds map[string]string) (*Env, error) {
	all := map[string]string{"logging.level": "log-level"}
	for k, v := range binds {
		all[k] = v
	}
	path, _ := fs.GetString("config")

	cfg, err := cfgpkg.Load(path, fs, all)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	logger, err := logging.InitLogger(cfg.Logging)
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}
	runID := GenerateRunID(name)
	logger = logger.With(zap.String("app", name), zap.String("run_id", runID))
	zap.ReplaceGlobals(logger)

	reg, appm := NewMetrics()
	return &Env{
		Name:     name,
		Config:   cfg,
		Log:      logger,
		RunID:    runID,
		Registry: reg,
		Metrics:  appm,
	}, nil
}

// NewDeviceClient 按配置创建 USB 设备客户端
func (e *Env) NewDeviceClient() *device.Client {
	return device.NewClient(device.NewUSBOpener(e.Config.Device, e.Log), e.Config.Device.Timeout, e.Metrics, e.Log)
}

// NewGuardedDeviceClient 带熔断的设备客户端，服务模式长期轮询时使用
func (e *Env) NewGuardedDeviceClient() *device.Client {
	c := e.NewDeviceClient()
	b := device.NewBreaker(e.Config.Device.BreakerThreshold, e.Config.Device.BreakerCooldown)
	b.OnStateChange = func(from, to device.BreakerState) {
		e.Log.Warn("device circuit state changed",
			zap.String("from", from.String()),
			zap.String("to", to.String()))
	}
	c.SetBreaker(b)
	return c
}

// Close 刷新日志
func (e *Env) Close() {
	_ = e.Log.Sync()
}
