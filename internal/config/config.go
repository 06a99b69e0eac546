package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// AppConfig 应用基础信息
type AppConfig struct {
	Name string `mapstructure:"name"`
	Env  string `mapstructure:"env"`
}

// DeviceConfig USB 风速计设备配置
type DeviceConfig struct {
	VendorID     int           `mapstructure:"vendorId"`
	ProductID    int           `mapstructure:"productId"`
	Timeout      time.Duration `mapstructure:"timeout"`      // 单次读超时，记录回传时超时即结束
	DetachKernel bool          `mapstructure:"detachKernel"` // 非 Windows 平台卸载 usbhid 驱动

	// 服务模式熔断：连续失败 BreakerThreshold 次后暂停访问设备 BreakerCooldown
	BreakerThreshold int           `mapstructure:"breakerThreshold"`
	BreakerCooldown  time.Duration `mapstructure:"breakerCooldown"`
}

// SamplerConfig 实时采样配置
type SamplerConfig struct {
	Number   int           `mapstructure:"number"`   // 采样次数，0 表示不限
	Interval time.Duration `mapstructure:"interval"` // 采样间隔
}

// OutputConfig CSV 输出配置
type OutputConfig struct {
	File      string `mapstructure:"file"`
	Overwrite bool   `mapstructure:"overwrite"`
}

// HTTPConfig HTTP 服务配置
type HTTPConfig struct {
	Addr         string        `mapstructure:"addr"`
	ReadTimeout  time.Duration `mapstructure:"readTimeout"`
	WriteTimeout time.Duration `mapstructure:"writeTimeout"`
	Swagger      bool          `mapstructure:"swagger"` // 暴露 /swagger 文档
}

// LumberjackConfig 日志滚动（lumberjack）配置
type LumberjackConfig struct {
	Filename   string `mapstructure:"filename"`
	MaxSizeMB  int    `mapstructure:"maxSize"`
	MaxBackups int    `mapstructure:"maxBackups"`
	MaxAgeDays int    `mapstructure:"maxAge"`
	Compress   bool   `mapstructure:"compress"`
}

// LoggingConfig 日志级别与输出配置
type LoggingConfig struct {
	Level  string           `mapstructure:"level"`
	Format string           `mapstructure:"format"`
	File   LumberjackConfig `mapstructure:"file"`
}

// MetricsConfig Prometheus 指标暴露配置
type MetricsConfig struct {
	Enable bool   `mapstructure:"enable"`
	Path   string `mapstructure:"path"`
}

// RedisConfig Redis 采样发布配置
type RedisConfig struct {
	Enabled      bool          `mapstructure:"enabled"`
	Addr         string        `mapstructure:"addr"`
	Password     string        `mapstructure:"password"`
	DB           int           `mapstructure:"db"`
	Stream       string        `mapstructure:"stream"`
	MaxLen       int64         `mapstructure:"maxLen"`
	DialTimeout  time.Duration `mapstructure:"dialTimeout"`
	WriteTimeout time.Duration `mapstructure:"writeTimeout"`
}

// Config 顶层配置结构
type Config struct {
	App     AppConfig     `mapstructure:"app"`
	Device  DeviceConfig  `mapstructure:"device"`
	Sampler SamplerConfig `mapstructure:"sampler"`
	Output  OutputConfig  `mapstructure:"output"`
	HTTP    HTTPConfig    `mapstructure:"http"`
	Logging LoggingConfig `mapstructure:"logging"`
	Metrics MetricsConfig `mapstructure:"metrics"`
	Redis   RedisConfig   `mapstructure:"redis"`
}

// Load 从 YAML/TOML/JSON 文件、环境变量与命令行参数加载配置。
// 若 path 为空，则尝试从环境变量 ANEMO_CONFIG 读取；否则回退到 configs/anemometer.yaml。
// binds 为 配置键 -> 命令行参数名 的绑定，仅绑定 fs 中存在的参数。
func Load(path string, fs *pflag.FlagSet, binds map[string]string) (*Config, error) {
	v := viper.New()

	// 环境变量覆盖：前缀 ANEMO_，并将点号替换为下划线
	v.SetEnvPrefix("ANEMO")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path == "" {
		path = v.GetString("config")
	}

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.AddConfigPath(".")
		v.AddConfigPath("./configs")
		v.SetConfigName("anemometer")
		v.SetConfigType("yaml")
	}

	setDefaults(v)

	if fs != nil {
		for key, name := range binds {
			f := fs.Lookup(name)
			if f == nil {
				continue
			}
			if err := v.BindPFlag(key, f); err != nil {
				return nil, fmt.Errorf("bind flag %s: %w", name, err)
			}
		}
	}

	if err := v.ReadInConfig(); err != nil {
		// 允许缺少配置文件，依赖默认值、环境变量与命令行参数
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate 基本取值校验
func (c *Config) Validate() error {
	if c.Device.VendorID <= 0 || c.Device.VendorID > 0xFFFF {
		return fmt.Errorf("invalid device.vendorId: %#x", c.Device.VendorID)
	}
	if c.Device.ProductID <= 0 || c.Device.ProductID > 0xFFFF {
		return fmt.Errorf("invalid device.productId: %#x", c.Device.ProductID)
	}
	if c.Device.Timeout <= 0 {
		return fmt.Errorf("device.timeout must be positive, got %s", c.Device.Timeout)
	}
	if c.Sampler.Number < 0 {
		return fmt.Errorf("sampler.number must be >= 0, got %d", c.Sampler.Number)
	}
	if c.Sampler.Interval <= 0 {
		return fmt.Errorf("sampler.interval must be positive, got %s", c.Sampler.Interval)
	}
	return nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app.name", "anemometer")
	v.SetDefault("app.env", "dev")

	v.SetDefault("device.vendorId", 0x64BD)
	v.SetDefault("device.productId", 0x74E3)
	v.SetDefault("device.timeout", "100ms")
	v.SetDefault("device.detachKernel", true)
	v.SetDefault("device.breakerThreshold", 5)
	v.SetDefault("device.breakerCooldown", "30s")

	v.SetDefault("sampler.number", 1)
	v.SetDefault("sampler.interval", "1s")

	v.SetDefault("output.file", "")
	v.SetDefault("output.overwrite", false)

	v.SetDefault("http.addr", ":8080")
	v.SetDefault("http.readTimeout", "5s")
	v.SetDefault("http.writeTimeout", "10s")
	v.SetDefault("http.swagger", true)

	// 命令行工具默认仅输出告警到 stderr，不落盘
	v.SetDefault("logging.level", "warn")
	v.SetDefault("logging.format", "console")
	v.SetDefault("logging.file.filename", "")
	v.SetDefault("logging.file.maxSize", 100)
	v.SetDefault("logging.file.maxBackups", 7)
	v.SetDefault("logging.file.maxAge", 30)
	v.SetDefault("logging.file.compress", true)

	v.SetDefault("metrics.enable", true)
	v.SetDefault("metrics.path", "/metrics")

	v.SetDefault("redis.enabled", false)
	v.SetDefault("redis.addr", "localhost:6379")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.stream", "anemometer:samples")
	v.SetDefault("redis.maxLen", 10000)
	v.SetDefault("redis.dialTimeout", "5s")
	v.SetDefault("redis.writeTimeout", "3s")
}
