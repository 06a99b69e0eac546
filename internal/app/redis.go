package app

import (
	cfgpkg "github.com/taoyao-code/anemometer/internal/config"
	"github.com/taoyao-code/anemometer/internal/health"
	redisstorage "github.com/taoyao-code/anemometer/internal/storage/redis"
	"go.uber.org/zap"
)

// NewRedisClient 创建Redis客户端，未启用时返回 nil
func NewRedisClient(cfg cfgpkg.RedisConfig, logger *zap.Logger) (*redisstorage.Client, error) {
	if !cfg.Enabled {
		logger.Debug("redis is disabled, skipping initialization")
		return nil, nil
	}

	client, err := redisstorage.NewClient(cfg)
	if err != nil {
		return nil, err
	}

	logger.Info("redis client initialized",
		zap.String("addr", cfg.Addr),
		zap.String("stream", cfg.Stream))

	return client, nil
}

// NewSampleStream 创建采样发布器
func NewSampleStream(client *redisstorage.Client, cfg cfgpkg.RedisConfig, runID string) *redisstorage.SampleStream {
	return redisstorage.NewSampleStream(client, cfg.Stream, cfg.MaxLen, runID)
}

// AddRedisChecker 添加Redis检查器到聚合器
func AddRedisChecker(aggregator *health.Aggregator, redisClient *redisstorage.Client) {
	if redisClient != nil {
		aggregator.AddChecker(health.NewRedisChecker(redisClient))
	}
}
