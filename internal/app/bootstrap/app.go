package bootstrap

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/taoyao-code/anemometer/internal/app"
	"github.com/taoyao-code/anemometer/internal/device"
	"github.com/taoyao-code/anemometer/internal/health"
	"github.com/taoyao-code/anemometer/internal/httpserver"
	"github.com/taoyao-code/anemometer/internal/metrics"
	"github.com/taoyao-code/anemometer/internal/sampler"
)

// Run 服务模式启动流程：设备 -> Redis -> 后台采样 -> HTTP
func Run(env *app.Env) error {
	cfg, log := env.Config, env.Log
	log.Info("starting anemometer server",
		zap.String("http", cfg.HTTP.Addr),
		zap.Duration("interval", cfg.Sampler.Interval))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// ========== 阶段1: 打开设备（失败不退出，采样时重试）==========
	client := env.NewGuardedDeviceClient()
	if err := client.Open(ctx); err != nil {
		log.Warn("device not available, will retry on each sample", zap.Error(err))
	}
	defer func() {
		if err := client.Close(); err != nil {
			log.Warn("close device failed", zap.Error(err))
		}
	}()

	// ========== 阶段2: 可选 Redis 发布 ==========
	redisClient, err := app.NewRedisClient(cfg.Redis, log)
	if err != nil {
		log.Error("redis initialization failed", zap.Error(err))
		return err
	}
	var sinks []sampler.Sink
	if redisClient != nil {
		defer redisClient.Close()
		sinks = append(sinks, app.NewSampleStream(redisClient, cfg.Redis, env.RunID))
	}

	// ========== 阶段3: 后台采样（服务模式不限次数）==========
	scfg := cfg.Sampler
	scfg.Number = 0
	smp := sampler.New(client, scfg, sampler.Options{
		ContinueOnError: true,
		Metrics:         env.Metrics,
		Logger:          log,
	}, sinks...)

	healthAgg := health.NewAggregator(health.NewSamplerChecker(smp), deviceCircuitChecker(client))
	app.AddRedisChecker(healthAgg, redisClient)

	// ========== 阶段4: HTTP 服务 ==========
	var metricsHandler http.Handler
	if cfg.Metrics.Enable {
		metricsHandler = metrics.Handler(env.Registry)
	}
	readyFn := func() bool { return healthAgg.Ready(context.Background()) }
	httpSrv := httpserver.New(cfg.HTTP, cfg.Metrics.Path, metricsHandler, readyFn)
	httpSrv.Register(func(r *gin.Engine) {
		health.RegisterHTTPRoutes(r, healthAgg)
		if cfg.HTTP.Swagger {
			httpserver.RegisterSwaggerRoutes(r)
		}
		httpserver.RegisterReadingRoutes(r, httpserver.ReadingSource{
			Latest:  smp.Latest,
			Current: client.GetCurrent,
		})
	})

	go func() {
		if err := httpSrv.Start(); err != nil {
			log.Error("http server error", zap.Error(err))
			stop()
		}
	}()
	log.Info("http server started", zap.String("addr", cfg.HTTP.Addr))

	done := make(chan struct{})
	go func() {
		defer close(done)
		n, err := smp.Run(ctx)
		if err != nil {
			log.Error("sampler stopped", zap.Int("samples", n), zap.Error(err))
			return
		}
		log.Info("sampler stopped", zap.Int("samples", n))
	}()

	// ========== 阶段5: 等待关闭信号 ==========
	<-ctx.Done()
	log.Info("received shutdown signal, gracefully shutting down...")

	sctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = httpSrv.Shutdown(sctx)
	<-done

	log.Info("shutdown complete")
	return nil
}

// deviceCircuitChecker 设备熔断状态：非 closed 时降级
func deviceCircuitChecker(client *device.Client) health.Checker {
	return health.NewCheckFunc("device_circuit", func(context.Context) health.CheckResult {
		b := client.Breaker()
		if b == nil {
			return health.CheckResult{Status: health.StatusHealthy, Message: "no breaker"}
		}
		state := b.State()
		res := health.CheckResult{
			Status:  health.StatusHealthy,
			Message: "ok",
			Details: map[string]interface{}{"state": state.String()},
		}
		if state != device.BreakerClosed {
			res.Status = health.StatusDegraded
			res.Message = "device circuit " + state.String()
		}
		return res
	})
}
