package main

import (
	"fmt"
	"os"

	"github.com/spf13/pflag"
	"go.uber.org/zap"

	"github.com/taoyao-code/anemometer/internal/app"
	"github.com/taoyao-code/anemometer/internal/app/bootstrap"
)

// @title Anemometer API
// @version 1.0
// @description USB 热线风速计采样服务：最近采样、实时读取与健康检查
// @BasePath /
func main() {
	fs := pflag.NewFlagSet("anemometer-server", pflag.ExitOnError)
	registerFlags(fs)
	_ = fs.Parse(os.Args[1:])

	if err := run(fs); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func registerFlags(fs *pflag.FlagSet) {
	app.AddCommonFlags(fs)
	fs.String("addr", ":8080", "http listen address")
	fs.Duration("interval", 0, "sampling interval (default from config)")
}

func run(fs *pflag.FlagSet) error {
	// 1) 加载配置 + 2) 初始化日志与指标
	env, err := app.Setup("anemometer-server", fs, map[string]string{
		"http.addr":        "addr",
		"sampler.interval": "interval",
	})
	if err != nil {
		return err
	}
	// 退出前刷新日志
	defer env.Close()

	// 3) 启动服务直到收到信号
	if err := bootstrap.Run(env); err != nil {
		env.Log.Error("server exited", zap.Error(err))
		return err
	}
	return nil
}
