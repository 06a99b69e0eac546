package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/pflag"
	"go.uber.org/zap"

	"github.com/taoyao-code/anemometer/internal/app"
	"github.com/taoyao-code/anemometer/internal/output"
	"github.com/taoyao-code/anemometer/internal/sampler"
)

func main() {
	fs := pflag.NewFlagSet("anemometer-log", pflag.ExitOnError)
	fs.Usage = func() {
		fmt.Fprintln(os.Stderr, "Retrieve realtime data from digital hotwire anemometer")
		fmt.Fprintf(os.Stderr, "usage: %s [flags] [outfile]\n", fs.Name())
		fs.PrintDefaults()
	}
	app.AddCommonFlags(fs)
	fs.BoolP("overwrite", "o", false, "overwrite outfile if exists")
	fs.IntP("number", "n", 1, "number of samples to retrieve (0 for infinity)")
	interval := fs.IntP("interval", "i", 1, "sampling interval in sec")
	_ = fs.Parse(os.Args[1:])

	if err := run(fs, *interval); err != nil {
		if errors.Is(err, output.ErrExists) {
			os.Exit(-1)
		}
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(fs *pflag.FlagSet, intervalSec int) error {
	env, err := app.Setup("anemometer-log", fs, map[string]string{
		"output.overwrite": "overwrite",
		"sampler.number":   "number",
	})
	if err != nil {
		return err
	}
	defer env.Close()
	cfg, log := env.Config, env.Log

	if fs.NArg() > 0 {
		cfg.Output.File = fs.Arg(0)
	}
	if fs.Changed("interval") {
		if intervalSec <= 0 {
			return fmt.Errorf("interval must be positive, got %d", intervalSec)
		}
		cfg.Sampler.Interval = time.Duration(intervalSec) * time.Second
	}

	path, err := app.CheckOutput(cfg.Output, os.Stderr)
	if err != nil {
		return err
	}
	lastMsg := path != ""
	if cfg.Sampler.Number == 0 {
		lastMsg = true
		fmt.Fprintln(os.Stderr, "Infinity number specified. Use Ctrl+C to stop.")
	}
	if lastMsg {
		fmt.Fprintln(os.Stderr)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	client := env.NewDeviceClient()
	if err := client.Open(ctx); err != nil {
		log.Error("open device failed", zap.Error(err))
		return err
	}
	defer func() {
		if err := client.Close(); err != nil {
			log.Warn("close device failed", zap.Error(err))
		}
	}()

	sinks := []sampler.Sink{output.Console{W: os.Stdout}}
	f, err := app.CreateOutput(path)
	if err != nil {
		return err
	}
	if f != nil {
		defer f.Close()
		sinks = append(sinks, output.LiveCSV{F: f})
	}

	redisClient, err := app.NewRedisClient(cfg.Redis, log)
	if err != nil {
		log.Error("redis initialization failed", zap.Error(err))
		return err
	}
	if redisClient != nil {
		defer redisClient.Close()
		sinks = append(sinks, app.NewSampleStream(redisClient, cfg.Redis, env.RunID))
	}

	smp := sampler.New(client, cfg.Sampler, sampler.Options{Metrics: env.Metrics, Logger: log}, sinks...)
	n, err := smp.Run(ctx)
	if ctx.Err() != nil {
		fmt.Fprintln(os.Stderr, "Ctrl+C")
	}
	if err != nil {
		log.Error("sampling failed", zap.Int("samples", n), zap.Error(err))
		return err
	}
	log.Info("sampling finished", zap.Int("samples", n), zap.String("file", path))
	return nil
}
