package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/pflag"
	"go.uber.org/zap"

	"github.com/taoyao-code/anemometer/internal/app"
	"github.com/taoyao-code/anemometer/internal/output"
	"github.com/taoyao-code/anemometer/internal/protocol/anemo"
)

func main() {
	fs := pflag.NewFlagSet("anemometer-download", pflag.ExitOnError)
	fs.Usage = func() {
		fmt.Fprintln(os.Stderr, "Retrieve recorded data from digital hotwire anemometer")
		fmt.Fprintf(os.Stderr, "usage: %s [flags] [outfile]\n", fs.Name())
		fs.PrintDefaults()
	}
	app.AddCommonFlags(fs)
	fs.BoolP("overwrite", "o", false, "overwrite outfile if exists")
	_ = fs.Parse(os.Args[1:])

	if err := run(fs); err != nil {
		if errors.Is(err, output.ErrExists) {
			os.Exit(-1)
		}
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(fs *pflag.FlagSet) error {
	env, err := app.Setup("anemometer-download", fs, map[string]string{
		"output.overwrite": "overwrite",
	})
	if err != nil {
		return err
	}
	defer env.Close()
	log := env.Log

	if fs.NArg() > 0 {
		env.Config.Output.File = fs.Arg(0)
	}
	path, err := app.CheckOutput(env.Config.Output, os.Stderr)
	if err != nil {
		return err
	}
	if path != "" {
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

	// 设备打开成功后才截断输出文件
	f, err := app.CreateOutput(path)
	if err != nil {
		return err
	}
	if f != nil {
		defer f.Close()
	}

	n, err := client.DownloadRecords(ctx, func(n int, r *anemo.Reading) error {
		fmt.Println(output.RecordLine(n, r))
		if f != nil {
			return f.WriteLine(output.RecordRow(n, r))
		}
		return nil
	})
	if err != nil {
		log.Error("download records failed", zap.Int("records", n), zap.Error(err))
		return err
	}
	log.Info("records downloaded", zap.Int("records", n), zap.String("file", path))
	return nil
}
