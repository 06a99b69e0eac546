package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/fxamacker/cbor/v2"
	"github.com/spf13/pflag"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/taoyao-code/anemometer/internal/app"
	"github.com/taoyao-code/anemometer/internal/output"
	"github.com/taoyao-code/anemometer/internal/protocol/anemo"
)

func main() {
	fs := pflag.NewFlagSet("anemometer", pflag.ExitOnError)
	app.AddCommonFlags(fs)
	format := fs.StringP("format", "f", "text", "current reading format: text|yaml|json|cbor")
	noRecords := fs.Bool("no-records", false, "skip stored record retrieval")
	_ = fs.Parse(os.Args[1:])

	if err := run(fs, *format, *noRecords); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(fs *pflag.FlagSet, format string, noRecords bool) error {
	env, err := app.Setup("anemometer", fs, nil)
	if err != nil {
		return err
	}
	defer env.Close()
	log := env.Log

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 1) 读取实时值（临时打开设备）
	client := env.NewDeviceClient()
	r, err := client.GetCurrent(ctx)
	if err != nil {
		log.Error("read current failed", zap.Error(err))
		return err
	}
	if err := printReading(r, format); err != nil {
		return err
	}
	if noRecords {
		return nil
	}

	// 2) 回传存储记录
	fmt.Println("\nRetrieving records...")
	defer func() {
		if err := client.Close(); err != nil {
			log.Warn("close device failed", zap.Error(err))
		}
	}()
	n, err := client.DownloadRecords(ctx, func(n int, r *anemo.Reading) error {
		fmt.Println(output.ProbeRecordLine(n, r))
		return nil
	})
	if err != nil {
		log.Error("retrieve records failed", zap.Int("records", n), zap.Error(err))
		return err
	}
	log.Info("records retrieved", zap.Int("records", n))
	return nil
}

func printReading(r *anemo.Reading, format string) error {
	switch format {
	case "yaml":
		b, err := yaml.Marshal(r)
		if err != nil {
			return fmt.Errorf("marshal yaml: %w", err)
		}
		fmt.Print(string(b))
	case "json":
		b, err := json.MarshalIndent(r, "", "  ")
		if err != nil {
			return fmt.Errorf("marshal json: %w", err)
		}
		fmt.Println(string(b))
	case "cbor":
		b, err := cbor.Marshal(r)
		if err != nil {
			return fmt.Errorf("marshal cbor: %w", err)
		}
		if _, err := os.Stdout.Write(b); err != nil {
			return err
		}
	default:
		fmt.Println(output.ProbeLine(r))
	}
	return nil
}
