package app

import (
	"fmt"
	"io"
	"os"

	cfgpkg "github.com/taoyao-code/anemometer/internal/config"
	"github.com/taoyao-code/anemometer/internal/output"
)

// CheckOutput 规范化输出路径并检查是否允许写入，提示信息写入 stderr
// 未指定输出文件时返回空路径；文件已存在且未指定覆盖时返回 output.ErrExists。
func CheckOutput(cfg cfgpkg.OutputConfig, stderr io.Writer) (string, error) {
	if cfg.File == "" {
		return "", nil
	}
	path := output.NormalizePath(cfg.File)
	fmt.Fprintf(stderr, "Writing data to %s\n", path)

	if _, err := os.Stat(path); err == nil {
		if !cfg.Overwrite {
			fmt.Fprintln(stderr, "Stop!")
			fmt.Fprintf(stderr, "%s exists but -o/--overwrite not specified...\n", path)
			return "", fmt.Errorf("%w: %s", output.ErrExists, path)
		}
		fmt.Fprintf(stderr, "Existing file %s being overwritten.\n", path)
	}
	return path, nil
}

// CreateOutput 创建输出文件，path 为空时返回 nil
func CreateOutput(path string) (*output.File, error) {
	if path == "" {
		return nil, nil
	}
	return output.Create(path, true)
}
