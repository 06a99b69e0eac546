package output

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

// ErrExists 输出文件已存在且未指定覆盖
var ErrExists = errors.New("output file exists")

// NormalizePath 文件名不含扩展名时补 .csv
func NormalizePath(path string) string {
	if path == "" || strings.Contains(filepath.Base(path), ".") {
		return path
	}
	return path + ".csv"
}

// File 逐行追加的 CSV 文件
// 每行立即写入，进程中断时已写入的行不丢失。
type File struct {
	mu   sync.Mutex
	f    *os.File
	path string
}

// Create 创建（或在 overwrite 时截断）输出文件
func Create(path string, overwrite bool) (*File, error) {
	flags := os.O_WRONLY | os.O_CREATE | os.O_APPEND
	if overwrite {
		flags |= os.O_TRUNC
	} else {
		flags |= os.O_EXCL
	}
	f, err := os.OpenFile(path, flags, 0o644)
	if err != nil {
		if errors.Is(err, os.ErrExist) {
			return nil, fmt.Errorf("%w: %s", ErrExists, path)
		}
		return nil, fmt.Errorf("create %s: %w", path, err)
	}
	return &File{f: f, path: path}, nil
}

// Path 文件路径
func (w *File) Path() string { return w.path }

// WriteLine 追加一行
func (w *File) WriteLine(line string) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if _, err := w.f.WriteString(line + "\n"); err != nil {
		return fmt.Errorf("write %s: %w", w.path, err)
	}
	return nil
}

// Close 关闭文件
func (w *File) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.f.Close()
}
