package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Redis 不可达时启动失败：run 返回错误而非直接退出进程，日志已落盘
func TestRun_BootstrapErrorReturned(t *testing.T) {
	dir := t.TempDir()
	logFile := filepath.Join(dir, "server.log")
	cfgFile := filepath.Join(dir, "anemometer.yaml")
	require.NoError(t, os.WriteFile(cfgFile, []byte(`
http:
  addr: "127.0.0.1:0"
logging:
  level: error
  format: json
  file:
    filename: `+logFile+`
redis:
  enabled: true
  addr: 127.0.0.1:1
  dialTimeout: 100ms
`), 0o644))

	fs := pflag.NewFlagSet("anemometer-server", pflag.ContinueOnError)
	registerFlags(fs)
	require.NoError(t, fs.Parse([]string{"-c", cfgFile}))

	err := run(fs)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "redis ping failed")

	b, err := os.ReadFile(logFile)
	require.NoError(t, err)
	assert.Contains(t, string(b), "server exited")
}
