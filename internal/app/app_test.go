package app

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	cfgpkg "github.com/taoyao-code/anemometer/internal/config"
	"github.com/taoyao-code/anemometer/internal/output"
)

func TestCheckOutput(t *testing.T) {
	dir := t.TempDir()
	existing := filepath.Join(dir, "old.csv")
	require.NoError(t, os.WriteFile(existing, []byte("x\n"), 0o644))

	t.Run("未指定文件", func(t *testing.T) {
		var buf bytes.Buffer
		path, err := CheckOutput(cfgpkg.OutputConfig{}, &buf)
		require.NoError(t, err)
		assert.Empty(t, path)
		assert.Empty(t, buf.String())
	})

	t.Run("补全扩展名", func(t *testing.T) {
		var buf bytes.Buffer
		path, err := CheckOutput(cfgpkg.OutputConfig{File: filepath.Join(dir, "new")}, &buf)
		require.NoError(t, err)
		assert.Equal(t, filepath.Join(dir, "new.csv"), path)
		assert.Equal(t, "Writing data to "+path+"\n", buf.String())
	})

	t.Run("已存在未覆盖", func(t *testing.T) {
		var buf bytes.Buffer
		_, err := CheckOutput(cfgpkg.OutputConfig{File: existing}, &buf)
		assert.ErrorIs(t, err, output.ErrExists)
		assert.Contains(t, buf.String(), "Stop!\n")
		assert.Contains(t, buf.String(), "-o/--overwrite not specified")
	})

	t.Run("已存在覆盖", func(t *testing.T) {
		var buf bytes.Buffer
		path, err := CheckOutput(cfgpkg.OutputConfig{File: existing, Overwrite: true}, &buf)
		require.NoError(t, err)
		assert.Contains(t, buf.String(), "being overwritten")

		f, err := CreateOutput(path)
		require.NoError(t, err)
		require.NoError(t, f.Close())
		b, _ := os.ReadFile(existing)
		assert.Empty(t, b)
	})
}

func TestCreateOutput_Empty(t *testing.T) {
	f, err := CreateOutput("")
	assert.NoError(t, err)
	assert.Nil(t, f)
}

func TestGenerateRunID(t *testing.T) {
	id := GenerateRunID("anemometer-log")
	assert.True(t, strings.HasPrefix(id, "anemometer-log-"))

	t.Setenv("ANEMO_RUN_ID", "fixed")
	assert.Equal(t, "fixed", GenerateRunID("x"))
}

func TestSetup(t *testing.T) {
	cfgPath := filepath.Join(t.TempDir(), "a.yaml")
	require.NoError(t, os.WriteFile(cfgPath, []byte("sampler:\n  number: 4\n"), 0o644))

	fs := pflag.NewFlagSet("t", pflag.ContinueOnError)
	AddCommonFlags(fs)
	fs.IntP("number", "n", 1, "")
	require.NoError(t, fs.Parse([]string{"-c", cfgPath, "--log-level", "error"}))

	env, err := Setup("anemometer-test", fs, map[string]string{"sampler.number": "number"})
	require.NoError(t, err)
	defer env.Close()

	assert.Equal(t, 4, env.Config.Sampler.Number)
	assert.Equal(t, "error", env.Config.Logging.Level)
	assert.NotEmpty(t, env.RunID)
	assert.NotNil(t, env.Metrics)
	assert.NotNil(t, env.NewDeviceClient())
	assert.NotNil(t, env.NewGuardedDeviceClient())
}
