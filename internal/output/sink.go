package output

import (
	"context"
	"fmt"
	"io"

	"github.com/taoyao-code/anemometer/internal/sampler"
)

// Console 实时采样控制台输出
type Console struct {
	W io.Writer
}

// Publish 输出一行 LiveLine
func (c Console) Publish(_ context.Context, s sampler.Sample) error {
	_, err := fmt.Fprintln(c.W, LiveLine(s.Time, s.Reading))
	return err
}

// LiveCSV 实时采样 CSV 输出
type LiveCSV struct {
	F *File
}

// Publish 追加一行 LiveRow
func (l LiveCSV) Publish(_ context.Context, s sampler.Sample) error {
	return l.F.WriteLine(LiveRow(s.Time, s.Reading))
}
