package redis

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/taoyao-code/anemometer/internal/protocol/anemo"
	"github.com/taoyao-code/anemometer/internal/sampler"
)

// SampleStream 将实时采样写入 Redis Stream（XADD，近似裁剪到 MaxLen）
type SampleStream struct {
	client *Client
	stream string
	maxLen int64
	runID  string
}

// NewSampleStream 创建采样流发布器
func NewSampleStream(client *Client, stream string, maxLen int64, runID string) *SampleStream {
	return &SampleStream{client: client, stream: stream, maxLen: maxLen, runID: runID}
}

// Publish 实现 sampler.Sink
func (s *SampleStream) Publish(ctx context.Context, sm sampler.Sample) error {
	if err := s.client.XAdd(ctx, s.args(sm)).Err(); err != nil {
		return fmt.Errorf("xadd %s: %w", s.stream, err)
	}
	return nil
}

func (s *SampleStream) args(sm sampler.Sample) *redis.XAddArgs {
	r := sm.Reading
	return &redis.XAddArgs{
		Stream: s.stream,
		MaxLen: s.maxLen,
		Approx: s.maxLen > 0,
		Values: map[string]interface{}{
			"run_id":         s.runID,
			"seq":            sm.Seq,
			"ts":             sm.Time.Format(time.RFC3339Nano),
			"primary":        strconv.FormatFloat(r.Primary, 'g', -1, 64),
			"primary_unit":   r.PrimaryUnit(),
			"secondary":      strconv.FormatFloat(r.Secondary, 'g', -1, 64),
			"secondary_unit": r.SecondaryUnit(),
			"settings":       anemo.Render(r.Settings, 1),
			"raw":            r.RawHex(),
		},
	}
}
