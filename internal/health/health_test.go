package health

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	cfgpkg "github.com/taoyao-code/anemometer/internal/config"
	"github.com/taoyao-code/anemometer/internal/protocol/anemo"
	"github.com/taoyao-code/anemometer/internal/sampler"
	redisstorage "github.com/taoyao-code/anemometer/internal/storage/redis"
)

// mockChecker 模拟检查器
type mockChecker struct {
	name   string
	status Status
}

func (m *mockChecker) Name() string { return m.name }

func (m *mockChecker) Check(context.Context) CheckResult {
	return CheckResult{Status: m.status, Message: "mock"}
}

func TestAggregator(t *testing.T) {
	tests := []struct {
		name    string
		status  []Status
		overall Status
		ready   bool
	}{
		{"全部健康", []Status{StatusHealthy, StatusHealthy}, StatusHealthy, true},
		{"部分降级", []Status{StatusHealthy, StatusDegraded}, StatusDegraded, true},
		{"存在不健康", []Status{StatusDegraded, StatusUnhealthy}, StatusUnhealthy, false},
		{"无检查器", nil, StatusHealthy, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			agg := NewAggregator()
			for i, s := range tt.status {
				agg.AddChecker(&mockChecker{name: string(rune('a' + i)), status: s})
			}
			assert.Equal(t, tt.overall, Overall(agg.CheckAll(context.Background())))
			assert.Equal(t, tt.ready, agg.Ready(context.Background()))
		})
	}
}

type stubReader struct{ err error }

func (r stubReader) GetCurrent(context.Context) (*anemo.Reading, error) {
	if r.err != nil {
		return nil, r.err
	}
	return anemo.DecodeFrame([]byte{0x81, 0, 0, 1, 0, 0, 1, 0})
}

func TestSamplerChecker(t *testing.T) {
	cfg := cfgpkg.SamplerConfig{Number: 1, Interval: time.Minute}

	s := sampler.New(stubReader{}, cfg, sampler.Options{})
	c := NewSamplerChecker(s)
	assert.Equal(t, StatusDegraded, c.Check(context.Background()).Status)

	_, err := s.Run(context.Background())
	require.NoError(t, err)
	res := c.Check(context.Background())
	assert.Equal(t, StatusHealthy, res.Status)
	assert.Equal(t, 1, res.Details["seq"])

	failing := sampler.New(stubReader{err: errors.New("gone")}, cfg, sampler.Options{})
	_, _ = failing.Run(context.Background())
	assert.Equal(t, StatusUnhealthy, NewSamplerChecker(failing).Check(context.Background()).Status)
}

func TestHealthRoute(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	agg := NewAggregator(&mockChecker{"sampler", StatusUnhealthy})
	RegisterHTTPRoutes(r, agg)

	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rr.Code)
	assert.Contains(t, rr.Body.String(), `"sampler"`)
}

func TestRedisChecker_UnreachableDegrades(t *testing.T) {
	rdb := goredis.NewClient(&goredis.Options{Addr: "127.0.0.1:1", DialTimeout: 100 * time.Millisecond, MaxRetries: -1})
	client := &redisstorage.Client{Client: rdb}
	defer client.Close()

	c := NewRedisChecker(client)
	res := c.Check(context.Background())
	assert.Equal(t, "redis", c.Name())
	assert.Equal(t, StatusDegraded, res.Status)
	assert.Contains(t, res.Message, "sample stream unavailable")
	assert.Contains(t, res.Details, "stream")
}

func TestCheckFunc(t *testing.T) {
	state := "closed"
	c := NewCheckFunc("device_circuit", func(context.Context) CheckResult {
		if state != "closed" {
			return CheckResult{Status: StatusDegraded, Message: "circuit " + state}
		}
		return CheckResult{Status: StatusHealthy, Message: "ok"}
	})
	agg := NewAggregator(c)

	assert.Equal(t, "device_circuit", c.Name())
	assert.Equal(t, StatusHealthy, Overall(agg.CheckAll(context.Background())))

	state = "open"
	res := agg.CheckAll(context.Background())["device_circuit"]
	assert.Equal(t, StatusDegraded, res.Status)
	assert.Equal(t, "circuit open", res.Message)
	assert.True(t, agg.Ready(context.Background()))
}
