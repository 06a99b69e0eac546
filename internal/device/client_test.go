package device

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taoyao-code/anemometer/internal/metrics"
	"github.com/taoyao-code/anemometer/internal/protocol/anemo"
)

// fakeTransport 按顺序回放响应帧，耗尽后返回 ErrTimeout
type fakeTransport struct {
	sent      []anemo.Command
	responses [][]byte
	sendErr   error
	recvErr   error
	closed    int
}

func (f *fakeTransport) Send(_ context.Context, cmd anemo.Command) error {
	if f.sendErr != nil {
		return f.sendErr
	}
	f.sent = append(f.sent, cmd)
	return nil
}

func (f *fakeTransport) Receive(_ context.Context, _ time.Duration) ([]byte, error) {
	if f.recvErr != nil {
		return nil, f.recvErr
	}
	if len(f.responses) == 0 {
		return nil, ErrTimeout
	}
	r := f.responses[0]
	f.responses = f.responses[1:]
	return r, nil
}

func (f *fakeTransport) Close() error {
	f.closed++
	return nil
}

func newTestClient(t *testing.T, ft *fakeTransport) (*Client, *metrics.AppMetrics, *int) {
	t.Helper()
	opens := 0
	m := metrics.NewAppMetrics(prometheus.NewRegistry())
	open := func(context.Context) (Transport, error) {
		opens++
		return ft, nil
	}
	return NewClient(open, 10*time.Millisecond, m, nil), m, &opens
}

var (
	velFrame  = []byte{0xA1, 0x00, 0x00, 0x0F, 0xFF, 0x00, 0xD5, 0xFF}
	flowFrame = []byte{0x20, 0x08, 0x00, 0x64, 0x00, 0x00, 0xC8, 0xFF}
)

func TestClient_GetCurrent_OpensAndCloses(t *testing.T) {
	ft := &fakeTransport{responses: [][]byte{velFrame}}
	c, m, opens := newTestClient(t, ft)

	r, err := c.GetCurrent(context.Background())
	require.NoError(t, err)
	assert.InDelta(t, 1.5, r.Primary, 1e-9)
	assert.InDelta(t, 21.3, r.Secondary, 1e-9)
	assert.Equal(t, "m/s", r.PrimaryUnit())

	assert.Equal(t, []anemo.Command{anemo.ReadCurrent}, ft.sent)
	assert.Equal(t, 1, *opens)
	assert.Equal(t, 1, ft.closed)
	assert.False(t, c.IsOpen())
	assert.Equal(t, 1.0, testutil.ToFloat64(m.FrameDecodeTotal.WithLabelValues(metrics.ResultOK)))
}

func TestClient_GetCurrent_KeepsOpenDevice(t *testing.T) {
	ft := &fakeTransport{responses: [][]byte{velFrame, flowFrame}}
	c, _, opens := newTestClient(t, ft)
	ctx := context.Background()

	require.NoError(t, c.Open(ctx))
	_, err := c.GetCurrent(ctx)
	require.NoError(t, err)
	r, err := c.GetCurrent(ctx)
	require.NoError(t, err)
	assert.Equal(t, "CFM", r.PrimaryUnit())

	assert.Equal(t, 1, *opens)
	assert.Equal(t, 0, ft.closed)
	require.NoError(t, c.Close())
	assert.Equal(t, 1, ft.closed)
}

func TestClient_GetCurrent_Errors(t *testing.T) {
	t.Run("设备不存在", func(t *testing.T) {
		c := NewClient(func(context.Context) (Transport, error) { return nil, ErrDeviceNotFound }, 0, nil, nil)
		_, err := c.GetCurrent(context.Background())
		assert.True(t, errors.Is(err, ErrDeviceNotFound))
	})

	t.Run("短帧", func(t *testing.T) {
		ft := &fakeTransport{responses: [][]byte{{0x80, 0x00, 0x01}}}
		c, m, _ := newTestClient(t, ft)
		_, err := c.GetCurrent(context.Background())
		assert.True(t, errors.Is(err, anemo.ErrBadLength))
		assert.Equal(t, 1.0, testutil.ToFloat64(m.FrameDecodeTotal.WithLabelValues("bad_length")))
	})

	t.Run("实时读取超时", func(t *testing.T) {
		ft := &fakeTransport{}
		c, m, _ := newTestClient(t, ft)
		_, err := c.GetCurrent(context.Background())
		assert.True(t, errors.Is(err, ErrTimeout))
		assert.Equal(t, 1.0, testutil.ToFloat64(m.TransferTotal.WithLabelValues("receive", metrics.ResultTimeout)))
	})

	t.Run("发送失败", func(t *testing.T) {
		ft := &fakeTransport{sendErr: errors.New("pipe")}
		c, _, _ := newTestClient(t, ft)
		_, err := c.GetCurrent(context.Background())
		assert.Error(t, err)
		assert.Equal(t, 1, ft.closed)
	})
}

func TestClient_DownloadRecords(t *testing.T) {
	ft := &fakeTransport{responses: [][]byte{velFrame, flowFrame, velFrame}}
	c, m, _ := newTestClient(t, ft)

	var got []int
	n, err := c.DownloadRecords(context.Background(), func(i int, r *anemo.Reading) error {
		got = append(got, i)
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 3, n)
	assert.Equal(t, []int{1, 2, 3}, got)
	assert.Equal(t, []anemo.Command{anemo.ReadRecordsStart}, ft.sent)
	assert.True(t, c.IsOpen())
	assert.Equal(t, 3.0, testutil.ToFloat64(m.RecordsTotal))
}

func TestClient_DownloadRecords_Empty(t *testing.T) {
	ft := &fakeTransport{}
	c, _, _ := newTestClient(t, ft)

	n, err := c.DownloadRecords(context.Background(), func(int, *anemo.Reading) error {
		t.Fatal("unexpected record")
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 0, n)
}

func TestClient_DownloadRecords_CallbackError(t *testing.T) {
	ft := &fakeTransport{responses: [][]byte{velFrame, velFrame}}
	c, _, _ := newTestClient(t, ft)
	stop := errors.New("disk full")

	n, err := c.DownloadRecords(context.Background(), func(int, *anemo.Reading) error { return stop })
	assert.ErrorIs(t, err, stop)
	assert.Equal(t, 1, n)
}

func TestClient_NextRecord_NotOpen(t *testing.T) {
	c, _, _ := newTestClient(t, &fakeTransport{})
	_, ok, err := c.NextRecord(context.Background())
	assert.False(t, ok)
	assert.ErrorIs(t, err, ErrClosed)
}

func TestClient_NextRecord_TransportError(t *testing.T) {
	ft := &fakeTransport{recvErr: errors.New("io")}
	c, _, _ := newTestClient(t, ft)
	require.NoError(t, c.OpenRecords(context.Background()))

	_, ok, err := c.NextRecord(context.Background())
	assert.False(t, ok)
	assert.Error(t, err)
}

func TestClient_GetCurrent_Breaker(t *testing.T) {
	opens := 0
	c := NewClient(func(context.Context) (Transport, error) {
		opens++
		return nil, ErrDeviceNotFound
	}, 0, nil, nil)
	c.SetBreaker(NewBreaker(2, time.Hour))

	for i := 0; i < 2; i++ {
		_, err := c.GetCurrent(context.Background())
		assert.ErrorIs(t, err, ErrDeviceNotFound)
	}
	_, err := c.GetCurrent(context.Background())
	assert.ErrorIs(t, err, ErrCircuitOpen)
	assert.Equal(t, 2, opens, "熔断后不再尝试打开设备")
}

func TestClient_GetCurrent_ReopensAfterTransferFailure(t *testing.T) {
	dead := &fakeTransport{sendErr: errors.New("libusb: no device")}
	healthy := &fakeTransport{responses: [][]byte{velFrame}}
	opens := 0
	current := Transport(dead)
	c := NewClient(func(context.Context) (Transport, error) {
		opens++
		return current, nil
	}, 0, nil, nil)
	ctx := context.Background()

	require.NoError(t, c.Open(ctx))
	_, err := c.GetCurrent(ctx)
	assert.Error(t, err)
	assert.False(t, c.IsOpen(), "传输失败后应释放句柄")
	assert.Equal(t, 1, dead.closed)

	// 设备重新插入
	current = healthy
	r, err := c.GetCurrent(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1.5, r.Primary)
	assert.Equal(t, 2, opens)
}

func TestClient_GetCurrent_KeepsHandleOnTimeout(t *testing.T) {
	ft := &fakeTransport{}
	c, _, _ := newTestClient(t, ft)
	ctx := context.Background()

	require.NoError(t, c.Open(ctx))
	_, err := c.GetCurrent(ctx)
	assert.ErrorIs(t, err, ErrTimeout)
	assert.True(t, c.IsOpen())
	assert.Equal(t, 0, ft.closed)
}

func TestClient_GetCurrent_BreakerRecoversAfterReplug(t *testing.T) {
	dead := &fakeTransport{recvErr: errors.New("libusb: no device")}
	healthy := &fakeTransport{responses: [][]byte{velFrame}}
	opens := 0
	current := Transport(dead)
	c := NewClient(func(context.Context) (Transport, error) {
		opens++
		return current, nil
	}, 0, nil, nil)

	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	b := NewBreaker(2, time.Second)
	b.now = func() time.Time { return now }
	c.SetBreaker(b)
	ctx := context.Background()

	require.NoError(t, c.Open(ctx))
	for i := 0; i < 2; i++ {
		_, err := c.GetCurrent(ctx)
		assert.Error(t, err)
	}
	assert.Equal(t, BreakerOpen, b.State())
	assert.Same(t, b, c.Breaker())

	current = healthy
	now = now.Add(2 * time.Second)
	r, err := c.GetCurrent(ctx)
	require.NoError(t, err)
	assert.Equal(t, "m/s", r.PrimaryUnit())
	assert.Equal(t, BreakerClosed, b.State())
	assert.Equal(t, 3, opens)
}

func TestClient_Open_FailureRetriesOnRead(t *testing.T) {
	ft := &fakeTransport{responses: [][]byte{velFrame, flowFrame}}
	opens := 0
	c := NewClient(func(context.Context) (Transport, error) {
		opens++
		if opens == 1 {
			return nil, ErrDeviceNotFound
		}
		return ft, nil
	}, 0, nil, nil)
	ctx := context.Background()

	assert.ErrorIs(t, c.Open(ctx), ErrDeviceNotFound)
	for i := 0; i < 2; i++ {
		_, err := c.GetCurrent(ctx)
		require.NoError(t, err)
	}
	assert.Equal(t, 2, opens, "重新打开后保持打开")
	assert.True(t, c.IsOpen())
	require.NoError(t, c.Close())
	assert.False(t, c.IsOpen())
}
