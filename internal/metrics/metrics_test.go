package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAppMetrics_Observe(t *testing.T) {
	reg := NewRegistry()
	m := NewAppMetrics(reg)

	m.ObserveDecode(ResultOK)
	m.ObserveDecode(ResultOK)
	m.ObserveDecode("bad_length")
	m.ObserveTransfer("receive", ResultTimeout)
	m.ObserveRecord()
	m.ObserveSample(1.5, "m/s", 21.3, "deg-C")

	assert.Equal(t, 2.0, testutil.ToFloat64(m.FrameDecodeTotal.WithLabelValues(ResultOK)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.FrameDecodeTotal.WithLabelValues("bad_length")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.TransferTotal.WithLabelValues("receive", ResultTimeout)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.RecordsTotal))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.SamplesTotal))
	assert.Equal(t, 1.5, testutil.ToFloat64(m.PrimaryValue.WithLabelValues("m/s")))
	assert.Equal(t, 21.3, testutil.ToFloat64(m.SecondaryValue.WithLabelValues("deg-C")))

	rr := httptest.NewRecorder()
	Handler(reg).ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rr.Code)
	assert.True(t, strings.Contains(rr.Body.String(), "anemometer_samples_total 1"))
}

func TestAppMetrics_NilSafe(t *testing.T) {
	var m *AppMetrics
	assert.NotPanics(t, func() {
		m.ObserveDecode(ResultOK)
		m.ObserveTransfer("send", ResultError)
		m.ObserveOpen(ResultOK)
		m.ObserveRecord()
		m.ObserveSample(1, "", 2, "deg-F")
	})
}
