package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// NewRegistry 创建自定义 Prometheus Registry，并注册常用采集器
func NewRegistry() *prometheus.Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return reg
}

// Handler 返回 Prometheus 指标 HTTP 处理器
func Handler(reg *prometheus.Registry) http.Handler {
	return promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg})
}

// 传输结果标签
const (
	ResultOK      = "ok"
	ResultError   = "error"
	ResultTimeout = "timeout"
)

// AppMetrics 自定义业务指标
// 所有方法允许 nil 接收者，便于测试与命令行工具不启用指标。
type AppMetrics struct {
	FrameDecodeTotal *prometheus.CounterVec // labels: result=ok|bad_length
	TransferTotal    *prometheus.CounterVec // labels: op=send|receive, result=ok|timeout|error
	DeviceOpenTotal  *prometheus.CounterVec // labels: result
	SamplesTotal     prometheus.Counter
	RecordsTotal     prometheus.Counter
	PrimaryValue     *prometheus.GaugeVec // labels: unit
	SecondaryValue   *prometheus.GaugeVec // labels: unit
}

// NewAppMetrics 注册并返回业务指标
func NewAppMetrics(reg prometheus.Registerer) *AppMetrics {
	m := &AppMetrics{
		FrameDecodeTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "anemometer_frame_decode_total",
			Help: "Response frame decode attempts.",
		}, []string{"result"}),
		TransferTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "anemometer_usb_transfer_total",
			Help: "USB endpoint transfers by direction and result.",
		}, []string{"op", "result"}),
		DeviceOpenTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "anemometer_device_open_total",
			Help: "Device open attempts.",
		}, []string{"result"}),
		SamplesTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "anemometer_samples_total",
			Help: "Live samples taken.",
		}),
		RecordsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "anemometer_records_total",
			Help: "Stored records downloaded.",
		}),
		PrimaryValue: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "anemometer_primary_value",
			Help: "Last velocity or flow reading.",
		}, []string{"unit"}),
		SecondaryValue: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "anemometer_secondary_value",
			Help: "Last temperature reading.",
		}, []string{"unit"}),
	}
	reg.MustRegister(m.FrameDecodeTotal, m.TransferTotal, m.DeviceOpenTotal, m.SamplesTotal, m.RecordsTotal, m.PrimaryValue, m.SecondaryValue)
	return m
}

// ObserveDecode 记录一次帧解码
func (m *AppMetrics) ObserveDecode(result string) {
	if m == nil {
		return
	}
	m.FrameDecodeTotal.WithLabelValues(result).Inc()
}

// ObserveTransfer 记录一次端点传输
func (m *AppMetrics) ObserveTransfer(op, result string) {
	if m == nil {
		return
	}
	m.TransferTotal.WithLabelValues(op, result).Inc()
}

// ObserveOpen 记录一次设备打开
func (m *AppMetrics) ObserveOpen(result string) {
	if m == nil {
		return
	}
	m.DeviceOpenTotal.WithLabelValues(result).Inc()
}

// ObserveRecord 记录一条下载的存储记录
func (m *AppMetrics) ObserveRecord() {
	if m == nil {
		return
	}
	m.RecordsTotal.Inc()
}

// ObserveSample 记录一次实时采样及其取值
func (m *AppMetrics) ObserveSample(primary float64, primaryUnit string, secondary float64, secondaryUnit string) {
	if m == nil {
		return
	}
	m.SamplesTotal.Inc()
	m.PrimaryValue.WithLabelValues(primaryUnit).Set(primary)
	m.SecondaryValue.WithLabelValues(secondaryUnit).Set(secondary)
}
