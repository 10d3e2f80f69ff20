package metrics

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/asgard-driver/pkg/monitor"
)

const namespace = "asgard_driver"

// MetricFactory 指标工厂，统一创建并注册指标
type MetricFactory struct {
	reg Registers
}

// NewMetricFactory 创建指标工厂
func NewMetricFactory(reg Registers) *MetricFactory {
	return &MetricFactory{reg: reg}
}

// NewMessagesTotal 按动词统计成功发送的协议消息
func (m *MetricFactory) NewMessagesTotal() *prometheus.CounterVec {
	c := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "messages_total",
		Help:      "Protocol messages sent to the collector, by verb",
	}, []string{"verb"})
	m.reg.MustRegister(c)
	return c
}

// NewSendErrorsTotal 按动词统计发送失败
func (m *MetricFactory) NewSendErrorsTotal() *prometheus.CounterVec {
	c := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "send_errors_total",
		Help:      "Protocol messages that could not be sent, by verb",
	}, []string{"verb"})
	m.reg.MustRegister(c)
	return c
}

// NewReceiveErrorsTotal 注册应答接收失败（含超时）
func (m *MetricFactory) NewReceiveErrorsTotal() *prometheus.CounterVec {
	c := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "receive_errors_total",
		Help:      "Registration responses that could not be received, by request verb",
	}, []string{"verb"})
	m.reg.MustRegister(c)
	return c
}

// NewState 连接器状态机当前状态（数值见 connector.State）
func (m *MetricFactory) NewState() prometheus.Gauge {
	g := prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "state",
		Help:      "Current connector state (0=unopened .. 6=closed)",
	})
	m.reg.MustRegister(g)
	return g
}

// NewLastReading 最近一次发送的读数
func (m *MetricFactory) NewLastReading() *prometheus.GaugeVec {
	g := prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "last_reading",
		Help:      "Last value read from the metric source",
	}, []string{"source", "sensor"})
	m.reg.MustRegister(g)
	return g
}

// NewReadDurationSeconds 数据源读取耗时
func (m *MetricFactory) NewReadDurationSeconds() *prometheus.HistogramVec {
	h := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "read_duration_seconds",
		Help:      "Metric source read duration",
		Buckets:   prometheus.ExponentialBuckets(0.0001, 4, 8),
	}, []string{"source"})
	m.reg.MustRegister(h)
	return h
}

// NewReadErrorsTotal 数据源读取失败次数
func (m *MetricFactory) NewReadErrorsTotal() *prometheus.CounterVec {
	c := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "read_errors_total",
		Help:      "Metric source read failures",
	}, []string{"source"})
	m.reg.MustRegister(c)
	return c
}

// NewConnectorMetrics 连接器使用的指标集合
func (m *MetricFactory) NewConnectorMetrics() *monitor.ConnectorMetrics {
	return &monitor.ConnectorMetrics{
		Messages:      m.NewMessagesTotal(),
		SendErrors:    m.NewSendErrorsTotal(),
		ReceiveErrors: m.NewReceiveErrorsTotal(),
		State:         m.NewState(),
	}
}

// NewDriverMetrics 采集循环使用的指标集合
func (m *MetricFactory) NewDriverMetrics() *monitor.DriverMetrics {
	return &monitor.DriverMetrics{
		LastReading:  m.NewLastReading(),
		ReadDuration: m.NewReadDurationSeconds(),
		ReadErrors:   m.NewReadErrorsTotal(),
	}
}
