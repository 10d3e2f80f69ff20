package monitor

import "github.com/prometheus/client_golang/prometheus"

// ConnectorMetrics 连接器指标
type ConnectorMetrics struct {
	Messages      *prometheus.CounterVec // 发送成功（verb）
	SendErrors    *prometheus.CounterVec // 发送失败（verb）
	ReceiveErrors *prometheus.CounterVec // 应答接收失败（verb）
	State         prometheus.Gauge       // 状态机当前状态
}

// DriverMetrics 采集循环指标
type DriverMetrics struct {
	LastReading  *prometheus.GaugeVec     // 最近读数（source/sensor）
	ReadDuration *prometheus.HistogramVec // 读取耗时（source）
	ReadErrors   *prometheus.CounterVec   // 读取失败（source）
}
