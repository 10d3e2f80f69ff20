package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

// Registers 隔离 Prometheus 的具体实现，便于单测替换
type Registers interface {
	prometheus.Registerer
	Register(collector prometheus.Collector) error
}

// promRegistry Prometheus 实现，内部包裹了官方的 *prometheus.Registry
type promRegistry struct {
	registry *prometheus.Registry
}

// NewPromRegistry 创建 Prometheus 指标注册器
func NewPromRegistry(registry *prometheus.Registry) Registers {
	return &promRegistry{registry: registry}
}

// MustRegister 实现 prometheus.Registerer，重复注册直接 panic
func (p *promRegistry) MustRegister(cs ...prometheus.Collector) {
	for _, c := range cs {
		if err := p.registry.Register(c); err != nil {
			panic(err)
		}
	}
}

// Unregister 实现 prometheus.Registerer
func (p *promRegistry) Unregister(c prometheus.Collector) bool {
	return p.registry.Unregister(c)
}

// Register 实现 Registers
func (p *promRegistry) Register(c prometheus.Collector) error {
	return p.registry.Register(c)
}

// InitPromRegistry 创建独立注册器（不注册 Go 运行时指标）和指标工厂
func InitPromRegistry(enableProcess bool) (*prometheus.Registry, *MetricFactory) {
	reg := prometheus.NewRegistry()
	if enableProcess {
		reg.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	}
	return reg, NewMetricFactory(NewPromRegistry(reg))
}
