// Package source 提供驱动发送的数据来源（sysfs 温度、gopsutil 传感器/CPU/负载）。
package source

import (
	"fmt"

	"github.com/spf13/afero"

	"github.com/asgard-driver/pkg/config"
)

const (
	KindThermal = "thermal"
	KindSensors = "sensors"
	KindCPU     = "cpu"
	KindLoad    = "load"
)

// Source 数据源接口（生命周期与采集器一致）
type Source interface {
	Name() string           // 数据源名称，用作指标标签
	Init() error            // 预检查
	Read() (float64, error) // 读取一个数值；出错时也返回可发送的值
	Close() error           // 释放资源
}

// New 按配置创建数据源
func New(cfg config.MetricConfig) (Source, error) {
	switch cfg.Kind {
	case KindThermal:
		return NewThermal(afero.NewOsFs(), cfg.ThermalPath), nil
	case KindSensors:
		return NewSensors(cfg.SensorKey), nil
	case KindCPU:
		return NewCPU(), nil
	case KindLoad:
		return NewLoad(), nil
	default:
		return nil, fmt.Errorf("unknown metric source kind %q", cfg.Kind)
	}
}
