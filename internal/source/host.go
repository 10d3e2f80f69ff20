package source

import (
	"errors"
	"fmt"
	"time"

	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/host"
	"github.com/shirou/gopsutil/v3/load"
)

var errNoSensor = errors.New("no temperature sensor available")

// Sensors 通过 gopsutil 读取主机温度传感器
type Sensors struct {
	key   string
	temps func() ([]host.TemperatureStat, error)
}

// NewSensors key 为空时取第一个传感器
func NewSensors(key string) *Sensors {
	return &Sensors{key: key, temps: host.SensorsTemperatures}
}

func (s *Sensors) Name() string { return KindSensors }

func (s *Sensors) Init() error {
	_, err := s.Read()
	return err
}

func (s *Sensors) Read() (float64, error) {
	stats, err := s.temps()
	// 部分传感器失败时 gopsutil 仍返回可用结果
	if err != nil && len(stats) == 0 {
		return 0, fmt.Errorf("get sensors temperatures failed: %w", err)
	}
	for _, st := range stats {
		if s.key == "" || st.SensorKey == s.key {
			return st.Temperature, nil
		}
	}
	if s.key != "" {
		return 0, fmt.Errorf("%w: key %q", errNoSensor, s.key)
	}
	return 0, errNoSensor
}

func (s *Sensors) Close() error { return nil }

// CPU 整机 CPU 使用率（百分比）
type CPU struct {
	percent func(time.Duration, bool) ([]float64, error)
}

func NewCPU() *CPU {
	return &CPU{percent: cpu.Percent}
}

func (c *CPU) Name() string { return KindCPU }

// Init 预检查并建立第一次采样基线
func (c *CPU) Init() error {
	if _, err := c.percent(0, false); err != nil {
		return fmt.Errorf("get cpu usage failed: %w", err)
	}
	return nil
}

func (c *CPU) Read() (float64, error) {
	usage, err := c.percent(0, false)
	if err != nil {
		return 0, fmt.Errorf("get cpu usage failed: %w", err)
	}
	if len(usage) == 0 {
		return 0, errors.New("get cpu usage failed: empty result")
	}
	return usage[0], nil
}

func (c *CPU) Close() error { return nil }

// Load 1 分钟平均负载
type Load struct {
	avg func() (*load.AvgStat, error)
}

func NewLoad() *Load {
	return &Load{avg: load.Avg}
}

func (l *Load) Name() string { return KindLoad }

func (l *Load) Init() error {
	_, err := l.Read()
	return err
}

func (l *Load) Read() (float64, error) {
	st, err := l.avg()
	if err != nil {
		return 0, fmt.Errorf("get load average failed: %w", err)
	}
	return st.Load1, nil
}

func (l *Load) Close() error { return nil }
