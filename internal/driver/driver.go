// Package driver 实现驱动主循环：注册 source/sensor 后周期性读取数据并发送给 collector。
package driver

import (
	"context"
	"fmt"
	"time"

	"github.com/jonboulle/clockwork"
	"go.uber.org/zap"

	"github.com/asgard-driver/internal/source"
	"github.com/asgard-driver/pkg/monitor"
)

// Publisher 主循环依赖的连接器能力
type Publisher interface {
	RegisterSource(ctx context.Context, name string) (int, error)
	RegisterSensor(ctx context.Context, sourceID int, sensorType, name string) (int, error)
	Publish(sourceID, sensorID int, value float64) error
}

// Config 主循环参数
type Config struct {
	SourceName string
	SensorType string
	SensorName string
	Interval   time.Duration
}

// Driver 驱动主循环
type Driver struct {
	conn    Publisher
	src     source.Source
	cfg     Config
	clock   clockwork.Clock
	log     *zap.Logger
	metrics *monitor.DriverMetrics

	sourceID int
	sensorID int
}

// Option 主循环可选参数
type Option func(*Driver)

// WithClock 替换时钟（测试使用 fake clock）
func WithClock(c clockwork.Clock) Option {
	return func(d *Driver) { d.clock = c }
}

// WithMetrics 注入读数指标
func WithMetrics(m *monitor.DriverMetrics) Option {
	return func(d *Driver) { d.metrics = m }
}

func New(conn Publisher, src source.Source, cfg Config, log *zap.Logger, opts ...Option) *Driver {
	if log == nil {
		log = zap.NewNop()
	}
	d := &Driver{
		conn:  conn,
		src:   src,
		cfg:   cfg,
		clock: clockwork.NewRealClock(),
		log:   log,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Run 注册后进入 读取 → 发送 → 等待 循环，直到 ctx 结束。
// 注册失败返回错误；ctx 取消（包括注册期间）返回 nil。
// Run 不负责注销，调用方在返回后执行 Shutdown。
func (d *Driver) Run(ctx context.Context) error {
	if err := d.register(ctx); err != nil {
		if ctx.Err() != nil {
			d.log.Info("registration interrupted", zap.Error(err))
			return nil
		}
		return err
	}

	d.log.Info("driver loop started",
		zap.String("source", d.src.Name()),
		zap.Duration("interval", d.cfg.Interval))
	for {
		d.tick()
		select {
		case <-ctx.Done():
			d.log.Info("driver loop stopped", zap.Error(ctx.Err()))
			return nil
		case <-d.clock.After(d.cfg.Interval):
		}
	}
}

func (d *Driver) register(ctx context.Context) error {
	src, err := d.conn.RegisterSource(ctx, d.cfg.SourceName)
	if err != nil {
		return fmt.Errorf("registration failed: %w", err)
	}
	sen, err := d.conn.RegisterSensor(ctx, src, d.cfg.SensorType, d.cfg.SensorName)
	if err != nil {
		return fmt.Errorf("registration failed: %w", err)
	}
	d.sourceID, d.sensorID = src, sen
	return nil
}

// tick 读取失败时仍发送读到的值（通常为 0）
func (d *Driver) tick() {
	start := d.clock.Now()
	value, err := d.src.Read()
	if d.metrics != nil {
		d.metrics.ReadDuration.WithLabelValues(d.src.Name()).Observe(d.clock.Since(start).Seconds())
	}
	if err != nil {
		d.log.Warn("read metric failed", zap.String("source", d.src.Name()), zap.Error(err))
		if d.metrics != nil {
			d.metrics.ReadErrors.WithLabelValues(d.src.Name()).Inc()
		}
	}

	if err := d.conn.Publish(d.sourceID, d.sensorID, value); err != nil {
		d.log.Warn("publish failed, retry next interval", zap.Error(err))
		return
	}
	if d.metrics != nil {
		d.metrics.LastReading.WithLabelValues(d.cfg.SourceName, d.cfg.SensorName).Set(value)
	}
	d.log.Debug("value published", zap.Float64("value", value))
}
