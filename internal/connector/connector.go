// Package connector 实现驱动与 collector 之间的注册/发送/注销协议状态机。
//
// 连接器独占传输端点和两个远端标识（source id / sensor id），
// 由主 goroutine 驱动；信号处理只负责取消 context，真正的 Shutdown
// 在主流程中执行。
package connector

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/asgard-driver/internal/protocol"
	"github.com/asgard-driver/internal/transport"
	"github.com/asgard-driver/pkg/monitor"
)

var (
	// ErrInvalidState 当前状态不允许该操作
	ErrInvalidState = errors.New("operation not valid in current connector state")
	// ErrSourceNotRegistered 注册 sensor 前必须持有合法的 source id
	ErrSourceNotRegistered = errors.New("source not registered")
	// ErrNotRegistered collector 返回了负数（未注册哨兵）
	ErrNotRegistered = errors.New("collector returned the unregistered sentinel")
	// ErrInvalidToken 名称/类型为空或含空白
	ErrInvalidToken = errors.New("invalid protocol token")
)

// Endpoint 连接器依赖的传输端点
type Endpoint interface {
	Send(msg string) error
	Receive(ctx context.Context) (string, error)
	Close() error
}

// Options 打开连接器所需参数
type Options struct {
	LocalAddr       string
	RemoteAddr      string
	ResponseTimeout time.Duration
}

// Connector 驱动连接器
type Connector struct {
	mu       sync.Mutex
	ep       Endpoint
	log      *zap.Logger
	metrics  *monitor.ConnectorMetrics
	strict   bool
	state    State
	sourceID int
	sensorID int
}

// Option 连接器可选参数
type Option func(*Connector)

// WithMetrics 注入指标
func WithMetrics(m *monitor.ConnectorMetrics) Option {
	return func(c *Connector) { c.metrics = m }
}

// WithStrictResponses 注册应答必须是完整整数，否则返回 protocol.ErrMalformedResponse
func WithStrictResponses(strict bool) Option {
	return func(c *Connector) { c.strict = strict }
}

// Open 打开本地端点（Unopened → Open）。失败时进程无法继续工作。
func Open(opts Options, log *zap.Logger, extra ...Option) (*Connector, error) {
	ep, err := transport.Open(opts.LocalAddr, opts.RemoteAddr,
		transport.WithResponseTimeout(opts.ResponseTimeout))
	if err != nil {
		return nil, err
	}
	log.Info("driver connection opened",
		zap.String("local", opts.LocalAddr),
		zap.String("collector", opts.RemoteAddr),
		zap.Duration("response_timeout", opts.ResponseTimeout))
	return New(ep, log, extra...), nil
}

// New 基于已打开的端点创建连接器，初始状态为 Open
func New(ep Endpoint, log *zap.Logger, opts ...Option) *Connector {
	if log == nil {
		log = zap.NewNop()
	}
	c := &Connector{
		ep:       ep,
		log:      log,
		sourceID: protocol.Unregistered,
		sensorID: protocol.Unregistered,
	}
	for _, opt := range opts {
		opt(c)
	}
	c.setState(StateOpen)
	return c
}

// State 当前状态
func (c *Connector) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// SourceID 当前持有的 source id，未注册时为 -1
func (c *Connector) SourceID() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.sourceID
}

// SensorID 当前持有的 sensor id，未注册时为 -1
func (c *Connector) SensorID() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.sensorID
}

// RegisterSource 发送 REG_SOURCE 并阻塞等待应答（Open → SourceRegistered）
func (c *Connector) RegisterSource(ctx context.Context, name string) (int, error) {
	if !protocol.ValidToken(name) {
		return protocol.Unregistered, fmt.Errorf("%w: source name %q", ErrInvalidToken, name)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state != StateOpen {
		return protocol.Unregistered, fmt.Errorf("%w: register source in state %s", ErrInvalidState, c.state)
	}

	id, err := c.request(ctx, protocol.RegSource(name))
	if err != nil {
		return protocol.Unregistered, fmt.Errorf("register source %s: %w", name, err)
	}
	c.sourceID = id
	c.setState(StateSourceRegistered)
	c.log.Info("source registered", zap.String("name", name), zap.Int("source_id", id))
	return id, nil
}

// RegisterSensor 发送 REG_SENSOR 并阻塞等待应答（SourceRegistered → SensorRegistered）
func (c *Connector) RegisterSensor(ctx context.Context, sourceID int, sensorType, name string) (int, error) {
	if sourceID < 0 {
		return protocol.Unregistered, fmt.Errorf("%w: source id %d", ErrSourceNotRegistered, sourceID)
	}
	if !protocol.ValidToken(sensorType) || !protocol.ValidToken(name) {
		return protocol.Unregistered, fmt.Errorf("%w: sensor %q/%q", ErrInvalidToken, sensorType, name)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state != StateSourceRegistered {
		return protocol.Unregistered, fmt.Errorf("%w: register sensor in state %s", ErrInvalidState, c.state)
	}

	id, err := c.request(ctx, protocol.RegSensor(sourceID, sensorType, name))
	if err != nil {
		return protocol.Unregistered, fmt.Errorf("register sensor %s/%s: %w", sensorType, name, err)
	}
	c.sensorID = id
	c.setState(StateSensorRegistered)
	c.log.Info("sensor registered",
		zap.Int("source_id", sourceID),
		zap.String("type", sensorType),
		zap.String("name", name),
		zap.Int("sensor_id", id))
	return id, nil
}

// request 发送请求并解析整数应答，调用方持有锁
func (c *Connector) request(ctx context.Context, msg string) (int, error) {
	verb := protocol.VerbOf(msg)
	if err := c.send(msg); err != nil {
		return protocol.Unregistered, err
	}

	resp, err := c.ep.Receive(ctx)
	if err != nil {
		if c.metrics != nil {
			c.metrics.ReceiveErrors.WithLabelValues(verb.String()).Inc()
		}
		return protocol.Unregistered, err
	}

	var id int
	if c.strict {
		if id, err = protocol.ParseIDStrict(resp); err != nil {
			return protocol.Unregistered, err
		}
	} else {
		var ok bool
		// 无效应答按 atoi 处理成 0，与合法的 0 无法区分
		if id, ok = protocol.ParseID(resp); !ok {
			c.log.Warn("malformed registration response, using parsed value",
				zap.String("verb", verb.String()),
				zap.String("response", resp),
				zap.Int("id", id))
		}
	}
	if id < 0 {
		return protocol.Unregistered, fmt.Errorf("%w: %d", ErrNotRegistered, id)
	}
	return id, nil
}

// Publish 发送 DATA，不等待应答（SensorRegistered → Publishing）。
// 发送失败返回 transport.ErrSend，对调用方而言不致命。
func (c *Connector) Publish(sourceID, sensorID int, value float64) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.state.Registered() {
		return fmt.Errorf("%w: publish in state %s", ErrInvalidState, c.state)
	}

	if err := c.send(protocol.Data(sourceID, sensorID, value)); err != nil {
		c.log.Warn("publish failed", zap.Float64("value", value), zap.Error(err))
		return err
	}
	c.setState(StatePublishing)
	return nil
}

// Shutdown 尽力而为的注销流程：UNREG_SENSOR → UNREG_SOURCE → 关闭端点（删除本地 socket 文件）。
// 每一步独立执行，错误只记录不返回；重复调用是空操作。
func (c *Connector) Shutdown() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state == StateClosing || c.state == StateClosed || c.ep == nil {
		return
	}
	c.log.Info("stop the driver",
		zap.Int("source_id", c.sourceID),
		zap.Int("sensor_id", c.sensorID))
	c.setState(StateClosing)

	if c.sensorID >= 0 {
		if err := c.send(protocol.UnregSensor(c.sourceID, c.sensorID)); err != nil {
			c.log.Warn("unregister sensor failed", zap.Error(err))
		}
	}
	if c.sourceID >= 0 {
		if err := c.send(protocol.UnregSource(c.sourceID)); err != nil {
			c.log.Warn("unregister source failed", zap.Error(err))
		}
	}
	if err := c.ep.Close(); err != nil {
		c.log.Warn("close endpoint failed", zap.Error(err))
	}

	c.sensorID = protocol.Unregistered
	c.sourceID = protocol.Unregistered
	c.setState(StateClosed)
	c.log.Info("driver connection closed")
}

func (c *Connector) send(msg string) error {
	verb := protocol.VerbOf(msg).String()
	if err := c.ep.Send(msg); err != nil {
		if c.metrics != nil {
			c.metrics.SendErrors.WithLabelValues(verb).Inc()
		}
		return err
	}
	if c.metrics != nil {
		c.metrics.Messages.WithLabelValues(verb).Inc()
	}
	c.log.Debug("message sent", zap.String("message", msg))
	return nil
}

func (c *Connector) setState(s State) {
	c.state = s
	if c.metrics != nil {
		c.metrics.State.Set(float64(s))
	}
}
