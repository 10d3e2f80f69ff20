// Package transport 提供本地无连接、面向消息的通信端点（unix datagram socket），
// 绑定到固定的本地地址，只与一个固定的远端地址（collector）交换文本消息。
package transport

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"net"
	"os"
	"strings"
	"sync"
	"time"

	"golang.org/x/sys/unix"
)

const network = "unixgram"

// MaxMessageSize 单条消息上限（字节）
const MaxMessageSize = 4096

// MaxAddrLen 平台允许的 socket 路径最大长度（sun_path 需要保留结尾 NUL）
var MaxAddrLen = len(unix.RawSockaddrUnix{}.Path) - 1

var (
	ErrEndpointCreate = errors.New("endpoint create failed")
	ErrEndpointBind   = errors.New("endpoint bind failed")
	ErrSend           = errors.New("send failed")
	ErrReceive        = errors.New("receive failed")
	ErrTimeout        = errors.New("receive timed out")
)

// aLongTimeAgo 用于立即唤醒阻塞中的读
var aLongTimeAgo = time.Unix(1, 0)

// Endpoint 本地数据报端点
type Endpoint struct {
	localAddr  string
	remoteAddr *net.UnixAddr
	conn       *net.UnixConn
	timeout    time.Duration

	closeOnce sync.Once
	closeErr  error
}

// Option 端点可选参数
type Option func(*Endpoint)

// WithResponseTimeout 设置 Receive 的超时时间，0 表示一直阻塞
func WithResponseTimeout(d time.Duration) Option {
	return func(e *Endpoint) { e.timeout = d }
}

// Open 创建端点：清理残留的本地 socket 文件后绑定 localAddr。
// socket 创建失败返回 ErrEndpointCreate，其余失败返回 ErrEndpointBind。
func Open(localAddr, remoteAddr string, opts ...Option) (*Endpoint, error) {
	if err := checkAddr(localAddr); err != nil {
		return nil, fmt.Errorf("%w: local address: %w", ErrEndpointBind, err)
	}
	if err := checkAddr(remoteAddr); err != nil {
		return nil, fmt.Errorf("%w: remote address: %w", ErrEndpointBind, err)
	}

	// 上次崩溃可能留下 socket 文件
	if err := os.Remove(localAddr); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%w: remove stale %s: %w", ErrEndpointBind, localAddr, err)
	}

	conn, err := net.ListenUnixgram(network, &net.UnixAddr{Name: localAddr, Net: network})
	if err != nil {
		var se *os.SyscallError
		if errors.As(err, &se) && se.Syscall == "socket" {
			return nil, fmt.Errorf("%w: %w", ErrEndpointCreate, err)
		}
		return nil, fmt.Errorf("%w: %s: %w", ErrEndpointBind, localAddr, err)
	}

	e := &Endpoint{
		localAddr:  localAddr,
		remoteAddr: &net.UnixAddr{Name: remoteAddr, Net: network},
		conn:       conn,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e, nil
}

func checkAddr(addr string) error {
	if addr == "" {
		return errors.New("empty address")
	}
	if len(addr) > MaxAddrLen {
		return fmt.Errorf("address %q exceeds %d bytes", addr, MaxAddrLen)
	}
	return nil
}

// LocalAddr 本地地址
func (e *Endpoint) LocalAddr() string { return e.localAddr }

// RemoteAddr 远端（collector）地址
func (e *Endpoint) RemoteAddr() string { return e.remoteAddr.Name }

// Send 向远端发送一条消息，不等待任何确认
func (e *Endpoint) Send(msg string) error {
	if len(msg) > MaxMessageSize {
		return fmt.Errorf("%w: message of %d bytes exceeds %d", ErrSend, len(msg), MaxMessageSize)
	}
	if _, err := e.conn.WriteToUnix([]byte(msg), e.remoteAddr); err != nil {
		return fmt.Errorf("%w: %w", ErrSend, err)
	}
	return nil
}

// Receive 阻塞直到收到一条消息，去掉结尾的换行/NUL。
// 等待时间受 WithResponseTimeout 和 ctx 共同约束。
func (e *Endpoint) Receive(ctx context.Context) (string, error) {
	var deadline time.Time
	if e.timeout > 0 {
		deadline = time.Now().Add(e.timeout)
	}
	if d, ok := ctx.Deadline(); ok && (deadline.IsZero() || d.Before(deadline)) {
		deadline = d
	}
	if err := e.conn.SetReadDeadline(deadline); err != nil {
		return "", fmt.Errorf("%w: %w", ErrReceive, err)
	}
	stop := context.AfterFunc(ctx, func() {
		_ = e.conn.SetReadDeadline(aLongTimeAgo)
	})
	defer stop()

	buf := make([]byte, MaxMessageSize)
	n, _, err := e.conn.ReadFromUnix(buf)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			if errors.Is(ctxErr, context.DeadlineExceeded) {
				return "", fmt.Errorf("%w: %w", ErrTimeout, ctxErr)
			}
			return "", fmt.Errorf("%w: %w", ErrReceive, ctxErr)
		}
		if errors.Is(err, os.ErrDeadlineExceeded) {
			return "", fmt.Errorf("%w after %s", ErrTimeout, e.timeout)
		}
		return "", fmt.Errorf("%w: %w", ErrReceive, err)
	}
	return strings.TrimRight(string(buf[:n]), "\r\n\x00"), nil
}

// Close 关闭 socket 并删除本地地址文件，可重复调用
func (e *Endpoint) Close() error {
	e.closeOnce.Do(func() {
		if e.conn != nil {
			e.closeErr = e.conn.Close()
		}
		if err := os.Remove(e.localAddr); err != nil && !errors.Is(err, fs.ErrNotExist) && e.closeErr == nil {
			e.closeErr = err
		}
	})
	return e.closeErr
}
