package config

import (
	"errors"
	"fmt"
	"net"
	"path/filepath"
)

// Validate HTTP服务配置校验，未启用时不校验地址
func (s *ServerConfig) Validate() error {
	if !s.Enable {
		return nil
	}
	if s.Addr == "" {
		return errors.New("server.addr cannot be empty when server.enable is set")
	}
	// 用net包解析地址，验证格式合法性
	if _, err := net.ResolveTCPAddr("tcp", s.Addr); err != nil {
		return fmt.Errorf("server.addr format invalid (expected: :port or ip:port), got %s: %w", s.Addr, err)
	}
	return nil
}

// Validate 数据源配置校验
func (m *MetricConfig) Validate() error {
	// sysfs 文件必须是绝对路径，避免依赖工作目录
	if m.Kind == "thermal" && !filepath.IsAbs(m.ThermalPath) {
		return fmt.Errorf("metric.thermal-path must be absolute, got %q", m.ThermalPath)
	}
	return nil
}
