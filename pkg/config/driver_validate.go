package config

import (
	"fmt"
	"path/filepath"

	"github.com/go-playground/validator/v10"
	"golang.org/x/sys/unix"

	"github.com/asgard-driver/internal/protocol"
)

// maxSockPathLen sun_path 长度减去结尾 NUL
var maxSockPathLen = len(unix.RawSockaddrUnix{}.Path) - 1

// validateSockPath socket 路径非空且不超过平台限制
func validateSockPath(fl validator.FieldLevel) bool {
	p := fl.Field().String()
	return p != "" && len(p) <= maxSockPathLen
}

// validateToken 协议 token 不能为空也不能含空白
func validateToken(fl validator.FieldLevel) bool {
	return protocol.ValidToken(fl.Field().String())
}

// Validate 驱动配置校验（tag 之外的业务规则）
func (d *DriverConfig) Validate() error {
	if err := valid.Struct(d); err != nil {
		return err
	}
	// 本地地址与 collector 地址不能相同，否则驱动会把消息发给自己
	if filepath.Clean(d.LocalSocket) == filepath.Clean(d.CollectorSocket) {
		return fmt.Errorf("driver.local-socket and driver.collector-socket must differ, got %s", d.LocalSocket)
	}
	return nil
}
