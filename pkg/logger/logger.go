package logger

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"syscall"
	"time"

	rotatelogs "github.com/lestrrat-go/file-rotatelogs"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/asgard-driver/pkg/config"
	"github.com/asgard-driver/pkg/goid"
)

type Logger = zap.Logger

// 文件名模式，按天切割
const filePattern = "driver-%Y%m%d.log"

var (
	baseLogger       = zap.NewNop()
	defaultComponent string
	loggerInitOnce   sync.Once
	mu               sync.RWMutex
)

// InitLogger 初始化全局日志（进程内只生效一次）：控制台彩色输出 + 按天切割的文件输出
func InitLogger(cfg *config.ZapLogConfig) (*zap.Logger, error) {
	var err error
	loggerInitOnce.Do(func() {
		level := parseLevel(cfg.Level)

		if err = os.MkdirAll(cfg.Path, 0o755); err != nil {
			return
		}

		maxAge := time.Duration(cfg.MaxAge) * 24 * time.Hour
		writer, wErr := rotatelogs.New(
			filepath.Join(cfg.Path, filePattern),
			rotatelogs.WithMaxAge(maxAge),
			rotatelogs.WithRotationTime(24*time.Hour),
			rotatelogs.WithRotationSize(int64(cfg.MaxSize)*1024*1024),
		)
		if wErr != nil {
			err = wErr
			return
		}

		cores := []zapcore.Core{
			zapcore.NewCore(fileEncoder(cfg.Format), zapcore.AddSync(writer), level),
		}
		if cfg.Console {
			cores = append(cores, zapcore.NewCore(consoleEncoder(), zapcore.AddSync(os.Stdout), level))
		}

		l := zap.New(zapcore.NewTee(cores...), zap.AddCaller(), zap.AddStacktrace(zapcore.ErrorLevel))
		mu.Lock()
		baseLogger = l
		mu.Unlock()
	})
	if err != nil {
		return nil, err
	}
	return GetGlobalLogger(), nil
}

func parseLevel(s string) zapcore.Level {
	switch strings.ToLower(s) {
	case "dbg", "debug":
		return zapcore.DebugLevel
	case "war", "warn":
		return zapcore.WarnLevel
	case "err", "error":
		return zapcore.ErrorLevel
	default:
		return zapcore.InfoLevel
	}
}

const timeLayout = "2006-01-02 15:04:05.000 -07:00"

func consoleEncoder() zapcore.Encoder {
	encCfg := zap.NewDevelopmentEncoderConfig()
	encCfg.ConsoleSeparator = " "
	encCfg.EncodeLevel = zapcore.CapitalColorLevelEncoder
	encCfg.EncodeTime = func(t time.Time, enc zapcore.PrimitiveArrayEncoder) {
		enc.AppendString(fmt.Sprintf("\033[34m%s\033[0m", t.Format(timeLayout)))
	}
	// Caller 两级路径
	encCfg.EncodeCaller = func(c zapcore.EntryCaller, enc zapcore.PrimitiveArrayEncoder) {
		rel := filepath.Join(filepath.Base(filepath.Dir(c.File)), filepath.Base(c.File))
		enc.AppendString(fmt.Sprintf("%s:%d", rel, c.Line))
	}
	return zapcore.NewConsoleEncoder(encCfg)
}

func fileEncoder(format string) zapcore.Encoder {
	encCfg := zap.NewProductionEncoderConfig()
	encCfg.TimeKey = "timestamp"
	encCfg.EncodeTime = zapcore.TimeEncoderOfLayout(timeLayout)
	encCfg.EncodeLevel = zapcore.LowercaseLevelEncoder
	if format == "console" {
		return zapcore.NewConsoleEncoder(encCfg)
	}
	return zapcore.NewJSONEncoder(encCfg)
}

// SetDefaultComponent 设置包级日志函数附带的 component 字段
func SetDefaultComponent(component string) {
	mu.Lock()
	defer mu.Unlock()
	defaultComponent = component
}

func GetDefaultComponent() string {
	mu.RLock()
	defer mu.RUnlock()
	return defaultComponent
}

// GetGlobalLogger 未初始化时返回 Nop logger
func GetGlobalLogger() *zap.Logger {
	mu.RLock()
	defer mu.RUnlock()
	return baseLogger
}

// Named 返回带名称的子 logger，注入给各组件使用
func Named(name string) *zap.Logger {
	return GetGlobalLogger().Named(name)
}

func log(level zapcore.Level, msg string, fields ...zap.Field) {
	l := GetGlobalLogger().WithOptions(zap.AddCallerSkip(2))
	fields = append(fields,
		zap.String("component", GetDefaultComponent()),
		zap.Uint64("goid", goid.GetGID()),
	)
	if ce := l.Check(level, msg); ce != nil {
		ce.Write(fields...)
	}
}

func Debug(msg string, fields ...zap.Field) { log(zapcore.DebugLevel, msg, fields...) }
func Info(msg string, fields ...zap.Field)  { log(zapcore.InfoLevel, msg, fields...) }
func Warn(msg string, fields ...zap.Field)  { log(zapcore.WarnLevel, msg, fields...) }
func Error(msg string, fields ...zap.Field) { log(zapcore.ErrorLevel, msg, fields...) }

// Sync 刷盘；stdout 为终端或管道时 fsync 返回的 EINVAL/ENOTTY 忽略
func Sync() error {
	err := GetGlobalLogger().Sync()
	if err == nil || isIgnorableSyncError(err) {
		return nil
	}
	return err
}

func isIgnorableSyncError(err error) bool {
	return errors.Is(err, syscall.EINVAL) || errors.Is(err, syscall.ENOTTY) || errors.Is(err, syscall.EBADF)
}
