package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/go-viper/mapstructure/v2"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// EnvPrefix 环境变量前缀（ASGARD_DRIVER_INTERVAL -> driver.interval）
const EnvPrefix = "ASGARD"

var valid = newValidator()

// Config 全局配置结构体
type Config struct {
	Driver DriverConfig `yaml:"driver" mapstructure:"driver" comment:"驱动/协议配置"`
	Metric MetricConfig `yaml:"metric" mapstructure:"metric" comment:"采集数据源配置"`
	Server ServerConfig `yaml:"server" mapstructure:"server" comment:"HTTP指标服务配置"`
	Log    ZapLogConfig `yaml:"log" mapstructure:"log" comment:"日志配置"`
}

// DriverConfig 驱动连接 collector 的配置
type DriverConfig struct {
	LocalSocket     string        `yaml:"local-socket" mapstructure:"local-socket" validate:"sockpath" comment:"本地 socket 路径"`
	CollectorSocket string        `yaml:"collector-socket" mapstructure:"collector-socket" validate:"sockpath" comment:"collector socket 路径"`
	SourceName      string        `yaml:"source-name" mapstructure:"source-name" validate:"token" comment:"注册的 source 名称"`
	SensorType      string        `yaml:"sensor-type" mapstructure:"sensor-type" validate:"token" comment:"注册的 sensor 类型"`
	SensorName      string        `yaml:"sensor-name" mapstructure:"sensor-name" validate:"token" comment:"注册的 sensor 名称"`
	Interval        time.Duration `yaml:"interval" mapstructure:"interval" validate:"required,gte=100ms,lte=1h" comment:"发送间隔（如5s）"`
	ResponseTimeout time.Duration `yaml:"response-timeout" mapstructure:"response-timeout" validate:"gte=0" comment:"注册应答超时，0 表示一直等待"`
	StrictResponses bool          `yaml:"strict-responses" mapstructure:"strict-responses" comment:"注册应答必须是合法整数"`
}

// MetricConfig 采集数据源配置
type MetricConfig struct {
	Kind        string `yaml:"kind" mapstructure:"kind" validate:"required,oneof=thermal sensors cpu load" comment:"数据源类型"`
	ThermalPath string `yaml:"thermal-path" mapstructure:"thermal-path" validate:"required_if=Kind thermal" comment:"sysfs 温度文件"`
	SensorKey   string `yaml:"sensor-key" mapstructure:"sensor-key" comment:"gopsutil 温度传感器 key，空表示第一个"`
}

// ServerConfig HTTP服务配置（/metrics、/health）
type ServerConfig struct {
	Enable         bool          `yaml:"enable" mapstructure:"enable" comment:"是否启用HTTP服务"`
	Addr           string        `yaml:"addr" mapstructure:"addr" validate:"omitempty,hostname_port" comment:"HTTP监听地址（格式：ip:port）"`
	ReadTimeout    time.Duration `yaml:"read-timeout" mapstructure:"read-timeout" validate:"gt=0" comment:"读取超时时间"`
	WriteTimeout   time.Duration `yaml:"write-timeout" mapstructure:"write-timeout" validate:"gt=0" comment:"写入超时时间"`
	IdleTimeout    time.Duration `yaml:"idle-timeout" mapstructure:"idle-timeout" validate:"gt=0" comment:"空闲连接超时时间"`
	ProcessMetrics bool          `yaml:"process-metrics" mapstructure:"process-metrics" comment:"是否暴露进程指标"`
}

// ZapLogConfig 日志配置
type ZapLogConfig struct {
	Level   string `yaml:"level" mapstructure:"level" validate:"required,oneof=debug info warn error" comment:"日志级别"`
	Format  string `yaml:"format" mapstructure:"format" validate:"required,oneof=json console" comment:"文件日志格式（json/console）"`
	Path    string `yaml:"path" mapstructure:"path" validate:"required" comment:"日志存储目录"`
	MaxSize int    `yaml:"max-size" mapstructure:"max-size" validate:"gt=0" comment:"单个日志文件最大大小（MB）"`
	MaxAge  int    `yaml:"max-age" mapstructure:"max-age" validate:"gt=0" comment:"日志文件最大保存天数"`
	Console bool   `yaml:"console" mapstructure:"console" comment:"是否同时输出到控制台"`
}

// NewDefaultConfig 默认配置，与参考驱动的常量一致
func NewDefaultConfig() *Config {
	return &Config{
		Driver: DriverConfig{
			LocalSocket:     "/tmp/asgard_system_socket",
			CollectorSocket: "/tmp/asgard_socket",
			SourceName:      "system",
			SensorType:      "TEMPERATURE",
			SensorName:      "cpu",
			Interval:        5 * time.Second,
		},
		Metric: MetricConfig{
			Kind:        "thermal",
			ThermalPath: "/sys/class/thermal/thermal_zone0/temp",
		},
		Server: ServerConfig{
			Enable:       false,
			Addr:         "127.0.0.1:9109",
			ReadTimeout:  5 * time.Second,
			WriteTimeout: 10 * time.Second,
			IdleTimeout:  15 * time.Second,
		},
		Log: ZapLogConfig{
			Level:   "info",
			Format:  "json",
			Path:    "./logs",
			MaxSize: 100,
			MaxAge:  7,
			Console: true,
		},
	}
}

// LoadConfigWithCli 加载配置（优先级：Flags > ENV > YAML > 默认值）
func LoadConfigWithCli(cmd *cobra.Command) (*Config, error) {
	cfg := NewDefaultConfig()
	v := viper.New()

	// 1. 绑定 Cobra Flags → Viper
	if err := v.BindPFlags(cmd.Flags()); err != nil {
		return nil, fmt.Errorf("bind flags: %w", err)
	}

	// 2. 解析配置文件 (--config)
	configFile, _ := cmd.Flags().GetString("config")
	if configFile != "" {
		v.SetConfigFile(configFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config file %s: %w", configFile, err)
		}
	}

	// 3. 环境变量 ASGARD_DRIVER_LOCAL_SOCKET -> driver.local-socket
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	// 4. 反序列化到结构体（支持 time.Duration）
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           cfg,
		WeaklyTypedInput: true,
		DecodeHook: mapstructure.ComposeDecodeHookFunc(
			mapstructure.StringToTimeDurationHookFunc(),
			mapstructure.StringToSliceHookFunc(","),
		),
	})
	if err != nil {
		return nil, fmt.Errorf("new decoder: %w", err)
	}
	if err := decoder.Decode(v.AllSettings()); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}

	// 5. 校验配置
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return cfg, nil
}

// Validate 配置校验
func (c *Config) Validate() error {
	if err := valid.Struct(c); err != nil {
		return err
	}
	if err := c.Driver.Validate(); err != nil {
		return err
	}
	if err := c.Metric.Validate(); err != nil {
		return err
	}
	if err := c.Server.Validate(); err != nil {
		return err
	}
	if err := c.Log.Validate(); err != nil {
		return err
	}
	return nil
}

func newValidator() *validator.Validate {
	v := validator.New()
	// 注册失败只可能是编程错误
	if err := v.RegisterValidation("sockpath", validateSockPath); err != nil {
		panic(err)
	}
	if err := v.RegisterValidation("token", validateToken); err != nil {
		panic(err)
	}
	return v
}
