package driver

import (
	"github.com/spf13/pflag"

	"github.com/asgard-driver/pkg/config"
)

var defaultCfg = config.NewDefaultConfig()

func initDriverFlags(f *pflag.FlagSet) {
	p := "driver."

	f.String(p+"local-socket", defaultCfg.Driver.LocalSocket, "-> Driver socket path | 本地 socket 路径")
	f.String(p+"collector-socket", defaultCfg.Driver.CollectorSocket, "-> Collector socket path | collector socket 路径")
	f.String(p+"source-name", defaultCfg.Driver.SourceName, "-> Registered source name | 注册的 source 名称")
	f.String(p+"sensor-type", defaultCfg.Driver.SensorType, "-> Registered sensor type | 注册的 sensor 类型")
	f.String(p+"sensor-name", defaultCfg.Driver.SensorName, "-> Registered sensor name | 注册的 sensor 名称")
	f.Duration(p+"interval", defaultCfg.Driver.Interval, "-> Publish interval | 发送间隔")
	f.Duration(p+"response-timeout", defaultCfg.Driver.ResponseTimeout, "-> Registration response timeout, 0 waits forever | 注册应答超时")
	f.Bool(p+"strict-responses", defaultCfg.Driver.StrictResponses, "-> Reject malformed registration responses | 严格解析注册应答")
}

func initMetricFlags(f *pflag.FlagSet) {
	p := "metric."

	f.String(p+"kind", defaultCfg.Metric.Kind, "-> Metric source [thermal,sensors,cpu,load] | 数据源类型")
	f.String(p+"thermal-path", defaultCfg.Metric.ThermalPath, "-> Thermal zone file | sysfs 温度文件")
	f.String(p+"sensor-key", defaultCfg.Metric.SensorKey, "-> Temperature sensor key, empty for the first | 温度传感器 key")
}

func initServerFlags(f *pflag.FlagSet) {
	p := "server."

	f.Bool(p+"enable", defaultCfg.Server.Enable, "-> Serve /metrics and /health | 是否启用HTTP服务")
	f.String(p+"addr", defaultCfg.Server.Addr, "-> HTTP listening address | HTTP监听地址")
	f.Duration(p+"read-timeout", defaultCfg.Server.ReadTimeout, "-> Read timeout duration | 读取超时时间")
	f.Duration(p+"write-timeout", defaultCfg.Server.WriteTimeout, "-> Write timeout duration | 写入超时时间")
	f.Duration(p+"idle-timeout", defaultCfg.Server.IdleTimeout, "-> Idle connection timeout duration | 空闲连接超时时间")
	f.Bool(p+"process-metrics", defaultCfg.Server.ProcessMetrics, "-> Expose process metrics | 是否暴露进程指标")
}

func initLogFlags(f *pflag.FlagSet) {
	p := "log."

	f.String(p+"level", defaultCfg.Log.Level, "-> Log level [debug,info,warn,error] | 日志级别")
	f.String(p+"format", defaultCfg.Log.Format, "-> Log file format [console,json] | 日志格式")
	f.String(p+"path", defaultCfg.Log.Path, "-> Log file directory | 日志路径")
	f.Int(p+"max-size", defaultCfg.Log.MaxSize, "-> Max size of single log file (MB) | 单文件最大MB")
	f.Int(p+"max-age", defaultCfg.Log.MaxAge, "-> Maximum retention days of log files | 保存天数")
	f.Bool(p+"console", defaultCfg.Log.Console, "-> Also log to stdout | 是否同时输出到控制台")
}
