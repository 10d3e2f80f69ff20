package driver

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/asgard-driver/internal/connector"
	"github.com/asgard-driver/internal/driver"
	"github.com/asgard-driver/internal/server"
	"github.com/asgard-driver/internal/source"
	"github.com/asgard-driver/pkg/config"
	"github.com/asgard-driver/pkg/logger"
	"github.com/asgard-driver/pkg/metrics"
	"github.com/asgard-driver/pkg/signal"
	"github.com/asgard-driver/pkg/util"
)

var cfgFile string

var rootCmd = newRootCmd()

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:          "asgard-driver",
		Short:        "System driver that registers with the asgard collector and publishes a sensor reading periodically",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.LoadConfigWithCli(cmd)
			if err != nil {
				// 统一输出错误到 stderr，退出码 1
				fmt.Fprintf(os.Stderr, "Error: %v\n", err)
				fmt.Fprintf(os.Stderr, "check the config file or flags (-c <file>)\n")
				os.Exit(1)
			}
			if err := runDriver(cmd.Context(), cfg); err != nil {
				fmt.Fprintf(os.Stderr, "driver failed: %v\n", err)
				os.Exit(1)
			}
			return nil
		},
	}

	cmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "配置文件路径（为空时只使用默认值/环境变量/flags）")
	// 注册分组 flag
	initDriverFlags(cmd.PersistentFlags())
	initMetricFlags(cmd.PersistentFlags())
	initServerFlags(cmd.PersistentFlags())
	initLogFlags(cmd.PersistentFlags())
	return cmd
}

func Execute() {
	cobra.CheckErr(rootCmd.Execute())
}

func runDriver(ctx context.Context, cfg *config.Config) error {
	if _, err := logger.InitLogger(&cfg.Log); err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer logger.Sync()

	if cfg.Log.Console {
		util.PrintBanner(os.Stdout, "asgard", "cyan")
	}
	logger.SetDefaultComponent("driver")
	logger.Info("configuration loaded",
		zap.String("config", cfgFile),
		zap.String("collector", cfg.Driver.CollectorSocket),
		zap.String("source", cfg.Metric.Kind),
		zap.Duration("interval", cfg.Driver.Interval))

	registry, factory := metrics.InitPromRegistry(cfg.Server.ProcessMetrics)

	src, err := source.New(cfg.Metric)
	if err != nil {
		return err
	}
	if err := src.Init(); err != nil {
		return fmt.Errorf("init metric source %s: %w", src.Name(), err)
	}
	defer src.Close()

	ctx, stop := signal.WithShutdown(ctx, logger.Named("signal"))
	defer stop()

	conn, err := connector.Open(connector.Options{
		LocalAddr:       cfg.Driver.LocalSocket,
		RemoteAddr:      cfg.Driver.CollectorSocket,
		ResponseTimeout: cfg.Driver.ResponseTimeout,
	}, logger.Named("connector"),
		connector.WithMetrics(factory.NewConnectorMetrics()),
		connector.WithStrictResponses(cfg.Driver.StrictResponses))
	if err != nil {
		return fmt.Errorf("open driver endpoint: %w", err)
	}
	// 信号只取消 ctx，注销在这里完成
	defer conn.Shutdown()

	if cfg.Server.Enable {
		httpServer := server.NewHTTPServer(&cfg.Server, logger.Named("http"), registry, conn)
		if err := httpServer.Start(); err != nil {
			return fmt.Errorf("start HTTP server: %w", err)
		}
		defer func() {
			if err := httpServer.Shutdown(); err != nil {
				logger.Warn("HTTP server shutdown failed", zap.Error(err))
			}
		}()
	}

	d := driver.New(conn, src, driver.Config{
		SourceName: cfg.Driver.SourceName,
		SensorType: cfg.Driver.SensorType,
		SensorName: cfg.Driver.SensorName,
		Interval:   cfg.Driver.Interval,
	}, logger.Named("driver"), driver.WithMetrics(factory.NewDriverMetrics()))

	if err := d.Run(ctx); err != nil {
		return err
	}
	logger.Info("driver stopped")
	return nil
}
