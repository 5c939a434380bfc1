package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"http-sniffer/infrastructure/config"
	"http-sniffer/infrastructure/logging"
)

var (
	configPath string

	// configManager 在 PersistentPreRunE 中初始化，子命令共享
	configManager *config.Manager

	rootCmd = &cobra.Command{
		Use:   "http-sniffer",
		Short: "Observe HTTP traffic as readable request and response traces.",
		Long: `http-sniffer taps outgoing HTTP exchanges and prints each one as a
request block and a response block, with bodies decoded by content type
(JSON, HTML, form data, multipart, images and plain text).

Use "fetch" to trace a single request or "proxy" to trace everything that
passes through a local forward proxy.`,
		SilenceUsage:       true,
		PersistentPreRunE:  initApp,
		PersistentPostRunE: shutdownApp,
	}
)

// Execute runs the root command until it finishes or a termination signal arrives.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	if err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(
		&configPath,
		"config",
		"c",
		"",
		fmt.Sprintf("配置文件路径 (默认尝试 %s)", config.DefaultPath))

	rootCmd.AddCommand(newFetchCmd(), newProxyCmd(), newVersionCmd())
}

func initApp(cmd *cobra.Command, _ []string) error {
	mgr, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("加载配置失败: %w", err)
	}
	configManager = mgr

	if err := logging.Init(mgr.Get()); err != nil {
		return fmt.Errorf("初始化日志失败: %w", err)
	}
	config.LoggingConfigChangedFunc = logging.Reload
	return nil
}

func shutdownApp(*cobra.Command, []string) error {
	if configManager != nil {
		configManager.StopWatch()
	}
	return logging.Shutdown()
}
