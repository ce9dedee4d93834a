package cmd

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"proposal-core/pkg/logger"
)

var (
	verbose bool
	network string
)

// rootCmd 代表基础命令，没有子命令时直接调用
var rootCmd = &cobra.Command{
	Use:   "proposal-cli",
	Short: "社区提案命令行工具",
	Long: `直接连接 Flow 接入节点提交、查询和关闭社区提案。
配置读取顺序与服务端一致: config.yaml → 环境变量 (FLOW_PRIVATE_KEY 等)。`,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		if verbose {
			logger.Init("development")
		}
	},
	SilenceUsage: true,
}

// Execute 将所有子命令添加到根命令并设置标志
func Execute() {
	defer logger.Sync()
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "输出调试日志")
	rootCmd.PersistentFlags().StringVar(&network, "network", "", "覆盖配置中的网络 (testnet|mainnet|emulator)")
}

func printJSON(v any) error {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(b))
	return nil
}
