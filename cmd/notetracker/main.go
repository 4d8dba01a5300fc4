package main

import (
	"fmt"
	"os"

	"github.com/RecoveryAshes/NoteTracker/internal/config"
	"github.com/RecoveryAshes/NoteTracker/internal/utils"
	"github.com/spf13/cobra"
)

var (
	Version   = "dev"
	BuildTime = "unknown"
)

// 命令行参数
var (
	// 全局参数
	configFile string
	verbose    bool
	logLevel   string

	// 额外请求头
	headers []string

	// appConfig 在 PersistentPreRunE 中加载
	appConfig *config.Config
)

// skipConfigAnnotation 标记不需要加载配置的子命令
const skipConfigAnnotation = "skip-config"

var rootCmd = &cobra.Command{
	Use:   "notetracker",
	Short: "note.com 付费文章销量追踪工具",
	Long: `NoteTracker - note.com 付费文章发现与销量追踪工具

按关键词搜索 note.com 的付费文章, 抓取标题、作者、价格、点赞、
标签以及"过去24小时内有购买"标记, 并发送到 Google Apps Script 接收端。

常用命令:
  # 生成配置文件
  notetracker init

  # 按今天的轮换关键词执行一次
  notetracker run

  # 指定关键词, 只打印不发送
  notetracker run -k 副業 -k 占い --dry-run

  # 检查追踪表中的文章
  notetracker track

  # 常驻并按cron表达式定时执行
  notetracker schedule

版本: ` + Version + `
构建时间: ` + BuildTime,
	Version:       Version,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if cmd.Annotations[skipConfigAnnotation] == "true" {
			return nil
		}

		cfg, err := config.LoadConfig(configFile)
		if err != nil {
			return fmt.Errorf("加载配置失败: %w", err)
		}

		// 命令行参数覆盖配置文件
		logConfig := cfg.LogConfig()
		if logLevel != "" {
			logConfig.Level = logLevel
		}
		if verbose {
			logConfig.Level = "debug"
		}

		if err := utils.InitLogger(logConfig); err != nil {
			return fmt.Errorf("初始化日志系统失败: %w", err)
		}
		if verbose {
			utils.Info("详细模式已启用")
		}

		if err := cfg.Validate(); err != nil {
			return err
		}

		appConfig = cfg
		return nil
	},
}

var versionCmd = &cobra.Command{
	Use:         "version",
	Short:       "显示版本信息",
	Annotations: map[string]string{skipConfigAnnotation: "true"},
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("NoteTracker %s\n", Version)
		fmt.Printf("构建时间: %s\n", BuildTime)
	},
}

var initCmd = &cobra.Command{
	Use:         "init",
	Short:       "生成默认配置文件",
	Annotations: map[string]string{skipConfigAnnotation: "true"},
	RunE: func(cmd *cobra.Command, args []string) error {
		path := configFile
		if path == "" {
			path = config.DefaultConfigFile
		}

		created, err := config.EnsureConfigExists(path)
		if err != nil {
			return err
		}
		if created {
			fmt.Printf("✅ 已生成配置文件: %s\n", path)
		} else {
			fmt.Printf("配置文件已存在, 未覆盖: %s\n", path)
		}
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "", "配置文件路径 (默认查找 ./configs/config.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "详细输出模式")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "日志级别 (trace|debug|info|warn|error)")
	rootCmd.PersistentFlags().StringSliceVarP(&headers, "header", "H", []string{}, "额外请求头,格式: 'Name: Value',可多次指定")

	rootCmd.AddCommand(versionCmd, initCmd, runCmd, inspectCmd, trackCmd, scheduleCmd, validateCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "错误: %v\n", err)
		os.Exit(1)
	}
}
