// bencaospider 中药材数据采集与处理工具
// 支持从多个中医药网站爬取药材数据, 并对爬取结果做标准化和统计。
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/bencaodata/bencaospider/internal/core"
	"github.com/bencaodata/bencaospider/internal/models"
	"github.com/bencaodata/bencaospider/internal/sites"
	"github.com/bencaodata/bencaospider/internal/utils"
)

// version 构建时通过ldflags注入
var version = "1.1.0"

var (
	cfgFile string
	cfg     *core.Config

	flagSite          string
	flagMaxCategories int
	flagMaxHerbs      int
	flagMaxPages      int
	flagStartPage     int
	flagInterval      int
	flagOutputDir     string
)

var rootCmd = &cobra.Command{
	Use:   "bencaospider",
	Short: "中药材数据采集与处理工具",
	Long: `bencaospider 从中医药网站采集药材数据并做标准化处理。

支持的站点:
  zhongyoo  中药查询网 (按功效分类爬取)
  zysj      中医世家《中药学》电子书

不带子命令运行时进入交互式菜单。`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = core.LoadConfig(cfgFile)
		if err != nil {
			return err
		}
		if flagOutputDir != "" {
			cfg.OutputDir = flagOutputDir
		}
		return utils.InitLogger(cfg.LogConfig())
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		return runMenu(signalContext())
	},
}

var crawlCmd = &cobra.Command{
	Use:   "crawl",
	Short: "爬取药材数据",
	Long:  "从指定站点爬取药材数据, 支持限定分类/条目/页数范围和断点续爬。",
	RunE: func(cmd *cobra.Command, args []string) error {
		site := flagSite
		if site == "" {
			site = cfg.Site
		}
		return runCrawl(signalContext(), site, crawlOptionsFromFlags())
	},
}

var processCmd = &cobra.Command{
	Use:   "process [数据文件]",
	Short: "处理已爬取的数据",
	Long:  "对爬取数据做字段标准化并生成统计报告, 不带参数时处理默认站点的输出文件。",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		input := defaultDataFile()
		if len(args) > 0 {
			input = args[0]
		}
		_, err := core.ProcessFile(input)
		return err
	},
}

var categoriesCmd = &cobra.Command{
	Use:   "categories",
	Short: "列出站点的药材分类",
	RunE: func(cmd *cobra.Command, args []string) error {
		site := flagSite
		if site == "" {
			site = cfg.Site
		}
		return listCategories(signalContext(), site)
	},
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "显示版本信息",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("bencaospider v%s\n", version)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "配置文件路径")
	rootCmd.PersistentFlags().StringVarP(&flagSite, "site", "s", "", "站点标识 (zhongyoo/zysj)")
	rootCmd.PersistentFlags().StringVarP(&flagOutputDir, "output", "o", "", "数据输出目录")

	crawlCmd.Flags().IntVar(&flagMaxCategories, "max-categories", 0, "爬取分类数上限, 0表示不限")
	crawlCmd.Flags().IntVar(&flagMaxHerbs, "max-herbs", 0, "每个分类的药材数上限, 0表示不限")
	crawlCmd.Flags().IntVar(&flagMaxPages, "max-pages", 0, "每个分类的翻页数上限, 0表示不限")
	crawlCmd.Flags().IntVar(&flagStartPage, "start-page", 1, "起始页码(断点续爬)")
	crawlCmd.Flags().IntVarP(&flagInterval, "interval", "i", 0, "条目间延时(秒), 0表示使用配置值")

	rootCmd.AddCommand(crawlCmd, processCmd, categoriesCmd, versionCmd)
}

// signalContext 创建随SIGINT/SIGTERM取消的上下文
// 第一次信号触发优雅停止, 第二次直接退出
func signalContext() context.Context {
	ctx, cancel := context.WithCancel(context.Background())

	sigCh := make(chan os.Signal, 2)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		utils.Warn("⏹️ 收到中断信号, 正在保存进度后退出...")
		cancel()
		<-sigCh
		utils.Warn("强制退出")
		os.Exit(1)
	}()
	return ctx
}

func crawlOptionsFromFlags() models.CrawlOptions {
	return models.CrawlOptions{
		MaxCategories: flagMaxCategories,
		MaxHerbs:      flagMaxHerbs,
		MaxPages:      flagMaxPages,
		StartPage:     flagStartPage,
		IntervalSec:   flagInterval,
	}
}

// defaultDataFile 默认站点的数据输出文件路径
func defaultDataFile() string {
	site := flagSite
	if site == "" {
		site = cfg.Site
	}
	return filepath.Join(cfg.OutputDir, site+"_herbal_data.json")
}

// runCrawl 执行爬取并打印报告摘要
func runCrawl(ctx context.Context, siteName string, opts models.CrawlOptions) error {
	crawler, err := core.NewCrawler(cfg, siteName, opts)
	if err != nil {
		return err
	}

	report, err := crawler.Run(ctx)
	if err != nil {
		return err
	}
	if report.Stats.Failed > 0 {
		utils.Warnf("有%d个条目失败, 详见失败报告", report.Stats.Failed)
	}
	return nil
}

// listCategories 打印站点的分类列表
func listCategories(ctx context.Context, siteName string) error {
	site, err := sites.Get(siteName)
	if err != nil {
		return err
	}

	crawler, err := core.NewCrawler(cfg, siteName, models.CrawlOptions{})
	if err != nil {
		return err
	}

	categories, err := crawler.Categories(ctx)
	if err != nil {
		return err
	}

	fmt.Printf("%s 共%d个分类:\n", site.Label(), len(categories))
	for i, cat := range categories {
		fmt.Printf("  %2d. %s\n", i+1, cat.Name)
	}
	return nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "错误: %v\n", err)
		os.Exit(1)
	}
}

// siteOrDefault 解析站点输入, 空值回退到配置默认站点
func siteOrDefault(input string) string {
	input = strings.TrimSpace(input)
	if input == "" {
		return cfg.Site
	}
	return input
}
