package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/RecoveryAshes/NoteTracker/internal/config"
	"github.com/RecoveryAshes/NoteTracker/internal/core"
	"github.com/RecoveryAshes/NoteTracker/internal/crawlers"
	"github.com/RecoveryAshes/NoteTracker/internal/metrics"
	"github.com/RecoveryAshes/NoteTracker/internal/models"
	"github.com/RecoveryAshes/NoteTracker/internal/notify"
	"github.com/RecoveryAshes/NoteTracker/internal/sink"
	"github.com/RecoveryAshes/NoteTracker/internal/utils"
	"github.com/spf13/cobra"
)

// run 子命令参数
var (
	runKeywords     []string
	runKeywordsFile string
	runDryRun       bool
	inspectStatic   bool
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "按关键词发现并抓取付费文章",
	Long: `按关键词发现并抓取付费文章, 发送到接收端。

未指定 --keyword / --keywords-file 时使用配置文件中的关键词,
并按 split_days 进行星期轮换; 手动指定的关键词不参与轮换。`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		if err := ValidateRunFlags(runKeywords, runKeywordsFile); err != nil {
			return err
		}

		keywords, total, err := resolveKeywords(appConfig, runKeywords, runKeywordsFile, time.Now().In(location(appConfig)))
		if err != nil {
			return err
		}

		_, err = runScrape(ctx, appConfig, keywords, total, appConfig.DryRun || runDryRun)
		return err
	},
}

var inspectCmd = &cobra.Command{
	Use:   "inspect <article-url>",
	Short: "抓取单篇文章并以JSON输出",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		articleURL, err := ValidateArticleURL(args[0])
		if err != nil {
			return err
		}

		record, err := inspectArticle(ctx, appConfig, articleURL, inspectStatic)
		if err != nil {
			return err
		}

		data, err := record.ToJSON()
		if err != nil {
			return err
		}
		fmt.Println(string(data))
		return nil
	},
}

func init() {
	runCmd.Flags().StringSliceVarP(&runKeywords, "keyword", "k", []string{}, "指定关键词,可多次指定 (跳过轮换)")
	runCmd.Flags().StringVarP(&runKeywordsFile, "keywords-file", "f", "", "关键词文件,每行一个 (跳过轮换)")
	runCmd.Flags().BoolVar(&runDryRun, "dry-run", false, "只打印结果,不发送到接收端")

	inspectCmd.Flags().BoolVar(&inspectStatic, "static", false, "不启动浏览器,用静态HTML抽取 (24小时购买标记可能缺失)")
}

// runScrape 启动浏览器并执行一次完整运行
func runScrape(ctx context.Context, cfg *config.Config, keywords []string, total int, dryRun bool) (*models.RunReport, error) {
	notifier := notify.NewSlackNotifier(cfg.Notify.WebhookURL, time.Duration(cfg.Notify.TimeoutSec)*time.Second)

	var recordSink core.RecordSink
	if !dryRun {
		if cfg.Sink.URL == "" {
			return nil, fmt.Errorf("未配置接收端: 请设置 %s 或 sink.url, 或使用 --dry-run", config.EnvSinkURL)
		}
		recordSink = sink.NewClient(cfg.Sink.URL, time.Duration(cfg.Sink.TimeoutSec)*time.Second)
	}

	if len(keywords) == 0 {
		utils.Info("[skip] 今天没有需要处理的关键词")
		return nil, nil
	}

	sess, err := openSession(cfg)
	if err != nil {
		_ = notifier.Critical(ctx, err.Error())
		return nil, fmt.Errorf("%w: %w", core.ErrFatalRun, err)
	}
	defer sess.Close()

	searchPage, err := sess.newPage(ctx)
	if err != nil {
		_ = notifier.Critical(ctx, err.Error())
		return nil, fmt.Errorf("%w: %w", core.ErrFatalRun, err)
	}
	articlePage, err := sess.newPage(ctx)
	if err != nil {
		_ = notifier.Critical(ctx, err.Error())
		return nil, fmt.Errorf("%w: %w", core.ErrFatalRun, err)
	}

	discoverer := crawlers.NewDiscoverer(searchPage, cfg.DiscoveryConfig())
	scraper := crawlers.NewArticleScraper(
		articlePage,
		crawlers.NewExtractor(cfg.ProbeTimeout()),
		crawlers.NewRetrier(cfg.MaxRetries, cfg.RetryCooldown()),
	)

	runner := core.NewRunner(core.RunnerConfig{
		ResultsPerKeyword: cfg.ResultsPerKeyword,
		BetweenArticles:   cfg.BetweenArticlesMs,
		DryRun:            dryRun,
		ReportDir:         cfg.Output.ReportDir,
		Progress:          cfg.Output.Progress,
		MetricsTextfile:   cfg.Metrics.Textfile,
	}, discoverer, scraper, recordSink, notifier, metrics.New())

	return runner.Run(ctx, keywords, total)
}

// inspectArticle 抓取单篇文章
func inspectArticle(ctx context.Context, cfg *config.Config, articleURL string, static bool) (*models.Record, error) {
	extractor := crawlers.NewExtractor(cfg.ProbeTimeout())
	retrier := crawlers.NewRetrier(cfg.MaxRetries, cfg.RetryCooldown())

	var page crawlers.Page
	if static {
		hm, err := newHeaderManager(cfg)
		if err != nil {
			return nil, err
		}
		utils.Warn("静态模式: 24小时购买标记可能由脚本渲染, 结果仅供参考")
		page = crawlers.NewFetchingDocPage(crawlers.NewStaticFetcher(cfg.BrowserConfig(), hm))
	} else {
		sess, err := openSession(cfg)
		if err != nil {
			return nil, err
		}
		defer sess.Close()

		rodPage, err := sess.newPage(ctx)
		if err != nil {
			return nil, err
		}
		page = rodPage
	}

	return crawlers.NewArticleScraper(page, extractor, retrier).Scrape(ctx, articleURL)
}
