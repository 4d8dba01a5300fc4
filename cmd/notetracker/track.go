package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/RecoveryAshes/NoteTracker/internal/config"
	"github.com/RecoveryAshes/NoteTracker/internal/core"
	"github.com/RecoveryAshes/NoteTracker/internal/crawlers"
	"github.com/RecoveryAshes/NoteTracker/internal/metrics"
	"github.com/RecoveryAshes/NoteTracker/internal/sink"
	"github.com/RecoveryAshes/NoteTracker/internal/utils"
	"github.com/spf13/cobra"
)

// trackSinkTimeout 追踪列表可能较大, 使用更长的超时
const trackSinkTimeout = 30 * time.Second

var trackCmd = &cobra.Command{
	Use:   "track",
	Short: "检查追踪表中的文章是否有24小时内的购买",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		_, err := runTrack(ctx, appConfig)
		return err
	},
}

var scheduleCmd = &cobra.Command{
	Use:   "schedule",
	Short: "常驻运行, 按 schedule.scrape / schedule.track 定时执行",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		cfg := appConfig
		scheduler, err := core.NewScheduler(cfg.Schedule.Timezone)
		if err != nil {
			return err
		}

		if err := scheduler.Add("scrape", cfg.Schedule.Scrape, func(ctx context.Context) error {
			keywords, total, err := resolveKeywords(cfg, nil, "", time.Now().In(location(cfg)))
			if err != nil {
				return err
			}
			_, err = runScrape(ctx, cfg, keywords, total, cfg.DryRun)
			return err
		}); err != nil {
			return err
		}

		if cfg.Sink.URL != "" {
			if err := scheduler.Add("track", cfg.Schedule.Track, func(ctx context.Context) error {
				_, err := runTrack(ctx, cfg)
				return err
			}); err != nil {
				return err
			}
		} else {
			utils.Warnf("未配置 %s, 跳过追踪任务", config.EnvSinkURL)
		}

		utils.Info("⏰ 定时器已启动, Ctrl+C 退出")
		return scheduler.Run(ctx)
	},
}

// runTrack 启动浏览器并执行一次追踪检查
func runTrack(ctx context.Context, cfg *config.Config) (*core.TrackResult, error) {
	if cfg.Sink.URL == "" {
		return nil, fmt.Errorf("未配置接收端: 请设置 %s 或 sink.url", config.EnvSinkURL)
	}
	client := sink.NewClient(cfg.Sink.URL, trackSinkTimeout)

	sess, err := openSession(cfg)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", core.ErrFatalRun, err)
	}
	defer sess.Close()

	page, err := sess.newPage(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", core.ErrFatalRun, err)
	}

	// 追踪只看24小时标记, 单次检测不重试
	prober := crawlers.NewArticleScraper(
		page,
		crawlers.NewExtractor(cfg.ProbeTimeout()),
		crawlers.NewRetrier(0, cfg.RetryCooldown()),
	)

	m := metrics.New()
	start := time.Now()
	result, err := core.NewTracker(prober, client, m).Run(ctx)

	status := "completed"
	if err != nil {
		status = "failed"
	}
	m.FinishRun(status, time.Since(start), time.Now())
	if werr := m.WriteTextfile(trackTextfile(cfg.Metrics.Textfile)); werr != nil {
		utils.Warnf("写入指标失败: %v", werr)
	}
	return result, err
}

// trackTextfile 追踪任务的指标文件与抓取任务分开, 避免互相覆盖
func trackTextfile(path string) string {
	if path == "" {
		return ""
	}
	return strings.TrimSuffix(path, ".prom") + "_track.prom"
}
