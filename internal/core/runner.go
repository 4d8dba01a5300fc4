package core

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/RecoveryAshes/NoteTracker/internal/crawlers"
	"github.com/RecoveryAshes/NoteTracker/internal/metrics"
	"github.com/RecoveryAshes/NoteTracker/internal/models"
	"github.com/RecoveryAshes/NoteTracker/internal/notify"
	"github.com/RecoveryAshes/NoteTracker/internal/sink"
	"github.com/RecoveryAshes/NoteTracker/internal/utils"
)

// ErrFatalRun 致命错误导致运行中止, 与单篇文章的失败分开统计
var ErrFatalRun = errors.New("运行中止")

// KeywordDiscoverer 关键词URL发现
type KeywordDiscoverer interface {
	DiscoverKeyword(ctx context.Context, keyword string, limit int) (*crawlers.KeywordDiscovery, error)
}

// Scraper 单篇文章抓取(含重试)
type Scraper interface {
	Scrape(ctx context.Context, url string) (*models.Record, error)
}

// RecordSink 记录接收端
type RecordSink interface {
	Send(ctx context.Context, record *models.Record) (*sink.Ack, error)
}

// Notifier 运行通知
type Notifier interface {
	Start(ctx context.Context, dayName string, count, total int) error
	Complete(ctx context.Context, s notify.Summary) error
	Error(ctx context.Context, message, detail string) error
	Critical(ctx context.Context, message string) error
}

// RunnerConfig 运行参数
type RunnerConfig struct {
	ResultsPerKeyword int
	BetweenArticles   models.DelayRange
	DryRun            bool
	ReportDir         string
	Progress          bool
	MetricsTextfile   string
}

// Runner 按关键词依次执行 发现 → 抓取 → 发送
type Runner struct {
	config     RunnerConfig
	discoverer KeywordDiscoverer
	scraper    Scraper
	sink       RecordSink
	notifier   Notifier
	metrics    *metrics.Metrics
	reporter   *utils.Reporter

	sleep crawlers.SleepFunc
	now   func() time.Time
}

// NewRunner 创建运行器, sink/notifier/metrics 可为nil
func NewRunner(config RunnerConfig, discoverer KeywordDiscoverer, scraper Scraper, recordSink RecordSink, notifier Notifier, m *metrics.Metrics) *Runner {
	return &Runner{
		config:     config,
		discoverer: discoverer,
		scraper:    scraper,
		sink:       recordSink,
		notifier:   notifier,
		metrics:    m,
		reporter:   utils.NewReporter(config.ReportDir),
		sleep:      crawlers.ContextSleep,
		now:        time.Now,
	}
}

// WithSleep 替换等待函数
func (r *Runner) WithSleep(fn crawlers.SleepFunc) *Runner {
	r.sleep = fn
	return r
}

// WithClock 替换时钟
func (r *Runner) WithClock(now func() time.Time) *Runner {
	r.now = now
	return r
}

// Run 执行一次完整运行
// keywords 为今天要处理的关键词, totalKeywords 用于报告轮换信息
func (r *Runner) Run(ctx context.Context, keywords []string, totalKeywords int) (*models.RunReport, error) {
	start := r.now()
	report := models.NewRunReport(r.config.DryRun, start)
	report.TotalKeywords = totalKeywords
	report.Stats.Keywords = len(keywords)

	if len(keywords) == 0 {
		utils.Warn("今天没有需要处理的关键词")
		r.finish(report, models.RunStatusSkipped)
		return report, nil
	}

	if r.config.DryRun {
		utils.Info("🧪 DRY RUN 模式: 不会发送到接收端")
	}
	utils.Infof("🚀 开始运行: %s %d/%d 个关键词", report.Weekday, len(keywords), totalKeywords)
	r.notify(func(n Notifier) error {
		return n.Start(ctx, notify.JapaneseWeekday(start.Weekday()), len(keywords), totalKeywords)
	})

	for i, keyword := range keywords {
		utils.Infof("\n==================== [%d/%d] %s ====================", i+1, len(keywords), keyword)

		result, err := r.processKeyword(ctx, keyword)
		report.Keywords = append(report.Keywords, result)
		if err != nil {
			return r.abort(ctx, report, err)
		}

		if result.Errors > 0 {
			r.notify(func(n Notifier) error {
				return n.Error(ctx, "キーワード処理エラー: "+keyword,
					fmt.Sprintf("%d/%d 件失敗", result.Errors, result.Candidates))
			})
		}
	}

	r.finish(report, models.RunStatusCompleted)
	r.notify(func(n Notifier) error {
		return n.Complete(ctx, notify.Summary{
			Keywords: len(keywords),
			Records:  report.Stats.Processed,
			New:      report.Stats.New,
			Errors:   report.Stats.Errors,
			Elapsed:  report.EndTime.Sub(report.StartTime),
		})
	})
	return report, nil
}

// processKeyword 处理单个关键词
// 单篇文章的失败只计数; 返回的错误都是致命错误
func (r *Runner) processKeyword(ctx context.Context, keyword string) (models.KeywordResult, error) {
	result := models.KeywordResult{Keyword: keyword}

	discovery, err := r.discoverer.DiscoverKeyword(ctx, keyword, r.config.ResultsPerKeyword)
	if err != nil {
		return result, fmt.Errorf("URL发现失败: %w", err)
	}
	result.Popular = len(discovery.Popular)
	result.Trend = len(discovery.Trend)
	result.Candidates = len(discovery.URLs)
	if r.metrics != nil {
		r.metrics.Candidates.WithLabelValues(keyword).Add(float64(len(discovery.URLs)))
	}
	utils.Infof("[search] keyword=%q urls=%d", keyword, len(discovery.URLs))

	candidates := make([]models.Candidate, 0, len(discovery.URLs))
	for i, u := range discovery.URLs {
		candidates = append(candidates, models.Candidate{URL: u, Keyword: keyword, Index: i + 1})
	}

	bar := utils.NewProgressBar(len(candidates), keyword, r.config.Progress)
	defer bar.Finish()

	for _, c := range candidates {
		if err := ctx.Err(); err != nil {
			return result, err
		}
		utils.Debugf("[article] %d/%d %s", c.Index, len(candidates), c.URL)

		if err := r.processArticle(ctx, c, &result); err != nil {
			return result, err
		}
		_ = bar.Add(1)

		if c.Index < len(candidates) {
			if err := r.sleep(ctx, r.config.BetweenArticles.Pick()); err != nil {
				return result, err
			}
		}
	}

	utils.Infof("✅ 关键词 %q 完成: 成功 %d, 失败 %d", keyword, result.Processed, result.Errors)
	return result, nil
}

// processArticle 抓取并发送单篇文章
func (r *Runner) processArticle(ctx context.Context, c models.Candidate, result *models.KeywordResult) error {
	started := r.now()
	record, err := r.scraper.Scrape(ctx, c.URL)
	if err != nil {
		if isFatal(ctx, err) {
			return err
		}
		r.markFailed(c.URL, err, result)
		r.observeArticle(false, started)
		return nil
	}

	if record.Purchased24h {
		result.Purchased++
		if r.metrics != nil {
			r.metrics.Purchased24h.Inc()
		}
	}

	if r.config.DryRun || r.sink == nil {
		mark := ""
		if record.Purchased24h {
			mark = "[24h]"
		}
		utils.Infof("[dry] %s %s by %s %dyen", mark, utils.Truncate(record.Title, 40), record.Author, record.Price)
		result.Processed++
		r.observeArticle(true, started)
		return nil
	}

	ack, err := r.sink.Send(ctx, record)
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		r.markFailed(c.URL, fmt.Errorf("发送失败: %w", err), result)
		r.observeArticle(false, started)
		return nil
	}

	result.Processed++
	if ack.IsUpdate {
		result.Updated++
	} else {
		result.New++
	}
	if r.metrics != nil {
		r.metrics.ObserveSink(ack.IsUpdate)
	}
	r.observeArticle(true, started)
	utils.Debugf("[sink] %s", ack.Message)
	return nil
}

func (r *Runner) markFailed(url string, err error, result *models.KeywordResult) {
	result.Errors++
	result.FailedURLs = append(result.FailedURLs, url)
	utils.Errorf("❌ %s: %v", url, err)
}

func (r *Runner) observeArticle(ok bool, started time.Time) {
	if r.metrics != nil {
		r.metrics.ObserveArticle(ok, r.now().Sub(started))
	}
}

// isFatal 浏览器崩溃/会话丢失或运行ctx已结束时中止运行
// 单页导航超时不算致命
func isFatal(ctx context.Context, err error) bool {
	if crawlers.IsSessionLost(err) {
		return true
	}
	return ctx.Err() != nil
}

// abort 记录致命错误并结束运行
func (r *Runner) abort(ctx context.Context, report *models.RunReport, cause error) (*models.RunReport, error) {
	report.FatalError = cause.Error()
	r.finish(report, models.RunStatusFailed)
	utils.Errorf("🚨 运行中止: %v", cause)

	// ctx可能已取消, 通知使用独立的context
	notifyCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 15*time.Second)
	defer cancel()
	r.notify(func(n Notifier) error {
		return n.Critical(notifyCtx, cause.Error())
	})

	return report, fmt.Errorf("%w: %w", ErrFatalRun, cause)
}

// finish 汇总统计, 保存报告与指标
func (r *Runner) finish(report *models.RunReport, status models.RunStatus) {
	for _, kr := range report.Keywords {
		report.Stats.Candidates += kr.Candidates
		report.Stats.Processed += kr.Processed
		report.Stats.New += kr.New
		report.Stats.Updated += kr.Updated
		report.Stats.Purchased += kr.Purchased
		report.Stats.Errors += kr.Errors
	}
	report.Finish(status, r.now())

	r.printSummary(report)

	if path, err := r.reporter.SaveRunReport(report); err != nil {
		utils.Warnf("保存运行报告失败: %v", err)
	} else if path != "" {
		utils.Infof("📄 运行报告: %s", path)
	}

	if r.metrics != nil {
		r.metrics.FinishRun(string(status), report.EndTime.Sub(report.StartTime), report.EndTime)
		if err := r.metrics.WriteTextfile(r.config.MetricsTextfile); err != nil {
			utils.Warnf("写入指标失败: %v", err)
		}
	}
}

func (r *Runner) notify(send func(n Notifier) error) {
	if r.notifier == nil {
		return
	}
	if err := send(r.notifier); err != nil {
		utils.Warnf("发送通知失败: %v", err)
	}
}

// printSummary 打印运行摘要
func (r *Runner) printSummary(report *models.RunReport) {
	s := report.Stats
	utils.Info("\n==================================================")
	utils.Info("📊 运行摘要")
	utils.Info("==================================================")
	utils.Infof("状态: %s", report.Status)
	utils.Infof("关键词: %d/%d", s.Keywords, report.TotalKeywords)
	utils.Infof("候选URL: %d", s.Candidates)
	utils.Infof("✅ 成功: %d (新规 %d, 更新 %d)", s.Processed, s.New, s.Updated)
	utils.Infof("🛒 24小时内有购买: %d", s.Purchased)
	utils.Infof("❌ 失败: %d", s.Errors)
	utils.Infof("⏱️  总耗时: %.2f秒", s.Duration)
	utils.Info("==================================================")

	if s.Errors > 0 {
		utils.Warn("\n失败的URL:")
		for _, kr := range report.Keywords {
			for _, u := range kr.FailedURLs {
				utils.Warnf("  - [%s] %s", kr.Keyword, u)
			}
		}
	}
}
