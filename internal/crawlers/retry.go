package crawlers

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/RecoveryAshes/NoteTracker/internal/models"
	"github.com/RecoveryAshes/NoteTracker/internal/utils"
)

// ScrapeError 单篇文章在所有尝试后仍失败
type ScrapeError struct {
	URL      string
	Attempts int
	Err      error // 最后一次的错误
}

// Error 实现error接口
func (e *ScrapeError) Error() string {
	return fmt.Sprintf("抓取失败 [%s] (尝试%d次): %v", e.URL, e.Attempts, e.Err)
}

// Unwrap 同时暴露最后一次错误与 ErrMaxRetriesReached
func (e *ScrapeError) Unwrap() []error {
	return []error{ErrMaxRetriesReached, e.Err}
}

// AttemptFunc 一次完整的导航+提取
type AttemptFunc func(ctx context.Context, url string) (*models.Record, error)

// Retrier 单篇文章的重试控制
type Retrier struct {
	MaxRetries int
	Cooldown   time.Duration
	Sleep      SleepFunc
}

// NewRetrier 创建重试控制器
func NewRetrier(maxRetries int, cooldown time.Duration) *Retrier {
	if maxRetries < 0 {
		maxRetries = 0
	}
	return &Retrier{
		MaxRetries: maxRetries,
		Cooldown:   cooldown,
		Sleep:      ContextSleep,
	}
}

// ScrapeWithRetry 最多执行 MaxRetries+1 次,两次之间固定冷却
// ctx取消时立即返回ctx错误,浏览器会话丢失时立即返回 ErrBrowserCrashed,两者都不包装为 ScrapeError
func (r *Retrier) ScrapeWithRetry(ctx context.Context, url string, attempt AttemptFunc) (*models.Record, error) {
	var lastErr error
	total := r.MaxRetries + 1

	for i := 0; i < total; i++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		record, err := r.safeAttempt(ctx, url, attempt)
		if err == nil {
			if i > 0 {
				utils.Infof("第%d次尝试成功: %s", i+1, url)
			}
			return record, nil
		}
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		if IsBrowserCrash(err) {
			utils.Errorf("浏览器会话丢失 [%s]: %v", url, err)
			return nil, err
		}

		lastErr = err
		utils.Warnf("抓取失败(尝试%d/%d) [%s]: %v", i+1, total, url, err)

		if i < total-1 {
			if err := r.Sleep(ctx, r.Cooldown); err != nil {
				return nil, err
			}
		}
	}

	return nil, &ScrapeError{URL: url, Attempts: total, Err: lastErr}
}

// safeAttempt 将浏览器层的panic与会话丢失错误转换为 ErrBrowserCrashed
func (r *Retrier) safeAttempt(ctx context.Context, url string, attempt AttemptFunc) (record *models.Record, err error) {
	defer func() {
		if p := recover(); p != nil {
			utils.Errorf("捕获panic: URL=%s, 错误=%v", url, p)
			record = nil
			err = fmt.Errorf("%w: %v", ErrBrowserCrashed, p)
			return
		}
		if err != nil && !IsBrowserCrash(err) && IsSessionLost(err) {
			err = fmt.Errorf("%w: %w", ErrBrowserCrashed, err)
		}
	}()
	return attempt(ctx, url)
}

// IsBrowserCrash 错误是否来自浏览器崩溃
func IsBrowserCrash(err error) bool {
	return errors.Is(err, ErrBrowserCrashed)
}

// ArticleScraper 在专用文章标签上导航并提取,带重试
type ArticleScraper struct {
	page      Page
	extractor *Extractor
	retrier   *Retrier
}

// NewArticleScraper 创建文章抓取器
func NewArticleScraper(page Page, extractor *Extractor, retrier *Retrier) *ArticleScraper {
	return &ArticleScraper{
		page:      page,
		extractor: extractor,
		retrier:   retrier,
	}
}

// Scrape 抓取单篇文章
func (s *ArticleScraper) Scrape(ctx context.Context, url string) (*models.Record, error) {
	return s.retrier.ScrapeWithRetry(ctx, url, s.attempt)
}

func (s *ArticleScraper) attempt(ctx context.Context, url string) (*models.Record, error) {
	if err := s.page.Navigate(ctx, url); err != nil {
		return nil, fmt.Errorf("导航失败: %w", err)
	}
	return s.extractor.Extract(ctx, s.page, url)
}

// Probe 仅检测24小时购买标记(追踪任务使用)
func (s *ArticleScraper) Probe(ctx context.Context, url string) (bool, error) {
	var purchased bool
	_, err := s.retrier.ScrapeWithRetry(ctx, url, func(ctx context.Context, url string) (*models.Record, error) {
		if err := s.page.Navigate(ctx, url); err != nil {
			return nil, fmt.Errorf("导航失败: %w", err)
		}
		ok, err := s.page.WaitAttached(ctx, PurchasedWithin24hSelector, s.extractor.probeTimeout)
		if err != nil {
			return nil, err
		}
		purchased = ok
		return &models.Record{URL: url, Purchased24h: ok}, nil
	})
	return purchased, err
}
