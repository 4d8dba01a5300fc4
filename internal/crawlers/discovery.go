package crawlers

import (
	"context"
	"fmt"
	"time"

	"github.com/RecoveryAshes/NoteTracker/internal/models"
	"github.com/RecoveryAshes/NoteTracker/internal/utils"
)

// DiscoveryConfig 搜索页滚动发现的参数
type DiscoveryConfig struct {
	MaxRounds           int               // 最大滚动轮数
	StagnationThreshold int               // 连续无新增的轮数阈值
	Settle              time.Duration     // 导航后的初始等待
	BetweenPages        models.DelayRange // 每轮滚动后的随机等待(毫秒)
}

// DefaultDiscoveryConfig 默认发现参数
func DefaultDiscoveryConfig() DiscoveryConfig {
	return DiscoveryConfig{
		MaxRounds:           50,
		StagnationThreshold: 3,
		Settle:              2 * time.Second,
		BetweenPages:        models.DelayRange{Min: 3000, Max: 5000},
	}
}

// DiscoverySession 单次排序方式的发现状态
type DiscoverySession struct {
	limit     int
	threshold int
	maxRounds int

	collected *OrderedSet
	stagnant  int
	rounds    int
}

// NewDiscoverySession 创建发现会话
func NewDiscoverySession(limit, threshold, maxRounds int) *DiscoverySession {
	return &DiscoverySession{
		limit:     limit,
		threshold: threshold,
		maxRounds: maxRounds,
		collected: NewOrderedSet(),
	}
}

// Merge 合并一轮提取结果,返回新增数量
// 达到limit后不再合并; 本轮无新增则停滞计数+1,否则清零
func (s *DiscoverySession) Merge(urls []string) int {
	s.rounds++

	added := 0
	for _, u := range urls {
		if s.collected.Len() >= s.limit {
			break
		}
		if s.collected.Add(u) {
			added++
		}
	}

	if added == 0 {
		s.stagnant++
	} else {
		s.stagnant = 0
	}
	return added
}

// ShouldContinue 是否需要继续滚动
func (s *DiscoverySession) ShouldContinue() bool {
	return s.collected.Len() < s.limit &&
		s.stagnant < s.threshold &&
		s.rounds < s.maxRounds
}

// Collected 已收集的URL(首次出现顺序)
func (s *DiscoverySession) Collected() []string {
	return s.collected.Items()
}

// Rounds 已执行轮数
func (s *DiscoverySession) Rounds() int {
	return s.rounds
}

// Stagnant 当前停滞计数
func (s *DiscoverySession) Stagnant() int {
	return s.stagnant
}

// KeywordDiscovery 单个关键词两种排序的发现结果
type KeywordDiscovery struct {
	Keyword string
	Popular []string
	Trend   []string

	// URLs 人气顺在前、急上升在后合并去重,上限 2×limit
	URLs []string
}

// Discoverer 在同一个搜索页标签上执行滚动发现
type Discoverer struct {
	page      Page
	extractor *URLExtractor
	config    DiscoveryConfig
	sleep     SleepFunc
}

// NewDiscoverer 创建发现器
func NewDiscoverer(page Page, config DiscoveryConfig) *Discoverer {
	if config.MaxRounds <= 0 {
		config.MaxRounds = DefaultDiscoveryConfig().MaxRounds
	}
	if config.StagnationThreshold <= 0 {
		config.StagnationThreshold = DefaultDiscoveryConfig().StagnationThreshold
	}
	return &Discoverer{
		page:      page,
		extractor: NewURLExtractor(),
		config:    config,
		sleep:     ContextSleep,
	}
}

// WithSleep 替换等待函数
func (d *Discoverer) WithSleep(fn SleepFunc) *Discoverer {
	d.sleep = fn
	return d
}

// Discover 打开搜索页并滚动收集文章URL,结果数量不超过limit
func (d *Discoverer) Discover(ctx context.Context, searchURL string, limit int) ([]string, error) {
	if limit <= 0 {
		return []string{}, nil
	}

	if err := d.page.Navigate(ctx, searchURL); err != nil {
		return nil, fmt.Errorf("打开搜索页失败: %w", err)
	}
	if err := d.sleep(ctx, d.config.Settle); err != nil {
		return nil, err
	}

	session := NewDiscoverySession(limit, d.config.StagnationThreshold, d.config.MaxRounds)
	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		urls, err := d.extractor.ExtractFromPage(d.page)
		if err != nil {
			return nil, err
		}

		added := session.Merge(urls)
		utils.Debugf("第%d轮: 页面链接=%d, 新增=%d, 累计=%d, 停滞=%d",
			session.Rounds(), len(urls), added, len(session.Collected()), session.Stagnant())

		if !session.ShouldContinue() {
			break
		}

		if err := d.page.ScrollToBottom(); err != nil {
			return nil, fmt.Errorf("滚动失败: %w", err)
		}
		if err := d.sleep(ctx, d.config.BetweenPages.Pick()); err != nil {
			return nil, err
		}
	}

	collected := session.Collected()
	if session.Rounds() >= d.config.MaxRounds && len(collected) < limit {
		utils.Warnf("达到最大滚动轮数 %d, 仅收集到 %d/%d", d.config.MaxRounds, len(collected), limit)
	}
	return collected, nil
}

// DiscoverKeyword 依次按人气顺和急上升发现,合并去重并截断到 2×limit
func (d *Discoverer) DiscoverKeyword(ctx context.Context, keyword string, limit int) (*KeywordDiscovery, error) {
	result := &KeywordDiscovery{Keyword: keyword}

	for _, sort := range models.SortOrders {
		searchURL := SearchURL(keyword, string(sort))
		utils.Infof("🔍 搜索 [%s] %s", sort, searchURL)

		urls, err := d.Discover(ctx, searchURL, limit)
		if err != nil {
			return nil, fmt.Errorf("关键词 %q (%s) 发现失败: %w", keyword, sort, err)
		}
		utils.Infof("[%s] 收集到 %d 个URL", sort, len(urls))

		switch sort {
		case models.SortPopular:
			result.Popular = urls
		case models.SortTrend:
			result.Trend = urls
		}
	}

	result.URLs = MergeUnique(2*limit, result.Popular, result.Trend)
	utils.Infof("关键词 %q 合并去重后共 %d 个URL", keyword, len(result.URLs))
	return result, nil
}
