package core

import (
	"context"
	"fmt"

	"github.com/RecoveryAshes/NoteTracker/internal/crawlers"
	"github.com/RecoveryAshes/NoteTracker/internal/metrics"
	"github.com/RecoveryAshes/NoteTracker/internal/models"
	"github.com/RecoveryAshes/NoteTracker/internal/sink"
	"github.com/RecoveryAshes/NoteTracker/internal/utils"
)

// Prober 检测文章是否显示24小时购买标记
type Prober interface {
	Probe(ctx context.Context, url string) (bool, error)
}

// TrackingSink 接收端的追踪接口
type TrackingSink interface {
	GetTrackingList(ctx context.Context) ([]sink.TrackedArticle, error)
	UpdateTrackingResults(ctx context.Context, results map[string]bool) (*sink.TrackingUpdateAck, error)
}

// TrackResult 一次追踪的结果
type TrackResult struct {
	Checked int
	Hits    int
	Updated int
	Results map[string]bool
}

// Tracker 周期性检查追踪表中的文章
type Tracker struct {
	prober  Prober
	sink    TrackingSink
	delay   models.DelayRange
	metrics *metrics.Metrics

	sleep crawlers.SleepFunc
}

// DefaultTrackDelay 两次检查之间的等待(毫秒)
var DefaultTrackDelay = models.DelayRange{Min: 2000, Max: 4000}

// NewTracker 创建追踪器
func NewTracker(prober Prober, trackingSink TrackingSink, m *metrics.Metrics) *Tracker {
	return &Tracker{
		prober:  prober,
		sink:    trackingSink,
		delay:   DefaultTrackDelay,
		metrics: m,
		sleep:   crawlers.ContextSleep,
	}
}

// WithSleep 替换等待函数
func (t *Tracker) WithSleep(fn crawlers.SleepFunc) *Tracker {
	t.sleep = fn
	return t
}

// Run 获取追踪列表, 逐个检测后回写结果
// 单个URL检测失败记为未命中; 浏览器崩溃或ctx取消时中止且不回写
func (t *Tracker) Run(ctx context.Context) (*TrackResult, error) {
	utils.Info("🚀 开始追踪检查")

	list, err := t.sink.GetTrackingList(ctx)
	if err != nil {
		return nil, fmt.Errorf("获取追踪列表失败: %w", err)
	}
	utils.Infof("[tracker] 待检查 %d 个URL", len(list))

	result := &TrackResult{Results: make(map[string]bool, len(list))}
	if len(list) == 0 {
		utils.Info("[tracker] 没有需要追踪的URL")
		return result, nil
	}

	for i, item := range list {
		utils.Infof("[check] %d/%d %s", i+1, len(list), item.URL)

		hit, err := t.prober.Probe(ctx, item.URL)
		if err != nil {
			if isFatal(ctx, err) {
				return result, fmt.Errorf("%w: %w", ErrFatalRun, err)
			}
			utils.Warnf("检查失败 %s: %v", item.URL, err)
			hit = false
		}

		result.Results[item.URL] = hit
		result.Checked++
		title := utils.Truncate(item.Title, 30)
		if hit {
			result.Hits++
			utils.Infof("  -> HIT! %s", title)
		} else {
			utils.Infof("  -> miss %s", title)
		}
		if t.metrics != nil {
			t.metrics.ObserveTrack(hit)
		}

		if i < len(list)-1 {
			if err := t.sleep(ctx, t.delay.Pick()); err != nil {
				return result, fmt.Errorf("%w: %w", ErrFatalRun, err)
			}
		}
	}

	utils.Infof("[tracker] 发送结果: %d/%d 命中", result.Hits, result.Checked)
	ack, err := t.sink.UpdateTrackingResults(ctx, result.Results)
	if err != nil {
		return result, fmt.Errorf("回写追踪结果失败: %w", err)
	}
	result.Updated = ack.Updated
	utils.Infof("✅ 追踪完成: 更新 %d, 结束追踪 %d", ack.Updated, ack.Completed)
	return result, nil
}
