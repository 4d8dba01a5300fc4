package models

import (
	"fmt"
	"math/rand/v2"
	"time"
)

// RunStatus 运行状态
type RunStatus string

const (
	RunStatusRunning   RunStatus = "running"   // 执行中
	RunStatusCompleted RunStatus = "completed" // 已完成
	RunStatusFailed    RunStatus = "failed"    // 致命错误中止
	RunStatusSkipped   RunStatus = "skipped"   // 今日无关键词
)

// DelayRange 毫秒区间,用于随机等待
type DelayRange struct {
	Min int `mapstructure:"min" json:"min"`
	Max int `mapstructure:"max" json:"max"`
}

// Validate 验证区间
func (d DelayRange) Validate() error {
	if d.Min < 0 || d.Max < 0 {
		return fmt.Errorf("等待时间不能为负数: %d-%d", d.Min, d.Max)
	}
	if d.Min > d.Max {
		return fmt.Errorf("最小等待时间大于最大等待时间: %d > %d", d.Min, d.Max)
	}
	return nil
}

// Pick 在[Min, Max]内均匀取值
func (d DelayRange) Pick() time.Duration {
	if d.Max <= d.Min {
		return time.Duration(d.Min) * time.Millisecond
	}
	ms := d.Min + rand.IntN(d.Max-d.Min+1)
	return time.Duration(ms) * time.Millisecond
}

// RunStats 运行统计
type RunStats struct {
	Keywords   int     `json:"keywords"`   // 处理的关键词数
	Candidates int     `json:"candidates"` // 候选URL总数
	Processed  int     `json:"processed"`  // 成功提取的记录数
	New        int     `json:"new"`        // 接收端判定为新记录的数量
	Updated    int     `json:"updated"`    // 接收端判定为更新的数量
	Purchased  int     `json:"purchased"`  // 24小时内有购买的文章数
	Errors     int     `json:"errors"`     // 失败数(提取失败+发送失败)
	Duration   float64 `json:"duration"`   // 总耗时(秒)
}

// KeywordResult 单个关键词的处理结果
type KeywordResult struct {
	Keyword    string   `json:"keyword"`
	Popular    int      `json:"popular"`    // 人气顺收集数
	Trend      int      `json:"trend"`      // 急上升收集数
	Candidates int      `json:"candidates"` // 合并去重后的数量
	Processed  int      `json:"processed"`
	New        int      `json:"new"`
	Updated    int      `json:"updated"`
	Purchased  int      `json:"purchased"`
	Errors     int      `json:"errors"`
	FailedURLs []string `json:"failed_urls,omitempty"`
}
