package models

import (
	"encoding/json"
	"time"
)

// RunReport 一次运行的报告
type RunReport struct {
	RunID     string    `json:"run_id"`
	Status    RunStatus `json:"status"`
	DryRun    bool      `json:"dry_run"`
	StartTime time.Time `json:"start_time"`
	EndTime   time.Time `json:"end_time"`

	// 关键词轮换信息
	Weekday       string `json:"weekday"`
	TotalKeywords int    `json:"total_keywords"`

	Stats    RunStats        `json:"stats"`
	Keywords []KeywordResult `json:"keywords"`

	// FatalError 致命错误信息,与单条失败分开记录
	FatalError string `json:"fatal_error,omitempty"`
}

// NewRunReport 创建运行报告
func NewRunReport(dryRun bool, start time.Time) *RunReport {
	return &RunReport{
		RunID:     generateID(),
		Status:    RunStatusRunning,
		DryRun:    dryRun,
		StartTime: start,
		Weekday:   start.Weekday().String()[:3],
		Keywords:  make([]KeywordResult, 0),
	}
}

// Finish 结束报告并计算耗时
func (r *RunReport) Finish(status RunStatus, end time.Time) {
	r.Status = status
	r.EndTime = end
	r.Stats.Duration = end.Sub(r.StartTime).Seconds()
}

// ToJSON 序列化为JSON
func (r *RunReport) ToJSON() ([]byte, error) {
	return json.MarshalIndent(r, "", "  ")
}

// FromJSON 从JSON反序列化
func (r *RunReport) FromJSON(data []byte) error {
	return json.Unmarshal(data, r)
}
