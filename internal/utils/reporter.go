package utils

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/RecoveryAshes/NoteTracker/internal/models"
	"github.com/schollz/progressbar/v3"
)

const latestReportName = "latest.json"

// Reporter 运行报告写入器
type Reporter struct {
	outputDir string
}

// NewReporter 创建报告写入器, outputDir为空时不落盘
func NewReporter(outputDir string) *Reporter {
	return &Reporter{outputDir: outputDir}
}

// SaveRunReport 保存运行报告,同时覆盖 latest.json
// 返回带时间戳的报告路径
func (r *Reporter) SaveRunReport(report *models.RunReport) (string, error) {
	if r.outputDir == "" {
		return "", nil
	}
	if err := os.MkdirAll(r.outputDir, 0755); err != nil {
		return "", fmt.Errorf("创建报告目录失败: %w", err)
	}

	data, err := report.ToJSON()
	if err != nil {
		return "", fmt.Errorf("序列化JSON失败: %w", err)
	}

	name := fmt.Sprintf("run_%s_%s.json", report.StartTime.Format("20060102_150405"), shortID(report.RunID))
	path := filepath.Join(r.outputDir, name)
	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("写入报告文件失败: %w", err)
	}
	if err := os.WriteFile(filepath.Join(r.outputDir, latestReportName), data, 0644); err != nil {
		return "", fmt.Errorf("写入报告文件失败: %w", err)
	}

	Debugf("保存报告: %s", path)
	return path, nil
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

// NewProgressBar 创建进度条, visible=false 时不输出
func NewProgressBar(max int, description string, visible bool) *progressbar.ProgressBar {
	return progressbar.NewOptions(max,
		progressbar.OptionSetDescription(description),
		progressbar.OptionSetVisibility(visible),
		progressbar.OptionShowCount(),
		progressbar.OptionShowIts(),
		progressbar.OptionSetWidth(40),
		progressbar.OptionSetTheme(progressbar.Theme{
			Saucer:        "=",
			SaucerHead:    ">",
			SaucerPadding: " ",
			BarStart:      "[",
			BarEnd:        "]",
		}),
	)
}
