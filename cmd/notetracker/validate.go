package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/RecoveryAshes/NoteTracker/internal/config"
	"github.com/RecoveryAshes/NoteTracker/internal/core"
	"github.com/RecoveryAshes/NoteTracker/internal/crawlers"
	"github.com/RecoveryAshes/NoteTracker/internal/models"
	"github.com/RecoveryAshes/NoteTracker/internal/utils"
	"github.com/spf13/cobra"
)

// ValidateRunFlags 验证 run 子命令参数
func ValidateRunFlags(keywords []string, keywordsFile string) error {
	if len(keywords) > 0 && keywordsFile != "" {
		return fmt.Errorf("--keyword 与 --keywords-file 不能同时使用")
	}
	for i, k := range keywords {
		if strings.TrimSpace(k) == "" {
			return fmt.Errorf("第%d个关键词为空", i+1)
		}
	}
	return nil
}

// ValidateArticleURL 验证并规范化文章URL
// 接受相对路径 /user/n/xxx
func ValidateArticleURL(raw string) (string, error) {
	abs := crawlers.Absolutize(strings.TrimSpace(raw))
	if err := models.ValidateURL(abs); err != nil {
		return "", fmt.Errorf("无效的文章URL: %w", err)
	}
	canonical := crawlers.Canonicalize(abs)
	if !crawlers.IsArticleURL(canonical) {
		return "", fmt.Errorf("不是 note.com 文章URL: %s (格式应为 https://note.com/<user>/n/<id>)", raw)
	}
	return canonical, nil
}

// resolveKeywords 决定本次要处理的关键词
// 手动指定时不轮换; 返回选中的关键词与关键词总数
func resolveKeywords(cfg *config.Config, manual []string, keywordsFile string, now time.Time) ([]string, int, error) {
	if keywordsFile != "" {
		keywords, err := utils.ReadKeywordsFromFile(keywordsFile)
		if err != nil {
			return nil, 0, fmt.Errorf("读取关键词文件失败: %w", err)
		}
		return keywords, len(keywords), nil
	}

	if len(manual) > 0 {
		keywords := make([]string, 0, len(manual))
		for _, k := range manual {
			keywords = append(keywords, strings.TrimSpace(k))
		}
		return keywords, len(keywords), nil
	}

	if len(cfg.Keywords) == 0 {
		return nil, 0, fmt.Errorf("配置文件中 keywords 为空")
	}

	selected := core.KeywordsForToday(cfg.Keywords, cfg.SplitDays, now)
	utils.Infof("[split] %s: %d/%d 个关键词 (split_days=%d)",
		now.Weekday().String()[:3], len(selected), len(cfg.Keywords), cfg.SplitDays)
	return selected, len(cfg.Keywords), nil
}

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "验证配置文件并显示关键词轮换与额外请求头",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := appConfig
		utils.Info("🔍 验证配置...")

		hm, err := newHeaderManager(cfg)
		if err != nil {
			return fmt.Errorf("配置验证失败: %w", err)
		}
		utils.Info("✅ 配置验证通过!")

		utils.Infof("当前有效的额外请求头 (%d个): %s", len(hm.GetMergedHeaders()), hm.SafeHeaderString())

		utils.Infof("关键词 %d 个, split_days=%d:", len(cfg.Keywords), cfg.SplitDays)
		monday := time.Date(2024, 1, 1, 12, 0, 0, 0, location(cfg))
		for i := 0; i < 7; i++ {
			day := monday.AddDate(0, 0, i)
			utils.Infof("  %s: %s", day.Weekday().String()[:3],
				strings.Join(core.KeywordsForToday(cfg.Keywords, cfg.SplitDays, day), ", "))
		}

		if cfg.Sink.URL == "" {
			utils.Warnf("未配置接收端 (%s), 只能使用 --dry-run", config.EnvSinkURL)
		} else {
			utils.Infof("接收端: %s", utils.RedactURL(cfg.Sink.URL))
		}
		if cfg.Notify.WebhookURL == "" {
			utils.Info("未配置通知webhook, 通知已禁用")
		}
		return nil
	},
}
