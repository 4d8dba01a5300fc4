package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/RecoveryAshes/NoteTracker/internal/utils"
)

// Level 通知级别
type Level string

const (
	LevelInfo    Level = "info"
	LevelSuccess Level = "success"
	LevelWarning Level = "warning"
	LevelError   Level = "error"
)

var levelEmoji = map[Level]string{
	LevelInfo:    "ℹ️",
	LevelSuccess: "✅",
	LevelWarning: "⚠️",
	LevelError:   "🚨",
}

const timeLayout = "2006-01-02 15:04"

// Summary 运行完成时的汇总数据
type Summary struct {
	Keywords int
	Records  int
	New      int
	Errors   int
	Elapsed  time.Duration
}

// SlackNotifier Slack兼容的 incoming webhook 通知器
// webhookURL 为空时所有方法都是空操作
type SlackNotifier struct {
	webhookURL string
	client     *http.Client
	now        func() time.Time
}

// NewSlackNotifier 创建通知器
func NewSlackNotifier(webhookURL string, timeout time.Duration) *SlackNotifier {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &SlackNotifier{
		webhookURL: strings.TrimSpace(webhookURL),
		client:     &http.Client{Timeout: timeout},
		now:        time.Now,
	}
}

// Enabled 是否配置了webhook
func (n *SlackNotifier) Enabled() bool {
	return n.webhookURL != ""
}

// Send 发送一条带级别前缀的消息
func (n *SlackNotifier) Send(ctx context.Context, level Level, message string) error {
	if !n.Enabled() {
		return nil
	}

	emoji, ok := levelEmoji[level]
	if !ok {
		emoji = "📝"
	}
	body, err := json.Marshal(map[string]string{"text": emoji + " " + message})
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.webhookURL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("创建通知请求失败: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("发送通知失败 %s: %w", utils.RedactURL(n.webhookURL), err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("通知端返回 HTTP %d", resp.StatusCode)
	}
	return nil
}

// Start 运行开始通知
func (n *SlackNotifier) Start(ctx context.Context, dayName string, count, total int) error {
	msg := fmt.Sprintf("スクレイピング開始\n• 日時: %s\n• %s曜日分: %d/%d キーワード",
		n.now().Format(timeLayout), dayName, count, total)
	return n.Send(ctx, LevelInfo, msg)
}

// Complete 运行完成通知, 有错误时降级为warning
func (n *SlackNotifier) Complete(ctx context.Context, s Summary) error {
	level := LevelSuccess
	if s.Errors > 0 {
		level = LevelWarning
	}

	lines := []string{
		"スクレイピング完了",
		"• 日時: " + n.now().Format(timeLayout),
		fmt.Sprintf("• キーワード数: %d", s.Keywords),
		fmt.Sprintf("• 総記録数: %d", s.Records),
		fmt.Sprintf("• 新規記録: %d", s.New),
		fmt.Sprintf("• 所要時間: %.1f分", s.Elapsed.Minutes()),
	}
	if s.Errors > 0 {
		lines = append(lines, fmt.Sprintf("• エラー数: %d", s.Errors))
	}
	return n.Send(ctx, level, strings.Join(lines, "\n"))
}

// Error 单个关键词出错通知
func (n *SlackNotifier) Error(ctx context.Context, message, detail string) error {
	lines := []string{
		"エラー発生",
		"• 日時: " + n.now().Format(timeLayout),
		"• エラー: " + message,
	}
	if detail != "" {
		lines = append(lines, "• 詳細: "+detail)
	}
	return n.Send(ctx, LevelError, strings.Join(lines, "\n"))
}

// Critical 致命错误通知 (运行中止)
func (n *SlackNotifier) Critical(ctx context.Context, message string) error {
	msg := fmt.Sprintf("重大エラー - プロセス停止\n• 日時: %s\n• エラー: %s",
		n.now().Format(timeLayout), message)
	return n.Send(ctx, LevelError, msg)
}

// JapaneseWeekday 日语星期简称
func JapaneseWeekday(d time.Weekday) string {
	return [...]string{"日", "月", "火", "水", "木", "金", "土"}[d]
}
