package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/RecoveryAshes/NoteTracker/internal/crawlers"
	"github.com/RecoveryAshes/NoteTracker/internal/models"
	"github.com/RecoveryAshes/NoteTracker/internal/utils"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	// EnvSinkURL 接收端(GAS Web App)地址
	EnvSinkURL = "GAS_WEB_APP_URL"

	// EnvWebhookURL Slack兼容的通知webhook
	EnvWebhookURL = "SLACK_WEBHOOK_URL"

	envPrefix = "NOTETRACKER"
)

// Config 应用程序配置
type Config struct {
	Keywords          []string          `mapstructure:"keywords"`
	ResultsPerKeyword int               `mapstructure:"results_per_keyword"`
	ArticleWaitMs     int               `mapstructure:"article_wait_ms"`
	BetweenArticlesMs models.DelayRange `mapstructure:"between_articles_ms"`
	BetweenPagesMs    models.DelayRange `mapstructure:"between_pages_ms"`
	Headless          bool              `mapstructure:"headless"`
	MaxRetries        int               `mapstructure:"max_retries"`
	RetryCooldownMs   int               `mapstructure:"retry_cooldown_ms"`
	DryRun            bool              `mapstructure:"dry_run"`
	SplitDays         int               `mapstructure:"split_days"`

	Discovery DiscoveryConfig `mapstructure:"discovery"`
	Sink      SinkConfig      `mapstructure:"sink"`
	Notify    NotifyConfig    `mapstructure:"notify"`
	Browser   BrowserConfig   `mapstructure:"browser"`
	Schedule  ScheduleConfig  `mapstructure:"schedule"`
	Logging   LoggingConfig   `mapstructure:"logging"`
	Output    OutputConfig    `mapstructure:"output"`
	Metrics   MetricsConfig   `mapstructure:"metrics"`
	Resource  ResourceConfig  `mapstructure:"resource"`
}

// DiscoveryConfig 滚动发现配置
type DiscoveryConfig struct {
	MaxRounds           int `mapstructure:"max_rounds"`
	StagnationThreshold int `mapstructure:"stagnation_threshold"`
	SettleMs            int `mapstructure:"settle_ms"`
}

// SinkConfig 接收端配置
type SinkConfig struct {
	URL        string `mapstructure:"url"`
	TimeoutSec int    `mapstructure:"timeout_sec"`
}

// NotifyConfig 通知配置
type NotifyConfig struct {
	WebhookURL string `mapstructure:"webhook_url"`
	TimeoutSec int    `mapstructure:"timeout_sec"`
}

// BrowserConfig 浏览器与静态指纹配置
type BrowserConfig struct {
	Bin                  string            `mapstructure:"bin"`
	UserAgent            string            `mapstructure:"user_agent"`
	AcceptLanguage       string            `mapstructure:"accept_language"`
	Locale               string            `mapstructure:"locale"`
	Timezone             string            `mapstructure:"timezone"`
	ViewportWidth        int               `mapstructure:"viewport_width"`
	ViewportHeight       int               `mapstructure:"viewport_height"`
	NavigationTimeoutSec int               `mapstructure:"navigation_timeout_sec"`
	Headers              map[string]string `mapstructure:"headers"`
}

// ScheduleConfig 定时任务配置 (cron表达式)
type ScheduleConfig struct {
	Scrape   string `mapstructure:"scrape"`
	Track    string `mapstructure:"track"`
	Timezone string `mapstructure:"timezone"`
}

// LoggingConfig 日志配置
type LoggingConfig struct {
	Level    string         `mapstructure:"level"`
	LogDir   string         `mapstructure:"log_dir"`
	Rotation RotationConfig `mapstructure:"rotation"`
}

// RotationConfig 日志轮转配置
type RotationConfig struct {
	MaxSize    int  `mapstructure:"max_size"`
	MaxBackups int  `mapstructure:"max_backups"`
	MaxAge     int  `mapstructure:"max_age"`
	Compress   bool `mapstructure:"compress"`
}

// OutputConfig 输出配置
type OutputConfig struct {
	ReportDir string `mapstructure:"report_dir"`
	Progress  bool   `mapstructure:"progress"`
}

// MetricsConfig 指标配置
type MetricsConfig struct {
	Textfile string `mapstructure:"textfile"`
}

// ResourceConfig 资源检查配置
type ResourceConfig struct {
	MinAvailableMB int `mapstructure:"min_available_mb"`
}

// LoadConfig 加载配置文件
// 优先级: 环境变量 > 配置文件 > 默认值; 同目录下的 .env 会先被加载
func LoadConfig(configPath string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		utils.Warnf("加载 .env 失败: %v", err)
	}

	v := viper.New()

	if configPath != "" {
		v.SetConfigFile(configPath)
		if err := ValidateFileSize(configPath); err != nil {
			return nil, err
		}
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath("./configs")
		v.AddConfigPath(".")
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(filepath.Join(home, ".notetracker"))
		}
	}

	setDefaults(v)

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	_ = v.BindEnv("sink.url", EnvSinkURL)
	_ = v.BindEnv("notify.webhook_url", EnvWebhookURL)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, &models.ConfigError{FilePath: configPath, Cause: err}
		}
		utils.Debugf("未找到配置文件,使用默认值")
	} else {
		utils.Debugf("使用配置文件: %s", v.ConfigFileUsed())
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, &models.ConfigError{
			FilePath: v.ConfigFileUsed(),
			Cause:    fmt.Errorf("配置绑定失败: %w", err),
		}
	}

	config.Sink.URL = strings.TrimSpace(config.Sink.URL)
	config.Notify.WebhookURL = strings.TrimSpace(config.Notify.WebhookURL)
	if config.Browser.Headers == nil {
		config.Browser.Headers = make(map[string]string)
	}

	return &config, nil
}

// setDefaults 设置默认配置值
func setDefaults(v *viper.Viper) {
	v.SetDefault("keywords", []string{})
	v.SetDefault("results_per_keyword", 100)
	v.SetDefault("article_wait_ms", 1500)
	v.SetDefault("between_articles_ms.min", 2500)
	v.SetDefault("between_articles_ms.max", 4000)
	v.SetDefault("between_pages_ms.min", 3000)
	v.SetDefault("between_pages_ms.max", 5000)
	v.SetDefault("headless", true)
	v.SetDefault("max_retries", 2)
	v.SetDefault("retry_cooldown_ms", 1000)
	v.SetDefault("dry_run", false)
	v.SetDefault("split_days", 1)

	v.SetDefault("discovery.max_rounds", 50)
	v.SetDefault("discovery.stagnation_threshold", 3)
	v.SetDefault("discovery.settle_ms", 2000)

	v.SetDefault("sink.url", "")
	v.SetDefault("sink.timeout_sec", 15)
	v.SetDefault("notify.webhook_url", "")
	v.SetDefault("notify.timeout_sec", 10)

	v.SetDefault("browser.bin", "")
	v.SetDefault("browser.user_agent", DefaultUserAgent)
	v.SetDefault("browser.accept_language", DefaultAcceptLanguage)
	v.SetDefault("browser.locale", "ja-JP")
	v.SetDefault("browser.timezone", "Asia/Tokyo")
	v.SetDefault("browser.viewport_width", 1920)
	v.SetDefault("browser.viewport_height", 1080)
	v.SetDefault("browser.navigation_timeout_sec", 30)

	v.SetDefault("schedule.scrape", "0 3 * * *")
	v.SetDefault("schedule.track", "0 */6 * * *")
	v.SetDefault("schedule.timezone", "Asia/Tokyo")

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.log_dir", "logs")
	v.SetDefault("logging.rotation.max_size", 10)
	v.SetDefault("logging.rotation.max_backups", 3)
	v.SetDefault("logging.rotation.max_age", 28)
	v.SetDefault("logging.rotation.compress", true)

	v.SetDefault("output.report_dir", "reports")
	v.SetDefault("output.progress", true)
	v.SetDefault("metrics.textfile", "")
	v.SetDefault("resource.min_available_mb", 512)
}

const (
	// DefaultUserAgent 静态指纹: macOS上的Chrome 131
	DefaultUserAgent = "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) " +
		"AppleWebKit/537.36 (KHTML, like Gecko) " +
		"Chrome/131.0.0.0 Safari/537.36"

	// DefaultAcceptLanguage 静态指纹: 日语优先
	DefaultAcceptLanguage = "ja-JP,ja;q=0.9,en-US;q=0.8,en;q=0.7"
)

// Validate 检查取值范围
func (c *Config) Validate() error {
	var errs []error
	check := func(ok bool, format string, args ...interface{}) {
		if !ok {
			errs = append(errs, fmt.Errorf(format, args...))
		}
	}

	check(c.ResultsPerKeyword >= 1, "results_per_keyword 必须 >= 1 (当前 %d)", c.ResultsPerKeyword)
	check(c.ArticleWaitMs >= 0, "article_wait_ms 不能为负数 (当前 %d)", c.ArticleWaitMs)
	check(c.MaxRetries >= 0 && c.MaxRetries <= 10, "max_retries 必须在 0-10 之间 (当前 %d)", c.MaxRetries)
	check(c.RetryCooldownMs >= 0, "retry_cooldown_ms 不能为负数 (当前 %d)", c.RetryCooldownMs)
	check(c.SplitDays >= 1 && c.SplitDays <= 7, "split_days 必须在 1-7 之间 (当前 %d)", c.SplitDays)
	check(c.Discovery.MaxRounds >= 1, "discovery.max_rounds 必须 >= 1 (当前 %d)", c.Discovery.MaxRounds)
	check(c.Discovery.StagnationThreshold >= 1 && c.Discovery.StagnationThreshold <= 10,
		"discovery.stagnation_threshold 必须在 1-10 之间 (当前 %d)", c.Discovery.StagnationThreshold)
	check(c.Discovery.SettleMs >= 0, "discovery.settle_ms 不能为负数 (当前 %d)", c.Discovery.SettleMs)
	check(c.Sink.TimeoutSec >= 1, "sink.timeout_sec 必须 >= 1 (当前 %d)", c.Sink.TimeoutSec)

	if err := c.BetweenArticlesMs.Validate(); err != nil {
		errs = append(errs, fmt.Errorf("between_articles_ms: %w", err))
	}
	if err := c.BetweenPagesMs.Validate(); err != nil {
		errs = append(errs, fmt.Errorf("between_pages_ms: %w", err))
	}
	if err := models.ValidateOptionalURL("sink.url", c.Sink.URL); err != nil {
		errs = append(errs, err)
	}
	if err := models.ValidateOptionalURL("notify.webhook_url", c.Notify.WebhookURL); err != nil {
		errs = append(errs, err)
	}

	if len(errs) > 0 {
		return &models.ConfigError{Cause: errors.Join(errs...)}
	}
	return nil
}

// LogConfig 转换为日志配置
func (c *Config) LogConfig() utils.LogConfig {
	return utils.LogConfig{
		Level:      c.Logging.Level,
		LogDir:     c.Logging.LogDir,
		MaxSize:    c.Logging.Rotation.MaxSize,
		MaxBackups: c.Logging.Rotation.MaxBackups,
		MaxAge:     c.Logging.Rotation.MaxAge,
		Compress:   c.Logging.Rotation.Compress,
	}
}

// DiscoveryConfig 转换为发现器参数
func (c *Config) DiscoveryConfig() crawlers.DiscoveryConfig {
	return crawlers.DiscoveryConfig{
		MaxRounds:           c.Discovery.MaxRounds,
		StagnationThreshold: c.Discovery.StagnationThreshold,
		Settle:              time.Duration(c.Discovery.SettleMs) * time.Millisecond,
		BetweenPages:        c.BetweenPagesMs,
	}
}

// BrowserConfig 转换为浏览器参数
func (c *Config) BrowserConfig() crawlers.BrowserConfig {
	return crawlers.BrowserConfig{
		Headless:          c.Headless,
		Bin:               c.Browser.Bin,
		UserAgent:         c.Browser.UserAgent,
		AcceptLanguage:    c.Browser.AcceptLanguage,
		Locale:            c.Browser.Locale,
		Timezone:          c.Browser.Timezone,
		ViewportWidth:     c.Browser.ViewportWidth,
		ViewportHeight:    c.Browser.ViewportHeight,
		NavigationTimeout: time.Duration(c.Browser.NavigationTimeoutSec) * time.Second,
	}
}

// ProbeTimeout 24小时购买标记的等待上限
func (c *Config) ProbeTimeout() time.Duration {
	return time.Duration(c.ArticleWaitMs) * time.Millisecond
}

// RetryCooldown 重试间隔
func (c *Config) RetryCooldown() time.Duration {
	return time.Duration(c.RetryCooldownMs) * time.Millisecond
}
