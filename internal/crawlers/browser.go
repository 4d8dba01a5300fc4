package crawlers

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/RecoveryAshes/NoteTracker/internal/models"
	"github.com/RecoveryAshes/NoteTracker/internal/utils"
	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/launcher/flags"
	"github.com/go-rod/rod/lib/proto"
)

// BrowserConfig 浏览器启动与静态指纹参数
type BrowserConfig struct {
	Headless       bool
	Bin            string // 为空时由rod自动查找或下载
	UserAgent      string
	AcceptLanguage string
	Locale         string
	Timezone       string
	ViewportWidth  int
	ViewportHeight int

	// NavigationTimeout 单次导航的超时
	NavigationTimeout time.Duration
}

// Browser 一次运行共享的浏览器会话
type Browser struct {
	browser  *rod.Browser
	launcher *launcher.Launcher
	config   BrowserConfig

	// HTTP头部提供者
	headerProvider models.HeaderProvider
}

// LaunchBrowser 启动并连接浏览器
// 启动过程中的panic转换为 ErrBrowserCrashed
func LaunchBrowser(config BrowserConfig, headerProvider models.HeaderProvider) (b *Browser, err error) {
	defer func() {
		if r := recover(); r != nil {
			utils.Errorf("浏览器启动panic: %v", r)
			b = nil
			err = fmt.Errorf("%w: %v", ErrBrowserCrashed, r)
		}
	}()

	l := launcher.New().Headless(config.Headless)
	if config.Bin != "" {
		l = l.Bin(config.Bin)
	}
	if config.Locale != "" {
		l = l.Set(flags.Flag("lang"), config.Locale)
	}
	if config.ViewportWidth > 0 && config.ViewportHeight > 0 {
		l = l.Set(flags.Flag("window-size"), fmt.Sprintf("%d,%d", config.ViewportWidth, config.ViewportHeight))
	}

	controlURL, err := l.Launch()
	if err != nil {
		return nil, fmt.Errorf("启动浏览器失败: %w", err)
	}

	browser := rod.New().ControlURL(controlURL)
	if err := browser.Connect(); err != nil {
		l.Kill()
		return nil, fmt.Errorf("连接浏览器失败: %w", err)
	}

	utils.Debugf("浏览器已启动: %s (headless=%v)", controlURL, config.Headless)
	return &Browser{
		browser:        browser,
		launcher:       l,
		config:         config,
		headerProvider: headerProvider,
	}, nil
}

// NewPage 打开一个应用了静态指纹的新标签页
func (b *Browser) NewPage(ctx context.Context) (*RodPage, error) {
	page, err := b.browser.Context(ctx).Page(proto.TargetCreateTarget{})
	if err != nil {
		return nil, fmt.Errorf("创建标签页失败: %w", err)
	}
	if err := b.applyFingerprint(page); err != nil {
		_ = page.Close()
		return nil, err
	}
	return NewRodPage(page, b.config.NavigationTimeout), nil
}

func (b *Browser) applyFingerprint(page *rod.Page) error {
	cfg := b.config

	if cfg.UserAgent != "" || cfg.AcceptLanguage != "" {
		if err := page.SetUserAgent(&proto.NetworkSetUserAgentOverride{
			UserAgent:      cfg.UserAgent,
			AcceptLanguage: cfg.AcceptLanguage,
		}); err != nil {
			return fmt.Errorf("设置UserAgent失败: %w", err)
		}
	}

	if cfg.ViewportWidth > 0 && cfg.ViewportHeight > 0 {
		if err := page.SetViewport(&proto.EmulationSetDeviceMetricsOverride{
			Width:             cfg.ViewportWidth,
			Height:            cfg.ViewportHeight,
			DeviceScaleFactor: 1,
		}); err != nil {
			return fmt.Errorf("设置视口失败: %w", err)
		}
	}

	if cfg.Timezone != "" {
		if err := (proto.EmulationSetTimezoneOverride{TimezoneID: cfg.Timezone}).Call(page); err != nil {
			return fmt.Errorf("设置时区失败: %w", err)
		}
	}

	if cfg.Locale != "" {
		if err := (proto.EmulationSetLocaleOverride{Locale: cfg.Locale}).Call(page); err != nil {
			return fmt.Errorf("设置语言区域失败: %w", err)
		}
	}

	if b.headerProvider == nil {
		return nil
	}
	headers, err := b.headerProvider.GetHeaders()
	if err != nil {
		utils.Warnf("获取HTTP头部失败: %v", err)
		return nil
	}
	if dict := headerDict(headers); len(dict) > 0 {
		if _, err := page.SetExtraHeaders(dict); err != nil {
			return fmt.Errorf("设置额外请求头失败: %w", err)
		}
	}
	return nil
}

var headerValidator = utils.NewHeaderValidator()

// extraHeaders 去掉由指纹配置管理的头部(UA/Accept-Language等已单独设置)
func extraHeaders(headers http.Header) http.Header {
	out := make(http.Header, len(headers))
	for name, values := range headers {
		if len(values) == 0 || headerValidator.IsManaged(name) {
			continue
		}
		out[name] = values
	}
	return out
}

// headerDict 转换为rod需要的 [name, value, name, value...] 形式
func headerDict(headers http.Header) []string {
	extra := extraHeaders(headers)
	dict := make([]string, 0, len(extra)*2)
	for name, values := range extra {
		dict = append(dict, name, values[0])
	}
	return dict
}

// Close 关闭浏览器并清理进程
func (b *Browser) Close() error {
	if b == nil || b.browser == nil {
		return nil
	}
	err := b.browser.Close()
	if b.launcher != nil {
		b.launcher.Kill()
	}
	utils.Debugf("浏览器已关闭")
	return err
}
