package main

import (
	"context"
	"fmt"
	"time"

	"github.com/RecoveryAshes/NoteTracker/internal/config"
	"github.com/RecoveryAshes/NoteTracker/internal/core"
	"github.com/RecoveryAshes/NoteTracker/internal/crawlers"
	"github.com/RecoveryAshes/NoteTracker/internal/utils"
)

// browserSession 一次运行使用的浏览器及其标签页
type browserSession struct {
	browser *crawlers.Browser
	pages   []*crawlers.RodPage
}

// newHeaderManager 合并配置文件与命令行的额外请求头
func newHeaderManager(cfg *config.Config) (*core.HeaderManager, error) {
	hm, err := core.NewHeaderManager(cfg.Browser.AcceptLanguage, cfg.Browser.Headers, headers)
	if err != nil {
		return nil, fmt.Errorf("创建HTTP头部管理器失败: %w", err)
	}
	return hm, nil
}

// openSession 检查系统资源后启动浏览器
func openSession(cfg *config.Config) (*browserSession, error) {
	monitor := crawlers.NewResourceMonitor(cfg.Resource.MinAvailableMB)
	if _, err := monitor.Preflight(); err != nil {
		return nil, err
	}

	hm, err := newHeaderManager(cfg)
	if err != nil {
		return nil, err
	}

	utils.Infof("🌐 启动浏览器 (headless=%v)", cfg.Headless)
	b, err := crawlers.LaunchBrowser(cfg.BrowserConfig(), hm)
	if err != nil {
		return nil, err
	}
	return &browserSession{browser: b}, nil
}

// newPage 打开一个标签页, 随会话一起关闭
func (s *browserSession) newPage(ctx context.Context) (*crawlers.RodPage, error) {
	page, err := s.browser.NewPage(ctx)
	if err != nil {
		return nil, err
	}
	s.pages = append(s.pages, page)
	return page, nil
}

// Close 关闭所有标签页与浏览器
func (s *browserSession) Close() {
	for _, p := range s.pages {
		if err := p.Close(); err != nil {
			utils.Debugf("关闭标签页失败: %v", err)
		}
	}
	if err := s.browser.Close(); err != nil {
		utils.Warnf("关闭浏览器失败: %v", err)
	}
}

// location 关键词轮换与定时任务使用的时区
func location(cfg *config.Config) *time.Location {
	if cfg.Schedule.Timezone == "" {
		return time.Local
	}
	loc, err := time.LoadLocation(cfg.Schedule.Timezone)
	if err != nil {
		utils.Warnf("无效的时区 %q, 使用本地时区", cfg.Schedule.Timezone)
		return time.Local
	}
	return loc
}
