package crawlers

import (
	"context"
	"errors"
	"io"
	"net"
	"strings"
	"time"

	"github.com/go-rod/rod/lib/cdp"
)

// 错误类型定义
var (
	ErrBrowserCrashed    = errors.New("浏览器崩溃")
	ErrMaxRetriesReached = errors.New("已达最大重试次数")
	ErrNotNavigated      = errors.New("页面尚未导航")
)

// 连接断开时rod直接透传底层websocket的错误文本
var sessionLostMarkers = []string{
	"use of closed network connection",
	"connection reset by peer",
	"broken pipe",
	"target crashed",
	"target closed",
	"websocket: close",
}

// IsSessionLost 错误是否表示浏览器会话已丢失(连接断开/标签崩溃)
func IsSessionLost(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrBrowserCrashed) ||
		errors.Is(err, net.ErrClosed) ||
		errors.Is(err, io.EOF) ||
		errors.Is(err, cdp.ErrSessionNotFound) ||
		errors.Is(err, cdp.ErrNotAttachedToActivePage) {
		return true
	}
	msg := strings.ToLower(err.Error())
	for _, marker := range sessionLostMarkers {
		if strings.Contains(msg, marker) {
			return true
		}
	}
	return false
}

// Page 抓取流程所需的最小页面能力
// 生产环境由go-rod实现(RodPage),测试与 inspect --static 使用goquery实现(DocPage)
type Page interface {
	// Navigate 导航到URL并等待DOMContentLoaded
	Navigate(ctx context.Context, url string) error

	// URL 当前页面地址
	URL() string

	// Text 第一个匹配元素的可见文本, found=false 表示无匹配
	Text(selector string) (text string, found bool, err error)

	// Attr 第一个匹配元素的属性值
	Attr(selector, name string) (value string, found bool, err error)

	// Texts 所有匹配元素的文本(单次批量读取)
	Texts(selector string) ([]string, error)

	// Attrs 所有匹配元素的属性值(单次批量读取)
	Attrs(selector, name string) ([]string, error)

	// Title 文档标题
	Title() (string, error)

	// BodyText 整个body的可见文本
	BodyText() (string, error)

	// ScrollToBottom 向下滚动一整屏高度,触发懒加载
	ScrollToBottom() error

	// WaitAttached 在timeout内等待元素挂载到DOM
	// 超时返回 (false, nil); 其他错误原样返回
	WaitAttached(ctx context.Context, selector string, timeout time.Duration) (bool, error)
}

// SleepFunc 可被替换的等待函数,ctx取消时提前返回
type SleepFunc func(ctx context.Context, d time.Duration) error

// ContextSleep 默认的等待实现
func ContextSleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
