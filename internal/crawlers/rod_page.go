package crawlers

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/proto"
)

const (
	jsTexts = `(sel) => Array.from(document.querySelectorAll(sel), e => (e.innerText || e.textContent || '').trim())`
	jsAttrs = `(sel, name) => Array.from(document.querySelectorAll(sel), e => e.getAttribute(name) || '')`
	jsTitle = `() => document.title`
	jsBody  = `() => document.body ? document.body.innerText : ''`
	// 与搜索页的无限滚动配合,每次滚动一整个文档高度
	jsScroll = `() => window.scrollBy(0, document.body.scrollHeight)`
)

// defaultOpTimeout 单次DOM读取/脚本执行的上限
const defaultOpTimeout = 10 * time.Second

// RodPage go-rod标签页上的 Page 实现
// Navigate 之后的读取操作继承导航时的ctx, 并各自受 opTimeout 限制
type RodPage struct {
	page       *rod.Page
	bound      *rod.Page
	navTimeout time.Duration
	opTimeout  time.Duration
	url        string
}

// NewRodPage 包装rod标签页
func NewRodPage(page *rod.Page, navTimeout time.Duration) *RodPage {
	if navTimeout <= 0 {
		navTimeout = 30 * time.Second
	}
	return &RodPage{page: page, bound: page, navTimeout: navTimeout, opTimeout: defaultOpTimeout}
}

// op 绑定导航ctx并带超时的标签页, 调用方负责 CancelTimeout
func (r *RodPage) op() *rod.Page {
	return r.bound.Timeout(r.opTimeout)
}

// Navigate 导航并等待DOMContentLoaded
func (r *RodPage) Navigate(ctx context.Context, url string) error {
	r.bound = r.page.Context(ctx)
	p := r.bound.Timeout(r.navTimeout)
	defer p.CancelTimeout()

	wait := p.WaitNavigation(proto.PageLifecycleEventNameDOMContentLoaded)
	if err := p.Navigate(url); err != nil {
		return err
	}
	wait()

	if err := p.GetContext().Err(); err != nil {
		return fmt.Errorf("等待DOMContentLoaded超时: %w", err)
	}
	r.url = url
	return nil
}

// URL 最近一次导航的地址
func (r *RodPage) URL() string {
	return r.url
}

// Text 第一个匹配元素的innerText
func (r *RodPage) Text(selector string) (string, bool, error) {
	p := r.op()
	defer p.CancelTimeout()

	has, el, err := p.Has(selector)
	if err != nil || !has {
		return "", false, err
	}
	text, err := el.Text()
	if err != nil {
		return "", true, err
	}
	return strings.TrimSpace(text), true, nil
}

// Attr 第一个匹配元素的属性
func (r *RodPage) Attr(selector, name string) (string, bool, error) {
	p := r.op()
	defer p.CancelTimeout()

	has, el, err := p.Has(selector)
	if err != nil || !has {
		return "", false, err
	}
	v, err := el.Attribute(name)
	if err != nil {
		return "", true, err
	}
	if v == nil {
		return "", true, nil
	}
	return strings.TrimSpace(*v), true, nil
}

// Texts 一次脚本调用读取所有匹配元素的文本
func (r *RodPage) Texts(selector string) ([]string, error) {
	return r.evalStrings(jsTexts, selector)
}

// Attrs 一次脚本调用读取所有匹配元素的属性
func (r *RodPage) Attrs(selector, name string) ([]string, error) {
	return r.evalStrings(jsAttrs, selector, name)
}

func (r *RodPage) evalStrings(js string, args ...interface{}) ([]string, error) {
	result, err := r.eval(js, args...)
	if err != nil {
		return nil, fmt.Errorf("执行脚本失败: %w", err)
	}

	values := []string{}
	for _, item := range result.Value.Arr() {
		values = append(values, item.Str())
	}
	return values, nil
}

// Title 文档标题
func (r *RodPage) Title() (string, error) {
	result, err := r.eval(jsTitle)
	if err != nil {
		return "", fmt.Errorf("读取标题失败: %w", err)
	}
	return result.Value.Str(), nil
}

// BodyText body的innerText
func (r *RodPage) BodyText() (string, error) {
	result, err := r.eval(jsBody)
	if err != nil {
		return "", fmt.Errorf("读取正文失败: %w", err)
	}
	return result.Value.Str(), nil
}

// ScrollToBottom 触发懒加载
func (r *RodPage) ScrollToBottom() error {
	if _, err := r.eval(jsScroll); err != nil {
		return fmt.Errorf("滚动失败: %w", err)
	}
	return nil
}

func (r *RodPage) eval(js string, args ...interface{}) (*proto.RuntimeRemoteObject, error) {
	p := r.op()
	defer p.CancelTimeout()
	return p.Eval(js, args...)
}

// WaitAttached 等待元素挂载,超时视为不存在
func (r *RodPage) WaitAttached(ctx context.Context, selector string, timeout time.Duration) (bool, error) {
	p := r.page.Context(ctx).Timeout(timeout)
	defer p.CancelTimeout()

	_, err := p.Element(selector)
	if err == nil {
		return true, nil
	}
	if errors.Is(err, context.DeadlineExceeded) && ctx.Err() == nil {
		return false, nil
	}
	return false, err
}

// Close 关闭标签页
func (r *RodPage) Close() error {
	return r.page.Close()
}
