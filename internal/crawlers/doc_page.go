package crawlers

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
)

// Fetcher 获取页面HTML
type Fetcher interface {
	Fetch(ctx context.Context, url string) ([]byte, error)
}

// DocPage 基于goquery的静态页面
// 不执行JavaScript,滚动为空操作; WaitAttached 只检查当前文档
type DocPage struct {
	url     string
	doc     *goquery.Document
	fetcher Fetcher

	// Scrolls ScrollToBottom 被调用的次数
	Scrolls int
}

// NewDocPage 从HTML内容创建静态页面
func NewDocPage(pageURL string, r io.Reader) (*DocPage, error) {
	p := &DocPage{url: pageURL}
	if err := p.load(r); err != nil {
		return nil, err
	}
	return p, nil
}

// NewFetchingDocPage 每次Navigate时通过fetcher重新获取HTML
func NewFetchingDocPage(fetcher Fetcher) *DocPage {
	return &DocPage{fetcher: fetcher}
}

func (p *DocPage) load(r io.Reader) error {
	root, err := html.Parse(r)
	if err != nil {
		return fmt.Errorf("解析HTML失败: %w", err)
	}
	p.doc = goquery.NewDocumentFromNode(root)
	return nil
}

// Navigate 无fetcher时只更新URL,保留已加载的文档
func (p *DocPage) Navigate(ctx context.Context, url string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	p.url = url
	if p.fetcher == nil {
		return nil
	}

	body, err := p.fetcher.Fetch(ctx, url)
	if err != nil {
		return fmt.Errorf("获取页面失败 [%s]: %w", url, err)
	}
	return p.load(bytes.NewReader(body))
}

// URL 当前页面地址
func (p *DocPage) URL() string {
	return p.url
}

func (p *DocPage) find(selector string) (*goquery.Selection, error) {
	if p.doc == nil {
		return nil, ErrNotNavigated
	}
	return p.doc.Find(selector), nil
}

// Text 第一个匹配元素的文本
func (p *DocPage) Text(selector string) (string, bool, error) {
	sel, err := p.find(selector)
	if err != nil {
		return "", false, err
	}
	if sel.Length() == 0 {
		return "", false, nil
	}
	return strings.TrimSpace(sel.First().Text()), true, nil
}

// Attr 第一个匹配元素的属性值
func (p *DocPage) Attr(selector, name string) (string, bool, error) {
	sel, err := p.find(selector)
	if err != nil {
		return "", false, err
	}
	if sel.Length() == 0 {
		return "", false, nil
	}
	v, _ := sel.First().Attr(name)
	return strings.TrimSpace(v), true, nil
}

// Texts 所有匹配元素的文本
func (p *DocPage) Texts(selector string) ([]string, error) {
	sel, err := p.find(selector)
	if err != nil {
		return nil, err
	}
	return sel.Map(func(_ int, s *goquery.Selection) string {
		return strings.TrimSpace(s.Text())
	}), nil
}

// Attrs 所有匹配元素的属性值
func (p *DocPage) Attrs(selector, name string) ([]string, error) {
	sel, err := p.find(selector)
	if err != nil {
		return nil, err
	}
	return sel.Map(func(_ int, s *goquery.Selection) string {
		v, _ := s.Attr(name)
		return v
	}), nil
}

// Title 文档标题
func (p *DocPage) Title() (string, error) {
	sel, err := p.find("title")
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(sel.First().Text()), nil
}

// BodyText body文本
func (p *DocPage) BodyText() (string, error) {
	sel, err := p.find("body")
	if err != nil {
		return "", err
	}
	return sel.Text(), nil
}

// ScrollToBottom 静态页面无需滚动
func (p *DocPage) ScrollToBottom() error {
	p.Scrolls++
	return nil
}

// WaitAttached 静态文档中元素存在即返回true
func (p *DocPage) WaitAttached(ctx context.Context, selector string, _ time.Duration) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	sel, err := p.find(selector)
	if err != nil {
		return false, err
	}
	return sel.Length() > 0, nil
}
