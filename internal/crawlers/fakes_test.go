package crawlers

import (
	"context"
	"fmt"
	"strings"
	"time"
)

func noSleep(context.Context, time.Duration) error { return nil }

// feedPage 模拟无限滚动的搜索结果页
// gen(sort, round) 返回第round轮时页面上可见的所有href
type feedPage struct {
	gen func(sort string, round int) []string

	url       string
	round     int
	navigated []string
	scrolls   int
}

func (p *feedPage) sort() string {
	switch {
	case strings.Contains(p.url, "sort=popular"):
		return "popular"
	case strings.Contains(p.url, "sort=trend"):
		return "trend"
	}
	return ""
}

func (p *feedPage) Navigate(_ context.Context, url string) error {
	p.url = url
	p.round = 0
	p.navigated = append(p.navigated, url)
	return nil
}

func (p *feedPage) URL() string { return p.url }
func (p *feedPage) Text(string) (string, bool, error) { return "", false, nil }
func (p *feedPage) Attr(string, string) (string, bool, error) { return "", false, nil }
func (p *feedPage) Texts(string) ([]string, error) { return nil, nil }
func (p *feedPage) Title() (string, error) { return "", nil }
func (p *feedPage) BodyText() (string, error) { return "", nil }

func (p *feedPage) Attrs(selector, _ string) ([]string, error) {
	if selector != "a[href]" {
		return nil, fmt.Errorf("unexpected selector %q", selector)
	}
	return p.gen(p.sort(), p.round), nil
}

func (p *feedPage) ScrollToBottom() error {
	p.round++
	p.scrolls++
	return nil
}

func (p *feedPage) WaitAttached(context.Context, string, time.Duration) (bool, error) {
	return false, nil
}

// articleHrefs 生成n个文章链接 https://note.com/<prefix>/n/n<i>
func articleHrefs(prefix string, from, n int) []string {
	out := make([]string, 0, n)
	for i := from; i < from+n; i++ {
		out = append(out, fmt.Sprintf("https://note.com/%s/n/n%d", prefix, i))
	}
	return out
}

// errPage 所有操作都返回同一个错误
type errPage struct{ err error }

func (p errPage) Navigate(context.Context, string) error { return p.err }
func (p errPage) URL() string { return "" }
func (p errPage) Text(string) (string, bool, error) { return "", false, p.err }
func (p errPage) Attr(string, string) (string, bool, error) { return "", false, p.err }
func (p errPage) Texts(string) ([]string, error) { return nil, p.err }
func (p errPage) Attrs(string, string) ([]string, error) { return nil, p.err }
func (p errPage) Title() (string, error) { return "", p.err }
func (p errPage) BodyText() (string, error) { return "", p.err }
func (p errPage) ScrollToBottom() error { return p.err }
func (p errPage) WaitAttached(context.Context, string, time.Duration) (bool, error) {
	return false, p.err
}
