package crawlers

import (
	"fmt"
	"net/url"
	"regexp"
	"strings"
	"unicode"

	"github.com/rs/zerolog/log"
)

const (
	// NoteOrigin 平台根地址,相对链接以此补全
	NoteOrigin = "https://note.com"

	searchURLTemplate = NoteOrigin + "/search?context=note_for_sale&q=%s&sort=%s"
)

// articleURLPattern 文章永久链接: https://note.com/<作者>/n/<文章ID>
var articleURLPattern = regexp.MustCompile(`^https://note\.com/[^/?#]+/n/[^/?#]+`)

// SearchURL 付费文章搜索页地址
func SearchURL(keyword, sort string) string {
	return fmt.Sprintf(searchURLTemplate, url.QueryEscape(keyword), sort)
}

// Absolutize 相对链接补全为平台绝对地址
func Absolutize(href string) string {
	href = strings.TrimSpace(href)
	if strings.HasPrefix(href, "//") {
		return "https:" + href
	}
	if strings.HasPrefix(href, "/") {
		return NoteOrigin + href
	}
	return href
}

// Canonicalize 规范化文章URL: 去掉fragment与query,去掉末尾斜杠与空白
// 对同一输入重复调用结果不变
func Canonicalize(rawURL string) string {
	u := Absolutize(rawURL)
	if i := strings.IndexByte(u, '#'); i >= 0 {
		u = u[:i]
	}
	if i := strings.IndexByte(u, '?'); i >= 0 {
		u = u[:i]
	}
	return strings.TrimRightFunc(u, isTrailingNoise)
}

// isTrailingNoise 末尾交替出现的斜杠与空白一并去掉
func isTrailingNoise(r rune) bool {
	return r == '/' || unicode.IsSpace(r)
}

// IsArticleURL 判断是否为文章永久链接
func IsArticleURL(rawURL string) bool {
	return articleURLPattern.MatchString(Absolutize(rawURL))
}

// URLExtractor 从搜索结果页提取文章链接
type URLExtractor struct{}

// NewURLExtractor 创建URL提取器实例
func NewURLExtractor() *URLExtractor {
	return &URLExtractor{}
}

// ExtractFromPage 读取当前渲染的所有a[href],过滤出文章链接并规范化
// 返回结果按页面出现顺序去重
func (e *URLExtractor) ExtractFromPage(page Page) ([]string, error) {
	hrefs, err := page.Attrs("a[href]", "href")
	if err != nil {
		log.Error().Err(err).Str("url", page.URL()).Msg("批量提取链接失败")
		return nil, fmt.Errorf("提取链接失败: %w", err)
	}
	return e.Filter(hrefs), nil
}

// Filter 过滤并规范化href列表
func (e *URLExtractor) Filter(hrefs []string) []string {
	set := NewOrderedSet()
	for _, href := range hrefs {
		if href == "" {
			continue
		}
		abs := Absolutize(href)
		if !strings.HasPrefix(abs, NoteOrigin+"/") {
			continue
		}
		if !IsArticleURL(abs) {
			log.Debug().Msgf("非文章链接已过滤: %s", abs)
			continue
		}
		set.Add(Canonicalize(abs))
	}
	return set.Items()
}
