package crawlers

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/RecoveryAshes/NoteTracker/internal/models"
	"github.com/RecoveryAshes/NoteTracker/internal/utils"
)

// PurchasedWithin24hSelector "过去24小时内有人购买"气泡
const PurchasedWithin24hSelector = ".m-purchasedWithinLast24HoursBalloon"

const titleSuffix = " | note"

// Locator 一个候选定位: CSS选择器 + 可选属性名(为空时读取文本)
type Locator struct {
	Selector string
	Attr     string
}

func (l Locator) read(page Page) (string, error) {
	var (
		v   string
		err error
	)
	if l.Attr != "" {
		v, _, err = page.Attr(l.Selector, l.Attr)
	} else {
		v, _, err = page.Text(l.Selector)
	}
	if err != nil {
		return "", fmt.Errorf("读取 %s 失败: %w", l.Selector, err)
	}
	return strings.TrimSpace(v), nil
}

// 各字段的候选定位表,按优先级排列
var (
	titleLocators = []Locator{
		{Selector: "h1.o-noteContentText__title"},
		{Selector: "h1.note-title"},
		{Selector: ".p-note__title h1"},
		{Selector: "h1"},
		{Selector: `meta[property="og:title"]`, Attr: "content"},
	}

	authorLocators = []Locator{
		{Selector: ".o-noteContentHeader__name a"},
		{Selector: ".o-noteContentHeader__author a"},
		{Selector: ".o-noteContentHeader__author"},
		{Selector: ".p-noteHeader__author"},
		{Selector: ".note-author-name"},
		{Selector: `meta[name="author"]`, Attr: "content"},
	}

	authorURLLocators = []Locator{
		{Selector: ".o-noteContentHeader__name a", Attr: "href"},
		{Selector: ".o-noteContentHeader__author a", Attr: "href"},
		{Selector: ".p-noteHeader__author a", Attr: "href"},
		{Selector: ".note-author-link", Attr: "href"},
	}

	likeLocators = []Locator{
		{Selector: ".o-noteLikeV3__count"},
		{Selector: "[data-like-count]", Attr: "data-like-count"},
		{Selector: "[data-like-count]"},
		{Selector: ".note-like-count"},
		{Selector: ".js-like-count"},
	}

	highRatingLocators = []Locator{
		{Selector: ".o-noteHighRating__count"},
		{Selector: "[class*='highRating'] [class*='count']"},
		{Selector: "[class*='HighRating'] [class*='count']"},
		{Selector: "[class*='highRating']"},
		{Selector: "[class*='HighRating']"},
	}

	createdAtLocators = []Locator{
		{Selector: `meta[property="article:published_time"]`, Attr: "content"},
		{Selector: "time[datetime]", Attr: "datetime"},
		{Selector: "time"},
	}

	// 标签: 第一个有结果的选择器即为权威结果,不跨选择器合并
	tagSelectors = []string{
		".m-tagList a",
		"a[href*='/hashtag/']",
		"a[href*='/tags/']",
	}
)

var (
	digitRunPattern  = regexp.MustCompile(`[0-9]+`)
	yenPattern       = regexp.MustCompile(`[¥￥]\s*([0-9][0-9,]*)`)
	freeTierPattern  = regexp.MustCompile(`[¥￥]\s*0\s*[〜~～\-–]`)
	highRatingInBody = regexp.MustCompile(`([0-9][0-9,]*)\s*人が高評価`)

	// 正文中的销量宣传语: 数字 + 部/人/冊 + 突破/达成/售出等
	salesClaimPatterns = []*regexp.Regexp{
		regexp.MustCompile(`[0-9][0-9,]*\s*(部|冊|本|人)\s*(突破|達成)`),
		regexp.MustCompile(`[0-9][0-9,]*\s*(部|冊|本)\s*(販売|売れ|完売)`),
		regexp.MustCompile(`[0-9][0-9,]*\s*人\s*(が|に)?\s*(購入|買われ)`),
		regexp.MustCompile(`販売\s*(部数|数)\s*[0-9][0-9,]*`),
	}

	fullWidthDigits = strings.NewReplacer(
		"０", "0", "１", "1", "２", "2", "３", "3", "４", "4",
		"５", "5", "６", "6", "７", "7", "８", "8", "９", "9",
		"，", ",",
	)
)

// ParseCount 去掉千分位后取第一段数字,无法解析时为0
func ParseCount(text string) int {
	n, _ := parseCount(text)
	return n
}

func parseCount(text string) (int, bool) {
	text = strings.ReplaceAll(fullWidthDigits.Replace(text), ",", "")
	m := digitRunPattern.FindString(text)
	if m == "" {
		return 0, false
	}
	n, err := strconv.Atoi(m)
	if err != nil {
		return 0, false
	}
	return n, true
}

// IsFreeTierMarker 是否显示"¥0〜"免费档标记
func IsFreeTierMarker(text string) bool {
	return freeTierPattern.MatchString(fullWidthDigits.Replace(text))
}

// FirstYenAmount 文本中第一个大于0的"¥N"金额
func FirstYenAmount(text string) (int, bool) {
	for _, m := range yenPattern.FindAllStringSubmatch(fullWidthDigits.Replace(text), -1) {
		if n, ok := parseCount(m[1]); ok && n > 0 {
			return n, true
		}
	}
	return 0, false
}

// priceTier 价格级联中的一层
type priceTier struct {
	name      string
	selectors []string

	// scanAll 为true时扫描所有匹配元素,否则只看每个选择器的第一个元素
	scanAll bool

	// parse 返回 (价格, 是否命中); 命中0仅用于免费档标记
	parse func(text string) (int, bool)
}

// priceKeywords 全文扫描时用于筛选文本节点的购买相关词
var priceKeywords = []string{"購入", "価格", "販売", "有料", "買う"}

var priceTiers = []priceTier{
	{
		name: "header-status",
		selectors: []string{
			".o-noteContentHeader__status",
			"[class*='ContentHeader'] [class*='status']",
		},
		parse: func(text string) (int, bool) {
			if IsFreeTierMarker(text) {
				return 0, true
			}
			return FirstYenAmount(text)
		},
	},
	{
		name: "header-price",
		selectors: []string{
			".o-noteContentHeader__price",
			".p-article__price",
			"[class*='ContentHeader'] [class*='price']",
		},
		parse: func(text string) (int, bool) {
			if IsFreeTierMarker(text) {
				return 0, true
			}
			if n, ok := FirstYenAmount(text); ok {
				return n, true
			}
			if n, ok := parseCount(text); ok && n > 0 {
				return n, true
			}
			return 0, false
		},
	},
	{
		name: "paywall",
		selectors: []string{
			".o-noteContentPaywall__price",
			".p-paywall__price",
			"[class*='paywall'] [class*='price']",
			"[class*='Paywall'] [class*='price']",
		},
		parse: func(text string) (int, bool) {
			if n, ok := parseCount(text); ok && n > 0 {
				return n, true
			}
			return 0, false
		},
	},
	{
		name: "purchase-button",
		selectors: []string{
			".o-notePurchaseButton",
			"[class*='purchaseButton']",
			"[class*='PurchaseButton']",
			"button[class*='purchase']",
			"[class*='purchase'] button",
		},
		scanAll: true,
		parse:   FirstYenAmount,
	},
	{
		// 已知误判面: 页面其他位置同时含购买词与金额的文本也会命中
		name:      "document-scan",
		selectors: []string{"p, div, span, button"},
		scanAll:   true,
		parse: func(text string) (int, bool) {
			if !containsAny(text, priceKeywords) {
				return 0, false
			}
			return FirstYenAmount(text)
		},
	},
}

func containsAny(s string, words []string) bool {
	for _, w := range words {
		if strings.Contains(s, w) {
			return true
		}
	}
	return false
}

// Extractor 文章页字段提取器
type Extractor struct {
	probeTimeout time.Duration
	now          func() time.Time
}

// NewExtractor 创建提取器, probeTimeout 为24小时购买气泡的等待上限
func NewExtractor(probeTimeout time.Duration) *Extractor {
	return &Extractor{
		probeTimeout: probeTimeout,
		now:          time.Now,
	}
}

// WithClock 替换记录时间来源
func (e *Extractor) WithClock(now func() time.Time) *Extractor {
	e.now = now
	return e
}

// Extract 从已导航的文章页提取记录
// 缺失字段取零值; 页面操作本身出错时返回错误
func (e *Extractor) Extract(ctx context.Context, page Page, articleURL string) (*models.Record, error) {
	purchased, err := page.WaitAttached(ctx, PurchasedWithin24hSelector, e.probeTimeout)
	if err != nil {
		return nil, fmt.Errorf("检测24小时购买标记失败: %w", err)
	}

	f := models.RecordFields{URL: articleURL, Purchased24h: purchased}

	if f.Title, err = e.title(page); err != nil {
		return nil, err
	}
	if f.Author, err = firstNonEmpty(page, authorLocators); err != nil {
		return nil, err
	}
	href, err := firstNonEmpty(page, authorURLLocators)
	if err != nil {
		return nil, err
	}
	if href != "" {
		f.AuthorURL = Absolutize(href)
	}
	if f.Likes, err = firstCount(page, likeLocators); err != nil {
		return nil, err
	}
	if f.HighRating, err = e.highRating(page); err != nil {
		return nil, err
	}
	if f.Price, err = e.price(page); err != nil {
		return nil, err
	}
	if f.Tags, err = e.tags(page); err != nil {
		return nil, err
	}
	if f.CreatedAt, err = firstNonEmpty(page, createdAtLocators); err != nil {
		return nil, err
	}
	if f.SalesClaim, err = e.salesClaim(page); err != nil {
		return nil, err
	}

	return models.NewRecord(f, e.now()), nil
}

func firstNonEmpty(page Page, locators []Locator) (string, error) {
	for _, l := range locators {
		v, err := l.read(page)
		if err != nil {
			return "", err
		}
		if v != "" {
			return v, nil
		}
	}
	return "", nil
}

func firstCount(page Page, locators []Locator) (int, error) {
	for _, l := range locators {
		v, err := l.read(page)
		if err != nil {
			return 0, err
		}
		if n, ok := parseCount(v); ok {
			return n, nil
		}
	}
	return 0, nil
}

func (e *Extractor) title(page Page) (string, error) {
	title, err := firstNonEmpty(page, titleLocators)
	if err != nil || title != "" {
		return title, err
	}

	docTitle, err := page.Title()
	if err != nil {
		return "", fmt.Errorf("读取文档标题失败: %w", err)
	}
	return strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(docTitle), titleSuffix)), nil
}

func (e *Extractor) highRating(page Page) (int, error) {
	n, err := firstCount(page, highRatingLocators)
	if err != nil || n > 0 {
		return n, err
	}

	body, err := page.BodyText()
	if err != nil {
		return 0, fmt.Errorf("读取正文失败: %w", err)
	}
	if m := highRatingInBody.FindStringSubmatch(fullWidthDigits.Replace(body)); m != nil {
		return ParseCount(m[1]), nil
	}
	return 0, nil
}

func (e *Extractor) price(page Page) (int, error) {
	for _, tier := range priceTiers {
		for _, sel := range tier.selectors {
			var texts []string
			if tier.scanAll {
				all, err := page.Texts(sel)
				if err != nil {
					return 0, fmt.Errorf("价格[%s] 读取 %s 失败: %w", tier.name, sel, err)
				}
				texts = all
			} else {
				text, found, err := page.Text(sel)
				if err != nil {
					return 0, fmt.Errorf("价格[%s] 读取 %s 失败: %w", tier.name, sel, err)
				}
				if !found {
					continue
				}
				texts = []string{text}
			}

			for _, text := range texts {
				if n, ok := tier.parse(text); ok {
					utils.Debugf("价格命中 [%s] %s: %d", tier.name, sel, n)
					return n, nil
				}
			}
		}
	}
	return 0, nil
}

// tags 第一个有匹配元素的选择器即为结果, 即使其文本全部为空
func (e *Extractor) tags(page Page) (string, error) {
	for _, sel := range tagSelectors {
		texts, err := page.Texts(sel)
		if err != nil {
			return "", fmt.Errorf("读取标签 %s 失败: %w", sel, err)
		}
		if len(texts) == 0 {
			continue
		}

		set := NewOrderedSet()
		for _, t := range texts {
			t = strings.TrimSpace(strings.TrimLeft(strings.TrimSpace(t), "#＃"))
			if t != "" {
				set.Add(t)
			}
		}
		return strings.Join(set.Items(), ", "), nil
	}
	return "", nil
}

func (e *Extractor) salesClaim(page Page) (string, error) {
	body, err := page.BodyText()
	if err != nil {
		return "", fmt.Errorf("读取正文失败: %w", err)
	}
	body = fullWidthDigits.Replace(body)
	for _, p := range salesClaimPatterns {
		if p.MatchString(body) {
			return models.SalesClaimMarker, nil
		}
	}
	return "", nil
}
