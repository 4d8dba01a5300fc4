package models

import (
	"encoding/json"
	"time"
)

const (
	// SalesMessage24h 过去24小时内有购买时附带的固定文案
	SalesMessage24h = "買われています 過去24時間"

	// SalesClaimMarker 正文中出现销量宣传语时的标记值
	SalesClaimMarker = "○"

	// RecordedAtLayout recordedAt字段的时间格式(UTC)
	RecordedAtLayout = "2006-01-02T15:04:05Z"
)

// Record 单篇付费文章的抓取结果
// JSON字段名与接收端(GAS)约定一致,不可随意修改
type Record struct {
	URL          string `json:"url"`
	Title        string `json:"title"`
	Author       string `json:"author"`
	AuthorURL    string `json:"authorUrl"`
	Likes        int    `json:"likes"`
	HighRating   int    `json:"highRating"`
	Price        int    `json:"price"`
	Tags         string `json:"tags"`
	CreatedAt    string `json:"createdAt"`
	SalesClaim   string `json:"salesClaim"`
	HasSalesInfo bool   `json:"hasSalesInfo"`
	SalesMessage string `json:"salesMessage"`
	Purchased24h bool   `json:"purchased24h"`
	RecordedAt   string `json:"recordedAt"`
}

// RecordFields 构建Record所需的原始字段
type RecordFields struct {
	URL          string
	Title        string
	Author       string
	AuthorURL    string
	Likes        int
	HighRating   int
	Price        int
	Tags         string
	CreatedAt    string
	SalesClaim   string
	Purchased24h bool
}

// NewRecord 根据提取结果构建Record
// 负数计数一律归零; hasSalesInfo与purchased24h保持一致
func NewRecord(f RecordFields, recordedAt time.Time) *Record {
	r := &Record{
		URL:          f.URL,
		Title:        f.Title,
		Author:       f.Author,
		AuthorURL:    f.AuthorURL,
		Likes:        nonNegative(f.Likes),
		HighRating:   nonNegative(f.HighRating),
		Price:        nonNegative(f.Price),
		Tags:         f.Tags,
		CreatedAt:    f.CreatedAt,
		SalesClaim:   f.SalesClaim,
		HasSalesInfo: f.Purchased24h,
		Purchased24h: f.Purchased24h,
		RecordedAt:   recordedAt.UTC().Format(RecordedAtLayout),
	}
	if f.Purchased24h {
		r.SalesMessage = SalesMessage24h
	}
	return r
}

// ToJSON 序列化为JSON
func (r *Record) ToJSON() ([]byte, error) {
	return json.Marshal(r)
}

func nonNegative(n int) int {
	if n < 0 {
		return 0
	}
	return n
}
