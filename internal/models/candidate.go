package models

// SortOrder 搜索结果排序方式
type SortOrder string

const (
	SortPopular SortOrder = "popular" // 人气顺
	SortTrend   SortOrder = "trend"   // 急上升
)

// SortOrders 每个关键词依次执行的排序方式
var SortOrders = []SortOrder{SortPopular, SortTrend}

// Candidate 待抓取的文章URL
type Candidate struct {
	// URL 规范化后的文章地址
	URL string

	// Keyword 发现此URL的关键词
	Keyword string

	// Index 在合并后候选列表中的序号(从1开始)
	Index int
}
