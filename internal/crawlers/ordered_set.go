package crawlers

// OrderedSet 保持首次出现顺序的去重字符串集合
// 只在单个顺序控制流内使用,不加锁
type OrderedSet struct {
	items []string
	seen  map[string]struct{}
}

// NewOrderedSet 创建集合
func NewOrderedSet() *OrderedSet {
	return &OrderedSet{seen: make(map[string]struct{})}
}

// Add 加入元素,已存在时返回false
func (s *OrderedSet) Add(u string) bool {
	if _, ok := s.seen[u]; ok {
		return false
	}
	s.seen[u] = struct{}{}
	s.items = append(s.items, u)
	return true
}

// Contains 是否已存在
func (s *OrderedSet) Contains(u string) bool {
	_, ok := s.seen[u]
	return ok
}

// Len 元素个数
func (s *OrderedSet) Len() int {
	return len(s.items)
}

// Items 按插入顺序返回副本
func (s *OrderedSet) Items() []string {
	out := make([]string, len(s.items))
	copy(out, s.items)
	return out
}

// MergeUnique 依次合并多个有序URL列表,去重并在达到limit时截断
// limit<=0 表示不截断
func MergeUnique(limit int, lists ...[]string) []string {
	set := NewOrderedSet()
	for _, list := range lists {
		for _, u := range list {
			if limit > 0 && set.Len() >= limit {
				return set.Items()
			}
			set.Add(u)
		}
	}
	return set.Items()
}
