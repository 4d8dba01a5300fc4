package core

import (
	"time"
)

// weekdayIndex 星期一为0, 星期日为6
func weekdayIndex(d time.Weekday) int {
	return (int(d) + 6) % 7
}

// KeywordsForToday 按星期轮换关键词
// splitDays<=1 时返回全部; 否则取 all[idx::splitDays], idx = 星期序号 % splitDays
func KeywordsForToday(all []string, splitDays int, now time.Time) []string {
	if splitDays <= 1 {
		return all
	}

	selected := make([]string, 0, len(all)/splitDays+1)
	for i := weekdayIndex(now.Weekday()) % splitDays; i < len(all); i += splitDays {
		selected = append(selected, all[i])
	}
	return selected
}
