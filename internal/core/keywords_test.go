package core

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestKeywordsForToday(t *testing.T) {
	all := []string{"k0", "k1", "k2", "k3", "k4", "k5", "k6"}
	// 2025-03-10 是星期一
	monday := time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name      string
		splitDays int
		now       time.Time
		want      []string
	}{
		{"不分割", 1, monday, all},
		{"非正数视为不分割", 0, monday, all},
		{"星期一分3组", 3, monday, []string{"k0", "k3", "k6"}},
		{"星期二分3组", 3, monday.AddDate(0, 0, 1), []string{"k1", "k4"}},
		{"星期四分3组回到第0组", 3, monday.AddDate(0, 0, 3), []string{"k0", "k3", "k6"}},
		{"星期日分7组", 7, monday.AddDate(0, 0, 6), []string{"k6"}},
		{"分组数超过关键词数", 10, monday.AddDate(0, 0, 2), []string{"k2"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, KeywordsForToday(all, tt.splitDays, tt.now))
		})
	}
}

func TestKeywordsForTodayEmptyGroup(t *testing.T) {
	saturday := time.Date(2025, 3, 15, 0, 0, 0, 0, time.UTC)
	assert.Empty(t, KeywordsForToday([]string{"a", "b"}, 7, saturday))
}

func TestWeekdayIndex(t *testing.T) {
	assert.Equal(t, 0, weekdayIndex(time.Monday))
	assert.Equal(t, 6, weekdayIndex(time.Sunday))
}
