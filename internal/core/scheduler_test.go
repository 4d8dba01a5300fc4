package core

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewSchedulerTimezone(t *testing.T) {
	_, err := NewScheduler("Asia/Tokyo")
	require.NoError(t, err)

	_, err = NewScheduler("Mars/Olympus")
	assert.Error(t, err)
}

func TestSchedulerAdd(t *testing.T) {
	s, err := NewScheduler("UTC")
	require.NoError(t, err)

	noop := func(context.Context) error { return nil }
	tests := []struct {
		name    string
		spec    string
		wantErr bool
		wantReg bool
	}{
		{"每天3点", "0 3 * * *", false, true},
		{"描述符", "@every 6h", false, true},
		{"空表达式跳过", "", false, false},
		{"秒字段不支持", "0 0 3 * * *", true, false},
		{"非法表达式", "every day", true, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := s.Add(tt.name, tt.spec, noop)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
			_, ok := s.Next(tt.name)
			assert.Equal(t, tt.wantReg, ok)
		})
	}
}

func TestSchedulerRunRequiresJobs(t *testing.T) {
	s, err := NewScheduler("")
	require.NoError(t, err)
	assert.Error(t, s.Run(context.Background()))
}

func TestSchedulerRunStopsOnCancel(t *testing.T) {
	s, err := NewScheduler("UTC")
	require.NoError(t, err)
	require.NoError(t, s.Add("scrape", "@every 1h", func(context.Context) error { return nil }))

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	assert.NoError(t, s.Run(ctx))
}
