package main

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/RecoveryAshes/NoteTracker/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateArticleURL(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		want    string
		wantErr bool
	}{
		{"完整URL", "https://note.com/alice/n/n1a2b3c", "https://note.com/alice/n/n1a2b3c", false},
		{"去掉查询与尾斜杠", "https://note.com/alice/n/n1a2b3c/?from=search#top", "https://note.com/alice/n/n1a2b3c", false},
		{"相对路径", "/alice/n/n1a2b3c", "https://note.com/alice/n/n1a2b3c", false},
		{"用户主页", "https://note.com/alice", "", true},
		{"其他域名", "https://example.com/alice/n/n1", "", true},
		{"空字符串", "", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ValidateArticleURL(tt.raw)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestValidateRunFlags(t *testing.T) {
	assert.NoError(t, ValidateRunFlags([]string{"副業"}, ""))
	assert.NoError(t, ValidateRunFlags(nil, "keywords.txt"))
	assert.Error(t, ValidateRunFlags([]string{"副業"}, "keywords.txt"))
	assert.Error(t, ValidateRunFlags([]string{"副業", " "}, ""))
}

func TestResolveKeywords(t *testing.T) {
	cfg := &config.Config{Keywords: []string{"a", "b", "c", "d"}, SplitDays: 2}
	tuesday := time.Date(2025, 3, 11, 9, 0, 0, 0, time.UTC)

	t.Run("配置关键词按星期轮换", func(t *testing.T) {
		got, total, err := resolveKeywords(cfg, nil, "", tuesday)
		require.NoError(t, err)
		assert.Equal(t, []string{"b", "d"}, got)
		assert.Equal(t, 4, total)
	})

	t.Run("手动关键词不轮换", func(t *testing.T) {
		got, total, err := resolveKeywords(cfg, []string{" x ", "y"}, "", tuesday)
		require.NoError(t, err)
		assert.Equal(t, []string{"x", "y"}, got)
		assert.Equal(t, 2, total)
	})

	t.Run("关键词文件", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "keywords.txt")
		require.NoError(t, os.WriteFile(path, []byte("# comment\n占い\n\nタロット\n占い\n"), 0644))

		got, total, err := resolveKeywords(cfg, nil, path, tuesday)
		require.NoError(t, err)
		assert.Equal(t, []string{"占い", "タロット"}, got)
		assert.Equal(t, 2, total)
	})

	t.Run("配置为空", func(t *testing.T) {
		_, _, err := resolveKeywords(&config.Config{}, nil, "", tuesday)
		assert.Error(t, err)
	})
}

func TestTrackTextfile(t *testing.T) {
	assert.Equal(t, "", trackTextfile(""))
	assert.Equal(t, "/var/lib/node_exporter/notetracker_track.prom", trackTextfile("/var/lib/node_exporter/notetracker.prom"))
}
