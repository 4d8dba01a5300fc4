package notify

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newCapture(t *testing.T, status int) (*httptest.Server, *[]string) {
	t.Helper()
	var texts []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var payload map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&payload))
		texts = append(texts, payload["text"])
		w.WriteHeader(status)
	}))
	t.Cleanup(srv.Close)
	return srv, &texts
}

func fixedNotifier(url string) *SlackNotifier {
	n := NewSlackNotifier(url, time.Second)
	n.now = func() time.Time { return time.Date(2025, 3, 10, 9, 30, 0, 0, time.UTC) }
	return n
}

func TestDisabledIsNoop(t *testing.T) {
	n := NewSlackNotifier("  ", time.Second)
	assert.False(t, n.Enabled())
	assert.NoError(t, n.Critical(context.Background(), "boom"))
}

func TestStart(t *testing.T) {
	srv, texts := newCapture(t, http.StatusOK)
	n := fixedNotifier(srv.URL)

	require.NoError(t, n.Start(context.Background(), "月", 3, 10))
	require.Len(t, *texts, 1)
	assert.Equal(t, "ℹ️ スクレイピング開始\n• 日時: 2025-03-10 09:30\n• 月曜日分: 3/10 キーワード", (*texts)[0])
}

func TestCompleteLevel(t *testing.T) {
	tests := []struct {
		name       string
		errors     int
		wantPrefix string
		wantErrors bool
	}{
		{"无错误为success", 0, "✅ ", false},
		{"有错误为warning", 2, "⚠️ ", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv, texts := newCapture(t, http.StatusOK)
			n := fixedNotifier(srv.URL)

			err := n.Complete(context.Background(), Summary{
				Keywords: 4, Records: 20, New: 5, Errors: tt.errors, Elapsed: 90 * time.Second,
			})
			require.NoError(t, err)
			require.Len(t, *texts, 1)

			text := (*texts)[0]
			assert.True(t, strings.HasPrefix(text, tt.wantPrefix))
			assert.Contains(t, text, "• 所要時間: 1.5分")
			assert.Equal(t, tt.wantErrors, strings.Contains(text, "エラー数"))
		})
	}
}

func TestErrorDetail(t *testing.T) {
	srv, texts := newCapture(t, http.StatusOK)
	n := fixedNotifier(srv.URL)

	require.NoError(t, n.Error(context.Background(), "キーワード処理エラー: 副業", "timeout"))
	assert.Contains(t, (*texts)[0], "🚨 エラー発生")
	assert.Contains(t, (*texts)[0], "• 詳細: timeout")
}

func TestNon200(t *testing.T) {
	srv, _ := newCapture(t, http.StatusForbidden)
	err := fixedNotifier(srv.URL).Critical(context.Background(), "boom")
	assert.Error(t, err)
}

func TestJapaneseWeekday(t *testing.T) {
	assert.Equal(t, "月", JapaneseWeekday(time.Monday))
	assert.Equal(t, "日", JapaneseWeekday(time.Sunday))
}
