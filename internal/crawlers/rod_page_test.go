package crawlers

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newTestRodPage 需要本地Chrome, 找不到时跳过
func newTestRodPage(t *testing.T) *RodPage {
	t.Helper()
	if testing.Short() {
		t.Skip("short模式跳过浏览器测试")
	}
	bin, found := launcher.LookPath()
	if !found {
		t.Skip("未找到Chrome/Chromium")
	}

	l := launcher.New().Bin(bin).Headless(true)
	controlURL, err := l.Launch()
	require.NoError(t, err)
	t.Cleanup(l.Kill)

	browser := rod.New().ControlURL(controlURL)
	require.NoError(t, browser.Connect())
	t.Cleanup(func() { _ = browser.Close() })

	page, err := browser.Page(proto.TargetCreateTarget{})
	require.NoError(t, err)
	return NewRodPage(page, 10*time.Second)
}

func newArticleServer(t *testing.T) *httptest.Server {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = w.Write([]byte(fullArticle))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestRodPage_ReadsAreBounded(t *testing.T) {
	page := newTestRodPage(t)
	srv := newArticleServer(t)

	require.NoError(t, page.Navigate(context.Background(), srv.URL))
	title, err := page.Title()
	require.NoError(t, err)
	assert.NotEmpty(t, title)

	page.opTimeout = 500 * time.Millisecond
	started := time.Now()
	_, err = page.eval(`() => { while (true) {} }`)
	require.Error(t, err)
	assert.True(t, errors.Is(err, context.DeadlineExceeded), "卡住的脚本应在超时后返回: %v", err)
	assert.Less(t, time.Since(started), 5*time.Second)
}

func TestRodPage_ReadsFollowNavigationContext(t *testing.T) {
	page := newTestRodPage(t)
	srv := newArticleServer(t)

	ctx, cancel := context.WithCancel(context.Background())
	require.NoError(t, page.Navigate(ctx, srv.URL))
	cancel()

	_, err := page.BodyText()
	assert.ErrorIs(t, err, context.Canceled)
}
