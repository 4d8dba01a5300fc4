package core

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/RecoveryAshes/NoteTracker/internal/crawlers"
	"github.com/RecoveryAshes/NoteTracker/internal/models"
	"github.com/RecoveryAshes/NoteTracker/internal/notify"
	"github.com/RecoveryAshes/NoteTracker/internal/sink"
)

func noSleep(context.Context, time.Duration) error { return nil }

// fakeDiscoverer 按关键词返回固定的URL列表
type fakeDiscoverer struct {
	urls  map[string][]string
	errs  map[string]error
	calls []string
}

func (d *fakeDiscoverer) DiscoverKeyword(_ context.Context, keyword string, limit int) (*crawlers.KeywordDiscovery, error) {
	d.calls = append(d.calls, keyword)
	if err := d.errs[keyword]; err != nil {
		return nil, err
	}
	urls := d.urls[keyword]
	return &crawlers.KeywordDiscovery{
		Keyword: keyword,
		Popular: urls,
		URLs:    crawlers.MergeUnique(2*limit, urls),
	}, nil
}

// fakeScraper 指定URL返回错误, 其余返回记录
type fakeScraper struct {
	errs      map[string]error
	purchased map[string]bool
	calls     []string
}

func (s *fakeScraper) Scrape(_ context.Context, url string) (*models.Record, error) {
	s.calls = append(s.calls, url)
	if err := s.errs[url]; err != nil {
		return nil, err
	}
	return models.NewRecord(models.RecordFields{
		URL:          url,
		Title:        "記事 " + url,
		Author:       "author",
		Price:        500,
		Purchased24h: s.purchased[url],
	}, time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)), nil
}

// fakeSink 记录收到的记录; updates中的URL确认为更新
type fakeSink struct {
	errs    map[string]error
	updates map[string]bool
	got     []*models.Record
}

func (s *fakeSink) Send(_ context.Context, record *models.Record) (*sink.Ack, error) {
	if err := s.errs[record.URL]; err != nil {
		return nil, err
	}
	s.got = append(s.got, record)
	return &sink.Ack{Success: true, IsUpdate: s.updates[record.URL]}, nil
}

// fakeNotifier 记录收到的通知类型
type fakeNotifier struct {
	events  []string
	summary notify.Summary
}

func (n *fakeNotifier) Start(context.Context, string, int, int) error {
	n.events = append(n.events, "start")
	return nil
}

func (n *fakeNotifier) Complete(_ context.Context, s notify.Summary) error {
	n.events = append(n.events, "complete")
	n.summary = s
	return nil
}

func (n *fakeNotifier) Error(context.Context, string, string) error {
	n.events = append(n.events, "error")
	return nil
}

func (n *fakeNotifier) Critical(context.Context, string) error {
	n.events = append(n.events, "critical")
	return errors.New("webhook down")
}

func noteURLs(author string, n int) []string {
	out := make([]string, 0, n)
	for i := 1; i <= n; i++ {
		out = append(out, fmt.Sprintf("https://note.com/%s/n/n%d", author, i))
	}
	return out
}

// fakeProber 按URL返回命中结果或错误
type fakeProber struct {
	hits map[string]bool
	errs map[string]error
}

func (p *fakeProber) Probe(_ context.Context, url string) (bool, error) {
	if err := p.errs[url]; err != nil {
		return false, err
	}
	return p.hits[url], nil
}

// fakeTrackingSink 追踪接口的内存实现
type fakeTrackingSink struct {
	list    []sink.TrackedArticle
	listErr error
	results map[string]bool
}

func (s *fakeTrackingSink) GetTrackingList(context.Context) ([]sink.TrackedArticle, error) {
	return s.list, s.listErr
}

func (s *fakeTrackingSink) UpdateTrackingResults(_ context.Context, results map[string]bool) (*sink.TrackingUpdateAck, error) {
	s.results = results
	return &sink.TrackingUpdateAck{Success: true, Updated: len(results)}, nil
}
