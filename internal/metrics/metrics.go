package metrics

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "notetracker"

// Metrics 单次运行的指标集合
// 使用独立的Registry, 运行结束后写成 node_exporter textfile
type Metrics struct {
	registry *prometheus.Registry

	Articles       *prometheus.CounterVec
	SinkRecords    *prometheus.CounterVec
	Candidates     *prometheus.CounterVec
	Purchased24h   prometheus.Counter
	ScrapeDuration prometheus.Histogram
	TrackerChecks  *prometheus.CounterVec
	RunDuration    prometheus.Gauge
	LastRun        *prometheus.GaugeVec
}

// New 创建指标集合
func New() *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,
		Articles: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "articles_total",
				Help:      "Articles handled, by result (processed, error).",
			},
			[]string{"result"},
		),
		SinkRecords: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "sink_records_total",
				Help:      "Records accepted by the sink, by kind (new, update).",
			},
			[]string{"kind"},
		),
		Candidates: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "candidates_total",
				Help:      "Candidate article URLs discovered, by keyword.",
			},
			[]string{"keyword"},
		),
		Purchased24h: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "purchased_24h_total",
			Help:      "Articles showing a purchase within the last 24 hours.",
		}),
		ScrapeDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "article_scrape_duration_seconds",
			Help:      "Duration of a single article extraction including retries.",
			Buckets:   []float64{1, 2, 5, 10, 20, 40, 80},
		}),
		TrackerChecks: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "tracker_checks_total",
				Help:      "Tracked URL probes, by result (hit, miss).",
			},
			[]string{"result"},
		),
		RunDuration: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "run_duration_seconds",
			Help:      "Duration of the most recent run.",
		}),
		LastRun: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "last_run_timestamp_seconds",
				Help:      "Unix time the most recent run finished, by status.",
			},
			[]string{"status"},
		),
	}
}

// ObserveArticle 记录单篇文章的处理结果
func (m *Metrics) ObserveArticle(ok bool, elapsed time.Duration) {
	result := "processed"
	if !ok {
		result = "error"
	}
	m.Articles.WithLabelValues(result).Inc()
	m.ScrapeDuration.Observe(elapsed.Seconds())
}

// ObserveSink 记录接收端确认
func (m *Metrics) ObserveSink(isUpdate bool) {
	kind := "new"
	if isUpdate {
		kind = "update"
	}
	m.SinkRecords.WithLabelValues(kind).Inc()
}

// ObserveTrack 记录追踪探测结果
func (m *Metrics) ObserveTrack(hit bool) {
	result := "miss"
	if hit {
		result = "hit"
	}
	m.TrackerChecks.WithLabelValues(result).Inc()
}

// FinishRun 记录运行结束
func (m *Metrics) FinishRun(status string, elapsed time.Duration, end time.Time) {
	m.RunDuration.Set(elapsed.Seconds())
	m.LastRun.WithLabelValues(status).Set(float64(end.Unix()))
}

// Registry 返回底层Registry
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// WriteTextfile 写出 node_exporter textfile, path为空时跳过
func (m *Metrics) WriteTextfile(path string) error {
	if path == "" {
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("创建指标目录失败: %w", err)
	}
	if err := prometheus.WriteToTextfile(path, m.registry); err != nil {
		return fmt.Errorf("写入指标文件失败: %w", err)
	}
	return nil
}
