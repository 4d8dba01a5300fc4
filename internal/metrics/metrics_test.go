package metrics

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestObserve(t *testing.T) {
	m := New()

	m.ObserveArticle(true, 2*time.Second)
	m.ObserveArticle(true, 3*time.Second)
	m.ObserveArticle(false, time.Second)
	m.ObserveSink(false)
	m.ObserveSink(true)
	m.ObserveSink(true)
	m.ObserveTrack(true)
	m.Candidates.WithLabelValues("副業").Add(7)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.Articles.WithLabelValues("processed")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Articles.WithLabelValues("error")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.SinkRecords.WithLabelValues("new")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.SinkRecords.WithLabelValues("update")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.TrackerChecks.WithLabelValues("hit")))
	assert.Equal(t, 7.0, testutil.ToFloat64(m.Candidates.WithLabelValues("副業")))
	assert.Equal(t, 1, testutil.CollectAndCount(m.ScrapeDuration))
}

func TestWriteTextfile(t *testing.T) {
	m := New()
	m.FinishRun("completed", 90*time.Second, time.Unix(1700000000, 0))

	path := filepath.Join(t.TempDir(), "textfile", "notetracker.prom")
	require.NoError(t, m.WriteTextfile(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "notetracker_run_duration_seconds 90")
	assert.Contains(t, string(data), `notetracker_last_run_timestamp_seconds{status="completed"} 1.7e+09`)
}

func TestWriteTextfileEmptyPath(t *testing.T) {
	assert.NoError(t, New().WriteTextfile(""))
}
