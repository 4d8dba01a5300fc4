package sink

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/RecoveryAshes/NoteTracker/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleRecord() *models.Record {
	return models.NewRecord(models.RecordFields{
		URL:          "https://note.com/alice/n/n123",
		Title:        "テスト記事",
		Author:       "alice",
		Price:        980,
		Purchased24h: true,
	}, time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC))
}

func TestSend(t *testing.T) {
	var got map[string]interface{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		body, _ := io.ReadAll(r.Body)
		require.NoError(t, json.Unmarshal(body, &got))
		_, _ = w.Write([]byte(`{"success":true,"message":"更新として記録しました（2回目）","row":12,"isUpdate":true,"recordCount":2}`))
	}))
	defer srv.Close()

	ack, err := NewClient(srv.URL, time.Second).Send(context.Background(), sampleRecord())
	require.NoError(t, err)
	assert.True(t, ack.IsUpdate)
	assert.Equal(t, 12, ack.Row)
	assert.Equal(t, 2, ack.RecordCount)

	assert.Equal(t, "https://note.com/alice/n/n123", got["url"])
	assert.Equal(t, float64(980), got["price"])
	assert.Equal(t, true, got["hasSalesInfo"])
	assert.Equal(t, models.SalesMessage24h, got["salesMessage"])
	assert.Equal(t, "2025-01-02T03:04:05Z", got["recordedAt"])
}

func TestSendFailures(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
		want   error
	}{
		{"非2xx", http.StatusInternalServerError, `{"success":true}`, ErrSinkRejected},
		{"success为false", http.StatusOK, `{"success":false,"error":"シートが見つかりません"}`, ErrSinkRejected},
		{"非JSON响应", http.StatusOK, `<html>error</html>`, ErrMalformedResponse},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			_, err := NewClient(srv.URL, time.Second).Send(context.Background(), sampleRecord())
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestSendNotConfigured(t *testing.T) {
	c := NewClient("", time.Second)
	assert.False(t, c.Configured())

	_, err := c.Send(context.Background(), sampleRecord())
	assert.ErrorIs(t, err, ErrNotConfigured)
	_, err = c.GetTrackingList(context.Background())
	assert.ErrorIs(t, err, ErrNotConfigured)
}

func TestSendContextCanceled(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"success":true}`))
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := NewClient(srv.URL, time.Second).Send(ctx, sampleRecord())
	assert.ErrorIs(t, err, context.Canceled)
}

func TestGetTrackingList(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "getTrackingList", r.URL.Query().Get("action"))
		assert.Equal(t, "abc", r.URL.Query().Get("key"))
		_, _ = w.Write([]byte(`{"success":true,"count":2,"urls":[
			{"row":2,"url":"https://note.com/a/n/n1","title":"一","author":"a","checkCount":3,"hitCount":1},
			{"row":3,"url":"https://note.com/b/n/n2","title":"二","author":"b","checkCount":0,"hitCount":0}
		]}`))
	}))
	defer srv.Close()

	list, err := NewClient(srv.URL+"?key=abc", time.Second).GetTrackingList(context.Background())
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "https://note.com/a/n/n1", list[0].URL)
	assert.Equal(t, 3, list[0].CheckCount)
	assert.Equal(t, 1, list[0].HitCount)
	assert.Equal(t, 3, list[1].Row)
}

func TestUpdateTrackingResults(t *testing.T) {
	var got trackingUpdateRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		_, _ = w.Write([]byte(`{"success":true,"updated":2,"completed":1}`))
	}))
	defer srv.Close()

	results := map[string]bool{
		"https://note.com/a/n/n1": true,
		"https://note.com/b/n/n2": false,
	}
	ack, err := NewClient(srv.URL, time.Second).UpdateTrackingResults(context.Background(), results)
	require.NoError(t, err)
	assert.Equal(t, 2, ack.Updated)
	assert.Equal(t, 1, ack.Completed)
	assert.Equal(t, "updateTrackingResults", got.Action)
	assert.Equal(t, results, got.Results)
}
