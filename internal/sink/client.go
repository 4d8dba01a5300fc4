package sink

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/RecoveryAshes/NoteTracker/internal/models"
	"github.com/RecoveryAshes/NoteTracker/internal/utils"
)

var (
	// ErrNotConfigured 未配置接收端地址
	ErrNotConfigured = errors.New("未配置接收端URL")

	// ErrSinkRejected 接收端返回非2xx或 success:false
	ErrSinkRejected = errors.New("接收端拒绝")

	// ErrMalformedResponse 接收端响应不是合法JSON
	ErrMalformedResponse = errors.New("接收端响应格式错误")
)

// maxResponseSize 响应体读取上限
const maxResponseSize = 1 << 20

// Ack 接收端对单条记录的确认
type Ack struct {
	Success       bool   `json:"success"`
	Message       string `json:"message"`
	Row           int    `json:"row"`
	IsUpdate      bool   `json:"isUpdate"`
	RecordCount   int    `json:"recordCount"`
	TrackingAdded bool   `json:"trackingAdded"`
	Skipped       bool   `json:"skipped"`
	Error         string `json:"error"`
}

// TrackedArticle 追踪表中的一行
type TrackedArticle struct {
	Row        int    `json:"row"`
	URL        string `json:"url"`
	Title      string `json:"title"`
	Author     string `json:"author"`
	ListInDate string `json:"listInDate"`
	EndDate    string `json:"endDate"`
	CheckCount int    `json:"checkCount"`
	HitCount   int    `json:"hitCount"`
}

type trackingListResponse struct {
	Success bool             `json:"success"`
	URLs    []TrackedArticle `json:"urls"`
	Count   int              `json:"count"`
	Error   string           `json:"error"`
}

type trackingUpdateRequest struct {
	Action  string          `json:"action"`
	Results map[string]bool `json:"results"`
}

// TrackingUpdateAck 追踪结果更新的确认
type TrackingUpdateAck struct {
	Success   bool   `json:"success"`
	Updated   int    `json:"updated"`
	Completed int    `json:"completed"`
	Error     string `json:"error"`
}

// Client GAS Web App 客户端
type Client struct {
	endpoint   string
	httpClient *http.Client
}

// NewClient 创建客户端
func NewClient(endpoint string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &Client{
		endpoint: endpoint,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// Configured 是否配置了接收端
func (c *Client) Configured() bool {
	return c.endpoint != ""
}

// Send 发送一条记录
// 非2xx、响应无法解析、success:false 均视为失败
func (c *Client) Send(ctx context.Context, record *models.Record) (*Ack, error) {
	if !c.Configured() {
		return nil, ErrNotConfigured
	}

	body, err := json.Marshal(record)
	if err != nil {
		return nil, fmt.Errorf("序列化记录失败: %w", err)
	}

	var ack Ack
	if err := c.do(ctx, http.MethodPost, c.endpoint, body, &ack); err != nil {
		return nil, err
	}
	if !ack.Success {
		return &ack, fmt.Errorf("%w: %s", ErrSinkRejected, firstNonEmpty(ack.Error, ack.Message))
	}

	utils.Debugf("接收端确认: row=%d update=%v %s", ack.Row, ack.IsUpdate, ack.Message)
	return &ack, nil
}

// GetTrackingList 获取追踪中的URL列表
func (c *Client) GetTrackingList(ctx context.Context) ([]TrackedArticle, error) {
	if !c.Configured() {
		return nil, ErrNotConfigured
	}

	u, err := url.Parse(c.endpoint)
	if err != nil {
		return nil, fmt.Errorf("解析接收端URL失败: %w", err)
	}
	q := u.Query()
	q.Set("action", "getTrackingList")
	u.RawQuery = q.Encode()

	var resp trackingListResponse
	if err := c.do(ctx, http.MethodGet, u.String(), nil, &resp); err != nil {
		return nil, err
	}
	if !resp.Success {
		return nil, fmt.Errorf("%w: %s", ErrSinkRejected, resp.Error)
	}
	return resp.URLs, nil
}

// UpdateTrackingResults 回写追踪结果 url -> 是否命中
func (c *Client) UpdateTrackingResults(ctx context.Context, results map[string]bool) (*TrackingUpdateAck, error) {
	if !c.Configured() {
		return nil, ErrNotConfigured
	}

	body, err := json.Marshal(trackingUpdateRequest{
		Action:  "updateTrackingResults",
		Results: results,
	})
	if err != nil {
		return nil, fmt.Errorf("序列化追踪结果失败: %w", err)
	}

	var ack TrackingUpdateAck
	if err := c.do(ctx, http.MethodPost, c.endpoint, body, &ack); err != nil {
		return nil, err
	}
	if !ack.Success {
		return &ack, fmt.Errorf("%w: %s", ErrSinkRejected, ack.Error)
	}
	return &ack, nil
}

func (c *Client) do(ctx context.Context, method, target string, body []byte, out interface{}) error {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}

	req, err := http.NewRequestWithContext(ctx, method, target, reader)
	if err != nil {
		return fmt.Errorf("创建请求失败: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("请求接收端失败 %s: %w", utils.RedactURL(target), err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return fmt.Errorf("读取响应失败: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("%w: HTTP %d", ErrSinkRejected, resp.StatusCode)
	}

	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}
	return nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
