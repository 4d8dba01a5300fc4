package crawlers

import (
	"bytes"
	"compress/flate"
	"compress/gzip"
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/RecoveryAshes/NoteTracker/internal/models"
	"github.com/RecoveryAshes/NoteTracker/internal/utils"
	"github.com/andybalholm/brotli"
	"github.com/gocolly/colly/v2"
)

// StaticFetcher 不启动浏览器,直接用Colly获取服务端渲染的HTML
// 用于 inspect --static, 24小时气泡等客户端渲染的内容拿不到
type StaticFetcher struct {
	userAgent      string
	acceptLanguage string
	timeout        time.Duration

	// HTTP头部提供者
	headerProvider models.HeaderProvider
}

// NewStaticFetcher 创建静态抓取器
func NewStaticFetcher(config BrowserConfig, headerProvider models.HeaderProvider) *StaticFetcher {
	timeout := config.NavigationTimeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &StaticFetcher{
		userAgent:      config.UserAgent,
		acceptLanguage: config.AcceptLanguage,
		timeout:        timeout,
		headerProvider: headerProvider,
	}
}

// Fetch 获取页面HTML,自动处理gzip/deflate/br压缩
func (sf *StaticFetcher) Fetch(ctx context.Context, pageURL string) ([]byte, error) {
	c := colly.NewCollector(
		colly.AllowURLRevisit(),
		colly.StdlibContext(ctx),
	)
	c.SetRequestTimeout(sf.timeout)
	if sf.userAgent != "" {
		c.UserAgent = sf.userAgent
	}

	var (
		body     []byte
		fetchErr error
	)

	c.OnRequest(func(r *colly.Request) {
		if sf.acceptLanguage != "" {
			r.Headers.Set("Accept-Language", sf.acceptLanguage)
		}

		// 应用自定义HTTP头部
		if sf.headerProvider != nil {
			headers, err := sf.headerProvider.GetHeaders()
			if err != nil {
				utils.Warnf("获取HTTP头部失败: %v", err)
			} else {
				for name, values := range extraHeaders(headers) {
					r.Headers.Set(name, values[0])
				}
			}
		}
		utils.Debugf("访问: %s", r.URL.String())
	})

	c.OnResponse(func(r *colly.Response) {
		body = r.Body
		encoding := r.Headers.Get("Content-Encoding")
		if encoding == "" {
			return
		}
		decompressed, err := decompressResponse(encoding, r.Body)
		if err != nil {
			utils.Warnf("解压响应失败 [%s] (编码=%s): %v", r.Request.URL, encoding, err)
			return
		}
		body = decompressed
	})

	c.OnError(func(r *colly.Response, err error) {
		fetchErr = fmt.Errorf("HTTP %d: %w", r.StatusCode, err)
	})

	if err := c.Visit(pageURL); err != nil && fetchErr == nil {
		fetchErr = err
	}
	if fetchErr != nil {
		return nil, fmt.Errorf("静态获取失败 [%s]: %w", pageURL, fetchErr)
	}
	return body, nil
}

// decompressResponse 根据Content-Encoding头部解压响应体
// 支持 gzip, deflate, br (Brotli)
func decompressResponse(contentEncoding string, body []byte) ([]byte, error) {
	switch strings.ToLower(strings.TrimSpace(contentEncoding)) {
	case "gzip":
		reader, err := gzip.NewReader(bytes.NewReader(body))
		if err != nil {
			// colly可能已经透明解压
			return body, nil
		}
		defer reader.Close()
		decompressed, err := io.ReadAll(reader)
		if err != nil {
			return nil, fmt.Errorf("gzip读取失败: %w", err)
		}
		return decompressed, nil

	case "deflate":
		reader := flate.NewReader(bytes.NewReader(body))
		defer reader.Close()
		decompressed, err := io.ReadAll(reader)
		if err != nil {
			return nil, fmt.Errorf("deflate读取失败: %w", err)
		}
		return decompressed, nil

	case "br":
		decompressed, err := io.ReadAll(brotli.NewReader(bytes.NewReader(body)))
		if err != nil {
			return nil, fmt.Errorf("brotli读取失败: %w", err)
		}
		return decompressed, nil

	case "", "identity":
		return body, nil

	default:
		utils.Warnf("未知的Content-Encoding: %s", contentEncoding)
		return body, nil
	}
}
