package utils

import (
	"fmt"
	"net/http"
	"regexp"
	"sort"
	"strings"

	"github.com/RecoveryAshes/NoteTracker/internal/models"
)

// MaxHeaderValueLength 额外请求头值的最大长度 (8KB)
const MaxHeaderValueLength = 8192

var (
	headerNamePattern  = regexp.MustCompile(`^[A-Za-z0-9-]+$`)
	headerValuePattern = regexp.MustCompile(`^[\x20-\x7E\t]*$`)
)

// managedHeaders 由浏览器或指纹配置管理的头部,值为修复建议
var managedHeaders = map[string]string{
	"host":              "由浏览器根据URL设置",
	"content-length":    "由浏览器自动计算",
	"transfer-encoding": "由浏览器自动管理",
	"connection":        "由浏览器自动管理",
	"cookie":            "不支持登录态抓取,请移除",
	"user-agent":        "请改用配置项 browser.user_agent",
	"accept-language":   "请改用配置项 browser.accept_language",
}

// HeaderValidator 校验注入浏览器的额外请求头
type HeaderValidator struct {
	maxValueLength int
}

// NewHeaderValidator 创建验证器
func NewHeaderValidator() *HeaderValidator {
	return &HeaderValidator{maxValueLength: MaxHeaderValueLength}
}

// ValidateHeader 验证单个头部
func (hv *HeaderValidator) ValidateHeader(name, value string) error {
	if suggestion, ok := managedHeaders[strings.ToLower(name)]; ok {
		return &models.ValidationError{
			Field:      "name",
			HeaderName: name,
			Reason:     "此头部不允许通过额外请求头设置",
			Suggestion: suggestion,
		}
	}

	if name == "" || !headerNamePattern.MatchString(name) {
		return &models.ValidationError{
			Field:      "name",
			HeaderName: name,
			Reason:     "头部名称为空或包含非法字符 (仅允许字母、数字和连字符)",
			Suggestion: "例如 'Referer', 'X-Requested-With'",
		}
	}

	if len(value) > hv.maxValueLength {
		return &models.ValidationError{
			Field:      "value",
			HeaderName: name,
			Reason:     fmt.Sprintf("头部值过长: %d 字节 (最大 %d)", len(value), hv.maxValueLength),
		}
	}

	if !headerValuePattern.MatchString(value) {
		return &models.ValidationError{
			Field:      "value",
			HeaderName: name,
			Reason:     "头部值包含非法字符 (仅允许可打印ASCII字符)",
			Suggestion: "非ASCII内容请先做百分号编码",
		}
	}

	return nil
}

// IsManaged 头部是否由浏览器或指纹配置管理
func (hv *HeaderValidator) IsManaged(name string) bool {
	_, ok := managedHeaders[strings.ToLower(name)]
	return ok
}

// Validate 按名称顺序验证所有头部,返回第一个错误
func (hv *HeaderValidator) Validate(headers http.Header) error {
	names := make([]string, 0, len(headers))
	for name := range headers {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		for _, value := range headers[name] {
			if err := hv.ValidateHeader(name, value); err != nil {
				return err
			}
		}
	}
	return nil
}
