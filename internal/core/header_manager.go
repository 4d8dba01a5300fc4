package core

import (
	"net/http"

	"github.com/RecoveryAshes/NoteTracker/internal/models"
	"github.com/RecoveryAshes/NoteTracker/internal/utils"
)

// HeaderManager 合并浏览器的额外请求头
// 实现 models.HeaderProvider 接口
type HeaderManager struct {
	// defaults 指纹相关的默认头部
	defaults http.Header

	// config 配置文件 browser.headers
	config http.Header

	// cli 命令行 -H 参数
	cli http.Header

	validator *utils.HeaderValidator
	redactor  *utils.HeaderRedactor
}

// NewHeaderManager 创建头部管理器
// 配置与命令行头部在创建时即完成校验
func NewHeaderManager(acceptLanguage string, configHeaders map[string]string, cliHeaders []string) (*HeaderManager, error) {
	hm := &HeaderManager{
		defaults:  make(http.Header),
		config:    make(http.Header),
		validator: utils.NewHeaderValidator(),
		redactor:  utils.NewHeaderRedactor(),
	}

	if acceptLanguage != "" {
		hm.defaults.Set("Accept-Language", acceptLanguage)
	}

	for name, value := range configHeaders {
		hm.config.Set(name, value)
	}
	if err := hm.validator.Validate(hm.config); err != nil {
		utils.Errorf("配置文件头部验证失败: %v", err)
		return nil, err
	}

	if len(cliHeaders) > 0 {
		parsed, err := models.CliHeaders(cliHeaders).Parse()
		if err != nil {
			return nil, err
		}
		hm.cli = parsed
	} else {
		hm.cli = make(http.Header)
	}
	if err := hm.validator.Validate(hm.cli); err != nil {
		utils.Errorf("命令行头部验证失败: %v", err)
		return nil, err
	}

	if n := len(hm.config) + len(hm.cli); n > 0 {
		utils.Debugf("额外请求头: %s", hm.SafeHeaderString())
	}
	return hm, nil
}

// GetMergedHeaders 按优先级合并头部 (default < config < cli)
func (hm *HeaderManager) GetMergedHeaders() http.Header {
	result := make(http.Header)
	for _, layer := range []http.Header{hm.defaults, hm.config, hm.cli} {
		for name, values := range layer {
			result[name] = values
		}
	}
	return result
}

// SafeHeaderString 脱敏后按名称排序的单行字符串 (用于日志)
func (hm *HeaderManager) SafeHeaderString() string {
	return hm.redactor.RedactToString(hm.GetMergedHeaders())
}

// GetHeaders 实现 HeaderProvider 接口
func (hm *HeaderManager) GetHeaders() (http.Header, error) {
	return hm.GetMergedHeaders(), nil
}
