package utils

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLogConfig(dir, level string) LogConfig {
	return LogConfig{
		Level:      level,
		LogDir:     dir,
		MaxSize:    10,
		MaxBackups: 3,
		MaxAge:     28,
		NoConsole:  true,
	}
}

func TestInitLogger(t *testing.T) {
	tempDir := t.TempDir()
	require.NoError(t, InitLogger(testLogConfig(tempDir, "debug")))

	Info("测试信息日志")
	Debugf("调试 %d", 1)

	content, err := os.ReadFile(filepath.Join(tempDir, mainLogName))
	require.NoError(t, err)
	assert.Contains(t, string(content), "测试信息日志")
	assert.Contains(t, string(content), "调试 1")
}

func TestLogLevels(t *testing.T) {
	tempDir := t.TempDir()
	require.NoError(t, InitLogger(testLogConfig(tempDir, "info")))

	Infof("格式化信息日志: %s", "测试")
	Warnf("格式化警告日志: %d", 123)
	Debug("调试日志测试 - 级别为info时不应写入")

	content, err := os.ReadFile(filepath.Join(tempDir, mainLogName))
	require.NoError(t, err)
	assert.Contains(t, string(content), "格式化警告日志: 123")
	assert.NotContains(t, string(content), "调试日志测试")
}

func TestErrorLogOnlyContainsErrors(t *testing.T) {
	tempDir := t.TempDir()
	require.NoError(t, InitLogger(testLogConfig(tempDir, "info")))

	Info("普通信息")
	Errorf("抓取失败: %s", "https://note.com/a/n/n1")

	content, err := os.ReadFile(filepath.Join(tempDir, errorLogName))
	require.NoError(t, err)
	assert.Contains(t, string(content), "抓取失败")
	assert.False(t, strings.Contains(string(content), "普通信息"), "错误日志不应包含info级别")
}

func TestDefaultLogConfig(t *testing.T) {
	config := DefaultLogConfig()

	assert.Equal(t, "info", config.Level)
	assert.Equal(t, "logs", config.LogDir)
	assert.Equal(t, 10, config.MaxSize)
	assert.Equal(t, 3, config.MaxBackups)
	assert.Equal(t, 28, config.MaxAge)
	assert.True(t, config.Compress)
	assert.False(t, config.NoConsole)
}
