package utils

import (
	"bufio"
	"fmt"
	"os"
	"strings"
)

// ReadKeywordsFromFile 从文件中读取关键词列表(每行一个)
// 空行与#开头的注释行会被跳过,重复关键词只保留第一次出现
func ReadKeywordsFromFile(filepath string) ([]string, error) {
	file, err := os.Open(filepath)
	if err != nil {
		return nil, fmt.Errorf("打开关键词文件失败: %w", err)
	}
	defer file.Close()

	keywords := make([]string, 0)
	seen := make(map[string]bool)
	scanner := bufio.NewScanner(file)
	lineNum := 0

	for scanner.Scan() {
		lineNum++
		line := strings.TrimSpace(scanner.Text())

		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		if seen[line] {
			Debugf("跳过重复关键词 (行 %d): %s", lineNum, line)
			continue
		}
		seen[line] = true
		keywords = append(keywords, line)
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("读取关键词文件失败: %w", err)
	}

	if len(keywords) == 0 {
		return nil, fmt.Errorf("关键词文件中没有有效的关键词")
	}

	Infof("从文件加载了 %d 个关键词", len(keywords))
	return keywords, nil
}

// Truncate 按字符(rune)截断
func Truncate(s string, n int) string {
	if n <= 0 {
		return ""
	}
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
