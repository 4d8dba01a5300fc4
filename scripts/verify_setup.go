package main

import (
	"fmt"
	"os"
	"runtime"
	"strings"

	"github.com/go-rod/rod/lib/launcher"
	"github.com/joho/godotenv"
)

func main() {
	fmt.Println("==============================================")
	fmt.Println("  NoteTracker 环境验证")
	fmt.Println("==============================================")
	fmt.Println()

	allOK := true

	// 检查Go版本
	goVersion := runtime.Version()
	fmt.Printf("✅ Go版本: %s\n", goVersion)
	if !strings.HasPrefix(goVersion, "go1.23") && !strings.HasPrefix(goVersion, "go1.24") &&
		!strings.HasPrefix(goVersion, "go1.25") {
		fmt.Println("⚠️  警告: 建议使用Go 1.23+版本")
	}

	fmt.Printf("✅ 操作系统: %s/%s\n", runtime.GOOS, runtime.GOARCH)

	// 检查浏览器
	if path, found := launcher.LookPath(); found {
		fmt.Printf("✅ Chrome/Chromium: %s\n", path)
	} else {
		fmt.Println("⚠️  未找到本地Chrome - 首次运行时rod会自动下载Chromium")
		fmt.Println("   也可以在配置文件中设置 browser.bin")
	}

	// 检查环境变量
	fmt.Println()
	fmt.Println("检查环境变量...")
	if err := godotenv.Load(); err == nil {
		fmt.Println("✅ 已加载 .env")
	}

	if v := strings.TrimSpace(os.Getenv("GAS_WEB_APP_URL")); v != "" {
		fmt.Println("✅ GAS_WEB_APP_URL 已设置")
	} else {
		fmt.Println("❌ GAS_WEB_APP_URL 未设置 - 只能使用 --dry-run")
		allOK = false
	}

	if v := strings.TrimSpace(os.Getenv("SLACK_WEBHOOK_URL")); v != "" {
		fmt.Println("✅ SLACK_WEBHOOK_URL 已设置")
	} else {
		fmt.Println("⚠️  SLACK_WEBHOOK_URL 未设置 - 通知已禁用")
	}

	// 检查项目结构
	fmt.Println()
	fmt.Println("检查项目结构...")
	requiredPaths := []string{
		"go.mod",
		"cmd/notetracker",
		"internal/core",
		"internal/crawlers",
		"internal/config",
		"internal/sink",
	}
	for _, p := range requiredPaths {
		if _, err := os.Stat(p); err == nil {
			fmt.Printf("✅ %s\n", p)
		} else {
			fmt.Printf("❌ %s 不存在\n", p)
			allOK = false
		}
	}

	if _, err := os.Stat("configs/config.yaml"); err != nil {
		fmt.Println("⚠️  configs/config.yaml 不存在 - 运行 'notetracker init' 生成")
	}

	fmt.Println()
	fmt.Println("==============================================")
	if allOK {
		fmt.Println("✅ 环境验证通过!")
		fmt.Println()
		fmt.Println("下一步:")
		fmt.Println("  1. go build -o notetracker ./cmd/notetracker")
		fmt.Println("  2. ./notetracker init")
		fmt.Println("  3. ./notetracker run --dry-run -k 副業")
		os.Exit(0)
	}
	fmt.Println("❌ 环境验证失败,请解决上述问题。")
	os.Exit(1)
}
