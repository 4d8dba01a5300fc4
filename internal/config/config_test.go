package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/RecoveryAshes/NoteTracker/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestLoadConfig_Defaults(t *testing.T) {
	cfg, err := LoadConfig(writeConfig(t, "keywords: [副業]\n"))
	require.NoError(t, err)

	assert.Equal(t, []string{"副業"}, cfg.Keywords)
	assert.Equal(t, 100, cfg.ResultsPerKeyword)
	assert.Equal(t, 1500, cfg.ArticleWaitMs)
	assert.Equal(t, models.DelayRange{Min: 2500, Max: 4000}, cfg.BetweenArticlesMs)
	assert.Equal(t, models.DelayRange{Min: 3000, Max: 5000}, cfg.BetweenPagesMs)
	assert.True(t, cfg.Headless)
	assert.Equal(t, 2, cfg.MaxRetries)
	assert.False(t, cfg.DryRun)
	assert.Equal(t, 1, cfg.SplitDays)
	assert.Equal(t, 50, cfg.Discovery.MaxRounds)
	assert.Equal(t, 3, cfg.Discovery.StagnationThreshold)
	assert.Equal(t, 15, cfg.Sink.TimeoutSec)
	assert.Equal(t, DefaultUserAgent, cfg.Browser.UserAgent)
	assert.Equal(t, 1920, cfg.Browser.ViewportWidth)
	assert.Equal(t, "Asia/Tokyo", cfg.Browser.Timezone)
	assert.NotNil(t, cfg.Browser.Headers)

	assert.NoError(t, cfg.Validate())
	assert.Equal(t, 1500*time.Millisecond, cfg.ProbeTimeout())
	assert.Equal(t, time.Second, cfg.RetryCooldown())
	assert.Equal(t, 2*time.Second, cfg.DiscoveryConfig().Settle)
	assert.Equal(t, 30*time.Second, cfg.BrowserConfig().NavigationTimeout)
}

func TestLoadConfig_FileValues(t *testing.T) {
	path := writeConfig(t, `
keywords: [a, b, c]
results_per_keyword: 20
between_pages_ms: {min: 100, max: 200}
headless: false
dry_run: true
split_days: 3
discovery:
  stagnation_threshold: 5
browser:
  headers:
    Referer: https://note.com/
`)
	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, 20, cfg.ResultsPerKeyword)
	assert.Equal(t, models.DelayRange{Min: 100, Max: 200}, cfg.BetweenPagesMs)
	assert.False(t, cfg.Headless)
	assert.True(t, cfg.DryRun)
	assert.Equal(t, 3, cfg.SplitDays)
	assert.Equal(t, 5, cfg.Discovery.StagnationThreshold)
	assert.Equal(t, models.DelayRange{Min: 100, Max: 200}, cfg.DiscoveryConfig().BetweenPages)

	// viper会把map的键转为小写
	assert.Equal(t, "https://note.com/", cfg.Browser.Headers["referer"])
}

func TestLoadConfig_EnvOverridesURLs(t *testing.T) {
	t.Setenv(EnvSinkURL, " https://script.google.com/macros/s/abc/exec ")
	t.Setenv(EnvWebhookURL, "https://hooks.slack.com/services/T/B/X")

	cfg, err := LoadConfig(writeConfig(t, "sink:\n  url: https://example.com/ignored\n"))
	require.NoError(t, err)
	assert.Equal(t, "https://script.google.com/macros/s/abc/exec", cfg.Sink.URL)
	assert.Equal(t, "https://hooks.slack.com/services/T/B/X", cfg.Notify.WebhookURL)
}

func TestLoadConfig_Errors(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)

	_, err = LoadConfig(writeConfig(t, "keywords: [unclosed\n"))
	var cfgErr *models.ConfigError
	assert.True(t, errors.As(err, &cfgErr))

	big := writeConfig(t, "# "+strings.Repeat("x", MaxConfigFileSize)+"\n")
	_, err = LoadConfig(big)
	assert.True(t, errors.As(err, &cfgErr))
}

func TestConfig_Validate(t *testing.T) {
	base := func() *Config {
		cfg, err := LoadConfig(writeConfig(t, "keywords: [a]\n"))
		require.NoError(t, err)
		return cfg
	}

	tests := []struct {
		name   string
		mutate func(*Config)
		field  string
	}{
		{"结果数为0", func(c *Config) { c.ResultsPerKeyword = 0 }, "results_per_keyword"},
		{"重试次数过大", func(c *Config) { c.MaxRetries = 11 }, "max_retries"},
		{"轮换天数越界", func(c *Config) { c.SplitDays = 8 }, "split_days"},
		{"停滞阈值为0", func(c *Config) { c.Discovery.StagnationThreshold = 0 }, "stagnation_threshold"},
		{"等待区间颠倒", func(c *Config) { c.BetweenArticlesMs = models.DelayRange{Min: 5, Max: 1} }, "between_articles_ms"},
		{"接收端URL无效", func(c *Config) { c.Sink.URL = "ftp://x" }, "sink.url"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := base()
			tt.mutate(cfg)
			err := cfg.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.field)
		})
	}
}

func TestEnsureConfigExists(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")

	created, err := EnsureConfigExists(path)
	require.NoError(t, err)
	assert.True(t, created)

	created, err = EnsureConfigExists(path)
	require.NoError(t, err)
	assert.False(t, created)

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.NotEmpty(t, cfg.Keywords)
	assert.NoError(t, cfg.Validate())
	assert.Equal(t, "0 3 * * *", cfg.Schedule.Scrape)
}
