package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHeaderManagerPriority(t *testing.T) {
	hm, err := NewHeaderManager(
		"ja-JP,ja;q=0.9",
		map[string]string{"referer": "https://note.com/", "x-trace": "config"},
		[]string{"X-Trace: cli"},
	)
	require.NoError(t, err)

	headers, err := hm.GetHeaders()
	require.NoError(t, err)
	assert.Equal(t, "ja-JP,ja;q=0.9", headers.Get("Accept-Language"))
	assert.Equal(t, "https://note.com/", headers.Get("Referer"))
	assert.Equal(t, "cli", headers.Get("X-Trace"))
}

func TestHeaderManagerRejects(t *testing.T) {
	tests := []struct {
		name   string
		config map[string]string
		cli    []string
	}{
		{"配置中的托管头部", map[string]string{"cookie": "a=b"}, nil},
		{"命令行中的托管头部", nil, []string{"User-Agent: curl"}},
		{"命令行格式错误", nil, []string{"no-colon"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewHeaderManager("", tt.config, tt.cli)
			assert.Error(t, err)
		})
	}
}

func TestHeaderManagerSafeHeaders(t *testing.T) {
	hm, err := NewHeaderManager("ja-JP",
		map[string]string{"x-api-key": "abcd1234efgh5678"},
		[]string{"Referer: https://note.com/"})
	require.NoError(t, err)

	assert.Equal(t,
		"Accept-Language: ja-JP, Referer: https://note.com/, X-Api-Key: abcd***5678",
		hm.SafeHeaderString())
}
