package config

import (
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load(viper.New())
	require.NoError(t, err)

	assert.Equal(t, "127.0.0.1", cfg.Server.Host)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "127.0.0.1:8080", cfg.Addr())
	assert.Equal(t, "gemini-1.5-flash", cfg.Gemini.TextModel)
	assert.Equal(t, "gemini-1.5-pro", cfg.Gemini.VideoModel)
	assert.InDelta(t, 0.4, cfg.Gemini.Temperature, 0.0001)
	assert.Equal(t, "gpt-4o", cfg.OpenAI.Model)
	assert.Equal(t, 2*time.Second, cfg.Video.PollInterval)
	assert.Equal(t, 60*time.Second, cfg.Video.PollTimeout)
	assert.Equal(t, 1024, cfg.Image.MaxEdge)
	assert.Equal(t, 85, cfg.Image.JPEGQuality)
	assert.False(t, cfg.Cache.Enabled)
	assert.False(t, cfg.RateLimit.Enabled)
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("GEMINI_API_KEY", "gem-key-123456")
	t.Setenv("AI_PROVIDER", "openai")
	t.Setenv("STORAGE_BACKEND", "memory")
	t.Setenv("APP_SERVER_PORT", "9090")
	t.Setenv("APP_VIDEO_POLL_TIMEOUT", "30s")

	cfg, err := Load(viper.New())
	require.NoError(t, err)

	assert.Equal(t, "gem-key-123456", cfg.Gemini.APIKey)
	assert.Equal(t, "openai", cfg.AI.Provider)
	assert.Equal(t, "memory", cfg.Storage.Backend)
	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, 30*time.Second, cfg.Video.PollTimeout)
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
	}{
		{"unknown provider", map[string]string{"AI_PROVIDER": "claude"}},
		{"unknown storage", map[string]string{"STORAGE_BACKEND": "s3"}},
		{"bad port", map[string]string{"APP_SERVER_PORT": "70000"}},
		{"zero body limit", map[string]string{"APP_SERVER_MAX_BODY_BYTES": "0"}},
		{"timeout shorter than interval", map[string]string{"APP_VIDEO_POLL_TIMEOUT": "1s"}},
		{"bad rate limit", map[string]string{"RATE_LIMIT_ENABLED": "true", "RATE_LIMIT_REQUESTS": "0"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			_, err := Load(viper.New())
			assert.Error(t, err)
		})
	}
}
