package factory

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"chefmate/internal/core/ai/provider"
	"chefmate/internal/infrastructure/config"
	"chefmate/internal/pkg/common"
)

type stubProvider struct {
	name, key string
	closed    bool
}

func (s *stubProvider) Generate(context.Context, *provider.Request) (*provider.Response, error) {
	return &provider.Response{Content: s.name + ":" + s.key}, nil
}
func (s *stubProvider) Name() string     { return s.name }
func (s *stubProvider) GetModel() string { return s.name + "-model" }
func (s *stubProvider) Close() error     { s.closed = true; return nil }

func cfgWith(mode, geminiKey, openaiKey string) *config.Config {
	cfg := &config.Config{}
	cfg.AI.Provider = mode
	cfg.Gemini.APIKey = geminiKey
	cfg.OpenAI.APIKey = openaiKey
	return cfg
}

func TestResolve(t *testing.T) {
	tests := []struct {
		name       string
		cfg        *config.Config
		credential string
		provider   string
		key        string
	}{
		{"auto prefers gemini", cfgWith("auto", "g", "o"), "", "gemini", "g"},
		{"auto falls back to openai", cfgWith("auto", "", "o"), "", "openai", "o"},
		{"auto user gemini key", cfgWith("auto", "g", "o"), "AIza-user", "gemini", "AIza-user"},
		{"auto user openai key", cfgWith("auto", "g", ""), "sk-user", "openai", "sk-user"},
		{"forced openai with credential", cfgWith("openai", "g", "o"), "user", "openai", "user"},
		{"forced gemini config key", cfgWith("gemini", "g", "o"), "", "gemini", "g"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			name, key, err := Resolve(tt.cfg, tt.credential)
			require.NoError(t, err)
			assert.Equal(t, tt.provider, name)
			assert.Equal(t, tt.key, key)
		})
	}
}

func TestResolveWithoutKey(t *testing.T) {
	_, _, err := Resolve(cfgWith("auto", "", ""), "")
	var upstream *common.UpstreamError
	assert.True(t, errors.As(err, &upstream))

	_, _, err = Resolve(cfgWith("gemini", "", "o"), "")
	assert.Error(t, err)
}

func TestFactoryRebuildsOnCredentialChange(t *testing.T) {
	f := New(cfgWith("auto", "g", ""))
	var built []*stubProvider
	f.build = func(_ context.Context, name, key string) (provider.Provider, error) {
		p := &stubProvider{name: name, key: key}
		built = append(built, p)
		return p, nil
	}
	ctx := context.Background()

	resp, err := f.Generate(ctx, &provider.Request{})
	require.NoError(t, err)
	assert.Equal(t, "gemini:g", resp.Content)

	_, err = f.Generate(ctx, &provider.Request{})
	require.NoError(t, err)
	assert.Len(t, built, 1)

	f.SetCredential("sk-mine")
	resp, err = f.Generate(ctx, &provider.Request{})
	require.NoError(t, err)
	assert.Equal(t, "openai:sk-mine", resp.Content)
	require.Len(t, built, 2)
	assert.True(t, built[0].closed)
	assert.Equal(t, "openai", f.Name())
	assert.Equal(t, "openai-model", f.GetModel())

	require.NoError(t, f.Close())
	assert.True(t, built[1].closed)
}

func TestFactoryReady(t *testing.T) {
	f := New(cfgWith("auto", "", ""))
	assert.False(t, f.Ready())
	f.SetCredential("AIza-key")
	assert.True(t, f.Ready())
}

func TestFactoryKeepsLeasedClientOpen(t *testing.T) {
	f := New(cfgWith("auto", "g", ""))
	var built []*stubProvider
	f.build = func(_ context.Context, name, key string) (provider.Provider, error) {
		p := &stubProvider{name: name, key: key}
		built = append(built, p)
		return p, nil
	}
	ctx := context.Background()

	old, release, err := f.Acquire(ctx)
	require.NoError(t, err)

	f.SetCredential("sk-mine")
	resp, err := f.Generate(ctx, &provider.Request{})
	require.NoError(t, err)
	assert.Equal(t, "openai:sk-mine", resp.Content)
	require.Len(t, built, 2)
	assert.False(t, built[0].closed, "leased client closed while in use")

	resp, err = old.Generate(ctx, &provider.Request{})
	require.NoError(t, err)
	assert.Equal(t, "gemini:g", resp.Content)

	release()
	assert.True(t, built[0].closed)
	release()

	_, release, err = f.Acquire(ctx)
	require.NoError(t, err)
	require.NoError(t, f.Close())
	assert.False(t, built[1].closed)
	release()
	assert.True(t, built[1].closed)
}

func TestFactoryAcquireWithoutKey(t *testing.T) {
	f := New(cfgWith("auto", "", ""))
	_, release, err := f.Acquire(context.Background())
	assert.Nil(t, release)

	var upstream *common.UpstreamError
	require.True(t, errors.As(err, &upstream))
	assert.Equal(t, "config", upstream.Provider)
}
