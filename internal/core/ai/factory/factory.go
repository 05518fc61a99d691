package factory

import (
	"context"
	"strings"
	"sync"

	"go.uber.org/zap"

	"chefmate/internal/core/ai/gemini"
	"chefmate/internal/core/ai/openai"
	"chefmate/internal/core/ai/provider"
	"chefmate/internal/infrastructure/config"
	"chefmate/internal/pkg/common"
)

type buildFunc func(ctx context.Context, name, apiKey string) (provider.Provider, error)

// Factory 依設定與使用者金鑰選擇提供者，本身也實作 provider.Provider。
// 金鑰變更時下次請求重新建立客戶端，舊客戶端在最後一個租用者釋放後才關閉。
type Factory struct {
	cfg   *config.Config
	build buildFunc

	mu         sync.Mutex
	credential string
	current    *client
	currentKey string
}

// client 租用中的提供者，retired 後 refs 歸零即關閉
type client struct {
	p       provider.Provider
	refs    int
	retired bool
}

// New 創建 Factory
func New(cfg *config.Config) *Factory {
	f := &Factory{cfg: cfg}
	f.build = f.defaultBuild
	return f
}

func (f *Factory) defaultBuild(ctx context.Context, name, apiKey string) (provider.Provider, error) {
	switch name {
	case gemini.ProviderName:
		return gemini.NewClient(ctx, f.cfg.Gemini, f.cfg.Video, apiKey)
	default:
		return openai.NewClient(f.cfg.OpenAI, apiKey), nil
	}
}

// SetCredential 更新使用者輸入的金鑰，空字串代表改用設定檔
func (f *Factory) SetCredential(credential string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.credential = strings.TrimSpace(credential)
}

// Resolve 決定提供者名稱與使用的金鑰。
// auto 模式下使用者金鑰以 "sk-" 開頭視為 OpenAI，其餘視為 Gemini；
// 沒有使用者金鑰時優先使用設定檔中的 Gemini 金鑰。
func Resolve(cfg *config.Config, credential string) (name, apiKey string, err error) {
	switch cfg.AI.Provider {
	case gemini.ProviderName:
		name, apiKey = gemini.ProviderName, firstNonEmpty(credential, cfg.Gemini.APIKey)
	case openai.ProviderName:
		name, apiKey = openai.ProviderName, firstNonEmpty(credential, cfg.OpenAI.APIKey)
	default:
		switch {
		case credential != "" && strings.HasPrefix(credential, "sk-"):
			name, apiKey = openai.ProviderName, credential
		case credential != "":
			name, apiKey = gemini.ProviderName, credential
		case cfg.Gemini.APIKey != "":
			name, apiKey = gemini.ProviderName, cfg.Gemini.APIKey
		case cfg.OpenAI.APIKey != "":
			name, apiKey = openai.ProviderName, cfg.OpenAI.APIKey
		}
	}
	if apiKey == "" {
		return "", "", common.NewUpstreamError("config", "no API key configured")
	}
	return name, apiKey, nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

// Acquire 租用目前的提供者，使用完畢必須呼叫 release
func (f *Factory) Acquire(ctx context.Context) (provider.Provider, func(), error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	c, err := f.currentLocked(ctx)
	if err != nil {
		return nil, nil, err
	}
	c.refs++

	var once sync.Once
	return c.p, func() { once.Do(func() { f.release(c) }) }, nil
}

func (f *Factory) currentLocked(ctx context.Context) (*client, error) {
	name, apiKey, err := Resolve(f.cfg, f.credential)
	if err != nil {
		return nil, err
	}

	cacheKey := name + ":" + apiKey
	if f.current != nil && f.currentKey == cacheKey {
		return f.current, nil
	}

	p, err := f.build(ctx, name, apiKey)
	if err != nil {
		return nil, &common.UpstreamError{Provider: name, Err: err}
	}

	if f.current != nil {
		f.retireLocked(f.current)
	}
	f.current, f.currentKey = &client{p: p}, cacheKey

	common.LogInfo("AI 提供者已就緒",
		zap.String("provider", name),
		zap.String("model", p.GetModel()),
		zap.String("key", common.MaskSecret(apiKey)),
	)
	return f.current, nil
}

func (f *Factory) release(c *client) {
	f.mu.Lock()
	defer f.mu.Unlock()
	c.refs--
	if c.retired && c.refs == 0 {
		closeClient(c.p)
	}
}

// retireLocked 標記客戶端不再分配，沒有租用者時立即關閉
func (f *Factory) retireLocked(c *client) error {
	c.retired = true
	if c.refs > 0 {
		common.LogDebug("提供者仍有進行中的請求，延後關閉",
			zap.String("provider", c.p.Name()),
			zap.Int("in_flight", c.refs),
		)
		return nil
	}
	return closeClient(c.p)
}

func closeClient(p provider.Provider) error {
	err := p.Close()
	if err != nil {
		common.LogWarn("關閉提供者失敗", zap.String("provider", p.Name()), zap.Error(err))
	}
	return err
}

// Generate 轉交給目前的提供者
func (f *Factory) Generate(ctx context.Context, req *provider.Request) (*provider.Response, error) {
	p, release, err := f.Acquire(ctx)
	if err != nil {
		return nil, err
	}
	defer release()
	return p.Generate(ctx, req)
}

// Name 目前提供者名稱，尚未建立時回傳設定值
func (f *Factory) Name() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.current != nil {
		return f.current.p.Name()
	}
	return f.cfg.AI.Provider
}

// GetModel 目前提供者的模型
func (f *Factory) GetModel() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.current != nil {
		return f.current.p.GetModel()
	}
	return ""
}

// Ready 是否有可用的金鑰
func (f *Factory) Ready() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, _, err := Resolve(f.cfg, f.credential)
	return err == nil
}

// Close 關閉目前的提供者，仍在租用中則等釋放後關閉
func (f *Factory) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.current == nil {
		return nil
	}
	err := f.retireLocked(f.current)
	f.current, f.currentKey = nil, ""
	return err
}
