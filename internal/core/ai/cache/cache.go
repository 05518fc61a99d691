package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"

	"chefmate/internal/core/ai/provider"
	"chefmate/internal/infrastructure/config"
	"chefmate/internal/pkg/common"
)

// Cache AI 原始回應快取
type Cache interface {
	Get(ctx context.Context, key string) (string, bool)
	Set(ctx context.Context, key, value string)
	Close() error
}

// New 依設定建立快取，未啟用時回傳 nil
func New(ctx context.Context, cfg *config.Config) (Cache, error) {
	if !cfg.Cache.Enabled {
		common.LogInfo("AI 回應快取未啟用")
		return nil, nil
	}

	switch cfg.Cache.Backend {
	case "redis":
		c, err := NewRedisCache(ctx, &cfg.Storage, &cfg.Cache)
		if err != nil {
			return nil, err
		}
		return c, nil
	case "memory", "":
		return NewManager(&cfg.Cache), nil
	default:
		return nil, fmt.Errorf("unknown cache backend %q", cfg.Cache.Backend)
	}
}

// Key 由提供者、模型與請求內容組成快取鍵。影片請求不快取，回傳空字串。
func Key(providerName, model string, req *provider.Request) string {
	if req.Media != nil && req.Media.Kind == provider.MediaVideo {
		return ""
	}

	media := ""
	if req.Media != nil {
		sum := sha256.Sum256(req.Media.Data)
		media = req.Media.MIMEType + ":" + hex.EncodeToString(sum[:])
	}
	return common.HashKey(req.Modality(), providerName, model, req.SystemInstruction, req.Prompt, media)
}
