package kv

import (
	"context"
	"fmt"

	"chefmate/internal/infrastructure/config"
)

// Store 鍵值儲存，每個鍵整筆覆寫
type Store interface {
	// Get 讀取鍵值，found 為 false 表示尚未寫入過
	Get(ctx context.Context, key string) (value []byte, found bool, err error)

	// Set 覆寫鍵值
	Set(ctx context.Context, key string, value []byte) error

	// Ping 檢查後端是否可用
	Ping(ctx context.Context) error

	// Close 釋放連線
	Close() error
}

// New 依設定建立儲存後端
func New(ctx context.Context, cfg *config.StorageConfig) (Store, error) {
	var (
		store Store
		err   error
	)
	switch cfg.Backend {
	case "file":
		store, err = NewFileStore(cfg.Dir)
	case "redis":
		store, err = NewRedisStore(ctx, cfg)
	case "sqlite":
		store, err = NewSQLiteStore(cfg.SQLitePath)
	case "memory":
		store = NewMemoryStore()
	default:
		return nil, fmt.Errorf("unknown storage backend %q", cfg.Backend)
	}
	if err != nil {
		return nil, err
	}
	return store, nil
}
