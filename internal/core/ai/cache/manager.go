package cache

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"chefmate/internal/infrastructure/config"
	"chefmate/internal/pkg/common"
	"chefmate/internal/pkg/metrics"
)

// CacheManager 記憶體快取，過期清理加上最少使用淘汰
type CacheManager struct {
	config *config.CacheConfig
	mu     sync.Mutex
	store  map[string]cacheEntry
	stats  cacheStats
	now    func() time.Time
	done   chan struct{}
	once   sync.Once
}

// cacheEntry 快取條目
type cacheEntry struct {
	value       string
	expiresAt   time.Time
	lastAccess  time.Time
	accessCount int
}

// cacheStats 快取統計
type cacheStats struct {
	hits      int64
	misses    int64
	evictions int64
}

// NewManager 創建記憶體快取並啟動清理協程
func NewManager(cfg *config.CacheConfig) *CacheManager {
	m := newManager(cfg, time.Now)
	go m.startCleanup()

	common.LogInfo("快取管理員已初始化",
		zap.Int("最大容量", cfg.MaxSize),
		zap.Duration("存活時間", cfg.TTL),
		zap.Duration("清理間隔", cfg.CleanupInterval),
	)
	return m
}

func newManager(cfg *config.CacheConfig, now func() time.Time) *CacheManager {
	return &CacheManager{
		config: cfg,
		store:  make(map[string]cacheEntry),
		now:    now,
		done:   make(chan struct{}),
	}
}

// Get 取得快取值，過期條目視為未命中並移除
func (m *CacheManager) Get(_ context.Context, key string) (string, bool) {
	if key == "" {
		return "", false
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	entry, ok := m.store[key]
	if ok && m.now().After(entry.expiresAt) {
		delete(m.store, key)
		m.stats.evictions++
		ok = false
	}
	if !ok {
		m.stats.misses++
		metrics.CacheLookups.WithLabelValues("miss").Inc()
		common.LogCacheMiss("memory")
		return "", false
	}

	entry.lastAccess = m.now()
	entry.accessCount++
	m.store[key] = entry
	m.stats.hits++
	metrics.CacheLookups.WithLabelValues("hit").Inc()
	common.LogCacheHit("memory")
	return entry.value, true
}

// Set 寫入快取，容量已滿時先清理過期再淘汰最少使用
func (m *CacheManager) Set(_ context.Context, key, value string) {
	if key == "" {
		return
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.store[key]; !exists && len(m.store) >= m.config.MaxSize {
		m.cleanup()
		for len(m.store) >= m.config.MaxSize {
			m.evictLRU()
		}
	}

	now := m.now()
	m.store[key] = cacheEntry{
		value:      value,
		expiresAt:  now.Add(m.config.TTL),
		lastAccess: now,
	}
}

// startCleanup 定期清理過期條目，Close 後結束
func (m *CacheManager) startCleanup() {
	ticker := time.NewTicker(m.config.CleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-m.done:
			return
		case <-ticker.C:
			m.mu.Lock()
			m.cleanup()
			m.mu.Unlock()
		}
	}
}

// cleanup 清理過期條目，呼叫者需持有鎖
func (m *CacheManager) cleanup() int {
	now := m.now()
	count := 0
	for key, entry := range m.store {
		if now.After(entry.expiresAt) {
			delete(m.store, key)
			count++
		}
	}
	m.stats.evictions += int64(count)

	if count > 0 {
		common.LogDebug("已清理過期快取",
			zap.Int("數量", count),
			zap.Int("剩餘", len(m.store)),
		)
	}
	return count
}

// evictLRU 淘汰存取次數最少、其次最久未使用的條目
func (m *CacheManager) evictLRU() {
	var oldestKey string
	var oldestAccess time.Time
	lowestCount := 0

	for key, entry := range m.store {
		if oldestKey == "" ||
			entry.accessCount < lowestCount ||
			(entry.accessCount == lowestCount && entry.lastAccess.Before(oldestAccess)) {
			oldestKey = key
			oldestAccess = entry.lastAccess
			lowestCount = entry.accessCount
		}
	}

	if oldestKey != "" {
		delete(m.store, oldestKey)
		m.stats.evictions++
	}
}

// Len 目前條目數
func (m *CacheManager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.store)
}

// GetStats 快取統計
func (m *CacheManager) GetStats() map[string]interface{} {
	m.mu.Lock()
	defer m.mu.Unlock()

	ratio := 0.0
	if total := m.stats.hits + m.stats.misses; total > 0 {
		ratio = float64(m.stats.hits) / float64(total)
	}
	return map[string]interface{}{
		"size":      len(m.store),
		"max_size":  m.config.MaxSize,
		"hits":      m.stats.hits,
		"misses":    m.stats.misses,
		"evictions": m.stats.evictions,
		"hit_ratio": ratio,
	}
}

// Close 停止清理協程並清空快取
func (m *CacheManager) Close() error {
	m.once.Do(func() { close(m.done) })

	m.mu.Lock()
	defer m.mu.Unlock()
	m.store = make(map[string]cacheEntry)
	common.LogInfo("快取管理員已關閉",
		zap.Int64("命中次數", m.stats.hits),
		zap.Int64("未命中次數", m.stats.misses),
		zap.Int64("淘汰次數", m.stats.evictions),
	)
	return nil
}
