package health

import (
	"context"
	"net/http"
	"runtime"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"chefmate/internal/pkg/common"
)

// readyTimeout 就緒檢查的持久層探測期限
const readyTimeout = 2 * time.Second

// Pinger 持久層連線檢查
type Pinger interface {
	Ping(ctx context.Context) error
}

// AIStatus AI 提供者是否已設定金鑰
type AIStatus interface {
	Ready() bool
}

// CacheStats 記憶體快取統計，可為 nil
type CacheStats interface {
	GetStats() map[string]interface{}
}

// HealthResponse 健康檢查響應
type HealthResponse struct {
	Status    string                 `json:"status"`
	Timestamp time.Time              `json:"timestamp"`
	Version   string                 `json:"version"`
	Runtime   map[string]interface{} `json:"runtime"`
	Cache     map[string]interface{} `json:"cache,omitempty"`
}

// Handler 健康檢查處理程序
type Handler struct {
	version string
	storage Pinger
	ai      AIStatus
	cache   CacheStats
}

// NewHandler 創建健康檢查處理程序
func NewHandler(version string, storage Pinger, ai AIStatus, cache CacheStats) *Handler {
	return &Handler{version: version, storage: storage, ai: ai, cache: cache}
}

// HealthCheck 健康檢查處理器
func (h *Handler) HealthCheck(c *gin.Context) {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)

	resp := HealthResponse{
		Status:    "ok",
		Timestamp: time.Now(),
		Version:   h.version,
		Runtime: map[string]interface{}{
			"goroutines": runtime.NumGoroutine(),
			"memory": map[string]interface{}{
				"alloc":       m.Alloc,
				"total_alloc": m.TotalAlloc,
				"sys":         m.Sys,
				"num_gc":      m.NumGC,
			},
		},
	}
	if h.cache != nil {
		resp.Cache = h.cache.GetStats()
	}
	c.JSON(http.StatusOK, resp)
}

// ReadinessCheck 持久層可用才算就緒，AI 金鑰只回報狀態
func (h *Handler) ReadinessCheck(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), readyTimeout)
	defer cancel()

	aiReady := h.ai.Ready()
	if err := h.storage.Ping(ctx); err != nil {
		common.LogWarn("就緒檢查失敗", zap.Error(err))
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"status":   "not_ready",
			"storage":  err.Error(),
			"ai_ready": aiReady,
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status":   "ready",
		"storage":  "ok",
		"ai_ready": aiReady,
	})
}

// LivenessCheck 存活檢查處理器
func (h *Handler) LivenessCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "alive",
	})
}
