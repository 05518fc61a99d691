package metrics

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"chefmate/internal/pkg/common"
)

var (
	// HTTPRequests HTTP 請求數
	HTTPRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "chefmate_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status_code"},
	)

	// HTTPDuration HTTP 請求耗時
	HTTPDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "chefmate_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	// Generations 食譜生成次數，依來源與結果分類
	Generations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "chefmate_recipe_generations_total",
			Help: "Recipe generation attempts by source and outcome",
		},
		[]string{"source", "modality", "outcome"},
	)

	// AIDuration 模型呼叫耗時
	AIDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "chefmate_ai_request_duration_seconds",
			Help:    "Generative model call duration in seconds",
			Buckets: []float64{0.5, 1, 2, 5, 10, 20, 40, 60, 120},
		},
		[]string{"provider", "model"},
	)

	// CacheLookups AI 回應快取查詢
	CacheLookups = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "chefmate_ai_cache_lookups_total",
			Help: "AI response cache lookups by result",
		},
		[]string{"result"},
	)

	// VideoUploads 影片檔案生命週期結果
	VideoUploads = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "chefmate_video_files_total",
			Help: "Uploaded video files by terminal state",
		},
		[]string{"state"},
	)

	// StoreFlushes 寫入持久層的次數
	StoreFlushes = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "chefmate_store_flushes_total",
			Help: "Store flushes by outcome",
		},
		[]string{"outcome"},
	)

	// ShoppingItems 目前購物清單項目數
	ShoppingItems = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "chefmate_shopping_list_items",
		Help: "Number of items on the current shopping list",
	})

	// StoredRecipes 目前保存的食譜數
	StoredRecipes = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "chefmate_recipes_stored",
		Help: "Number of stored recipes",
	})
)

// Outcome 將錯誤分類為指標標籤
func Outcome(err error) string {
	if err == nil {
		return "success"
	}
	var (
		parseErr  *common.ParseError
		schemaErr *common.SchemaError
		fileErr   *common.FileProcessingError
		upstream  *common.UpstreamError
	)
	switch {
	case errors.As(err, &parseErr):
		return "parse_error"
	case errors.As(err, &schemaErr):
		return "schema_error"
	case errors.As(err, &fileErr):
		return "file_processing_error"
	case errors.As(err, &upstream):
		return "upstream_error"
	case common.IsValidationError(err):
		return "validation_error"
	}
	return "error"
}

// Middleware 記錄 HTTP 指標，路徑使用路由樣板避免高基數
func Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}
		HTTPRequests.WithLabelValues(c.Request.Method, path, strconv.Itoa(c.Writer.Status())).Inc()
		HTTPDuration.WithLabelValues(c.Request.Method, path).Observe(time.Since(start).Seconds())
	}
}

// Handler /metrics 端點
func Handler() http.Handler {
	return promhttp.Handler()
}
