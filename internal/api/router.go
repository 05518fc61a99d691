package api

import (
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/requestid"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"chefmate/internal/api/handlers/health"
	plannerHandler "chefmate/internal/api/handlers/planner"
	recipeHandler "chefmate/internal/api/handlers/recipe"
	settingsHandler "chefmate/internal/api/handlers/settings"
	shoppingHandler "chefmate/internal/api/handlers/shopping"
	"chefmate/internal/api/middleware"
	"chefmate/internal/core/store"
	"chefmate/internal/infrastructure/config"
	"chefmate/internal/pkg/common"
	"chefmate/internal/pkg/metrics"
)

// defaultTimeout 未設定 write_timeout 時的請求期限
const defaultTimeout = 120 * time.Second

// AIProvider 生成與設定頁需要的提供者資訊
type AIProvider interface {
	settingsHandler.ProviderInfo
}

// Dependencies 路由需要的服務
type Dependencies struct {
	Config    *config.Config
	Store     *store.Store
	Generator recipeHandler.Generator
	Images    recipeHandler.ImageProcessor
	Social    recipeHandler.SocialImporter
	Provider  AIProvider
	Cache     health.CacheStats
}

// SetupRouter 設置路由
func SetupRouter(deps Dependencies) *gin.Engine {
	cfg := deps.Config

	if !cfg.App.Debug {
		gin.SetMode(gin.ReleaseMode)
	}

	timeout := cfg.Server.WriteTimeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	router := gin.New()

	router.Use(middleware.Recovery())
	router.Use(requestid.New())
	router.Use(middleware.Logger())
	router.Use(metrics.Middleware())

	router.Use(cors.New(corsConfig(cfg.Server.AllowedOrigins)))

	router.Use(middleware.Timeout(timeout))

	healthHandler := health.NewHandler(cfg.App.Version, deps.Store, deps.Provider, deps.Cache)
	router.GET("/health", healthHandler.HealthCheck)
	router.GET("/ready", healthHandler.ReadinessCheck)
	router.GET("/live", healthHandler.LivenessCheck)
	router.GET("/metrics", gin.WrapH(metrics.Handler()))

	var generate []gin.HandlerFunc
	if cfg.RateLimit.Enabled {
		generate = append(generate, middleware.RateLimit(cfg.RateLimit.Requests, cfg.RateLimit.Window))
	}

	bodyLimit := middleware.BodySizeLimit(cfg.Server.MaxBodyBytes)

	api := router.Group("/api/v1")
	{
		recipeHandler.NewHandler(deps.Generator, deps.Store, deps.Images, deps.Social, cfg.Video).
			Register(api.Group("/recipes"), bodyLimit, generate...)
		plannerHandler.NewHandler(deps.Store).Register(api.Group("/planner", bodyLimit))
		shoppingHandler.NewHandler(deps.Store).Register(api.Group("/shopping-list", bodyLimit))
		settingsHandler.NewHandler(deps.Store, deps.Provider).Register(api.Group("/settings", bodyLimit))
	}

	common.LogInfo("Router setup completed",
		zap.Bool("debug_mode", cfg.App.Debug),
		zap.String("version", cfg.App.Version),
		zap.String("environment", cfg.App.Env),
		zap.Bool("rate_limit", cfg.RateLimit.Enabled),
		zap.Duration("timeout", timeout),
		zap.Int64("max_body_size", cfg.Server.MaxBodyBytes),
		zap.Int64("max_video_size", cfg.Video.MaxSizeBytes),
	)

	return router
}

// corsConfig 未設定或包含 "*" 時允許所有來源，此時不帶憑證
func corsConfig(origins []string) cors.Config {
	c := cors.Config{
		AllowMethods:  []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:  []string{"Origin", "Content-Type", "Accept", "Authorization", "X-Request-ID"},
		ExposeHeaders: []string{"Content-Length", "X-Request-ID"},
		MaxAge:        12 * time.Hour,
	}
	for _, o := range origins {
		if o == "*" {
			c.AllowAllOrigins = true
			return c
		}
	}
	if len(origins) == 0 {
		c.AllowAllOrigins = true
		return c
	}
	c.AllowOrigins = origins
	c.AllowCredentials = true
	return c
}
