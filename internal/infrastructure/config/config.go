package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"chefmate/internal/pkg/common"
)

// Config 應用配置
type Config struct {
	App       AppConfig       `mapstructure:"app"`
	Server    ServerConfig    `mapstructure:"server"`
	AI        AIConfig        `mapstructure:"ai"`
	Gemini    GeminiConfig    `mapstructure:"gemini"`
	OpenAI    OpenAIConfig    `mapstructure:"openai"`
	Social    SocialConfig    `mapstructure:"social"`
	Storage   StorageConfig   `mapstructure:"storage"`
	Cache     CacheConfig     `mapstructure:"cache"`
	RateLimit RateLimitConfig `mapstructure:"rate_limit"`
	Image     ImageConfig     `mapstructure:"image"`
	Video     VideoConfig     `mapstructure:"video"`
	LogLevel  string          `mapstructure:"log_level"`
	LogDir    string          `mapstructure:"log_dir"`
}

// AppConfig 應用程式設定
type AppConfig struct {
	Env     string `mapstructure:"env"`
	Debug   bool   `mapstructure:"debug"`
	Version string `mapstructure:"version"`
	Name    string `mapstructure:"name"`
}

// ServerConfig 服務器配置，預設只綁定本機
type ServerConfig struct {
	Host           string        `mapstructure:"host"`
	Port           int           `mapstructure:"port"`
	ReadTimeout    time.Duration `mapstructure:"read_timeout"`
	WriteTimeout   time.Duration `mapstructure:"write_timeout"`
	IdleTimeout    time.Duration `mapstructure:"idle_timeout"`
	MaxBodyBytes   int64         `mapstructure:"max_body_bytes"`
	AllowedOrigins []string      `mapstructure:"allowed_origins"`
}

// AIConfig 供應商選擇
type AIConfig struct {
	Provider string `mapstructure:"provider"` // gemini | openai | auto
}

// GeminiConfig Gemini 設定
type GeminiConfig struct {
	APIKey      string  `mapstructure:"api_key"`
	TextModel   string  `mapstructure:"text_model"`
	VideoModel  string  `mapstructure:"video_model"`
	Temperature float32 `mapstructure:"temperature"`
}

// OpenAIConfig OpenAI 相容 API 設定
type OpenAIConfig struct {
	APIKey      string        `mapstructure:"api_key"`
	BaseURL     string        `mapstructure:"base_url"`
	Model       string        `mapstructure:"model"`
	MaxTokens   int           `mapstructure:"max_tokens"`
	Temperature float64       `mapstructure:"temperature"`
	Timeout     time.Duration `mapstructure:"timeout"`
}

// SocialConfig 社群連結抓取設定
type SocialConfig struct {
	FetchEnabled bool          `mapstructure:"fetch_enabled"`
	Timeout      time.Duration `mapstructure:"timeout"`
	UserAgent    string        `mapstructure:"user_agent"`
}

// StorageConfig 本地儲存設定
type StorageConfig struct {
	Backend       string `mapstructure:"backend"` // file | redis | sqlite | memory
	Dir           string `mapstructure:"dir"`
	SQLitePath    string `mapstructure:"sqlite_path"`
	RedisAddr     string `mapstructure:"redis_addr"`
	RedisPassword string `mapstructure:"redis_password"`
	RedisDB       int    `mapstructure:"redis_db"`
}

// CacheConfig AI 回應快取配置
type CacheConfig struct {
	Enabled         bool          `mapstructure:"enabled"`
	Backend         string        `mapstructure:"backend"` // memory | redis
	MaxSize         int           `mapstructure:"max_size"`
	TTL             time.Duration `mapstructure:"ttl"`
	CleanupInterval time.Duration `mapstructure:"cleanup_interval"`
}

// RateLimitConfig 生成路由的速率限制
type RateLimitConfig struct {
	Enabled  bool          `mapstructure:"enabled"`
	Requests int           `mapstructure:"requests"`
	Window   time.Duration `mapstructure:"window"`
}

// ImageConfig 圖片配置
type ImageConfig struct {
	MaxSizeBytes int64 `mapstructure:"max_size_bytes"`
	MaxEdge      int   `mapstructure:"max_edge"`
	JPEGQuality  int   `mapstructure:"jpeg_quality"`
}

// VideoConfig 影片上傳與處理輪詢設定
type VideoConfig struct {
	MaxSizeBytes int64         `mapstructure:"max_size_bytes"`
	PollInterval time.Duration `mapstructure:"poll_interval"`
	PollTimeout  time.Duration `mapstructure:"poll_timeout"`
	TempDir      string        `mapstructure:"temp_dir"`
}

// LoadConfig 載入設定，.env 不存在時只使用環境變數與預設值
func LoadConfig() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}
	return Load(viper.New())
}

// Load 以指定的 viper 實例解析設定
func Load(v *viper.Viper) (*Config, error) {
	setDefaults(v)

	v.SetEnvPrefix("APP")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	bindings := map[string]string{
		"gemini.api_key":      "GEMINI_API_KEY",
		"gemini.text_model":   "GEMINI_TEXT_MODEL",
		"gemini.video_model":  "GEMINI_VIDEO_MODEL",
		"openai.api_key":      "OPENAI_API_KEY",
		"openai.base_url":     "OPENAI_BASE_URL",
		"openai.model":        "OPENAI_MODEL",
		"ai.provider":         "AI_PROVIDER",
		"storage.backend":     "STORAGE_BACKEND",
		"storage.redis_addr":  "REDIS_ADDR",
		"cache.enabled":       "CACHE_ENABLED",
		"rate_limit.enabled":  "RATE_LIMIT_ENABLED",
		"rate_limit.requests": "RATE_LIMIT_REQUESTS",
		"rate_limit.window":   "RATE_LIMIT_WINDOW",
		"log_level":           "LOG_LEVEL",
	}
	for key, env := range bindings {
		if err := v.BindEnv(key, "APP_"+strings.ToUpper(strings.ReplaceAll(key, ".", "_")), env); err != nil {
			return nil, fmt.Errorf("bind env %s: %w", env, err)
		}
	}

	fmt.Println("Loading configuration",
		"provider:", v.GetString("ai.provider"),
		"gemini_api_key:", common.MaskSecret(v.GetString("gemini.api_key")),
		"openai_api_key:", common.MaskSecret(v.GetString("openai.api_key")),
		"storage:", v.GetString("storage.backend"))

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := validateConfig(&config); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &config, nil
}

// Addr 伺服器監聽位址
func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app.env", "development")
	v.SetDefault("app.debug", false)
	v.SetDefault("app.version", "1.0.0")
	v.SetDefault("app.name", "chefmate")

	v.SetDefault("server.host", "127.0.0.1")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.read_timeout", "30s")
	v.SetDefault("server.write_timeout", "180s")
	v.SetDefault("server.idle_timeout", "120s")
	v.SetDefault("server.max_body_bytes", 12*1024*1024)
	v.SetDefault("server.allowed_origins", []string{"*"})

	v.SetDefault("ai.provider", "auto")

	v.SetDefault("gemini.text_model", "gemini-1.5-flash")
	v.SetDefault("gemini.video_model", "gemini-1.5-pro")
	v.SetDefault("gemini.temperature", 0.4)

	v.SetDefault("openai.base_url", "https://api.openai.com/v1")
	v.SetDefault("openai.model", "gpt-4o")
	v.SetDefault("openai.max_tokens", 2000)
	v.SetDefault("openai.temperature", 0.7)
	v.SetDefault("openai.timeout", "90s")

	v.SetDefault("social.fetch_enabled", true)
	v.SetDefault("social.timeout", "10s")
	v.SetDefault("social.user_agent", "Mozilla/5.0 (compatible; chefmate/1.0)")

	v.SetDefault("storage.backend", "file")
	v.SetDefault("storage.dir", "data")
	v.SetDefault("storage.sqlite_path", "data/chefmate.db")
	v.SetDefault("storage.redis_addr", "localhost:6379")
	v.SetDefault("storage.redis_db", 0)

	v.SetDefault("cache.enabled", false)
	v.SetDefault("cache.backend", "memory")
	v.SetDefault("cache.max_size", 200)
	v.SetDefault("cache.ttl", "24h")
	v.SetDefault("cache.cleanup_interval", "10m")

	v.SetDefault("rate_limit.enabled", false)
	v.SetDefault("rate_limit.requests", 30)
	v.SetDefault("rate_limit.window", "1m")

	v.SetDefault("image.max_size_bytes", 10*1024*1024)
	v.SetDefault("image.max_edge", 1024)
	v.SetDefault("image.jpeg_quality", 85)

	v.SetDefault("video.max_size_bytes", 200*1024*1024)
	v.SetDefault("video.poll_interval", "2s")
	v.SetDefault("video.poll_timeout", "60s")
	v.SetDefault("video.temp_dir", "")

	v.SetDefault("log_level", "info")
	v.SetDefault("log_dir", "logs")
}

func validateConfig(config *Config) error {
	if config.Server.Port <= 0 || config.Server.Port > 65535 {
		return fmt.Errorf("invalid server port %d", config.Server.Port)
	}

	if config.Server.MaxBodyBytes <= 0 {
		return fmt.Errorf("invalid server max body bytes")
	}
	if config.Video.MaxSizeBytes <= 0 {
		return fmt.Errorf("invalid video max size")
	}

	switch config.AI.Provider {
	case "gemini", "openai", "auto":
	default:
		return fmt.Errorf("unknown ai provider %q", config.AI.Provider)
	}

	switch config.Storage.Backend {
	case "file":
		if config.Storage.Dir == "" {
			return fmt.Errorf("storage dir is required for file backend")
		}
	case "sqlite":
		if config.Storage.SQLitePath == "" {
			return fmt.Errorf("storage sqlite_path is required for sqlite backend")
		}
	case "redis":
		if config.Storage.RedisAddr == "" {
			return fmt.Errorf("storage redis_addr is required for redis backend")
		}
	case "memory":
	default:
		return fmt.Errorf("unknown storage backend %q", config.Storage.Backend)
	}

	if config.Cache.Enabled {
		if config.Cache.Backend != "memory" && config.Cache.Backend != "redis" {
			return fmt.Errorf("unknown cache backend %q", config.Cache.Backend)
		}
		if config.Cache.MaxSize <= 0 {
			return fmt.Errorf("invalid cache max size")
		}
		if config.Cache.TTL <= 0 {
			return fmt.Errorf("invalid cache ttl")
		}
		if config.Cache.CleanupInterval <= 0 {
			return fmt.Errorf("invalid cache cleanup interval")
		}
	}

	if config.RateLimit.Enabled && (config.RateLimit.Requests <= 0 || config.RateLimit.Window <= 0) {
		return fmt.Errorf("invalid rate limit settings")
	}

	if config.Image.MaxEdge <= 0 {
		return fmt.Errorf("invalid image max edge")
	}
	if config.Image.JPEGQuality < 1 || config.Image.JPEGQuality > 100 {
		return fmt.Errorf("invalid jpeg quality %d", config.Image.JPEGQuality)
	}

	if config.Video.PollInterval <= 0 || config.Video.PollTimeout < config.Video.PollInterval {
		return fmt.Errorf("invalid video poll settings")
	}

	return nil
}
