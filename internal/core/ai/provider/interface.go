package provider

import (
	"context"
)

// MediaKind 請求附帶的媒體類型
type MediaKind string

const (
	MediaImage MediaKind = "image"
	MediaVideo MediaKind = "video"
)

// Media 圖片以 Data 內嵌，影片以 Path 指向本機暫存檔
type Media struct {
	Kind        MediaKind
	MIMEType    string
	Data        []byte
	Path        string
	DisplayName string
}

// Request 表示發送到 AI 提供者的請求
type Request struct {
	SystemInstruction string
	Prompt            string
	Media             *Media
}

// Modality 請求的輸入型態
func (r *Request) Modality() string {
	if r.Media == nil {
		return "text"
	}
	return string(r.Media.Kind)
}

// Usage token 使用量
type Usage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// Response 表示從 AI 提供者收到的原始文字
type Response struct {
	Content  string `json:"content"`
	Model    string `json:"model"`
	Usage    Usage  `json:"usage"`
	CacheHit bool   `json:"cache_hit"`
}

// Provider 定義 AI 提供者介面
type Provider interface {
	// Generate 送出請求並回傳模型原始文字
	Generate(ctx context.Context, req *Request) (*Response, error)

	// Name 提供者名稱
	Name() string

	// GetModel 獲取文字請求使用的模型名稱
	GetModel() string

	// Close 關閉提供者連接
	Close() error
}
