package openai

import (
	"context"
	"encoding/base64"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"

	"chefmate/internal/core/ai/provider"
	"chefmate/internal/infrastructure/config"
	"chefmate/internal/pkg/common"
)

// ProviderName 提供者名稱
const ProviderName = "openai"

// ContentPart 多模態訊息片段
type ContentPart struct {
	Type     string    `json:"type"`
	Text     string    `json:"text,omitempty"`
	ImageURL *ImageURL `json:"image_url,omitempty"`
}

// ImageURL 圖片 URL（data URI）
type ImageURL struct {
	URL string `json:"url"`
}

// Message 對話訊息，Content 為字串或 []ContentPart
type Message struct {
	Role    string `json:"role"`
	Content any    `json:"content"`
}

// ResponseFormat 回應格式
type ResponseFormat struct {
	Type string `json:"type"`
}

// ChatRequest chat completions 請求
type ChatRequest struct {
	Model          string          `json:"model"`
	Messages       []Message       `json:"messages"`
	MaxTokens      int             `json:"max_tokens,omitempty"`
	Temperature    float64         `json:"temperature,omitempty"`
	ResponseFormat *ResponseFormat `json:"response_format,omitempty"`
}

// ChatResponse chat completions 回應
type ChatResponse struct {
	ID      string `json:"id"`
	Model   string `json:"model"`
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
		FinishReason string `json:"finish_reason"`
	} `json:"choices"`
	Usage provider.Usage `json:"usage"`
}

// APIError 錯誤回應
type APIError struct {
	Error struct {
		Message string `json:"message"`
		Type    string `json:"type"`
	} `json:"error"`
}

// Client OpenAI 相容 API 客戶端
type Client struct {
	client *resty.Client
	cfg    config.OpenAIConfig
}

// NewClient 創建客戶端，apiKey 覆寫設定檔中的金鑰
func NewClient(cfg config.OpenAIConfig, apiKey string) *Client {
	if apiKey == "" {
		apiKey = cfg.APIKey
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 90 * time.Second
	}

	client := resty.New().
		SetBaseURL(strings.TrimRight(cfg.BaseURL, "/")).
		SetHeader("Authorization", fmt.Sprintf("Bearer %s", apiKey)).
		SetHeader("Content-Type", "application/json").
		SetTimeout(timeout)

	return &Client{client: client, cfg: cfg}
}

func (c *Client) Name() string { return ProviderName }

func (c *Client) GetModel() string { return c.cfg.Model }

func (c *Client) Close() error { return nil }

// Generate 送出 system + user 訊息，要求 JSON 物件回應
func (c *Client) Generate(ctx context.Context, req *provider.Request) (*provider.Response, error) {
	if req.Media != nil && req.Media.Kind == provider.MediaVideo {
		return nil, common.NewUpstreamError(ProviderName, "video input is not supported")
	}

	var userContent any = req.Prompt
	if req.Media != nil {
		mime := req.Media.MIMEType
		if mime == "" {
			mime = "image/jpeg"
		}
		userContent = []ContentPart{
			{Type: "text", Text: req.Prompt},
			{Type: "image_url", ImageURL: &ImageURL{
				URL: fmt.Sprintf("data:%s;base64,%s", mime, base64.StdEncoding.EncodeToString(req.Media.Data)),
			}},
		}
	}

	body := ChatRequest{
		Model: c.cfg.Model,
		Messages: []Message{
			{Role: "system", Content: req.SystemInstruction},
			{Role: "user", Content: userContent},
		},
		MaxTokens:      c.cfg.MaxTokens,
		Temperature:    c.cfg.Temperature,
		ResponseFormat: &ResponseFormat{Type: "json_object"},
	}

	common.LogDebug("發送 OpenAI 請求",
		zap.String("model", c.cfg.Model),
		zap.Bool("has_image", req.Media != nil),
	)

	resp, err := c.client.R().
		SetContext(ctx).
		SetBody(body).
		Post("/chat/completions")
	if err != nil {
		return nil, &common.UpstreamError{Provider: ProviderName, Err: fmt.Errorf("send request: %w", err)}
	}

	if resp.StatusCode() != http.StatusOK {
		var apiErr APIError
		msg := resp.Status()
		if common.ParseJSONBytes(resp.Body(), &apiErr) == nil && apiErr.Error.Message != "" {
			msg = apiErr.Error.Message
		}
		return nil, common.NewUpstreamError(ProviderName, "status %d: %s", resp.StatusCode(), msg)
	}

	var result ChatResponse
	if err := common.ParseJSONBytes(resp.Body(), &result); err != nil {
		return nil, &common.UpstreamError{Provider: ProviderName, Err: fmt.Errorf("decode response: %w", err)}
	}
	if len(result.Choices) == 0 {
		return nil, common.NewUpstreamError(ProviderName, "no choices in response")
	}

	content := result.Choices[0].Message.Content
	if strings.TrimSpace(content) == "" {
		return nil, common.NewUpstreamError(ProviderName, "empty response (finish_reason %s)", result.Choices[0].FinishReason)
	}

	model := result.Model
	if model == "" {
		model = c.cfg.Model
	}
	return &provider.Response{Content: content, Model: model, Usage: result.Usage}, nil
}
