package gemini

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/generative-ai-go/genai"
	"go.uber.org/zap"
	"google.golang.org/api/option"

	"chefmate/internal/core/ai/provider"
	"chefmate/internal/infrastructure/config"
	"chefmate/internal/pkg/common"
)

// ProviderName 提供者名稱
const ProviderName = "gemini"

type generateFunc func(ctx context.Context, modelName, system string, parts []genai.Part) (*genai.GenerateContentResponse, error)

// Client Gemini 提供者。文字與圖片使用 TextModel，影片使用 VideoModel。
type Client struct {
	client       *genai.Client
	cfg          config.GeminiConfig
	pollInterval time.Duration
	pollTimeout  time.Duration

	files    fileService
	generate generateFunc
}

// NewClient 創建 Gemini 客戶端，apiKey 覆寫設定檔中的金鑰
func NewClient(ctx context.Context, cfg config.GeminiConfig, video config.VideoConfig, apiKey string) (*Client, error) {
	if apiKey == "" {
		apiKey = cfg.APIKey
	}
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	c := &Client{
		client:       client,
		cfg:          cfg,
		pollInterval: video.PollInterval,
		pollTimeout:  video.PollTimeout,
		files:        client,
	}
	c.generate = c.generateContent
	return c, nil
}

func (c *Client) Name() string { return ProviderName }

func (c *Client) GetModel() string { return c.cfg.TextModel }

func (c *Client) Close() error {
	if c.client == nil {
		return nil
	}
	return c.client.Close()
}

// Generate 依媒體類型組合 parts 並呼叫模型
func (c *Client) Generate(ctx context.Context, req *provider.Request) (*provider.Response, error) {
	if req.Media != nil && req.Media.Kind == provider.MediaVideo {
		return c.generateFromVideo(ctx, req)
	}

	var parts []genai.Part
	if req.Media != nil {
		mime := req.Media.MIMEType
		if mime == "" {
			mime = "image/jpeg"
		}
		parts = append(parts, genai.Blob{MIMEType: mime, Data: req.Media.Data})
	}
	parts = append(parts, genai.Text(req.Prompt))

	return c.call(ctx, c.cfg.TextModel, req.SystemInstruction, parts)
}

// generateFromVideo 上傳 → 等待 ACTIVE → 生成 → 不論結果都刪除檔案
func (c *Client) generateFromVideo(ctx context.Context, req *provider.Request) (*provider.Response, error) {
	uploaded, err := uploadVideo(ctx, c.files, req.Media)
	if err != nil {
		return nil, err
	}
	defer deleteQuietly(c.files, uploaded.Name)

	active, err := waitForActive(ctx, c.files, uploaded.Name, c.pollInterval, c.pollTimeout)
	if err != nil {
		return nil, err
	}

	mime := active.MIMEType
	if mime == "" {
		mime = req.Media.MIMEType
	}
	parts := []genai.Part{
		genai.FileData{MIMEType: mime, URI: active.URI},
		genai.Text(req.Prompt),
	}
	return c.call(ctx, c.cfg.VideoModel, req.SystemInstruction, parts)
}

func (c *Client) call(ctx context.Context, modelName, system string, parts []genai.Part) (*provider.Response, error) {
	start := time.Now()
	resp, err := c.generate(ctx, modelName, system, parts)
	common.LogAICall(ProviderName, modelName, time.Since(start), err)
	if err != nil {
		return nil, &common.UpstreamError{Provider: ProviderName, Err: err}
	}

	text, err := responseText(resp)
	if err != nil {
		return nil, &common.UpstreamError{Provider: ProviderName, Err: err}
	}

	out := &provider.Response{Content: text, Model: modelName}
	if resp.UsageMetadata != nil {
		out.Usage = provider.Usage{
			PromptTokens:     int(resp.UsageMetadata.PromptTokenCount),
			CompletionTokens: int(resp.UsageMetadata.CandidatesTokenCount),
			TotalTokens:      int(resp.UsageMetadata.TotalTokenCount),
		}
	}
	return out, nil
}

func (c *Client) generateContent(ctx context.Context, modelName, system string, parts []genai.Part) (*genai.GenerateContentResponse, error) {
	model := c.client.GenerativeModel(modelName)
	model.SetTemperature(c.cfg.Temperature)
	model.ResponseMIMEType = "application/json"
	model.ResponseSchema = recipeSchema()
	model.SafetySettings = safetySettings()
	if system != "" {
		model.SystemInstruction = &genai.Content{Parts: []genai.Part{genai.Text(system)}}
	}

	common.LogDebug("發送 Gemini 請求", zap.String("model", modelName), zap.Int("parts", len(parts)))
	return model.GenerateContent(ctx, parts...)
}

// responseText 串接第一個候選的所有文字片段
func responseText(resp *genai.GenerateContentResponse) (string, error) {
	if resp == nil || len(resp.Candidates) == 0 {
		if resp != nil && resp.PromptFeedback != nil {
			return "", fmt.Errorf("prompt blocked (reason %v)", resp.PromptFeedback.BlockReason)
		}
		return "", fmt.Errorf("no candidates in response")
	}

	cand := resp.Candidates[0]
	if cand.Content == nil {
		return "", fmt.Errorf("empty candidate (finish reason %v)", cand.FinishReason)
	}

	var sb strings.Builder
	for _, part := range cand.Content.Parts {
		if t, ok := part.(genai.Text); ok {
			sb.WriteString(string(t))
		}
	}
	if strings.TrimSpace(sb.String()) == "" {
		return "", fmt.Errorf("no text in response")
	}
	return sb.String(), nil
}
