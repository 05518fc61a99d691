package service

import (
	"context"
	"strings"
	"time"

	"go.uber.org/zap"

	"chefmate/internal/core/ai/cache"
	"chefmate/internal/core/ai/provider"
	"chefmate/internal/core/recipe"
	"chefmate/internal/pkg/common"
	"chefmate/internal/pkg/metrics"
)

// ProviderSource 租用目前的提供者，factory.Factory 即實作
type ProviderSource interface {
	Acquire(ctx context.Context) (provider.Provider, func(), error)
}

// Static 固定使用同一個提供者
type Static struct{ P provider.Provider }

func (s Static) Acquire(context.Context) (provider.Provider, func(), error) {
	return s.P, func() {}, nil
}

// Video 已存到本機的影片
type Video struct {
	Path        string
	MIMEType    string
	DisplayName string
}

// Input 生成請求。Text 在圖片與影片請求中作為提示。
type Input struct {
	Source      recipe.SourceType
	Text        string
	Ingredients []string
	Image       []byte
	ImageMIME   string
	Video       *Video
}

// Service 組合提示詞、呼叫模型並驗證回應
type Service struct {
	providers ProviderSource
	cache     cache.Cache
}

// NewService 創建服務，c 可為 nil
func NewService(providers ProviderSource, c cache.Cache) *Service {
	return &Service{providers: providers, cache: c}
}

// BuildRequest 依輸入決定來源與模態並組合請求
func BuildRequest(in Input) (*provider.Request, recipe.SourceType, error) {
	req := &provider.Request{SystemInstruction: SystemInstruction()}
	text := strings.TrimSpace(in.Text)

	switch {
	case in.Video != nil:
		source := defaultSource(in.Source, recipe.SourceSocial)
		if in.Video.Path == "" {
			return nil, "", common.NewValidationError("video file is required")
		}
		req.Prompt = videoPrompt(text)
		req.Media = &provider.Media{
			Kind:        provider.MediaVideo,
			MIMEType:    in.Video.MIMEType,
			Path:        in.Video.Path,
			DisplayName: in.Video.DisplayName,
		}
		return req, source, nil

	case len(in.Image) > 0:
		source := defaultSource(in.Source, recipe.SourceOCR)
		req.Prompt = imagePrompt(source, text)
		req.Media = &provider.Media{Kind: provider.MediaImage, MIMEType: in.ImageMIME, Data: in.Image}
		return req, source, nil
	}

	source := defaultSource(in.Source, recipe.SourceText)
	if !source.Valid() {
		return nil, "", common.NewValidationError("unknown source type %q", source)
	}

	content := text
	if source == recipe.SourcePantry {
		content = joinIngredients(in.Ingredients)
		if content == "" {
			return nil, "", common.NewValidationError("at least one ingredient is required")
		}
	}
	if content == "" {
		return nil, "", common.NewValidationError("text input is required")
	}
	if source == recipe.SourceOCR {
		return nil, "", common.NewValidationError("image is required for scan requests")
	}

	req.Prompt = textPrompt(source, content)
	return req, source, nil
}

func defaultSource(given, fallback recipe.SourceType) recipe.SourceType {
	if given == "" {
		return fallback
	}
	return given
}

func joinIngredients(items []string) string {
	cleaned := make([]string, 0, len(items))
	for _, item := range items {
		if item = strings.TrimSpace(item); item != "" {
			cleaned = append(cleaned, item)
		}
	}
	return common.StringSliceToString(cleaned)
}

// GenerateRecipe 完成一次生成。不重試，模型錯誤原樣往上傳遞。
func (s *Service) GenerateRecipe(ctx context.Context, in Input) (rec *recipe.Recipe, err error) {
	req, source, err := BuildRequest(in)
	if err != nil {
		return nil, err
	}
	if !source.Valid() {
		return nil, common.NewValidationError("unknown source type %q", source)
	}

	modality := req.Modality()
	defer func() {
		metrics.Generations.WithLabelValues(string(source), modality, metrics.Outcome(err)).Inc()
	}()

	p, release, err := s.providers.Acquire(ctx)
	if err != nil {
		return nil, err
	}
	defer release()

	var key string
	if s.cache != nil {
		key = cache.Key(p.Name(), p.GetModel(), req)
		if raw, ok := s.cache.Get(ctx, key); ok {
			return recipe.ParseResponse(raw, source)
		}
	}

	start := time.Now()
	resp, err := p.Generate(ctx, req)
	metrics.AIDuration.WithLabelValues(p.Name(), p.GetModel()).Observe(time.Since(start).Seconds())
	if err != nil {
		return nil, err
	}

	rec, err = recipe.ParseResponse(resp.Content, source)
	if err != nil {
		common.LogWarn("AI 回應未通過驗證",
			zap.String("provider", p.Name()),
			zap.String("source", string(source)),
			zap.Error(err),
		)
		return nil, err
	}

	if s.cache != nil {
		s.cache.Set(ctx, key, resp.Content)
	}

	common.LogInfo("食譜已生成",
		zap.String("recipe_id", rec.ID),
		zap.String("name", rec.OriginalName),
		zap.String("source", string(source)),
		zap.String("modality", modality),
		zap.Int("tokens", resp.Usage.TotalTokens),
	)
	return rec, nil
}
