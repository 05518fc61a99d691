package recipe

import (
	"context"
	"net/http"

	"github.com/gin-contrib/requestid"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"chefmate/internal/api/handlers"
	"chefmate/internal/api/middleware"
	"chefmate/internal/core/ai/image"
	"chefmate/internal/core/ai/service"
	recipeModel "chefmate/internal/core/recipe"
	"chefmate/internal/core/store"
	"chefmate/internal/infrastructure/config"
	"chefmate/internal/pkg/common"
)

// Generator 食譜生成
type Generator interface {
	GenerateRecipe(ctx context.Context, in service.Input) (*recipeModel.Recipe, error)
}

// ImageProcessor 圖片前處理
type ImageProcessor interface {
	ProcessDataURI(imageData string) ([]byte, error)
}

// SocialImporter 社群連結轉描述
type SocialImporter interface {
	Describe(ctx context.Context, rawURL, caption string) (string, error)
}

// TextRequest 以菜名或描述生成
type TextRequest struct {
	Query string `json:"query" binding:"required"`
}

// PantryRequest 以現有食材生成
type PantryRequest struct {
	Ingredients []string `json:"ingredients" binding:"required,min=1"`
}

// ScanRequest 以菜單或菜色照片生成，image 為 base64 或 data URI
type ScanRequest struct {
	Image string `json:"image" binding:"required"`
	Hint  string `json:"hint,omitempty"`
}

// SocialRequest 以 TikTok 或 Instagram 連結生成
type SocialRequest struct {
	URL     string `json:"url" binding:"required"`
	Caption string `json:"caption,omitempty"`
}

// ListResponse 食譜列表
type ListResponse struct {
	Recipes []recipeModel.Recipe `json:"recipes"`
	Count   int                  `json:"count"`
}

// Handler 食譜處理程序
type Handler struct {
	generator Generator
	store     *store.Store
	images    ImageProcessor
	social    SocialImporter
	video     config.VideoConfig
}

// NewHandler 創建新的食譜處理程序
func NewHandler(generator Generator, st *store.Store, images ImageProcessor, social SocialImporter, video config.VideoConfig) *Handler {
	return &Handler{
		generator: generator,
		store:     st,
		images:    images,
		social:    social,
		video:     video,
	}
}

// videoFormOverhead multipart 邊界與 prompt 欄位的額外容量
const videoFormOverhead = 1 << 20

// Register 註冊路由。bodyLimit 套用在 JSON 生成路由，影片上傳改用影片大小上限。
func (h *Handler) Register(group *gin.RouterGroup, bodyLimit gin.HandlerFunc, generate ...gin.HandlerFunc) {
	gen := group.Group("", generate...)

	jsonRoutes := gen.Group("", bodyLimit)
	jsonRoutes.POST("/text", h.HandleText)
	jsonRoutes.POST("/pantry", h.HandlePantry)
	jsonRoutes.POST("/scan", h.HandleScan)
	jsonRoutes.POST("/social", h.HandleSocial)

	gen.POST("/video", middleware.BodySizeLimit(h.video.MaxSizeBytes+videoFormOverhead), h.HandleVideo)

	group.GET("", h.HandleList)
	group.GET("/:id", h.HandleGet)
	group.DELETE("/:id", h.HandleDelete)
}

// generate 生成並保存食譜
func (h *Handler) generate(c *gin.Context, in service.Input) {
	rec, err := h.generator.GenerateRecipe(c.Request.Context(), in)
	if err != nil {
		handlers.RespondError(c, err)
		return
	}

	if err := h.store.AddRecipe(c.Request.Context(), *rec); err != nil {
		common.LogError("保存食譜失敗",
			zap.String("recipe_id", rec.ID),
			zap.String("request_id", requestid.Get(c)),
			zap.Error(err),
		)
		handlers.RespondError(c, common.ErrStorage.WithErr(err))
		return
	}

	c.JSON(http.StatusCreated, rec)
}

// HandleText 以文字生成
func (h *Handler) HandleText(c *gin.Context) {
	var req TextRequest
	if err := handlers.BindJSON(c, &req); err != nil {
		handlers.BindError(c, err)
		return
	}
	h.generate(c, service.Input{Source: recipeModel.SourceText, Text: req.Query})
}

// HandlePantry 以食材清單生成
func (h *Handler) HandlePantry(c *gin.Context) {
	var req PantryRequest
	if err := handlers.BindJSON(c, &req); err != nil {
		handlers.BindError(c, err)
		return
	}
	h.generate(c, service.Input{Source: recipeModel.SourcePantry, Ingredients: req.Ingredients})
}

// HandleScan 以照片生成
func (h *Handler) HandleScan(c *gin.Context) {
	var req ScanRequest
	if err := handlers.BindJSON(c, &req); err != nil {
		handlers.BindError(c, err)
		return
	}

	common.LogInfo("收到掃描請求",
		zap.String("image_type", getImageType(req.Image)),
		zap.String("request_id", requestid.Get(c)),
	)

	data, err := h.images.ProcessDataURI(req.Image)
	if err != nil {
		handlers.RespondError(c, err)
		return
	}

	h.generate(c, service.Input{
		Source:    recipeModel.SourceOCR,
		Text:      req.Hint,
		Image:     data,
		ImageMIME: image.OutputMIMEType,
	})
}

// HandleSocial 以社群連結生成
func (h *Handler) HandleSocial(c *gin.Context) {
	var req SocialRequest
	if err := handlers.BindJSON(c, &req); err != nil {
		handlers.BindError(c, err)
		return
	}

	description, err := h.social.Describe(c.Request.Context(), req.URL, req.Caption)
	if err != nil {
		handlers.RespondError(c, err)
		return
	}
	h.generate(c, service.Input{Source: recipeModel.SourceSocial, Text: description})
}

// HandleList 所有食譜，最新的在前
func (h *Handler) HandleList(c *gin.Context) {
	recipes := h.store.Recipes()
	c.JSON(http.StatusOK, ListResponse{Recipes: recipes, Count: len(recipes)})
}

// HandleGet 單一食譜
func (h *Handler) HandleGet(c *gin.Context) {
	rec, err := h.store.Recipe(c.Param("id"))
	if err != nil {
		handlers.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, rec)
}

// HandleDelete 刪除食譜
func (h *Handler) HandleDelete(c *gin.Context) {
	if err := h.store.RemoveRecipe(c.Request.Context(), c.Param("id")); err != nil {
		handlers.RespondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
