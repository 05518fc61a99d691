package settings

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"chefmate/internal/api/handlers"
	"chefmate/internal/core/store"
	"chefmate/internal/pkg/common"
)

// ProviderInfo 目前 AI 提供者的狀態
type ProviderInfo interface {
	Name() string
	GetModel() string
	Ready() bool
}

// CredentialRequest 設定使用者的 API 金鑰，空字串代表清除
type CredentialRequest struct {
	APIKey string `json:"api_key"`
}

// Response 設定狀態，金鑰只回傳遮蔽後的值
type Response struct {
	Provider      string `json:"provider"`
	Model         string `json:"model,omitempty"`
	AIReady       bool   `json:"ai_ready"`
	HasCredential bool   `json:"has_credential"`
	Credential    string `json:"credential,omitempty"`
}

// Handler 設定處理程序
type Handler struct {
	store    *store.Store
	provider ProviderInfo
}

// NewHandler 創建設定處理程序
func NewHandler(st *store.Store, provider ProviderInfo) *Handler {
	return &Handler{store: st, provider: provider}
}

// Register 註冊路由
func (h *Handler) Register(group *gin.RouterGroup) {
	group.GET("", h.HandleGet)
	group.PUT("/credential", h.HandleSetCredential)
}

func (h *Handler) response() Response {
	credential := h.store.Credential()
	return Response{
		Provider:      h.provider.Name(),
		Model:         h.provider.GetModel(),
		AIReady:       h.provider.Ready(),
		HasCredential: credential != "",
		Credential:    common.MaskSecret(credential),
	}
}

// HandleGet 目前設定
func (h *Handler) HandleGet(c *gin.Context) {
	c.JSON(http.StatusOK, h.response())
}

// HandleSetCredential 保存 API 金鑰
func (h *Handler) HandleSetCredential(c *gin.Context) {
	var req CredentialRequest
	if err := handlers.BindJSON(c, &req); err != nil {
		handlers.BindError(c, err)
		return
	}

	if err := h.store.SetCredential(c.Request.Context(), req.APIKey); err != nil {
		handlers.RespondError(c, common.ErrStorage.WithErr(err))
		return
	}
	c.JSON(http.StatusOK, h.response())
}
