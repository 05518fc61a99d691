package shopping

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"chefmate/internal/api/handlers"
	list "chefmate/internal/core/shopping"
	"chefmate/internal/core/store"
	"chefmate/internal/pkg/common"
)

// ListResponse 購物清單與分類分組
type ListResponse struct {
	Items  []list.Item  `json:"items"`
	Groups []list.Group `json:"groups"`
}

// Handler 購物清單處理程序
type Handler struct {
	store *store.Store
}

// NewHandler 創建購物清單處理程序
func NewHandler(st *store.Store) *Handler {
	return &Handler{store: st}
}

// Register 註冊路由
func (h *Handler) Register(group *gin.RouterGroup) {
	group.GET("", h.HandleGet)
	group.POST("/:index/toggle", h.HandleToggle)
}

// HandleGet 目前購物清單
func (h *Handler) HandleGet(c *gin.Context) {
	items := h.store.ShoppingList()
	c.JSON(http.StatusOK, ListResponse{Items: items, Groups: list.GroupByCategory(items)})
}

// HandleToggle 切換勾選
func (h *Handler) HandleToggle(c *gin.Context) {
	index, err := strconv.Atoi(c.Param("index"))
	if err != nil {
		handlers.RespondError(c, common.NewValidationError("index must be a number, got %q", c.Param("index")))
		return
	}

	item, err := h.store.ToggleShoppingItem(c.Request.Context(), index)
	if err != nil {
		handlers.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, item)
}
