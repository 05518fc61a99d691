package planner

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"chefmate/internal/api/handlers"
	plan "chefmate/internal/core/planner"
	"chefmate/internal/core/recipe"
	"chefmate/internal/core/store"
	"chefmate/internal/pkg/common"
)

// SlotRequest 指定某餐的食譜版本
type SlotRequest struct {
	RecipeID string `json:"recipe_id" binding:"required"`
	Version  string `json:"version" binding:"required"`
}

// WeekResponse 週計畫
type WeekResponse struct {
	Days []plan.Day `json:"days"`
}

// Handler 週計畫處理程序
type Handler struct {
	store *store.Store
}

// NewHandler 創建週計畫處理程序
func NewHandler(st *store.Store) *Handler {
	return &Handler{store: st}
}

// Register 註冊路由
func (h *Handler) Register(group *gin.RouterGroup) {
	group.GET("", h.HandleGet)
	group.PUT("/:day/:meal", h.HandleSet)
	group.DELETE("/:day/:meal", h.HandleClear)
}

// HandleGet 目前週計畫
func (h *Handler) HandleGet(c *gin.Context) {
	c.JSON(http.StatusOK, WeekResponse{Days: h.store.Planner()})
}

// HandleSet 排入食譜版本
func (h *Handler) HandleSet(c *gin.Context) {
	day, meal, err := slotParams(c)
	if err != nil {
		handlers.RespondError(c, err)
		return
	}

	var req SlotRequest
	if err := handlers.BindJSON(c, &req); err != nil {
		handlers.BindError(c, err)
		return
	}

	if err := h.store.SetPlannerSlot(c.Request.Context(), day, meal, req.RecipeID, recipe.VersionType(req.Version)); err != nil {
		handlers.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, WeekResponse{Days: h.store.Planner()})
}

// HandleClear 清除某餐
func (h *Handler) HandleClear(c *gin.Context) {
	day, meal, err := slotParams(c)
	if err != nil {
		handlers.RespondError(c, err)
		return
	}

	if err := h.store.ClearPlannerSlot(c.Request.Context(), day, meal); err != nil {
		handlers.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, WeekResponse{Days: h.store.Planner()})
}

func slotParams(c *gin.Context) (int, plan.Meal, error) {
	day, err := strconv.Atoi(c.Param("day"))
	if err != nil {
		return 0, "", common.NewValidationError("day must be a number, got %q", c.Param("day"))
	}
	meal, err := plan.ParseMeal(c.Param("meal"))
	if err != nil {
		return 0, "", err
	}
	return day, meal, nil
}
