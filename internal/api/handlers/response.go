package handlers

import (
	"context"
	"errors"

	"github.com/gin-contrib/requestid"
	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"go.uber.org/zap"

	"chefmate/internal/pkg/common"
)

// RespondError 將錯誤映射為狀態碼與統一的錯誤回應
func RespondError(c *gin.Context, err error) {
	custom := common.ToCustomError(err)
	if custom.Code == common.ErrCodeInternalError && errors.Is(err, context.DeadlineExceeded) {
		custom = common.ErrRequestTimeout.WithErr(err)
	}

	resp := common.ErrorResponse{Code: custom.Code, Message: custom.Message}
	if custom.Status < 500 || gin.IsDebugging() {
		resp.Details = err.Error()
	}

	fields := []zap.Field{
		zap.String("code", custom.Code),
		zap.Int("status", custom.Status),
		zap.String("path", c.FullPath()),
		zap.String("request_id", requestid.Get(c)),
		zap.Error(err),
	}
	if custom.Status >= 500 {
		common.LogError("請求處理失敗", fields...)
	} else {
		common.LogWarn("請求無效", fields...)
	}

	_ = c.Error(err)
	c.AbortWithStatusJSON(custom.Status, resp)
}

// BindError 請求格式錯誤
func BindError(c *gin.Context, err error) {
	RespondError(c, common.NewValidationError("invalid request body: %v", err))
}

// BindJSON 以共用 JSON 設定解析請求體（禁止未知欄位），再套用 binding 標籤驗證
func BindJSON(c *gin.Context, obj any) error {
	if c.Request.Body == nil {
		return errors.New("empty request body")
	}
	if err := common.DecodeJSON(c.Request.Body, obj); err != nil {
		return err
	}
	return binding.Validator.ValidateStruct(obj)
}
