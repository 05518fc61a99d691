package common

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrorResponse 定義 API 錯誤響應結構
type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details string `json:"details,omitempty"` // 僅在開發模式顯示
}

// CustomError 定義自定義錯誤類型
type CustomError struct {
	Code    string // 錯誤代碼
	Message string // 錯誤信息
	Err     error  // 原始錯誤
	Status  int    // HTTP 狀態碼
}

func (e *CustomError) Error() string {
	if e.Err != nil {
		return e.Err.Error()
	}
	return e.Message
}

func (e *CustomError) Unwrap() error {
	return e.Err
}

// WithErr 複製預定義錯誤並附上原始錯誤
func (e *CustomError) WithErr(err error) *CustomError {
	return &CustomError{Code: e.Code, Message: e.Message, Status: e.Status, Err: err}
}

// NewError 創建新的自定義錯誤
func NewError(code string, message string, status int, err error) *CustomError {
	return &CustomError{
		Code:    code,
		Message: message,
		Status:  status,
		Err:     err,
	}
}

// ValidationError 表示輸入驗證錯誤
type ValidationError struct {
	message string
}

func (e *ValidationError) Error() string {
	return e.message
}

// NewValidationError 創建新的驗證錯誤
func NewValidationError(format string, args ...any) error {
	return &ValidationError{message: fmt.Sprintf(format, args...)}
}

// IsValidationError 檢查是否為驗證錯誤
func IsValidationError(err error) bool {
	var v *ValidationError
	return errors.As(err, &v)
}

// ParseError AI 回應不是合法的 JSON
type ParseError struct {
	Err error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("ai response is not valid json: %v", e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// SchemaError JSON 合法但結構不符合食譜格式
type SchemaError struct {
	Version string // 空字串表示頂層欄位
	Field   string // 空字串表示整個版本
	Reason  string
}

func (e *SchemaError) Error() string {
	switch {
	case e.Version == "":
		return fmt.Sprintf("invalid recipe: %s %s", e.Field, e.Reason)
	case e.Field == "":
		return fmt.Sprintf("invalid recipe: versions.%s %s", e.Version, e.Reason)
	}
	return fmt.Sprintf("invalid recipe: versions.%s.%s %s", e.Version, e.Field, e.Reason)
}

// UpstreamError 外部 AI 呼叫失敗或回傳無法使用的內容
type UpstreamError struct {
	Provider string
	Err      error
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("%s: %v", e.Provider, e.Err)
}

func (e *UpstreamError) Unwrap() error {
	return e.Err
}

// NewUpstreamError 建立 UpstreamError
func NewUpstreamError(provider string, format string, args ...any) error {
	return &UpstreamError{Provider: provider, Err: fmt.Errorf(format, args...)}
}

// FileProcessingError 影片上傳或處理輪詢失敗
type FileProcessingError struct {
	File  string
	State string
	Err   error
}

func (e *FileProcessingError) Error() string {
	if e.State != "" {
		return fmt.Sprintf("file %s (state %s): %v", e.File, e.State, e.Err)
	}
	return fmt.Sprintf("file %s: %v", e.File, e.Err)
}

func (e *FileProcessingError) Unwrap() error {
	return e.Err
}

// ErrProcessingTimeout 影片在期限內未進入 ACTIVE 狀態
var ErrProcessingTimeout = errors.New("file processing timed out")

// 預定義錯誤代碼
const (
	ErrCodeInvalidRequest   = "INVALID_REQUEST"
	ErrCodeNotFound         = "NOT_FOUND"
	ErrCodeTooManyRequests  = "TOO_MANY_REQUESTS"
	ErrCodeInternalError    = "INTERNAL_ERROR"
	ErrCodeAIResponse       = "AI_RESPONSE_INVALID"
	ErrCodeAIService        = "AI_SERVICE_ERROR"
	ErrCodeFileProcessing   = "FILE_PROCESSING_FAILED"
	ErrCodeRequestTimeout   = "REQUEST_TIMEOUT"
	ErrCodeStorage          = "STORAGE_ERROR"
	ErrCodeUnsupportedMedia = "UNSUPPORTED_MEDIA"
)

// 預定義錯誤
var (
	ErrInvalidRequest   = NewError(ErrCodeInvalidRequest, "無效的請求", http.StatusBadRequest, nil)
	ErrNotFound         = NewError(ErrCodeNotFound, "資源不存在", http.StatusNotFound, nil)
	ErrTooManyRequests  = NewError(ErrCodeTooManyRequests, "請求過於頻繁", http.StatusTooManyRequests, nil)
	ErrRequestTimeout   = NewError(ErrCodeRequestTimeout, "請求超時", http.StatusRequestTimeout, nil)
	ErrInternalError    = NewError(ErrCodeInternalError, "服務器內部錯誤", http.StatusInternalServerError, nil)
	ErrStorage          = NewError(ErrCodeStorage, "儲存失敗", http.StatusInternalServerError, nil)
	ErrAIResponse       = NewError(ErrCodeAIResponse, "AI 回應格式錯誤", http.StatusBadGateway, nil)
	ErrAIServiceError   = NewError(ErrCodeAIService, "AI 服務錯誤", http.StatusServiceUnavailable, nil)
	ErrFileProcessing   = NewError(ErrCodeFileProcessing, "影片處理失敗", http.StatusGatewayTimeout, nil)
	ErrInvalidImage     = NewError("INVALID_IMAGE", "無效的圖片", http.StatusBadRequest, nil)
	ErrInvalidImageSize = NewError("INVALID_IMAGE_SIZE", "圖片大小超出限制", http.StatusBadRequest, nil)
	ErrUnsupportedMedia = NewError(ErrCodeUnsupportedMedia, "不支援的媒體類型", http.StatusUnsupportedMediaType, nil)
)

// ErrRecipeNotFound 指定的食譜不存在
var ErrRecipeNotFound = errors.New("recipe not found")

// ToCustomError 將錯誤分類映射為 HTTP 錯誤
func ToCustomError(err error) *CustomError {
	var (
		custom     *CustomError
		parseErr   *ParseError
		schemaErr  *SchemaError
		upstream   *UpstreamError
		fileErr    *FileProcessingError
		validation *ValidationError
	)
	switch {
	case errors.As(err, &custom):
		return custom
	case errors.As(err, &validation):
		return ErrInvalidRequest.WithErr(err)
	case errors.Is(err, ErrRecipeNotFound):
		return ErrNotFound.WithErr(err)
	case errors.As(err, &parseErr), errors.As(err, &schemaErr):
		return ErrAIResponse.WithErr(err)
	case errors.As(err, &fileErr):
		return ErrFileProcessing.WithErr(err)
	case errors.As(err, &upstream):
		return ErrAIServiceError.WithErr(err)
	default:
		return ErrInternalError.WithErr(err)
	}
}
