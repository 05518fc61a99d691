package recipe

import (
	"fmt"
	"io"
	"mime/multipart"
	"os"
	"path/filepath"
	"strings"

	"github.com/gin-contrib/requestid"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"chefmate/internal/api/handlers"
	"chefmate/internal/core/ai/service"
	"chefmate/internal/pkg/common"
)

// videoExtensions 副檔名對應的 MIME，Content-Type 缺漏時使用
var videoExtensions = map[string]string{
	".mp4":  "video/mp4",
	".mov":  "video/quicktime",
	".webm": "video/webm",
	".m4v":  "video/x-m4v",
	".3gp":  "video/3gpp",
	".avi":  "video/x-msvideo",
	".mpeg": "video/mpeg",
	".mpg":  "video/mpeg",
}

// HandleVideo 上傳烹飪影片生成食譜。影片先存成暫存檔，請求結束後刪除。
func (h *Handler) HandleVideo(c *gin.Context) {
	file, err := c.FormFile("video")
	if err != nil {
		handlers.RespondError(c, common.NewValidationError("multipart field \"video\" is required"))
		return
	}
	if h.video.MaxSizeBytes > 0 && file.Size > h.video.MaxSizeBytes {
		handlers.RespondError(c, common.NewValidationError("video exceeds %d bytes", h.video.MaxSizeBytes))
		return
	}

	mimeType, err := videoMIMEType(file)
	if err != nil {
		handlers.RespondError(c, err)
		return
	}

	path, err := saveTemp(file, h.video.TempDir)
	if err != nil {
		handlers.RespondError(c, err)
		return
	}
	defer func() {
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			common.LogWarn("刪除暫存影片失敗", zap.String("path", path), zap.Error(err))
		}
	}()

	common.LogInfo("收到影片",
		zap.String("file", file.Filename),
		zap.String("mime", mimeType),
		zap.Int64("bytes", file.Size),
		zap.String("request_id", requestid.Get(c)),
	)

	h.generate(c, service.Input{
		Text: c.PostForm("prompt"),
		Video: &service.Video{
			Path:        path,
			MIMEType:    mimeType,
			DisplayName: file.Filename,
		},
	})
}

func videoMIMEType(file *multipart.FileHeader) (string, error) {
	mimeType := strings.ToLower(strings.TrimSpace(strings.Split(file.Header.Get("Content-Type"), ";")[0]))
	if strings.HasPrefix(mimeType, "video/") {
		return mimeType, nil
	}
	if m, ok := videoExtensions[strings.ToLower(filepath.Ext(file.Filename))]; ok {
		return m, nil
	}
	return "", common.ErrUnsupportedMedia.WithErr(fmt.Errorf("unsupported video type %q", file.Filename))
}

func saveTemp(file *multipart.FileHeader, dir string) (string, error) {
	src, err := file.Open()
	if err != nil {
		return "", fmt.Errorf("open upload: %w", err)
	}
	defer src.Close()

	dst, err := os.CreateTemp(dir, "chefmate-video-*"+strings.ToLower(filepath.Ext(file.Filename)))
	if err != nil {
		return "", fmt.Errorf("create temp file: %w", err)
	}

	if _, err := io.Copy(dst, src); err != nil {
		dst.Close()
		os.Remove(dst.Name())
		return "", fmt.Errorf("write temp file: %w", err)
	}
	if err := dst.Close(); err != nil {
		os.Remove(dst.Name())
		return "", fmt.Errorf("close temp file: %w", err)
	}
	return dst.Name(), nil
}
