package gemini

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/google/generative-ai-go/genai"
	"go.uber.org/zap"

	"chefmate/internal/core/ai/provider"
	"chefmate/internal/pkg/common"
	"chefmate/internal/pkg/metrics"
)

// fileService Gemini Files API，*genai.Client 即實作
type fileService interface {
	UploadFile(ctx context.Context, name string, r io.Reader, opts *genai.UploadFileOptions) (*genai.File, error)
	GetFile(ctx context.Context, name string) (*genai.File, error)
	DeleteFile(ctx context.Context, name string) error
}

// deleteTimeout 清理上傳檔案的期限，與請求 context 無關
const deleteTimeout = 15 * time.Second

func stateName(s genai.FileState) string {
	switch s {
	case genai.FileStateProcessing:
		return "PROCESSING"
	case genai.FileStateActive:
		return "ACTIVE"
	case genai.FileStateFailed:
		return "FAILED"
	}
	return "UNSPECIFIED"
}

// uploadVideo 上傳本機影片檔
func uploadVideo(ctx context.Context, files fileService, media *provider.Media) (*genai.File, error) {
	f, err := os.Open(media.Path)
	if err != nil {
		return nil, &common.FileProcessingError{File: media.DisplayName, Err: fmt.Errorf("open video: %w", err)}
	}
	defer f.Close()

	mime := media.MIMEType
	if mime == "" {
		mime = "video/mp4"
	}

	uploaded, err := files.UploadFile(ctx, "", f, &genai.UploadFileOptions{
		DisplayName: media.DisplayName,
		MIMEType:    mime,
	})
	if err != nil {
		return nil, &common.FileProcessingError{File: media.DisplayName, Err: fmt.Errorf("upload: %w", err)}
	}

	common.LogInfo("影片已上傳",
		zap.String("file", uploaded.Name),
		zap.String("mime", uploaded.MIMEType),
		zap.Int64("bytes", uploaded.SizeBytes),
	)
	return uploaded, nil
}

// waitForActive 每 interval 查詢一次狀態，直到 ACTIVE、FAILED 或超過 timeout
func waitForActive(ctx context.Context, files fileService, name string, interval, timeout time.Duration) (*genai.File, error) {
	deadline := time.Now().Add(timeout)
	for {
		file, err := files.GetFile(ctx, name)
		if err != nil {
			return nil, &common.FileProcessingError{File: name, Err: fmt.Errorf("get status: %w", err)}
		}

		switch file.State {
		case genai.FileStateActive:
			metrics.VideoUploads.WithLabelValues("active").Inc()
			return file, nil
		case genai.FileStateFailed:
			metrics.VideoUploads.WithLabelValues("failed").Inc()
			return nil, &common.FileProcessingError{File: name, State: stateName(file.State), Err: fmt.Errorf("processing failed")}
		}

		if !time.Now().Add(interval).Before(deadline) {
			metrics.VideoUploads.WithLabelValues("timeout").Inc()
			return nil, &common.FileProcessingError{File: name, State: stateName(file.State), Err: common.ErrProcessingTimeout}
		}

		common.LogDebug("影片處理中", zap.String("file", name), zap.String("state", stateName(file.State)))

		timer := time.NewTimer(interval)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, &common.FileProcessingError{File: name, State: stateName(file.State), Err: ctx.Err()}
		case <-timer.C:
		}
	}
}

// deleteQuietly 盡力刪除上傳的檔案，失敗只記錄警告
func deleteQuietly(files fileService, name string) {
	ctx, cancel := context.WithTimeout(context.Background(), deleteTimeout)
	defer cancel()

	if err := files.DeleteFile(ctx, name); err != nil {
		common.LogWarn("刪除上傳影片失敗", zap.String("file", name), zap.Error(err))
		return
	}
	common.LogDebug("上傳影片已刪除", zap.String("file", name))
}
