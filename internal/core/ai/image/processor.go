package image

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"image"
	"image/jpeg"
	"strings"

	_ "image/gif" // 支援 GIF
	_ "image/png" // 支援 PNG

	"go.uber.org/zap"
	"golang.org/x/image/draw"
	_ "golang.org/x/image/webp" // 支援 WebP

	"chefmate/internal/infrastructure/config"
	"chefmate/internal/pkg/common"
)

// OutputMIMEType 處理後一律輸出 JPEG
const OutputMIMEType = "image/jpeg"

// Processor 圖片處理器：解碼、縮小、重新編碼為 JPEG
type Processor struct {
	maxSizeBytes int64
	maxEdge      int
	quality      int
}

// NewProcessor 創建圖片處理器
func NewProcessor(cfg config.ImageConfig) *Processor {
	return &Processor{
		maxSizeBytes: cfg.MaxSizeBytes,
		maxEdge:      cfg.MaxEdge,
		quality:      cfg.JPEGQuality,
	}
}

// DecodeDataURI 解析 data URI 或純 base64 字串
func (p *Processor) DecodeDataURI(imageData string) ([]byte, error) {
	imageData = strings.TrimSpace(imageData)
	if imageData == "" {
		return nil, common.ErrInvalidImage.WithErr(fmt.Errorf("image data is empty"))
	}

	if strings.HasPrefix(imageData, "data:") {
		header, payload, ok := strings.Cut(imageData, ",")
		if !ok || !strings.HasPrefix(header, "data:image/") || !strings.HasSuffix(header, ";base64") {
			return nil, common.ErrInvalidImage.WithErr(fmt.Errorf("invalid data URI"))
		}
		imageData = payload
	}

	if int64(base64.StdEncoding.DecodedLen(len(imageData))) > p.maxSizeBytes+2 {
		return nil, common.ErrInvalidImageSize.WithErr(fmt.Errorf("image exceeds %d bytes", p.maxSizeBytes))
	}

	decoded, err := base64.StdEncoding.DecodeString(imageData)
	if err != nil {
		return nil, common.ErrInvalidImage.WithErr(fmt.Errorf("failed to decode base64 data: %w", err))
	}
	if int64(len(decoded)) > p.maxSizeBytes {
		return nil, common.ErrInvalidImageSize.WithErr(fmt.Errorf("image exceeds %d bytes", p.maxSizeBytes))
	}
	return decoded, nil
}

// Process 解碼圖片，長邊超過 maxEdge 時等比例縮小，輸出 JPEG
func (p *Processor) Process(data []byte) ([]byte, error) {
	if int64(len(data)) > p.maxSizeBytes {
		return nil, common.ErrInvalidImageSize.WithErr(fmt.Errorf("image exceeds %d bytes", p.maxSizeBytes))
	}

	img, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, common.ErrInvalidImage.WithErr(fmt.Errorf("failed to decode image: %w", err))
	}
	if !isSupportedFormat(format) {
		return nil, common.ErrUnsupportedMedia.WithErr(fmt.Errorf("unsupported image format: %s", format))
	}

	resized := p.resize(img)

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, resized, &jpeg.Options{Quality: p.quality}); err != nil {
		return nil, fmt.Errorf("failed to encode image as JPEG: %w", err)
	}

	common.LogDebug("圖片已處理",
		zap.String("format", format),
		zap.Int("原始大小", len(data)),
		zap.Int("輸出大小", buf.Len()),
		zap.Int("寬", resized.Bounds().Dx()),
		zap.Int("高", resized.Bounds().Dy()),
	)
	return buf.Bytes(), nil
}

// ProcessDataURI 解析並處理 data URI
func (p *Processor) ProcessDataURI(imageData string) ([]byte, error) {
	raw, err := p.DecodeDataURI(imageData)
	if err != nil {
		return nil, err
	}
	return p.Process(raw)
}

func (p *Processor) resize(img image.Image) image.Image {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	if p.maxEdge <= 0 || (w <= p.maxEdge && h <= p.maxEdge) {
		return img
	}

	nw, nh := p.maxEdge, p.maxEdge
	if w >= h {
		nh = max(1, h*p.maxEdge/w)
	} else {
		nw = max(1, w*p.maxEdge/h)
	}

	dst := image.NewRGBA(image.Rect(0, 0, nw, nh))
	draw.CatmullRom.Scale(dst, dst.Bounds(), img, b, draw.Over, nil)
	return dst
}

// isSupportedFormat 檢查圖片格式是否支援
func isSupportedFormat(format string) bool {
	switch format {
	case "jpeg", "png", "gif", "webp":
		return true
	}
	return false
}
