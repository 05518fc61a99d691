package recipe

import (
	"strings"
)

// getImageType 圖片輸入格式，僅用於日誌
func getImageType(image string) string {
	image = strings.TrimSpace(image)
	switch {
	case image == "":
		return "empty"
	case strings.HasPrefix(image, "data:image/"):
		header, _, ok := strings.Cut(image, ",")
		if !ok {
			return "invalid_data_uri"
		}
		return "data_uri_" + strings.TrimSuffix(strings.TrimPrefix(header, "data:image/"), ";base64")
	case strings.HasPrefix(image, "/9j/"):
		return "base64_jpeg"
	case strings.HasPrefix(image, "iVBORw0KGgo"):
		return "base64_png"
	}
	return "base64"
}
