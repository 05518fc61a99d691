package common

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"regexp"
	"strings"
)

var (
	leadingFence  = regexp.MustCompile("(?i)^```(?:json)?\\s*")
	trailingFence = regexp.MustCompile("\\s*```$")
)

// ExtractJSONObject 從模型原始輸出中取出最可能的 JSON 物件片段。
// 去掉 markdown code fence 後取第一個 "{" 到最後一個 "}"；找不到成對大括號時回傳去掉 fence 的文字。
// 不做任何 JSON 解析。
func ExtractJSONObject(text string) string {
	trimmed := strings.TrimSpace(text)

	withoutFences := leadingFence.ReplaceAllString(trimmed, "")
	withoutFences = trailingFence.ReplaceAllString(withoutFences, "")

	first := strings.Index(withoutFences, "{")
	last := strings.LastIndex(withoutFences, "}")
	if first == -1 || last == -1 || last <= first {
		return strings.TrimSpace(withoutFences)
	}

	return strings.TrimSpace(withoutFences[first : last+1])
}

// ParseJSON 解析 JSON 字符串到結構體
func ParseJSON(data string, v interface{}) error {
	return decodeJSON(strings.NewReader(data), v, false)
}

// ParseJSONBytes 解析 JSON 位元組切片到結構體
func ParseJSONBytes(data []byte, v interface{}) error {
	return decodeJSON(bytes.NewReader(data), v, false)
}

// DecodeJSON 使用統一設定解析 JSON，禁止未知欄位
func DecodeJSON(r io.Reader, v interface{}) error {
	return decodeJSON(r, v, true)
}

func decodeJSON(r io.Reader, v interface{}, disallowUnknown bool) error {
	dec := json.NewDecoder(r)
	dec.UseNumber()
	if disallowUnknown {
		dec.DisallowUnknownFields()
	}

	if err := dec.Decode(v); err != nil {
		return err
	}

	// 確保沒有多餘資料
	if _, err := dec.Token(); err != io.EOF {
		if err != nil {
			return err
		}
		return fmt.Errorf("unexpected extra JSON data")
	}
	return nil
}

// StringSliceToString 將字符串切片轉換為逗號分隔的字符串
func StringSliceToString(slice []string) string {
	if len(slice) == 0 {
		return ""
	}
	return strings.Join(slice, ", ")
}
