package social

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"

	"chefmate/internal/infrastructure/config"
	"chefmate/internal/pkg/common"
)

// SupportedHosts 支援匯入的社群平台
var SupportedHosts = []string{"tiktok.com", "instagram.com"}

// Metadata 從頁面讀到的描述資訊
type Metadata struct {
	Title       string
	Description string
}

// Empty 沒有任何可用資訊
func (m *Metadata) Empty() bool {
	return m == nil || (m.Title == "" && m.Description == "")
}

// ValidateURL 檢查連結是否屬於支援的平台，回傳正規化後的 URL
func ValidateURL(raw string) (*url.URL, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, common.NewValidationError("url is required")
	}

	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return nil, common.NewValidationError("invalid url %q", raw)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, common.NewValidationError("unsupported url scheme %q", u.Scheme)
	}

	host := strings.ToLower(u.Hostname())
	if !supportedHost(host) {
		return nil, common.NewValidationError("unsupported platform %q, only TikTok and Instagram links are supported", host)
	}
	return u, nil
}

func supportedHost(host string) bool {
	host = strings.ToLower(host)
	for _, supported := range SupportedHosts {
		if host == supported || strings.HasSuffix(host, "."+supported) {
			return true
		}
	}
	return false
}

// maxRedirects 短網址轉址的上限
const maxRedirects = 5

// redirectPolicy 每一次轉址都必須停留在支援的平台
func redirectPolicy(req *http.Request, via []*http.Request) error {
	if len(via) >= maxRedirects {
		return fmt.Errorf("stopped after %d redirects", maxRedirects)
	}
	if req.URL.Scheme != "http" && req.URL.Scheme != "https" {
		return fmt.Errorf("redirect to unsupported scheme %q", req.URL.Scheme)
	}
	if !supportedHost(req.URL.Hostname()) {
		return fmt.Errorf("redirect to unsupported host %q", req.URL.Hostname())
	}
	return nil
}

// Importer 將社群連結轉成給模型的描述文字
type Importer struct {
	client  *resty.Client
	enabled bool
	fetch   func(ctx context.Context, pageURL string) (*Metadata, error)
}

// NewImporter 創建匯入器
func NewImporter(cfg config.SocialConfig) *Importer {
	client := resty.New().
		SetTimeout(cfg.Timeout).
		SetHeader("User-Agent", cfg.UserAgent).
		SetHeader("Accept", "text/html,application/xhtml+xml").
		SetRedirectPolicy(resty.RedirectPolicyFunc(redirectPolicy))

	i := &Importer{client: client, enabled: cfg.FetchEnabled}
	i.fetch = i.Fetch
	return i
}

// Fetch 讀取頁面的 og 標籤、description 與 title
func (i *Importer) Fetch(ctx context.Context, pageURL string) (*Metadata, error) {
	resp, err := i.client.R().
		SetContext(ctx).
		SetDoNotParseResponse(true).
		Get(pageURL)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch page: %w", err)
	}
	body := resp.RawBody()
	defer body.Close()

	if resp.StatusCode() != http.StatusOK {
		return nil, fmt.Errorf("failed to fetch page: status %d", resp.StatusCode())
	}

	doc, err := goquery.NewDocumentFromReader(body)
	if err != nil {
		return nil, fmt.Errorf("failed to parse page: %w", err)
	}

	meta := &Metadata{
		Title:       firstContent(doc, `meta[property="og:title"]`),
		Description: firstContent(doc, `meta[property="og:description"]`, `meta[name="description"]`),
	}
	if meta.Title == "" {
		meta.Title = strings.TrimSpace(doc.Find("title").First().Text())
	}
	return meta, nil
}

func firstContent(doc *goquery.Document, selectors ...string) string {
	for _, sel := range selectors {
		if v, ok := doc.Find(sel).First().Attr("content"); ok {
			if v = strings.TrimSpace(v); v != "" {
				return v
			}
		}
	}
	return ""
}

// Describe 驗證連結並組合描述文字。抓取失敗時只使用連結與使用者附註。
func (i *Importer) Describe(ctx context.Context, rawURL, caption string) (string, error) {
	u, err := ValidateURL(rawURL)
	if err != nil {
		return "", err
	}

	var meta *Metadata
	if i.enabled {
		meta, err = i.fetch(ctx, u.String())
		if err != nil {
			common.LogWarn("讀取社群頁面失敗，僅使用連結", zap.String("url", u.String()), zap.Error(err))
			meta = nil
		}
	}

	var sb strings.Builder
	sb.WriteString("URL: " + u.String())
	if !meta.Empty() {
		if meta.Title != "" {
			sb.WriteString("\nTitel: " + meta.Title)
		}
		if meta.Description != "" {
			sb.WriteString("\nBeschreibung: " + meta.Description)
		}
	}
	if caption = strings.TrimSpace(caption); caption != "" {
		sb.WriteString("\nHinweis: " + caption)
	}
	return sb.String(), nil
}
