package models

import (
	"net/http"
	"strings"
	"time"
)

// Kind classifies a resource by the suffix of its URL
type Kind int

const (
	KindUnknown Kind = iota
	KindSitemap
	KindPage
	KindStylesheet
	KindAsset
)

// String returns the lowercase name used in logs and reports
func (k Kind) String() string {
	switch k {
	case KindSitemap:
		return "sitemap"
	case KindPage:
		return "page"
	case KindStylesheet:
		return "stylesheet"
	case KindAsset:
		return "asset"
	default:
		return "unknown"
	}
}

// Kinds lists every known kind in report order
var Kinds = []Kind{KindSitemap, KindPage, KindStylesheet, KindAsset}

// suffixKinds is the allow-list of crawlable suffixes
var suffixKinds = []struct {
	suffix string
	kind   Kind
}{
	{".xml", KindSitemap},
	{"/", KindPage},
	{".jpg", KindAsset},
	{".css", KindStylesheet},
	{".png", KindAsset},
	{".js", KindAsset},
	{".html", KindPage},
	{".htm", KindPage},
	{".php", KindPage},
	{".woff", KindAsset},
	{".woff2", KindAsset},
	{".ttf", KindAsset},
}

// DefaultSuffixes returns the allow-list of URL suffixes in their canonical order
func DefaultSuffixes() []string {
	out := make([]string, 0, len(suffixKinds))
	for _, sk := range suffixKinds {
		out = append(out, sk.suffix)
	}
	return out
}

// KindOf infers the kind of a normalized URL from its suffix
func KindOf(url string) Kind {
	for _, sk := range suffixKinds {
		if strings.HasSuffix(url, sk.suffix) {
			return sk.kind
		}
	}
	return KindUnknown
}

// Response is what a transport returns for one GET
type Response struct {
	URL        string        `json:"url"`
	StatusCode int           `json:"status_code"`
	Header     http.Header   `json:"-"`
	Body       []byte        `json:"-"`
	FetchedAt  time.Time     `json:"fetched_at"`
	Latency    time.Duration `json:"latency"`
}
