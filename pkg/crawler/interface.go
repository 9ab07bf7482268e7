package crawler

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/amosWeiskopf/sitemirror/internal/models"
	"github.com/amosWeiskopf/sitemirror/pkg/extractor"
)

// Fetcher performs one blocking GET. Non-200 statuses are returned as
// responses; transport failures are returned as errors.
type Fetcher interface {
	Fetch(ctx context.Context, url string) (*models.Response, error)
}

// Persister writes a visited resource and returns the local path used
type Persister interface {
	Persist(url string, body []byte) (string, error)
}

// Options contains configuration for the crawler
type Options struct {
	SitemapURL       string        // Entry point of the walk
	Origins          []string      // Accepted URL prefixes
	Suffixes         []string      // Allowed URL suffixes
	ProgressInterval time.Duration // Minimum time between progress log lines
	Extractor        extractor.LinkExtractor
	Logger           zerolog.Logger
}
