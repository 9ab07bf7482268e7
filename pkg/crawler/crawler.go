package crawler

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sort"
	"time"

	"github.com/rs/zerolog"
	"go.uber.org/multierr"
	"golang.org/x/time/rate"

	"github.com/amosWeiskopf/sitemirror/internal/models"
	"github.com/amosWeiskopf/sitemirror/pkg/extractor"
	"github.com/amosWeiskopf/sitemirror/pkg/frontier"
	"github.com/amosWeiskopf/sitemirror/pkg/scope"
)

// ErrSitemapUnavailable aborts a crawl whose entry sitemap cannot be fetched
var ErrSitemapUnavailable = errors.New("sitemap unavailable")

// Result is the classification a single visit ended with
type Result int

const (
	ResultSeen Result = iota
	ResultIgnored
	ResultVisited
	ResultFailed
	ResultFatal
)

func (r Result) String() string {
	switch r {
	case ResultIgnored:
		return "ignored"
	case ResultVisited:
		return "visited"
	case ResultFailed:
		return "failed"
	case ResultFatal:
		return "fatal"
	default:
		return "seen"
	}
}

// Outcome describes what happened to one candidate URL
type Outcome struct {
	URL       string
	Kind      models.Kind
	Result    Result
	Reason    string
	Err       error
	LocalPath string
	Saved     bool
	Links     []string
}

// Crawler walks a site depth-first from its sitemap
type Crawler struct {
	sitemap   string
	scope     *scope.Scope
	frontier  *frontier.Frontier
	fetcher   Fetcher
	persister Persister
	extractor extractor.LinkExtractor
	logger    zerolog.Logger
	progress  rate.Sometimes
	unsaved   []string
}

// New creates a crawler. The sitemap URL must itself be in scope.
func New(opts Options, fetcher Fetcher, persister Persister) (*Crawler, error) {
	if fetcher == nil || persister == nil {
		return nil, fmt.Errorf("fetcher and persister are required")
	}
	s := scope.New(opts.Origins, opts.Suffixes)
	sitemap := scope.Normalize(opts.SitemapURL)
	if sitemap == "" {
		return nil, fmt.Errorf("sitemap URL is required")
	}
	if reason := s.Check(sitemap); reason != scope.InScope {
		return nil, fmt.Errorf("sitemap URL %q is out of scope: %s", opts.SitemapURL, reason)
	}

	ext := opts.Extractor
	if ext == nil {
		ext = extractor.New()
	}
	interval := opts.ProgressInterval
	if interval <= 0 {
		interval = 2 * time.Second
	}

	return &Crawler{
		sitemap:   sitemap,
		scope:     s,
		frontier:  frontier.New(),
		fetcher:   fetcher,
		persister: persister,
		extractor: ext,
		logger:    opts.Logger,
		progress:  rate.Sometimes{First: 1, Interval: interval},
	}, nil
}

// Frontier exposes the crawl bookkeeping
func (c *Crawler) Frontier() *frontier.Frontier { return c.frontier }

// Crawl mirrors everything reachable from the sitemap. The walk uses an
// explicit stack: children are pushed in reverse so they pop in document
// order, and each child's subtree is exhausted before its next sibling is
// classified. The returned report is complete up to the point of any error.
func (c *Crawler) Crawl(ctx context.Context) (*models.Report, error) {
	report := &models.Report{Sitemap: c.sitemap, StartedAt: time.Now()}

	stack := []string{c.sitemap}
	var err error
	for len(stack) > 0 {
		if err = ctx.Err(); err != nil {
			break
		}
		next := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		out := c.Visit(ctx, next)
		if out.Result == ResultFatal {
			err = out.Err
			break
		}
		for i := len(out.Links) - 1; i >= 0; i-- {
			stack = append(stack, out.Links[i])
		}
	}

	report.Visited = c.frontier.Snapshot(frontier.Visited)
	report.Ignored = c.frontier.Snapshot(frontier.Ignored)
	report.Failed = c.frontier.Snapshot(frontier.Failed)
	report.Unsaved = append([]string(nil), c.unsaved...)
	sort.Strings(report.Unsaved)
	report.FinishedAt = time.Now()

	c.logger.Info().
		Int("visited", len(report.Visited)).
		Int("ignored", len(report.Ignored)).
		Int("failed", len(report.Failed)).
		Int("unsaved", len(report.Unsaved)).
		Dur("elapsed", report.FinishedAt.Sub(report.StartedAt)).
		Msg("crawl finished")
	return report, err
}

// Visit classifies one candidate URL, fetching and persisting it when it
// is new and in scope. It never recurses; the links to follow are returned
// in the outcome, already resolved against the URL they were found in.
func (c *Crawler) Visit(ctx context.Context, rawURL string) Outcome {
	url := scope.Normalize(rawURL)
	out := Outcome{URL: url, Kind: models.KindOf(url)}

	if c.frontier.Seen(url) {
		out.Result = ResultSeen
		return out
	}
	if reason := c.scope.Check(url); reason != scope.InScope {
		c.frontier.Ignore(url)
		out.Result = ResultIgnored
		out.Reason = reason.String()
		return out
	}
	if !c.frontier.Claim(url) {
		out.Result = ResultSeen
		return out
	}

	c.logger.Debug().Str("url", url).Str("kind", out.Kind.String()).Msg("crawling")
	resp, err := c.fetcher.Fetch(ctx, url)
	switch {
	case err != nil:
		out.Err = err
		out.Reason = "transport error"
	case resp.StatusCode != http.StatusOK:
		out.Err = fmt.Errorf("unexpected status %d", resp.StatusCode)
		out.Reason = http.StatusText(resp.StatusCode)
	}
	if out.Err != nil {
		if url == c.sitemap {
			c.frontier.Release(url)
			out.Result = ResultFatal
			out.Err = fmt.Errorf("%w: %s: %v", ErrSitemapUnavailable, url, out.Err)
			c.logger.Error().Err(out.Err).Msg("entry sitemap could not be fetched")
			return out
		}
		c.resolve(url, frontier.Failed)
		out.Result = ResultFailed
		c.logger.Warn().Str("url", url).Err(out.Err).Msg("fetch failed")
		return out
	}

	c.resolve(url, frontier.Visited)
	out.Result = ResultVisited

	out.LocalPath, err = c.persister.Persist(url, resp.Body)
	if err != nil {
		c.unsaved = append(c.unsaved, url)
		c.logger.Error().Str("url", url).Err(err).Msg("persist failed")
	} else {
		out.Saved = true
		c.logger.Debug().Str("url", url).Str("path", out.LocalPath).Msg("file written")
	}

	refs, err := c.extractor.Links(out.Kind, resp.Body)
	for _, e := range multierr.Errors(err) {
		c.logger.Warn().Str("url", url).Err(e).Msg("link extraction problem")
	}
	out.Links = make([]string, 0, len(refs))
	for _, ref := range refs {
		out.Links = append(out.Links, scope.Resolve(url, ref))
	}

	c.progress.Do(func() {
		c.logger.Info().
			Int("visited", c.frontier.Count(frontier.Visited)).
			Int("ignored", c.frontier.Count(frontier.Ignored)).
			Int("failed", c.frontier.Count(frontier.Failed)).
			Str("last", url).
			Msg("progress")
	})
	return out
}

func (c *Crawler) resolve(url string, to frontier.State) {
	if err := c.frontier.Resolve(url, to); err != nil {
		c.logger.Error().Err(err).Msg("frontier out of sync")
	}
}
