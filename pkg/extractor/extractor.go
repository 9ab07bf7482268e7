package extractor

import (
	"fmt"
	"regexp"
	"strings"

	"go.uber.org/multierr"

	"github.com/amosWeiskopf/sitemirror/internal/models"
)

// LinkExtractor produces the references found in a resource body
type LinkExtractor interface {
	// Links returns every reference in body in document order, pattern by
	// pattern. Duplicates are kept. A non-nil error alongside links reports
	// recoverable problems; the returned links are still usable.
	Links(kind models.Kind, body []byte) ([]string, error)
}

// SrcsetError reports a srcset attribute whose candidates could not be split
type SrcsetError struct {
	Srcset    string
	Candidate string
}

func (e *SrcsetError) Error() string {
	return fmt.Sprintf("malformed srcset candidate %q in %q", e.Candidate, e.Srcset)
}

// Extractor handles link extraction with regular expressions
type Extractor struct {
	sitemapPatterns []*regexp.Regexp
	pagePatterns    []*regexp.Regexp
	cssPatterns     []*regexp.Regexp
	srcsetPattern   *regexp.Regexp
}

// New creates a new Extractor instance
func New() *Extractor {
	cssURL := []*regexp.Regexp{
		regexp.MustCompile(`url\('([^']*?)'\)`),
		regexp.MustCompile(`url\("([^"]*?)"\)`),
	}
	page := []*regexp.Regexp{
		regexp.MustCompile(`href="([^"]*?)"`),
		regexp.MustCompile(`src="([^"]*?)"`),
		regexp.MustCompile(`href='([^']*?)'`),
		regexp.MustCompile(`src='([^']*?)'`),
	}
	return &Extractor{
		sitemapPatterns: []*regexp.Regexp{regexp.MustCompile(`<loc>([^"]*?)</loc>`)},
		pagePatterns:    append(page, cssURL...),
		cssPatterns:     cssURL,
		srcsetPattern:   regexp.MustCompile(`srcset="([^"]*?)"`),
	}
}

// Links implements LinkExtractor
func (e *Extractor) Links(kind models.Kind, body []byte) ([]string, error) {
	text := string(body)
	switch kind {
	case models.KindSitemap:
		return findAll(e.sitemapPatterns, text), nil
	case models.KindPage:
		links := findAll(e.pagePatterns, text)
		var errs error
		for _, m := range e.srcsetPattern.FindAllStringSubmatch(text, -1) {
			urls, err := ParseSrcset(m[1])
			links = append(links, urls...)
			errs = multierr.Append(errs, err)
		}
		return links, errs
	case models.KindStylesheet:
		return findAll(e.cssPatterns, text), nil
	default:
		return nil, nil
	}
}

// ParseSrcset returns the URL of each comma separated "url descriptor"
// candidate. Parsing stops at the first candidate that is not exactly one
// URL and one descriptor separated by a single space; the URLs before it are
// returned together with a *SrcsetError.
func ParseSrcset(srcset string) ([]string, error) {
	var urls []string
	for _, candidate := range strings.Split(srcset, ",") {
		candidate = strings.TrimSpace(candidate)
		parts := strings.Split(candidate, " ")
		if len(parts) != 2 {
			return urls, &SrcsetError{Srcset: srcset, Candidate: candidate}
		}
		urls = append(urls, parts[0])
	}
	return urls, nil
}

func findAll(patterns []*regexp.Regexp, text string) []string {
	var out []string
	for _, p := range patterns {
		for _, m := range p.FindAllStringSubmatch(text, -1) {
			out = append(out, m[1])
		}
	}
	return out
}
