package fetcher

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/http/cookiejar"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/net/publicsuffix"

	"github.com/amosWeiskopf/sitemirror/internal/models"
)

// Options controls HTTP fetching behaviour
type Options struct {
	UserAgent    string
	Timeout      time.Duration
	MaxRetries   int
	RetryBackoff time.Duration
	MaxBodyBytes int64
	Logger       zerolog.Logger
}

// HTTPFetcher performs blocking GETs with its own timeout and retry policy
type HTTPFetcher struct {
	client       *http.Client
	userAgent    string
	maxRetries   int
	backoff      time.Duration
	maxBodyBytes int64
	logger       zerolog.Logger
}

// DefaultMaxBodyBytes caps a response body when Options leaves it unset
const DefaultMaxBodyBytes = 64 << 20

// ErrBodyTooLarge is returned when a response exceeds the body limit. It is
// never retried.
var ErrBodyTooLarge = errors.New("response body too large")

// New constructs an HTTP fetcher using the provided options
func New(opts Options) (*HTTPFetcher, error) {
	if opts.Timeout <= 0 {
		opts.Timeout = 30 * time.Second
	}
	if opts.MaxBodyBytes <= 0 {
		opts.MaxBodyBytes = DefaultMaxBodyBytes
	}
	if opts.MaxRetries < 0 {
		opts.MaxRetries = 0
	}

	jar, err := cookiejar.New(&cookiejar.Options{PublicSuffixList: publicsuffix.List})
	if err != nil {
		return nil, fmt.Errorf("cookie jar: %w", err)
	}
	transport := &http.Transport{
		Proxy:               http.ProxyFromEnvironment,
		DialContext:         (&net.Dialer{Timeout: 10 * time.Second, KeepAlive: 30 * time.Second}).DialContext,
		TLSHandshakeTimeout: 10 * time.Second,
		MaxIdleConns:        10,
		MaxIdleConnsPerHost: 10,
		IdleConnTimeout:     30 * time.Second,
	}

	return &HTTPFetcher{
		client:       &http.Client{Transport: transport, Timeout: opts.Timeout, Jar: jar},
		userAgent:    opts.UserAgent,
		maxRetries:   opts.MaxRetries,
		backoff:      opts.RetryBackoff,
		maxBodyBytes: opts.MaxBodyBytes,
		logger:       opts.Logger,
	}, nil
}

// Fetch downloads rawURL. Any status code is returned as a response; only
// transport failures are errors, and those are retried with exponential
// backoff before giving up.
func (f *HTTPFetcher) Fetch(ctx context.Context, rawURL string) (*models.Response, error) {
	var lastErr error
	for attempt := 0; attempt <= f.maxRetries; attempt++ {
		if attempt > 0 {
			wait := f.backoff * time.Duration(1<<(attempt-1))
			f.logger.Debug().Str("url", rawURL).Int("retry", attempt).Dur("wait", wait).Err(lastErr).Msg("retrying fetch")
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(wait):
			}
		}

		resp, err := f.do(ctx, rawURL)
		if err == nil {
			return resp, nil
		}
		lastErr = err
		if ctx.Err() != nil || errors.Is(err, errBuildRequest) || errors.Is(err, ErrBodyTooLarge) {
			break
		}
	}
	return nil, lastErr
}

var errBuildRequest = errors.New("build request")

func (f *HTTPFetcher) do(ctx context.Context, rawURL string) (*models.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", errBuildRequest, err)
	}
	if f.userAgent != "" {
		req.Header.Set("User-Agent", f.userAgent)
	}
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")

	start := time.Now()
	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("http fetch failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, f.maxBodyBytes+1))
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}
	if int64(len(body)) > f.maxBodyBytes {
		return nil, fmt.Errorf("%w: limit is %d bytes", ErrBodyTooLarge, f.maxBodyBytes)
	}

	return &models.Response{
		URL:        rawURL,
		StatusCode: resp.StatusCode,
		Header:     resp.Header.Clone(),
		Body:       body,
		FetchedAt:  time.Now(),
		Latency:    time.Since(start),
	}, nil
}
