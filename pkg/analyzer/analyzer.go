package analyzer

import (
	"fmt"
	"net/url"
	"sort"

	"github.com/amosWeiskopf/sitemirror/internal/models"
	"github.com/amosWeiskopf/sitemirror/pkg/scope"
)

// Analyzer summarizes a mirror report
type Analyzer struct {
	config *Config
}

// Config holds analyzer configuration
type Config struct {
	Origins      []string
	Suffixes     []string
	TopHosts     int // Number of ignored hosts to list
	MaxListedURL int // URLs attached to each finding
}

// New creates a new Analyzer instance
func New(origins, suffixes []string) *Analyzer {
	return NewWithConfig(&Config{
		Origins:      origins,
		Suffixes:     suffixes,
		TopHosts:     10,
		MaxListedURL: 20,
	})
}

// NewWithConfig creates an Analyzer with custom configuration
func NewWithConfig(config *Config) *Analyzer {
	return &Analyzer{config: config}
}

// Analyze computes counts and findings for report
func (a *Analyzer) Analyze(report *models.Report) *models.Summary {
	summary := &models.Summary{
		Sitemap:       report.Sitemap,
		VisitedCount:  len(report.Visited),
		IgnoredCount:  len(report.Ignored),
		FailedCount:   len(report.Failed),
		UnsavedCount:  len(report.Unsaved),
		VisitedByKind: make(map[string]int, len(models.Kinds)),
	}
	if !report.FinishedAt.IsZero() && report.FinishedAt.After(report.StartedAt) {
		summary.Duration = report.FinishedAt.Sub(report.StartedAt)
	}

	for _, kind := range models.Kinds {
		summary.VisitedByKind[kind.String()] = 0
	}
	for _, u := range report.Visited {
		summary.VisitedByKind[models.KindOf(u).String()]++
	}

	a.classifyIgnored(report, summary)
	summary.Findings = a.generateFindings(report, summary)
	return summary
}

// classifyIgnored splits ignored URLs by the gate that rejected them
func (a *Analyzer) classifyIgnored(report *models.Report, summary *models.Summary) {
	s := scope.New(a.config.Origins, a.config.Suffixes)
	hosts := make(map[string]int)
	for _, u := range report.Ignored {
		switch s.Check(u) {
		case scope.ReasonSuffix:
			summary.IgnoredSuffix++
		case scope.ReasonOrigin:
			summary.IgnoredOrigin++
			if parsed, err := url.Parse(u); err == nil && parsed.Hostname() != "" {
				hosts[parsed.Hostname()]++
			}
		}
	}

	for host, n := range hosts {
		summary.TopIgnoredHost = append(summary.TopIgnoredHost, models.HostCount{Host: host, Count: n})
	}
	sort.Slice(summary.TopIgnoredHost, func(i, j int) bool {
		if summary.TopIgnoredHost[i].Count == summary.TopIgnoredHost[j].Count {
			return summary.TopIgnoredHost[i].Host < summary.TopIgnoredHost[j].Host
		}
		return summary.TopIgnoredHost[i].Count > summary.TopIgnoredHost[j].Count
	})
	if a.config.TopHosts > 0 && len(summary.TopIgnoredHost) > a.config.TopHosts {
		summary.TopIgnoredHost = summary.TopIgnoredHost[:a.config.TopHosts]
	}
}

func (a *Analyzer) generateFindings(report *models.Report, summary *models.Summary) []models.Finding {
	var findings []models.Finding

	if len(report.Unsaved) > 0 {
		findings = append(findings, models.Finding{
			Severity:    "high",
			Description: fmt.Sprintf("%d resources were fetched but could not be written to disk", len(report.Unsaved)),
			URLs:        a.limit(report.Unsaved),
		})
	}

	if len(report.Failed) > 0 {
		severity := "medium"
		if summary.VisitedCount > 0 && len(report.Failed)*10 > summary.VisitedCount {
			severity = "high"
		}
		findings = append(findings, models.Finding{
			Severity:    severity,
			Description: fmt.Sprintf("%d resources could not be fetched", len(report.Failed)),
			URLs:        a.limit(report.Failed),
		})
	}

	if summary.VisitedCount > 0 && summary.VisitedByKind[models.KindPage.String()] == 0 {
		findings = append(findings, models.Finding{
			Severity:    "medium",
			Description: "no pages were mirrored; the sitemap may be empty",
		})
	}

	if summary.IgnoredOrigin > 0 {
		findings = append(findings, models.Finding{
			Severity:    "low",
			Description: fmt.Sprintf("%d off-origin references left pointing at external hosts", summary.IgnoredOrigin),
		})
	}

	return findings
}

func (a *Analyzer) limit(urls []string) []string {
	if a.config.MaxListedURL > 0 && len(urls) > a.config.MaxListedURL {
		return append([]string(nil), urls[:a.config.MaxListedURL]...)
	}
	return append([]string(nil), urls...)
}
