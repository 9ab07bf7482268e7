package models

import "time"

// Report is the final classification of every URL met during a mirror run.
// Field names are stable: downstream tools key on visited, ignored and failed.
type Report struct {
	Visited []string `json:"visited"`
	Ignored []string `json:"ignored"`
	Failed  []string `json:"failed"`

	// Unsaved lists visited URLs whose bytes could not be written to disk
	Unsaved []string `json:"unsaved,omitempty"`

	Sitemap    string    `json:"sitemap,omitempty"`
	OutputDir  string    `json:"output_dir,omitempty"`
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`
}

// Summary is an analysis of a Report
type Summary struct {
	Sitemap        string         `json:"sitemap,omitempty"`
	Duration       time.Duration  `json:"duration"`
	VisitedCount   int            `json:"visited_count"`
	IgnoredCount   int            `json:"ignored_count"`
	FailedCount    int            `json:"failed_count"`
	UnsavedCount   int            `json:"unsaved_count"`
	VisitedByKind  map[string]int `json:"visited_by_kind"`
	IgnoredOrigin  int            `json:"ignored_off_origin"`
	IgnoredSuffix  int            `json:"ignored_unsupported_suffix"`
	TopIgnoredHost []HostCount    `json:"top_ignored_hosts,omitempty"`
	Findings       []Finding      `json:"findings,omitempty"`
}

// HostCount counts ignored URLs per host
type HostCount struct {
	Host  string `json:"host"`
	Count int    `json:"count"`
}

// Finding represents an issue worth an operator's attention
type Finding struct {
	Severity    string   `json:"severity"`
	Description string   `json:"description"`
	URLs        []string `json:"urls,omitempty"`
}
