package reporter

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/amosWeiskopf/sitemirror/internal/models"
)

func sampleSummary() *models.Summary {
	return &models.Summary{
		Sitemap:       "https://www.titanus.com.br/sitemap.xml",
		Duration:      90 * time.Second,
		VisitedCount:  4,
		IgnoredCount:  2,
		FailedCount:   1,
		VisitedByKind: map[string]int{"sitemap": 1, "page": 2, "stylesheet": 1, "asset": 0},
		IgnoredOrigin: 1,
		IgnoredSuffix: 1,
		Findings: []models.Finding{
			{Severity: "medium", Description: "1 resources could not be fetched", URLs: []string{"https://www.titanus.com.br/gone.html"}},
		},
	}
}

func TestGenerateReport(t *testing.T) {
	r := New()
	summary := sampleSummary()

	out, err := r.GenerateReport(summary, "json")
	require.NoError(t, err)
	var decoded models.Summary
	require.NoError(t, json.Unmarshal([]byte(out), &decoded))
	assert.Equal(t, 4, decoded.VisitedCount)

	out, err = r.GenerateReport(summary, "markdown")
	require.NoError(t, err)
	assert.Contains(t, out, "# Mirror Report")
	assert.Contains(t, out, "| Visited | 4 |")
	assert.Contains(t, out, "- page: 2")
	assert.Contains(t, out, "https://www.titanus.com.br/gone.html")

	out, err = r.GenerateReport(summary, "html")
	require.NoError(t, err)
	assert.Contains(t, out, "<h1>Mirror Report</h1>")
	assert.Contains(t, out, `class="finding medium"`)

	out, err = r.GenerateReport(summary, "text")
	require.NoError(t, err)
	assert.Equal(t, "visited=4 ignored=2 failed=1 unsaved=0 elapsed=1m30s\nMEDIUM: 1 resources could not be fetched\n", out)

	_, err = r.GenerateReport(summary, "pdf")
	assert.Error(t, err)
}
