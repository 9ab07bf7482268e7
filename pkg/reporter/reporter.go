package reporter

import (
	"bytes"
	"encoding/json"
	"fmt"
	"html/template"
	"strings"
	"time"

	"github.com/amosWeiskopf/sitemirror/internal/models"
)

// Reporter renders crawl summaries in various formats
type Reporter struct{}

// New creates a new Reporter instance
func New() *Reporter {
	return &Reporter{}
}

// GenerateReport renders summary in the given format
func (r *Reporter) GenerateReport(summary *models.Summary, format string) (string, error) {
	switch format {
	case "json":
		return r.generateJSON(summary)
	case "html":
		return r.generateHTML(summary)
	case "markdown":
		return r.generateMarkdown(summary)
	case "text", "":
		return r.generateText(summary), nil
	default:
		return "", fmt.Errorf("unsupported format: %s", format)
	}
}

// generateJSON creates a JSON formatted report
func (r *Reporter) generateJSON(summary *models.Summary) (string, error) {
	data, err := json.MarshalIndent(summary, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to marshal report: %w", err)
	}
	return string(data), nil
}

var htmlTemplate = template.Must(template.New("report").Parse(`<!DOCTYPE html>
<html lang="en">
<head>
    <meta charset="UTF-8">
    <title>Mirror Report{{if .Sitemap}} - {{.Sitemap}}{{end}}</title>
    <style>
        body { font-family: -apple-system, BlinkMacSystemFont, 'Segoe UI', Roboto, Arial, sans-serif; max-width: 960px; margin: 0 auto; padding: 20px; color: #333; }
        table { border-collapse: collapse; }
        td, th { padding: 0.25rem 1rem; border-bottom: 1px solid #ddd; text-align: left; }
        .finding { border-left: 4px solid #ffc107; padding: 0.5rem 1rem; margin: 1rem 0; }
        .finding.high { border-left-color: #dc3545; }
        .finding.low { border-left-color: #28a745; }
    </style>
</head>
<body>
    <h1>Mirror Report</h1>
    {{if .Sitemap}}<p>Sitemap: {{.Sitemap}}</p>{{end}}
    <table>
        <tr><th>Visited</th><td>{{.VisitedCount}}</td></tr>
        <tr><th>Ignored</th><td>{{.IgnoredCount}} ({{.IgnoredOrigin}} off origin, {{.IgnoredSuffix}} unsupported suffix)</td></tr>
        <tr><th>Failed</th><td>{{.FailedCount}}</td></tr>
        <tr><th>Unsaved</th><td>{{.UnsavedCount}}</td></tr>
    </table>
    <h2>Visited by kind</h2>
    <table>
        {{range $kind, $n := .VisitedByKind}}<tr><th>{{$kind}}</th><td>{{$n}}</td></tr>
        {{end}}
    </table>
    {{if .Findings}}
    <h2>Findings</h2>
    {{range .Findings}}
    <div class="finding {{.Severity}}">
        <p>{{.Description}}</p>
        {{if .URLs}}<ul>{{range .URLs}}<li>{{.}}</li>{{end}}</ul>{{end}}
    </div>
    {{end}}
    {{end}}
</body>
</html>
`))

// generateHTML creates an HTML formatted report
func (r *Reporter) generateHTML(summary *models.Summary) (string, error) {
	var buf bytes.Buffer
	if err := htmlTemplate.Execute(&buf, summary); err != nil {
		return "", fmt.Errorf("failed to execute template: %w", err)
	}
	return buf.String(), nil
}

// generateMarkdown creates a Markdown formatted report
func (r *Reporter) generateMarkdown(summary *models.Summary) (string, error) {
	var buf bytes.Buffer

	fmt.Fprintf(&buf, "# Mirror Report\n\n")
	if summary.Sitemap != "" {
		fmt.Fprintf(&buf, "*Sitemap: %s*\n\n", summary.Sitemap)
	}

	fmt.Fprintf(&buf, "| Set | Count |\n")
	fmt.Fprintf(&buf, "|-----|-------|\n")
	fmt.Fprintf(&buf, "| Visited | %d |\n", summary.VisitedCount)
	fmt.Fprintf(&buf, "| Ignored | %d |\n", summary.IgnoredCount)
	fmt.Fprintf(&buf, "| Failed | %d |\n", summary.FailedCount)
	fmt.Fprintf(&buf, "| Unsaved | %d |\n\n", summary.UnsavedCount)

	fmt.Fprintf(&buf, "## Visited by kind\n\n")
	for _, kind := range models.Kinds {
		fmt.Fprintf(&buf, "- %s: %d\n", kind, summary.VisitedByKind[kind.String()])
	}
	fmt.Fprintf(&buf, "\n")

	if len(summary.TopIgnoredHost) > 0 {
		fmt.Fprintf(&buf, "## Top ignored hosts\n\n")
		for _, hc := range summary.TopIgnoredHost {
			fmt.Fprintf(&buf, "- %s: %d\n", hc.Host, hc.Count)
		}
		fmt.Fprintf(&buf, "\n")
	}

	if len(summary.Findings) > 0 {
		fmt.Fprintf(&buf, "## Findings\n\n")
		for _, finding := range summary.Findings {
			fmt.Fprintf(&buf, "### [%s] %s\n", finding.Severity, finding.Description)
			for _, u := range finding.URLs {
				fmt.Fprintf(&buf, "- %s\n", u)
			}
			fmt.Fprintf(&buf, "\n")
		}
	}

	return buf.String(), nil
}

func (r *Reporter) generateText(summary *models.Summary) string {
	var b strings.Builder
	fmt.Fprintf(&b, "visited=%d ignored=%d failed=%d unsaved=%d",
		summary.VisitedCount, summary.IgnoredCount, summary.FailedCount, summary.UnsavedCount)
	if summary.Duration > 0 {
		fmt.Fprintf(&b, " elapsed=%s", summary.Duration.Round(time.Millisecond))
	}
	b.WriteString("\n")
	for _, finding := range summary.Findings {
		fmt.Fprintf(&b, "%s: %s\n", strings.ToUpper(finding.Severity), finding.Description)
	}
	return b.String()
}
