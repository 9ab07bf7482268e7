package reporter

import (
	"database/sql"
	"encoding/gob"
	"encoding/json"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	_ "github.com/glebarez/sqlite"
	"github.com/spf13/afero"
	"go.uber.org/multierr"

	"github.com/amosWeiskopf/sitemirror/internal/models"
)

// Report file formats
const (
	FormatGob    = "gob"
	FormatJSON   = "json"
	FormatSQLite = "sqlite"
)

// FormatFromPath guesses a report format from a file extension, defaulting to gob
func FormatFromPath(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return FormatJSON
	case ".db", ".sqlite", ".sqlite3":
		return FormatSQLite
	default:
		return FormatGob
	}
}

// Store reads and writes the final crawl report. Gob and JSON files go
// through fs; SQLite databases are opened by path on the host filesystem.
type Store struct {
	fs afero.Fs
}

// NewStore creates a Store backed by fs
func NewStore(fs afero.Fs) *Store {
	return &Store{fs: fs}
}

// Save writes report to path in the given format, replacing any previous report
func (s *Store) Save(path, format string, report *models.Report) (err error) {
	if format == FormatSQLite {
		return saveSQLite(path, report)
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := s.fs.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create report directory: %w", err)
		}
	}
	f, err := s.fs.Create(path)
	if err != nil {
		return fmt.Errorf("create report: %w", err)
	}
	defer func() {
		err = multierr.Append(err, f.Close())
	}()

	switch format {
	case FormatGob:
		if err := gob.NewEncoder(f).Encode(report); err != nil {
			return fmt.Errorf("encode gob report: %w", err)
		}
	case FormatJSON:
		enc := json.NewEncoder(f)
		enc.SetIndent("", "  ")
		if err := enc.Encode(report); err != nil {
			return fmt.Errorf("encode json report: %w", err)
		}
	default:
		return fmt.Errorf("unsupported report format: %s", format)
	}
	return nil
}

// Load reads a report previously written by Save
func (s *Store) Load(path, format string) (*models.Report, error) {
	if format == FormatSQLite {
		return loadSQLite(path)
	}

	f, err := s.fs.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open report: %w", err)
	}
	defer f.Close()

	var report models.Report
	switch format {
	case FormatGob:
		err = gob.NewDecoder(f).Decode(&report)
	case FormatJSON:
		err = json.NewDecoder(f).Decode(&report)
	default:
		return nil, fmt.Errorf("unsupported report format: %s", format)
	}
	if err != nil {
		return nil, fmt.Errorf("decode %s report: %w", format, err)
	}
	return &report, nil
}

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS urls (
	url   TEXT NOT NULL,
	state TEXT NOT NULL,
	PRIMARY KEY (url, state)
);

CREATE TABLE IF NOT EXISTS run (
	key   TEXT PRIMARY KEY,
	value TEXT NOT NULL
);
`

func saveSQLite(path string, report *models.Report) (err error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return fmt.Errorf("open sqlite report: %w", err)
	}
	defer func() {
		err = multierr.Append(err, db.Close())
	}()

	if _, err := db.Exec(sqliteSchema); err != nil {
		return fmt.Errorf("create report schema: %w", err)
	}

	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("begin report transaction: %w", err)
	}
	defer func() {
		if err != nil {
			err = multierr.Append(err, tx.Rollback())
		}
	}()

	if _, err := tx.Exec(`DELETE FROM urls; DELETE FROM run;`); err != nil {
		return fmt.Errorf("clear previous report: %w", err)
	}

	stmt, err := tx.Prepare(`INSERT INTO urls (url, state) VALUES (?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare insert: %w", err)
	}
	defer stmt.Close()

	for state, urls := range reportSets(report) {
		for _, u := range urls {
			if _, err := stmt.Exec(u, state); err != nil {
				return fmt.Errorf("insert %s url: %w", state, err)
			}
		}
	}

	meta := map[string]string{
		"sitemap":     report.Sitemap,
		"output_dir":  report.OutputDir,
		"started_at":  report.StartedAt.UTC().Format(time.RFC3339Nano),
		"finished_at": report.FinishedAt.UTC().Format(time.RFC3339Nano),
	}
	for k, v := range meta {
		if _, err := tx.Exec(`INSERT INTO run (key, value) VALUES (?, ?)`, k, v); err != nil {
			return fmt.Errorf("insert run metadata: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit report: %w", err)
	}
	return nil
}

func loadSQLite(path string) (*models.Report, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite report: %w", err)
	}
	defer db.Close()

	rows, err := db.Query(`SELECT url, state FROM urls ORDER BY url`)
	if err != nil {
		return nil, fmt.Errorf("query urls: %w", err)
	}
	defer rows.Close()

	report := &models.Report{}
	for rows.Next() {
		var u, state string
		if err := rows.Scan(&u, &state); err != nil {
			return nil, fmt.Errorf("scan url: %w", err)
		}
		switch state {
		case "visited":
			report.Visited = append(report.Visited, u)
		case "ignored":
			report.Ignored = append(report.Ignored, u)
		case "failed":
			report.Failed = append(report.Failed, u)
		case "unsaved":
			report.Unsaved = append(report.Unsaved, u)
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate urls: %w", err)
	}

	metaRows, err := db.Query(`SELECT key, value FROM run`)
	if err != nil {
		return nil, fmt.Errorf("query run metadata: %w", err)
	}
	defer metaRows.Close()
	for metaRows.Next() {
		var k, v string
		if err := metaRows.Scan(&k, &v); err != nil {
			return nil, fmt.Errorf("scan run metadata: %w", err)
		}
		switch k {
		case "sitemap":
			report.Sitemap = v
		case "output_dir":
			report.OutputDir = v
		case "started_at":
			report.StartedAt, _ = time.Parse(time.RFC3339Nano, v)
		case "finished_at":
			report.FinishedAt, _ = time.Parse(time.RFC3339Nano, v)
		}
	}
	return report, metaRows.Err()
}

func reportSets(report *models.Report) map[string][]string {
	return map[string][]string{
		"visited": report.Visited,
		"ignored": report.Ignored,
		"failed":  report.Failed,
		"unsaved": report.Unsaved,
	}
}
