package reporter

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/amosWeiskopf/sitemirror/internal/models"
)

func sampleReport() *models.Report {
	start := time.Date(2026, 10, 19, 12, 0, 0, 0, time.UTC)
	return &models.Report{
		Visited:    []string{"https://www.titanus.com.br/", "https://www.titanus.com.br/sitemap.xml"},
		Ignored:    []string{"mailto:a@b.c"},
		Failed:     []string{"https://www.titanus.com.br/gone.html"},
		Unsaved:    []string{"https://www.titanus.com.br/"},
		Sitemap:    "https://www.titanus.com.br/sitemap.xml",
		OutputDir:  "output",
		StartedAt:  start,
		FinishedAt: start.Add(90 * time.Second),
	}
}

func TestFormatFromPath(t *testing.T) {
	assert.Equal(t, FormatGob, FormatFromPath("report.gob"))
	assert.Equal(t, FormatGob, FormatFromPath("report.pickle"))
	assert.Equal(t, FormatJSON, FormatFromPath("out/report.JSON"))
	assert.Equal(t, FormatSQLite, FormatFromPath("report.db"))
	assert.Equal(t, FormatSQLite, FormatFromPath("report.sqlite"))
}

func TestStoreFileFormats(t *testing.T) {
	for _, format := range []string{FormatGob, FormatJSON} {
		t.Run(format, func(t *testing.T) {
			fs := afero.NewMemMapFs()
			store := NewStore(fs)
			want := sampleReport()

			require.NoError(t, store.Save("reports/report."+format, format, want))
			got, err := store.Load("reports/report."+format, format)
			require.NoError(t, err)

			assert.Equal(t, want.Visited, got.Visited)
			assert.Equal(t, want.Ignored, got.Ignored)
			assert.Equal(t, want.Failed, got.Failed)
			assert.Equal(t, want.Unsaved, got.Unsaved)
			assert.Equal(t, want.Sitemap, got.Sitemap)
			assert.True(t, want.FinishedAt.Equal(got.FinishedAt))
		})
	}
}

func TestStoreJSONFieldNames(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, NewStore(fs).Save("report.json", FormatJSON, sampleReport()))

	data, err := afero.ReadFile(fs, "report.json")
	require.NoError(t, err)
	for _, key := range []string{`"visited"`, `"ignored"`, `"failed"`} {
		assert.Contains(t, string(data), key)
	}
}

func TestStoreSQLite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "report.db")
	store := NewStore(afero.NewOsFs())
	want := sampleReport()

	require.NoError(t, store.Save(path, FormatSQLite, want))
	// a second save replaces the first
	require.NoError(t, store.Save(path, FormatSQLite, want))

	got, err := store.Load(path, FormatSQLite)
	require.NoError(t, err)
	assert.Equal(t, want.Visited, got.Visited)
	assert.Equal(t, want.Ignored, got.Ignored)
	assert.Equal(t, want.Failed, got.Failed)
	assert.Equal(t, want.Unsaved, got.Unsaved)
	assert.Equal(t, want.OutputDir, got.OutputDir)
	assert.True(t, want.StartedAt.Equal(got.StartedAt))
}

func TestStoreErrors(t *testing.T) {
	store := NewStore(afero.NewMemMapFs())
	assert.Error(t, store.Save("report.xml", "xml", sampleReport()))

	_, err := store.Load("missing.gob", FormatGob)
	assert.Error(t, err)

	ro := NewStore(afero.NewReadOnlyFs(afero.NewMemMapFs()))
	assert.Error(t, ro.Save("report.gob", FormatGob, sampleReport()))
}
