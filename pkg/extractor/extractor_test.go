package extractor

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/multierr"

	"github.com/amosWeiskopf/sitemirror/internal/models"
)

func TestSitemapLinks(t *testing.T) {
	body := `<urlset><url><loc>https://www.titanus.com.br/a.html</loc></url></urlset>`
	links, err := New().Links(models.KindSitemap, []byte(body))
	require.NoError(t, err)
	assert.Equal(t, []string{"https://www.titanus.com.br/a.html"}, links)
}

func TestSitemapIndexLinks(t *testing.T) {
	body := `<sitemapindex>
<sitemap><loc>https://www.titanus.com.br/sitemap-pt-page.xml</loc></sitemap>
<sitemap><loc>https://www.titanus.com.br/sitemap-pt-post.xml</loc></sitemap>
</sitemapindex>`
	links, err := New().Links(models.KindSitemap, []byte(body))
	require.NoError(t, err)
	assert.Equal(t, []string{
		"https://www.titanus.com.br/sitemap-pt-page.xml",
		"https://www.titanus.com.br/sitemap-pt-post.xml",
	}, links)
}

func TestPageLinksPatternOrder(t *testing.T) {
	body := `<html><head>
<link rel="stylesheet" href="/x.css">
<script src='/a.js'></script>
<style>body{background:url('/bg.png')} .b{background:url("/b.jpg")}</style>
</head><body>
<img src="/x.css"><a href='/about/'>About</a>
</body></html>`

	links, err := New().Links(models.KindPage, []byte(body))
	require.NoError(t, err)
	assert.Equal(t, []string{
		"/x.css",  // href="
		"/x.css",  // src="
		"/about/", // href='
		"/a.js",   // src='
		"/bg.png", // url('
		"/b.jpg",  // url("
	}, links)
}

func TestPageSrcset(t *testing.T) {
	body := `<img src="/a.jpg" srcset="/a-300.jpg 300w, /a-600.jpg 600w">`
	links, err := New().Links(models.KindPage, []byte(body))
	require.NoError(t, err)
	assert.Equal(t, []string{"/a.jpg", "/a-300.jpg", "/a-600.jpg"}, links)
}

func TestPageMalformedSrcsetIsNotFatal(t *testing.T) {
	body := `<img srcset="/ok.jpg 1x, /bad.jpg, /never.jpg 2x"><a href="/still.html">x</a>
<img srcset="/other.png 2x">`
	links, err := New().Links(models.KindPage, []byte(body))

	require.Error(t, err)
	var srcErr *SrcsetError
	require.True(t, errors.As(err, &srcErr))
	assert.Equal(t, "/bad.jpg", srcErr.Candidate)
	assert.Len(t, multierr.Errors(err), 1)

	assert.Contains(t, links, "/still.html")
	assert.Contains(t, links, "/ok.jpg")
	assert.Contains(t, links, "/other.png")
	assert.NotContains(t, links, "/never.jpg")
}

func TestStylesheetLinks(t *testing.T) {
	body := `@font-face{src:url('../fonts/a.woff2') format("woff2"),url("../fonts/a.ttf")}
.x{background:url(/unquoted.png)} a{color:red}`
	links, err := New().Links(models.KindStylesheet, []byte(body))
	require.NoError(t, err)
	assert.Equal(t, []string{"../fonts/a.woff2", "../fonts/a.ttf"}, links)
}

func TestStylesheetIgnoresHrefs(t *testing.T) {
	links, err := New().Links(models.KindStylesheet, []byte(`/* href="/x.html" */`))
	require.NoError(t, err)
	assert.Empty(t, links)
}

func TestAssetsHaveNoLinks(t *testing.T) {
	for _, kind := range []models.Kind{models.KindAsset, models.KindUnknown} {
		links, err := New().Links(kind, []byte(`href="/x.html"`))
		assert.NoError(t, err)
		assert.Nil(t, links)
	}
}

func TestParseSrcset(t *testing.T) {
	tests := []struct {
		name    string
		in      string
		want    []string
		wantErr bool
	}{
		{"single", "/a.jpg 2x", []string{"/a.jpg"}, false},
		{"spaces", " /a.jpg 1x ,  /b.jpg 2x ", []string{"/a.jpg", "/b.jpg"}, false},
		{"missing descriptor", "/a.jpg", nil, true},
		{"trailing comma", "/a.jpg 1x,", []string{"/a.jpg"}, true},
		{"double space", "/a.jpg  1x", nil, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseSrcset(tt.in)
			assert.Equal(t, tt.want, got)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
