package scope

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/amosWeiskopf/sitemirror/internal/models"
)

var testOrigins = []string{"https://www.titanus.com.br/", "http://www.titanus.com.br/"}

func TestNormalize(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"https://www.titanus.com.br/page?x=1", "https://www.titanus.com.br/page"},
		{"https://www.titanus.com.br/style.css?ver=5.2?x", "https://www.titanus.com.br/style.css"},
		{"https://www.titanus.com.br/A/", "https://www.titanus.com.br/A/"},
		{"https://www.titanus.com.br/a%20b.html", "https://www.titanus.com.br/a%20b.html"},
		{"", ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Normalize(tt.in), tt.in)
	}
}

func TestCheck(t *testing.T) {
	s := New(testOrigins, models.DefaultSuffixes())

	tests := []struct {
		url  string
		want Reason
	}{
		{"https://www.titanus.com.br/", InScope},
		{"http://www.titanus.com.br/a.html", InScope},
		{"https://www.titanus.com.br/fonts/x.woff2", InScope},
		{"https://www.titanus.com.br/sitemap.xml", InScope},
		{"https://www.titanus.com.br/feed", ReasonSuffix},
		{"https://www.titanus.com.br/page", ReasonSuffix},
		{"https://www.titanus.com.br/a.html#top", ReasonSuffix},
		{"mailto:contato@titanus.com.br", ReasonSuffix},
		{"javascript:void(0)", ReasonSuffix},
		{"#", ReasonSuffix},
		{"http://other-domain.com/x.html", ReasonOrigin},
		{"https://titanus.com.br/x.css", ReasonOrigin},
		{"/relative.css", ReasonOrigin},
	}
	for _, tt := range tests {
		t.Run(tt.url, func(t *testing.T) {
			assert.Equal(t, tt.want, s.Check(tt.url))
		})
	}
}

func TestOrigin(t *testing.T) {
	s := New(testOrigins, models.DefaultSuffixes())
	assert.Equal(t, "http://www.titanus.com.br/", s.Origin("http://www.titanus.com.br/x.js"))
	assert.Equal(t, "", s.Origin("ftp://www.titanus.com.br/x.js"))
	assert.Equal(t, testOrigins, s.Origins())
}

func TestResolve(t *testing.T) {
	base := "https://www.titanus.com.br/blog/post.html"
	tests := []struct {
		ref, want string
	}{
		{"https://www.titanus.com.br/x.css", "https://www.titanus.com.br/x.css"},
		{"http://other.com/a.js", "http://other.com/a.js"},
		{"/x.css", "https://www.titanus.com.br/x.css"},
		{"/x.css?ver=1", "https://www.titanus.com.br/x.css?ver=1"},
		{"//www.titanus.com.br/a.png", "https://www.titanus.com.br/a.png"},
		{"img/a.png", "https://www.titanus.com.br/blog/img/a.png"},
		{"../a.png", "https://www.titanus.com.br/a.png"},
		{"img/Foto Café.jpg", "https://www.titanus.com.br/blog/img/Foto Café.jpg"},
		{"img/Foto%20Caf%C3%A9.jpg", "https://www.titanus.com.br/blog/img/Foto%20Caf%C3%A9.jpg"},
		{"./img/../a b.png", "https://www.titanus.com.br/blog/a b.png"},
		{"../../../a.png", "https://www.titanus.com.br/a.png"},
		{"img/..", "https://www.titanus.com.br/blog/"},
		{"other.html?p=1#x", "https://www.titanus.com.br/blog/other.html?p=1#x"},
		{"#top", "#top"},
		{"mailto:a@b.com", "mailto:a@b.com"},
		{"javascript:void(0)", "javascript:void(0)"},
		{"data:image/png;base64,AAA", "data:image/png;base64,AAA"},
		{"  /padded.js ", "https://www.titanus.com.br/padded.js"},
		{"", ""},
	}
	for _, tt := range tests {
		t.Run(tt.ref, func(t *testing.T) {
			assert.Equal(t, tt.want, Resolve(base, tt.ref))
		})
	}
}

func TestResolveAgainstDirectoryBase(t *testing.T) {
	assert.Equal(t, "https://www.titanus.com.br/empresa/a.jpg", Resolve("https://www.titanus.com.br/empresa/", "a.jpg"))
	assert.Equal(t, "https://www.titanus.com.br/a.jpg", Resolve("https://www.titanus.com.br", "a.jpg"))
	assert.Equal(t, "https://www.titanus.com.br/blog/a.jpg", Resolve("https://www.titanus.com.br/blog/post.html?id=3", "a.jpg"))
}

func TestResolveWithoutBase(t *testing.T) {
	assert.Equal(t, "/x.css", Resolve("", "/x.css"))
}
