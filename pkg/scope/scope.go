package scope

import (
	"net/url"
	"strings"
)

// Reason explains why a URL is out of scope
type Reason int

const (
	InScope Reason = iota
	ReasonSuffix
	ReasonOrigin
)

func (r Reason) String() string {
	switch r {
	case ReasonSuffix:
		return "unsupported suffix"
	case ReasonOrigin:
		return "off origin"
	default:
		return "in scope"
	}
}

// Scope decides which URLs belong to the mirrored site
type Scope struct {
	origins  []string
	suffixes []string
}

// New builds a Scope from the accepted origin prefixes and suffix allow-list
func New(origins, suffixes []string) *Scope {
	return &Scope{
		origins:  append([]string(nil), origins...),
		suffixes: append([]string(nil), suffixes...),
	}
}

// Normalize truncates rawURL at its first "?". Nothing else is changed.
func Normalize(rawURL string) string {
	if i := strings.IndexByte(rawURL, '?'); i >= 0 {
		return rawURL[:i]
	}
	return rawURL
}

// Check applies the suffix gate then the origin gate to a normalized URL
func (s *Scope) Check(u string) Reason {
	if !s.HasAllowedSuffix(u) {
		return ReasonSuffix
	}
	if s.Origin(u) == "" {
		return ReasonOrigin
	}
	return InScope
}

// HasAllowedSuffix reports whether u ends with an allowed suffix
func (s *Scope) HasAllowedSuffix(u string) bool {
	for _, suffix := range s.suffixes {
		if strings.HasSuffix(u, suffix) {
			return true
		}
	}
	return false
}

// Origin returns the accepted origin prefix u starts with, or ""
func (s *Scope) Origin(u string) string {
	for _, origin := range s.origins {
		if strings.HasPrefix(u, origin) {
			return origin
		}
	}
	return ""
}

// Origins returns the accepted origin prefixes in priority order
func (s *Scope) Origins() []string {
	return append([]string(nil), s.origins...)
}

// Resolve turns a reference found inside the document at base into the
// URL to classify. Root-relative, protocol-relative and document-relative
// references are resolved against base by string joining, so the
// reference keeps the encoding the author wrote. Absolute URLs, fragments,
// empty references and other schemes (mailto:, javascript:, data:) are
// returned verbatim so the gates can reject them.
func Resolve(base, ref string) string {
	ref = strings.TrimSpace(ref)
	if ref == "" || strings.HasPrefix(ref, "#") || hasScheme(ref) {
		return ref
	}

	b, err := url.Parse(base)
	if err != nil || b.Scheme == "" || b.Host == "" {
		return ref
	}

	switch {
	case strings.HasPrefix(ref, "//"):
		return b.Scheme + ":" + ref
	case strings.HasPrefix(ref, "/"):
		return b.Scheme + "://" + b.Host + ref
	}

	root := b.Scheme + "://" + b.Host
	basePath := strings.TrimPrefix(cutQuery(base), root)
	if !strings.HasPrefix(basePath, "/") {
		basePath = "/" + basePath
	}

	path, tail := ref, ""
	if i := strings.IndexAny(ref, "?#"); i >= 0 {
		path, tail = ref[:i], ref[i:]
	}
	if path == "" {
		return root + basePath + tail
	}
	dir := basePath[:strings.LastIndex(basePath, "/")+1]
	return root + removeDotSegments(dir+path) + tail
}

func cutQuery(u string) string {
	if i := strings.IndexAny(u, "?#"); i >= 0 {
		return u[:i]
	}
	return u
}

// removeDotSegments collapses "." and ".." segments of an absolute path
// without decoding or re-encoding anything else.
func removeDotSegments(p string) string {
	segs := strings.Split(p, "/")
	out := make([]string, 0, len(segs))
	last := len(segs) - 1
	for i, seg := range segs {
		switch seg {
		case ".":
		case "..":
			if len(out) > 1 {
				out = out[:len(out)-1]
			}
		default:
			out = append(out, seg)
			continue
		}
		// a trailing dot segment names a directory
		if i == last {
			out = append(out, "")
		}
	}
	return strings.Join(out, "/")
}

// hasScheme reports whether ref begins with "scheme:" per RFC 3986
func hasScheme(ref string) bool {
	for i := 0; i < len(ref); i++ {
		c := ref[i]
		switch {
		case 'a' <= c && c <= 'z' || 'A' <= c && c <= 'Z':
		case '0' <= c && c <= '9' || c == '+' || c == '-' || c == '.':
			if i == 0 {
				return false
			}
		case c == ':':
			return i > 0
		default:
			return false
		}
	}
	return false
}
