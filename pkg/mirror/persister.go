// Package mirror writes fetched resources to a local directory tree.
package mirror

import (
	"fmt"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/spf13/afero"
)

// PathRule renames a remote path whose suffix is From to end in To instead
type PathRule struct {
	From string
	To   string
}

// Replacement is one literal substitution applied to rewritable bodies
type Replacement struct {
	Old string
	New string
}

// Persister derives local paths and writes resources under a root directory
type Persister struct {
	fs           afero.Fs
	root         string
	origins      []string
	rules        []PathRule
	replacements []Replacement
}

// NewPersister creates a Persister writing below root on fs.
// The content rewrite table maps every origin to "/" and then every rule's
// "/From" to "/To", in that order.
func NewPersister(fs afero.Fs, root string, origins []string, rules []PathRule) *Persister {
	replacements := make([]Replacement, 0, len(origins)+len(rules))
	for _, origin := range origins {
		replacements = append(replacements, Replacement{Old: origin, New: "/"})
	}
	for _, rule := range rules {
		replacements = append(replacements, Replacement{
			Old: "/" + strings.TrimPrefix(rule.From, "/"),
			New: "/" + strings.TrimPrefix(rule.To, "/"),
		})
	}
	return &Persister{
		fs:           fs,
		root:         root,
		origins:      append([]string(nil), origins...),
		rules:        append([]PathRule(nil), rules...),
		replacements: replacements,
	}
}

// Root returns the output directory
func (p *Persister) Root() string { return p.root }

// Replacements returns the ordered content rewrite table
func (p *Persister) Replacements() []Replacement {
	return append([]Replacement(nil), p.replacements...)
}

// RemotePath strips the origin prefix and applies the path rules
func (p *Persister) RemotePath(url string) string {
	remote := url
	for _, origin := range p.origins {
		remote = strings.ReplaceAll(remote, origin, "")
	}
	for _, rule := range p.rules {
		if strings.HasSuffix(remote, rule.From) {
			remote = strings.TrimSuffix(remote, rule.From) + rule.To
			break
		}
	}
	return remote
}

// LocalPath returns the file url is written to. Directory-style and empty
// remote paths map to index.html. Calling it twice yields the same path.
func (p *Persister) LocalPath(url string) string {
	remote := p.RemotePath(url)
	segments := append([]string{p.root}, strings.Split(remote, "/")...)
	if remote == "" || strings.HasSuffix(remote, "/") {
		segments = append(segments, "index.html")
	}
	return filepath.Join(segments...)
}

// Rewritable reports whether a local path gets its links rewritten
func Rewritable(localPath string) bool {
	return strings.HasSuffix(localPath, ".html") ||
		strings.HasSuffix(localPath, ".htm") ||
		strings.HasSuffix(localPath, ".css")
}

// Rewrite applies the replacement table to a UTF-8 body
func (p *Persister) Rewrite(body []byte) ([]byte, error) {
	if !utf8.Valid(body) {
		return nil, fmt.Errorf("body is not valid UTF-8")
	}
	text := string(body)
	for _, r := range p.replacements {
		text = strings.ReplaceAll(text, r.Old, r.New)
	}
	return []byte(text), nil
}

// Persist writes body for url and returns the local path. Rewritable files
// have their absolute links made root-relative; anything else is written
// byte for byte. An existing file is overwritten.
func (p *Persister) Persist(url string, body []byte) (string, error) {
	localPath := p.LocalPath(url)
	if rel, err := filepath.Rel(p.root, localPath); err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return localPath, fmt.Errorf("%s resolves outside %s", url, p.root)
	}

	if err := p.fs.MkdirAll(filepath.Dir(localPath), 0o755); err != nil {
		return localPath, fmt.Errorf("create directory for %s: %w", localPath, err)
	}

	if Rewritable(localPath) {
		rewritten, err := p.Rewrite(body)
		if err != nil {
			return localPath, fmt.Errorf("rewrite %s: %w", localPath, err)
		}
		body = rewritten
	}

	if err := afero.WriteFile(p.fs, localPath, body, 0o644); err != nil {
		return localPath, fmt.Errorf("write %s: %w", localPath, err)
	}
	return localPath, nil
}
