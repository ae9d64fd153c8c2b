// Package filetypes decides which workspace files the content pane may open
// and which Content-Type they are served with.
package filetypes

import (
	"mime"
	"net/http"
	"strings"

	"github.com/h2non/filetype"

	"github.com/petervdpas/goopedit/internal/preview"
)

func init() {
	filetype.AddType("jpeg", "image/jpeg")
}

// Predicate gates the content pane. A path is supported when filetype knows
// its extension or when the extension was added through Extra.
type Predicate struct {
	extra map[string]bool
}

// NewPredicate returns a Predicate that additionally accepts the given
// extensions. Entries may carry a leading dot and any case.
func NewPredicate(extra []string) *Predicate {
	p := &Predicate{extra: make(map[string]bool, len(extra))}
	for _, e := range extra {
		e = strings.ToLower(strings.TrimPrefix(strings.TrimSpace(e), "."))
		if e != "" {
			p.extra[e] = true
		}
	}
	return p
}

func (p *Predicate) Supported(path string) bool {
	ext := preview.Extension(path)
	if ext == "" {
		return false
	}
	if p != nil && p.extra[ext] {
		return true
	}
	return filetype.IsSupported(ext)
}

// ContentType returns a browser-safe Content-Type for path. data is only
// consulted when the extension is unknown.
func ContentType(path string, data []byte) string {
	if ct := ByExtension(path); ct != "" {
		return ct
	}
	return http.DetectContentType(data)
}

// ByExtension returns the Content-Type for path's extension, or "" when the
// extension is unknown and the content has to be sniffed.
func ByExtension(path string) string {
	ext := preview.Extension(path)

	switch ext {
	case "css":
		return "text/css; charset=utf-8"
	case "js":
		return "application/javascript; charset=utf-8"
	case "html", "htm":
		return "text/html; charset=utf-8"
	case "svg":
		return "image/svg+xml"
	}

	if ext != "" {
		if t := filetype.GetType(ext); t != filetype.Unknown && t.MIME.Value != "" {
			return t.MIME.Value
		}
		if mt := mime.TypeByExtension("." + ext); mt != "" {
			return mt
		}
	}
	return ""
}
