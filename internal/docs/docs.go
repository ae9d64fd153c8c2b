// Package docs renders the embedded help pages served under /help.
package docs

import (
	"bytes"
	"embed"
	"html/template"
	"path"
	"sort"
	"strings"

	"github.com/yuin/goldmark"
	highlighting "github.com/yuin/goldmark-highlighting/v2"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/renderer/html"
)

//go:embed pages/*.md
var pagesFS embed.FS

// Page holds a single rendered help page.
type Page struct {
	Slug  string
	Title string
	Order int
	HTML  template.HTML
}

// Site holds all help pages, rendered once.
type Site struct {
	Pages  []Page
	BySlug map[string]*Page
}

// Load reads all .md files from the embedded pages directory and renders
// them with goldmark. Pages sort by filename prefix; "01-workspace.md" has
// slug "workspace".
func Load() (*Site, error) {
	md := goldmark.New(
		goldmark.WithExtensions(
			extension.Table,
			highlighting.NewHighlighting(highlighting.WithStyle("monokai")),
		),
		goldmark.WithRendererOptions(html.WithUnsafe()),
	)

	entries, err := pagesFS.ReadDir("pages")
	if err != nil {
		return nil, err
	}

	site := &Site{BySlug: map[string]*Page{}}
	for i, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".md") {
			continue
		}
		data, err := pagesFS.ReadFile(path.Join("pages", e.Name()))
		if err != nil {
			return nil, err
		}

		name := strings.TrimSuffix(e.Name(), ".md")
		slug := name
		if parts := strings.SplitN(name, "-", 2); len(parts) == 2 {
			slug = parts[1]
		}

		var buf bytes.Buffer
		if err := md.Convert(data, &buf); err != nil {
			return nil, err
		}
		site.Pages = append(site.Pages, Page{
			Slug:  slug,
			Title: titleOf(data, slug),
			Order: i,
			HTML:  template.HTML(buf.String()),
		})
	}

	sort.Slice(site.Pages, func(i, j int) bool {
		return site.Pages[i].Order < site.Pages[j].Order
	})
	for idx := range site.Pages {
		site.BySlug[site.Pages[idx].Slug] = &site.Pages[idx]
	}
	return site, nil
}

// Get returns the page for slug. An empty slug means the first page.
func (s *Site) Get(slug string) (*Page, bool) {
	if slug == "" {
		if len(s.Pages) == 0 {
			return nil, false
		}
		return &s.Pages[0], true
	}
	p, ok := s.BySlug[slug]
	return p, ok
}

// titleOf returns the first "# Heading" line, or fallback.
func titleOf(data []byte, fallback string) string {
	for _, line := range strings.Split(string(data), "\n") {
		line = strings.TrimSpace(line)
		if strings.HasPrefix(line, "# ") {
			return strings.TrimPrefix(line, "# ")
		}
	}
	return fallback
}
