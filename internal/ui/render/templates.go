package render

import (
	"bytes"
	"fmt"
	"html"
	"html/template"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/tdewolff/minify/v2"
	minhtml "github.com/tdewolff/minify/v2/html"

	"github.com/petervdpas/goopedit/internal/ui"
)

var (
	tmpl    *template.Template
	once    sync.Once
	initErr error

	minifier = newMinifier()
)

func newMinifier() *minify.M {
	m := minify.New()
	m.Add("text/html", &minhtml.Minifier{
		KeepDocumentTags: true,
		KeepEndTags:      true,
		KeepQuotes:       true,
	})
	return m
}

func InitTemplates() error {
	once.Do(func() {
		funcs := template.FuncMap{
			"rfc3339":  func(t time.Time) string { return t.Format(time.RFC3339) },
			"isActive": func(active, key string) bool { return active == key },
			"trim":     strings.TrimSpace,
			"indent":   func(depth int) int { return 8 + depth*14 },

			"include": func(name string, data any) template.HTML {
				if tmpl == nil {
					return template.HTML(`<pre class="err">templates not initialized</pre>`)
				}
				var b strings.Builder
				if err := tmpl.ExecuteTemplate(&b, name, data); err != nil {
					return template.HTML(`<pre class="err">` + html.EscapeString(err.Error()) + `</pre>`)
				}
				return template.HTML(b.String())
			},
		}

		var err error
		// IMPORTANT: ParseFS paths must match the embedded paths exactly.
		tmpl, err = template.New("root").Funcs(funcs).ParseFS(ui.TemplatesFS, "templates/*.html")
		if err != nil {
			initErr = err
			return
		}
	})
	return initErr
}

// Execute runs the named template into w, minified.
func Execute(w io.Writer, name string, data any) error {
	if err := InitTemplates(); err != nil {
		return err
	}
	var buf bytes.Buffer
	if err := tmpl.ExecuteTemplate(&buf, name, data); err != nil {
		return err
	}
	if err := minifier.Minify("text/html", w, &buf); err != nil {
		return fmt.Errorf("minify %s: %w", name, err)
	}
	return nil
}

// RenderPartial executes a named template directly (no layout wrapper).
// Use for fragments that the page script swaps in.
func RenderPartial(w http.ResponseWriter, name string, data any) {
	write(w, name, data)
}

// Always execute the shared layout. Layout chooses the page body via .ContentTmpl.
func Render(w http.ResponseWriter, data any) {
	write(w, "layout", data)
}

func write(w http.ResponseWriter, name string, data any) {
	var buf bytes.Buffer
	if err := Execute(&buf, name, data); err != nil {
		http.Error(w, fmt.Sprintf("template error: %v", err), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write(buf.Bytes())
}
