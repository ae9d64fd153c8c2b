// internal/ui/assets/assets.go

package assets

import (
	"embed"
	"io/fs"
	"log"
	"net/http"
	"path"
	"strings"

	"github.com/tdewolff/minify/v2"
	"github.com/tdewolff/minify/v2/css"
	"github.com/tdewolff/minify/v2/js"
)

// Embed everything we serve under /assets/.
//
//go:embed app.css app.js
var rawFS embed.FS

var types = map[string]string{
	".css": "text/css; charset=utf-8",
	".js":  "application/javascript; charset=utf-8",
}

var minified map[string][]byte

func init() {
	m := minify.New()
	m.AddFunc("text/css", css.Minify)
	m.AddFunc("application/javascript", js.Minify)

	minified = make(map[string][]byte)

	_ = fs.WalkDir(rawFS, ".", func(p string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return err
		}
		ct, ok := types[path.Ext(p)]
		if !ok {
			return nil
		}
		raw, err := rawFS.ReadFile(p)
		if err != nil {
			return nil
		}
		out, err := m.Bytes(strings.SplitN(ct, ";", 2)[0], raw)
		if err != nil {
			log.Printf("ASSETS: minify warning: %s: %v (using original)", p, err)
			minified[p] = raw
			return nil
		}
		minified[p] = out
		return nil
	})
}

// Handler serves the minified assets. Mount it at /assets/ with a StripPrefix.
func Handler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		p := strings.TrimPrefix(r.URL.Path, "/")
		data, ok := minified[p]
		if !ok {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", types[path.Ext(p)])
		_, _ = w.Write(data)
	})
}
