package routes

import (
	"net/http"
	"strings"

	"github.com/petervdpas/goopedit/internal/ui/render"
	"github.com/petervdpas/goopedit/internal/ui/viewmodels"
)

func registerHelpRoutes(mux *http.ServeMux, d Deps) {
	if d.Docs == nil {
		return
	}

	// GET /help and /help/{slug}
	page := func(w http.ResponseWriter, r *http.Request) {
		slug := strings.Trim(strings.TrimPrefix(r.URL.Path, "/help"), "/")
		p, ok := d.Docs.Get(slug)
		if !ok {
			http.NotFound(w, r)
			return
		}
		vm := viewmodels.HelpVM{
			BaseVM: baseVM(p.Title, "help", "page.help", r, d),
			Pages:  d.Docs.Pages,
			Page:   p,
		}
		render.Render(w, vm)
	}
	handleGet(mux, "/help", page)
	handleGet(mux, "/help/", page)
}
