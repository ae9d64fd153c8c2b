package routes

import (
	"net/http"

	"github.com/petervdpas/goopedit/internal/ui/render"
	"github.com/petervdpas/goopedit/internal/ui/viewmodels"
)

func registerLogsUIRoutes(mux *http.ServeMux, d Deps) {
	handleGet(mux, "/logs", func(w http.ResponseWriter, r *http.Request) {
		vm := viewmodels.LogsVM{
			BaseVM: baseVM("Logs", "logs", "page.logs", r, d),
		}
		render.Render(w, vm)
	})
}
