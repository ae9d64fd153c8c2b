// internal/viewer/routes/register.go
package routes

import (
	"net/http"

	"github.com/petervdpas/goopedit/internal/docs"
	"github.com/petervdpas/goopedit/internal/storage"
	"github.com/petervdpas/goopedit/internal/workspace"
)

type Logs interface {
	ServeLogsJSON(w http.ResponseWriter, r *http.Request)
	ServeLogsSSE(w http.ResponseWriter, r *http.Request)
}

type Deps struct {
	Workspace *workspace.Service
	DB        *storage.DB // optional; backs /api/workspace/saves
	Docs      *docs.Site
	Logs      Logs

	BaseURL string
	Debug   bool
	Theme   string
	Lang    string // fallback when the browser sends no Accept-Language
	CSRF    string // generated when empty
}

func Register(mux *http.ServeMux, d Deps) {
	csrf := d.CSRF
	if csrf == "" {
		csrf = newToken(32)
	}

	registerAPILogRoutes(mux, d)
	registerLogsUIRoutes(mux, d)
	registerHelpRoutes(mux, d)

	if d.Workspace != nil {
		registerWorkspaceRoutes(mux, d, csrf)
		registerWorkspaceAPIRoutes(mux, d, csrf)
	}
}
