package viewer

import (
	"context"
	"errors"
	"log"
	"net"
	"net/http"
	"time"

	"github.com/petervdpas/goopedit/internal/docs"
	"github.com/petervdpas/goopedit/internal/storage"
	viewerassets "github.com/petervdpas/goopedit/internal/ui/assets"
	"github.com/petervdpas/goopedit/internal/ui/render"
	"github.com/petervdpas/goopedit/internal/util"
	"github.com/petervdpas/goopedit/internal/viewer/routes"
	"github.com/petervdpas/goopedit/internal/workspace"
)

type Viewer struct {
	Workspace *workspace.Service
	DB        *storage.DB
	Docs      *docs.Site
	Logs      *LogBuffer

	// canonical base URL for templates (e.g. http://127.0.0.1:8790)
	BaseURL string

	Debug bool
	Theme string
	Lang  string
}

// Handler builds the viewer mux.
func Handler(addr string, v Viewer) (http.Handler, error) {
	if err := render.InitTemplates(); err != nil {
		return nil, err
	}

	mux := http.NewServeMux()

	mux.Handle("/assets/", http.StripPrefix("/assets/",
		noCache(viewerassets.Handler()),
	))

	baseURL := v.BaseURL
	if baseURL == "" {
		baseURL = "http://" + addr
	}

	deps := routes.Deps{
		Workspace: v.Workspace,
		DB:        v.DB,
		Docs:      v.Docs,
		BaseURL:   baseURL,
		Debug:     v.Debug,
		Theme:     v.Theme,
		Lang:      v.Lang,
	}
	if v.Logs != nil {
		deps.Logs = v.Logs
	}
	routes.Register(mux, deps)

	return mux, nil
}

// Start serves the viewer on addr until ctx is cancelled.
func Start(ctx context.Context, addr string, v Viewer) error {
	h, err := Handler(addr, v)
	if err != nil {
		return err
	}

	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}
	srv := &http.Server{
		Handler:           h,
		ReadHeaderTimeout: 10 * time.Second,
	}
	log.Printf("VIEWER: listening on http://%s", ln.Addr())

	errc := make(chan error, 1)
	go func() { errc <- srv.Serve(ln) }()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
		sctx, cancel := context.WithTimeout(context.Background(), util.ShutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(sctx); err != nil {
			return err
		}
		if err := <-errc; err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	}
}
