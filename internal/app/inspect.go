package app

import (
	"fmt"
	"io"

	"github.com/petervdpas/goopedit/internal/config"
	"github.com/petervdpas/goopedit/internal/content"
	"github.com/petervdpas/goopedit/internal/draft"
	"github.com/petervdpas/goopedit/internal/i18n"
	"github.com/petervdpas/goopedit/internal/termview"
)

// Inspect prints how the workspace would show path. An empty path reports
// the persisted selection. The stored session is not modified.
func Inspect(w io.Writer, dir string, cfg config.Config, path string) error {
	e, err := openWorkspace(dir, cfg)
	if err != nil {
		return err
	}
	defer e.Close()

	ws := e.Workspace
	snap := ws.Session.Snapshot()
	state, diff := snap.State, snap.Diff
	if path != "" {
		rel := content.NormalizeRel(path)
		if rel != state.SelectedPath {
			state.SelectedPath = rel
			state.HasUnsavedChanges = false
			diff = draft.Summary{}
		}
	}

	tr := i18n.Negotiate("", cfg.Viewer.Lang)
	r := termview.Inspect(ws.Content.RootAbs(), state, diff, ws.Panel, tr)
	_, err = fmt.Fprint(w, termview.Render(r))
	return err
}
