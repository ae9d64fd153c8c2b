package routes

import (
	"errors"
	"io"
	"io/fs"
	"log"
	"net/http"
	"os"

	"github.com/petervdpas/goopedit/internal/content"
	"github.com/petervdpas/goopedit/internal/filetypes"
	"github.com/petervdpas/goopedit/internal/ui/render"
	"github.com/petervdpas/goopedit/internal/ui/viewmodels"
)

func registerWorkspaceRoutes(mux *http.ServeMux, d Deps, csrf string) {
	ws := d.Workspace

	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/" {
			http.NotFound(w, r)
			return
		}
		http.Redirect(w, r, "/workspace", http.StatusFound)
	})

	// GET /workspace
	handleGet(mux, "/workspace", func(w http.ResponseWriter, r *http.Request) {
		vm := workspaceVM(r, d, csrf)
		vm.Error = r.URL.Query().Get("error")
		render.Render(w, vm)
	})

	// GET /workspace/pane: fragment reloaded by the page script
	handleGet(mux, "/workspace/pane", func(w http.ResponseWriter, r *http.Request) {
		render.RenderPartial(w, "part.pane", workspaceVM(r, d, csrf))
	})

	// POST /workspace/select
	mux.HandleFunc("/workspace/select", func(w http.ResponseWriter, r *http.Request) {
		if err := validatePOSTRequest(w, r, csrf); err != nil {
			return
		}
		if _, err := ws.Select(r.Context(), r.PostForm.Get("path")); err != nil {
			writeError(w, err)
			return
		}
		http.Redirect(w, r, "/workspace", http.StatusSeeOther)
	})

	// POST /workspace/save
	mux.HandleFunc("/workspace/save", func(w http.ResponseWriter, r *http.Request) {
		if err := validatePOSTRequest(w, r, csrf); err != nil {
			return
		}
		if err := ws.Save(r.Context()); err != nil {
			writeError(w, err)
			return
		}
		http.Redirect(w, r, "/workspace", http.StatusSeeOther)
	})

	// GET /workspace/raw?path=...: media source for the content pane
	handleGet(mux, "/workspace/raw", func(w http.ResponseWriter, r *http.Request) {
		rel := content.NormalizeRel(queryPath(r))
		if rel == "" {
			http.Error(w, "missing path", http.StatusBadRequest)
			return
		}
		f, st, err := openRaw(ws.Content, rel)
		if err != nil {
			writeError(w, err)
			return
		}
		defer f.Close()

		ct := filetypes.ByExtension(rel)
		if ct == "" {
			head := make([]byte, 512)
			n, _ := io.ReadFull(f, head)
			if _, err := f.Seek(0, io.SeekStart); err != nil {
				writeError(w, err)
				return
			}
			ct = filetypes.ContentType(rel, head[:n])
		}
		w.Header().Set("Content-Type", ct)
		w.Header().Set("Cache-Control", "no-store")
		w.Header().Set("X-Content-Type-Options", "nosniff")
		// Workspace html/svg must not run scripts against this origin.
		w.Header().Set("Content-Security-Policy", "sandbox")
		http.ServeContent(w, r, rel, st.ModTime(), f)
	})
}

func workspaceVM(r *http.Request, d Deps, csrf string) viewmodels.WorkspaceVM {
	ws := d.Workspace
	layout, snap := ws.Layout(translator(r, d))

	vm := viewmodels.WorkspaceVM{
		BaseVM:   baseVM("Workspace", "workspace", "page.workspace", r, d),
		CSRF:     csrf,
		Layout:   layout,
		Revision: snap.Revision,
		Draft:    snap.Draft,
	}

	tree, err := ws.Content.ListTree(r.Context(), "")
	if err != nil {
		log.Printf("WORKSPACE: list tree: %v", err)
		vm.Error = err.Error()
	}
	vm.Tree = make([]viewmodels.TreeRow, 0, len(tree))
	for _, it := range tree {
		vm.Tree = append(vm.Tree, viewmodels.TreeRow{
			Path:     it.Path,
			Name:     it.Name,
			IsDir:    it.IsDir,
			Depth:    it.Depth,
			Selected: it.Path == snap.SelectedPath,
		})
	}
	return vm
}

// openRaw opens rel for streaming without reading it into memory.
func openRaw(cs *content.Store, rel string) (*os.File, fs.FileInfo, error) {
	abs, err := cs.Abs(rel)
	if err != nil {
		return nil, nil, err
	}
	f, err := os.Open(abs)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil, content.ErrNotFound
		}
		return nil, nil, err
	}
	st, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, nil, err
	}
	if st.IsDir() {
		f.Close()
		return nil, nil, content.ErrIsDir
	}
	return f, st, nil
}
