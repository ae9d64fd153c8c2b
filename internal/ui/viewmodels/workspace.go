// internal/ui/viewmodels/workspace.go

package viewmodels

import "github.com/petervdpas/goopedit/internal/panel"

type WorkspaceVM struct {
	BaseVM
	CSRF string

	Tree     []TreeRow
	Layout   panel.Layout
	Revision uint64
	Draft    string // editor buffer; only shown when the pane previews a file
	Error    string
}

type TreeRow struct {
	Path     string
	Name     string
	IsDir    bool
	Depth    int
	Selected bool
}
