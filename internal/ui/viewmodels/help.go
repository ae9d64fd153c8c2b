// internal/ui/viewmodels/help.go

package viewmodels

import "github.com/petervdpas/goopedit/internal/docs"

type HelpVM struct {
	BaseVM
	Pages []docs.Page
	Page  *docs.Page
}

type LogsVM struct {
	BaseVM
}
