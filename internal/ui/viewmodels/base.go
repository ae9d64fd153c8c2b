// internal/ui/viewmodels/base.go

package viewmodels

type BaseVM struct {
	Title       string
	Active      string
	ContentTmpl string
	BaseURL     string
	Debug       bool
	Theme       string
	Lang        string
	Root        string // absolute workspace root, shown in the header
}
