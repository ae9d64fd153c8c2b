// Package ui embeds the viewer's HTML templates.
package ui

import "embed"

//go:embed templates/*.html
var TemplatesFS embed.FS
