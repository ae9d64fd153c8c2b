// Package termview prints a workspace decision for the inspect command.
package termview

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/petervdpas/goopedit/internal/draft"
	"github.com/petervdpas/goopedit/internal/panel"
	"github.com/petervdpas/goopedit/internal/preview"
)

var (
	titleStyle = lipgloss.NewStyle().Bold(true)
	keyStyle   = lipgloss.NewStyle().Faint(true).Width(12)
	boxStyle   = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)

	colorStyles = map[panel.Color]lipgloss.Style{
		panel.ColorSuccess: lipgloss.NewStyle().Foreground(lipgloss.AdaptiveColor{Light: "28", Dark: "114"}),
		panel.ColorWarning: lipgloss.NewStyle().Foreground(lipgloss.AdaptiveColor{Light: "130", Dark: "214"}),
		panel.ColorDanger:  lipgloss.NewStyle().Foreground(lipgloss.AdaptiveColor{Light: "160", Dark: "203"}),
	}
)

// Report is what inspect shows for one path.
type Report struct {
	Root   string
	Path   string
	Class  preview.Class
	Layout panel.Layout
	Diff   draft.Summary
}

// Inspect resolves s against p. Class is reported even when the pane does not
// preview the path.
func Inspect(root string, s panel.State, diff draft.Summary, p *panel.Panel, tr panel.Translator) Report {
	return Report{
		Root:   root,
		Path:   s.SelectedPath,
		Class:  preview.Classify(s.SelectedPath),
		Layout: p.Layout(s, tr),
		Diff:   diff,
	}
}

// Render formats r for a terminal.
func Render(r Report) string {
	btn := r.Layout.Button
	btnStyle, ok := colorStyles[btn.Color]
	if !ok {
		btnStyle = lipgloss.NewStyle()
	}
	save := btnStyle.Render(fmt.Sprintf("[%s] %s", btn.Label, btn.Color))
	if btn.Disabled {
		save += " (disabled)"
	}

	path := r.Path
	if path == "" {
		path = "(none)"
	}

	rows := []string{
		titleStyle.Render(r.Root),
		row("path", path),
		row("class", r.Class.String()),
		row("pane", r.Layout.Pane.Kind.String()),
		row("save", save),
	}
	if r.Layout.Message != "" {
		rows = append(rows, row("message", r.Layout.Message))
	}
	if v := r.Layout.Pane.Preview; r.Layout.Pane.Kind == panel.PanePreview {
		rows = append(rows, row("preview", describe(v)))
	}
	if r.Diff.Changed {
		rows = append(rows, row("draft", fmt.Sprintf("+%d -%d", r.Diff.Insertions, r.Diff.Deletions)))
	}
	return boxStyle.Render(strings.Join(rows, "\n")) + "\n"
}

func row(k, v string) string {
	return lipgloss.JoinHorizontal(lipgloss.Top, keyStyle.Render(k), v)
}

func describe(v preview.View) string {
	switch v.Class {
	case preview.Image:
		return fmt.Sprintf("image src=%s alt=%q", v.Source, v.Title)
	case preview.Video:
		return fmt.Sprintf("video src=%s type=%s controls", v.Source, v.MIME)
	case preview.Document:
		return fmt.Sprintf("document src=%s title=%q min-height=%dpx", v.Source, v.Title, v.MinHeight)
	default:
		return v.Message
	}
}
