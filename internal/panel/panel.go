// Package panel derives the workspace editor layout from an immutable
// session snapshot: the save control's affordance and the content pane.
package panel

import (
	"context"
	"errors"

	"github.com/petervdpas/goopedit/internal/i18n"
	"github.com/petervdpas/goopedit/internal/preview"
)

var ErrSaveDisabled = errors.New("save is disabled")

type SaveStatus int

const (
	Idle SaveStatus = iota
	Saving
)

func (s SaveStatus) String() string {
	if s == Saving {
		return "saving"
	}
	return "idle"
}

func (s SaveStatus) MarshalText() ([]byte, error) { return []byte(s.String()), nil }

func (s *SaveStatus) UnmarshalText(b []byte) error {
	switch string(b) {
	case "saving":
		*s = Saving
	case "idle", "":
		*s = Idle
	default:
		return errors.New("unknown save status " + string(b))
	}
	return nil
}

// State is a read-only snapshot of the editor session.
// An empty SelectedPath means nothing is selected.
type State struct {
	SelectedPath      string     `json:"selected_path"`
	HasUnsavedChanges bool       `json:"has_unsaved_changes"`
	SaveStatus        SaveStatus `json:"save_status"`
	EditingAllowed    bool       `json:"editing_allowed"`
}

func (s State) HasSelection() bool { return s.SelectedPath != "" }

type Color string

const (
	ColorWarning Color = "warning"
	ColorDanger  Color = "danger"
	ColorSuccess Color = "success"
)

// Affordance is the derived look of the save control.
type Affordance struct {
	Color    Color    `json:"color"`
	LabelKey i18n.Key `json:"label_key"`
	Disabled bool     `json:"disabled"`
}

// DeriveAffordance maps a snapshot to the save control. Saving decides color
// and label; EditingAllowed only feeds Disabled.
func DeriveAffordance(s State) Affordance {
	a := Affordance{
		Color:    ColorSuccess,
		LabelKey: i18n.SaveLabel,
		Disabled: s.SaveStatus == Saving || !s.EditingAllowed,
	}
	switch {
	case s.SaveStatus == Saving:
		a.Color = ColorWarning
		a.LabelKey = i18n.SavingLabel
	case s.HasUnsavedChanges:
		a.Color = ColorDanger
	}
	return a
}

type PaneKind int

const (
	PaneEmpty PaneKind = iota
	PaneUnsupported
	PanePreview
)

func (k PaneKind) String() string {
	switch k {
	case PaneUnsupported:
		return "unsupported"
	case PanePreview:
		return "preview"
	default:
		return "empty"
	}
}

func (k PaneKind) MarshalText() ([]byte, error) { return []byte(k.String()), nil }

func (k *PaneKind) UnmarshalText(b []byte) error {
	switch string(b) {
	case "empty", "":
		*k = PaneEmpty
	case "unsupported":
		*k = PaneUnsupported
	case "preview":
		*k = PanePreview
	default:
		return errors.New("unknown pane kind " + string(b))
	}
	return nil
}

// Pane is the content pane decision. MessageKey is set for PaneEmpty and
// PaneUnsupported, Preview only for PanePreview.
type Pane struct {
	Kind       PaneKind     `json:"kind"`
	MessageKey i18n.Key     `json:"message_key,omitempty"`
	Preview    preview.View `json:"preview"`
}

// Translator is the localization lookup.
type Translator interface {
	T(k i18n.Key) string
}

// SaveFunc persists the session. Implementations own the Saving/Idle
// transitions of the state provider.
type SaveFunc func(ctx context.Context, s State) error

// Panel wires the external collaborators. Supported gates the content pane;
// a nil Supported accepts every path.
type Panel struct {
	Supported func(path string) bool
	OnSave    SaveFunc
}

// New returns a Panel using supported as the file-type predicate and save as
// the persistence hook.
func New(supported func(path string) bool, save SaveFunc) *Panel {
	return &Panel{Supported: supported, OnSave: save}
}

// Pane picks what the content pane shows for s.
func (p *Panel) Pane(s State) Pane {
	if !s.HasSelection() {
		return Pane{Kind: PaneEmpty, MessageKey: i18n.EmptyMessage}
	}
	if p.Supported != nil && !p.Supported(s.SelectedPath) {
		return Pane{Kind: PaneUnsupported, MessageKey: i18n.UnsupportedMessage}
	}
	return Pane{Kind: PanePreview, Preview: preview.Render(s.SelectedPath)}
}

// Save invokes the injected hook unless the affordance is disabled.
// Without a hook it is a no-op.
func (p *Panel) Save(ctx context.Context, s State) error {
	if DeriveAffordance(s).Disabled {
		return ErrSaveDisabled
	}
	if p.OnSave == nil {
		return nil
	}
	return p.OnSave(ctx, s)
}

// SaveButton is the localized save control.
type SaveButton struct {
	Affordance
	Label string `json:"label"`
}

// Layout is everything a render needs, resolved against one snapshot.
type Layout struct {
	State   State      `json:"state"`
	Button  SaveButton `json:"save"`
	Pane    Pane       `json:"pane"`
	Message string     `json:"message,omitempty"`
}

// Layout resolves s into a localized Layout.
func (p *Panel) Layout(s State, tr Translator) Layout {
	a := DeriveAffordance(s)
	pane := p.Pane(s)
	l := Layout{
		State:  s,
		Button: SaveButton{Affordance: a, Label: tr.T(a.LabelKey)},
		Pane:   pane,
	}
	if pane.MessageKey != "" {
		l.Message = tr.T(pane.MessageKey)
	}
	return l
}
