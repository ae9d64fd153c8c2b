// Package workspace ties the editor panel to its collaborators: the session
// state provider, the content store, and the file-type predicate.
package workspace

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/petervdpas/goopedit/internal/content"
	"github.com/petervdpas/goopedit/internal/filetypes"
	"github.com/petervdpas/goopedit/internal/panel"
	"github.com/petervdpas/goopedit/internal/preview"
	"github.com/petervdpas/goopedit/internal/session"
)

var (
	ErrNoSelection = errors.New("no file selected")
	ErrNotEditable = errors.New("selected file has no text editor")
)

// Service is what the HTTP layer and the inspect command talk to.
type Service struct {
	Content   *content.Store
	Session   *session.Store
	Predicate *filetypes.Predicate
	Panel     *panel.Panel
}

func New(cs *content.Store, ss *session.Store, pred *filetypes.Predicate) *Service {
	svc := &Service{Content: cs, Session: ss, Predicate: pred}
	svc.Panel = panel.New(pred.Supported, svc.persist)
	return svc
}

// Editable reports whether path opens in the draft editor: the predicate
// accepts it and it has no media preview.
func (s *Service) Editable(path string) bool {
	return s.Predicate.Supported(path) && preview.Classify(path) == preview.Unsupported
}

// Select makes path the selection. Only editable files are loaded into the
// draft; media and unsupported files keep just their etag. A path that does
// not exist yet is selected with an empty baseline.
func (s *Service) Select(ctx context.Context, path string) (session.Snapshot, error) {
	rel := content.NormalizeRel(path)
	if rel == "" {
		return s.Session.Select("", "", "")
	}

	fi, err := s.Content.Stat(ctx, rel)
	switch {
	case errors.Is(err, content.ErrNotFound):
		log.Printf("WORKSPACE: selected %s (new)", rel)
		return s.Session.Select(rel, "", content.NoFile)
	case err != nil:
		return s.Session.Snapshot(), err
	case fi.IsDir:
		return s.Session.Snapshot(), content.ErrIsDir
	}

	if !s.Editable(rel) {
		log.Printf("WORKSPACE: selected %s (%d bytes, preview only)", rel, fi.Size)
		return s.Session.Select(rel, "", fi.ETag)
	}
	if limit := s.Session.DraftLimit(); limit > 0 && fi.Size > int64(limit) {
		return s.Session.Snapshot(), fmt.Errorf("select %s: %w", rel, session.ErrDraftTooLarge)
	}
	b, etag, err := s.Content.Read(ctx, rel)
	if err != nil {
		return s.Session.Snapshot(), err
	}
	log.Printf("WORKSPACE: selected %s", rel)
	return s.Session.Select(rel, string(b), etag)
}

// SetDraft records the editor buffer of path. path must be editable and
// still selected when the session applies it.
func (s *Service) SetDraft(path, text string) (session.Snapshot, error) {
	rel := content.NormalizeRel(path)
	if rel == "" {
		return s.Session.Snapshot(), ErrNoSelection
	}
	if !s.Editable(rel) {
		return s.Session.Snapshot(), ErrNotEditable
	}
	return s.Session.SetDraft(rel, text)
}

// Save runs the panel's save against the current snapshot.
func (s *Service) Save(ctx context.Context) error {
	return s.Panel.Save(ctx, s.Session.State())
}

// Layout resolves the current snapshot for rendering.
func (s *Service) Layout(tr panel.Translator) (panel.Layout, session.Snapshot) {
	snap := s.Session.Snapshot()
	return s.Panel.Layout(snap.State, tr), snap
}

// persist is the panel's save hook. It writes the draft with the baseline
// etag and reports the outcome back to the session.
func (s *Service) persist(ctx context.Context, _ panel.State) error {
	snap, err := s.Session.BeginSave()
	if err != nil {
		return err
	}
	if !snap.HasSelection() {
		_, _ = s.Session.FinishSave("", "", ErrNoSelection)
		return ErrNoSelection
	}

	if !snap.HasUnsavedChanges {
		_, _ = s.Session.FinishSave(snap.Baseline, snap.ETag, nil)
		log.Printf("SAVE: %s unchanged", snap.SelectedPath)
		return nil
	}

	etag, werr := s.Content.Write(ctx, snap.SelectedPath, []byte(snap.Draft), snap.ETag)
	if _, err := s.Session.FinishSave(snap.Draft, etag, werr); err != nil {
		log.Printf("SAVE: finish %s: %v", snap.SelectedPath, err)
	}
	if werr != nil {
		log.Printf("SAVE: %s failed: %v", snap.SelectedPath, werr)
		return fmt.Errorf("save %s: %w", snap.SelectedPath, werr)
	}
	log.Printf("SAVE: wrote %s (%d bytes)", snap.SelectedPath, len(snap.Draft))
	return nil
}
