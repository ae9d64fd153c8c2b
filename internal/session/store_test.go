package session

import (
	"errors"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/petervdpas/goopedit/internal/panel"
	"github.com/petervdpas/goopedit/internal/storage"
)

func openMem(t *testing.T, allowed bool) *Store {
	t.Helper()
	s, err := Open(Options{Root: "/ws", EditingAllowed: allowed})
	if err != nil {
		t.Fatal(err)
	}
	return s
}

func TestNewSessionDefaults(t *testing.T) {
	s := openMem(t, true)
	snap := s.Snapshot()
	if snap.ID == "" {
		t.Fatalf("expected a session id")
	}
	if snap.HasSelection() || snap.HasUnsavedChanges || snap.SaveStatus != panel.Idle || !snap.EditingAllowed {
		t.Fatalf("unexpected initial state %+v", snap.State)
	}
}

func TestSelectAndDraft(t *testing.T) {
	s := openMem(t, true)

	snap, err := s.Select("notes.md", "hello", "sha256:a")
	if err != nil {
		t.Fatal(err)
	}
	if snap.SelectedPath != "notes.md" || snap.HasUnsavedChanges || snap.Draft != "hello" {
		t.Fatalf("unexpected snapshot after select %+v", snap)
	}

	snap, err = s.SetDraft("notes.md", "hello world")
	if err != nil {
		t.Fatal(err)
	}
	if !snap.HasUnsavedChanges || snap.Diff.Insertions != 6 {
		t.Fatalf("expected unsaved changes, got %+v", snap)
	}

	snap, _ = s.SetDraft("notes.md", "hello")
	if snap.HasUnsavedChanges {
		t.Fatalf("reverting the draft should clear unsaved changes")
	}

	snap, _ = s.Select("", "", "")
	if snap.HasSelection() {
		t.Fatalf("expected selection cleared")
	}
}

func TestDraftLimit(t *testing.T) {
	s, err := Open(Options{Root: "/ws", MaxDraftBytes: 4})
	if err != nil {
		t.Fatal(err)
	}
	if _, err := s.SetDraft("", "12345"); !errors.Is(err, ErrDraftTooLarge) {
		t.Fatalf("expected ErrDraftTooLarge, got %v", err)
	}
	if s.Snapshot().Draft != "" {
		t.Fatalf("rejected draft must not be stored")
	}
}

func TestSaveLifecycle(t *testing.T) {
	s := openMem(t, true)
	s.Select("a.txt", "v1", "e1")
	s.SetDraft("a.txt", "v2")

	snap, err := s.BeginSave()
	if err != nil {
		t.Fatal(err)
	}
	if snap.SaveStatus != panel.Saving {
		t.Fatalf("expected saving, got %v", snap.SaveStatus)
	}
	if _, err := s.BeginSave(); !errors.Is(err, ErrSaveInProgress) {
		t.Fatalf("expected ErrSaveInProgress, got %v", err)
	}

	snap, err = s.FinishSave("v2", "e2", nil)
	if err != nil {
		t.Fatal(err)
	}
	if snap.SaveStatus != panel.Idle || snap.HasUnsavedChanges || snap.ETag != "e2" || snap.Baseline != "v2" {
		t.Fatalf("unexpected snapshot after save %+v", snap)
	}

	if _, err := s.FinishSave("x", "y", nil); !errors.Is(err, ErrNotSaving) {
		t.Fatalf("expected ErrNotSaving, got %v", err)
	}
}

func TestSaveFailureKeepsChanges(t *testing.T) {
	s := openMem(t, true)
	s.Select("a.txt", "v1", "e1")
	s.SetDraft("a.txt", "v2")
	s.BeginSave()

	snap, err := s.FinishSave("", "", errors.New("conflict"))
	if err != nil {
		t.Fatal(err)
	}
	if snap.SaveStatus != panel.Idle || !snap.HasUnsavedChanges || snap.ETag != "e1" {
		t.Fatalf("failed save must keep unsaved state: %+v", snap)
	}
}

func TestEditDuringSaveStaysUnsaved(t *testing.T) {
	s := openMem(t, true)
	s.Select("a.txt", "v1", "e1")
	s.SetDraft("a.txt", "v2")
	s.BeginSave()
	s.SetDraft("a.txt", "v3")

	snap, _ := s.FinishSave("v2", "e2", nil)
	if !snap.HasUnsavedChanges {
		t.Fatalf("draft edited during save should remain unsaved")
	}
}

func TestConcurrentBeginSaveAdmitsOne(t *testing.T) {
	s := openMem(t, true)
	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		admitted int
	)
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := s.BeginSave(); err == nil {
				mu.Lock()
				admitted++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()
	if admitted != 1 {
		t.Fatalf("expected exactly one admitted save, got %d", admitted)
	}
}

func TestSubscribe(t *testing.T) {
	s := openMem(t, false)
	ch := s.Subscribe()

	s.SetEditingAllowed(true)
	select {
	case ev := <-ch:
		if ev.Type != EventState || !ev.Snapshot.EditingAllowed {
			t.Fatalf("unexpected event %+v", ev)
		}
	case <-time.After(time.Second):
		t.Fatal("no event delivered")
	}

	// No-op change does not notify.
	s.SetEditingAllowed(true)
	select {
	case ev := <-ch:
		t.Fatalf("unexpected event %+v", ev)
	default:
	}

	s.TreeChanged()
	ev := <-ch
	if ev.Type != EventTree || ev.Snapshot.TreeRev != 1 {
		t.Fatalf("unexpected tree event %+v", ev)
	}

	s.Unsubscribe(ch)
	if _, ok := <-ch; ok {
		t.Fatalf("expected channel closed after unsubscribe")
	}
}

func TestPersistAndResume(t *testing.T) {
	db, err := storage.Open(filepath.Join(t.TempDir(), "sessions.db"))
	if err != nil {
		t.Fatal(err)
	}
	defer db.Close()

	s, err := Open(Options{Root: "/ws", EditingAllowed: true, DB: db})
	if err != nil {
		t.Fatal(err)
	}
	id := s.Snapshot().ID
	s.Select("doc.pdf", "base", "e1")
	s.SetDraft("doc.pdf", "base+edit")
	s.BeginSave()

	resumed, err := Open(Options{Root: "/ws", EditingAllowed: false, DB: db})
	if err != nil {
		t.Fatal(err)
	}
	snap := resumed.Snapshot()
	if snap.ID != id {
		t.Fatalf("expected resumed id %s, got %s", id, snap.ID)
	}
	if snap.SelectedPath != "doc.pdf" || snap.Draft != "base+edit" || !snap.HasUnsavedChanges {
		t.Fatalf("unexpected resumed snapshot %+v", snap)
	}
	if snap.SaveStatus != panel.Idle {
		t.Fatalf("resumed session must be idle")
	}
	if snap.EditingAllowed {
		t.Fatalf("editing permission comes from options, not the stored row")
	}

	if _, err := resumed.BeginSave(); err != nil {
		t.Fatal(err)
	}
	if _, err := resumed.FinishSave("base+edit", "e2", nil); err != nil {
		t.Fatal(err)
	}
	events, err := db.SaveEvents(id, 5)
	if err != nil {
		t.Fatal(err)
	}
	if len(events) != 1 || !events[0].OK || events[0].ETag != "e2" || events[0].Path != "doc.pdf" {
		t.Fatalf("unexpected save events %+v", events)
	}
}

func TestSelectionPinnedDuringSave(t *testing.T) {
	s := openMem(t, true)
	s.Select("a.txt", "a-v1", "etag-a1")
	s.SetDraft("a.txt", "a-v2")
	if _, err := s.BeginSave(); err != nil {
		t.Fatal(err)
	}

	for _, path := range []string{"b.txt", ""} {
		if _, err := s.Select(path, "b-v1", "etag-b1"); !errors.Is(err, ErrSaveInProgress) {
			t.Fatalf("select %q during save: expected ErrSaveInProgress, got %v", path, err)
		}
	}

	snap, err := s.FinishSave("a-v2", "etag-a2", nil)
	if err != nil {
		t.Fatal(err)
	}
	if snap.SelectedPath != "a.txt" || snap.Baseline != "a-v2" || snap.ETag != "etag-a2" || snap.HasUnsavedChanges {
		t.Fatalf("unexpected snapshot after save %+v", snap)
	}

	snap, err = s.Select("b.txt", "b-v1", "etag-b1")
	if err != nil {
		t.Fatal(err)
	}
	if snap.Baseline != "b-v1" || snap.ETag != "etag-b1" || snap.HasUnsavedChanges {
		t.Fatalf("unexpected snapshot after reselect %+v", snap)
	}
}

func TestSaveRulesWhileSaving(t *testing.T) {
	cases := []struct {
		name      string
		during    func(s *Store) error
		saveErr   error
		wantETag  string
		wantDirty bool
	}{
		{"no edits, success", func(*Store) error { return nil }, nil, "e2", false},
		{"edit, success", func(s *Store) error { _, err := s.SetDraft("a.txt", "v3"); return err }, nil, "e2", true},
		{"edit back to saved, success", func(s *Store) error { _, err := s.SetDraft("a.txt", "v2"); return err }, nil, "e2", false},
		{"no edits, failure", func(*Store) error { return nil }, errors.New("disk full"), "e1", true},
		{"toggle editing, success", func(s *Store) error { s.SetEditingAllowed(false); return nil }, nil, "e2", false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			s := openMem(t, true)
			s.Select("a.txt", "v1", "e1")
			s.SetDraft("a.txt", "v2")
			s.BeginSave()
			if err := tc.during(s); err != nil {
				t.Fatal(err)
			}
			if s.State().SaveStatus != panel.Saving {
				t.Fatalf("save status changed by a mutation during save")
			}
			snap, err := s.FinishSave("v2", "e2", tc.saveErr)
			if err != nil {
				t.Fatal(err)
			}
			if snap.ETag != tc.wantETag || snap.HasUnsavedChanges != tc.wantDirty || snap.SaveStatus != panel.Idle {
				t.Fatalf("got etag=%s dirty=%v status=%v", snap.ETag, snap.HasUnsavedChanges, snap.SaveStatus)
			}
		})
	}
}

func TestLateDraftRejected(t *testing.T) {
	s := openMem(t, true)
	s.Select("a.txt", "a-v1", "ea")
	s.Select("b.txt", "b-v1", "eb")

	if _, err := s.SetDraft("a.txt", "a-v2"); !errors.Is(err, ErrStaleDraft) {
		t.Fatalf("expected ErrStaleDraft, got %v", err)
	}
	snap := s.Snapshot()
	if snap.Draft != "b-v1" || snap.HasUnsavedChanges {
		t.Fatalf("late draft leaked into b.txt: %+v", snap)
	}
}
