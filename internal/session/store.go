// Package session is the state provider for one workspace mount. It owns the
// editor session, persists it, and notifies subscribers on every change.
package session

import (
	"errors"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/petervdpas/goopedit/internal/draft"
	"github.com/petervdpas/goopedit/internal/panel"
	"github.com/petervdpas/goopedit/internal/storage"
)

var (
	ErrSaveInProgress = errors.New("save already in progress")
	ErrNotSaving      = errors.New("no save in progress")
	ErrDraftTooLarge  = errors.New("draft too large")
	ErrStaleDraft     = errors.New("draft is for a file that is no longer selected")
)

// Persister stores session rows. *storage.DB implements it.
type Persister interface {
	LatestSession(root string) (storage.SessionRow, error)
	UpsertSession(r storage.SessionRow) error
	AddSaveEvent(e storage.SaveEvent) error
}

// Snapshot is an immutable copy of the session.
type Snapshot struct {
	panel.State

	ID       string        `json:"id"`
	Root     string        `json:"root"`
	Revision uint64        `json:"revision"`
	TreeRev  uint64        `json:"tree_revision"`
	ETag     string        `json:"etag,omitempty"`
	Diff     draft.Summary `json:"diff"`

	Baseline string `json:"-"`
	Draft    string `json:"-"`
}

// Event is delivered to subscribers after each mutation.
type Event struct {
	Type     string   `json:"type"`
	Snapshot Snapshot `json:"snapshot"`
}

const (
	EventState = "state"
	EventTree  = "tree"
)

// Options configures a Store.
type Options struct {
	Root           string
	EditingAllowed bool
	MaxDraftBytes  int
	DB             Persister
}

type Store struct {
	mu        sync.Mutex
	cur       Snapshot
	createdAt time.Time
	maxDraft  int
	db        Persister
	listeners []chan Event
}

// Open resumes the latest session for opt.Root or starts a new one.
// A resumed session is always Idle; EditingAllowed comes from opts.
func Open(opt Options) (*Store, error) {
	s := &Store{
		maxDraft:  opt.MaxDraftBytes,
		db:        opt.DB,
		listeners: make([]chan Event, 0),
	}

	if s.db != nil {
		row, err := s.db.LatestSession(opt.Root)
		switch {
		case err == nil:
			s.cur = Snapshot{
				State: panel.State{
					SelectedPath:   row.SelectedPath,
					EditingAllowed: opt.EditingAllowed,
				},
				ID:       row.ID,
				Root:     row.Root,
				ETag:     row.ETag,
				Baseline: row.Baseline,
				Draft:    row.Draft,
			}
			s.cur.Diff = draft.Compare(row.Baseline, row.Draft)
			s.cur.HasUnsavedChanges = s.cur.Diff.Changed
			s.createdAt = row.CreatedAt
			log.Printf("SESSION: resumed %s (selected=%q)", row.ID, row.SelectedPath)
			return s, s.persistLocked()
		case !errors.Is(err, storage.ErrNoSession):
			return nil, err
		}
	}

	s.cur = Snapshot{
		State: panel.State{EditingAllowed: opt.EditingAllowed},
		ID:    uuid.NewString(),
		Root:  opt.Root,
	}
	s.createdAt = time.Now()
	log.Printf("SESSION: started %s", s.cur.ID)
	return s, s.persistLocked()
}

func (s *Store) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cur
}

// State is the panel-facing part of the current snapshot.
func (s *Store) State() panel.State {
	return s.Snapshot().State
}

// DraftLimit is the largest draft SetDraft accepts, 0 for no limit.
func (s *Store) DraftLimit() int { return s.maxDraft }

// Select makes path the selected file with baseline as its on-disk content.
// The draft starts equal to the baseline. An empty path clears the selection.
// The selection is pinned while a save is in flight.
func (s *Store) Select(path, baseline, etag string) (Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cur.SaveStatus == panel.Saving {
		return s.cur, ErrSaveInProgress
	}
	s.cur.SelectedPath = path
	s.cur.Baseline = baseline
	s.cur.Draft = baseline
	s.cur.ETag = etag
	s.cur.Diff = draft.Summary{}
	s.cur.HasUnsavedChanges = false
	return s.commitLocked(EventState), nil
}

// SetDraft records the editor buffer for path and recomputes
// HasUnsavedChanges. path must still be the selection.
func (s *Store) SetDraft(path, content string) (Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if path != s.cur.SelectedPath {
		return s.cur, ErrStaleDraft
	}
	if s.maxDraft > 0 && len(content) > s.maxDraft {
		return s.cur, ErrDraftTooLarge
	}
	s.cur.Draft = content
	s.cur.Diff = draft.Compare(s.cur.Baseline, content)
	s.cur.HasUnsavedChanges = s.cur.Diff.Changed
	return s.commitLocked(EventState), nil
}

func (s *Store) SetEditingAllowed(allowed bool) Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cur.EditingAllowed == allowed {
		return s.cur
	}
	s.cur.EditingAllowed = allowed
	return s.commitLocked(EventState)
}

// BeginSave moves Idle to Saving and returns the snapshot to persist.
// Only one save may be in flight.
func (s *Store) BeginSave() (Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cur.SaveStatus == panel.Saving {
		return s.cur, ErrSaveInProgress
	}
	s.cur.SaveStatus = panel.Saving
	return s.commitLocked(EventState), nil
}

// FinishSave returns to Idle. On success, saved becomes the new baseline
// and etag its version; a draft edited meanwhile stays unsaved. On failure
// the draft and its unsaved flag are kept.
func (s *Store) FinishSave(saved, etag string, saveErr error) (Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cur.SaveStatus != panel.Saving {
		return s.cur, ErrNotSaving
	}
	s.cur.SaveStatus = panel.Idle

	ev := storage.SaveEvent{SessionID: s.cur.ID, Path: s.cur.SelectedPath, OK: saveErr == nil}
	if saveErr == nil {
		s.cur.Baseline = saved
		s.cur.ETag = etag
		s.cur.Diff = draft.Compare(saved, s.cur.Draft)
		s.cur.HasUnsavedChanges = s.cur.Diff.Changed
		ev.ETag = etag
	} else {
		ev.Error = saveErr.Error()
	}

	snap := s.commitLocked(EventState)
	if s.db != nil {
		if err := s.db.AddSaveEvent(ev); err != nil {
			log.Printf("SESSION: record save: %v", err)
		}
	}
	return snap, nil
}

// TreeChanged tells subscribers the file tree needs a reload.
func (s *Store) TreeChanged() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cur.TreeRev++
	s.cur.Revision++
	s.notifyLocked(Event{Type: EventTree, Snapshot: s.cur})
}

func (s *Store) Subscribe() chan Event {
	s.mu.Lock()
	defer s.mu.Unlock()
	ch := make(chan Event, 16)
	s.listeners = append(s.listeners, ch)
	return ch
}

func (s *Store) Unsubscribe(ch chan Event) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, l := range s.listeners {
		if l == ch {
			close(l)
			s.listeners = append(s.listeners[:i], s.listeners[i+1:]...)
			return
		}
	}
}

func (s *Store) commitLocked(typ string) Snapshot {
	s.cur.Revision++
	if err := s.persistLocked(); err != nil {
		log.Printf("SESSION: persist %s: %v", s.cur.ID, err)
	}
	s.notifyLocked(Event{Type: typ, Snapshot: s.cur})
	return s.cur
}

func (s *Store) persistLocked() error {
	if s.db == nil {
		return nil
	}
	return s.db.UpsertSession(storage.SessionRow{
		ID:             s.cur.ID,
		Root:           s.cur.Root,
		SelectedPath:   s.cur.SelectedPath,
		EditingAllowed: s.cur.EditingAllowed,
		Baseline:       s.cur.Baseline,
		Draft:          s.cur.Draft,
		ETag:           s.cur.ETag,
		CreatedAt:      s.createdAt,
	})
}

func (s *Store) notifyLocked(e Event) {
	for _, ch := range s.listeners {
		select {
		case ch <- e:
		default:
		}
	}
}
