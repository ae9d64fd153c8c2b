package storage

import (
	"database/sql"
	"errors"
	"fmt"
	"time"
)

var ErrNoSession = errors.New("no session")

// SessionRow is the persisted part of a workspace session. Save status is
// not stored; a resumed session starts idle.
type SessionRow struct {
	ID             string
	Root           string
	SelectedPath   string
	EditingAllowed bool
	Baseline       string
	Draft          string
	ETag           string
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// SaveEvent records one finished save attempt.
type SaveEvent struct {
	ID        int64     `json:"id"`
	SessionID string    `json:"session_id"`
	Path      string    `json:"path"`
	ETag      string    `json:"etag,omitempty"`
	OK        bool      `json:"ok"`
	Error     string    `json:"error,omitempty"`
	At        time.Time `json:"at"`
}

// LatestSession returns the most recently updated session for root.
func (d *DB) LatestSession(root string) (SessionRow, error) {
	var (
		r       SessionRow
		allowed int
		created int64
		updated int64
	)
	err := d.QueryRow(`
		SELECT id, root, selected_path, editing_allowed, baseline, draft, etag, created_at, updated_at
		FROM sessions
		WHERE root = ?
		ORDER BY updated_at DESC
		LIMIT 1
	`, root).Scan(&r.ID, &r.Root, &r.SelectedPath, &allowed, &r.Baseline, &r.Draft, &r.ETag, &created, &updated)
	if errors.Is(err, sql.ErrNoRows) {
		return SessionRow{}, ErrNoSession
	}
	if err != nil {
		return SessionRow{}, fmt.Errorf("load session: %w", err)
	}
	r.EditingAllowed = allowed != 0
	r.CreatedAt = time.Unix(0, created)
	r.UpdatedAt = time.Unix(0, updated)
	return r, nil
}

// UpsertSession inserts or replaces r. UpdatedAt is stamped with now.
func (d *DB) UpsertSession(r SessionRow) error {
	now := time.Now().UnixNano()
	created := now
	if !r.CreatedAt.IsZero() {
		created = r.CreatedAt.UnixNano()
	}
	_, err := d.Exec(`
		INSERT INTO sessions (id, root, selected_path, editing_allowed, baseline, draft, etag, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			selected_path   = excluded.selected_path,
			editing_allowed = excluded.editing_allowed,
			baseline        = excluded.baseline,
			draft           = excluded.draft,
			etag            = excluded.etag,
			updated_at      = excluded.updated_at
	`, r.ID, r.Root, r.SelectedPath, boolInt(r.EditingAllowed), r.Baseline, r.Draft, r.ETag, created, now)
	if err != nil {
		return fmt.Errorf("save session: %w", err)
	}
	return nil
}

// AddSaveEvent appends a save attempt for a session.
func (d *DB) AddSaveEvent(e SaveEvent) error {
	at := e.At
	if at.IsZero() {
		at = time.Now()
	}
	_, err := d.Exec(`
		INSERT INTO save_events (session_id, path, etag, ok, error, at)
		VALUES (?, ?, ?, ?, ?, ?)
	`, e.SessionID, e.Path, e.ETag, boolInt(e.OK), e.Error, at.UnixNano())
	if err != nil {
		return fmt.Errorf("record save: %w", err)
	}
	return nil
}

// SaveEvents returns up to limit save attempts for a session, newest first.
func (d *DB) SaveEvents(sessionID string, limit int) ([]SaveEvent, error) {
	if limit <= 0 {
		limit = 50
	}
	d.mu.RLock()
	defer d.mu.RUnlock()

	rows, err := d.db.Query(`
		SELECT id, session_id, path, etag, ok, error, at
		FROM save_events
		WHERE session_id = ?
		ORDER BY id DESC
		LIMIT ?
	`, sessionID, limit)
	if err != nil {
		return nil, fmt.Errorf("list saves: %w", err)
	}
	defer rows.Close()

	var out []SaveEvent
	for rows.Next() {
		var (
			e  SaveEvent
			ok int
			at int64
		)
		if err := rows.Scan(&e.ID, &e.SessionID, &e.Path, &e.ETag, &ok, &e.Error, &at); err != nil {
			return nil, err
		}
		e.OK = ok != 0
		e.At = time.Unix(0, at)
		out = append(out, e)
	}
	return out, rows.Err()
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
