package routes

import (
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/websocket"

	"github.com/petervdpas/goopedit/internal/draft"
	"github.com/petervdpas/goopedit/internal/panel"
	"github.com/petervdpas/goopedit/internal/session"
	"github.com/petervdpas/goopedit/internal/storage"
)

var wsUpgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 4096,
	CheckOrigin:     sameOrigin,
}

const wsWriteTimeout = 5 * time.Second

// stateMessage is the JSON shape of /api/workspace/state and each websocket push.
type stateMessage struct {
	Type         string        `json:"type"`
	SessionID    string        `json:"session_id"`
	Revision     uint64        `json:"revision"`
	TreeRevision uint64        `json:"tree_revision"`
	Diff         draft.Summary `json:"diff"`
	Layout       panel.Layout  `json:"layout"`
}

func newStateMessage(typ string, snap session.Snapshot, p *panel.Panel, tr panel.Translator) stateMessage {
	return stateMessage{
		Type:         typ,
		SessionID:    snap.ID,
		Revision:     snap.Revision,
		TreeRevision: snap.TreeRev,
		Diff:         snap.Diff,
		Layout:       p.Layout(snap.State, tr),
	}
}

func registerWorkspaceAPIRoutes(mux *http.ServeMux, d Deps, csrf string) {
	ws := d.Workspace

	current := func(r *http.Request) stateMessage {
		return newStateMessage(session.EventState, ws.Session.Snapshot(), ws.Panel, translator(r, d))
	}

	// GET /api/workspace/state
	handleGet(mux, "/api/workspace/state", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, current(r))
	})

	// GET /api/workspace/tree
	handleGet(mux, "/api/workspace/tree", func(w http.ResponseWriter, r *http.Request) {
		tree, err := ws.Content.ListTree(r.Context(), "")
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, tree)
	})

	// POST /api/workspace/select {path}
	mux.HandleFunc("/api/workspace/select", func(w http.ResponseWriter, r *http.Request) {
		if err := validateAPIRequest(w, r, csrf); err != nil {
			return
		}
		var req struct {
			Path string `json:"path"`
		}
		if decodeJSON(w, r, &req) != nil {
			return
		}
		if _, err := ws.Select(r.Context(), req.Path); err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, current(r))
	})

	// POST /api/workspace/draft {path, content}
	mux.HandleFunc("/api/workspace/draft", func(w http.ResponseWriter, r *http.Request) {
		if err := validateAPIRequest(w, r, csrf); err != nil {
			return
		}
		var req struct {
			Path    string `json:"path"`
			Content string `json:"content"`
		}
		if decodeJSON(w, r, &req) != nil {
			return
		}
		if _, err := ws.SetDraft(req.Path, req.Content); err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, current(r))
	})

	// GET /api/workspace/diff: patch text of the draft against the baseline
	handleGet(mux, "/api/workspace/diff", func(w http.ResponseWriter, r *http.Request) {
		snap := ws.Session.Snapshot()
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		_, _ = w.Write([]byte(draft.Patch(snap.Baseline, snap.Draft)))
	})

	// POST /api/workspace/editing {allowed}
	mux.HandleFunc("/api/workspace/editing", func(w http.ResponseWriter, r *http.Request) {
		if err := validateAPIRequest(w, r, csrf); err != nil {
			return
		}
		var req struct {
			Allowed bool `json:"allowed"`
		}
		if decodeJSON(w, r, &req) != nil {
			return
		}
		ws.Session.SetEditingAllowed(req.Allowed)
		log.Printf("WORKSPACE: editing allowed=%v", req.Allowed)
		writeJSON(w, current(r))
	})

	// POST /api/workspace/save
	mux.HandleFunc("/api/workspace/save", func(w http.ResponseWriter, r *http.Request) {
		if err := validateAPIRequest(w, r, csrf); err != nil {
			return
		}
		if err := ws.Save(r.Context()); err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, current(r))
	})

	// GET /api/workspace/saves?limit=20
	handleGet(mux, "/api/workspace/saves", func(w http.ResponseWriter, r *http.Request) {
		if d.DB == nil {
			writeJSON(w, []storage.SaveEvent{})
			return
		}
		limit, err := strconv.Atoi(r.URL.Query().Get("limit"))
		if err != nil || limit <= 0 {
			limit = 20
		}
		events, err := d.DB.SaveEvents(ws.Session.Snapshot().ID, limit)
		if err != nil {
			writeError(w, err)
			return
		}
		if events == nil {
			events = []storage.SaveEvent{}
		}
		writeJSON(w, events)
	})

	// GET /api/workspace/ws: pushes a stateMessage on every session change
	handleGet(mux, "/api/workspace/ws", func(w http.ResponseWriter, r *http.Request) {
		tr := translator(r, d)

		conn, err := wsUpgrader.Upgrade(w, r, nil)
		if err != nil {
			log.Printf("WORKSPACE: websocket upgrade: %v", err)
			return
		}
		defer conn.Close()

		events := ws.Session.Subscribe()
		defer ws.Session.Unsubscribe(events)

		// Drain incoming messages (ping/pong, close frames) without blocking.
		gone := make(chan struct{})
		go func() {
			defer close(gone)
			for {
				if _, _, err := conn.ReadMessage(); err != nil {
					return
				}
			}
		}()

		send := func(m stateMessage) error {
			_ = conn.SetWriteDeadline(time.Now().Add(wsWriteTimeout))
			return conn.WriteJSON(m)
		}
		if err := send(newStateMessage(session.EventState, ws.Session.Snapshot(), ws.Panel, tr)); err != nil {
			return
		}

		for {
			select {
			case <-gone:
				return
			case ev, ok := <-events:
				if !ok {
					return
				}
				if err := send(newStateMessage(ev.Type, ev.Snapshot, ws.Panel, tr)); err != nil {
					return
				}
			}
		}
	})
}
