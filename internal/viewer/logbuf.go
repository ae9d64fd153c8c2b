// internal/viewer/logbuf.go

package viewer

import (
	"bytes"
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/petervdpas/goopedit/internal/util"
)

type LogEntry struct {
	TS        time.Time `json:"ts"`
	Subsystem string    `json:"subsystem,omitempty"` // "SAVE" for "SAVE: wrote a.txt"
	Msg       string    `json:"msg"`
}

// LogBuffer keeps the most recent log lines and fans them out to SSE clients.
type LogBuffer struct {
	mu      sync.Mutex
	entries *util.RingBuffer[LogEntry]
	subs    map[chan LogEntry]struct{}
	partial bytes.Buffer
	now     func() time.Time
}

func NewLogBuffer(max int) *LogBuffer {
	if max <= 0 {
		max = 500
	}
	return &LogBuffer{
		entries: util.NewRingBuffer[LogEntry](max),
		subs:    make(map[chan LogEntry]struct{}),
		now:     time.Now,
	}
}

// Write implements io.Writer for log.SetOutput/io.MultiWriter. Partial lines
// are held until their newline arrives.
func (b *LogBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.partial.Write(p)
	for {
		data := b.partial.Bytes()
		i := bytes.IndexByte(data, '\n')
		if i == -1 {
			break
		}
		line := strings.TrimRight(string(data[:i]), "\r")
		b.partial.Next(i + 1)
		if strings.TrimSpace(line) == "" {
			continue
		}

		e := parseLine(b.now(), line)
		b.entries.Push(e)
		for ch := range b.subs {
			select {
			case ch <- e:
			default:
				// drop on slow subscriber
			}
		}
	}
	return len(p), nil
}

// parseLine pulls the upper-case subsystem tag out of a line such as
// "2026/01/02 15:04:05 SAVE: wrote a.txt".
func parseLine(ts time.Time, line string) LogEntry {
	e := LogEntry{TS: ts, Msg: line}
	for _, f := range strings.Fields(line) {
		if !strings.HasSuffix(f, ":") || len(f) < 2 {
			continue
		}
		tag := strings.TrimSuffix(f, ":")
		if tag == strings.ToUpper(tag) && strings.IndexFunc(tag, isUpperLetter) >= 0 && !strings.ContainsAny(tag, "/0123456789") {
			e.Subsystem = tag
		}
		break
	}
	return e
}

func isUpperLetter(r rune) bool { return r >= 'A' && r <= 'Z' }

func (b *LogBuffer) Snapshot() []LogEntry {
	return b.entries.Snapshot()
}

func (b *LogBuffer) Subscribe() (ch chan LogEntry, cancel func()) {
	ch = make(chan LogEntry, 64)

	b.mu.Lock()
	b.subs[ch] = struct{}{}
	b.mu.Unlock()

	cancel = func() {
		b.mu.Lock()
		if _, ok := b.subs[ch]; ok {
			delete(b.subs, ch)
			close(ch)
		}
		b.mu.Unlock()
	}
	return ch, cancel
}

// GET /api/logs?subsystem=SAVE&limit=50
func (b *LogBuffer) ServeLogsJSON(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	limit, err := strconv.Atoi(r.URL.Query().Get("limit"))
	if err != nil || limit < 0 {
		limit = -1
	}

	var entries []LogEntry
	if sub := strings.ToUpper(strings.TrimSpace(r.URL.Query().Get("subsystem"))); sub != "" {
		entries = []LogEntry{}
		for _, e := range b.Snapshot() {
			if e.Subsystem == sub {
				entries = append(entries, e)
			}
		}
		if limit >= 0 && limit < len(entries) {
			entries = entries[len(entries)-limit:]
		}
	} else {
		entries = b.entries.Last(limit)
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	_ = json.NewEncoder(w).Encode(entries)
}

// GET /api/logs/stream  (Server-Sent Events) - tail only (no snapshot)
func (b *LogBuffer) ServeLogsSSE(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream; charset=utf-8")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	ch, cancel := b.Subscribe()
	defer cancel()
	flusher.Flush()

	for {
		select {
		case <-r.Context().Done():
			return
		case e, ok := <-ch:
			if !ok {
				return
			}
			writeSSE(w, e)
			flusher.Flush()
		}
	}
}

func writeSSE(w http.ResponseWriter, e LogEntry) {
	b, _ := json.Marshal(e)
	_, _ = w.Write([]byte("event: message\n"))
	_, _ = w.Write([]byte("data: " + string(b) + "\n\n"))
}
