package assets

import (
	"net/http/httptest"
	"strings"
	"testing"
)

func TestHandlerServesMinified(t *testing.T) {
	h := Handler()
	for path, ct := range map[string]string{"/app.css": "text/css", "/app.js": "application/javascript"} {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest("GET", path, nil))
		if rec.Code != 200 {
			t.Fatalf("%s: expected 200, got %d", path, rec.Code)
		}
		if !strings.HasPrefix(rec.Header().Get("Content-Type"), ct) {
			t.Fatalf("%s: unexpected content type %q", path, rec.Header().Get("Content-Type"))
		}
		raw, _ := rawFS.ReadFile(strings.TrimPrefix(path, "/"))
		if rec.Body.Len() == 0 || rec.Body.Len() >= len(raw) {
			t.Fatalf("%s: expected minified output smaller than %d bytes, got %d", path, len(raw), rec.Body.Len())
		}
	}
}

func TestHandlerNotFound(t *testing.T) {
	rec := httptest.NewRecorder()
	Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/nope.js", nil))
	if rec.Code != 404 {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
}
