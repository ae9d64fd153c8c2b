// internal/viewer/routes/helpers.go

package routes

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/hex"
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"net/url"
	"strings"

	"github.com/petervdpas/goopedit/internal/content"
	"github.com/petervdpas/goopedit/internal/i18n"
	"github.com/petervdpas/goopedit/internal/panel"
	"github.com/petervdpas/goopedit/internal/session"
	"github.com/petervdpas/goopedit/internal/ui/viewmodels"
	"github.com/petervdpas/goopedit/internal/workspace"
)

// maxJSONBody bounds request bodies on the JSON API.
const maxJSONBody = 16 << 20

func baseVM(title, active, contentTmpl string, r *http.Request, d Deps) viewmodels.BaseVM {
	vm := viewmodels.BaseVM{
		Title:       title,
		Active:      active,
		ContentTmpl: contentTmpl,
		BaseURL:     d.BaseURL,
		Debug:       d.Debug,
		Theme:       d.Theme,
		Lang:        translator(r, d).Lang(),
	}
	if vm.Theme == "" {
		vm.Theme = "dark"
	}
	if d.Workspace != nil {
		vm.Root = d.Workspace.Content.RootAbs()
	}
	return vm
}

func translator(r *http.Request, d Deps) *i18n.Printer {
	return i18n.Negotiate(r.Header.Get("Accept-Language"), d.Lang)
}

func newToken(n int) string {
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		panic("routes: csrf token: " + err.Error())
	}
	return hex.EncodeToString(b)
}

// sameOrigin accepts requests without an Origin header (non-browser clients)
// and browser requests whose Origin host matches the Host they were sent to.
func sameOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		return true
	}
	u, err := url.Parse(origin)
	if err != nil {
		return false
	}
	return strings.EqualFold(u.Host, r.Host)
}

func isLocalRequest(r *http.Request) bool {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return false
	}
	ip := net.ParseIP(host)
	return ip != nil && ip.IsLoopback()
}

func requireLocal(w http.ResponseWriter, r *http.Request) bool {
	if !isLocalRequest(r) {
		http.Error(w, "forbidden", http.StatusForbidden)
		return false
	}
	return true
}

func requireMethod(w http.ResponseWriter, r *http.Request, method string) bool {
	if r.Method != method {
		w.Header().Set("Allow", method)
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return false
	}
	return true
}

func handleGet(mux *http.ServeMux, pattern string, h http.HandlerFunc) {
	mux.HandleFunc(pattern, func(w http.ResponseWriter, r *http.Request) {
		if !requireMethod(w, r, http.MethodGet) {
			return
		}
		h(w, r)
	})
}

func tokenEqual(got, want string) bool {
	return got != "" && subtle.ConstantTimeCompare([]byte(got), []byte(want)) == 1
}

// validatePOSTRequest guards form posts: POST, loopback, csrf form field.
func validatePOSTRequest(w http.ResponseWriter, r *http.Request, csrf string) error {
	if !requireMethod(w, r, http.MethodPost) {
		return errors.New("method")
	}
	if !requireLocal(w, r) {
		return errors.New("not local")
	}
	if err := r.ParseForm(); err != nil {
		http.Error(w, "bad form", http.StatusBadRequest)
		return err
	}
	if !tokenEqual(r.PostForm.Get("csrf"), csrf) {
		http.Error(w, "bad csrf", http.StatusForbidden)
		return errors.New("bad csrf")
	}
	return nil
}

// validateAPIRequest guards JSON posts: POST, loopback, X-CSRF-Token header.
func validateAPIRequest(w http.ResponseWriter, r *http.Request, csrf string) error {
	if !requireMethod(w, r, http.MethodPost) {
		return errors.New("method")
	}
	if !requireLocal(w, r) {
		return errors.New("not local")
	}
	if !tokenEqual(r.Header.Get("X-CSRF-Token"), csrf) {
		http.Error(w, "bad csrf", http.StatusForbidden)
		return errors.New("bad csrf")
	}
	return nil
}

func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxJSONBody))
	if err := dec.Decode(v); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			http.Error(w, "request body too large", http.StatusRequestEntityTooLarge)
			return err
		}
		http.Error(w, "invalid json: "+err.Error(), http.StatusBadRequest)
		return err
	}
	return nil
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	_ = json.NewEncoder(w).Encode(v)
}

// statusFor maps workspace errors to HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, content.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, content.ErrOutsideRoot),
		errors.Is(err, content.ErrIsDir),
		errors.Is(err, workspace.ErrNoSelection),
		errors.Is(err, workspace.ErrNotEditable):
		return http.StatusBadRequest
	case errors.Is(err, content.ErrConflict),
		errors.Is(err, panel.ErrSaveDisabled),
		errors.Is(err, session.ErrSaveInProgress),
		errors.Is(err, session.ErrStaleDraft):
		return http.StatusConflict
	case errors.Is(err, session.ErrDraftTooLarge):
		return http.StatusRequestEntityTooLarge
	default:
		return http.StatusInternalServerError
	}
}

func writeError(w http.ResponseWriter, err error) {
	msg := err.Error()
	if errors.Is(err, content.ErrConflict) {
		msg = "conflict: the file changed on disk, reload and try again"
	}
	http.Error(w, msg, statusFor(err))
}

func queryPath(r *http.Request) string {
	return strings.TrimSpace(r.URL.Query().Get("path"))
}
