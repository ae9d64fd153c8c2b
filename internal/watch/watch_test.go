package watch

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func startWatcher(t *testing.T, dir string) <-chan struct{} {
	t.Helper()
	fired := make(chan struct{}, 8)
	w, err := New(dir, 20*time.Millisecond, func() { fired <- struct{}{} })
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { w.Close() })
	return fired
}

func waitFired(t *testing.T, fired <-chan struct{}) {
	t.Helper()
	select {
	case <-fired:
	case <-time.After(3 * time.Second):
		t.Fatal("change not reported")
	}
}

func TestReportsFileCreate(t *testing.T) {
	dir := t.TempDir()
	fired := startWatcher(t, dir)

	if err := os.WriteFile(filepath.Join(dir, "a.png"), []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	waitFired(t, fired)
}

func TestWatchesNewSubdirectories(t *testing.T) {
	dir := t.TempDir()
	fired := startWatcher(t, dir)

	sub := filepath.Join(dir, "media")
	if err := os.Mkdir(sub, 0o755); err != nil {
		t.Fatal(err)
	}
	waitFired(t, fired)

	// Give the loop time to add the new directory.
	time.Sleep(100 * time.Millisecond)
	if err := os.WriteFile(filepath.Join(sub, "clip.mp4"), []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	waitFired(t, fired)
}

func TestIgnoresHiddenEntries(t *testing.T) {
	dir := t.TempDir()
	fired := startWatcher(t, dir)

	if err := os.WriteFile(filepath.Join(dir, ".goopedit-tmp"), []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	select {
	case <-fired:
		t.Fatal("hidden file should not be reported")
	case <-time.After(200 * time.Millisecond):
	}
}

func TestCloseIsIdempotent(t *testing.T) {
	w, err := New(t.TempDir(), 0, nil)
	if err != nil {
		t.Fatal(err)
	}
	if err := w.Close(); err != nil {
		t.Fatal(err)
	}
	if err := w.Close(); err != nil {
		t.Fatal(err)
	}
}
