package content

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"testing"
)

func newTestStore(t *testing.T) (*Store, string) {
	t.Helper()
	dir := t.TempDir()
	s, err := NewStore(dir)
	if err != nil {
		t.Fatal(err)
	}
	return s, dir
}

func TestReadWriteETag(t *testing.T) {
	ctx := context.Background()
	s, dir := newTestStore(t)

	etag, err := s.Write(ctx, "docs/readme.md", []byte("hello"), NoFile)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := os.Stat(filepath.Join(dir, "docs", "readme.md")); err != nil {
		t.Fatalf("file not written: %v", err)
	}

	b, got, err := s.Read(ctx, "/docs/readme.md")
	if err != nil {
		t.Fatal(err)
	}
	if string(b) != "hello" || got != etag {
		t.Fatalf("read %q %q, want hello %q", b, got, etag)
	}

	if _, err := s.Write(ctx, "docs/readme.md", []byte("again"), NoFile); !errors.Is(err, ErrConflict) {
		t.Fatalf("expected conflict writing over existing file with NoFile, got %v", err)
	}
	if _, err := s.Write(ctx, "docs/readme.md", []byte("again"), "sha256:stale"); !errors.Is(err, ErrConflict) {
		t.Fatalf("expected conflict on stale etag, got %v", err)
	}
	if _, err := s.Write(ctx, "docs/readme.md", []byte("again"), etag); err != nil {
		t.Fatalf("expected write with current etag to pass, got %v", err)
	}
	if _, err := s.Write(ctx, "docs/other.md", []byte("x"), "sha256:abc"); !errors.Is(err, ErrConflict) {
		t.Fatalf("expected conflict for missing file with concrete etag, got %v", err)
	}
	if _, err := s.Write(ctx, "docs/free.md", []byte("x"), ""); err != nil {
		t.Fatalf("unconditional write failed: %v", err)
	}
}

func TestReadErrors(t *testing.T) {
	ctx := context.Background()
	s, dir := newTestStore(t)
	os.MkdirAll(filepath.Join(dir, "sub"), 0o755)

	if _, _, err := s.Read(ctx, "missing.png"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
	if _, _, err := s.Read(ctx, "sub"); !errors.Is(err, ErrIsDir) {
		t.Fatalf("expected is-dir, got %v", err)
	}
	if _, _, err := s.Read(ctx, "../../etc/passwd"); !errors.Is(err, ErrOutsideRoot) {
		t.Fatalf("expected outside root, got %v", err)
	}
}

func TestWriteRefusesFileParent(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestStore(t)
	if _, err := s.Write(ctx, "a.txt", []byte("x"), ""); err != nil {
		t.Fatal(err)
	}
	if _, err := s.Write(ctx, "a.txt/b.txt", []byte("x"), ""); !errors.Is(err, ErrConflict) {
		t.Fatalf("expected conflict when a parent is a file, got %v", err)
	}
	if _, err := s.Write(ctx, "", []byte("x"), ""); !errors.Is(err, ErrIsDir) {
		t.Fatalf("expected is-dir for root write, got %v", err)
	}
}

func TestSymlinkEscape(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("symlinks need privileges on windows")
	}
	ctx := context.Background()
	s, dir := newTestStore(t)
	outside := t.TempDir()
	os.WriteFile(filepath.Join(outside, "secret.txt"), []byte("s"), 0o644)
	if err := os.Symlink(outside, filepath.Join(dir, "link")); err != nil {
		t.Fatal(err)
	}
	if _, _, err := s.Read(ctx, "link/secret.txt"); !errors.Is(err, ErrOutsideRoot) {
		t.Fatalf("expected outside root through symlink, got %v", err)
	}
}

func TestStat(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestStore(t)
	etag, _ := s.Write(ctx, "img/a.png", []byte("png"), "")

	fi, err := s.Stat(ctx, "img/a.png")
	if err != nil {
		t.Fatal(err)
	}
	if fi.Path != "img/a.png" || fi.Size != 3 || fi.ETag != etag || fi.IsDir {
		t.Fatalf("unexpected info %+v", fi)
	}
	if fi, err := s.Stat(ctx, "img"); err != nil || !fi.IsDir || fi.ETag != "" {
		t.Fatalf("unexpected dir info %+v %v", fi, err)
	}
	if _, err := s.Stat(ctx, "nope"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestListTreeOrder(t *testing.T) {
	ctx := context.Background()
	s, dir := newTestStore(t)
	for _, p := range []string{"b.txt", "a/x.txt", "a/sub/y.png", "z/w.pdf"} {
		if _, err := s.Write(ctx, p, []byte(p), ""); err != nil {
			t.Fatal(err)
		}
	}
	os.MkdirAll(filepath.Join(dir, ".git"), 0o755)
	os.WriteFile(filepath.Join(dir, ".git", "HEAD"), []byte("ref"), 0o644)
	os.WriteFile(filepath.Join(dir, ".hidden"), []byte("h"), 0o644)

	tree, err := s.ListTree(ctx, "")
	if err != nil {
		t.Fatal(err)
	}
	want := []string{"a", "a/sub", "a/sub/y.png", "a/x.txt", "z", "z/w.pdf", "b.txt"}
	if len(tree) != len(want) {
		t.Fatalf("got %d items %+v, want %v", len(tree), tree, want)
	}
	for i, w := range want {
		if tree[i].Path != w {
			t.Fatalf("item %d = %q, want %q (tree %+v)", i, tree[i].Path, w, tree)
		}
	}
	if tree[2].Depth != 2 || tree[2].Name != "y.png" {
		t.Fatalf("unexpected nested item %+v", tree[2])
	}

	sub, err := s.ListTree(ctx, "a")
	if err != nil {
		t.Fatal(err)
	}
	if len(sub) != 3 || sub[0].Path != "a/sub" || sub[0].Depth != 0 {
		t.Fatalf("unexpected subtree %+v", sub)
	}

	if _, err := s.ListTree(ctx, "missing"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestNormalizeRel(t *testing.T) {
	cases := map[string]string{
		"":            "",
		"/":           "",
		" a/b.png ":   "a/b.png",
		`a\b\c.pdf`:   "a/b/c.pdf",
		"/x/../y.mp4": "y.mp4",
		"./notes":     "notes",
	}
	for in, want := range cases {
		if got := NormalizeRel(in); got != want {
			t.Fatalf("NormalizeRel(%q) = %q, want %q", in, got, want)
		}
	}
}
