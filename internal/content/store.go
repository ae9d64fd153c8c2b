package content

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"io"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"
)

var (
	ErrOutsideRoot = errors.New("path outside root")
	ErrNotFound    = errors.New("not found")
	ErrConflict    = errors.New("conflict")
	ErrIsDir       = errors.New("is a directory")
)

// NoFile is the etag callers pass to Write when the file must not exist yet.
const NoFile = "none"

const tempPrefix = ".goopedit-"

// Store confines all file access to one workspace root.
type Store struct {
	root string
}

func NewStore(root string) (*Store, error) {
	abs, err := filepath.Abs(filepath.Clean(root))
	if err != nil {
		return nil, err
	}
	// Resolve the root itself so symlinked temp dirs (macOS /var) still pass
	// the escape checks.
	if p, err := filepath.EvalSymlinks(abs); err == nil {
		abs = p
	}
	return &Store{root: abs}, nil
}

type FileInfo struct {
	Path  string // root-relative, forward slashes
	Size  int64
	ETag  string // sha256:<hex>
	Mod   int64  // unix seconds
	IsDir bool
}

func (s *Store) RootAbs() string { return s.root }

func (s *Store) EnsureRoot() error {
	return os.MkdirAll(s.root, 0o755)
}

// Abs resolves rel inside the root, for callers that stream a file instead
// of reading it whole.
func (s *Store) Abs(rel string) (string, error) { return s.cleanAbs(rel) }

// Read returns bytes + etag.
func (s *Store) Read(ctx context.Context, rel string) ([]byte, string, error) {
	abs, err := s.cleanAbs(rel)
	if err != nil {
		return nil, "", err
	}
	if st, err := os.Stat(abs); err == nil && st.IsDir() {
		return nil, "", ErrIsDir
	}

	b, err := os.ReadFile(abs)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, "", ErrNotFound
		}
		return nil, "", err
	}
	return b, etagBytes(b), nil
}

func (s *Store) Stat(ctx context.Context, rel string) (FileInfo, error) {
	abs, err := s.cleanAbs(rel)
	if err != nil {
		return FileInfo{}, err
	}
	st, err := os.Stat(abs)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return FileInfo{}, ErrNotFound
		}
		return FileInfo{}, err
	}
	fi := FileInfo{
		Path:  normalizeRelPath(rel),
		Size:  st.Size(),
		Mod:   st.ModTime().Unix(),
		IsDir: st.IsDir(),
	}
	if !fi.IsDir {
		if fi.ETag, err = etagFile(abs); err != nil {
			return FileInfo{}, err
		}
	}
	return fi, nil
}

// Write replaces rel atomically and returns the new etag.
// A non-empty ifMatch must equal the current etag, or NoFile when the file
// is expected not to exist.
func (s *Store) Write(ctx context.Context, rel string, data []byte, ifMatch string) (string, error) {
	abs, err := s.cleanAbs(rel)
	if err != nil {
		return "", err
	}
	if abs == filepath.Clean(s.root) {
		return "", ErrIsDir
	}

	if ifMatch != "" {
		if err := s.checkETag(ctx, rel, ifMatch); err != nil {
			return "", err
		}
	}

	if st, err := os.Stat(abs); err == nil && st.IsDir() {
		return "", ErrConflict
	}

	dir := filepath.Dir(abs)
	if err := s.mkdirAllChecked(dir); err != nil {
		return "", err
	}
	if err := s.writeAtomic(dir, abs, data); err != nil {
		return "", err
	}
	return etagBytes(data), nil
}

func (s *Store) checkETag(ctx context.Context, rel, ifMatch string) error {
	_, cur, err := s.Read(ctx, rel)
	switch {
	case err == ErrNotFound:
		if ifMatch != NoFile {
			return ErrConflict
		}
		return nil
	case err != nil:
		return err
	case cur != ifMatch:
		return ErrConflict
	}
	return nil
}

// writeAtomic writes to a temp file in dir and renames it over abs.
func (s *Store) writeAtomic(dir, abs string, data []byte) error {
	f, err := os.CreateTemp(dir, tempPrefix+"*")
	if err != nil {
		return err
	}
	tmp := f.Name()

	if _, err := f.Write(data); err != nil {
		_ = f.Close()
		_ = os.Remove(tmp)
		return err
	}
	if err := f.Sync(); err != nil {
		_ = f.Close()
		_ = os.Remove(tmp)
		return err
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(tmp)
		return err
	}

	// Parents now exist; re-check that symlinks did not lead outside the root.
	if p, err := filepath.EvalSymlinks(tmp); err == nil && !s.within(p) {
		_ = os.Remove(tmp)
		return ErrOutsideRoot
	}

	if err := os.Rename(tmp, abs); err != nil {
		_ = os.Remove(tmp)
		return err
	}
	return nil
}

// TreeItem is a single node in a flattened tree listing.
type TreeItem struct {
	Path  string // root-relative, forward slashes, no leading slash
	Name  string
	IsDir bool
	Depth int // 0 = directly under the root
}

// ListTree returns a flattened tree under relDir ("" means root). Dot
// entries and in-flight temp files are skipped.
func (s *Store) ListTree(ctx context.Context, relDir string) ([]TreeItem, error) {
	absDir, err := s.cleanAbs(relDir)
	if err != nil {
		return nil, err
	}
	if _, err := os.Stat(absDir); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	baseRel := strings.TrimSuffix(normalizeRelPath(relDir), "/")

	var out []TreeItem
	err = filepath.WalkDir(absDir, func(p string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if p == absDir {
			return nil
		}
		if strings.HasPrefix(d.Name(), ".") {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}

		relLocal, err := filepath.Rel(absDir, p)
		if err != nil {
			return err
		}
		relLocal = filepath.ToSlash(relLocal)

		rel := relLocal
		if baseRel != "" {
			rel = baseRel + "/" + relLocal
		}

		out = append(out, TreeItem{
			Path:  rel,
			Name:  d.Name(),
			IsDir: d.IsDir(),
			Depth: strings.Count(relLocal, "/"),
		})
		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.Slice(out, func(i, j int) bool { return treeLess(out[i], out[j]) })
	return out, nil
}

// treeLess orders parents before children and, within one folder,
// directories before files, then by name.
func treeLess(a, b TreeItem) bool {
	as := strings.Split(a.Path, "/")
	bs := strings.Split(b.Path, "/")

	for k := 0; k < len(as) && k < len(bs); k++ {
		if as[k] == bs[k] {
			continue
		}
		// Diverging at the last segment of either side means siblings or
		// a file next to a directory in the same folder.
		aDir := k < len(as)-1 || a.IsDir
		bDir := k < len(bs)-1 || b.IsDir
		if aDir != bDir {
			return aDir
		}
		return as[k] < bs[k]
	}
	return len(as) < len(bs)
}

// --- safety boundary ---

func (s *Store) within(abs string) bool {
	rootClean := filepath.Clean(s.root)
	return abs == rootClean || strings.HasPrefix(abs, rootClean+string(filepath.Separator))
}

func (s *Store) cleanAbs(rel string) (string, error) {
	rel = strings.TrimSpace(rel)
	rel = strings.ReplaceAll(rel, `\`, "/")
	rel = strings.TrimPrefix(rel, "/")

	abs := filepath.Clean(filepath.Join(s.root, filepath.FromSlash(rel)))
	if !s.within(abs) {
		return "", ErrOutsideRoot
	}

	// prevent symlink escape on existing paths
	if p, err := filepath.EvalSymlinks(abs); err == nil && !s.within(p) {
		return "", ErrOutsideRoot
	}
	return abs, nil
}

// mkdirAllChecked creates directories but refuses if any component in the path is a file.
func (s *Store) mkdirAllChecked(absDir string) error {
	absDir = filepath.Clean(absDir)
	if !s.within(absDir) {
		return ErrOutsideRoot
	}

	rel, err := filepath.Rel(filepath.Clean(s.root), absDir)
	if err != nil {
		return err
	}
	if rel == "." {
		return nil
	}

	cur := filepath.Clean(s.root)
	for _, part := range strings.Split(rel, string(filepath.Separator)) {
		if part == "" {
			continue
		}
		cur = filepath.Join(cur, part)

		st, err := os.Stat(cur)
		switch {
		case err == nil && !st.IsDir():
			return ErrConflict
		case err == nil:
			continue
		case errors.Is(err, os.ErrNotExist):
			if mkErr := os.Mkdir(cur, 0o755); mkErr != nil && !errors.Is(mkErr, os.ErrExist) {
				return mkErr
			}
		default:
			return err
		}
	}
	return nil
}

// NormalizeRel cleans a root-relative path: forward slashes, no leading
// slash, "" for the root.
func NormalizeRel(p string) string { return normalizeRelPath(p) }

func normalizeRelPath(p string) string {
	p = strings.TrimSpace(p)
	p = strings.ReplaceAll(p, `\`, "/")
	p = strings.TrimPrefix(p, "/")
	p = path.Clean(p)
	if p == "." {
		return ""
	}
	return strings.TrimPrefix(p, "/")
}

func etagFile(abs string) (string, error) {
	f, err := os.Open(abs)
	if err != nil {
		return "", err
	}
	defer f.Close()
	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", err
	}
	return "sha256:" + hex.EncodeToString(h.Sum(nil)), nil
}

func etagBytes(b []byte) string {
	sum := sha256.Sum256(b)
	return "sha256:" + hex.EncodeToString(sum[:])
}
