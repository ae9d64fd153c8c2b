// Package watch reports changes under a workspace root so the file tree can
// be reloaded.
package watch

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	logging "github.com/ipfs/go-log/v2"
)

var log = logging.Logger("goopedit/watch")

// DefaultDebounce coalesces bursts such as an editor's write-rename save.
const DefaultDebounce = 150 * time.Millisecond

// Watcher watches a directory tree recursively. Dot entries are ignored.
type Watcher struct {
	root     string
	onChange func()
	debounce time.Duration

	w      *fsnotify.Watcher
	mu     sync.Mutex
	timer  *time.Timer
	closed chan struct{}
	done   chan struct{}
}

// New starts watching root. onChange runs on its own goroutine at most once
// per debounce window.
func New(root string, debounce time.Duration, onChange func()) (*Watcher, error) {
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create fsnotify watcher: %w", err)
	}
	w := &Watcher{
		root:     root,
		onChange: onChange,
		debounce: debounce,
		w:        fw,
		closed:   make(chan struct{}),
		done:     make(chan struct{}),
	}
	if err := w.addTree(root); err != nil {
		fw.Close()
		return nil, err
	}
	go w.loop()
	log.Infof("watching %s", root)
	return w, nil
}

// Close stops the watcher and waits for the event loop to exit.
func (w *Watcher) Close() error {
	select {
	case <-w.closed:
		return nil
	default:
	}
	close(w.closed)
	err := w.w.Close()
	<-w.done

	w.mu.Lock()
	if w.timer != nil {
		w.timer.Stop()
	}
	w.mu.Unlock()
	return err
}

func (w *Watcher) addTree(dir string) error {
	return filepath.WalkDir(dir, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			if p == dir {
				return err
			}
			return nil
		}
		if !d.IsDir() {
			return nil
		}
		if p != dir && hidden(d.Name()) {
			return filepath.SkipDir
		}
		if err := w.w.Add(p); err != nil {
			return fmt.Errorf("watch %s: %w", p, err)
		}
		return nil
	})
}

func (w *Watcher) loop() {
	defer close(w.done)
	for {
		select {
		case <-w.closed:
			return
		case ev, ok := <-w.w.Events:
			if !ok {
				return
			}
			if hidden(filepath.Base(ev.Name)) {
				continue
			}
			if ev.Op&fsnotify.Create != 0 {
				if fi, err := os.Stat(ev.Name); err == nil && fi.IsDir() {
					if err := w.addTree(ev.Name); err != nil {
						log.Warnf("add %s: %v", ev.Name, err)
					}
				}
			}
			if ev.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Remove|fsnotify.Rename) != 0 {
				log.Debugf("%s %s", ev.Op, ev.Name)
				w.schedule()
			}
		case err, ok := <-w.w.Errors:
			if !ok {
				return
			}
			log.Warnf("watcher error: %v", err)
		}
	}
}

func (w *Watcher) schedule() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.timer != nil {
		w.timer.Reset(w.debounce)
		return
	}
	w.timer = time.AfterFunc(w.debounce, func() {
		select {
		case <-w.closed:
			return
		default:
		}
		if w.onChange != nil {
			w.onChange()
		}
	})
}

func hidden(name string) bool {
	return strings.HasPrefix(name, ".")
}
