package app

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"

	"github.com/petervdpas/goopedit/internal/config"
	"github.com/petervdpas/goopedit/internal/content"
	"github.com/petervdpas/goopedit/internal/docs"
	"github.com/petervdpas/goopedit/internal/filetypes"
	"github.com/petervdpas/goopedit/internal/session"
	"github.com/petervdpas/goopedit/internal/storage"
	"github.com/petervdpas/goopedit/internal/util"
	"github.com/petervdpas/goopedit/internal/viewer"
	"github.com/petervdpas/goopedit/internal/watch"
	"github.com/petervdpas/goopedit/internal/workspace"
)

type Options struct {
	Dir     string // directory holding the config file
	CfgPath string
	Cfg     config.Config

	// Stderr receives a copy of the log. nil means os.Stderr.
	Stderr io.Writer
}

// env is the wired workspace shared by serve and inspect.
type env struct {
	DB        *storage.DB
	Workspace *workspace.Service
}

func (e *env) Close() error {
	if e.DB == nil {
		return nil
	}
	return e.DB.Close()
}

func openWorkspace(dir string, cfg config.Config) (*env, error) {
	root := util.ResolvePath(dir, cfg.Workspace.Root)
	cs, err := content.NewStore(root)
	if err != nil {
		return nil, fmt.Errorf("open workspace root: %w", err)
	}
	if err := cs.EnsureRoot(); err != nil {
		return nil, fmt.Errorf("create workspace root: %w", err)
	}

	db, err := storage.Open(util.ResolvePath(dir, cfg.Workspace.StateDB))
	if err != nil {
		return nil, err
	}

	ss, err := session.Open(session.Options{
		Root:           cs.RootAbs(),
		EditingAllowed: cfg.Editor.AllowEditing,
		MaxDraftBytes:  cfg.Editor.MaxDraftBytes,
		DB:             db,
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("open session: %w", err)
	}

	pred := filetypes.NewPredicate(cfg.Editor.ExtraSupportedExts)
	return &env{DB: db, Workspace: workspace.New(cs, ss, pred)}, nil
}

// Run serves the workspace until ctx is cancelled.
func Run(ctx context.Context, opt Options) error {
	cfg := opt.Cfg

	stderr := opt.Stderr
	if stderr == nil {
		stderr = os.Stderr
	}
	logBuf := viewer.NewLogBuffer(cfg.Log.Buffer)
	log.SetOutput(io.MultiWriter(stderr, logBuf))

	if err := setLogLevels(cfg.Log.Level); err != nil {
		return err
	}
	logBanner(opt.Dir, opt.CfgPath)

	e, err := openWorkspace(opt.Dir, cfg)
	if err != nil {
		return err
	}
	defer e.Close()
	ws := e.Workspace

	if cfg.Watch.Enabled {
		w, err := watch.New(ws.Content.RootAbs(), watch.DefaultDebounce, func() {
			log.Printf("WATCH: workspace changed")
			ws.Session.TreeChanged()
		})
		if err != nil {
			return err
		}
		defer w.Close()
	}

	site, err := docs.Load()
	if err != nil {
		return fmt.Errorf("load help: %w", err)
	}

	return viewer.Start(ctx, cfg.Viewer.HTTPAddr, viewer.Viewer{
		Workspace: ws,
		DB:        e.DB,
		Docs:      site,
		Logs:      logBuf,
		Debug:     cfg.Viewer.Debug,
		Theme:     cfg.Viewer.Theme,
		Lang:      cfg.Viewer.Lang,
	})
}
