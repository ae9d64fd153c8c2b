// main.go
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/petervdpas/goopedit/internal/app"
	"github.com/petervdpas/goopedit/internal/config"
)

var (
	showHelp = flag.Bool("h", false, "Show help")
	version  = flag.Bool("version", false, "Show version")
)

// appVersion is set at build time via -ldflags "-X main.appVersion=x.y.z"
var appVersion = "dev"

func main() {
	flag.Parse()

	if *version {
		fmt.Printf("goopedit v%s\n", appVersion)
		return
	}

	if *showHelp {
		showUsage()
		return
	}

	args := flag.Args()
	if len(args) == 0 {
		showUsage()
		os.Exit(1)
	}

	switch args[0] {
	case "serve":
		if len(args) < 2 {
			fmt.Fprintln(os.Stderr, "Error: serve command requires directory path")
			fmt.Fprintln(os.Stderr, "Usage: goopedit serve <workspace-directory>")
			os.Exit(1)
		}
		runServe(args[1])

	case "inspect":
		if len(args) < 2 {
			fmt.Fprintln(os.Stderr, "Error: inspect command requires directory path")
			fmt.Fprintln(os.Stderr, "Usage: goopedit inspect <workspace-directory> [path]")
			os.Exit(1)
		}
		path := ""
		if len(args) > 2 {
			path = args[2]
		}
		runInspect(args[1], path)

	default:
		fmt.Fprintf(os.Stderr, "Error: unknown command '%s'\n", args[0])
		fmt.Fprintln(os.Stderr)
		showUsage()
		os.Exit(1)
	}
}

// loadWorkspace resolves dir and loads (or creates) its goopedit.json.
func loadWorkspace(dirArg string) (string, string, config.Config) {
	absDir, err := filepath.Abs(dirArg)
	if err != nil {
		log.Fatalf("Invalid workspace directory: %v", err)
	}
	if stat, err := os.Stat(absDir); err != nil || !stat.IsDir() {
		log.Fatalf("Workspace directory does not exist: %s", absDir)
	}

	cfgPath := filepath.Join(absDir, config.FileName)
	cfg, created, err := config.Ensure(cfgPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if created {
		log.Printf("Created default config: %s", cfgPath)
	}
	return absDir, cfgPath, cfg
}

func runServe(dirArg string) {
	absDir, cfgPath, cfg := loadWorkspace(dirArg)
	printBanner(absDir, cfgPath, cfg)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

	go func() {
		<-sigCh
		log.Println("\nShutting down gracefully...")
		cancel()
	}()

	if err := app.Run(ctx, app.Options{
		Dir:     absDir,
		CfgPath: cfgPath,
		Cfg:     cfg,
	}); err != nil {
		log.Fatalf("Workspace server failed: %v", err)
	}
}

func runInspect(dirArg, path string) {
	absDir, _, cfg := loadWorkspace(dirArg)
	if err := app.Inspect(os.Stdout, absDir, cfg, path); err != nil {
		log.Fatalf("Inspect failed: %v", err)
	}
}

func showUsage() {
	fmt.Println("goopedit - file editing workspace")
	fmt.Println()
	fmt.Println("Usage:")
	fmt.Println("  goopedit serve <directory>            Serve the workspace in a browser")
	fmt.Println("  goopedit inspect <directory> [path]   Show how a file would be displayed")
	fmt.Println()
	fmt.Println("Commands:")
	fmt.Println("  serve <directory>")
	fmt.Println("        Serve the directory's file tree and editor panel over HTTP")
	fmt.Println("        A default goopedit.json is created when missing")
	fmt.Println()
	fmt.Println("  inspect <directory> [path]")
	fmt.Println("        Print the save button state and content pane for path")
	fmt.Println("        Without path, the last selected file is shown")
	fmt.Println()
	fmt.Println("Options:")
	fmt.Println("  -h        Show this help message")
	fmt.Println("  -version  Show version information")
	fmt.Println()
	fmt.Println("Environment:")
	fmt.Println("  GOOPEDIT_VIEWER_HTTP_ADDR, GOOPEDIT_EDITOR_ALLOW_EDITING, ...")
	fmt.Println("        Override any goopedit.json key (dots become underscores)")
	fmt.Println()
	fmt.Println("Examples:")
	fmt.Println("  goopedit serve ./notes")
	fmt.Println("  goopedit inspect ./notes media/intro.mp4")
}

func printBanner(dir, cfgPath string, cfg config.Config) {
	fmt.Println("╔════════════════════════════════════════════════════════╗")
	fmt.Println("║                        goopedit                        ║")
	fmt.Println("╚════════════════════════════════════════════════════════╝")
	fmt.Println()
	fmt.Printf("Workspace:      %s\n", dir)
	fmt.Printf("Config File:    %s\n", cfgPath)
	fmt.Printf("Editing:        %v\n", cfg.Editor.AllowEditing)
	fmt.Println()

	viewerURL := cfg.Viewer.HTTPAddr
	if viewerURL[0] == ':' {
		viewerURL = "127.0.0.1" + viewerURL
	}
	fmt.Printf("🌐 Editor:  http://%s\n", viewerURL)
	fmt.Println()

	fmt.Println("Starting workspace... (Press Ctrl+C to stop)")
	fmt.Println("────────────────────────────────────────────────────────")
	fmt.Println()
}
