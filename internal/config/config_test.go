package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), FileName)
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestDefaultIsValid(t *testing.T) {
	cfg := Default()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config invalid: %v", err)
	}
}

func TestLoadKeepsDefaultsForMissingFields(t *testing.T) {
	path := writeConfig(t, `{"editor": {"allow_editing": false}, "viewer": {"theme": "light"}}`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Editor.AllowEditing {
		t.Fatalf("expected allow_editing=false from file")
	}
	if cfg.Viewer.Theme != "light" {
		t.Fatalf("expected theme light, got %q", cfg.Viewer.Theme)
	}
	def := Default()
	if cfg.Viewer.HTTPAddr != def.Viewer.HTTPAddr || cfg.Editor.MaxDraftBytes != def.Editor.MaxDraftBytes {
		t.Fatalf("missing fields should keep defaults: %+v", cfg)
	}
}

func TestLoadStripsBOM(t *testing.T) {
	path := writeConfig(t, "\xEF\xBB\xBF"+`{"log": {"level": "debug"}}`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Log.Level != "debug" {
		t.Fatalf("expected debug, got %q", cfg.Log.Level)
	}
}

func TestEnvOverrides(t *testing.T) {
	path := writeConfig(t, `{"viewer": {"http_addr": "127.0.0.1:9000"}}`)
	t.Setenv("GOOPEDIT_VIEWER_HTTP_ADDR", "127.0.0.1:9100")
	t.Setenv("GOOPEDIT_EDITOR_ALLOW_EDITING", "false")
	t.Setenv("GOOPEDIT_EDITOR_EXTRA_SUPPORTED_EXTS", "md,txt")

	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Viewer.HTTPAddr != "127.0.0.1:9100" {
		t.Fatalf("env should override file, got %q", cfg.Viewer.HTTPAddr)
	}
	if cfg.Editor.AllowEditing {
		t.Fatalf("env should disable editing")
	}
	if strings.Join(cfg.Editor.ExtraSupportedExts, ",") != "md,txt" {
		t.Fatalf("unexpected extra exts %v", cfg.Editor.ExtraSupportedExts)
	}
}

func TestValidateRejects(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*Config)
		want   string
	}{
		{"empty root", func(c *Config) { c.Workspace.Root = " " }, "workspace.root"},
		{"empty db", func(c *Config) { c.Workspace.StateDB = "" }, "workspace.state_db"},
		{"bad addr", func(c *Config) { c.Viewer.HTTPAddr = "localhost" }, "viewer.http_addr"},
		{"bad theme", func(c *Config) { c.Viewer.Theme = "blue" }, "viewer.theme"},
		{"bad lang", func(c *Config) { c.Viewer.Lang = "!!" }, "viewer.lang"},
		{"negative draft", func(c *Config) { c.Editor.MaxDraftBytes = -1 }, "editor.max_draft_bytes"},
		{"bad ext", func(c *Config) { c.Editor.ExtraSupportedExts = []string{"tar.gz"} }, "extra_supported_exts"},
		{"bad level", func(c *Config) { c.Log.Level = "loud" }, "log.level"},
		{"zero buffer", func(c *Config) { c.Log.Buffer = 0 }, "log.buffer"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := Default()
			tc.mutate(&cfg)
			err := cfg.Validate()
			if err == nil || !strings.Contains(err.Error(), tc.want) {
				t.Fatalf("expected error mentioning %q, got %v", tc.want, err)
			}
		})
	}
}

func TestEnsureCreatesDefault(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", FileName)

	cfg, created, err := Ensure(path)
	if err != nil {
		t.Fatal(err)
	}
	if !created {
		t.Fatalf("expected a new config file")
	}
	if cfg.Viewer.HTTPAddr != Default().Viewer.HTTPAddr {
		t.Fatalf("unexpected cfg %+v", cfg)
	}
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("config not written: %v", err)
	}

	_, created, err = Ensure(path)
	if err != nil || created {
		t.Fatalf("second Ensure should load, got created=%v err=%v", created, err)
	}
}
