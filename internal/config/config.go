package config

import (
	"bytes"
	"errors"
	"fmt"
	"net"
	"os"
	"strings"

	logging "github.com/ipfs/go-log/v2"
	"github.com/spf13/viper"

	"github.com/petervdpas/goopedit/internal/i18n"
	"github.com/petervdpas/goopedit/internal/util"
)

// FileName is the config file created inside the workspace directory.
const FileName = "goopedit.json"

// EnvPrefix prefixes environment overrides, e.g. GOOPEDIT_VIEWER_HTTP_ADDR.
const EnvPrefix = "GOOPEDIT"

type Config struct {
	Workspace Workspace `json:"workspace" mapstructure:"workspace"`
	Viewer    Viewer    `json:"viewer" mapstructure:"viewer"`
	Editor    Editor    `json:"editor" mapstructure:"editor"`
	Watch     Watch     `json:"watch" mapstructure:"watch"`
	Log       Log       `json:"log" mapstructure:"log"`
}

type Workspace struct {
	// Directory served as the file tree. Relative to the config file's directory.
	Root string `json:"root" mapstructure:"root"`

	// SQLite file holding the editor session. Relative to the config file's directory.
	StateDB string `json:"state_db" mapstructure:"state_db"`
}

type Viewer struct {
	HTTPAddr string `json:"http_addr" mapstructure:"http_addr"`
	Debug    bool   `json:"debug" mapstructure:"debug"`
	Theme    string `json:"theme" mapstructure:"theme"`
	Lang     string `json:"lang" mapstructure:"lang"` // used when the browser sends no Accept-Language
}

type Editor struct {
	AllowEditing bool `json:"allow_editing" mapstructure:"allow_editing"`

	// Extensions the content pane opens in addition to the built-in media set.
	ExtraSupportedExts []string `json:"extra_supported_exts" mapstructure:"extra_supported_exts"`

	// 0 = unlimited.
	MaxDraftBytes int `json:"max_draft_bytes" mapstructure:"max_draft_bytes"`
}

type Watch struct {
	Enabled bool `json:"enabled" mapstructure:"enabled"`
}

type Log struct {
	Level  string `json:"level" mapstructure:"level"`
	Buffer int    `json:"buffer" mapstructure:"buffer"` // lines kept for /api/logs
}

func Default() Config {
	return Config{
		Workspace: Workspace{
			Root:    ".",
			StateDB: ".goopedit/state.db",
		},
		Viewer: Viewer{
			HTTPAddr: "127.0.0.1:8790",
			Debug:    false,
			Theme:    "dark",
			Lang:     "en",
		},
		Editor: Editor{
			AllowEditing:       true,
			ExtraSupportedExts: []string{},
			MaxDraftBytes:      8 << 20,
		},
		Watch: Watch{
			Enabled: true,
		},
		Log: Log{
			Level:  "info",
			Buffer: 500,
		},
	}
}

func (c *Config) Validate() error {
	// Workspace
	if strings.TrimSpace(c.Workspace.Root) == "" {
		return errors.New("workspace.root is required")
	}
	if strings.TrimSpace(c.Workspace.StateDB) == "" {
		return errors.New("workspace.state_db is required")
	}

	// Viewer
	if strings.TrimSpace(c.Viewer.HTTPAddr) == "" {
		return errors.New("viewer.http_addr is required")
	}
	if _, _, err := net.SplitHostPort(c.Viewer.HTTPAddr); err != nil {
		return fmt.Errorf("viewer.http_addr: %w", err)
	}
	if c.Viewer.Theme != "dark" && c.Viewer.Theme != "light" {
		return errors.New("viewer.theme must be dark or light")
	}
	if c.Viewer.Lang != "" && !i18n.Supported(c.Viewer.Lang) {
		return fmt.Errorf("viewer.lang %q is not supported", c.Viewer.Lang)
	}

	// Editor
	if c.Editor.MaxDraftBytes < 0 {
		return errors.New("editor.max_draft_bytes must be >= 0")
	}
	for _, e := range c.Editor.ExtraSupportedExts {
		e = strings.TrimPrefix(strings.TrimSpace(e), ".")
		if e == "" || strings.ContainsAny(e, `./\ `) {
			return fmt.Errorf("editor.extra_supported_exts: invalid extension %q", e)
		}
	}

	// Log
	if _, err := logging.LevelFromString(c.Log.Level); err != nil {
		return fmt.Errorf("log.level: %w", err)
	}
	if c.Log.Buffer <= 0 {
		return errors.New("log.buffer must be > 0")
	}

	return nil
}

// newViper registers every key with its default so that env overrides reach
// Unmarshal.
func newViper() *viper.Viper {
	d := Default()
	v := viper.New()
	v.SetDefault("workspace.root", d.Workspace.Root)
	v.SetDefault("workspace.state_db", d.Workspace.StateDB)
	v.SetDefault("viewer.http_addr", d.Viewer.HTTPAddr)
	v.SetDefault("viewer.debug", d.Viewer.Debug)
	v.SetDefault("viewer.theme", d.Viewer.Theme)
	v.SetDefault("viewer.lang", d.Viewer.Lang)
	v.SetDefault("editor.allow_editing", d.Editor.AllowEditing)
	v.SetDefault("editor.extra_supported_exts", d.Editor.ExtraSupportedExts)
	v.SetDefault("editor.max_draft_bytes", d.Editor.MaxDraftBytes)
	v.SetDefault("watch.enabled", d.Watch.Enabled)
	v.SetDefault("log.level", d.Log.Level)
	v.SetDefault("log.buffer", d.Log.Buffer)

	v.SetConfigType("json")
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

func Load(path string) (Config, error) {
	cfg, err := LoadPartial(path)
	if err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// LoadPartial reads a config file and env overrides without validation.
func LoadPartial(path string) (Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return Config{}, err
	}

	// Strip UTF-8 BOM if present (common when editing JSON on Windows).
	b = stripBOM(b)

	v := newViper()
	if err := v.ReadConfig(bytes.NewReader(b)); err != nil {
		return Config{}, fmt.Errorf("parse %s: %w", path, err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}
	return cfg, nil
}

// stripBOM removes a UTF-8 byte order mark if present.
func stripBOM(b []byte) []byte {
	if len(b) >= 3 && b[0] == 0xEF && b[1] == 0xBB && b[2] == 0xBF {
		return b[3:]
	}
	return b
}

func Save(path string, cfg Config) error {
	if err := cfg.Validate(); err != nil {
		return err
	}

	return util.WriteJSONFile(path, cfg)
}

// Ensure loads config if it exists; otherwise creates a default config file.
// Returns (cfg, createdNew, err).
func Ensure(path string) (Config, bool, error) {
	if _, err := os.Stat(path); err == nil {
		cfg, err := Load(path)
		return cfg, false, err
	} else if !os.IsNotExist(err) {
		return Config{}, false, err
	}

	if err := Save(path, Default()); err != nil {
		return Config{}, false, fmt.Errorf("create default config: %w", err)
	}
	cfg, err := Load(path)
	return cfg, true, err
}
