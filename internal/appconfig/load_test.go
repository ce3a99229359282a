package appconfig

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestLoadRejectsUnsupportedConfigVersion(t *testing.T) {
	path := writeConfig(t, `
config_version: 2
capture:
  backend: kitty
`)
	if _, err := Load(path); err == nil || !strings.Contains(err.Error(), "unsupported config_version") {
		t.Fatalf("expected config_version error, got %v", err)
	}
}

func TestLoadRejectsMissingConfigVersion(t *testing.T) {
	path := writeConfig(t, `
capture:
  backend: kitty
`)
	if _, err := Load(path); err == nil || !strings.Contains(err.Error(), "config_version is required") {
		t.Fatalf("expected config_version error, got %v", err)
	}
}

func TestLoadRejectsUnsupportedBackend(t *testing.T) {
	path := writeConfig(t, `
config_version: 1
capture:
  backend: xterm
`)
	if _, err := Load(path); err == nil || !strings.Contains(err.Error(), "unsupported capture.backend") {
		t.Fatalf("expected backend error, got %v", err)
	}
}

func TestLoadRejectsBadBits(t *testing.T) {
	path := writeConfig(t, `
config_version: 1
render:
  bits: 7
`)
	if _, err := Load(path); err == nil || !strings.Contains(err.Error(), "render.bits") {
		t.Fatalf("expected bits error, got %v", err)
	}
}

func TestLoadRejectsDrainCapBelowSettleWindow(t *testing.T) {
	path := writeConfig(t, `
config_version: 1
helper:
  settle_window_ms: 100
  max_drain_ms: 50
`)
	if _, err := Load(path); err == nil || !strings.Contains(err.Error(), "max_drain_ms") {
		t.Fatalf("expected drain cap error, got %v", err)
	}
}

func TestLoadAppliesOverridesOverDefaults(t *testing.T) {
	path := writeConfig(t, `
config_version: 1
capture:
  backend: wezterm
  rows: 50
helper:
  settle_window_ms: 30
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Capture.Backend != "wezterm" {
		t.Fatalf("backend = %q", cfg.Capture.Backend)
	}
	if cfg.Capture.Rows != 50 {
		t.Fatalf("rows = %d", cfg.Capture.Rows)
	}
	if cfg.Capture.Columns != 80 {
		t.Fatalf("columns default lost: %d", cfg.Capture.Columns)
	}
	if cfg.Helper.SettleWindowMS != 30 || cfg.Helper.MaxDrainMS != 2000 {
		t.Fatalf("helper = %+v", cfg.Helper)
	}
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Capture.Backend != "kitty" || cfg.Capture.Columns != 80 {
		t.Fatalf("defaults not applied: %+v", cfg.Capture)
	}
}

func TestExpandEnv(t *testing.T) {
	t.Setenv("FOO", "bar")
	value := expandEnv("$FOO/$UID/$GID/$MISSING")
	if !strings.HasPrefix(value, "bar/") {
		t.Fatalf("expected env expansion, got %q", value)
	}
	if strings.Contains(value, "$UID") || strings.Contains(value, "$GID") {
		t.Fatalf("expected UID/GID expansion, got %q", value)
	}
	if !strings.HasSuffix(value, "/$MISSING") {
		t.Fatalf("expected missing vars to remain, got %q", value)
	}
}

func TestWriteDefaultRespectsOverwrite(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	written, err := WriteDefault(path, false)
	if err != nil {
		t.Fatalf("write default: %v", err)
	}
	if written != path {
		t.Fatalf("expected path %q, got %q", path, written)
	}
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("expected config to exist: %v", err)
	}
	if _, err := WriteDefault(path, false); err == nil {
		t.Fatalf("expected error when config exists")
	}
	if _, err := WriteDefault(path, true); err != nil {
		t.Fatalf("expected overwrite to succeed: %v", err)
	}
}

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte(strings.TrimSpace(content)+"\n"), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}
