package appconfig

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	want, _ := DefaultConfig()
	if cfg.Completion.Model != want.Completion.Model || cfg.HTTP.Addr != want.HTTP.Addr {
		t.Fatalf("expected defaults, got %+v", cfg)
	}
}

func TestLoadOverridesAndExpands(t *testing.T) {
	t.Setenv("INKWELL_TEST_ROOT", "/srv/ink")
	path := writeConfig(t, `
config_version: 1
state_dir: $INKWELL_TEST_ROOT/state
completion:
  model: gpt-4o
  price_input_per_million: 2.5
editor:
  save_debounce_ms: 500
http:
  addr: 127.0.0.1:9999
secrets:
  enabled: false
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.StateDir != "/srv/ink/state" {
		t.Fatalf("expected expanded state dir, got %q", cfg.StateDir)
	}
	if cfg.Completion.Model != "gpt-4o" || cfg.Completion.PriceInputPerMillion != 2.5 {
		t.Fatalf("unexpected completion config %+v", cfg.Completion)
	}
	if cfg.Completion.PriceOutputPerMillion != 0.60 || cfg.Completion.MaxTokens != 2048 {
		t.Fatalf("expected untouched defaults, got %+v", cfg.Completion)
	}
	if cfg.Editor.SaveDebounceMS != 500 || cfg.Editor.AutosaveIntervalSeconds != 30 {
		t.Fatalf("unexpected editor config %+v", cfg.Editor)
	}
	if cfg.HTTP.Addr != "127.0.0.1:9999" || cfg.Secrets.Enabled {
		t.Fatalf("unexpected http/secrets config %+v %+v", cfg.HTTP, cfg.Secrets)
	}
}

func TestLoadRejectsUnsupportedConfigVersion(t *testing.T) {
	path := writeConfig(t, `
config_version: 7
`)
	if _, err := Load(path); err == nil || !strings.Contains(err.Error(), "unsupported config_version") {
		t.Fatalf("expected config_version error, got %v", err)
	}
}

func TestLoadRequiresConfigVersion(t *testing.T) {
	path := writeConfig(t, `
state_dir: /tmp/inkwell
`)
	if _, err := Load(path); err == nil || !strings.Contains(err.Error(), "config_version is required") {
		t.Fatalf("expected missing config_version error, got %v", err)
	}
}

func TestLoadRejectsCredentialInConfig(t *testing.T) {
	path := writeConfig(t, `
config_version: 1
completion:
  api_key: sk-nope
`)
	if _, err := Load(path); err == nil || !strings.Contains(err.Error(), "completion.api_key") {
		t.Fatalf("expected api_key error, got %v", err)
	}
}

func TestLoadRejectsInvalidBaseURL(t *testing.T) {
	path := writeConfig(t, `
config_version: 1
completion:
  base_url: api.openai.com
`)
	if _, err := Load(path); err == nil || !strings.Contains(err.Error(), "completion.base_url") {
		t.Fatalf("expected base_url error, got %v", err)
	}
}

func TestLoadRejectsTemperature(t *testing.T) {
	path := writeConfig(t, `
config_version: 1
completion:
  temperature: 3
`)
	if _, err := Load(path); err == nil || !strings.Contains(err.Error(), "temperature") {
		t.Fatalf("expected temperature error, got %v", err)
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

func TestExpandEnvHome(t *testing.T) {
	home, err := os.UserHomeDir()
	if err != nil {
		t.Skip("no home directory")
	}
	if got := expandEnv("~/notes"); got != filepath.Join(home, "notes") {
		t.Fatalf("expected home expansion, got %q", got)
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
	if _, err := Load(path); err != nil {
		t.Fatalf("expected written default to load: %v", err)
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
