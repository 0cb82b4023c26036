package persist

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestStoreGetMissing(t *testing.T) {
	store, err := NewStore(t.TempDir())
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	_, ok, err := store.Get("inkwell_projects")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if ok {
		t.Fatalf("expected missing key")
	}
}

func TestStoreSetGetRoundTrip(t *testing.T) {
	dir := t.TempDir()
	store, err := NewStore(dir)
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	if err := store.Set("inkwell_settings", []byte(`{"fontSize":16}`)); err != nil {
		t.Fatalf("set: %v", err)
	}
	got, ok, err := store.Get("inkwell_settings")
	if err != nil || !ok {
		t.Fatalf("get: ok=%v err=%v", ok, err)
	}
	if string(got) != `{"fontSize":16}` {
		t.Fatalf("unexpected value %q", got)
	}
	info, err := os.Stat(filepath.Join(dir, "inkwell_settings.json"))
	if err != nil {
		t.Fatalf("stat: %v", err)
	}
	if info.Mode().Perm() != 0o600 {
		t.Fatalf("expected 0600, got %v", info.Mode().Perm())
	}
}

func TestStoreKeysAndDelete(t *testing.T) {
	dir := t.TempDir()
	store, err := NewStore(dir)
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	for _, key := range []string{"b", "a", "c"} {
		if err := store.Set(key, []byte("1")); err != nil {
			t.Fatalf("set %s: %v", key, err)
		}
	}
	if err := os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("x"), 0o600); err != nil {
		t.Fatalf("write stray file: %v", err)
	}
	keys, err := store.Keys()
	if err != nil {
		t.Fatalf("keys: %v", err)
	}
	if diff := cmp.Diff([]string{"a", "b", "c"}, keys); diff != "" {
		t.Fatalf("unexpected keys (-want +got):\n%s", diff)
	}
	if err := store.Delete("b"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if err := store.Delete("missing"); err != nil {
		t.Fatalf("delete missing: %v", err)
	}
	if _, ok, _ := store.Get("b"); ok {
		t.Fatalf("expected deleted key to be missing")
	}
}

func TestStoreSanitizesKeys(t *testing.T) {
	dir := t.TempDir()
	store, err := NewStore(dir)
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	if err := store.Set("../escape/key", []byte("x")); err != nil {
		t.Fatalf("set: %v", err)
	}
	if _, err := os.Stat(filepath.Join(dir, ".._escape_key.json")); err != nil {
		t.Fatalf("expected sanitized file: %v", err)
	}
}

func TestNewStoreRequiresDir(t *testing.T) {
	if _, err := NewStore("  "); err == nil {
		t.Fatalf("expected error for blank dir")
	}
}

func TestMemoryCopiesValues(t *testing.T) {
	m := NewMemory()
	value := []byte("abc")
	if err := m.Set("k", value); err != nil {
		t.Fatalf("set: %v", err)
	}
	value[0] = 'z'
	got, ok, _ := m.Get("k")
	if !ok || string(got) != "abc" {
		t.Fatalf("expected stored copy, got %q ok=%v", got, ok)
	}
	got[1] = 'z'
	again, _, _ := m.Get("k")
	if string(again) != "abc" {
		t.Fatalf("get returned shared slice")
	}
	_ = m.Delete("k")
	keys, _ := m.Keys()
	if len(keys) != 0 {
		t.Fatalf("expected no keys, got %v", keys)
	}
}
