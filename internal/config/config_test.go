package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestPath_RespectsXDGConfigHome(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", "/custom/config")

	path := Path()
	want := "/custom/config/retitle/config.yml"
	if path != want {
		t.Errorf("Path() = %q, want %q", path, want)
	}
}

func TestPath_DefaultsToHomeConfig(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", "")
	home, err := os.UserHomeDir()
	if err != nil {
		t.Skip("cannot get home directory")
	}

	path := Path()
	want := filepath.Join(home, ".config", "retitle", "config.yml")
	if path != want {
		t.Errorf("Path() = %q, want %q", path, want)
	}
}

func TestLoad_MissingFileReturnsDefaults(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg != Default() {
		t.Errorf("Load() = %+v, want defaults %+v", cfg, Default())
	}
}

func TestLoad_FileOverridesOnlyPresentKeys(t *testing.T) {
	tmp := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", tmp)

	dir := filepath.Join(tmp, GlobalConfigDir)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatal(err)
	}
	content := "style: suffix\ncrossref:\n  enabled: false\n  mailto: lab@example.org\n"
	if err := os.WriteFile(filepath.Join(dir, GlobalConfigFile), []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Style != StyleSuffix {
		t.Errorf("Style = %q, want %q", cfg.Style, StyleSuffix)
	}
	if cfg.Crossref.Enabled {
		t.Error("Crossref.Enabled = true, want false")
	}
	if cfg.Crossref.Mailto != "lab@example.org" {
		t.Errorf("Mailto = %q, want %q", cfg.Crossref.Mailto, "lab@example.org")
	}
	// Keys absent from the file keep defaults.
	if cfg.MaxLen != 140 {
		t.Errorf("MaxLen = %d, want 140", cfg.MaxLen)
	}
	if cfg.Crossref.Timeout != 20 {
		t.Errorf("Timeout = %d, want 20", cfg.Crossref.Timeout)
	}
}

func TestLoad_RejectsInvalidStyle(t *testing.T) {
	tmp := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", tmp)

	dir := filepath.Join(tmp, GlobalConfigDir)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, GlobalConfigFile), []byte("style: infix\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	if _, err := Load(); err == nil {
		t.Fatal("expected error for invalid style")
	}
}

func TestSaveLoad_RoundTrip(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())

	cfg := Default()
	cfg.Style = StyleSuffix
	cfg.MaxLen = 80
	cfg.Crossref.Mailto = "ops@example.org"
	if err := cfg.Save(); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	loaded, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if loaded != cfg {
		t.Errorf("round trip mismatch: got %+v, want %+v", loaded, cfg)
	}
}

func TestSettings_SetValidatesValues(t *testing.T) {
	tests := []struct {
		key     string
		value   string
		wantErr bool
	}{
		{"style", "suffix", false},
		{"style", "sideways", true},
		{"maxlen", "100", false},
		{"maxlen", "5", true},
		{"maxlen", "abc", true},
		{"pages", "3", false},
		{"pages", "0", true},
		{"workers", "8", false},
		{"unmatched-dir", "_skipped", false},
		{"unmatched_dir", "_skipped", false},
		{"unmatched-dir", "a/b", true},
		{"crossref", "false", false},
		{"crossref", "maybe", true},
		{"mailto", "me@example.org", false},
		{"timeout", "30", false},
		{"rate-limit", "2.5", false},
		{"rate-limit", "-1", true},
		{"log-format", "json", false},
		{"log-format", "xml", true},
		{"nonsense", "x", true},
	}

	for _, tt := range tests {
		cfg := Default()
		err := cfg.Set(tt.key, tt.value)
		if tt.wantErr && err == nil {
			t.Errorf("Set(%q, %q) expected error, got nil", tt.key, tt.value)
		}
		if !tt.wantErr && err != nil {
			t.Errorf("Set(%q, %q) unexpected error: %v", tt.key, tt.value, err)
		}
	}
}

func TestSettings_GetEveryListedKey(t *testing.T) {
	cfg := Default()
	for _, key := range Keys() {
		if _, err := cfg.Get(key); err != nil {
			t.Errorf("Get(%q) unexpected error: %v", key, err)
		}
	}
	if _, err := cfg.Get("nonsense"); err == nil {
		t.Error("Get(nonsense) expected error, got nil")
	}
}
