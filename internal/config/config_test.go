package config

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"
)

func TestDefaultConfigIsValid(t *testing.T) {
	if err := DefaultConfig().Validate(); err != nil {
		t.Fatalf("DefaultConfig().Validate() error = %v", err)
	}
}

func TestLoadFromPathMissingFileUsesDefaults(t *testing.T) {
	cfg, err := LoadFromPath(filepath.Join(t.TempDir(), "config.yaml"))
	if err != nil {
		t.Fatalf("LoadFromPath() error = %v", err)
	}
	if *cfg != *DefaultConfig() {
		t.Fatalf("LoadFromPath() = %+v, want defaults", cfg)
	}
}

func TestParseOverridesOnlyGivenKeys(t *testing.T) {
	cfg, err := Parse([]byte("font_size: 18\nautosave_interval: 5s\nbackground_color: \"#DBEAFE\"\n"))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if cfg.FontSize != 18 {
		t.Errorf("FontSize = %d, want 18", cfg.FontSize)
	}
	if cfg.AutosaveInterval != 5*time.Second {
		t.Errorf("AutosaveInterval = %v, want 5s", cfg.AutosaveInterval)
	}
	if cfg.BackgroundColor != "#DBEAFE" {
		t.Errorf("BackgroundColor = %q", cfg.BackgroundColor)
	}
	if cfg.DefaultWidth != 400 || cfg.NewNoteHotkey != "Mod4-Shift-n" {
		t.Errorf("unset keys lost their defaults: %+v", cfg)
	}
}

func TestParseEmptyDocument(t *testing.T) {
	cfg, err := Parse(nil)
	if err != nil {
		t.Fatalf("Parse(nil) error = %v", err)
	}
	if *cfg != *DefaultConfig() {
		t.Fatalf("Parse(nil) = %+v, want defaults", cfg)
	}
}

func TestParseRejects(t *testing.T) {
	tests := []struct {
		name    string
		yaml    string
		wantErr string
	}{
		{"unknown key", "hotkey: x\n", "field hotkey not found"},
		{"bad log level", "log_level: verbose\n", "LogLevel"},
		{"bad color", "background_color: yellow\n", "BackgroundColor"},
		{"tiny window", "default_width: 10\n", "DefaultWidth"},
		{"zero scale", "scale_factor: 0\n", "ScaleFactor"},
		{"negative autosave", "autosave_interval: -1s\n", "AutosaveInterval"},
		{"zero parallelism", "restore_parallelism: 0\n", "RestoreParallelism"},
		{"not yaml", "font_size: [\n", "failed to parse config"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.yaml))
			if err == nil {
				t.Fatal("Parse() error = nil")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Fatalf("Parse() error = %q, want it to mention %q", err, tt.wantErr)
			}
		})
	}
}

func TestMarshalRoundTrip(t *testing.T) {
	cfg := DefaultConfig()
	cfg.AutosaveInterval = 90 * time.Second
	data, err := cfg.Marshal()
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), "autosave_interval: 1m30s") {
		t.Fatalf("Marshal() = %s", data)
	}
	back, err := Parse(data)
	if err != nil {
		t.Fatalf("Parse(Marshal()) error = %v", err)
	}
	if *back != *cfg {
		t.Fatalf("round trip = %+v, want %+v", back, cfg)
	}
}

func TestDefaultConfigPathHonorsHomeOverride(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("PEACHLEAF_HOME", dir)

	got, err := DefaultConfigPath()
	if err != nil {
		t.Fatal(err)
	}
	if want := filepath.Join(dir, "config.yaml"); got != want {
		t.Fatalf("DefaultConfigPath() = %q, want %q", got, want)
	}
}

func TestWatcherReloadsOnWrite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("font_size: 14\n"), 0644); err != nil {
		t.Fatal(err)
	}

	var (
		mu  sync.Mutex
		got []*Config
	)
	w := NewWatcher(path, nil, func(c *Config) {
		mu.Lock()
		got = append(got, c)
		mu.Unlock()
	})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()
	defer func() {
		cancel()
		<-done
	}()

	// Give the watcher time to register before writing.
	time.Sleep(100 * time.Millisecond)
	if err := os.WriteFile(path, []byte("font_size: 20\n"), 0644); err != nil {
		t.Fatal(err)
	}

	deadline := time.Now().Add(3 * time.Second)
	for time.Now().Before(deadline) {
		mu.Lock()
		n := len(got)
		var last *Config
		if n > 0 {
			last = got[n-1]
		}
		mu.Unlock()
		if last != nil && last.FontSize == 20 {
			return
		}
		time.Sleep(20 * time.Millisecond)
	}
	t.Fatal("watcher did not deliver the reloaded config")
}

func TestWatcherKeepsPreviousConfigOnInvalidFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("log_level: loud\n"), 0644); err != nil {
		t.Fatal(err)
	}

	called := false
	NewWatcher(path, nil, func(*Config) { called = true }).Reload()
	if called {
		t.Fatal("callback invoked for an invalid config")
	}
}
