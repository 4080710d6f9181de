package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	if cfg.Graphics.Width != 1280 {
		t.Errorf("expected width 1280, got %d", cfg.Graphics.Width)
	}
	if cfg.Graphics.Height != 720 {
		t.Errorf("expected height 720, got %d", cfg.Graphics.Height)
	}
	if !cfg.Graphics.VSync {
		t.Error("expected vsync to be true by default")
	}

	if cfg.Scene.KeepCopyInMemory {
		t.Error("expected keep_copy_in_memory to be false by default")
	}
	if !cfg.Scene.OptimizeDuplicates {
		t.Error("expected optimize_duplicates to be true by default")
	}
	if cfg.Scene.UsageHint != "static" {
		t.Errorf("expected usage hint 'static', got %s", cfg.Scene.UsageHint)
	}

	if cfg.Animation.FrameInterval != 41670*time.Microsecond {
		t.Errorf("expected frame interval 41.67ms, got %v", cfg.Animation.FrameInterval)
	}
	if !cfg.Animation.Loop || !cfg.Animation.Interpolate {
		t.Error("expected looping interpolated animation by default")
	}

	if cfg.Logging.Level != "info" {
		t.Errorf("expected log level 'info', got %s", cfg.Logging.Level)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("default config should validate, got %v", err)
	}
}

func TestLoadFromFile(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "scene.yaml")

	yamlContent := `
graphics:
  width: 1920
  height: 1080
  fullscreen: true

scene:
  keep_copy_in_memory: true
  optimize_duplicates: false
  parallel_threshold: 128
  usage_hint: dynamic

animation:
  frame_interval: 100ms
  loop: false
  interpolate: false

logging:
  level: "debug"
  log_file: "scene.log"
`

	if err := os.WriteFile(configPath, []byte(yamlContent), 0644); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	cfg := Default()
	if err := loadFromFile(cfg, configPath); err != nil {
		t.Fatalf("failed to load config: %v", err)
	}

	if cfg.Graphics.Width != 1920 || cfg.Graphics.Height != 1080 {
		t.Errorf("expected 1920x1080, got %dx%d", cfg.Graphics.Width, cfg.Graphics.Height)
	}
	if !cfg.Graphics.Fullscreen {
		t.Error("expected fullscreen to be true")
	}
	if !cfg.Scene.KeepCopyInMemory {
		t.Error("expected keep_copy_in_memory to be true")
	}
	if cfg.Scene.OptimizeDuplicates {
		t.Error("expected optimize_duplicates to be false")
	}
	if cfg.Scene.ParallelThreshold != 128 {
		t.Errorf("expected parallel threshold 128, got %d", cfg.Scene.ParallelThreshold)
	}
	if cfg.Scene.UsageHint != "dynamic" {
		t.Errorf("expected usage hint dynamic, got %s", cfg.Scene.UsageHint)
	}
	if cfg.Animation.FrameInterval != 100*time.Millisecond {
		t.Errorf("expected frame interval 100ms, got %v", cfg.Animation.FrameInterval)
	}
	if cfg.Animation.Loop {
		t.Error("expected loop to be false")
	}
	if cfg.Logging.LogFile != "scene.log" {
		t.Errorf("expected log file 'scene.log', got %s", cfg.Logging.LogFile)
	}
}

func TestLoadFromFileInvalid(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "invalid.yaml")

	invalidYAML := `
graphics:
  width: not a number
  invalid syntax here
`

	if err := os.WriteFile(configPath, []byte(invalidYAML), 0644); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	cfg := Default()
	if err := loadFromFile(cfg, configPath); err == nil {
		t.Error("expected error loading invalid YAML, got nil")
	}
}

func TestLoadFromFileMissing(t *testing.T) {
	cfg := Default()
	if err := loadFromFile(cfg, "/nonexistent/path/scene.yaml"); err == nil {
		t.Error("expected error loading missing file, got nil")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"defaults", func(*Config) {}, false},
		{"zero interval", func(c *Config) { c.Animation.FrameInterval = 0 }, true},
		{"negative interval", func(c *Config) { c.Animation.FrameInterval = -time.Second }, true},
		{"unknown usage", func(c *Config) { c.Scene.UsageHint = "sometimes" }, true},
		{"stream usage", func(c *Config) { c.Scene.UsageHint = "stream" }, false},
		{"negative threshold", func(c *Config) { c.Scene.ParallelThreshold = -1 }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestConfigDir(t *testing.T) {
	dir := ConfigDir()
	if dir == "" {
		t.Error("ConfigDir returned empty string")
	}
	if !filepath.IsAbs(dir) {
		t.Errorf("ConfigDir should return absolute path, got %s", dir)
	}
}

func TestFindConfigFile(t *testing.T) {
	origDir, _ := os.Getwd()
	defer os.Chdir(origDir)

	tmpDir := t.TempDir()
	os.Chdir(tmpDir)
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(tmpDir, "xdg"))

	if path := findConfigFile(); path != "" {
		t.Errorf("expected empty path when no config exists, got %s", path)
	}

	configPath := filepath.Join(tmpDir, "scene.yaml")
	if err := os.WriteFile(configPath, []byte("graphics:\n  width: 800\n"), 0644); err != nil {
		t.Fatalf("failed to create test config: %v", err)
	}

	if path := findConfigFile(); path == "" {
		t.Error("expected to find scene.yaml in current directory")
	}
}

func TestApplyFlags(t *testing.T) {
	tests := []struct {
		name     string
		setup    func()
		verify   func(*Config)
		teardown func()
	}{
		{
			name:  "debug flag",
			setup: func() { *flagDebug = true },
			verify: func(cfg *Config) {
				if cfg.Logging.Level != "debug" {
					t.Errorf("expected log level 'debug', got %s", cfg.Logging.Level)
				}
			},
			teardown: func() { *flagDebug = false },
		},
		{
			name:  "fullscreen flag",
			setup: func() { *flagFullscreen = true },
			verify: func(cfg *Config) {
				if !cfg.Graphics.Fullscreen {
					t.Error("expected fullscreen to be true with fullscreen flag")
				}
			},
			teardown: func() { *flagFullscreen = false },
		},
		{
			name: "width and height flags",
			setup: func() {
				*flagWidth = 2560
				*flagHeight = 1440
			},
			verify: func(cfg *Config) {
				if cfg.Graphics.Width != 2560 || cfg.Graphics.Height != 1440 {
					t.Errorf("expected 2560x1440, got %dx%d", cfg.Graphics.Width, cfg.Graphics.Height)
				}
			},
			teardown: func() {
				*flagWidth = 0
				*flagHeight = 0
			},
		},
		{
			name:  "interval flag",
			setup: func() { *flagInterval = 250 * time.Millisecond },
			verify: func(cfg *Config) {
				if cfg.Animation.FrameInterval != 250*time.Millisecond {
					t.Errorf("expected interval 250ms, got %v", cfg.Animation.FrameInterval)
				}
			},
			teardown: func() { *flagInterval = 0 },
		},
		{
			name:  "no-loop flag",
			setup: func() { *flagNoLoop = true },
			verify: func(cfg *Config) {
				if cfg.Animation.Loop {
					t.Error("expected loop to be disabled")
				}
			},
			teardown: func() { *flagNoLoop = false },
		},
		{
			name:  "texture flag",
			setup: func() { *flagTexture = "floor.png" },
			verify: func(cfg *Config) {
				if cfg.Scene.Texture != "floor.png" {
					t.Errorf("expected texture floor.png, got %q", cfg.Scene.Texture)
				}
			},
			teardown: func() { *flagTexture = "" },
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.setup()
			defer tt.teardown()

			cfg := Default()
			applyFlags(cfg)
			tt.verify(cfg)
		})
	}
}

func TestLoadPriority(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "scene.yaml")

	yamlContent := `
graphics:
  width: 1600
  height: 900
`
	if err := os.WriteFile(configPath, []byte(yamlContent), 0644); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	*flagConfig = configPath
	*flagWidth = 1920
	defer func() {
		*flagConfig = ""
		*flagWidth = 0
	}()

	cfg, err := Load()
	if err != nil {
		t.Fatalf("failed to load config: %v", err)
	}

	if cfg.Graphics.Width != 1920 {
		t.Errorf("expected width 1920 from flag, got %d", cfg.Graphics.Width)
	}
	if cfg.Graphics.Height != 900 {
		t.Errorf("expected height 900 from file, got %d", cfg.Graphics.Height)
	}
}

func TestSaveToRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "scene.yaml")

	cfg := Default()
	cfg.Animation.FrameInterval = 80 * time.Millisecond
	cfg.Scene.UsageHint = "stream"
	if err := cfg.SaveTo(path); err != nil {
		t.Fatalf("SaveTo failed: %v", err)
	}

	loaded := Default()
	if err := loadFromFile(loaded, path); err != nil {
		t.Fatalf("reload failed: %v", err)
	}
	if loaded.Animation.FrameInterval != 80*time.Millisecond {
		t.Errorf("expected 80ms after reload, got %v", loaded.Animation.FrameInterval)
	}
	if loaded.Scene.UsageHint != "stream" {
		t.Errorf("expected usage hint stream after reload, got %s", loaded.Scene.UsageHint)
	}
}
