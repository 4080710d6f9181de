package config

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"

	"gopkg.in/yaml.v3"
)

// Load loads configuration with priority: defaults < file < flags.
func Load() (*Config, error) {
	cfg := Default()

	configPath := ConfigPath()
	if configPath == "" {
		configPath = findConfigFile()
	}

	if configPath != "" {
		if err := loadFromFile(cfg, configPath); err != nil {
			return nil, fmt.Errorf("loading config from %s: %w", configPath, err)
		}
	}

	applyFlags(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects settings the engine cannot honor.
func (c *Config) Validate() error {
	if c.Animation.FrameInterval <= 0 {
		return fmt.Errorf("animation.frame_interval must be positive, got %v", c.Animation.FrameInterval)
	}
	switch c.Scene.UsageHint {
	case "static", "dynamic", "stream":
	default:
		return fmt.Errorf("scene.usage_hint: unknown value %q", c.Scene.UsageHint)
	}
	if c.Scene.ParallelThreshold < 0 {
		return fmt.Errorf("scene.parallel_threshold must not be negative, got %d", c.Scene.ParallelThreshold)
	}
	return nil
}

// findConfigFile looks for config in standard locations.
func findConfigFile() string {
	candidates := []string{
		"./scene.yaml",
		filepath.Join(ConfigDir(), "scene.yaml"),
	}

	for _, path := range candidates {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}

// ConfigDir returns the OS-appropriate config directory.
func ConfigDir() string {
	switch runtime.GOOS {
	case "darwin":
		home, _ := os.UserHomeDir()
		return filepath.Join(home, "Library", "Application Support", "SceneGraph")
	case "windows":
		return filepath.Join(os.Getenv("APPDATA"), "SceneGraph")
	default:
		if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
			return filepath.Join(xdg, "scenegraph")
		}
		home, _ := os.UserHomeDir()
		return filepath.Join(home, ".config", "scenegraph")
	}
}

// loadFromFile loads config from a YAML file, merging with existing values.
func loadFromFile(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	return yaml.Unmarshal(data, cfg)
}
