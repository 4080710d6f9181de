// Package config handles viewer and scene configuration loading and management.
package config

import "time"

// Config holds all settings.
type Config struct {
	Graphics  GraphicsConfig  `yaml:"graphics"`
	Scene     SceneConfig     `yaml:"scene"`
	Animation AnimationConfig `yaml:"animation"`
	Logging   LoggingConfig   `yaml:"logging"`
}

// GraphicsConfig holds display settings.
type GraphicsConfig struct {
	Title      string `yaml:"title"`
	Width      int    `yaml:"width"`
	Height     int    `yaml:"height"`
	Fullscreen bool   `yaml:"fullscreen"`
	VSync      bool   `yaml:"vsync"`
}

// SceneConfig controls how meshes manage their vertex data.
type SceneConfig struct {
	// KeepCopyInMemory retains CPU copies of vertices and indices after upload.
	KeepCopyInMemory bool `yaml:"keep_copy_in_memory"`
	// OptimizeDuplicates folds identical vertices when generating indices.
	OptimizeDuplicates bool `yaml:"optimize_duplicates"`
	// ParallelThreshold is the vertex count above which bulk mutations run in parallel.
	ParallelThreshold int `yaml:"parallel_threshold"`
	// UsageHint is one of "static", "dynamic" or "stream".
	UsageHint string `yaml:"usage_hint"`
	// Texture is an optional image file applied to the floor.
	Texture string `yaml:"texture"`
}

// AnimationConfig holds keyframe playback defaults.
type AnimationConfig struct {
	FrameInterval time.Duration `yaml:"frame_interval"`
	Loop          bool          `yaml:"loop"`
	Interpolate   bool          `yaml:"interpolate"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level   string `yaml:"level"`
	LogFile string `yaml:"log_file"`
}

// Default returns a Config with sensible default values.
func Default() *Config {
	return &Config{
		Graphics: GraphicsConfig{
			Title:      "Scene Viewer",
			Width:      1280,
			Height:     720,
			Fullscreen: false,
			VSync:      true,
		},
		Scene: SceneConfig{
			KeepCopyInMemory:   false,
			OptimizeDuplicates: true,
			ParallelThreshold:  4096,
			UsageHint:          "static",
		},
		Animation: AnimationConfig{
			FrameInterval: 41670 * time.Microsecond,
			Loop:          true,
			Interpolate:   true,
		},
		Logging: LoggingConfig{
			Level:   "info",
			LogFile: "",
		},
	}
}
