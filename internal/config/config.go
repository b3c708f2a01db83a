// Package config handles tool configuration loading and management.
package config

import (
	"errors"
	"fmt"
	"os"

	"github.com/Faultbox/semmesh/internal/logger"
	"github.com/Faultbox/semmesh/internal/mesh"
	"github.com/Faultbox/semmesh/pkg/math"
)

// ErrInvalidConfig is returned by Validate.
var ErrInvalidConfig = errors.New("invalid config")

// Config holds all settings.
type Config struct {
	Mesh    MeshConfig    `yaml:"mesh"`
	Render  RenderConfig  `yaml:"render"`
	Data    DataConfig    `yaml:"data"`
	Logging LoggingConfig `yaml:"logging"`
}

// MeshConfig holds mesh loading settings.
type MeshConfig struct {
	Gravity     [3]float32 `yaml:"gravity"`   // target gravity direction for semantic loads
	SourceUp    [3]float32 `yaml:"source_up"` // gravity direction the files are stored in
	MaxVertices int        `yaml:"max_vertices"`
	MaxFaces    int        `yaml:"max_faces"`
}

// RenderConfig holds viewer settings.
type RenderConfig struct {
	Width        int  `yaml:"width"`
	Height       int  `yaml:"height"`
	VSync        bool `yaml:"vsync"`
	UploadOnLoad bool `yaml:"upload_on_load"` // upload from the registry instead of on first view
	ColorByLabel bool `yaml:"color_by_label"`
	ShowBounds   bool `yaml:"show_bounds"`
}

// DataConfig holds data file paths.
type DataConfig struct {
	MeshDir    string `yaml:"mesh_dir"`
	SegmentMap string `yaml:"segment_map"` // YAML file mapping segment id to object id
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level      string `yaml:"level"`
	LogFile    string `yaml:"log_file"`
	MaxSizeMB  int    `yaml:"max_size_mb"`
	MaxBackups int    `yaml:"max_backups"`
	MaxAgeDays int    `yaml:"max_age_days"`
	Compress   bool   `yaml:"compress"`
}

// Default returns a Config with sensible default values.
func Default() *Config {
	opts := mesh.DefaultOptions()
	return &Config{
		Mesh: MeshConfig{
			Gravity:  opts.Gravity.Array(),
			SourceUp: opts.SourceGravity.Array(),
		},
		Render: RenderConfig{
			Width:        1280,
			Height:       720,
			VSync:        true,
			UploadOnLoad: false,
			ColorByLabel: false,
			ShowBounds:   true,
		},
		Data: DataConfig{
			MeshDir: ".",
		},
		Logging: LoggingConfig{
			Level:      "info",
			LogFile:    "",
			MaxSizeMB:  20,
			MaxBackups: 5,
			MaxAgeDays: 14,
			Compress:   true,
		},
	}
}

// Validate reports settings that cannot be used.
func (c *Config) Validate() error {
	if math.Vec3From(c.Mesh.Gravity).Length() == 0 {
		return fmt.Errorf("%w: mesh.gravity is the zero vector", ErrInvalidConfig)
	}
	if math.Vec3From(c.Mesh.SourceUp).Length() == 0 {
		return fmt.Errorf("%w: mesh.source_up is the zero vector", ErrInvalidConfig)
	}
	if c.Mesh.MaxVertices < 0 || c.Mesh.MaxFaces < 0 {
		return fmt.Errorf("%w: mesh limits must not be negative", ErrInvalidConfig)
	}
	if c.Render.Width <= 0 || c.Render.Height <= 0 {
		return fmt.Errorf("%w: render size %dx%d", ErrInvalidConfig, c.Render.Width, c.Render.Height)
	}
	if !logger.ValidLevel(c.Logging.Level) {
		return fmt.Errorf("%w: unknown log level %q", ErrInvalidConfig, c.Logging.Level)
	}
	if c.Logging.MaxSizeMB < 0 || c.Logging.MaxBackups < 0 || c.Logging.MaxAgeDays < 0 {
		return fmt.Errorf("%w: log rotation settings must not be negative", ErrInvalidConfig)
	}
	return nil
}

// LoggerOptions converts the logging section to logger options. Console
// output goes to stderr.
func (c *Config) LoggerOptions() logger.Options {
	return logger.Options{
		Level:      c.Logging.Level,
		Console:    os.Stderr,
		File:       c.Logging.LogFile,
		MaxSizeMB:  c.Logging.MaxSizeMB,
		MaxBackups: c.Logging.MaxBackups,
		MaxAgeDays: c.Logging.MaxAgeDays,
		Compress:   c.Logging.Compress,
	}
}

// MeshOptions converts the mesh section to store options.
func (c *Config) MeshOptions() mesh.Options {
	return mesh.Options{
		Gravity:       math.Vec3From(c.Mesh.Gravity),
		SourceGravity: math.Vec3From(c.Mesh.SourceUp),
		MaxVertices:   c.Mesh.MaxVertices,
		MaxFaces:      c.Mesh.MaxFaces,
	}
}
