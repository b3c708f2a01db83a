package config

import (
	"flag"
	"fmt"
	"strconv"
	"strings"
)

var (
	flagConfig     = flag.String("config", "", "Path to config file")
	flagDebug      = flag.Bool("debug", false, "Enable debug logging")
	flagGravity    = flag.String("gravity", "", "Target gravity direction as x,y,z")
	flagMeshDir    = flag.String("mesh-dir", "", "Directory relative mesh paths resolve against")
	flagSegmentMap = flag.String("segment-map", "", "YAML file mapping segment id to object id")
)

// ParseFlags parses command-line flags. Call this early in main().
func ParseFlags() {
	flag.Parse()
}

// ConfigPath returns the explicit config path if provided via --config flag.
func ConfigPath() string {
	return *flagConfig
}

// applyFlags applies CLI flag overrides to the config.
func applyFlags(cfg *Config) error {
	if *flagDebug {
		cfg.Logging.Level = "debug"
	}
	if *flagGravity != "" {
		g, err := ParseVec3(*flagGravity)
		if err != nil {
			return fmt.Errorf("-gravity: %w", err)
		}
		cfg.Mesh.Gravity = g
	}
	if *flagMeshDir != "" {
		cfg.Data.MeshDir = *flagMeshDir
	}
	if *flagSegmentMap != "" {
		cfg.Data.SegmentMap = *flagSegmentMap
	}
	return nil
}

// ParseVec3 parses "x,y,z".
func ParseVec3(s string) ([3]float32, error) {
	var v [3]float32
	parts := strings.Split(s, ",")
	if len(parts) != 3 {
		return v, fmt.Errorf("%w: want x,y,z, got %q", ErrInvalidConfig, s)
	}
	for i, p := range parts {
		f, err := strconv.ParseFloat(strings.TrimSpace(p), 32)
		if err != nil {
			return v, fmt.Errorf("%w: component %d of %q: %v", ErrInvalidConfig, i, s, err)
		}
		v[i] = float32(f)
	}
	return v, nil
}
