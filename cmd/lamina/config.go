package main

import (
	"fmt"

	"gopkg.in/gcfg.v1"

	"github.com/chazu/lamina/pkg/geom"
	"github.com/chazu/lamina/pkg/slice"
)

// ExampleConfigFile documents the INI format accepted by --config.
const ExampleConfigFile = `[chain]
# On-plane classification band in fixed-point coordinate units
# (millionths of a millimetre).
zepsilon = 2
# Endpoint merge distance in mm for the exact matching phase.
exactepsilon = 0.001
# Gap closing search radius in mm.
maxgap = 2.0
# Gap closing bridge angle limit in degrees.
maxangle = 45
# Permit gap closing to bridge the two ends of one open polyline.
allowselfclose = true

[layers]
# Layer spacing in mm.
height = 0.2
# Height of the first slicing plane in mm.
first = 0.1
`

// fileConfig mirrors the INI sections. Fields start at their defaults
// so a config file only overrides the keys it names.
type fileConfig struct {
	Chain struct {
		ZEpsilon       int64
		ExactEpsilon   float64
		MaxGap         float64
		MaxAngle       float64
		AllowSelfClose bool
	}
	Layers struct {
		Height float64
		First  float64
	}
}

// loadConfig reads an optional INI file over the defaults and returns
// the chaining config plus layer spacing. An empty path returns the
// defaults untouched.
func loadConfig(path string, layerHeight, firstLayer float64) (slice.Config, float64, float64, error) {
	def := slice.DefaultConfig()

	var fc fileConfig
	fc.Chain.ZEpsilon = int64(def.ZEpsilon)
	fc.Chain.ExactEpsilon = def.ExactEpsilon
	fc.Chain.MaxGap = def.MaxGapDistance
	fc.Chain.MaxAngle = def.MaxAngleDeviation
	fc.Chain.AllowSelfClose = def.AllowSelfClose
	fc.Layers.Height = layerHeight
	fc.Layers.First = firstLayer

	if path != "" {
		if err := gcfg.ReadFileInto(&fc, path); err != nil {
			return slice.Config{}, 0, 0, fmt.Errorf("read config %s: %w", path, err)
		}
	}

	cfg := def
	cfg.ZEpsilon = geom.Coord(fc.Chain.ZEpsilon)
	cfg.ExactEpsilon = fc.Chain.ExactEpsilon
	cfg.MaxGapDistance = fc.Chain.MaxGap
	cfg.MaxAngleDeviation = fc.Chain.MaxAngle
	cfg.AllowSelfClose = fc.Chain.AllowSelfClose

	if fc.Layers.Height <= 0 {
		return slice.Config{}, 0, 0, fmt.Errorf("layer height must be positive, got %v", fc.Layers.Height)
	}
	return cfg, fc.Layers.Height, fc.Layers.First, nil
}
