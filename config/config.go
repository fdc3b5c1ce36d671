// Package config holds loader and comparison settings, read from a JSON file
// and overridden by command-line flags.
package config

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/go-logr/logr"

	"github.com/Noofbiz/photostereo/compare"
	"github.com/Noofbiz/photostereo/datasets"
)

// maxFileSize bounds config files.
const maxFileSize = 1 * 1024 * 1024

// DefaultConfigJSON is the configuration used when no file is given.
const DefaultConfigJSON = `{
  "workers": 0,
  "unit_tolerance": 0.0001,
  "layout_a": {
    "frame_pattern": "frame_*",
    "mask_dir": "masks",
    "mask_stem": "object_mask"
  },
  "layout_b": {
    "frame_dir": "Object",
    "frame_pattern": "*",
    "mask_stem": "mask",
    "calibration_file": "light_directions.txt",
    "intensity_file": "light_intensities.txt",
    "normal_stem": "Normal_gt"
  },
  "compare": {
    "max_panel_width": 1536,
    "histogram_bins": 256
  }
}
`

// Config is the root configuration document.
type Config struct {
	// Workers bounds parallel frame decoding (0 = NumCPU).
	Workers       int     `json:"workers"`
	UnitTolerance float64 `json:"unit_tolerance"`

	LayoutA LayoutA `json:"layout_a"`
	LayoutB LayoutB `json:"layout_b"`
	Compare Compare `json:"compare"`
}

// LayoutA names the files of an unlabeled capture.
type LayoutA struct {
	FramePattern string `json:"frame_pattern"`
	// MaskDir is relative to the dataset root; use "." for the root itself.
	MaskDir  string `json:"mask_dir"`
	MaskStem string `json:"mask_stem"`
}

// LayoutB names the files of a labeled capture.
type LayoutB struct {
	FrameDir        string `json:"frame_dir"`
	FramePattern    string `json:"frame_pattern"`
	MaskStem        string `json:"mask_stem"`
	CalibrationFile string `json:"calibration_file"`
	// IntensityFile and NormalStem are optional lookups; "-" turns them off.
	IntensityFile string `json:"intensity_file"`
	NormalStem    string `json:"normal_stem"`
}

// Compare configures the before/after comparison output.
type Compare struct {
	MaxPanelWidth int `json:"max_panel_width"`
	HistogramBins int `json:"histogram_bins"`
}

// Defaults returns the configuration in DefaultConfigJSON.
func Defaults() *Config {
	cfg, err := decode([]byte(DefaultConfigJSON), &Config{})
	if err != nil {
		panic(fmt.Sprintf("config: bad embedded defaults: %v", err))
	}
	return cfg
}

// Load reads a JSON config file. Fields omitted from the file keep their
// default values, so partial configs are safe.
func Load(path string) (*Config, error) {
	cleanPath := filepath.Clean(path)
	if ext := filepath.Ext(cleanPath); ext != ".json" {
		return nil, fmt.Errorf("config file must have .json extension, got %q", ext)
	}

	fileInfo, err := os.Stat(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to stat config file: %w", err)
	}
	if fileInfo.Size() > maxFileSize {
		return nil, fmt.Errorf("config file too large: %d bytes (max %d)", fileInfo.Size(), maxFileSize)
	}

	data, err := os.ReadFile(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	cfg, err := decode(data, Defaults())
	if err != nil {
		return nil, fmt.Errorf("failed to parse config file %s: %w", cleanPath, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config file %s: %w", cleanPath, err)
	}
	return cfg, nil
}

func decode(data []byte, into *Config) (*Config, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(into); err != nil {
		return nil, err
	}
	return into, nil
}

// Validate checks values that would make a load fail in confusing ways.
func (c *Config) Validate() error {
	if c.Workers < 0 {
		return fmt.Errorf("workers must be >= 0, got %d", c.Workers)
	}
	if c.UnitTolerance <= 0 {
		return fmt.Errorf("unit_tolerance must be > 0, got %g", c.UnitTolerance)
	}
	for _, f := range []struct{ name, value string }{
		{"layout_a.frame_pattern", c.LayoutA.FramePattern},
		{"layout_a.mask_stem", c.LayoutA.MaskStem},
		{"layout_b.frame_dir", c.LayoutB.FrameDir},
		{"layout_b.frame_pattern", c.LayoutB.FramePattern},
		{"layout_b.mask_stem", c.LayoutB.MaskStem},
		{"layout_b.calibration_file", c.LayoutB.CalibrationFile},
	} {
		if f.value == "" {
			return fmt.Errorf("%s must not be empty", f.name)
		}
	}
	if _, err := filepath.Match(c.LayoutA.FramePattern, ""); err != nil {
		return fmt.Errorf("layout_a.frame_pattern: %w", err)
	}
	if _, err := filepath.Match(c.LayoutB.FramePattern, ""); err != nil {
		return fmt.Errorf("layout_b.frame_pattern: %w", err)
	}
	if c.Compare.MaxPanelWidth < 0 {
		return fmt.Errorf("compare.max_panel_width must be >= 0, got %d", c.Compare.MaxPanelWidth)
	}
	if c.Compare.HistogramBins <= 0 {
		return fmt.Errorf("compare.histogram_bins must be > 0, got %d", c.Compare.HistogramBins)
	}
	return nil
}

// LoaderOptions converts the config into datasets.Options.
func (c *Config) LoaderOptions(log logr.Logger) datasets.Options {
	return datasets.Options{
		Workers:       c.Workers,
		UnitTolerance: c.UnitTolerance,
		Logger:        log,
		Unlabeled: datasets.UnlabeledLayout{
			FramePattern: c.LayoutA.FramePattern,
			MaskDir:      c.LayoutA.MaskDir,
			MaskStem:     c.LayoutA.MaskStem,
		},
		Labeled: datasets.LabeledLayout{
			FrameDir:        c.LayoutB.FrameDir,
			FramePattern:    c.LayoutB.FramePattern,
			MaskStem:        c.LayoutB.MaskStem,
			CalibrationFile: c.LayoutB.CalibrationFile,
			IntensityFile:   c.LayoutB.IntensityFile,
			NormalStem:      c.LayoutB.NormalStem,
		},
	}
}

// CompareOptions converts the config into compare.Options writing to outDir.
func (c *Config) CompareOptions(outDir string, log logr.Logger) compare.Options {
	return compare.Options{
		OutDir:        outDir,
		MaxPanelWidth: c.Compare.MaxPanelWidth,
		HistogramBins: c.Compare.HistogramBins,
		Logger:        log,
	}
}
