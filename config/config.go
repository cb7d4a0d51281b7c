// Package config loads the settings of a mapping run from a JSON file.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	objmap "github.com/AmirHoseinTaherkhani/object-mapping"
	"github.com/AmirHoseinTaherkhani/object-mapping/homography"
	"github.com/AmirHoseinTaherkhani/object-mapping/mapping"
	"github.com/AmirHoseinTaherkhani/object-mapping/tracker"
)

// maxFileSize is the largest config file accepted
const maxFileSize = 1 * 1024 * 1024

// Config is the root configuration.  Fields omitted from the JSON file keep
// their default values, so partial configs are safe.
type Config struct {
	Calibration CalibrationConfig `json:"calibration"`
	Tracker     TrackerConfig     `json:"tracker"`
	Pipeline    PipelineConfig    `json:"pipeline"`
	Map         MapConfig         `json:"map"`
	Output      OutputConfig      `json:"output"`
}

// CalibrationConfig configures the homography estimate
type CalibrationConfig struct {
	File                string  `json:"file"`
	RansacThreshold     float64 `json:"ransac_threshold"`
	MaxIterations       int     `json:"max_iterations"`
	Confidence          float64 `json:"confidence"`
	Seed                int64   `json:"seed"`
	ValidationThreshold float64 `json:"validation_threshold"`
}

// TrackerConfig configures identity tracking
type TrackerConfig struct {
	MaxDisappeared int     `json:"max_disappeared"`
	IoUThreshold   float64 `json:"iou_threshold"`
	// Assignment is "greedy" or "optimal"
	Assignment string `json:"assignment"`
}

// PipelineConfig configures detection filtering
type PipelineConfig struct {
	ConfidenceThreshold float64 `json:"confidence_threshold"`
	// Classes maps class ids to tracked class names, it replaces the
	// default map entirely when given
	Classes objmap.ClassMap `json:"classes"`
	// LabelsFile is a label file used instead of Classes when set
	LabelsFile string `json:"labels_file"`
	LogEvery   int    `json:"log_every"`
}

// MapConfig configures the map renderer
type MapConfig struct {
	Width       int     `json:"width"`
	Height      int     `json:"height"`
	Buffer      float64 `json:"buffer"`
	GridSpacing float64 `json:"grid_spacing"`
	TrailLength int     `json:"trail_length"`
	// ColorMode is "class" or "track"
	ColorMode  string `json:"color_mode"`
	ShowGrid   bool   `json:"show_grid"`
	ShowTrails bool   `json:"show_trails"`
}

// OutputConfig selects where results are written
type OutputConfig struct {
	Dir    string `json:"dir"`
	CSV    string `json:"csv"`
	SQLite string `json:"sqlite"`
	// MapEvery saves a map image every N frames, 0 disables it
	MapEvery int `json:"map_every"`
}

// Default returns the default configuration
func Default() *Config {
	hopts := homography.DefaultOptions()
	topts := tracker.DefaultConfig()
	popts := mapping.DefaultOptions()

	return &Config{
		Calibration: CalibrationConfig{
			RansacThreshold:     hopts.RansacThreshold,
			MaxIterations:       hopts.MaxIterations,
			Confidence:          hopts.Confidence,
			Seed:                hopts.Seed,
			ValidationThreshold: homography.DefaultValidationThreshold,
		},
		Tracker: TrackerConfig{
			MaxDisappeared: topts.MaxDisappeared,
			IoUThreshold:   topts.IoUThreshold,
			Assignment:     topts.Assignment.String(),
		},
		Pipeline: PipelineConfig{
			ConfidenceThreshold: popts.ConfidenceThreshold,
			Classes:             popts.Classes,
			LogEvery:            popts.LogEvery,
		},
		Map: MapConfig{
			Width:       800,
			Height:      600,
			Buffer:      10,
			GridSpacing: 5,
			TrailLength: 50,
			ColorMode:   "class",
			ShowGrid:    true,
			ShowTrails:  true,
		},
		Output: OutputConfig{
			Dir: "output",
			CSV: "object_mapping_results.csv",
		},
	}
}

// Load reads a config from a JSON file on top of the defaults.  The file
// must have a .json extension and be under 1MB.
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

	cfg := Default()
	// decoding merges into an existing map, clear it so a given class map
	// replaces the default one
	cfg.Pipeline.Classes = nil

	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config JSON: %w", err)
	}

	if cfg.Pipeline.Classes == nil {
		cfg.Pipeline.Classes = objmap.DefaultClassMap()
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// Validate checks that the configuration values are valid
func (c *Config) Validate() error {

	if c.Calibration.RansacThreshold <= 0 {
		return fmt.Errorf("ransac_threshold must be positive, got %f", c.Calibration.RansacThreshold)
	}
	if c.Calibration.MaxIterations <= 0 {
		return fmt.Errorf("max_iterations must be positive, got %d", c.Calibration.MaxIterations)
	}
	if c.Calibration.Confidence <= 0 || c.Calibration.Confidence >= 1 {
		return fmt.Errorf("confidence must be between 0 and 1, got %f", c.Calibration.Confidence)
	}
	if c.Calibration.ValidationThreshold <= 0 {
		return fmt.Errorf("validation_threshold must be positive, got %f", c.Calibration.ValidationThreshold)
	}

	if _, err := c.TrackerConfig(); err != nil {
		return err
	}

	if c.Pipeline.ConfidenceThreshold < 0 || c.Pipeline.ConfidenceThreshold > 1 {
		return fmt.Errorf("confidence_threshold must be between 0 and 1, got %f", c.Pipeline.ConfidenceThreshold)
	}
	if c.Pipeline.LabelsFile == "" && len(c.Pipeline.Classes) == 0 {
		return fmt.Errorf("classes must name at least one class")
	}
	if c.Pipeline.LogEvery < 0 {
		return fmt.Errorf("log_every must be non-negative, got %d", c.Pipeline.LogEvery)
	}

	if c.Map.Width <= 0 || c.Map.Height <= 0 {
		return fmt.Errorf("map size must be positive, got %dx%d", c.Map.Width, c.Map.Height)
	}
	if c.Map.Buffer < 0 {
		return fmt.Errorf("buffer must be non-negative, got %f", c.Map.Buffer)
	}
	if c.Map.GridSpacing <= 0 {
		return fmt.Errorf("grid_spacing must be positive, got %f", c.Map.GridSpacing)
	}
	if c.Map.TrailLength <= 0 {
		return fmt.Errorf("trail_length must be positive, got %d", c.Map.TrailLength)
	}
	switch c.Map.ColorMode {
	case "", "class", "track":
	default:
		return fmt.Errorf("color_mode must be class or track, got %q", c.Map.ColorMode)
	}

	if c.Output.MapEvery < 0 {
		return fmt.Errorf("map_every must be non-negative, got %d", c.Output.MapEvery)
	}

	return nil
}

// HomographyOptions returns the homography estimation options
func (c *Config) HomographyOptions() homography.Options {
	return homography.Options{
		RansacThreshold: c.Calibration.RansacThreshold,
		MaxIterations:   c.Calibration.MaxIterations,
		Confidence:      c.Calibration.Confidence,
		Seed:            c.Calibration.Seed,
	}
}

// TrackerConfig returns the tracker configuration
func (c *Config) TrackerConfig() (tracker.Config, error) {

	assign, err := tracker.ParseAssignment(c.Tracker.Assignment)
	if err != nil {
		return tracker.Config{}, err
	}

	tc := tracker.Config{
		MaxDisappeared: c.Tracker.MaxDisappeared,
		IoUThreshold:   c.Tracker.IoUThreshold,
		Assignment:     assign,
	}

	if err := tc.Validate(); err != nil {
		return tracker.Config{}, err
	}

	return tc, nil
}

// PipelineOptions returns the pipeline options, loading the labels file
// when one is configured
func (c *Config) PipelineOptions() (mapping.Options, error) {

	classes := c.Pipeline.Classes

	if c.Pipeline.LabelsFile != "" {
		var err error
		classes, err = objmap.LoadClassMap(c.Pipeline.LabelsFile)
		if err != nil {
			return mapping.Options{}, err
		}
	}

	return mapping.Options{
		ConfidenceThreshold: c.Pipeline.ConfidenceThreshold,
		Classes:             classes,
		LogEvery:            c.Pipeline.LogEvery,
	}, nil
}

// OutputPath joins name onto the output directory, absolute names are
// returned unchanged
func (c *Config) OutputPath(name string) string {
	if name == "" || filepath.IsAbs(name) {
		return name
	}
	return filepath.Join(c.Output.Dir, name)
}
