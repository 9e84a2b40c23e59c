// Package config provides configuration loading and access for the visualizer.
package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io"
	"math"
	"os"

	"gopkg.in/yaml.v3"
)

//go:embed defaults.yaml
var defaultsYAML []byte

// ErrInvalid is returned when a loaded configuration cannot be used.
var ErrInvalid = errors.New("config: invalid")

// Config holds all visualizer configuration parameters.
type Config struct {
	Screen    ScreenConfig    `yaml:"screen"`
	Globe     GlobeConfig     `yaml:"globe"`
	Particles ParticlesConfig `yaml:"particles"`
	Field     FieldConfig     `yaml:"field"`
	Workers   WorkersConfig   `yaml:"workers"`
	Telemetry TelemetryConfig `yaml:"telemetry"`
	Panel     PanelConfig     `yaml:"panel"`
}

// ScreenConfig holds display settings.
type ScreenConfig struct {
	Width     int  `yaml:"width"`
	Height    int  `yaml:"height"`
	TargetFPS int  `yaml:"target_fps"`
	Resizable bool `yaml:"resizable"`
}

// GlobeConfig holds the ellipsoid and the initial camera.
type GlobeConfig struct {
	SemiMajor    float64  `yaml:"semi_major"` // meters
	SemiMinor    float64  `yaml:"semi_minor"`
	CameraLon    float64  `yaml:"camera_lon"`
	CameraLat    float64  `yaml:"camera_lat"`
	CameraHeight float64  `yaml:"camera_height"` // also the height the particle count is tuned for
	FovDeg       float64  `yaml:"fov_deg"`
	MinHeight    float64  `yaml:"min_height"`
	MaxHeight    float64  `yaml:"max_height"`
	Layer        string   `yaml:"layer"`
	Layers       []string `yaml:"layers"`
}

// ParticlesConfig holds the particle system defaults. The first four are the
// adaptive tuner's base values.
type ParticlesConfig struct {
	MaxParticles   int     `yaml:"max_particles"`
	LineWidth      float64 `yaml:"line_width"`
	FadeOpacity    float64 `yaml:"fade_opacity"`
	SpeedFactor    float64 `yaml:"speed_factor"`
	ParticleHeight float64 `yaml:"particle_height"` // meters added to render heights
	DropRate       float64 `yaml:"drop_rate"`
	DropRateBump   float64 `yaml:"drop_rate_bump"`
	MaxAge         uint32  `yaml:"max_age"`         // frames, 0 = unlimited
	MaxVoidFrames  uint16  `yaml:"max_void_frames"` // frames on void cells before reseed
	TimeStep       float64 `yaml:"time_step"`       // seconds of wind per frame
	SpeedMax       float64 `yaml:"speed_max"`       // 0 = field max * speed factor
	Opacity        float64 `yaml:"opacity"`         // screen composite opacity
	CullToView     bool    `yaml:"cull_to_view"`
}

// FieldConfig holds the synthetic wind field grid and source selection.
type FieldConfig struct {
	Source    string  `yaml:"source"`
	Seed      int64   `yaml:"seed"`
	LonCells  int     `yaml:"lon_cells"`
	LatCells  int     `yaml:"lat_cells"`
	LevCells  int     `yaml:"lev_cells"`
	LonMin    float64 `yaml:"lon_min"`
	LonMax    float64 `yaml:"lon_max"`
	LatMin    float64 `yaml:"lat_min"`
	LatMax    float64 `yaml:"lat_max"`
	HeightMin float64 `yaml:"height_min"`
	HeightMax float64 `yaml:"height_max"`

	// AnimateEvery reloads the field with its noise time advanced every N frames (0 = static)
	AnimateEvery  int     `yaml:"animate_every"`
	TimeIncrement float64 `yaml:"time_increment"`
}

// WorkersConfig holds compute worker pool settings.
type WorkersConfig struct {
	Count             int `yaml:"count"`              // 0 = GOMAXPROCS
	ParallelThreshold int `yaml:"parallel_threshold"` // below this, passes run inline
}

// TelemetryConfig holds telemetry and logging settings.
type TelemetryConfig struct {
	PerfWindow        int `yaml:"perf_window"`         // frames in the rolling perf window
	StatsWindowFrames int `yaml:"stats_window_frames"` // frames between stats records
}

// PanelConfig holds options panel settings.
type PanelConfig struct {
	Visible bool `yaml:"visible"`
}

var global *Config

// Init loads the process-wide configuration; see Load. Cfg panics until Init
// has succeeded.
func Init(path string) error {
	cfg, err := Load(path)
	if err != nil {
		return err
	}
	global = cfg
	return nil
}

// Cfg returns the configuration loaded by Init.
func Cfg() *Config {
	if global == nil {
		panic("config: Cfg called before Init")
	}
	return global
}

// Load starts from the embedded defaults and overlays the YAML file at path,
// if any. Keys absent from the file keep their default; unknown keys are an
// error so typos do not pass silently.
func Load(path string) (*Config, error) {
	cfg := &Config{}
	if err := yaml.Unmarshal(defaultsYAML, cfg); err != nil {
		return nil, fmt.Errorf("parsing embedded defaults: %w", err)
	}

	if path != "" {
		f, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
		defer f.Close()
		dec := yaml.NewDecoder(f)
		dec.KnownFields(true)
		if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("parsing config file %s: %w", path, err)
		}
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	cfg.normalize()
	return cfg, nil
}

// validate rejects values nothing downstream can recover from. Tunables the
// panel can also change are clamped later instead.
func (c *Config) validate() error {
	switch {
	case c.Screen.Width <= 0 || c.Screen.Height <= 0:
		return fmt.Errorf("%w: screen size %dx%d", ErrInvalid, c.Screen.Width, c.Screen.Height)
	case c.Globe.SemiMajor <= 0 || c.Globe.SemiMinor <= 0 || c.Globe.SemiMinor > c.Globe.SemiMajor:
		return fmt.Errorf("%w: ellipsoid axes %g/%g", ErrInvalid, c.Globe.SemiMajor, c.Globe.SemiMinor)
	case c.Globe.MinHeight <= 0 || c.Globe.MaxHeight < c.Globe.MinHeight:
		return fmt.Errorf("%w: camera height range [%g, %g]", ErrInvalid, c.Globe.MinHeight, c.Globe.MaxHeight)
	case c.Field.LonCells < 1 || c.Field.LatCells < 1 || c.Field.LevCells < 1:
		return fmt.Errorf("%w: field grid %dx%dx%d", ErrInvalid, c.Field.LonCells, c.Field.LatCells, c.Field.LevCells)
	case c.Particles.TimeStep < 0 || math.IsNaN(c.Particles.TimeStep):
		return fmt.Errorf("%w: time step %g", ErrInvalid, c.Particles.TimeStep)
	}
	return nil
}

// normalize fills in values that depend on others.
func (c *Config) normalize() {
	c.Globe.CameraHeight = min(max(c.Globe.CameraHeight, c.Globe.MinHeight), c.Globe.MaxHeight)
	if len(c.Globe.Layers) == 0 {
		c.Globe.Layers = []string{c.Globe.Layer}
	}
}

// WriteYAML saves the configuration so it can be passed back to Load.
func (c *Config) WriteYAML(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}
	return nil
}
