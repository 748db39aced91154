// Package config handles configuration loading and shared data structures.
package config

import (
	"os"

	"github.com/woozymasta/chainage/internal/chainage"
	"github.com/woozymasta/chainage/internal/convert"
	"github.com/woozymasta/chainage/internal/geo"
	"github.com/woozymasta/chainage/internal/gpx"
	"github.com/woozymasta/chainage/internal/kml"

	"gopkg.in/yaml.v3"
)

// Config represents the root configuration file structure.
type Config struct {
	Chainage  Chainage         `yaml:"chainage"`
	Normalize Normalize        `yaml:"normalize"`
	K2G       convert.K2G      `yaml:"k2g"`
	KML       kml.Options      `yaml:"kml"`
	GPX       gpx.Options      `yaml:"gpx"`
	Output    geo.WriteOptions `yaml:"output"`
	Routes    []Route          `yaml:"routes,omitempty"`
}

// Chainage holds marker generation settings. Unset values keep their defaults.
type Chainage struct {
	Start    *float64 `yaml:"start,omitempty"`
	End      *float64 `yaml:"end,omitempty"`
	Interval float64  `yaml:"interval,omitempty"`
	Property string   `yaml:"property,omitempty"`
}

// Normalize holds label normalization settings.
type Normalize struct {
	Property string `yaml:"property,omitempty"`
	// Drop is nil when unset, an explicit empty list keeps all properties.
	Drop []string `yaml:"drop"`
}

// Route is a single batch job.
type Route struct {
	Chainage Chainage `yaml:"chainage,omitempty"`

	Name   string `yaml:"name"`
	Input  string `yaml:"input"`
	Output string `yaml:"output"`
	Table  string `yaml:"table,omitempty"`
	KML    string `yaml:"kml,omitempty"`
	// Normalize runs the label normalizer on the generated output.
	Normalize bool `yaml:"normalize,omitempty"`
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	return &Config{
		K2G: convert.DefaultK2G(),
		KML: kml.DefaultOptions(),
		GPX: gpx.DefaultOptions(),
	}
}

// Load reads and parses the YAML configuration file from the specified path.
// Sections missing from the file keep their defaults.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// LoadOptional loads path, or returns defaults when path is empty or the file
// does not exist.
func LoadOptional(path string) (*Config, error) {
	if path == "" {
		return Default(), nil
	}

	cfg, err := Load(path)
	if os.IsNotExist(err) {
		return Default(), nil
	}

	return cfg, err
}

// Options merges the chainage section over the built in defaults.
func (c Chainage) Options() chainage.Options {
	return c.Over(chainage.DefaultOptions())
}

// Over applies the values set in c on top of base.
func (c Chainage) Over(base chainage.Options) chainage.Options {
	if c.Start != nil {
		base.Start = *c.Start
	}
	if c.End != nil {
		end := *c.End
		base.End = &end
	}
	if c.Interval > 0 {
		base.Interval = c.Interval
	}
	if c.Property != "" {
		base.Property = c.Property
	}
	return base
}

// Options returns the normalizer options with defaults applied.
func (n Normalize) Options() chainage.NormalizeOptions {
	opts := chainage.NormalizeOptions{
		Property: n.Property,
		Drop:     n.Drop,
	}
	if opts.Property == "" {
		opts.Property = chainage.DefaultProperty
	}
	if opts.Drop == nil {
		opts.Drop = chainage.DefaultDropProperties
	}
	return opts
}
