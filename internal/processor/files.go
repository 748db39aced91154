// Package processor runs chainage operations on files.
// Every operation reads and processes its input completely before writing,
// so a failure never leaves partial output behind.
package processor

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/woozymasta/chainage/internal/chainage"
	"github.com/woozymasta/chainage/internal/config"
	"github.com/woozymasta/chainage/internal/geo"
	"github.com/woozymasta/chainage/internal/gpx"
	"github.com/woozymasta/chainage/internal/kml"

	"github.com/paulmach/orb/geojson"
	"gopkg.in/yaml.v3"
)

// Format is a document format recognized by file extension.
type Format int

// Supported formats.
const (
	FormatGeoJSON Format = iota
	FormatKML
	FormatYAML
	FormatGPX
)

func (f Format) String() string {
	switch f {
	case FormatKML:
		return "kml"
	case FormatYAML:
		return "yaml"
	case FormatGPX:
		return "gpx"
	default:
		return "geojson"
	}
}

// DetectFormat returns the format of path from its extension.
// Unknown extensions are treated as GeoJSON.
func DetectFormat(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".kml":
		return FormatKML
	case ".yaml", ".yml":
		return FormatYAML
	case ".gpx":
		return FormatGPX
	default:
		return FormatGeoJSON
	}
}

// ParseFormat returns the format named by s ("geojson", "kml", "gpx" or "yaml").
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(s) {
	case "geojson", "json":
		return FormatGeoJSON, nil
	case "kml":
		return FormatKML, nil
	case "yaml", "yml":
		return FormatYAML, nil
	case "gpx":
		return FormatGPX, nil
	}
	return FormatGeoJSON, fmt.Errorf("unknown format %q", s)
}

// SwapExt returns path with its extension replaced by ext.
func SwapExt(path, ext string) string {
	return strings.TrimSuffix(path, filepath.Ext(path)) + ext
}

// IOError reports a failed read or write.
type IOError struct {
	Op   string
	Path string
	Err  error
}

func (e *IOError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Op, e.Path, e.Err)
}

func (e *IOError) Unwrap() error {
	return e.Err
}

// Settings controls how documents are written.
type Settings struct {
	Output geo.WriteOptions
	KML    kml.Options
	GPX    gpx.Options
}

// DefaultSettings returns indented output with the default KML naming.
func DefaultSettings() Settings {
	return Settings{
		Output: geo.WriteOptions{Indent: geo.DefaultIndent},
		KML:    kml.DefaultOptions(),
		GPX:    gpx.DefaultOptions(),
	}
}

// SettingsFrom returns the output settings of a loaded configuration.
func SettingsFrom(cfg *config.Config) Settings {
	return Settings{Output: cfg.Output, KML: cfg.KML, GPX: cfg.GPX}
}

// ReadCollection reads a GeoJSON, KML or GPX document.
func ReadCollection(path string) (*geojson.FeatureCollection, error) {
	var fc *geojson.FeatureCollection
	var err error

	switch format := DetectFormat(path); format {
	case FormatKML, FormatGPX:
		fc, err = readXML(path, format)
	default:
		fc, err = geo.ReadFeatureCollection(path)
	}
	if err != nil {
		return nil, &IOError{Op: "read", Path: path, Err: err}
	}

	return fc, nil
}

func readXML(path string, format Format) (*geojson.FeatureCollection, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer func() { _ = f.Close() }()

	return DecodeCollection(bufio.NewReader(f), format)
}

// DecodeCollection parses a GeoJSON, KML or GPX document from r.
func DecodeCollection(r io.Reader, format Format) (*geojson.FeatureCollection, error) {
	switch format {
	case FormatKML:
		return kml.Decode(r)
	case FormatGPX:
		return gpx.Decode(r)
	case FormatYAML:
		return nil, fmt.Errorf("feature collections cannot be read from %s", format)
	default:
		return geo.DecodeFeatureCollection(r)
	}
}

// EncodeCollection serializes fc in the given format.
func EncodeCollection(format Format, fc *geojson.FeatureCollection, s Settings) ([]byte, error) {
	switch format {
	case FormatKML:
		opts := s.KML
		if s.Output.Minify {
			opts.Minify = true
		}
		data, _, err := kml.Encode(fc, opts)
		return data, err
	case FormatGPX:
		opts := s.GPX
		if s.Output.Minify {
			opts.Indent = false
		}
		return gpx.Encode(fc, opts)
	case FormatYAML:
		return nil, fmt.Errorf("feature collections cannot be written as %s", format)
	default:
		return geo.MarshalFeatureCollection(fc, s.Output)
	}
}

// WriteCollection writes fc to path in the format given by its extension.
func WriteCollection(path string, fc *geojson.FeatureCollection, s Settings) error {
	data, err := EncodeCollection(DetectFormat(path), fc, s)
	if err != nil {
		return err
	}
	return writeFile(path, data)
}

// EncodeTable serializes a chainage table as YAML or, for other extensions, JSON.
func EncodeTable(path string, rows []chainage.TableRow, s Settings) ([]byte, error) {
	if DetectFormat(path) == FormatYAML {
		return yaml.Marshal(rows)
	}
	if s.Output.Minify {
		return json.Marshal(rows)
	}

	indent := s.Output.Indent
	if indent == "" {
		indent = geo.DefaultIndent
	}
	return json.MarshalIndent(rows, "", indent)
}

// WriteTable writes a chainage table to path.
func WriteTable(path string, rows []chainage.TableRow, s Settings) error {
	data, err := EncodeTable(path, rows, s)
	if err != nil {
		return err
	}
	return writeFile(path, data)
}

func writeFile(path string, data []byte) error {
	if err := geo.WriteFile(path, data); err != nil {
		return &IOError{Op: "write", Path: path, Err: err}
	}
	return nil
}

// pending is one document of an operation that writes several.
type pending struct {
	path string
	data []byte
}

// writeFiles stages every output before renaming any into place, so a failure
// to write one of them leaves none behind.
func writeFiles(outs ...pending) error {
	staged := make([]*geo.StagedFile, 0, len(outs))
	discard := func() {
		for _, f := range staged {
			f.Discard()
		}
	}

	for _, o := range outs {
		f, err := geo.Stage(o.path, o.data)
		if err != nil {
			discard()
			return &IOError{Op: "write", Path: o.path, Err: err}
		}
		staged = append(staged, f)
	}

	for i, f := range staged {
		if err := f.Commit(); err != nil {
			for _, rest := range staged[i+1:] {
				rest.Discard()
			}
			return &IOError{Op: "write", Path: f.Path(), Err: err}
		}
	}

	return nil
}

// ReadTable reads a chainage table written by WriteTable.
func ReadTable(path string) ([]chainage.TableRow, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &IOError{Op: "read", Path: path, Err: err}
	}

	var rows []chainage.TableRow
	if DetectFormat(path) == FormatYAML {
		err = yaml.Unmarshal(data, &rows)
	} else {
		err = json.Unmarshal(data, &rows)
	}
	if err != nil {
		return nil, &IOError{Op: "read", Path: path, Err: err}
	}

	return rows, nil
}

// isTable reports whether path holds a chainage table rather than a
// feature collection: YAML files, or JSON documents whose root is an array.
func isTable(path string) (bool, error) {
	switch DetectFormat(path) {
	case FormatYAML:
		return true, nil
	case FormatKML, FormatGPX:
		return false, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return false, &IOError{Op: "read", Path: path, Err: err}
	}
	return bytes.HasPrefix(bytes.TrimSpace(data), []byte("[")), nil
}
