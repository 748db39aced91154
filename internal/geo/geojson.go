// Package geo handles geodesic math and GeoJSON document I/O.
package geo

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/paulmach/orb/geojson"
	"github.com/rs/zerolog/log"
	"github.com/tdewolff/minify/v2"
	minjson "github.com/tdewolff/minify/v2/json"
)

// DefaultIndent matches the indentation of documents produced by the
// desktop tooling this project replaces.
const DefaultIndent = "    "

// WriteOptions controls how documents are serialized.
type WriteOptions struct {
	Indent string `yaml:"indent,omitempty"`
	Minify bool   `yaml:"minify,omitempty"`
}

// DecodeFeatureCollection parses a GeoJSON FeatureCollection from r.
func DecodeFeatureCollection(r io.Reader) (*geojson.FeatureCollection, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}

	fc, err := geojson.UnmarshalFeatureCollection(data)
	if err != nil {
		return nil, fmt.Errorf("decode geojson: %w", err)
	}

	return fc, nil
}

// ReadFeatureCollection reads a GeoJSON FeatureCollection from disk.
func ReadFeatureCollection(path string) (*geojson.FeatureCollection, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	// Explicitly ignore close error as it's a read-only operation
	defer func() { _ = f.Close() }()

	fc, err := DecodeFeatureCollection(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	log.Debug().
		Str("path", path).
		Int("features", len(fc.Features)).
		Msg("GeoJSON loaded")

	return fc, nil
}

// MarshalFeatureCollection serializes fc according to opts.
func MarshalFeatureCollection(fc *geojson.FeatureCollection, opts WriteOptions) ([]byte, error) {
	if opts.Minify {
		data, err := fc.MarshalJSON()
		if err != nil {
			return nil, err
		}
		return MinifyJSON(data)
	}

	indent := opts.Indent
	if indent == "" {
		indent = DefaultIndent
	}

	return json.MarshalIndent(fc, "", indent)
}

// MinifyJSON strips insignificant whitespace from a JSON document.
func MinifyJSON(data []byte) ([]byte, error) {
	m := minify.New()
	m.AddFunc("application/json", minjson.Minify)
	return m.Bytes("application/json", data)
}

// WriteFeatureCollection serializes fc and atomically writes it to path.
func WriteFeatureCollection(path string, fc *geojson.FeatureCollection, opts WriteOptions) error {
	data, err := MarshalFeatureCollection(fc, opts)
	if err != nil {
		return fmt.Errorf("encode geojson: %w", err)
	}

	return WriteFile(path, data)
}

// WriteFile writes data next to path in a temporary file and renames it into
// place, so a failed write never leaves a truncated document behind.
func WriteFile(path string, data []byte) error {
	f, err := Stage(path, data)
	if err != nil {
		return err
	}
	return f.Commit()
}

// StagedFile is data written to a temporary file next to its destination,
// waiting to be renamed into place.
type StagedFile struct {
	path  string
	tmp   string
	bytes int
}

// Stage writes data to a temporary file in the directory of path. Nothing is
// visible at path until Commit; Discard removes the temporary file.
func Stage(path string, data []byte) (*StagedFile, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, err
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return nil, err
	}
	f := &StagedFile{path: path, tmp: tmp.Name(), bytes: len(data)}

	fail := func(err error) (*StagedFile, error) {
		_ = tmp.Close()
		f.Discard()
		return nil, err
	}

	if _, err := tmp.Write(data); err != nil {
		return fail(err)
	}
	if err := tmp.Sync(); err != nil {
		return fail(err)
	}
	if err := tmp.Close(); err != nil {
		return fail(err)
	}
	if err := os.Chmod(f.tmp, 0644); err != nil {
		f.Discard()
		return nil, err
	}

	return f, nil
}

// Path returns the destination of the file.
func (f *StagedFile) Path() string {
	return f.path
}

// Commit renames the temporary file into place.
func (f *StagedFile) Commit() error {
	if err := os.Rename(f.tmp, f.path); err != nil {
		f.Discard()
		return err
	}

	log.Debug().Str("path", f.path).Int("bytes", f.bytes).Msg("File written")
	return nil
}

// Discard removes the temporary file. It is safe to call after Commit.
func (f *StagedFile) Discard() {
	if err := os.Remove(f.tmp); err != nil && !os.IsNotExist(err) {
		log.Error().Err(err).Str("path", f.tmp).Msg("Failed to remove temporary file")
	}
}
