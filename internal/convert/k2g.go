// Package convert wraps the external k2g KML to GeoJSON converter.
package convert

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog/log"
)

// ErrConverterNotFound is returned when the converter binary is not in PATH.
var ErrConverterNotFound = errors.New("k2g command not found, ensure it is installed and in your PATH")

// ConversionError reports a converter run that exited with an error.
type ConversionError struct {
	File   string
	Stderr string
	Err    error
}

func (e *ConversionError) Error() string {
	msg := strings.TrimSpace(e.Stderr)
	if msg == "" {
		msg = e.Err.Error()
	}
	return fmt.Sprintf("geojson conversion failed for %q: %s", e.File, msg)
}

func (e *ConversionError) Unwrap() error {
	return e.Err
}

// K2G describes how the converter is invoked.
type K2G struct {
	Binary          string `yaml:"binary,omitempty"`
	StyleType       string `yaml:"style_type,omitempty"`
	SeparateFolders bool   `yaml:"separate_folders"`
}

// DefaultK2G returns the converter settings used by the menu.
func DefaultK2G() K2G {
	return K2G{
		Binary:          "k2g",
		SeparateFolders: true,
		StyleType:       "leaflet",
	}
}

// OutputDir returns the directory the converter writes to for kmlPath:
// a sibling directory named after the file without its extension.
func OutputDir(kmlPath string) string {
	base := filepath.Base(kmlPath)
	name := strings.TrimSuffix(base, filepath.Ext(base))
	return filepath.Join(filepath.Dir(kmlPath), name)
}

// Args returns the converter arguments for kmlPath and outDir.
func (k K2G) Args(kmlPath, outDir string) []string {
	args := []string{kmlPath, outDir}
	if k.SeparateFolders {
		args = append(args, "--separate-folders")
	}
	if k.StyleType != "" {
		args = append(args, "--style-type", k.StyleType)
	}
	return args
}

// Run converts kmlPath into a directory of GeoJSON files and returns it.
func (k K2G) Run(ctx context.Context, kmlPath string) (string, error) {
	info, err := os.Stat(kmlPath)
	if err != nil {
		return "", fmt.Errorf("input file: %w", err)
	}
	if info.IsDir() {
		return "", fmt.Errorf("input file %s is a directory", kmlPath)
	}

	binary := k.Binary
	if binary == "" {
		binary = "k2g"
	}
	path, err := exec.LookPath(binary)
	if err != nil {
		return "", ErrConverterNotFound
	}

	outDir := OutputDir(kmlPath)
	if err := os.MkdirAll(outDir, 0755); err != nil {
		return "", err
	}

	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, path, k.Args(kmlPath, outDir)...)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	log.Debug().
		Str("binary", path).
		Strs("args", cmd.Args[1:]).
		Msg("Running converter")

	if err := cmd.Run(); err != nil {
		return "", &ConversionError{File: filepath.Base(kmlPath), Stderr: stderr.String(), Err: err}
	}

	if out := strings.TrimSpace(stdout.String()); out != "" {
		log.Info().Str("file", kmlPath).Msg(out)
	}
	if out := strings.TrimSpace(stderr.String()); out != "" {
		log.Warn().Str("file", kmlPath).Msg(out)
	}

	log.Info().
		Str("file", kmlPath).
		Str("dir", outDir).
		Msg("GeoJSON directory created")

	return outDir, nil
}
