package convert

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"runtime"
	"strings"
	"testing"
)

func TestArgs(t *testing.T) {
	cases := []struct {
		name string
		k    K2G
		want []string
	}{
		{"defaults", DefaultK2G(), []string{"a.kml", "a", "--separate-folders", "--style-type", "leaflet"}},
		{"bare", K2G{Binary: "k2g"}, []string{"a.kml", "a"}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := tc.k.Args("a.kml", "a"); !reflect.DeepEqual(got, tc.want) {
				t.Fatalf("Args = %v; want %v", got, tc.want)
			}
		})
	}
}

func TestOutputDir(t *testing.T) {
	got := OutputDir(filepath.Join("data", "Route_new.kml"))
	if want := filepath.Join("data", "Route_new"); got != want {
		t.Fatalf("OutputDir = %q; want %q", got, want)
	}
}

// fakeConverter writes a shell script standing in for k2g.
func fakeConverter(t *testing.T, script string) string {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("shell script converter")
	}

	path := filepath.Join(t.TempDir(), "k2g")
	if err := os.WriteFile(path, []byte("#!/bin/sh\n"+script), 0755); err != nil {
		t.Fatal(err)
	}
	return path
}

func writeKML(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "route.kml")
	if err := os.WriteFile(path, []byte("<kml/>"), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestRun(t *testing.T) {
	bin := fakeConverter(t, `echo '{"type":"FeatureCollection","features":[]}' > "$2/route.geojson"`+"\n")
	in := writeKML(t)

	dir, err := K2G{Binary: bin, SeparateFolders: true}.Run(context.Background(), in)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if dir != OutputDir(in) {
		t.Fatalf("dir = %q", dir)
	}
	if _, err := os.Stat(filepath.Join(dir, "route.geojson")); err != nil {
		t.Fatalf("converter output missing: %v", err)
	}
}

func TestRunFailure(t *testing.T) {
	bin := fakeConverter(t, "echo 'bad kml' >&2\nexit 3\n")

	_, err := K2G{Binary: bin}.Run(context.Background(), writeKML(t))
	var convErr *ConversionError
	if !errors.As(err, &convErr) {
		t.Fatalf("expected ConversionError, got %v", err)
	}
	if !strings.Contains(convErr.Error(), "bad kml") {
		t.Fatalf("stderr not reported: %v", convErr)
	}
}

func TestRunMissing(t *testing.T) {
	in := writeKML(t)

	_, err := K2G{Binary: "k2g-definitely-not-installed"}.Run(context.Background(), in)
	if !errors.Is(err, ErrConverterNotFound) {
		t.Fatalf("expected ErrConverterNotFound, got %v", err)
	}

	_, err = DefaultK2G().Run(context.Background(), filepath.Join(t.TempDir(), "missing.kml"))
	if !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("expected not-exist error, got %v", err)
	}
}
