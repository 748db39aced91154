package chainage

import (
	"errors"
	"math"
	"reflect"
	"testing"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
)

// metersPerDegree is the length of one degree of longitude on the equator.
const metersPerDegree = 111319.49079327357

// equator builds a line along the equator with vertices at the given
// distances in meters from lon 0.
func equator(distances ...float64) orb.LineString {
	ls := make(orb.LineString, 0, len(distances))
	for _, d := range distances {
		ls = append(ls, orb.Point{d / metersPerDegree, 0})
	}
	return ls
}

func collection(geoms ...orb.Geometry) *geojson.FeatureCollection {
	fc := geojson.NewFeatureCollection()
	for _, g := range geoms {
		f := geojson.NewFeature(g)
		f.Properties["name"] = "route"
		fc.Append(f)
	}
	return fc
}

func labels(markers []Marker) []string {
	out := make([]string, 0, len(markers))
	for _, m := range markers {
		out = append(out, m.Label)
	}
	return out
}

func opts(start, interval float64) Options {
	return Options{Start: start, Interval: interval, Property: DefaultProperty}
}

func ptr(v float64) *float64 { return &v }

func TestGenerateThreePointRoute(t *testing.T) {
	fc := collection(equator(0, 120, 250.5))

	res, err := Generate(fc, opts(0, 100), nil)
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}

	want := []string{"0+000 (Start)", "0+100", "0+200", "0+250 (Final)"}
	if got := labels(res.Markers); !reflect.DeepEqual(got, want) {
		t.Fatalf("labels = %v; want %v", got, want)
	}

	// intermediate markers are interpolated in lon/lat
	if lon := res.Markers[1].Point.Lon() * metersPerDegree; math.Abs(lon-100) > 0.01 {
		t.Fatalf("0+100 placed at %.4f m", lon)
	}
	if lon := res.Markers[2].Point.Lon() * metersPerDegree; math.Abs(lon-200) > 0.01 {
		t.Fatalf("0+200 placed at %.4f m", lon)
	}
	if res.Markers[0].Kind != KindStart || res.Markers[3].Kind != KindFinal {
		t.Fatalf("unexpected kinds: %+v", res.Markers)
	}

	// route feature first, then its markers
	if len(res.Features) != 5 || res.Features[0] != fc.Features[0] {
		t.Fatalf("unexpected feature order: %d features", len(res.Features))
	}
	for i, f := range res.Features[1:] {
		if f.Geometry.GeoJSONType() != "Point" {
			t.Fatalf("marker %d is %s", i, f.Geometry.GeoJSONType())
		}
		if f.Properties[DefaultProperty] != want[i] {
			t.Fatalf("marker %d property = %v", i, f.Properties[DefaultProperty])
		}
		if len(f.Properties) != 1 {
			t.Fatalf("marker %d has extra properties: %v", i, f.Properties)
		}
	}
}

func TestGenerateShortRoute(t *testing.T) {
	fc := collection(equator(0, 42))

	res, err := Generate(fc, opts(36.6, 100), nil)
	if err != nil {
		t.Fatal(err)
	}

	want := []string{"36+600 (Start)", "36+642 (Final)"}
	if got := labels(res.Markers); !reflect.DeepEqual(got, want) {
		t.Fatalf("labels = %v; want %v", got, want)
	}
}

func TestGenerateEndChainageCutoff(t *testing.T) {
	fc := collection(equator(0, 400, 1000), equator(0, 500))

	res, err := Generate(fc, Options{Start: 10, End: ptr(10.3), Interval: 100}, nil)
	if err != nil {
		t.Fatal(err)
	}

	want := []string{"10+000 (Start)", "10+100", "10+200", "10+300"}
	if got := labels(res.Markers); !reflect.DeepEqual(got, want) {
		t.Fatalf("labels = %v; want %v", got, want)
	}

	limit := PositionFromKm(10.3)
	for _, m := range res.Markers {
		if m.Position > limit {
			t.Fatalf("marker %q beyond end chainage", m.Label)
		}
	}

	// both features are still passed through
	if len(res.Features) != 2+len(want) {
		t.Fatalf("features = %d", len(res.Features))
	}
}

func TestGenerateMultiLineOffsetsFromStart(t *testing.T) {
	cases := []struct {
		name   string
		second orb.LineString
		want   []string
		// offset of the 0+300 marker into the second route, 0 if absent
		at float64
	}{
		{
			// 200 m into a 100.5 m route is never reached
			name:   "short second route",
			second: equator(0, 100.5),
			want: []string{
				"0+000 (Start)", "0+100", "0+150 (Final)",
				"0+200 (Start)", "0+200 (Final)",
			},
		},
		{
			name:   "long second route",
			second: equator(0, 350.5),
			want: []string{
				"0+000 (Start)", "0+100", "0+150 (Final)",
				"0+200 (Start)", "0+300", "0+350 (Final)",
			},
			at: 300,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			fc := collection(orb.MultiLineString{equator(0, 150.5), tc.second})

			res, err := Generate(fc, opts(0, 100), nil)
			if err != nil {
				t.Fatal(err)
			}
			if got := labels(res.Markers); !reflect.DeepEqual(got, tc.want) {
				t.Fatalf("labels = %v; want %v", got, tc.want)
			}

			// the multi line feature appears once
			if len(res.Features) != 1+len(tc.want) {
				t.Fatalf("features = %d", len(res.Features))
			}

			if tc.at > 0 {
				m := res.Markers[4]
				if lon := m.Point.Lon() * metersPerDegree; math.Abs(lon-tc.at) > 0.01 {
					t.Fatalf("%s placed %.4f m into the route; want %.0f", m.Label, lon, tc.at)
				}
			}
		})
	}
}

func TestGenerateInvariants(t *testing.T) {
	fc := collection(
		equator(0, 333, 333, 1234.5, 2050),
		orb.MultiLineString{equator(0, 10), equator(0, 777.7, 1999.9)},
	)

	first, err := Generate(fc, opts(36.6, 100), nil)
	if err != nil {
		t.Fatal(err)
	}

	seen := make(map[string]bool)
	for i, m := range first.Markers {
		if seen[m.Label] {
			t.Fatalf("duplicate label %q", m.Label)
		}
		seen[m.Label] = true

		if i > 0 && m.Position < first.Markers[i-1].Position {
			t.Fatalf("chainage decreases at %q", m.Label)
		}
		if m.Value.M >= roundUpFrom {
			t.Fatalf("label %q not rounded", m.Label)
		}
	}

	second, err := Generate(fc, opts(36.6, 100), nil)
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(labels(first.Markers), labels(second.Markers)) {
		t.Fatal("generation is not deterministic")
	}
	for i := range first.Markers {
		if first.Markers[i].Point != second.Markers[i].Point {
			t.Fatalf("marker %d moved between runs", i)
		}
	}
}

func TestGenerateSharedMarkerSet(t *testing.T) {
	fc := collection(equator(0, 250.5))

	res, err := Generate(fc, opts(0, 100), nil)
	if err != nil {
		t.Fatal(err)
	}

	again, err := Generate(fc, opts(0, 100), res.Set)
	if err != nil {
		t.Fatal(err)
	}
	if len(again.Markers) != 0 {
		t.Fatalf("labels re-emitted with shared set: %v", labels(again.Markers))
	}
	if again.Set != res.Set {
		t.Fatal("set not returned")
	}
}

func TestGenerateErrors(t *testing.T) {
	var empty *EmptyInputError
	if _, err := Generate(geojson.NewFeatureCollection(), opts(0, 100), nil); !errors.As(err, &empty) {
		t.Fatalf("expected EmptyInputError, got %v", err)
	}

	cases := []struct {
		name  string
		fc    *geojson.FeatureCollection
		index int
	}{
		{"point", collection(equator(0, 100), orb.Point{1, 1}), 1},
		{"polygon", collection(orb.Polygon{{{0, 0}, {1, 0}, {1, 1}, {0, 0}}}), 0},
		{"single vertex line", collection(orb.LineString{{0, 0}}), 0},
		{"null geometry", collection(nil), 0},
		{"empty multi line", collection(orb.MultiLineString{}), 0},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Generate(tc.fc, opts(0, 100), nil)
			var invalid *InvalidGeometryError
			if !errors.As(err, &invalid) {
				t.Fatalf("expected InvalidGeometryError, got %v", err)
			}
			if invalid.Index != tc.index {
				t.Fatalf("index = %d; want %d", invalid.Index, tc.index)
			}
		})
	}

	if _, err := Generate(collection(equator(0, 100)), opts(0, 0), nil); !errors.Is(err, ErrInvalidInterval) {
		t.Fatalf("expected ErrInvalidInterval, got %v", err)
	}
	if _, err := Generate(collection(equator(0, 100)), opts(-1, 100), nil); !errors.Is(err, ErrNegativeChainage) {
		t.Fatalf("expected ErrNegativeChainage, got %v", err)
	}
	if _, err := Generate(collection(equator(0, 100)), Options{Interval: 100, End: ptr(-0.5)}, nil); !errors.Is(err, ErrNegativeChainage) {
		t.Fatalf("negative end: expected ErrNegativeChainage, got %v", err)
	}
}

func TestGenerateRejectsOutOfRangeOptions(t *testing.T) {
	nan, inf := math.NaN(), math.Inf(1)

	cases := map[string]Options{
		"nan start":     {Start: nan, Interval: 100},
		"inf start":     {Start: inf, Interval: 100},
		"huge start":    {Start: 1e13, Interval: 100},
		"nan interval":  {Interval: nan},
		"inf interval":  {Interval: inf},
		"nan end":       {Interval: 100, End: ptr(nan)},
		"negative inf":  {Interval: 100, End: ptr(math.Inf(-1))},
		"huge interval": {Interval: 1e16},
	}

	for name, o := range cases {
		t.Run(name, func(t *testing.T) {
			res, err := Generate(collection(equator(0, 250)), o, nil)
			if !errors.Is(err, ErrOutOfRange) {
				t.Fatalf("expected ErrOutOfRange, got %v (%v)", err, res)
			}
		})
	}
}

func TestGenerateZeroLengthSegment(t *testing.T) {
	fc := collection(equator(0, 100, 100, 150.5))

	res, err := Generate(fc, opts(0, 100), nil)
	if err != nil {
		t.Fatal(err)
	}

	want := []string{"0+000 (Start)", "0+100", "0+150 (Final)"}
	if got := labels(res.Markers); !reflect.DeepEqual(got, want) {
		t.Fatalf("labels = %v; want %v", got, want)
	}
}

func TestResultCollection(t *testing.T) {
	fc := collection(equator(0, 50))
	fc.ExtraMembers = geojson.Properties{"name": "survey"}

	res, err := Generate(fc, opts(0, 100), nil)
	if err != nil {
		t.Fatal(err)
	}

	out := res.Collection(fc)
	if out == fc {
		t.Fatal("collection must be a copy")
	}
	if len(fc.Features) != 1 {
		t.Fatal("input collection mutated")
	}
	if out.ExtraMembers["name"] != "survey" || len(out.Features) != 3 {
		t.Fatalf("unexpected output collection: %+v", out)
	}
}

func TestGenerateMaxMarkers(t *testing.T) {
	fc := collection(equator(0, 250.5))

	o := opts(0, 100)
	o.MaxMarkers = 4
	if _, err := Generate(fc, o, nil); err != nil {
		t.Fatalf("four markers within the limit: %v", err)
	}

	o.MaxMarkers = 3
	res, err := Generate(fc, o, nil)
	if !errors.Is(err, ErrTooManyMarkers) || res != nil {
		t.Fatalf("expected ErrTooManyMarkers, got %v, %v", res, err)
	}
}
