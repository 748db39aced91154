package chainage

import (
	"errors"
	"testing"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
)

func TestNormalizeLabel(t *testing.T) {
	cases := []struct {
		name  string
		input string
		want  string
	}{
		{"x99 rounds to next hundred", "12+099", "12+100"},
		{"two digit 99 rounds to next km", "12+99", "13+000"},
		{"unchanged", "12+450", "12+450"},
		{"x99 in upper hundreds", "36+599", "36+600"},
		{"999 rolls over", "36+999", "37+000"},
		{"suffix preserved", "36+199 (Final)", "36+200 (Final)"},
		{"round value unchanged", "37+000", "37+000"},
		{"ends in 9 only", "12+009", "12+009"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := NormalizeLabel(tc.input)
			if err != nil {
				t.Fatalf("NormalizeLabel(%q) error: %v", tc.input, err)
			}
			if got != tc.want {
				t.Fatalf("NormalizeLabel(%q) = %q; want %q", tc.input, got, tc.want)
			}

			again, err := NormalizeLabel(got)
			if err != nil || again != got {
				t.Fatalf("not idempotent: %q -> %q (%v)", got, again, err)
			}
		})
	}
}

func TestNormalizeLabelMalformed(t *testing.T) {
	for _, input := range []string{"", "abc", "CH 12+099", "12-099", "+099"} {
		got, err := NormalizeLabel(input)
		if !errors.Is(err, ErrMalformedLabel) {
			t.Fatalf("NormalizeLabel(%q) error = %v; want ErrMalformedLabel", input, err)
		}
		if got != input {
			t.Fatalf("malformed label %q changed to %q", input, got)
		}
	}
}

func TestNormalizeCollectionSkipUnlabeled(t *testing.T) {
	fc := geojson.NewFeatureCollection()
	route := geojson.NewFeature(orb.LineString{{0, 0}, {1, 0}})
	route.Properties["name"] = "route"
	fc.Append(route)
	for _, label := range []any{"0+099", "0+200 (Final)", nil} {
		f := geojson.NewFeature(orb.Point{0, 0})
		f.Properties["chainage"] = label
		fc.Append(f)
	}

	report := NormalizeCollection(fc, NormalizeOptions{SkipUnlabeled: true})
	if report.Unlabeled != 1 || report.Changed != 1 {
		t.Fatalf("unexpected report: %+v", report)
	}
	// an explicit null is still a malformed label
	if len(report.Diagnostics) != 1 || report.Diagnostics[0].Index != 3 {
		t.Fatalf("diagnostics = %+v", report.Diagnostics)
	}

	if strict := NormalizeCollection(fc, NormalizeOptions{}); strict.Unlabeled != 0 || len(strict.Diagnostics) != 2 {
		t.Fatalf("without skipping: %+v", strict)
	}
}

func TestNormalizeCollection(t *testing.T) {
	fc := geojson.NewFeatureCollection()
	add := func(props geojson.Properties) {
		f := geojson.NewFeature(orb.Point{0, 0})
		f.Properties = props
		fc.Append(f)
	}
	add(geojson.Properties{"chainage": "12+099", "name": "A", "styleUrl": "#s"})
	add(geojson.Properties{"chainage": "12+450", "name": "B"})
	add(geojson.Properties{"name": "no label"})
	add(geojson.Properties{"chainage": 1299.0})
	add(geojson.Properties{"chainage": "bad"})
	add(geojson.Properties{"chainage": nil})

	report := NormalizeCollection(fc, NormalizeOptions{Drop: DefaultDropProperties})

	if report.Records != 6 || report.Changed != 1 {
		t.Fatalf("unexpected report: %+v", report)
	}
	if len(report.Diagnostics) != 4 {
		t.Fatalf("diagnostics = %+v", report.Diagnostics)
	}
	wantIdx := []int{2, 3, 4, 5}
	for i, d := range report.Diagnostics {
		if d.Index != wantIdx[i] {
			t.Fatalf("diagnostic %d index = %d; want %d", i, d.Index, wantIdx[i])
		}
	}

	if got := fc.Features[0].Properties["chainage"]; got != "12+100" {
		t.Fatalf("label = %v", got)
	}
	if _, ok := fc.Features[0].Properties["styleUrl"]; ok {
		t.Fatal("styleUrl not dropped")
	}
	if _, ok := fc.Features[1].Properties["name"]; ok {
		t.Fatal("name not dropped")
	}
	if got := fc.Features[4].Properties["chainage"]; got != "bad" {
		t.Fatalf("malformed label changed: %v", got)
	}

	second := NormalizeCollection(fc, NormalizeOptions{})
	if second.Changed != 0 {
		t.Fatalf("second pass changed %d labels", second.Changed)
	}
}

func TestNormalizeTable(t *testing.T) {
	rows := []TableRow{
		{Label: "0+099", Lon: 1, Lat: 2},
		{Label: ""},
		{Label: "1+99 (Start)"},
	}

	report := NormalizeTable(rows)
	if report.Changed != 2 || len(report.Diagnostics) != 1 {
		t.Fatalf("unexpected report: %+v", report)
	}
	if rows[0].Label != "0+100" || rows[2].Label != "2+000 (Start)" {
		t.Fatalf("rows = %+v", rows)
	}
	if rows[0].Lon != 1 || rows[0].Lat != 2 {
		t.Fatal("coordinates changed")
	}
}
