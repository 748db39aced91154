package chainage

import "testing"

func TestFormatKm(t *testing.T) {
	cases := []struct {
		name  string
		input float64
		want  string
	}{
		{"zero", 0, "0+000"},
		{"plain", 36.6, "36+600"},
		{"tenths accumulate cleanly", 36.7, "36+700"},
		{"km rollover", 36.999, "37+000"},
		{"rounding threshold", 12.99, "13+000"},
		{"just below threshold", 12.989, "12+989"},
		{"meters padded", 5.007, "5+007"},
		{"sub meter floors", 1.0005, "1+000"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := FormatKm(tc.input); got != tc.want {
				t.Fatalf("FormatKm(%v) = %q; want %q", tc.input, got, tc.want)
			}
		})
	}
}

func TestFormatKmNeverEndsAbove990(t *testing.T) {
	for mm := int64(0); mm < 3_000_000; mm += 137 {
		v := Position(mm).Value()
		if v.M >= roundUpFrom || v.M < 0 {
			t.Fatalf("Position(%d).Value() = %+v", mm, v)
		}
		if fv := FromKm(float64(mm) / 1e6); fv.M >= roundUpFrom {
			t.Fatalf("FromKm(%v) = %+v", float64(mm)/1e6, fv)
		}
	}
}

func TestPosition(t *testing.T) {
	p := PositionFromKm(36.6)
	if p != 36_600_000 {
		t.Fatalf("PositionFromKm(36.6) = %d", p)
	}

	for i := 0; i < 10; i++ {
		p += PositionFromMeters(100)
	}
	if got := p.Value().String(); got != "37+600" {
		t.Fatalf("after ten steps got %q; want 37+600", got)
	}
	if p.Km() != 37.6 {
		t.Fatalf("Km() = %v", p.Km())
	}
	if PositionFromMeters(250.4).Meters() != 250.4 {
		t.Fatalf("Meters() = %v", PositionFromMeters(250.4).Meters())
	}
}
