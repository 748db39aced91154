package geo

import (
	"math"

	"github.com/paulmach/orb"
	"github.com/tidwall/geodesic"
)

// Distance returns the WGS84 geodesic distance in meters between a and b.
func Distance(a, b orb.Point) float64 {
	var s12 float64
	geodesic.WGS84.Inverse(a.Lat(), a.Lon(), b.Lat(), b.Lon(), &s12, nil, nil)
	return s12
}

// LineLength sums the geodesic distances of all segments of ls.
func LineLength(ls orb.LineString) float64 {
	var total float64
	for i := 1; i < len(ls); i++ {
		total += Distance(ls[i-1], ls[i])
	}
	return total
}

// Interpolate returns the point at ratio along the straight segment a-b in
// coordinate space. Ratio is clamped to [0, 1].
func Interpolate(a, b orb.Point, ratio float64) orb.Point {
	if math.IsNaN(ratio) || ratio <= 0 {
		return a
	}
	if ratio >= 1 {
		return b
	}

	return orb.Point{
		a[0] + (b[0]-a[0])*ratio,
		a[1] + (b[1]-a[1])*ratio,
	}
}
