package chainage

import (
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
)

// Label suffixes for the first and last marker of a route.
const (
	StartSuffix = " (Start)"
	FinalSuffix = " (Final)"
)

// Kind tells where on a route a marker was placed.
type Kind int

// Marker kinds.
const (
	KindInterval Kind = iota
	KindStart
	KindFinal
)

// Marker is a labeled point placed along a route.
type Marker struct {
	Point    orb.Point
	Label    string
	Value    Value
	Position Position
	Kind     Kind
	// Feature is the index of the input feature the marker belongs to.
	Feature int
}

// GeoJSON returns the marker as a GeoJSON point feature carrying its label
// under property.
func (m Marker) GeoJSON(property string) *geojson.Feature {
	f := geojson.NewFeature(m.Point)
	f.Properties[property] = m.Label
	return f
}

// MarkerSet holds the labels already emitted during a run.
type MarkerSet struct {
	labels map[string]struct{}
}

// NewMarkerSet returns an empty set.
func NewMarkerSet() *MarkerSet {
	return &MarkerSet{labels: make(map[string]struct{})}
}

// Has reports whether label was recorded.
func (s *MarkerSet) Has(label string) bool {
	_, ok := s.labels[label]
	return ok
}

// Add records label.
func (s *MarkerSet) Add(label string) {
	s.labels[label] = struct{}{}
}

// Len returns the number of recorded labels.
func (s *MarkerSet) Len() int {
	return len(s.labels)
}
