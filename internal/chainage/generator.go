package chainage

import (
	"github.com/woozymasta/chainage/internal/geo"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
	"github.com/rs/zerolog/log"
)

// Defaults used when no configuration is supplied.
const (
	DefaultStart    = 36.6
	DefaultInterval = 100.0
	DefaultProperty = "chainage"
)

// Options configures a generation run.
type Options struct {
	// End is an inclusive upper bound in kilometers, nil means unbounded.
	End *float64
	// Property is the marker feature property holding the label.
	Property string
	// Start is the chainage of the first vertex of the first route, in kilometers.
	Start float64
	// Interval is the distance between markers in meters.
	Interval float64
	// MaxMarkers fails the run once more markers would be placed, 0 means no limit.
	MaxMarkers int
}

// DefaultOptions returns the options used by the command line tools.
func DefaultOptions() Options {
	return Options{
		Start:    DefaultStart,
		Interval: DefaultInterval,
		Property: DefaultProperty,
	}
}

func (o Options) validate() error {
	if !finite(o.Start, MaxKm) || !finite(o.Interval, MaxKm*1000) {
		return ErrOutOfRange
	}
	if o.End != nil && !finite(*o.End, MaxKm) {
		return ErrOutOfRange
	}
	if o.Interval <= 0 {
		return ErrInvalidInterval
	}
	if o.Start < 0 || (o.End != nil && *o.End < 0) {
		return ErrNegativeChainage
	}
	return nil
}

// Route is one continuous line.
type Route = orb.LineString

// GeometryKind discriminates single and multi line features.
type GeometryKind int

// Geometry kinds.
const (
	Single GeometryKind = iota
	Multi
)

// Geometry is a line feature resolved into its routes.
type Geometry struct {
	Kind   GeometryKind
	Routes []Route
}

// ResolveGeometry classifies the geometry of the feature at index.
func ResolveGeometry(index int, g orb.Geometry) (Geometry, error) {
	var gm Geometry

	switch v := g.(type) {
	case orb.LineString:
		gm = Geometry{Kind: Single, Routes: []Route{v}}
	case orb.MultiLineString:
		gm = Geometry{Kind: Multi, Routes: make([]Route, 0, len(v))}
		for _, ls := range v {
			gm.Routes = append(gm.Routes, ls)
		}
		if len(gm.Routes) == 0 {
			return gm, &InvalidGeometryError{Index: index, Type: v.GeoJSONType(), Reason: "no lines"}
		}
	case nil:
		return gm, &InvalidGeometryError{Index: index, Type: "null"}
	default:
		return gm, &InvalidGeometryError{Index: index, Type: g.GeoJSONType()}
	}

	for _, r := range gm.Routes {
		if len(r) < 2 {
			return gm, &InvalidGeometryError{
				Index:  index,
				Type:   g.GeoJSONType(),
				Reason: "line needs at least two coordinates",
			}
		}
	}

	return gm, nil
}

// Result is the output of a generation run.
type Result struct {
	// Features holds each input feature followed by its markers.
	Features []*geojson.Feature
	Markers  []Marker
	Set      *MarkerSet
}

// Collection returns a copy of fc with its features replaced by r.Features.
func (r *Result) Collection(fc *geojson.FeatureCollection) *geojson.FeatureCollection {
	out := *fc
	out.Features = r.Features
	return &out
}

// Generate walks every route of fc and places a marker each interval meters,
// plus a start and a final marker per route.
//
// Labels already in set are not emitted again; a nil set starts empty. The set
// is returned in the result so consecutive runs can share it. The running
// chainage carries over from route to route, but distance is measured from the
// first vertex of each route: a marker for chainage c lies (c-Start)*1000
// meters into the route. A route starts at the running chainage and its final
// marker carries the chainage reached at its last vertex, never less than its
// start. Once a marker would exceed Options.End no further markers are placed,
// neither on the current route nor on later ones.
func Generate(fc *geojson.FeatureCollection, opts Options, set *MarkerSet) (*Result, error) {
	if err := opts.validate(); err != nil {
		return nil, err
	}
	if fc == nil || len(fc.Features) == 0 {
		return nil, &EmptyInputError{}
	}
	if opts.Property == "" {
		opts.Property = DefaultProperty
	}
	if set == nil {
		set = NewMarkerSet()
	}

	// resolve everything first so a bad feature fails the whole run
	geoms := make([]Geometry, len(fc.Features))
	for i, f := range fc.Features {
		gm, err := ResolveGeometry(i, f.Geometry)
		if err != nil {
			return nil, err
		}
		geoms[i] = gm
	}

	w := walker{
		max:      opts.MaxMarkers,
		set:      set,
		interval: PositionFromMeters(opts.Interval),
		start:    PositionFromKm(opts.Start),
	}
	w.next = w.start
	if opts.End != nil {
		limit := PositionFromKm(*opts.End)
		w.limit = &limit
	}
	if w.interval <= 0 {
		return nil, ErrInvalidInterval
	}

	res := &Result{Set: set}
	for i, f := range fc.Features {
		res.Features = append(res.Features, f)

		first := len(w.markers)
		for _, r := range geoms[i].Routes {
			w.walk(i, r)
		}
		if w.err != nil {
			return nil, w.err
		}

		for _, m := range w.markers[first:] {
			res.Features = append(res.Features, m.GeoJSON(opts.Property))
		}
	}
	res.Markers = w.markers

	log.Debug().
		Int("features", len(fc.Features)).
		Int("markers", len(res.Markers)).
		Float64("start_km", opts.Start).
		Float64("next_km", w.next.Km()).
		Bool("halted", w.halted).
		Msg("Chainage markers generated")

	return res, nil
}

// walker carries the chainage state across routes.
type walker struct {
	set     *MarkerSet
	limit   *Position
	markers []Marker
	max     int
	err     error

	// start is the chainage every route offset is measured from
	start Position
	// next is the running chainage, the label of the next interval marker
	next     Position
	interval Position
	halted   bool
}

func (w *walker) exceeds(p Position) bool {
	return w.limit != nil && p > *w.limit
}

func (w *walker) emit(feature int, kind Kind, pt orb.Point, pos Position) {
	v := pos.Value()
	label := v.String()

	switch kind {
	case KindStart:
		if w.set.Has(label) {
			return
		}
		w.set.Add(label)
		label += StartSuffix
	case KindFinal:
		label += FinalSuffix
		if w.set.Has(label) {
			return
		}
		w.set.Add(label)
	default:
		if w.set.Has(label) {
			return
		}
		w.set.Add(label)
	}

	if w.max > 0 && len(w.markers) >= w.max {
		w.err = ErrTooManyMarkers
		w.halted = true
		return
	}

	w.markers = append(w.markers, Marker{
		Point:    pt,
		Label:    label,
		Value:    v,
		Position: pos,
		Kind:     kind,
		Feature:  feature,
	})
}

func (w *walker) walk(feature int, r Route) {
	if w.halted {
		return
	}
	if w.exceeds(w.next) {
		w.halted = true
		return
	}

	first := w.next
	w.emit(feature, KindStart, r[0], first)

	// total is reset for every route
	var total float64
	for i := 0; i+1 < len(r); i++ {
		a, b := r[i], r[i+1]
		seg := geo.Distance(a, b)

		for {
			target := (w.next - w.start).Meters()
			if total+seg < target {
				break
			}
			if w.exceeds(w.next) {
				w.halted = true
				return
			}

			ratio := 0.0
			if seg > 0 {
				ratio = (target - total) / seg
			}
			w.emit(feature, KindInterval, geo.Interpolate(a, b, ratio), w.next)
			if w.err != nil {
				return
			}
			w.next += w.interval
		}

		total += seg
	}

	end := max(w.start+PositionFromMeters(total), first)
	if !w.exceeds(end) {
		w.emit(feature, KindFinal, r[len(r)-1], end)
	}
}
