// Package gpx converts GPX documents to and from GeoJSON feature collections.
// Tracks and routes become lines, waypoints become points.
package gpx

import (
	"errors"
	"fmt"
	"io"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
	"github.com/rs/zerolog/log"
	"github.com/tkrajina/gpxgo/gpx"
)

// Version of the GPX schema written by Encode.
const Version = "1.1"

// ErrEmpty is returned when a document holds no tracks, routes or waypoints.
var ErrEmpty = errors.New("gpx: document has no tracks, routes or waypoints")

// Decode reads a GPX document. Every track becomes one feature: a LineString
// for a single segment, a MultiLineString otherwise. Segments with fewer than
// two points are kept so the generator can reject them. Elevation is dropped.
func Decode(r io.Reader) (*geojson.FeatureCollection, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read gpx: %w", err)
	}

	doc, err := gpx.ParseBytes(data)
	if err != nil {
		return nil, fmt.Errorf("parse gpx: %w", err)
	}

	fc := geojson.NewFeatureCollection()

	for _, t := range doc.Tracks {
		var geom orb.Geometry
		if len(t.Segments) == 1 {
			geom = line(t.Segments[0].Points)
		} else {
			ml := make(orb.MultiLineString, 0, len(t.Segments))
			for _, seg := range t.Segments {
				ml = append(ml, line(seg.Points))
			}
			geom = ml
		}
		fc.Append(feature(geom, "track", t.Name, t.Description))
	}

	for _, rt := range doc.Routes {
		fc.Append(feature(line(rt.Points), "route", rt.Name, rt.Description))
	}

	for _, wp := range doc.Waypoints {
		fc.Append(feature(orb.Point{wp.Longitude, wp.Latitude}, "waypoint", wp.Name, wp.Description))
	}

	if len(fc.Features) == 0 {
		return nil, ErrEmpty
	}

	log.Debug().
		Int("tracks", len(doc.Tracks)).
		Int("routes", len(doc.Routes)).
		Int("waypoints", len(doc.Waypoints)).
		Msg("GPX decoded")

	return fc, nil
}

func line(points []gpx.GPXPoint) orb.LineString {
	ls := make(orb.LineString, 0, len(points))
	for _, p := range points {
		ls = append(ls, orb.Point{p.Longitude, p.Latitude})
	}
	return ls
}

func feature(g orb.Geometry, kind, name, desc string) *geojson.Feature {
	f := geojson.NewFeature(g)
	f.Properties["gpx"] = kind
	if name != "" {
		f.Properties["name"] = name
	}
	if desc != "" {
		f.Properties["description"] = desc
	}
	return f
}

// Options controls GPX output.
type Options struct {
	// NameProperties are tried in order for the track or waypoint name.
	NameProperties []string `yaml:"name_properties,omitempty"`
	Indent         bool     `yaml:"indent"`
}

// DefaultOptions names elements after "name", then "chainage".
func DefaultOptions() Options {
	return Options{
		NameProperties: []string{"name", "chainage"},
		Indent:         true,
	}
}

// Encode writes lines as tracks and points as waypoints. Polygons and other
// geometries have no GPX form and are skipped.
func Encode(fc *geojson.FeatureCollection, opts Options) ([]byte, error) {
	doc := &gpx.GPX{Creator: "chainage"}
	skipped := 0

	for _, f := range fc.Features {
		name := nameOf(f, opts.NameProperties)

		switch g := f.Geometry.(type) {
		case orb.Point:
			doc.Waypoints = append(doc.Waypoints, point(g, name))
		case orb.MultiPoint:
			for _, p := range g {
				doc.Waypoints = append(doc.Waypoints, point(p, name))
			}
		case orb.LineString:
			doc.Tracks = append(doc.Tracks, track(name, g))
		case orb.MultiLineString:
			doc.Tracks = append(doc.Tracks, track(name, g...))
		default:
			skipped++
		}
	}

	if skipped > 0 {
		log.Warn().Int("skipped", skipped).Msg("Features without a GPX form skipped")
	}

	data, err := doc.ToXml(gpx.ToXmlParams{Version: Version, Indent: opts.Indent})
	if err != nil {
		return nil, fmt.Errorf("encode gpx: %w", err)
	}
	return data, nil
}

func point(p orb.Point, name string) gpx.GPXPoint {
	return gpx.GPXPoint{
		Point: gpx.Point{Latitude: p.Lat(), Longitude: p.Lon()},
		Name:  name,
	}
}

func track(name string, lines ...orb.LineString) gpx.GPXTrack {
	t := gpx.GPXTrack{Name: name}
	for _, ls := range lines {
		seg := gpx.GPXTrackSegment{}
		for _, p := range ls {
			seg.Points = append(seg.Points, point(p, ""))
		}
		t.Segments = append(t.Segments, seg)
	}
	return t
}

func nameOf(f *geojson.Feature, keys []string) string {
	for _, k := range keys {
		if v, ok := f.Properties[k]; ok && v != nil {
			if s := fmt.Sprint(v); s != "" {
				return s
			}
		}
	}
	return ""
}
