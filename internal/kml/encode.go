// Package kml converts between GeoJSON feature collections and KML documents.
package kml

import (
	"bytes"
	"fmt"
	"sort"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
	"github.com/rs/zerolog/log"
	"github.com/tdewolff/minify/v2"
	minxml "github.com/tdewolff/minify/v2/xml"
	gokml "github.com/twpayne/go-kml"
)

// Placemark naming fallbacks.
const (
	UnnamedPlacemark   = "Unnamed"
	DefaultDescription = "No description available"
)

// Options controls KML encoding.
type Options struct {
	// DocumentName is written as the Document name when set.
	DocumentName string `yaml:"document_name,omitempty"`
	// NameProperties are tried in order for the placemark name.
	NameProperties []string `yaml:"name_properties,omitempty"`
	// DescriptionProperty holds the placemark description.
	DescriptionProperty string `yaml:"description_property,omitempty"`
	Indent              string `yaml:"indent,omitempty"`
	Minify              bool   `yaml:"minify,omitempty"`
	// ExtendedData writes the remaining properties as ExtendedData.
	ExtendedData bool `yaml:"extended_data,omitempty"`
}

// DefaultOptions names placemarks after "name", then the chainage label.
func DefaultOptions() Options {
	return Options{
		NameProperties:      []string{"name", "chainage"},
		DescriptionProperty: "description",
		Indent:              "  ",
	}
}

// Stats counts what Encode wrote.
type Stats struct {
	Placemarks int
	Skipped    int
}

// Encode renders fc as a KML document.
// Features with unsupported or degenerate geometries are skipped with a warning.
func Encode(fc *geojson.FeatureCollection, opts Options) ([]byte, Stats, error) {
	var stats Stats

	doc := gokml.Document()
	if opts.DocumentName != "" {
		doc.Add(gokml.Name(opts.DocumentName))
	}

	for i, f := range fc.Features {
		name := placemarkName(f.Properties, opts.NameProperties)

		geom, err := encodeGeometry(f.Geometry)
		if err != nil {
			log.Warn().
				Int("feature", i).
				Str("name", name).
				Err(err).
				Msg("Skipping feature")
			stats.Skipped++
			continue
		}

		pm := gokml.Placemark(
			gokml.Name(name),
			gokml.Description(placemarkDescription(f.Properties, opts.DescriptionProperty)),
		)
		if opts.ExtendedData {
			if ed := extendedData(f.Properties, opts); ed != nil {
				pm.Add(ed)
			}
		}
		pm.Add(geom)

		doc.Add(pm)
		stats.Placemarks++
	}

	var buf bytes.Buffer
	k := gokml.KML(doc)
	if opts.Minify {
		if err := k.Write(&buf); err != nil {
			return nil, stats, err
		}
		data, err := MinifyXML(buf.Bytes())
		return data, stats, err
	}

	indent := opts.Indent
	if indent == "" {
		indent = "  "
	}
	if err := k.WriteIndent(&buf, "", indent); err != nil {
		return nil, stats, err
	}

	return buf.Bytes(), stats, nil
}

// MinifyXML strips insignificant whitespace from an XML document.
func MinifyXML(data []byte) ([]byte, error) {
	m := minify.New()
	m.AddFunc("text/xml", minxml.Minify)
	return m.Bytes("text/xml", data)
}

func placemarkName(props geojson.Properties, keys []string) string {
	for _, key := range keys {
		if s, ok := props[key].(string); ok && s != "" {
			return s
		}
	}
	return UnnamedPlacemark
}

func placemarkDescription(props geojson.Properties, key string) string {
	if key != "" {
		if s, ok := props[key].(string); ok && s != "" {
			return s
		}
	}
	return DefaultDescription
}

func extendedData(props geojson.Properties, opts Options) gokml.Element {
	skip := map[string]bool{opts.DescriptionProperty: true}
	for _, k := range opts.NameProperties {
		skip[k] = true
	}

	keys := make([]string, 0, len(props))
	for k := range props {
		if !skip[k] && props[k] != nil {
			keys = append(keys, k)
		}
	}
	if len(keys) == 0 {
		return nil
	}
	sort.Strings(keys)

	ed := gokml.ExtendedData()
	for _, k := range keys {
		ed.Add(gokml.Data(gokml.Name(k), gokml.Value(fmt.Sprint(props[k]))))
	}
	return ed
}

func coordinates(points ...orb.Point) gokml.Element {
	cs := make([]gokml.Coordinate, 0, len(points))
	for _, p := range points {
		cs = append(cs, gokml.Coordinate{Lon: p.Lon(), Lat: p.Lat()})
	}
	return gokml.Coordinates(cs...)
}

func encodePolygon(p orb.Polygon) (gokml.Element, error) {
	if len(p) == 0 || len(p[0]) == 0 {
		return nil, fmt.Errorf("polygon without outer ring")
	}

	poly := gokml.Polygon(gokml.OuterBoundaryIs(gokml.LinearRing(coordinates(p[0]...))))
	for _, ring := range p[1:] {
		poly.Add(gokml.InnerBoundaryIs(gokml.LinearRing(coordinates(ring...))))
	}
	return poly, nil
}

func encodeGeometry(g orb.Geometry) (gokml.Element, error) {
	switch v := g.(type) {
	case orb.Point:
		return gokml.Point(coordinates(v)), nil
	case orb.LineString:
		if len(v) < 2 {
			return nil, fmt.Errorf("line with %d coordinates", len(v))
		}
		return gokml.LineString(coordinates(v...)), nil
	case orb.Polygon:
		return encodePolygon(v)
	case orb.MultiPoint:
		if len(v) == 0 {
			return nil, fmt.Errorf("empty MultiPoint")
		}
		mg := gokml.MultiGeometry()
		for _, p := range v {
			mg.Add(gokml.Point(coordinates(p)))
		}
		return mg, nil
	case orb.MultiLineString:
		mg := gokml.MultiGeometry()
		n := 0
		for _, ls := range v {
			if len(ls) < 2 {
				continue
			}
			mg.Add(gokml.LineString(coordinates(ls...)))
			n++
		}
		if n == 0 {
			return nil, fmt.Errorf("MultiLineString without valid lines")
		}
		return mg, nil
	case orb.MultiPolygon:
		mg := gokml.MultiGeometry()
		for _, p := range v {
			poly, err := encodePolygon(p)
			if err != nil {
				return nil, err
			}
			mg.Add(poly)
		}
		if len(v) == 0 {
			return nil, fmt.Errorf("empty MultiPolygon")
		}
		return mg, nil
	case nil:
		return nil, fmt.Errorf("feature without geometry")
	default:
		return nil, fmt.Errorf("unsupported geometry type %s", g.GeoJSONType())
	}
}
