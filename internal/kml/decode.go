package kml

import (
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
	"github.com/rs/zerolog/log"
)

// ErrNoPlacemarks is returned when a document contains no usable placemark.
var ErrNoPlacemarks = errors.New("kml: no placemarks found")

// Internal structures for XML parsing
type xmlCoordinates struct {
	Coordinates string `xml:"coordinates"`
}

type xmlRing struct {
	LinearRing xmlCoordinates `xml:"LinearRing"`
}

type xmlPolygon struct {
	Outer xmlRing   `xml:"outerBoundaryIs"`
	Inner []xmlRing `xml:"innerBoundaryIs"`
}

type xmlMultiGeometry struct {
	Points        []xmlCoordinates   `xml:"Point"`
	LineStrings   []xmlCoordinates   `xml:"LineString"`
	Polygons      []xmlPolygon       `xml:"Polygon"`
	MultiGeometry []xmlMultiGeometry `xml:"MultiGeometry"`
}

type xmlData struct {
	Name      string `xml:"name,attr"`
	ChildName string `xml:"name"`
	Value     string `xml:"value"`
}

type xmlSimpleData struct {
	Name  string `xml:"name,attr"`
	Value string `xml:",chardata"`
}

type xmlPlacemark struct {
	Name          string            `xml:"name"`
	Description   string            `xml:"description"`
	StyleURL      string            `xml:"styleUrl"`
	Data          []xmlData         `xml:"ExtendedData>Data"`
	SimpleData    []xmlSimpleData   `xml:"ExtendedData>SchemaData>SimpleData"`
	Point         *xmlCoordinates   `xml:"Point"`
	LineString    *xmlCoordinates   `xml:"LineString"`
	Polygon       *xmlPolygon       `xml:"Polygon"`
	MultiGeometry *xmlMultiGeometry `xml:"MultiGeometry"`
}

// Decode reads every Placemark of a KML document, at any Document/Folder depth,
// into a GeoJSON feature collection. Altitudes are dropped. Placemarks without
// a supported geometry are skipped with a warning.
func Decode(r io.Reader) (*geojson.FeatureCollection, error) {
	dec := xml.NewDecoder(r)
	fc := geojson.NewFeatureCollection()

	index := 0
	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("kml: %w", err)
		}

		se, ok := tok.(xml.StartElement)
		if !ok || se.Name.Local != "Placemark" {
			continue
		}

		var pm xmlPlacemark
		if err := dec.DecodeElement(&pm, &se); err != nil {
			return nil, fmt.Errorf("kml: placemark %d: %w", index, err)
		}

		f, err := pm.feature()
		if err != nil {
			return nil, fmt.Errorf("kml: placemark %d (%s): %w", index, pm.Name, err)
		}
		index++

		if f == nil {
			log.Warn().
				Int("placemark", index-1).
				Str("name", pm.Name).
				Msg("Skipping placemark without geometry")
			continue
		}
		fc.Append(f)
	}

	if len(fc.Features) == 0 {
		return nil, ErrNoPlacemarks
	}

	return fc, nil
}

func (pm xmlPlacemark) feature() (*geojson.Feature, error) {
	geom, err := pm.geometry()
	if err != nil || geom == nil {
		return nil, err
	}

	f := geojson.NewFeature(geom)
	for _, d := range pm.Data {
		name := d.Name
		if name == "" {
			name = strings.TrimSpace(d.ChildName)
		}
		if name != "" {
			f.Properties[name] = strings.TrimSpace(d.Value)
		}
	}
	for _, d := range pm.SimpleData {
		if d.Name != "" {
			f.Properties[d.Name] = strings.TrimSpace(d.Value)
		}
	}
	if name := strings.TrimSpace(pm.Name); name != "" {
		f.Properties["name"] = name
	}
	if desc := strings.TrimSpace(pm.Description); desc != "" {
		f.Properties["description"] = desc
	}
	if style := strings.TrimSpace(pm.StyleURL); style != "" {
		f.Properties["styleUrl"] = style
	}

	return f, nil
}

func (pm xmlPlacemark) geometry() (orb.Geometry, error) {
	switch {
	case pm.Point != nil:
		return parsePoint(pm.Point.Coordinates)
	case pm.LineString != nil:
		return parseLine(pm.LineString.Coordinates)
	case pm.Polygon != nil:
		return parsePolygon(*pm.Polygon)
	case pm.MultiGeometry != nil:
		return parseMulti(*pm.MultiGeometry)
	}
	return nil, nil
}

func parseMulti(mg xmlMultiGeometry) (orb.Geometry, error) {
	var points orb.MultiPoint
	var lines orb.MultiLineString
	var polys orb.MultiPolygon
	var nested orb.Collection

	for _, c := range mg.Points {
		p, err := parsePoint(c.Coordinates)
		if err != nil {
			return nil, err
		}
		points = append(points, p)
	}
	for _, c := range mg.LineStrings {
		ls, err := parseLine(c.Coordinates)
		if err != nil {
			return nil, err
		}
		lines = append(lines, ls)
	}
	for _, c := range mg.Polygons {
		p, err := parsePolygon(c)
		if err != nil {
			return nil, err
		}
		polys = append(polys, p)
	}
	for _, m := range mg.MultiGeometry {
		g, err := parseMulti(m)
		if err != nil {
			return nil, err
		}
		if g != nil {
			nested = append(nested, g)
		}
	}

	var parts orb.Collection
	if len(points) > 0 {
		parts = append(parts, points)
	}
	if len(lines) > 0 {
		parts = append(parts, lines)
	}
	if len(polys) > 0 {
		parts = append(parts, polys)
	}
	parts = append(parts, nested...)

	switch len(parts) {
	case 0:
		return nil, nil
	case 1:
		return parts[0], nil
	}
	return parts, nil
}

func parsePoint(s string) (orb.Point, error) {
	pts, err := parseCoordinates(s)
	if err != nil {
		return orb.Point{}, err
	}
	if len(pts) != 1 {
		return orb.Point{}, fmt.Errorf("point with %d coordinates", len(pts))
	}
	return pts[0], nil
}

func parseLine(s string) (orb.LineString, error) {
	pts, err := parseCoordinates(s)
	if err != nil {
		return nil, err
	}
	return orb.LineString(pts), nil
}

func parsePolygon(p xmlPolygon) (orb.Polygon, error) {
	outer, err := parseCoordinates(p.Outer.LinearRing.Coordinates)
	if err != nil {
		return nil, err
	}
	poly := orb.Polygon{orb.Ring(outer)}
	for _, in := range p.Inner {
		ring, err := parseCoordinates(in.LinearRing.Coordinates)
		if err != nil {
			return nil, err
		}
		poly = append(poly, orb.Ring(ring))
	}
	return poly, nil
}

// parseCoordinates parses whitespace separated "lon,lat[,alt]" tuples.
func parseCoordinates(s string) ([]orb.Point, error) {
	fields := strings.Fields(s)
	pts := make([]orb.Point, 0, len(fields))
	for _, tuple := range fields {
		vals := strings.Split(tuple, ",")
		if len(vals) < 2 {
			return nil, fmt.Errorf("invalid coordinate %q", tuple)
		}
		lon, err := strconv.ParseFloat(vals[0], 64)
		if err != nil {
			return nil, fmt.Errorf("invalid longitude %q", vals[0])
		}
		lat, err := strconv.ParseFloat(vals[1], 64)
		if err != nil {
			return nil, fmt.Errorf("invalid latitude %q", vals[1])
		}
		pts = append(pts, orb.Point{lon, lat})
	}
	return pts, nil
}
