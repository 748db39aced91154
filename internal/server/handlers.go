// Package server exposes chainage operations over HTTP.
package server

import (
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/woozymasta/chainage/internal/chainage"
	"github.com/woozymasta/chainage/internal/geo"
	"github.com/woozymasta/chainage/internal/processor"

	"github.com/paulmach/orb/geojson"
	"github.com/rs/zerolog/log"
)

// WarningsHeader carries the number of malformed labels found by /api/normalize.
const WarningsHeader = "X-Chainage-Warnings"

// HandleHealth reports that the server is up.
func (s *ServerContext) HandleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write([]byte("ok\n"))
}

// HandleChainage adds chainage markers to the posted GeoJSON document.
// Query parameters start, end, interval and property override the configuration.
func (s *ServerContext) HandleChainage(w http.ResponseWriter, r *http.Request) {
	fc, ok := s.readCollection(w, r)
	if !ok {
		return
	}

	opts, err := chainageOptions(r.URL.Query(), s.Config.Chainage.Options())
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if opts.Interval < s.MinInterval {
		http.Error(w, fmt.Sprintf("interval must be at least %g m", s.MinInterval), http.StatusBadRequest)
		return
	}
	opts.MaxMarkers = s.MaxMarkers

	res, err := chainage.Generate(fc, opts, nil)
	if err != nil {
		http.Error(w, err.Error(), generateStatus(err))
		return
	}

	s.writeCollection(w, res.Collection(fc))
}

// HandleNormalize normalizes the chainage labels of the posted GeoJSON document.
// Query parameters property and drop (comma separated) override the configuration.
func (s *ServerContext) HandleNormalize(w http.ResponseWriter, r *http.Request) {
	fc, ok := s.readCollection(w, r)
	if !ok {
		return
	}

	opts := s.Config.Normalize.Options()
	q := r.URL.Query()
	if p := q.Get("property"); p != "" {
		opts.Property = p
	}
	if q.Has("drop") {
		opts.Drop = splitList(q.Get("drop"))
	}

	report := chainage.NormalizeCollection(fc, opts)
	w.Header().Set(WarningsHeader, strconv.Itoa(len(report.Diagnostics)))
	s.writeCollection(w, fc)
}

// HandleKML converts the posted GeoJSON document to KML.
func (s *ServerContext) HandleKML(w http.ResponseWriter, r *http.Request) {
	fc, ok := s.readCollection(w, r)
	if !ok {
		return
	}

	data, err := processor.EncodeCollection(processor.FormatKML, fc, s.Settings)
	if err != nil {
		log.Error().Err(err).Msg("Failed to encode KML")
		http.Error(w, "failed to encode KML", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/vnd.google-earth.kml+xml")
	_, _ = w.Write(data)
}

// HandleGPX converts the posted GeoJSON document to GPX.
func (s *ServerContext) HandleGPX(w http.ResponseWriter, r *http.Request) {
	fc, ok := s.readCollection(w, r)
	if !ok {
		return
	}

	data, err := processor.EncodeCollection(processor.FormatGPX, fc, s.Settings)
	if err != nil {
		log.Error().Err(err).Msg("Failed to encode GPX")
		http.Error(w, "failed to encode GPX", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/gpx+xml")
	_, _ = w.Write(data)
}

func (s *ServerContext) readCollection(w http.ResponseWriter, r *http.Request) (*geojson.FeatureCollection, bool) {
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", http.MethodPost)
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return nil, false
	}

	body := http.MaxBytesReader(w, r.Body, s.MaxBodyBytes)
	// Ignoring error as the body is fully read
	defer func() { _ = body.Close() }()

	fc, err := geo.DecodeFeatureCollection(body)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			http.Error(w, "request body too large", http.StatusRequestEntityTooLarge)
			return nil, false
		}
		http.Error(w, err.Error(), http.StatusBadRequest)
		return nil, false
	}

	return fc, true
}

func (s *ServerContext) writeCollection(w http.ResponseWriter, fc *geojson.FeatureCollection) {
	data, err := geo.MarshalFeatureCollection(fc, s.Settings.Output)
	if err != nil {
		log.Error().Err(err).Msg("Failed to encode GeoJSON")
		http.Error(w, "failed to encode GeoJSON", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/geo+json")
	_, _ = w.Write(data)
}

func chainageOptions(q url.Values, opts chainage.Options) (chainage.Options, error) {
	parse := func(key string, dst *float64) error {
		v := q.Get(key)
		if v == "" {
			return nil
		}
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return fmt.Errorf("invalid %s %q", key, v)
		}
		*dst = f
		return nil
	}

	if err := parse("start", &opts.Start); err != nil {
		return opts, err
	}
	if err := parse("interval", &opts.Interval); err != nil {
		return opts, err
	}
	if q.Get("end") != "" {
		var end float64
		if err := parse("end", &end); err != nil {
			return opts, err
		}
		opts.End = &end
	}
	if p := q.Get("property"); p != "" {
		opts.Property = p
	}

	return opts, nil
}

func generateStatus(err error) int {
	var invalid *chainage.InvalidGeometryError
	var empty *chainage.EmptyInputError
	switch {
	case errors.As(err, &invalid), errors.As(err, &empty), errors.Is(err, chainage.ErrTooManyMarkers):
		return http.StatusUnprocessableEntity
	case errors.Is(err, chainage.ErrInvalidInterval),
		errors.Is(err, chainage.ErrNegativeChainage),
		errors.Is(err, chainage.ErrOutOfRange):
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}

func splitList(s string) []string {
	out := []string{}
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
