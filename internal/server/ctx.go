package server

import (
	"net/http"

	"github.com/woozymasta/chainage/internal/config"
	"github.com/woozymasta/chainage/internal/processor"

	"github.com/rs/zerolog/log"
)

// Request limits.
const (
	// DefaultMaxBodyBytes limits request documents to 32 MiB.
	DefaultMaxBodyBytes = 32 << 20
	// DefaultMinInterval is the smallest marker interval accepted, in meters.
	DefaultMinInterval = 1.0
	// DefaultMaxMarkers caps the markers placed for one request.
	DefaultMaxMarkers = 200000
)

// ServerContext holds dependencies for request handlers.
type ServerContext struct {
	Config       *config.Config
	Settings     processor.Settings
	MaxBodyBytes int64
	MinInterval  float64
	MaxMarkers   int
}

// NewServerContext initializes the context from the loaded configuration.
func NewServerContext(cfg *config.Config) *ServerContext {
	opts := cfg.Chainage.Options()

	ev := log.Info().
		Float64("start_km", opts.Start).
		Float64("interval_m", opts.Interval).
		Str("property", opts.Property)
	if opts.End != nil {
		ev = ev.Float64("end_km", *opts.End)
	}
	ev.Msg("Server context initialized successfully")

	return &ServerContext{
		Config:       cfg,
		Settings:     processor.SettingsFrom(cfg),
		MaxBodyBytes: DefaultMaxBodyBytes,
		MinInterval:  DefaultMinInterval,
		MaxMarkers:   DefaultMaxMarkers,
	}
}

// Routes registers the handlers on a new mux.
func (s *ServerContext) Routes() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/chainage", s.HandleChainage)
	mux.HandleFunc("/api/normalize", s.HandleNormalize)
	mux.HandleFunc("/api/kml", s.HandleKML)
	mux.HandleFunc("/api/gpx", s.HandleGPX)
	mux.HandleFunc("/healthz", s.HandleHealth)
	return mux
}
