package processor

import (
	"errors"
	"os"

	"github.com/woozymasta/chainage/internal/chainage"
	"github.com/woozymasta/chainage/internal/config"

	"github.com/rs/zerolog/log"
)

// ErrRouteIncomplete is returned for batch routes without input or output.
var ErrRouteIncomplete = errors.New("route needs both input and output")

// ProcessRoute runs one configured batch route: markers, then the optional
// normalization and KML export. Existing output is kept unless force is set.
func ProcessRoute(r config.Route, base chainage.Options, norm chainage.NormalizeOptions, s Settings, force bool) error {
	if r.Input == "" || r.Output == "" {
		return ErrRouteIncomplete
	}

	// Check if file exists
	if _, err := os.Stat(r.Output); err == nil && !force {
		log.Debug().Str("route", r.Name).Msg("Output file exists, skipping")
		return nil
	}

	opts := r.Chainage.Over(base)
	log.Info().
		Str("route", r.Name).
		Str("input", r.Input).
		Float64("start_km", opts.Start).
		Float64("interval_m", opts.Interval).
		Msg("Processing route")

	if _, err := AddChainage(r.Input, r.Output, r.Table, opts, s); err != nil {
		return err
	}

	if r.Normalize {
		// the generator output carries the label under opts.Property,
		// its route features carry none
		norm.Property = opts.Property
		norm.SkipUnlabeled = true
		if _, err := NormalizeFile(r.Output, r.Output, norm, s); err != nil {
			return err
		}
	}

	if r.KML != "" {
		if _, err := ConvertFile(r.Output, r.KML, s); err != nil {
			return err
		}
	}

	return nil
}
