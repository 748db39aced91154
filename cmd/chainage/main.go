package main

import (
	"errors"
	"os"

	"github.com/woozymasta/chainage/internal/chainage"
	"github.com/woozymasta/chainage/internal/cli"
	"github.com/woozymasta/chainage/internal/config"
	"github.com/woozymasta/chainage/internal/logger"
	"github.com/woozymasta/chainage/internal/processor"

	"github.com/rs/zerolog/log"
)

type Options struct {
	Logger logger.Logger `group:"Logger options"`

	ConfigFile string  `short:"c" long:"config"   env:"CONFIG_FILE"       description:"Path to configuration file"`
	Input      string  `short:"i" long:"in"                               description:"Input routes (GeoJSON or KML)" required:"true"`
	Output     string  `short:"o" long:"out"                              description:"Output file path (GeoJSON or KML)" required:"true"`
	Table      string  `short:"t" long:"table"                            description:"Also write markers as a chainage table (YAML or JSON)"`
	Property   string  `short:"p" long:"property" env:"CHAINAGE_PROPERTY" description:"Marker property holding the label" default:"chainage"`
	Start      float64 `short:"s" long:"start"    env:"CHAINAGE_START"    description:"Chainage of the first vertex in kilometers" default:"36.6"`
	End        float64 `short:"e" long:"end"      env:"CHAINAGE_END"      description:"Last chainage to mark in kilometers (inclusive)"`
	Interval   float64 `short:"n" long:"interval" env:"CHAINAGE_INTERVAL" description:"Distance between markers in meters" default:"100"`
	Minify     bool    `short:"m" long:"minify"                           description:"Write compact output"`
}

func main() {
	var opts Options
	parser := cli.Parse(&opts)

	// Setup Logging
	opts.Logger.Setup()

	// Load Config
	cfg, err := config.LoadOptional(opts.ConfigFile)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}

	chOpts := cfg.Chainage.Options()
	if cli.Explicit(parser, "start") {
		chOpts.Start = opts.Start
	}
	if cli.Explicit(parser, "end") {
		end := opts.End
		chOpts.End = &end
	}
	if cli.Explicit(parser, "interval") {
		chOpts.Interval = opts.Interval
	}
	if cli.Explicit(parser, "property") {
		chOpts.Property = opts.Property
	}

	settings := processor.SettingsFrom(cfg)
	if opts.Minify {
		settings.Output.Minify = true
	}

	res, err := processor.AddChainage(opts.Input, opts.Output, opts.Table, chOpts, settings)
	if err != nil {
		var geomErr *chainage.InvalidGeometryError
		var emptyErr *chainage.EmptyInputError
		switch {
		case errors.As(err, &geomErr):
			log.Error().Int("feature", geomErr.Index).Str("type", geomErr.Type).Msg("Invalid geometry, nothing written")
		case errors.As(err, &emptyErr):
			log.Error().Str("input", opts.Input).Msg("Input has no features, nothing written")
		default:
			log.Error().Err(err).Msg("Error processing GeoJSON data")
		}
		os.Exit(1)
	}

	log.Info().
		Int("markers", len(res.Markers)).
		Str("output", opts.Output).
		Msg("Process completed")
}
