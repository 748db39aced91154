package main

import (
	"bufio"
	"context"
	"io"
	"os"
	"os/signal"

	"github.com/woozymasta/chainage/internal/cli"
	"github.com/woozymasta/chainage/internal/config"
	"github.com/woozymasta/chainage/internal/geo"
	"github.com/woozymasta/chainage/internal/logger"
	"github.com/woozymasta/chainage/internal/processor"

	"github.com/rs/zerolog/log"
)

type Options struct {
	Logger logger.Logger `group:"Logger options"`

	ConfigFile string `short:"c" long:"config" env:"CONFIG_FILE" description:"Path to configuration file"`
	Input      string `short:"i" long:"in"     description:"Input file path. Reads from stdin if empty"`
	Output     string `short:"o" long:"out"    description:"Output file path. Writes to stdout if empty"`
	From       string `short:"f" long:"from"   description:"Input format, detected from the file extension if empty" choice:"geojson" choice:"kml" choice:"gpx"`
	To         string `short:"t" long:"to"     description:"Output format, detected from the file extension if empty" choice:"geojson" choice:"kml" choice:"gpx"`
	Minify     bool   `short:"m" long:"minify" description:"Write compact output"`
	K2G        bool   `long:"k2g"              description:"Split a KML file into GeoJSON files with the external k2g tool"`
}

func main() {
	var opts Options
	cli.Parse(&opts)

	// Setup Logging
	opts.Logger.Setup()

	// Load Config
	cfg, err := config.LoadOptional(opts.ConfigFile)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}

	if opts.K2G {
		if opts.Input == "" {
			log.Fatal().Msg("--k2g needs an input file")
		}
		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
		defer stop()

		dir, err := cfg.K2G.Run(ctx, opts.Input)
		if err != nil {
			log.Fatal().Err(err).Msg("KML conversion failed")
		}
		log.Info().Str("dir", dir).Msg("GeoJSON directory generated")
		return
	}

	from := format(opts.From, opts.Input)
	to := format(opts.To, opts.Output)

	// Read Input
	var in io.Reader = bufio.NewReader(os.Stdin)
	if opts.Input != "" {
		f, err := os.Open(opts.Input)
		if err != nil {
			log.Fatal().Err(err).Msg("Error reading input file")
		}
		defer func() { _ = f.Close() }()
		in = bufio.NewReader(f)
	}

	fc, err := processor.DecodeCollection(in, from)
	if err != nil {
		log.Fatal().Err(err).Msg("Error decoding input")
	}

	settings := processor.SettingsFrom(cfg)
	if opts.Minify {
		settings.Output.Minify = true
	}

	data, err := processor.EncodeCollection(to, fc, settings)
	if err != nil {
		log.Fatal().Err(err).Msg("Error encoding output")
	}

	if opts.Output == "" {
		if _, err := os.Stdout.Write(data); err != nil {
			log.Fatal().Err(err).Msg("Error writing stdout")
		}
		return
	}

	if err := geo.WriteFile(opts.Output, data); err != nil {
		log.Fatal().Err(err).Msg("Error writing output file")
	}
	log.Info().
		Int("features", len(fc.Features)).
		Str("output", opts.Output).
		Str("format", to.String()).
		Msg("Successfully converted")
}

// format returns the named format, or the one implied by path.
func format(name, path string) processor.Format {
	if name != "" {
		f, err := processor.ParseFormat(name)
		if err != nil {
			log.Fatal().Err(err).Msg("Invalid format")
		}
		return f
	}
	if path == "" {
		return processor.FormatGeoJSON
	}
	return processor.DetectFormat(path)
}
