package main

import (
	"os"

	"github.com/woozymasta/chainage/internal/cli"
	"github.com/woozymasta/chainage/internal/config"
	"github.com/woozymasta/chainage/internal/logger"
	"github.com/woozymasta/chainage/internal/processor"

	"github.com/rs/zerolog/log"
)

type Options struct {
	Logger logger.Logger `group:"Logger options"`

	ConfigFile string   `short:"c" long:"config"   env:"CONFIG_FILE"        description:"Path to configuration file"`
	Input      string   `short:"i" long:"in"                                description:"Input GeoJSON, KML or chainage table" required:"true"`
	Output     string   `short:"o" long:"out"                               description:"Output file path" required:"true"`
	Property   string   `short:"p" long:"property" env:"CHAINAGE_PROPERTY"  description:"Property holding the chainage label" default:"chainage"`
	Drop       []string `short:"d" long:"drop"     env:"NORMALIZE_DROP" env-delim:"," description:"Properties removed from every feature (default: name, styleUrl)"`
	KeepAll    bool     `short:"k" long:"keep-all"                          description:"Keep all feature properties"`
	KML        string   `long:"kml"                                         description:"Also export the result as KML to this path"`
	Minify     bool     `short:"m" long:"minify"                            description:"Write compact output"`
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

	norm := cfg.Normalize.Options()
	if cli.Explicit(parser, "property") {
		norm.Property = opts.Property
	}
	if cli.Explicit(parser, "drop") {
		norm.Drop = opts.Drop
	}
	if opts.KeepAll {
		norm.Drop = []string{}
	}

	settings := processor.SettingsFrom(cfg)
	if opts.Minify {
		settings.Output.Minify = true
	}

	report, err := processor.NormalizeFile(opts.Input, opts.Output, norm, settings)
	if err != nil {
		log.Error().Err(err).Str("input", opts.Input).Msg("Failed to optimize chainage labels")
		os.Exit(1)
	}

	if opts.KML != "" {
		if _, err := processor.ConvertFile(opts.Output, opts.KML, settings); err != nil {
			log.Error().Err(err).Str("output", opts.KML).Msg("Failed to export KML")
			os.Exit(1)
		}
	}

	log.Info().
		Int("records", report.Records).
		Int("changed", report.Changed).
		Int("warnings", len(report.Diagnostics)).
		Msg("Process completed")
}
