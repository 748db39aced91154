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

	ConfigFile string   `short:"c" long:"config" env:"CONFIG_FILE" description:"Path to configuration file" default:"config.yaml"`
	Limit      []string `short:"l" long:"limit"  env:"LIMIT_NAMES" env-delim:"," description:"Limit processing to specific route names"`
	Force      bool     `short:"f" long:"force"  description:"Force overwrite of existing files"`
}

func main() {
	var opts Options
	cli.Parse(&opts)

	opts.Logger.Setup()

	cfg, err := config.Load(opts.ConfigFile)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}

	// Filter routes if limit is set
	routes := cfg.Routes
	if len(opts.Limit) > 0 {
		routes = make([]config.Route, 0, len(opts.Limit))
		available := make(map[string]config.Route)
		for _, r := range cfg.Routes {
			available[r.Name] = r
		}

		seen := make(map[string]bool)

		for _, name := range opts.Limit {
			if seen[name] {
				continue
			}
			seen[name] = true

			if r, ok := available[name]; ok {
				routes = append(routes, r)
			} else {
				log.Error().
					Str("name", name).
					Msg("Route specified in --limit not found in configuration")
			}
		}
	}

	log.Info().
		Int("routes_total", len(cfg.Routes)).
		Int("routes_queued", len(routes)).
		Bool("force", opts.Force).
		Msg("Starting batch")

	base := cfg.Chainage.Options()
	norm := cfg.Normalize.Options()
	settings := processor.SettingsFrom(cfg)

	failed := 0
	for _, r := range routes {
		if err := processor.ProcessRoute(r, base, norm, settings, opts.Force); err != nil {
			log.Error().Err(err).Str("route", r.Name).Msg("Failed to process route")
			failed++
		}
	}

	if failed > 0 {
		log.Error().Int("failed", failed).Msg("Batch finished with errors")
		os.Exit(1)
	}

	log.Info().Msg("Batch finished successfully")
}
