package main

import (
	"context"
	"os"
	"os/signal"

	"github.com/woozymasta/chainage/internal/cli"
	"github.com/woozymasta/chainage/internal/config"
	"github.com/woozymasta/chainage/internal/logger"
	"github.com/woozymasta/chainage/internal/menu"
	"github.com/woozymasta/chainage/internal/processor"

	"github.com/rs/zerolog/log"
)

type Options struct {
	Logger logger.Logger `group:"Logger options"`

	ConfigFile string `short:"c" long:"config" env:"CONFIG_FILE" description:"Path to configuration file"`
}

func main() {
	var opts Options
	cli.Parse(&opts)

	opts.Logger.Setup()

	cfg, err := config.LoadOptional(opts.ConfigFile)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	m := menu.New(os.Stdin, os.Stdout, cfg.K2G)
	m.Chainage = cfg.Chainage.Options()
	m.Normalize = cfg.Normalize.Options()
	m.Settings = processor.SettingsFrom(cfg)

	if err := m.Run(ctx); err != nil {
		log.Fatal().Err(err).Msg("Menu stopped")
	}

	log.Info().Msg("Exiting program")
}
