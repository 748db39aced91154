package main

import (
	"fmt"
	"net/http"
	"time"

	"github.com/woozymasta/chainage/internal/cli"
	"github.com/woozymasta/chainage/internal/config"
	"github.com/woozymasta/chainage/internal/logger"
	"github.com/woozymasta/chainage/internal/server"

	"github.com/rs/zerolog/log"
)

type Options struct {
	Logger logger.Logger `group:"Logger options"`

	ConfigFile  string  `short:"c" long:"config" env:"CONFIG_FILE"    description:"Path to configuration file"`
	Addr        string  `short:"a" long:"addr"   env:"LISTEN_ADDRESS" description:"Address to listen on"       default:"0.0.0.0"`
	Port        int     `short:"p" long:"port"   env:"LISTEN_PORT"    description:"Port to listen on"          default:"8080"`
	MaxBody     int64   `long:"max-body"     env:"MAX_BODY_BYTES" description:"Largest accepted document in bytes" default:"33554432"`
	MinInterval float64 `long:"min-interval" env:"MIN_INTERVAL"   description:"Smallest marker interval accepted, in meters" default:"1"`
	MaxMarkers  int     `long:"max-markers"  env:"MAX_MARKERS"    description:"Most markers placed for one request (0 for no limit)" default:"200000"`
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

	srvCtx := server.NewServerContext(cfg)
	if opts.MaxBody > 0 {
		srvCtx.MaxBodyBytes = opts.MaxBody
	}
	srvCtx.MinInterval = opts.MinInterval
	srvCtx.MaxMarkers = opts.MaxMarkers

	handler := server.RequestLogger(srvCtx.Routes())

	listenAddr := fmt.Sprintf("%s:%d", opts.Addr, opts.Port)
	srv := &http.Server{
		Addr:              listenAddr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	log.Info().
		Str("addr", listenAddr).
		Int64("max_body", srvCtx.MaxBodyBytes).
		Float64("min_interval", srvCtx.MinInterval).
		Int("max_markers", srvCtx.MaxMarkers).
		Msg("Web server started")

	if err := srv.ListenAndServe(); err != nil {
		log.Fatal().Err(err).Msg("Server failed")
	}
}
