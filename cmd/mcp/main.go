package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/urmzd/heosdial/pkg/db"
	"github.com/urmzd/heosdial/pkg/device"
	"github.com/urmzd/heosdial/pkg/device/schema"
	"github.com/urmzd/heosdial/pkg/heos"
	heosmcp "github.com/urmzd/heosdial/pkg/mcp"
)

func main() {
	// Logging must go to stderr; stdout is the MCP transport
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	dbPath := flag.String("db", "", "Path to database file (default: ~/.config/heosdial/heosdial.db)")
	profile := flag.String("profile", "", "Profile to activate before loading settings")
	host := flag.String("host", "", "HEOS device address; skips SSDP discovery (overrides the profile)")
	flag.Parse()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	database, cfg, err := db.Load(ctx, *dbPath, *profile)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}
	defer func() {
		if err := database.Close(); err != nil {
			log.Error().Err(err).Msg("Failed to close database")
		}
	}()

	settings := cfg.HEOS
	if *host != "" {
		settings.StaticHost = *host
	}

	log.Info().Str("path", database.Path()).Str("profile", cfg.Profile.Name).Msg("Configuration loaded")

	validator := schema.NewValidator()

	var controller device.Controller
	heosController := heos.NewController(heos.Config{
		Port:         settings.ControlPort,
		Host:         settings.StaticHost,
		SyncInterval: settings.SyncInterval(),
	}, validator)
	if err := heosController.Start(ctx); err != nil {
		log.Warn().Err(err).Msg("HEOS controller unavailable, using null controller")
		controller = device.NewNullController()
	} else {
		controller = heosController
	}
	defer controller.Close()

	mcpServer := heosmcp.NewServer(controller, validator)

	log.Info().Msg("Starting MCP server on stdio")

	if err := mcpServer.ServeStdio(); err != nil {
		log.Fatal().Err(err).Msg("MCP server failed")
	}
}
