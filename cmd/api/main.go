package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/urmzd/heosdial/pkg/api"
	"github.com/urmzd/heosdial/pkg/bridge"
	"github.com/urmzd/heosdial/pkg/db"
	"github.com/urmzd/heosdial/pkg/device"
	"github.com/urmzd/heosdial/pkg/device/schema"
	"github.com/urmzd/heosdial/pkg/heos"

	_ "github.com/urmzd/heosdial/docs"
)

// @title           heosdial API
// @version         1.0
// @description     REST API for controlling HEOS players and groups

// @host      localhost:8080
// @BasePath  /api/v1
// @schemes   http https

func main() {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	dbPath := flag.String("db", "", "Path to database file (default: ~/.config/heosdial/heosdial.db)")
	profile := flag.String("profile", "", "Profile to activate before loading settings")
	host := flag.String("host", "", "HEOS device address; skips SSDP discovery (overrides the profile)")
	addr := flag.String("addr", "", "API listen address (overrides the profile)")
	debug := flag.Bool("debug", false, "Log HEOS traffic")
	flag.Parse()

	if *debug {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	} else {
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	database, err := db.Open(*dbPath)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to open database")
	}
	defer func() {
		if err := database.Close(); err != nil {
			log.Error().Err(err).Msg("Failed to close database")
		}
	}()

	log.Info().Str("path", database.Path()).Msg("Database opened")

	if err := database.Migrate(ctx); err != nil {
		log.Fatal().Err(err).Msg("Failed to run database migrations")
	}

	needsBootstrap, err := database.NeedsBootstrap(ctx)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to check bootstrap status")
	}
	if needsBootstrap {
		log.Info().Msg("First run detected, bootstrapping database...")
	}
	if err := database.Bootstrap(ctx); err != nil {
		log.Fatal().Err(err).Msg("Failed to bootstrap database")
	}

	if *profile != "" {
		if err := database.UseProfile(ctx, *profile); err != nil {
			log.Fatal().Err(err).Msg("Failed to activate profile")
		}
	}

	cfg, err := database.ActiveConfig(ctx)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}

	settings := cfg.HEOS
	if *host != "" {
		settings.StaticHost = *host
	}
	listenAddr := cfg.APIAddress()
	if *addr != "" {
		listenAddr = *addr
	}

	log.Info().
		Str("profile", cfg.Profile.Name).
		Str("timezone", cfg.Timezone()).
		Str("api_address", listenAddr).
		Int("heos_port", settings.ControlPort).
		Str("heos_host", settings.StaticHost).
		Msg("Configuration loaded")

	validator := schema.NewValidator()

	// Discovery runs in the background; fall back to NullController if it
	// cannot even start.
	var controller device.Controller
	var eventSubscriber device.EventSubscriber

	heosController := heos.NewController(heos.Config{
		Port:         settings.ControlPort,
		Host:         settings.StaticHost,
		SyncInterval: settings.SyncInterval(),
	}, validator)
	if err := heosController.Start(ctx); err != nil {
		log.Warn().Err(err).Msg("HEOS controller unavailable, using null controller")
		controller = device.NewNullController()
		eventSubscriber = device.NewNullEventSubscriber()
	} else {
		controller = heosController
		eventSubscriber = heosController
	}
	defer controller.Close()

	startBridge(ctx, settings, controller, eventSubscriber)

	router := api.NewRouter(controller, eventSubscriber, validator)
	server := &http.Server{
		Addr:              listenAddr,
		Handler:           router.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		log.Info().Msg("Shutting down...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			log.Error().Err(err).Msg("Failed to shut down API server")
		}
	}()

	log.Info().Str("address", listenAddr).Msg("Starting API server")

	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatal().Err(err).Msg("Server failed")
	}
}

// startBridge runs the embedded broker and the MQTT bridge when configured.
func startBridge(ctx context.Context, settings *db.HEOSSettings, controller device.Controller, events device.EventSubscriber) {
	brokerURL := settings.MQTTBrokerURL

	if settings.MQTTListen != "" {
		broker, err := bridge.NewBroker(settings.MQTTListen)
		if err != nil {
			log.Error().Err(err).Msg("Failed to start embedded MQTT broker")
		} else {
			broker.Start()
			context.AfterFunc(ctx, func() { _ = broker.Close() })
			if brokerURL == "" {
				brokerURL = broker.URL()
			}
		}
	}

	if brokerURL == "" {
		return
	}

	b := bridge.New(controller, events, bridge.Config{
		BrokerURL:   brokerURL,
		ClientID:    "heosdial-api",
		TopicPrefix: settings.MQTTTopicPrefix,
	})
	go func() {
		if err := b.Run(ctx); err != nil {
			log.Error().Err(err).Msg("MQTT bridge failed")
		}
	}()
}
