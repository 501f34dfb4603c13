package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/urmzd/heosdial/pkg/db"
	"github.com/urmzd/heosdial/pkg/device"
	"github.com/urmzd/heosdial/pkg/device/schema"
	"github.com/urmzd/heosdial/pkg/dial"
	"github.com/urmzd/heosdial/pkg/heos"
)

const (
	reopenDelay = 2 * time.Second
	playerPoll  = 500 * time.Millisecond
	playerWait  = 30 * time.Second
)

func main() {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	dbPath := flag.String("db", "", "Path to database file (default: ~/.config/heosdial/heosdial.db)")
	profile := flag.String("profile", "", "Profile to activate before loading settings")
	host := flag.String("host", "", "HEOS device address; skips SSDP discovery (overrides the profile)")
	port := flag.String("port", "", "Dial serial port (overrides the profile)")
	baud := flag.Int("baud", 0, "Dial baud rate (overrides the profile)")
	player := flag.String("player", "", "Player ID or name to control (default: first player found)")
	group := flag.String("group", "", "Group ID to control instead of a player")
	step := flag.Int("step", 0, "Volume change per detent (overrides the profile)")
	save := flag.Bool("save", false, "Store the port, baud, player and step flags in the profile")
	listPorts := flag.Bool("list-ports", false, "List serial ports and exit")
	flag.Parse()

	if *listPorts {
		ports, err := dial.Ports()
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to list serial ports")
		}
		for _, p := range ports {
			fmt.Println(p)
		}
		return
	}

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
	if *port != "" {
		settings.DialDevice = *port
	}
	if *baud > 0 {
		settings.DialBaud = *baud
	}
	if *player != "" {
		settings.DialPlayerID = *player
	}
	if *step > 0 {
		settings.VolumeStep = *step
	}
	if *save {
		if err := database.HEOSSettings().Update(ctx, settings); err != nil {
			log.Fatal().Err(err).Msg("Failed to save dial settings")
		}
		log.Info().Msg("Dial settings saved")
	}

	if settings.DialDevice == "" {
		log.Fatal().Msg("No dial serial port configured; pass -port or use -list-ports")
	}

	validator := schema.NewValidator()
	controller := heos.NewController(heos.Config{
		Port:         settings.ControlPort,
		Host:         settings.StaticHost,
		SyncInterval: settings.SyncInterval(),
	}, validator)
	if err := controller.Start(ctx); err != nil {
		log.Fatal().Err(err).Msg("Failed to start HEOS controller")
	}
	defer controller.Close()

	go logFailedJobs(ctx, controller)

	dialCfg := dial.Config{
		ID:         *group,
		Target:     device.TargetGroup,
		VolumeStep: settings.VolumeStep,
	}
	if *group == "" {
		id, err := choosePlayer(ctx, controller, settings.DialPlayerID)
		if err != nil {
			log.Fatal().Err(err).Msg("No player to control")
		}
		dialCfg.ID = id
		dialCfg.Target = device.TargetDevice
	}

	log.Info().
		Str("port", settings.DialDevice).
		Str("target", string(dialCfg.Target)).
		Str("id", dialCfg.ID).
		Int("step", dialCfg.VolumeStep).
		Msg("Dial ready")

	d := dial.New(controller, dialCfg)
	for {
		sp, err := dial.OpenSerial(settings.DialDevice, settings.DialBaud)
		if err != nil {
			log.Warn().Err(err).Msg("Dial unavailable")
		} else if err := d.Run(ctx, sp); err != nil && !errors.Is(err, context.Canceled) {
			log.Warn().Err(err).Msg("Dial stopped")
		}

		select {
		case <-ctx.Done():
			log.Info().Msg("Shutting down...")
			return
		case <-time.After(reopenDelay):
		}
	}
}

// choosePlayer waits for discovery and resolves want, a player ID or name,
// or the first player when want is empty.
func choosePlayer(ctx context.Context, ctrl device.Controller, want string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, playerWait)
	defer cancel()

	ticker := time.NewTicker(playerPoll)
	defer ticker.Stop()

	for {
		players, err := ctrl.ListDevices(ctx)
		if err == nil {
			for _, p := range players {
				if want == "" || p.ID == want || p.Name == want {
					return p.ID, nil
				}
			}
		}

		select {
		case <-ctx.Done():
			if want != "" {
				return "", fmt.Errorf("player %q not found: %w", want, ctx.Err())
			}
			return "", fmt.Errorf("no players discovered: %w", ctx.Err())
		case <-ticker.C:
		}
	}
}

func logFailedJobs(ctx context.Context, events device.EventSubscriber) {
	ch := events.Subscribe()
	defer events.Unsubscribe(ch)

	for {
		select {
		case <-ctx.Done():
			return
		case evt, ok := <-ch:
			if !ok {
				return
			}
			if evt.Type == device.EventJobFailed {
				log.Warn().Str("job_id", evt.JobID).Str("error", evt.Error).Msg("Dial action failed")
			}
		}
	}
}
