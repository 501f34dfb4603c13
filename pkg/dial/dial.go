package dial

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/urmzd/heosdial/pkg/device"
)

const (
	// DefaultCoalesce is how long rotation is accumulated before one volume change is sent.
	DefaultCoalesce = 100 * time.Millisecond
	// DefaultVolumeStep is the volume change per detent.
	DefaultVolumeStep = 2

	maxStep = 100

	// actionTimeout bounds the controller calls behind a click or hold.
	actionTimeout = 5 * time.Second
)

// Config selects what the dial controls.
type Config struct {
	// ID is the player or group the dial controls.
	ID string
	// Target is device.TargetDevice or device.TargetGroup. Empty means player.
	Target     device.Target
	VolumeStep int
	Coalesce   time.Duration
}

// Dial turns dial events into controller jobs. Rotation steps volume, a
// click toggles play and pause, and a hold skips to the next track.
type Dial struct {
	ctrl device.Controller
	cfg  Config

	actions sync.WaitGroup
}

// New creates a Dial for the given controller.
func New(ctrl device.Controller, cfg Config) *Dial {
	if cfg.Target == "" {
		cfg.Target = device.TargetDevice
	}
	if cfg.VolumeStep <= 0 {
		cfg.VolumeStep = DefaultVolumeStep
	}
	if cfg.Coalesce <= 0 {
		cfg.Coalesce = DefaultCoalesce
	}
	return &Dial{ctrl: ctrl, cfg: cfg}
}

// Run reads events from port until ctx is cancelled or the port fails.
// The port is closed when Run returns.
func (d *Dial) Run(ctx context.Context, port io.ReadCloser) error {
	stop := context.AfterFunc(ctx, func() { _ = port.Close() })
	defer stop()
	defer func() { _ = port.Close() }()
	defer d.actions.Wait()

	events := make(chan Event)
	readErr := make(chan error, 1)
	go func() {
		readErr <- scanEvents(ctx, port, events)
	}()

	ticker := time.NewTicker(d.cfg.Coalesce)
	defer ticker.Stop()

	pending := 0
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case err := <-readErr:
			d.flush(&pending)
			if ctx.Err() != nil {
				return ctx.Err()
			}
			if err == nil {
				err = io.EOF
			}
			return fmt.Errorf("dial disconnected: %w", err)

		case evt := <-events:
			switch evt.Kind {
			case Rotate:
				pending += evt.Delta
			case Click:
				d.flush(&pending)
				d.spawn(ctx, d.togglePlayback)
			case Hold:
				d.flush(&pending)
				d.spawn(ctx, func(ctx context.Context) {
					d.dispatchToPlayer(ctx, map[string]any{"skip": "next"})
				})
			}

		case <-ticker.C:
			d.flush(&pending)
		}
	}
}

func scanEvents(ctx context.Context, r io.Reader, events chan<- Event) error {
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		evt, err := ParseEvent(scanner.Text())
		if err != nil {
			// Boot banners and firmware logs share the console.
			log.Debug().Err(err).Msg("Ignoring dial output")
			continue
		}
		select {
		case events <- evt:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return scanner.Err()
}

// spawn runs fn off the event loop so a slow controller never stalls rotation.
func (d *Dial) spawn(ctx context.Context, fn func(context.Context)) {
	d.actions.Add(1)
	go func() {
		defer d.actions.Done()
		ctx, cancel := context.WithTimeout(ctx, actionTimeout)
		defer cancel()
		fn(ctx)
	}()
}

// flush sends accumulated rotation as one relative volume change.
func (d *Dial) flush(pending *int) {
	if *pending == 0 {
		return
	}
	step := *pending * d.cfg.VolumeStep
	*pending = 0

	step = max(-maxStep, min(maxStep, step))
	jobID := d.ctrl.Dispatch(d.cfg.Target, d.cfg.ID, map[string]any{"volume_step": step})
	log.Debug().Str("job_id", jobID).Int("step", step).Str("id", d.cfg.ID).Msg("Volume step dispatched")
}

func (d *Dial) togglePlayback(ctx context.Context) {
	playerID, err := d.playerID(ctx)
	if err != nil {
		log.Warn().Err(err).Str("id", d.cfg.ID).Msg("No player to toggle")
		return
	}

	next := "play"
	state, err := d.ctrl.GetDeviceState(ctx, playerID)
	if err != nil {
		log.Warn().Err(err).Str("player_id", playerID).Msg("Failed to read play state")
		return
	}
	if ps, _ := state["play_state"].(string); ps == "play" {
		next = "pause"
	}

	jobID := d.ctrl.Dispatch(device.TargetDevice, playerID, map[string]any{"play_state": next})
	log.Debug().Str("job_id", jobID).Str("play_state", next).Str("player_id", playerID).Msg("Play state dispatched")
}

func (d *Dial) dispatchToPlayer(ctx context.Context, state map[string]any) {
	playerID, err := d.playerID(ctx)
	if err != nil {
		log.Warn().Err(err).Str("id", d.cfg.ID).Msg("No player for transport control")
		return
	}
	jobID := d.ctrl.Dispatch(device.TargetDevice, playerID, state)
	log.Debug().Str("job_id", jobID).Str("player_id", playerID).Msg("Transport control dispatched")
}

// playerID returns the player that takes transport controls. Groups route
// them to their leader.
func (d *Dial) playerID(ctx context.Context) (string, error) {
	if d.cfg.Target != device.TargetGroup {
		return d.cfg.ID, nil
	}
	g, err := d.ctrl.GetGroup(ctx, d.cfg.ID)
	if err != nil {
		return "", err
	}
	if g.LeaderID == "" {
		return "", errors.New("group has no leader")
	}
	return g.LeaderID, nil
}
