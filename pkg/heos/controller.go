package heos

import (
	"context"
	"errors"
	"fmt"
	"math"
	"os"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/urmzd/heosdial/pkg/device"
	"github.com/urmzd/heosdial/pkg/device/schema"
)

// jobTimeout bounds one dispatched state change.
const jobTimeout = 15 * time.Second

// Config configures a Controller.
type Config struct {
	// Port is the control port; 0 means DefaultPort.
	Port int
	// Host skips discovery and bootstraps from a fixed address.
	Host string
	// SyncInterval is the periodic topology refresh; 0 disables it.
	SyncInterval time.Duration
	// Discovery options passed to NewDiscoverer.
	Discovery []DiscoveryOption
}

// Controller implements device.Controller and device.EventSubscriber on
// top of the HEOS CLI. One primary device serves topology queries; every
// state operation clones its target out of the topology and uses a
// session of its own.
type Controller struct {
	cfg       Config
	topology  *Topology
	validator *schema.Validator

	primary   *Device
	primaryMu sync.Mutex

	discoverer *Discoverer

	subscribers   []chan device.Event
	subscribersMu sync.Mutex

	connected bool
	connMu    sync.RWMutex

	ctx    context.Context
	cancel context.CancelFunc
	jobs   sync.WaitGroup
}

// NewController creates a controller. Call Start to begin discovery.
func NewController(cfg Config, validator *schema.Validator) *Controller {
	if cfg.Port == 0 {
		cfg.Port = DefaultPort
	}
	if validator == nil {
		validator = schema.NewValidator()
	}

	ctx, cancel := context.WithCancel(context.Background())
	return &Controller{
		cfg:       cfg,
		topology:  NewTopology(),
		validator: validator,
		ctx:       ctx,
		cancel:    cancel,
	}
}

// Topology exposes the underlying store.
func (c *Controller) Topology() *Topology {
	return c.topology
}

// Start launches the background discovery and sync task. Socket setup
// failures are returned; everything after that is logged.
func (c *Controller) Start(ctx context.Context) error {
	context.AfterFunc(ctx, c.cancel)

	if c.cfg.Host != "" {
		log.Info().Str("host", c.cfg.Host).Int("port", c.cfg.Port).Msg("Using static HEOS host")
		d := NewDevice(c.cfg.Host, "")
		d.Port = c.cfg.Port
		go c.run(nil, d)
		return nil
	}

	disc, err := NewDiscoverer(c.cfg.Discovery...)
	if err != nil {
		return fmt.Errorf("start discovery: %w", err)
	}
	locations, err := disc.Discover(c.ctx)
	if err != nil {
		_ = disc.Close()
		return fmt.Errorf("start discovery: %w", err)
	}
	c.discoverer = disc

	log.Info().Msg("HEOS discovery started")
	go c.run(locations, nil)
	return nil
}

// run bootstraps the primary device, then refreshes the topology whenever
// a new device announces itself or the sync interval elapses.
func (c *Controller) run(locations <-chan string, primary *Device) {
	if primary == nil {
		d, err := Bootstrap(c.ctx, locations, c.cfg.Port)
		if err != nil {
			if !errors.Is(err, context.Canceled) {
				log.Error().Err(err).Msg("HEOS bootstrap failed")
			}
			return
		}
		primary = d
	}

	c.primaryMu.Lock()
	c.primary = primary
	c.primaryMu.Unlock()

	seen := map[string]bool{primary.Host: true}
	c.refreshLogged()

	var tick <-chan time.Time
	if c.cfg.SyncInterval > 0 {
		ticker := time.NewTicker(c.cfg.SyncInterval)
		defer ticker.Stop()
		tick = ticker.C
	}

	for {
		select {
		case <-c.ctx.Done():
			return

		case loc, ok := <-locations:
			if !ok {
				locations = nil
				continue
			}
			host, err := HostFromLocation(loc)
			if err != nil || seen[host] {
				continue
			}
			seen[host] = true

			log.Info().Str("host", host).Msg("HEOS device announced")
			c.publishEvent(device.Event{
				Type:      device.EventDeviceDiscovered,
				Device:    &device.Device{Address: host, Protocol: device.ProtocolHEOS},
				Timestamp: time.Now(),
			})
			c.refreshLogged()

		case <-tick:
			c.refreshLogged()
		}
	}
}

func (c *Controller) refreshLogged() {
	ctx, cancel := context.WithTimeout(c.ctx, jobTimeout)
	defer cancel()
	if err := c.Refresh(ctx); err != nil {
		log.Warn().Err(err).Msg("HEOS topology refresh failed")
	}
}

// publishEvent sends an event to all subscribers without blocking.
func (c *Controller) publishEvent(evt device.Event) {
	c.subscribersMu.Lock()
	defer c.subscribersMu.Unlock()

	for _, ch := range c.subscribers {
		select {
		case ch <- evt:
		default:
		}
	}
}

func (c *Controller) setConnected(v bool) {
	c.connMu.Lock()
	c.connected = v
	c.connMu.Unlock()
}

// --- device.Controller interface ---

func (c *Controller) ListDevices(_ context.Context) ([]device.Device, error) {
	devices := c.topology.Devices()
	out := make([]device.Device, 0, len(devices))
	for i := range devices {
		out = append(out, toDevice(&devices[i]))
	}
	return out, nil
}

func (c *Controller) GetDevice(_ context.Context, id string) (*device.Device, error) {
	d, ok := c.topology.Device(id)
	if !ok {
		return nil, device.ErrNotFound
	}
	dev := toDevice(&d)
	return &dev, nil
}

func (c *Controller) ListGroups(_ context.Context) ([]device.Group, error) {
	groups := c.topology.Groups()
	out := make([]device.Group, 0, len(groups))
	for i := range groups {
		out = append(out, toGroup(&groups[i]))
	}
	return out, nil
}

func (c *Controller) GetGroup(_ context.Context, id string) (*device.Group, error) {
	g, ok := c.topology.Group(id)
	if !ok {
		return nil, device.ErrNotFound
	}
	grp := toGroup(&g)
	return &grp, nil
}

func (c *Controller) GetDeviceState(ctx context.Context, id string) (device.DeviceState, error) {
	d, ok := c.topology.Device(id)
	if !ok {
		return nil, device.ErrNotFound
	}
	defer d.Close()

	if err := d.UpdateVolume(ctx); err != nil {
		return nil, translate(err)
	}
	if _, err := d.Mute(ctx); err != nil {
		return nil, translate(err)
	}
	if _, err := d.PlayState(ctx); err != nil {
		return nil, translate(err)
	}

	state := playerState(&d)
	if media, err := d.NowPlaying(ctx); err == nil {
		state["now_playing"] = media
	} else {
		log.Debug().Err(err).Str("player", id).Msg("No now-playing media")
	}

	c.storeDevice(&d)
	return state, nil
}

func (c *Controller) SetDeviceState(ctx context.Context, id string, state map[string]any) (device.DeviceState, error) {
	return c.setDeviceState(ctx, id, state, "")
}

func (c *Controller) setDeviceState(ctx context.Context, id string, state map[string]any, jobID string) (device.DeviceState, error) {
	if err := c.validator.Validate(schema.PlayerState, state); err != nil {
		return nil, err
	}

	d, ok := c.topology.Device(id)
	if !ok {
		return nil, device.ErrNotFound
	}
	defer d.Close()

	if err := applyPlayerState(ctx, &d, state); err != nil {
		return nil, translate(err)
	}
	c.storeDevice(&d)

	result := playerState(&d)
	dev := toDevice(&d)
	c.publishEvent(device.Event{
		Type:      device.EventDeviceUpdated,
		Device:    &dev,
		State:     result,
		JobID:     jobID,
		Timestamp: time.Now(),
	})

	return result, nil
}

func (c *Controller) GetGroupState(ctx context.Context, id string) (device.DeviceState, error) {
	g, ok := c.topology.Group(id)
	if !ok {
		return nil, device.ErrNotFound
	}
	defer g.Close()

	if err := g.UpdateVolume(ctx); err != nil {
		return nil, translate(err)
	}
	if _, err := g.Mute(ctx); err != nil {
		return nil, translate(err)
	}

	c.storeGroup(&g)
	return groupState(&g), nil
}

func (c *Controller) SetGroupState(ctx context.Context, id string, state map[string]any) (device.DeviceState, error) {
	return c.setGroupState(ctx, id, state, "")
}

func (c *Controller) setGroupState(ctx context.Context, id string, state map[string]any, jobID string) (device.DeviceState, error) {
	if err := c.validator.Validate(schema.GroupState, state); err != nil {
		return nil, err
	}

	g, ok := c.topology.Group(id)
	if !ok {
		return nil, device.ErrNotFound
	}
	defer g.Close()

	if err := applyLevelState(ctx, &g, state); err != nil {
		return nil, translate(err)
	}
	c.storeGroup(&g)

	result := groupState(&g)
	grp := toGroup(&g)
	c.publishEvent(device.Event{
		Type:      device.EventGroupUpdated,
		Group:     &grp,
		State:     result,
		JobID:     jobID,
		Timestamp: time.Now(),
	})

	return result, nil
}

// Dispatch runs a state change on its own goroutine and returns the job ID.
// Failures are published as job_failed events.
func (c *Controller) Dispatch(target device.Target, id string, state map[string]any) string {
	jobID := uuid.NewString()

	c.jobs.Add(1)
	go func() {
		defer c.jobs.Done()

		ctx, cancel := context.WithTimeout(c.ctx, jobTimeout)
		defer cancel()

		var err error
		switch target {
		case device.TargetGroup:
			_, err = c.setGroupState(ctx, id, state, jobID)
		default:
			_, err = c.setDeviceState(ctx, id, state, jobID)
		}
		if err != nil {
			log.Warn().Err(err).Str("job", jobID).Str("target", string(target)).Str("id", id).Msg("HEOS job failed")
			c.publishEvent(device.Event{
				Type:      device.EventJobFailed,
				JobID:     jobID,
				Error:     err.Error(),
				Timestamp: time.Now(),
			})
		}
	}()

	return jobID
}

// Refresh re-reads players and groups through the primary device.
func (c *Controller) Refresh(ctx context.Context) error {
	c.primaryMu.Lock()
	defer c.primaryMu.Unlock()

	if c.primary == nil {
		return device.ErrNotConnected
	}

	if err := c.topology.Refresh(ctx, c.primary); err != nil {
		c.setConnected(false)
		return translate(err)
	}
	c.setConnected(true)

	c.publishEvent(device.Event{
		Type:      device.EventTopologyUpdated,
		Timestamp: time.Now(),
	})
	return nil
}

func (c *Controller) IsConnected() bool {
	c.connMu.RLock()
	defer c.connMu.RUnlock()
	return c.connected
}

func (c *Controller) Close() {
	c.cancel()
	c.jobs.Wait()

	c.setConnected(false)

	c.primaryMu.Lock()
	if c.primary != nil {
		_ = c.primary.Close()
	}
	c.primaryMu.Unlock()

	if c.discoverer != nil {
		if err := c.discoverer.Close(); err != nil {
			log.Warn().Err(err).Msg("Failed to close discovery socket")
		}
	}

	log.Info().Msg("HEOS controller closed")
}

// --- device.EventSubscriber interface ---

func (c *Controller) Subscribe() chan device.Event {
	ch := make(chan device.Event, 16)
	c.subscribersMu.Lock()
	c.subscribers = append(c.subscribers, ch)
	c.subscribersMu.Unlock()
	return ch
}

func (c *Controller) Unsubscribe(ch chan device.Event) {
	c.subscribersMu.Lock()
	defer c.subscribersMu.Unlock()

	for i, sub := range c.subscribers {
		if sub == ch {
			c.subscribers = append(c.subscribers[:i], c.subscribers[i+1:]...)
			close(ch)
			return
		}
	}
}

// --- State application ---

// levelControl is the volume and mute surface shared by players and groups.
type levelControl interface {
	UpdateVolume(ctx context.Context) error
	SetVolume(ctx context.Context, level int) error
	IncreaseVolume(ctx context.Context, step int) error
	DecreaseVolume(ctx context.Context, step int) error
	SetMute(ctx context.Context, on bool) error
	ToggleMute(ctx context.Context) error
}

func applyPlayerState(ctx context.Context, d *Device, state map[string]any) error {
	if v, ok := state["play_state"]; ok {
		s, err := stringValue("play_state", v)
		if err != nil {
			return err
		}
		if err := d.SetPlayState(ctx, PlayState(s)); err != nil {
			return err
		}
	}

	if v, ok := state["skip"]; ok {
		s, err := stringValue("skip", v)
		if err != nil {
			return err
		}
		switch s {
		case "next":
			err = d.PlayNext(ctx)
		case "previous":
			err = d.PlayPrevious(ctx)
		default:
			err = fmt.Errorf("%w: invalid skip value %q", device.ErrValidation, s)
		}
		if err != nil {
			return err
		}
	}

	return applyLevelState(ctx, d, state)
}

func applyLevelState(ctx context.Context, lc levelControl, state map[string]any) error {
	if v, ok := state["mute"]; ok {
		s, err := stringValue("mute", v)
		if err != nil {
			return err
		}
		switch s {
		case "on":
			err = lc.SetMute(ctx, true)
		case "off":
			err = lc.SetMute(ctx, false)
		case "toggle":
			err = lc.ToggleMute(ctx)
		default:
			err = fmt.Errorf("%w: invalid mute value %q", device.ErrValidation, s)
		}
		if err != nil {
			return err
		}
	}

	if v, ok := state["volume"]; ok {
		level, err := intValue("volume", v)
		if err != nil {
			return err
		}
		if err := lc.SetVolume(ctx, level); err != nil {
			return err
		}
	}

	if v, ok := state["volume_step"]; ok {
		step, err := intValue("volume_step", v)
		if err != nil {
			return err
		}
		// Steps are relative to the device's level, not the cached one.
		if err := lc.UpdateVolume(ctx); err != nil {
			return err
		}
		if step >= 0 {
			err = lc.IncreaseVolume(ctx, step)
		} else {
			err = lc.DecreaseVolume(ctx, -step)
		}
		if err != nil {
			return err
		}
	}

	return nil
}

func stringValue(key string, v any) (string, error) {
	s, ok := v.(string)
	if !ok {
		return "", fmt.Errorf("%w: %s must be a string", device.ErrValidation, key)
	}
	return s, nil
}

func intValue(key string, v any) (int, error) {
	switch n := v.(type) {
	case int:
		return n, nil
	case int64:
		return int(n), nil
	case float64:
		if n != math.Trunc(n) {
			return 0, fmt.Errorf("%w: %s must be an integer", device.ErrValidation, key)
		}
		return int(n), nil
	case interface{ Int64() (int64, error) }:
		i, err := n.Int64()
		if err != nil {
			return 0, fmt.Errorf("%w: %s must be an integer", device.ErrValidation, key)
		}
		return int(i), nil
	}
	return 0, fmt.Errorf("%w: invalid %s type", device.ErrValidation, key)
}

// translate maps protocol errors onto the device package's sentinels.
func translate(err error) error {
	var cmdErr *CommandError
	switch {
	case errors.As(err, &cmdErr):
		return fmt.Errorf("%w: %v", device.ErrRejected, err)
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, os.ErrDeadlineExceeded):
		return fmt.Errorf("%w: %v", device.ErrTimeout, err)
	case errors.Is(err, ErrNoLeader):
		return fmt.Errorf("%w: %v", device.ErrUnsupported, err)
	}
	return err
}

// --- Conversions ---

func (c *Controller) storeDevice(d *Device) {
	c.topology.UpdateDevice(d.PlayerID, func(cur *Device) {
		cur.Volume, cur.Muted, cur.State = d.Volume, d.Muted, d.State
	})
}

func (c *Controller) storeGroup(g *Group) {
	c.topology.UpdateGroup(g.GroupID, func(cur *Group) {
		cur.Volume, cur.Muted = g.Volume, g.Muted
	})
}

func toDevice(d *Device) device.Device {
	return device.Device{
		ID:          d.PlayerID,
		Name:        d.Name,
		Type:        device.DeviceTypePlayer,
		Protocol:    device.ProtocolHEOS,
		Model:       d.Model,
		Address:     d.Host,
		GroupID:     d.GroupID,
		StateSchema: schema.PlayerState,
	}
}

func toGroup(g *Group) device.Group {
	grp := device.Group{
		ID:          g.GroupID,
		Name:        g.Name,
		MemberIDs:   make([]string, 0, len(g.Members)),
		StateSchema: schema.GroupState,
	}
	if g.Leader != nil {
		grp.LeaderID = g.Leader.PlayerID
	}
	for _, m := range g.Members {
		grp.MemberIDs = append(grp.MemberIDs, m.PlayerID)
	}
	return grp
}

func playerState(d *Device) device.DeviceState {
	state := device.DeviceState{
		"volume": d.Volume,
		"mute":   onOff(d.Muted),
	}
	if d.State != "" {
		state["play_state"] = string(d.State)
	}
	return state
}

func groupState(g *Group) device.DeviceState {
	state := device.DeviceState{
		"volume": g.Volume,
		"mute":   onOff(g.Muted),
	}
	if g.Leader != nil {
		state["leader_id"] = g.Leader.PlayerID
	}
	return state
}

func onOff(b bool) string {
	if b {
		return "on"
	}
	return "off"
}
