package heos

import (
	"context"
	"fmt"
	"strconv"

	"github.com/rs/zerolog/log"
)

// PlayState is the transport state of a player.
type PlayState string

const (
	StatePlay  PlayState = "play"
	StatePause PlayState = "pause"
	StateStop  PlayState = "stop"
)

// Valid reports whether s is one of the states a player accepts.
func (s PlayState) Valid() bool {
	switch s {
	case StatePlay, StatePause, StateStop:
		return true
	}
	return false
}

// Device is one physical player. The session is owned by this value only;
// Clone yields a disconnected copy, so a value taken out of the topology
// must Connect (or lazily connect through SendCommand) before use.
type Device struct {
	Name     string    `json:"name"`
	Model    string    `json:"model,omitempty"`
	Host     string    `json:"ip"`
	Port     int       `json:"-"`
	PlayerID string    `json:"pid"`
	GroupID  string    `json:"gid,omitempty"`
	Volume   int       `json:"volume"`
	Muted    bool      `json:"muted"`
	State    PlayState `json:"play_state,omitempty"`

	session *Session
}

// NewDevice creates a disconnected device at host.
func NewDevice(host, playerID string) *Device {
	return &Device{Host: host, PlayerID: playerID}
}

// DeviceFromLocation creates a disconnected device from a discovery location URL.
func DeviceFromLocation(location string) (*Device, error) {
	host, err := HostFromLocation(location)
	if err != nil {
		return nil, err
	}
	return NewDevice(host, ""), nil
}

// Equal compares devices by player id only.
func (d *Device) Equal(other *Device) bool {
	if d == nil || other == nil {
		return d == other
	}
	return d.PlayerID == other.PlayerID
}

// Clone returns a copy without the session.
func (d *Device) Clone() Device {
	c := *d
	c.session = nil
	return c
}

// Connected reports whether the device holds a live session.
func (d *Device) Connected() bool {
	return d.session != nil && d.session.Connected()
}

// Connect opens a session if the device does not hold a live one.
func (d *Device) Connect(ctx context.Context) error {
	if d.Connected() {
		return nil
	}
	s, err := Dial(ctx, d.Host, d.Port)
	if err != nil {
		return err
	}
	d.session = s
	return nil
}

// Close drops the session, if any.
func (d *Device) Close() error {
	if d.session == nil {
		return nil
	}
	err := d.session.Close()
	d.session = nil
	return err
}

// SendCommand sends cmd with this device's pid appended as the last attribute.
func (d *Device) SendCommand(ctx context.Context, cmd *Command) (Reply, error) {
	return d.send(ctx, cmd.Clone().Attr("pid", d.PlayerID))
}

// send transmits cmd as-is over this device's session.
func (d *Device) send(ctx context.Context, cmd *Command) (Reply, error) {
	raw, err := cmd.Encode()
	if err != nil {
		return nil, err
	}
	if err := d.Connect(ctx); err != nil {
		return nil, err
	}

	frame, err := d.session.Send(ctx, raw)
	if err != nil {
		return nil, err
	}
	return Decode(frame)
}

// UpdateInfo refreshes name and player id from player/get_player_info.
func (d *Device) UpdateInfo(ctx context.Context) error {
	r, err := expect[*PlayerInfoReply](d.SendCommand(ctx, NewCommand().Group(GroupPlayer).Name("get_player_info")))
	if err != nil {
		return err
	}
	d.Name = r.Device.Name
	d.PlayerID = r.Device.PlayerID
	if r.Device.Model != "" {
		d.Model = r.Device.Model
	}
	return nil
}

// UpdateVolume refreshes the volume field from player/get_volume.
func (d *Device) UpdateVolume(ctx context.Context) error {
	r, err := expect[*VolumeReply](d.SendCommand(ctx, NewCommand().Group(GroupPlayer).Name("get_volume")))
	if err != nil {
		return err
	}
	level, err := parseLevel(r.Attrs)
	if err != nil {
		return err
	}
	d.Volume = level
	return nil
}

// SetVolume sets an absolute level. Negative levels are clamped to 0; the
// upper bound is left to the device.
func (d *Device) SetVolume(ctx context.Context, level int) error {
	level = max(level, 0)
	r, err := expect[*VolumeReply](d.SendCommand(ctx, volumeCommand(GroupPlayer, level)))
	if err != nil {
		return err
	}
	d.Volume = confirmedLevel(r.Attrs, level)
	return nil
}

// IncreaseVolume raises the volume by step from the last known level.
func (d *Device) IncreaseVolume(ctx context.Context, step int) error {
	return d.SetVolume(ctx, d.Volume+step)
}

// DecreaseVolume lowers the volume by step, stopping at 0.
func (d *Device) DecreaseVolume(ctx context.Context, step int) error {
	return d.SetVolume(ctx, d.Volume-step)
}

// PlayState queries the transport state.
func (d *Device) PlayState(ctx context.Context) (PlayState, error) {
	r, err := expect[*PlayStateReply](d.SendCommand(ctx, NewCommand().Group(GroupPlayer).Name("get_play_state")))
	if err != nil {
		return "", err
	}
	state := PlayState(r.Attrs.Get("state"))
	if !state.Valid() {
		return "", fmt.Errorf("%w: state %q", ErrUnexpectedReply, state)
	}
	d.State = state
	return state, nil
}

// SetPlayState changes the transport state.
func (d *Device) SetPlayState(ctx context.Context, state PlayState) error {
	if !state.Valid() {
		return fmt.Errorf("invalid play state %q", state)
	}
	cmd := NewCommand().Group(GroupPlayer).Name("set_play_state").Attr("state", string(state))
	if _, err := expect[*PlayStateReply](d.SendCommand(ctx, cmd)); err != nil {
		return err
	}
	d.State = state
	return nil
}

// PlayNext skips to the next queue item.
func (d *Device) PlayNext(ctx context.Context) error {
	_, err := expect[*PlayActionReply](d.SendCommand(ctx, NewCommand().Group(GroupPlayer).Name("play_next")))
	return err
}

// PlayPrevious skips to the previous queue item.
func (d *Device) PlayPrevious(ctx context.Context) error {
	_, err := expect[*PlayActionReply](d.SendCommand(ctx, NewCommand().Group(GroupPlayer).Name("play_previous")))
	return err
}

// Mute queries the mute state.
func (d *Device) Mute(ctx context.Context) (bool, error) {
	r, err := expect[*MuteReply](d.SendCommand(ctx, NewCommand().Group(GroupPlayer).Name("get_mute")))
	if err != nil {
		return false, err
	}
	d.Muted = r.Attrs.Get("state") == "on"
	return d.Muted, nil
}

// SetMute mutes or unmutes the player.
func (d *Device) SetMute(ctx context.Context, on bool) error {
	if _, err := expect[*MuteReply](d.SendCommand(ctx, muteCommand(GroupPlayer, on))); err != nil {
		return err
	}
	d.Muted = on
	return nil
}

// ToggleMute flips the mute state on the device.
func (d *Device) ToggleMute(ctx context.Context) error {
	cmd := NewCommand().Group(GroupPlayer).Name("toggle_mute")
	if _, err := expect[*MuteReply](d.SendCommand(ctx, cmd)); err != nil {
		return err
	}
	// toggle_mute does not report the new state.
	_, err := d.Mute(ctx)
	return err
}

// NowPlaying returns the media currently playing.
func (d *Device) NowPlaying(ctx context.Context) (Media, error) {
	r, err := expect[*PlayingMediaReply](d.SendCommand(ctx, NewCommand().Group(GroupPlayer).Name("get_now_playing_media")))
	if err != nil {
		return Media{}, err
	}
	return r.Media(), nil
}

func (d *Device) String() string {
	if d.Name == "" {
		return d.Host
	}
	return fmt.Sprintf("%s (%s)", d.Name, d.Host)
}

func volumeCommand(group string, level int) *Command {
	return NewCommand().Group(group).Name("set_volume").Attr("level", strconv.Itoa(level))
}

func muteCommand(group string, on bool) *Command {
	state := "off"
	if on {
		state = "on"
	}
	return NewCommand().Group(group).Name("set_mute").Attr("state", state)
}

func parseLevel(attrs Attrs) (int, error) {
	level, err := attrs.Int("level")
	if err != nil {
		return 0, err
	}
	if level < 0 {
		return 0, fmt.Errorf("%w: negative level %d", ErrUnexpectedReply, level)
	}
	return level, nil
}

// confirmedLevel prefers the level echoed by the device over the requested one.
func confirmedLevel(attrs Attrs, requested int) int {
	if level, err := parseLevel(attrs); err == nil {
		return level
	}
	return requested
}

// expect narrows a decoded reply to the variant T. Protocol failures become
// *CommandError; any other variant is ErrUnexpectedReply.
func expect[T Reply](reply Reply, err error) (T, error) {
	var zero T
	if err != nil {
		return zero, err
	}
	if e, ok := reply.(*ErrorReply); ok {
		log.Debug().Str("command", e.Command()).Str("text", e.Attrs.Get("text")).Msg("HEOS command failed")
		return zero, e.Err()
	}
	r, ok := reply.(T)
	if !ok {
		return zero, fmt.Errorf("%w: %s", ErrUnexpectedReply, reply.Command())
	}
	if !r.Success() {
		return zero, &CommandError{Command: r.Command(), Text: "unsuccessful"}
	}
	return r, nil
}
