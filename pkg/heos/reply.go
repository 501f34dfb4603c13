package heos

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// Protocol result values
const (
	ResultSuccess = "success"
	ResultFail    = "fail"
)

// Reply is one decoded device reply. The set of implementations is closed:
// PlayersReply, GroupsReply, PlayerInfoReply, GroupInfoReply, PlayStateReply,
// PlayActionReply, PlayingMediaReply, VolumeReply, MuteReply and ErrorReply.
type Reply interface {
	// Command returns the heos.command value the device echoed back
	Command() string

	// Success reports the protocol-level result field
	Success() bool

	reply()
}

type replyHeader struct {
	command string
	success bool
}

func (h replyHeader) Command() string { return h.command }
func (h replyHeader) Success() bool   { return h.success }
func (replyHeader) reply()            {}

// PlayersReply answers player/get_players.
type PlayersReply struct {
	replyHeader
	Devices []Device
}

// GroupsReply answers player/get_groups.
type GroupsReply struct {
	replyHeader
	Groups []Group
}

// PlayerInfoReply answers player/get_player_info.
type PlayerInfoReply struct {
	replyHeader
	Device Device
}

// GroupInfoReply answers player/get_group_info.
type GroupInfoReply struct {
	replyHeader
	Group Group
}

// PlayStateReply answers player/get_play_state and player/set_play_state.
type PlayStateReply struct {
	replyHeader
	Attrs Attrs
}

// PlayActionReply answers player/play_next and player/play_previous.
type PlayActionReply struct {
	replyHeader
	Attrs Attrs
}

// PlayingMediaReply answers player/get_now_playing_media.
type PlayingMediaReply struct {
	replyHeader
	Attrs Attrs
}

// VolumeReply answers {player,group}/{get,set}_volume.
type VolumeReply struct {
	replyHeader
	Attrs Attrs
}

// MuteReply answers {player,group}/{get,set,toggle}_mute.
type MuteReply struct {
	replyHeader
	Attrs Attrs
}

// ErrorReply is any reply whose result is "fail", whatever the command.
type ErrorReply struct {
	replyHeader
	Attrs Attrs
}

// Err converts the reply into a CommandError.
func (r *ErrorReply) Err() *CommandError {
	return &CommandError{
		Command: r.command,
		ID:      r.Attrs.Get("eid"),
		Text:    r.Attrs.Get("text"),
		Attrs:   r.Attrs,
	}
}

type envelope struct {
	Heos *struct {
		Command string `json:"command"`
		Result  string `json:"result"`
		Message string `json:"message"`
	} `json:"heos"`
	Payload json.RawMessage `json:"payload"`
}

// wireID accepts player and group ids sent either as JSON numbers or strings.
type wireID string

func (i *wireID) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || string(b) == "null" {
		return nil
	}
	if b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*i = wireID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return err
	}
	*i = wireID(n.String())
	return nil
}

type payloadPlayer struct {
	Name  string `json:"name"`
	PID   wireID `json:"pid"`
	GID   wireID `json:"gid"`
	Model string `json:"model"`
	IP    string `json:"ip"`
	Role  string `json:"role"`
}

func (p payloadPlayer) device() Device {
	return Device{
		Name:     p.Name,
		Model:    p.Model,
		Host:     p.IP,
		PlayerID: string(p.PID),
		GroupID:  string(p.GID),
	}
}

type payloadGroup struct {
	Name    string          `json:"name"`
	GID     wireID          `json:"gid"`
	Players []payloadPlayer `json:"players"`
}

// Decode maps a raw reply to its typed variant. Protocol failures decode
// successfully into *ErrorReply; a non-nil error means the reply is unusable.
func Decode(raw []byte) (Reply, error) {
	start := bytes.IndexByte(raw, '{')
	end := bytes.LastIndexByte(raw, '}')
	if start < 0 || end < start {
		return nil, &DecodeError{Err: ErrMalformedReply}
	}

	var env envelope
	if err := json.Unmarshal(raw[start:end+1], &env); err != nil {
		return nil, &DecodeError{Err: fmt.Errorf("%w: %v", ErrMalformedReply, err)}
	}
	if env.Heos == nil {
		return nil, &DecodeError{Err: fmt.Errorf("%w: heos", ErrMissingField)}
	}

	command := strings.TrimSpace(env.Heos.Command)
	header := replyHeader{command: command, success: env.Heos.Result == ResultSuccess}

	if env.Heos.Result == ResultFail {
		header.success = false
		return &ErrorReply{replyHeader: header, Attrs: ParseMessage(env.Heos.Message)}, nil
	}
	if command == "" {
		return nil, &DecodeError{Err: fmt.Errorf("%w: heos.command", ErrMissingField)}
	}

	reply, err := decodeFamily(header, env.Heos.Message, env.Payload)
	if err != nil {
		return nil, &DecodeError{Command: command, Err: err}
	}
	return reply, nil
}

func decodeFamily(h replyHeader, message string, payload json.RawMessage) (Reply, error) {
	switch h.command {
	case "player/get_players":
		var players []payloadPlayer
		if err := decodePayload(payload, &players); err != nil {
			return nil, err
		}
		devices := make([]Device, 0, len(players))
		for _, p := range players {
			if p.PID == "" {
				return nil, fmt.Errorf("%w: payload.pid", ErrMissingField)
			}
			devices = append(devices, p.device())
		}
		return &PlayersReply{replyHeader: h, Devices: devices}, nil

	case "player/get_groups":
		var groups []payloadGroup
		if err := decodePayload(payload, &groups); err != nil {
			return nil, err
		}
		result := make([]Group, 0, len(groups))
		for _, g := range groups {
			if g.GID == "" {
				return nil, fmt.Errorf("%w: payload.gid", ErrMissingField)
			}
			result = append(result, decodeGroup(g))
		}
		return &GroupsReply{replyHeader: h, Groups: result}, nil

	case "player/get_player_info":
		var p payloadPlayer
		if err := decodePayload(payload, &p); err != nil {
			return nil, err
		}
		if p.PID == "" {
			return nil, fmt.Errorf("%w: payload.pid", ErrMissingField)
		}
		return &PlayerInfoReply{replyHeader: h, Device: p.device()}, nil

	case "player/get_group_info":
		var g payloadGroup
		if err := decodePayload(payload, &g); err != nil {
			return nil, err
		}
		if g.GID == "" {
			return nil, fmt.Errorf("%w: payload.gid", ErrMissingField)
		}
		return &GroupInfoReply{replyHeader: h, Group: Group{Name: g.Name, GroupID: string(g.GID)}}, nil

	case "player/get_play_state", "player/set_play_state":
		return &PlayStateReply{replyHeader: h, Attrs: ParseMessage(message)}, nil

	case "player/play_next", "player/play_previous":
		return &PlayActionReply{replyHeader: h, Attrs: ParseMessage(message)}, nil

	case "player/get_now_playing_media":
		attrs, err := flattenPayload(payload)
		if err != nil {
			return nil, err
		}
		return &PlayingMediaReply{replyHeader: h, Attrs: attrs}, nil

	case "player/set_volume", "player/get_volume", "group/set_volume", "group/get_volume":
		return &VolumeReply{replyHeader: h, Attrs: ParseMessage(message)}, nil

	case "player/set_mute", "player/get_mute", "player/toggle_mute",
		"group/set_mute", "group/get_mute", "group/toggle_mute":
		return &MuteReply{replyHeader: h, Attrs: ParseMessage(message)}, nil
	}

	return nil, ErrUnknownCommand
}

func decodeGroup(g payloadGroup) Group {
	group := Group{Name: g.Name, GroupID: string(g.GID)}
	if len(g.Players) > 0 {
		group.Members = make([]Device, 0, len(g.Players))
	}
	for _, p := range g.Players {
		member := p.device()
		member.GroupID = group.GroupID
		group.Members = append(group.Members, member)
	}
	for _, p := range g.Players {
		if p.Role == "leader" {
			leader := p.device()
			leader.GroupID = group.GroupID
			group.Leader = &leader
			break
		}
	}
	return group
}

func decodePayload(payload json.RawMessage, v any) error {
	if len(bytes.TrimSpace(payload)) == 0 || string(payload) == "null" {
		return fmt.Errorf("%w: payload", ErrMissingField)
	}
	if err := json.Unmarshal(payload, v); err != nil {
		return fmt.Errorf("%w: payload: %v", ErrMalformedReply, err)
	}
	return nil
}

// flattenPayload keeps the scalar fields of a payload object as strings.
func flattenPayload(payload json.RawMessage) (Attrs, error) {
	if len(bytes.TrimSpace(payload)) == 0 || string(payload) == "null" {
		return nil, fmt.Errorf("%w: payload", ErrMissingField)
	}

	dec := json.NewDecoder(bytes.NewReader(payload))
	dec.UseNumber()
	var fields map[string]any
	if err := dec.Decode(&fields); err != nil {
		return nil, fmt.Errorf("%w: payload: %v", ErrMalformedReply, err)
	}

	attrs := make(Attrs, len(fields))
	for k, v := range fields {
		switch val := v.(type) {
		case string:
			attrs[k] = val
		case json.Number:
			attrs[k] = val.String()
		case bool:
			attrs[k] = strconv.FormatBool(val)
		}
	}
	return attrs, nil
}
