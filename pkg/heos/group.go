package heos

import (
	"context"
)

// Group is a set of players controlled as one unit through its leader.
type Group struct {
	Name    string   `json:"name"`
	GroupID string   `json:"gid"`
	Leader  *Device  `json:"leader,omitempty"`
	Members []Device `json:"players"`
	Volume  int      `json:"volume"`
	Muted   bool     `json:"muted"`
}

// Equal compares groups by group id only.
func (g *Group) Equal(other *Group) bool {
	if g == nil || other == nil {
		return g == other
	}
	return g.GroupID == other.GroupID
}

// Clone returns a deep copy whose leader and members hold no sessions.
func (g *Group) Clone() Group {
	c := *g
	if g.Leader != nil {
		leader := g.Leader.Clone()
		c.Leader = &leader
	}
	if g.Members != nil {
		c.Members = make([]Device, len(g.Members))
		for i := range g.Members {
			c.Members[i] = g.Members[i].Clone()
		}
	}
	return c
}

// SendCommand sends cmd with this group's gid appended through the leader's
// session. A group without a leader fails before any network access.
func (g *Group) SendCommand(ctx context.Context, cmd *Command) (Reply, error) {
	if g.Leader == nil {
		return nil, ErrNoLeader
	}
	return g.Leader.send(ctx, cmd.Clone().Attr("gid", g.GroupID))
}

// Close drops the leader's session.
func (g *Group) Close() error {
	if g.Leader == nil {
		return nil
	}
	return g.Leader.Close()
}

// UpdateVolume refreshes the aggregate volume from group/get_volume.
func (g *Group) UpdateVolume(ctx context.Context) error {
	r, err := expect[*VolumeReply](g.SendCommand(ctx, NewCommand().Group(GroupGroup).Name("get_volume")))
	if err != nil {
		return err
	}
	level, err := parseLevel(r.Attrs)
	if err != nil {
		return err
	}
	g.Volume = level
	return nil
}

// SetVolume sets the aggregate level, clamped at 0.
func (g *Group) SetVolume(ctx context.Context, level int) error {
	level = max(level, 0)
	r, err := expect[*VolumeReply](g.SendCommand(ctx, volumeCommand(GroupGroup, level)))
	if err != nil {
		return err
	}
	g.Volume = confirmedLevel(r.Attrs, level)
	return nil
}

// IncreaseVolume raises the aggregate volume by step.
func (g *Group) IncreaseVolume(ctx context.Context, step int) error {
	return g.SetVolume(ctx, g.Volume+step)
}

// DecreaseVolume lowers the aggregate volume by step, stopping at 0.
func (g *Group) DecreaseVolume(ctx context.Context, step int) error {
	return g.SetVolume(ctx, g.Volume-step)
}

// Mute queries the group mute state.
func (g *Group) Mute(ctx context.Context) (bool, error) {
	r, err := expect[*MuteReply](g.SendCommand(ctx, NewCommand().Group(GroupGroup).Name("get_mute")))
	if err != nil {
		return false, err
	}
	g.Muted = r.Attrs.Get("state") == "on"
	return g.Muted, nil
}

// SetMute mutes or unmutes every member.
func (g *Group) SetMute(ctx context.Context, on bool) error {
	if _, err := expect[*MuteReply](g.SendCommand(ctx, muteCommand(GroupGroup, on))); err != nil {
		return err
	}
	g.Muted = on
	return nil
}

// ToggleMute flips the group mute state.
func (g *Group) ToggleMute(ctx context.Context) error {
	if _, err := expect[*MuteReply](g.SendCommand(ctx, NewCommand().Group(GroupGroup).Name("toggle_mute"))); err != nil {
		return err
	}
	_, err := g.Mute(ctx)
	return err
}

// ReconcileLeader copies connection details for the leader and members from
// the authoritative player list. Players unknown to the list are left as-is.
func (g *Group) ReconcileLeader(players []Device) {
	byID := make(map[string]*Device, len(players))
	for i := range players {
		byID[players[i].PlayerID] = &players[i]
	}

	if g.Leader != nil {
		if p, ok := byID[g.Leader.PlayerID]; ok {
			reconcile(g.Leader, p)
		}
	}
	for i := range g.Members {
		if p, ok := byID[g.Members[i].PlayerID]; ok {
			reconcile(&g.Members[i], p)
		}
	}
}

func reconcile(dst, src *Device) {
	dst.Host = src.Host
	dst.Port = src.Port
	if dst.Model == "" {
		dst.Model = src.Model
	}
}
