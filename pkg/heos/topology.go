package heos

import (
	"context"
	"slices"
	"sync"

	"github.com/rs/zerolog/log"
)

// Topology holds the known players and groups. Collections are replaced
// wholesale under the write lock; readers receive disconnected clones.
type Topology struct {
	mu      sync.RWMutex
	devices []Device
	groups  []Group
}

// NewTopology creates an empty store.
func NewTopology() *Topology {
	return &Topology{}
}

// Devices returns a snapshot of all players.
func (t *Topology) Devices() []Device {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return cloneDevices(t.devices)
}

// Groups returns a snapshot of all groups.
func (t *Topology) Groups() []Group {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return cloneGroups(t.groups)
}

// Device returns a disconnected copy of the player with the given id.
func (t *Topology) Device(playerID string) (Device, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	for i := range t.devices {
		if t.devices[i].PlayerID == playerID {
			return t.devices[i].Clone(), true
		}
	}
	return Device{}, false
}

// Group returns a disconnected copy of the group with the given id.
func (t *Topology) Group(groupID string) (Group, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	for i := range t.groups {
		if t.groups[i].GroupID == groupID {
			return t.groups[i].Clone(), true
		}
	}
	return Group{}, false
}

// ReplaceDevices swaps the player collection.
func (t *Topology) ReplaceDevices(devices []Device) {
	next := cloneDevices(devices)
	t.mu.Lock()
	t.devices = next
	t.mu.Unlock()
}

// ReplaceGroups swaps the group collection.
func (t *Topology) ReplaceGroups(groups []Group) {
	next := cloneGroups(groups)
	t.mu.Lock()
	t.groups = next
	t.mu.Unlock()
}

// UpdateDevice applies fn to a copy of the player and swaps in a new
// collection. It reports whether the player was found.
func (t *Topology) UpdateDevice(playerID string, fn func(*Device)) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	i := t.indexDevice(playerID)
	if i < 0 {
		return false
	}
	next := cloneDevices(t.devices)
	fn(&next[i])
	next[i].session = nil
	t.devices = next
	return true
}

// UpdateGroup applies fn to a copy of the group and swaps in a new collection.
func (t *Topology) UpdateGroup(groupID string, fn func(*Group)) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	i := t.indexGroup(groupID)
	if i < 0 {
		return false
	}
	next := cloneGroups(t.groups)
	fn(&next[i])
	next[i] = next[i].Clone()
	t.groups = next
	return true
}

// Refresh fetches players and groups through via and replaces both
// collections. Last known volume, mute and play state carry over for
// players and groups that are still present.
func (t *Topology) Refresh(ctx context.Context, via *Device) error {
	players, err := expect[*PlayersReply](via.send(ctx, NewCommand().Group(GroupPlayer).Name("get_players")))
	if err != nil {
		return err
	}
	groups, err := expect[*GroupsReply](via.send(ctx, NewCommand().Group(GroupPlayer).Name("get_groups")))
	if err != nil {
		return err
	}

	devices := players.Devices
	for i := range devices {
		devices[i].Port = via.Port
	}
	for i := range groups.Groups {
		groups.Groups[i].ReconcileLeader(devices)
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	for i := range devices {
		if j := t.indexDevice(devices[i].PlayerID); j >= 0 {
			old := t.devices[j]
			devices[i].Volume, devices[i].Muted, devices[i].State = old.Volume, old.Muted, old.State
		}
	}
	for i := range groups.Groups {
		if j := t.indexGroup(groups.Groups[i].GroupID); j >= 0 {
			old := t.groups[j]
			groups.Groups[i].Volume, groups.Groups[i].Muted = old.Volume, old.Muted
		}
	}

	t.devices = cloneDevices(devices)
	t.groups = cloneGroups(groups.Groups)

	log.Debug().
		Int("players", len(t.devices)).
		Int("groups", len(t.groups)).
		Msg("HEOS topology refreshed")

	return nil
}

func (t *Topology) indexDevice(playerID string) int {
	return slices.IndexFunc(t.devices, func(d Device) bool { return d.PlayerID == playerID })
}

func (t *Topology) indexGroup(groupID string) int {
	return slices.IndexFunc(t.groups, func(g Group) bool { return g.GroupID == groupID })
}

func cloneDevices(devices []Device) []Device {
	out := make([]Device, len(devices))
	for i := range devices {
		out[i] = devices[i].Clone()
	}
	return out
}

func cloneGroups(groups []Group) []Group {
	out := make([]Group, len(groups))
	for i := range groups {
		out[i] = groups[i].Clone()
	}
	return out
}
