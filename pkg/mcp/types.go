package mcp

import (
	"encoding/json"

	"github.com/urmzd/heosdial/pkg/device"
)

// GetHealthOutput is the output for the get_health tool
type GetHealthOutput struct {
	Status     string `json:"status"`
	Controller string `json:"controller"`
	Players    int    `json:"players"`
	Timestamp  string `json:"timestamp"`
}

// PlayerInfo represents a player in tool outputs
type PlayerInfo struct {
	ID          string             `json:"id"`
	Name        string             `json:"name"`
	Model       string             `json:"model,omitempty"`
	Address     string             `json:"address,omitempty"`
	GroupID     string             `json:"group_id,omitempty"`
	StateSchema json.RawMessage    `json:"state_schema,omitempty"`
	State       device.DeviceState `json:"state,omitempty"`
}

// ListPlayersOutput is the output for the list_players tool
type ListPlayersOutput struct {
	Players []PlayerInfo `json:"players"`
	Count   int          `json:"count"`
}

// GroupInfo represents a group in tool outputs
type GroupInfo struct {
	ID          string             `json:"id"`
	Name        string             `json:"name"`
	LeaderID    string             `json:"leader_id,omitempty"`
	MemberIDs   []string           `json:"member_ids"`
	StateSchema json.RawMessage    `json:"state_schema,omitempty"`
	State       device.DeviceState `json:"state,omitempty"`
}

// ListGroupsOutput is the output for the list_groups tool
type ListGroupsOutput struct {
	Groups []GroupInfo `json:"groups"`
	Count  int         `json:"count"`
}

// StateOutput is returned by every tool that reads or changes state
type StateOutput struct {
	Target string             `json:"target"`
	ID     string             `json:"id"`
	Name   string             `json:"name,omitempty"`
	State  device.DeviceState `json:"state"`
}

// RefreshOutput is the output for the refresh_topology tool
type RefreshOutput struct {
	Players int `json:"players"`
	Groups  int `json:"groups"`
}

// PlayerToInfo converts a device.Device to PlayerInfo
func PlayerToInfo(d *device.Device) PlayerInfo {
	return PlayerInfo{
		ID:          d.ID,
		Name:        d.Name,
		Model:       d.Model,
		Address:     d.Address,
		GroupID:     d.GroupID,
		StateSchema: d.StateSchema,
	}
}

// GroupToInfo converts a device.Group to GroupInfo
func GroupToInfo(g *device.Group) GroupInfo {
	members := g.MemberIDs
	if members == nil {
		members = []string{}
	}
	return GroupInfo{
		ID:          g.ID,
		Name:        g.Name,
		LeaderID:    g.LeaderID,
		MemberIDs:   members,
		StateSchema: g.StateSchema,
	}
}
