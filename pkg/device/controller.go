package device

import "context"

// Controller defines the interface for controlling networked audio players.
// Players are addressed by player id and groups by group id; the API, MCP
// server, dial and MQTT bridge all drive playback through it.
type Controller interface {
	// ListDevices returns all known players
	ListDevices(ctx context.Context) ([]Device, error)

	// GetDevice returns a single player by ID
	GetDevice(ctx context.Context, id string) (*Device, error)

	// ListGroups returns all known groups
	ListGroups(ctx context.Context) ([]Group, error)

	// GetGroup returns a single group by ID
	GetGroup(ctx context.Context, id string) (*Group, error)

	// GetDeviceState queries a player for its current state
	GetDeviceState(ctx context.Context, id string) (DeviceState, error)

	// SetDeviceState applies a state change to a player and returns the confirmed state
	SetDeviceState(ctx context.Context, id string, state map[string]any) (DeviceState, error)

	// GetGroupState queries a group through its leader
	GetGroupState(ctx context.Context, id string) (DeviceState, error)

	// SetGroupState applies a state change to a group
	SetGroupState(ctx context.Context, id string, state map[string]any) (DeviceState, error)

	// Dispatch runs a state change in the background and returns its job ID.
	// The outcome is published as an event.
	Dispatch(target Target, id string, state map[string]any) string

	// Refresh re-reads players and groups from the network
	Refresh(ctx context.Context) error

	// IsConnected returns true if the controller reached a device
	IsConnected() bool

	// Close disconnects the controller
	Close()
}

// EventSubscriber defines the interface for subscribing to controller events
type EventSubscriber interface {
	// Subscribe returns a channel that receives events
	Subscribe() chan Event

	// Unsubscribe removes a subscription
	Unsubscribe(ch chan Event)
}
