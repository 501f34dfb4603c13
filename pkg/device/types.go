package device

import (
	"encoding/json"
	"time"
)

// Device represents a protocol-agnostic audio player
type Device struct {
	ID          string          `json:"id"`                 // Player ID assigned by the device
	Name        string          `json:"name"`               // User-friendly name
	Type        string          `json:"type"`               // Device type (player, group)
	Protocol    string          `json:"protocol"`           // Control protocol (heos)
	Model       string          `json:"model"`              // Device model
	Address     string          `json:"address"`            // Host the control session connects to
	GroupID     string          `json:"group_id,omitempty"` // Group the player belongs to, if any
	StateSchema json.RawMessage `json:"state_schema"`       // JSON Schema for settable state
}

// Group represents players that play in sync under one leader
type Group struct {
	ID          string          `json:"id"`
	Name        string          `json:"name"`
	LeaderID    string          `json:"leader_id,omitempty"`
	MemberIDs   []string        `json:"member_ids"`
	StateSchema json.RawMessage `json:"state_schema"`
}

// DeviceState represents the current state of a player or group as a dynamic map.
type DeviceState map[string]any

// Target selects what a dispatched state change applies to.
type Target string

const (
	TargetDevice Target = "device"
	TargetGroup  Target = "group"
)

// Event represents a topology change or the outcome of a background job
type Event struct {
	Type      string      `json:"type"`             // Event type (topology_updated, device_updated, ...)
	Device    *Device     `json:"device,omitempty"` // Player information if available
	Group     *Group      `json:"group,omitempty"`  // Group information if available
	State     DeviceState `json:"state,omitempty"`  // Confirmed state after a change
	JobID     string      `json:"job_id,omitempty"` // Job that produced the event
	Error     string      `json:"error,omitempty"`  // Failure description for job_failed
	Timestamp time.Time   `json:"timestamp"`        // When the event occurred
}

// Event type constants
const (
	EventDeviceDiscovered = "device_discovered"
	EventTopologyUpdated  = "topology_updated"
	EventDeviceUpdated    = "device_updated"
	EventGroupUpdated     = "group_updated"
	EventJobFailed        = "job_failed"
)

// ProtocolHEOS is the only control protocol currently implemented.
const ProtocolHEOS = "heos"

// Device type constants
const (
	DeviceTypePlayer = "player"
	DeviceTypeGroup  = "group"
)
