package types

import (
	"encoding/json"
	"time"
)

// --- Response DTOs ---

// ErrorResponse represents an API error
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

// HealthResponse is returned from GET /health
type HealthResponse struct {
	Status     string    `json:"status"`
	Controller string    `json:"controller"`
	Players    int       `json:"players"`
	Timestamp  time.Time `json:"timestamp"`
}

// PlayerWithState combines player info with its last queried state
type PlayerWithState struct {
	ID          string          `json:"id"`
	Name        string          `json:"name"`
	Model       string          `json:"model,omitempty"`
	Address     string          `json:"address"`
	GroupID     string          `json:"group_id,omitempty"`
	StateSchema json.RawMessage `json:"state_schema,omitempty"`
	State       map[string]any  `json:"state,omitempty"`
}

// ListPlayersResponse is returned from GET /players
type ListPlayersResponse struct {
	Players []PlayerWithState `json:"players"`
	Count   int               `json:"count"`
}

// PlayerResponse is returned from GET /players/:id
type PlayerResponse struct {
	Player PlayerWithState `json:"player"`
}

// GroupWithState combines group membership with its last queried state
type GroupWithState struct {
	ID          string          `json:"id"`
	Name        string          `json:"name"`
	LeaderID    string          `json:"leader_id,omitempty"`
	MemberIDs   []string        `json:"member_ids"`
	StateSchema json.RawMessage `json:"state_schema,omitempty"`
	State       map[string]any  `json:"state,omitempty"`
}

// ListGroupsResponse is returned from GET /groups
type ListGroupsResponse struct {
	Groups []GroupWithState `json:"groups"`
	Count  int              `json:"count"`
}

// GroupResponse is returned from GET /groups/:id
type GroupResponse struct {
	Group GroupWithState `json:"group"`
}

// StateResponse is returned from GET/POST /{players,groups}/:id/state
type StateResponse struct {
	Target    string         `json:"target"`
	ID        string         `json:"id"`
	Name      string         `json:"name"`
	State     map[string]any `json:"state"`
	Timestamp time.Time      `json:"timestamp"`
}

// JobResponse is returned from POST /{players,groups}/:id/state?async=true
type JobResponse struct {
	JobID  string `json:"job_id"`
	Status string `json:"status"`
	Target string `json:"target"`
	ID     string `json:"id"`
}

// RefreshResponse is returned from POST /discovery/refresh
type RefreshResponse struct {
	Status    string    `json:"status"`
	Players   int       `json:"players"`
	Groups    int       `json:"groups"`
	Timestamp time.Time `json:"timestamp"`
}
