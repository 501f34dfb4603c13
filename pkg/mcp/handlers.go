package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/urmzd/heosdial/pkg/device"
)

func (s *Server) handleGetHealth(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	out := GetHealthOutput{
		Status:     "healthy",
		Controller: "connected",
		Timestamp:  time.Now().UTC().Format(time.RFC3339),
	}
	if !s.controller.IsConnected() {
		out.Status = "unhealthy"
		out.Controller = "disconnected"
	}
	if players, err := s.controller.ListDevices(ctx); err == nil {
		out.Players = len(players)
	}

	return mcp.NewToolResultText(formatJSON(out)), nil
}

func (s *Server) handleListPlayers(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	players, err := s.controller.ListDevices(ctx)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to list players: %s", err)), nil
	}

	infos := make([]PlayerInfo, 0, len(players))
	for i := range players {
		info := PlayerToInfo(&players[i])
		// A player that does not answer is still listed, without state.
		if state, err := s.controller.GetDeviceState(ctx, players[i].ID); err == nil {
			info.State = state
		}
		infos = append(infos, info)
	}

	return mcp.NewToolResultText(formatJSON(ListPlayersOutput{Players: infos, Count: len(infos)})), nil
}

func (s *Server) handleGetPlayer(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := requiredString(request, "id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	d, err := s.resolvePlayer(ctx, id)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("player not found: %s", err)), nil
	}

	info := PlayerToInfo(d)
	if state, err := s.controller.GetDeviceState(ctx, d.ID); err == nil {
		info.State = state
	}
	return mcp.NewToolResultText(formatJSON(info)), nil
}

func (s *Server) handleListGroups(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	groups, err := s.controller.ListGroups(ctx)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to list groups: %s", err)), nil
	}

	infos := make([]GroupInfo, 0, len(groups))
	for i := range groups {
		info := GroupToInfo(&groups[i])
		if state, err := s.controller.GetGroupState(ctx, groups[i].ID); err == nil {
			info.State = state
		}
		infos = append(infos, info)
	}

	return mcp.NewToolResultText(formatJSON(ListGroupsOutput{Groups: infos, Count: len(infos)})), nil
}

func (s *Server) handleGetGroup(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := requiredString(request, "id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	g, err := s.resolveGroup(ctx, id)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("group not found: %s", err)), nil
	}

	info := GroupToInfo(g)
	if state, err := s.controller.GetGroupState(ctx, g.ID); err == nil {
		info.State = state
	}
	return mcp.NewToolResultText(formatJSON(info)), nil
}

func (s *Server) handleGetState(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	t, err := s.resolveTarget(ctx, request)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	var state device.DeviceState
	if t.kind == device.TargetGroup {
		state, err = s.controller.GetGroupState(ctx, t.id)
	} else {
		state, err = s.controller.GetDeviceState(ctx, t.id)
	}
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to get state: %s", err)), nil
	}

	return mcp.NewToolResultText(formatJSON(t.output(state))), nil
}

func (s *Server) handleSetState(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := request.GetArguments()

	// The state may arrive as a nested object or as flat arguments.
	state := map[string]any{}
	if raw, ok := args["state"]; ok {
		sm, ok := raw.(map[string]any)
		if !ok {
			return mcp.NewToolResultError(`parameter "state" must be an object`), nil
		}
		state = sm
	} else {
		for k, v := range args {
			if k != "id" && k != "target" {
				state[k] = v
			}
		}
	}

	return s.applyState(ctx, request, state, "failed to set state")
}

func (s *Server) handleSetVolume(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	level, err := requiredInt(request, "level")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return s.applyState(ctx, request, map[string]any{"volume": level}, "failed to set volume")
}

func (s *Server) handleAdjustVolume(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	step, err := requiredInt(request, "step")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return s.applyState(ctx, request, map[string]any{"volume_step": step}, "failed to adjust volume")
}

func (s *Server) handleToggleMute(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return s.applyState(ctx, request, map[string]any{"mute": "toggle"}, "failed to toggle mute")
}

func (s *Server) handleSetPlayState(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	ps, err := requiredString(request, "state")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return s.applyState(ctx, request, map[string]any{"play_state": ps}, "failed to set play state")
}

func (s *Server) handleSkip(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	dir, err := requiredString(request, "direction")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return s.applyState(ctx, request, map[string]any{"skip": dir}, "failed to skip")
}

func (s *Server) handleRefresh(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	if err := s.controller.Refresh(ctx); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to refresh topology: %s", err)), nil
	}

	players, err := s.controller.ListDevices(ctx)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to list players: %s", err)), nil
	}
	groups, err := s.controller.ListGroups(ctx)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to list groups: %s", err)), nil
	}

	return mcp.NewToolResultText(formatJSON(RefreshOutput{Players: len(players), Groups: len(groups)})), nil
}

// applyState validates state against the target's schema and applies it.
func (s *Server) applyState(ctx context.Context, request mcp.CallToolRequest, state map[string]any, failure string) (*mcp.CallToolResult, error) {
	t, err := s.resolveTarget(ctx, request)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	if s.validator != nil {
		if err := s.validator.Validate(t.schema, state); err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("validation error: %s", err)), nil
		}
	}

	var confirmed device.DeviceState
	if t.kind == device.TargetGroup {
		confirmed, err = s.controller.SetGroupState(ctx, t.id, state)
	} else {
		confirmed, err = s.controller.SetDeviceState(ctx, t.id, state)
	}
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("%s: %s", failure, err)), nil
	}

	return mcp.NewToolResultText(formatJSON(t.output(confirmed))), nil
}

// --- target resolution ---

type target struct {
	kind   device.Target
	id     string
	name   string
	schema json.RawMessage
}

func (t target) output(state device.DeviceState) StateOutput {
	return StateOutput{Target: string(t.kind), ID: t.id, Name: t.name, State: state}
}

func (s *Server) resolveTarget(ctx context.Context, request mcp.CallToolRequest) (target, error) {
	id, err := requiredString(request, "id")
	if err != nil {
		return target{}, err
	}

	kind := device.TargetDevice
	if v, ok := request.GetArguments()["target"].(string); ok {
		switch v {
		case "", "player":
		case "group":
			kind = device.TargetGroup
		default:
			return target{}, fmt.Errorf("unknown target %q", v)
		}
	}

	if kind == device.TargetGroup {
		g, err := s.resolveGroup(ctx, id)
		if err != nil {
			return target{}, fmt.Errorf("group not found: %w", err)
		}
		return target{kind: kind, id: g.ID, name: g.Name, schema: g.StateSchema}, nil
	}

	d, err := s.resolvePlayer(ctx, id)
	if err != nil {
		return target{}, fmt.Errorf("player not found: %w", err)
	}
	return target{kind: kind, id: d.ID, name: d.Name, schema: d.StateSchema}, nil
}

// resolvePlayer looks a player up by ID, then by case-insensitive name.
func (s *Server) resolvePlayer(ctx context.Context, idOrName string) (*device.Device, error) {
	d, err := s.controller.GetDevice(ctx, idOrName)
	if err == nil || !errors.Is(err, device.ErrNotFound) {
		return d, err
	}

	players, err := s.controller.ListDevices(ctx)
	if err != nil {
		return nil, err
	}
	for i := range players {
		if strings.EqualFold(players[i].Name, idOrName) {
			return &players[i], nil
		}
	}
	return nil, device.ErrNotFound
}

// resolveGroup looks a group up by ID, then by case-insensitive name.
func (s *Server) resolveGroup(ctx context.Context, idOrName string) (*device.Group, error) {
	g, err := s.controller.GetGroup(ctx, idOrName)
	if err == nil || !errors.Is(err, device.ErrNotFound) {
		return g, err
	}

	groups, err := s.controller.ListGroups(ctx)
	if err != nil {
		return nil, err
	}
	for i := range groups {
		if strings.EqualFold(groups[i].Name, idOrName) {
			return &groups[i], nil
		}
	}
	return nil, device.ErrNotFound
}

// --- helpers ---

func requiredString(request mcp.CallToolRequest, key string) (string, error) {
	args := request.GetArguments()
	v, ok := args[key]
	if !ok || v == nil {
		return "", fmt.Errorf("required parameter %q is missing", key)
	}
	s, ok := v.(string)
	if !ok || s == "" {
		return "", fmt.Errorf("parameter %q must be a non-empty string", key)
	}
	return s, nil
}

// requiredInt reads a whole number. JSON numbers arrive as float64.
func requiredInt(request mcp.CallToolRequest, key string) (int, error) {
	v, ok := request.GetArguments()[key]
	if !ok || v == nil {
		return 0, fmt.Errorf("required parameter %q is missing", key)
	}
	switch n := v.(type) {
	case float64:
		if n != math.Trunc(n) {
			return 0, fmt.Errorf("parameter %q must be a whole number", key)
		}
		return int(n), nil
	case int:
		return n, nil
	case json.Number:
		i, err := n.Int64()
		if err != nil {
			return 0, fmt.Errorf("parameter %q must be a whole number", key)
		}
		return int(i), nil
	default:
		return 0, fmt.Errorf("parameter %q must be a number", key)
	}
}

func formatJSON(v any) string {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Sprintf(`{"error":"failed to marshal response: %s"}`, err)
	}
	return string(b)
}
