package mcp

import "github.com/mark3labs/mcp-go/mcp"

const (
	playerIDHelp = "Player ID or friendly name"
	targetHelp   = "Whether id names a player or a group (default player)"
)

// registerTools registers all MCP tools with the server
func (s *Server) registerTools() {
	s.mcpServer.AddTool(
		mcp.NewTool("get_health",
			mcp.WithDescription("Check whether the service has reached a HEOS device"),
		),
		s.handleGetHealth,
	)

	s.mcpServer.AddTool(
		mcp.NewTool("list_players",
			mcp.WithDescription("List all players on the network with their current state"),
		),
		s.handleListPlayers,
	)

	s.mcpServer.AddTool(
		mcp.NewTool("get_player",
			mcp.WithDescription("Get details and current state of one player"),
			mcp.WithString("id", mcp.Required(), mcp.Description(playerIDHelp)),
		),
		s.handleGetPlayer,
	)

	s.mcpServer.AddTool(
		mcp.NewTool("list_groups",
			mcp.WithDescription("List player groups with their leader, members and volume"),
		),
		s.handleListGroups,
	)

	s.mcpServer.AddTool(
		mcp.NewTool("get_group",
			mcp.WithDescription("Get details and current state of one group"),
			mcp.WithString("id", mcp.Required(), mcp.Description("Group ID or name")),
		),
		s.handleGetGroup,
	)

	s.mcpServer.AddTool(
		mcp.NewTool("get_state",
			mcp.WithDescription("Get the volume, mute and play state of a player or group"),
			mcp.WithString("id", mcp.Required(), mcp.Description(playerIDHelp)),
			mcp.WithString("target", mcp.Enum("player", "group"), mcp.Description(targetHelp)),
		),
		s.handleGetState,
	)

	s.mcpServer.AddTool(
		mcp.NewTool("set_state",
			mcp.WithDescription("Set state on a player or group. Properties are validated against the target's state schema."),
			mcp.WithString("id", mcp.Required(), mcp.Description(playerIDHelp)),
			mcp.WithString("target", mcp.Enum("player", "group"), mcp.Description(targetHelp)),
			mcp.WithObject("state",
				mcp.Required(),
				mcp.Description(`State properties, e.g. {"volume": 30, "mute": "off", "play_state": "play"}`),
			),
		),
		s.handleSetState,
	)

	s.mcpServer.AddTool(
		mcp.NewTool("set_volume",
			mcp.WithDescription("Set the absolute volume of a player or group"),
			mcp.WithString("id", mcp.Required(), mcp.Description(playerIDHelp)),
			mcp.WithString("target", mcp.Enum("player", "group"), mcp.Description(targetHelp)),
			mcp.WithNumber("level", mcp.Required(), mcp.Min(0), mcp.Description("Volume level; the player enforces its own maximum")),
		),
		s.handleSetVolume,
	)

	s.mcpServer.AddTool(
		mcp.NewTool("adjust_volume",
			mcp.WithDescription("Raise or lower the volume of a player or group by a relative step"),
			mcp.WithString("id", mcp.Required(), mcp.Description(playerIDHelp)),
			mcp.WithString("target", mcp.Enum("player", "group"), mcp.Description(targetHelp)),
			mcp.WithNumber("step", mcp.Required(), mcp.Description("Signed change, e.g. 5 or -5")),
		),
		s.handleAdjustVolume,
	)

	s.mcpServer.AddTool(
		mcp.NewTool("toggle_mute",
			mcp.WithDescription("Toggle mute on a player or group"),
			mcp.WithString("id", mcp.Required(), mcp.Description(playerIDHelp)),
			mcp.WithString("target", mcp.Enum("player", "group"), mcp.Description(targetHelp)),
		),
		s.handleToggleMute,
	)

	s.mcpServer.AddTool(
		mcp.NewTool("set_play_state",
			mcp.WithDescription("Play, pause or stop a player"),
			mcp.WithString("id", mcp.Required(), mcp.Description(playerIDHelp)),
			mcp.WithString("state", mcp.Required(), mcp.Enum("play", "pause", "stop")),
		),
		s.handleSetPlayState,
	)

	s.mcpServer.AddTool(
		mcp.NewTool("skip",
			mcp.WithDescription("Skip to the next or previous track on a player"),
			mcp.WithString("id", mcp.Required(), mcp.Description(playerIDHelp)),
			mcp.WithString("direction", mcp.Required(), mcp.Enum("next", "previous")),
		),
		s.handleSkip,
	)

	s.mcpServer.AddTool(
		mcp.NewTool("refresh_topology",
			mcp.WithDescription("Re-read players and groups from the network"),
		),
		s.handleRefresh,
	)
}
