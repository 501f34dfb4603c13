package schema

import "encoding/json"

// PlayerState is the settable state of a single player.
var PlayerState = json.RawMessage(`{
	"$schema": "https://json-schema.org/draft/2020-12/schema",
	"type": "object",
	"properties": {
		"volume": {"type": "integer", "minimum": 0},
		"volume_step": {"type": "integer", "minimum": -100, "maximum": 100},
		"mute": {"type": "string", "enum": ["on", "off", "toggle"]},
		"play_state": {"type": "string", "enum": ["play", "pause", "stop"]},
		"skip": {"type": "string", "enum": ["next", "previous"]}
	},
	"not": {"required": ["volume", "volume_step"]},
	"additionalProperties": false
}`)

// GroupState is the settable state of a group. Transport controls are
// per player, so only volume and mute apply.
var GroupState = json.RawMessage(`{
	"$schema": "https://json-schema.org/draft/2020-12/schema",
	"type": "object",
	"properties": {
		"volume": {"type": "integer", "minimum": 0},
		"volume_step": {"type": "integer", "minimum": -100, "maximum": 100},
		"mute": {"type": "string", "enum": ["on", "off", "toggle"]}
	},
	"not": {"required": ["volume", "volume_step"]},
	"additionalProperties": false
}`)
