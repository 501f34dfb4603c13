package bridge

import (
	"strings"

	"github.com/urmzd/heosdial/pkg/device"
)

// DefaultTopicPrefix is the root of every topic the bridge uses.
const DefaultTopicPrefix = "heosdial"

// Topics builds and parses the bridge's topic names:
//
//	<prefix>/status                 online or offline, retained
//	<prefix>/players/<id>/state     confirmed player state, retained
//	<prefix>/groups/<id>/state      confirmed group state, retained
//	<prefix>/players/<id>/set       state changes for a player
//	<prefix>/groups/<id>/set        state changes for a group
//	<prefix>/events                 topology and job events
type Topics struct {
	Prefix string
}

// NewTopics returns Topics for prefix, trimming slashes. An empty prefix
// uses DefaultTopicPrefix.
func NewTopics(prefix string) Topics {
	prefix = strings.Trim(prefix, "/")
	if prefix == "" {
		prefix = DefaultTopicPrefix
	}
	return Topics{Prefix: prefix}
}

func (t Topics) Status() string { return t.Prefix + "/status" }

func (t Topics) Events() string { return t.Prefix + "/events" }

// State is where confirmed state for a player or group is published.
func (t Topics) State(target device.Target, id string) string {
	return t.Prefix + "/" + segment(target) + "/" + id + "/state"
}

// SetFilters are the subscriptions that receive state changes.
func (t Topics) SetFilters() []string {
	return []string{
		t.Prefix + "/players/+/set",
		t.Prefix + "/groups/+/set",
	}
}

// ParseSet extracts the target and id from a set topic.
func (t Topics) ParseSet(topic string) (device.Target, string, bool) {
	rest, ok := strings.CutPrefix(topic, t.Prefix+"/")
	if !ok {
		return "", "", false
	}
	parts := strings.Split(rest, "/")
	if len(parts) != 3 || parts[2] != "set" || parts[1] == "" {
		return "", "", false
	}
	switch parts[0] {
	case "players":
		return device.TargetDevice, parts[1], true
	case "groups":
		return device.TargetGroup, parts[1], true
	}
	return "", "", false
}

func segment(target device.Target) string {
	if target == device.TargetGroup {
		return "groups"
	}
	return "players"
}
