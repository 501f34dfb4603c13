package heos

import (
	"strings"
)

// Wire format constants
const (
	CommandPrefix     = "heos://"
	CommandTerminator = "\r\n"
)

// Command groups
const (
	GroupPlayer = "player"
	GroupGroup  = "group"
	GroupSystem = "system"
)

// Attr is a single key/value pair of a command's query suffix.
type Attr struct {
	Key   string
	Value string
}

// Command accumulates a command group, a command name and ordered attributes.
//
//	cmd := heos.NewCommand().Group("player").Name("set_play_state").Attr("state", "play")
//	cmd.String() // "heos://player/set_play_state?state=play\r\n"
type Command struct {
	group string
	name  string
	attrs []Attr
}

// NewCommand creates an empty command.
func NewCommand() *Command {
	return &Command{}
}

// Group sets the command group (player, group, system, ...).
func (c *Command) Group(group string) *Command {
	c.group = group
	return c
}

// Name sets the command name within its group.
func (c *Command) Name(name string) *Command {
	c.name = name
	return c
}

// Attr appends a key/value pair. Keys are not deduplicated.
func (c *Command) Attr(key, value string) *Command {
	c.attrs = append(c.attrs, Attr{Key: key, Value: value})
	return c
}

// Attrs appends several pairs in order.
func (c *Command) Attrs(attrs ...Attr) *Command {
	c.attrs = append(c.attrs, attrs...)
	return c
}

// Path returns "group/name", the value devices echo back in heos.command.
func (c *Command) Path() string {
	return c.group + "/" + c.name
}

// Clone returns a copy whose attribute list can be extended independently.
func (c *Command) Clone() *Command {
	attrs := make([]Attr, len(c.attrs))
	copy(attrs, c.attrs)
	return &Command{group: c.group, name: c.name, attrs: attrs}
}

// Encode renders the command into its wire form.
func (c *Command) Encode() ([]byte, error) {
	if c.group == "" || c.name == "" {
		return nil, ErrIncompleteCommand
	}
	return []byte(c.render()), nil
}

// String renders the command. It panics if group or name was never set.
func (c *Command) String() string {
	if c.group == "" || c.name == "" {
		panic("heos: " + ErrIncompleteCommand.Error())
	}
	return c.render()
}

func (c *Command) render() string {
	var b strings.Builder
	b.WriteString(CommandPrefix)
	b.WriteString(c.group)
	b.WriteByte('/')
	b.WriteString(c.name)
	for i, a := range c.attrs {
		if i == 0 {
			b.WriteByte('?')
		} else {
			b.WriteByte('&')
		}
		b.WriteString(a.Key)
		b.WriteByte('=')
		b.WriteString(a.Value)
	}
	b.WriteString(CommandTerminator)
	return b.String()
}
