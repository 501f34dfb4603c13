package heos

import (
	"errors"
	"strings"
	"testing"
)

func TestCommandEncode(t *testing.T) {
	tests := []struct {
		name string
		cmd  *Command
		want string
	}{
		{
			name: "no attributes",
			cmd:  NewCommand().Group("player").Name("get_players"),
			want: "heos://player/get_players\r\n",
		},
		{
			name: "single attribute",
			cmd:  NewCommand().Group("player").Name("get_volume").Attr("pid", "5"),
			want: "heos://player/get_volume?pid=5\r\n",
		},
		{
			name: "insertion order",
			cmd: NewCommand().Group("player").Name("set_volume").
				Attr("level", "30").Attr("pid", "5"),
			want: "heos://player/set_volume?level=30&pid=5\r\n",
		},
		{
			name: "duplicate keys kept",
			cmd:  NewCommand().Group("group").Name("x").Attrs(Attr{"a", "1"}, Attr{"a", "2"}),
			want: "heos://group/x?a=1&a=2\r\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tt.cmd.Encode()
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if string(got) != tt.want {
				t.Errorf("expected %q, got %q", tt.want, got)
			}
			if tt.cmd.String() != tt.want {
				t.Errorf("String() = %q, expected %q", tt.cmd.String(), tt.want)
			}
		})
	}
}

func TestCommandEncodeFraming(t *testing.T) {
	cmd := NewCommand().Group("player").Name("set_mute").Attr("state", "on").Attr("pid", "1")
	got := cmd.String()

	if !strings.HasPrefix(got, CommandPrefix) {
		t.Errorf("expected prefix %q in %q", CommandPrefix, got)
	}
	if !strings.HasSuffix(got, CommandTerminator) {
		t.Errorf("expected terminator in %q", got)
	}
	if strings.Count(got, "?") != 1 {
		t.Errorf("expected exactly one '?' in %q", got)
	}
	if n := strings.Count(got, "&"); n != 1 {
		t.Errorf("expected 1 '&', got %d", n)
	}
}

func TestCommandIncomplete(t *testing.T) {
	for _, cmd := range []*Command{
		NewCommand(),
		NewCommand().Group("player"),
		NewCommand().Name("get_players"),
	} {
		if _, err := cmd.Encode(); !errors.Is(err, ErrIncompleteCommand) {
			t.Errorf("expected ErrIncompleteCommand, got %v", err)
		}
	}
}

func TestCommandStringPanicsWhenIncomplete(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("expected panic")
		}
	}()
	_ = NewCommand().Group("player").String()
}

func TestCommandClone(t *testing.T) {
	base := NewCommand().Group("player").Name("get_volume")
	withPID := base.Clone().Attr("pid", "1")

	if got := base.String(); got != "heos://player/get_volume\r\n" {
		t.Errorf("clone mutated original: %q", got)
	}
	if got := withPID.String(); got != "heos://player/get_volume?pid=1\r\n" {
		t.Errorf("unexpected clone rendering: %q", got)
	}
	if base.Path() != "player/get_volume" {
		t.Errorf("unexpected path %q", base.Path())
	}
}
