package dial

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// ErrUnknownEvent is returned for a line the dial firmware should never send.
var ErrUnknownEvent = errors.New("unknown dial event")

// EventKind is what the user did with the dial.
type EventKind int

const (
	// Rotate is an encoder movement; Delta holds signed detents.
	Rotate EventKind = iota
	// Click is a short press of the dial face.
	Click
	// Hold is a long press of the dial face.
	Hold
)

func (k EventKind) String() string {
	switch k {
	case Rotate:
		return "rotate"
	case Click:
		return "click"
	case Hold:
		return "hold"
	default:
		return fmt.Sprintf("EventKind(%d)", int(k))
	}
}

// Event is one line reported by the dial.
type Event struct {
	Kind  EventKind
	Delta int
}

// ParseEvent decodes one line of dial output:
//
//	+3      rotated three detents clockwise
//	-1      rotated one detent counter-clockwise
//	click   short press
//	hold    long press
func ParseEvent(line string) (Event, error) {
	line = strings.TrimSpace(line)
	switch strings.ToLower(line) {
	case "click":
		return Event{Kind: Click}, nil
	case "hold":
		return Event{Kind: Hold}, nil
	case "":
		return Event{}, fmt.Errorf("%w: empty line", ErrUnknownEvent)
	}

	if line[0] != '+' && line[0] != '-' {
		return Event{}, fmt.Errorf("%w: %q", ErrUnknownEvent, line)
	}
	delta, err := strconv.Atoi(line)
	if err != nil || delta == 0 {
		return Event{}, fmt.Errorf("%w: %q", ErrUnknownEvent, line)
	}
	return Event{Kind: Rotate, Delta: delta}, nil
}
