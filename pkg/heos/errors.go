package heos

import (
	"errors"
	"fmt"
)

var (
	// ErrIncompleteCommand indicates a command was encoded without a group or name
	ErrIncompleteCommand = errors.New("command group and name are required")

	// ErrMalformedReply indicates a reply that is not a usable JSON object
	ErrMalformedReply = errors.New("malformed reply")

	// ErrMissingField indicates a reply lacks a field its command family requires
	ErrMissingField = errors.New("missing required field")

	// ErrUnknownCommand indicates a reply for a command family the decoder does not know
	ErrUnknownCommand = errors.New("unknown command")

	// ErrUnexpectedReply indicates a successfully decoded reply of the wrong variant
	ErrUnexpectedReply = errors.New("unexpected reply")

	// ErrNotConnected indicates a session is closed or was never opened
	ErrNotConnected = errors.New("session not connected")

	// ErrConnectionClosed indicates the peer closed the connection before replying
	ErrConnectionClosed = errors.New("connection closed by peer")

	// ErrNoLeader indicates a group command was issued to a group without a leader
	ErrNoLeader = errors.New("group has no leader")

	// ErrDiscoveryStarted indicates Discover was called twice on one discoverer
	ErrDiscoveryStarted = errors.New("discovery already started")

	// ErrNoDevice indicates discovery ended before any device could be reached
	ErrNoDevice = errors.New("no reachable device")
)

// DecodeError wraps a decode failure with the command it was decoding.
type DecodeError struct {
	Command string
	Err     error
}

func (e *DecodeError) Error() string {
	if e.Command == "" {
		return fmt.Sprintf("decode reply: %v", e.Err)
	}
	return fmt.Sprintf("decode %s reply: %v", e.Command, e.Err)
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}

// CommandError is a protocol-level failure reported by the device (result "fail").
type CommandError struct {
	Command string
	ID      string
	Text    string
	Attrs   Attrs
}

func (e *CommandError) Error() string {
	text := e.Text
	if text == "" {
		text = "command failed"
	}
	if e.ID != "" {
		return fmt.Sprintf("%s: %s (eid %s)", e.Command, text, e.ID)
	}
	return fmt.Sprintf("%s: %s", e.Command, text)
}
