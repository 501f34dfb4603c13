package dial

import (
	"errors"
	"testing"
)

func TestParseEvent(t *testing.T) {
	tests := []struct {
		line    string
		want    Event
		wantErr bool
	}{
		{line: "+1", want: Event{Kind: Rotate, Delta: 1}},
		{line: "-4\r", want: Event{Kind: Rotate, Delta: -4}},
		{line: "click", want: Event{Kind: Click}},
		{line: " HOLD ", want: Event{Kind: Hold}},
		{line: "", wantErr: true},
		{line: "+0", wantErr: true},
		{line: "3", wantErr: true},
		{line: "+x", wantErr: true},
		{line: "I (312) boot: ESP-IDF", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.line, func(t *testing.T) {
			got, err := ParseEvent(tt.line)
			if tt.wantErr {
				if !errors.Is(err, ErrUnknownEvent) {
					t.Errorf("ParseEvent(%q) error = %v, want ErrUnknownEvent", tt.line, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseEvent(%q) error = %v", tt.line, err)
			}
			if got != tt.want {
				t.Errorf("ParseEvent(%q) = %+v, want %+v", tt.line, got, tt.want)
			}
		})
	}
}

func TestEventKindString(t *testing.T) {
	if Rotate.String() != "rotate" || Click.String() != "click" || Hold.String() != "hold" {
		t.Error("unexpected EventKind names")
	}
	if EventKind(9).String() != "EventKind(9)" {
		t.Errorf("unexpected name for unknown kind: %s", EventKind(9))
	}
}
