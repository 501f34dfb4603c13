package heos

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"
)

func testContext(t *testing.T) context.Context {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	t.Cleanup(cancel)
	return ctx
}

func TestDeviceSendCommandAppendsPIDLast(t *testing.T) {
	f, _ := newSpeakerServer(t)
	d := f.device("7")
	defer d.Close()

	cmd := NewCommand().Group(GroupPlayer).Name("set_volume").Attr("level", "5")
	if _, err := d.SendCommand(testContext(t), cmd); err != nil {
		t.Fatalf("SendCommand: %v", err)
	}

	got := f.received()
	if len(got) != 1 || got[0] != "heos://player/set_volume?level=5&pid=7" {
		t.Errorf("unexpected wire commands %v", got)
	}
	if cmd.String() != "heos://player/set_volume?level=5\r\n" {
		t.Errorf("caller's command was mutated: %q", cmd.String())
	}
}

func TestDeviceUpdateInfo(t *testing.T) {
	f, _ := newSpeakerServer(t)
	d := f.device("1")
	defer d.Close()

	if err := d.UpdateInfo(testContext(t)); err != nil {
		t.Fatalf("UpdateInfo: %v", err)
	}
	if d.Name != "Kitchen" || d.PlayerID != "1" || d.Model != "HEOS 1" {
		t.Errorf("unexpected device %+v", d)
	}
}

func TestDeviceUpdateInfoError(t *testing.T) {
	f, s := newSpeakerServer(t)
	s.failWith("player/get_player_info", "ID Not Valid")
	d := f.device("99")
	defer d.Close()

	err := d.UpdateInfo(testContext(t))
	var cmdErr *CommandError
	if !errors.As(err, &cmdErr) {
		t.Fatalf("expected *CommandError, got %v", err)
	}
	if cmdErr.Text != "ID Not Valid" {
		t.Errorf("unexpected error text %q", cmdErr.Text)
	}
	if d.Name != "" {
		t.Errorf("failed update must not change name, got %q", d.Name)
	}
}

func TestDeviceVolume(t *testing.T) {
	f, s := newSpeakerServer(t)
	d := f.device("1")
	defer d.Close()
	ctx := testContext(t)

	if err := d.UpdateVolume(ctx); err != nil {
		t.Fatalf("UpdateVolume: %v", err)
	}
	if d.Volume != 20 {
		t.Errorf("expected 20, got %d", d.Volume)
	}

	if err := d.IncreaseVolume(ctx, 5); err != nil {
		t.Fatalf("IncreaseVolume: %v", err)
	}
	if d.Volume != 25 || s.level() != 25 {
		t.Errorf("expected 25, got local %d remote %d", d.Volume, s.level())
	}

	if err := d.DecreaseVolume(ctx, 40); err != nil {
		t.Fatalf("DecreaseVolume: %v", err)
	}
	if d.Volume != 0 || s.level() != 0 {
		t.Errorf("expected floor at 0, got local %d remote %d", d.Volume, s.level())
	}

	if err := d.SetVolume(ctx, 150); err != nil {
		t.Fatalf("SetVolume: %v", err)
	}
	if d.Volume != 150 {
		t.Errorf("expected no local ceiling, got %d", d.Volume)
	}

	if f.connections() != 1 {
		t.Errorf("expected one reused session, got %d connections", f.connections())
	}
}

func TestDeviceVolumeUnchangedOnFailure(t *testing.T) {
	f, s := newSpeakerServer(t)
	s.failWith("player/set_volume", "Out of range")
	d := f.device("1")
	defer d.Close()
	d.Volume = 30

	if err := d.IncreaseVolume(testContext(t), 10); err == nil {
		t.Fatal("expected error")
	}
	if d.Volume != 30 {
		t.Errorf("volume changed optimistically to %d", d.Volume)
	}
}

func TestDevicePlayback(t *testing.T) {
	f, _ := newSpeakerServer(t)
	d := f.device("1")
	defer d.Close()
	ctx := testContext(t)

	if err := d.SetPlayState(ctx, StatePlay); err != nil {
		t.Fatalf("SetPlayState: %v", err)
	}
	state, err := d.PlayState(ctx)
	if err != nil || state != StatePlay {
		t.Errorf("expected play, got %q (%v)", state, err)
	}
	if err := d.SetPlayState(ctx, PlayState("rewind")); err == nil {
		t.Error("expected invalid state error")
	}
	if err := d.PlayNext(ctx); err != nil {
		t.Errorf("PlayNext: %v", err)
	}
	if err := d.PlayPrevious(ctx); err != nil {
		t.Errorf("PlayPrevious: %v", err)
	}

	media, err := d.NowPlaying(ctx)
	if err != nil {
		t.Fatalf("NowPlaying: %v", err)
	}
	if media.Artist != "Miles Davis" || media.SourceType != SourceSong || media.SourceID != "1024" {
		t.Errorf("unexpected media %+v", media)
	}
}

func TestDeviceMute(t *testing.T) {
	f, _ := newSpeakerServer(t)
	d := f.device("1")
	defer d.Close()
	ctx := testContext(t)

	if err := d.SetMute(ctx, true); err != nil {
		t.Fatalf("SetMute: %v", err)
	}
	if err := d.ToggleMute(ctx); err != nil {
		t.Fatalf("ToggleMute: %v", err)
	}
	muted, err := d.Mute(ctx)
	if err != nil || muted {
		t.Errorf("expected unmuted, got %v (%v)", muted, err)
	}
}

func TestDeviceToggleMuteStartsFromDeviceState(t *testing.T) {
	f, s := newSpeakerServer(t)
	s.setMuted(true)
	d := f.device("1")
	defer d.Close()

	if err := d.ToggleMute(testContext(t)); err != nil {
		t.Fatalf("ToggleMute: %v", err)
	}
	if d.Muted || s.isMuted() {
		t.Errorf("expected unmuted, got local %v remote %v", d.Muted, s.isMuted())
	}
}

func TestDeviceCloneIsDisconnected(t *testing.T) {
	f, _ := newSpeakerServer(t)
	d := f.device("1")
	defer d.Close()

	if err := d.Connect(testContext(t)); err != nil {
		t.Fatalf("Connect: %v", err)
	}
	c := d.Clone()
	if c.Connected() {
		t.Error("clone must not share the session")
	}
	if !d.Connected() {
		t.Error("original must stay connected")
	}
	if !c.Equal(d) {
		t.Error("clone should equal original by player id")
	}

	other := *NewDevice(d.Host, "2")
	if other.Equal(d) {
		t.Error("different player ids must not be equal")
	}
	renamed := d.Clone()
	renamed.Name = "Elsewhere"
	if !renamed.Equal(d) {
		t.Error("equality is by player id only")
	}
}

func TestDeviceReconnectsAfterClose(t *testing.T) {
	f, _ := newSpeakerServer(t)
	d := f.device("1")
	defer d.Close()
	ctx := testContext(t)

	if err := d.UpdateVolume(ctx); err != nil {
		t.Fatalf("UpdateVolume: %v", err)
	}
	_ = d.Close()
	if err := d.UpdateVolume(ctx); err != nil {
		t.Fatalf("UpdateVolume after close: %v", err)
	}
	if f.connections() != 2 {
		t.Errorf("expected 2 connections, got %d", f.connections())
	}
}

func TestDeviceUnknownCommandReply(t *testing.T) {
	f := newFakeHEOS(t, func(cmd string) []string {
		return []string{frame("browse/get_music_sources", "success", "", "[]")}
	})
	d := f.device("1")
	defer d.Close()

	_, err := d.SendCommand(testContext(t), NewCommand().Group("browse").Name("get_music_sources"))
	if !errors.Is(err, ErrUnknownCommand) {
		t.Errorf("expected ErrUnknownCommand, got %v", err)
	}
}

func TestExpectWrongVariant(t *testing.T) {
	reply, err := Decode([]byte(frame("player/get_mute", "success", "pid=1&state=on", "")))
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if _, err := expect[*VolumeReply](reply, nil); !errors.Is(err, ErrUnexpectedReply) {
		t.Errorf("expected ErrUnexpectedReply, got %v", err)
	}
	if !strings.Contains(NewDevice("10.0.0.1", "").String(), "10.0.0.1") {
		t.Error("String should fall back to host")
	}
}
