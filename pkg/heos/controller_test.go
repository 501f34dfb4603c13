package heos

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/urmzd/heosdial/pkg/device"
)

func startController(t *testing.T) (*Controller, *fakeHEOS, *speaker) {
	t.Helper()

	f, s := newSpeakerServer(t)
	host, port := f.hostPort()

	c := NewController(Config{Host: host, Port: port}, nil)
	events := c.Subscribe()
	t.Cleanup(c.Close)

	if err := c.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	waitForEvent(t, events, device.EventTopologyUpdated)
	c.Unsubscribe(events)

	return c, f, s
}

func waitForEvent(t *testing.T, events chan device.Event, typ string) device.Event {
	t.Helper()
	timeout := time.After(5 * time.Second)
	for {
		select {
		case evt := <-events:
			if evt.Type == typ {
				return evt
			}
		case <-timeout:
			t.Fatalf("timed out waiting for %s", typ)
		}
	}
}

func TestControllerStaticHost(t *testing.T) {
	c, _, _ := startController(t)
	ctx := testContext(t)

	if !c.IsConnected() {
		t.Error("expected connected controller")
	}

	devices, err := c.ListDevices(ctx)
	if err != nil || len(devices) != 2 {
		t.Fatalf("expected 2 devices, got %d (%v)", len(devices), err)
	}
	d, err := c.GetDevice(ctx, "2")
	if err != nil {
		t.Fatalf("GetDevice: %v", err)
	}
	if d.Name != "Den" || d.Protocol != device.ProtocolHEOS || d.Type != device.DeviceTypePlayer || len(d.StateSchema) == 0 {
		t.Errorf("unexpected device %+v", d)
	}
	if _, err := c.GetDevice(ctx, "404"); !errors.Is(err, device.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}

	g, err := c.GetGroup(ctx, "10")
	if err != nil {
		t.Fatalf("GetGroup: %v", err)
	}
	if g.LeaderID != "1" || len(g.MemberIDs) != 2 {
		t.Errorf("unexpected group %+v", g)
	}
}

func TestControllerDeviceState(t *testing.T) {
	c, _, s := startController(t)
	ctx := testContext(t)

	state, err := c.SetDeviceState(ctx, "1", map[string]any{"volume_step": float64(-5), "play_state": "play"})
	if err != nil {
		t.Fatalf("SetDeviceState: %v", err)
	}
	if state["volume"] != 15 || state["play_state"] != "play" {
		t.Errorf("unexpected state %v", state)
	}
	if s.level() != 15 {
		t.Errorf("expected device level 15, got %d", s.level())
	}

	stored, _ := c.Topology().Device("1")
	if stored.Volume != 15 {
		t.Errorf("topology not updated: %+v", stored)
	}

	state, err = c.GetDeviceState(ctx, "1")
	if err != nil {
		t.Fatalf("GetDeviceState: %v", err)
	}
	if _, ok := state["now_playing"].(Media); !ok {
		t.Errorf("expected now_playing media in %v", state)
	}
}

func TestControllerStateErrors(t *testing.T) {
	c, _, s := startController(t)
	ctx := testContext(t)

	if _, err := c.SetDeviceState(ctx, "1", map[string]any{"volume": "loud"}); !errors.Is(err, device.ErrValidation) {
		t.Errorf("expected ErrValidation, got %v", err)
	}
	if _, err := c.SetDeviceState(ctx, "404", map[string]any{"volume": float64(1)}); !errors.Is(err, device.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}

	s.failWith("player/set_mute", "Invalid state")
	if _, err := c.SetDeviceState(ctx, "1", map[string]any{"mute": "on"}); !errors.Is(err, device.ErrRejected) {
		t.Errorf("expected ErrRejected, got %v", err)
	}
}

func TestControllerGroupState(t *testing.T) {
	c, f, _ := startController(t)
	ctx := testContext(t)

	state, err := c.SetGroupState(ctx, "10", map[string]any{"volume": float64(40), "mute": "toggle"})
	if err != nil {
		t.Fatalf("SetGroupState: %v", err)
	}
	if state["volume"] != 40 || state["mute"] != "on" || state["leader_id"] != "1" {
		t.Errorf("unexpected state %v", state)
	}

	got := f.received()
	last := got[len(got)-1]
	if last != "heos://group/set_volume?level=40&gid=10" {
		t.Errorf("unexpected last command %q", last)
	}

	if _, err := c.GetGroupState(ctx, "10"); err != nil {
		t.Errorf("GetGroupState: %v", err)
	}
}

func TestControllerToggleMuteFromMuted(t *testing.T) {
	c, _, s := startController(t)
	s.setMuted(true)

	state, err := c.SetDeviceState(testContext(t), "1", map[string]any{"mute": "toggle"})
	if err != nil {
		t.Fatalf("SetDeviceState: %v", err)
	}
	if state["mute"] != "off" || s.isMuted() {
		t.Errorf("expected mute off, got %v (remote muted %v)", state["mute"], s.isMuted())
	}
}

func TestControllerVolumeAboveHundred(t *testing.T) {
	c, _, s := startController(t)

	state, err := c.SetDeviceState(testContext(t), "1", map[string]any{"volume": float64(150)})
	if err != nil {
		t.Fatalf("SetDeviceState: %v", err)
	}
	if state["volume"] != 150 || s.level() != 150 {
		t.Errorf("expected 150 passed through, got %v (remote %d)", state["volume"], s.level())
	}
}

func TestControllerDispatch(t *testing.T) {
	c, _, s := startController(t)
	events := c.Subscribe()
	defer c.Unsubscribe(events)

	jobID := c.Dispatch(device.TargetDevice, "1", map[string]any{"volume": 9})
	if jobID == "" {
		t.Fatal("expected job id")
	}

	evt := waitForEvent(t, events, device.EventDeviceUpdated)
	if evt.JobID != jobID || evt.Device == nil || evt.Device.ID != "1" {
		t.Errorf("unexpected event %+v", evt)
	}
	if s.level() != 9 {
		t.Errorf("expected level 9, got %d", s.level())
	}

	failed := c.Dispatch(device.TargetGroup, "404", map[string]any{"volume": 1})
	evt = waitForEvent(t, events, device.EventJobFailed)
	if evt.JobID != failed || evt.Error == "" {
		t.Errorf("unexpected failure event %+v", evt)
	}
}

func TestControllerRefreshWithoutPrimary(t *testing.T) {
	c := NewController(Config{}, nil)
	defer c.Close()

	if err := c.Refresh(testContext(t)); !errors.Is(err, device.ErrNotConnected) {
		t.Errorf("expected ErrNotConnected, got %v", err)
	}
	if c.IsConnected() {
		t.Error("controller should not report connected")
	}
}

func TestBootstrapSkipsUnreachable(t *testing.T) {
	f, _ := newSpeakerServer(t)
	_, port := f.hostPort()

	locations := make(chan string, 3)
	locations <- "not a url\x7f"
	locations <- "http://127.0.0.1:60006/desc.xml"
	close(locations)

	d, err := Bootstrap(testContext(t), locations, port)
	if err != nil {
		t.Fatalf("Bootstrap: %v", err)
	}
	defer d.Close()
	if !d.Connected() || d.Host != "127.0.0.1" {
		t.Errorf("unexpected device %+v", d)
	}

	empty := make(chan string)
	close(empty)
	if _, err := Bootstrap(testContext(t), empty, port); !errors.Is(err, ErrNoDevice) {
		t.Errorf("expected ErrNoDevice, got %v", err)
	}
}
