package heos

import (
	"fmt"
	"sync"
	"testing"
)

func TestTopologySnapshotsAreIsolated(t *testing.T) {
	topo := NewTopology()
	topo.ReplaceDevices([]Device{{PlayerID: "1", Name: "Kitchen"}})

	snap := topo.Devices()
	snap[0].Name = "Mutated"

	d, ok := topo.Device("1")
	if !ok || d.Name != "Kitchen" {
		t.Errorf("store was mutated through snapshot: %+v", d)
	}
	if _, ok := topo.Device("2"); ok {
		t.Error("unexpected device 2")
	}
}

func TestTopologyReplaceStoresDisconnectedClones(t *testing.T) {
	f, _ := newSpeakerServer(t)
	d := f.device("1")
	defer d.Close()
	if err := d.Connect(testContext(t)); err != nil {
		t.Fatalf("Connect: %v", err)
	}

	topo := NewTopology()
	topo.ReplaceDevices([]Device{*d})
	topo.ReplaceGroups([]Group{{GroupID: "10", Leader: d}})

	stored, _ := topo.Device("1")
	if stored.Connected() {
		t.Error("stored device must not carry a session")
	}
	g, _ := topo.Group("10")
	if g.Leader == d || g.Leader.Connected() {
		t.Error("stored group leader must be a disconnected copy")
	}
}

func TestTopologyUpdate(t *testing.T) {
	topo := NewTopology()
	topo.ReplaceDevices([]Device{{PlayerID: "1"}, {PlayerID: "2"}})
	topo.ReplaceGroups([]Group{{GroupID: "10"}})

	before := topo.Devices()
	if !topo.UpdateDevice("2", func(d *Device) { d.Volume = 44 }) {
		t.Fatal("expected device 2 to be found")
	}
	if topo.UpdateDevice("3", func(d *Device) {}) {
		t.Error("expected device 3 to be missing")
	}
	if before[1].Volume != 0 {
		t.Error("earlier snapshot observed the update")
	}
	if d, _ := topo.Device("2"); d.Volume != 44 {
		t.Errorf("expected 44, got %d", d.Volume)
	}

	if !topo.UpdateGroup("10", func(g *Group) { g.Muted = true }) {
		t.Fatal("expected group 10 to be found")
	}
	if g, _ := topo.Group("10"); !g.Muted {
		t.Error("expected muted group")
	}
}

func TestTopologyRefresh(t *testing.T) {
	f, _ := newSpeakerServer(t)
	host, port := f.hostPort()
	via := f.device("")
	defer via.Close()

	topo := NewTopology()
	topo.ReplaceDevices([]Device{{PlayerID: "1", Volume: 33, State: StatePlay}, {PlayerID: "gone"}})

	if err := topo.Refresh(testContext(t), via); err != nil {
		t.Fatalf("Refresh: %v", err)
	}

	devices := topo.Devices()
	if len(devices) != 2 {
		t.Fatalf("expected 2 devices, got %d", len(devices))
	}
	kitchen, ok := topo.Device("1")
	if !ok || kitchen.Name != "Kitchen" || kitchen.Host != host || kitchen.Port != port {
		t.Errorf("unexpected kitchen %+v", kitchen)
	}
	if kitchen.Volume != 33 || kitchen.State != StatePlay {
		t.Errorf("cached state not carried over: %+v", kitchen)
	}
	if _, ok := topo.Device("gone"); ok {
		t.Error("stale device survived refresh")
	}

	g, ok := topo.Group("10")
	if !ok {
		t.Fatal("expected group 10")
	}
	if g.Leader == nil || g.Leader.PlayerID != "1" || g.Leader.Host != host || g.Leader.Port != port {
		t.Errorf("leader not reconciled: %+v", g.Leader)
	}

	got := f.received()
	if len(got) != 2 || got[0] != "heos://player/get_players" || got[1] != "heos://player/get_groups" {
		t.Errorf("unexpected commands %v", got)
	}
}

func TestTopologyRefreshFailureKeepsState(t *testing.T) {
	f, s := newSpeakerServer(t)
	s.failWith("player/get_groups", "System error")
	via := f.device("")
	defer via.Close()

	topo := NewTopology()
	topo.ReplaceDevices([]Device{{PlayerID: "old"}})

	if err := topo.Refresh(testContext(t), via); err == nil {
		t.Fatal("expected error")
	}
	if _, ok := topo.Device("old"); !ok {
		t.Error("failed refresh must not replace the collection")
	}
}

func TestTopologyConcurrentAccess(t *testing.T) {
	topo := NewTopology()
	var wg sync.WaitGroup

	for i := range 4 {
		wg.Add(2)
		go func() {
			defer wg.Done()
			for j := range 100 {
				topo.ReplaceDevices([]Device{
					{PlayerID: "a", Name: fmt.Sprint(i, j)},
					{PlayerID: "b", Name: fmt.Sprint(i, j)},
				})
			}
		}()
		go func() {
			defer wg.Done()
			for range 100 {
				snap := topo.Devices()
				if len(snap) == 2 && snap[0].Name != snap[1].Name {
					t.Errorf("observed partially replaced collection: %q vs %q", snap[0].Name, snap[1].Name)
					return
				}
			}
		}()
	}
	wg.Wait()
}
