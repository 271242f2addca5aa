package compositor

import (
	"errors"
	"testing"
)

// TestRegistryAdvertisesMandatoryGlobals covers S1: a freshly built kernel
// must advertise wl_compositor, wl_shm, and xdg_wm_base (among others).
func TestRegistryAdvertisesMandatoryGlobals(t *testing.T) {
	k := NewKernel(NewMockHostBridge())
	globals := k.Registry.Snapshot()

	want := map[string]bool{
		InterfaceWlCompositor: false,
		InterfaceWlShm:        false,
		InterfaceXdgWmBase:    false,
	}
	for _, g := range globals {
		if _, ok := want[g.Interface]; ok {
			want[g.Interface] = true
		}
	}
	for iface, seen := range want {
		if !seen {
			t.Errorf("global %s was not advertised", iface)
		}
	}
}

func TestRegistrySnapshotIsOrderedByName(t *testing.T) {
	r := NewRegistry()
	r.Advertise("iface_c", 1, nil)
	r.Advertise("iface_a", 1, nil)
	r.Advertise("iface_b", 1, nil)

	globals := r.Snapshot()
	for i := 1; i < len(globals); i++ {
		if globals[i-1].Name >= globals[i].Name {
			t.Fatalf("snapshot not ordered by name at index %d: %v", i, globals)
		}
	}
}

func TestRegistryBindVersionNegotiation(t *testing.T) {
	r := NewRegistry()
	var boundVersion uint32
	g := r.Advertise("wl_shm", 3, func(c *Client, object ObjectID, clientVersion uint32) error {
		boundVersion = clientVersion
		return nil
	})

	if err := r.Bind(nil, g.Name, 1, 2); err != nil {
		t.Fatalf("Bind requesting a lower version: %v", err)
	}
	if boundVersion != 2 {
		t.Fatalf("bound version = %d, want 2", boundVersion)
	}

	if err := r.Bind(nil, g.Name, 1, 9); !errors.Is(err, ErrVersionTooHigh) {
		t.Fatalf("Bind requesting a higher version than advertised: got %v, want ErrVersionTooHigh", err)
	}
}

func TestRegistryBindUnknownGlobal(t *testing.T) {
	r := NewRegistry()
	if err := r.Bind(nil, 999, 1, 1); !errors.Is(err, ErrUnknownGlobal) {
		t.Fatalf("Bind on unknown name: got %v, want ErrUnknownGlobal", err)
	}
}

func TestRegistryWithdrawRemovesFromSnapshot(t *testing.T) {
	r := NewRegistry()
	g := r.Advertise("wl_output", 1, nil)
	if len(r.Snapshot()) != 1 {
		t.Fatal("expected one global after Advertise")
	}
	r.Withdraw(g)
	if len(r.Snapshot()) != 0 {
		t.Fatal("expected no globals after Withdraw")
	}
}
