package compositor

import "testing"

// TestToplevelUpSequence covers S2 end to end at the store level: create a
// surface, assign the toplevel role, configure/ack, attach a buffer and
// commit, then ask the window store to create and present the host window.
func TestToplevelUpSequence(t *testing.T) {
	bridge := NewMockHostBridge()
	ids := NewIDRegistry()
	var released []*ShmBuffer
	surfaces := NewSurfaceStore(ids, func(b *ShmBuffer) { released = append(released, b) })
	shells := NewShellStore(ids)
	windows := NewWindowStore(ids, bridge)
	pools := NewShmPools(ids)

	s := surfaces.CreateSurface()
	if err := s.AssignRole(RoleToplevel); err != nil {
		t.Fatalf("AssignRole: %v", err)
	}
	shell := shells.CreateShellSurface(s.ID())
	shell.SetTitle("T")

	// First commit carries no buffer and must be allowed even though the
	// surface has not been configured yet (initial commit before the first
	// configure round-trip).
	if _, err := surfaces.Commit(s, shell); err != nil {
		t.Fatalf("initial no-buffer commit: %v", err)
	}

	serial := uint32(1)
	shell.Configure(serial)
	if err := shell.AckConfigure(serial); err != nil {
		t.Fatalf("AckConfigure: %v", err)
	}

	pool, err := pools.CreatePool(999999, 640*480*4)
	if err != nil {
		t.Fatalf("CreatePool: %v", err)
	}
	buf, err := pools.CreateBuffer(pool, 0, 640, 480, 640*4, ShmFormatARGB8888)
	if err != nil {
		t.Fatalf("CreateBuffer: %v", err)
	}

	s.Attach(buf)
	s.Damage(Rect{X: 0, Y: 0, W: 640, H: 480})
	if _, err := surfaces.Commit(s, shell); err != nil {
		t.Fatalf("buffer commit: %v", err)
	}

	win, err := windows.CreateWindow(s.ID(), WindowConfig{Title: shell.Title(), Width: 640, Height: 480})
	if err != nil {
		t.Fatalf("CreateWindow: %v", err)
	}
	pixels := make([]byte, 640*480*4)
	windows.Present(win, 640, 480, pixels, s.current.damage.Rects())

	if len(bridge.Created) != 1 || bridge.Created[0].Title != "T" {
		t.Fatalf("host bridge window creation = %v", bridge.Created)
	}
	if len(bridge.Presented) != 1 || bridge.Presented[0].Width != 640 || bridge.Presented[0].Height != 480 {
		t.Fatalf("host bridge present = %v", bridge.Presented)
	}
	if len(released) != 0 {
		t.Fatalf("no buffer should have been released yet, got %d", len(released))
	}
}

// TestResizeRoundTrip covers S3: a host resize leads to a new configure,
// the client acks and reattaches, and the old buffer is released exactly
// once.
func TestResizeRoundTrip(t *testing.T) {
	bridge := NewMockHostBridge()
	ids := NewIDRegistry()
	var released []*ShmBuffer
	surfaces := NewSurfaceStore(ids, func(b *ShmBuffer) { released = append(released, b) })
	shell := NewShellSurface(ids, 1)
	windows := NewWindowStore(ids, bridge)
	pools := NewShmPools(ids)

	s := surfaces.CreateSurface()
	_ = s.AssignRole(RoleToplevel)
	shell.Configure(1)
	_ = shell.AckConfigure(1)

	pool, _ := pools.CreatePool(999999, 640*480*4+800*600*4)
	bufOld, _ := pools.CreateBuffer(pool, 0, 640, 480, 640*4, ShmFormatARGB8888)
	s.Attach(bufOld)
	_, _ = surfaces.Commit(s, shell)

	win, err := windows.CreateWindow(s.ID(), WindowConfig{Width: 640, Height: 480, Resizable: true})
	if err != nil {
		t.Fatalf("CreateWindow: %v", err)
	}

	// Host resizes to 800x600: kernel issues a new configure with the
	// activated state.
	shell.SetToplevelState(ToplevelStateActivated)
	shell.Configure(2)
	windows.Configure(win, WindowState{Width: 800, Height: 600, Activated: true})

	if err := shell.AckConfigure(2); err != nil {
		t.Fatalf("AckConfigure(2): %v", err)
	}

	bufNew, _ := pools.CreateBuffer(pool, 640*480*4, 800, 600, 800*4, ShmFormatARGB8888)
	s.Attach(bufNew)
	_, err = surfaces.Commit(s, shell)
	if err != nil {
		t.Fatalf("commit after resize: %v", err)
	}

	if len(released) != 1 || released[0] != bufOld {
		t.Fatalf("want exactly one release of the old buffer, got %v", released)
	}

	state, ok := bridge.WindowState(win.handle)
	if !ok || state.Width != 800 || state.Height != 600 || !state.Activated {
		t.Fatalf("host window state after resize = %+v (ok=%v)", state, ok)
	}
}

// TestCloseTearsDownWindow covers S6: destroying the window releases the
// host handle exactly once.
func TestCloseTearsDownWindow(t *testing.T) {
	bridge := NewMockHostBridge()
	ids := NewIDRegistry()
	windows := NewWindowStore(ids, bridge)

	win, err := windows.CreateWindow(1, WindowConfig{Title: "T", Width: 320, Height: 240})
	if err != nil {
		t.Fatalf("CreateWindow: %v", err)
	}

	windows.DestroyWindow(win)
	if len(bridge.Destroyed) != 1 {
		t.Fatalf("want exactly one DestroyWindow call, got %d", len(bridge.Destroyed))
	}
	if _, ok := windows.Lookup(win.ID()); ok {
		t.Fatal("window must be removed from the store after DestroyWindow")
	}
}
