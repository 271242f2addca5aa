package compositor

import "sync"

// WindowConfig describes the host window a toplevel needs, mirroring the
// fields a native window actually takes at creation time (title, size,
// resizability) rather than the full xdg_toplevel protocol surface.
type WindowConfig struct {
	Title     string
	Width     int32
	Height    int32
	Resizable bool
}

// WindowState is the host-visible subset of a toplevel's configured state:
// what the kernel asks the host to show, distinct from the protocol-level
// xdg_toplevel state machine that produces it.
type WindowState struct {
	X, Y          int32
	Width, Height int32
	Maximized     bool
	Fullscreen    bool
	Activated     bool
	Minimized     bool
}

// HostBridge is the kernel's one external collaborator: it owns native
// window creation/control and GPU texture upload/present. The kernel never
// touches host APIs directly, so a headless mock can stand in for it in
// tests.
type HostBridge interface {
	// CreateWindow creates a host window for a toplevel surface and returns
	// a handle the kernel uses for all further control of it.
	CreateWindow(config WindowConfig) (WindowHandle, error)

	// DestroyWindow releases a host window.
	DestroyWindow(handle WindowHandle)

	// Configure applies position/size/state changes to an existing window.
	Configure(handle WindowHandle, state WindowState)

	// Present uploads pixel data from a committed buffer's bytes (already
	// resolved to a tightly packed width*height*4 slice by the caller, with
	// any stride padding removed) into the window's surface and requests a
	// host repaint of the given damage rectangles.
	Present(handle WindowHandle, width, height int32, pixels []byte, damage []Rect)

	// SetCursor shows the given cursor image at the host pointer location,
	// or the platform default cursor if pixels is nil.
	SetCursor(pixels []byte, width, height int32, hotspotX, hotspotY int32)
}

// WindowHandle opaquely identifies a host window; HostBridge implementations
// define their own concrete type and hand it back on every call so the
// kernel never has to know what a native window actually is.
type WindowHandle any

// Window is the kernel entity binding an xdg_toplevel to its backing
// surface and host window.
type Window struct {
	id      EntityID
	surface EntityID
	handle  WindowHandle

	mu     sync.Mutex
	state  WindowState
	output EntityID // output this window is currently assigned to
}

// WindowStore tracks every window the kernel has asked the HostBridge to
// create.
type WindowStore struct {
	ids    *IDRegistry
	bridge HostBridge

	mu      sync.Mutex
	windows map[EntityID]*Window
}

// NewWindowStore constructs a window tracker bound to a HostBridge.
func NewWindowStore(ids *IDRegistry, bridge HostBridge) *WindowStore {
	return &WindowStore{ids: ids, bridge: bridge, windows: make(map[EntityID]*Window)}
}

// CreateWindow asks the HostBridge for a native window and registers it
// against the owning surface.
func (st *WindowStore) CreateWindow(surface EntityID, config WindowConfig) (*Window, error) {
	handle, err := st.bridge.CreateWindow(config)
	if err != nil {
		return nil, err
	}
	w := &Window{id: st.ids.Next(), surface: surface, handle: handle}

	st.mu.Lock()
	st.windows[w.id] = w
	st.mu.Unlock()
	return w, nil
}

// DestroyWindow releases the host window and removes it from the store.
func (st *WindowStore) DestroyWindow(w *Window) {
	st.mu.Lock()
	delete(st.windows, w.id)
	st.mu.Unlock()
	st.bridge.DestroyWindow(w.handle)
}

// Configure pushes new position/size/state to the host window and records
// it as the window's last-known state.
func (st *WindowStore) Configure(w *Window, state WindowState) {
	w.mu.Lock()
	w.state = state
	w.mu.Unlock()
	st.bridge.Configure(w.handle, state)
}

// Present forwards committed pixel data and damage to the host for upload
// and repaint.
func (st *WindowStore) Present(w *Window, width, height int32, pixels []byte, damage []Rect) {
	st.bridge.Present(w.handle, width, height, pixels, damage)
}

// State returns the window's last-configured state.
func (w *Window) State() WindowState {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.state
}

// Surface returns the backing surface's identity.
func (w *Window) Surface() EntityID { return w.surface }

// ID returns the window's kernel identity.
func (w *Window) ID() EntityID { return w.id }

// SetOutput records which output this window currently occupies.
func (w *Window) SetOutput(o EntityID) {
	w.mu.Lock()
	w.output = o
	w.mu.Unlock()
}

func (w *Window) Output() EntityID {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.output
}

// Lookup finds a window by identity.
func (st *WindowStore) Lookup(id EntityID) (*Window, bool) {
	st.mu.Lock()
	defer st.mu.Unlock()
	w, ok := st.windows[id]
	return w, ok
}

// ByOutput returns every window currently assigned to the given output.
func (st *WindowStore) ByOutput(output EntityID) []*Window {
	st.mu.Lock()
	defer st.mu.Unlock()
	var out []*Window
	for _, w := range st.windows {
		if w.Output() == output {
			out = append(out, w)
		}
	}
	return out
}
