//go:build darwin

// Package hostdarwin implements compositor.HostBridge on top of AppKit and
// Metal, so client toplevels are mirrored as real NSWindows on macOS.
package hostdarwin

import (
	"fmt"
	"sync"
	"time"

	"github.com/ericcurtin/wayoa/internal/compositor"
	"github.com/ericcurtin/wayoa/internal/gputexture"
)

// windowHandle is the WindowHandle this bridge hands back to the kernel.
type windowHandle struct {
	id int
	w  *window
}

// Bridge owns the NSApplication run loop, every open NSWindow, and the GPU
// texture uploader each window presents through.
type Bridge struct {
	app *application

	mu       sync.Mutex
	nextID   int
	windows  map[int]*window
	uploader map[int]*gputexture.Uploader

	kernel *compositor.Kernel
	done   chan struct{}
}

// NewBridge initializes AppKit and returns a ready-to-attach HostBridge.
func NewBridge() (*Bridge, error) {
	app, err := newApplication()
	if err != nil {
		return nil, fmt.Errorf("hostdarwin: %w", err)
	}
	return &Bridge{
		app:      app,
		windows:  make(map[int]*window),
		uploader: make(map[int]*gputexture.Uploader),
		done:     make(chan struct{}),
	}, nil
}

// Attach starts the event-pump goroutine that feeds host input and window
// events into k's single dispatcher loop via EnqueueHostEvent.
func (b *Bridge) Attach(k *compositor.Kernel) {
	b.kernel = k
	go b.pumpLoop()
}

func (b *Bridge) pumpLoop() {
	ticker := time.NewTicker(16 * time.Millisecond)
	defer ticker.Stop()
	for {
		select {
		case <-b.done:
			return
		case <-ticker.C:
			b.app.pollEvents(b.deliverEvent)
		}
	}
}

func (b *Bridge) deliverEvent(e id) {
	if b.kernel == nil {
		return
	}
	eventType := e.sendIntRet(selectors.eventType)
	now := uint32(time.Now().UnixMilli())

	switch eventType {
	case eventTypeMouseMoved, eventTypeMouseDragged:
		loc := e.sendPoint(selectors.locationInWindow)
		b.kernel.EnqueueHostEvent(func(k *compositor.Kernel) {
			k.DeliverPointerMotion(b.focusedSurface(), int32(loc.x), int32(loc.y), now)
		})
	case eventTypeLeftMouseDown, eventTypeRightMouseDown:
		button := translateButton(e.sendIntRet(selectors.buttonNumber))
		b.kernel.EnqueueHostEvent(func(k *compositor.Kernel) {
			k.DeliverPointerButton(button, true, now)
		})
	case eventTypeLeftMouseUp, eventTypeRightMouseUp:
		button := translateButton(e.sendIntRet(selectors.buttonNumber))
		b.kernel.EnqueueHostEvent(func(k *compositor.Kernel) {
			k.DeliverPointerButton(button, false, now)
		})
	case eventTypeKeyDown, eventTypeKeyUp:
		code := translateKeycode(e.sendIntRet(selectors.keyCode))
		mods := translateModifiers(e.sendIntRet(selectors.modifierFlags))
		pressed := eventType == eventTypeKeyDown
		b.kernel.EnqueueHostEvent(func(k *compositor.Kernel) {
			k.DeliverKey(code, pressed, mods, now)
		})
	case eventTypeFlagsChanged:
		mods := translateModifiers(e.sendIntRet(selectors.modifierFlags))
		b.kernel.EnqueueHostEvent(func(k *compositor.Kernel) {
			k.Seat.SetModifiers(mods)
		})
	}
}

// focusedSurface always returns the zero EntityID: the bridge does no
// hit-testing and does not record which window is activated (Configure
// ignores the Activated field), so pointer motion is delivered with no
// focus surface and keyboard focus is never set from the host.
func (b *Bridge) focusedSurface() compositor.EntityID {
	return 0
}

// CreateWindow implements compositor.HostBridge.
func (b *Bridge) CreateWindow(config compositor.WindowConfig) (compositor.WindowHandle, error) {
	w, err := newWindow(config.Title, int(config.Width), int(config.Height), config.Resizable)
	if err != nil {
		return nil, err
	}
	uploader, err := gputexture.New()
	if err != nil {
		return nil, fmt.Errorf("hostdarwin: gpu uploader: %w", err)
	}

	b.mu.Lock()
	b.nextID++
	id := b.nextID
	b.windows[id] = w
	b.uploader[id] = uploader
	b.mu.Unlock()

	w.show()
	return windowHandle{id: id, w: w}, nil
}

// DestroyWindow implements compositor.HostBridge.
func (b *Bridge) DestroyWindow(handle compositor.WindowHandle) {
	h, ok := handle.(windowHandle)
	if !ok {
		return
	}
	b.mu.Lock()
	delete(b.windows, h.id)
	uploader := b.uploader[h.id]
	delete(b.uploader, h.id)
	b.mu.Unlock()
	if uploader != nil {
		uploader.Close()
	}
	h.w.close()
}

// Configure implements compositor.HostBridge.
func (b *Bridge) Configure(handle compositor.WindowHandle, state compositor.WindowState) {
	h, ok := handle.(windowHandle)
	if !ok {
		return
	}
	h.w.resize(int(state.Width), int(state.Height))
}

// Present implements compositor.HostBridge.
func (b *Bridge) Present(handle compositor.WindowHandle, width, height int32, pixels []byte, damage []compositor.Rect) {
	h, ok := handle.(windowHandle)
	if !ok {
		return
	}
	b.mu.Lock()
	uploader := b.uploader[h.id]
	b.mu.Unlock()
	if uploader == nil {
		return
	}
	_ = uploader.Upload(int(width), int(height), pixels)
}

// SetCursor implements compositor.HostBridge. A full implementation would
// set NSCursor; cursor shaping is not yet wired to an Objective-C call.
func (b *Bridge) SetCursor(pixels []byte, width, height, hotspotX, hotspotY int32) {}

// Close tears down the event pump. Open windows and their uploaders are
// left to the kernel's own disconnect path, which calls DestroyWindow for
// each still-open toplevel before Close runs.
func (b *Bridge) Close() {
	close(b.done)
}
