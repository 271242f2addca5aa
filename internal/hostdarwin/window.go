//go:build darwin

package hostdarwin

import (
	"errors"
	"sync"
)

var errWindowCreationFailed = errors.New("hostdarwin: window creation failed")

const (
	styleMaskTitled         = 1 << 0
	styleMaskClosable       = 1 << 1
	styleMaskMiniaturizable = 1 << 2
	styleMaskResizable      = 1 << 3
	backingStoreBuffered    = 2
)

// window wraps one NSWindow and the compositor window it mirrors.
type window struct {
	mu       sync.Mutex
	nsWindow id
	width    int
	height   int
}

func newWindow(title string, width, height int, resizable bool) (*window, error) {
	initSelectors()
	initClasses()

	styleMask := uint64(styleMaskTitled | styleMaskClosable | styleMaskMiniaturizable)
	if resizable {
		styleMask |= styleMaskResizable
	}

	nsWindow := classes.nsWindow.send(selectors.alloc)
	if nsWindow.isNil() {
		return nil, errWindowCreationFailed
	}

	rect := nsRect{x: 0, y: 0, w: float64(width), h: float64(height)}
	nsWindow = nsWindow.sendRectUintUintBool(selectors.initWithContentRectStyleMaskBackingDefer,
		rect, styleMask, backingStoreBuffered, false)
	if nsWindow.isNil() {
		return nil, errWindowCreationFailed
	}

	if title != "" {
		titleStr := newNSString(title)
		nsWindow.sendPtr(selectors.setTitle, titleStr.ptr())
		titleStr.send(selectors.release)
	}

	nsWindow.sendBool(selectors.setAcceptsMouseMovedEvents, true)
	nsWindow.sendBool(selectors.setReleasedWhenClosed, false)
	nsWindow.send(selectors.center)

	return &window{nsWindow: nsWindow, width: width, height: height}, nil
}

func (w *window) show() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.nsWindow.sendPtr(selectors.makeKeyAndOrderFront, 0)
}

func (w *window) hide() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.nsWindow.sendPtr(selectors.orderOut, 0)
}

func (w *window) setTitle(title string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	s := newNSString(title)
	w.nsWindow.sendPtr(selectors.setTitle, s.ptr())
	s.send(selectors.release)
}

func (w *window) resize(width, height int) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.width, w.height = width, height
	rect := nsRect{x: 0, y: 0, w: float64(width), h: float64(height)}
	sendRectBool(w.nsWindow, selectors.setFrame, rect, true)
}

func (w *window) close() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.nsWindow.send(selectors.close)
}
