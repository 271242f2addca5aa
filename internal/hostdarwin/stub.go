//go:build !darwin

// Package hostdarwin implements compositor.HostBridge on top of AppKit and
// Metal. On non-Darwin platforms NewBridge always fails; the compositor
// kernel itself is platform-independent and only this package is stubbed.
package hostdarwin

import (
	"errors"

	"github.com/ericcurtin/wayoa/internal/compositor"
)

// ErrUnsupported is returned by NewBridge on any platform without AppKit.
var ErrUnsupported = errors.New("hostdarwin: unsupported platform")

// Bridge is a non-functional placeholder outside Darwin builds.
type Bridge struct{}

func NewBridge() (*Bridge, error) { return nil, ErrUnsupported }

func (b *Bridge) Attach(k *compositor.Kernel) {}
func (b *Bridge) Close()                      {}

func (b *Bridge) CreateWindow(config compositor.WindowConfig) (compositor.WindowHandle, error) {
	return nil, ErrUnsupported
}
func (b *Bridge) DestroyWindow(handle compositor.WindowHandle)                     {}
func (b *Bridge) Configure(handle compositor.WindowHandle, state compositor.WindowState) {}
func (b *Bridge) Present(handle compositor.WindowHandle, width, height int32, pixels []byte, damage []compositor.Rect) {
}
func (b *Bridge) SetCursor(pixels []byte, width, height, hotspotX, hotspotY int32) {}
