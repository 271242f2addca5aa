//go:build darwin

package hostdarwin

import "github.com/ericcurtin/wayoa/internal/compositor"

// darwinToEvdev translates a small, common subset of macOS virtual
// keycodes to Linux evdev keycodes, since wl_keyboard.key is specified in
// evdev space regardless of host platform.
var darwinToEvdev = map[uint64]uint32{
	0x00: 30, // kVK_ANSI_A
	0x01: 31, // S
	0x02: 32, // D
	0x03: 33, // F
	0x04: 35, // H
	0x05: 34, // G
	0x06: 44, // Z
	0x07: 45, // X
	0x08: 46, // C
	0x09: 47, // V
	0x0B: 48, // B
	0x0C: 16, // Q
	0x0D: 17, // W
	0x0E: 18, // E
	0x0F: 19, // R
	0x10: 21, // Y
	0x11: 20, // T
	0x12: 2,  // 1
	0x13: 3,  // 2
	0x14: 4,  // 3
	0x15: 5,  // 4
	0x16: 7,  // 6
	0x17: 6,  // 5
	0x18: 13, // =
	0x19: 10, // 9
	0x1A: 8,  // 7
	0x1B: 12, // -
	0x1C: 9,  // 8
	0x1D: 11, // 0
	0x1E: 27, // ]
	0x1F: 24, // O
	0x20: 22, // U
	0x21: 26, // [
	0x22: 23, // I
	0x23: 25, // P
	0x24: 28, // Return
	0x25: 38, // L
	0x26: 36, // J
	0x27: 40, // '
	0x28: 37, // K
	0x29: 39, // ;
	0x2A: 43, // backslash
	0x2B: 51, // ,
	0x2C: 53, // /
	0x2D: 49, // N
	0x2E: 50, // M
	0x2F: 52, // .
	0x30: 15, // Tab
	0x31: 57, // Space
	0x32: 41, // `
	0x33: 14, // Delete (backspace)
	0x35: 1,  // Escape
	0x7B: 105, // Left
	0x7C: 106, // Right
	0x7D: 108, // Down
	0x7E: 103, // Up
}

// translateKeycode maps a raw keyCode value to evdev space; unmapped keys
// translate to 0 (KEY_RESERVED) rather than being dropped, so timing and
// repeat-state stay consistent on the client side.
func translateKeycode(darwinCode uint64) uint32 {
	if code, ok := darwinToEvdev[darwinCode]; ok {
		return code
	}
	return 0
}

// NSEvent modifierFlags bit positions (NSEventModifierFlag*).
const (
	modifierFlagShift   = 1 << 17
	modifierFlagControl = 1 << 18
	modifierFlagAlt     = 1 << 19
	modifierFlagCommand = 1 << 20
	modifierFlagCaps    = 1 << 16
)

func translateModifiers(flags uint64) compositor.Modifier {
	var m compositor.Modifier
	if flags&modifierFlagShift != 0 {
		m |= compositor.ModShift
	}
	if flags&modifierFlagControl != 0 {
		m |= compositor.ModControl
	}
	if flags&modifierFlagAlt != 0 {
		m |= compositor.ModAlt
	}
	if flags&modifierFlagCommand != 0 {
		m |= compositor.ModSuper
	}
	if flags&modifierFlagCaps != 0 {
		m |= compositor.ModCapsLock
	}
	return m
}

// translateButton maps an NSEvent buttonNumber to the evdev button code
// wl_pointer.button expects.
func translateButton(buttonNumber uint64) uint32 {
	switch buttonNumber {
	case 0:
		return compositor.ButtonLeft
	case 1:
		return compositor.ButtonRight
	case 2:
		return compositor.ButtonMiddle
	default:
		return compositor.ButtonLeft
	}
}
