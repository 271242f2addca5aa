package compositor

import "sync"

// wl_seat opcodes (requests).
const (
	seatGetPointer  Opcode = 0
	seatGetKeyboard Opcode = 1
	seatGetTouch    Opcode = 2
)

// wl_seat event opcodes.
const (
	seatEventCapabilities Opcode = 0
	seatEventName         Opcode = 1
)

// wl_seat.capability bits.
const (
	SeatCapabilityPointer  uint32 = 0x1
	SeatCapabilityKeyboard uint32 = 0x2
	SeatCapabilityTouch    uint32 = 0x4
)

// wl_pointer opcodes (requests) / events.
const (
	pointerSetCursor Opcode = 0
	pointerRelease   Opcode = 1
)

const (
	pointerEventEnter       Opcode = 0
	pointerEventLeave       Opcode = 1
	pointerEventMotion      Opcode = 2
	pointerEventButton      Opcode = 3
	pointerEventAxis        Opcode = 4
	pointerEventFrame       Opcode = 5
	pointerEventAxisSource  Opcode = 6
	pointerEventAxisStop    Opcode = 7
	pointerEventAxisDiscrete Opcode = 8
)

// wl_pointer.button_state values.
const (
	PointerButtonReleased uint32 = 0
	PointerButtonPressed  uint32 = 1
)

// Linux evdev button codes, as carried on the wire (a host-independent
// input model maps darwin mouse buttons onto these same constants so the
// protocol layer never needs to know which host produced an event).
const (
	ButtonLeft   uint32 = 0x110
	ButtonRight  uint32 = 0x111
	ButtonMiddle uint32 = 0x112
)

// wl_keyboard opcodes (requests) / events.
const (
	keyboardRelease Opcode = 0
)

const (
	keyboardEventKeymap    Opcode = 0
	keyboardEventEnter     Opcode = 1
	keyboardEventLeave     Opcode = 2
	keyboardEventKey       Opcode = 3
	keyboardEventModifiers Opcode = 4
	keyboardEventRepeatInfo Opcode = 5
)

// wl_keyboard.key_state values.
const (
	KeyReleased uint32 = 0
	KeyPressed  uint32 = 1
)

// wl_keyboard.keymap_format values.
const (
	KeymapFormatNoKeymap  uint32 = 0
	KeymapFormatXkbV1     uint32 = 1
)

// Modifier is a bitmask of currently-held keyboard modifiers, mirrored on
// the wire as the depressed/latched/locked/group quartet of
// wl_keyboard.modifiers.
type Modifier uint32

const (
	ModShift Modifier = 1 << iota
	ModCapsLock
	ModControl
	ModAlt
	ModSuper
)

// InputSeat is the kernel's single seat: keyboard and pointer focus plus
// the currently-held modifier state. This models a single-seat,
// single-pointer, single-keyboard system (Non-goals: multi-seat).
type InputSeat struct {
	id  EntityID
	ids *IDRegistry

	mu sync.Mutex

	pointerFocus  EntityID // surface, 0 if none
	pointerX      int32
	pointerY      int32
	lastEnterSerial uint32

	keyboardFocus EntityID // surface, 0 if none
	modifiers     Modifier

	cursorSurface EntityID
	cursorHotspotX, cursorHotspotY int32
}

// NewInputSeat constructs the kernel's single input seat.
func NewInputSeat(ids *IDRegistry) *InputSeat {
	return &InputSeat{id: ids.Next(), ids: ids}
}

func (s *InputSeat) ID() EntityID { return s.id }

// PointerFocus returns the surface currently receiving pointer events.
func (s *InputSeat) PointerFocus() (EntityID, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pointerFocus, s.pointerFocus != 0
}

// SetPointerFocus updates pointer focus, returning the previous focus so
// the caller can emit leave/enter to the right two surfaces. serial is
// whatever SerialCounter value the caller assigns to the resulting enter
// event.
func (s *InputSeat) SetPointerFocus(surface EntityID, x, y int32, serial uint32) (previous EntityID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	previous = s.pointerFocus
	s.pointerFocus = surface
	s.pointerX, s.pointerY = x, y
	s.lastEnterSerial = serial
	return previous
}

// MovePointer updates the tracked pointer position without changing focus.
func (s *InputSeat) MovePointer(x, y int32) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pointerX, s.pointerY = x, y
}

// PointerPosition returns the last known pointer position.
func (s *InputSeat) PointerPosition() (x, y int32) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pointerX, s.pointerY
}

// SetCursor records the client-chosen cursor surface and hotspot, used when
// presenting the host cursor image.
func (s *InputSeat) SetCursor(serial uint32, surface EntityID, hotspotX, hotspotY int32) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if serial != s.lastEnterSerial {
		return false
	}
	s.cursorSurface = surface
	s.cursorHotspotX, s.cursorHotspotY = hotspotX, hotspotY
	return true
}

// KeyboardFocus returns the surface currently receiving keyboard events.
func (s *InputSeat) KeyboardFocus() (EntityID, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.keyboardFocus, s.keyboardFocus != 0
}

// SetKeyboardFocus updates keyboard focus, returning the previous focus.
func (s *InputSeat) SetKeyboardFocus(surface EntityID) (previous EntityID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	previous = s.keyboardFocus
	s.keyboardFocus = surface
	return previous
}

// SetModifiers replaces the held-modifier bitmask, returning whether it
// changed (callers only emit wl_keyboard.modifiers on an actual change).
func (s *InputSeat) SetModifiers(m Modifier) (changed bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	changed = s.modifiers != m
	s.modifiers = m
	return changed
}

func (s *InputSeat) Modifiers() Modifier {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.modifiers
}

// ClearFocusOn drops pointer/keyboard focus that names a now-destroyed
// surface, so destroying a focused surface never leaves the seat pointing
// at a dangling entity.
func (s *InputSeat) ClearFocusOn(surface EntityID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.pointerFocus == surface {
		s.pointerFocus = 0
	}
	if s.keyboardFocus == surface {
		s.keyboardFocus = 0
	}
	if s.cursorSurface == surface {
		s.cursorSurface = 0
	}
}
