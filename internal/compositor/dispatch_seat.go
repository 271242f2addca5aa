package compositor

func (k *Kernel) dispatchSeatGlobal(c *Client, msg *Message, d *Decoder) error {
	switch msg.Opcode {
	case seatGetPointer:
		id, err := d.NewID()
		if err != nil {
			return err
		}
		c.Bind(id, k.Seat.ID(), "wl_pointer", 1)
		return nil
	case seatGetKeyboard:
		id, err := d.NewID()
		if err != nil {
			return err
		}
		c.Bind(id, k.Seat.ID(), "wl_keyboard", 1)
		// No keymap fd is advertised: keys are delivered as raw evdev
		// keycodes and the kernel never forwards an xkb
		// keymap of its own.
		return nil
	case seatGetTouch:
		id, err := d.NewID()
		if err != nil {
			return err
		}
		c.Bind(id, k.Seat.ID(), "wl_touch", 1)
		return nil
	default:
		return NewProtocolError(msg.ObjectID, ErrCodeInvalidMethod, "wl_seat: bad opcode")
	}
}

func (k *Kernel) dispatchPointer(c *Client, msg *Message, d *Decoder) error {
	switch msg.Opcode {
	case pointerSetCursor:
		serial, err := d.Uint32()
		if err != nil {
			return err
		}
		surfaceObj, err := d.Object()
		if err != nil {
			return err
		}
		hotspotX, err := d.Int32()
		if err != nil {
			return err
		}
		hotspotY, err := d.Int32()
		if err != nil {
			return err
		}
		var cursorEntity EntityID
		if surfaceObj != 0 {
			cursorEntity, _, _ = c.Resolve(surfaceObj)
			if s, ok := k.Surfaces.Lookup(cursorEntity); ok {
				_ = s.AssignRole(RoleCursor)
			}
		}
		k.Seat.SetCursor(serial, cursorEntity, hotspotX, hotspotY)
		k.applyHostCursor(cursorEntity, hotspotX, hotspotY)
		return nil
	case pointerRelease:
		c.Unbind(msg.ObjectID)
		return nil
	default:
		return NewProtocolError(msg.ObjectID, ErrCodeInvalidMethod, "wl_pointer: bad opcode")
	}
}

func (k *Kernel) applyHostCursor(surface EntityID, hotspotX, hotspotY int32) {
	if surface == 0 {
		k.bridge.SetCursor(nil, 0, 0, 0, 0)
		return
	}
	s, ok := k.Surfaces.Lookup(surface)
	if !ok {
		return
	}
	buf := s.CurrentBuffer()
	if buf == nil {
		return
	}
	pixels, err := buf.Bytes()
	if err != nil {
		return
	}
	k.bridge.SetCursor(pixels, buf.Width(), buf.Height(), hotspotX, hotspotY)
}

func (k *Kernel) dispatchKeyboard(c *Client, msg *Message, d *Decoder) error {
	switch msg.Opcode {
	case keyboardRelease:
		c.Unbind(msg.ObjectID)
		return nil
	default:
		return NewProtocolError(msg.ObjectID, ErrCodeInvalidMethod, "wl_keyboard: bad opcode")
	}
}

// --- host -> protocol input delivery --------------------------------------

// DeliverPointerMotion moves the seat's tracked pointer and emits
// enter/leave/motion/frame to the client owning the affected surfaces
// (host-driven focus resolved to a toplevel surface).
func (k *Kernel) DeliverPointerMotion(surface EntityID, x, y int32, timeMs uint32) {
	prev, hadFocus := k.Seat.PointerFocus()
	if hadFocus && prev == surface {
		k.Seat.MovePointer(x, y)
		k.emitPointerMotion(surface, x, y, timeMs)
		return
	}
	if hadFocus {
		k.emitPointerLeave(prev)
	}
	serial := k.NextSerial()
	k.Seat.SetPointerFocus(surface, x, y, serial)
	k.emitPointerEnter(surface, x, y, serial)
}

func (k *Kernel) clientOwning(surface EntityID) (*Client, ObjectID, bool) {
	for _, c := range k.snapshotClients() {
		if obj, ok := c.ObjectFor(surface); ok {
			return c, obj, true
		}
	}
	return nil, 0, false
}

func (k *Kernel) emitPointerEnter(surface EntityID, x, y int32, serial uint32) {
	c, surfObj, ok := k.clientOwning(surface)
	if !ok {
		return
	}
	pointerObj, ok := c.ObjectFor(k.Seat.ID())
	if !ok {
		return
	}
	e := NewEncoder(16)
	e.PutUint32(serial)
	e.PutObject(surfObj)
	e.PutFixed(FixedFromInt(x))
	e.PutFixed(FixedFromInt(y))
	_ = c.Send(&Message{ObjectID: pointerObj, Opcode: pointerEventEnter, Args: e.Bytes()})
	k.emitPointerFrame(c, pointerObj)
}

func (k *Kernel) emitPointerLeave(surface EntityID) {
	c, surfObj, ok := k.clientOwning(surface)
	if !ok {
		return
	}
	pointerObj, ok := c.ObjectFor(k.Seat.ID())
	if !ok {
		return
	}
	e := NewEncoder(8)
	e.PutUint32(k.NextSerial())
	e.PutObject(surfObj)
	_ = c.Send(&Message{ObjectID: pointerObj, Opcode: pointerEventLeave, Args: e.Bytes()})
	k.emitPointerFrame(c, pointerObj)
}

func (k *Kernel) emitPointerMotion(surface EntityID, x, y int32, timeMs uint32) {
	c, _, ok := k.clientOwning(surface)
	if !ok {
		return
	}
	pointerObj, ok := c.ObjectFor(k.Seat.ID())
	if !ok {
		return
	}
	e := NewEncoder(12)
	e.PutUint32(timeMs)
	e.PutFixed(FixedFromInt(x))
	e.PutFixed(FixedFromInt(y))
	_ = c.Send(&Message{ObjectID: pointerObj, Opcode: pointerEventMotion, Args: e.Bytes()})
	k.emitPointerFrame(c, pointerObj)
}

func (k *Kernel) emitPointerFrame(c *Client, pointerObj ObjectID) {
	_ = c.Send(&Message{ObjectID: pointerObj, Opcode: pointerEventFrame})
}

// DeliverPointerButton emits a button event (plus frame) to the
// current pointer-focus surface.
func (k *Kernel) DeliverPointerButton(button uint32, pressed bool, timeMs uint32) {
	surface, ok := k.Seat.PointerFocus()
	if !ok {
		return
	}
	c, _, ok := k.clientOwning(surface)
	if !ok {
		return
	}
	pointerObj, ok := c.ObjectFor(k.Seat.ID())
	if !ok {
		return
	}
	state := PointerButtonReleased
	if pressed {
		state = PointerButtonPressed
	}
	e := NewEncoder(16)
	e.PutUint32(k.NextSerial())
	e.PutUint32(timeMs)
	e.PutUint32(button)
	e.PutUint32(state)
	_ = c.Send(&Message{ObjectID: pointerObj, Opcode: pointerEventButton, Args: e.Bytes()})
	k.emitPointerFrame(c, pointerObj)
}

// DeliverKey translates a host keycode (already mapped to evdev space by
// the HostBridge) into wl_keyboard.key plus a modifiers event when the
// modifier mask changed.
func (k *Kernel) DeliverKey(keycode uint32, pressed bool, modifiers Modifier, timeMs uint32) {
	surface, ok := k.Seat.KeyboardFocus()
	if !ok {
		return
	}
	c, _, ok := k.clientOwning(surface)
	if !ok {
		return
	}
	keyboardObj, ok := c.ObjectFor(k.Seat.ID())
	if !ok {
		return
	}
	state := KeyReleased
	if pressed {
		state = KeyPressed
	}
	e := NewEncoder(16)
	e.PutUint32(k.NextSerial())
	e.PutUint32(timeMs)
	e.PutUint32(keycode)
	e.PutUint32(state)
	_ = c.Send(&Message{ObjectID: keyboardObj, Opcode: keyboardEventKey, Args: e.Bytes()})

	if k.Seat.SetModifiers(modifiers) {
		em := NewEncoder(16)
		em.PutUint32(k.NextSerial())
		em.PutUint32(uint32(modifiers)) // depressed
		em.PutUint32(0)                 // latched
		em.PutUint32(0)                 // locked
		em.PutUint32(0)                 // group
		_ = c.Send(&Message{ObjectID: keyboardObj, Opcode: keyboardEventModifiers, Args: em.Bytes()})
	}
}

// DeliverKeyboardFocus emits enter/leave to the old and new keyboard-focus
// surfaces, as prompted by a HostBridge window-activation callback.
func (k *Kernel) DeliverKeyboardFocus(surface EntityID) {
	previous := k.Seat.SetKeyboardFocus(surface)
	if previous == surface {
		return
	}
	if previous != 0 {
		if c, obj, ok := k.clientOwning(previous); ok {
			if keyboardObj, ok := c.ObjectFor(k.Seat.ID()); ok {
				e := NewEncoder(8)
				e.PutUint32(k.NextSerial())
				e.PutObject(obj)
				_ = c.Send(&Message{ObjectID: keyboardObj, Opcode: keyboardEventLeave, Args: e.Bytes()})
			}
		}
	}
	if surface != 0 {
		if c, obj, ok := k.clientOwning(surface); ok {
			if keyboardObj, ok := c.ObjectFor(k.Seat.ID()); ok {
				e := NewEncoder(16)
				e.PutUint32(k.NextSerial())
				e.PutObject(obj)
				e.PutArray(nil)
				_ = c.Send(&Message{ObjectID: keyboardObj, Opcode: keyboardEventEnter, Args: e.Bytes()})
			}
		}
	}
}
