package compositor

import "time"

// dispatchSurface handles wl_surface requests against the surface named by
// entity.
func (k *Kernel) dispatchSurface(c *Client, msg *Message, entity EntityID, d *Decoder) error {
	s, ok := k.Surfaces.Lookup(entity)
	if !ok {
		return NewProtocolError(msg.ObjectID, ErrCodeInvalidObject, "unknown surface")
	}

	switch msg.Opcode {
	case surfaceDestroy:
		k.destroySurface(c, s)
		c.Unbind(msg.ObjectID)
		return nil

	case surfaceAttach:
		bufferObj, err := d.Object()
		if err != nil {
			return err
		}
		x, err := d.Int32()
		if err != nil {
			return err
		}
		y, err := d.Int32()
		if err != nil {
			return err
		}
		s.SetOffset(x, y)
		if bufferObj == 0 {
			s.Attach(nil)
			return nil
		}
		bufEntity, iface, ok := c.Resolve(bufferObj)
		if !ok || iface != "wl_buffer" {
			return NewProtocolError(msg.ObjectID, ErrCodeInvalidObject, "attach: not a buffer")
		}
		buf, ok := k.Shm.buffers[bufEntity]
		if !ok {
			return NewProtocolError(msg.ObjectID, ErrCodeInvalidObject, "attach: unknown buffer")
		}
		s.Attach(buf)
		return nil

	case surfaceDamage:
		r, err := decodeRect(d)
		if err != nil {
			return err
		}
		s.Damage(r)
		return nil

	case surfaceDamageBuffer:
		r, err := decodeRect(d)
		if err != nil {
			return err
		}
		s.DamageBuffer(r)
		return nil

	case surfaceFrame:
		callback, err := d.NewID()
		if err != nil {
			return err
		}
		entityCB := k.NextEntityID()
		c.Bind(callback, entityCB, "wl_callback", 1)
		s.Frame(entityCB)
		return nil

	case surfaceSetOpaqueRegion:
		obj, err := d.Object()
		if err != nil {
			return err
		}
		s.SetOpaqueRegion(k.resolveRegion(c, obj))
		return nil

	case surfaceSetInputRegion:
		obj, err := d.Object()
		if err != nil {
			return err
		}
		if obj == 0 {
			s.SetInputRegion(Rect{}, false)
			return nil
		}
		s.SetInputRegion(k.resolveRegion(c, obj), true)
		return nil

	case surfaceSetBufferScale:
		scale, err := d.Int32()
		if err != nil {
			return err
		}
		s.SetBufferScale(scale)
		return nil

	case surfaceSetBufferTransform:
		tr, err := d.Int32()
		if err != nil {
			return err
		}
		s.SetBufferTransform(tr)
		return nil

	case surfaceOffset:
		x, err := d.Int32()
		if err != nil {
			return err
		}
		y, err := d.Int32()
		if err != nil {
			return err
		}
		s.SetOffset(x, y)
		return nil

	case surfaceCommit:
		return k.commitSurface(c, s)

	default:
		return NewProtocolError(msg.ObjectID, ErrCodeInvalidMethod, "wl_surface: bad opcode")
	}
}

func decodeRect(d *Decoder) (Rect, error) {
	x, err := d.Int32()
	if err != nil {
		return Rect{}, err
	}
	y, err := d.Int32()
	if err != nil {
		return Rect{}, err
	}
	w, err := d.Int32()
	if err != nil {
		return Rect{}, err
	}
	h, err := d.Int32()
	if err != nil {
		return Rect{}, err
	}
	return Rect{X: x, Y: y, W: w, H: h}, nil
}

func (k *Kernel) resolveRegion(c *Client, obj ObjectID) Rect {
	if obj == 0 {
		return Rect{}
	}
	entity, iface, ok := c.Resolve(obj)
	if !ok || iface != "wl_region" {
		return Rect{}
	}
	rt := c.regions()
	rt.mu.Lock()
	defer rt.mu.Unlock()
	return rt.regions[entity]
}

// commitSurface atomically applies pending state, then, for
// surfaces with a bridge-backed window (toplevels), uploads the new buffer
// content and requests a host repaint of the accumulated damage. Frame
// callbacks made ready by the commit are then fired with wl_callback.done.
func (k *Kernel) commitSurface(c *Client, s *Surface) error {
	var gate ConfigureGate
	role := s.Role()

	shellID, hasShell := k.surfaceShell(s.id)
	if role == RoleToplevel || role == RolePopup {
		if !hasShell {
			return NewProtocolError(0, ErrCodeXdgInvalidSurfaceState, "commit before get_xdg_surface role object")
		}
		gate = shellID
	}

	ready, err := k.Surfaces.Commit(s, gate)
	if err != nil {
		return NewProtocolError(0, ErrCodeXdgInvalidSurfaceState, err.Error())
	}

	k.presentIfWindowed(s)
	now := uint32(time.Now().UnixMilli())
	for _, cb := range ready {
		if obj, ok := c.ObjectFor(cb); ok {
			e := NewEncoder(4)
			e.PutUint32(now)
			_ = c.Send(&Message{ObjectID: obj, Opcode: callbackEventDone, Args: e.Bytes()})
			c.Unbind(obj)
		}
	}
	return nil
}

// surfaceShell finds the ShellSurface (if any) rooted at a given surface.
// Linear scan is acceptable: the shell-role object count is bounded by the
// number of open windows/popups, not by protocol traffic volume.
func (k *Kernel) surfaceShell(surface EntityID) (*ShellSurface, bool) {
	k.Shells.mu.Lock()
	defer k.Shells.mu.Unlock()
	for _, sh := range k.Shells.shells {
		if sh.Surface() == surface {
			return sh, true
		}
	}
	return nil, false
}

// presentIfWindowed uploads a committed surface's current buffer to its
// host window, if it has one, and clears accumulated damage.
func (k *Kernel) presentIfWindowed(s *Surface) {
	w := k.windowForSurface(s.id)
	if w == nil {
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
	row, stride, h := int(buf.Width())*4, int(buf.Stride()), int(buf.Height())
	if stride != row {
		packed := make([]byte, row*h)
		for y := 0; y < h; y++ {
			copy(packed[y*row:(y+1)*row], pixels[y*stride:y*stride+row])
		}
		pixels = packed
	}
	damage := s.TakeDamage()
	k.Windows.Present(w, buf.Width(), buf.Height(), pixels, damage)
}

func (k *Kernel) windowForSurface(surface EntityID) *Window {
	k.Windows.mu.Lock()
	defer k.Windows.mu.Unlock()
	for _, w := range k.Windows.windows {
		if w.Surface() == surface {
			return w
		}
	}
	return nil
}

// destroySurface cascades a surface's destruction into its shell role
// object, window, seat focus, and buffer release.
func (k *Kernel) destroySurface(c *Client, s *Surface) {
	if shell, ok := k.surfaceShell(s.id); ok {
		k.Shells.Destroy(shell)
	}
	if w := k.windowForSurface(s.id); w != nil {
		k.Windows.DestroyWindow(w)
	}
	k.Seat.ClearFocusOn(s.id)
	k.Surfaces.DestroySurface(s)
}
