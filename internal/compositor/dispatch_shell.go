package compositor

import "encoding/binary"

// positionerState accumulates xdg_positioner requests before they are
// frozen into a Positioner value at get_popup time.
type positionerState struct {
	p Positioner
}

func (k *Kernel) dispatchXdgWmBase(c *Client, msg *Message, d *Decoder) error {
	switch msg.Opcode {
	case xdgWmBaseDestroy:
		c.Unbind(msg.ObjectID)
		return nil
	case xdgWmBaseCreatePositioner:
		id, err := d.NewID()
		if err != nil {
			return err
		}
		entity := k.NextEntityID()
		c.Bind(id, entity, "xdg_positioner", 1)
		k.positioners(c)[entity] = &positionerState{p: Positioner{}}
		return nil
	case xdgWmBaseGetXdgSurface:
		id, err := d.NewID()
		if err != nil {
			return err
		}
		surfaceObj, err := d.Object()
		if err != nil {
			return err
		}
		surfEntity, iface, ok := c.Resolve(surfaceObj)
		if !ok || iface != "wl_surface" {
			return NewProtocolError(msg.ObjectID, ErrCodeInvalidObject, "get_xdg_surface: not a surface")
		}
		shell := k.Shells.CreateShellSurface(surfEntity)
		c.Bind(id, shell.id, "xdg_surface", 1)
		return nil
	case xdgWmBasePong:
		_, err := d.Uint32()
		return err
	default:
		return NewProtocolError(msg.ObjectID, ErrCodeInvalidMethod, "xdg_wm_base: bad opcode")
	}
}

func (k *Kernel) positioners(c *Client) map[EntityID]*positionerState {
	return c.positioners()
}

func (k *Kernel) dispatchPositioner(c *Client, msg *Message, entity EntityID, d *Decoder) error {
	st, ok := k.positioners(c)[entity]
	if !ok {
		return NewProtocolError(msg.ObjectID, ErrCodeInvalidObject, "unknown positioner")
	}

	switch msg.Opcode {
	case xdgPositionerSetSize:
		w, _ := d.Int32()
		h, _ := d.Int32()
		st.p.Size = Size{W: w, H: h}
	case xdgPositionerSetAnchorRect:
		r, err := decodeRect(d)
		if err != nil {
			return err
		}
		st.p.AnchorRect = r
	case xdgPositionerSetAnchor:
		v, _ := d.Uint32()
		st.p.Anchor = Anchor(v)
	case xdgPositionerSetGravity:
		v, _ := d.Uint32()
		st.p.Gravity = Gravity(v)
	case xdgPositionerSetConstraintAdjust:
		v, _ := d.Uint32()
		st.p.ConstraintAdjustment = ConstraintAdjustment(v)
	case xdgPositionerSetOffset:
		x, _ := d.Int32()
		y, _ := d.Int32()
		st.p.OffsetX, st.p.OffsetY = x, y
	case xdgPositionerSetReactive, xdgPositionerSetParentSize, xdgPositionerSetParentConfigure:
		// Reactive repositioning on parent move is not modelled; accepted
		// as a no-op so v3 clients do not fail bind negotiation.
	case xdgPositionerDestroy:
		delete(k.positioners(c), entity)
		c.Unbind(msg.ObjectID)
	default:
		return NewProtocolError(msg.ObjectID, ErrCodeInvalidMethod, "xdg_positioner: bad opcode")
	}
	return nil
}

func (k *Kernel) dispatchXdgSurface(c *Client, msg *Message, entity EntityID, d *Decoder) error {
	shell, ok := k.Shells.Lookup(entity)
	if !ok {
		return NewProtocolError(msg.ObjectID, ErrCodeInvalidObject, "unknown xdg_surface")
	}
	s, ok := k.Surfaces.Lookup(shell.Surface())
	if !ok {
		return NewProtocolError(msg.ObjectID, ErrCodeInvalidObject, "xdg_surface: backing surface gone")
	}

	switch msg.Opcode {
	case xdgSurfaceGetToplevel:
		id, err := d.NewID()
		if err != nil {
			return err
		}
		if err := s.AssignRole(RoleToplevel); err != nil {
			return NewProtocolError(msg.ObjectID, ErrCodeXdgRole, err.Error())
		}
		c.Bind(id, shell.id, "xdg_toplevel", 1)

		w, err := k.Windows.CreateWindow(s.id, WindowConfig{Width: 640, Height: 480, Resizable: true})
		if err != nil {
			return err
		}
		if primary, ok := k.Outputs.Primary(); ok {
			w.SetOutput(primary.ID())
		}

		serial := k.NextSerial()
		shell.Configure(serial)
		return sendToplevelConfigure(c, id, shell, 0, 0, serial)

	case xdgSurfaceGetPopup:
		id, err := d.NewID()
		if err != nil {
			return err
		}
		parentObj, err := d.Object()
		if err != nil {
			return err
		}
		positionerObj, err := d.Object()
		if err != nil {
			return err
		}
		parentEntity, iface, ok := c.Resolve(parentObj)
		if !ok || iface != "xdg_surface" {
			return NewProtocolError(msg.ObjectID, ErrCodeXdgInvalidPopupParent, "get_popup: bad parent")
		}
		posEntity, iface, ok := c.Resolve(positionerObj)
		if !ok || iface != "xdg_positioner" {
			return NewProtocolError(msg.ObjectID, ErrCodeXdgInvalidPositioner, "get_popup: bad positioner")
		}
		posState, ok := k.positioners(c)[posEntity]
		if !ok {
			return NewProtocolError(msg.ObjectID, ErrCodeXdgInvalidPositioner, "get_popup: unknown positioner")
		}

		if err := s.AssignRole(RolePopup); err != nil {
			return NewProtocolError(msg.ObjectID, ErrCodeXdgRole, err.Error())
		}
		s.SetParent(parentEntity)
		shell.SetPopupGeometry(parentEntity, posState.p)
		c.Bind(id, shell.id, "xdg_popup", 1)

		if parentSurface, ok := k.Shells.Lookup(parentEntity); ok {
			if parent, ok := k.Surfaces.Lookup(parentSurface.Surface()); ok {
				parent.addChild(s.id)
			}
		}

		geom := k.placePopup(shell)
		serial := k.NextSerial()
		shell.Configure(serial)
		e := NewEncoder(16)
		e.PutInt32(geom.X)
		e.PutInt32(geom.Y)
		e.PutInt32(geom.W)
		e.PutInt32(geom.H)
		if err := c.Send(&Message{ObjectID: id, Opcode: xdgPopupEventConfigure, Args: e.Bytes()}); err != nil {
			return err
		}
		return sendXdgSurfaceConfigure(c, msg.ObjectID, serial)

	case xdgSurfaceSetWindowGeometry:
		r, err := decodeRect(d)
		if err != nil {
			return err
		}
		shell.SetWindowGeometry(r)
		return nil

	case xdgSurfaceAckConfigure:
		serial, err := d.Uint32()
		if err != nil {
			return err
		}
		if err := shell.AckConfigure(serial); err != nil {
			return NewProtocolError(msg.ObjectID, ErrCodeInvalidMethod, err.Error())
		}
		return nil

	case xdgSurfaceDestroy:
		k.Shells.Destroy(shell)
		c.Unbind(msg.ObjectID)
		return nil

	default:
		return NewProtocolError(msg.ObjectID, ErrCodeInvalidMethod, "xdg_surface: bad opcode")
	}
}

// placePopup runs the positioner algebra against the parent's window
// origin and the primary output's mode size. When the parent has no window
// or there is no output, the origin is (0,0) and the bounds are 1920x1080.
func (k *Kernel) placePopup(shell *ShellSurface) Rect {
	parentEntity, positioner := shell.PopupGeometry()
	var parentOrigin Point
	bounds := Rect{X: 0, Y: 0, W: 1920, H: 1080}

	if parentShell, ok := k.Shells.Lookup(parentEntity); ok {
		if w := k.windowForSurface(parentShell.Surface()); w != nil {
			state := w.State()
			parentOrigin = Point{X: state.X, Y: state.Y}
			if out, ok := k.Outputs.Primary(); ok {
				mode := out.Mode()
				bounds = Rect{W: mode.Width, H: mode.Height}
			}
		}
	}
	return positioner.Place(parentOrigin, bounds)
}

func sendXdgSurfaceConfigure(c *Client, id ObjectID, serial uint32) error {
	e := NewEncoder(4)
	e.PutUint32(serial)
	return c.Send(&Message{ObjectID: id, Opcode: xdgSurfaceEventConfigure, Args: e.Bytes()})
}

func sendToplevelConfigure(c *Client, id ObjectID, shell *ShellSurface, width, height int32, serial uint32) error {
	e := NewEncoder(16)
	e.PutInt32(width)
	e.PutInt32(height)
	states := shell.ToplevelStates()
	stateBytes := make([]byte, len(states)*4)
	for i, st := range states {
		binary.LittleEndian.PutUint32(stateBytes[i*4:], st)
	}
	e.PutArray(stateBytes)
	if err := c.Send(&Message{ObjectID: id, Opcode: xdgToplevelEventConfigure, Args: e.Bytes()}); err != nil {
		return err
	}
	return sendXdgSurfaceConfigure(c, objectForShell(c, shell), serial)
}

// objectForShell finds the client object id currently bound to shell's
// xdg_surface role entity (distinct from the toplevel/popup object id a
// caller may already hold).
func objectForShell(c *Client, shell *ShellSurface) ObjectID {
	c.mu.Lock()
	defer c.mu.Unlock()
	for id, b := range c.objects {
		if b.entity == shell.id && b.iface == "xdg_surface" {
			return id
		}
	}
	return 0
}

func (k *Kernel) dispatchXdgToplevel(c *Client, msg *Message, entity EntityID, d *Decoder) error {
	shell, ok := k.Shells.Lookup(entity)
	if !ok {
		return NewProtocolError(msg.ObjectID, ErrCodeInvalidObject, "unknown xdg_toplevel")
	}

	switch msg.Opcode {
	case xdgToplevelSetTitle:
		title, err := d.String()
		if err != nil {
			return err
		}
		shell.SetTitle(title)
		if w := k.windowForSurface(shell.Surface()); w != nil {
			state := w.State()
			k.Windows.Configure(w, state)
		}
		return nil

	case xdgToplevelSetAppID:
		appID, err := d.String()
		if err != nil {
			return err
		}
		shell.SetAppID(appID)
		return nil

	case xdgToplevelSetParent:
		parentObj, err := d.Object()
		if err != nil {
			return err
		}
		if parentObj == 0 {
			shell.SetParent(0)
			return nil
		}
		if parentEntity, iface, ok := c.Resolve(parentObj); ok && iface == "xdg_toplevel" {
			shell.SetParent(parentEntity)
		}
		return nil

	case xdgToplevelSetMinSize:
		w, _ := d.Int32()
		h, _ := d.Int32()
		shell.SetMinSize(w, h)
		return nil

	case xdgToplevelSetMaxSize:
		w, _ := d.Int32()
		h, _ := d.Int32()
		shell.SetMaxSize(w, h)
		return nil

	case xdgToplevelSetMaximized:
		shell.SetToplevelState(ToplevelStateMaximized)
		return k.applyToplevelState(c, shell, func(w *WindowState) { w.Maximized = true })

	case xdgToplevelUnsetMaximized:
		shell.ClearToplevelState(ToplevelStateMaximized)
		return k.applyToplevelState(c, shell, func(w *WindowState) { w.Maximized = false })

	case xdgToplevelSetFullscreen:
		_, _ = d.Object() // output hint, kernel always uses the window's current output
		shell.SetToplevelState(ToplevelStateFullscreen)
		return k.applyToplevelState(c, shell, func(w *WindowState) { w.Fullscreen = true })

	case xdgToplevelUnsetFullscreen:
		shell.ClearToplevelState(ToplevelStateFullscreen)
		return k.applyToplevelState(c, shell, func(w *WindowState) { w.Fullscreen = false })

	case xdgToplevelSetMinimized:
		return k.applyToplevelState(c, shell, func(w *WindowState) { w.Minimized = true })

	case xdgToplevelShowWindowMenu, xdgToplevelMove, xdgToplevelResize:
		// Interactive move/resize/window-menu are host window-manager
		// gestures; acknowledged without effect since there is no host
		// window-manager integration point to forward them to yet.
		return nil

	case xdgToplevelDestroy:
		if s, ok := k.Surfaces.Lookup(shell.Surface()); ok {
			k.destroySurface(c, s)
		}
		c.Unbind(msg.ObjectID)
		return nil

	default:
		return NewProtocolError(msg.ObjectID, ErrCodeInvalidMethod, "xdg_toplevel: bad opcode")
	}
}

func (k *Kernel) applyToplevelState(c *Client, shell *ShellSurface, mutate func(*WindowState)) error {
	w := k.windowForSurface(shell.Surface())
	if w == nil {
		return nil
	}
	state := w.State()
	mutate(&state)
	k.Windows.Configure(w, state)

	serial := k.NextSerial()
	shell.Configure(serial)
	if id, ok := c.ObjectFor(shell.id); ok {
		return sendToplevelConfigure(c, id, shell, state.Width, state.Height, serial)
	}
	return nil
}

func (k *Kernel) dispatchXdgPopup(c *Client, msg *Message, entity EntityID, d *Decoder) error {
	shell, ok := k.Shells.Lookup(entity)
	if !ok {
		return NewProtocolError(msg.ObjectID, ErrCodeInvalidObject, "unknown xdg_popup")
	}

	switch msg.Opcode {
	case xdgPopupGrab:
		_, _ = d.Object() // seat
		_, _ = d.Uint32() // serial
		shell.SetGrabbed(true)
		return nil

	case xdgPopupReposition:
		positionerObj, err := d.Object()
		if err != nil {
			return err
		}
		token, err := d.Uint32()
		if err != nil {
			return err
		}
		posEntity, iface, ok := c.Resolve(positionerObj)
		if !ok || iface != "xdg_positioner" {
			return NewProtocolError(msg.ObjectID, ErrCodeXdgInvalidPositioner, "reposition: bad positioner")
		}
		posState, ok := k.positioners(c)[posEntity]
		if !ok {
			return NewProtocolError(msg.ObjectID, ErrCodeXdgInvalidPositioner, "reposition: unknown positioner")
		}
		parent, _ := shell.PopupGeometry()
		shell.SetPopupGeometry(parent, posState.p)
		geom := k.placePopup(shell)

		e := NewEncoder(16)
		e.PutInt32(geom.X)
		e.PutInt32(geom.Y)
		e.PutInt32(geom.W)
		e.PutInt32(geom.H)
		if err := c.Send(&Message{ObjectID: msg.ObjectID, Opcode: xdgPopupEventConfigure, Args: e.Bytes()}); err != nil {
			return err
		}
		eTok := NewEncoder(4)
		eTok.PutUint32(token)
		return c.Send(&Message{ObjectID: msg.ObjectID, Opcode: xdgPopupEventRepositioned, Args: eTok.Bytes()})

	case xdgPopupDestroy:
		if s, ok := k.Surfaces.Lookup(shell.Surface()); ok {
			if parent := s.Parent(); parent != 0 {
				if ps, ok := k.Surfaces.Lookup(parent); ok {
					ps.removeChild(s.id)
				}
			}
			k.destroySurface(c, s)
		}
		c.Unbind(msg.ObjectID)
		return nil

	default:
		return NewProtocolError(msg.ObjectID, ErrCodeInvalidMethod, "xdg_popup: bad opcode")
	}
}
