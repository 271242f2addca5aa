package compositor

import "sync"

// wl_display opcodes (requests) / events.
const (
	displaySync        Opcode = 0
	displayGetRegistry Opcode = 1
)

const (
	displayEventError    Opcode = 0
	displayEventDeleteID Opcode = 1
)

// wl_region opcodes (requests). Regions have no events.
const (
	regionAdd     Opcode = 0
	regionSubtract Opcode = 1
	regionDestroy Opcode = 2
)

// regionTracker stores the client-local region objects' accumulated
// rectangle; the kernel only needs the bounding rect for opaque/input
// region semantics, not exact polygon subtraction.
type regionTracker struct {
	mu      sync.Mutex
	regions map[EntityID]Rect
}

func newRegionTracker() *regionTracker {
	return &regionTracker{regions: make(map[EntityID]Rect)}
}

// dispatch routes one decoded wire message from c to the kernel operation
// it names, resolving c's object id to the bound interface first (
// "opcode and object id form the demultiplexing key").
func (k *Kernel) dispatch(c *Client, msg *Message) error {
	entity, iface, ok := c.Resolve(msg.ObjectID)
	if !ok {
		return NewProtocolError(msg.ObjectID, ErrCodeInvalidObject, "unknown object")
	}

	d := NewDecoder(msg.Args)
	d.fds = msg.FDs

	switch iface {
	case "wl_display":
		return k.dispatchDisplay(c, msg, d)
	case "wl_registry":
		return k.dispatchRegistry(c, msg, d)
	case "wl_compositor":
		return k.dispatchCompositorGlobal(c, msg, d)
	case "wl_subcompositor":
		return nil // subsurfaces are accepted but not independently positioned
	case "wl_region":
		return k.dispatchRegion(c, msg, entity, d)
	case "wl_surface":
		return k.dispatchSurface(c, msg, entity, d)
	case "wl_shm":
		return k.dispatchShm(c, msg, d)
	case "wl_shm_pool":
		return k.dispatchShmPool(c, msg, entity, d)
	case "wl_buffer":
		return k.dispatchBuffer(c, msg, entity, d)
	case "xdg_wm_base":
		return k.dispatchXdgWmBase(c, msg, d)
	case "xdg_positioner":
		return k.dispatchPositioner(c, msg, entity, d)
	case "xdg_surface":
		return k.dispatchXdgSurface(c, msg, entity, d)
	case "xdg_toplevel":
		return k.dispatchXdgToplevel(c, msg, entity, d)
	case "xdg_popup":
		return k.dispatchXdgPopup(c, msg, entity, d)
	case "wl_seat":
		return k.dispatchSeatGlobal(c, msg, d)
	case "wl_pointer":
		return k.dispatchPointer(c, msg, d)
	case "wl_keyboard":
		return k.dispatchKeyboard(c, msg, d)
	case "wl_output":
		return nil // wl_output has no requests besides release, accepted as no-op
	default:
		return NewProtocolError(msg.ObjectID, ErrCodeInvalidMethod, "unhandled interface "+iface)
	}
}

func (k *Kernel) dispatchDisplay(c *Client, msg *Message, d *Decoder) error {
	switch msg.Opcode {
	case displaySync:
		callback, err := d.NewID()
		if err != nil {
			return err
		}
		c.Bind(callback, k.NextEntityID(), "wl_callback", 1)
		e := NewEncoder(4)
		e.PutUint32(k.NextSerial())
		return c.Send(&Message{ObjectID: callback, Opcode: callbackEventDone, Args: e.Bytes()})
	case displayGetRegistry:
		registry, err := d.NewID()
		if err != nil {
			return err
		}
		c.Bind(registry, k.NextEntityID(), "wl_registry", 1)
		for _, g := range k.Registry.Snapshot() {
			e := NewEncoder(32)
			e.PutUint32(g.Name)
			e.PutString(g.Interface)
			e.PutUint32(g.Version)
			if err := c.Send(&Message{ObjectID: registry, Opcode: registryEventGlobal, Args: e.Bytes()}); err != nil {
				return err
			}
		}
		return nil
	default:
		return NewProtocolError(msg.ObjectID, ErrCodeInvalidMethod, "wl_display: bad opcode")
	}
}

func (k *Kernel) dispatchRegistry(c *Client, msg *Message, d *Decoder) error {
	if msg.Opcode != registryBind {
		return NewProtocolError(msg.ObjectID, ErrCodeInvalidMethod, "wl_registry: bad opcode")
	}
	name, err := d.Uint32()
	if err != nil {
		return err
	}
	if _, err := d.String(); err != nil {
		return err
	}
	version, err := d.Uint32()
	if err != nil {
		return err
	}
	object, err := d.NewID()
	if err != nil {
		return err
	}
	if err := k.Registry.Bind(c, name, object, version); err != nil {
		return NewProtocolError(msg.ObjectID, ErrCodeInvalidObject, err.Error())
	}
	return nil
}

// --- global bind handlers -------------------------------------------------

func (k *Kernel) bindCompositor(c *Client, object ObjectID, version uint32) error {
	c.Bind(object, k.NextEntityID(), "wl_compositor", version)
	return nil
}

func (k *Kernel) bindSubcompositor(c *Client, object ObjectID, version uint32) error {
	c.Bind(object, k.NextEntityID(), "wl_subcompositor", version)
	return nil
}

func (k *Kernel) bindShm(c *Client, object ObjectID, version uint32) error {
	c.Bind(object, k.NextEntityID(), "wl_shm", version)
	for _, format := range [...]ShmFormat{ShmFormatARGB8888, ShmFormatXRGB8888} {
		e := NewEncoder(4)
		e.PutUint32(uint32(format))
		if err := c.Send(&Message{ObjectID: object, Opcode: shmEventFormat, Args: e.Bytes()}); err != nil {
			return err
		}
	}
	return nil
}

func (k *Kernel) bindSeat(c *Client, object ObjectID, version uint32) error {
	c.Bind(object, k.Seat.ID(), "wl_seat", version)
	e := NewEncoder(4)
	e.PutUint32(SeatCapabilityPointer | SeatCapabilityKeyboard)
	return c.Send(&Message{ObjectID: object, Opcode: seatEventCapabilities, Args: e.Bytes()})
}

func (k *Kernel) bindOutput(c *Client, object ObjectID, version uint32) error {
	out, ok := k.Outputs.Primary()
	if !ok {
		c.Bind(object, k.NextEntityID(), "wl_output", version)
		return nil
	}
	c.Bind(object, out.ID(), "wl_output", version)
	x, y := out.Geometry()
	mode := out.Mode()

	e := NewEncoder(48)
	e.PutInt32(x)
	e.PutInt32(y)
	e.PutInt32(0) // physical_width (unknown on a virtualised host)
	e.PutInt32(0) // physical_height
	e.PutInt32(0) // subpixel
	e.PutString("wayoa")
	e.PutString(out.Name())
	e.PutInt32(0) // transform
	if err := c.Send(&Message{ObjectID: object, Opcode: outputEventGeometry, Args: e.Bytes()}); err != nil {
		return err
	}

	e = NewEncoder(16)
	e.PutUint32(outputModeCurrent | outputModePreferred)
	e.PutInt32(mode.Width)
	e.PutInt32(mode.Height)
	e.PutInt32(mode.RefreshMilliHz)
	if err := c.Send(&Message{ObjectID: object, Opcode: outputEventMode, Args: e.Bytes()}); err != nil {
		return err
	}

	if version >= 2 {
		e = NewEncoder(4)
		e.PutInt32(out.Scale())
		if err := c.Send(&Message{ObjectID: object, Opcode: outputEventScale, Args: e.Bytes()}); err != nil {
			return err
		}
	}
	return c.Send(&Message{ObjectID: object, Opcode: outputEventDone})
}

func (k *Kernel) bindXdgWmBase(c *Client, object ObjectID, version uint32) error {
	c.Bind(object, k.NextEntityID(), "xdg_wm_base", version)
	return nil
}

func (k *Kernel) bindDataDeviceManager(c *Client, object ObjectID, version uint32) error {
	c.Bind(object, k.NextEntityID(), "wl_data_device_manager", version)
	return nil
}

func (k *Kernel) bindLayerShell(c *Client, object ObjectID, version uint32) error {
	c.Bind(object, k.NextEntityID(), "zwlr_layer_shell_v1", version)
	return nil
}

func (k *Kernel) bindScreencopy(c *Client, object ObjectID, version uint32) error {
	c.Bind(object, k.NextEntityID(), "zwlr_screencopy_manager_v1", version)
	return nil
}

// --- wl_compositor / wl_region --------------------------------------------

func (k *Kernel) dispatchCompositorGlobal(c *Client, msg *Message, d *Decoder) error {
	switch msg.Opcode {
	case compositorCreateSurface:
		id, err := d.NewID()
		if err != nil {
			return err
		}
		s := k.Surfaces.CreateSurface()
		c.Bind(id, s.id, "wl_surface", 1)
		return nil
	case compositorCreateRegion:
		id, err := d.NewID()
		if err != nil {
			return err
		}
		entity := k.NextEntityID()
		c.Bind(id, entity, "wl_region", 1)
		rt := c.regions()
		rt.mu.Lock()
		rt.regions[entity] = Rect{}
		rt.mu.Unlock()
		return nil
	default:
		return NewProtocolError(msg.ObjectID, ErrCodeInvalidMethod, "wl_compositor: bad opcode")
	}
}

func (k *Kernel) dispatchRegion(c *Client, msg *Message, entity EntityID, d *Decoder) error {
	rt := c.regions()
	switch msg.Opcode {
	case regionAdd:
		x, _ := d.Int32()
		y, _ := d.Int32()
		w, _ := d.Int32()
		h, _ := d.Int32()
		rt.mu.Lock()
		rt.regions[entity] = rt.regions[entity].Union(Rect{X: x, Y: y, W: w, H: h})
		rt.mu.Unlock()
		return nil
	case regionSubtract:
		// Bounding-rect regions cannot represent subtraction precisely;
		// the kernel keeps the existing bound (conservative: never shrinks
		// input/opaque area below what subtraction would have left).
		return nil
	case regionDestroy:
		rt.mu.Lock()
		delete(rt.regions, entity)
		rt.mu.Unlock()
		c.Unbind(msg.ObjectID)
		return nil
	default:
		return NewProtocolError(msg.ObjectID, ErrCodeInvalidMethod, "wl_region: bad opcode")
	}
}
