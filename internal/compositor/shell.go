package compositor

import "sync"

// xdg_wm_base opcodes (requests) / events.
const (
	xdgWmBaseDestroy         Opcode = 0
	xdgWmBaseCreatePositioner Opcode = 1
	xdgWmBaseGetXdgSurface   Opcode = 2
	xdgWmBasePong            Opcode = 3
)

const xdgWmBaseEventPing Opcode = 0

// xdg_surface opcodes (requests) / events.
const (
	xdgSurfaceDestroy           Opcode = 0
	xdgSurfaceGetToplevel       Opcode = 1
	xdgSurfaceGetPopup          Opcode = 2
	xdgSurfaceSetWindowGeometry Opcode = 3
	xdgSurfaceAckConfigure      Opcode = 4
)

const xdgSurfaceEventConfigure Opcode = 0

// xdg_toplevel opcodes (requests) / events.
const (
	xdgToplevelDestroy         Opcode = 0
	xdgToplevelSetParent       Opcode = 1
	xdgToplevelSetTitle        Opcode = 2
	xdgToplevelSetAppID        Opcode = 3
	xdgToplevelShowWindowMenu  Opcode = 4
	xdgToplevelMove            Opcode = 5
	xdgToplevelResize          Opcode = 6
	xdgToplevelSetMaxSize      Opcode = 7
	xdgToplevelSetMinSize      Opcode = 8
	xdgToplevelSetMaximized    Opcode = 9
	xdgToplevelUnsetMaximized  Opcode = 10
	xdgToplevelSetFullscreen   Opcode = 11
	xdgToplevelUnsetFullscreen Opcode = 12
	xdgToplevelSetMinimized    Opcode = 13
)

const (
	xdgToplevelEventConfigure     Opcode = 0
	xdgToplevelEventClose         Opcode = 1
	xdgToplevelEventConfigureBounds Opcode = 2 // v4
)

// xdg_toplevel.state values.
const (
	ToplevelStateMaximized  uint32 = 1
	ToplevelStateFullscreen uint32 = 2
	ToplevelStateResizing   uint32 = 3
	ToplevelStateActivated  uint32 = 4
)

// xdg_toplevel.resize_edge values. The kernel accepts xdg_toplevel.resize
// but does not forward the edge to the HostBridge.
const (
	ResizeEdgeNone       uint32 = 0
	ResizeEdgeTop        uint32 = 1
	ResizeEdgeBottom     uint32 = 2
	ResizeEdgeLeft       uint32 = 4
	ResizeEdgeTopLeft    uint32 = 5
	ResizeEdgeBottomLeft uint32 = 6
	ResizeEdgeRight      uint32 = 8
	ResizeEdgeTopRight   uint32 = 9
	ResizeEdgeBottomRight uint32 = 10
)

// xdg_popup opcodes (requests) / events.
const (
	xdgPopupDestroy     Opcode = 0
	xdgPopupGrab        Opcode = 1
	xdgPopupReposition  Opcode = 2 // v3
)

const (
	xdgPopupEventConfigure    Opcode = 0
	xdgPopupEventPopupDone    Opcode = 1
	xdgPopupEventRepositioned Opcode = 2 // v3
)

// xdg_positioner opcodes (requests).
const (
	xdgPositionerDestroy             Opcode = 0
	xdgPositionerSetSize             Opcode = 1
	xdgPositionerSetAnchorRect       Opcode = 2
	xdgPositionerSetAnchor           Opcode = 3
	xdgPositionerSetGravity          Opcode = 4
	xdgPositionerSetConstraintAdjust Opcode = 5
	xdgPositionerSetOffset           Opcode = 6
	xdgPositionerSetReactive         Opcode = 7
	xdgPositionerSetParentSize       Opcode = 8
	xdgPositionerSetParentConfigure  Opcode = 9
)

// Anchor identifies the edge/corner of the anchor rectangle a popup is
// positioned relative to.
type Anchor uint32

const (
	AnchorNone Anchor = iota
	AnchorTop
	AnchorBottom
	AnchorLeft
	AnchorRight
	AnchorTopLeft
	AnchorBottomLeft
	AnchorTopRight
	AnchorBottomRight
)

// Gravity identifies the direction a popup grows away from its anchor
// point.
type Gravity uint32

const (
	GravityNone Gravity = iota
	GravityTop
	GravityBottom
	GravityLeft
	GravityRight
	GravityTopLeft
	GravityBottomLeft
	GravityTopRight
	GravityBottomRight
)

// ConstraintAdjustment is a bitmask of the axes a popup is allowed to slide,
// flip, or resize along when it would otherwise land outside the
// constraint rectangle.
type ConstraintAdjustment uint32

const (
	ConstraintNone    ConstraintAdjustment = 0
	ConstraintSlideX  ConstraintAdjustment = 1
	ConstraintSlideY  ConstraintAdjustment = 2
	ConstraintFlipX   ConstraintAdjustment = 4
	ConstraintFlipY   ConstraintAdjustment = 8
	ConstraintResizeX ConstraintAdjustment = 16
	ConstraintResizeY ConstraintAdjustment = 32
)

// Positioner is the immutable-once-used recipe a client builds to describe
// where a popup should appear relative to its parent.
type Positioner struct {
	Size                 Size
	AnchorRect           Rect
	Anchor               Anchor
	Gravity              Gravity
	ConstraintAdjustment ConstraintAdjustment
	OffsetX, OffsetY     int32
}

// anchorPoint returns the point on the anchor rectangle the given anchor
// names.
func anchorPoint(r Rect, a Anchor) Point {
	switch a {
	case AnchorTop:
		return Point{X: r.X + r.W/2, Y: r.Y}
	case AnchorBottom:
		return Point{X: r.X + r.W/2, Y: r.Bottom()}
	case AnchorLeft:
		return Point{X: r.X, Y: r.Y + r.H/2}
	case AnchorRight:
		return Point{X: r.Right(), Y: r.Y + r.H/2}
	case AnchorTopLeft:
		return Point{X: r.X, Y: r.Y}
	case AnchorBottomLeft:
		return Point{X: r.X, Y: r.Bottom()}
	case AnchorTopRight:
		return Point{X: r.Right(), Y: r.Y}
	case AnchorBottomRight:
		return Point{X: r.Right(), Y: r.Bottom()}
	default:
		return Point{X: r.X + r.W/2, Y: r.Y + r.H/2}
	}
}

// gravityOffset returns the top-left corner of a size*-sized popup whose
// growth direction from anchor is gravity.
func gravityOffset(anchor Point, size Size, g Gravity) Rect {
	x, y := anchor.X, anchor.Y
	switch g {
	case GravityTop:
		x -= size.W / 2
		y -= size.H
	case GravityBottom:
		x -= size.W / 2
	case GravityLeft:
		x -= size.W
		y -= size.H / 2
	case GravityRight:
		y -= size.H / 2
	case GravityTopLeft:
		x -= size.W
		y -= size.H
	case GravityBottomLeft:
		x -= size.W
	case GravityTopRight:
		y -= size.H
	case GravityBottomRight:
		// anchor is already the top-left corner
	default:
		x -= size.W / 2
		y -= size.H / 2
	}
	return Rect{X: x, Y: y, W: size.W, H: size.H}
}

// Place runs the positioner placement algebra: anchor point + gravity
// placement, offset, then constraint-adjustment against bounds (the usable
// area of the output the parent surface is on). parentOrigin is the
// parent's position in the same coordinate space as bounds.
func (p Positioner) Place(parentOrigin Point, bounds Rect) Rect {
	anchorRectAbs := p.AnchorRect.Translate(parentOrigin.X, parentOrigin.Y)
	anchor := anchorPoint(anchorRectAbs, p.Anchor)
	anchor.X += p.OffsetX
	anchor.Y += p.OffsetY

	r := gravityOffset(anchor, p.Size, p.Gravity)

	if p.ConstraintAdjustment&ConstraintSlideX != 0 {
		if r.X < bounds.X {
			r.X = bounds.X
		}
		if r.Right() > bounds.Right() {
			r.X = bounds.Right() - r.W
		}
	}
	if p.ConstraintAdjustment&ConstraintSlideY != 0 {
		if r.Y < bounds.Y {
			r.Y = bounds.Y
		}
		if r.Bottom() > bounds.Bottom() {
			r.Y = bounds.Bottom() - r.H
		}
	}

	if p.ConstraintAdjustment&ConstraintFlipX != 0 && (r.X < bounds.X || r.Right() > bounds.Right()) {
		flipped := gravityOffset(anchor, p.Size, flipGravityX(p.Gravity))
		if flipped.X >= bounds.X && flipped.Right() <= bounds.Right() {
			r.X = flipped.X
		}
	}
	if p.ConstraintAdjustment&ConstraintFlipY != 0 && (r.Y < bounds.Y || r.Bottom() > bounds.Bottom()) {
		flipped := gravityOffset(anchor, p.Size, flipGravityY(p.Gravity))
		if flipped.Y >= bounds.Y && flipped.Bottom() <= bounds.Bottom() {
			r.Y = flipped.Y
		}
	}

	if p.ConstraintAdjustment&ConstraintResizeX != 0 {
		if r.X < bounds.X {
			r.W -= bounds.X - r.X
			r.X = bounds.X
		}
		if r.Right() > bounds.Right() {
			r.W = bounds.Right() - r.X
		}
	}
	if p.ConstraintAdjustment&ConstraintResizeY != 0 {
		if r.Y < bounds.Y {
			r.H -= bounds.Y - r.Y
			r.Y = bounds.Y
		}
		if r.Bottom() > bounds.Bottom() {
			r.H = bounds.Bottom() - r.Y
		}
	}

	return r
}

func flipGravityX(g Gravity) Gravity {
	switch g {
	case GravityLeft:
		return GravityRight
	case GravityRight:
		return GravityLeft
	case GravityTopLeft:
		return GravityTopRight
	case GravityTopRight:
		return GravityTopLeft
	case GravityBottomLeft:
		return GravityBottomRight
	case GravityBottomRight:
		return GravityBottomLeft
	default:
		return g
	}
}

func flipGravityY(g Gravity) Gravity {
	switch g {
	case GravityTop:
		return GravityBottom
	case GravityBottom:
		return GravityTop
	case GravityTopLeft:
		return GravityBottomLeft
	case GravityBottomLeft:
		return GravityTopLeft
	case GravityTopRight:
		return GravityBottomRight
	case GravityBottomRight:
		return GravityTopRight
	default:
		return g
	}
}

// configureState is the xdg_surface/xdg_toplevel/xdg_popup configure/ack
// state machine: unconfigured -> awaiting first ack ->
// configured.
type configureState int

const (
	stateUnconfigured configureState = iota
	stateAwaitingFirstAck
	stateConfigured
)

// ShellSurface is the xdg_surface role state attached to a kernel Surface:
// the configure/ack serial ledger plus the toplevel- or popup-specific
// fields.
type ShellSurface struct {
	id      EntityID
	surface EntityID

	mu              sync.Mutex
	state           configureState
	pendingSerial   uint32
	ackedSerial     uint32
	windowGeometry  Rect
	hasGeometry     bool

	// Toplevel fields (role == RoleToplevel).
	title, appID   string
	parent         EntityID
	minW, minH     int32
	maxW, maxH     int32
	toplevelState  map[uint32]bool

	// Popup fields (role == RolePopup).
	popupParent EntityID
	positioner  Positioner
	grabbed     bool
}

// NewShellSurface attaches xdg_surface role state to a surface.
func NewShellSurface(ids *IDRegistry, surface EntityID) *ShellSurface {
	return &ShellSurface{id: ids.Next(), surface: surface, toplevelState: make(map[uint32]bool)}
}

func (s *ShellSurface) ID() EntityID      { return s.id }
func (s *ShellSurface) Surface() EntityID { return s.surface }

// AllowBufferCommit implements ConfigureGate: a buffer may only be attached
// once the client has ack'd at least one configure.
func (s *ShellSurface) AllowBufferCommit() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state == stateConfigured
}

// Configure issues a new configure serial and marks the surface as
// awaiting acknowledgement of it.
func (s *ShellSurface) Configure(serial uint32) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pendingSerial = serial
	if s.state == stateUnconfigured {
		s.state = stateAwaitingFirstAck
	}
}

// AckConfigure validates and records a client's ack_configure. Acking an
// unknown or already-superseded serial is a protocol error.
func (s *ShellSurface) AckConfigure(serial uint32) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if serial != s.pendingSerial {
		return ErrUnknownSerial
	}
	s.ackedSerial = serial
	s.state = stateConfigured
	return nil
}

// SetWindowGeometry stages the client-declared visible window geometry,
// which clips input/shadow regions outside it.
func (s *ShellSurface) SetWindowGeometry(r Rect) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.windowGeometry = r
	s.hasGeometry = true
}

func (s *ShellSurface) WindowGeometry() (Rect, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.windowGeometry, s.hasGeometry
}

// SetTitle / Title, SetAppID / AppID: toplevel metadata.
func (s *ShellSurface) SetTitle(t string) {
	s.mu.Lock()
	s.title = t
	s.mu.Unlock()
}

func (s *ShellSurface) Title() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.title
}

func (s *ShellSurface) SetAppID(id string) {
	s.mu.Lock()
	s.appID = id
	s.mu.Unlock()
}

func (s *ShellSurface) AppID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.appID
}

// SetParent records the toplevel's declared parent (a
// set_parent tracking: acked as a no-op for stacking order, since the
// kernel has no z-order model beyond the host's own).
func (s *ShellSurface) SetParent(parent EntityID) {
	s.mu.Lock()
	s.parent = parent
	s.mu.Unlock()
}

// SetMinSize and SetMaxSize record min/max size as hints only — the kernel
// never clamps a client's committed buffer size against them, and they are
// neither passed to the HostBridge nor used in any configure event.
func (s *ShellSurface) SetMinSize(w, h int32) {
	s.mu.Lock()
	s.minW, s.minH = w, h
	s.mu.Unlock()
}

func (s *ShellSurface) SetMaxSize(w, h int32) {
	s.mu.Lock()
	s.maxW, s.maxH = w, h
	s.mu.Unlock()
}

func (s *ShellSurface) SizeHints() (minW, minH, maxW, maxH int32) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.minW, s.minH, s.maxW, s.maxH
}

// SetToplevelState / ClearToplevelState / HasToplevelState: the
// xdg_toplevel.state set sent in each configure (maximized, fullscreen,
// resizing, activated).
func (s *ShellSurface) SetToplevelState(state uint32) {
	s.mu.Lock()
	s.toplevelState[state] = true
	s.mu.Unlock()
}

func (s *ShellSurface) ClearToplevelState(state uint32) {
	s.mu.Lock()
	delete(s.toplevelState, state)
	s.mu.Unlock()
}

func (s *ShellSurface) ToplevelStates() []uint32 {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]uint32, 0, len(s.toplevelState))
	for st := range s.toplevelState {
		out = append(out, st)
	}
	return out
}

// SetPopupGeometry records a popup's parent and positioner for placement
// and future reposition requests.
func (s *ShellSurface) SetPopupGeometry(parent EntityID, positioner Positioner) {
	s.mu.Lock()
	s.popupParent = parent
	s.positioner = positioner
	s.mu.Unlock()
}

func (s *ShellSurface) PopupGeometry() (parent EntityID, positioner Positioner) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.popupParent, s.positioner
}

// SetGrabbed marks a popup as having taken an implicit input grab.
func (s *ShellSurface) SetGrabbed(g bool) {
	s.mu.Lock()
	s.grabbed = g
	s.mu.Unlock()
}

func (s *ShellSurface) Grabbed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.grabbed
}

// ShellStore tracks every xdg_surface-rooted role object.
type ShellStore struct {
	ids *IDRegistry

	mu     sync.Mutex
	shells map[EntityID]*ShellSurface // by ShellSurface id
}

// NewShellStore constructs an empty shell-role tracker.
func NewShellStore(ids *IDRegistry) *ShellStore {
	return &ShellStore{ids: ids, shells: make(map[EntityID]*ShellSurface)}
}

// CreateShellSurface registers a new xdg_surface role object for surface.
func (st *ShellStore) CreateShellSurface(surface EntityID) *ShellSurface {
	s := NewShellSurface(st.ids, surface)
	st.mu.Lock()
	st.shells[s.id] = s
	st.mu.Unlock()
	return s
}

func (st *ShellStore) Lookup(id EntityID) (*ShellSurface, bool) {
	st.mu.Lock()
	defer st.mu.Unlock()
	s, ok := st.shells[id]
	return s, ok
}

func (st *ShellStore) Destroy(s *ShellSurface) {
	st.mu.Lock()
	delete(st.shells, s.id)
	st.mu.Unlock()
}
