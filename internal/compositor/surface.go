package compositor

import (
	"sync"
)

// wl_compositor opcodes (requests).
const (
	compositorCreateSurface Opcode = 0
	compositorCreateRegion  Opcode = 1
)

// wl_surface opcodes (requests).
const (
	surfaceDestroy            Opcode = 0
	surfaceAttach             Opcode = 1
	surfaceDamage             Opcode = 2
	surfaceFrame              Opcode = 3
	surfaceSetOpaqueRegion    Opcode = 4
	surfaceSetInputRegion     Opcode = 5
	surfaceCommit             Opcode = 6
	surfaceSetBufferTransform Opcode = 7 // v2
	surfaceSetBufferScale     Opcode = 8 // v3
	surfaceDamageBuffer       Opcode = 9 // v4
	surfaceOffset             Opcode = 10 // v5
)

// wl_surface event opcodes.
const (
	surfaceEventEnter Opcode = 0
	surfaceEventLeave Opcode = 1
)

const (
	callbackEventDone Opcode = 0
)

// Role is the fixed semantic kind of a surface. Once assigned to anything
// other than RoleNone it never changes.
type Role int

const (
	RoleNone Role = iota
	RoleToplevel
	RolePopup
	RoleSubsurface
	RoleCursor
	RoleLayer
)

func (r Role) String() string {
	switch r {
	case RoleNone:
		return "none"
	case RoleToplevel:
		return "xdg_toplevel"
	case RolePopup:
		return "xdg_popup"
	case RoleSubsurface:
		return "subsurface"
	case RoleCursor:
		return "cursor"
	case RoleLayer:
		return "layer"
	default:
		return "unknown"
	}
}

// surfaceState is the double-buffered field set every surface carries. Per
// leaving "touched vs. untouched" ambiguous in the wire protocol itself, scale/transform use an explicit
// "touched" flag rather than a sentinel value, so a client resetting to the
// default is distinguishable from a client that never touched the field.
type surfaceState struct {
	bufferTouched bool
	buffer        *ShmBuffer // nil is a valid "detach" value when bufferTouched

	damage       DamageList // surface-coordinate damage, pending
	damageBuffer DamageList // buffer-coordinate damage, pending

	scaleTouched     bool
	scale            int32
	transformTouched bool
	transform        int32

	opaqueRegion Rect
	inputRegion  Rect
	hasInput     bool

	offsetX, offsetY int32

	frameCallbacks []EntityID
}

func newSurfaceState() surfaceState {
	return surfaceState{scale: 1}
}

// Surface is a kernel entity: an optional current buffer, damage, role, and
// parent/child links (by identity, never direct references).
type Surface struct {
	id EntityID

	mu sync.Mutex

	role       Role
	toplevel   EntityID // valid when role == RoleToplevel
	popup      EntityID // valid when role == RolePopup
	layer      EntityID // valid when role == RoleLayer
	parent     EntityID // 0 if none
	children   map[EntityID]bool

	current surfaceState
	pending surfaceState

	lastScale     int32
	lastTransform int32

	enteredOutputs map[EntityID]bool

	destroyed bool
}

func newSurface(id EntityID) *Surface {
	return &Surface{
		id:             id,
		children:       make(map[EntityID]bool),
		current:        newSurfaceState(),
		pending:        newSurfaceState(),
		lastScale:      1,
		enteredOutputs: make(map[EntityID]bool),
	}
}

// ID returns the surface's kernel identity.
func (s *Surface) ID() EntityID { return s.id }

// Role returns the surface's current role under lock.
func (s *Surface) Role() Role {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.role
}

// CurrentBuffer returns the surface's current buffer, or nil.
func (s *Surface) CurrentBuffer() *ShmBuffer {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current.buffer
}

// ReleaseCallback is invoked, exactly once per buffer transition, when a
// buffer stops being any surface's current content.
type ReleaseCallback func(b *ShmBuffer)

// SurfaceStore owns every surface by identity. Its Commit returns the
// frame-callback ids moved into the ready-to-fire list; the kernel fires
// them with a millisecond timestamp once the commit has been applied.
type SurfaceStore struct {
	ids *IDRegistry

	mu       sync.Mutex
	surfaces map[EntityID]*Surface

	onRelease ReleaseCallback
}

// NewSurfaceStore constructs an empty SurfaceStore. onRelease is invoked
// whenever a buffer is no longer current on any surface.
func NewSurfaceStore(ids *IDRegistry, onRelease ReleaseCallback) *SurfaceStore {
	return &SurfaceStore{
		ids:       ids,
		surfaces:  make(map[EntityID]*Surface),
		onRelease: onRelease,
	}
}

// CreateSurface allocates and registers a new surface with role RoleNone.
func (st *SurfaceStore) CreateSurface() *Surface {
	s := newSurface(st.ids.Next())
	st.mu.Lock()
	st.surfaces[s.id] = s
	st.mu.Unlock()
	return s
}

// Lookup returns a surface by identity.
func (st *SurfaceStore) Lookup(id EntityID) (*Surface, bool) {
	st.mu.Lock()
	defer st.mu.Unlock()
	s, ok := st.surfaces[id]
	return s, ok
}

// AssignRole sets a surface's role exactly once: the role
// is either RoleNone or equal to every prior non-None assignment.
func (s *Surface) AssignRole(role Role) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.role != RoleNone && s.role != role {
		return ErrRoleConflict
	}
	s.role = role
	return nil
}

// SetParent records a parent link by identity (popups, subsurfaces).
func (s *Surface) SetParent(parent EntityID) {
	s.mu.Lock()
	s.parent = parent
	s.mu.Unlock()
}

func (s *Surface) Parent() EntityID {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.parent
}

func (s *Surface) addChild(id EntityID) {
	s.mu.Lock()
	s.children[id] = true
	s.mu.Unlock()
}

func (s *Surface) removeChild(id EntityID) {
	s.mu.Lock()
	delete(s.children, id)
	s.mu.Unlock()
}

// Children returns a snapshot of child surface identities, for bottom-up
// destruction.
func (s *Surface) Children() []EntityID {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]EntityID, 0, len(s.children))
	for id := range s.children {
		out = append(out, id)
	}
	return out
}

// Attach stages a buffer attachment in pending state. A nil buffer is a
// legal explicit detach and still marks the slot touched.
func (s *Surface) Attach(b *ShmBuffer) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pending.bufferTouched = true
	s.pending.buffer = b
}

// Damage stages surface-coordinate damage.
func (s *Surface) Damage(r Rect) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pending.damage.Add(r)
}

// DamageBuffer stages buffer-coordinate damage.
func (s *Surface) DamageBuffer(r Rect) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pending.damageBuffer.Add(r)
}

// Frame stages a one-shot frame-callback id to fire on a future presented
// commit.
func (s *Surface) Frame(callback EntityID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pending.frameCallbacks = append(s.pending.frameCallbacks, callback)
}

// SetOpaqueRegion / SetInputRegion stage the named regions.
func (s *Surface) SetOpaqueRegion(r Rect) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pending.opaqueRegion = r
}

func (s *Surface) SetInputRegion(r Rect, has bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pending.inputRegion = r
	s.pending.hasInput = has
}

// SetBufferScale / SetBufferTransform stage their fields with the touched
// flag set, per Open Question (a).
func (s *Surface) SetBufferScale(scale int32) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pending.scaleTouched = true
	s.pending.scale = scale
}

func (s *Surface) SetBufferTransform(transform int32) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pending.transformTouched = true
	s.pending.transform = transform
}

// SetOffset stages a wl_surface.offset (v5+) applied atomically with attach.
func (s *Surface) SetOffset(x, y int32) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pending.offsetX = x
	s.pending.offsetY = y
}

// ConfigureGate lets a role layer (xdg_surface today) veto a commit that
// would violate its own state machine — e.g. a buffer commit before the
// first ack_configure.
type ConfigureGate interface {
	// AllowBufferCommit reports whether a non-null buffer may be committed
	// right now.
	AllowBufferCommit() bool
}

// Commit performs the atomic pending->current transition.
// gate, if non-nil, is consulted before a buffer-bearing commit is allowed
// through. ready receives the frame-callback ids moved to the ready list.
func (s *Surface) Commit(gate ConfigureGate) (ready []EntityID, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.pending.bufferTouched && s.pending.buffer != nil && gate != nil && !gate.AllowBufferCommit() {
		return nil, ErrNotConfigured
	}

	var released *ShmBuffer
	if s.pending.bufferTouched {
		if s.current.buffer != nil && s.current.buffer != s.pending.buffer {
			released = s.current.buffer
		}
		s.current.buffer = s.pending.buffer
		s.current.bufferTouched = true
		s.pending.bufferTouched = false
		s.pending.buffer = nil
	}

	s.current.damage.Merge(s.pending.damage)
	s.pending.damage.Clear()
	s.current.damageBuffer.Merge(s.pending.damageBuffer)
	s.pending.damageBuffer.Clear()

	if s.pending.scaleTouched {
		s.current.scale = s.pending.scale
		s.current.scaleTouched = true
		s.pending.scaleTouched = false
	}
	if s.pending.transformTouched {
		s.current.transform = s.pending.transform
		s.current.transformTouched = true
		s.pending.transformTouched = false
	}
	s.current.opaqueRegion = s.pending.opaqueRegion
	s.current.inputRegion = s.pending.inputRegion
	s.current.hasInput = s.pending.hasInput
	s.current.offsetX, s.current.offsetY = s.pending.offsetX, s.pending.offsetY
	s.pending.offsetX, s.pending.offsetY = 0, 0

	ready = s.pending.frameCallbacks
	s.pending.frameCallbacks = nil

	if released != nil {
		// The deferred Unlock runs before SurfaceStore.Commit calls
		// onRelease, so the callback never runs under this surface's lock.
		return ready, &releasedBuffer{buffer: released}
	}
	return ready, nil
}

// releasedBuffer is an internal sentinel error type SurfaceStore.Commit
// unwraps to fire the release callback after reacquiring no locks; it is
// never surfaced to a caller outside this package.
type releasedBuffer struct{ buffer *ShmBuffer }

func (e *releasedBuffer) Error() string { return "internal: buffer released" }

// Commit runs Surface.Commit and, if a buffer was released, invokes the
// store's release callback exactly once for it, after the surface's lock
// has been released.
func (st *SurfaceStore) Commit(s *Surface, gate ConfigureGate) ([]EntityID, error) {
	ready, err := s.Commit(gate)
	if err == nil {
		return ready, nil
	}
	if rel, ok := err.(*releasedBuffer); ok {
		if st.onRelease != nil {
			st.onRelease(rel.buffer)
		}
		return ready, nil
	}
	return ready, err
}

// TakeDamage returns the surface's accumulated current damage (for HostBridge
// upload/present), and clears it — damage is a per-presentation-cycle
// signal, not part of persistent current state.
func (s *Surface) TakeDamage() []Rect {
	s.mu.Lock()
	defer s.mu.Unlock()
	rects := append(s.current.damage.Rects(), s.current.damageBuffer.Rects()...)
	s.current.damage.Clear()
	s.current.damageBuffer.Clear()
	return rects
}

// Scale / Transform return the surface's current (non-pending) values.
func (s *Surface) Scale() int32 {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.current.scale < 1 {
		return 1
	}
	return s.current.scale
}

func (s *Surface) Transform() int32 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current.transform
}

// Destroy marks a surface destroyed; callers are responsible for cascading
// into WindowStore/InputSeat/buffer-release.
func (s *Surface) Destroy() *ShmBuffer {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.destroyed = true
	b := s.current.buffer
	s.current.buffer = nil
	return b
}

// DestroySurface removes the surface from the store and, if it held a
// current buffer, fires the release callback for it.
func (st *SurfaceStore) DestroySurface(s *Surface) {
	st.mu.Lock()
	delete(st.surfaces, s.id)
	st.mu.Unlock()

	if b := s.Destroy(); b != nil && st.onRelease != nil {
		st.onRelease(b)
	}
}
