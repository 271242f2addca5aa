package compositor

import "sync"

// wl_output event opcodes.
const (
	outputEventGeometry Opcode = 0
	outputEventMode     Opcode = 1
	outputEventDone     Opcode = 2
	outputEventScale    Opcode = 3
)

// wl_output.mode flag bits.
const (
	outputModeCurrent   uint32 = 0x1
	outputModePreferred uint32 = 0x2
)

// OutputMode is one video mode an output can report.
type OutputMode struct {
	Width, Height int32
	RefreshMilliHz int32
}

// Output is a kernel entity describing one physical display. Windows record
// the output they are assigned to; removing an output does not reassign
// its windows.
type Output struct {
	id EntityID

	mu        sync.Mutex
	name      string
	x, y      int32
	mode      OutputMode
	scale     int32
	primary   bool
}

// OutputStore tracks the set of outputs and enforces the primary-output
// rule: exactly one output is primary whenever the set is non-empty.
type OutputStore struct {
	ids *IDRegistry

	mu      sync.Mutex
	outputs map[EntityID]*Output
	order   []EntityID // insertion order, for deterministic primary fallback
}

// NewOutputStore constructs an empty output tracker.
func NewOutputStore(ids *IDRegistry) *OutputStore {
	return &OutputStore{ids: ids, outputs: make(map[EntityID]*Output)}
}

// AddOutput registers a new output. The first output added becomes primary;
// later ones do not, until the primary is removed.
func (st *OutputStore) AddOutput(name string, x, y int32, mode OutputMode, scale int32) *Output {
	o := &Output{id: st.ids.Next(), name: name, x: x, y: y, mode: mode, scale: scale}

	st.mu.Lock()
	defer st.mu.Unlock()
	o.primary = len(st.outputs) == 0
	st.outputs[o.id] = o
	st.order = append(st.order, o.id)
	return o
}

// RemoveOutput unregisters an output. If it was primary, the
// earliest-added remaining output (if any) is promoted.
func (st *OutputStore) RemoveOutput(id EntityID) (promoted *Output) {
	st.mu.Lock()
	defer st.mu.Unlock()

	o, ok := st.outputs[id]
	if !ok {
		return nil
	}
	wasPrimary := o.primary
	delete(st.outputs, id)
	for i, oid := range st.order {
		if oid == id {
			st.order = append(st.order[:i], st.order[i+1:]...)
			break
		}
	}
	if !wasPrimary {
		return nil
	}
	for _, oid := range st.order {
		if next, ok := st.outputs[oid]; ok {
			next.mu.Lock()
			next.primary = true
			next.mu.Unlock()
			return next
		}
	}
	return nil
}

// Primary returns the current primary output, if any.
func (st *OutputStore) Primary() (*Output, bool) {
	st.mu.Lock()
	defer st.mu.Unlock()
	for _, id := range st.order {
		if o, ok := st.outputs[id]; ok && o.primary {
			return o, true
		}
	}
	return nil, false
}

// Snapshot returns every tracked output.
func (st *OutputStore) Snapshot() []*Output {
	st.mu.Lock()
	defer st.mu.Unlock()
	out := make([]*Output, 0, len(st.outputs))
	for _, id := range st.order {
		if o, ok := st.outputs[id]; ok {
			out = append(out, o)
		}
	}
	return out
}

func (o *Output) ID() EntityID { return o.id }

func (o *Output) Geometry() (x, y int32) {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.x, o.y
}

func (o *Output) Mode() OutputMode {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.mode
}

func (o *Output) Scale() int32 {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.scale
}

func (o *Output) Name() string {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.name
}

func (o *Output) IsPrimary() bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.primary
}
