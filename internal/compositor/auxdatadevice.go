package compositor

import "sync"

// wl_data_device_manager opcodes (requests).
const (
	dataDeviceManagerCreateDataSource Opcode = 0
	dataDeviceManagerGetDataDevice    Opcode = 1
)

// wl_data_source opcodes (requests) / events.
const (
	dataSourceOffer  Opcode = 0
	dataSourceDestroy Opcode = 1
	dataSourceSetActions Opcode = 2 // v3
)

const (
	dataSourceEventTarget Opcode = 0
	dataSourceEventSend   Opcode = 1
	dataSourceEventCancelled Opcode = 2
	dataSourceEventDndDropPerformed Opcode = 3 // v3
	dataSourceEventDndFinished      Opcode = 4 // v3
	dataSourceEventAction           Opcode = 5 // v3
)

// wl_data_device opcodes (requests) / events.
const (
	dataDeviceStartDrag  Opcode = 0
	dataDeviceSetSelection Opcode = 1
)

const (
	dataDeviceEventDataOffer Opcode = 0
	dataDeviceEventEnter     Opcode = 1
	dataDeviceEventLeave     Opcode = 2
	dataDeviceEventMotion    Opcode = 3
	dataDeviceEventDrop      Opcode = 4
	dataDeviceEventSelection Opcode = 5
)

// wl_data_offer opcodes (requests) / events.
const (
	dataOfferAccept      Opcode = 0
	dataOfferReceive     Opcode = 1
	dataOfferDestroy     Opcode = 2
	dataOfferFinish      Opcode = 3 // v3
	dataOfferSetActions  Opcode = 4 // v3
)

const (
	dataOfferEventOffer       Opcode = 0
	dataOfferEventSourceActions Opcode = 1 // v3
	dataOfferEventAction        Opcode = 2 // v3
)

// DndAction is a bitmask of drag-and-drop actions, matching
// wl_data_device_manager.dnd_action.
type DndAction uint32

const (
	DndActionNone DndAction = 0
	DndActionCopy DndAction = 1
	DndActionMove DndAction = 2
	DndActionAsk  DndAction = 4
)

// DataSource is a client-offered clipboard or drag-and-drop payload: a set
// of MIME types and the DnD actions the source supports.
type DataSource struct {
	id EntityID

	mu          sync.Mutex
	mimeTypes   []string
	actions     DndAction
	cancelled   bool
}

func NewDataSource(ids *IDRegistry) *DataSource {
	return &DataSource{id: ids.Next()}
}

func (s *DataSource) ID() EntityID { return s.id }

func (s *DataSource) Offer(mime string) {
	s.mu.Lock()
	s.mimeTypes = append(s.mimeTypes, mime)
	s.mu.Unlock()
}

func (s *DataSource) SetActions(a DndAction) {
	s.mu.Lock()
	s.actions = a
	s.mu.Unlock()
}

func (s *DataSource) MimeTypes() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, len(s.mimeTypes))
	copy(out, s.mimeTypes)
	return out
}

func (s *DataSource) Actions() DndAction {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.actions
}

func (s *DataSource) Cancel() {
	s.mu.Lock()
	s.cancelled = true
	s.mu.Unlock()
}

// DataOffer is the receiver-side handle to a DataSource, created fresh for
// every surface the source is offered to. It negotiates its own accepted
// MIME type and action independent of other offers of the same source.
type DataOffer struct {
	id     EntityID
	source *DataSource

	mu              sync.Mutex
	acceptedMime    string
	receiverActions DndAction
	chosenAction    DndAction
}

func NewDataOffer(ids *IDRegistry, source *DataSource) *DataOffer {
	return &DataOffer{id: ids.Next(), source: source}
}

func (o *DataOffer) ID() EntityID      { return o.id }
func (o *DataOffer) Source() *DataSource { return o.source }

func (o *DataOffer) Accept(mime string) {
	o.mu.Lock()
	o.acceptedMime = mime
	o.mu.Unlock()
}

func (o *DataOffer) SetReceiverActions(a DndAction) {
	o.mu.Lock()
	o.receiverActions = a
	o.mu.Unlock()
}

// NegotiateAction picks the intersection of source and receiver action
// masks, honouring the receiver's single preferred action if it is in the
// intersection, else falling back to copy, then move, then ask, in that
// order.
func (o *DataOffer) NegotiateAction(preferred DndAction) DndAction {
	o.mu.Lock()
	defer o.mu.Unlock()
	intersection := o.source.Actions() & o.receiverActions

	if preferred != DndActionNone && intersection&preferred != 0 {
		o.chosenAction = preferred
		return preferred
	}
	for _, candidate := range [...]DndAction{DndActionCopy, DndActionMove, DndActionAsk} {
		if intersection&candidate != 0 {
			o.chosenAction = candidate
			return candidate
		}
	}
	o.chosenAction = DndActionNone
	return DndActionNone
}

func (o *DataOffer) ChosenAction() DndAction {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.chosenAction
}

// DataDeviceStore tracks data sources, per-surface offers, and the current
// clipboard selection source.
type DataDeviceStore struct {
	ids *IDRegistry

	mu        sync.Mutex
	sources   map[EntityID]*DataSource
	offers    map[EntityID]*DataOffer
	selection *DataSource
}

func NewDataDeviceStore(ids *IDRegistry) *DataDeviceStore {
	return &DataDeviceStore{
		ids:     ids,
		sources: make(map[EntityID]*DataSource),
		offers:  make(map[EntityID]*DataOffer),
	}
}

func (st *DataDeviceStore) CreateSource() *DataSource {
	s := NewDataSource(st.ids)
	st.mu.Lock()
	st.sources[s.id] = s
	st.mu.Unlock()
	return s
}

func (st *DataDeviceStore) CreateOffer(source *DataSource) *DataOffer {
	o := NewDataOffer(st.ids, source)
	st.mu.Lock()
	st.offers[o.id] = o
	st.mu.Unlock()
	return o
}

// SetSelection replaces the clipboard selection source, cancelling the
// previous one if any.
func (st *DataDeviceStore) SetSelection(s *DataSource) {
	st.mu.Lock()
	prev := st.selection
	st.selection = s
	st.mu.Unlock()
	if prev != nil && prev != s {
		prev.Cancel()
	}
}

func (st *DataDeviceStore) Selection() *DataSource {
	st.mu.Lock()
	defer st.mu.Unlock()
	return st.selection
}

func (st *DataDeviceStore) DestroySource(s *DataSource) {
	st.mu.Lock()
	delete(st.sources, s.id)
	if st.selection == s {
		st.selection = nil
	}
	st.mu.Unlock()
}

func (st *DataDeviceStore) DestroyOffer(o *DataOffer) {
	st.mu.Lock()
	delete(st.offers, o.id)
	st.mu.Unlock()
}
