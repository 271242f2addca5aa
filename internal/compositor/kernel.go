package compositor

import (
	"log"
	"sync"
)

// hostCallback is a deferred host-bridge notification (window resize,
// activation, close, input) queued for the single dispatcher goroutine to
// apply (callbacks from the host bridge are dispatched on the
// same loop"). A real HostBridge implementation enqueues these from
// whatever native event-delivery mechanism it uses (an AppKit run-loop
// callback, for instance); MockHostBridge only records calls and enqueues
// nothing.
type hostCallback struct {
	apply func(k *Kernel)
}

// Kernel is the compositor's single-threaded state owner: every store in
// this package is only ever mutated from the goroutine running Run. Reader
// goroutines (one per client) and the host bridge only ever push onto
// inbound/hostEvents; they never touch kernel state directly.
type Kernel struct {
	ids     *IDRegistry
	serials *SerialCounter

	Surfaces  *SurfaceStore
	Shells    *ShellStore
	Windows   *WindowStore
	Outputs   *OutputStore
	Shm       *ShmPools
	Seat      *InputSeat
	Registry  *Registry
	LayerShell *LayerShellStore
	Screencopy *ScreencopyStore
	DataDevice *DataDeviceStore

	bridge HostBridge

	mu      sync.Mutex
	clients map[EntityID]*Client

	inbound    chan inboundMessage
	hostEvents chan hostCallback
	done       chan struct{}
}

// NewKernel wires every store together against a shared IDRegistry and
// SerialCounter, and binds the well-known globals into the registry.
func NewKernel(bridge HostBridge) *Kernel {
	ids := NewIDRegistry()
	k := &Kernel{
		ids:        ids,
		serials:    NewSerialCounter(),
		Outputs:    NewOutputStore(ids),
		Shm:        NewShmPools(ids),
		Seat:       NewInputSeat(ids),
		Registry:   NewRegistry(),
		LayerShell: NewLayerShellStore(ids),
		Screencopy: NewScreencopyStore(ids),
		DataDevice: NewDataDeviceStore(ids),
		Shells:     NewShellStore(ids),
		bridge:     bridge,
		clients:    make(map[EntityID]*Client),
		inbound:    make(chan inboundMessage, 64),
		hostEvents: make(chan hostCallback, 64),
		done:       make(chan struct{}),
	}
	k.Surfaces = NewSurfaceStore(ids, k.releaseBuffer)
	k.Windows = NewWindowStore(ids, bridge)
	k.advertiseGlobals()
	return k
}

// releaseBuffer fires wl_buffer.release to the buffer's owning client. It
// is invoked by SurfaceStore.Commit, always from the dispatcher goroutine.
func (k *Kernel) releaseBuffer(b *ShmBuffer) {
	for _, c := range k.snapshotClients() {
		if object, ok := c.ObjectFor(EntityID(b.ID())); ok {
			_ = c.Send(&Message{ObjectID: object, Opcode: bufferEventRelease})
			return
		}
	}
}

func (k *Kernel) snapshotClients() []*Client {
	k.mu.Lock()
	defer k.mu.Unlock()
	out := make([]*Client, 0, len(k.clients))
	for _, c := range k.clients {
		out = append(out, c)
	}
	return out
}

// advertiseGlobals registers every mandatory and optional global the
// kernel speaks (the advertised-versions table).
func (k *Kernel) advertiseGlobals() {
	k.Registry.Advertise(InterfaceWlCompositor, 6, k.bindCompositor)
	k.Registry.Advertise(InterfaceWlShm, 1, k.bindShm)
	k.Registry.Advertise(InterfaceWlSeat, 9, k.bindSeat)
	k.Registry.Advertise(InterfaceWlOutput, 4, k.bindOutput)
	k.Registry.Advertise(InterfaceXdgWmBase, 6, k.bindXdgWmBase)
	k.Registry.Advertise(InterfaceWlSubcompositor, 1, k.bindSubcompositor)
	k.Registry.Advertise(InterfaceWlDataDeviceManager, 3, k.bindDataDeviceManager)
	k.Registry.Advertise(InterfaceZwlrLayerShellV1, 4, k.bindLayerShell)
	k.Registry.Advertise(InterfaceZwlrScreencopyV1, 3, k.bindScreencopy)
}

// AddClient registers a freshly accepted connection and starts its reader
// goroutine. Must be called from the goroutine running Accept, not from the
// dispatcher.
func (k *Kernel) AddClient(c *Client) {
	k.mu.Lock()
	k.clients[c.id] = c
	k.mu.Unlock()
	go c.readLoop(k.inbound)
}

// ServeListener runs the accept loop for sock, registering every accepted
// connection as a new client, until Stop is called. Intended to run in its
// own goroutine alongside Run.
func (k *Kernel) ServeListener(sock *ListenSocket) {
	for {
		conn, err := sock.Accept()
		if err != nil {
			select {
			case <-k.done:
				return
			default:
				log.Printf("compositor: accept: %v", err)
				continue
			}
		}
		k.AddClient(newClient(k.NextEntityID(), conn))
	}
}

// EnqueueHostEvent lets a HostBridge push a deferred callback onto the
// single dispatcher loop. Safe to call from any goroutine.
func (k *Kernel) EnqueueHostEvent(apply func(k *Kernel)) {
	select {
	case k.hostEvents <- hostCallback{apply: apply}:
	case <-k.done:
	}
}

// NextSerial issues the next configure/focus/input serial.
func (k *Kernel) NextSerial() uint32 { return k.serials.Next() }

// NextEntityID issues the next kernel entity identity, for protocol objects
// (regions, callbacks) that don't have a dedicated store.
func (k *Kernel) NextEntityID() EntityID { return k.ids.Next() }

// Run is the kernel's single dispatcher loop: it drains inbound
// wire messages and deferred host callbacks, one at a time, never
// processing more than one client request before returning to select.
// It exits when done is closed.
func (k *Kernel) Run() {
	for {
		select {
		case in := <-k.inbound:
			k.handleInbound(in)
		case ev := <-k.hostEvents:
			ev.apply(k)
		case <-k.done:
			return
		}
	}
}

// Stop signals Run to exit and closes every connected client.
func (k *Kernel) Stop() {
	close(k.done)
	for _, c := range k.snapshotClients() {
		k.disconnectClient(c)
	}
}

func (k *Kernel) handleInbound(in inboundMessage) {
	if in.err != nil {
		log.Printf("compositor: client %d: %v", in.client.id, in.err)
		k.disconnectClient(in.client)
		return
	}
	if err := k.dispatch(in.client, &in.msg); err != nil {
		if perr, ok := err.(*ProtocolError); ok {
			k.sendProtocolError(in.client, perr)
		} else {
			log.Printf("compositor: client %d: dispatch: %v", in.client.id, err)
		}
		k.disconnectClient(in.client)
	}
}

// sendProtocolError emits wl_display.error and marks the client for
// disconnection (per-client, recoverable by disconnecting only
// that client).
func (k *Kernel) sendProtocolError(c *Client, perr *ProtocolError) {
	e := NewEncoder(64)
	e.PutObject(perr.Object)
	e.PutUint32(uint32(perr.Code))
	e.PutString(perr.Message)
	_ = c.Send(&Message{ObjectID: displayObjectID, Opcode: displayEventError, Args: e.Bytes()})
}

// disconnectClient cancels every outstanding resource owned by c (
// "Cancellation"): surfaces, windows, focus, and the connection itself.
// Idempotent.
func (k *Kernel) disconnectClient(c *Client) {
	k.mu.Lock()
	_, tracked := k.clients[c.id]
	delete(k.clients, c.id)
	k.mu.Unlock()
	if !tracked {
		return
	}
	_ = c.Close()

	c.mu.Lock()
	var surfaces []EntityID
	for _, b := range c.objects {
		if b.iface == "wl_surface" {
			surfaces = append(surfaces, b.entity)
		}
	}
	c.mu.Unlock()
	for _, id := range surfaces {
		if s, ok := k.Surfaces.Lookup(id); ok {
			k.destroySurface(c, s)
		}
	}
}
