package compositor

import (
	"encoding/binary"
	"errors"
	"fmt"
	"net"
	"sync"

	"golang.org/x/sys/unix"
)

// inboundMessage couples a decoded wire message with the client it arrived
// from, so the kernel's single dispatcher goroutine can demux without ever
// touching per-connection state directly: no kernel data structure is
// accessed from any other thread.
type inboundMessage struct {
	client *Client
	msg    Message
	err    error
}

// Client is one connected peer's object table and I/O state. Every field
// that the dispatcher goroutine touches is owned exclusively by it once the
// client is registered; only the reader goroutine and Send touch the
// connection itself, under mu.
type Client struct {
	id   EntityID
	conn *net.UnixConn

	mu     sync.Mutex
	closed bool

	// objects maps a client-local protocol ObjectID to the EntityID of the
	// kernel entity it names. This mapping lives only here, per client; it
	// is never exposed or looked up globally.
	objects map[ObjectID]boundObject

	// reverse index: an entity can be looked up by the client's object id
	// that currently names it, for event delivery.
	byEntity map[EntityID]ObjectID

	regionsOnce sync.Once
	regionsTracker *regionTracker

	positionersOnce sync.Once
	positionersTable map[EntityID]*positionerState
}

// regions returns the client's wl_region tracker, created lazily on first
// use since most clients create few or no regions.
func (c *Client) regions() *regionTracker {
	c.regionsOnce.Do(func() { c.regionsTracker = newRegionTracker() })
	return c.regionsTracker
}

// positioners returns the client's xdg_positioner table, created lazily.
// Access is always from the single dispatcher goroutine, so no mutex is
// needed here the way regionTracker needs one for its rectangle map.
func (c *Client) positioners() map[EntityID]*positionerState {
	c.positionersOnce.Do(func() { c.positionersTable = make(map[EntityID]*positionerState) })
	return c.positionersTable
}

// boundObject names the kernel entity and protocol interface a client's
// object id currently refers to.
type boundObject struct {
	entity  EntityID
	iface   string
	version uint32
}

const displayObjectID ObjectID = 1

func newClient(id EntityID, conn *net.UnixConn) *Client {
	c := &Client{
		id:       id,
		conn:     conn,
		objects:  make(map[ObjectID]boundObject),
		byEntity: make(map[EntityID]ObjectID),
	}
	c.objects[displayObjectID] = boundObject{entity: EntityID(id), iface: "wl_display", version: 1}
	return c
}

// ID returns the client's kernel identity.
func (c *Client) ID() EntityID { return c.id }

// Bind records that object names entity as the given interface/version.
func (c *Client) Bind(object ObjectID, entity EntityID, iface string, version uint32) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.objects[object] = boundObject{entity: entity, iface: iface, version: version}
	c.byEntity[entity] = object
}

// Unbind removes an object id, e.g. on wl_display.delete_id after a request
// like xdg_surface.destroy.
func (c *Client) Unbind(object ObjectID) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if b, ok := c.objects[object]; ok {
		delete(c.byEntity, b.entity)
		delete(c.objects, object)
	}
}

// Resolve maps a wire object id to the kernel entity it currently names.
func (c *Client) Resolve(object ObjectID) (EntityID, string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	b, ok := c.objects[object]
	return b.entity, b.iface, ok
}

// ObjectFor returns the client's current object id for an entity, if bound.
func (c *Client) ObjectFor(entity EntityID) (ObjectID, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	id, ok := c.byEntity[entity]
	return id, ok
}

// Send writes an event to the client, passing fds via SCM_RIGHTS when
// present. Encoding and the syscall both happen under mu so concurrent
// event sends (from input dispatch and frame presentation) never interleave
// on the wire.
func (c *Client) Send(msg *Message) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return ErrClientGone
	}

	data, err := EncodeMessage(msg)
	if err != nil {
		return err
	}

	if len(msg.FDs) > 0 {
		f, err := c.conn.File()
		if err != nil {
			return fmt.Errorf("compositor: client send fd: %w", err)
		}
		defer f.Close()
		rights := unix.UnixRights(msg.FDs...)
		return unix.Sendmsg(int(f.Fd()), data, rights, nil, 0)
	}

	_, err = c.conn.Write(data)
	return err
}

// Close tears down the connection. Safe to call multiple times.
func (c *Client) Close() error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}
	c.closed = true
	c.mu.Unlock()
	return c.conn.Close()
}

// readLoop is the one goroutine per connection the kernel runs, an
// idiomatic-Go alternative to a raw epoll loop: it only reads and decodes,
// and forwards every message — or the terminal read error — to inbound, so
// all kernel-state mutation still happens on the single dispatcher
// goroutine that drains that channel.
func (c *Client) readLoop(inbound chan<- inboundMessage) {
	raw, err := c.conn.File()
	if err != nil {
		inbound <- inboundMessage{client: c, err: fmt.Errorf("compositor: client raw fd: %w", err)}
		return
	}
	defer raw.Close()
	fd := int(raw.Fd())

	header := make([]byte, headerSize)
	for {
		n, oobn, oob, err := readMessageHeader(fd, header)
		if err != nil {
			inbound <- inboundMessage{client: c, err: err}
			return
		}
		if n == 0 {
			inbound <- inboundMessage{client: c, err: ErrClientGone}
			return
		}
		if n < headerSize {
			inbound <- inboundMessage{client: c, err: ErrMessageTooSmall}
			return
		}

		msg, fds, err := decodeFull(fd, header, oob[:oobn])
		if err != nil {
			inbound <- inboundMessage{client: c, err: err}
			return
		}
		msg.FDs = fds
		inbound <- inboundMessage{client: c, msg: *msg}
	}
}

// readMessageHeader performs the first recvmsg of a message, reading at
// least the 8-byte header plus any ancillary fds that arrived with it.
func readMessageHeader(fd int, header []byte) (n, oobn int, oob []byte, err error) {
	oob = make([]byte, 256)
	n, oobn, _, _, err = unix.Recvmsg(fd, header, oob, 0)
	if err != nil {
		if errors.Is(err, unix.EAGAIN) || errors.Is(err, unix.EWOULDBLOCK) {
			return 0, 0, nil, ErrBackpressure
		}
		return 0, 0, nil, fmt.Errorf("compositor: recvmsg header: %w", err)
	}
	return n, oobn, oob, nil
}

// decodeFull reads the remainder of a message body (size carried in the
// header already read) and returns the decoded message plus any fds parsed
// out of the ancillary data delivered with the header read.
func decodeFull(fd int, header []byte, oob []byte) (*Message, []int, error) {
	if len(header) < headerSize {
		return nil, nil, ErrMessageTooSmall
	}
	objectID := binary.LittleEndian.Uint32(header[0:4])
	opcodeSize := binary.LittleEndian.Uint32(header[4:8])
	opcode := uint16(opcodeSize & 0xffff)
	size := opcodeSize >> 16

	if size < headerSize {
		return nil, nil, ErrMessageTooSmall
	}
	if size > maxMessageSize {
		return nil, nil, ErrMessageTooLarge
	}

	body := make([]byte, size-headerSize)
	if len(body) > 0 {
		nRead, err := readFull(fd, body)
		if err != nil {
			return nil, nil, err
		}
		if nRead != len(body) {
			return nil, nil, ErrUnexpectedEOF
		}
	}

	fds, err := parseFileDescriptors(oob)
	if err != nil {
		return nil, nil, err
	}

	return &Message{ObjectID: ObjectID(objectID), Opcode: Opcode(opcode), Args: body}, fds, nil
}

func readFull(fd int, buf []byte) (int, error) {
	total := 0
	for total < len(buf) {
		n, err := unix.Read(fd, buf[total:])
		if err != nil {
			if errors.Is(err, unix.EINTR) {
				continue
			}
			return total, fmt.Errorf("compositor: read message body: %w", err)
		}
		if n == 0 {
			return total, ErrUnexpectedEOF
		}
		total += n
	}
	return total, nil
}

// parseFileDescriptors extracts fds from SCM_RIGHTS ancillary data.
func parseFileDescriptors(oob []byte) ([]int, error) {
	if len(oob) == 0 {
		return nil, nil
	}
	scms, err := unix.ParseSocketControlMessage(oob)
	if err != nil {
		return nil, fmt.Errorf("compositor: parse control message: %w", err)
	}
	var fds []int
	for _, scm := range scms {
		if scm.Header.Level != unix.SOL_SOCKET || scm.Header.Type != unix.SCM_RIGHTS {
			continue
		}
		got, err := unix.ParseUnixRights(&scm)
		if err != nil {
			return nil, fmt.Errorf("compositor: parse unix rights: %w", err)
		}
		fds = append(fds, got...)
	}
	return fds, nil
}
