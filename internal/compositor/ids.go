package compositor

import "sync/atomic"

// EntityID is a process-unique, opaque, 64-bit identity for a long-lived
// kernel entity (surface, window, buffer, pool, output, data offer, layer
// surface, screencopy frame). Entity identities are never reused and are
// distinct from the per-client 32-bit protocol ObjectIDs that WireDispatch
// maps them to.
type EntityID uint64

// IDRegistry allocates EntityIDs. It is a kernel field, not a package
// global, so independent Kernel instances (as tests construct) never share
// identity space.
type IDRegistry struct {
	next atomic.Uint64
}

// NewIDRegistry returns a registry whose first allocation is 1; zero is
// reserved as the "no entity" sentinel.
func NewIDRegistry() *IDRegistry {
	r := &IDRegistry{}
	r.next.Store(1)
	return r
}

// Next allocates and returns the next EntityID.
func (r *IDRegistry) Next() EntityID {
	return EntityID(r.next.Add(1) - 1)
}

// SerialCounter is the process-wide monotonic 32-bit serial source used for
// configure events, focus changes, and input events requiring
// acknowledgement. It wraps per the Wayland wire format's uint width.
type SerialCounter struct {
	next atomic.Uint32
}

// NewSerialCounter returns a counter whose first issued serial is 1 (0 is
// not issued until the counter wraps, so callers use it as an "unset"
// sentinel).
func NewSerialCounter() *SerialCounter {
	c := &SerialCounter{}
	c.next.Store(1)
	return c
}

// Next allocates and returns the next serial, wrapping mod 2^32.
func (c *SerialCounter) Next() uint32 {
	return c.next.Add(1) - 1
}

// SerialLess reports whether a was issued strictly before b, accounting for
// 32-bit wraparound (comparison is done in the same way TCP sequence numbers
// are compared).
func SerialLess(a, b uint32) bool {
	return int32(a-b) < 0
}
