package compositor

import "errors"

// Sentinel errors for conditions the kernel itself can raise outside the
// per-client protocol error path (see ProtocolError below).
var (
	ErrPoolShrink       = errors.New("compositor: shm pool cannot shrink")
	ErrPoolTooSmall     = errors.New("compositor: buffer geometry exceeds pool size")
	ErrBadStride        = errors.New("compositor: stride too small for width/format")
	ErrRoleConflict     = errors.New("compositor: surface already has a different role")
	ErrUnknownSerial    = errors.New("compositor: ack_configure of unknown or superseded serial")
	ErrNotConfigured    = errors.New("compositor: commit with buffer before initial ack_configure")
	ErrUnknownObject    = errors.New("compositor: invalid object id")
	ErrUnknownGlobal    = errors.New("compositor: unknown global interface")
	ErrVersionTooHigh   = errors.New("compositor: requested version exceeds global version")
	ErrNoKeyboardFocus  = errors.New("compositor: no surface has keyboard focus")
	ErrNoPointerFocus   = errors.New("compositor: no surface has pointer focus")
	ErrSocketInUse      = errors.New("compositor: no free wayland-N socket name")
	ErrClientGone       = errors.New("compositor: client connection closed")
	ErrBackpressure     = errors.New("compositor: client write buffer exceeded retry budget")
)

// ProtocolErrorCode identifies a wl_display.error / xdg_wm_base.error-style
// per-object error code. The numeric values below follow wayland.xml and
// xdg-shell.xml so a real client library decodes them correctly.
type ProtocolErrorCode uint32

const (
	ErrCodeInvalidObject  ProtocolErrorCode = 0
	ErrCodeInvalidMethod  ProtocolErrorCode = 1
	ErrCodeNoMemory       ProtocolErrorCode = 2
	ErrCodeImplementation ProtocolErrorCode = 3

	// wl_shm error codes.
	ErrCodeShmInvalidFormat ProtocolErrorCode = 0
	ErrCodeShmInvalidStride ProtocolErrorCode = 1
	ErrCodeShmInvalidFD     ProtocolErrorCode = 2

	// xdg_wm_base error codes.
	ErrCodeXdgRole              ProtocolErrorCode = 0
	ErrCodeXdgDefunctSurfaces   ProtocolErrorCode = 1
	ErrCodeXdgNotTheTopmostPopup ProtocolErrorCode = 2
	ErrCodeXdgInvalidPopupParent ProtocolErrorCode = 3
	ErrCodeXdgInvalidSurfaceState ProtocolErrorCode = 4
	ErrCodeXdgInvalidPositioner  ProtocolErrorCode = 5
	ErrCodeXdgUnresponsive       ProtocolErrorCode = 6
)

// ProtocolError is a per-client, recoverable protocol violation: invalid
// object, invalid method, role conflict, bad buffer geometry, unknown ack
// serial, or commit-before-first-ack. Raising one on a client's dispatch
// path marks that client for disconnection without touching any other
// client.
type ProtocolError struct {
	Object  ObjectID
	Code    ProtocolErrorCode
	Message string
}

func (e *ProtocolError) Error() string {
	return "protocol error on object " + itoa(uint32(e.Object)) + ": " + e.Message
}

func itoa(v uint32) string {
	if v == 0 {
		return "0"
	}
	var buf [10]byte
	i := len(buf)
	for v > 0 {
		i--
		buf[i] = byte('0' + v%10)
		v /= 10
	}
	return string(buf[i:])
}

// NewProtocolError constructs a ProtocolError bound to the offending object.
func NewProtocolError(object ObjectID, code ProtocolErrorCode, message string) *ProtocolError {
	return &ProtocolError{Object: object, Code: code, Message: message}
}
