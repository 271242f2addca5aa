//go:build darwin

package hostdarwin

import (
	"errors"
	"sync"
	"unsafe"

	"github.com/go-webgpu/goffi/ffi"
	"github.com/go-webgpu/goffi/types"
)

// Errors returned by the Objective-C runtime shim.
var (
	ErrLibraryNotLoaded = errors.New("hostdarwin: failed to load library")
	ErrSymbolNotFound   = errors.New("hostdarwin: symbol not found")
)

// id, class and sel mirror the Objective-C runtime's own pointer-sized
// opaque types; keeping them distinct from plain uintptr catches mixing
// them up at compile time.
type id uintptr
type class uintptr
type sel uintptr

type objcRuntime struct {
	once sync.Once
	err  error

	libobjc    unsafe.Pointer
	foundation unsafe.Pointer
	appKit     unsafe.Pointer

	objcGetClass    unsafe.Pointer
	objcMsgSend     unsafe.Pointer
	selRegisterName unsafe.Pointer

	cifVoidPtr  *types.CallInterface
	cifSelector *types.CallInterface
}

var rt objcRuntime

var nsRectType = &types.TypeDescriptor{
	Size:      32,
	Alignment: 8,
	Kind:      types.StructType,
	Members: []*types.TypeDescriptor{
		types.DoubleTypeDescriptor,
		types.DoubleTypeDescriptor,
		types.DoubleTypeDescriptor,
		types.DoubleTypeDescriptor,
	},
}

func initRuntime() error {
	rt.once.Do(func() { rt.err = loadRuntime() })
	return rt.err
}

func loadRuntime() error {
	var err error
	if rt.libobjc, err = ffi.LoadLibrary("/usr/lib/libobjc.A.dylib"); err != nil {
		return errors.Join(ErrLibraryNotLoaded, err)
	}
	if rt.foundation, err = ffi.LoadLibrary("/System/Library/Frameworks/Foundation.framework/Foundation"); err != nil {
		return errors.Join(ErrLibraryNotLoaded, err)
	}
	if rt.appKit, err = ffi.LoadLibrary("/System/Library/Frameworks/AppKit.framework/AppKit"); err != nil {
		return errors.Join(ErrLibraryNotLoaded, err)
	}
	if rt.objcGetClass, err = ffi.GetSymbol(rt.libobjc, "objc_getClass"); err != nil {
		return errors.Join(ErrSymbolNotFound, err)
	}
	if rt.objcMsgSend, err = ffi.GetSymbol(rt.libobjc, "objc_msgSend"); err != nil {
		return errors.Join(ErrSymbolNotFound, err)
	}
	if rt.selRegisterName, err = ffi.GetSymbol(rt.libobjc, "sel_registerName"); err != nil {
		return errors.Join(ErrSymbolNotFound, err)
	}

	rt.cifVoidPtr = &types.CallInterface{}
	rt.cifSelector = &types.CallInterface{}

	if err := ffi.PrepareCallInterface(rt.cifVoidPtr, types.DefaultCall, types.PointerTypeDescriptor,
		[]*types.TypeDescriptor{types.PointerTypeDescriptor, types.PointerTypeDescriptor}); err != nil {
		return err
	}
	return ffi.PrepareCallInterface(rt.cifSelector, types.DefaultCall, types.PointerTypeDescriptor,
		[]*types.TypeDescriptor{types.PointerTypeDescriptor})
}

func cString(s string) unsafe.Pointer {
	b := append([]byte(s), 0)
	return unsafe.Pointer(&b[0])
}

func getClass(name string) class {
	if initRuntime() != nil {
		return 0
	}
	var result uintptr
	namePtr := cString(name)
	if err := ffi.CallFunction(rt.cifSelector, rt.objcGetClass, unsafe.Pointer(&result),
		[]unsafe.Pointer{unsafe.Pointer(&namePtr)}); err != nil {
		return 0
	}
	return class(result)
}

func registerSelector(name string) sel {
	if initRuntime() != nil {
		return 0
	}
	var result uintptr
	namePtr := cString(name)
	if err := ffi.CallFunction(rt.cifSelector, rt.selRegisterName, unsafe.Pointer(&result),
		[]unsafe.Pointer{unsafe.Pointer(&namePtr)}); err != nil {
		return 0
	}
	return sel(result)
}

func (o id) isNil() bool   { return o == 0 }
func (o id) ptr() uintptr  { return uintptr(o) }
func (c class) ptr() uintptr { return uintptr(c) }

// send calls objc_msgSend(self, sel) with no extra arguments.
func (o id) send(s sel) id {
	if o == 0 || s == 0 || initRuntime() != nil {
		return 0
	}
	argBox := struct{ self, cmd uintptr }{self: uintptr(o), cmd: uintptr(s)}
	var result uintptr
	if err := ffi.CallFunction(rt.cifVoidPtr, rt.objcMsgSend, unsafe.Pointer(&result),
		[]unsafe.Pointer{unsafe.Pointer(&argBox.self), unsafe.Pointer(&argBox.cmd)}); err != nil {
		return 0
	}
	return id(result)
}

func (c class) send(s sel) id { return id(c).send(s) }

// msgSend is the variable-argument slow path: a fresh call interface per
// invocation, used for the infrequent, non-hot-path messages (window
// creation, title changes) this package sends.
func msgSend(self id, s sel, args ...uintptr) id {
	if self == 0 || s == 0 || initRuntime() != nil {
		return 0
	}
	if len(args) > 6 {
		panic("hostdarwin: msgSend stack args unsupported")
	}
	argTypes := make([]*types.TypeDescriptor, 2+len(args))
	argTypes[0] = types.PointerTypeDescriptor
	argTypes[1] = types.PointerTypeDescriptor
	for i := range args {
		argTypes[2+i] = types.PointerTypeDescriptor
	}
	cif := &types.CallInterface{}
	if err := ffi.PrepareCallInterface(cif, types.DefaultCall, types.PointerTypeDescriptor, argTypes); err != nil {
		return 0
	}
	argVals := make([]uintptr, 2+len(args))
	argVals[0] = uintptr(self)
	argVals[1] = uintptr(s)
	copy(argVals[2:], args)
	argPtrs := make([]unsafe.Pointer, len(argVals))
	for i := range argVals {
		argPtrs[i] = unsafe.Pointer(&argVals[i])
	}
	var result uintptr
	if err := ffi.CallFunction(cif, rt.objcMsgSend, unsafe.Pointer(&result), argPtrs); err != nil {
		return 0
	}
	return id(result)
}

func (o id) sendPtr(s sel, arg uintptr) id  { return msgSend(o, s, arg) }
func (o id) sendInt(s sel, arg int64) id    { return msgSend(o, s, uintptr(arg)) }
func (o id) sendUint(s sel, arg uint64) id  { return msgSend(o, s, uintptr(arg)) }
func (o id) sendBool(s sel, arg bool) id {
	var v uintptr
	if arg {
		v = 1
	}
	return msgSend(o, s, v)
}

// sendRectUintUintBool sends initWithContentRect:styleMask:backing:defer:,
// NSWindow's one struct-carrying initializer this package needs.
func (o id) sendRectUintUintBool(s sel, rect nsRect, style uint64, backing uint64, deferFlag bool) id {
	if o == 0 || s == 0 || initRuntime() != nil {
		return 0
	}
	argTypes := []*types.TypeDescriptor{
		types.PointerTypeDescriptor, types.PointerTypeDescriptor,
		nsRectType, types.UInt64TypeDescriptor, types.UInt64TypeDescriptor, types.UInt8TypeDescriptor,
	}
	cif := &types.CallInterface{}
	if err := ffi.PrepareCallInterface(cif, types.DefaultCall, types.PointerTypeDescriptor, argTypes); err != nil {
		return 0
	}
	var deferVal uint8
	if deferFlag {
		deferVal = 1
	}
	argBox := struct {
		self, sel          uintptr
		rect               nsRect
		style, backing     uint64
		deferVal           uint8
	}{self: uintptr(o), sel: uintptr(s), rect: rect, style: style, backing: backing, deferVal: deferVal}
	argPtrs := []unsafe.Pointer{
		unsafe.Pointer(&argBox.self), unsafe.Pointer(&argBox.sel), unsafe.Pointer(&argBox.rect),
		unsafe.Pointer(&argBox.style), unsafe.Pointer(&argBox.backing), unsafe.Pointer(&argBox.deferVal),
	}
	var result uintptr
	if err := ffi.CallFunction(cif, rt.objcMsgSend, unsafe.Pointer(&result), argPtrs); err != nil {
		return 0
	}
	return id(result)
}

type nsRect struct{ x, y, w, h float64 }

// sendRectBool sends a two-argument (NSRect, BOOL) message, the shape of
// setFrame:display:.
func sendRectBool(o id, s sel, rect nsRect, flag bool) id {
	if o == 0 || s == 0 || initRuntime() != nil {
		return 0
	}
	argTypes := []*types.TypeDescriptor{
		types.PointerTypeDescriptor, types.PointerTypeDescriptor,
		nsRectType, types.UInt8TypeDescriptor,
	}
	cif := &types.CallInterface{}
	if err := ffi.PrepareCallInterface(cif, types.DefaultCall, types.PointerTypeDescriptor, argTypes); err != nil {
		return 0
	}
	var flagVal uint8
	if flag {
		flagVal = 1
	}
	argBox := struct {
		self, sel uintptr
		rect      nsRect
		flagVal   uint8
	}{self: uintptr(o), sel: uintptr(s), rect: rect, flagVal: flagVal}
	argPtrs := []unsafe.Pointer{
		unsafe.Pointer(&argBox.self), unsafe.Pointer(&argBox.sel),
		unsafe.Pointer(&argBox.rect), unsafe.Pointer(&argBox.flagVal),
	}
	var result uintptr
	if err := ffi.CallFunction(cif, rt.objcMsgSend, unsafe.Pointer(&result), argPtrs); err != nil {
		return 0
	}
	return id(result)
}

var nsPointType = &types.TypeDescriptor{
	Size:      16,
	Alignment: 8,
	Kind:      types.StructType,
	Members:   []*types.TypeDescriptor{types.DoubleTypeDescriptor, types.DoubleTypeDescriptor},
}

type nsPoint struct{ x, y float64 }

// sendPoint calls a no-argument, NSPoint-returning method such as
// locationInWindow. Small structs are register-returned on arm64 and
// x86_64's System V ABI, so this shares objc_msgSend rather than the
// struct-return entry point.
func (o id) sendPoint(s sel) nsPoint {
	if o == 0 || s == 0 || initRuntime() != nil {
		return nsPoint{}
	}
	argTypes := []*types.TypeDescriptor{types.PointerTypeDescriptor, types.PointerTypeDescriptor}
	cif := &types.CallInterface{}
	if err := ffi.PrepareCallInterface(cif, types.DefaultCall, nsPointType, argTypes); err != nil {
		return nsPoint{}
	}
	argBox := struct{ self, cmd uintptr }{self: uintptr(o), cmd: uintptr(s)}
	var result nsPoint
	if err := ffi.CallFunction(cif, rt.objcMsgSend, unsafe.Pointer(&result),
		[]unsafe.Pointer{unsafe.Pointer(&argBox.self), unsafe.Pointer(&argBox.cmd)}); err != nil {
		return nsPoint{}
	}
	return result
}

// sendIntRet calls a no-argument method returning an integer-sized value
// (type, keyCode, modifierFlags, buttonNumber).
func (o id) sendIntRet(s sel) uint64 { return uint64(o.send(s)) }

func newNSString(s string) id {
	if initRuntime() != nil {
		return 0
	}
	str := classes.nsString.send(selectors.alloc)
	if str.isNil() {
		return 0
	}
	b := append([]byte(s), 0)
	return str.sendPtr(selectors.initWithUTF8String, uintptr(unsafe.Pointer(&b[0])))
}
