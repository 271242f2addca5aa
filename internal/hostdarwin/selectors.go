//go:build darwin

package hostdarwin

import "sync"

var selectors struct {
	once sync.Once

	alloc   sel
	release sel

	sharedApplication        sel
	setActivationPolicy      sel
	activateIgnoringOtherApps sel
	finishLaunching          sel
	nextEventMatchingMask    sel
	sendEvent                sel

	initWithContentRectStyleMaskBackingDefer sel
	setTitle                   sel
	contentView                sel
	makeKeyAndOrderFront       sel
	orderOut                   sel
	close                      sel
	setAcceptsMouseMovedEvents sel
	setReleasedWhenClosed      sel
	center                     sel
	setFrame                   sel
	delegate                   sel
	setDelegate                sel

	initWithUTF8String sel

	distantPast   sel
	distantFuture sel

	new sel

	eventType        sel
	locationInWindow sel
	modifierFlags    sel
	keyCode          sel
	buttonNumber     sel
}

var classes struct {
	once sync.Once

	nsApplication     class
	nsWindow          class
	nsString          class
	nsDate            class
	nsAutoreleasePool class
}

func initSelectors() {
	selectors.once.Do(func() {
		selectors.alloc = registerSelector("alloc")
		selectors.release = registerSelector("release")

		selectors.sharedApplication = registerSelector("sharedApplication")
		selectors.setActivationPolicy = registerSelector("setActivationPolicy:")
		selectors.activateIgnoringOtherApps = registerSelector("activateIgnoringOtherApps:")
		selectors.finishLaunching = registerSelector("finishLaunching")
		selectors.nextEventMatchingMask = registerSelector("nextEventMatchingMask:untilDate:inMode:dequeue:")
		selectors.sendEvent = registerSelector("sendEvent:")

		selectors.initWithContentRectStyleMaskBackingDefer = registerSelector("initWithContentRect:styleMask:backing:defer:")
		selectors.setTitle = registerSelector("setTitle:")
		selectors.contentView = registerSelector("contentView")
		selectors.makeKeyAndOrderFront = registerSelector("makeKeyAndOrderFront:")
		selectors.orderOut = registerSelector("orderOut:")
		selectors.close = registerSelector("close")
		selectors.setAcceptsMouseMovedEvents = registerSelector("setAcceptsMouseMovedEvents:")
		selectors.setReleasedWhenClosed = registerSelector("setReleasedWhenClosed:")
		selectors.center = registerSelector("center")
		selectors.setFrame = registerSelector("setFrame:display:")

		selectors.initWithUTF8String = registerSelector("initWithUTF8String:")

		selectors.distantPast = registerSelector("distantPast")
		selectors.distantFuture = registerSelector("distantFuture")

		selectors.new = registerSelector("new")

		selectors.eventType = registerSelector("type")
		selectors.locationInWindow = registerSelector("locationInWindow")
		selectors.modifierFlags = registerSelector("modifierFlags")
		selectors.keyCode = registerSelector("keyCode")
		selectors.buttonNumber = registerSelector("buttonNumber")
	})
}

func initClasses() {
	classes.once.Do(func() {
		classes.nsApplication = getClass("NSApplication")
		classes.nsWindow = getClass("NSWindow")
		classes.nsString = getClass("NSString")
		classes.nsDate = getClass("NSDate")
		classes.nsAutoreleasePool = getClass("NSAutoreleasePool")
	})
}
